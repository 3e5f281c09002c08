package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func PartPath(outputPath string) string {
	return filepath.Join(filepath.Dir(outputPath), TempDirName, filepath.Base(outputPath)+".part")
}

// ChunkPath is the temp file of one byte range of a chunked download.
func ChunkPath(outputPath string, id int) string {
	return fmt.Sprintf("%s%d", PartPath(outputPath), id)
}

func ParseHeaderArgs(headers []string) map[string]string {
	result := make(map[string]string)
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			result[key] = value
		}
	}
	return result
}

func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// CleanTempDir removes dir's temp directory when it holds no files.
func CleanTempDir(dir string) error {
	tempDir := filepath.Join(dir, TempDirName)
	files, err := os.ReadDir(tempDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return os.Remove(tempDir)
	}
	return nil
}

// Clean walks root and removes every temp directory with its leftover
// .part files. It returns how many directories were removed.
func Clean(root string) (int, error) {
	var tempDirs []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == TempDirName {
			tempDirs = append(tempDirs, path)
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, dir := range tempDirs {
		if err := os.RemoveAll(dir); err != nil {
			return 0, err
		}
	}
	return len(tempDirs), nil
}
