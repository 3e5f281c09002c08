package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/coursekeep/internal/utils"
)

// HTTP downloads into a temp .part file, resuming with a Range request when
// one is left over, and renames it into place on success.
type HTTP struct {
	Client     utils.HTTPDoer
	MaxRetries int
	Backoff    time.Duration
}

func NewHTTP(client utils.HTTPDoer) *HTTP {
	return &HTTP{Client: client, MaxRetries: 5, Backoff: 500 * time.Millisecond}
}

func (h *HTTP) Fetch(ctx context.Context, url, outputPath string, progress func(int64)) error {
	tempOutputPath := utils.PartPath(outputPath)
	if err := os.MkdirAll(filepath.Dir(tempOutputPath), 0755); err != nil {
		return fmt.Errorf("error creating temp directory: %w", err)
	}
	maxRetries := max(h.MaxRetries, 1)
	var lastErr error

	for retry := range maxRetries {
		if retry > 0 {
			log.Warn().Str("op", "fetch/http").Msgf("Retrying download for %s (attempt %d/%d)", outputPath, retry+1, maxRetries)
			select {
			case <-time.After(time.Duration(retry+1) * h.Backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err := h.attempt(ctx, url, tempOutputPath, progress)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Str("op", "fetch/http").Err(err).Msgf("Download attempt %d failed", retry+1)
			continue
		}
		if err := os.Rename(tempOutputPath, outputPath); err != nil {
			return fmt.Errorf("error finalizing output file: %w", err)
		}
		if err := utils.CleanTempDir(filepath.Dir(outputPath)); err != nil {
			log.Debug().Str("op", "fetch/http").Err(err).Msg("temp directory left in place")
		}
		log.Info().Str("op", "fetch/http").Msgf("download successful for %s", outputPath)
		return nil
	}
	return fmt.Errorf("download failed after %d retries: %w", maxRetries, lastErr)
}

func (h *HTTP) attempt(ctx context.Context, url, tempOutputPath string, progress func(int64)) error {
	var resumeOffset int64
	fileMode := os.O_CREATE | os.O_WRONLY
	if fileInfo, err := os.Stat(tempOutputPath); err == nil {
		resumeOffset = fileInfo.Size()
		fileMode |= os.O_APPEND
	} else {
		fileMode |= os.O_TRUNC
	}

	outFile, err := os.OpenFile(tempOutputPath, fileMode, 0644)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	// Error returns close the file here; the success path closes it itself.
	defer func() { outFile.Close() }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("error creating GET request: %w", err)
	}
	if resumeOffset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", resumeOffset))
		log.Debug().Str("op", "fetch/http").Msgf("Resuming download from offset %d", resumeOffset)
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return fmt.Errorf("error executing GET request: %w", err)
	}
	defer resp.Body.Close()

	if resumeOffset > 0 {
		if resp.StatusCode != http.StatusPartialContent {
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
			}
			log.Warn().Str("op", "fetch/http").Msgf("Server does not support resume (status %d). Restarting download.", resp.StatusCode)
			outFile.Close()
			outFile, err = os.OpenFile(tempOutputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
			if err != nil {
				return fmt.Errorf("error creating output file: %w", err)
			}
		} else if progress != nil {
			progress(resumeOffset)
		}
	} else if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	buffer := make([]byte, 32*1024)
	for {
		bytesRead, readErr := resp.Body.Read(buffer)
		if bytesRead > 0 {
			if _, writeErr := outFile.Write(buffer[:bytesRead]); writeErr != nil {
				return fmt.Errorf("error writing to output file: %w", writeErr)
			}
			if progress != nil {
				progress(int64(bytesRead))
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return fmt.Errorf("error reading response body: %w", readErr)
		}
	}
	if err := outFile.Sync(); err != nil {
		return fmt.Errorf("error syncing output file: %w", err)
	}
	if err := outFile.Close(); err != nil {
		return fmt.Errorf("error closing output file: %w", err)
	}
	return nil
}
