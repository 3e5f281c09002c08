package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/coursekeep/internal/utils"
)

// Chunked splits large downloads into byte ranges fetched over parallel
// connections. Small files, and servers without range support, go through
// Fallback.
type Chunked struct {
	Client      utils.HTTPDoer
	Connections int
	MinSize     int64
	MaxRetries  int
	Backoff     time.Duration
	Fallback    Fetcher
}

type chunk struct {
	id    int
	start int64
	end   int64
	path  string
}

func (c chunk) size() int64 {
	return c.end - c.start + 1
}

func NewChunked(client utils.HTTPDoer, connections int) *Chunked {
	return &Chunked{
		Client:      client,
		Connections: connections,
		MinSize:     8 * 1024 * 1024,
		MaxRetries:  5,
		Backoff:     500 * time.Millisecond,
		Fallback:    NewHTTP(client),
	}
}

func (d *Chunked) Fetch(ctx context.Context, url, outputPath string, progress func(int64)) error {
	if d.Connections < 2 {
		return d.Fallback.Fetch(ctx, url, outputPath, progress)
	}
	size, ranges, err := d.probe(ctx, url)
	if err != nil {
		log.Debug().Str("op", "fetch/chunked").Err(err).Msgf("probe failed for %s", url)
	}
	if err != nil || !ranges || size < max(d.MinSize, 1) {
		return d.Fallback.Fetch(ctx, url, outputPath, progress)
	}
	if progress == nil {
		progress = func(int64) {}
	}

	if err := os.MkdirAll(filepath.Join(filepath.Dir(outputPath), utils.TempDirName), 0755); err != nil {
		return fmt.Errorf("error creating temp directory: %w", err)
	}
	chunks := splitChunks(size, d.Connections, outputPath)
	log.Debug().Str("op", "fetch/chunked").Msgf("downloading %s in %d chunks", outputPath, len(chunks))

	errs := make([]error, len(chunks))
	var wg sync.WaitGroup
	for i := range chunks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = d.fetchChunk(ctx, url, chunks[i], progress)
		}()
	}
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return err
	}
	if err := assemble(chunks, outputPath, size); err != nil {
		return err
	}
	if err := utils.CleanTempDir(filepath.Dir(outputPath)); err != nil {
		log.Debug().Str("op", "fetch/chunked").Err(err).Msg("temp directory left in place")
	}
	log.Info().Str("op", "fetch/chunked").Msgf("download successful for %s", outputPath)
	return nil
}

// probe reports the size of url and whether the server accepts byte ranges.
func (d *Chunked) probe(ctx context.Context, url string) (int64, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, false, err
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return 0, false, err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, false, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp.ContentLength, resp.Header.Get("Accept-Ranges") == "bytes", nil
}

func splitChunks(size int64, connections int, outputPath string) []chunk {
	n := int64(max(connections, 1))
	chunkSize := size / n
	chunks := make([]chunk, 0, n)
	for i := range n {
		c := chunk{
			id:    int(i),
			start: i * chunkSize,
			end:   (i+1)*chunkSize - 1,
			path:  utils.ChunkPath(outputPath, int(i)),
		}
		if i == n-1 {
			c.end = size - 1
		}
		chunks = append(chunks, c)
	}
	return chunks
}

func (d *Chunked) fetchChunk(ctx context.Context, url string, c chunk, progress func(int64)) error {
	var offset int64
	if info, err := os.Stat(c.path); err == nil {
		offset = info.Size()
		if offset > c.size() {
			os.Remove(c.path)
			offset = 0
		}
	}
	progress(offset)
	if offset == c.size() {
		return nil
	}

	maxRetries := max(d.MaxRetries, 1)
	var lastErr error
	for retry := range maxRetries {
		if retry > 0 {
			select {
			case <-time.After(time.Duration(retry+1) * d.Backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		n, err := d.fetchRange(ctx, url, c, offset, progress)
		offset += n
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Str("op", "fetch/chunked").Err(err).Msgf("chunk %d attempt %d failed", c.id, retry+1)
	}
	return fmt.Errorf("chunk %d failed after %d retries: %w", c.id, maxRetries, lastErr)
}

// fetchRange appends the rest of chunk c from offset and returns how many
// bytes it wrote.
func (d *Chunked) fetchRange(ctx context.Context, url string, c chunk, offset int64, progress func(int64)) (int64, error) {
	flag := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	if offset == 0 {
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	file, err := os.OpenFile(c.path, flag, 0644)
	if err != nil {
		return 0, fmt.Errorf("error opening temp file: %w", err)
	}
	defer file.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", c.start+offset, c.end))
	resp, err := d.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent {
		return 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	remaining := c.size() - offset
	buffer := make([]byte, utils.DefaultBufferSize)
	var written int64
	for written < remaining {
		n, readErr := resp.Body.Read(buffer)
		if n > 0 {
			n = int(min(int64(n), remaining-written))
			if _, err := file.Write(buffer[:n]); err != nil {
				return written, err
			}
			written += int64(n)
			progress(int64(n))
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return written, readErr
		}
	}
	if written != remaining {
		return written, fmt.Errorf("size mismatch: expected %d remaining bytes, got %d", remaining, written)
	}
	return written, nil
}

// assemble joins the chunk files into the temp .part file and renames it,
// so the final path only appears once the whole video is there.
func assemble(chunks []chunk, outputPath string, size int64) error {
	partPath := utils.PartPath(outputPath)
	dest, err := os.Create(partPath)
	if err != nil {
		return err
	}
	var total int64
	for _, c := range chunks {
		src, err := os.Open(c.path)
		if err != nil {
			dest.Close()
			return fmt.Errorf("error opening chunk: %w", err)
		}
		n, err := io.Copy(dest, src)
		src.Close()
		if err != nil {
			dest.Close()
			return fmt.Errorf("error copying chunk: %w", err)
		}
		total += n
	}
	if err := dest.Close(); err != nil {
		return err
	}
	if total != size {
		os.Remove(partPath)
		return fmt.Errorf("size mismatch: expected %d, got %d", size, total)
	}
	if err := os.Rename(partPath, outputPath); err != nil {
		return fmt.Errorf("error finalizing output file: %w", err)
	}
	for _, c := range chunks {
		os.Remove(c.path)
	}
	return nil
}
