package fetch

import (
	"context"
	"fmt"
	"strings"
)

type Fetcher interface {
	Fetch(ctx context.Context, url, outputPath string, progress func(int64)) error
}

// Router picks a fetcher by URL scheme. S3 may be nil when no s3:// videos
// are expected.
type Router struct {
	HTTP Fetcher
	S3   Fetcher
}

func (r *Router) Fetch(ctx context.Context, url, outputPath string, progress func(int64)) error {
	switch {
	case strings.HasPrefix(url, "s3://"):
		if r.S3 == nil {
			return fmt.Errorf("no s3 fetcher configured for %s", url)
		}
		return r.S3.Fetch(ctx, url, outputPath, progress)
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
		return r.HTTP.Fetch(ctx, url, outputPath, progress)
	}
	return fmt.Errorf("unsupported video url: %s", url)
}
