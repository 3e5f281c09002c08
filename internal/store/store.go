package store

import (
	"context"

	"github.com/tanq16/coursekeep/internal/course"
)

// Deleter physically removes downloaded videos and reports the ids it removed.
type Deleter interface {
	DeleteVideos(ctx context.Context, c *course.Course, b *course.Block, videos []*course.Video) ([]string, error)
}

// Chain runs every deleter in order. The returned ids are the union of what
// each removed; the first error is returned after all deleters ran.
type Chain []Deleter

func (ch Chain) DeleteVideos(ctx context.Context, c *course.Course, b *course.Block, videos []*course.Video) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	var errs []error
	for _, d := range ch {
		removed, err := d.DeleteVideos(ctx, c, b, videos)
		if err != nil {
			errs = append(errs, err)
		}
		for _, id := range removed {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	if len(errs) > 0 {
		return ids, errs[0]
	}
	return ids, nil
}
