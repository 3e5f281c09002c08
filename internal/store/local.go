package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/coursekeep/internal/course"
	"github.com/tanq16/coursekeep/internal/utils"
)

// Local deletes video files under Root. Missing files are not errors.
type Local struct {
	Root string
}

func (l *Local) DeleteVideos(ctx context.Context, c *course.Course, b *course.Block, videos []*course.Video) ([]string, error) {
	var ids []string
	for _, v := range videos {
		if err := ctx.Err(); err != nil {
			return ids, err
		}
		outputPath := v.OutputPath(l.Root, c, b)
		removed := false
		chunks, _ := filepath.Glob(utils.PartPath(outputPath) + "[0-9]*")
		for _, p := range append([]string{outputPath, utils.PartPath(outputPath)}, chunks...) {
			err := os.Remove(p)
			if err == nil {
				removed = true
				continue
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return ids, fmt.Errorf("error removing %s: %w", p, err)
			}
		}
		if removed {
			ids = append(ids, v.ID)
			log.Debug().Str("op", "store/local").Msgf("removed %s", outputPath)
		}
	}
	if err := utils.CleanTempDir(course.BlockDir(l.Root, c, b)); err != nil {
		log.Warn().Str("op", "store/local").Err(err).Msg("could not clean temp directory")
	}
	log.Info().Str("op", "store/local").Msgf("deleted %d of %d videos in %s", len(ids), len(videos), b.ID)
	return ids, nil
}
