package course

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

var ErrInvalidManifest = errors.New("invalid course manifest")

func LoadManifest(path string) (*Course, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading manifest: %w", err)
	}
	c, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("op", "course/manifest").Msgf("loaded %s with %d sections", c.ID, len(c.Sections))
	return c, nil
}

func ParseManifest(data []byte) (*Course, error) {
	var c Course
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("error parsing manifest: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Course) validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: course id is required", ErrInvalidManifest)
	}
	blocks := make(map[string]bool)
	videos := make(map[string]bool)
	for i, b := range c.Sections {
		if b == nil || b.ID == "" {
			return fmt.Errorf("%w: section[%d] requires an id", ErrInvalidManifest, i)
		}
		if blocks[b.ID] {
			return fmt.Errorf("%w: duplicate section id %s", ErrInvalidManifest, b.ID)
		}
		blocks[b.ID] = true
		for j, v := range b.Videos {
			if v == nil || v.ID == "" {
				return fmt.Errorf("%w: section %s video[%d] requires an id", ErrInvalidManifest, b.ID, j)
			}
			if videos[v.ID] {
				return fmt.Errorf("%w: duplicate video id %s", ErrInvalidManifest, v.ID)
			}
			videos[v.ID] = true
			if v.URL == "" {
				return fmt.Errorf("%w: video %s requires a url", ErrInvalidManifest, v.ID)
			}
			if v.FileName == "" {
				v.FileName = defaultFileName(v)
			} else {
				v.FileName = safeName(v.FileName)
			}
		}
	}
	return nil
}
