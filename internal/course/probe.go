package course

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/coursekeep/internal/downloads"
)

// Probe sets every video to Complete when its final file exists under root
// and NotStarted otherwise. Partial is never derived from disk; it means a
// download is queued or running.
func Probe(c *Course, root string) {
	for _, b := range c.Sections {
		for _, v := range b.Videos {
			if _, err := os.Stat(v.OutputPath(root, c, b)); err == nil {
				v.SetState(downloads.Complete)
			} else {
				v.SetState(downloads.NotStarted)
			}
		}
		log.Debug().Str("op", "course/probe").Msgf("section %s is %s", b.ID, downloads.Classify(b.Videos))
	}
}
