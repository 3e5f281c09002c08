package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/tanq16/coursekeep/internal/downloads"
)

type Kind string

const (
	ProgressChanged   Kind = "progress-changed"
	Ended             Kind = "ended"
	VideoStateChanged Kind = "video-state-changed"
)

// Download reports a change for one video download.
type Download struct {
	ID      string
	Kind    Kind
	JobID   string
	BlockID string
	VideoID string
	State   downloads.State
	Bytes   int64
	Total   int64
	Err     error
	At      time.Time
}

func NewDownload(kind Kind, blockID, videoID string, state downloads.State) Download {
	return Download{
		ID:      uuid.NewString(),
		Kind:    kind,
		BlockID: blockID,
		VideoID: videoID,
		State:   state,
		At:      time.Now(),
	}
}

// Image announces that image bytes for URL are available.
type Image struct {
	URL  string
	Data []byte
}
