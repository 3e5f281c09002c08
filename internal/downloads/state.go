package downloads

import (
	"fmt"
	"strings"
)

// State is the download status of a single video.
type State int

const (
	NotStarted State = iota
	Partial
	Complete
)

func (s State) String() string {
	switch s {
	case Partial:
		return "partial"
	case Complete:
		return "complete"
	default:
		return "not-started"
	}
}

func ParseState(s string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "not-started", "notstarted", "none":
		return NotStarted, nil
	case "partial", "downloading":
		return Partial, nil
	case "complete", "completed", "done":
		return Complete, nil
	}
	return NotStarted, fmt.Errorf("unknown download state %q", s)
}

// Aggregate summarizes the download state of a collection of videos.
// The zero value None means there is nothing to show.
type Aggregate int

const (
	None Aggregate = iota
	Available
	Downloading
	Done
)

func (a Aggregate) String() string {
	switch a {
	case Available:
		return "available"
	case Downloading:
		return "downloading"
	case Done:
		return "done"
	default:
		return "none"
	}
}

func (a Aggregate) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Aggregate) UnmarshalText(text []byte) error {
	switch string(text) {
	case "none", "":
		*a = None
	case "available":
		*a = Available
	case "downloading":
		*a = Downloading
	case "done":
		*a = Done
	default:
		return fmt.Errorf("unknown aggregate state %q", text)
	}
	return nil
}

type Item interface {
	DownloadState() State
}

// Classify reduces the per-item states to one aggregate state.
// Checks run in a fixed order: all complete, then every incomplete item
// partial, else available. An empty collection yields None.
func Classify[I Item](items []I) Aggregate {
	if len(items) == 0 {
		return None
	}
	allCompleted := true
	for _, item := range items {
		if item.DownloadState() != Complete {
			allCompleted = false
			break
		}
	}
	if allCompleted {
		return Done
	}
	for _, item := range incomplete(items) {
		if item.DownloadState() != Partial {
			return Available
		}
	}
	return Downloading
}

func AllDownloaded[I Item](items []I) bool {
	return Classify(items) == Done
}

func incomplete[I Item](items []I) []I {
	var out []I
	for _, item := range items {
		if item.DownloadState() != Complete {
			out = append(out, item)
		}
	}
	return out
}

// Counts returns how many items sit in each state.
func Counts[I Item](items []I) map[State]int {
	counts := make(map[State]int, 3)
	for _, item := range items {
		counts[item.DownloadState()]++
	}
	return counts
}
