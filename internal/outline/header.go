package outline

import (
	"github.com/tanq16/coursekeep/internal/course"
	"github.com/tanq16/coursekeep/internal/events"
)

// HeaderRow shows the course title and detail, and keeps the cover image
// once an image event for the course's own cover URL arrives.
type HeaderRow struct {
	course  *course.Course
	apiHost string
	image   []byte
	sub     *events.Subscription
}

func NewHeaderRow(c *course.Course, apiHost string, images *events.Bus[events.Image]) *HeaderRow {
	h := &HeaderRow{course: c, apiHost: apiHost}
	if images != nil {
		h.sub = images.Subscribe(h.imageReady)
	}
	return h
}

func (h *HeaderRow) imageReady(ev events.Image) {
	if url := h.CoverURL(); url != "" && url == ev.URL {
		h.image = ev.Data
	}
}

func (h *HeaderRow) Title() string    { return h.course.Title() }
func (h *HeaderRow) Detail() string   { return h.course.Detail() }
func (h *HeaderRow) CoverURL() string { return h.course.CoverURL(h.apiHost) }
func (h *HeaderRow) Image() []byte    { return h.image }

func (h *HeaderRow) Close() {
	h.sub.Cancel()
}
