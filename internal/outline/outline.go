package outline

import (
	"github.com/tanq16/coursekeep/internal/course"
	"github.com/tanq16/coursekeep/internal/downloads"
	"github.com/tanq16/coursekeep/internal/events"
	"github.com/tanq16/coursekeep/internal/observable"
	"github.com/tanq16/coursekeep/internal/store"
)

type Deps struct {
	Downloads *events.Bus[events.Download]
	Images    *events.Bus[events.Image]
	Deleter   store.Deleter
	Delegate  Delegate
	APIHost   string
}

// Section is a rendering snapshot of one row.
type Section struct {
	ID          string              `json:"id"`
	DisplayName string              `json:"displayName"`
	Format      string              `json:"format,omitempty"`
	Graded      bool                `json:"graded"`
	Visible     bool                `json:"indicatorVisible"`
	State       downloads.Aggregate `json:"state"`
	Videos      int                 `json:"videos"`
	Complete    int                 `json:"complete"`
	Partial     int                 `json:"partial"`
}

// Outline is the course header plus one row per section, each row backed by
// a per-section video stream. Like the rows, it belongs to the event loop.
type Outline struct {
	Course  *course.Course
	Header  *HeaderRow
	deps    Deps
	sources map[string]*observable.Value[[]*course.Video]
	rows    []*SectionRow
}

func New(c *course.Course, deps Deps) (*Outline, error) {
	o := &Outline{deps: deps}
	if err := o.Load(c); err != nil {
		return nil, err
	}
	return o, nil
}

// Load (re)builds the outline for c. Existing rows are recycled in order;
// surplus rows are closed.
func (o *Outline) Load(c *course.Course) error {
	if o.Header != nil {
		o.Header.Close()
	}
	for _, src := range o.sources {
		src.Reset()
	}
	o.Course = c
	o.Header = NewHeaderRow(c, o.deps.APIHost, o.deps.Images)
	o.sources = make(map[string]*observable.Value[[]*course.Video], len(c.Sections))

	rows := make([]*SectionRow, 0, len(c.Sections))
	for i, b := range c.Sections {
		src := observable.Of(b.Videos)
		o.sources[b.ID] = src
		var row *SectionRow
		if i < len(o.rows) {
			row = o.rows[i]
			row.PrepareForReuse()
		} else {
			row = NewSectionRow(o.deps.Downloads, o.deps.Deleter, o.deps.Delegate)
		}
		row.SetBlock(c, b)
		if err := row.Bind(src); err != nil {
			return err
		}
		rows = append(rows, row)
	}
	for _, row := range o.rows[min(len(o.rows), len(rows)):] {
		row.Close()
	}
	o.rows = rows
	return nil
}

func (o *Outline) Rows() []*SectionRow {
	return o.rows
}

func (o *Outline) Row(blockID string) (*SectionRow, bool) {
	for _, row := range o.rows {
		if b := row.Block(); b != nil && b.ID == blockID {
			return row, true
		}
	}
	return nil, false
}

// Refresh re-publishes a section's videos, e.g. after they were re-probed.
func (o *Outline) Refresh(blockID string) bool {
	src, ok := o.sources[blockID]
	if !ok {
		return false
	}
	b, _ := o.Course.Block(blockID)
	src.Set(b.Videos)
	return true
}

func (o *Outline) Sections() []Section {
	out := make([]Section, 0, len(o.rows))
	for _, row := range o.rows {
		out = append(out, row.Snapshot())
	}
	return out
}

func (r *SectionRow) Snapshot() Section {
	ind := r.Indicator()
	s := Section{
		DisplayName: r.Title(),
		Format:      r.Detail(),
		Graded:      r.Graded(),
		Visible:     ind.Visible,
		State:       ind.State,
		Videos:      ind.Count,
	}
	if b := r.Block(); b != nil {
		s.ID = b.ID
	}
	counts := downloads.Counts(r.Videos())
	s.Complete = counts[downloads.Complete]
	s.Partial = counts[downloads.Partial]
	return s
}

func (o *Outline) Close() {
	for _, row := range o.rows {
		row.Close()
	}
	for _, src := range o.sources {
		src.Reset()
	}
	if o.Header != nil {
		o.Header.Close()
	}
	o.rows = nil
}
