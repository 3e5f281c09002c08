package outline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/coursekeep/internal/course"
	"github.com/tanq16/coursekeep/internal/downloads"
	"github.com/tanq16/coursekeep/internal/events"
	"github.com/tanq16/coursekeep/internal/observable"
	"github.com/tanq16/coursekeep/internal/store"
)

var ErrNotDownloaded = errors.New("section is not fully downloaded")

type Delegate interface {
	ChoseDownload(row *SectionRow, videos []*course.Video, block *course.Block)
	ChoseShowDownloads(row *SectionRow)
	Updated(row *SectionRow)
}

// Indicator is the download affordance shown next to a section.
type Indicator struct {
	Visible bool
	State   downloads.Aggregate
	Count   int
}

type Orientation int

const (
	Leading Orientation = iota
	Trailing
)

// SectionRow presents one course section and its download indicator. Rows
// are reusable: PrepareForReuse detaches them from their section, Close
// tears them down for good. All methods must run on the event loop.
type SectionRow struct {
	course    *course.Course
	block     *course.Block
	videos    *observable.Value[[]*course.Video]
	indicator Indicator
	delegate  Delegate
	deleter   store.Deleter
	bus       *events.Bus[events.Download]
	sub       *events.Subscription
}

func NewSectionRow(bus *events.Bus[events.Download], deleter store.Deleter, delegate Delegate) *SectionRow {
	r := &SectionRow{
		videos:   observable.New[[]*course.Video](),
		delegate: delegate,
		deleter:  deleter,
		bus:      bus,
	}
	r.videos.Listen(r, func(videos []*course.Video, ok bool) {
		state := downloads.Classify(videos)
		if ok && state != downloads.None {
			r.indicator = Indicator{Visible: true, State: state, Count: len(videos)}
		} else {
			r.indicator = Indicator{}
		}
	})
	if bus != nil {
		r.sub = bus.Subscribe(r.downloadChanged)
	}
	return r
}

func (r *SectionRow) downloadChanged(ev events.Download) {
	if r.block != nil && ev.BlockID != "" && ev.BlockID != r.block.ID {
		return
	}
	videos, _ := r.videos.Current()
	if state := downloads.Classify(videos); state != downloads.None {
		r.indicator.State = state
	} else {
		r.indicator.Visible = false
	}
}

func (r *SectionRow) SetBlock(c *course.Course, b *course.Block) {
	r.course, r.block = c, b
}

func (r *SectionRow) Block() *course.Block {
	return r.block
}

func (r *SectionRow) Title() string {
	if r.block == nil {
		return ""
	}
	return r.block.DisplayName
}

func (r *SectionRow) Detail() string {
	if r.block == nil {
		return ""
	}
	return r.block.Format
}

func (r *SectionRow) Graded() bool {
	return r.block != nil && r.block.Graded
}

// Bind makes the row follow source, usually the outline's stream for the
// row's section.
func (r *SectionRow) Bind(source *observable.Value[[]*course.Video]) error {
	return r.videos.BackWith(source)
}

func (r *SectionRow) PrepareForReuse() {
	_ = r.videos.BackWith(observable.Of([]*course.Video{}))
	r.course, r.block = nil, nil
}

func (r *SectionRow) Close() {
	r.videos.Reset()
	r.sub.Cancel()
	r.indicator = Indicator{}
	r.course, r.block = nil, nil
}

func (r *SectionRow) Indicator() Indicator {
	return r.indicator
}

func (r *SectionRow) Videos() []*course.Video {
	videos, _ := r.videos.Current()
	return videos
}

func (r *SectionRow) TapDownload() {
	videos, ok := r.videos.Current()
	if r.block == nil || !ok || r.delegate == nil {
		return
	}
	r.delegate.ChoseDownload(r, videos, r.block)
}

func (r *SectionRow) TapIndicator() {
	if r.delegate != nil && r.indicator.State == downloads.Downloading {
		r.delegate.ChoseShowDownloads(r)
	}
}

// AllDownloaded looks at the current snapshot only; it never subscribes.
func (r *SectionRow) AllDownloaded() bool {
	videos, _ := r.videos.Current()
	return downloads.AllDownloaded(videos)
}

// DeleteAction is the swipe action offered on a fully downloaded section.
type DeleteAction struct {
	Title string
	row   *SectionRow
}

func (a *DeleteAction) Run(ctx context.Context) error {
	return a.row.DeleteDownloads(ctx)
}

// DeleteAction returns nil unless o is Trailing and every video is downloaded.
func (r *SectionRow) DeleteAction(o Orientation) *DeleteAction {
	if o != Trailing || !r.AllDownloaded() {
		return nil
	}
	return &DeleteAction{Title: "Delete", row: r}
}

// DeleteDownloads removes the section's downloaded videos through the store,
// marks them not started and announces the change.
func (r *SectionRow) DeleteDownloads(ctx context.Context) error {
	if r.block == nil || !r.AllDownloaded() {
		return ErrNotDownloaded
	}
	if r.deleter == nil {
		return fmt.Errorf("no store configured for %s", r.block.ID)
	}
	videos := r.Videos()
	ids, err := r.deleter.DeleteVideos(ctx, r.course, r.block, videos)
	removed := make(map[string]bool, len(ids))
	for _, id := range ids {
		removed[id] = true
	}
	for _, v := range videos {
		if err != nil && !removed[v.ID] {
			continue
		}
		v.SetState(downloads.NotStarted)
		if r.bus != nil {
			r.bus.Publish(events.NewDownload(events.VideoStateChanged, r.block.ID, v.ID, downloads.NotStarted))
		}
	}
	if err != nil {
		log.Error().Str("op", "outline/section").Err(err).Msgf("deleting downloads of %s", r.block.ID)
		return fmt.Errorf("error deleting downloads: %w", err)
	}
	if r.delegate != nil {
		r.delegate.Updated(r)
	}
	return nil
}
