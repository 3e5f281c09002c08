package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/coursekeep/internal/config"
	"github.com/tanq16/coursekeep/internal/course"
	"github.com/tanq16/coursekeep/internal/downloads"
	"github.com/tanq16/coursekeep/internal/events"
	"github.com/tanq16/coursekeep/internal/fetch"
	"github.com/tanq16/coursekeep/internal/outline"
	"github.com/tanq16/coursekeep/internal/store"
	"github.com/tanq16/coursekeep/internal/utils"
)

// Context holds everything one loaded course needs: its event loop and
// buses, the outline bound to them, the scheduler and the store. It is the
// outline's delegate.
type Context struct {
	Config    *config.Config
	Course    *course.Course
	Loop      *events.Loop
	Downloads *events.Bus[events.Download]
	Images    *events.Bus[events.Image]
	Outline   *outline.Outline
	Scheduler *fetch.Scheduler
	Store     store.Deleter

	ctx context.Context
	wg  sync.WaitGroup
}

// New wires a course into a Context. The loop is not started; callers run
// it with go a.Loop.Run(ctx) before touching the outline.
func New(ctx context.Context, cfg *config.Config, c *course.Course) (*Context, error) {
	a := &Context{
		Config:    cfg,
		Course:    c,
		Loop:      events.NewLoop(0),
		Downloads: events.NewBus[events.Download](),
		Images:    events.NewBus[events.Image](),
		ctx:       ctx,
	}

	client := utils.NewHTTPClient(utils.HTTPClientConfig{
		Timeout:        cfg.Timeout,
		KATimeout:      cfg.Timeout,
		ProxyURL:       cfg.Proxy,
		UserAgent:      utils.ToolUserAgent,
		Headers:        utils.ParseHeaderArgs(cfg.Headers),
		AccessToken:    cfg.AccessToken,
		HighThreadMode: cfg.Connections > 8,
	})
	simple := fetch.NewHTTP(client)
	simple.MaxRetries = max(cfg.Retries, 1)
	chunked := fetch.NewChunked(client, cfg.Connections)
	chunked.MaxRetries = simple.MaxRetries
	chunked.Fallback = simple
	router := &fetch.Router{HTTP: chunked}
	if usesS3(c) {
		s3Fetcher, err := fetch.NewS3(ctx, cfg.S3.Profile, cfg.Connections)
		if err != nil {
			return nil, err
		}
		router.S3 = s3Fetcher
	}
	a.Scheduler = &fetch.Scheduler{
		Fetcher: router,
		Workers: cfg.Workers,
		Loop:    a.Loop,
		Bus:     a.Downloads,
	}

	chain := store.Chain{&store.Local{Root: cfg.DownloadDir}}
	if cfg.S3.MirrorBucket != "" {
		mirror, err := store.NewS3Mirror(ctx, cfg.S3.Profile, cfg.S3.MirrorBucket, cfg.S3.MirrorPrefix)
		if err != nil {
			return nil, err
		}
		chain = append(chain, mirror)
	}
	a.Store = chain

	course.Probe(c, cfg.DownloadDir)
	o, err := outline.New(c, outline.Deps{
		Downloads: a.Downloads,
		Images:    a.Images,
		Deleter:   a.Store,
		Delegate:  a,
		APIHost:   cfg.APIHost,
	})
	if err != nil {
		return nil, fmt.Errorf("error building outline: %w", err)
	}
	a.Outline = o
	return a, nil
}

func usesS3(c *course.Course) bool {
	for _, b := range c.Sections {
		for _, v := range b.Videos {
			if strings.HasPrefix(v.URL, "s3://") {
				return true
			}
		}
	}
	return false
}

// ChoseDownload schedules the section's videos in the background. It runs
// on the loop, so the scheduler must not be run inline.
func (a *Context) ChoseDownload(row *outline.SectionRow, videos []*course.Video, block *course.Block) {
	jobs := fetch.JobsFor(a.Course, block, videos, a.Config.DownloadDir)
	if len(jobs) == 0 {
		log.Info().Str("op", "app/context").Msgf("nothing to download for %s", block.ID)
		return
	}
	log.Info().Str("op", "app/context").Msgf("queueing %d videos of %s", len(jobs), block.ID)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.Scheduler.Run(a.ctx, jobs); err != nil {
			log.Error().Str("op", "app/context").Err(err).Msgf("downloads of %s failed", block.ID)
		}
	}()
}

func (a *Context) ChoseShowDownloads(row *outline.SectionRow) {
	counts := downloads.Counts(row.Videos())
	log.Info().Str("op", "app/context").Msgf("%s: %d of %d videos downloaded, %d in progress",
		row.Block().ID, counts[downloads.Complete], len(row.Videos()), counts[downloads.Partial])
}

func (a *Context) Updated(row *outline.SectionRow) {
	log.Debug().Str("op", "app/context").Msgf("section %s updated: %s", row.Block().ID, row.Indicator().State)
}

// Download taps the download button of each named section, or of every
// section when none are named. Repeated ids count once and unknown ids are
// reported together.
func (a *Context) Download(ctx context.Context, blockIDs ...string) error {
	return a.Loop.Call(ctx, func() error {
		var missing []string
		rows := a.Outline.Rows()
		if len(blockIDs) > 0 {
			rows = rows[:0:0]
			seen := make(map[string]bool, len(blockIDs))
			for _, id := range blockIDs {
				if seen[id] {
					continue
				}
				seen[id] = true
				row, ok := a.Outline.Row(id)
				if !ok {
					missing = append(missing, id)
					continue
				}
				rows = append(rows, row)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("unknown sections: %s", strings.Join(missing, ", "))
		}
		for _, row := range rows {
			row.TapDownload()
		}
		return nil
	})
}

// Wait blocks until every scheduled download has finished.
func (a *Context) Wait() {
	a.wg.Wait()
}

// Close tears the outline down on the loop.
func (a *Context) Close(ctx context.Context) error {
	return a.Loop.Call(ctx, func() error {
		a.Outline.Close()
		return nil
	})
}

// Reload swaps in a freshly loaded manifest. Rows are recycled by the outline.
func (a *Context) Reload(ctx context.Context, c *course.Course) error {
	course.Probe(c, a.Config.DownloadDir)
	return a.Loop.Call(ctx, func() error {
		a.Course = c
		return a.Outline.Load(c)
	})
}
