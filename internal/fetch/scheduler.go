package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/ksuid"
	"github.com/tanq16/coursekeep/internal/course"
	"github.com/tanq16/coursekeep/internal/downloads"
	"github.com/tanq16/coursekeep/internal/events"
)

type Job struct {
	ID         string
	Course     *course.Course
	Block      *course.Block
	Video      *course.Video
	OutputPath string
}

// JobsFor builds one job per video of b that has not been started and marks
// each picked video Partial, so a repeated call before Run gets going returns
// nothing. Videos that are complete or already queued are skipped. Call it on
// the loop.
func JobsFor(c *course.Course, b *course.Block, videos []*course.Video, root string) []Job {
	var jobs []Job
	for _, v := range videos {
		if v.DownloadState() != downloads.NotStarted {
			continue
		}
		v.SetState(downloads.Partial)
		jobs = append(jobs, Job{
			ID:         ksuid.New().String(),
			Course:     c,
			Block:      b,
			Video:      v,
			OutputPath: v.OutputPath(root, c, b),
		})
	}
	return jobs
}

// Scheduler downloads jobs on a worker pool. Video states change only inside
// the loop; workers post events and never touch videos directly.
type Scheduler struct {
	Fetcher          Fetcher
	Workers          int
	Loop             *events.Loop
	Bus              *events.Bus[events.Download]
	ProgressInterval time.Duration
}

func (s *Scheduler) Run(ctx context.Context, jobs []Job) error {
	if len(jobs) == 0 {
		return nil
	}
	for _, job := range jobs {
		s.transition(job, events.VideoStateChanged, downloads.Partial, nil)
	}

	jobCh := make(chan Job, len(jobs))
	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)

	var mu sync.Mutex
	var errs []error
	var wg sync.WaitGroup
	numWorkers := max(1, min(s.Workers, len(jobs)))
	log.Debug().Str("op", "fetch/scheduler").Msgf("starting %d workers for %d jobs", numWorkers, len(jobs))
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				if err := s.process(ctx, job); err != nil {
					mu.Lock()
					errs = append(errs, fmt.Errorf("%s: %w", job.Video.ID, err))
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (s *Scheduler) process(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		s.transition(job, events.Ended, downloads.NotStarted, err)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(job.OutputPath), 0755); err != nil {
		s.transition(job, events.Ended, downloads.NotStarted, err)
		return err
	}

	var downloaded atomic.Int64
	var lastReport atomic.Int64
	interval := s.ProgressInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	progress := func(n int64) {
		total := downloaded.Add(n)
		now := time.Now().UnixNano()
		last := lastReport.Load()
		if now-last < int64(interval) || !lastReport.CompareAndSwap(last, now) {
			return
		}
		ev := s.event(job, events.ProgressChanged, downloads.Partial, nil)
		ev.Bytes, ev.Total = total, job.Video.Size
		s.publish(ev, nil)
	}

	log.Info().Str("op", "fetch/scheduler").Msgf("downloading %s (%s)", job.Video.ID, job.ID)
	err := s.Fetcher.Fetch(ctx, job.Video.URL, job.OutputPath, progress)
	if err != nil {
		log.Error().Str("op", "fetch/scheduler").Err(err).Msgf("download of %s failed", job.Video.ID)
		s.transition(job, events.Ended, downloads.NotStarted, err)
		return err
	}
	s.transition(job, events.Ended, downloads.Complete, nil)
	return nil
}

func (s *Scheduler) transition(job Job, kind events.Kind, state downloads.State, err error) {
	ev := s.event(job, kind, state, err)
	s.publish(ev, func() { job.Video.SetState(state) })
}

func (s *Scheduler) event(job Job, kind events.Kind, state downloads.State, err error) events.Download {
	ev := events.NewDownload(kind, job.Block.ID, job.Video.ID, state)
	ev.JobID = job.ID
	ev.Err = err
	return ev
}

func (s *Scheduler) publish(ev events.Download, apply func()) {
	s.Loop.Post(func() {
		if apply != nil {
			apply()
		}
		s.Bus.Publish(ev)
	})
}
