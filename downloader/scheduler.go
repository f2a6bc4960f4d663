package downloader

import (
	"context"
	"io"

	"github.com/remeh/sizedwaitgroup"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
)

// DefaultWorkers is the pool size used when none is configured.
const DefaultWorkers = 5

// JobFetcher runs a single job. *Fetcher implements it.
type JobFetcher interface {
	Fetch(ctx context.Context, job Job) bool
}

// Summary is the outcome of a RunAll call.
type Summary struct {
	Total     int
	Succeeded int
	Failed    []Job
}

// Scheduler runs jobs on a fixed-size pool of workers.
type Scheduler struct {
	fetcher  JobFetcher
	workers  int
	progress io.Writer
	logger   zerolog.Logger
}

// NewScheduler returns a Scheduler with the given pool size. A nil progress
// writer disables the progress bar.
func NewScheduler(fetcher JobFetcher, workers int, progress io.Writer, logger zerolog.Logger) *Scheduler {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Scheduler{
		fetcher:  fetcher,
		workers:  workers,
		progress: progress,
		logger:   logger,
	}
}

// RunAll submits the jobs in order and returns once every one of them has
// finished. A failing job never stops the others.
func (s *Scheduler) RunAll(ctx context.Context, jobs []Job) Summary {
	results := make([]bool, len(jobs))
	bar := s.newProgressBar(len(jobs))

	swg := sizedwaitgroup.New(s.workers)
	for i, job := range jobs {
		swg.Add()
		go func(i int, job Job) {
			defer swg.Done()
			results[i] = s.fetcher.Fetch(ctx, job)
			if bar != nil {
				bar.Add(1)
			}
		}(i, job)
	}
	swg.Wait()

	if bar != nil {
		bar.Finish()
	}

	summary := Summary{Total: len(jobs)}
	for i, ok := range results {
		if ok {
			summary.Succeeded++
		} else {
			summary.Failed = append(summary.Failed, jobs[i])
		}
	}

	s.logger.Info().
		Int("total", summary.Total).
		Int("succeeded", summary.Succeeded).
		Int("failed", len(summary.Failed)).
		Msg("Downloads finished")
	return summary
}

func (s *Scheduler) newProgressBar(total int) *progressbar.ProgressBar {
	if s.progress == nil || total == 0 {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(s.progress),
		progressbar.OptionSetDescription("downloading"),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() { io.WriteString(s.progress, "\n") }),
	)
}
