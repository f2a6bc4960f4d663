package downloader

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// gaugedFetcher records how many fetches run at once.
type gaugedFetcher struct {
	running  int32
	peak     int32
	mu       sync.Mutex
	seen     map[string]bool
	failures map[string]bool
}

func (g *gaugedFetcher) Fetch(ctx context.Context, job Job) bool {
	n := atomic.AddInt32(&g.running, 1)
	for {
		peak := atomic.LoadInt32(&g.peak)
		if n <= peak || atomic.CompareAndSwapInt32(&g.peak, peak, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	atomic.AddInt32(&g.running, -1)

	g.mu.Lock()
	g.seen[job.URL] = true
	g.mu.Unlock()
	return !g.failures[job.URL]
}

func newGaugedFetcher(failures ...string) *gaugedFetcher {
	g := &gaugedFetcher{seen: map[string]bool{}, failures: map[string]bool{}}
	for _, f := range failures {
		g.failures[f] = true
	}
	return g
}

func makeJobs(n int) []Job {
	jobs := make([]Job, n)
	for i := range jobs {
		jobs[i] = Job{URL: fmt.Sprintf("https://m/r/%d", i), Target: fmt.Sprintf("C/S/%d", i)}
	}
	return jobs
}

func TestRunAllBoundsConcurrency(t *testing.T) {
	fetcher := newGaugedFetcher("https://m/r/3", "https://m/r/7")
	jobs := makeJobs(20)

	summary := NewScheduler(fetcher, 3, nil, zerolog.Nop()).RunAll(context.Background(), jobs)

	assert.LessOrEqual(t, atomic.LoadInt32(&fetcher.peak), int32(3))
	assert.Len(t, fetcher.seen, 20)
	assert.Equal(t, 20, summary.Total)
	assert.Equal(t, 18, summary.Succeeded)
	assert.ElementsMatch(t, []Job{jobs[3], jobs[7]}, summary.Failed)
}

func TestRunAllSingleWorkerIsSequential(t *testing.T) {
	fetcher := newGaugedFetcher()
	NewScheduler(fetcher, 1, nil, zerolog.Nop()).RunAll(context.Background(), makeJobs(5))

	assert.Equal(t, int32(1), fetcher.peak)
	assert.Len(t, fetcher.seen, 5)
}

func TestRunAllEmpty(t *testing.T) {
	var progress bytes.Buffer
	summary := NewScheduler(newGaugedFetcher(), 2, &progress, zerolog.Nop()).RunAll(context.Background(), nil)

	assert.Equal(t, Summary{}, summary)
	assert.Empty(t, progress.String())
}

func TestRunAllWritesProgress(t *testing.T) {
	var progress bytes.Buffer
	summary := NewScheduler(newGaugedFetcher(), 4, &progress, zerolog.Nop()).RunAll(context.Background(), makeJobs(6))

	assert.Equal(t, 6, summary.Succeeded)
	assert.Contains(t, progress.String(), "downloading")
}

func TestNewSchedulerDefaultsWorkers(t *testing.T) {
	s := NewScheduler(newGaugedFetcher(), 0, nil, zerolog.Nop())
	assert.Equal(t, DefaultWorkers, s.workers)
}
