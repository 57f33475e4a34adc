// Package queue renders batches of thumbnails on a bounded worker pool.
package queue

import (
	"context"
	"os"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/leeforge/mediakit/errors"
	"github.com/leeforge/mediakit/logging"
	"github.com/leeforge/mediakit/media/storage"
	"github.com/leeforge/mediakit/media/thumbnail"
)

// FileRenderer renders one thumbnail file. *thumbnail.Thumbnailer
// satisfies it.
type FileRenderer interface {
	MakeFile(ctx context.Context, srcPath, dstPath string, req thumbnail.Request) (thumbnail.Result, error)
}

// Job is one thumbnail to render.
type Job struct {
	Source  string
	Dest    string
	Request thumbnail.Request
	// UploadKey, when set and the pool has a storage provider, uploads the
	// rendered file under this key.
	UploadKey string
}

// JobResult is the outcome of a Job.
type JobResult struct {
	Job      Job
	Result   thumbnail.Result
	URL      string
	Err      error
	Attempts int
}

// OK reports whether the job succeeded.
func (r JobResult) OK() bool { return r.Err == nil }

// ProgressFunc is called after each job with running totals.
type ProgressFunc func(completed, failed, total int)

// Pool runs jobs on a fixed number of workers.
type Pool struct {
	renderer FileRenderer
	workers  int
	retries  int
	backoff  time.Duration
	store    storage.Provider
	progress ProgressFunc
	logger   logging.Logger
}

// Option configures a Pool.
type Option func(*Pool)

// WithWorkers sets the worker count. Values below one select GOMAXPROCS.
func WithWorkers(n int) Option { return func(p *Pool) { p.workers = n } }

// WithRetries retries storage and destination failures up to n times,
// sleeping attempt×backoff between tries.
func WithRetries(n int, backoff time.Duration) Option {
	return func(p *Pool) {
		p.retries = n
		p.backoff = backoff
	}
}

// WithStorage uploads rendered files that carry an UploadKey.
func WithStorage(s storage.Provider) Option { return func(p *Pool) { p.store = s } }

// WithProgress registers a progress callback. It may be called from
// several goroutines but never concurrently.
func WithProgress(fn ProgressFunc) Option { return func(p *Pool) { p.progress = fn } }

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option { return func(p *Pool) { p.logger = l } }

// NewPool creates a Pool around renderer.
func NewPool(renderer FileRenderer, opts ...Option) *Pool {
	p := &Pool{renderer: renderer, backoff: time.Second}
	for _, opt := range opts {
		opt(p)
	}
	if p.workers < 1 {
		p.workers = runtime.GOMAXPROCS(0)
	}
	if p.logger == nil {
		p.logger = logging.Named("queue")
	}
	return p
}

// Run processes jobs and returns one result per job, in job order. Jobs not
// started before ctx is cancelled report ctx.Err().
func (p *Pool) Run(ctx context.Context, jobs []Job) []JobResult {
	results := make([]JobResult, len(jobs))
	tracker := NewProgressTracker(len(jobs))

	var progressMu sync.Mutex
	report := func(r JobResult) {
		progressMu.Lock()
		defer progressMu.Unlock()
		if r.OK() {
			tracker.IncrementCompleted()
		} else {
			tracker.IncrementFailed()
		}
		if p.progress != nil {
			p.progress(tracker.Progress())
		}
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(p.workers, max(len(jobs), 1)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				results[i] = p.process(ctx, jobs[i])
				report(results[i])
			}
		}()
	}

	next := 0
feed:
	for ; next < len(jobs); next++ {
		select {
		case <-ctx.Done():
			break feed
		case indices <- next:
		}
	}
	close(indices)
	wg.Wait()

	for i := next; i < len(jobs); i++ {
		results[i] = JobResult{Job: jobs[i], Err: ctx.Err()}
		report(results[i])
	}

	c, f, _ := tracker.Progress()
	p.logger.Info("batch finished", zap.Int("completed", c), zap.Int("failed", f), zap.Int("total", len(jobs)))
	return results
}

func (p *Pool) process(ctx context.Context, job Job) JobResult {
	res := JobResult{Job: job}
	for attempt := 0; attempt <= p.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				res.Err = ctx.Err()
				return res
			case <-time.After(time.Duration(attempt) * p.backoff):
			}
		}
		res.Attempts = attempt + 1

		res.Result, res.Err = p.renderer.MakeFile(ctx, job.Source, job.Dest, job.Request)
		if res.Err == nil {
			res.URL, res.Err = p.upload(ctx, job, res.Result.Format)
		}
		if res.Err == nil || !retryable(res.Err) {
			break
		}
		p.logger.Warn("job failed, retrying",
			zap.String("source", job.Source),
			zap.Int("attempt", res.Attempts),
			zap.Error(res.Err))
	}
	if res.Err != nil {
		p.logger.Error("job failed", zap.String("source", job.Source), zap.Error(res.Err))
	}
	return res
}

func (p *Pool) upload(ctx context.Context, job Job, format thumbnail.Format) (string, error) {
	if p.store == nil || job.UploadKey == "" {
		return "", nil
	}
	f, err := os.Open(job.Dest)
	if err != nil {
		return "", apperrors.WrapWithType(err, apperrors.ErrorTypeStorage, "open rendered file")
	}
	defer f.Close()
	return p.store.Put(ctx, job.UploadKey, f, format.ContentType())
}

func retryable(err error) bool {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeStorage, apperrors.ErrorTypeDestinationUnwritable:
		return true
	}
	return false
}

// ProgressTracker counts finished jobs.
type ProgressTracker struct {
	mu        sync.RWMutex
	total     int
	completed int
	failed    int
}

// NewProgressTracker creates a tracker for total jobs.
func NewProgressTracker(total int) *ProgressTracker {
	return &ProgressTracker{total: total}
}

func (t *ProgressTracker) IncrementCompleted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completed++
}

func (t *ProgressTracker) IncrementFailed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failed++
}

// Progress returns completed, failed and total counts.
func (t *ProgressTracker) Progress() (completed, failed, total int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.completed, t.failed, t.total
}

// Percentage returns the finished share in [0, 100].
func (t *ProgressTracker) Percentage() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.total == 0 {
		return 0
	}
	return float64(t.completed+t.failed) / float64(t.total) * 100
}
