// Package worker runs periodic maintenance jobs inside the server process.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job is a unit of periodic work.
type Job struct {
	// Name identifies the job in logs, e.g. "cleanup:expired_otps".
	Name string

	// Interval is the time between runs. The first run happens on the first
	// poll after Start.
	Interval time.Duration

	// Timeout bounds a single run. Zero means one minute.
	Timeout time.Duration

	Run func(ctx context.Context) error
}

// Config holds worker configuration
type Config struct {
	// WorkerID uniquely identifies this worker instance
	WorkerID string

	// PollInterval is how often to check for due jobs
	PollInterval time.Duration

	// MaxConcurrency is the maximum number of jobs to run concurrently
	MaxConcurrency int
}

// Worker runs registered jobs on their intervals
type Worker struct {
	config Config
	jobs   []Job
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	nextRun map[string]time.Time
	running map[string]bool

	sem chan struct{}
	wg  sync.WaitGroup
}

// NewWorker creates a new background job worker
func NewWorker(config Config, logger *slog.Logger, jobs ...Job) *Worker {
	// Set defaults
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if config.PollInterval == 0 {
		config.PollInterval = 1 * time.Second
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 2
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		config:  config,
		jobs:    jobs,
		logger:  logger.With("worker_id", config.WorkerID),
		now:     time.Now,
		nextRun: make(map[string]time.Time, len(jobs)),
		running: make(map[string]bool, len(jobs)),
		sem:     make(chan struct{}, config.MaxConcurrency),
	}
}

// Start runs jobs until ctx is cancelled, then waits for in-flight runs.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("worker starting",
		"jobs", len(w.jobs),
		"poll_interval", w.config.PollInterval,
		"max_concurrency", w.config.MaxConcurrency,
	)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	w.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker shutting down")
			w.wg.Wait()
			return ctx.Err()
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// poll starts every due job that is not already running. A job skipped
// because all slots are busy stays due for the next poll.
func (w *Worker) poll(ctx context.Context) {
	now := w.now()
	for _, job := range w.jobs {
		w.mu.Lock()
		due := !w.running[job.Name] && !now.Before(w.nextRun[job.Name])
		w.mu.Unlock()
		if !due {
			continue
		}

		select {
		case w.sem <- struct{}{}:
		default:
			// At max concurrency, skip this poll
			return
		}

		w.mu.Lock()
		w.running[job.Name] = true
		w.nextRun[job.Name] = now.Add(job.Interval)
		w.mu.Unlock()

		w.wg.Add(1)
		go func(job Job) {
			defer w.wg.Done()
			defer func() { <-w.sem }()
			w.process(ctx, job)
		}(job)
	}
}

// process runs a single job
func (w *Worker) process(ctx context.Context, job Job) {
	defer func() {
		w.mu.Lock()
		w.running[job.Name] = false
		w.mu.Unlock()
	}()

	timeout := job.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	jobCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	if err := job.Run(jobCtx); err != nil {
		w.logger.Error("job failed", "job", job.Name, "error", err)
		return
	}
	w.logger.Debug("job completed", "job", job.Name, "duration", time.Since(start))
}
