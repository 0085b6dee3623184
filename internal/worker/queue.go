package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrQueueFull   = errors.New("worker: queue full")
	ErrQueueClosed = errors.New("worker: queue closed")
)

// Task is a one-off unit of work handed off by a request handler.
type Task struct {
	// Name identifies the task in logs, e.g. "notify:order_placed".
	Name string

	// Timeout bounds the run. Zero means one minute.
	Timeout time.Duration

	Run func(ctx context.Context) error
}

// QueueConfig holds queue configuration
type QueueConfig struct {
	// Workers is the number of goroutines draining the queue
	Workers int

	// Capacity is how many tasks may wait before Enqueue reports ErrQueueFull
	Capacity int
}

type queuedTask struct {
	ctx  context.Context
	task Task
}

// Queue runs tasks on a fixed pool of goroutines so that slow side effects
// (mail, SMS, event publishing) never hold a request open.
type Queue struct {
	config QueueConfig
	logger *slog.Logger
	tasks  chan queuedTask

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

// NewQueue creates a queue. Call Start before enqueueing work.
func NewQueue(config QueueConfig, logger *slog.Logger) *Queue {
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if config.Capacity <= 0 {
		config.Capacity = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		config: config,
		logger: logger.With("component", "queue"),
		tasks:  make(chan queuedTask, config.Capacity),
	}
}

// Start launches the workers. It is a no-op after the first call.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.closed {
		return
	}
	q.started = true

	q.logger.Info("queue starting", "workers", q.config.Workers, "capacity", q.config.Capacity)
	for i := 0; i < q.config.Workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for qt := range q.tasks {
				q.process(qt)
			}
		}()
	}
}

// Enqueue hands t to the pool without blocking. The task runs with ctx's
// values but not its cancellation, so a finished request does not abort it.
func (q *Queue) Enqueue(ctx context.Context, t Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.tasks <- queuedTask{ctx: context.WithoutCancel(ctx), task: t}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Len reports how many tasks are waiting.
func (q *Queue) Len() int {
	return len(q.tasks)
}

// Stop rejects new tasks and waits for queued ones to finish. It returns
// ctx.Err() if ctx ends first; remaining tasks keep running in the
// background.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.tasks)
	}
	started := q.started
	q.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.logger.Info("queue drained")
		return nil
	case <-ctx.Done():
		q.logger.Warn("queue stop timed out", "pending", len(q.tasks))
		return ctx.Err()
	}
}

func (q *Queue) process(qt queuedTask) {
	timeout := qt.task.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(qt.ctx, timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("task panicked", "task", qt.task.Name, "panic", r)
		}
	}()

	start := time.Now()
	if err := qt.task.Run(ctx); err != nil {
		q.logger.Error("task failed", "task", qt.task.Name, "error", err)
		return
	}
	q.logger.Debug("task completed", "task", qt.task.Name, "duration", time.Since(start))
}
