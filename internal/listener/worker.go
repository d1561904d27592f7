// Package listener serializes the application of discovery-transport
// updates against a single GraphCache, the way a DDS discovery listener
// thread hands ParticipantEntitiesInfo messages to the graph cache one
// at a time. Adapted from storage-node's bounded worker pool, narrowed
// from many concurrent workers to exactly one: the graph cache's
// invariants (see spec §5) depend on updates landing in arrival order,
// which a pool of more than one worker cannot guarantee.
package listener

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a single unit of work submitted to the Worker's queue.
type Task struct {
	ID      string
	Fn      func(context.Context) error
	Context context.Context
}

// Config configures a Worker.
type Config struct {
	Name      string
	QueueSize int
	Logger    *zap.Logger
}

// Worker runs a single goroutine that drains a bounded task queue in
// submission order. It exists so every UpdateParticipantEntities call
// triggered by the discovery transport — local or remote — applies to
// the GraphCache strictly in the order the transport observed it,
// without holding the transport's own goroutine while the cache lock is
// contended.
type Worker struct {
	name      string
	queueSize int
	taskQueue chan Task
	logger    *zap.Logger
	wg        sync.WaitGroup
	stopOnce  sync.Once
	stopChan  chan struct{}

	mu             sync.Mutex
	totalTasks     uint64
	completedTasks uint64
	failedTasks    uint64
	rejectedTasks  uint64
}

// New creates and starts a Worker.
func New(cfg Config) *Worker {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	w := &Worker{
		name:      cfg.Name,
		queueSize: cfg.QueueSize,
		taskQueue: make(chan Task, cfg.QueueSize),
		logger:    cfg.Logger,
		stopChan:  make(chan struct{}),
	}

	w.wg.Add(1)
	go w.run()

	w.logger.Info("listener worker started",
		zap.String("name", w.name),
		zap.Int("queue_size", w.queueSize))

	return w
}

func (w *Worker) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.stopChan:
			for {
				select {
				case task := <-w.taskQueue:
					w.execute(task)
				default:
					return
				}
			}
		case task := <-w.taskQueue:
			w.execute(task)
		}
	}
}

func (w *Worker) execute(task Task) {
	start := time.Now()
	err := w.safeExecute(task)
	duration := time.Since(start)

	w.mu.Lock()
	if err != nil {
		w.failedTasks++
	} else {
		w.completedTasks++
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("listener task failed",
			zap.String("worker", w.name),
			zap.String("task_id", task.ID),
			zap.Duration("duration", duration),
			zap.Error(err))
		return
	}
	w.logger.Debug("listener task completed",
		zap.String("worker", w.name),
		zap.String("task_id", task.ID),
		zap.Duration("duration", duration))
}

func (w *Worker) safeExecute(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener task panicked: %v", r)
			w.logger.Error("listener task panic recovered",
				zap.String("worker", w.name),
				zap.String("task_id", task.ID),
				zap.Any("panic", r))
		}
	}()

	if task.Context == nil {
		task.Context = context.Background()
	}
	return task.Fn(task.Context)
}

// Submit enqueues task without blocking. Returns an error if the queue
// is full or the worker has been stopped.
func (w *Worker) Submit(task Task) error {
	select {
	case <-w.stopChan:
		w.bumpRejected()
		return fmt.Errorf("listener worker %q is stopped", w.name)
	default:
	}

	select {
	case w.taskQueue <- task:
		w.mu.Lock()
		w.totalTasks++
		w.mu.Unlock()
		return nil
	default:
		w.bumpRejected()
		return fmt.Errorf("listener worker %q queue is full", w.name)
	}
}

func (w *Worker) bumpRejected() {
	w.mu.Lock()
	w.rejectedTasks++
	w.mu.Unlock()
}

// Stop waits up to timeout for the queue to drain and the worker
// goroutine to exit.
func (w *Worker) Stop(timeout time.Duration) error {
	var stopErr error
	w.stopOnce.Do(func() {
		close(w.stopChan)

		done := make(chan struct{})
		go func() {
			w.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			w.logger.Info("listener worker stopped", zap.String("name", w.name))
		case <-time.After(timeout):
			stopErr = fmt.Errorf("listener worker %q stop timeout after %v", w.name, timeout)
		}
	})
	return stopErr
}

// Stats is a snapshot of the worker's counters.
type Stats struct {
	Name           string
	QueueSize      int
	QueuedTasks    int
	TotalTasks     uint64
	CompletedTasks uint64
	FailedTasks    uint64
	RejectedTasks  uint64
}

// Stats returns a snapshot of the worker's current counters.
func (w *Worker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{
		Name:           w.name,
		QueueSize:      w.queueSize,
		QueuedTasks:    len(w.taskQueue),
		TotalTasks:     w.totalTasks,
		CompletedTasks: w.completedTasks,
		FailedTasks:    w.failedTasks,
		RejectedTasks:  w.rejectedTasks,
	}
}
