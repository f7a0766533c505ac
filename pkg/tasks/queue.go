package tasks

import (
	"context"
	"errors"
	"sync"
	"time"

	"go-checkout/pkg/logging"

	"go.uber.org/zap"
)

var (
	ErrQueueFull    = errors.New("task queue is full")
	ErrQueueStopped = errors.New("task queue is stopped")
)

type Config struct {
	WorkersCount      int
	TasksBufferLength int
	TaskTimeout       time.Duration
}

type task struct {
	ctx  context.Context
	name string
	fn   func(ctx context.Context) error
}

// Queue runs best-effort background work. Failures are logged, never returned
// to the submitter.
type Queue struct {
	cfg    Config
	tasks  chan task
	logger *logging.ZapLogger
	wg     *sync.WaitGroup
	mux    *sync.RWMutex
	closed bool
}

func NewQueue(cfg Config, logger *logging.ZapLogger) *Queue {
	if cfg.WorkersCount <= 0 {
		cfg.WorkersCount = 1
	}
	if cfg.TasksBufferLength < 0 {
		cfg.TasksBufferLength = 0
	}
	q := &Queue{
		cfg:    cfg,
		tasks:  make(chan task, cfg.TasksBufferLength),
		logger: logger,
		wg:     &sync.WaitGroup{},
		mux:    &sync.RWMutex{},
	}
	for range cfg.WorkersCount {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			q.worker()
		}()
	}
	return q
}

// Submit never blocks. The task keeps ctx values (log fields) but not its
// cancellation.
func (q *Queue) Submit(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	q.mux.RLock()
	defer q.mux.RUnlock()
	if q.closed {
		return ErrQueueStopped
	}
	select {
	case q.tasks <- task{ctx: context.WithoutCancel(ctx), name: name, fn: fn}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop refuses new tasks and waits for queued ones to finish or ctx to expire.
func (q *Queue) Stop(ctx context.Context) error {
	q.mux.Lock()
	if !q.closed {
		q.closed = true
		close(q.tasks)
	}
	q.mux.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck // unnecessary
	}
}

func (q *Queue) worker() {
	for t := range q.tasks {
		q.run(t)
	}
}

func (q *Queue) run(t task) {
	ctx := t.ctx
	if q.cfg.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.cfg.TaskTimeout)
		defer cancel()
	}
	defer func() {
		if rcv := recover(); rcv != nil {
			q.logger.ErrorCtx(ctx, "panic in background task", zap.String("task", t.name), zap.Any("recover", rcv))
		}
	}()
	if err := t.fn(ctx); err != nil {
		q.logger.ErrorCtx(ctx, "background task failed", zap.String("task", t.name), zap.Error(err))
		return
	}
	q.logger.DebugCtx(ctx, "background task done", zap.String("task", t.name))
}
