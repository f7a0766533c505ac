package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go-checkout/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestQueueRunsTasksAndDrainsOnStop(t *testing.T) {
	q := NewQueue(Config{WorkersCount: 2, TasksBufferLength: 10}, logging.NewNop())

	var done atomic.Int32
	for range 5 {
		err := q.Submit(context.Background(), "count", func(context.Context) error {
			done.Add(1)
			return nil
		})
		require.NoError(t, err)
	}

	require.NoError(t, q.Stop(context.Background()))
	assert.Equal(t, int32(5), done.Load())
}

func TestQueueSubmitAfterStop(t *testing.T) {
	q := NewQueue(Config{WorkersCount: 1, TasksBufferLength: 1}, logging.NewNop())
	require.NoError(t, q.Stop(context.Background()))

	err := q.Submit(context.Background(), "late", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrQueueStopped)
}

func TestQueueFullDoesNotBlock(t *testing.T) {
	q := NewQueue(Config{WorkersCount: 1, TasksBufferLength: 0}, logging.NewNop())
	release := make(chan struct{})
	started := make(chan struct{})

	require.Eventually(t, func() bool {
		return q.Submit(context.Background(), "blocker", func(context.Context) error {
			close(started)
			<-release
			return nil
		}) == nil
	}, time.Second, time.Millisecond)
	<-started

	err := q.Submit(context.Background(), "extra", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrQueueFull)

	close(release)
	require.NoError(t, q.Stop(context.Background()))
}

func TestQueueLogsFailuresAndPanics(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	q := NewQueue(Config{WorkersCount: 1, TasksBufferLength: 2}, logging.NewFromZap(zap.New(core)))

	require.NoError(t, q.Submit(context.Background(), "fails", func(context.Context) error {
		return errors.New("boom")
	}))
	require.NoError(t, q.Submit(context.Background(), "panics", func(context.Context) error {
		panic("bad")
	}))
	require.NoError(t, q.Stop(context.Background()))

	assert.Equal(t, 1, logs.FilterMessage("background task failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("panic in background task").Len())
}

func TestQueueTaskOutlivesSubmitterContext(t *testing.T) {
	q := NewQueue(Config{WorkersCount: 1, TasksBufferLength: 1, TaskTimeout: time.Second}, logging.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	var ctxErr atomic.Value
	require.NoError(t, q.Submit(ctx, "detached", func(taskCtx context.Context) error {
		cancel()
		if taskCtx.Err() != nil {
			ctxErr.Store(taskCtx.Err())
		}
		return nil
	}))
	require.NoError(t, q.Stop(context.Background()))
	assert.Nil(t, ctxErr.Load())
}
