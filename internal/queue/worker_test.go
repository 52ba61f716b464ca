package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"go.uber.org/goleak"

	"github.com/ternarybob/rantradar/internal/models"
)

// memoryQueue is a minimal in-process QueueManager for worker tests
type memoryQueue struct {
	mu    sync.Mutex
	msgs  []Message
	acked []string
}

func (q *memoryQueue) Enqueue(ctx context.Context, msg Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = append(q.msgs, msg)
	return nil
}

func (q *memoryQueue) Receive(ctx context.Context) (*Message, func() error, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.msgs) == 0 {
		return nil, nil, ErrNoMessage
	}
	msg := q.msgs[0]
	q.msgs = q.msgs[1:]
	return &msg, func() error {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.acked = append(q.acked, msg.JobID)
		return nil
	}, nil
}

func (q *memoryQueue) Close() error { return nil }

func (q *memoryQueue) ackedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.acked)
}

func testConfig() Config {
	cfg := NewDefaultConfig()
	cfg.PollInterval = 10 * time.Millisecond
	cfg.Concurrency = 3
	return cfg
}

func TestWorkerPool_ProcessesAndAcknowledges(t *testing.T) {
	logger := arbor.NewLogger()
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	q := &memoryQueue{}
	pool := NewWorkerPool(q, testConfig(), logger)

	var handled int32
	pool.RegisterHandler(models.MessageTypeAnalyze, func(ctx context.Context, msg *Message) error {
		atomic.AddInt32(&handled, 1)
		return nil
	})

	ctx := context.Background()
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, q.Enqueue(ctx, Message{JobID: id, Type: models.MessageTypeAnalyze}))
	}

	require.NoError(t, pool.Start(ctx))
	assert.Eventually(t, func() bool { return q.ackedCount() == 4 }, 2*time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, pool.Stop(stopCtx))
	assert.Equal(t, int32(4), atomic.LoadInt32(&handled))
}

func TestWorkerPool_HandlerFailuresAndPanicsAreAcknowledged(t *testing.T) {
	logger := arbor.NewLogger()
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	q := &memoryQueue{}
	pool := NewWorkerPool(q, testConfig(), logger)
	pool.RegisterHandler("boom", func(ctx context.Context, msg *Message) error {
		if msg.JobID == "panic" {
			panic("handler exploded")
		}
		return errors.New("handler failed")
	})

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, Message{JobID: "error", Type: "boom"}))
	require.NoError(t, q.Enqueue(ctx, Message{JobID: "panic", Type: "boom"}))
	require.NoError(t, q.Enqueue(ctx, Message{JobID: "unknown", Type: "unregistered"}))

	require.NoError(t, pool.Start(ctx))
	assert.Eventually(t, func() bool { return q.ackedCount() == 3 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, pool.Stop(context.Background()))
}

func TestWorkerPool_StopWaitsForInFlightHandler(t *testing.T) {
	logger := arbor.NewLogger()
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	q := &memoryQueue{}
	cfg := testConfig()
	cfg.Concurrency = 1
	pool := NewWorkerPool(q, cfg, logger)

	started := make(chan struct{})
	release := make(chan struct{})
	var handlerCtxErr error
	pool.RegisterHandler(models.MessageTypeAnalyze, func(ctx context.Context, msg *Message) error {
		close(started)
		<-release
		handlerCtxErr = ctx.Err()
		return nil
	})

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, Message{JobID: "slow", Type: models.MessageTypeAnalyze}))
	require.NoError(t, pool.Start(ctx))
	<-started

	stopped := make(chan error, 1)
	go func() { stopped <- pool.Stop(context.Background()) }()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a handler was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-stopped)
	assert.NoError(t, handlerCtxErr, "handlers are not cancelled by Stop")
	assert.Equal(t, 1, q.ackedCount())
}

func TestWorkerPool_StartTwice(t *testing.T) {
	logger := arbor.NewLogger()
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	pool := NewWorkerPool(&memoryQueue{}, testConfig(), logger)
	require.NoError(t, pool.Start(context.Background()))
	assert.Error(t, pool.Start(context.Background()))
	require.NoError(t, pool.Stop(context.Background()))
}
