package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rantradar/internal/models"
)

func newTestQueue(t *testing.T, visibility time.Duration, maxReceive int) *BadgerManager {
	t.Helper()

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mgr, err := NewBadgerManager(db, Config{
		QueueName:         "test_jobs",
		VisibilityTimeout: visibility,
		MaxReceive:        maxReceive,
	}, arbor.NewLogger())
	require.NoError(t, err)
	return mgr
}

func TestBadgerManager_EnqueueReceiveAck(t *testing.T) {
	mgr := newTestQueue(t, time.Minute, 3)
	ctx := context.Background()

	require.NoError(t, mgr.Enqueue(ctx, models.QueueMessage{JobID: "job-1", Type: models.MessageTypeAnalyze}))
	require.NoError(t, mgr.Enqueue(ctx, models.QueueMessage{JobID: "job-2", Type: models.MessageTypeAnalyze}))

	first, ack, err := mgr.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "job-1", first.JobID, "messages are delivered in enqueue order")
	require.NoError(t, ack())

	second, ack2, err := mgr.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "job-2", second.JobID)
	require.NoError(t, ack2())
	require.NoError(t, ack2(), "acknowledging twice is harmless")

	_, _, err = mgr.Receive(ctx)
	assert.True(t, errors.Is(err, ErrNoMessage))

	n, err := mgr.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBadgerManager_UnackedMessageIsRedelivered(t *testing.T) {
	mgr := newTestQueue(t, 50*time.Millisecond, 3)
	ctx := context.Background()

	require.NoError(t, mgr.Enqueue(ctx, models.QueueMessage{JobID: "job-1", Type: models.MessageTypeAnalyze}))

	_, _, err := mgr.Receive(ctx)
	require.NoError(t, err)

	// Hidden while in flight
	_, _, err = mgr.Receive(ctx)
	assert.True(t, errors.Is(err, ErrNoMessage))

	time.Sleep(100 * time.Millisecond)

	again, ack, err := mgr.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "job-1", again.JobID)
	require.NoError(t, ack())
}

func TestBadgerManager_DropsAfterMaxReceive(t *testing.T) {
	mgr := newTestQueue(t, 20*time.Millisecond, 1)
	ctx := context.Background()

	var droppedJob string
	mgr.OnDrop(func(msg Message, receiveCount int) {
		droppedJob = msg.JobID
		assert.Equal(t, 1, receiveCount)
	})

	require.NoError(t, mgr.Enqueue(ctx, models.QueueMessage{JobID: "poison", Type: models.MessageTypeAnalyze}))

	_, _, err := mgr.Receive(ctx)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	_, _, err = mgr.Receive(ctx)
	assert.True(t, errors.Is(err, ErrNoMessage))
	assert.Equal(t, "poison", droppedJob)

	n, err := mgr.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBadgerManager_DropFiresOnce(t *testing.T) {
	mgr := newTestQueue(t, 20*time.Millisecond, 1)
	ctx := context.Background()

	drops := 0
	mgr.OnDrop(func(msg Message, receiveCount int) {
		drops++
	})

	require.NoError(t, mgr.Enqueue(ctx, models.QueueMessage{JobID: "poison", Type: models.MessageTypeAnalyze}))
	require.NoError(t, mgr.Enqueue(ctx, models.QueueMessage{JobID: "healthy", Type: models.MessageTypeAnalyze}))

	first, _, err := mgr.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, "poison", first.JobID)

	time.Sleep(50 * time.Millisecond)

	// Other messages keep flowing while the expired one waits to be dropped
	next, ack, err := mgr.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "healthy", next.JobID)
	require.NoError(t, ack())

	for i := 0; i < 5; i++ {
		_, _, err = mgr.Receive(ctx)
		assert.True(t, errors.Is(err, ErrNoMessage))
	}

	assert.Equal(t, 1, drops)

	n, err := mgr.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNewBadgerManager_Validation(t *testing.T) {
	_, err := NewBadgerManager(nil, NewDefaultConfig(), arbor.NewLogger())
	assert.Error(t, err)
}
