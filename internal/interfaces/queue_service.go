package interfaces

import (
	"context"

	"github.com/ternarybob/rantradar/internal/models"
)

// QueueManager - durable task queue used to hand jobs to background workers
type QueueManager interface {
	Enqueue(ctx context.Context, msg models.QueueMessage) error
	// Receive returns the next visible message and a function that acknowledges (deletes) it.
	// Returns models.ErrNoMessage when nothing is ready.
	Receive(ctx context.Context) (*models.QueueMessage, func() error, error)
	Close() error
}
