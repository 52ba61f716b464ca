package queue

import (
	"context"

	"github.com/ternarybob/rantradar/internal/models"
)

// ErrNoMessage is returned when the queue is empty
var ErrNoMessage = models.ErrNoMessage

// Message is an alias for models.QueueMessage within the queue package
type Message = models.QueueMessage

// Handler processes a single message of a registered type
type Handler func(ctx context.Context, msg *Message) error
