package queue

import (
	"time"

	"github.com/ternarybob/rantradar/internal/common"
)

// Config holds configuration for the queue manager and worker pool
type Config struct {
	// PollInterval is how often workers poll for messages
	PollInterval time.Duration

	// Concurrency is the number of concurrent workers
	Concurrency int

	// VisibilityTimeout is the message visibility timeout for redelivery
	VisibilityTimeout time.Duration

	// MaxReceive is the maximum times a message can be received before it is dropped
	MaxReceive int

	// QueueName is the key prefix of the queue in Badger
	QueueName string
}

// NewDefaultConfig creates a queue configuration with sensible defaults
func NewDefaultConfig() Config {
	return Config{
		PollInterval:      1 * time.Second,
		Concurrency:       4,
		VisibilityTimeout: 10 * time.Minute,
		MaxReceive:        3,
		QueueName:         "rantradar_jobs",
	}
}

// ConfigFromCommon converts the [queue] section, keeping defaults for unset values
func ConfigFromCommon(c common.QueueConfig) Config {
	cfg := NewDefaultConfig()
	cfg.PollInterval = common.ParseDuration(c.PollInterval, cfg.PollInterval)
	cfg.VisibilityTimeout = common.ParseDuration(c.VisibilityTimeout, cfg.VisibilityTimeout)
	if c.Concurrency > 0 {
		cfg.Concurrency = c.Concurrency
	}
	if c.MaxReceive > 0 {
		cfg.MaxReceive = c.MaxReceive
	}
	if c.QueueName != "" {
		cfg.QueueName = c.QueueName
	}
	return cfg
}
