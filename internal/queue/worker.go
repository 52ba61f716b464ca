package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rantradar/internal/common"
	"github.com/ternarybob/rantradar/internal/interfaces"
)

// WorkerPool polls the queue and runs registered handlers.
// Handlers run on a context that is not cancelled by Stop, so an analysis that
// has started is allowed to finish; Stop only stops new receives and waits.
type WorkerPool struct {
	queueMgr interfaces.QueueManager
	config   Config
	handlers map[string]Handler
	logger   arbor.ILogger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(queueMgr interfaces.QueueManager, config Config, logger arbor.ILogger) *WorkerPool {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	return &WorkerPool{
		queueMgr: queueMgr,
		config:   config,
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

// RegisterHandler registers a message type handler. Must be called before Start.
func (wp *WorkerPool) RegisterHandler(msgType string, handler Handler) {
	wp.handlers[msgType] = handler
	wp.logger.Debug().
		Str("type", msgType).
		Msg("Queue handler registered")
}

// Start launches the worker goroutines
func (wp *WorkerPool) Start(ctx context.Context) error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.running {
		return errors.New("worker pool already running")
	}

	pollCtx, cancel := context.WithCancel(ctx)
	wp.cancel = cancel
	wp.running = true

	wp.logger.Info().
		Int("concurrency", wp.config.Concurrency).
		Str("poll_interval", wp.config.PollInterval.String()).
		Msg("Starting worker pool")

	// In-flight handlers must outlive shutdown of the polling loop
	handlerCtx := context.WithoutCancel(ctx)

	for i := 0; i < wp.config.Concurrency; i++ {
		workerID := i
		wp.wg.Add(1)
		common.SafeGo(wp.logger, fmt.Sprintf("queue-worker-%d", workerID), func() {
			defer wp.wg.Done()
			wp.worker(pollCtx, handlerCtx, workerID)
		})
	}

	return nil
}

// Stop stops polling and waits for in-flight handlers until ctx expires
func (wp *WorkerPool) Stop(ctx context.Context) error {
	wp.mu.Lock()
	if !wp.running {
		wp.mu.Unlock()
		return nil
	}
	wp.running = false
	wp.cancel()
	wp.mu.Unlock()

	wp.logger.Info().Msg("Stopping worker pool")

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		wp.logger.Info().Msg("Worker pool stopped")
		return nil
	case <-ctx.Done():
		wp.logger.Warn().Msg("Worker pool stop timed out with handlers still running")
		return ctx.Err()
	}
}

// worker is the main worker loop that processes messages
func (wp *WorkerPool) worker(pollCtx, handlerCtx context.Context, workerID int) {
	// Stagger worker starts so workers spread across the poll interval
	staggerDelay := (wp.config.PollInterval / time.Duration(wp.config.Concurrency)) * time.Duration(workerID)
	if staggerDelay > 0 {
		timer := time.NewTimer(staggerDelay)
		select {
		case <-pollCtx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	wp.logger.Debug().
		Int("worker_id", workerID).
		Str("stagger_delay", staggerDelay.String()).
		Msg("Worker started")

	ticker := time.NewTicker(wp.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-pollCtx.Done():
			wp.logger.Debug().
				Int("worker_id", workerID).
				Msg("Worker stopped")
			return

		case <-ticker.C:
			// Drain everything that is ready before waiting for the next tick
			for pollCtx.Err() == nil {
				processed, err := wp.processMessage(pollCtx, handlerCtx, workerID)
				if err != nil {
					wp.logger.Warn().
						Err(err).
						Int("worker_id", workerID).
						Msg("Error processing message")
				}
				if !processed {
					break
				}
			}
		}
	}
}

// processMessage receives and handles a single message. It reports whether a
// message was taken off the queue.
func (wp *WorkerPool) processMessage(pollCtx, handlerCtx context.Context, workerID int) (bool, error) {
	msg, ack, err := wp.queueMgr.Receive(pollCtx)
	if err != nil {
		if errors.Is(err, ErrNoMessage) {
			return false, nil
		}
		return false, fmt.Errorf("failed to receive message: %w", err)
	}

	handler, exists := wp.handlers[msg.Type]
	if !exists {
		wp.logger.Error().
			Str("type", msg.Type).
			Str("job_id", msg.JobID).
			Msg("No handler registered for message type")
		if delErr := ack(); delErr != nil {
			wp.logger.Warn().Err(delErr).Msg("Failed to delete unknown message type")
		}
		return true, fmt.Errorf("no handler for message type: %s", msg.Type)
	}

	wp.logger.Debug().
		Str("job_id", msg.JobID).
		Str("type", msg.Type).
		Int("worker_id", workerID).
		Msg("Processing message")

	startTime := time.Now()
	handlerErr := common.CatchPanic(wp.logger, "queue-handler:"+msg.Type, func() error {
		return handler(handlerCtx, msg)
	})
	duration := time.Since(startTime)

	// Failures are not retried: the handler has already recorded the outcome
	if err := ack(); err != nil {
		wp.logger.Warn().
			Err(err).
			Str("job_id", msg.JobID).
			Msg("Failed to delete message after processing")
	}

	if handlerErr != nil {
		wp.logger.Error().
			Err(handlerErr).
			Str("job_id", msg.JobID).
			Str("type", msg.Type).
			Str("duration", duration.String()).
			Int("worker_id", workerID).
			Msg("Queue handler failed")
		return true, nil
	}

	wp.logger.Debug().
		Str("job_id", msg.JobID).
		Str("type", msg.Type).
		Str("duration", duration.String()).
		Int("worker_id", workerID).
		Msg("Message processed")

	return true, nil
}
