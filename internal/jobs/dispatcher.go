package jobs

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rantradar/internal/interfaces"
	"github.com/ternarybob/rantradar/internal/models"
)

// Dispatcher accepts analysis requests: it creates the job and enqueues the
// background run without waiting for it.
type Dispatcher struct {
	jobs   interfaces.JobService
	queue  interfaces.QueueManager
	logger arbor.ILogger
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(jobs interfaces.JobService, queue interfaces.QueueManager, logger arbor.ILogger) *Dispatcher {
	return &Dispatcher{
		jobs:   jobs,
		queue:  queue,
		logger: logger,
	}
}

// Submit creates a pending job and schedules it. If scheduling fails the job
// is marked failed and a *models.JobCreationError is returned.
func (d *Dispatcher) Submit(ctx context.Context, query string) (*models.Job, error) {
	job, err := d.jobs.Create(ctx, query)
	if err != nil {
		return nil, err
	}

	msg := models.QueueMessage{
		JobID: job.ID,
		Type:  models.MessageTypeAnalyze,
	}
	if err := d.queue.Enqueue(ctx, msg); err != nil {
		d.logger.Error().
			Err(err).
			Str("job_id", job.ID).
			Msg("Failed to enqueue analysis")

		if _, failErr := d.jobs.Fail(context.WithoutCancel(ctx), job.ID, fmt.Sprintf("failed to schedule analysis: %v", err)); failErr != nil {
			d.logger.Error().
				Err(failErr).
				Str("job_id", job.ID).
				Msg("Failed to mark unscheduled job as failed")
		}
		return nil, &models.JobCreationError{Err: err}
	}

	d.logger.Debug().
		Str("job_id", job.ID).
		Msg("Analysis enqueued")

	return job, nil
}
