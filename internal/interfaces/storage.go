// -----------------------------------------------------------------------
// Last Modified: Saturday, 17th October 2026 9:12:04 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package interfaces

import (
	"context"

	"github.com/dgraph-io/badger/v4"

	"github.com/ternarybob/rantradar/internal/models"
)

// JobListOptions filters and bounds a job listing
type JobListOptions struct {
	Status models.JobStatus // Empty means any status
	Limit  int              // <= 0 means no limit
}

// JobStorage - interface for analysis job persistence.
// Every update is scoped to a single row and is last-writer-wins; callers
// guarantee a single writer per job.
type JobStorage interface {
	CreateJob(ctx context.Context, job *models.Job) error
	SaveJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	ListJobs(ctx context.Context, opts *JobListOptions) ([]*models.Job, error)
	CountJobs(ctx context.Context, status models.JobStatus) (int, error)
}

// StorageManager - owns the database and hands out typed storages
type StorageManager interface {
	JobStorage() JobStorage
	DB() *badger.DB
	Close() error
}
