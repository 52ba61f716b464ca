package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rantradar/internal/common"
	"github.com/ternarybob/rantradar/internal/interfaces"
	"github.com/ternarybob/rantradar/internal/models"
	"github.com/ternarybob/rantradar/internal/services/agent"
)

// Researcher gathers free-text findings about a product
type Researcher interface {
	Run(ctx context.Context, query string) (*agent.Report, error)
}

// Structurer converts findings into a validated result
type Structurer interface {
	Structure(ctx context.Context, findings, product string) (*models.AnalysisResult, error)
}

// Pipeline runs research then structuring for one job and records the outcome
type Pipeline struct {
	jobs       interfaces.JobService
	researcher Researcher
	structurer Structurer
	logger     arbor.ILogger
}

// NewPipeline creates the analysis pipeline
func NewPipeline(jobs interfaces.JobService, researcher Researcher, structurer Structurer, logger arbor.ILogger) *Pipeline {
	return &Pipeline{
		jobs:       jobs,
		researcher: researcher,
		structurer: structurer,
		logger:     logger,
	}
}

// HandleMessage is the queue handler for analyze messages
func (p *Pipeline) HandleMessage(ctx context.Context, msg *models.QueueMessage) error {
	return p.Run(ctx, msg.JobID)
}

// Run drives one job to a terminal state. Terminal jobs are skipped so that
// redelivered messages are harmless; a job found already processing was
// interrupted mid-run and is failed. The returned error is non-nil only when
// the outcome could not be recorded.
func (p *Pipeline) Run(ctx context.Context, jobID string) error {
	logger := p.logger.WithCorrelationId(jobID)

	job, err := p.jobs.Get(ctx, jobID)
	if err != nil {
		if IsNotFound(err) {
			logger.Warn().
				Str("job_id", jobID).
				Msg("Job not found - dropping analysis message")
			return nil
		}
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}

	switch {
	case job.Status.IsTerminal():
		logger.Debug().
			Str("job_id", jobID).
			Str("status", string(job.Status)).
			Msg("Job already finished - skipping")
		return nil
	case job.Status == models.JobStatusProcessing:
		return p.fail(ctx, jobID, errors.New("analysis was interrupted before completion"))
	}

	if _, err := p.jobs.Begin(ctx, jobID); err != nil {
		return p.fail(ctx, jobID, err)
	}

	startTime := time.Now()
	err = common.CatchPanic(logger, "analysis:"+jobID, func() error {
		result, err := p.Analyze(ctx, job.Query)
		if err != nil {
			return err
		}
		_, err = p.jobs.Succeed(ctx, jobID, result)
		return err
	})
	if err != nil {
		return p.fail(ctx, jobID, err)
	}

	logger.Info().
		Str("job_id", jobID).
		Str("query", job.Query).
		Str("duration", time.Since(startTime).String()).
		Msg("Analysis completed")

	return nil
}

// Analyze runs research then structuring without touching job state
func (p *Pipeline) Analyze(ctx context.Context, query string) (*models.AnalysisResult, error) {
	report, err := p.researcher.Run(ctx, query)
	if err != nil {
		return nil, err
	}

	p.logger.Debug().
		Str("query", query).
		Int("tool_calls", report.ToolCalls).
		Int("posts_seen", len(report.PostsSeen)).
		Msg("Research phase finished")

	result, err := p.structurer.Structure(ctx, report.Findings, query)
	if err != nil {
		return nil, err
	}

	if result.TotalPostsAnalyzed == 0 && len(report.PostsSeen) > 0 {
		result.TotalPostsAnalyzed = len(report.PostsSeen)
	}

	return result, nil
}

func (p *Pipeline) fail(ctx context.Context, jobID string, cause error) error {
	classified := models.ClassifyBackgroundError(cause)

	p.logger.Error().
		Err(classified).
		Str("job_id", jobID).
		Msg("Analysis failed")

	if _, err := p.jobs.Fail(ctx, jobID, classified.Error()); err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			// Already terminal; the first outcome stands
			return nil
		}
		return fmt.Errorf("failed to record failure for job %s: %w", jobID, err)
	}
	return nil
}
