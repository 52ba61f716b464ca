// -----------------------------------------------------------------------
// Last Modified: Saturday, 17th October 2026 2:40:11 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rantradar/internal/common"
	"github.com/ternarybob/rantradar/internal/handlers"
	"github.com/ternarybob/rantradar/internal/interfaces"
	"github.com/ternarybob/rantradar/internal/jobs"
	"github.com/ternarybob/rantradar/internal/models"
	"github.com/ternarybob/rantradar/internal/queue"
	"github.com/ternarybob/rantradar/internal/services/agent"
	"github.com/ternarybob/rantradar/internal/services/llm"
	"github.com/ternarybob/rantradar/internal/services/reddit"
	"github.com/ternarybob/rantradar/internal/services/structuring"
	"github.com/ternarybob/rantradar/internal/services/tools"
	"github.com/ternarybob/rantradar/internal/storage/badger"
)

// shutdownGrace bounds how long Close waits for in-flight analyses
const shutdownGrace = 30 * time.Second

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Background execution
	QueueManager *queue.BadgerManager
	WorkerPool   *queue.WorkerPool

	// Analysis services
	RedditClient *reddit.Client
	LLMFactory   *llm.ProviderFactory
	Agent        *agent.Agent
	Structurer   *structuring.Structurer

	// Job lifecycle
	JobService *jobs.Service
	Pipeline   *jobs.Pipeline
	Dispatcher *jobs.Dispatcher

	// HTTP handlers
	APIHandler     *handlers.APIHandler
	AnalyzeHandler *handlers.AnalyzeHandler
	JobHandler     *handlers.JobHandler
}

// New initializes the application with all dependencies. Workers are not
// started until Start is called.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(); err != nil {
		app.StorageManager.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Str("llm_provider", string(cfg.LLM.DefaultProvider)).
		Int("max_steps", cfg.Agent.MaxSteps).
		Int("concurrency", cfg.Queue.Concurrency).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := badger.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices initializes all business services in dependency order:
// queue, forum client, LLM providers, research agent, structurer, job lifecycle.
func (a *App) initServices() error {
	queueConfig := queue.ConfigFromCommon(a.Config.Queue)
	agentConfig := agent.ConfigFromCommon(a.Config.Agent)

	if err := validateVisibility(queueConfig, agentConfig, llm.CallTimeout(a.Config.LLM)); err != nil {
		return err
	}

	queueManager, err := queue.NewBadgerManager(a.StorageManager.DB(), queueConfig, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create queue manager: %w", err)
	}
	a.QueueManager = queueManager

	a.RedditClient = reddit.NewClient(
		reddit.WithBaseURL(a.Config.Reddit.BaseURL),
		reddit.WithUserAgent(a.Config.Reddit.UserAgent),
		reddit.WithTimeout(common.ParseDuration(a.Config.Reddit.Timeout, reddit.DefaultTimeout)),
		reddit.WithSearchLimit(a.Config.Reddit.SearchLimit),
		reddit.WithLogger(a.Logger),
	)

	a.LLMFactory = llm.NewProviderFactory(a.Config, a.Logger)

	researchModel := a.Config.Agent.Model
	toolsSection := a.NewToolRouter().Describe()
	decider := agent.NewLLMDecider(a.LLMFactory, researchModel, toolsSection, a.Logger)
	a.Agent = agent.New(decider, func() agent.Toolbox {
		return a.NewToolRouter()
	}, agentConfig, a.Logger)

	a.Structurer = structuring.NewStructurer(a.LLMFactory, a.Config.Structuring, a.Logger)

	a.JobService = jobs.NewService(a.StorageManager.JobStorage(), a.Logger)
	a.Pipeline = jobs.NewPipeline(a.JobService, a.Agent, a.Structurer, a.Logger)
	a.Dispatcher = jobs.NewDispatcher(a.JobService, a.QueueManager, a.Logger)

	// Messages dropped after too many deliveries still owe their job a terminal state
	a.QueueManager.OnDrop(func(msg queue.Message, receiveCount int) {
		reason := fmt.Sprintf("analysis abandoned after %d delivery attempts", receiveCount)
		if _, err := a.JobService.Fail(context.Background(), msg.JobID, reason); err != nil {
			a.Logger.Warn().
				Err(err).
				Str("job_id", msg.JobID).
				Msg("Failed to mark dropped job as failed")
		}
	})

	a.WorkerPool = queue.NewWorkerPool(a.QueueManager, queueConfig, a.Logger)
	a.WorkerPool.RegisterHandler(models.MessageTypeAnalyze, a.Pipeline.HandleMessage)

	return nil
}

// validateVisibility rejects a visibility timeout that could expire while a
// job is still running; the redelivered copy would fail the live job as interrupted.
func validateVisibility(queueConfig queue.Config, agentConfig agent.Config, llmTimeout time.Duration) error {
	longestRun := agentConfig.Timeout + llmTimeout
	if queueConfig.VisibilityTimeout <= longestRun {
		return fmt.Errorf("queue.visibility_timeout (%s) must exceed agent.timeout + llm.timeout (%s)",
			queueConfig.VisibilityTimeout, longestRun)
	}
	return nil
}

// NewToolRouter returns a fresh evidence tool router
func (a *App) NewToolRouter() *tools.Router {
	return tools.NewRouter(a.RedditClient, a.LLMFactory, a.Config.Agent.Model, a.Logger)
}

// initHandlers initializes HTTP handlers
func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.Logger)
	a.AnalyzeHandler = handlers.NewAnalyzeHandler(a.Dispatcher, a.Logger)
	a.JobHandler = handlers.NewJobHandler(a.JobService, a.Logger)
}

// Start begins polling the analysis queue
func (a *App) Start(ctx context.Context) error {
	if err := a.WorkerPool.Start(ctx); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}
	a.Logger.Debug().Msg("Worker pool started")
	return nil
}

// Close stops workers, waiting for in-flight analyses, then releases storage
func (a *App) Close() error {
	if a.WorkerPool != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		if err := a.WorkerPool.Stop(ctx); err != nil {
			a.Logger.Warn().Err(err).Msg("Worker pool did not stop cleanly")
		} else {
			a.Logger.Info().Msg("Worker pool stopped")
		}
		cancel()
	}

	if a.QueueManager != nil {
		if err := a.QueueManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close queue manager")
		}
	}

	if a.LLMFactory != nil {
		if err := a.LLMFactory.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM providers")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
