package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"

	"github.com/ternarybob/rantradar/internal/common"
	"github.com/ternarybob/rantradar/internal/jobs"
	"github.com/ternarybob/rantradar/internal/services/reddit"
	"github.com/ternarybob/rantradar/internal/storage/badger"
)

func main() {
	if err := common.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load env file: %v\n", err)
		os.Exit(1)
	}

	// Load configuration
	configPath := os.Getenv("RANTRADAR_CONFIG")
	if configPath == "" {
		if _, err := os.Stat("rantradar.toml"); err == nil {
			configPath = "rantradar.toml"
		}
	}

	config, err := common.LoadFromFiles(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize minimal logger for MCP server (console only, no file output)
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn") // Minimal logging to avoid cluttering MCP stdio

	// Job history is read straight from Badger; a running server holds the
	// directory lock, so point this binary at its own path or stop the server.
	storageManager, err := badger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer storageManager.Close()

	jobService := jobs.NewService(storageManager.JobStorage(), logger)

	redditClient := reddit.NewClient(
		reddit.WithBaseURL(config.Reddit.BaseURL),
		reddit.WithUserAgent(config.Reddit.UserAgent),
		reddit.WithTimeout(common.ParseDuration(config.Reddit.Timeout, reddit.DefaultTimeout)),
		reddit.WithSearchLimit(config.Reddit.SearchLimit),
		reddit.WithLogger(logger),
	)

	// Create MCP server
	mcpServer := server.NewMCPServer(
		"rantradar",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	// Evidence tools
	mcpServer.AddTool(createSearchRedditTool(), handleSearchReddit(redditClient, logger))
	mcpServer.AddTool(createGetCommentsTool(), handleGetComments(redditClient, logger))

	// Job history tools
	mcpServer.AddTool(createGetJobTool(), handleGetJob(jobService, logger))
	mcpServer.AddTool(createListJobsTool(), handleListJobs(jobService, logger))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
