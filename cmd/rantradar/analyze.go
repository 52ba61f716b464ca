package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ternarybob/rantradar/internal/app"
	"github.com/ternarybob/rantradar/internal/models"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [query]",
	Short: "Run one complaint analysis in the foreground",
	Long: `Creates a job for the query, runs research and structuring in this process,
and prints the finished job as JSON. The job is stored like any API job.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

var analyzeVerbose bool

func init() {
	analyzeCmd.Flags().BoolVarP(&analyzeVerbose, "verbose", "v", false, "Also log to the console")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))

	// stdout carries the JSON result
	if !analyzeVerbose {
		config.Logging.Output = []string{"file"}
	}
	initLogging()

	application, err := app.New(config, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	ctx := cmd.Context()

	job, err := application.JobService.Create(ctx, query)
	if err != nil {
		return err
	}

	logger.Info().
		Str("job_id", job.ID).
		Str("query", query).
		Msg("Running analysis in foreground")

	if err := application.Pipeline.Run(ctx, job.ID); err != nil {
		return err
	}

	job, err = application.JobService.Get(ctx, job.ID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(job); err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	if job.Status != models.JobStatusCompleted {
		return fmt.Errorf("analysis %s: %s", job.Status, job.ErrorMessage)
	}
	return nil
}
