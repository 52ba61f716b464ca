// -----------------------------------------------------------------------
// Last Modified: Saturday, 17th October 2026 3:22:05 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rantradar/internal/common"
)

var (
	// Persistent flags
	configFiles []string // Multiple --config flags supported
	envFile     string

	// Global state
	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:   "rantradar",
	Short: "Rant Radar - find what people complain about on Reddit",
	Long: `Rant Radar researches Reddit for complaints about a product or topic.

An LLM research agent searches posts and reads comment threads, then a
structuring pass turns the findings into a ranked list of complaints.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// version needs no configuration
		if cmd.Name() == "version" {
			return nil
		}
		return loadConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVarP(&configFiles, "config", "c", nil, "Configuration file path (can be repeated, later files override earlier ones)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "Environment file with API keys")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig runs the startup sequence:
// env file -> config files -> env overrides -> logger -> banner
func loadConfig() error {
	if err := common.LoadDotEnv(envFile); err != nil {
		return err
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("rantradar.toml"); err == nil {
			configFiles = append(configFiles, "rantradar.toml")
		} else if _, err := os.Stat("deployments/local/rantradar.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/rantradar.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	return nil
}

// initLogging installs the configured logger. Commands that write results
// to stdout call it after adjusting the outputs.
func initLogging() {
	logger = common.InitLogger(config)

	logger.Debug().
		Strs("config_files", configFiles).
		Str("storage_path", config.Storage.Badger.Path).
		Str("log_level", config.Logging.Level).
		Strs("log_output", config.Logging.Output).
		Str("llm_provider", string(config.LLM.DefaultProvider)).
		Msg("Resolved configuration (sanitized)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
