package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rantradar/internal/common"
)

// Config bounds a research run
type Config struct {
	MaxSteps int           // Decision steps before tools are disabled
	Timeout  time.Duration // Overall research timeout
}

// DefaultConfig returns the default research bounds
func DefaultConfig() Config {
	return Config{
		MaxSteps: 10,
		Timeout:  5 * time.Minute,
	}
}

// ConfigFromCommon builds research bounds from application config
func ConfigFromCommon(cfg common.AgentConfig) Config {
	c := DefaultConfig()
	if cfg.MaxSteps > 0 {
		c.MaxSteps = cfg.MaxSteps
	}
	c.Timeout = common.ParseDuration(cfg.Timeout, c.Timeout)
	return c
}

// Agent runs the bounded research loop
type Agent struct {
	decider  Decider
	newTools func() Toolbox
	config   Config
	logger   arbor.ILogger
}

// New creates a research agent. newTools is called once per run so that
// per-run tool state (posts seen) does not leak between jobs.
func New(decider Decider, newTools func() Toolbox, config Config, logger arbor.ILogger) *Agent {
	if config.MaxSteps <= 0 {
		config.MaxSteps = DefaultConfig().MaxSteps
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	return &Agent{
		decider:  decider,
		newTools: newTools,
		config:   config,
		logger:   logger,
	}
}

// Run executes the research loop and reports what it did. Decider errors and
// tool execution errors end the run.
func (a *Agent) Run(ctx context.Context, query string) (*Report, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("research query is required")
	}

	startTime := time.Now()
	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	toolbox := a.newTools()
	history := []Turn{{Kind: TurnQuery, Content: query}}
	report := &Report{}

	a.logger.Debug().
		Str("query", query).
		Int("max_steps", a.config.MaxSteps).
		Msg("Starting research loop")

	for report.Steps < a.config.MaxSteps {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("research timed out after %s: %w", time.Since(startTime), err)
		}

		report.Steps++
		decision, err := a.decider.Decide(ctx, history)
		if err != nil {
			return nil, fmt.Errorf("decision failed on step %d: %w", report.Steps, err)
		}

		if decision.IsStop() {
			return a.finish(report, toolbox, decision.Text, startTime), nil
		}

		call := *decision.Call
		if call.ID == "" {
			call.ID = common.NewToolCallID()
		}

		a.logger.Debug().
			Int("step", report.Steps).
			Str("tool", call.Name).
			Str("tool_call_id", call.ID).
			Msg("Agent requested tool use")

		result, err := toolbox.Execute(ctx, call)
		if err != nil {
			return nil, err
		}
		report.ToolCalls++

		history = append(history,
			Turn{Kind: TurnToolCall, Content: decision.Text, Call: &call},
			Turn{Kind: TurnToolResult, Content: result.Content, Result: result},
		)
	}

	a.logger.Info().
		Str("query", query).
		Int("steps", report.Steps).
		Msg("Research step budget exhausted - requesting final findings")

	history = append(history, Turn{Kind: TurnFinal})
	decision, err := a.decider.Decide(ctx, history)
	if err != nil {
		return nil, fmt.Errorf("final decision failed: %w", err)
	}

	return a.finish(report, toolbox, decision.Text, startTime), nil
}

func (a *Agent) finish(report *Report, toolbox Toolbox, findings string, startTime time.Time) *Report {
	report.Findings = findings
	report.PostsSeen = toolbox.PostsSeen()

	a.logger.Info().
		Int("steps", report.Steps).
		Int("tool_calls", report.ToolCalls).
		Int("posts_seen", len(report.PostsSeen)).
		Int("findings_chars", len(findings)).
		Str("duration", time.Since(startTime).String()).
		Msg("Research complete")

	return report
}
