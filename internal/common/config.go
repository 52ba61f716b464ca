package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string            `toml:"environment"` // "development" or "production"
	Server      ServerConfig      `toml:"server"`
	Queue       QueueConfig       `toml:"queue"`
	Storage     StorageConfig     `toml:"storage"`
	Logging     LoggingConfig     `toml:"logging"`
	Reddit      RedditConfig      `toml:"reddit"`
	Agent       AgentConfig       `toml:"agent"`
	Structuring StructuringConfig `toml:"structuring"`
	LLM         LLMConfig         `toml:"llm"`
	Gemini      GeminiConfig      `toml:"gemini"`
	Claude      ClaudeConfig      `toml:"claude"`
	OpenRouter  OpenRouterConfig  `toml:"openrouter"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type QueueConfig struct {
	PollInterval      string `toml:"poll_interval"`      // e.g., "1s" - how often workers poll for messages
	Concurrency       int    `toml:"concurrency"`        // Number of concurrent analysis pipelines
	VisibilityTimeout string `toml:"visibility_timeout"` // e.g., "10m" - message visibility timeout for redelivery
	MaxReceive        int    `toml:"max_receive"`        // Max times a message can be received before it is dropped
	QueueName         string `toml:"queue_name"`         // Queue name prefix in Badger
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// RedditConfig configures the forum client used by the evidence tools
type RedditConfig struct {
	BaseURL     string `toml:"base_url"`     // default: "https://www.reddit.com"
	UserAgent   string `toml:"user_agent"`   // Descriptive client identifier sent with every request
	Timeout     string `toml:"timeout"`      // Per-request timeout (default: "30s")
	SearchLimit int    `toml:"search_limit"` // Posts requested per search (default: 36)
}

// AgentConfig bounds the research loop
type AgentConfig struct {
	MaxSteps int    `toml:"max_steps"` // Maximum tool-calling steps (default: 10)
	Timeout  string `toml:"timeout"`   // Whole research phase timeout (default: "5m")
	Model    string `toml:"model"`     // Optional model override for research
}

// StructuringConfig controls the schema-constrained report generation
type StructuringConfig struct {
	MinComplaints int    `toml:"min_complaints"` // default: 3
	MaxComplaints int    `toml:"max_complaints"` // default: 7
	Model         string `toml:"model"`          // Optional model override for structuring
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderOpenRouter uses the OpenAI-compatible OpenRouter API
	LLMProviderOpenRouter LLMProvider = "openrouter"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "openrouter", "gemini" or "claude" (default: "openrouter")
	Timeout         string      `toml:"timeout"`          // Per-call timeout (default: "2m")
	MaxRetries      int         `toml:"max_retries"`      // Retries on rate-limit responses only (default: 2)
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`       // default: "gemini-2.5-flash"
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between calls (default: "4s" for 15 RPM)
	Temperature float32 `toml:"temperature"` // default: 0.2
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`      // default: "claude-haiku-4-5"
	MaxTokens   int     `toml:"max_tokens"` // default: 8192
	RateLimit   string  `toml:"rate_limit"` // default: "1s"
	Temperature float32 `toml:"temperature"`
}

// OpenRouterConfig contains OpenRouter (OpenAI-compatible) configuration
type OpenRouterConfig struct {
	APIKey      string  `toml:"api_key"`
	BaseURL     string  `toml:"base_url"` // default: "https://openrouter.ai/api/v1"
	Model       string  `toml:"model"`    // default: "openai/gpt-4.1-mini"
	RateLimit   string  `toml:"rate_limit"`
	Temperature float32 `toml:"temperature"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Queue: QueueConfig{
			PollInterval:      "1s",
			Concurrency:       4,
			VisibilityTimeout: "10m", // Longer than a full research + structuring run
			MaxReceive:        3,
			QueueName:         "rantradar_jobs",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Reddit: RedditConfig{
			BaseURL:     "https://www.reddit.com",
			UserAgent:   "RantRadar/1.0 (complaint research bot)",
			Timeout:     "30s",
			SearchLimit: 36,
		},
		Agent: AgentConfig{
			MaxSteps: 10,
			Timeout:  "5m",
		},
		Structuring: StructuringConfig{
			MinComplaints: 3,
			MaxComplaints: 7,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderOpenRouter,
			Timeout:         "2m",
			MaxRetries:      2,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.5-flash",
			RateLimit:   "4s",
			Temperature: 0.2,
		},
		Claude: ClaudeConfig{
			Model:       "claude-haiku-4-5",
			MaxTokens:   8192,
			RateLimit:   "1s",
			Temperature: 0.2,
		},
		OpenRouter: OpenRouterConfig{
			BaseURL:     "https://openrouter.ai/api/v1",
			Model:       "openai/gpt-4.1-mini",
			RateLimit:   "500ms",
			Temperature: 0.2,
		},
	}
}

// LoadFromFiles loads configuration with priority: default -> file1 -> file2 -> ... -> env
// Later files override earlier files. CLI flags are applied by the caller via ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadDotEnv loads variables from .env files into the process environment.
// Existing environment variables are never overwritten and missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("RANTRADAR_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("RANTRADAR_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("RANTRADAR_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Queue configuration
	if pollInterval := os.Getenv("RANTRADAR_QUEUE_POLL_INTERVAL"); pollInterval != "" {
		config.Queue.PollInterval = pollInterval
	}
	if concurrency := os.Getenv("RANTRADAR_QUEUE_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil {
			config.Queue.Concurrency = c
		}
	}
	if visibilityTimeout := os.Getenv("RANTRADAR_QUEUE_VISIBILITY_TIMEOUT"); visibilityTimeout != "" {
		config.Queue.VisibilityTimeout = visibilityTimeout
	}
	if maxReceive := os.Getenv("RANTRADAR_QUEUE_MAX_RECEIVE"); maxReceive != "" {
		if mr, err := strconv.Atoi(maxReceive); err == nil {
			config.Queue.MaxReceive = mr
		}
	}

	// Storage configuration
	if badgerPath := os.Getenv("RANTRADAR_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("RANTRADAR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("RANTRADAR_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Reddit configuration
	if baseURL := os.Getenv("RANTRADAR_REDDIT_BASE_URL"); baseURL != "" {
		config.Reddit.BaseURL = baseURL
	}
	if userAgent := os.Getenv("RANTRADAR_REDDIT_USER_AGENT"); userAgent != "" {
		config.Reddit.UserAgent = userAgent
	}
	if timeout := os.Getenv("RANTRADAR_REDDIT_TIMEOUT"); timeout != "" {
		config.Reddit.Timeout = timeout
	}

	// Agent configuration
	if maxSteps := os.Getenv("RANTRADAR_AGENT_MAX_STEPS"); maxSteps != "" {
		if ms, err := strconv.Atoi(maxSteps); err == nil {
			config.Agent.MaxSteps = ms
		}
	}
	if timeout := os.Getenv("RANTRADAR_AGENT_TIMEOUT"); timeout != "" {
		config.Agent.Timeout = timeout
	}

	// LLM provider configuration
	if provider := os.Getenv("RANTRADAR_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
	if timeout := os.Getenv("RANTRADAR_LLM_TIMEOUT"); timeout != "" {
		config.LLM.Timeout = timeout
	}

	// Gemini configuration
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if apiKey := os.Getenv("RANTRADAR_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey // RANTRADAR_ prefix takes priority
	}
	if model := os.Getenv("RANTRADAR_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("RANTRADAR_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if model := os.Getenv("RANTRADAR_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}

	// OpenRouter configuration
	if apiKey := os.Getenv("OPENROUTER_API_KEY"); apiKey != "" {
		config.OpenRouter.APIKey = apiKey
	}
	if apiKey := os.Getenv("RANTRADAR_OPENROUTER_API_KEY"); apiKey != "" {
		config.OpenRouter.APIKey = apiKey
	}
	if model := os.Getenv("RANTRADAR_OPENROUTER_MODEL"); model != "" {
		config.OpenRouter.Model = model
	}
	if baseURL := os.Getenv("RANTRADAR_OPENROUTER_BASE_URL"); baseURL != "" {
		config.OpenRouter.BaseURL = baseURL
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// Validate rejects settings that would lose data or cannot work
func (c *Config) Validate() error {
	if c.IsProduction() && c.Storage.Badger.ResetOnStartup {
		return fmt.Errorf("storage.badger.reset_on_startup is not allowed in production")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.Structuring.MinComplaints > 0 && c.Structuring.MaxComplaints > 0 &&
		c.Structuring.MinComplaints > c.Structuring.MaxComplaints {
		return fmt.Errorf("structuring.min_complaints (%d) exceeds max_complaints (%d)",
			c.Structuring.MinComplaints, c.Structuring.MaxComplaints)
	}
	return nil
}

// ParseDuration parses a duration string from config, returning fallback when empty or invalid
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
