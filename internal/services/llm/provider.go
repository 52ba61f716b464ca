package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go/v3"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/ternarybob/rantradar/internal/common"
)

// ProviderFactory routes generation requests to Gemini, Claude or OpenRouter.
// Clients are created lazily on first use.
type ProviderFactory struct {
	geminiConfig     *common.GeminiConfig
	claudeConfig     *common.ClaudeConfig
	openRouterConfig *common.OpenRouterConfig
	llmConfig        *common.LLMConfig
	logger           arbor.ILogger

	mu               sync.Mutex
	geminiClient     *genai.Client
	claudeClient     *anthropic.Client
	openRouterClient *openai.Client
	limiters         map[ProviderType]*rate.Limiter

	retry *RetryConfig
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(config *common.Config, logger arbor.ILogger) *ProviderFactory {
	f := &ProviderFactory{
		geminiConfig:     &config.Gemini,
		claudeConfig:     &config.Claude,
		openRouterConfig: &config.OpenRouter,
		llmConfig:        &config.LLM,
		logger:           logger,
		limiters: map[ProviderType]*rate.Limiter{
			ProviderGemini:     newLimiter(config.Gemini.RateLimit),
			ProviderClaude:     newLimiter(config.Claude.RateLimit),
			ProviderOpenRouter: newLimiter(config.OpenRouter.RateLimit),
		},
		retry: NewDefaultRetryConfig(),
	}
	f.retry.MaxRetries = max(config.LLM.MaxRetries, 0)
	return f
}

// DefaultTimeout bounds one generation call, retries included
const DefaultTimeout = 2 * time.Minute

// CallTimeout resolves the per-call timeout from the [llm] section
func CallTimeout(cfg common.LLMConfig) time.Duration {
	return common.ParseDuration(cfg.Timeout, DefaultTimeout)
}

// newLimiter paces calls to one per interval; an empty interval disables pacing
func newLimiter(interval string) *rate.Limiter {
	d := common.ParseDuration(interval, 0)
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

// DetectProvider determines the provider type from a model string.
// Model strings can be:
//   - "claude-haiku-4-5" or "claude/claude-haiku-4-5" -> Claude
//   - "gemini-2.5-flash" or "gemini/gemini-2.5-flash" -> Gemini
//   - "openrouter/openai/gpt-4.1-mini" or any "vendor/model" id -> OpenRouter
//   - Empty string -> the configured default provider
func (f *ProviderFactory) DetectProvider(model string) ProviderType {
	if model == "" {
		return f.defaultProvider()
	}

	model = strings.ToLower(model)

	switch {
	case strings.HasPrefix(model, "openrouter/"):
		return ProviderOpenRouter
	case strings.HasPrefix(model, "claude/"), strings.HasPrefix(model, "claude-"):
		return ProviderClaude
	case strings.HasPrefix(model, "gemini/"), strings.HasPrefix(model, "gemini-"):
		return ProviderGemini
	case strings.Contains(model, "/"):
		// OpenRouter model ids are namespaced by vendor
		return ProviderOpenRouter
	}

	return f.defaultProvider()
}

func (f *ProviderFactory) defaultProvider() ProviderType {
	if f.llmConfig.DefaultProvider == "" {
		return ProviderOpenRouter
	}
	return ProviderType(f.llmConfig.DefaultProvider)
}

// NormalizeModel removes the routing prefix from a model name if present
func (f *ProviderFactory) NormalizeModel(model string) string {
	prefixes := []string{"openrouter/", "claude/", "gemini/"}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			return model[len(prefix):]
		}
	}
	return model
}

// GetDefaultModel returns the default model for a provider
func (f *ProviderFactory) GetDefaultModel(provider ProviderType) string {
	switch provider {
	case ProviderClaude:
		return f.claudeConfig.Model
	case ProviderGemini:
		return f.geminiConfig.Model
	default:
		return f.openRouterConfig.Model
	}
}

// GenerateContent generates content using the provider selected by the model.
// Each call is bounded by the [llm] timeout and paced by the provider's limiter;
// only rate-limit failures are retried.
func (f *ProviderFactory) GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error) {
	if request == nil || len(request.Messages) == 0 {
		return nil, fmt.Errorf("generation request must contain at least one message")
	}

	provider := f.DetectProvider(request.Model)
	model := f.NormalizeModel(request.Model)
	if model == "" {
		model = f.GetDefaultModel(provider)
	}

	timeout := CallTimeout(*f.llmConfig)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	f.logger.Debug().
		Str("provider", string(provider)).
		Str("model", model).
		Int("message_count", len(request.Messages)).
		Bool("structured", len(request.OutputSchema) > 0).
		Msg("Generating content with provider")

	call := func() (*ContentResponse, error) {
		if limiter := f.limiters[provider]; limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limiter wait: %w", err)
			}
		}
		switch provider {
		case ProviderClaude:
			return f.generateWithClaude(ctx, request, model)
		case ProviderGemini:
			return f.generateWithGemini(ctx, request, model)
		case ProviderOpenRouter:
			return f.generateWithOpenRouter(ctx, request, model)
		default:
			return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
		}
	}

	startTime := time.Now()
	resp, err := withRetry(ctx, f.retry, f.logger, string(provider), call)
	if err != nil {
		return nil, err
	}

	f.logger.Debug().
		Str("provider", string(provider)).
		Str("model", model).
		Int("response_chars", len(resp.Text)).
		Str("duration", time.Since(startTime).String()).
		Msg("Content generated")

	return resp, nil
}

// Close releases provider clients
func (f *ProviderFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.geminiClient = nil
	f.claudeClient = nil
	f.openRouterClient = nil
	return nil
}

// schemaInstruction renders an output schema as a prompt instruction for providers
// without native schema enforcement.
func schemaInstruction(schema map[string]interface{}) string {
	if len(schema) == 0 {
		return ""
	}
	return "Respond with a single JSON object only, no prose and no markdown fences. " +
		"The object must conform to this JSON schema:\n" + mustJSON(schema)
}
