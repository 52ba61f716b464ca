package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// GetOpenRouterClient returns an OpenAI-compatible client pointed at OpenRouter
func (f *ProviderFactory) GetOpenRouterClient() (*openai.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.openRouterClient != nil {
		return f.openRouterClient, nil
	}

	if f.openRouterConfig.APIKey == "" {
		return nil, fmt.Errorf("OpenRouter API key not configured (set OPENROUTER_API_KEY or [openrouter].api_key)")
	}

	client := openai.NewClient(
		option.WithAPIKey(f.openRouterConfig.APIKey),
		option.WithBaseURL(f.openRouterConfig.BaseURL),
		option.WithHeader("X-Title", "Rant Radar"),
	)
	f.openRouterClient = &client
	return f.openRouterClient, nil
}

// generateWithOpenRouter generates content through OpenRouter's chat completions API.
// Structured output uses JSON mode with the schema spelled out in the system prompt.
func (f *ProviderFactory) generateWithOpenRouter(ctx context.Context, request *ContentRequest, model string) (*ContentResponse, error) {
	client, err := f.GetOpenRouterClient()
	if err != nil {
		return nil, err
	}

	systemText := request.SystemInstruction
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(request.Messages)+1)
	for _, msg := range request.Messages {
		switch msg.Role {
		case "system":
			if systemText == "" {
				systemText = msg.Content
			}
		case "assistant":
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	structured := len(request.OutputSchema) > 0
	if structured {
		systemText = strings.TrimSpace(systemText + "\n\n" + schemaInstruction(request.OutputSchema))
	}
	if systemText != "" {
		messages = append([]openai.ChatCompletionMessageParamUnion{openai.SystemMessage(systemText)}, messages...)
	}

	temp := request.Temperature
	if temp <= 0 {
		temp = f.openRouterConfig.Temperature
	}

	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(model),
		Messages:    messages,
		Temperature: openai.Float(float64(temp)),
	}
	if request.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(request.MaxTokens))
	}
	if structured {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{
				Type: "json_object",
			},
		}
	}

	completion, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}

	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no completion choices returned from OpenRouter")
	}

	text := completion.Choices[0].Message.Content
	if text == "" {
		return nil, fmt.Errorf("empty response from OpenRouter")
	}

	return &ContentResponse{
		Text:     text,
		Provider: ProviderOpenRouter,
		Model:    model,
	}, nil
}
