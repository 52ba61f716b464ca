package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rantradar/internal/services/llm"
	"github.com/ternarybob/rantradar/internal/services/tools"
)

var toolUseFence = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\"tool_use\".*\\})\\s*```")

// LLMDecider asks a language model for the next step using a prompt-level
// tool_use JSON protocol.
type LLMDecider struct {
	generator    llm.Generator
	model        string
	toolsSection string
	logger       arbor.ILogger
}

// NewLLMDecider creates a decider. toolsSection is the rendered tool catalogue.
func NewLLMDecider(generator llm.Generator, model, toolsSection string, logger arbor.ILogger) *LLMDecider {
	return &LLMDecider{
		generator:    generator,
		model:        model,
		toolsSection: toolsSection,
		logger:       logger,
	}
}

// Decide renders the history as a conversation and parses the model's reply
func (d *LLMDecider) Decide(ctx context.Context, history []Turn) (Decision, error) {
	final := isFinal(history)

	system := systemPromptBase
	if !final {
		system += "\n\n" + d.toolsSection
	}

	resp, err := d.generator.GenerateContent(ctx, &llm.ContentRequest{
		Model:             d.model,
		Messages:          renderHistory(history),
		SystemInstruction: system,
	})
	if err != nil {
		return Decision{}, err
	}

	d.logger.Debug().
		Int("history_turns", len(history)).
		Bool("final", final).
		Int("response_chars", len(resp.Text)).
		Msg("Decider response received")

	if final {
		return Stop(strings.TrimSpace(stripToolUse(resp.Text))), nil
	}

	if call, ok := parseToolUse(resp.Text); ok {
		return CallTool(*call, extractThought(resp.Text)), nil
	}

	return Stop(strings.TrimSpace(resp.Text)), nil
}

// renderHistory maps research turns to chat messages
func renderHistory(history []Turn) []llm.Message {
	messages := make([]llm.Message, 0, len(history))
	for _, turn := range history {
		switch turn.Kind {
		case TurnQuery:
			messages = append(messages, llm.Message{
				Role:    "user",
				Content: fmt.Sprintf(researchPromptTemplate, turn.Content),
			})
		case TurnToolCall:
			messages = append(messages, llm.Message{
				Role:    "assistant",
				Content: renderToolUse(turn),
			})
		case TurnToolResult:
			content := fmt.Sprintf("Tool '%s' returned:\n\n%s", turn.Result.Name, turn.Content)
			if turn.Result.IsError {
				content = fmt.Sprintf("Tool '%s' error:\n\n%s", turn.Result.Name, turn.Content)
			}
			messages = append(messages, llm.Message{Role: "user", Content: content})
		case TurnFinal:
			messages = append(messages, llm.Message{Role: "user", Content: finalPrompt})
		}
	}
	return messages
}

// renderToolUse writes the assistant's tool request back in protocol form
func renderToolUse(turn Turn) string {
	wrapper := map[string]interface{}{"tool_use": turn.Call}
	data, err := json.Marshal(wrapper)
	if err != nil {
		return turn.Content
	}
	block := "```json\n" + string(data) + "\n```"
	if thought := strings.TrimSpace(turn.Content); thought != "" {
		return thought + "\n\n" + block
	}
	return block
}

// parseToolUse extracts a tool call from a model reply, fenced or bare
func parseToolUse(response string) (*tools.ToolCall, bool) {
	candidates := []string{}
	if m := toolUseFence.FindStringSubmatch(response); len(m) > 1 {
		candidates = append(candidates, m[1])
	}
	candidates = append(candidates, llm.ExtractJSON(response))

	for _, candidate := range candidates {
		var wrapper struct {
			ToolUse *tools.ToolCall `json:"tool_use"`
		}
		if err := json.Unmarshal([]byte(candidate), &wrapper); err != nil {
			continue
		}
		if wrapper.ToolUse != nil && wrapper.ToolUse.Name != "" {
			if wrapper.ToolUse.Arguments == nil {
				wrapper.ToolUse.Arguments = map[string]interface{}{}
			}
			return wrapper.ToolUse, true
		}
	}
	return nil, false
}

// extractThought returns the text before a tool call block
func extractThought(response string) string {
	if idx := strings.Index(response, "```"); idx > 0 {
		return strings.TrimSpace(response[:idx])
	}
	return ""
}

// stripToolUse drops a tool request a model emits despite tools being disabled
func stripToolUse(response string) string {
	if _, ok := parseToolUse(response); !ok {
		return response
	}
	if loc := toolUseFence.FindStringIndex(response); loc != nil {
		return response[:loc[0]] + response[loc[1]:]
	}
	return ""
}
