package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rantradar/internal/common"
)

type capturedChat struct {
	path    string
	auth    string
	title   string
	payload map[string]interface{}
}

func newOpenRouterFactory(t *testing.T, status int, reply string) (*ProviderFactory, *capturedChat) {
	t.Helper()

	captured := &capturedChat{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.auth = r.Header.Get("Authorization")
		captured.title = r.Header.Get("X-Title")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured.payload))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, reply)
	}))
	t.Cleanup(server.Close)

	cfg := common.NewDefaultConfig()
	cfg.OpenRouter.APIKey = "test-key"
	cfg.OpenRouter.BaseURL = server.URL
	cfg.OpenRouter.RateLimit = ""
	cfg.LLM.MaxRetries = 0

	return NewProviderFactory(cfg, arbor.NewLogger()), captured
}

func completionJSON(content string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"id":      "gen-1",
		"object":  "chat.completion",
		"created": 1760000000,
		"model":   "openai/gpt-4.1-mini",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]interface{}{"role": "assistant", "content": content},
			},
		},
	})
	return string(body)
}

func chatMessages(t *testing.T, payload map[string]interface{}) []map[string]interface{} {
	t.Helper()
	raw, ok := payload["messages"].([]interface{})
	require.True(t, ok)
	out := make([]map[string]interface{}, 0, len(raw))
	for _, m := range raw {
		msg, ok := m.(map[string]interface{})
		require.True(t, ok)
		out = append(out, msg)
	}
	return out
}

func TestOpenRouter_StructuredRequest(t *testing.T) {
	reply := `{"product":"sendgrid","complaints":[]}`
	f, captured := newOpenRouterFactory(t, http.StatusOK, completionJSON(reply))
	defer f.Close()

	resp, err := f.GenerateContent(context.Background(), &ContentRequest{
		Model:             "openai/gpt-4.1-mini",
		SystemInstruction: "You structure complaint research.",
		Messages:          []Message{{Role: "user", Content: "Findings: pricing is too high"}},
		OutputSchema:      map[string]interface{}{"type": "object"},
	})
	require.NoError(t, err)

	assert.Equal(t, reply, resp.Text, "text is returned unchanged")
	assert.Equal(t, ProviderOpenRouter, resp.Provider)
	assert.Equal(t, "openai/gpt-4.1-mini", resp.Model)

	assert.Equal(t, "/chat/completions", captured.path)
	assert.Equal(t, "Bearer test-key", captured.auth)
	assert.Equal(t, "Rant Radar", captured.title)
	assert.Equal(t, "openai/gpt-4.1-mini", captured.payload["model"])

	format, ok := captured.payload["response_format"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])

	messages := chatMessages(t, captured.payload)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0]["role"])
	assert.Contains(t, messages[0]["content"], "You structure complaint research.")
	assert.Contains(t, messages[0]["content"], "JSON schema")
	assert.Equal(t, "user", messages[1]["role"])
	assert.Equal(t, "Findings: pricing is too high", messages[1]["content"])
}

func TestOpenRouter_PlainTextRequest(t *testing.T) {
	f, captured := newOpenRouterFactory(t, http.StatusOK, completionJSON("I will search Reddit first."))
	defer f.Close()

	resp, err := f.GenerateContent(context.Background(), &ContentRequest{
		Messages: []Message{
			{Role: "user", Content: "sendgrid"},
			{Role: "assistant", Content: "searching"},
			{Role: "user", Content: "results"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "I will search Reddit first.", resp.Text)

	_, hasFormat := captured.payload["response_format"]
	assert.False(t, hasFormat, "free text requests leave the response format unset")
	assert.Equal(t, "openai/gpt-4.1-mini", captured.payload["model"], "configured default model")

	messages := chatMessages(t, captured.payload)
	require.Len(t, messages, 3)
	assert.Equal(t, "user", messages[0]["role"])
	assert.Equal(t, "assistant", messages[1]["role"])
}

func TestOpenRouter_ErrorStatus(t *testing.T) {
	f, _ := newOpenRouterFactory(t, http.StatusBadRequest, `{"error":{"message":"bad model","code":400}}`)
	defer f.Close()

	_, err := f.GenerateContent(context.Background(), &ContentRequest{
		Messages: []Message{{Role: "user", Content: "sendgrid"}},
	})
	assert.Error(t, err)
}

func TestOpenRouter_EmptyChoices(t *testing.T) {
	f, _ := newOpenRouterFactory(t, http.StatusOK, `{"id":"gen-2","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	defer f.Close()

	_, err := f.GenerateContent(context.Background(), &ContentRequest{
		Messages: []Message{{Role: "user", Content: "sendgrid"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no completion choices")
}
