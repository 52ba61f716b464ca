package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rantradar/internal/models"
	"github.com/ternarybob/rantradar/internal/services/llm"
	"github.com/ternarybob/rantradar/internal/services/reddit"
)

// errInvalidArguments marks failures the agent can correct on its next step
var errInvalidArguments = errors.New("invalid tool arguments")

// Router executes the agent's evidence tools
type Router struct {
	reddit    RedditAPI
	generator llm.Generator
	model     string
	logger    arbor.ILogger

	mu        sync.Mutex
	postsSeen map[string]struct{}
}

// NewRouter creates a tool router. generator may be nil, in which case
// analyze_complaint always reports no complaint.
func NewRouter(redditAPI RedditAPI, generator llm.Generator, model string, logger arbor.ILogger) *Router {
	return &Router{
		reddit:    redditAPI,
		generator: generator,
		model:     model,
		logger:    logger,
		postsSeen: make(map[string]struct{}),
	}
}

// Tools returns the tool catalogue
func (r *Router) Tools() []Tool {
	out := make([]Tool, len(catalogue))
	copy(out, catalogue)
	return out
}

// Execute runs a tool call. Bad arguments and unknown tools come back as error
// observations; upstream and transport failures are returned as errors.
func (r *Router) Execute(ctx context.Context, call ToolCall) (*ToolResult, error) {
	startTime := time.Now()

	r.logger.Info().
		Str("tool", call.Name).
		Str("tool_call_id", call.ID).
		Msg("Executing tool")

	var (
		payload interface{}
		err     error
	)
	switch call.Name {
	case ToolSearchReddit:
		payload, err = r.searchReddit(ctx, call.Arguments)
	case ToolGetComments:
		payload, err = r.getComments(ctx, call.Arguments)
	case ToolAnalyzeComplaint:
		payload, err = r.analyzeComplaint(ctx, call.Arguments)
	default:
		err = fmt.Errorf("%w: unknown tool %q", errInvalidArguments, call.Name)
	}

	duration := time.Since(startTime)

	if err != nil {
		if errors.Is(err, errInvalidArguments) {
			r.logger.Warn().
				Err(err).
				Str("tool", call.Name).
				Str("tool_call_id", call.ID).
				Msg("Tool call rejected")

			return &ToolResult{
				ToolCallID: call.ID,
				Name:       call.Name,
				Content:    fmt.Sprintf("Error executing tool: %v", err),
				IsError:    true,
			}, nil
		}

		r.logger.Error().
			Err(err).
			Str("tool", call.Name).
			Str("tool_call_id", call.ID).
			Str("duration", duration.String()).
			Msg("Tool execution failed")
		return nil, fmt.Errorf("tool %s failed: %w", call.Name, err)
	}

	content, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s result: %w", call.Name, err)
	}

	r.logger.Info().
		Str("tool", call.Name).
		Str("tool_call_id", call.ID).
		Int("content_length", len(content)).
		Str("duration", duration.String()).
		Msg("Tool execution complete")

	return &ToolResult{
		ToolCallID: call.ID,
		Name:       call.Name,
		Content:    string(content),
	}, nil
}

func (r *Router) searchReddit(ctx context.Context, args map[string]interface{}) ([]models.PostSummary, error) {
	query, err := requireString(args, "query")
	if err != nil {
		return nil, err
	}

	posts, err := r.reddit.Search(ctx, reddit.SearchParams{
		Query:      query,
		Subreddit:  optionalString(args, "subreddit"),
		Sort:       optionalString(args, "sort"),
		TimeFilter: firstString(args, "time_filter", "timeFilter"),
	})
	if err != nil {
		return nil, err
	}

	r.markSeen(posts)
	return posts, nil
}

func (r *Router) getComments(ctx context.Context, args map[string]interface{}) ([]models.CommentSummary, error) {
	postID := firstString(args, "post_id", "postId")
	if postID == "" {
		return nil, fmt.Errorf("%w: post_id is required", errInvalidArguments)
	}
	subreddit, err := requireString(args, "subreddit")
	if err != nil {
		return nil, err
	}

	return r.reddit.FetchComments(ctx, postID, subreddit)
}

// PostsSeen returns the distinct post ids returned by searches so far, sorted
func (r *Router) PostsSeen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.postsSeen))
	for id := range r.postsSeen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Router) markSeen(posts []models.PostSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range posts {
		r.postsSeen[p.ID] = struct{}{}
	}
}

// Describe renders the tool catalogue for inclusion in the agent system prompt
func (r *Router) Describe() string {
	var b strings.Builder
	b.WriteString("# Available Tools\n\n")
	b.WriteString("To use a tool, respond with a JSON object in this format:\n\n")
	b.WriteString("```json\n")
	b.WriteString("{\n")
	b.WriteString("  \"tool_use\": {\n")
	b.WriteString("    \"id\": \"unique_id\",\n")
	b.WriteString("    \"name\": \"tool_name\",\n")
	b.WriteString("    \"arguments\": {\"arg1\": \"value1\"}\n")
	b.WriteString("  }\n")
	b.WriteString("}\n")
	b.WriteString("```\n\n")

	for _, tool := range catalogue {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", tool.Name, tool.Description)

		schemaJSON, err := json.MarshalIndent(tool.InputSchema, "", "  ")
		if err != nil {
			continue
		}
		b.WriteString("**Input Schema:**\n```json\n")
		b.Write(schemaJSON)
		b.WriteString("\n```\n\n")
	}

	return b.String()
}

func requireString(args map[string]interface{}, key string) (string, error) {
	v := optionalString(args, key)
	if v == "" {
		return "", fmt.Errorf("%w: %s is required", errInvalidArguments, key)
	}
	return v, nil
}

func optionalString(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}

// firstString reads the first non-empty value among alternative spellings of a key
func firstString(args map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v := optionalString(args, key); v != "" {
			return v
		}
	}
	return ""
}
