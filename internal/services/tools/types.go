package tools

import (
	"context"

	"github.com/ternarybob/rantradar/internal/models"
	"github.com/ternarybob/rantradar/internal/services/reddit"
)

// Tool names exposed to the research agent
const (
	ToolSearchReddit     = "search_reddit"
	ToolGetComments      = "get_comments"
	ToolAnalyzeComplaint = "analyze_complaint"
)

// Tool describes one callable tool
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// ToolCall is a tool invocation requested by the agent
type ToolCall struct {
	ID        string                 `json:"id"`        // Unique ID for this tool call
	Name      string                 `json:"name"`      // Tool name
	Arguments map[string]interface{} `json:"arguments"` // Tool arguments
}

// ToolResult is the observation returned to the agent
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error"`
}

// RedditAPI is the read-only forum surface the tools need
type RedditAPI interface {
	Search(ctx context.Context, params reddit.SearchParams) ([]models.PostSummary, error)
	FetchComments(ctx context.Context, postID, subreddit string) ([]models.CommentSummary, error)
}
