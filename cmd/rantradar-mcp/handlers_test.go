package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rantradar/internal/services/reddit"
)

func callText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestHandleGetComments_SubredditOptional(t *testing.T) {
	var gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `[{"kind":"Listing","data":{"children":[]}}, {"kind":"Listing","data":{"children":[{"kind":"t1","data":{"body":"support never answers","score":9,"replies":""}}]}}]`)
	}))
	defer upstream.Close()

	client := reddit.NewClient(reddit.WithBaseURL(upstream.URL))
	handler := handleGetComments(client, arbor.NewLogger())

	request := mcp.CallToolRequest{}
	request.Params.Name = "get_comments"
	request.Params.Arguments = map[string]any{"post_id": "abc1"}

	result, err := handler(context.Background(), request)
	require.NoError(t, err)

	text := callText(t, result)
	assert.Equal(t, "/comments/abc1.json", gotPath)
	assert.Contains(t, text, "- [9] support never answers")
}

func TestHandleGetComments_MissingPostID(t *testing.T) {
	handler := handleGetComments(reddit.NewClient(), arbor.NewLogger())

	request := mcp.CallToolRequest{}
	request.Params.Name = "get_comments"
	request.Params.Arguments = map[string]any{}

	result, err := handler(context.Background(), request)
	require.NoError(t, err)
	assert.Contains(t, callText(t, result), "post_id parameter is required")
}
