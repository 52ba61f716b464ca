package tools

// catalogue lists the tools in the order they are described to the agent
var catalogue = []Tool{
	{
		Name:        ToolSearchReddit,
		Description: "Search Reddit for posts about a product. Returns post ids, titles, subreddits, scores, urls, comment counts and a short excerpt of the post body.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query, e.g. \"sendgrid problems\"",
				},
				"subreddit": map[string]interface{}{
					"type":        "string",
					"description": "Optional subreddit to restrict the search to",
				},
				"sort": map[string]interface{}{
					"type":    "string",
					"enum":    []string{"relevance", "top", "new"},
					"default": "relevance",
				},
				"time_filter": map[string]interface{}{
					"type":    "string",
					"enum":    []string{"day", "week", "month", "year", "all"},
					"default": "month",
				},
			},
			"required": []string{"query"},
		},
	},
	{
		Name:        ToolGetComments,
		Description: "Get up to 20 comments (body and score) from a Reddit post, nested replies included.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"post_id": map[string]interface{}{
					"type":        "string",
					"description": "Post id as returned by search_reddit",
				},
				"subreddit": map[string]interface{}{
					"type":        "string",
					"description": "Subreddit the post belongs to",
				},
			},
			"required": []string{"post_id", "subreddit"},
		},
	},
	{
		Name:        ToolAnalyzeComplaint,
		Description: "Extract and categorize complaints from a piece of Reddit content. Returns hasComplaint, the complaints found and the post metadata.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Reddit post or comment text",
				},
				"post_id":   map[string]interface{}{"type": "string"},
				"title":     map[string]interface{}{"type": "string"},
				"subreddit": map[string]interface{}{"type": "string"},
				"url":       map[string]interface{}{"type": "string"},
			},
			"required": []string{"content", "post_id"},
		},
	},
}

// extractionSchema constrains the analyze_complaint generation
var extractionSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"hasComplaint": map[string]interface{}{"type": "boolean"},
		"complaints": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"issue":    map[string]interface{}{"type": "string"},
					"category": map[string]interface{}{"type": "string", "description": "Category of the complaint"},
					"excerpt":  map[string]interface{}{"type": "string", "description": "Supporting quote, at most 200 characters"},
				},
				"required": []string{"issue", "category", "excerpt"},
			},
		},
	},
	"required": []string{"hasComplaint", "complaints"},
}
