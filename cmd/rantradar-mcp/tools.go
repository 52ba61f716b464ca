package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createSearchRedditTool returns the search_reddit tool definition
func createSearchRedditTool() mcp.Tool {
	return mcp.NewTool("search_reddit",
		mcp.WithDescription("Search Reddit posts, optionally within one subreddit"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search terms, e.g. \"sendgrid pricing\""),
		),
		mcp.WithString("subreddit",
			mcp.Description("Subreddit name without the r/ prefix"),
		),
		mcp.WithString("sort",
			mcp.Description("relevance, top or new (default: relevance)"),
		),
		mcp.WithString("time_filter",
			mcp.Description("day, week, month, year or all (default: month)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum posts to return (default: 36, max: 100)"),
		),
	)
}

// createGetCommentsTool returns the get_comments tool definition
func createGetCommentsTool() mcp.Tool {
	return mcp.NewTool("get_comments",
		mcp.WithDescription("Read the comment thread of a Reddit post, flattened depth-first"),
		mcp.WithString("post_id",
			mcp.Required(),
			mcp.Description("Post ID as returned by search_reddit"),
		),
		mcp.WithString("subreddit",
			mcp.Description("Subreddit the post belongs to (optional, narrows the lookup)"),
		),
	)
}

// createGetJobTool returns the get_job tool definition
func createGetJobTool() mcp.Tool {
	return mcp.NewTool("get_job",
		mcp.WithDescription("Fetch an analysis job and its complaint report"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("Job ID returned by POST /api/analyze"),
		),
	)
}

// createListJobsTool returns the list_jobs tool definition
func createListJobsTool() mcp.Tool {
	return mcp.NewTool("list_jobs",
		mcp.WithDescription("List the most recent analysis jobs"),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 3, max: 100)"),
		),
	)
}
