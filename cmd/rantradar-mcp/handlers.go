package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rantradar/internal/jobs"
	"github.com/ternarybob/rantradar/internal/services/reddit"
	"github.com/ternarybob/rantradar/internal/services/tools"
)

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

// handleSearchReddit implements the search_reddit tool
func handleSearchReddit(api tools.RedditAPI, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return textResult("Error: query parameter is required"), nil
		}

		limit := request.GetInt("limit", 0)
		if limit > 100 {
			limit = 100
		}

		posts, err := api.Search(ctx, reddit.SearchParams{
			Query:      query,
			Subreddit:  request.GetString("subreddit", ""),
			Sort:       request.GetString("sort", ""),
			TimeFilter: request.GetString("time_filter", ""),
			Limit:      limit,
		})
		if err != nil {
			logger.Error().Err(err).Str("query", query).Msg("Reddit search failed")
			return textResult(fmt.Sprintf("Search error: %v", err)), nil
		}

		return textResult(formatPosts(query, posts)), nil
	}
}

// handleGetComments implements the get_comments tool
func handleGetComments(api tools.RedditAPI, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		postID, err := request.RequireString("post_id")
		if err != nil || postID == "" {
			return textResult("Error: post_id parameter is required"), nil
		}

		comments, err := api.FetchComments(ctx, postID, request.GetString("subreddit", ""))
		if err != nil {
			logger.Error().Err(err).Str("post_id", postID).Msg("Comment fetch failed")
			return textResult(fmt.Sprintf("Comment error: %v", err)), nil
		}

		return textResult(formatComments(postID, comments)), nil
	}
}

// handleGetJob implements the get_job tool
func handleGetJob(jobService *jobs.Service, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jobID, err := request.RequireString("job_id")
		if err != nil || jobID == "" {
			return textResult("Error: job_id parameter is required"), nil
		}

		job, err := jobService.Get(ctx, jobID)
		if err != nil {
			if jobs.IsNotFound(err) {
				return textResult(fmt.Sprintf("Job not found: %s", jobID)), nil
			}
			logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to load job")
			return textResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(formatJob(job)), nil
	}
}

// handleListJobs implements the list_jobs tool
func handleListJobs(jobService *jobs.Service, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		list, err := jobService.List(ctx, request.GetInt("limit", jobs.DefaultListLimit))
		if err != nil {
			logger.Error().Err(err).Msg("Failed to list jobs")
			return textResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(formatJobList(list)), nil
	}
}
