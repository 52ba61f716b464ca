package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/rantradar/internal/models"
)

// formatPosts formats search hits as markdown
func formatPosts(query string, posts []models.PostSummary) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Reddit results for \"%s\" (%d posts)\n\n", query, len(posts)))

	if len(posts) == 0 {
		sb.WriteString("No results found.\n")
		return sb.String()
	}

	for i, post := range posts {
		sb.WriteString(fmt.Sprintf("### %d. %s\n", i+1, post.Title))
		sb.WriteString(fmt.Sprintf("**Post:** %s in r/%s | score %d | %d comments\n", post.ID, post.Subreddit, post.Score, post.NumComments))
		sb.WriteString(fmt.Sprintf("**URL:** %s\n\n", post.URL))
		if post.Excerpt != "" {
			sb.WriteString(post.Excerpt)
			sb.WriteString("\n\n")
		}
	}

	return sb.String()
}

// formatComments formats a flattened thread as markdown
func formatComments(postID string, comments []models.CommentSummary) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Comments on %s (%d)\n\n", postID, len(comments)))

	if len(comments) == 0 {
		sb.WriteString("No comments.\n")
		return sb.String()
	}

	for _, c := range comments {
		sb.WriteString(fmt.Sprintf("- [%d] %s\n", c.Score, strings.ReplaceAll(c.Body, "\n", " ")))
	}

	return sb.String()
}

// formatJob renders one job with its report
func formatJob(job *models.Job) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Job %s\n\n", job.ID))
	sb.WriteString(fmt.Sprintf("**Query:** %s\n", job.Query))
	sb.WriteString(fmt.Sprintf("**Status:** %s\n", job.Status))
	sb.WriteString(fmt.Sprintf("**Created:** %s\n", job.CreatedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("**Updated:** %s\n\n", job.UpdatedAt.Format(time.RFC3339)))

	if job.ErrorMessage != "" {
		sb.WriteString(fmt.Sprintf("**Error:** %s\n", job.ErrorMessage))
	}

	result := job.Result
	if result == nil {
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("### %s (%d posts analyzed)\n\n", result.Product, result.TotalPostsAnalyzed))
	if result.Summary != "" {
		sb.WriteString(result.Summary)
		sb.WriteString("\n\n")
	}

	for i, complaint := range result.Complaints {
		sb.WriteString(fmt.Sprintf("%d. **%s** (%s)\n", i+1, complaint.Issue, complaint.Category))
		for _, src := range complaint.Sources {
			sb.WriteString(fmt.Sprintf("   - r/%s: [%s](%s) \"%s\"\n", src.Subreddit, src.PostTitle, src.URL, src.Excerpt))
		}
	}

	return sb.String()
}

// formatJobList renders a compact job table
func formatJobList(list []*models.Job) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Recent jobs (%d)\n\n", len(list)))

	if len(list) == 0 {
		sb.WriteString("No jobs yet.\n")
		return sb.String()
	}

	sb.WriteString("| ID | Query | Status | Created |\n")
	sb.WriteString("|----|-------|--------|---------|\n")
	for _, job := range list {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", job.ID, job.Query, job.Status, job.CreatedAt.Format(time.RFC3339)))
	}

	return sb.String()
}
