package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/rantradar/internal/models"
)

func TestFormatPosts_Empty(t *testing.T) {
	out := formatPosts("sendgrid", nil)
	assert.Contains(t, out, `"sendgrid" (0 posts)`)
	assert.Contains(t, out, "No results found.")
}

func TestFormatPosts_ListsEachPost(t *testing.T) {
	out := formatPosts("sendgrid", []models.PostSummary{
		{ID: "abc", Title: "SendGrid pricing is brutal", Subreddit: "emailmarketing", Score: 42, URL: "https://www.reddit.com/r/emailmarketing/comments/abc/", NumComments: 7, Excerpt: "We got a 3x bill"},
	})
	assert.Contains(t, out, "### 1. SendGrid pricing is brutal")
	assert.Contains(t, out, "r/emailmarketing")
	assert.Contains(t, out, "We got a 3x bill")
}

func TestFormatComments_FlattensNewlines(t *testing.T) {
	out := formatComments("abc", []models.CommentSummary{{Body: "line one\nline two", Score: 3}})
	assert.Contains(t, out, "- [3] line one line two")
}

func TestFormatJob_CompletedWithSources(t *testing.T) {
	job := models.NewJob("job-1", "sendgrid", time.Now())
	job.Status = models.JobStatusCompleted
	job.Result = &models.AnalysisResult{
		Product:            "sendgrid",
		TotalPostsAnalyzed: 12,
		Summary:            "Pricing dominates.",
		Complaints: []models.Complaint{
			{
				Issue:    "Price hikes",
				Category: "pricing",
				Sources: []models.Source{
					{PostID: "abc", PostTitle: "Bill tripled", Subreddit: "saas", URL: "https://www.reddit.com/r/saas/comments/abc/", Excerpt: "tripled"},
				},
			},
		},
	}

	out := formatJob(job)
	assert.Contains(t, out, "**Status:** completed")
	assert.Contains(t, out, "### sendgrid (12 posts analyzed)")
	assert.Contains(t, out, "1. **Price hikes** (pricing)")
	assert.Contains(t, out, "[Bill tripled](https://www.reddit.com/r/saas/comments/abc/)")
}

func TestFormatJob_Failed(t *testing.T) {
	job := models.NewJob("job-2", "twilio", time.Now())
	job.Status = models.JobStatusFailed
	job.ErrorMessage = "Reddit API error: 503"

	out := formatJob(job)
	assert.Contains(t, out, "**Error:** Reddit API error: 503")
	assert.NotContains(t, out, "posts analyzed")
}

func TestFormatJobList(t *testing.T) {
	assert.Contains(t, formatJobList(nil), "No jobs yet.")

	out := formatJobList([]*models.Job{models.NewJob("job-1", "sendgrid", time.Now())})
	assert.Contains(t, out, "| job-1 | sendgrid | pending |")
}
