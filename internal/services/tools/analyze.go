package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ternarybob/rantradar/internal/models"
	"github.com/ternarybob/rantradar/internal/services/llm"
	"github.com/ternarybob/rantradar/internal/services/reddit"
)

const maxExtractExcerpt = 200

const extractionPrompt = `Analyze this Reddit content for complaints or criticism. Extract specific issues.

Content: %s

Look for: frustrations, complaints, negative comparisons, feature requests born from pain points.
Focus on identifying the core issue and categorizing it appropriately.`

// analyzeComplaint runs a small schema-constrained extraction over one post.
// Generation failures are logged and reported as hasComplaint=false.
func (r *Router) analyzeComplaint(ctx context.Context, args map[string]interface{}) (*models.ComplaintExtraction, error) {
	content, err := requireString(args, "content")
	if err != nil {
		return nil, err
	}

	meta := models.PostReference{
		ID:        firstString(args, "post_id", "postId", "id"),
		Title:     optionalString(args, "title"),
		Subreddit: optionalString(args, "subreddit"),
		URL:       optionalString(args, "url"),
	}
	if nested, ok := args["postMetadata"].(map[string]interface{}); ok && meta.ID == "" {
		meta = models.PostReference{
			ID:        optionalString(nested, "id"),
			Title:     optionalString(nested, "title"),
			Subreddit: optionalString(nested, "subreddit"),
			URL:       optionalString(nested, "url"),
		}
	}
	if meta.ID == "" {
		return nil, fmt.Errorf("%w: post_id is required", errInvalidArguments)
	}

	empty := &models.ComplaintExtraction{
		HasComplaint: false,
		Complaints:   []models.ExtractedComplaint{},
		Metadata:     meta,
	}

	if r.generator == nil {
		return empty, nil
	}

	resp, err := r.generator.GenerateContent(ctx, &llm.ContentRequest{
		Model: r.model,
		Messages: []llm.Message{
			{Role: "user", Content: fmt.Sprintf(extractionPrompt, content)},
		},
		OutputSchema: extractionSchema,
	})
	if err != nil {
		r.logger.Warn().
			Err(err).
			Str("post_id", meta.ID).
			Msg("Complaint extraction failed - reporting no complaint")
		return empty, nil
	}

	var parsed struct {
		HasComplaint bool                        `json:"hasComplaint"`
		Complaints   []models.ExtractedComplaint `json:"complaints"`
	}
	if err := json.Unmarshal([]byte(llm.ExtractJSON(resp.Text)), &parsed); err != nil {
		r.logger.Warn().
			Err(err).
			Str("post_id", meta.ID).
			Msg("Complaint extraction returned invalid JSON - reporting no complaint")
		return empty, nil
	}

	complaints := make([]models.ExtractedComplaint, 0, len(parsed.Complaints))
	for _, c := range parsed.Complaints {
		c.Excerpt = reddit.Truncate(c.Excerpt, maxExtractExcerpt)
		complaints = append(complaints, c)
	}

	r.logger.Debug().
		Str("post_id", meta.ID).
		Bool("has_complaint", parsed.HasComplaint).
		Int("complaints", len(complaints)).
		Msg("Complaint extraction complete")

	return &models.ComplaintExtraction{
		HasComplaint: parsed.HasComplaint,
		Complaints:   complaints,
		Metadata:     meta,
	}, nil
}
