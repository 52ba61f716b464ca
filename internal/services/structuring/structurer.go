package structuring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rantradar/internal/common"
	"github.com/ternarybob/rantradar/internal/models"
	"github.com/ternarybob/rantradar/internal/services/llm"
)

const promptTemplate = `Transform the Reddit complaints about %[1]s into structured JSON feedback.

Reddit Findings:
%[2]s

Create a JSON object with EXACTLY this structure:

{
  "product": "%[1]s",
  "totalPostsAnalyzed": <number of distinct posts the findings draw on>,
  "complaints": [
    {
      "issue": "<specific problem>",
      "category": "<descriptive category name>",
      "sources": [
        {
          "postId": "<reddit post id>",
          "postTitle": "<post title>",
          "subreddit": "<subreddit name>",
          "url": "<full reddit url>",
          "excerpt": "<relevant quote>"
        }
      ]
    }
  ],
  "summary": "<executive summary of main pain points>"
}

Include between %[3]d and %[4]d complaints. Focus on the most severe issues with proper source attribution. Every source field must be filled in.`

// Structurer turns free-text findings into a validated AnalysisResult
type Structurer struct {
	generator     llm.Generator
	model         string
	minComplaints int
	maxComplaints int
	logger        arbor.ILogger
}

// NewStructurer creates a structurer from the [structuring] config
func NewStructurer(generator llm.Generator, config common.StructuringConfig, logger arbor.ILogger) *Structurer {
	minComplaints, maxComplaints := config.MinComplaints, config.MaxComplaints
	if minComplaints <= 0 {
		minComplaints = 3
	}
	if maxComplaints < minComplaints {
		maxComplaints = max(7, minComplaints)
	}
	return &Structurer{
		generator:     generator,
		model:         config.Model,
		minComplaints: minComplaints,
		maxComplaints: maxComplaints,
		logger:        logger,
	}
}

// Structure performs one schema-constrained generation. Every failure is a
// *models.StructuringError; no partial result is returned.
func (s *Structurer) Structure(ctx context.Context, findings, product string) (*models.AnalysisResult, error) {
	startTime := time.Now()

	resp, err := s.generator.GenerateContent(ctx, &llm.ContentRequest{
		Model: s.model,
		Messages: []llm.Message{
			{Role: "user", Content: fmt.Sprintf(promptTemplate, product, findings, s.minComplaints, s.maxComplaints)},
		},
		OutputSchema: resultSchema(s.minComplaints, s.maxComplaints),
	})
	if err != nil {
		return nil, &models.StructuringError{Reason: "generation failed", Err: err}
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(llm.ExtractJSON(resp.Text)), &result); err != nil {
		return nil, &models.StructuringError{Reason: "output is not valid JSON", Err: err}
	}

	result.Product = product
	result.Summary = strings.TrimSpace(result.Summary)
	for i := range result.Complaints {
		if result.Complaints[i].Sources == nil {
			result.Complaints[i].Sources = []models.Source{}
		}
	}

	if err := result.Validate(); err != nil {
		return nil, &models.StructuringError{Reason: "output does not match schema", Err: err}
	}

	if n := len(result.Complaints); n < s.minComplaints || n > s.maxComplaints {
		return nil, &models.StructuringError{
			Reason: fmt.Sprintf("expected %d-%d complaints, got %d", s.minComplaints, s.maxComplaints, n),
		}
	}

	s.logger.Info().
		Str("product", product).
		Int("complaints", len(result.Complaints)).
		Int("total_posts_analyzed", result.TotalPostsAnalyzed).
		Str("duration", time.Since(startTime).String()).
		Msg("Findings structured")

	return &result, nil
}
