// -----------------------------------------------------------------------
// AnalysisResult - Structured, source-attributed complaint report
// -----------------------------------------------------------------------

package models

import (
	"github.com/go-playground/validator/v10"
)

// AnalysisResult is the terminal success payload of a job.
// All fields are validated using go-playground/validator tags.
type AnalysisResult struct {
	Product            string      `json:"product" validate:"required"`
	TotalPostsAnalyzed int         `json:"totalPostsAnalyzed" validate:"gte=0"`
	Complaints         []Complaint `json:"complaints" validate:"required,dive"`
	Summary            string      `json:"summary"`
}

// Complaint is a single negative-sentiment item.
// Category is a free-text label assigned by the model.
type Complaint struct {
	Issue    string   `json:"issue" validate:"required"`
	Category string   `json:"category" validate:"required"`
	Sources  []Source `json:"sources" validate:"dive"`
}

// Source is the provenance record backing a complaint
type Source struct {
	PostID    string `json:"postId" validate:"required"`
	PostTitle string `json:"postTitle" validate:"required"`
	Subreddit string `json:"subreddit" validate:"required"`
	URL       string `json:"url" validate:"required"`
	Excerpt   string `json:"excerpt" validate:"required"`
}

var resultValidator = validator.New()

// Validate validates the result using struct tags
func (r *AnalysisResult) Validate() error {
	return resultValidator.Struct(r)
}
