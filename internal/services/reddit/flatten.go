package reddit

import (
	"bytes"
	"encoding/json"

	"github.com/ternarybob/rantradar/internal/models"
)

// FlattenComments walks a comment listing depth-first (a comment, then its
// replies) and keeps {body, score} of every comment with a non-empty body.
// "more" stubs, empty-string placeholders and malformed nodes contribute
// nothing. At most max comments are returned.
func FlattenComments(raw json.RawMessage, max int) []models.CommentSummary {
	out := make([]models.CommentSummary, 0, max)
	walkComments(raw, max, &out)
	return out
}

func walkComments(raw json.RawMessage, max int, out *[]models.CommentSummary) {
	if len(*out) >= max {
		return
	}

	// Replies are "" when a comment has none
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return
	}

	var l listing
	if err := json.Unmarshal(trimmed, &l); err != nil {
		return
	}

	for _, child := range l.Data.Children {
		if len(*out) >= max {
			return
		}
		if child.Kind != kindComment {
			continue
		}

		var data commentData
		if err := json.Unmarshal(child.Data, &data); err != nil {
			continue
		}

		if data.Body != "" {
			*out = append(*out, models.CommentSummary{Body: data.Body, Score: data.Score})
		}

		walkComments(data.Replies, max, out)
	}
}
