package reddit

import (
	"encoding/json"
)

// listing is the generic Reddit container: {"kind":"Listing","data":{"children":[...]}}
type listing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []thing `json:"children"`
		After    string  `json:"after"`
	} `json:"data"`
}

// thing is one child of a listing; Data is decoded according to Kind
type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// postData holds the t3 fields we read
type postData struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Subreddit   string `json:"subreddit"`
	Score       int    `json:"score"`
	Permalink   string `json:"permalink"`
	NumComments int    `json:"num_comments"`
	Selftext    string `json:"selftext"`
}

// commentData holds the t1 fields we read. Replies is either a listing object or
// an empty string when there are none.
type commentData struct {
	ID      string          `json:"id"`
	Body    string          `json:"body"`
	Score   int             `json:"score"`
	Replies json.RawMessage `json:"replies"`
}

const (
	kindComment = "t1"
	kindPost    = "t3"
)

// SearchParams describes a forum search
type SearchParams struct {
	Query      string
	Subreddit  string // Optional; empty searches all of Reddit
	Sort       string // relevance | top | new
	TimeFilter string // day | week | month | year | all
	Limit      int
}

var (
	validSorts       = map[string]bool{"relevance": true, "top": true, "new": true}
	validTimeFilters = map[string]bool{"day": true, "week": true, "month": true, "year": true, "all": true}
)
