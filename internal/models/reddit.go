package models

// PostSummary is the normalized view of a forum search hit
type PostSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Subreddit   string `json:"subreddit"`
	Score       int    `json:"score"`
	URL         string `json:"url"`
	NumComments int    `json:"numComments"`
	Excerpt     string `json:"excerpt"`
}

// CommentSummary keeps only what the agent needs from a comment
type CommentSummary struct {
	Body  string `json:"body"`
	Score int    `json:"score"`
}

// ComplaintExtraction is the per-post output of the analyze_complaint tool
type ComplaintExtraction struct {
	HasComplaint bool                 `json:"hasComplaint"`
	Complaints   []ExtractedComplaint `json:"complaints"`
	Metadata     PostReference        `json:"metadata"`
}

// ExtractedComplaint is a complaint spotted in a single post before structuring
type ExtractedComplaint struct {
	Issue    string `json:"issue"`
	Category string `json:"category"`
	Excerpt  string `json:"excerpt"`
}

// PostReference identifies the post an extraction was made from
type PostReference struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Subreddit string `json:"subreddit"`
	URL       string `json:"url"`
}
