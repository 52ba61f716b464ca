// Package reddit provides a read-only client for Reddit's public JSON endpoints.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rantradar/internal/models"
)

const (
	// DefaultBaseURL is the base URL for the Reddit JSON API.
	DefaultBaseURL = "https://www.reddit.com"

	// PermalinkBaseURL prefixes post permalinks in normalized results.
	PermalinkBaseURL = "https://reddit.com"

	// DefaultUserAgent identifies the client; Reddit rejects generic agents.
	DefaultUserAgent = "RantRadar/1.0 (complaint research bot)"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultSearchLimit is the number of posts requested per search.
	DefaultSearchLimit = 36

	// MaxSearchLimit is Reddit's own page size cap.
	MaxSearchLimit = 100

	// MaxComments caps the flattened comment list handed to the agent.
	MaxComments = 20

	// MaxExcerptLength caps post self-text excerpts, in characters.
	MaxExcerptLength = 500

	commentFetchLimit = 100
	commentFetchDepth = 10
	maxErrorBody      = 512
)

// Client is a Reddit API client.
type Client struct {
	baseURL     string
	userAgent   string
	searchLimit int
	httpClient  *http.Client
	logger      arbor.ILogger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithUserAgent sets the descriptive User-Agent header.
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithSearchLimit sets the number of posts requested when a search does not specify one.
func WithSearchLimit(limit int) ClientOption {
	return func(c *Client) {
		if limit > 0 {
			c.searchLimit = limit
		}
	}
}

// NewClient creates a new Reddit API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		userAgent:   DefaultUserAgent,
		searchLimit: DefaultSearchLimit,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get performs a GET request and decodes the JSON body into result.
// Non-2xx responses become *models.UpstreamError.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL = reqURL + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	if c.logger != nil {
		c.logger.Debug().
			Str("url", reqURL).
			Msg("Reddit API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request to %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if c.logger != nil {
			c.logger.Warn().
				Int("status", resp.StatusCode).
				Str("endpoint", path).
				Msg("Reddit API error")
		}
		return &models.UpstreamError{
			StatusCode: resp.StatusCode,
			Endpoint:   path,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}

	return nil
}

// Search runs a keyword search, globally or scoped to one subreddit, and
// normalizes each hit into a PostSummary.
func (c *Client) Search(ctx context.Context, p SearchParams) ([]models.PostSummary, error) {
	query := strings.TrimSpace(p.Query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}

	sort := p.Sort
	if !validSorts[sort] {
		sort = "relevance"
	}
	timeFilter := p.TimeFilter
	if !validTimeFilters[timeFilter] {
		timeFilter = "month"
	}
	limit := p.Limit
	if limit <= 0 {
		limit = c.searchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("sort", sort)
	params.Set("t", timeFilter)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("raw_json", "1")

	path := "/search.json"
	if subreddit := normalizeSubreddit(p.Subreddit); subreddit != "" {
		path = "/r/" + url.PathEscape(subreddit) + "/search.json"
		params.Set("restrict_sr", "1")
	}

	var result listing
	if err := c.get(ctx, path, params, &result); err != nil {
		return nil, err
	}

	posts := make([]models.PostSummary, 0, len(result.Data.Children))
	for _, child := range result.Data.Children {
		if child.Kind != kindPost {
			continue
		}
		var data postData
		if err := json.Unmarshal(child.Data, &data); err != nil || data.ID == "" {
			continue
		}
		posts = append(posts, toPostSummary(data))
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("query", query).
			Str("subreddit", p.Subreddit).
			Int("posts", len(posts)).
			Msg("Reddit search completed")
	}

	return posts, nil
}

// FetchComments loads a thread and returns at most MaxComments comments in
// upstream order, with nested replies flattened depth-first. Without a
// subreddit the unscoped /comments/<id> path is used.
func (c *Client) FetchComments(ctx context.Context, postID, subreddit string) ([]models.CommentSummary, error) {
	postID = strings.TrimSpace(postID)
	subreddit = normalizeSubreddit(subreddit)
	if postID == "" {
		return nil, fmt.Errorf("post id is required")
	}
	postID = strings.TrimPrefix(postID, "t3_")

	params := url.Values{}
	params.Set("limit", strconv.Itoa(commentFetchLimit))
	params.Set("depth", strconv.Itoa(commentFetchDepth))
	params.Set("raw_json", "1")

	path := fmt.Sprintf("/comments/%s.json", url.PathEscape(postID))
	if subreddit != "" {
		path = fmt.Sprintf("/r/%s/comments/%s.json", url.PathEscape(subreddit), url.PathEscape(postID))
	}

	// Response is [postListing, commentListing]
	var parts []json.RawMessage
	if err := c.get(ctx, path, params, &parts); err != nil {
		return nil, err
	}
	if len(parts) < 2 {
		return []models.CommentSummary{}, nil
	}

	comments := FlattenComments(parts[1], MaxComments)

	if c.logger != nil {
		c.logger.Debug().
			Str("post_id", postID).
			Str("subreddit", subreddit).
			Int("comments", len(comments)).
			Msg("Reddit comments fetched")
	}

	return comments, nil
}

func toPostSummary(data postData) models.PostSummary {
	return models.PostSummary{
		ID:          data.ID,
		Title:       html.UnescapeString(data.Title),
		Subreddit:   data.Subreddit,
		Score:       data.Score,
		URL:         PermalinkBaseURL + data.Permalink,
		NumComments: data.NumComments,
		Excerpt:     Truncate(html.UnescapeString(data.Selftext), MaxExcerptLength),
	}
}

// Truncate shortens s to at most max characters without splitting a rune
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

func normalizeSubreddit(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "/")
	s = strings.TrimPrefix(s, "r/")
	return strings.Trim(s, "/")
}
