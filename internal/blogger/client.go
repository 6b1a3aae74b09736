package blogger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// DefaultBaseURL is the Blogger v3 API root.
const DefaultBaseURL = "https://www.googleapis.com/blogger/v3"

const maxResponseBytes = 4 << 20

// ErrInvalidRequest reports a request rejected before it was sent.
var ErrInvalidRequest = errors.New("invalid publish request")

// Post types.
const (
	TypePost = "post"
	TypePage = "page"
)

// Post is a post or page as returned by the API.
type Post struct {
	Kind      string   `json:"kind,omitempty"`
	ID        string   `json:"id,omitempty"`
	URL       string   `json:"url,omitempty"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Labels    []string `json:"labels,omitempty"`
	Published string   `json:"published,omitempty"`
	Updated   string   `json:"updated,omitempty"`
	Status    string   `json:"status,omitempty"`
}

// Blog is the subset of blog metadata the tool uses.
type Blog struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// PostRequest describes one publish call. An empty ArticleID creates a
// new article; otherwise the existing one is updated.
type PostRequest struct {
	Type      string // TypePost (default) or TypePage
	ArticleID string
	Title     string
	Content   string
	Labels    []string // posts only
	IsDraft   bool
}

// APIError is a non-2xx API response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("blogger: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("blogger: HTTP %d: %s", e.StatusCode, e.Message)
}

// Client calls the Blogger API with an already authorized HTTP client.
// It does not retry.
type Client struct {
	http    *http.Client
	baseURL string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API root.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// NewClient creates a Client. hc is usually HTTPClient's result.
func NewClient(hc *http.Client, opts ...ClientOption) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	c := &Client{http: hc, baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Publish creates or updates a post or page on blogID. New articles are
// inserted with isDraft; updates of drafts revert to draft and updates of
// public articles publish.
func (c *Client) Publish(ctx context.Context, blogID string, req PostRequest) (*Post, error) {
	if blogID == "" {
		return nil, fmt.Errorf("%w: blog id is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidRequest)
	}

	kind, collection := "blogger#post", "posts"
	switch req.Type {
	case "", TypePost:
	case TypePage:
		kind, collection = "blogger#page", "pages"
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidRequest, req.Type)
	}

	body := map[string]any{
		"kind":    kind,
		"blog":    map[string]string{"id": blogID},
		"title":   req.Title,
		"content": req.Content,
	}
	if collection == "posts" && len(req.Labels) > 0 {
		body["labels"] = req.Labels
	}

	endpoint := c.baseURL + "/blogs/" + url.PathEscape(blogID) + "/" + collection
	q := url.Values{}
	method := http.MethodPost
	if req.ArticleID == "" {
		q.Set("isDraft", strconv.FormatBool(req.IsDraft))
	} else {
		method = http.MethodPut
		endpoint += "/" + url.PathEscape(req.ArticleID)
		body["id"] = req.ArticleID
		if req.IsDraft {
			q.Set("revert", "true")
		} else {
			q.Set("publish", "true")
		}
	}

	var post Post
	if err := c.do(ctx, method, endpoint+"?"+q.Encode(), body, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// BlogByURL resolves a blog from its public URL.
func (c *Client) BlogByURL(ctx context.Context, blogURL string) (*Blog, error) {
	var blog Blog
	endpoint := c.baseURL + "/blogs/byurl?" + url.Values{"url": {blogURL}}.Encode()
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &blog); err != nil {
		return nil, err
	}
	return &blog, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("blogger: encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("blogger: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("blogger: %s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("blogger: reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("blogger: decoding response: %w", err)
	}
	return nil
}

func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	msg := ""
	if json.Unmarshal(body, &payload) == nil {
		msg = payload.Error.Message
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
		if len(msg) > 200 {
			msg = msg[:200] + "..."
		}
	}
	return &APIError{StatusCode: status, Message: msg}
}
