package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Imgur defaults.
const (
	DefaultImgurEndpoint = "https://api.imgur.com/3/image"
	defaultImgurAttempts = 3
	defaultImgurDelay    = time.Second
	defaultImgurTimeout  = 60 * time.Second
)

// Imgur uploads anonymous images with an application Client-ID.
type Imgur struct {
	clientID   string
	endpoint   string
	client     *http.Client
	attempts   int
	retryDelay time.Duration
}

// ImgurOption configures an Imgur uploader.
type ImgurOption func(*Imgur)

// WithImgurEndpoint overrides the upload URL.
func WithImgurEndpoint(url string) ImgurOption {
	return func(i *Imgur) { i.endpoint = url }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) ImgurOption {
	return func(i *Imgur) { i.client = c }
}

// WithRetryDelay sets the wait between rate-limited attempts.
func WithRetryDelay(d time.Duration) ImgurOption {
	return func(i *Imgur) { i.retryDelay = d }
}

// NewImgur creates an Imgur uploader.
func NewImgur(clientID string, opts ...ImgurOption) *Imgur {
	i := &Imgur{
		clientID:   clientID,
		endpoint:   DefaultImgurEndpoint,
		client:     &http.Client{Timeout: defaultImgurTimeout},
		attempts:   defaultImgurAttempts,
		retryDelay: defaultImgurDelay,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

type imgurResponse struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    struct {
		Link  string `json:"link"`
		Error any    `json:"error"`
	} `json:"data"`
}

// Upload implements Uploader. HTTP 429 responses are retried after a
// fixed delay; every other failure returns immediately.
func (i *Imgur) Upload(ctx context.Context, data []byte, name string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyPayload
	}

	var lastErr error
	for attempt := 1; attempt <= i.attempts; attempt++ {
		link, status, err := i.post(ctx, data, name)
		if err == nil {
			return link, nil
		}
		lastErr = err
		if status != http.StatusTooManyRequests || attempt == i.attempts {
			break
		}

		timer := time.NewTimer(i.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	return "", lastErr
}

func (i *Imgur) post(ctx context.Context, data []byte, name string) (string, int, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", name)
	if err != nil {
		return "", 0, err
	}
	if _, err := part.Write(data); err != nil {
		return "", 0, err
	}
	if err := w.Close(); err != nil {
		return "", 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.endpoint, &body)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Client-ID "+i.clientID)

	resp, err := i.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	raw, err := readLimited(resp.Body, maxResponseBytes)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("%w: reading response: %v", ErrUploadFailed, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", resp.StatusCode, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", resp.StatusCode, fmt.Errorf("%w: imgur status %d: %s", ErrUploadFailed, resp.StatusCode, snippet(raw))
	}

	var parsed imgurResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", resp.StatusCode, fmt.Errorf("%w: decoding response: %v", ErrUploadFailed, err)
	}
	if !parsed.Success || parsed.Data.Link == "" {
		return "", resp.StatusCode, fmt.Errorf("%w: imgur rejected %s: %v", ErrUploadFailed, name, parsed.Data.Error)
	}
	return parsed.Data.Link, resp.StatusCode, nil
}

// snippet shortens a response body for error messages.
func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
