package blogger

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

// apiCall records one request received by the fake API.
type apiCall struct {
	method string
	path   string
	query  string
	body   map[string]any
}

func newFakeAPI(t *testing.T, status int, response string) (*Client, *apiCall) {
	t.Helper()
	call := &apiCall{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call.method, call.path, call.query = r.Method, r.URL.Path, r.URL.RawQuery
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &call.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.Client(), WithBaseURL(srv.URL+"/")), call
}

// ---------------------------------------------------------------------------
// TestClient_Publish
// ---------------------------------------------------------------------------

func TestClient_Publish(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		req        PostRequest
		wantMethod string
		wantPath   string
		wantQuery  string
		wantKind   string
		wantLabels bool
	}{
		{
			name:       "new post",
			req:        PostRequest{Title: "T", Content: "<p>c</p>", Labels: []string{"go"}},
			wantMethod: http.MethodPost,
			wantPath:   "/blogs/42/posts",
			wantQuery:  "isDraft=false",
			wantKind:   "blogger#post",
			wantLabels: true,
		},
		{
			name:       "new draft post",
			req:        PostRequest{Type: TypePost, Title: "T", IsDraft: true},
			wantMethod: http.MethodPost,
			wantPath:   "/blogs/42/posts",
			wantQuery:  "isDraft=true",
			wantKind:   "blogger#post",
		},
		{
			name:       "update post",
			req:        PostRequest{ArticleID: "7", Title: "T", Labels: []string{"go"}},
			wantMethod: http.MethodPut,
			wantPath:   "/blogs/42/posts/7",
			wantQuery:  "publish=true",
			wantKind:   "blogger#post",
			wantLabels: true,
		},
		{
			name:       "update reverts to draft",
			req:        PostRequest{ArticleID: "7", Title: "T", IsDraft: true},
			wantMethod: http.MethodPut,
			wantPath:   "/blogs/42/posts/7",
			wantQuery:  "revert=true",
			wantKind:   "blogger#post",
		},
		{
			name:       "page ignores labels",
			req:        PostRequest{Type: TypePage, Title: "About", Labels: []string{"go"}},
			wantMethod: http.MethodPost,
			wantPath:   "/blogs/42/pages",
			wantQuery:  "isDraft=false",
			wantKind:   "blogger#page",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, call := newFakeAPI(t, http.StatusOK,
				`{"kind":"blogger#post","id":"7","url":"https://blog.test/p.html","title":"T","published":"2024-01-02T03:04:05Z","status":"LIVE"}`)

			post, err := c.Publish(context.Background(), "42", tt.req)
			if err != nil {
				t.Fatalf("Publish() unexpected error: %v", err)
			}
			if post.ID != "7" || post.URL != "https://blog.test/p.html" {
				t.Errorf("Publish() = %+v", post)
			}

			if call.method != tt.wantMethod || call.path != tt.wantPath || call.query != tt.wantQuery {
				t.Errorf("request = %s %s?%s, want %s %s?%s",
					call.method, call.path, call.query, tt.wantMethod, tt.wantPath, tt.wantQuery)
			}
			if call.body["kind"] != tt.wantKind {
				t.Errorf("kind = %v, want %s", call.body["kind"], tt.wantKind)
			}
			if blog, _ := call.body["blog"].(map[string]any); blog["id"] != "42" {
				t.Errorf("blog = %v, want id 42", call.body["blog"])
			}
			_, hasLabels := call.body["labels"]
			if hasLabels != tt.wantLabels {
				t.Errorf("labels present = %v, want %v", hasLabels, tt.wantLabels)
			}
		})
	}
}

func TestClient_PublishInvalid(t *testing.T) {
	t.Parallel()

	c := NewClient(nil)
	tests := []struct {
		name   string
		blogID string
		req    PostRequest
	}{
		{"missing blog", "", PostRequest{Title: "T"}},
		{"missing title", "1", PostRequest{Title: "  "}},
		{"unknown type", "1", PostRequest{Title: "T", Type: "story"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := c.Publish(context.Background(), tt.blogID, tt.req); !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("Publish() error = %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestClient_APIError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"google error payload", http.StatusForbidden, `{"error":{"code":403,"message":"We're sorry, but you don't have permission"}}`, "We're sorry, but you don't have permission"},
		{"plain body", http.StatusBadGateway, "upstream down", "upstream down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, _ := newFakeAPI(t, tt.status, tt.body)
			_, err := c.Publish(context.Background(), "42", PostRequest{Title: "T"})

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Publish() error = %v, want *APIError", err)
			}
			if apiErr.StatusCode != tt.status || apiErr.Message != tt.wantMsg {
				t.Errorf("APIError = %+v, want (%d, %q)", apiErr, tt.status, tt.wantMsg)
			}
		})
	}
}

func TestClient_BlogByURL(t *testing.T) {
	t.Parallel()

	c, call := newFakeAPI(t, http.StatusOK, `{"id":"42","name":"Notes","url":"https://notes.test/"}`)

	blog, err := c.BlogByURL(context.Background(), "https://notes.test/")
	if err != nil {
		t.Fatalf("BlogByURL() unexpected error: %v", err)
	}
	want := &Blog{ID: "42", Name: "Notes", URL: "https://notes.test/"}
	if !reflect.DeepEqual(blog, want) {
		t.Errorf("BlogByURL() = %+v, want %+v", blog, want)
	}
	if call.path != "/blogs/byurl" || call.query != "url=https%3A%2F%2Fnotes.test%2F" {
		t.Errorf("request = %s?%s", call.path, call.query)
	}
}

func TestClient_CanceledContext(t *testing.T) {
	t.Parallel()

	c, _ := newFakeAPI(t, http.StatusOK, `{}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Publish(ctx, "42", PostRequest{Title: "T"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Publish() error = %v, want context.Canceled", err)
	}
}
