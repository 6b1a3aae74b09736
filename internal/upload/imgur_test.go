package upload

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// TestImgur_Upload
// ---------------------------------------------------------------------------

func TestImgur_Upload(t *testing.T) {
	t.Parallel()

	var gotAuth, gotName, gotData string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		file, header, err := r.FormFile("image")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		gotName, gotData = header.Filename, string(data)
		_, _ = io.WriteString(w, `{"success":true,"status":200,"data":{"link":"https://i.imgur.test/abc.png"}}`)
	}))
	t.Cleanup(srv.Close)

	u := NewImgur("client-123", WithImgurEndpoint(srv.URL))
	url, err := u.Upload(context.Background(), []byte("PNGDATA"), "pic.png")
	if err != nil {
		t.Fatalf("Upload() unexpected error: %v", err)
	}

	if url != "https://i.imgur.test/abc.png" {
		t.Errorf("url = %q, want imgur link", url)
	}
	if gotAuth != "Client-ID client-123" {
		t.Errorf("Authorization = %q, want Client-ID header", gotAuth)
	}
	if gotName != "pic.png" || gotData != "PNGDATA" {
		t.Errorf("form file = (%q, %q), want (pic.png, PNGDATA)", gotName, gotData)
	}
}

func TestImgur_RetriesOnRateLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		failures  int32
		wantCalls int32
		wantErr   error
	}{
		{name: "succeeds on third attempt", failures: 2, wantCalls: 3},
		{name: "gives up after three attempts", failures: 5, wantCalls: 3, wantErr: ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) <= tt.failures {
					w.WriteHeader(http.StatusTooManyRequests)
					return
				}
				_, _ = io.WriteString(w, `{"success":true,"data":{"link":"https://i.imgur.test/x.png"}}`)
			}))
			t.Cleanup(srv.Close)

			u := NewImgur("id", WithImgurEndpoint(srv.URL), WithRetryDelay(time.Millisecond))
			_, err := u.Upload(context.Background(), []byte("x"), "x.png")

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Upload() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Errorf("Upload() unexpected error: %v", err)
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestImgur_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"server error", http.StatusInternalServerError, "boom", "status 500"},
		{"success false", http.StatusOK, `{"success":false,"data":{"error":"bad image"}}`, "bad image"},
		{"invalid json", http.StatusOK, `not json`, "decoding response"},
		{"missing link", http.StatusOK, `{"success":true,"data":{}}`, "imgur rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			t.Cleanup(srv.Close)

			_, err := NewImgur("id", WithImgurEndpoint(srv.URL)).Upload(context.Background(), []byte("x"), "x.png")
			if !errors.Is(err, ErrUploadFailed) {
				t.Fatalf("Upload() error = %v, want ErrUploadFailed", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Upload() error = %q, want it to mention %q", err, tt.wantMsg)
			}
			if calls.Load() != 1 {
				t.Errorf("calls = %d, want no retry", calls.Load())
			}
		})
	}
}

func TestImgur_EmptyPayload(t *testing.T) {
	t.Parallel()

	if _, err := NewImgur("id").Upload(context.Background(), nil, "x.png"); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("Upload() error = %v, want ErrEmptyPayload", err)
	}
}

func TestImgur_CanceledDuringRetry(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	u := NewImgur("id", WithImgurEndpoint(srv.URL), WithRetryDelay(time.Hour))
	if _, err := u.Upload(ctx, []byte("x"), "x.png"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Upload() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestReadLimited(t *testing.T) {
	t.Parallel()

	if _, err := readLimited(strings.NewReader("12345"), 4); err == nil {
		t.Error("readLimited() expected error over limit")
	}
	got, err := readLimited(strings.NewReader("1234"), 4)
	if err != nil || string(got) != "1234" {
		t.Errorf("readLimited() = (%q, %v), want (1234, nil)", got, err)
	}
}
