// Package blogger authorizes against Google with OAuth 2.0 and publishes
// posts and pages through the Blogger v3 REST API.
package blogger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// OAuth scopes requested during authorization.
const (
	ScopeBlogger   = "https://www.googleapis.com/auth/blogger"
	ScopeDriveFile = "https://www.googleapis.com/auth/drive.file"
)

// Sentinel errors.
var (
	ErrCredentials   = errors.New("invalid OAuth client credentials")
	ErrNoToken       = errors.New("no stored OAuth token")
	ErrAuthorization = errors.New("authorization failed")
	ErrTokenStore    = errors.New("token store error")
)

// LoadOAuthConfig reads a Google "installed application" client secret
// file downloaded from the Cloud console.
func LoadOAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentials, err)
	}
	cfg, err := google.ConfigFromJSON(data, ScopeBlogger, ScopeDriveFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentials, err)
	}
	return cfg, nil
}

// DefaultTokenPath derives the token file from the credentials file:
// "client.json" -> "client_token.json".
func DefaultTokenPath(credentialsFile string) string {
	if strings.HasSuffix(credentialsFile, ".json") {
		return strings.TrimSuffix(credentialsFile, ".json") + "_token.json"
	}
	return credentialsFile + "_token.json"
}

// TokenStore persists an OAuth token as a JSON file readable only by
// its owner.
type TokenStore struct {
	path string
}

// NewTokenStore creates a store at path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Path returns the token file location.
func (s *TokenStore) Path() string { return s.path }

// Load reads the stored token. A missing file returns ErrNoToken.
func (s *TokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenStore, err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrTokenStore, s.path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, ErrNoToken
	}
	return &tok, nil
}

// Save writes tok atomically with 0600 permissions.
func (s *TokenStore) Save(tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTokenStore, err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: %v", ErrTokenStore, err)
	}
	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTokenStore, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %v", ErrTokenStore, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %v", ErrTokenStore, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrTokenStore, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("%w: %v", ErrTokenStore, err)
	}
	return nil
}

// Authorize runs the installed-app loopback flow: it listens on a random
// local port, hands the consent URL to openURL, waits for Google to
// redirect back with a code and exchanges it for a token.
func Authorize(ctx context.Context, cfg *oauth2.Config, openURL func(string) error) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("%w: listening for redirect: %v", ErrAuthorization, err)
	}

	flow := *cfg
	flow.RedirectURL = "http://" + ln.Addr().String()
	state := uuid.NewString()

	type result struct {
		code string
		err  error
	}
	done := make(chan result, 1)
	var once sync.Once
	finish := func(r result) { once.Do(func() { done <- r }) }

	srv := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			switch {
			case q.Get("state") != state:
				http.Error(w, "state mismatch", http.StatusBadRequest)
				return
			case q.Get("error") != "":
				finish(result{err: fmt.Errorf("%w: %s", ErrAuthorization, q.Get("error"))})
				http.Error(w, "Authorization denied.", http.StatusForbidden)
				return
			case q.Get("code") == "":
				http.Error(w, "missing code", http.StatusBadRequest)
				return
			}
			finish(result{code: q.Get("code")})
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("Authentication successful! You can close this window now."))
		}),
	}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := flow.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	if err := openURL(authURL); err != nil {
		return nil, fmt.Errorf("%w: opening consent page: %v", ErrAuthorization, err)
	}

	var res result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		return nil, res.err
	}

	tok, err := flow.Exchange(ctx, res.code)
	if err != nil {
		return nil, fmt.Errorf("%w: exchanging code: %v", ErrAuthorization, err)
	}
	return tok, nil
}

// persistingSource saves every refreshed token back to the store.
type persistingSource struct {
	mu    sync.Mutex
	base  oauth2.TokenSource
	store *TokenStore
	last  string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: refreshing token: %v", ErrAuthorization, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		if err := p.store.Save(tok); err != nil {
			return nil, err
		}
		p.last = tok.AccessToken
	}
	return tok, nil
}

// TokenSource returns a source that starts from the stored token, refreshes
// it when expired and writes refreshed tokens back to store.
func TokenSource(ctx context.Context, cfg *oauth2.Config, store *TokenStore) (oauth2.TokenSource, error) {
	tok, err := store.Load()
	if err != nil {
		return nil, err
	}
	base := oauth2.ReuseTokenSource(tok, cfg.TokenSource(ctx, tok))
	return &persistingSource{base: base, store: store, last: tok.AccessToken}, nil
}

// HTTPClient returns an HTTP client authorizing requests with ts.
func HTTPClient(ctx context.Context, ts oauth2.TokenSource) *http.Client {
	return oauth2.NewClient(ctx, ts)
}
