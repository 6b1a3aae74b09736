package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/alnah/go-md2blog/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	// Tier 1 - Essential
	ConfigPath string        // MD2BLOG_CONFIG: config file path
	VaultRoot  string        // MD2BLOG_VAULT: vault directory
	Style      string        // MD2BLOG_STYLE: CSS style name or path
	Timeout    time.Duration // MD2BLOG_TIMEOUT: per-note conversion timeout

	// Tier 2 - Hosts and credentials
	OutputDir      string // MD2BLOG_OUTPUT_DIR: preview output directory
	UploadBackend  string // MD2BLOG_UPLOAD_BACKEND: imgur, s3 or none
	ImgurClientID  string // MD2BLOG_IMGUR_CLIENT_ID: Imgur application id
	S3AccessKey    string // MD2BLOG_S3_ACCESS_KEY: S3 access key
	S3SecretKey    string // MD2BLOG_S3_SECRET_KEY: S3 secret key
	Credentials    string // MD2BLOG_BLOGGER_CREDENTIALS: OAuth client JSON
	DefaultBlog    string // MD2BLOG_DEFAULT_BLOG: blog alias
	BloggerTokenFn string // MD2BLOG_BLOGGER_TOKEN: OAuth token file

	// Tier 3 - Extended
	LogLevel string // MD2BLOG_LOG_LEVEL: debug, info, warn, error
	D2Path   string // MD2BLOG_D2_PATH: d2 executable
	Workers  int    // MD2BLOG_WORKERS: parallel workers
}

// knownEnvVars lists valid MD2BLOG_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	// Tier 1 - Essential
	"MD2BLOG_CONFIG":  true,
	"MD2BLOG_VAULT":   true,
	"MD2BLOG_STYLE":   true,
	"MD2BLOG_TIMEOUT": true,
	// Tier 2 - Hosts and credentials
	"MD2BLOG_OUTPUT_DIR":          true,
	"MD2BLOG_UPLOAD_BACKEND":      true,
	"MD2BLOG_IMGUR_CLIENT_ID":     true,
	"MD2BLOG_S3_ACCESS_KEY":       true,
	"MD2BLOG_S3_SECRET_KEY":       true,
	"MD2BLOG_BLOGGER_CREDENTIALS": true,
	"MD2BLOG_BLOGGER_TOKEN":       true,
	"MD2BLOG_DEFAULT_BLOG":        true,
	// Tier 3 - Extended
	"MD2BLOG_LOG_LEVEL": true,
	"MD2BLOG_D2_PATH":   true,
	"MD2BLOG_WORKERS":   true,
	"MD2BLOG_CONTAINER": true,
}

// loadDotEnv loads ./.env into the process environment. Variables already
// set win. A missing file is not an error.
func loadDotEnv(w io.Writer) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(w, "warning: reading .env: %v\n", err)
	}
}

// loadEnvConfig reads configuration from environment variables.
// Returns a struct with all recognized MD2BLOG_* values.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		// Tier 1
		ConfigPath: os.Getenv("MD2BLOG_CONFIG"),
		VaultRoot:  os.Getenv("MD2BLOG_VAULT"),
		Style:      os.Getenv("MD2BLOG_STYLE"),
		// Tier 2
		OutputDir:      os.Getenv("MD2BLOG_OUTPUT_DIR"),
		UploadBackend:  os.Getenv("MD2BLOG_UPLOAD_BACKEND"),
		ImgurClientID:  os.Getenv("MD2BLOG_IMGUR_CLIENT_ID"),
		S3AccessKey:    os.Getenv("MD2BLOG_S3_ACCESS_KEY"),
		S3SecretKey:    os.Getenv("MD2BLOG_S3_SECRET_KEY"),
		Credentials:    os.Getenv("MD2BLOG_BLOGGER_CREDENTIALS"),
		DefaultBlog:    os.Getenv("MD2BLOG_DEFAULT_BLOG"),
		BloggerTokenFn: os.Getenv("MD2BLOG_BLOGGER_TOKEN"),
		// Tier 3
		LogLevel: os.Getenv("MD2BLOG_LOG_LEVEL"),
		D2Path:   os.Getenv("MD2BLOG_D2_PATH"),
	}

	// Parse duration for timeout
	if timeout := os.Getenv("MD2BLOG_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	// Parse int for workers
	if workers := os.Getenv("MD2BLOG_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized MD2BLOG_* variables.
// Helps catch typos like MD2BLOG_VALUT instead of MD2BLOG_VAULT.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "MD2BLOG_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Only sets values if the env var is set AND the config value is empty or
// still at its default. This ensures: CLI flags > config file > env vars > defaults
// (CLI flags are applied later by each command)
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	def := config.DefaultConfig()

	// Tier 1
	fill(&cfg.Vault.Root, env.VaultRoot, "")
	fill(&cfg.HTML.Style, env.Style, "")

	// Tier 2
	fill(&cfg.Output.DefaultDir, env.OutputDir, "")
	fill(&cfg.Upload.Backend, env.UploadBackend, def.Upload.Backend)
	fill(&cfg.Upload.Imgur.ClientID, env.ImgurClientID, "")
	fill(&cfg.Upload.S3.AccessKey, env.S3AccessKey, "")
	fill(&cfg.Upload.S3.SecretKey, env.S3SecretKey, "")
	fill(&cfg.Blogger.CredentialsFile, env.Credentials, "")
	fill(&cfg.Blogger.TokenFile, env.BloggerTokenFn, "")
	fill(&cfg.Blogger.DefaultBlog, env.DefaultBlog, "")

	// Tier 3
	fill(&cfg.Log.Level, env.LogLevel, def.Log.Level)
	fill(&cfg.Diagrams.D2Path, env.D2Path, "")
}

// fill sets *dst to value when value is set and *dst is empty or equal to
// its default.
func fill(dst *string, value, def string) {
	if value != "" && (*dst == "" || *dst == def) {
		*dst = value
	}
}
