// Package config loads and validates md2blog settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/alnah/go-md2blog/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidConfig   = errors.New("invalid config")
)

// AppName names the XDG config directory.
const AppName = "md2blog"

// Field length limits.
const (
	MaxPathLength      = 4096
	MaxURLLength       = 2048 // Browser limit
	MaxMarkerLength    = 200
	MaxClassNameLength = 100
	MaxAliasLength     = 100
	MaxClientIDLength  = 100
	MaxListLength      = 1000 // comma-separated filter lists
	MaxDateFmtLength   = 50
)

// Upload backends.
const (
	BackendNone  = "none"
	BackendImgur = "imgur"
	BackendS3    = "s3"
)

// Callout dialects.
const (
	DialectBlock    = "block"
	DialectLineScan = "linescan"
)

// Config holds all md2blog settings.
type Config struct {
	Vault       VaultConfig    `yaml:"vault"`
	Output      OutputConfig   `yaml:"output"`
	Markers     MarkersConfig  `yaml:"markers"`
	HTML        HTMLConfig     `yaml:"html"`
	Callouts    CalloutsConfig `yaml:"callouts"`
	Upload      UploadConfig   `yaml:"upload"`
	Diagrams    DiagramsConfig `yaml:"diagrams"`
	Links       LinksConfig    `yaml:"links"`
	Blogger     BloggerConfig  `yaml:"blogger"`
	Date        DateConfig     `yaml:"date"`
	Log         LogConfig      `yaml:"log"`
	Concurrency int            `yaml:"concurrency"` // parallel uploads per note (0 = default)
}

// VaultConfig locates the note vault.
type VaultConfig struct {
	Root string `yaml:"root"` // Empty = current directory
}

// OutputConfig defines preview export options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Empty = next to the note
}

// MarkersConfig clips the published part of a note.
type MarkersConfig struct {
	Start        string `yaml:"start"`
	End          string `yaml:"end"`
	IncludeStart bool   `yaml:"includeStart"`
	IncludeEnd   bool   `yaml:"includeEnd"`
}

// HTMLConfig defines HTML output options.
type HTMLConfig struct {
	UseWrapClass    bool   `yaml:"useWrapClass"`
	WrapClassName   string `yaml:"wrapClassName"`
	Style           string `yaml:"style"`   // Embedded style name (empty = default)
	CSSFile         string `yaml:"cssFile"` // User CSS file, overrides Style
	IncludeCSSInPub bool   `yaml:"includeCssInPublish"`
	NoGFM           bool   `yaml:"noGfm"`       // Plain CommonMark
	NoHardWraps     bool   `yaml:"noHardWraps"` // Single newlines are spaces
}

// CalloutsConfig selects the callout renderer.
type CalloutsConfig struct {
	Dialect string `yaml:"dialect"` // "block" (default) or "linescan"
}

// UploadConfig selects and configures the image host.
type UploadConfig struct {
	Backend   string      `yaml:"backend"` // "imgur", "s3" or "none"
	Imgur     ImgurConfig `yaml:"imgur"`
	S3        S3Config    `yaml:"s3"`
	Cache     bool        `yaml:"cache"`
	CachePath string      `yaml:"cachePath"` // Empty = XDG cache dir
}

// ImgurConfig holds the Imgur application id.
type ImgurConfig struct {
	ClientID string `yaml:"clientId"`
}

// S3Config describes an S3-compatible bucket.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Prefix    string `yaml:"prefix"`
	PublicURL string `yaml:"publicUrl"`
	Insecure  bool   `yaml:"insecure"`
}

// DiagramsConfig configures diagram renderers.
type DiagramsConfig struct {
	D2Path        string        `yaml:"d2Path"` // Empty = "d2" from $PATH
	Timeout       time.Duration `yaml:"timeout"`
	Mermaid       bool          `yaml:"mermaid"`
	MermaidScript string        `yaml:"mermaidScript"`
	MermaidTheme  string        `yaml:"mermaidTheme"`
}

// LinksConfig drives the link data set and publish labels.
type LinksConfig struct {
	MakeDataSet           bool   `yaml:"makeDataSet"`
	IncludePrefixes       string `yaml:"includePrefixes"`
	ExcludeExtensions     string `yaml:"excludeExtensions"`
	LabelPrefixes         string `yaml:"labelPrefixes"`
	ExcludeTagsContaining string `yaml:"excludeTagsContaining"`
	UseOutlinksForLabels  bool   `yaml:"useOutlinksForLabels"`
}

// BloggerConfig holds publishing settings.
type BloggerConfig struct {
	CredentialsFile         string `yaml:"credentialsFile"`
	TokenFile               string `yaml:"tokenFile"` // Empty = derived from CredentialsFile
	Blogs                   []Blog `yaml:"blogs"`
	DefaultBlog             string `yaml:"defaultBlog"` // Alias
	OpenBrowserAfterPublish bool   `yaml:"openBrowserAfterPublish"`
}

// Blog is a named Blogger blog.
type Blog struct {
	ID    string `yaml:"id"`
	URL   string `yaml:"url"`
	Alias string `yaml:"alias"`
}

// DateConfig formats publish dates written to frontmatter.
type DateConfig struct {
	Format   string `yaml:"format"`   // dateutil tokens, e.g. "YYYY-MM-DD HH:mm"
	Language string `yaml:"language"` // "en" or "ko"
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Validate checks lengths, enums and URLs.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	lengths := []struct {
		field string
		value string
		max   int
	}{
		{"vault.root", c.Vault.Root, MaxPathLength},
		{"output.defaultDir", c.Output.DefaultDir, MaxPathLength},
		{"markers.start", c.Markers.Start, MaxMarkerLength},
		{"markers.end", c.Markers.End, MaxMarkerLength},
		{"html.wrapClassName", c.HTML.WrapClassName, MaxClassNameLength},
		{"html.cssFile", c.HTML.CSSFile, MaxPathLength},
		{"upload.imgur.clientId", c.Upload.Imgur.ClientID, MaxClientIDLength},
		{"upload.cachePath", c.Upload.CachePath, MaxPathLength},
		{"diagrams.d2Path", c.Diagrams.D2Path, MaxPathLength},
		{"links.includePrefixes", c.Links.IncludePrefixes, MaxListLength},
		{"links.excludeExtensions", c.Links.ExcludeExtensions, MaxListLength},
		{"links.labelPrefixes", c.Links.LabelPrefixes, MaxListLength},
		{"links.excludeTagsContaining", c.Links.ExcludeTagsContaining, MaxListLength},
		{"blogger.credentialsFile", c.Blogger.CredentialsFile, MaxPathLength},
		{"blogger.tokenFile", c.Blogger.TokenFile, MaxPathLength},
		{"date.format", c.Date.Format, MaxDateFmtLength},
	}
	for _, l := range lengths {
		if err := validateFieldLength(l.field, l.value, l.max); err != nil {
			return err
		}
	}

	if err := validation.ValidateStruct(&c.Callouts,
		validation.Field(&c.Callouts.Dialect, validation.In(DialectBlock, DialectLineScan)),
	); err != nil {
		return invalid("callouts", err)
	}
	if err := validation.ValidateStruct(&c.Date,
		validation.Field(&c.Date.Language, validation.In("en", "ko")),
	); err != nil {
		return invalid("date", err)
	}
	if err := validation.ValidateStruct(&c.Log,
		validation.Field(&c.Log.Level, validation.In("debug", "info", "warn", "warning", "error")),
	); err != nil {
		return invalid("log", err)
	}
	if err := validation.Validate(c.Concurrency, validation.Min(0), validation.Max(64)); err != nil {
		return invalid("concurrency", err)
	}
	if c.Diagrams.Timeout < 0 {
		return fmt.Errorf("%w: diagrams.timeout: must not be negative, got %s", ErrInvalidConfig, c.Diagrams.Timeout)
	}
	if err := validation.Validate(c.Diagrams.MermaidScript, is.URL); err != nil {
		return invalid("diagrams.mermaidScript", err)
	}
	if err := c.Upload.validate(); err != nil {
		return err
	}
	return c.Blogger.validate()
}

func (u *UploadConfig) validate() error {
	if err := validation.ValidateStruct(u,
		validation.Field(&u.Backend, validation.In(BackendNone, BackendImgur, BackendS3)),
	); err != nil {
		return invalid("upload", err)
	}
	switch u.Backend {
	case BackendImgur:
		if err := validation.Validate(u.Imgur.ClientID, validation.Required); err != nil {
			return invalid("upload.imgur.clientId", err)
		}
	case BackendS3:
		if err := validation.ValidateStruct(&u.S3,
			validation.Field(&u.S3.Endpoint, validation.Required, validation.Length(1, MaxURLLength)),
			validation.Field(&u.S3.Bucket, validation.Required, validation.Length(3, 63)),
			validation.Field(&u.S3.PublicURL, is.URL),
		); err != nil {
			return invalid("upload.s3", err)
		}
	}
	return nil
}

func (b *BloggerConfig) validate() error {
	aliases := make(map[string]bool, len(b.Blogs))
	for i := range b.Blogs {
		blog := &b.Blogs[i]
		if err := validation.ValidateStruct(blog,
			validation.Field(&blog.ID, validation.Required, is.Digit),
			validation.Field(&blog.URL, is.URL, validation.Length(0, MaxURLLength)),
			validation.Field(&blog.Alias, validation.Length(0, MaxAliasLength)),
		); err != nil {
			return invalid(fmt.Sprintf("blogger.blogs[%d]", i), err)
		}
		if blog.Alias != "" {
			if aliases[blog.Alias] {
				return fmt.Errorf("%w: blogger.blogs[%d]: duplicate alias %q", ErrInvalidConfig, i, blog.Alias)
			}
			aliases[blog.Alias] = true
		}
	}
	if b.DefaultBlog != "" && !aliases[b.DefaultBlog] {
		return fmt.Errorf("%w: blogger.defaultBlog: no blog with alias %q", ErrInvalidConfig, b.DefaultBlog)
	}
	return nil
}

// FindBlog returns the blog matching an alias or id. An empty key selects
// DefaultBlog, or the only configured blog.
func (b *BloggerConfig) FindBlog(key string) (Blog, bool) {
	if key == "" {
		key = b.DefaultBlog
	}
	if key == "" && len(b.Blogs) == 1 {
		return b.Blogs[0], true
	}
	for _, blog := range b.Blogs {
		if key != "" && (blog.Alias == key || blog.ID == key) {
			return blog, true
		}
	}
	return Blog{}, false
}

func invalid(field string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, field, err)
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		HTML:     HTMLConfig{WrapClassName: "obsidian-html"},
		Callouts: CalloutsConfig{Dialect: DialectBlock},
		Upload:   UploadConfig{Backend: BackendNone},
		Diagrams: DiagramsConfig{Timeout: 30 * time.Second},
		Links: LinksConfig{
			ExcludeExtensions: ".png, .jpg, .jpeg, .gif, .svg, .pdf",
			LabelPrefixes:     "Label",
		},
		Date: DateConfig{Format: "YYYY-MM-DD HH:mm", Language: "en"},
		Log:  LogConfig{Level: "info"},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields absent from the file keep their DefaultConfig values.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil && !errors.Is(err, yamlutil.ErrNilData) {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, $XDG_CONFIG_HOME/md2blog/,
// then the XDG config dirs.
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	dirs := append([]string{xdg.ConfigHome}, xdg.ConfigDirs...)
	triedPaths := make([]string, 0, len(extensions)*(len(dirs)+1))

	// Try current directory first (both extensions)
	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	for _, dir := range dirs {
		for _, ext := range extensions {
			userPath := filepath.Join(dir, AppName, name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
