package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	md2blog "github.com/alnah/go-md2blog"
	"github.com/alnah/go-md2blog/internal/config"
	"github.com/alnah/go-md2blog/internal/fileutil"
	"github.com/alnah/go-md2blog/internal/linkdata"
	"github.com/alnah/go-md2blog/internal/logger"
	"github.com/alnah/go-md2blog/internal/upload"
	"github.com/alnah/go-md2blog/internal/vault"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage              = errors.New("invalid usage")
	ErrNoInput            = errors.New("no input specified")
	ErrWriteHTML          = errors.New("failed to write HTML file")
	ErrInvalidExtension   = errors.New("file must have .md or .markdown extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrNoBlog             = errors.New("no blog selected")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// usageError marks a flag parsing error as a usage error.
func usageError(err error) error {
	return fmt.Errorf("%w: %w", ErrUsage, err)
}

// loadConfig returns the injected config, or loads the file named by the
// flag or MD2BLOG_CONFIG, then fills gaps from the environment.
func loadConfig(f *commonFlags, env *Environment) (*config.Config, error) {
	if env.Config != nil {
		return env.Config, nil
	}

	envCfg := loadEnvConfig()
	warnUnknownEnvVars(env.Stderr)

	name := f.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		var err error
		if cfg, err = config.LoadConfig(name); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	applyEnvConfig(envCfg, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger creates the command logger: the config level, raised to error
// by --quiet or lowered to debug by --verbose.
func newLogger(w io.Writer, cfg *config.Config, f *commonFlags) *logger.Logger {
	level := logger.ParseLevel(cfg.Log.Level)
	switch {
	case f.quiet:
		level = log.ErrorLevel
	case f.verbose:
		level = log.DebugLevel
	}
	return logger.NewWithLevel(w, level)
}

// resolveTimeout returns the timeout from the flag, MD2BLOG_TIMEOUT, or
// zero for the converter default.
func resolveTimeout(flagValue string) (time.Duration, error) {
	if flagValue != "" {
		d, err := time.ParseDuration(flagValue)
		if err != nil || d <= 0 {
			return 0, fmt.Errorf("%w: invalid timeout %q", ErrUsage, flagValue)
		}
		return d, nil
	}
	return loadEnvConfig().Timeout, nil
}

// vaultRoot picks the vault directory: flag, config, then the current
// directory.
func vaultRoot(f *commonFlags, cfg *config.Config) string {
	switch {
	case f.vault != "":
		return f.vault
	case cfg.Vault.Root != "":
		return cfg.Vault.Root
	default:
		return "."
	}
}

// converterSetup is everything a command needs to build converters.
type converterSetup struct {
	opts   []md2blog.Option
	closer io.Closer
}

// Close releases the upload cache, if any.
func (s *converterSetup) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// buildConverterSetup maps the config and flags to converter options.
// Without uploads, images keep their local links.
func buildConverterSetup(cfg *config.Config, root string, style styleFlags, timeout time.Duration, uploads bool, lg *logger.Logger) (*converterSetup, error) {
	opts := []md2blog.Option{
		md2blog.WithVault(root),
		md2blog.WithLogger(lg.Logger),
		md2blog.WithCalloutDialect(cfg.Callouts.Dialect),
		md2blog.WithMarkers(md2blog.Markers{
			Start:        cfg.Markers.Start,
			End:          cfg.Markers.End,
			IncludeStart: cfg.Markers.IncludeStart,
			IncludeEnd:   cfg.Markers.IncludeEnd,
		}),
		md2blog.WithLinkFilters(linkFilters(cfg)),
		md2blog.WithD2(cfg.Diagrams.D2Path, cfg.Diagrams.Timeout),
	}
	if timeout > 0 {
		opts = append(opts, md2blog.WithTimeout(timeout))
	}
	if cfg.HTML.UseWrapClass && cfg.HTML.WrapClassName != "" {
		opts = append(opts, md2blog.WithWrapClass(cfg.HTML.WrapClassName))
	}
	if cfg.HTML.NoGFM || cfg.HTML.NoHardWraps {
		opts = append(opts, md2blog.WithMarkdown(!cfg.HTML.NoGFM, !cfg.HTML.NoHardWraps))
	}
	if cfg.Concurrency > 0 {
		opts = append(opts, md2blog.WithConcurrency(cfg.Concurrency))
	}
	if cfg.Links.MakeDataSet {
		opts = append(opts, md2blog.WithHiddenLinks())
	}
	if cfg.Diagrams.Mermaid {
		opts = append(opts, md2blog.WithMermaid(cfg.Diagrams.MermaidScript, cfg.Diagrams.MermaidTheme))
	}
	if s := styleFor(cfg, style); s != "" {
		opts = append(opts, md2blog.WithStyle(s))
	}
	if style.assetPath != "" {
		opts = append(opts, md2blog.WithAssetPath(style.assetPath))
	}

	setup := &converterSetup{opts: opts}
	if !uploads {
		return setup, nil
	}

	up, closer, err := newUploader(&cfg.Upload, lg)
	if err != nil {
		return nil, err
	}
	if up != nil {
		setup.opts = append(setup.opts, md2blog.WithUploader(up))
		if cfg.Upload.Backend == config.BackendImgur {
			setup.opts = append(setup.opts, md2blog.WithSVGRasterizing())
		}
	}
	setup.closer = closer
	return setup, nil
}

// styleFor picks the preview style: flag, CSS file, then style name.
func styleFor(cfg *config.Config, f styleFlags) string {
	switch {
	case f.style != "":
		return f.style
	case cfg.HTML.CSSFile != "":
		return cfg.HTML.CSSFile
	default:
		return cfg.HTML.Style
	}
}

// linkFilters converts the comma separated link settings.
func linkFilters(cfg *config.Config) md2blog.LinkFilters {
	return md2blog.LinkFilters{
		IncludePrefixes:       linkdata.ParseList(cfg.Links.IncludePrefixes),
		ExcludeExtensions:     linkdata.ParseList(cfg.Links.ExcludeExtensions),
		LabelPrefixes:         linkdata.ParseList(cfg.Links.LabelPrefixes),
		ExcludeTagsContaining: linkdata.ParseList(cfg.Links.ExcludeTagsContaining),
	}
}

// newUploader creates the configured image host, wrapped in the upload
// cache when enabled. Returns a nil uploader for the "none" backend.
func newUploader(cfg *config.UploadConfig, lg *logger.Logger) (md2blog.Uploader, io.Closer, error) {
	var up upload.Uploader
	switch cfg.Backend {
	case config.BackendImgur:
		up = upload.NewImgur(cfg.Imgur.ClientID)
	case config.BackendS3:
		s3, err := upload.NewS3(upload.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
			PublicURL: cfg.S3.PublicURL,
			Insecure:  cfg.S3.Insecure,
		})
		if err != nil {
			return nil, nil, err
		}
		up = s3
	default:
		return nil, nil, nil
	}

	if !cfg.Cache {
		return up, nil, nil
	}
	path := cfg.CachePath
	if path == "" {
		var err error
		if path, err = upload.DefaultCachePath(); err != nil {
			return nil, nil, fmt.Errorf("locating upload cache: %w", err)
		}
	}
	cache, err := upload.OpenCache(path, up, cfg.Backend, upload.WithCacheLogger(lg))
	if err != nil {
		return nil, nil, err
	}
	return cache, cache, nil
}

// resolveNote converts a command-line note argument, either a path on
// disk or a vault path, to a vault path.
func resolveNote(v *vault.Vault, arg string) (string, error) {
	if err := validateMarkdownExtension(arg); err != nil {
		return "", err
	}
	if _, err := os.Stat(arg); err == nil {
		return v.Rel(arg)
	}
	rel := filepath.ToSlash(arg)
	abs, err := v.Abs(rel)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("%w: %s", vault.ErrNotFound, arg)
	}
	return rel, nil
}

// validateMarkdownExtension checks that the file has a .md or .markdown extension.
func validateMarkdownExtension(path string) error {
	if !fileutil.IsMarkdown(path) {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(path))
	}
	return nil
}

// session holds what every vault command opens first.
type session struct {
	cfg   *config.Config
	log   *logger.Logger
	vault *vault.Vault
	setup *converterSetup
}

// openSession loads the config, opens the vault and maps settings to
// converter options.
func openSession(common *commonFlags, style styleFlags, timeoutFlag string, uploads bool, env *Environment) (*session, error) {
	cfg, err := loadConfig(common, env)
	if err != nil {
		return nil, err
	}
	timeout, err := resolveTimeout(timeoutFlag)
	if err != nil {
		return nil, err
	}

	lg := newLogger(env.Stderr, cfg, common)
	root := vaultRoot(common, cfg)
	v, err := vault.Open(root)
	if err != nil {
		return nil, err
	}

	setup, err := buildConverterSetup(cfg, v.Root(), style, timeout, uploads, lg)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, log: lg, vault: v, setup: setup}, nil
}

// Close releases the session resources.
func (s *session) Close() error {
	return s.setup.Close()
}
