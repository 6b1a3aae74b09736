// Package logger wraps charm/log for structured, leveled logging.
package logger

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Logger wraps charm/log with domain helpers for the conversion pipeline.
type Logger struct {
	*log.Logger
}

// New creates a logger writing to w at info level.
func New(w io.Writer) *Logger {
	return NewWithLevel(w, log.InfoLevel)
}

// NewWithLevel creates a logger with a specific level.
func NewWithLevel(w io.Writer, level log.Level) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
	})
	return &Logger{Logger: l}
}

// Discard returns a logger that discards all output.
func Discard() *Logger {
	return New(io.Discard)
}

// ParseLevel maps a config level name to a log level.
// Unknown names fall back to info.
func ParseLevel(name string) log.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *Logger) *Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// Unresolved logs a reference that fell back to its original text.
func (l *Logger) Unresolved(token, reason string) {
	l.Warn("reference left unresolved",
		"token", token,
		"reason", reason)
}

// UploadFailed logs a failed upload that degraded to a fallback value.
func (l *Logger) UploadFailed(name string, err error) {
	l.Warn("upload failed",
		"name", name,
		"error", err)
}

// Uploaded logs a successful upload.
func (l *Logger) Uploaded(name, url string) {
	l.Debug("uploaded",
		"name", name,
		"url", url)
}

// CacheWriteFailed logs an upload whose URL could not be cached.
func (l *Logger) CacheWriteFailed(name string, err error) {
	l.Debug("upload cache write failed",
		"name", name,
		"error", err)
}

// DiagramRendered logs a rendered diagram block.
func (l *Logger) DiagramRendered(lang, alt string, duration time.Duration) {
	l.Info("diagram rendered",
		"lang", lang,
		"alt", alt,
		"duration", duration.Round(time.Millisecond))
}

// DiagramFailed logs a diagram block replaced by an inline error.
func (l *Logger) DiagramFailed(lang, alt string, err error) {
	l.Error("diagram failed",
		"lang", lang,
		"alt", alt,
		"error", err)
}

// Published logs a post created or updated on the blog.
func (l *Logger) Published(path, url string, draft bool) {
	l.Info("published",
		"note", path,
		"url", url,
		"draft", draft)
}
