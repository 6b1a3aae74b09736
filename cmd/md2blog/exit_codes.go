package main

import (
	"errors"
	"net"
	"os"

	md2blog "github.com/alnah/go-md2blog"
	"github.com/alnah/go-md2blog/internal/blogger"
	"github.com/alnah/go-md2blog/internal/config"
	"github.com/alnah/go-md2blog/internal/diagram"
	"github.com/alnah/go-md2blog/internal/upload"
	"github.com/alnah/go-md2blog/internal/vault"
)

// Exit codes for md2blog CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful run
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
	ExitAuth    = 5 // OAuth, Blogger API or image host errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, md2blog.ErrBrowserConnect) ||
		errors.Is(err, diagram.ErrPageCreate) ||
		errors.Is(err, diagram.ErrRasterize) {
		return ExitBrowser
	}

	// Auth and network errors (exit 5)
	var apiErr *blogger.APIError
	var netErr net.Error
	if errors.As(err, &apiErr) ||
		errors.Is(err, blogger.ErrCredentials) ||
		errors.Is(err, blogger.ErrNoToken) ||
		errors.Is(err, blogger.ErrAuthorization) ||
		errors.Is(err, blogger.ErrTokenStore) ||
		errors.Is(err, upload.ErrUploadFailed) ||
		errors.Is(err, upload.ErrRateLimited) ||
		errors.As(err, &netErr) {
		return ExitAuth
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, vault.ErrNotFound) ||
		errors.Is(err, vault.ErrNotDirectory) ||
		errors.Is(err, vault.ErrOutsideVault) ||
		errors.Is(err, ErrWriteHTML) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidConfig) ||
		errors.Is(err, md2blog.ErrEmptyInput) ||
		errors.Is(err, md2blog.ErrNotMarkdown) ||
		errors.Is(err, md2blog.ErrStyleNotFound) ||
		errors.Is(err, md2blog.ErrTemplateNotFound) ||
		errors.Is(err, md2blog.ErrInvalidAssetPath) ||
		errors.Is(err, blogger.ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrNoBlog) ||
		errors.Is(err, ErrUsage) {
		return ExitUsage
	}

	return ExitGeneral
}
