package pipeline

import "errors"

// Sentinel errors for pipeline stages.
var (
	ErrHTMLConversion = errors.New("HTML conversion failed")
	ErrNoUploader     = errors.New("no image uploader configured")
	ErrUnknownDialect = errors.New("unknown callout dialect")
	ErrFileNotFound   = errors.New("file not found in vault")
)
