package assets

import "errors"

// Sentinel errors for asset lookups.
var (
	ErrStyleNotFound    = errors.New("style not found")
	ErrTemplateNotFound = errors.New("template not found")

	// ErrInvalidName reports an empty name or one with separators or dots.
	ErrInvalidName = errors.New("invalid asset name")

	// ErrInvalidDir reports a custom asset directory that cannot be opened.
	ErrInvalidDir = errors.New("invalid asset directory")

	// ErrUnreadable reports an asset that exists but cannot be read, including
	// symlinks leaving the custom directory.
	ErrUnreadable = errors.New("asset unreadable")
)
