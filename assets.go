package md2blog

import (
	"errors"

	"github.com/alnah/go-md2blog/internal/assets"
)

// Built-in preview styles.
const (
	DefaultStyle = assets.DefaultStyleName
	MinimalStyle = assets.MinimalStyleName
)

// convertAssetError maps internal asset errors to public errors.
func convertAssetError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, assets.ErrStyleNotFound):
		return wrapError(ErrStyleNotFound, err)
	case errors.Is(err, assets.ErrTemplateNotFound):
		return wrapError(ErrTemplateNotFound, err)
	case errors.Is(err, assets.ErrInvalidDir), errors.Is(err, assets.ErrUnreadable):
		return wrapError(ErrInvalidAssetPath, err)
	case errors.Is(err, assets.ErrInvalidName):
		return wrapError(ErrStyleNotFound, err) // invalid name means not found
	default:
		return err
	}
}

// wrapError creates an error that keeps the original message and matches
// the public sentinel with errors.Is.
func wrapError(sentinel, original error) error {
	return &publicError{sentinel: sentinel, original: original}
}

type publicError struct {
	sentinel error
	original error
}

func (e *publicError) Error() string {
	return e.original.Error()
}

// Unwrap returns the public sentinel.
// Internal errors are not exposed since they're in internal/ packages.
func (e *publicError) Unwrap() error {
	return e.sentinel
}
