package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")
	ErrTooMany      = errors.New("too many requests")
	ErrInternal     = errors.New("internal")

	ErrExtraction       = errors.New("extraction failed")
	ErrIndexNotBuilt    = errors.New("index not built")
	ErrModelUnavailable = errors.New("model unavailable")
	ErrGeneration       = errors.New("generation failed")
	ErrNoDocumentLoaded = errors.New("no document loaded")
)

// Wrap tags cause with kind so that errors.Is matches both.
func Wrap(kind, cause error) error {
	if cause == nil {
		return kind
	}
	if errors.Is(cause, kind) {
		return cause
	}
	return fmt.Errorf("%w: %w", kind, cause)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsExtraction(err error) bool {
	return errors.Is(err, ErrExtraction)
}

func IsNoDocumentLoaded(err error) bool {
	return errors.Is(err, ErrNoDocumentLoaded)
}
