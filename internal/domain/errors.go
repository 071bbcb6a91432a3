package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks input rejected before any storage access.
	ErrValidation = errors.New("validation failed")
	// ErrStorageWrite marks a write the backend did not persist.
	ErrStorageWrite = errors.New("storage write failed")
	// ErrEmptyExport is returned when there is nothing to export.
	ErrEmptyExport = errors.New("nothing to export")
	// ErrClipboard marks a clipboard write failure; nothing was mutated.
	ErrClipboard = errors.New("clipboard write failed")
)

// ValidationError describes which field was rejected and why.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// FetchError is a classified metadata fetch failure.
// Transient failures are CORS or network shaped and qualify for the fallback path.
type FetchError struct {
	URL       string
	Status    int
	Err       error
	Transient bool
}

func (e *FetchError) Error() string {
	var b strings.Builder
	b.WriteString("fetch ")
	b.WriteString(e.URL)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": HTTP %d", e.Status)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a FetchError eligible for the fallback path.
func IsTransient(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Transient
	}
	return false
}
