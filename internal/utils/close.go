package utils

import (
	"errors"
	"fmt"
	"io"
)

// Close closes c and drops the error. For cleanup on paths that are
// already returning an error.
func Close(c io.Closer) {
	_ = c.Close()
}

// CloseInto closes c and joins a close failure into *errp, labelled with
// what. Meant for defer in functions with a named error return.
func CloseInto(errp *error, c io.Closer, what string) {
	if err := c.Close(); err != nil {
		*errp = errors.Join(*errp, fmt.Errorf("closing %s: %w", what, err))
	}
}
