package formats

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned for format names or file extensions the codec does not handle.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Error describes a failed codec operation.
type Error struct {
	Op     string
	Format Format
	Err    error
}

func (e *Error) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("%s %s: %v", e.Format, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
