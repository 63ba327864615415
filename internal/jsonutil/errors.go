package jsonutil

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFormat is returned when a document cannot be parsed by the engine.
	ErrInvalidFormat = errors.New("invalid document format")
	// ErrKeyNotFound is returned when the requested member does not exist.
	ErrKeyNotFound = errors.New("key not found")
	// ErrNotObject is returned when a keyed operation is applied to a document whose root is not an object.
	ErrNotObject = errors.New("document root is not an object")
	// ErrTypeMismatch is returned when a member cannot be converted to the requested type.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrUnsupportedValue is returned when a value cannot be serialized.
	ErrUnsupportedValue = errors.New("unsupported value")
	// ErrUnknownEngine is returned by EngineByName for names it does not recognise.
	ErrUnknownEngine = errors.New("unknown engine")

	errEmptyDocument = errors.New("empty document")
)

// Error describes a failed facade operation.
type Error struct {
	Op     string
	Engine string
	Key    string
	Err    error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %s %q: %v", e.Engine, e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Engine, e.Op, e.Err)
}

// Unwrap returns the underlying error so errors.Is matches the sentinels above.
func (e *Error) Unwrap() error {
	return e.Err
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
}

func mismatch(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTypeMismatch, fmt.Sprintf(format, args...))
}
