package jsonutil

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

const defaultIndent = "  "

// Util wraps an Engine with the facade operations. It holds no mutable state
// after construction and is safe for concurrent use.
type Util struct {
	engine Engine
	indent string
	logger *zap.Logger
}

// Option configures a Util.
type Option func(*Util)

// WithIndent sets the indentation used by Format and ToIndent.
func WithIndent(indent string) Option {
	return func(u *Util) {
		u.indent = indent
	}
}

// WithLogger sets the logger used to report failed operations.
func WithLogger(logger *zap.Logger) Option {
	return func(u *Util) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// New constructs a Util around engine. A nil engine selects Binding.
func New(engine Engine, opts ...Option) *Util {
	if engine == nil {
		engine = Binding()
	}
	u := &Util{
		engine: engine,
		indent: defaultIndent,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Engine returns the underlying engine.
func (u *Util) Engine() Engine {
	return u.engine
}

// From decodes data into v. Blank input leaves v untouched.
func (u *Util) From(data string, v any) error {
	return u.FromBytes([]byte(data), v)
}

// FromBytes decodes data into v. Blank input leaves v untouched.
func (u *Util) FromBytes(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := u.engine.Unmarshal(data, v); err != nil {
		return u.fail("from", "", invalid(err))
	}
	return nil
}

// FromReader reads r to the end and decodes it into v.
func (u *Util) FromReader(r io.Reader, v any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return u.fail("from reader", "", fmt.Errorf("read input: %w", err))
	}
	return u.FromBytes(data, v)
}

// FromFile reads the file at path and decodes it into v.
func (u *Util) FromFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return u.fail("from file", "", fmt.Errorf("read %s: %w", path, err))
	}
	return u.FromBytes(data, v)
}

// To encodes v as compact JSON.
func (u *Util) To(v any) (string, error) {
	data, err := u.engine.Marshal(v)
	if err != nil {
		return "", u.fail("to", "", fmt.Errorf("%w: %w", ErrUnsupportedValue, err))
	}
	return string(data), nil
}

// ToIndent encodes v as indented JSON.
func (u *Util) ToIndent(v any) (string, error) {
	data, err := u.engine.MarshalIndent(v, "", u.indent)
	if err != nil {
		return "", u.fail("to indent", "", fmt.Errorf("%w: %w", ErrUnsupportedValue, err))
	}
	return string(data), nil
}

// ToFile writes v as compact JSON to path, replacing any existing content.
func (u *Util) ToFile(path string, v any) error {
	data, err := u.engine.Marshal(v)
	if err != nil {
		return u.fail("to file", "", fmt.Errorf("%w: %w", ErrUnsupportedValue, err))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return u.fail("to file", "", fmt.Errorf("write %s: %w", path, err))
	}
	return nil
}

// Format re-encodes a JSON document with indentation.
func (u *Util) Format(data string) (string, error) {
	tree, err := u.parse("format", data, "")
	if err != nil {
		return "", err
	}
	out, err := u.engine.MarshalIndent(tree, "", u.indent)
	if err != nil {
		return "", u.fail("format", "", fmt.Errorf("%w: %w", ErrUnsupportedValue, err))
	}
	return string(out), nil
}

// IsJSON reports whether data parses and its root is an object or an array.
func (u *Util) IsJSON(data string) bool {
	if len(bytes.TrimSpace([]byte(data))) == 0 {
		return false
	}
	var tree any
	if err := u.engine.Unmarshal([]byte(data), &tree); err != nil {
		u.logger.Debug("document rejected", zap.String("engine", u.engine.Name()), zap.Error(err))
		return false
	}
	switch tree.(type) {
	case map[string]any, []any:
		return true
	default:
		return false
	}
}

// encodeValue turns v into a member of a decoded tree.
func (u *Util) encodeValue(v Value) (any, error) {
	switch v.Kind() {
	case KindText:
		return v.text, nil
	case KindInteger, KindFloat:
		if !json.Valid([]byte(v.text)) {
			return nil, fmt.Errorf("%w: %s is not a JSON number", ErrUnsupportedValue, v.text)
		}
		return json.Number(v.text), nil
	case KindBoolean:
		return v.flag, nil
	case KindBinary:
		return base64.StdEncoding.EncodeToString(v.raw), nil
	case KindDocument:
		if v.doc == nil {
			return nil, nil
		}
		data, err := u.engine.Marshal(v.doc)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedValue, err)
		}
		var tree any
		if err := u.engine.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedValue, err)
		}
		return tree, nil
	default:
		return nil, fmt.Errorf("%w: value kind %s", ErrUnsupportedValue, v.Kind())
	}
}

func (u *Util) fail(op, key string, err error) error {
	u.logger.Error("json operation failed",
		zap.String("op", op),
		zap.String("engine", u.engine.Name()),
		zap.String("key", key),
		zap.Error(err),
	)
	return &Error{Op: op, Engine: u.engine.Name(), Key: key, Err: err}
}
