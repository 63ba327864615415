package formats

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"go.uber.org/zap"

	"github.com/duanxinyuan/json-utils/internal/flatten"
	"github.com/duanxinyuan/json-utils/internal/jsonutil"
)

// Format names a document format.
type Format string

// Supported formats.
const (
	JSON       Format = "json"
	YAML       Format = "yaml"
	Properties Format = "properties"
	CSV        Format = "csv"
	XML        Format = "xml"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{JSON, YAML, Properties, CSV, XML}
}

// ParseFormat resolves a format name. "yml" is accepted for YAML.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case JSON, YAML, Properties, CSV, XML:
		return f, nil
	case "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnsupportedFormat, name)
	}
}

// FormatFromPath picks the format from the file extension of path.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnsupportedFormat, path)
	}
	f, err := ParseFormat(ext)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return f, nil
}

const defaultIndent = "  "

// Codec converts between formats. It is immutable after New and safe for
// concurrent use.
type Codec struct {
	engine    jsonutil.Engine
	json      *jsonutil.Util
	comma     rune
	indent    string
	logger    *zap.Logger
	flattener flatten.Flattener
}

// Option configures a Codec.
type Option func(*Codec)

// WithEngine selects the JSON engine. Defaults to jsonutil.Binding.
func WithEngine(engine jsonutil.Engine) Option {
	return func(c *Codec) {
		if engine != nil {
			c.engine = engine
		}
	}
}

// WithCSVSeparator sets the CSV field separator. Defaults to ','.
func WithCSVSeparator(sep rune) Option {
	return func(c *Codec) {
		if sep != 0 {
			c.comma = sep
		}
	}
}

// WithIndent sets the indentation for JSON, YAML and XML output.
func WithIndent(indent string) Option {
	return func(c *Codec) {
		c.indent = indent
	}
}

// WithLogger sets the logger for failed operations.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Codec) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithFlattener replaces the flattener used by LoadAsMap and ToProperties.
func WithFlattener(f flatten.Flattener) Option {
	return func(c *Codec) {
		if f != nil {
			c.flattener = f
		}
	}
}

// New builds a Codec.
func New(opts ...Option) *Codec {
	c := &Codec{
		engine:    jsonutil.Binding(),
		comma:     ',',
		indent:    defaultIndent,
		logger:    zap.NewNop(),
		flattener: flatten.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.json = jsonutil.New(c.engine, jsonutil.WithIndent(c.indent), jsonutil.WithLogger(c.logger))
	return c
}

// JSON returns the JSON facade sharing this codec's engine, indent and logger.
func (c *Codec) JSON() *jsonutil.Util {
	return c.json
}

// Flatten flattens tree with the codec's flattener.
func (c *Codec) Flatten(tree map[string]any) (map[string]any, error) {
	flat, err := c.flattener.Flatten(tree)
	if err != nil {
		return nil, c.fail("flatten", "", err)
	}
	return flat, nil
}

// Decode parses data into a tree. The root must be a mapping; CSV rows are
// keyed by their zero based index.
func (c *Codec) Decode(data []byte, format Format) (map[string]any, error) {
	var (
		tree map[string]any
		err  error
	)
	switch format {
	case JSON:
		tree, err = c.decodeJSON(data)
	case YAML:
		tree, err = c.decodeYAML(data)
	case Properties:
		tree, err = c.decodeProperties(data)
	case CSV:
		tree, err = c.decodeCSV(data)
	case XML:
		tree, err = c.decodeXML(data)
	default:
		return nil, c.fail("decode", format, fmt.Errorf("%w %q", ErrUnsupportedFormat, format))
	}
	if err != nil {
		return nil, c.fail("decode", format, err)
	}
	return tree, nil
}

// Encode writes tree in format.
func (c *Codec) Encode(tree map[string]any, format Format) ([]byte, error) {
	switch format {
	case JSON:
		out, err := c.json.ToIndent(tree)
		if err != nil {
			return nil, err
		}
		return []byte(out), nil
	case YAML:
		return c.ToYAML(tree)
	case Properties:
		return c.ToProperties(tree)
	case CSV:
		out, err := c.encodeRows(tree)
		if err != nil {
			return nil, c.fail("encode", format, err)
		}
		return out, nil
	case XML:
		return c.ToXML(tree)
	default:
		return nil, c.fail("encode", format, fmt.Errorf("%w %q", ErrUnsupportedFormat, format))
	}
}

// Convert decodes data as from and encodes the tree as to.
func (c *Codec) Convert(data []byte, from, to Format) ([]byte, error) {
	tree, err := c.Decode(data, from)
	if err != nil {
		return nil, err
	}
	return c.Encode(tree, to)
}

// LoadFile reads path and decodes it by extension.
func (c *Codec) LoadFile(path string) (map[string]any, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, c.fail("load", "", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, c.fail("load", format, fmt.Errorf("read %s: %w", path, err))
	}
	tree, err := c.Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tree, nil
}

// LoadAsMap loads every path, flattens each document and merges them into one
// mapping of dotted keys. Keys from later paths override earlier ones.
func (c *Codec) LoadAsMap(paths ...string) (map[string]any, error) {
	merged := map[string]any{}
	for _, path := range paths {
		tree, err := c.LoadFile(path)
		if err != nil {
			return nil, err
		}
		flat, err := c.Flatten(tree)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if err := mergo.Merge(&merged, flat, mergo.WithOverride); err != nil {
			return nil, c.fail("load", "", fmt.Errorf("merge %s: %w", path, err))
		}
		c.logger.Debug("document loaded", zap.String("path", path), zap.Int("keys", len(flat)))
	}
	return merged, nil
}

func (c *Codec) readFile(op, path string, format Format) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, c.fail(op, format, fmt.Errorf("read %s: %w", path, err))
	}
	return data, nil
}

func (c *Codec) writeFile(op, path string, format Format, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return c.fail(op, format, fmt.Errorf("write %s: %w", path, err))
	}
	return nil
}

func (c *Codec) fail(op string, format Format, err error) error {
	c.logger.Error("format operation failed",
		zap.String("op", op),
		zap.String("format", string(format)),
		zap.Error(err),
	)
	return &Error{Op: op, Format: format, Err: err}
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", jsonutil.ErrInvalidFormat, err)
}
