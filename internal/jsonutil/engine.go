package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// Engine names accepted by EngineByName.
const (
	EngineFast    = "fast"
	EngineLenient = "lenient"
	EngineBinding = "binding"
)

// Engine is a JSON backend used by Util.
type Engine interface {
	Name() string
	Marshal(v any) ([]byte, error)
	MarshalIndent(v any, prefix, indent string) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Valid(data []byte) bool
}

// EngineNames lists the engines EngineByName understands.
func EngineNames() []string {
	return []string{EngineFast, EngineLenient, EngineBinding}
}

// EngineByName returns a new engine for name (case-insensitive).
func EngineByName(name string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case EngineFast:
		return Fast(), nil
	case EngineLenient:
		return Lenient(), nil
	case EngineBinding, "":
		return Binding(), nil
	default:
		return nil, fmt.Errorf("%w %q (expected one of %s)", ErrUnknownEngine, name, strings.Join(EngineNames(), ", "))
	}
}

type fastEngine struct {
	api jsoniter.API
}

// Fast returns an engine backed by json-iterator. Map keys are sorted on output
// and numbers decoded into interfaces keep their literal text.
func Fast() Engine {
	return &fastEngine{
		api: jsoniter.Config{
			EscapeHTML:             false,
			SortMapKeys:            true,
			ValidateJsonRawMessage: true,
			UseNumber:              true,
		}.Froze(),
	}
}

func (e *fastEngine) Name() string { return EngineFast }

func (e *fastEngine) Marshal(v any) ([]byte, error) { return e.api.Marshal(v) }

func (e *fastEngine) Unmarshal(data []byte, v any) error { return e.api.Unmarshal(data, v) }

func (e *fastEngine) Valid(data []byte) bool { return e.api.Valid(data) }

// MarshalIndent falls back to encoding/json indentation when the layout is
// something json-iterator cannot produce itself (a prefix or non-space indent).
func (e *fastEngine) MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	if prefix == "" && strings.Trim(indent, " ") == "" {
		return e.api.MarshalIndent(v, prefix, indent)
	}
	compact, err := e.api.Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, prefix, indent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type lenientEngine struct{}

// Lenient returns an engine that reads the JSON5 subset json5 understands:
// comments and unquoted identifier keys are accepted, single quoted strings
// are not. Numbers decoded into interfaces become float64. Output is plain
// JSON without HTML escaping.
func Lenient() Engine {
	return lenientEngine{}
}

func (lenientEngine) Name() string { return EngineLenient }

func (lenientEngine) Unmarshal(data []byte, v any) error { return json5.Unmarshal(data, v) }

func (lenientEngine) Valid(data []byte) bool {
	var v any
	return json5.Unmarshal(data, &v) == nil
}

func (lenientEngine) Marshal(v any) ([]byte, error) {
	return encodeStd(v, "", "")
}

func (lenientEngine) MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return encodeStd(v, prefix, indent)
}

type bindingEngine struct{}

// Binding returns the strict encoding/json engine. Numbers decoded into
// interfaces are json.Number and trailing data after the document is rejected.
func Binding() Engine {
	return bindingEngine{}
}

func (bindingEngine) Name() string { return EngineBinding }

func (bindingEngine) Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after top-level value")
	}
	return nil
}

func (bindingEngine) Valid(data []byte) bool { return json.Valid(data) }

func (bindingEngine) Marshal(v any) ([]byte, error) {
	return encodeStd(v, "", "")
}

func (bindingEngine) MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return encodeStd(v, prefix, indent)
}

func encodeStd(v any, prefix, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if prefix != "" || indent != "" {
		enc.SetIndent(prefix, indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
