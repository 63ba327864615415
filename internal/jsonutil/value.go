package jsonutil

import (
	"encoding/json"
	"math/big"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind uint8

// Value kinds. The zero Kind is invalid.
const (
	KindText Kind = iota + 1
	KindInteger
	KindFloat
	KindBoolean
	KindBinary
	KindDocument
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	case KindBinary:
		return "binary"
	case KindDocument:
		return "document"
	default:
		return "invalid"
	}
}

// Value is a member value for Add and Update. Integers and floats keep their
// decimal text, so arbitrary precision survives encoding.
type Value struct {
	kind Kind
	text string
	flag bool
	raw  []byte
	doc  any
}

// Text returns a string Value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Integer returns an integer Value.
func Integer(i int64) Value { return Value{kind: KindInteger, text: strconv.FormatInt(i, 10)} }

// BigInteger returns an integer Value of arbitrary size. A nil i is zero.
func BigInteger(i *big.Int) Value {
	if i == nil {
		return Value{kind: KindInteger, text: "0"}
	}
	return Value{kind: KindInteger, text: i.String()}
}

// Float returns a floating point Value. NaN and infinities are rejected when encoded.
func Float(f float64) Value {
	return Value{kind: KindFloat, text: strconv.FormatFloat(f, 'g', -1, 64)}
}

// Boolean returns a boolean Value.
func Boolean(b bool) Value { return Value{kind: KindBoolean, flag: b} }

// Binary returns a Value encoded as a base64 string.
func Binary(b []byte) Value { return Value{kind: KindBinary, raw: b} }

// Document returns a Value holding any other serializable value, embedded as a
// nested JSON value. A nil v encodes as null.
func Document(v any) Value { return Value{kind: KindDocument, doc: v} }

// Kind reports which variant v holds. The zero Value has no valid kind.
func (v Value) Kind() Kind { return v.kind }

// ValueOf classifies a Go value.
func ValueOf(v any) Value {
	switch t := v.(type) {
	case Value:
		return t
	case string:
		return Text(t)
	case bool:
		return Boolean(t)
	case []byte:
		return Binary(t)
	case int:
		return Integer(int64(t))
	case int8:
		return Integer(int64(t))
	case int16:
		return Integer(int64(t))
	case int32:
		return Integer(int64(t))
	case int64:
		return Integer(t)
	case uint:
		return unsigned(uint64(t))
	case uint8:
		return unsigned(uint64(t))
	case uint16:
		return unsigned(uint64(t))
	case uint32:
		return unsigned(uint64(t))
	case uint64:
		return unsigned(t)
	case *big.Int:
		return BigInteger(t)
	case float32:
		return Value{kind: KindFloat, text: strconv.FormatFloat(float64(t), 'g', -1, 32)}
	case float64:
		return Float(t)
	case *big.Float:
		if t == nil {
			return Float(0)
		}
		return Value{kind: KindFloat, text: t.Text('g', -1)}
	case json.Number:
		if strings.ContainsAny(t.String(), ".eE") {
			return Value{kind: KindFloat, text: t.String()}
		}
		return Value{kind: KindInteger, text: t.String()}
	default:
		return Document(v)
	}
}

func unsigned(u uint64) Value {
	return Value{kind: KindInteger, text: strconv.FormatUint(u, 10)}
}
