package jsonutil

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FromList decodes a JSON array into a slice of T. Blank input yields a nil slice.
func FromList[T any](u *Util, data string) ([]T, error) {
	var out []T
	if err := u.From(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FromMap decodes a JSON object into a map of V. Blank input yields a nil map.
func FromMap[V any](u *Util, data string) (map[string]V, error) {
	var out map[string]V
	if err := u.From(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAsObject decodes the member key into T. A string member holding a JSON
// document is decoded from its content.
func GetAsObject[T any](u *Util, data, key string) (T, error) {
	var out T
	raw, err := memberJSON(u, "get object", data, key)
	if err != nil {
		return out, err
	}
	if err := u.engine.Unmarshal(raw, &out); err != nil {
		return out, u.fail("get object", key, mismatch("%v", err))
	}
	return out, nil
}

// GetAsList decodes the member key into a slice of T with the same string
// handling as GetAsObject.
func GetAsList[T any](u *Util, data, key string) ([]T, error) {
	var out []T
	raw, err := memberJSON(u, "get list", data, key)
	if err != nil {
		return nil, err
	}
	if err := u.engine.Unmarshal(raw, &out); err != nil {
		return nil, u.fail("get list", key, mismatch("%v", err))
	}
	return out, nil
}

// memberJSON returns the JSON text of member key. Strings whose content is
// itself an object or array are unwrapped.
func memberJSON(u *Util, op, data, key string) ([]byte, error) {
	v, err := u.member(op, data, key)
	if err != nil {
		return nil, err
	}
	if s, ok := v.(string); ok {
		inner := bytes.TrimSpace([]byte(s))
		if len(inner) > 0 && (inner[0] == '{' || inner[0] == '[') && u.engine.Valid(inner) {
			return inner, nil
		}
	}
	raw, err := u.engine.Marshal(v)
	if err != nil {
		return nil, u.fail(op, key, fmt.Errorf("%w: %w", ErrUnsupportedValue, err))
	}
	return raw, nil
}

// Raw returns the JSON text of the member key.
func (u *Util) Raw(data, key string) (json.RawMessage, error) {
	return memberJSON(u, "get raw", data, key)
}
