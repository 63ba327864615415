package jsonutil

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// GetAsString returns the member key of the JSON object data. String members
// are returned as is, null as "", anything else as its JSON text.
//
// The GetAs getters do not fall back to a default: a missing member is
// reported as ErrKeyNotFound and a root that is not an object as ErrNotObject.
// A member that is present and null reads as the zero value.
func (u *Util) GetAsString(data, key string) (string, error) {
	v, err := u.member("get string", data, key)
	if err != nil {
		return "", err
	}
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		out, err := u.engine.Marshal(t)
		if err != nil {
			return "", u.fail("get string", key, mismatch("%v", err))
		}
		return string(out), nil
	}
}

// GetAsInt returns the member key as an integer. Numeric strings are accepted,
// fractions are truncated and null or blank strings read as zero.
func (u *Util) GetAsInt(data, key string) (int64, error) {
	v, err := u.member("get int", data, key)
	if err != nil {
		return 0, err
	}
	i, err := toInt(v)
	if err != nil {
		return 0, u.fail("get int", key, err)
	}
	return i, nil
}

// GetAsFloat returns the member key as a float64 with the same leniency as GetAsInt.
func (u *Util) GetAsFloat(data, key string) (float64, error) {
	v, err := u.member("get float", data, key)
	if err != nil {
		return 0, err
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, u.fail("get float", key, err)
	}
	return f, nil
}

// GetAsBigInt returns the member key as an arbitrary precision integer.
func (u *Util) GetAsBigInt(data, key string) (*big.Int, error) {
	v, err := u.member("get big int", data, key)
	if err != nil {
		return nil, err
	}
	text, err := numericText(v)
	if err != nil {
		return nil, u.fail("get big int", key, err)
	}
	if i, ok := new(big.Int).SetString(text, 10); ok {
		return i, nil
	}
	f, _, err := big.ParseFloat(text, 10, 256, big.ToZero)
	if err != nil {
		return nil, u.fail("get big int", key, mismatch("%q is not a number", text))
	}
	i, _ := f.Int(nil)
	return i, nil
}

// GetAsBigFloat returns the member key as an arbitrary precision float.
func (u *Util) GetAsBigFloat(data, key string) (*big.Float, error) {
	v, err := u.member("get big float", data, key)
	if err != nil {
		return nil, err
	}
	text, err := numericText(v)
	if err != nil {
		return nil, u.fail("get big float", key, err)
	}
	f, _, err := big.ParseFloat(text, 10, 256, big.ToNearestEven)
	if err != nil {
		return nil, u.fail("get big float", key, mismatch("%q is not a number", text))
	}
	return f, nil
}

// GetAsBool returns the member key as a boolean. Booleans are returned as is;
// the string "1" and, ignoring case, "true", "yes", "y", "on" and "t" are true
// while other strings are false; numbers are truncated toward zero and are
// true when the result is non-zero, so 0.5 is false; null is false.
func (u *Util) GetAsBool(data, key string) (bool, error) {
	v, err := u.member("get bool", data, key)
	if err != nil {
		return false, err
	}
	b, err := toBool(v)
	if err != nil {
		return false, u.fail("get bool", key, err)
	}
	return b, nil
}

// GetAsBytes decodes a base64 string member.
func (u *Util) GetAsBytes(data, key string) ([]byte, error) {
	v, err := u.member("get bytes", data, key)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		out, err := base64.StdEncoding.DecodeString(t)
		if err != nil {
			return nil, u.fail("get bytes", key, mismatch("%v", err))
		}
		return out, nil
	default:
		return nil, u.fail("get bytes", key, mismatch("%T is not a base64 string", v))
	}
}

// Add sets the member key of the JSON object data to value, replacing any
// existing member, and returns the re-encoded document.
func (u *Util) Add(data, key string, value any) (string, error) {
	return u.put("add", data, key, value)
}

// Update replaces the member key with value. A missing member is added.
func (u *Util) Update(data, key string, value any) (string, error) {
	return u.put("update", data, key, value)
}

// Remove deletes the member key. Documents whose root is not an object are
// returned re-encoded and otherwise unchanged.
func (u *Util) Remove(data, key string) (string, error) {
	tree, err := u.parse("remove", data, key)
	if err != nil {
		return "", err
	}
	if obj, ok := tree.(map[string]any); ok {
		delete(obj, key)
	}
	out, err := u.engine.Marshal(tree)
	if err != nil {
		return "", u.fail("remove", key, mismatch("%v", err))
	}
	return string(out), nil
}

func (u *Util) put(op, data, key string, value any) (string, error) {
	obj, err := u.object(op, data, key)
	if err != nil {
		return "", err
	}
	member, err := u.encodeValue(ValueOf(value))
	if err != nil {
		return "", u.fail(op, key, err)
	}
	delete(obj, key)
	obj[key] = member

	out, err := u.engine.Marshal(obj)
	if err != nil {
		return "", u.fail(op, key, mismatch("%v", err))
	}
	return string(out), nil
}

// parse decodes a whole document. Blank input is rejected.
func (u *Util) parse(op, data, key string) (any, error) {
	if strings.TrimSpace(data) == "" {
		return nil, u.fail(op, key, invalid(errEmptyDocument))
	}
	var tree any
	if err := u.engine.Unmarshal([]byte(data), &tree); err != nil {
		return nil, u.fail(op, key, invalid(err))
	}
	return tree, nil
}

func (u *Util) object(op, data, key string) (map[string]any, error) {
	tree, err := u.parse(op, data, key)
	if err != nil {
		return nil, err
	}
	obj, ok := tree.(map[string]any)
	if !ok {
		return nil, u.fail(op, key, ErrNotObject)
	}
	return obj, nil
}

func (u *Util) member(op, data, key string) (any, error) {
	obj, err := u.object(op, data, key)
	if err != nil {
		return nil, err
	}
	v, ok := obj[key]
	if !ok {
		return nil, u.fail(op, key, ErrKeyNotFound)
	}
	return v, nil
}

// numericText returns the decimal text of a number, numeric string or null.
func numericText(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "0", nil
	case json.Number:
		return t.String(), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return "0", nil
		}
		return s, nil
	default:
		return "", mismatch("%T is not a number", v)
	}
}

func toFloat(v any) (float64, error) {
	text, err := numericText(v)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, mismatch("%q is not a number", text)
	}
	return f, nil
}

func toInt(v any) (int64, error) {
	text, err := numericText(v)
	if err != nil {
		return 0, err
	}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, mismatch("%q is not an integer", text)
	}
	f = math.Trunc(f)
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, mismatch("%q overflows int64", text)
	}
	return int64(f), nil
}

func toBool(v any) (bool, error) {
	switch t := v.(type) {
	case nil:
		return false, nil
	case bool:
		return t, nil
	case string:
		if t == "1" {
			return true, nil
		}
		switch strings.ToLower(t) {
		case "true", "yes", "y", "on", "t":
			return true, nil
		}
		return false, nil
	case json.Number, float64:
		f, err := toFloat(t)
		if err != nil {
			return false, err
		}
		return math.Trunc(f) != 0, nil
	default:
		return false, mismatch("%T cannot be read as a boolean", v)
	}
}
