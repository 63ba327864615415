package formats

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// plain rewrites a decoded tree into values every encoder understands:
// JSON numbers become int64 or float64 and maps of any key become string keyed.
func plain(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = plain(child)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[fmt.Sprint(k)] = plain(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = plain(child)
		}
		return out
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return v
	}
}

// text renders a leaf as a single line. Lists are comma joined and nested
// documents fall back to their JSON text.
func (c *Codec) text(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(t), nil
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			s, err := c.text(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), nil
	default:
		return c.json.To(plain(v))
	}
}

// textLeaves replaces every scalar in a tree with its text, keeping maps and lists.
func (c *Codec) textLeaves(v any) (any, error) {
	return c.textTree(plain(v))
}

func (c *Codec) textTree(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			conv, err := c.textTree(child)
			if err != nil {
				return nil, err
			}
			out[k] = conv
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			conv, err := c.textTree(child)
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	default:
		return c.text(t)
	}
}

// toTree converts any serializable value into a generic tree with a mapping root.
func (c *Codec) toTree(v any) (map[string]any, error) {
	if tree, ok := v.(map[string]any); ok {
		return tree, nil
	}
	data, err := c.engine.Marshal(v)
	if err != nil {
		return nil, err
	}
	var root any
	if err := c.engine.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	tree, ok := root.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%T does not encode to a mapping", v)
	}
	return tree, nil
}
