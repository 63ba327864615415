package formats

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/magiconair/properties"

	"github.com/duanxinyuan/json-utils/internal/flatten"
	"github.com/duanxinyuan/json-utils/internal/jsonutil"
)

// FromProperties decodes a Properties document into v. A *map[string]any
// receives the nested tree formed by splitting keys on ".", a
// *map[string]string the flat entries, and structs are filled through
// `properties` field tags.
func (c *Codec) FromProperties(data []byte, v any) error {
	p, err := properties.Load(data, properties.UTF8)
	if err != nil {
		return c.fail("from properties", Properties, invalid(err))
	}
	switch target := v.(type) {
	case *map[string]any:
		*target = unflattenProperties(p)
	case *map[string]string:
		*target = expanded(p)
	default:
		if err := p.Decode(v); err != nil {
			return c.fail("from properties", Properties, fmt.Errorf("%w: %w", jsonutil.ErrTypeMismatch, err))
		}
	}
	return nil
}

// FromPropertiesFile decodes the Properties file at path into v.
func (c *Codec) FromPropertiesFile(path string, v any) error {
	data, err := c.readFile("from properties", path, Properties)
	if err != nil {
		return err
	}
	return c.FromProperties(data, v)
}

// ToProperties flattens v and writes one sorted "key = value" line per leaf.
// Lists are written comma separated.
func (c *Codec) ToProperties(v any) ([]byte, error) {
	tree, err := c.toTree(v)
	if err != nil {
		return nil, c.fail("to properties", Properties, fmt.Errorf("%w: %w", jsonutil.ErrUnsupportedValue, err))
	}
	flat, err := c.flattener.Flatten(tree)
	if err != nil {
		return nil, c.fail("to properties", Properties, err)
	}

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p := properties.NewProperties()
	p.DisableExpansion = true
	for _, k := range keys {
		value, err := c.text(flat[k])
		if err != nil {
			return nil, c.fail("to properties", Properties, fmt.Errorf("%w: %w", jsonutil.ErrUnsupportedValue, err))
		}
		if _, _, err := p.Set(k, value); err != nil {
			return nil, c.fail("to properties", Properties, fmt.Errorf("set %s: %w", k, err))
		}
	}

	var buf bytes.Buffer
	if _, err := p.Write(&buf, properties.UTF8); err != nil {
		return nil, c.fail("to properties", Properties, fmt.Errorf("write: %w", err))
	}
	return buf.Bytes(), nil
}

// ToPropertiesFile writes v as Properties to path.
func (c *Codec) ToPropertiesFile(path string, v any) error {
	data, err := c.ToProperties(v)
	if err != nil {
		return err
	}
	return c.writeFile("to properties", path, Properties, data)
}

func (c *Codec) decodeProperties(data []byte) (map[string]any, error) {
	p, err := properties.Load(data, properties.UTF8)
	if err != nil {
		return nil, invalid(err)
	}
	return unflattenProperties(p), nil
}

func unflattenProperties(p *properties.Properties) map[string]any {
	flat := make(map[string]any, p.Len())
	for k, v := range expanded(p) {
		flat[k] = v
	}
	return flatten.Unflatten(flat, ".")
}

// expanded returns every entry with ${key} references resolved.
func expanded(p *properties.Properties) map[string]string {
	out := make(map[string]string, p.Len())
	for _, k := range p.Keys() {
		out[k] = p.GetString(k, "")
	}
	return out
}
