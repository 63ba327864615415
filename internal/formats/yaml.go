package formats

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// FromYAML decodes a YAML document into v.
func (c *Codec) FromYAML(data []byte, v any) error {
	if err := yaml.Unmarshal(data, v); err != nil {
		return c.fail("from yaml", YAML, invalid(err))
	}
	return nil
}

// FromYAMLFile decodes the YAML file at path into v.
func (c *Codec) FromYAMLFile(path string, v any) error {
	data, err := c.readFile("from yaml", path, YAML)
	if err != nil {
		return err
	}
	return c.FromYAML(data, v)
}

// ToYAML encodes v as YAML. Generic trees have their JSON numbers written as
// plain YAML numbers.
func (c *Codec) ToYAML(v any) ([]byte, error) {
	if tree, ok := v.(map[string]any); ok {
		v = plain(tree)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(c.yamlIndent())
	if err := enc.Encode(v); err != nil {
		return nil, c.fail("to yaml", YAML, fmt.Errorf("encode: %w", err))
	}
	if err := enc.Close(); err != nil {
		return nil, c.fail("to yaml", YAML, fmt.Errorf("encode: %w", err))
	}
	return buf.Bytes(), nil
}

// ToYAMLFile writes v as YAML to path.
func (c *Codec) ToYAMLFile(path string, v any) error {
	data, err := c.ToYAML(v)
	if err != nil {
		return err
	}
	return c.writeFile("to yaml", path, YAML, data)
}

func (c *Codec) decodeYAML(data []byte) (map[string]any, error) {
	var root any
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, invalid(err)
	}
	switch root.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any, map[any]any:
		// Non-string keys such as "200: ok" become their string form.
		return plain(root).(map[string]any), nil
	default:
		return nil, invalid(fmt.Errorf("document root is %T, want a mapping", root))
	}
}

// yamlIndent converts the configured indent into a space count.
func (c *Codec) yamlIndent() int {
	if c.indent != "" && strings.Trim(c.indent, " ") == "" {
		return len(c.indent)
	}
	return 2
}
