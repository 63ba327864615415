package formats

import (
	"encoding/xml"
	"fmt"

	"github.com/clbanning/mxj/v2"

	"github.com/duanxinyuan/json-utils/internal/jsonutil"
)

// rootTag wraps generic trees written as XML.
const rootTag = "root"

// FromXML decodes an XML document into v. A *map[string]any receives the
// children of the root element, with attributes keyed "-name" and element
// text "#text"; other targets are decoded with encoding/xml.
func (c *Codec) FromXML(data []byte, v any) error {
	if target, ok := v.(*map[string]any); ok {
		tree, err := c.decodeXML(data)
		if err != nil {
			return c.fail("from xml", XML, err)
		}
		*target = tree
		return nil
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return c.fail("from xml", XML, invalid(err))
	}
	return nil
}

// FromXMLFile decodes the XML file at path into v.
func (c *Codec) FromXMLFile(path string, v any) error {
	data, err := c.readFile("from xml", path, XML)
	if err != nil {
		return err
	}
	return c.FromXML(data, v)
}

// ToXML encodes v as indented XML. Generic trees are wrapped in a <root> element.
func (c *Codec) ToXML(v any) ([]byte, error) {
	tree, ok := v.(map[string]any)
	if !ok {
		out, err := xml.MarshalIndent(v, "", c.indent)
		if err != nil {
			return nil, c.fail("to xml", XML, fmt.Errorf("%w: %w", jsonutil.ErrUnsupportedValue, err))
		}
		return out, nil
	}

	leaves, err := c.textLeaves(tree)
	if err != nil {
		return nil, c.fail("to xml", XML, fmt.Errorf("%w: %w", jsonutil.ErrUnsupportedValue, err))
	}
	out, err := mxj.Map(leaves.(map[string]any)).XmlIndent("", c.indent, rootTag)
	if err != nil {
		return nil, c.fail("to xml", XML, fmt.Errorf("%w: %w", jsonutil.ErrUnsupportedValue, err))
	}
	return out, nil
}

// ToXMLFile writes v as XML to path.
func (c *Codec) ToXMLFile(path string, v any) error {
	data, err := c.ToXML(v)
	if err != nil {
		return err
	}
	return c.writeFile("to xml", path, XML, data)
}

func (c *Codec) decodeXML(data []byte) (map[string]any, error) {
	m, err := mxj.NewMapXml(data)
	if err != nil {
		return nil, invalid(err)
	}
	if len(m) == 1 {
		for _, root := range m {
			switch t := root.(type) {
			case map[string]any:
				return t, nil
			case nil:
				return map[string]any{}, nil
			case string:
				if t == "" {
					return map[string]any{}, nil
				}
				return map[string]any{"#text": t}, nil
			}
		}
	}
	return map[string]any(m), nil
}
