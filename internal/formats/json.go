package formats

import (
	"bytes"
	"errors"
	"fmt"
)

func (c *Codec) decodeJSON(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, invalid(errors.New("empty document"))
	}
	var root any
	if err := c.engine.Unmarshal(data, &root); err != nil {
		return nil, invalid(err)
	}
	tree, ok := root.(map[string]any)
	if !ok {
		return nil, invalid(fmt.Errorf("document root is %T, want a mapping", root))
	}
	return tree, nil
}
