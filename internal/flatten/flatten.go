package flatten

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/knadh/koanf/maps"
)

const defaultSeparator = "."

type flattener struct {
	separator string
	maxDepth  int
}

// New creates a Flattener that joins keys with "." and has no depth limit
// unless options say otherwise.
func New(opts ...Option) Flattener {
	f := &flattener{separator: defaultSeparator}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Flatten flattens config with the default settings.
func Flatten(config map[string]any) (map[string]any, error) {
	return New().Flatten(config)
}

// Unflatten rebuilds a nested tree from a flat mapping by splitting keys on sep.
// A key that is also the prefix of another key keeps its value under a blank
// child key, so {"a": 1, "a.b": 2} becomes {"a": {"": 1, "b": 2}} and flattens
// back to the same two keys.
func Unflatten(flat map[string]any, sep string) map[string]any {
	if sep == "" {
		sep = defaultSeparator
	}
	if len(flat) == 0 {
		return map[string]any{}
	}
	return maps.Unflatten(nestPrefixLeaves(flat, sep), sep)
}

func nestPrefixLeaves(flat map[string]any, sep string) map[string]any {
	prefixes := make(map[string]struct{})
	for k := range flat {
		for i := strings.Index(k, sep); i >= 0; {
			prefixes[k[:i]] = struct{}{}
			next := strings.Index(k[i+len(sep):], sep)
			if next < 0 {
				break
			}
			i += len(sep) + next
		}
	}

	out := make(map[string]any, len(flat))
	for k, v := range flat {
		if _, ok := prefixes[k]; ok {
			k += sep
		}
		out[k] = v
	}
	return out
}

type entry struct {
	key   string
	value reflect.Value
}

type frame struct {
	prefix  string
	id      uintptr
	depth   int
	entries []entry
	next    int
}

// Flatten walks config depth first with an explicit stack. Keys are visited in
// sorted order, so when two branches produce the same joined key the one
// visited last wins.
func (f *flattener) Flatten(config map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(config))
	if len(config) == 0 {
		return out, nil
	}

	root := reflect.ValueOf(config)
	onPath := map[uintptr]struct{}{root.Pointer(): {}}
	stack := []*frame{newFrame("", root, 0)}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next == len(top.entries) {
			delete(onPath, top.id)
			stack = stack[:len(stack)-1]
			continue
		}

		e := top.entries[top.next]
		top.next++

		child, ok := asMap(e.value)
		if !ok {
			out[f.leafKey(top.prefix, e.key)] = leafValue(e.value)
			continue
		}
		if child.Len() == 0 {
			continue
		}

		path := f.join(top.prefix, e.key)
		id := child.Pointer()
		if _, seen := onPath[id]; seen {
			return nil, fmt.Errorf("%w at %q", ErrCycleDetected, f.describe(top.prefix, e.key))
		}
		depth := top.depth + 1
		if f.maxDepth > 0 && depth > f.maxDepth {
			return nil, fmt.Errorf("%w (%d) at %q", ErrDepthExceeded, f.maxDepth, f.describe(top.prefix, e.key))
		}

		onPath[id] = struct{}{}
		stack = append(stack, newFrame(path, child, depth))
	}

	return out, nil
}

// join appends key to prefix. Blank keys collapse onto the prefix and a blank
// prefix leaves the key unprefixed.
func (f *flattener) join(prefix, key string) string {
	key = strings.TrimSpace(key)
	switch {
	case key == "":
		return prefix
	case prefix == "":
		return key
	default:
		return prefix + f.separator + key
	}
}

// leafKey keeps top-level keys untouched so flat input maps onto itself.
func (f *flattener) leafKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return f.join(prefix, key)
}

func (f *flattener) describe(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + f.separator + key
}

func newFrame(prefix string, m reflect.Value, depth int) *frame {
	entries := make([]entry, 0, m.Len())
	iter := m.MapRange()
	for iter.Next() {
		entries = append(entries, entry{key: keyString(iter.Key()), value: iter.Value()})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].key < entries[j].key
	})

	return &frame{
		prefix:  prefix,
		id:      m.Pointer(),
		depth:   depth,
		entries: entries,
	}
}

func asMap(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if !v.IsValid() || v.Kind() != reflect.Map {
		return reflect.Value{}, false
	}
	return v, true
}

func keyString(k reflect.Value) string {
	for k.Kind() == reflect.Interface && !k.IsNil() {
		k = k.Elem()
	}
	if k.Kind() == reflect.String {
		return k.String()
	}
	return fmt.Sprint(k.Interface())
}

func leafValue(v reflect.Value) any {
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}
	return v.Interface()
}
