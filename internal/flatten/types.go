package flatten

// Flattener describes the behaviour required from a configuration flattener.
// Implementations turn a tree of nested mappings into a single-level mapping
// whose keys are the joined paths of the original leaves.
type Flattener interface {
	Flatten(config map[string]any) (map[string]any, error)
}

// Option configures a Flattener built by New.
type Option func(*flattener)

// WithSeparator overrides the string placed between path segments.
func WithSeparator(sep string) Option {
	return func(f *flattener) {
		if sep != "" {
			f.separator = sep
		}
	}
}

// WithMaxDepth bounds how many nested mappings may be entered below the root.
// Zero or a negative value means unbounded.
func WithMaxDepth(depth int) Option {
	return func(f *flattener) {
		f.maxDepth = depth
	}
}
