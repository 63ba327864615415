// Package flatten converts nested configuration trees, as produced by the YAML,
// Properties and XML decoders, into flat mappings of dotted keys suitable for
// key lookup. Nested mappings are recognised structurally, so any Go map kind
// counts, and traversal is iterative with cycle detection.
package flatten
