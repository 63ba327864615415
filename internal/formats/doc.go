// Package formats reads and writes the structured text formats that sit next
// to JSON in configuration work: YAML, Java style Properties, CSV and XML.
//
// A Codec decodes any of them into a generic tree whose root is a mapping,
// encodes trees back out, converts between formats and loads several files
// into one flat mapping of dotted keys.
package formats
