// Package application wires the JSON engine, the format codec, the HTTP
// handlers and router, and the HTTP server from a loaded configuration,
// leaving the main package to CLI parsing and orchestration.
package application
