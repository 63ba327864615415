// Package jsonutil is a small facade over interchangeable JSON engines.
//
// A Util is built once around an Engine (fast, lenient or binding) and then
// offers the same surface regardless of the engine: decoding into values,
// encoding, single-member lookups with loose type coercion, member edits,
// pretty printing and validation. Failures are logged through zap and
// returned as *Error values wrapping one of the package sentinels.
package jsonutil
