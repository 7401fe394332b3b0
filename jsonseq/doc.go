// Package jsonseq reads a stream of whitespace-delimited JSON values one
// top-level value at a time.
//
// Values are kept as raw bytes and inspected lazily, so a value of no
// interest costs one decode pass. Every value and every error carries the
// 1-based line of the input on which it ended.
package jsonseq
