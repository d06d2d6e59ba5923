//go:build !memfuzz_no64

package parser

// Allow64 gates 64-bit integer arithmetic: it may be excluded by a
// compile-time toggle, in which case the engine rejects such literals
// at parse time. Default build: allowed.
const Allow64 = true
