//go:build memfuzz_no64

package parser

// Allow64 false: the memfuzz_no64 build tag excludes 64-bit integer
// arithmetic; s64/u64 literals and casts are parse errors.
const Allow64 = false
