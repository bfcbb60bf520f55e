// Package program defines the immutable statement table the simulator runs.
//
// It is intentionally split into:
//   - Statement: one timed unit of execution (cycle cost + successor expression)
//   - Program: the validated, read-only table plus its designated start
//
// A Program's identity (Hash) is computed from statement content only, so the
// same table always yields the same identity regardless of how it was loaded.
package program
