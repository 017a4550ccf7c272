// Package ir provides the canonical intermediate representation types for
// arrowpush.
//
// This package contains type definitions and content hashing only. All other
// internal packages import ir; ir imports nothing internal, which keeps it the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Atom indices are 0-based ints, in the input order of the structure text
//   - No float types in anything that is hashed
//   - All JSON tags use snake_case
//   - Audit ordering uses logical sequence numbers, never wall-clock time
package ir
