// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics and debug introspection for the allocator.
//
// Provides concurrent-safe primitives including:
//   - A metrics registry the transfer cache publishes its counters into
//   - Named debug probes and state dumps
//   - Platform probes (CPU count, fast current-CPU support)
//
// This package is cross-platform and build-tag-partitioned as needed.
package control
