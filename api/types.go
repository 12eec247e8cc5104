// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations for size classes and cached objects.

package api

// SizeClass identifies a bucket of same-sized objects. Class 0 is reserved.
type SizeClass int

// Object is the address of a free object owned by the allocator. Objects live
// outside the Go heap, so they are carried as plain addresses.
type Object uintptr

// BindMode governs whether memory backing a NUMA partition must reside on
// that partition's nodes.
type BindMode int

const (
	BindNone BindMode = iota
	BindAdvisory
	BindStrict
)

func (m BindMode) String() string {
	switch m {
	case BindNone:
		return "no-binding"
	case BindAdvisory:
		return "advisory-binding"
	case BindStrict:
		return "strict-binding"
	default:
		return "unknown"
	}
}

// CacheStats is a per-instance snapshot of transfer cache counters.
type CacheStats struct {
	InsertHits   uint64
	InsertMisses uint64
	RemoveHits   uint64
	RemoveMisses uint64
	Used         int
	Capacity     int
	MaxCapacity  int
}
