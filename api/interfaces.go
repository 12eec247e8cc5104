// File: api/interfaces.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Contracts between the transfer cache layer and its collaborators.

package api

import "unsafe"

// SizeMap describes size-class geometry.
type SizeMap interface {
	ClassToSize(class SizeClass) int
	NumObjectsToMove(class SizeClass) int
}

// CentralHeap is the page-level heap a transfer cache falls back to on
// underflow and overflow. RemoveRange returns fewer than len(out) objects
// only when the heap itself is exhausted.
type CentralHeap interface {
	InsertRange(class SizeClass, batch []Object)
	RemoveRange(class SizeClass, out []Object) int
}

// Forwarder supplies everything a transfer cache instance needs from the
// rest of the allocator.
type Forwarder interface {
	SizeMap
	CentralHeap
	// Alloc returns zeroed memory for cache bookkeeping. It never returns nil.
	Alloc(size, alignment int) unsafe.Pointer
}

// TransferCache is the capability set every cache implementation exposes.
type TransferCache interface {
	InsertRange(class SizeClass, batch []Object)
	RemoveRange(class SizeClass, out []Object) int
	HasSpareCapacity(class SizeClass) bool
}
