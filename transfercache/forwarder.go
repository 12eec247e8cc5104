// File: transfercache/forwarder.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bindings from the transfer caches to the rest of the allocator.

package transfercache

import (
	"unsafe"

	"github.com/momentics/hioload-alloc/api"
	"github.com/momentics/hioload-alloc/internal/arena"
	"github.com/momentics/hioload-alloc/internal/pageheap"
	"github.com/momentics/hioload-alloc/internal/sizemap"
)

// StaticForwarder wires the size map, the bookkeeping arena and the central
// page heap into a Forwarder.
type StaticForwarder struct {
	sizes api.SizeMap
	arena *arena.Arena
	heap  *pageheap.Heap
}

// ForwarderOption customizes a StaticForwarder.
type ForwarderOption func(*StaticForwarder)

// WithHeapLimit caps the bytes the central heap may map.
func WithHeapLimit(bytes int64) ForwarderOption {
	return func(f *StaticForwarder) {
		f.heap = pageheap.New(f.sizes, sizemap.NumClasses,
			pageheap.WithArena(f.arena), pageheap.WithLimit(bytes))
	}
}

// NewStaticForwarder builds the default collaborators.
func NewStaticForwarder(opts ...ForwarderOption) *StaticForwarder {
	f := &StaticForwarder{
		sizes: sizemap.Default,
		arena: arena.New(),
	}
	f.heap = pageheap.New(f.sizes, sizemap.NumClasses, pageheap.WithArena(f.arena))
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ClassToSize returns the object size of class.
func (f *StaticForwarder) ClassToSize(class api.SizeClass) int {
	return f.sizes.ClassToSize(class)
}

// NumObjectsToMove returns the batch size of class.
func (f *StaticForwarder) NumObjectsToMove(class api.SizeClass) int {
	return f.sizes.NumObjectsToMove(class)
}

// Alloc allocates bookkeeping memory from the arena.
func (f *StaticForwarder) Alloc(size, alignment int) unsafe.Pointer {
	return f.arena.Alloc(size, alignment)
}

// InsertRange releases objects to the central heap.
func (f *StaticForwarder) InsertRange(class api.SizeClass, batch []api.Object) {
	f.heap.InsertRange(class, batch)
}

// RemoveRange takes objects from the central heap.
func (f *StaticForwarder) RemoveRange(class api.SizeClass, out []api.Object) int {
	return f.heap.RemoveRange(class, out)
}

// Heap exposes the central heap.
func (f *StaticForwarder) Heap() *pageheap.Heap { return f.heap }

// Arena exposes the bookkeeping arena.
func (f *StaticForwarder) Arena() *arena.Arena { return f.arena }

var _ api.Forwarder = (*StaticForwarder)(nil)

// BackingTransferCache presents one size class of a Manager as a backing
// store, so a cache layer can sit on top of the transfer caches.
type BackingTransferCache struct {
	class   api.SizeClass
	manager *Manager
}

// NewBackingTransferCache binds class of m.
func NewBackingTransferCache(m *Manager, class api.SizeClass) BackingTransferCache {
	m.checkClass(class)
	return BackingTransferCache{class: class, manager: m}
}

// InsertRange hands batch to the manager.
func (b BackingTransferCache) InsertRange(batch []api.Object) {
	b.manager.InsertRange(b.class, batch)
}

// RemoveRange fills out from the manager.
func (b BackingTransferCache) RemoveRange(out []api.Object) int {
	return b.manager.RemoveRange(b.class, out)
}

// SizeClass returns the bound class.
func (b BackingTransferCache) SizeClass() api.SizeClass { return b.class }
