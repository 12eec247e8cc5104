// File: internal/pageheap/pageheap.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Central page heap behind the transfer caches. Objects of each size class
// are carved out of fixed-size spans and kept on per-class free lists.

package pageheap

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-alloc/api"
	"github.com/momentics/hioload-alloc/internal/arena"
	"github.com/momentics/hioload-alloc/internal/check"
	"golang.org/x/sys/cpu"
)

const (
	// SpanBytes is the size of memory carved into objects at a time.
	SpanBytes = 64 << 10
	// pageSize is the alignment of every span.
	pageSize = 8 << 10
)

// Lock is the process-wide allocator lock. It serializes span growth and
// teardown walks over allocator-owned structures.
var Lock sync.Mutex

// Stats describes heap activity.
type Stats struct {
	Spans       int64
	MappedBytes int64
	Inserted    int64
	Removed     int64
	Exhaustions int64
}

type freeList struct {
	mu   sync.Mutex
	objs []api.Object
	_    cpu.CacheLinePad
}

// Heap is a thread-safe central heap.
type Heap struct {
	sizes api.SizeMap
	arena *arena.Arena
	limit int64
	lists []freeList

	spans       atomic.Int64
	mapped      atomic.Int64
	inserted    atomic.Int64
	removed     atomic.Int64
	exhaustions atomic.Int64
}

// Option customizes a Heap.
type Option func(*Heap)

// WithLimit caps the bytes the heap may map; zero means unlimited.
func WithLimit(bytes int64) Option {
	return func(h *Heap) { h.limit = bytes }
}

// WithArena sets the arena spans are carved from.
func WithArena(a *arena.Arena) Option {
	return func(h *Heap) { h.arena = a }
}

// New creates a heap serving numClasses size classes.
func New(sizes api.SizeMap, numClasses int, opts ...Option) *Heap {
	h := &Heap{
		sizes: sizes,
		lists: make([]freeList, numClasses),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.arena == nil {
		h.arena = arena.New()
	}
	return h
}

// InsertRange returns objects of class to the heap.
func (h *Heap) InsertRange(class api.SizeClass, batch []api.Object) {
	l := h.list(class)
	l.mu.Lock()
	l.objs = append(l.objs, batch...)
	l.mu.Unlock()
	h.inserted.Add(int64(len(batch)))
}

// RemoveRange fills out with objects of class and returns how many were
// supplied. A short count means the heap reached its limit.
func (h *Heap) RemoveRange(class api.SizeClass, out []api.Object) int {
	l := h.list(class)
	got := 0
	for got < len(out) {
		l.mu.Lock()
		n := len(l.objs)
		take := len(out) - got
		if take > n {
			take = n
		}
		copy(out[got:got+take], l.objs[n-take:])
		l.objs = l.objs[:n-take]
		l.mu.Unlock()
		got += take
		if got == len(out) {
			break
		}
		span, ok := h.grow(class)
		if !ok {
			h.exhaustions.Add(1)
			break
		}
		l.mu.Lock()
		l.objs = append(l.objs, span...)
		l.mu.Unlock()
	}
	h.removed.Add(int64(got))
	return got
}

// grow carves a new span into objects of class.
func (h *Heap) grow(class api.SizeClass) ([]api.Object, bool) {
	size := h.sizes.ClassToSize(class)
	check.Condition(size > 0, "pageheap: class has a size")

	Lock.Lock()
	defer Lock.Unlock()
	if h.limit > 0 && h.mapped.Load()+SpanBytes > h.limit {
		return nil, false
	}
	base := uintptr(h.arena.Alloc(SpanBytes, pageSize))
	h.mapped.Add(SpanBytes)
	h.spans.Add(1)

	objs := make([]api.Object, 0, SpanBytes/size)
	for off := 0; off+size <= SpanBytes; off += size {
		objs = append(objs, api.Object(base+uintptr(off)))
	}
	return objs, true
}

func (h *Heap) list(class api.SizeClass) *freeList {
	check.Condition(class > 0 && int(class) < len(h.lists), "pageheap: size class in range")
	return &h.lists[class]
}

// FreeObjects returns the number of objects of class on the free list.
func (h *Heap) FreeObjects(class api.SizeClass) int {
	l := h.list(class)
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.objs)
}

// Stats returns a snapshot of heap counters.
func (h *Heap) Stats() Stats {
	return Stats{
		Spans:       h.spans.Load(),
		MappedBytes: h.mapped.Load(),
		Inserted:    h.inserted.Load(),
		Removed:     h.removed.Load(),
		Exhaustions: h.exhaustions.Load(),
	}
}

var _ api.CentralHeap = (*Heap)(nil)
