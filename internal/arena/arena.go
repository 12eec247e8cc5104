// File: internal/arena/arena.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bump arena for allocator bookkeeping. Memory handed out by the arena is
// never returned individually; Release unmaps everything at teardown.

package arena

import (
	"sync"
	"unsafe"

	"github.com/momentics/hioload-alloc/internal/check"
)

// chunkSize is the granularity of memory requested from the platform.
const chunkSize = 128 << 10

// Stats describes arena usage.
type Stats struct {
	Mapped    int64
	Allocated int64
	Chunks    int
}

// Arena is a thread-safe bump allocator.
type Arena struct {
	mu     sync.Mutex
	chunks [][]byte
	free   []byte
	stats  Stats
}

// New returns an empty arena.
func New() *Arena {
	return &Arena{}
}

// Alloc returns size zeroed bytes aligned to alignment, which must be a power
// of two. Platform mapping failures are fatal.
func (a *Arena) Alloc(size, alignment int) unsafe.Pointer {
	check.Condition(size > 0, "arena alloc size > 0")
	check.Condition(alignment > 0 && alignment&(alignment-1) == 0, "arena alignment is a power of two")

	a.mu.Lock()
	defer a.mu.Unlock()

	pad := a.padding(alignment)
	if pad+size > len(a.free) {
		n := chunkSize
		if size+alignment > n {
			n = size + alignment
		}
		mem, err := mapChunk(n)
		if err != nil {
			check.Crash(err)
		}
		a.chunks = append(a.chunks, mem)
		a.free = mem
		a.stats.Mapped += int64(len(mem))
		a.stats.Chunks++
		pad = a.padding(alignment)
	}
	p := unsafe.Pointer(&a.free[pad])
	a.free = a.free[pad+size:]
	a.stats.Allocated += int64(size)
	return p
}

func (a *Arena) padding(alignment int) int {
	if len(a.free) == 0 {
		return 0
	}
	addr := uintptr(unsafe.Pointer(&a.free[0]))
	return int((uintptr(alignment) - addr%uintptr(alignment)) % uintptr(alignment))
}

// Stats returns a snapshot of arena usage.
func (a *Arena) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Release returns all chunks to the platform. Pointers obtained from Alloc
// must not be used afterwards.
func (a *Arena) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, c := range a.chunks {
		unmapChunk(c)
	}
	a.chunks = nil
	a.free = nil
	a.stats = Stats{}
}
