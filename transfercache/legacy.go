// File: transfercache/legacy.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Legacy transfer cache: a LIFO slot array guarded by one lock. Slot storage
// comes from the allocator arena so the cache never touches the Go heap on
// the hot path.

package transfercache

import (
	"sync"
	"unsafe"

	"github.com/momentics/hioload-alloc/api"
	"github.com/momentics/hioload-alloc/internal/check"
	"golang.org/x/sys/cpu"
)

// counters are guarded by the owning instance lock.
type counters struct {
	insertHits   uint64
	insertMisses uint64
	removeHits   uint64
	removeMisses uint64
}

type legacyCache struct {
	mu          sync.Mutex
	slots       []api.Object
	used        int
	capacity    int
	maxCapacity int
	batch       int
	counters
	_ cpu.CacheLinePad
}

func (c *legacyCache) init(fwd api.Forwarder, class api.SizeClass, cfg Config) {
	c.batch = fwd.NumObjectsToMove(class)
	check.Condition(c.batch > 0, "legacy transfer cache: class has a batch size")
	c.capacity = cfg.InitialCapacityBatches * c.batch
	c.maxCapacity = cfg.MaxCapacityBatches * c.batch

	var zero api.Object
	mem := fwd.Alloc(c.maxCapacity*int(unsafe.Sizeof(zero)), int(unsafe.Alignof(zero)))
	c.slots = unsafe.Slice((*api.Object)(mem), c.maxCapacity)
}

func (c *legacyCache) tryInsert(batch []api.Object) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.used+len(batch) > c.capacity {
		return false
	}
	copy(c.slots[c.used:], batch)
	c.used += len(batch)
	return true
}

func (c *legacyCache) tryRemove(out []api.Object) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(out)
	if n > c.used {
		n = c.used
	}
	copy(out, c.slots[c.used-n:c.used])
	c.used -= n
	return n
}

func (c *legacyCache) hasSpareCapacity(n int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capacity-c.used >= n
}

func (c *legacyCache) grow(n int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.capacity+n > c.maxCapacity {
		return false
	}
	c.capacity += n
	return true
}

// shrink gives up one batch of capacity. Objects that no longer fit are
// appended to evicted for the caller to release outside the lock.
func (c *legacyCache) shrink(evicted []api.Object) ([]api.Object, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.capacity < c.batch {
		return evicted, false
	}
	if over := c.used - (c.capacity - c.batch); over > 0 {
		evicted = append(evicted, c.slots[c.used-over:c.used]...)
		c.used -= over
	}
	c.capacity -= c.batch
	check.Condition(c.used <= c.capacity, "legacy transfer cache: used <= capacity")
	return evicted, true
}

func (c *legacyCache) drain(evicted []api.Object) []api.Object {
	c.mu.Lock()
	defer c.mu.Unlock()
	evicted = append(evicted, c.slots[:c.used]...)
	c.used = 0
	c.capacity = 0
	c.maxCapacity = 0
	c.slots = nil
	return evicted
}

func (c *legacyCache) record(insert, hit bool) {
	c.mu.Lock()
	c.counters.record(insert, hit)
	c.mu.Unlock()
}

func (c *legacyCache) stats() api.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters.snapshot(c.used, c.capacity, c.maxCapacity)
}

func (k *counters) record(insert, hit bool) {
	switch {
	case insert && hit:
		k.insertHits++
	case insert:
		k.insertMisses++
	case hit:
		k.removeHits++
	default:
		k.removeMisses++
	}
}

func (k *counters) snapshot(used, capacity, maxCapacity int) api.CacheStats {
	return api.CacheStats{
		InsertHits:   k.insertHits,
		InsertMisses: k.insertMisses,
		RemoveHits:   k.removeHits,
		RemoveMisses: k.removeMisses,
		Used:         used,
		Capacity:     capacity,
		MaxCapacity:  maxCapacity,
	}
}
