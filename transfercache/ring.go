// File: transfercache/ring.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Ring-buffer transfer cache: a FIFO circular buffer guarded by one lock.
// Objects leave in the order they arrived, so the oldest objects are reused
// first. The queue is typed, so cached objects are never boxed.

package transfercache

import (
	"sync"

	"github.com/eapache/queue/v2"
	"github.com/momentics/hioload-alloc/api"
	"github.com/momentics/hioload-alloc/internal/check"
	"golang.org/x/sys/cpu"
)

type ringCache struct {
	mu          sync.Mutex
	ring        *queue.Queue[api.Object]
	capacity    int
	maxCapacity int
	batch       int
	counters
	_ cpu.CacheLinePad
}

func (c *ringCache) init(fwd api.Forwarder, class api.SizeClass, cfg Config) {
	c.batch = fwd.NumObjectsToMove(class)
	check.Condition(c.batch > 0, "ring transfer cache: class has a batch size")
	c.capacity = cfg.InitialCapacityBatches * c.batch
	c.maxCapacity = cfg.MaxCapacityBatches * c.batch
	c.ring = queue.New[api.Object]()
}

func (c *ringCache) tryInsert(batch []api.Object) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ring.Length()+len(batch) > c.capacity {
		return false
	}
	for _, o := range batch {
		c.ring.Add(o)
	}
	return true
}

func (c *ringCache) tryRemove(out []api.Object) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(out)
	if l := c.ring.Length(); n > l {
		n = l
	}
	for i := 0; i < n; i++ {
		out[i] = c.ring.Remove()
	}
	return n
}

// hasSpareCapacity answers from the lock holder's view; the result may be
// stale once the lock is released.
func (c *ringCache) hasSpareCapacity(n int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capacity-c.ring.Length() >= n
}

func (c *ringCache) grow(n int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.capacity+n > c.maxCapacity {
		return false
	}
	c.capacity += n
	return true
}

// shrink gives up one batch of capacity, evicting the oldest objects that no
// longer fit.
func (c *ringCache) shrink(evicted []api.Object) ([]api.Object, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.capacity < c.batch {
		return evicted, false
	}
	for c.ring.Length() > c.capacity-c.batch {
		evicted = append(evicted, c.ring.Remove())
	}
	c.capacity -= c.batch
	return evicted, true
}

func (c *ringCache) drain(evicted []api.Object) []api.Object {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.ring.Length() > 0 {
		evicted = append(evicted, c.ring.Remove())
	}
	c.capacity = 0
	c.maxCapacity = 0
	return evicted
}

func (c *ringCache) record(insert, hit bool) {
	c.mu.Lock()
	c.counters.record(insert, hit)
	c.mu.Unlock()
}

func (c *ringCache) stats() api.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters.snapshot(c.ring.Length(), c.capacity, c.maxCapacity)
}
