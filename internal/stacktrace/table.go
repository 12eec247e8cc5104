// File: internal/stacktrace/table.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Hash table that aggregates sampled stacks into profile samples.

package stacktrace

import (
	"github.com/momentics/hioload-alloc/internal/check"
	"github.com/momentics/hioload-alloc/internal/pageheap"
)

// mergeBuckets is the table width when identical traces are merged.
const mergeBuckets = 1 << 14

// Table collects stack traces for one profile. It is not safe for
// concurrent use.
type Table struct {
	typ         ProfileType
	period      int64
	mask        uint64
	table       []*bucket
	depthTotal  int
	bucketTotal int
	merge       bool
	unsample    bool
	closed      bool
}

// NewTable creates a table. With merge set, traces from the same call site
// share one bucket; otherwise every trace gets its own.
func NewTable(typ ProfileType, period int64, merge, unsample bool) *Table {
	n := 1
	if merge {
		n = mergeBuckets
	}
	return &Table{
		typ:      typ,
		period:   period,
		mask:     uint64(n - 1),
		table:    make([]*bucket, n),
		merge:    merge,
		unsample: unsample,
	}
}

// Type returns the profile type.
func (t *Table) Type() ProfileType { return t.typ }

// Period returns the sampling period the traces were taken with.
func (t *Table) Period() int64 { return t.period }

// DepthTotal returns the summed depth of all distinct traces.
func (t *Table) DepthTotal() int { return t.depthTotal }

// BucketTotal returns the number of distinct traces.
func (t *Table) BucketTotal() int { return t.bucketTotal }

// AddTrace records count occurrences of tr. A merged trace keeps the
// count-weighted average weight, rounded to nearest.
func (t *Table) AddTrace(count float64, tr StackTrace) {
	check.Condition(!t.closed, "stack trace table is open")
	check.Condition(tr.Depth >= 0 && tr.Depth <= MaxStackDepth, "stack depth in range")
	check.Condition(tr.AllocatedSize > 0, "sampled object has a size")

	h := tr.hash()
	idx := h & t.mask

	var b *bucket
	if t.merge {
		for b = t.table[idx]; b != nil; b = b.next {
			if b.hash == h && sameSite(&b.trace, &tr) {
				break
			}
		}
	}
	if b != nil {
		b.count += count
		b.totalWeight += count * float64(tr.Weight)
		b.trace.Weight = int(b.totalWeight/b.count + 0.5)
		return
	}

	t.depthTotal += tr.Depth
	t.bucketTotal++

	pageheap.Lock.Lock()
	b = buckets.new()
	pageheap.Lock.Unlock()

	b.hash = h
	b.trace = tr
	b.count = count
	b.totalWeight = float64(tr.Weight) * count
	b.next = t.table[idx]
	t.table[idx] = b
}

// Iterate calls fn for every bucket. Byte totals are rounded to the nearest
// whole number of objects.
func (t *Table) Iterate(fn func(Sample)) {
	for _, head := range t.table {
		for b := head; b != nil; b = b.next {
			allocated := int64(b.trace.AllocatedSize)
			bytes := int64(b.count*allocatedBytes(&b.trace, t.unsample) + 0.5)

			s := Sample{
				Count:              (bytes + allocated/2) / allocated,
				RequestedSize:      b.trace.RequestedSize,
				RequestedAlignment: b.trace.RequestedAlignment,
				AllocatedSize:      b.trace.AllocatedSize,
				AccessHint:         b.trace.AccessHint,
				AccessAllocated:    AccessHot,
				Depth:              b.trace.Depth,
				Stack:              append([]uintptr(nil), b.trace.Frames()...),
			}
			if b.trace.ColdAllocated {
				s.AccessAllocated = AccessCold
			}
			s.Sum = s.Count * allocated
			fn(s)
		}
	}
}

// Close returns every bucket to the shared allocator. Later calls are no-ops.
func (t *Table) Close() {
	if t.closed {
		return
	}
	t.closed = true

	pageheap.Lock.Lock()
	defer pageheap.Lock.Unlock()
	for i, b := range t.table {
		for b != nil {
			next := b.next
			buckets.delete(b)
			b = next
		}
		t.table[i] = nil
	}
}
