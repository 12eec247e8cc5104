// File: internal/stacktrace/bucket.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stacktrace

import (
	"github.com/momentics/hioload-alloc/internal/pageheap"
)

type bucket struct {
	hash        uint64
	trace       StackTrace
	count       float64
	totalWeight float64
	next        *bucket
}

// bucketAllocator recycles buckets across tables. Callers hold pageheap.Lock.
type bucketAllocator struct {
	free  *bucket
	inUse int
}

var buckets bucketAllocator

func (a *bucketAllocator) new() *bucket {
	b := a.free
	if b != nil {
		a.free = b.next
		*b = bucket{}
	} else {
		b = new(bucket)
	}
	a.inUse++
	return b
}

func (a *bucketAllocator) delete(b *bucket) {
	*b = bucket{next: a.free}
	a.free = b
	a.inUse--
}

// BucketsInUse returns the number of buckets held by open tables.
func BucketsInUse() int {
	pageheap.Lock.Lock()
	defer pageheap.Lock.Unlock()
	return buckets.inUse
}
