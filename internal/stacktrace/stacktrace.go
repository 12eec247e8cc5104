// File: internal/stacktrace/stacktrace.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Sampled allocation stacks and the samples reported for them.

package stacktrace

import (
	"encoding/binary"
	"hash/maphash"
)

// MaxStackDepth bounds the number of frames kept per trace.
const MaxStackDepth = 64

// ProfileType tags what a table aggregates.
type ProfileType int

const (
	ProfileHeap ProfileType = iota
	ProfileAllocations
	ProfilePeakHeap
	ProfileFragmentation
)

func (p ProfileType) String() string {
	switch p {
	case ProfileHeap:
		return "heap"
	case ProfileAllocations:
		return "allocations"
	case ProfilePeakHeap:
		return "peak-heap"
	case ProfileFragmentation:
		return "fragmentation"
	default:
		return "unknown"
	}
}

// Access classifies the memory an allocation was served from.
type Access int

const (
	AccessHot Access = iota
	AccessCold
)

// StackTrace is one sampled allocation.
type StackTrace struct {
	Stack              [MaxStackDepth]uintptr
	Depth              int
	RequestedSize      int
	RequestedAlignment int
	AllocatedSize      int
	AccessHint         uint8
	ColdAllocated      bool
	// Weight is the number of bytes the sample stands for.
	Weight int
}

// Frames returns the captured program counters.
func (t *StackTrace) Frames() []uintptr { return t.Stack[:t.Depth] }

// sameSite reports whether a and b were sampled at the same call site with the
// same allocation shape. Weight does not take part.
func sameSite(a, b *StackTrace) bool {
	return a.Depth == b.Depth &&
		a.RequestedSize == b.RequestedSize &&
		a.RequestedAlignment == b.RequestedAlignment &&
		a.AllocatedSize == b.AllocatedSize &&
		a.AccessHint == b.AccessHint &&
		a.ColdAllocated == b.ColdAllocated &&
		a.Stack == b.Stack
}

var hashSeed = maphash.MakeSeed()

// hash covers exactly the fields sameSite compares.
func (t *StackTrace) hash() uint64 {
	var h maphash.Hash
	h.SetSeed(hashSeed)
	buf := make([]byte, 0, 8*(t.Depth+5))
	for _, pc := range t.Frames() {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(pc))
	}
	buf = binary.LittleEndian.AppendUint64(buf, uint64(t.Depth))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(t.RequestedSize))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(t.RequestedAlignment))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(t.AllocatedSize))
	cold := byte(0)
	if t.ColdAllocated {
		cold = 1
	}
	buf = append(buf, t.AccessHint, cold)
	h.Write(buf)
	return h.Sum64()
}

// allocatedBytes is the number of bytes one unit of count represents.
func allocatedBytes(t *StackTrace, unsample bool) float64 {
	if unsample {
		return float64(t.Weight) * float64(t.AllocatedSize) / float64(t.RequestedSize+1)
	}
	return float64(t.AllocatedSize)
}

// Sample is one aggregated profile record.
type Sample struct {
	// Count is a whole number of objects; Sum is Count * AllocatedSize.
	Count              int64
	Sum                int64
	RequestedSize      int
	RequestedAlignment int
	AllocatedSize      int
	AccessHint         uint8
	AccessAllocated    Access
	Depth              int
	Stack              []uintptr
}
