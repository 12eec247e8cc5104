// Package api
// Author: momentics@gmail.com
//
// CPU identification used for NUMA partition routing.

package api

// CPUSource reports the CPU the calling thread currently runs on. The answer
// may be stale by the time it is used; callers must tolerate migration.
type CPUSource interface {
	// IsFast reports whether CurrentCPU is cheap enough for the allocation path.
	IsFast() bool
	// CurrentCPU returns the current CPU id, or -1 when unknown.
	CurrentCPU() int
}
