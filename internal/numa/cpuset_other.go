//go:build !linux
// +build !linux

// File: internal/numa/cpuset_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fixed-size CPU bitmask mirroring unix.CPUSet for platforms without one.

package numa

import "math/bits"

// MaxCPUs is the number of CPUs a CPUSet can describe.
const MaxCPUs = 1024

// CPUSet is a fixed-size CPU bitmask.
type CPUSet [MaxCPUs / 64]uint64

// Zero clears the set.
func (s *CPUSet) Zero() {
	for i := range s {
		s[i] = 0
	}
}

// Set adds cpu to the set; out-of-range values are ignored.
func (s *CPUSet) Set(cpu int) {
	if cpu >= 0 && cpu < MaxCPUs {
		s[cpu/64] |= 1 << (uint(cpu) % 64)
	}
}

// Clear removes cpu from the set.
func (s *CPUSet) Clear(cpu int) {
	if cpu >= 0 && cpu < MaxCPUs {
		s[cpu/64] &^= 1 << (uint(cpu) % 64)
	}
}

// IsSet reports whether cpu is in the set.
func (s *CPUSet) IsSet(cpu int) bool {
	if cpu < 0 || cpu >= MaxCPUs {
		return false
	}
	return s[cpu/64]&(1<<(uint(cpu)%64)) != 0
}

// Count returns the number of CPUs in the set.
func (s *CPUSet) Count() int {
	c := 0
	for _, w := range s {
		c += bits.OnesCount64(w)
	}
	return c
}
