//go:build linux
// +build linux

// File: affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux-specific implementation for thread CPU affinity and getcpu(2).

package affinity

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

var (
	fastOnce sync.Once
	fastCPU  bool
)

// setAffinityPlatform sets thread affinity to a given CPU for Linux.
func setAffinityPlatform(cpuID int) error {
	var set unix.CPUSet
	if cpuID >= 0 {
		set.Set(cpuID)
	}
	if set.Count() == 0 {
		return fmt.Errorf("affinity: cpu %d out of range", cpuID)
	}
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: sched_setaffinity failed: %w", err)
	}
	return nil
}

// currentCPUPlatform issues getcpu(2).
func currentCPUPlatform() int {
	var cpu, node uint32
	_, _, errno := unix.RawSyscall(unix.SYS_GETCPU,
		uintptr(unsafe.Pointer(&cpu)), uintptr(unsafe.Pointer(&node)), 0)
	if errno != 0 {
		return -1
	}
	return int(cpu)
}

func fastCPUAvailablePlatform() bool {
	fastOnce.Do(func() {
		fastCPU = currentCPUPlatform() >= 0
	})
	return fastCPU
}
