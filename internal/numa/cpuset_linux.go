//go:build linux
// +build linux

// File: internal/numa/cpuset_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package numa

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// CPUSet is the kernel cpu_set_t.
type CPUSet = unix.CPUSet

// MaxCPUs is the number of CPUs a CPUSet can describe (CPU_SETSIZE).
const MaxCPUs = int(unsafe.Sizeof(unix.CPUSet{})) * 8
