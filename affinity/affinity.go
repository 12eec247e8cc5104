// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for CPU affinity and current-CPU identification.
// Platform-specific implementations are located in separate files
// (affinity_linux.go, affinity_stub.go) guarded by build tags.

package affinity

import "github.com/momentics/hioload-alloc/api"

// SetAffinity pins current OS thread to a given logical CPU/core on supported platforms.
// Callers must hold runtime.LockOSThread for the pin to be meaningful.
// On unsupported platforms returns an error.
func SetAffinity(cpuID int) error {
	return setAffinityPlatform(cpuID)
}

// CurrentCPU returns the CPU the calling thread runs on, or -1 when unknown.
func CurrentCPU() int {
	return currentCPUPlatform()
}

// FastCPUAvailable reports whether CurrentCPU is served without a slow path.
// The probe runs once per process.
func FastCPUAvailable() bool {
	return fastCPUAvailablePlatform()
}

type systemCPU struct{}

func (systemCPU) IsFast() bool    { return FastCPUAvailable() }
func (systemCPU) CurrentCPU() int { return CurrentCPU() }

// System is the process CPU source.
var System api.CPUSource = systemCPU{}
