// File: control/platform.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Platform probes shared by every OS.

package control

import (
	"runtime"

	"github.com/momentics/hioload-alloc/affinity"
)

// RegisterPlatformProbes sets CPU related debug probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.os", func() any {
		return runtime.GOOS
	})
	dp.RegisterProbe("platform.fast_cpu", func() any {
		return affinity.FastCPUAvailable()
	})
	registerOSProbes(dp)
}
