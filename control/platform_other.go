//go:build !linux
// +build !linux

// File: control/platform_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package control

import "runtime"

func registerOSProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.allowed_cpus", func() any {
		return runtime.NumCPU()
	})
}
