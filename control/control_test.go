// File: control/control_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package control_test

import (
	"runtime"
	"sync"
	"testing"

	"github.com/momentics/hioload-alloc/control"
)

func TestMetricsRegistry_Basic(t *testing.T) {
	reg := control.NewMetricsRegistry()
	if !reg.Updated().IsZero() {
		t.Fatal("fresh registry reports an update")
	}
	reg.Set("foo.count", int64(42))
	reg.Set("bar.status", "ok")

	metrics := reg.GetSnapshot()
	if metrics["foo.count"] != int64(42) {
		t.Error("MetricsRegistry: value mismatch")
	}
	if metrics["bar.status"] != "ok" {
		t.Error("MetricsRegistry: string value mismatch")
	}
	if v, ok := reg.Get("foo.count"); !ok || v != int64(42) {
		t.Errorf("Get = %v, %v", v, ok)
	}
	if _, ok := reg.Get("missing"); ok {
		t.Error("Get found a missing key")
	}
	keys := reg.Keys()
	if len(keys) != 2 || keys[0] != "bar.status" || keys[1] != "foo.count" {
		t.Errorf("Keys = %v", keys)
	}
	if reg.Updated().IsZero() {
		t.Error("Updated not set after Set")
	}
}

func TestMetricsRegistry_SnapshotIsCopy(t *testing.T) {
	reg := control.NewMetricsRegistry()
	reg.Set("a", 1)
	snap := reg.GetSnapshot()
	snap["a"] = 2
	if v, _ := reg.Get("a"); v != 1 {
		t.Errorf("snapshot aliases registry: %v", v)
	}
}

func TestMetricsRegistry_Concurrent(t *testing.T) {
	reg := control.NewMetricsRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				reg.Set("k", j)
				_ = reg.GetSnapshot()
			}
		}(i)
	}
	wg.Wait()
	if _, ok := reg.Get("k"); !ok {
		t.Fatal("key lost")
	}
}

func TestDebugProbes(t *testing.T) {
	dp := control.NewDebugProbes()
	calls := 0
	dp.RegisterProbe("x", func() any { calls++; return calls })

	if v, ok := dp.Probe("x"); !ok || v != 1 {
		t.Errorf("Probe = %v, %v", v, ok)
	}
	if _, ok := dp.Probe("y"); ok {
		t.Error("unknown probe reported")
	}
	state := dp.DumpState()
	if state["x"] != 2 {
		t.Errorf("DumpState[x] = %v", state["x"])
	}

	dp.RegisterProbe("x", func() any { return "replaced" })
	if v, _ := dp.Probe("x"); v != "replaced" {
		t.Errorf("probe not replaced: %v", v)
	}
}

func TestDebugProbes_ProbeMayRegister(t *testing.T) {
	dp := control.NewDebugProbes()
	dp.RegisterProbe("outer", func() any {
		dp.RegisterProbe("inner", func() any { return true })
		return true
	})
	dp.DumpState()
	if _, ok := dp.Probe("inner"); !ok {
		t.Error("probe registered from a probe is missing")
	}
}

func TestRegisterPlatformProbes(t *testing.T) {
	dp := control.NewDebugProbes()
	control.RegisterPlatformProbes(dp)
	state := dp.DumpState()

	if state["platform.cpus"] != runtime.NumCPU() {
		t.Errorf("platform.cpus = %v", state["platform.cpus"])
	}
	if state["platform.os"] != runtime.GOOS {
		t.Errorf("platform.os = %v", state["platform.os"])
	}
	if _, ok := state["platform.fast_cpu"].(bool); !ok {
		t.Errorf("platform.fast_cpu = %T", state["platform.fast_cpu"])
	}
	if n, ok := state["platform.allowed_cpus"].(int); !ok || n == 0 {
		t.Errorf("platform.allowed_cpus = %v", state["platform.allowed_cpus"])
	}
}
