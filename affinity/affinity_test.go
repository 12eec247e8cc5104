package affinity

import "testing"

func TestCurrentCPUWithinRange(t *testing.T) {
	cpu := CurrentCPU()
	if !FastCPUAvailable() {
		if cpu != -1 {
			t.Errorf("CurrentCPU = %d without fast path, want -1", cpu)
		}
		return
	}
	if cpu < 0 {
		t.Fatalf("CurrentCPU = %d with fast path available", cpu)
	}
}

func TestSystemSourceDelegates(t *testing.T) {
	if System.IsFast() != FastCPUAvailable() {
		t.Error("System.IsFast disagrees with FastCPUAvailable")
	}
}
