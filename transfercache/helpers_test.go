// File: transfercache/helpers_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transfercache

import (
	"errors"
	"io"
	"io/fs"
	"strings"
	"sync"
	"testing"
	"unsafe"

	"github.com/momentics/hioload-alloc/api"
	"github.com/momentics/hioload-alloc/internal/environment"
	"github.com/momentics/hioload-alloc/internal/numa"
)

const testBatch = 4

// fakeForwarder is a central heap that mints fresh objects on demand and
// counts the traffic the manager sends it.
type fakeForwarder struct {
	mu       sync.Mutex
	limit    int
	next     api.Object
	created  int
	free     map[api.SizeClass][]api.Object
	inserted int
	removed  int
	allocs   int
	keep     [][]api.Object
	// onInsert runs after InsertRange, outside the forwarder lock.
	onInsert func(class api.SizeClass)
}

func newFakeForwarder(limit int) *fakeForwarder {
	return &fakeForwarder{limit: limit, next: 1, free: make(map[api.SizeClass][]api.Object)}
}

func (f *fakeForwarder) ClassToSize(class api.SizeClass) int { return int(class) * 8 }

func (f *fakeForwarder) NumObjectsToMove(api.SizeClass) int { return testBatch }

func (f *fakeForwarder) Alloc(size, alignment int) unsafe.Pointer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allocs++
	buf := make([]api.Object, size/int(unsafe.Sizeof(api.Object(0)))+1)
	f.keep = append(f.keep, buf)
	return unsafe.Pointer(&buf[0])
}

func (f *fakeForwarder) InsertRange(class api.SizeClass, batch []api.Object) {
	f.mu.Lock()
	f.free[class] = append(f.free[class], batch...)
	f.inserted += len(batch)
	hook := f.onInsert
	f.mu.Unlock()
	if hook != nil {
		hook(class)
	}
}

func (f *fakeForwarder) RemoveRange(class api.SizeClass, out []api.Object) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	got := 0
	for got < len(out) {
		if l := f.free[class]; len(l) > 0 {
			out[got] = l[len(l)-1]
			f.free[class] = l[:len(l)-1]
		} else if f.limit == 0 || f.created < f.limit {
			out[got] = f.next
			f.next++
			f.created++
		} else {
			break
		}
		got++
	}
	f.removed += got
	return got
}

func (f *fakeForwarder) counts() (inserted, removed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inserted, f.removed
}

func (f *fakeForwarder) freeOf(class api.SizeClass) []api.Object {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.Object(nil), f.free[class]...)
}

var _ api.Forwarder = (*fakeForwarder)(nil)

type fakeCPU struct{ cpu int }

func (f *fakeCPU) IsFast() bool    { return true }
func (f *fakeCPU) CurrentCPU() int { return f.cpu }

func singlePartition(t *testing.T) *numa.Topology {
	t.Helper()
	topo, err := numa.NewTopology(numa.Config{NumPartitions: 1, ScaleBy: 1})
	if err != nil {
		t.Fatalf("NewTopology: %v", err)
	}
	return topo
}

// twoPartitions builds a topology where CPUs 0-3 sit on node 0 and 4-7 on
// node 1.
func twoPartitions(t *testing.T, cpu *fakeCPU) *numa.Topology {
	t.Helper()
	lists := []string{"0-3\n", "4-7\n"}
	topo, err := numa.NewTopology(numa.DefaultConfig(),
		numa.WithOpener(func(node int) (io.ReadCloser, error) {
			if node >= len(lists) {
				return nil, &fs.PathError{Op: "open", Path: "node", Err: fs.ErrNotExist}
			}
			return io.NopCloser(strings.NewReader(lists[node])), nil
		}),
		numa.WithLookup(environment.FromMap(map[string]string{numa.EnvNumaAware: "1"})),
		numa.WithCPUSource(cpu),
		numa.WithNumCPUs(func() int { return 8 }),
	)
	if err != nil {
		t.Fatalf("NewTopology: %v", err)
	}
	if !topo.NumaAware() {
		t.Fatal("two node topology is not NUMA aware")
	}
	return topo
}

func testConfig(initial, max, classes int) Config {
	return Config{InitialCapacityBatches: initial, MaxCapacityBatches: max, NumClasses: classes}
}

func newTestManager(t *testing.T, impl Implementation, cfg Config, fwd api.Forwarder, topo *numa.Topology) *Manager {
	t.Helper()
	m, err := NewManager(fwd, topo, WithConfig(cfg), WithImplementation(impl))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

// cachingImpls are the variants that actually hold objects.
var cachingImpls = []Implementation{ImplementationLegacy, ImplementationRing}

func objs(from, n int) []api.Object {
	out := make([]api.Object, n)
	for i := range out {
		out[i] = api.Object(from + i)
	}
	return out
}

func equalObjs(a, b []api.Object) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func expectCrash(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		err, ok := recover().(error)
		if !ok {
			t.Fatal("expected a crash")
		}
		var apiErr *api.Error
		if !errors.As(err, &apiErr) {
			t.Fatalf("crash value %T is not *api.Error", err)
		}
		if target != nil && !errors.Is(err, target) {
			t.Fatalf("crash %v does not match %v", err, target)
		}
	}()
	fn()
}
