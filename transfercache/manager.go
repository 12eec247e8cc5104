// File: transfercache/manager.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// TransferCacheManager: routes insert/remove traffic to the instance for the
// caller's NUMA partition and arbitrates capacity between size classes.

package transfercache

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-alloc/api"
	"github.com/momentics/hioload-alloc/control"
	"github.com/momentics/hioload-alloc/internal/check"
	"github.com/momentics/hioload-alloc/internal/environment"
	"github.com/momentics/hioload-alloc/internal/experiment"
	"github.com/momentics/hioload-alloc/internal/numa"
	"github.com/momentics/hioload-alloc/internal/pageheap"
	"github.com/momentics/hioload-alloc/internal/validation"
	"golang.org/x/sys/cpu"
)

// entry is one (partition, size class) slot. Only the field matching the
// manager's implementation is ever initialized.
type entry struct {
	legacy legacyCache
	ring   ringCache
}

var _ api.TransferCache = (*Manager)(nil)

// Manager owns every transfer cache instance of the process.
type Manager struct {
	fwd     api.Forwarder
	topo    *numa.Topology
	cfg     Config
	impl    Implementation
	entries [][]entry // [partition][size class]

	_           cpu.CacheLinePad
	nextToEvict atomic.Int64
	_           cpu.CacheLinePad

	evictions atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

type managerOptions struct {
	cfg      Config
	lookup   environment.LookupFunc
	isActive func(experiment.ID) bool
	impl     *Implementation
}

// Option customizes a Manager.
type Option func(*managerOptions)

// WithConfig overrides the instance sizing.
func WithConfig(cfg Config) Option {
	return func(o *managerOptions) { o.cfg = cfg }
}

// WithLookup replaces the environment lookup used to choose the implementation.
func WithLookup(lookup environment.LookupFunc) Option {
	return func(o *managerOptions) { o.lookup = lookup }
}

// WithExperiments replaces the experiment registry.
func WithExperiments(isActive func(experiment.ID) bool) Option {
	return func(o *managerOptions) { o.isActive = isActive }
}

// WithImplementation forces a variant, bypassing ChooseImplementation.
func WithImplementation(impl Implementation) Option {
	return func(o *managerOptions) { o.impl = &impl }
}

// NewManager builds one instance per size class and active partition. A nil
// topo uses the process topology.
func NewManager(fwd api.Forwarder, topo *numa.Topology, opts ...Option) (*Manager, error) {
	o := managerOptions{
		cfg:      DefaultConfig(),
		isActive: experiment.IsActive,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if err := validation.Struct(o.cfg); err != nil {
		return nil, err
	}
	if err := checkSizeMap(fwd, o.cfg.NumClasses); err != nil {
		return nil, err
	}
	if topo == nil {
		topo = numa.Default()
	}

	impl := ImplementationLegacy
	if o.impl != nil {
		impl = *o.impl
		_ = ImplementationToLabel(impl) // crashes on unknown values
	} else {
		var err error
		if impl, err = ChooseImplementation(o.lookup, o.isActive); err != nil {
			return nil, err
		}
	}

	m := &Manager{
		fwd:  fwd,
		topo: topo,
		cfg:  o.cfg,
		impl: impl,
	}
	m.nextToEvict.Store(1)

	if impl != ImplementationNone {
		m.entries = make([][]entry, topo.ActivePartitions())
		for p := range m.entries {
			m.entries[p] = make([]entry, o.cfg.NumClasses)
			for c := 1; c < o.cfg.NumClasses; c++ {
				e := &m.entries[p][c]
				if impl == ImplementationRing {
					e.ring.init(fwd, api.SizeClass(c), o.cfg)
				} else {
					e.legacy.init(fwd, api.SizeClass(c), o.cfg)
				}
			}
		}
	}
	log.Printf("[transfercache] %s implementation, %d partition(s), %d size classes",
		ImplementationToLabel(impl), topo.ActivePartitions(), o.cfg.NumClasses)
	return m, nil
}

// checkSizeMap rejects a class count the forwarder cannot describe.
func checkSizeMap(fwd api.Forwarder, numClasses int) error {
	for c := 1; c < numClasses; c++ {
		if fwd.NumObjectsToMove(api.SizeClass(c)) <= 0 {
			return api.NewError(api.ErrCodeConfiguration, "transfercache: size map has no batch size for class").
				WithContext("class", c).
				WithContext("num_classes", numClasses).
				Wrap(api.ErrInvalidArgument)
		}
	}
	return nil
}

// MustNewManager is NewManager that crashes on error.
func MustNewManager(fwd api.Forwarder, topo *numa.Topology, opts ...Option) *Manager {
	m, err := NewManager(fwd, topo, opts...)
	if err != nil {
		check.Crash(err)
	}
	return m
}

var (
	defaultOnce    sync.Once
	defaultManager *Manager
)

// Default returns the process manager backed by the static forwarder.
func Default() *Manager {
	defaultOnce.Do(func() {
		defaultManager = MustNewManager(NewStaticForwarder(), numa.Default())
	})
	return defaultManager
}

// Implementation returns the active variant.
func (m *Manager) Implementation() Implementation { return m.impl }

// Partitions returns the number of partitions with their own instances.
func (m *Manager) Partitions() int { return m.topo.ActivePartitions() }

// InsertRange hands freed objects of class to the caller's partition.
func (m *Manager) InsertRange(class api.SizeClass, batch []api.Object) {
	m.InsertRangeOn(m.topo.GetCurrentPartition(), class, batch)
}

// InsertRangeOn hands freed objects of class to partition. The objects are
// either cached or released to the central heap; they are never rejected.
func (m *Manager) InsertRangeOn(partition int, class api.SizeClass, batch []api.Object) {
	m.checkClass(class)
	if len(batch) == 0 {
		return
	}
	if m.passThrough() {
		m.fwd.InsertRange(class, batch)
		return
	}
	e := m.entry(partition, class)
	size := m.fwd.NumObjectsToMove(class)
	for len(batch) > 0 {
		n := min(size, len(batch))
		chunk := batch[:n]
		batch = batch[n:]

		hit := m.tryInsert(e, chunk) ||
			(m.makeCacheSpace(partition, class, e, n) && m.tryInsert(e, chunk))
		m.record(e, true, hit)
		if !hit {
			m.fwd.InsertRange(class, chunk)
		}
	}
}

// RemoveRange fills out with objects of class for the caller's partition.
func (m *Manager) RemoveRange(class api.SizeClass, out []api.Object) int {
	return m.RemoveRangeOn(m.topo.GetCurrentPartition(), class, out)
}

// RemoveRangeOn fills out with objects of class from partition, taking the
// shortfall from the central heap. The count is below len(out) only when the
// heap is exhausted.
func (m *Manager) RemoveRangeOn(partition int, class api.SizeClass, out []api.Object) int {
	m.checkClass(class)
	if len(out) == 0 {
		return 0
	}
	if m.passThrough() {
		return m.fwd.RemoveRange(class, out)
	}
	e := m.entry(partition, class)
	got := m.tryRemove(e, out)
	hit := got == len(out)
	m.record(e, false, hit)
	if !hit {
		got += m.fwd.RemoveRange(class, out[got:])
	}
	return got
}

// HasSpareCapacity reports whether the caller's instance for class can take
// another batch without evicting.
func (m *Manager) HasSpareCapacity(class api.SizeClass) bool {
	return m.HasSpareCapacityOn(m.topo.GetCurrentPartition(), class)
}

// HasSpareCapacityOn is HasSpareCapacity for an explicit partition.
func (m *Manager) HasSpareCapacityOn(partition int, class api.SizeClass) bool {
	m.checkClass(class)
	if m.passThrough() {
		return false
	}
	return m.hasSpare(m.entry(partition, class), m.fwd.NumObjectsToMove(class))
}

// DetermineSizeClassToEvict picks the size class to take capacity from on
// behalf of current, which is requesting space.
func (m *Manager) DetermineSizeClassToEvict(current api.SizeClass) api.SizeClass {
	return m.determineVictim(m.topo.GetCurrentPartition(), current)
}

// determineVictim asks nicely once, then insists: the first candidate is
// taken if it is the requester or has spare capacity, otherwise the next
// cursor position is returned unchecked.
func (m *Manager) determineVictim(partition int, current api.SizeClass) api.SizeClass {
	t := m.advanceCursor()
	if t == current {
		return t
	}
	if !m.passThrough() && m.hasSpare(m.entry(partition, t), m.fwd.NumObjectsToMove(t)) {
		return t
	}
	return m.advanceCursor()
}

// advanceCursor reads and bumps the shared cursor. Concurrent callers may
// observe the same value; only round-robin progress matters.
func (m *Manager) advanceCursor() api.SizeClass {
	t := m.nextToEvict.Load()
	if t >= int64(m.cfg.NumClasses) {
		t = 1
	}
	m.nextToEvict.Store(t + 1)
	return api.SizeClass(t)
}

// ShrinkCache removes one batch of capacity from class on partition. Objects
// displaced by the shrink are released to the central heap after the
// instance lock is dropped.
func (m *Manager) ShrinkCache(partition int, class api.SizeClass) bool {
	m.checkClass(class)
	if m.passThrough() {
		return false
	}
	e := m.entry(partition, class)
	var (
		evicted []api.Object
		ok      bool
	)
	if m.impl == ImplementationRing {
		evicted, ok = e.ring.shrink(nil)
	} else {
		evicted, ok = e.legacy.shrink(nil)
	}
	if !ok {
		return false
	}
	m.evictions.Add(1)
	if len(evicted) > 0 {
		m.fwd.InsertRange(class, evicted)
	}
	return true
}

// makeCacheSpace grows e by one batch at the expense of a victim class.
func (m *Manager) makeCacheSpace(partition int, class api.SizeClass, e *entry, n int) bool {
	if m.hasSpare(e, n) {
		return true
	}
	st := m.instanceStats(e)
	batch := m.fwd.NumObjectsToMove(class)
	if st.Capacity+batch > st.MaxCapacity {
		return false
	}
	victim := m.determineVictim(partition, class)
	if !m.ShrinkCache(partition, victim) {
		return false
	}
	if m.grow(e, batch) {
		return true
	}
	// A concurrent inserter grew e first; the victim gets its batch back.
	m.grow(m.entry(partition, victim), m.fwd.NumObjectsToMove(victim))
	return false
}

// Close releases every cached object to the central heap exactly once. It
// walks all instances under the process-wide allocator lock. Operations after
// Close go straight to the heap.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		pageheap.Lock.Lock()
		defer pageheap.Lock.Unlock()

		m.closed.Store(true)
		for p := range m.entries {
			for c := 1; c < len(m.entries[p]); c++ {
				e := &m.entries[p][c]
				var objs []api.Object
				if m.impl == ImplementationRing {
					objs = e.ring.drain(nil)
				} else {
					objs = e.legacy.drain(nil)
				}
				if len(objs) > 0 {
					m.fwd.InsertRange(api.SizeClass(c), objs)
				}
			}
		}
	})
}

// Stats returns counters of the instance for class on partition.
func (m *Manager) Stats(partition int, class api.SizeClass) api.CacheStats {
	m.checkClass(class)
	if m.entries == nil {
		return api.CacheStats{}
	}
	return m.instanceStats(m.entry(partition, class))
}

// Evictions returns the number of successful ShrinkCache calls.
func (m *Manager) Evictions() uint64 { return m.evictions.Load() }

// PublishMetrics writes aggregate transfer cache counters to mr.
func (m *Manager) PublishMetrics(mr *control.MetricsRegistry) {
	var total api.CacheStats
	for p := range m.entries {
		for c := 1; c < len(m.entries[p]); c++ {
			st := m.instanceStats(&m.entries[p][c])
			total.InsertHits += st.InsertHits
			total.InsertMisses += st.InsertMisses
			total.RemoveHits += st.RemoveHits
			total.RemoveMisses += st.RemoveMisses
			total.Used += st.Used
			total.Capacity += st.Capacity
		}
	}
	mr.Set("transfercache.implementation", ImplementationToLabel(m.impl))
	mr.Set("transfercache.insert_hits", total.InsertHits)
	mr.Set("transfercache.insert_misses", total.InsertMisses)
	mr.Set("transfercache.remove_hits", total.RemoveHits)
	mr.Set("transfercache.remove_misses", total.RemoveMisses)
	mr.Set("transfercache.used_objects", total.Used)
	mr.Set("transfercache.capacity_objects", total.Capacity)
	mr.Set("transfercache.evictions", m.Evictions())
}

// RegisterProbes exposes the implementation label and partitioning.
func (m *Manager) RegisterProbes(dbg api.Debug) {
	dbg.RegisterProbe("transfercache.implementation", func() any {
		return ImplementationToLabel(m.impl)
	})
	dbg.RegisterProbe("transfercache.partitions", func() any {
		return m.Partitions()
	})
	dbg.RegisterProbe("numa.topology", func() any {
		return m.topo.String()
	})
}

func (m *Manager) passThrough() bool {
	return m.impl == ImplementationNone || m.closed.Load()
}

func (m *Manager) checkClass(class api.SizeClass) {
	if class <= 0 || int(class) >= m.cfg.NumClasses {
		check.Crash(api.NewError(api.ErrCodeInvariant, "transfercache: size class out of range").
			WithContext("class", int(class)).Wrap(api.ErrInvalidArgument))
	}
}

func (m *Manager) entry(partition int, class api.SizeClass) *entry {
	if partition < 0 || partition >= len(m.entries) {
		check.Crash(api.NewError(api.ErrCodeInvariant,
			fmt.Sprintf("transfercache: partition %d out of range [0,%d)", partition, len(m.entries))).
			Wrap(api.ErrInvalidArgument))
	}
	return &m.entries[partition][class]
}

func (m *Manager) tryInsert(e *entry, batch []api.Object) bool {
	if m.impl == ImplementationRing {
		return e.ring.tryInsert(batch)
	}
	return e.legacy.tryInsert(batch)
}

func (m *Manager) tryRemove(e *entry, out []api.Object) int {
	if m.impl == ImplementationRing {
		return e.ring.tryRemove(out)
	}
	return e.legacy.tryRemove(out)
}

func (m *Manager) hasSpare(e *entry, n int) bool {
	if m.impl == ImplementationRing {
		return e.ring.hasSpareCapacity(n)
	}
	return e.legacy.hasSpareCapacity(n)
}

func (m *Manager) grow(e *entry, n int) bool {
	if m.impl == ImplementationRing {
		return e.ring.grow(n)
	}
	return e.legacy.grow(n)
}

func (m *Manager) record(e *entry, insert, hit bool) {
	if m.impl == ImplementationRing {
		e.ring.record(insert, hit)
		return
	}
	e.legacy.record(insert, hit)
}

func (m *Manager) instanceStats(e *entry) api.CacheStats {
	if m.impl == ImplementationRing {
		return e.ring.stats()
	}
	return e.legacy.stats()
}
