// File: internal/numa/topology.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// NUMA discovery and CPU to partition routing.

package numa

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"runtime"
	"sync"

	"github.com/momentics/hioload-alloc/affinity"
	"github.com/momentics/hioload-alloc/api"
	"github.com/momentics/hioload-alloc/internal/check"
	"github.com/momentics/hioload-alloc/internal/environment"
	"github.com/momentics/hioload-alloc/internal/validation"
)

const (
	// DefaultPartitions is the number of partitions built into the allocator.
	DefaultPartitions = 2
	// DefaultScaleBy leaves no room for flags in the scaled partition.
	DefaultScaleBy = 1
	// EnvNumaAware selects NUMA awareness and the bind mode.
	EnvNumaAware = "TCMALLOC_NUMA_AWARE"

	// cpuFudge shifts table indexes so that an unknown CPU (-1) reads the
	// first slot, which always holds partition 0.
	cpuFudge = 1
	// maxNodes is the width of a partition's node bitmask.
	maxNodes = 64
)

// Opener opens the cpulist of a NUMA node. Missing nodes must produce an
// error matching fs.ErrNotExist.
type Opener func(node int) (io.ReadCloser, error)

// InitParams carries the tables and collaborators InitTopology works on.
type InitParams struct {
	// CPUToScaledPartition is indexed by CPU id plus the fudge offset.
	CPUToScaledPartition []uint64
	// PartitionToNodes holds one node bitmask per partition.
	PartitionToNodes []uint64
	BindMode         *api.BindMode
	NumPartitions    int
	ScaleBy          int

	Open                 Opener
	Lookup               environment.LookupFunc
	CPU                  api.CPUSource
	NumCPUs              func() int
	DefaultWantNumaAware func() bool
}

// TableSize is the length a CPUToScaledPartition table must have.
func TableSize() int {
	return MaxCPUs + cpuFudge
}

// NodeToPartition maps a NUMA node to the partition caching for it.
func NodeToPartition(node, numPartitions int) int {
	return node % numPartitions
}

// InitTopology fills the partition tables and reports whether the system is
// NUMA aware. The tables must be zeroed on entry. Errors are fatal to the
// allocator.
func InitTopology(p InitParams) (bool, error) {
	if p.NumPartitions < 1 || len(p.PartitionToNodes) < p.NumPartitions || p.ScaleBy < 1 {
		return false, api.NewError(api.ErrCodeInvariant, "numa: bad partition parameters").
			WithContext("partitions", p.NumPartitions).
			WithContext("scale_by", p.ScaleBy).
			Wrap(api.ErrInvalidArgument)
	}

	// Node 0 always maps to partition 0, whatever else happens below.
	p.PartitionToNodes[NodeToPartition(0, p.NumPartitions)] |= 1 << 0

	if p.NumPartitions == 1 {
		return false, nil
	}

	// Routing reads the current CPU on every operation.
	if p.CPU == nil || !p.CPU.IsFast() {
		return false, nil
	}

	mode := p.BindMode
	if mode == nil {
		mode = new(api.BindMode)
	}
	want, err := resolveNumaAware(environment.OrDefault(p.Lookup), mode, p.DefaultWantNumaAware)
	if err != nil || !want {
		return false, err
	}

	numCPUs := runtime.NumCPU()
	if p.NumCPUs != nil {
		numCPUs = p.NumCPUs()
	}
	if numCPUs > len(p.CPUToScaledPartition)-cpuFudge {
		return false, api.NewError(api.ErrCodeInvariant, "numa: cpu count exceeds partition table").
			WithContext("cpus", numCPUs).
			WithContext("capacity", len(p.CPUToScaledPartition)-cpuFudge).
			Wrap(api.ErrNotSupported)
	}

	open := p.Open
	if open == nil {
		open = OpenSysfsCpulist
	}

	numaAware := false
	for node := 0; ; node++ {
		f, err := open(node)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				break
			}
			return false, api.NewError(api.ErrCodeIO, "numa: cannot open node cpulist").
				WithContext("node", node).Wrap(err)
		}
		if node >= maxNodes {
			f.Close()
			return false, api.NewError(api.ErrCodeInvariant, "numa: node id exceeds node mask").
				WithContext("node", node).Wrap(api.ErrNotSupported)
		}

		partition := NodeToPartition(node, p.NumPartitions)
		p.PartitionToNodes[partition] |= 1 << uint(node)

		// Partition 0 is the zero value of every table entry.
		if partition == 0 {
			f.Close()
			continue
		}

		cpus, err := ParseCpulist(f.Read)
		f.Close()
		if err != nil {
			return false, err
		}

		scaled := uint64(partition * p.ScaleBy)
		for cpu := 0; cpu < MaxCPUs; cpu++ {
			if !cpus.IsSet(cpu) {
				continue
			}
			idx := cpu + cpuFudge
			if idx >= len(p.CPUToScaledPartition) {
				return false, api.NewError(api.ErrCodeInvariant, "numa: cpu beyond partition table").
					WithContext("cpu", cpu).Wrap(api.ErrNotSupported)
			}
			p.CPUToScaledPartition[idx] = scaled
		}

		if cpus.Count() != 0 {
			numaAware = true
		}
	}
	return numaAware, nil
}

// resolveNumaAware applies TCMALLOC_NUMA_AWARE, falling back to wantDefault.
func resolveNumaAware(lookup environment.LookupFunc, mode *api.BindMode, wantDefault func() bool) (bool, error) {
	v, ok := lookup(EnvNumaAware)
	if !ok {
		return wantDefault != nil && wantDefault(), nil
	}
	switch v {
	case "no-binding":
		*mode = api.BindNone
	case "advisory-binding", "1":
		*mode = api.BindAdvisory
	case "strict-binding":
		*mode = api.BindStrict
	case "0":
		return false, nil
	default:
		return false, api.NewError(api.ErrCodeConfiguration, "bad "+EnvNumaAware+" env var").
			WithContext("value", v).Wrap(api.ErrBadEnvironment)
	}
	return true, nil
}

// Config holds the build-time partitioning parameters.
type Config struct {
	NumPartitions int `validate:"gte=1,lte=64"`
	ScaleBy       int `validate:"gte=1"`
}

// DefaultConfig returns the built-in partitioning.
func DefaultConfig() Config {
	return Config{NumPartitions: DefaultPartitions, ScaleBy: DefaultScaleBy}
}

// Option customizes topology discovery.
type Option func(*InitParams)

// WithOpener replaces the sysfs cpulist opener.
func WithOpener(open Opener) Option {
	return func(p *InitParams) { p.Open = open }
}

// WithLookup replaces the environment lookup.
func WithLookup(lookup environment.LookupFunc) Option {
	return func(p *InitParams) { p.Lookup = lookup }
}

// WithCPUSource replaces the current-CPU primitive.
func WithCPUSource(cpu api.CPUSource) Option {
	return func(p *InitParams) { p.CPU = cpu }
}

// WithNumCPUs replaces the live CPU count.
func WithNumCPUs(fn func() int) Option {
	return func(p *InitParams) { p.NumCPUs = fn }
}

// WithDefaultWantNumaAware sets the policy used when the environment is silent.
func WithDefaultWantNumaAware(fn func() bool) Option {
	return func(p *InitParams) { p.DefaultWantNumaAware = fn }
}

// Topology is an initialized, immutable partitioning of the machine.
type Topology struct {
	cfg                  Config
	cpuToScaledPartition []uint64
	partitionToNodes     []uint64
	bindMode             api.BindMode
	numaAware            bool
	cpu                  api.CPUSource
}

// NewTopology discovers the NUMA layout. The returned Topology is safe for
// concurrent use without locking.
func NewTopology(cfg Config, opts ...Option) (*Topology, error) {
	if err := validation.Struct(cfg); err != nil {
		return nil, err
	}
	t := &Topology{
		cfg:                  cfg,
		cpuToScaledPartition: make([]uint64, TableSize()),
		partitionToNodes:     make([]uint64, cfg.NumPartitions),
	}
	p := InitParams{
		CPUToScaledPartition: t.cpuToScaledPartition,
		PartitionToNodes:     t.partitionToNodes,
		BindMode:             &t.bindMode,
		NumPartitions:        cfg.NumPartitions,
		ScaleBy:              cfg.ScaleBy,
		CPU:                  affinity.System,
	}
	for _, opt := range opts {
		opt(&p)
	}
	t.cpu = p.CPU

	aware, err := InitTopology(p)
	if err != nil {
		return nil, err
	}
	t.numaAware = aware
	if aware {
		log.Printf("[numa] NUMA aware: %d partitions, %s", cfg.NumPartitions, t.bindMode)
	}
	return t, nil
}

var (
	defaultOnce     sync.Once
	defaultTopology *Topology
)

// MustNewTopology is NewTopology that crashes on error.
func MustNewTopology(cfg Config, opts ...Option) *Topology {
	t, err := NewTopology(cfg, opts...)
	if err != nil {
		check.Crash(err)
	}
	return t
}

// Default returns the process topology, discovering it on first use.
// Discovery errors crash the process.
func Default() *Topology {
	defaultOnce.Do(func() {
		defaultTopology = MustNewTopology(DefaultConfig())
	})
	return defaultTopology
}

// NumaAware reports whether CPUs are spread over more than one partition.
func (t *Topology) NumaAware() bool { return t.numaAware }

// NumPartitions returns the configured partition count.
func (t *Topology) NumPartitions() int { return t.cfg.NumPartitions }

// ActivePartitions returns the number of partitions that receive traffic.
func (t *Topology) ActivePartitions() int {
	if t.numaAware {
		return t.cfg.NumPartitions
	}
	return 1
}

// BindMode returns the memory binding policy.
func (t *Topology) BindMode() api.BindMode { return t.bindMode }

// GetCurrentPartition returns the partition of the CPU the caller runs on.
func (t *Topology) GetCurrentPartition() int {
	if !t.numaAware {
		return 0
	}
	return t.GetCPUPartition(t.cpu.CurrentCPU())
}

// GetCurrentScaledPartition returns the current partition multiplied by the
// scale factor.
func (t *Topology) GetCurrentScaledPartition() uint64 {
	if !t.numaAware {
		return 0
	}
	return t.scaled(t.cpu.CurrentCPU())
}

// GetCPUPartition returns the partition for cpu. Unknown CPUs map to 0.
func (t *Topology) GetCPUPartition(cpu int) int {
	return int(t.scaled(cpu)) / t.cfg.ScaleBy
}

// GetPartitionNodes returns the bitmask of nodes feeding partition.
func (t *Topology) GetPartitionNodes(partition int) uint64 {
	check.Condition(partition >= 0 && partition < len(t.partitionToNodes), "partition in range")
	return t.partitionToNodes[partition]
}

func (t *Topology) scaled(cpu int) uint64 {
	idx := cpu + cpuFudge
	if idx < 0 || idx >= len(t.cpuToScaledPartition) {
		return 0
	}
	return t.cpuToScaledPartition[idx]
}

// String summarizes the topology for diagnostics.
func (t *Topology) String() string {
	return fmt.Sprintf("numa_aware=%v partitions=%d/%d bind=%s",
		t.numaAware, t.ActivePartitions(), t.cfg.NumPartitions, t.bindMode)
}
