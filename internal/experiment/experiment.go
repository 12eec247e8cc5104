// File: internal/experiment/experiment.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Static, read-only registry of allocator experiments. Experiments are
// activated through TCMALLOC_EXPERIMENTS, a comma-separated list of names.

package experiment

import (
	"strings"
	"sync"

	"github.com/momentics/hioload-alloc/internal/environment"
)

// EnvVar lists active experiments by name.
const EnvVar = "TCMALLOC_EXPERIMENTS"

// ID identifies an experiment.
type ID int

const (
	TestOnlyPow2SizeClass ID = iota
	TestOnlyPow2Below64SizeClass
	TestOnlyRingBufferTransferCache
	TestOnlyShardedTransferCache
	HeterogeneousCaches
	maxID
)

// Config pairs an experiment id with its name.
type Config struct {
	ID   ID
	Name string
}

var experiments = [...]Config{
	{TestOnlyPow2SizeClass, "TEST_ONLY_TCMALLOC_POW2_SIZECLASS"},
	{TestOnlyPow2Below64SizeClass, "TEST_ONLY_TCMALLOC_POW2_BELOW64_SIZECLASS"},
	{TestOnlyRingBufferTransferCache, "TEST_ONLY_TCMALLOC_RING_BUFFER_TRANSFER_CACHE"},
	{TestOnlyShardedTransferCache, "TEST_ONLY_TCMALLOC_SHARDED_TRANSFER_CACHE"},
	{HeterogeneousCaches, "TCMALLOC_HETEROGENEOUS_CACHES"},
}

// All returns the experiment table.
func All() []Config {
	out := make([]Config, len(experiments))
	copy(out, experiments[:])
	return out
}

// Name returns the registered name of id, or "" for an unknown id.
func (id ID) Name() string {
	if id < 0 || id >= maxID {
		return ""
	}
	return experiments[id].Name
}

// Set is an immutable set of active experiments.
type Set struct {
	active [maxID]bool
}

// Parse builds a Set from a comma-separated list of names. Unknown names are
// ignored so binaries tolerate experiments they were not built with.
func Parse(list string) *Set {
	s := &Set{}
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		for _, e := range experiments {
			if e.Name == name {
				s.active[e.ID] = true
			}
		}
	}
	return s
}

// FromLookup parses the experiment list from lookup.
func FromLookup(lookup environment.LookupFunc) *Set {
	v, _ := environment.OrDefault(lookup)(EnvVar)
	return Parse(v)
}

// IsActive reports whether id is enabled in the set.
func (s *Set) IsActive(id ID) bool {
	if s == nil || id < 0 || id >= maxID {
		return false
	}
	return s.active[id]
}

var (
	processOnce sync.Once
	processSet  *Set
)

// IsActive reports whether id is enabled for the process. The environment is
// read once.
func IsActive(id ID) bool {
	processOnce.Do(func() {
		processSet = FromLookup(environment.Lookup)
	})
	return processSet.IsActive(id)
}
