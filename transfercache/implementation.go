// File: transfercache/implementation.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transfercache

import (
	"github.com/momentics/hioload-alloc/api"
	"github.com/momentics/hioload-alloc/internal/check"
	"github.com/momentics/hioload-alloc/internal/environment"
	"github.com/momentics/hioload-alloc/internal/experiment"
)

// EnvControl overrides the implementation choice: "0" legacy, "1" ring.
const EnvControl = "TCMALLOC_INTERNAL_TRANSFERCACHE_CONTROL"

// Implementation names a transfer cache variant.
type Implementation int

const (
	ImplementationLegacy Implementation = iota
	ImplementationNone
	ImplementationRing
)

// ImplementationToLabel returns the stable reporting label of impl. Unknown
// values are a programming error and crash.
func ImplementationToLabel(impl Implementation) string {
	switch impl {
	case ImplementationLegacy:
		return "LEGACY"
	case ImplementationNone:
		return "NO_TRANSFERCACHE"
	case ImplementationRing:
		return "RING"
	default:
		check.Crashf(api.ErrCodeInvariant, "unknown transfer cache implementation %d", int(impl))
		return ""
	}
}

func (impl Implementation) String() string {
	return ImplementationToLabel(impl)
}

// ChooseImplementation picks the process-wide variant. The ring-buffer test
// experiment wins over the environment; absent both, legacy is used.
func ChooseImplementation(lookup environment.LookupFunc, isActive func(experiment.ID) bool) (Implementation, error) {
	if isActive != nil && isActive(experiment.TestOnlyRingBufferTransferCache) {
		return ImplementationRing, nil
	}

	v, ok := environment.OrDefault(lookup)(EnvControl)
	if !ok || v == "" {
		return ImplementationLegacy, nil
	}
	switch v[0] {
	case '0':
		return ImplementationLegacy, nil
	case '1':
		return ImplementationRing, nil
	}
	return ImplementationLegacy, api.NewError(api.ErrCodeConfiguration, "bad "+EnvControl+" env var").
		WithContext("value", v).Wrap(api.ErrBadEnvironment)
}
