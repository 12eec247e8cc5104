// File: transfercache/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transfercache

import "github.com/momentics/hioload-alloc/internal/sizemap"

const (
	// DefaultInitialCapacityBatches is the starting capacity of an instance.
	DefaultInitialCapacityBatches = 16
	// DefaultMaxCapacityBatches bounds how far an instance may grow by
	// taking capacity from victims.
	DefaultMaxCapacityBatches = 64
)

// Config sizes the transfer cache instances. Capacities are counted in
// batches of the class's NumObjectsToMove.
type Config struct {
	InitialCapacityBatches int `validate:"gte=1"`
	MaxCapacityBatches     int `validate:"gtefield=InitialCapacityBatches,lte=1024"`
	// NumClasses is the number of size classes, including reserved class 0.
	NumClasses int `validate:"gte=2"`
}

// DefaultConfig returns the built-in sizing.
func DefaultConfig() Config {
	return Config{
		InitialCapacityBatches: DefaultInitialCapacityBatches,
		MaxCapacityBatches:     DefaultMaxCapacityBatches,
		NumClasses:             sizemap.NumClasses,
	}
}
