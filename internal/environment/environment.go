// File: internal/environment/environment.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Environment lookups for allocator directives.

package environment

import "os"

// LookupFunc resolves an environment variable. The boolean is false when the
// variable is unset or set to the empty string.
type LookupFunc func(name string) (string, bool)

// Lookup reads the process environment. os.LookupEnv is safe for concurrent use.
func Lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// FromMap returns a LookupFunc backed by a fixed map.
func FromMap(m map[string]string) LookupFunc {
	return func(name string) (string, bool) {
		v, ok := m[name]
		if !ok || v == "" {
			return "", false
		}
		return v, true
	}
}

// OrDefault returns fn, or Lookup when fn is nil.
func OrDefault(fn LookupFunc) LookupFunc {
	if fn == nil {
		return Lookup
	}
	return fn
}
