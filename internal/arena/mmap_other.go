//go:build !unix

// File: internal/arena/mmap_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Go heap fallback where anonymous mappings are unavailable. The arena keeps
// the slices reachable until Release.

package arena

func mapChunk(n int) ([]byte, error) {
	return make([]byte, n), nil
}

func unmapChunk([]byte) {}
