//go:build unix

// File: internal/arena/mmap_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Anonymous private mappings; the memory lives outside the Go heap.

package arena

import (
	"github.com/momentics/hioload-alloc/api"
	"golang.org/x/sys/unix"
)

func mapChunk(n int) ([]byte, error) {
	mem, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, api.NewError(api.ErrCodeResourceExhausted, "arena: mmap failed").
			WithContext("bytes", n).Wrap(err)
	}
	return mem, nil
}

func unmapChunk(mem []byte) {
	_ = unix.Munmap(mem)
}
