//go:build linux
// +build linux

// File: internal/numa/sysfs_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package numa

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// OpenSysfsCpulist opens /sys/devices/system/node/node<N>/cpulist. A node
// that does not exist yields an error matching fs.ErrNotExist.
func OpenSysfsCpulist(node int) (io.ReadCloser, error) {
	path := fmt.Sprintf("/sys/devices/system/node/node%d/cpulist", node)
	for {
		fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return nil, &fs.PathError{Op: "open", Path: path, Err: err}
		}
		return os.NewFile(uintptr(fd), path), nil
	}
}
