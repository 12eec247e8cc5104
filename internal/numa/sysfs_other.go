//go:build !linux
// +build !linux

// File: internal/numa/sysfs_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package numa

import (
	"fmt"
	"io"
	"io/fs"
)

// OpenSysfsCpulist reports every node as missing on platforms without sysfs.
func OpenSysfsCpulist(node int) (io.ReadCloser, error) {
	path := fmt.Sprintf("/sys/devices/system/node/node%d/cpulist", node)
	return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
}
