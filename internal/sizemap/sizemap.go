// File: internal/sizemap/sizemap.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Size-class geometry: object size and transfer batch size per class.

package sizemap

import "github.com/momentics/hioload-alloc/api"

// NumClasses is the number of size classes, including the reserved class 0.
const NumClasses = len(classToSize)

const (
	// batchBytes is the target number of bytes moved per batch.
	batchBytes = 64 << 10
	minBatch   = 2
	maxBatch   = 32
)

var classToSize = [...]int{
	0, 8, 16, 24, 32, 48, 64, 80, 96, 112, 128, 144, 160, 176, 192, 208,
	224, 240, 256, 288, 320, 352, 384, 416, 448, 480, 512, 576, 640, 704,
	768, 896, 1024, 1152, 1280, 1408, 1536, 1792, 2048, 2304, 2688, 3072,
	3200, 3456, 4096, 4864, 5376, 6144, 6528, 6784, 6912, 8192, 9472, 9728,
	10240, 10880, 12288, 13568, 14336, 16384, 18432, 19072, 20480, 21760,
	24576, 27264, 28672, 32768,
}

var numToMove = func() (out [NumClasses]int) {
	for c := 1; c < NumClasses; c++ {
		n := batchBytes / classToSize[c]
		if n < minBatch {
			n = minBatch
		}
		if n > maxBatch {
			n = maxBatch
		}
		out[c] = n
	}
	return out
}()

// SizeMap is the static size-class table. The zero value is ready to use.
type SizeMap struct{}

// Default is the process size map.
var Default SizeMap

// ClassToSize returns the object size of class, or 0 for an invalid class.
func (SizeMap) ClassToSize(class api.SizeClass) int {
	if class <= 0 || int(class) >= NumClasses {
		return 0
	}
	return classToSize[class]
}

// NumObjectsToMove returns the batch size for class, or 0 for an invalid class.
func (SizeMap) NumObjectsToMove(class api.SizeClass) int {
	if class <= 0 || int(class) >= NumClasses {
		return 0
	}
	return numToMove[class]
}

var _ api.SizeMap = SizeMap{}
