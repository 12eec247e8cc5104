package sizemap

import (
	"testing"

	"github.com/momentics/hioload-alloc/api"
)

func TestClassesAreIncreasing(t *testing.T) {
	for c := 2; c < NumClasses; c++ {
		if classToSize[c] <= classToSize[c-1] {
			t.Errorf("class %d size %d not above class %d size %d", c, classToSize[c], c-1, classToSize[c-1])
		}
	}
}

func TestBatchSizesWithinBounds(t *testing.T) {
	var m SizeMap
	for c := api.SizeClass(1); int(c) < NumClasses; c++ {
		n := m.NumObjectsToMove(c)
		if n < minBatch || n > maxBatch {
			t.Errorf("class %d batch %d out of [%d,%d]", c, n, minBatch, maxBatch)
		}
	}
	if m.NumObjectsToMove(1) != maxBatch {
		t.Errorf("8-byte class batch = %d, want %d", m.NumObjectsToMove(1), maxBatch)
	}
	if m.NumObjectsToMove(api.SizeClass(NumClasses-1)) != minBatch {
		t.Errorf("largest class batch = %d, want %d", m.NumObjectsToMove(api.SizeClass(NumClasses-1)), minBatch)
	}
}

func TestInvalidClasses(t *testing.T) {
	var m SizeMap
	for _, c := range []api.SizeClass{0, -1, api.SizeClass(NumClasses)} {
		if m.ClassToSize(c) != 0 || m.NumObjectsToMove(c) != 0 {
			t.Errorf("class %d should be invalid", c)
		}
	}
}
