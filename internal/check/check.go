// File: internal/check/check.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fatal diagnostics for unrecoverable allocator states.

package check

import (
	"fmt"
	"log"

	"github.com/momentics/hioload-alloc/api"
)

// Crash logs the diagnostic and aborts the current goroutine with err.
// A corrupted cache cannot be repaired in place, so callers never recover
// from it outside tests.
func Crash(err error) {
	log.Printf("[crash] %v", err)
	panic(err)
}

// Crashf builds an *api.Error with the given code and crashes.
func Crashf(code api.ErrorCode, format string, args ...any) {
	Crash(api.NewError(code, fmt.Sprintf(format, args...)))
}

// Condition crashes with an invariant error when cond is false.
func Condition(cond bool, msg string) {
	if !cond {
		Crash(api.NewError(api.ErrCodeInvariant, "check failed: "+msg))
	}
}
