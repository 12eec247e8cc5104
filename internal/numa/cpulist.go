// File: internal/numa/cpulist.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Incremental parser for kernel cpulist text ("0-3,7,9-11").

package numa

import (
	"bytes"
	"errors"
	"io"
	"strconv"

	"github.com/momentics/hioload-alloc/api"
)

// cpulistBufSize bounds the longest token the parser can carry between reads.
const cpulistBufSize = 16

// ErrMalformedCpulist is wrapped by every parse failure.
var ErrMalformedCpulist = errors.New("numa: malformed cpulist")

// ReadFunc fills buf and returns the number of bytes written. Zero bytes, or
// io.EOF, mark the end of input.
type ReadFunc func(buf []byte) (int, error)

// ParseCpulist parses a comma separated list of CPUs and closed CPU ranges
// into a CPUSet. Input may arrive in chunks of any size.
func ParseCpulist(read ReadFunc) (CPUSet, error) {
	var (
		set   CPUSet
		buf   [cpulistBufSize]byte
		carry int
		from  = -1
	)
	for {
		if carry == len(buf) {
			return set, cpulistError("token exceeds buffer", buf[:])
		}
		n, err := read(buf[carry:])
		if err != nil && !errors.Is(err, io.EOF) {
			return set, api.NewError(api.ErrCodeIO, "numa: cpulist read failed").Wrap(err)
		}
		if n < 0 || n > len(buf)-carry {
			return set, cpulistError("read returned bad count", nil)
		}
		current := buf[:carry+n]
		if len(current) == 0 && n == 0 {
			break
		}

		consumed := 0
		dash := bytes.IndexByte(current, '-')
		comma := bytes.IndexByte(current, ',')
		switch {
		case dash >= 0 && (comma < 0 || dash < comma):
			if from != -1 {
				return set, cpulistError("nested range", current[:dash])
			}
			v, err := parseCPU(current[:dash])
			if err != nil {
				return set, err
			}
			from = v
			consumed = dash + 1
		case comma >= 0 || n == 0:
			end := comma
			if comma < 0 {
				end = len(current)
				consumed = len(current)
			} else {
				consumed = comma + 1
			}
			token := bytes.TrimSpace(current[:end])
			if len(token) == 0 && comma < 0 && from == -1 {
				// Trailing newline, or a node without CPUs.
				break
			}
			cpu, err := parseCPU(token)
			if err != nil {
				return set, err
			}
			if from != -1 {
				if cpu < from {
					return set, cpulistError("descending range", current[:end])
				}
				for c := from; c <= cpu; c++ {
					set.Set(c)
				}
				from = -1
			} else {
				set.Set(cpu)
			}
		}

		carry = copy(buf[:], current[consumed:])
	}
	if from != -1 {
		return set, cpulistError("unterminated range", nil)
	}
	return set, nil
}

func parseCPU(token []byte) (int, error) {
	token = bytes.TrimSpace(token)
	v, err := strconv.Atoi(string(token))
	if err != nil || v < 0 || v >= MaxCPUs {
		return 0, cpulistError("bad cpu number", token)
	}
	return v, nil
}

func cpulistError(msg string, token []byte) error {
	return api.NewError(api.ErrCodeInvariant, "numa: "+msg).
		WithContext("token", string(token)).
		Wrap(ErrMalformedCpulist)
}
