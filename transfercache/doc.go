// Package transfercache
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Transfer caches hold freed objects per size class between the per-CPU
// caches and the central page heap. One instance exists per size class and
// NUMA partition. A single implementation, legacy slot array or ring buffer,
// is selected for the whole process at startup.
//
// When an instance is full, capacity is taken from a victim size class chosen
// round-robin by a process-wide eviction cursor; batches that still do not
// fit go to the central heap. Instance locks are never nested.
package transfercache
