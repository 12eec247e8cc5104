// File: internal/numa/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package numa discovers NUMA nodes from sysfs and partitions CPUs so that
// each partition gets its own set of transfer cache instances. Tables are
// written once during initialization and read without locks afterwards;
// every lookup defaults to partition 0, which is always valid.
package numa
