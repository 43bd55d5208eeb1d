// Package opt holds build-tag selected constants and the runtime hooks shared
// by the reslock primitives.
//
// Build tags:
//   - reslock_debug: enables contract assertions and the live-lock registry.
//   - race: set by the toolchain under -race; tests shrink their workloads.
package opt

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// CacheLineSize_ is used in structure padding to prevent false sharing.
// It's automatically calculated using the `golang.org/x/sys` package.
const CacheLineSize_ = unsafe.Sizeof(cpu.CacheLinePad{})
