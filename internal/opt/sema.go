package opt

import (
	_ "unsafe" // for linkname
)

// Sema is a zero-allocation semaphore parked on by the runtime.
// The zero value holds no permits.
type Sema uint32

// Acquire blocks until a permit is available and consumes it.
func (s *Sema) Acquire() {
	runtime_semacquire((*uint32)(s))
}

// Release adds a permit, waking one goroutine blocked in Acquire.
func (s *Sema) Release() {
	runtime_semrelease((*uint32)(s), false, 0)
}

//go:linkname runtime_semacquire sync.runtime_Semacquire
func runtime_semacquire(s *uint32)

//go:linkname runtime_semrelease sync.runtime_Semrelease
func runtime_semrelease(s *uint32, handoff bool, skipframes int)
