package reslock

import (
	"runtime"
	_ "unsafe" // for linkname
)

// defaultSpinCount is the number of busy-wait rounds a contended acquire makes
// before it parks, on machines with more than one logical CPU. Each round is a
// runtime_doSpin, i.e. a short burst of PAUSE instructions.
const defaultSpinCount = 64

// spinCountFor derives the spin budget from a logical CPU count. Spinning on
// a single CPU only burns the time slice of the goroutine holding the lock.
func spinCountFor(cpus int) int32 {
	if cpus <= 1 {
		return 0
	}
	return defaultSpinCount
}

// noCopy may be added to structs which must not be copied
// after the first use.
//
// See https://golang.org/issues/8005#issuecomment-190753527
// for details.
//
// Note that it must not be embedded, due to the Lock and Unlock methods.
type noCopy struct{}

// Lock is a no-op used by -copylocks checker from `go vet`.
func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// trySpin makes one short spin round if the runtime considers spinning
// worthwhile and reports whether it did.
func trySpin(spins *int) bool {
	if runtime_canSpin(*spins) {
		*spins++
		runtime_doSpin()
		return true
	}
	return false
}

// yield backs off a failed attempt on a short internal critical section.
// Unlike parking it keeps the goroutine runnable.
func yield(spins *int) {
	if trySpin(spins) {
		return
	}
	*spins = 0
	runtime.Gosched()
}

// nolint:all
//
//go:linkname runtime_canSpin sync.runtime_canSpin
//goland:noinspection ALL
func runtime_canSpin(i int) bool

// nolint:all
//
//go:linkname runtime_doSpin sync.runtime_doSpin
//goland:noinspection ALL
func runtime_doSpin()
