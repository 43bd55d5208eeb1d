package reslock

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	futexWait    = 0
	futexWake    = 1
	futexPrivate = 128
)

// FutexParker parks the calling OS thread on a futex word.
//
// It blocks the thread, not just the goroutine, so the runtime hands the P to
// another thread for the duration of the wait. Prefer SemaParker unless the
// lock is shared with code that expects thread-level blocking.
type FutexParker struct{}

// Park waits for a pending wake on key and consumes it.
func (FutexParker) Park(key *uint32) {
	for !atomic.CompareAndSwapUint32(key, 1, 0) {
		// EAGAIN (the word changed) and EINTR both mean: look again.
		_, _, _ = unix.Syscall6(unix.SYS_FUTEX, uintptr(unsafe.Pointer(key)),
			futexWait|futexPrivate, 0, 0, 0, 0)
	}
}

// Unpark posts a wake on key and wakes at most one thread sleeping on it.
func (FutexParker) Unpark(key *uint32) {
	atomic.StoreUint32(key, 1)
	_, _, _ = unix.Syscall6(unix.SYS_FUTEX, uintptr(unsafe.Pointer(key)),
		futexWake|futexPrivate, 1, 0, 0, 0)
}
