package reslock

import "github.com/llxisdsh/reslock/internal/opt"

// Parker blocks and wakes goroutines queued on a ResourceLock.
//
// Each queued acquire owns a key word, zero when it starts waiting. Park
// blocks the calling goroutine until Unpark is called for the same key. An
// Unpark that happens before the matching Park must not be lost, and Park may
// also return spuriously: the lock rechecks its own signaled flag and parks
// again if needed. The key word belongs to the Parker while a goroutine is
// queued; implementations may use it freely.
type Parker interface {
	Park(key *uint32)
	Unpark(key *uint32)
}

// SemaParker parks on the runtime semaphore keyed by the waiter's word. It is
// the default Parker and the zero value is ready to use.
type SemaParker struct{}

// Park blocks until the key's permit is released.
func (SemaParker) Park(key *uint32) {
	(*opt.Sema)(key).Acquire()
}

// Unpark releases one permit on key.
func (SemaParker) Unpark(key *uint32) {
	(*opt.Sema)(key).Release()
}

var defaultParker Parker = SemaParker{}
