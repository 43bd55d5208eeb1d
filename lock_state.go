package reslock

// lockState is the packed ResourceLock word.
//
//	bit 0:     owned   (held in some mode)
//	bit 1:     waiters (the waiter list may be non-empty)
//	bits 2-31: shared count
//
// owned == 0 implies shared == 0, and shared > 0 implies owned == 1.
// An owned word with shared == 0 is held exclusively.
type lockState uint32

const (
	lockOwned   lockState = 1
	lockWaiters lockState = 2

	lockSharedShift = 2
	lockSharedUnit  = lockState(1) << lockSharedShift
	lockSharedMask  = ^(lockSharedUnit - 1)

	// maxShared is the largest shared count the word can hold.
	maxShared = uint32(lockSharedMask >> lockSharedShift)
)

func (s lockState) owned() bool { return s&lockOwned != 0 }

func (s lockState) waiters() bool { return s&lockWaiters != 0 }

func (s lockState) shared() uint32 { return uint32(s >> lockSharedShift) }

// exclusive reports whether the word describes an exclusive hold.
func (s lockState) exclusive() bool { return s.owned() && s.shared() == 0 }

// withShared returns s with the shared count replaced by n.
func (s lockState) withShared(n uint32) lockState {
	return s&^lockSharedMask | lockState(n)<<lockSharedShift
}

// canShare reports whether a new shared acquire may be admitted without
// queueing: the lock is free, or it is shared and nobody is queued.
func (s lockState) canShare() bool {
	if !s.owned() {
		return true
	}
	return s.shared() > 0 && !s.waiters()
}

// valid reports whether s satisfies the owned/shared invariant.
func (s lockState) valid() bool {
	return s.owned() || s.shared() == 0
}
