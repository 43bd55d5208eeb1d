package reslock

import "sync/atomic"

// bitLock is a spin lock held in one bit of a uint32. ResourceLock uses it to
// guard its waiter list. Holders never park, so waiting goroutines only spin
// and yield.
type bitLock uint32

const bitLockHeld = 1

func (b *bitLock) lock() {
	if atomic.CompareAndSwapUint32((*uint32)(b), 0, bitLockHeld) {
		return
	}
	b.lockSlow()
}

func (b *bitLock) lockSlow() {
	var spins int
	for !b.tryLock() {
		yield(&spins)
	}
}

//go:nosplit
func (b *bitLock) tryLock() bool {
	for {
		cur := atomic.LoadUint32((*uint32)(b))
		if cur&bitLockHeld != 0 {
			return false
		}
		if atomic.CompareAndSwapUint32((*uint32)(b), cur, cur|bitLockHeld) {
			return true
		}
	}
}

//go:nosplit
func (b *bitLock) unlock() {
	atomic.StoreUint32((*uint32)(b), atomic.LoadUint32((*uint32)(b))&^bitLockHeld)
}
