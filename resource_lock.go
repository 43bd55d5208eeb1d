// Package reslock provides ResourceLock, a reader-writer lock whose whole
// state is one word updated by compare-and-swap, with a side queue of blocked
// callers.
//
// Properties:
//   - Exclusive and shared acquisition, plus in-place conversion between the
//     two modes.
//   - Adaptive: a contended acquire spins briefly (on multi-CPU machines)
//     before it parks.
//   - Writer priority: once a writer is queued, new readers queue behind it
//     instead of joining the current readers.
//   - Barging: the fast path never looks at the queue, so a running goroutine
//     may take a just-released lock ahead of queued ones.
//
// Example usage:
//
//	var mu reslock.ResourceLock
//	mu.Init()
//
//	mu.AcquireShared()
//	// ... read ...
//	mu.ReleaseShared()
//
//	mu.AcquireExclusive()
//	// ... write ...
//	mu.ConvertExclusiveToShared()
//	// ... keep reading what was written ...
//	mu.ReleaseShared()
//
// Misuse (recursive acquire, releasing a lock that is not held) is not
// reported; build with -tags=reslock_debug to turn contract violations into
// panics.
package reslock

import (
	"sync"
	"sync/atomic"

	"github.com/llxisdsh/reslock/internal/opt"
)

// ResourceLock is a reader-writer lock with writer priority.
//
// The zero value is an unlocked lock that never spins and parks on
// SemaParker; call Init to derive spinning from the CPU count or to pick
// another Parker. A ResourceLock must not be copied after first use.
type ResourceLock struct {
	_     noCopy
	state atomic.Uint32
	// list guards waiters. It is never held while parked.
	list      bitLock
	spinCount int32
	waiters   waiterList
	parker    Parker
}

// NewResourceLock returns an initialized ResourceLock.
func NewResourceLock(options ...func(*LockConfig)) *ResourceLock {
	l := new(ResourceLock)
	l.Init(options...)
	return l
}

// Init resets l to the unlocked state and applies options. It must not be
// called while l is held or has waiters.
func (l *ResourceLock) Init(options ...func(*LockConfig)) {
	c := newLockConfig(options)
	l.state.Store(0)
	l.list = 0
	l.waiters = waiterList{}
	l.spinCount = c.spins()
	l.parker = c.parker
	if opt.Debug_ {
		debugRegistry.Register(l)
	}
}

// Destroy ends the lifetime of an initialized lock. The caller guarantees
// the lock is free and nobody is waiting on it.
func (l *ResourceLock) Destroy() {
	if opt.Debug_ {
		if s := l.load(); s != 0 {
			panic("reslock: Destroy of a lock that is held or has waiters")
		}
		debugRegistry.Unregister(l)
	}
}

// SpinCount returns the number of spin rounds a contended acquire makes
// before parking.
func (l *ResourceLock) SpinCount() int {
	return int(l.spinCount)
}

// AcquireExclusive blocks until no goroutine holds l in any mode, then holds
// it exclusively. It is not reentrant.
func (l *ResourceLock) AcquireExclusive() {
	if l.state.CompareAndSwap(0, uint32(lockOwned)) {
		return
	}
	l.acquireExclusiveSlow(false)
}

// AcquireShared blocks until l is free, or held shared with nobody queued,
// then joins the shared holders.
func (l *ResourceLock) AcquireShared() {
	s := l.load()
	if s.canShare() && l.casShared(s) {
		return
	}
	l.acquireSharedSlow()
}

// TryAcquireExclusive acquires l exclusively if that needs no waiting.
func (l *ResourceLock) TryAcquireExclusive() bool {
	for {
		s := l.load()
		if s.owned() {
			return false
		}
		if l.cas(s, s|lockOwned) {
			return true
		}
	}
}

// TryAcquireShared acquires l shared if that needs no waiting. Like
// AcquireShared it refuses while anyone is queued on a shared-held lock.
func (l *ResourceLock) TryAcquireShared() bool {
	for {
		s := l.load()
		if !s.canShare() {
			return false
		}
		if l.casShared(s) {
			return true
		}
	}
}

// ReleaseExclusive releases an exclusive hold. If goroutines are queued it
// wakes the first one when it is a writer, otherwise every reader queued
// ahead of the next writer.
func (l *ResourceLock) ReleaseExclusive() {
	if l.state.CompareAndSwap(uint32(lockOwned), 0) {
		return
	}
	for {
		s := l.load()
		if opt.Debug_ && !s.exclusive() {
			panic("reslock: ReleaseExclusive of a lock not held exclusively")
		}
		if l.cas(s, s&^lockOwned) {
			if s.waiters() {
				l.wake(wakeAny)
			}
			return
		}
	}
}

// ReleaseShared releases one shared hold. The last reader out wakes the
// first queued writer, if any.
func (l *ResourceLock) ReleaseShared() {
	if l.state.CompareAndSwap(uint32(lockOwned|lockSharedUnit), 0) {
		return
	}
	for {
		s := l.load()
		if opt.Debug_ && s.shared() == 0 {
			panic("reslock: ReleaseShared of a lock not held shared")
		}
		n := s - lockSharedUnit
		if n.shared() == 0 {
			n &^= lockOwned
		}
		if l.cas(s, n) {
			if n.shared() == 0 && s.waiters() {
				l.wake(wakeWriter)
			}
			return
		}
	}
}

// ConvertExclusiveToShared turns the caller's exclusive hold into a shared
// one without releasing the lock, and lets in the readers queued at the
// front.
func (l *ResourceLock) ConvertExclusiveToShared() {
	for {
		s := l.load()
		if opt.Debug_ && !s.exclusive() {
			panic("reslock: ConvertExclusiveToShared of a lock not held exclusively")
		}
		if l.cas(s, s.withShared(1)) {
			if s.waiters() {
				l.wake(wakeReaders)
			}
			return
		}
	}
}

// ConvertSharedToExclusive turns the caller's shared hold into an exclusive
// one. It returns at once when the caller is the only reader. Otherwise the
// caller gives up its share, queues ahead of every other waiter and blocks
// until it can hold l exclusively; other goroutines may have held l in
// between.
func (l *ResourceLock) ConvertSharedToExclusive() {
	s := l.load()
	if s.shared() == 1 && l.cas(s, s.withShared(0)) {
		return
	}
	l.upgradeSlow()
}

func (l *ResourceLock) acquireExclusiveSlow(upgrade bool) {
	spins := l.spinCount
	for {
		s := l.load()
		if !s.owned() {
			if l.cas(s, s|lockOwned) {
				return
			}
			continue
		}
		if spinOnce(&spins) {
			continue
		}
		w := &waiter{exclusive: true}
		if !l.enqueue(w, upgrade, false) {
			continue
		}
		l.park(w)
		spins = l.spinCount
	}
}

func (l *ResourceLock) acquireSharedSlow() {
	spins := l.spinCount
	// A reader woken by a release was granted entry ahead of the writers
	// still queued, so it may join current readers despite the waiters bit.
	woken := false
	for {
		s := l.load()
		if s.canShare() || woken && s.shared() > 0 {
			if l.casShared(s) {
				return
			}
			continue
		}
		if spinOnce(&spins) {
			continue
		}
		w := &waiter{}
		if !l.enqueue(w, false, woken) {
			continue
		}
		l.park(w)
		woken = true
		spins = l.spinCount
	}
}

func (l *ResourceLock) upgradeSlow() {
	w := &waiter{exclusive: true}
	l.list.lock()
	for {
		s := l.load()
		if opt.Debug_ && s.shared() == 0 {
			panic("reslock: ConvertSharedToExclusive of a lock not held shared")
		}
		if s.shared() == 1 {
			// The other readers left meanwhile.
			if l.cas(s, s.withShared(0)) {
				l.list.unlock()
				return
			}
			continue
		}
		// Drop our share and announce the waiter in one step, so the
		// last remaining reader is bound to wake us.
		if l.cas(s, (s-lockSharedUnit)|lockWaiters) {
			break
		}
	}
	l.waiters.pushUpgrade(w)
	l.list.unlock()
	l.park(w)
	l.acquireExclusiveSlow(true)
}

// enqueue links w into the waiter list and sets the waiters bit, unless the
// lock can be taken in w's mode after all; then it reports false and the
// caller retries. Checking under the list lock pairs with wake, which also
// takes it, so a release can't slip between the check and the link.
func (l *ResourceLock) enqueue(w *waiter, upgrade, woken bool) bool {
	l.list.lock()
	for {
		s := l.load()
		if w.exclusive && !s.owned() ||
			!w.exclusive && (s.canShare() || woken && s.shared() > 0) {
			l.list.unlock()
			return false
		}
		if s.waiters() || l.cas(s, s|lockWaiters) {
			break
		}
	}
	switch {
	case upgrade:
		l.waiters.pushUpgrade(w)
	case w.exclusive:
		l.waiters.pushExclusive(w)
	default:
		l.waiters.pushShared(w)
	}
	l.list.unlock()
	return true
}

type wakePolicy uint8

const (
	// wakeAny wakes the head writer, or the leading readers.
	wakeAny wakePolicy = iota
	// wakeWriter wakes the head only if it is a writer.
	wakeWriter
	// wakeReaders wakes only the leading readers.
	wakeReaders
)

func (l *ResourceLock) wake(p wakePolicy) {
	var w *waiter
	l.list.lock()
	if p != wakeReaders {
		w = l.waiters.popExclusive()
	}
	if w == nil && p != wakeWriter {
		w = l.waiters.popSharedRun()
	}
	if l.waiters.empty() {
		l.clearWaiters()
	}
	l.list.unlock()

	for w != nil {
		next := w.next
		l.unblock(w)
		w = next
	}
}

// clearWaiters drops the waiters bit. Requires the list lock.
func (l *ResourceLock) clearWaiters() {
	for {
		s := l.load()
		if !s.waiters() || l.cas(s, s&^lockWaiters) {
			return
		}
	}
}

func (l *ResourceLock) park(w *waiter) {
	p := l.parkerOrDefault()
	for w.signaled.Load() == 0 {
		p.Park(&w.key)
	}
}

func (l *ResourceLock) unblock(w *waiter) {
	w.signaled.Store(1)
	l.parkerOrDefault().Unpark(&w.key)
}

func (l *ResourceLock) parkerOrDefault() Parker {
	if l.parker != nil {
		return l.parker
	}
	return defaultParker
}

func (l *ResourceLock) load() lockState {
	return lockState(l.state.Load())
}

func (l *ResourceLock) cas(old, next lockState) bool {
	if opt.Debug_ && !next.valid() {
		panic("reslock: corrupt lock state")
	}
	return l.state.CompareAndSwap(uint32(old), uint32(next))
}

// casShared adds one shared holder to s.
func (l *ResourceLock) casShared(s lockState) bool {
	if opt.Debug_ && s.shared() == maxShared {
		panic("reslock: too many shared holders")
	}
	return l.cas(s, (s|lockOwned)+lockSharedUnit)
}

// spinOnce makes one busy-wait round while budget remains.
func spinOnce(spins *int32) bool {
	if *spins <= 0 {
		return false
	}
	*spins--
	runtime_doSpin()
	return true
}

// ============================================================================
// sync.Locker adapters
// ============================================================================

// Lock is AcquireExclusive, so that *ResourceLock satisfies sync.Locker.
func (l *ResourceLock) Lock() { l.AcquireExclusive() }

// Unlock is ReleaseExclusive.
func (l *ResourceLock) Unlock() { l.ReleaseExclusive() }

// RLock is AcquireShared.
func (l *ResourceLock) RLock() { l.AcquireShared() }

// RUnlock is ReleaseShared.
func (l *ResourceLock) RUnlock() { l.ReleaseShared() }

// RLocker returns a sync.Locker whose Lock and Unlock take and release l
// shared.
func (l *ResourceLock) RLocker() sync.Locker {
	return (*rlocker)(l)
}

type rlocker ResourceLock

func (r *rlocker) Lock()   { (*ResourceLock)(r).AcquireShared() }
func (r *rlocker) Unlock() { (*ResourceLock)(r).ReleaseShared() }
