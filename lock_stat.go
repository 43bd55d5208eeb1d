package reslock

import "fmt"

// LockStat is a point-in-time view of a ResourceLock. It is stale as soon as
// it is returned and only fit for diagnostics and tests.
type LockStat struct {
	// Owned reports whether the lock is held in any mode.
	Owned bool
	// Shared is the number of shared holders; zero with Owned means an
	// exclusive hold.
	Shared int
	// Waiters reports whether the waiters bit is set.
	Waiters bool
	// QueuedExclusive and QueuedShared count goroutines parked in the
	// waiter list.
	QueuedExclusive int
	QueuedShared    int
}

// Exclusive reports whether the lock was held exclusively.
func (s LockStat) Exclusive() bool { return s.Owned && s.Shared == 0 }

func (s LockStat) String() string {
	mode := "free"
	switch {
	case s.Exclusive():
		mode = "exclusive"
	case s.Owned:
		mode = fmt.Sprintf("shared(%d)", s.Shared)
	}
	return fmt.Sprintf("%s waiters=%t queued=%d/%d",
		mode, s.Waiters, s.QueuedExclusive, s.QueuedShared)
}

// Stat returns a snapshot of l. It is taken under the waiter-list lock, so
// the waiters bit agrees with the queue counts.
func (l *ResourceLock) Stat() LockStat {
	l.list.lock()
	s := l.load()
	ex, sh := l.waiters.count()
	l.list.unlock()
	return LockStat{
		Owned:           s.owned(),
		Shared:          int(s.shared()),
		Waiters:         s.waiters(),
		QueuedExclusive: ex,
		QueuedShared:    sh,
	}
}
