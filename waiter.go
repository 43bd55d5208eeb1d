package reslock

import "sync/atomic"

// waiter is one blocked acquire. It lives for a single slow-path round of
// the acquiring call; wakers may still hold it briefly after it is unlinked.
type waiter struct {
	prev, next *waiter
	exclusive  bool
	signaled   atomic.Uint32
	// key is the word handed to the Parker. Each waiter parks on its own
	// key, so waking a run of readers is one Unpark per reader and a reader
	// never consumes a wake meant for another.
	key uint32
}

// waiterList is the FIFO of blocked acquires, ordered as
//
//	[mixed waiters...][shared waiters...]
//
// firstShared points at the first shared waiter queued directly behind an
// exclusive one; from there to the tail the list holds only shared waiters.
// New exclusive waiters are linked in front of it, so they pass readers that
// queued behind a writer but never readers that queued before any writer.
// firstShared is nil when no such run exists, and new exclusive waiters go to
// the tail. All methods require the owner's list lock.
type waiterList struct {
	head, tail  *waiter
	firstShared *waiter
}

func (q *waiterList) empty() bool { return q.head == nil }

// insertBefore links w in front of at, or at the tail when at is nil.
func (q *waiterList) insertBefore(w, at *waiter) {
	if at == nil {
		w.prev = q.tail
		w.next = nil
		if q.tail != nil {
			q.tail.next = w
		} else {
			q.head = w
		}
		q.tail = w
		return
	}
	w.next = at
	w.prev = at.prev
	if at.prev != nil {
		at.prev.next = w
	} else {
		q.head = w
	}
	at.prev = w
}

// pushExclusive queues an exclusive waiter behind earlier waiters of the
// mixed region and ahead of the trailing shared run.
func (q *waiterList) pushExclusive(w *waiter) {
	q.insertBefore(w, q.firstShared)
}

// pushShared queues a shared waiter at the tail. Queued behind an exclusive
// waiter, it starts the trailing shared run.
func (q *waiterList) pushShared(w *waiter) {
	afterExclusive := q.tail != nil && q.tail.exclusive
	q.insertBefore(w, nil)
	if afterExclusive {
		q.firstShared = w
	}
}

// pushUpgrade queues a shared-to-exclusive conversion ahead of everyone.
func (q *waiterList) pushUpgrade(w *waiter) {
	q.insertBefore(w, q.head)
}

// remove unlinks w. Everything behind firstShared is shared, so its
// successor inherits the mark.
func (q *waiterList) remove(w *waiter) {
	if q.firstShared == w {
		q.firstShared = w.next
	}
	if w.prev != nil {
		w.prev.next = w.next
	} else {
		q.head = w.next
	}
	if w.next != nil {
		w.next.prev = w.prev
	} else {
		q.tail = w.prev
	}
	w.prev, w.next = nil, nil
}

// popExclusive unlinks and returns the head if it is an exclusive waiter.
func (q *waiterList) popExclusive() *waiter {
	w := q.head
	if w == nil || !w.exclusive {
		return nil
	}
	q.remove(w)
	return w
}

// popSharedRun unlinks the shared waiters at the head of the list, up to the
// first exclusive waiter, and returns them chained through next.
func (q *waiterList) popSharedRun() *waiter {
	var first, last *waiter
	for w := q.head; w != nil && !w.exclusive; w = q.head {
		q.remove(w)
		if last == nil {
			first = w
		} else {
			last.next = w
		}
		last = w
	}
	return first
}

// count returns the number of queued exclusive and shared waiters.
func (q *waiterList) count() (exclusive, shared int) {
	for w := q.head; w != nil; w = w.next {
		if w.exclusive {
			exclusive++
		} else {
			shared++
		}
	}
	return
}
