package reslock

import (
	"unsafe"

	"github.com/llxisdsh/pb"
	"github.com/llxisdsh/reslock/internal/opt"
)

// ResourceLockGroup holds one ResourceLock per key, for keys of any
// comparable type.
//
// Features:
//   - Infinite Keys: locks are created on first use.
//   - Auto-Cleanup: a key's lock is dropped once nobody holds or waits for it.
//   - Same semantics per key as ResourceLock, writer priority included.
//
// Usage:
//
//	var group reslock.ResourceLockGroup[string]
//
//	group.AcquireShared("config")
//	read(config)
//	group.ReleaseShared("config")
//
//	group.AcquireExclusive("config")
//	write(config)
//	group.ReleaseExclusive("config")
//
// The zero value is ready to use; NewResourceLockGroup applies LockConfig
// options to every lock the group creates.
type ResourceLockGroup[K comparable] struct {
	_       noCopy
	m       pb.MapOf[K, *groupEntry]
	options []func(*LockConfig)
}

type groupEntry struct {
	lock ResourceLock
	// ref counts holders and goroutines on their way to hold.
	// Guarded by the map entry.
	ref int32
	_   [(opt.CacheLineSize_ - unsafe.Sizeof(struct {
		lock ResourceLock
		ref  int32
	}{})%opt.CacheLineSize_) % opt.CacheLineSize_]byte
}

// NewResourceLockGroup returns a group whose locks are initialized with
// options.
func NewResourceLockGroup[K comparable](options ...func(*LockConfig)) *ResourceLockGroup[K] {
	return &ResourceLockGroup[K]{options: options}
}

// AcquireExclusive acquires k's lock exclusively.
func (g *ResourceLockGroup[K]) AcquireExclusive(k K) {
	g.ref(k).lock.AcquireExclusive()
}

// ReleaseExclusive releases an exclusive hold on k. Unknown keys are ignored.
func (g *ResourceLockGroup[K]) ReleaseExclusive(k K) {
	e, ok := g.m.Load(k)
	if !ok {
		return
	}
	e.lock.ReleaseExclusive()
	g.unref(k)
}

// AcquireShared acquires k's lock shared.
func (g *ResourceLockGroup[K]) AcquireShared(k K) {
	g.ref(k).lock.AcquireShared()
}

// ReleaseShared releases a shared hold on k. Unknown keys are ignored.
func (g *ResourceLockGroup[K]) ReleaseShared(k K) {
	e, ok := g.m.Load(k)
	if !ok {
		return
	}
	e.lock.ReleaseShared()
	g.unref(k)
}

// Stat returns a snapshot of k's lock, and false if k has no lock.
func (g *ResourceLockGroup[K]) Stat(k K) (LockStat, bool) {
	e, ok := g.m.Load(k)
	if !ok {
		return LockStat{}, false
	}
	return e.lock.Stat(), true
}

func (g *ResourceLockGroup[K]) ref(k K) *groupEntry {
	e, _ := g.m.ProcessEntry(k,
		func(old *pb.EntryOf[K, *groupEntry]) (*pb.EntryOf[K, *groupEntry], *groupEntry, bool) {
			if old != nil {
				old.Value.ref++
				return old, old.Value, true
			}
			e := &groupEntry{ref: 1}
			e.lock.Init(g.options...)
			return &pb.EntryOf[K, *groupEntry]{Key: k, Value: e}, e, false
		},
	)
	return e
}

func (g *ResourceLockGroup[K]) unref(k K) {
	e, removed := g.m.ProcessEntry(k,
		func(old *pb.EntryOf[K, *groupEntry]) (*pb.EntryOf[K, *groupEntry], *groupEntry, bool) {
			if old == nil {
				return nil, nil, false
			}
			old.Value.ref--
			if old.Value.ref <= 0 {
				return nil, old.Value, true
			}
			return old, nil, false
		},
	)
	if removed {
		e.lock.Destroy()
	}
}
