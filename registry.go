package reslock

import (
	"cmp"
	"fmt"
	"slices"
	"unsafe"
	"weak"

	"github.com/llxisdsh/pb"
	"go.uber.org/atomic"
)

// Registry keeps weak references to live ResourceLocks for diagnostics.
// Registered locks are not kept alive by the registry; entries whose lock was
// collected are dropped on the next Snapshot. The zero value is ready to use.
//
// Built with -tags=reslock_debug, every Init registers its lock in a
// process-wide registry readable through LiveLocks.
type Registry struct {
	_    noCopy
	m    pb.MapOf[uintptr, *registryEntry]
	seq  atomic.Uint64
	live atomic.Int64
}

type registryEntry struct {
	id   uint64
	lock weak.Pointer[ResourceLock]
}

// LockInfo describes one registered lock.
type LockInfo struct {
	// ID is the registration number, increasing in registration order.
	ID   uint64
	Stat LockStat
}

func (i LockInfo) String() string {
	return fmt.Sprintf("#%d %s", i.ID, i.Stat)
}

// Register adds l and returns its registration id. Registering the same lock
// again replaces its previous registration.
func (r *Registry) Register(l *ResourceLock) uint64 {
	e := &registryEntry{id: r.seq.Inc(), lock: weak.Make(l)}
	key := uintptr(unsafe.Pointer(l))
	_, replaced := r.m.ProcessEntry(key,
		func(old *pb.EntryOf[uintptr, *registryEntry]) (*pb.EntryOf[uintptr, *registryEntry], *registryEntry, bool) {
			return &pb.EntryOf[uintptr, *registryEntry]{Key: key, Value: e}, e, old != nil
		},
	)
	if !replaced {
		r.live.Inc()
	}
	return e.id
}

// Unregister removes l. Unknown locks are ignored.
func (r *Registry) Unregister(l *ResourceLock) {
	r.remove(uintptr(unsafe.Pointer(l)), func(e *registryEntry) bool {
		return e.lock.Value() == l
	})
}

func (r *Registry) remove(key uintptr, match func(*registryEntry) bool) {
	_, removed := r.m.ProcessEntry(key,
		func(old *pb.EntryOf[uintptr, *registryEntry]) (*pb.EntryOf[uintptr, *registryEntry], *registryEntry, bool) {
			if old == nil || !match(old.Value) {
				return old, nil, false
			}
			return nil, old.Value, true
		},
	)
	if removed {
		r.live.Dec()
	}
}

// Len returns the number of registrations that were neither unregistered
// nor found collected.
func (r *Registry) Len() int {
	return int(r.live.Load())
}

// Snapshot returns the state of every registered lock still alive, in
// registration order.
func (r *Registry) Snapshot() []LockInfo {
	var infos []LockInfo
	var dead []*registryEntry
	var deadKeys []uintptr
	r.m.Range(func(key uintptr, e *registryEntry) bool {
		l := e.lock.Value()
		if l == nil {
			dead = append(dead, e)
			deadKeys = append(deadKeys, key)
			return true
		}
		infos = append(infos, LockInfo{ID: e.id, Stat: l.Stat()})
		return true
	})
	for i, key := range deadKeys {
		stale := dead[i]
		r.remove(key, func(e *registryEntry) bool { return e == stale })
	}
	slices.SortFunc(infos, func(a, b LockInfo) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return infos
}

var debugRegistry Registry

// LiveLocks returns a snapshot of every lock initialized so far in a
// -tags=reslock_debug build. Without the tag it returns nil.
func LiveLocks() []LockInfo {
	return debugRegistry.Snapshot()
}
