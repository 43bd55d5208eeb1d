//go:build !reslock_debug

package opt

// Debug_ enables contract assertions and registration of live locks.
const Debug_ = false
