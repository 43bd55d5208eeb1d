//go:build reslock_debug

package opt

// Debug_ enables contract assertions and registration of live locks.
// Use: go test -tags=reslock_debug
const Debug_ = true
