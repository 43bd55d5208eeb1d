package reslock

import "runtime"

// ============================================================================
// Configuration
// ============================================================================

// LockConfig defines configurable options for ResourceLock initialization.
type LockConfig struct {
	// cpus is the logical CPU count the spin budget is derived from.
	// Zero means runtime.NumCPU().
	cpus int

	// spinCount overrides the derived spin budget when non-negative.
	spinCount int

	// parker blocks and wakes queued goroutines. Nil means SemaParker.
	parker Parker
}

func newLockConfig(options []func(*LockConfig)) LockConfig {
	c := LockConfig{spinCount: -1}
	for _, o := range options {
		o(&c)
	}
	return c
}

// spins resolves the spin budget for this configuration.
func (c *LockConfig) spins() int32 {
	if c.spinCount >= 0 {
		return int32(min(c.spinCount, 1<<20))
	}
	cpus := c.cpus
	if cpus <= 0 {
		cpus = runtime.NumCPU()
	}
	return spinCountFor(cpus)
}

// WithCPUCount derives the spin budget as if the machine had n logical CPUs.
// With n == 1 contended acquires park immediately. Values below 1 are ignored.
func WithCPUCount(n int) func(*LockConfig) {
	return func(c *LockConfig) {
		if n > 0 {
			c.cpus = n
		}
	}
}

// WithSpinCount sets the number of spin rounds a contended acquire makes
// before parking, overriding the CPU-derived default. Negative values are
// ignored.
func WithSpinCount(n int) func(*LockConfig) {
	return func(c *LockConfig) {
		if n >= 0 {
			c.spinCount = n
		}
	}
}

// WithParker sets the mechanism queued goroutines block on.
// Pass nil to use the default SemaParker.
//
// Usage:
//
//	var l reslock.ResourceLock
//	l.Init(reslock.WithParker(reslock.FutexParker{}))
func WithParker(p Parker) func(*LockConfig) {
	return func(c *LockConfig) {
		c.parker = p
	}
}
