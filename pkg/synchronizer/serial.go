// Package synchronizer provides spin-wait exclusion primitives for short
// critical sections over shared heap state.
//
// The primitives never park the calling goroutine on an OS-level wait
// queue; they yield with runtime.Gosched while spinning. Callers must keep
// the guarded sections short. There is no timeout or cancellation: a
// caller blocked on a synchronizer waits until it is released.
package synchronizer

import (
	"runtime"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// SerialSynchronizer: single-owner exclusion
// ---------------------------------------------------------------------------

// SerialSynchronizer serializes callers through a spin loop on an atomic
// flag. The zero value is unlocked and ready to use.
type SerialSynchronizer struct {
	locked atomic.Bool
}

// Lock spins until the synchronizer is acquired.
func (s *SerialSynchronizer) Lock() {
	for !s.locked.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

// TryLock acquires the synchronizer if it is free and reports whether it
// did.
func (s *SerialSynchronizer) TryLock() bool {
	return s.locked.CompareAndSwap(false, true)
}

// Unlock releases the synchronizer. Panics if it is not held.
func (s *SerialSynchronizer) Unlock() {
	if !s.locked.CompareAndSwap(true, false) {
		panic("SerialSynchronizer.Unlock: not locked")
	}
}

// IsLocked reports whether the synchronizer is currently held.
func (s *SerialSynchronizer) IsLocked() bool {
	return s.locked.Load()
}

// Sync runs fn while holding the synchronizer. The synchronizer is
// released on every exit path, including a panic in fn.
func (s *SerialSynchronizer) Sync(fn func()) {
	s.Lock()
	defer s.Unlock()
	fn()
}

// SyncLet runs fn while holding s and returns its result.
func SyncLet[T any](s *SerialSynchronizer, fn func() T) T {
	s.Lock()
	defer s.Unlock()
	return fn()
}
