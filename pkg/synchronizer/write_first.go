package synchronizer

import (
	"runtime"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// WriteFirstSynchronizer: shared readers, exclusive writers, writer priority
// ---------------------------------------------------------------------------

// WriteFirstSynchronizer lets any number of readers run concurrently while
// writers run alone. A writer announces its intent before it competes for
// the serial lock; new readers back off while any writer is waiting, so a
// continuous stream of readers cannot starve a writer.
//
// The zero value is ready to use. Read sections must not call Write on the
// same synchronizer: the writer would wait for the reader that is waiting
// for it.
type WriteFirstSynchronizer struct {
	serial  SerialSynchronizer
	readers atomic.Int32
	writers atomic.Int32 // writers announced but not yet finished
}

// RLock registers a reader. The reader count is incremented under the
// serial lock so it cannot race with a writer that is draining readers.
func (s *WriteFirstSynchronizer) RLock() {
	for {
		for s.writers.Load() > 0 {
			runtime.Gosched()
		}
		s.serial.Lock()
		if s.writers.Load() == 0 {
			s.readers.Add(1)
			s.serial.Unlock()
			return
		}
		// A writer announced itself between the check and the lock.
		s.serial.Unlock()
	}
}

// RUnlock unregisters a reader.
func (s *WriteFirstSynchronizer) RUnlock() {
	if s.readers.Add(-1) < 0 {
		panic("WriteFirstSynchronizer.RUnlock: no active reader")
	}
}

// Lock acquires exclusive access: announce, take the serial lock, then wait
// for in-flight readers to drain.
func (s *WriteFirstSynchronizer) Lock() {
	s.writers.Add(1)
	s.serial.Lock()
	for s.readers.Load() > 0 {
		runtime.Gosched()
	}
}

// Unlock releases exclusive access.
func (s *WriteFirstSynchronizer) Unlock() {
	s.serial.Unlock()
	s.writers.Add(-1)
}

// Readers returns the number of readers currently inside a read section.
func (s *WriteFirstSynchronizer) Readers() int {
	return int(s.readers.Load())
}

// WritersWaiting returns the number of writers that announced themselves
// and have not finished yet, including one that is running.
func (s *WriteFirstSynchronizer) WritersWaiting() int {
	return int(s.writers.Load())
}

// Read runs fn as a reader.
func (s *WriteFirstSynchronizer) Read(fn func()) {
	s.RLock()
	defer s.RUnlock()
	fn()
}

// Write runs fn with exclusive access.
func (s *WriteFirstSynchronizer) Write(fn func()) {
	s.Lock()
	defer s.Unlock()
	fn()
}

// ReadLet runs fn as a reader of s and returns its result.
func ReadLet[T any](s *WriteFirstSynchronizer, fn func() T) T {
	s.RLock()
	defer s.RUnlock()
	return fn()
}

// WriteLet runs fn with exclusive access to s and returns its result.
func WriteLet[T any](s *WriteFirstSynchronizer, fn func() T) T {
	s.Lock()
	defer s.Unlock()
	return fn()
}
