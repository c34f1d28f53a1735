package vm

import (
	"context"
	"fmt"
	"time"

	"github.com/chazu/lexem/pkg/interval"
)

// ---------------------------------------------------------------------------
// Cell garbage collection
// ---------------------------------------------------------------------------

// GCStats holds statistics from a single collector sweep.
type GCStats struct {
	Freed         int // cells freed
	Decrements    int // reference counts decremented by freed values
	MaxQueue      int // longest the worklist grew
	SweepDuration time.Duration
	Timestamp     time.Time
}

func (s *GCStats) noteQueue(n int) {
	if n > s.MaxQueue {
		s.MaxQueue = n
	}
}

// SweepCount returns the number of sweeps that freed at least one cell.
func (h *Heap) SweepCount() uint64 {
	return h.sweepCount.Load()
}

// LastGCStats returns statistics from the most recent sweep that freed a
// cell, or nil if none has.
func (h *Heap) LastGCStats() *GCStats {
	v := h.lastGC.Load()
	if v == nil {
		return nil
	}
	return v.(*GCStats)
}

func (h *Heap) beginSweep() *GCStats {
	return &GCStats{Timestamp: time.Now()}
}

// sweep frees every queued position. Each queued cell has reached zero
// references; freeing it releases what its value owns, which may queue more
// cells. The worklist is breadth first, so deep structures never grow the
// goroutine stack. Must hold the write lock.
func (h *Heap) sweep(stats *GCStats) {
	for h.fifo.Len() > 0 {
		pos := h.fifo.pop()
		c := h.cellForWrite(pos, "Heap.sweep")
		value := c.value
		c.value = nil
		c.freed = true
		if h.current == h.root {
			delete(h.root.cells, pos)
		}
		stats.Freed++
		h.releaseOwned(value, stats)
	}
}

// releaseOwned drops the holds value owns. Positions whose count reaches
// zero are queued for sweep. Must hold the write lock.
func (h *Heap) releaseOwned(value Primitive, stats *GCStats) {
	forEachInterval(value, (*interval.Interval).Destroy)
	forEachReference(value, func(r LxmReference) {
		c := h.cellForWrite(r.position, "Heap.release")
		if c.refs == 0 {
			panic(fmt.Sprintf("Heap.release: position %d has no references", r.position))
		}
		c.refs--
		stats.Decrements++
		if c.refs == 0 {
			h.fifo.push(r.position)
			stats.noteQueue(h.fifo.Len())
		}
	})
}

// finishSweep publishes stats for a sweep that freed something.
func (h *Heap) finishSweep(stats *GCStats) {
	if stats.Freed == 0 {
		return
	}
	stats.SweepDuration = time.Since(stats.Timestamp)
	h.freed.Add(uint64(stats.Freed))
	h.sweepCount.Add(1)
	h.lastGC.Store(stats)

	if h.opts.Metrics {
		recordSweep(context.Background(), stats)
	}
	log.Debugf("gc: freed %d cells (%d decrements) in %s", stats.Freed, stats.Decrements, stats.SweepDuration)
}

// ---------------------------------------------------------------------------
// gcFifo: ring-buffer worklist of positions
// ---------------------------------------------------------------------------

type gcFifo struct {
	buf  []int64
	head int
	size int
}

func newGCFifo(capacity int) *gcFifo {
	return &gcFifo{buf: make([]int64, max(capacity, 1))}
}

func (q *gcFifo) Len() int {
	return q.size
}

func (q *gcFifo) push(pos int64) {
	if q.size == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.size)%len(q.buf)] = pos
	q.size++
}

func (q *gcFifo) pop() int64 {
	if q.size == 0 {
		panic("gcFifo.pop: empty")
	}
	pos := q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return pos
}

func (q *gcFifo) grow() {
	buf := make([]int64, 2*len(q.buf))
	for i := 0; i < q.size; i++ {
		buf[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = buf
	q.head = 0
}
