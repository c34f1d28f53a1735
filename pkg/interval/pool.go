package interval

import (
	"github.com/chazu/lexem/pkg/synchronizer"
)

// ---------------------------------------------------------------------------
// Interval free list
// ---------------------------------------------------------------------------

// DefaultPoolCapacity is the number of destroyed intervals kept for reuse.
const DefaultPoolCapacity = 1024

// PoolStats reports the state of the interval free list.
type PoolStats struct {
	Size      int    // intervals currently parked
	Capacity  int    // maximum parked intervals
	Reused    uint64 // acquisitions served from the free list
	Allocated uint64 // acquisitions that allocated
	Returned  uint64 // destroyed intervals accepted
	Dropped   uint64 // destroyed intervals refused because the list was full
}

// intervalPool is a bounded stack of destroyed intervals. Interval algebra
// runs on any goroutine, so every access goes through the synchronizer.
type intervalPool struct {
	sync  synchronizer.SerialSynchronizer
	free  []*Interval
	stats PoolStats
}

var pool = &intervalPool{stats: PoolStats{Capacity: DefaultPoolCapacity}}

// acquire returns an empty, unshared interval whose range slice has at least
// capHint capacity.
func (p *intervalPool) acquire(capHint int) *Interval {
	iv := synchronizer.SyncLet(&p.sync, func() *Interval {
		n := len(p.free)
		if n == 0 {
			p.stats.Allocated++
			return nil
		}
		iv := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		p.stats.Reused++
		return iv
	})
	if iv == nil {
		return &Interval{ranges: make([]Range, 0, capHint)}
	}
	iv.reset()
	if cap(iv.ranges) < capHint {
		iv.ranges = make([]Range, 0, capHint)
	}
	return iv
}

// release parks iv for reuse unless the list is full, in which case iv is
// left to the garbage collector.
func (p *intervalPool) release(iv *Interval) {
	p.sync.Sync(func() {
		if len(p.free) >= p.stats.Capacity {
			p.stats.Dropped++
			return
		}
		p.free = append(p.free, iv)
		p.stats.Returned++
	})
}

// SetPoolCapacity changes the number of destroyed intervals kept for reuse.
// Parked intervals above the new capacity are dropped. Negative values are
// treated as zero.
func SetPoolCapacity(n int) {
	if n < 0 {
		n = 0
	}
	pool.sync.Sync(func() {
		pool.stats.Capacity = n
		if len(pool.free) > n {
			clear(pool.free[n:])
			pool.free = pool.free[:n]
		}
	})
}

// Stats returns a copy of the interval free-list statistics.
func Stats() PoolStats {
	return synchronizer.SyncLet(&pool.sync, func() PoolStats {
		s := pool.stats
		s.Size = len(pool.free)
		return s
	})
}
