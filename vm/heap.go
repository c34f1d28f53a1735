package vm

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/lexem/pkg/interval"
	"github.com/chazu/lexem/pkg/synchronizer"
)

var log = commonlog.GetLogger("lexem.vm")

// ---------------------------------------------------------------------------
// Heap: BigNode chain with reference-counted cells
// ---------------------------------------------------------------------------

// Default heap sizing.
const (
	DefaultInitialCells    = 1024
	DefaultGCQueueCapacity = 64
)

// HeapOptions configures a Heap.
type HeapOptions struct {
	// InitialCells sizes the root BigNode's cell map.
	InitialCells int
	// GCQueueCapacity is the starting capacity of the collector worklist.
	// The worklist grows past it when needed.
	GCQueueCapacity int
	// Metrics enables OpenTelemetry instruments for this heap.
	Metrics bool
}

// DefaultHeapOptions returns the recommended options. NewHeap substitutes
// the sizes here for zero size fields; Metrics is taken as given.
func DefaultHeapOptions() HeapOptions {
	return HeapOptions{
		InitialCells:    DefaultInitialCells,
		GCQueueCapacity: DefaultGCQueueCapacity,
		Metrics:         true,
	}
}

// Heap is a generational copy-on-write cell store.
//
// The heap is a chain of BigNodes from the root to the current one. Reads
// resolve a position by walking the chain backward; writes clone the cell
// into the current BigNode first. Snapshot pushes an empty BigNode, so
// saving and restoring heap state costs O(diff), never O(heap).
//
// All methods are safe for concurrent use. Reads share the heap; every
// other operation is exclusive, and waiting writers hold off new readers.
type Heap struct {
	id   uuid.UUID
	opts HeapOptions
	sync synchronizer.WriteFirstSynchronizer

	root         *BigNode
	current      *BigNode
	nextPosition int64
	nextNodeID   uint64
	fifo         *gcFifo

	// Statistics
	allocated  atomic.Uint64
	freed      atomic.Uint64
	sweepCount atomic.Uint64
	lastGC     atomic.Value // *GCStats
}

// NewHeap creates a heap holding only the reserved contexts: the std-lib
// context at position 0 and the hidden context at position 1. Both start
// with one reference owned by the heap.
func NewHeap(opts HeapOptions) *Heap {
	def := DefaultHeapOptions()
	if opts.InitialCells <= 0 {
		opts.InitialCells = def.InitialCells
	}
	if opts.GCQueueCapacity <= 0 {
		opts.GCQueueCapacity = def.GCQueueCapacity
	}

	h := &Heap{
		id:           uuid.New(),
		opts:         opts,
		nextPosition: firstFreePosition,
		nextNodeID:   1,
		fifo:         newGCFifo(opts.GCQueueCapacity),
	}
	h.root = newBigNode(0, nil, opts.InitialCells)
	h.current = h.root
	h.root.cells[StdLibContextReference.position] = &Cell{value: newContext("stdlib"), refs: 1}
	h.root.cells[HiddenContextReference.position] = &Cell{value: newContext("hidden"), refs: 1}

	log.Debugf("heap %s created", h.id)
	return h
}

// ID returns the heap's identity. Snapshot handles carry it.
func (h *Heap) ID() uuid.UUID {
	return h.id
}

// Options returns the options the heap was created with, defaults applied.
func (h *Heap) Options() HeapOptions {
	return h.opts
}

// ---------------------------------------------------------------------------
// Allocation and access
// ---------------------------------------------------------------------------

// Allocate stores value in a fresh cell of the current BigNode and returns
// its reference. The new cell has no references. Every reference value
// holds gains one reference, and every interval it holds gains a holder.
func (h *Heap) Allocate(value Primitive) LxmReference {
	if value == nil {
		value = Nil
	}

	h.sync.Lock()
	defer h.sync.Unlock()

	pos := h.nextPosition
	h.acquireValue(value, "Heap.Allocate")
	h.current.cells[pos] = &Cell{value: value}
	h.nextPosition++
	h.allocated.Add(1)

	if h.opts.Metrics {
		recordAllocated(context.Background(), 1)
	}
	return LxmReference{position: pos}
}

// Read returns the value stored at ref. It panics if the position was
// never allocated or has been freed.
//
// The result is shared with the heap and must not be mutated; use
// ReadForWrite. An interval in the result stays valid only while a cell
// holds it.
func (h *Heap) Read(ref LxmReference) Primitive {
	h.sync.RLock()
	defer h.sync.RUnlock()
	return h.resolve(ref.position, "Heap.Read").value
}

// ReadForWrite copies the cell at ref into the current BigNode when it lives
// in an ancestor and returns a handle for mutating it.
func (h *Heap) ReadForWrite(ref LxmReference) *CellHandle {
	h.sync.Lock()
	defer h.sync.Unlock()
	h.cellForWrite(ref.position, "Heap.ReadForWrite")
	return &CellHandle{heap: h, ref: ref}
}

// RefCount returns the reference count of the cell at ref.
func (h *Heap) RefCount(ref LxmReference) uint32 {
	h.sync.RLock()
	defer h.sync.RUnlock()
	return h.resolve(ref.position, "Heap.RefCount").refs
}

// IsFreed reports whether ref no longer names a live cell: the cell was
// collected, or the BigNode that created it was rolled back.
func (h *Heap) IsFreed(ref LxmReference) bool {
	h.sync.RLock()
	defer h.sync.RUnlock()
	c, _ := h.current.lookup(ref.position)
	return c == nil || c.freed
}

// Retain adds one reference to the cell at ref.
func (h *Heap) Retain(ref LxmReference) {
	h.sync.Lock()
	defer h.sync.Unlock()
	h.cellForWrite(ref.position, "Heap.Retain").refs++
}

// Release drops one reference from the cell at ref. When the count reaches
// zero the cell is freed, and so is everything reachable only through it.
// Releasing a cell that has no references panics.
func (h *Heap) Release(ref LxmReference) {
	h.sync.Lock()
	defer h.sync.Unlock()

	c := h.cellForWrite(ref.position, "Heap.Release")
	if c.refs == 0 {
		panic(fmt.Sprintf("Heap.Release: position %d has no references", ref.position))
	}
	c.refs--
	if c.refs > 0 {
		return
	}

	stats := h.beginSweep()
	h.fifo.push(ref.position)
	stats.noteQueue(h.fifo.Len())
	h.sweep(stats)
	h.finishSweep(stats)
}

// resolve finds the live cell for position. Must hold the lock.
func (h *Heap) resolve(position int64, op string) *Cell {
	c, _ := h.current.lookup(position)
	if c == nil {
		panic(fmt.Sprintf("%s: position %d is not allocated", op, position))
	}
	if c.freed {
		panic(fmt.Sprintf("%s: position %d is freed", op, position))
	}
	return c
}

// cellForWrite resolves position and, when the cell belongs to an ancestor,
// clones it into the current BigNode. The clone holds the value's intervals
// in its own right. Must hold the write lock.
func (h *Heap) cellForWrite(position int64, op string) *Cell {
	c, owner := h.current.lookup(position)
	if c == nil {
		panic(fmt.Sprintf("%s: position %d is not allocated", op, position))
	}
	if c.freed {
		panic(fmt.Sprintf("%s: position %d is freed", op, position))
	}
	if owner != h.current {
		c = c.clone()
		forEachInterval(c.value, (*interval.Interval).Retain)
		h.current.cells[position] = c
	}
	return c
}

// acquireValue takes the holds a stored value owns: one reference per
// reference it contains and one holder per interval.
func (h *Heap) acquireValue(value Primitive, op string) {
	forEachReference(value, func(r LxmReference) {
		h.cellForWrite(r.position, op).refs++
	})
	forEachInterval(value, (*interval.Interval).Retain)
}

// ---------------------------------------------------------------------------
// CellHandle
// ---------------------------------------------------------------------------

// CellHandle mutates one cell. Every call resolves the cell in the current
// BigNode, so a handle stays usable across snapshots; after the cell's
// BigNode is rolled back it refers to whatever the position resolves to
// now.
type CellHandle struct {
	heap *Heap
	ref  LxmReference
}

// Reference returns the handle's position.
func (c *CellHandle) Reference() LxmReference {
	return c.ref
}

// Value returns the current value. Like Read, the result must not be
// mutated in place.
func (c *CellHandle) Value() Primitive {
	h := c.heap
	h.sync.RLock()
	defer h.sync.RUnlock()
	return h.resolve(c.ref.position, "CellHandle.Value").value
}

// Set replaces the value. References and intervals the new value holds are
// acquired before the old value's are released, so storing a value that
// shares them with the old one never frees anything.
func (c *CellHandle) Set(value Primitive) {
	c.Update(func(Primitive) Primitive { return value })
}

// Update replaces the value with fn applied to a private copy of it. fn runs
// under the heap's write lock and must not call back into the heap.
func (c *CellHandle) Update(fn func(Primitive) Primitive) {
	h := c.heap
	h.sync.Lock()
	defer h.sync.Unlock()

	cell := h.cellForWrite(c.ref.position, "CellHandle.Update")
	old := cell.value
	next := fn(clonePrimitive(old))
	if next == nil {
		next = Nil
	}
	h.acquireValue(next, "CellHandle.Update")
	cell.value = next

	stats := h.beginSweep()
	h.releaseOwned(old, stats)
	h.sweep(stats)
	h.finishSweep(stats)
}

// ---------------------------------------------------------------------------
// Statistics
// ---------------------------------------------------------------------------

// HeapStats describes the heap at one instant.
type HeapStats struct {
	Depth        int    // BigNodes above the root
	DiffCells    int    // cells overridden by the current BigNode
	LiveCells    int    // positions resolving to a live cell
	NextPosition int64  // next position Allocate hands out
	Allocated    uint64 // cells allocated since creation, reserved contexts excluded
	Freed        uint64 // cells freed by the collector since creation
	Sweeps       uint64 // collector sweeps that freed at least one cell
}

// Stats walks the chain and returns current statistics. It costs O(heap).
func (h *Heap) Stats() HeapStats {
	h.sync.RLock()
	defer h.sync.RUnlock()

	live := 0
	h.forEachLive(func(int64, *Cell) { live++ })
	return HeapStats{
		Depth:        h.current.depth,
		DiffCells:    len(h.current.cells),
		LiveCells:    live,
		NextPosition: h.nextPosition,
		Allocated:    h.allocated.Load(),
		Freed:        h.freed.Load(),
		Sweeps:       h.sweepCount.Load(),
	}
}

// Depth returns the number of BigNodes above the root.
func (h *Heap) Depth() int {
	h.sync.RLock()
	defer h.sync.RUnlock()
	return h.current.depth
}

// forEachLive calls fn once per position with the newest live cell for it.
// Must hold the lock.
func (h *Heap) forEachLive(fn func(int64, *Cell)) {
	seen := make(map[int64]struct{})
	for node := h.current; node != nil; node = node.previous {
		for pos, c := range node.cells {
			if _, ok := seen[pos]; ok {
				continue
			}
			seen[pos] = struct{}{}
			if !c.freed {
				fn(pos, c)
			}
		}
	}
}
