package vm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/chazu/lexem/pkg/interval"
)

// ---------------------------------------------------------------------------
// Snapshots: push, roll back and commit BigNodes
// ---------------------------------------------------------------------------

// Snapshot marks a choice point. It names the BigNode pushed when it was
// taken; rolling back to it restores the heap as it was just before.
type Snapshot struct {
	heap uuid.UUID
	node *BigNode
}

// HeapID returns the ID of the heap the snapshot was taken on.
func (s *Snapshot) HeapID() uuid.UUID {
	return s.heap
}

// Depth returns the depth of the snapshot's BigNode.
func (s *Snapshot) Depth() int {
	return s.node.depth
}

// Snapshot pushes an empty BigNode and returns a handle to it. O(1).
func (h *Heap) Snapshot() *Snapshot {
	h.sync.Lock()
	defer h.sync.Unlock()

	node := newBigNode(h.nextNodeID, h.current, 0)
	h.nextNodeID++
	h.current = node

	if h.opts.Metrics {
		recordSnapshot(context.Background(), node.depth)
	}
	log.Debugf("snapshot %d at depth %d", node.id, node.depth)
	return &Snapshot{heap: h.id, node: node}
}

// RollbackTo discards s's BigNode and every BigNode pushed after it. Cells
// created or written in them are dropped without running the collector.
func (h *Heap) RollbackTo(s *Snapshot) error {
	h.sync.Lock()
	defer h.sync.Unlock()

	if err := h.checkSnapshot(s); err != nil {
		return err
	}
	nodes, cells := h.discardTo(s.node.previous)
	h.rolledBack(nodes, cells)
	return nil
}

// Rollback discards the newest n BigNodes.
func (h *Heap) Rollback(n int) error {
	h.sync.Lock()
	defer h.sync.Unlock()

	if n < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeRollback, n)
	}
	if n > h.current.depth {
		return fmt.Errorf("%w: depth %d, requested %d", ErrNoSnapshot, h.current.depth, n)
	}
	target := h.current
	for range n {
		target = target.previous
	}
	nodes, cells := h.discardTo(target)
	h.rolledBack(nodes, cells)
	return nil
}

// Commit folds s's BigNode, and every BigNode pushed after it, into the
// BigNode below s. The changes made since s become permanent.
func (h *Heap) Commit(s *Snapshot) error {
	h.sync.Lock()
	defer h.sync.Unlock()

	if err := h.checkSnapshot(s); err != nil {
		return err
	}
	target := s.node.previous
	nodes := 0
	for h.current != target {
		h.fold(h.current)
		nodes++
	}

	if h.opts.Metrics {
		recordCommit(context.Background(), nodes)
	}
	log.Debugf("commit: folded %d BigNodes, depth %d", nodes, h.current.depth)
	return nil
}

// Atomically runs fn inside a snapshot. The snapshot is committed when fn
// returns nil and rolled back when it returns an error or panics; a panic
// continues after the rollback. Calls nest.
func (h *Heap) Atomically(fn func() error) (err error) {
	s := h.Snapshot()
	done := false
	defer func() {
		if !done {
			_ = h.RollbackTo(s)
		}
	}()

	if err = fn(); err != nil {
		done = true
		if rbErr := h.RollbackTo(s); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	done = true
	return h.Commit(s)
}

// checkSnapshot verifies s is a live BigNode of this heap. Must hold the lock.
func (h *Heap) checkSnapshot(s *Snapshot) error {
	switch {
	case s == nil || s.node == nil:
		return fmt.Errorf("%w: nil snapshot", ErrStaleSnapshot)
	case s.heap != h.id:
		return fmt.Errorf("%w: %s", ErrForeignSnapshot, s.heap)
	case !s.node.alive:
		return fmt.Errorf("%w: BigNode %d", ErrStaleSnapshot, s.node.id)
	}
	return nil
}

// discardTo pops BigNodes until target is current. Must hold the write lock.
func (h *Heap) discardTo(target *BigNode) (nodes, cells int) {
	for h.current != target {
		n := h.current
		nodes++
		cells += len(n.cells)
		n.alive = false
		n.cells = nil
		h.current = n.previous
	}
	return nodes, cells
}

func (h *Heap) rolledBack(nodes, cells int) {
	if h.opts.Metrics {
		recordRollback(context.Background(), nodes, cells)
	}
	log.Debugf("rollback: discarded %d BigNodes (%d cells), depth %d", nodes, cells, h.current.depth)
}

// fold merges n into its predecessor, which becomes current. A parent cell
// superseded by n's releases its interval holds. Freed cells folded into the
// root are dropped from it. Must hold the write lock.
func (h *Heap) fold(n *BigNode) {
	parent := n.previous
	for pos, c := range n.cells {
		if old, ok := parent.cells[pos]; ok && old != c {
			forEachInterval(old.value, (*interval.Interval).Destroy)
		}
		if c.freed && parent == h.root {
			delete(parent.cells, pos)
			continue
		}
		parent.cells[pos] = c
	}
	n.alive = false
	n.cells = nil
	h.current = parent
}
