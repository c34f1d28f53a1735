package vm

// ---------------------------------------------------------------------------
// Cells and BigNodes
// ---------------------------------------------------------------------------

// Cell is one heap slot: a value, a reference count and a freed flag.
// Cells in a superseded BigNode are never mutated; writes go to a clone in
// the current BigNode.
type Cell struct {
	value Primitive
	refs  uint32
	freed bool
}

// Value returns the stored primitive.
func (c *Cell) Value() Primitive { return c.value }

// RefCount returns the reference count.
func (c *Cell) RefCount() uint32 { return c.refs }

// IsFreed reports whether the cell was garbage collected.
func (c *Cell) IsFreed() bool { return c.freed }

// clone copies the cell for copy-on-write.
func (c *Cell) clone() *Cell {
	return &Cell{value: clonePrimitive(c.value), refs: c.refs, freed: c.freed}
}

// BigNode is one generation of the heap: a sparse overlay of cells over its
// predecessor. Positions missing from cells are inherited from previous.
type BigNode struct {
	id       uint64
	depth    int
	previous *BigNode
	cells    map[int64]*Cell
	alive    bool
}

func newBigNode(id uint64, previous *BigNode, capHint int) *BigNode {
	n := &BigNode{
		id:       id,
		previous: previous,
		cells:    make(map[int64]*Cell, capHint),
		alive:    true,
	}
	if previous != nil {
		n.depth = previous.depth + 1
	}
	return n
}

// lookup walks the chain from n back to the root and returns the first cell
// stored for position along with the BigNode that owns it.
func (n *BigNode) lookup(position int64) (*Cell, *BigNode) {
	for node := n; node != nil; node = node.previous {
		if c, ok := node.cells[position]; ok {
			return c, node
		}
	}
	return nil, nil
}

// Depth returns the number of BigNodes below n; the root has depth 0.
func (n *BigNode) Depth() int { return n.depth }

// DiffSize returns the number of cells n overrides.
func (n *BigNode) DiffSize() int { return len(n.cells) }
