package interval

import (
	"fmt"
	"iter"
)

// ---------------------------------------------------------------------------
// Tree: mutable point set built one point at a time
// ---------------------------------------------------------------------------

// Tree is a binary search tree of ranges. An in-order walk yields strictly
// increasing ranges that never touch: adding a point next to a range grows
// that range, and a point that closes the gap between two ranges joins them
// into one node. Removing a point shrinks, splits or deletes its range.
//
// The tree is kept height-balanced (AVL). Balancing only changes the shape;
// membership, iteration order and counts are those of the plain BST.
//
// A Tree is not safe for concurrent mutation.
type Tree struct {
	root   *treeNode
	ranges int
}

type treeNode struct {
	rng    Range
	left   *treeNode
	right  *treeNode
	size   uint64 // points in this subtree
	height int
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{}
}

// TreeFromInterval returns a tree holding the points of iv.
func TreeFromInterval(iv *Interval) *Tree {
	t := NewTree()
	for _, r := range iv.ranges {
		t.root = insertNode(t.root, r)
		t.ranges++
	}
	return t
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// Contains reports whether p is in the tree. O(height).
func (t *Tree) Contains(p int64) bool {
	return t.find(p) != nil
}

func (t *Tree) find(p int64) *treeNode {
	n := t.root
	for n != nil {
		switch n.rng.CompareTo(p) {
		case 0:
			return n
		case 1:
			n = n.left
		default:
			n = n.right
		}
	}
	return nil
}

// IsEmpty reports whether the tree holds no points.
func (t *Tree) IsEmpty() bool {
	return t.root == nil
}

// PointCount returns the number of points in the tree.
func (t *Tree) PointCount() uint64 {
	return sizeOf(t.root)
}

// RangeCount returns the number of maximal ranges (nodes).
func (t *Tree) RangeCount() int {
	return t.ranges
}

// Height returns the height of the tree; an empty tree has height 0.
func (t *Tree) Height() int {
	return heightOf(t.root)
}

// Get returns the point at position index in ascending order.
func (t *Tree) Get(index int64) (int64, bool) {
	if index < 0 {
		return 0, false
	}
	rest := uint64(index)
	n := t.root
	for n != nil {
		ls := sizeOf(n.left)
		if rest < ls {
			n = n.left
			continue
		}
		rest -= ls
		c := n.rng.PointCount()
		if rest < c {
			return n.rng.from + int64(rest), true
		}
		rest -= c
		n = n.right
	}
	return 0, false
}

// Ranges yields the ranges in ascending order.
func (t *Tree) Ranges() iter.Seq[Range] {
	return func(yield func(Range) bool) {
		var stack []*treeNode
		n := t.root
		for n != nil || len(stack) > 0 {
			for n != nil {
				stack = append(stack, n)
				n = n.left
			}
			n = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(n.rng) {
				return
			}
			n = n.right
		}
	}
}

// Points yields every point in ascending order.
func (t *Tree) Points() iter.Seq[int64] {
	return func(yield func(int64) bool) {
		for r := range t.Ranges() {
			for p := range r.Points() {
				if !yield(p) {
					return
				}
			}
		}
	}
}

// ToInterval returns the points of the tree as an Interval.
func (t *Tree) ToInterval() *Interval {
	if t.root == nil {
		return Empty
	}
	iv := pool.acquire(t.ranges)
	for r := range t.Ranges() {
		iv.ranges = append(iv.ranges, r)
	}
	return iv
}

// ---------------------------------------------------------------------------
// Mutation
// ---------------------------------------------------------------------------

// Add inserts p. Adding a member is a no-op.
func (t *Tree) Add(p int64) error {
	if p < 0 {
		return fmt.Errorf("%w: %d", ErrNegativePoint, p)
	}
	if t.Contains(p) {
		return nil
	}

	pred, succ := t.neighbors(p)
	touchLeft := pred != nil && pred.rng.to == p-1
	touchRight := succ != nil && succ.rng.from == p+1

	switch {
	case touchLeft && touchRight:
		// p closes the gap: absorb the successor into the predecessor.
		joined := Range{pred.rng.from, succ.rng.to}
		t.root = deleteNode(t.root, succ.rng.from)
		t.root = replaceNode(t.root, joined.from, joined)
		t.ranges--
	case touchLeft:
		t.root = replaceNode(t.root, pred.rng.from, Range{pred.rng.from, p})
	case touchRight:
		t.root = replaceNode(t.root, succ.rng.from, Range{p, succ.rng.to})
	default:
		t.root = insertNode(t.root, Range{p, p})
		t.ranges++
	}
	return nil
}

// Remove deletes p. Removing a non-member is a no-op.
func (t *Tree) Remove(p int64) {
	n := t.find(p)
	if n == nil {
		return
	}
	r := n.rng

	switch {
	case r.from == r.to:
		t.root = deleteNode(t.root, r.from)
		t.ranges--
	case p == r.from:
		t.root = replaceNode(t.root, r.from, Range{r.from + 1, r.to})
	case p == r.to:
		t.root = replaceNode(t.root, r.from, Range{r.from, r.to - 1})
	default:
		t.root = replaceNode(t.root, r.from, Range{r.from, p - 1})
		t.root = insertNode(t.root, Range{p + 1, r.to})
		t.ranges++
	}
}

// neighbors returns the nodes holding the nearest range below p and the
// nearest range above p. p must not be a member.
func (t *Tree) neighbors(p int64) (pred, succ *treeNode) {
	for n := t.root; n != nil; {
		if n.rng.to < p {
			pred = n
			n = n.right
		} else {
			n = n.left
		}
	}
	for n := t.root; n != nil; {
		if n.rng.from > p {
			succ = n
			n = n.left
		} else {
			n = n.right
		}
	}
	return pred, succ
}

// ---------------------------------------------------------------------------
// Node helpers
// ---------------------------------------------------------------------------

func sizeOf(n *treeNode) uint64 {
	if n == nil {
		return 0
	}
	return n.size
}

func heightOf(n *treeNode) int {
	if n == nil {
		return 0
	}
	return n.height
}

func (n *treeNode) update() {
	n.height = 1 + max(heightOf(n.left), heightOf(n.right))
	n.size = sizeOf(n.left) + sizeOf(n.right) + n.rng.PointCount()
}

func insertNode(n *treeNode, r Range) *treeNode {
	if n == nil {
		node := &treeNode{rng: r}
		node.update()
		return node
	}
	if r.from < n.rng.from {
		n.left = insertNode(n.left, r)
	} else {
		n.right = insertNode(n.right, r)
	}
	return rebalance(n)
}

// replaceNode swaps the range of the node keyed by from. The new range must
// keep the in-order position, so only sizes change along the path.
func replaceNode(n *treeNode, from int64, r Range) *treeNode {
	if n == nil {
		panic("Tree.replaceNode: no range starts at the given point")
	}
	switch {
	case from < n.rng.from:
		n.left = replaceNode(n.left, from, r)
	case from > n.rng.from:
		n.right = replaceNode(n.right, from, r)
	default:
		n.rng = r
	}
	n.update()
	return n
}

// deleteNode removes the node keyed by from, replacing an inner node with
// its in-order successor.
func deleteNode(n *treeNode, from int64) *treeNode {
	if n == nil {
		panic("Tree.deleteNode: no range starts at the given point")
	}
	switch {
	case from < n.rng.from:
		n.left = deleteNode(n.left, from)
	case from > n.rng.from:
		n.right = deleteNode(n.right, from)
	default:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		succ := n.right
		for succ.left != nil {
			succ = succ.left
		}
		n.rng = succ.rng
		n.right = deleteNode(n.right, succ.rng.from)
	}
	return rebalance(n)
}

func rebalance(n *treeNode) *treeNode {
	n.update()
	switch balance := heightOf(n.left) - heightOf(n.right); {
	case balance > 1:
		if heightOf(n.left.left) < heightOf(n.left.right) {
			n.left = rotateLeft(n.left)
		}
		return rotateRight(n)
	case balance < -1:
		if heightOf(n.right.right) < heightOf(n.right.left) {
			n.right = rotateRight(n.right)
		}
		return rotateLeft(n)
	}
	return n
}

func rotateRight(n *treeNode) *treeNode {
	l := n.left
	n.left = l.right
	l.right = n
	n.update()
	l.update()
	return l
}

func rotateLeft(n *treeNode) *treeNode {
	r := n.right
	n.right = r.left
	r.left = n
	n.update()
	r.update()
	return r
}
