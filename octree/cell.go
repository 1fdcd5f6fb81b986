package octree

import (
	"slices"

	"go.viam.com/octree/spatialmath"
)

// octantOffsets orders the children of a split cell relative to its minimal corner:
// (---, +--, -+-, --+, ++-, -++, +-+, +++).
var octantOffsets = [8][3]float64{
	{0, 0, 0},
	{1, 0, 0},
	{0, 1, 0},
	{0, 0, 1},
	{1, 1, 0},
	{0, 1, 1},
	{1, 0, 1},
	{1, 1, 1},
}

// node is the contents of a cell: either a leaf holding entries or an internal node holding
// exactly eight children, never both.
type node[T any] interface {
	nodeType() NodeType
}

type leafNode[T any] struct {
	entries []Entry[T]
}

func (n *leafNode[T]) nodeType() NodeType {
	if len(n.entries) == 0 {
		return LeafNodeEmpty
	}
	return LeafNodeFilled
}

type internalNode[T any] struct {
	children [8]*Cell[T]
}

func (n *internalNode[T]) nodeType() NodeType {
	return InternalNode
}

// Cell is one axis-aligned sub-volume of a Tree.
type Cell[T any] struct {
	tree   *Tree[T]
	origin spatialmath.Vector
	size   spatialmath.Vector
	level  int
	node   node[T]
}

func newCell[T any](tree *Tree[T], origin, size spatialmath.Vector, level int) *Cell[T] {
	return &Cell[T]{
		tree:   tree,
		origin: origin,
		size:   size,
		level:  level,
		node:   &leafNode[T]{},
	}
}

// Origin returns the cell's minimal corner.
func (c *Cell[T]) Origin() spatialmath.Vector {
	return c.origin
}

// Size returns the cell's per-axis extent.
func (c *Cell[T]) Size() spatialmath.Vector {
	return c.size
}

// Level returns the subdivision depth, 0 at the root.
func (c *Cell[T]) Level() int {
	return c.level
}

// Region returns the cell's volume as a box.
func (c *Cell[T]) Region() spatialmath.Box {
	return spatialmath.NewBox(c.origin, c.size)
}

// Center returns the center of the cell's volume.
func (c *Cell[T]) Center() spatialmath.Vector {
	return c.origin.Add(c.size.MulScalar(0.5))
}

// NodeType reports whether the cell is internal, an empty leaf or a filled leaf.
func (c *Cell[T]) NodeType() NodeType {
	return c.node.nodeType()
}

// Entries returns a copy of the entries held directly by the cell. Internal cells hold none.
func (c *Cell[T]) Entries() []Entry[T] {
	if leaf, ok := c.node.(*leafNode[T]); ok {
		return slices.Clone(leaf.entries)
	}
	return nil
}

// Children returns the eight children of an internal cell, or nil for a leaf.
func (c *Cell[T]) Children() []*Cell[T] {
	if internal, ok := c.node.(*internalNode[T]); ok {
		return internal.children[:]
	}
	return nil
}

// Contains reports whether the tree's containment policy places p in this cell.
func (c *Cell[T]) Contains(p spatialmath.Vector) bool {
	return c.tree.containment.Contains(c.Region(), p, c.tree.accuracy)
}

// add stores e in this cell or its descendants and returns the net change in stored entries,
// which accounts for entries dropped while re-routing during a split.
func (c *Cell[T]) add(e Entry[T]) int {
	switch n := c.node.(type) {
	case *internalNode[T]:
		return c.addToChildren(n, e)
	case *leafNode[T]:
		n.entries = append(n.entries, e)
		if len(n.entries) > 1 && c.level < MaxLevel {
			previous := len(n.entries) - 1
			return c.split(n) - previous
		}
		return 1
	}
	return 0
}

// addToChildren routes e to the first child that contains it.
func (c *Cell[T]) addToChildren(n *internalNode[T], e Entry[T]) int {
	for _, child := range n.children {
		if child.Contains(e.Point) {
			return child.add(e)
		}
	}
	c.tree.logger.Debugw("no octant claims point, dropping it", "point", e.Point, "level", c.level)
	return 0
}

// split turns a leaf into an internal cell, re-routing its entries into the eight new octants. It
// returns how many entries remain stored afterwards.
func (c *Cell[T]) split(leaf *leafNode[T]) int {
	half := c.size.MulScalar(0.5)
	internal := &internalNode[T]{}
	for i, offset := range octantOffsets {
		origin := c.origin.Add(spatialmath.NewVector(offset[0]*half.X, offset[1]*half.Y, offset[2]*half.Z))
		internal.children[i] = newCell(c.tree, origin, half, c.level+1)
	}
	c.node = internal

	c.tree.logger.Debugw("split octree cell", "level", c.level, "origin", c.origin, "entries", len(leaf.entries))

	stored := 0
	for _, e := range leaf.entries {
		stored += c.addToChildren(internal, e)
	}
	return stored
}

func (c *Cell[T]) has(p spatialmath.Vector) (spatialmath.Vector, bool) {
	if !c.Contains(p) {
		return spatialmath.Vector{}, false
	}

	switch n := c.node.(type) {
	case *internalNode[T]:
		for _, child := range n.children {
			if match, ok := child.has(p); ok {
				return match, true
			}
		}
	case *leafNode[T]:
		maxDistSq := c.tree.accuracy * c.tree.accuracy
		for _, e := range n.entries {
			if p.DistanceSquared(e.Point) <= maxDistSq {
				return e.Point, true
			}
		}
	}
	return spatialmath.Vector{}, false
}

func (c *Cell[T]) iterate(fn func(p spatialmath.Vector, d T) bool) bool {
	switch n := c.node.(type) {
	case *internalNode[T]:
		for _, child := range n.children {
			if !child.iterate(fn) {
				return false
			}
		}
	case *leafNode[T]:
		for _, e := range n.entries {
			if !fn(e.Point, e.Data) {
				return false
			}
		}
	}
	return true
}

func (c *Cell[T]) collectAtLevel(level int, result *[]*Cell[T]) {
	switch n := c.node.(type) {
	case *leafNode[T]:
		if c.level == level && len(n.entries) > 0 {
			*result = append(*result, c)
		}
	case *internalNode[T]:
		for _, child := range n.children {
			child.collectAtLevel(level, result)
		}
	}
}
