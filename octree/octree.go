// Package octree implements an adaptively subdividing octree over 3-D points carrying opaque
// payloads. It answers nearest-point, radius and fuzzy membership queries, the latter making it
// usable for deduplicating point clouds under a tolerance.
//
// A Tree is not safe for concurrent use; callers must serialize inserts and queries.
package octree

import (
	"github.com/samber/lo"

	"go.viam.com/octree/logging"
	"go.viam.com/octree/spatialmath"
)

// Each cell in the octree is either an internal node which links to eight children, an empty leaf
// with no points, or a filled leaf holding one or more points with their payloads.
const (
	InternalNode = NodeType(iota)
	LeafNodeEmpty
	LeafNodeFilled
)

// MaxLevel is the deepest subdivision level. Cells at this level never split.
const MaxLevel = 8

// NodeType represents the possible types of cells in an octree.
type NodeType uint8

func (n NodeType) String() string {
	switch n {
	case InternalNode:
		return "InternalNode"
	case LeafNodeEmpty:
		return "LeafNodeEmpty"
	case LeafNodeFilled:
		return "LeafNodeFilled"
	}
	return ""
}

// Entry is a stored point together with its payload.
type Entry[T any] struct {
	Point spatialmath.Vector
	Data  T
}

// BoundingBox is anything exposing a minimal corner and a size, such as spatialmath.Box.
type BoundingBox interface {
	Min() spatialmath.Vector
	Size() spatialmath.Vector
}

type treeOptions struct {
	accuracy    float64
	containment ContainmentPolicy
}

// Option configures a Tree at construction.
type Option func(*treeOptions)

// WithAccuracy sets the tolerance used for fuzzy membership and containment inflation.
// The default is 0.
func WithAccuracy(accuracy float64) Option {
	return func(opts *treeOptions) {
		opts.accuracy = accuracy
	}
}

// WithContainment selects the containment policy. The default is ReferenceContainment.
func WithContainment(policy ContainmentPolicy) Option {
	return func(opts *treeOptions) {
		opts.containment = policy
	}
}

// Tree is the root-holding facade of the octree. Inputs are not validated: non-positive extents,
// negative accuracy or NaN coordinates give degenerate but non-failing behavior.
type Tree[T any] struct {
	logger      logging.Logger
	origin      spatialmath.Vector
	extent      spatialmath.Vector
	accuracy    float64
	maxSpan     float64
	containment ContainmentPolicy
	root        *Cell[T]
	size        int
	meta        MetaData
}

// New creates an empty octree covering the volume starting at origin with the given extent.
func New[T any](origin, extent spatialmath.Vector, logger logging.Logger, opts ...Option) *Tree[T] {
	options := treeOptions{containment: ReferenceContainment{}}
	for _, opt := range opts {
		opt(&options)
	}

	tree := &Tree[T]{
		logger:      logger.Sublogger("octree"),
		origin:      origin,
		extent:      extent,
		accuracy:    options.accuracy,
		maxSpan:     lo.Max([]float64{extent.X, extent.Y, extent.Z}),
		containment: options.containment,
		meta:        NewMetaData(),
	}
	tree.root = newCell(tree, origin, extent, 0)
	return tree
}

// NewFromBoundingBox creates an empty octree covering the given box. Accuracy is 0 unless
// WithAccuracy is passed.
func NewFromBoundingBox[T any](box BoundingBox, logger logging.Logger, opts ...Option) *Tree[T] {
	return New[T](box.Min(), box.Size(), logger, opts...)
}

// Origin returns the minimal corner of the indexed volume.
func (tree *Tree[T]) Origin() spatialmath.Vector {
	return tree.origin
}

// Extent returns the size of the indexed volume.
func (tree *Tree[T]) Extent() spatialmath.Vector {
	return tree.extent
}

// Accuracy returns the tree's tolerance.
func (tree *Tree[T]) Accuracy() float64 {
	return tree.accuracy
}

// MaxSpan returns the largest component of the tree's extent.
func (tree *Tree[T]) MaxSpan() float64 {
	return tree.maxSpan
}

// Containment returns the containment policy in use.
func (tree *Tree[T]) Containment() ContainmentPolicy {
	return tree.containment
}

// Root returns the root cell.
func (tree *Tree[T]) Root() *Cell[T] {
	return tree.root
}

// Size returns the number of entries currently stored in leaves.
func (tree *Tree[T]) Size() int {
	return tree.size
}

// MetaData returns the running bounds of the points stored in the tree.
func (tree *Tree[T]) MetaData() MetaData {
	return tree.meta
}

// Add inserts p with its payload. A point no child cell claims during routing is dropped.
func (tree *Tree[T]) Add(p spatialmath.Vector, data T) {
	delta := tree.root.add(Entry[T]{Point: p, Data: data})
	tree.size += delta
	if delta > 0 {
		tree.meta.Merge(p)
	}
}

// Has returns the first stored point within accuracy of p.
func (tree *Tree[T]) Has(p spatialmath.Vector) (spatialmath.Vector, bool) {
	return tree.root.has(p)
}

// Iterate calls fn for every stored entry in depth-first octant order until fn returns false.
func (tree *Tree[T]) Iterate(fn func(p spatialmath.Vector, d T) bool) {
	tree.root.iterate(fn)
}

// CellsAtLevel returns every cell at the given level that holds points. Cells that have split hold
// no points of their own and so never appear.
func (tree *Tree[T]) CellsAtLevel(level int) []*Cell[T] {
	var result []*Cell[T]
	tree.root.collectAtLevel(level, &result)
	return result
}
