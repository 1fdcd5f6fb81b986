package octree

import (
	"math"

	"go.viam.com/octree/spatialmath"
)

// NearestOptions configures a nearest-point query. The zero value searches without a distance
// bound and may return a point equal to the query.
type NearestOptions struct {
	// MaxDist excludes points at this distance or farther. Zero or negative means unbounded, so a
	// zero bound never rules out every point and a negative bound is not squared into a positive one.
	MaxDist float64
	// NotSelf excludes stored points exactly equal to the query point.
	NotSelf bool
}

func (opts NearestOptions) bestDistSq() float64 {
	if opts.MaxDist <= 0 {
		return math.Inf(1)
	}
	return opts.MaxDist * opts.MaxDist
}

// NearbyResult holds the matches of a radius query as index-aligned points and payloads, in
// visitation order.
type NearbyResult[T any] struct {
	Points []spatialmath.Vector
	Data   []T
}

// FindNearestPoint returns the stored point closest to p. Among equidistant points the first one
// visited wins.
func (tree *Tree[T]) FindNearestPoint(p spatialmath.Vector, opts NearestOptions) (spatialmath.Vector, bool) {
	e, ok := tree.FindNearestEntry(p, opts)
	return e.Point, ok
}

// FindNearestEntry is like FindNearestPoint but also returns the payload.
func (tree *Tree[T]) FindNearestEntry(p spatialmath.Vector, opts NearestOptions) (Entry[T], bool) {
	e, _, ok := tree.root.findNearest(p, opts.NotSelf, opts.bestDistSq())
	return e, ok
}

// FindNearbyPoints returns every stored point within radius of p, boundary included.
func (tree *Tree[T]) FindNearbyPoints(p spatialmath.Vector, radius float64) NearbyResult[T] {
	var result NearbyResult[T]
	for _, e := range tree.FindNearbyEntries(p, radius) {
		result.Points = append(result.Points, e.Point)
		result.Data = append(result.Data, e.Data)
	}
	return result
}

// FindNearbyEntries is like FindNearbyPoints but returns point/payload pairs.
func (tree *Tree[T]) FindNearbyEntries(p spatialmath.Vector, radius float64) []Entry[T] {
	var result []Entry[T]
	tree.root.findNearby(p, radius, &result)
	return result
}

// findNearest returns the closest entry strictly better than bestDistSq along with its squared
// distance.
func (c *Cell[T]) findNearest(p spatialmath.Vector, notSelf bool, bestDistSq float64) (Entry[T], float64, bool) {
	var result Entry[T]
	if !c.tree.containment.MayHoldCloser(c.Region(), p, c.tree.accuracy, bestDistSq) {
		return result, bestDistSq, false
	}

	found := false
	switch n := c.node.(type) {
	case *leafNode[T]:
		for _, e := range n.entries {
			distSq := p.DistanceSquared(e.Point)
			if distSq < bestDistSq && !(notSelf && p.Equals(e.Point)) {
				result, bestDistSq, found = e, distSq, true
			}
		}
	case *internalNode[T]:
		for _, child := range n.children {
			if e, distSq, ok := child.findNearest(p, notSelf, bestDistSq); ok {
				result, bestDistSq, found = e, distSq, true
			}
		}
	}
	return result, bestDistSq, found
}

// findNearby skips any cell whose center is farther than radius plus the tree's max span.
func (c *Cell[T]) findNearby(p spatialmath.Vector, radius float64, result *[]Entry[T]) {
	if p.Distance(c.Center()) > radius+c.tree.maxSpan {
		return
	}

	switch n := c.node.(type) {
	case *leafNode[T]:
		for _, e := range n.entries {
			if e.Point.Distance(p) <= radius {
				*result = append(*result, e)
			}
		}
	case *internalNode[T]:
		for _, child := range n.children {
			child.findNearby(p, radius, result)
		}
	}
}
