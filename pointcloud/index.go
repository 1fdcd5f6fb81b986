package pointcloud

import (
	"go.viam.com/octree/logging"
	"go.viam.com/octree/octree"
	"go.viam.com/octree/spatialmath"
)

// boundsMargin pads a cloud's bounding box so its maximal points fall inside the tree's half-open
// region and degenerate (flat or single point) clouds still get a positive extent.
const boundsMargin = 1e-6

// Bounds returns the bounding box of the points, padded on every side.
func Bounds(points []PointAndData) spatialmath.Box {
	box := spatialmath.NewBoxFromPoints(Positions(points)...)
	return box.Expand(boundsMargin * (1 + box.Size().MaxComponent()))
}

// Index builds an octree over the points' bounds and inserts every point with its data.
func Index(points []PointAndData, logger logging.Logger, opts ...octree.Option) *octree.Tree[Data] {
	tree := octree.NewFromBoundingBox[Data](Bounds(points), logger, opts...)
	for _, p := range points {
		tree.Add(p.P, p.D)
	}
	logger.Debugw("indexed point cloud", "points", len(points), "stored", tree.Size())
	return tree
}

// Dedupe returns the points with near-duplicates removed: a point is kept only when no previously
// kept point lies within accuracy of it. Input order is preserved.
//
// The index uses exact region containment so every kept point lives in the cell covering it, which
// lets the nearest search prune by box distance without missing neighbours across cell faces.
func Dedupe(points []PointAndData, accuracy float64, logger logging.Logger) []PointAndData {
	tree := octree.NewFromBoundingBox[Data](Bounds(points), logger,
		octree.WithContainment(octree.RegionContainment{}))

	kept := make([]PointAndData, 0, len(points))
	for _, p := range points {
		if nearest, ok := tree.FindNearestPoint(p.P, octree.NearestOptions{}); ok && nearest.Distance(p.P) <= accuracy {
			continue
		}
		tree.Add(p.P, p.D)
		kept = append(kept, p)
	}
	logger.Debugw("deduplicated point cloud", "accuracy", accuracy, "in", len(points), "out", len(kept))
	return kept
}
