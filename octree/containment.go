package octree

import (
	"math"

	"github.com/pkg/errors"

	"go.viam.com/octree/spatialmath"
)

// ContainmentPolicy decides which cell a point belongs to. It is the single gate used to route
// insertions into children and to prune traversal during membership and nearest-point queries.
type ContainmentPolicy interface {
	// Contains reports whether p lies in region, inflated by accuracy.
	Contains(region spatialmath.Box, p spatialmath.Vector, accuracy float64) bool
	// MayHoldCloser reports whether a nearest-point search must visit region when the best
	// squared distance found so far is bestDistSq.
	MayHoldCloser(region spatialmath.Box, p spatialmath.Vector, accuracy, bestDistSq float64) bool
	String() string
}

// Containment policy names accepted by ParseContainment.
const (
	ContainmentNameReference = "reference"
	ContainmentNameRegion    = "region"
)

// ReferenceContainment computes the inflated bounds from the query point itself rather than from
// the cell, so with finite coordinates and a non-negative accuracy every cell contains every
// point. Insertions therefore always route to the first octant and nearest-point searches visit
// the whole tree.
type ReferenceContainment struct{}

// Contains implements ContainmentPolicy.
func (ReferenceContainment) Contains(region spatialmath.Box, p spatialmath.Vector, accuracy float64) bool {
	pMin := p.SubScalar(accuracy)
	pMax := p.AddScalar(accuracy).Add(region.Size())
	return p.X >= pMin.X && p.Y >= pMin.Y && p.Z >= pMin.Z &&
		p.X < pMax.X && p.Y < pMax.Y && p.Z < pMax.Z
}

// MayHoldCloser implements ContainmentPolicy. The search only descends into containing cells.
func (r ReferenceContainment) MayHoldCloser(region spatialmath.Box, p spatialmath.Vector, accuracy, _ float64) bool {
	return r.Contains(region, p, accuracy)
}

func (ReferenceContainment) String() string {
	return ContainmentNameReference
}

// RegionContainment tests p against the cell's own volume, inflated by accuracy on both sides,
// with half-open bounds: origin-accuracy <= p < origin+size+accuracy on every axis.
type RegionContainment struct{}

// Contains implements ContainmentPolicy.
func (RegionContainment) Contains(region spatialmath.Box, p spatialmath.Vector, accuracy float64) bool {
	lo := region.Min().SubScalar(accuracy)
	hi := region.Max().AddScalar(accuracy)
	return p.X >= lo.X && p.Y >= lo.Y && p.Z >= lo.Z &&
		p.X < hi.X && p.Y < hi.Y && p.Z < hi.Z
}

// MayHoldCloser implements ContainmentPolicy. A cell is skipped once the distance from p to its
// inflated volume is no better than the current best.
func (RegionContainment) MayHoldCloser(region spatialmath.Box, p spatialmath.Vector, accuracy, bestDistSq float64) bool {
	if math.IsInf(bestDistSq, 1) {
		return true
	}
	lo := region.Min().SubScalar(accuracy)
	hi := region.Max().AddScalar(accuracy)
	dx := axisGap(p.X, lo.X, hi.X)
	dy := axisGap(p.Y, lo.Y, hi.Y)
	dz := axisGap(p.Z, lo.Z, hi.Z)
	return dx*dx+dy*dy+dz*dz < bestDistSq
}

func (RegionContainment) String() string {
	return ContainmentNameRegion
}

func axisGap(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo - v
	case v > hi:
		return v - hi
	default:
		return 0
	}
}

// ParseContainment returns the policy with the given name. The empty name selects
// ReferenceContainment.
func ParseContainment(name string) (ContainmentPolicy, error) {
	switch name {
	case "", ContainmentNameReference:
		return ReferenceContainment{}, nil
	case ContainmentNameRegion:
		return RegionContainment{}, nil
	default:
		return nil, errors.Errorf("unknown containment policy %q", name)
	}
}
