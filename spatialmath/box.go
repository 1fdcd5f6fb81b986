package spatialmath

import "math"

// Box is an axis-aligned box described by its minimal corner and its per-axis size.
type Box struct {
	MinCorner Vector
	Extent    Vector
}

// NewBox returns a box with the given minimal corner and size.
func NewBox(minCorner, size Vector) Box {
	return Box{MinCorner: minCorner, Extent: size}
}

// NewBoxFromPoints returns the tightest box holding every given point. With no points the zero
// box is returned.
func NewBoxFromPoints(points ...Vector) Box {
	if len(points) == 0 {
		return Box{}
	}
	lo := Vector{X: math.MaxFloat64, Y: math.MaxFloat64, Z: math.MaxFloat64}
	hi := Vector{X: -math.MaxFloat64, Y: -math.MaxFloat64, Z: -math.MaxFloat64}
	for _, p := range points {
		lo = lo.Min(p)
		hi = hi.Max(p)
	}
	return Box{MinCorner: lo, Extent: hi.Sub(lo)}
}

// Min returns the minimal corner.
func (b Box) Min() Vector {
	return b.MinCorner
}

// Size returns the per-axis extent.
func (b Box) Size() Vector {
	return b.Extent
}

// Max returns the maximal corner.
func (b Box) Max() Vector {
	return b.MinCorner.Add(b.Extent)
}

// Center returns the center point of the box.
func (b Box) Center() Vector {
	return b.MinCorner.Add(b.Extent.MulScalar(0.5))
}

// Volume returns the volume of the box.
func (b Box) Volume() float64 {
	return b.Extent.X * b.Extent.Y * b.Extent.Z
}

// Expand grows the box by margin on every side.
func (b Box) Expand(margin float64) Box {
	return Box{MinCorner: b.MinCorner.SubScalar(margin), Extent: b.Extent.AddScalar(2 * margin)}
}

// Overlaps reports whether the interiors of the two boxes intersect.
func (b Box) Overlaps(o Box) bool {
	bMax, oMax := b.Max(), o.Max()
	return b.MinCorner.X < oMax.X && o.MinCorner.X < bMax.X &&
		b.MinCorner.Y < oMax.Y && o.MinCorner.Y < bMax.Y &&
		b.MinCorner.Z < oMax.Z && o.MinCorner.Z < bMax.Z
}
