package octree

import (
	"math"

	"go.viam.com/octree/spatialmath"
)

// MetaData is data about what's stored in the tree.
type MetaData struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// NewMetaData returns metadata with inverted bounds so the first Merge sets them.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64,
		MinY: math.MaxFloat64,
		MinZ: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MaxY: -math.MaxFloat64,
		MaxZ: -math.MaxFloat64,
	}
}

// Merge grows the bounds to include p.
func (meta *MetaData) Merge(p spatialmath.Vector) {
	if p.X > meta.MaxX {
		meta.MaxX = p.X
	}
	if p.Y > meta.MaxY {
		meta.MaxY = p.Y
	}
	if p.Z > meta.MaxZ {
		meta.MaxZ = p.Z
	}

	if p.X < meta.MinX {
		meta.MinX = p.X
	}
	if p.Y < meta.MinY {
		meta.MinY = p.Y
	}
	if p.Z < meta.MinZ {
		meta.MinZ = p.Z
	}
}

// Empty reports whether nothing has been merged yet.
func (meta MetaData) Empty() bool {
	return meta.MinX > meta.MaxX
}

// Bounds returns the merged bounds as a box. Empty metadata yields the zero box.
func (meta MetaData) Bounds() spatialmath.Box {
	if meta.Empty() {
		return spatialmath.Box{}
	}
	return spatialmath.NewBoxFromPoints(
		spatialmath.NewVector(meta.MinX, meta.MinY, meta.MinZ),
		spatialmath.NewVector(meta.MaxX, meta.MaxY, meta.MaxZ),
	)
}
