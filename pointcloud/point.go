// Package pointcloud reads and writes point cloud files and indexes their points in an octree.
package pointcloud

import (
	"image/color"

	"go.viam.com/octree/spatialmath"
)

// PointAndData is a point with its associated data.
type PointAndData struct {
	P spatialmath.Vector
	D Data
}

// Positions returns the positions of the given points in order.
func Positions(points []PointAndData) []spatialmath.Vector {
	positions := make([]spatialmath.Vector, len(points))
	for i, p := range points {
		positions[i] = p.P
	}
	return positions
}

// Data is the optional payload read with a point: an 8-bit RGB color and an integer value, each
// with its own presence flag. A nil Data carries neither.
type Data interface {
	HasColor() bool
	RGB255() (uint8, uint8, uint8)
	HasValue() bool
	Value() int
	// SetValue attaches v and returns the same Data for chaining.
	SetValue(v int) Data
}

type pointData struct {
	rgb      color.NRGBA
	colored  bool
	value    int
	hasValue bool
}

// NewBasicData returns data with neither color nor value.
func NewBasicData() Data {
	return &pointData{}
}

// NewColoredData returns data carrying the color's RGB channels; alpha is ignored.
func NewColoredData(c color.NRGBA) Data {
	return &pointData{rgb: color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}, colored: true}
}

// NewValueData returns data carrying v.
func NewValueData(v int) Data {
	return &pointData{value: v, hasValue: true}
}

func (d *pointData) HasColor() bool {
	return d.colored
}

func (d *pointData) RGB255() (uint8, uint8, uint8) {
	return d.rgb.R, d.rgb.G, d.rgb.B
}

func (d *pointData) HasValue() bool {
	return d.hasValue
}

func (d *pointData) Value() int {
	return d.value
}

func (d *pointData) SetValue(v int) Data {
	d.value, d.hasValue = v, true
	return d
}
