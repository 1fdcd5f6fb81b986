// Package spatialmath defines the 3-D value types shared by the octree and point cloud packages.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// Vector is an immutable three-component vector. Every operation returns a new value, so a
// Vector can be shared freely between cells, queries and callers.
type Vector r3.Vector

// NewVector convenience method for creating a vector.
func NewVector(x, y, z float64) Vector {
	return Vector{X: x, Y: y, Z: z}
}

// FromR3 converts an r3.Vector.
func FromR3(v r3.Vector) Vector {
	return Vector(v)
}

// R3 returns the vector as an r3.Vector.
func (v Vector) R3() r3.Vector {
	return r3.Vector(v)
}

// Add returns v + o.
func (v Vector) Add(o Vector) Vector {
	return Vector(v.R3().Add(o.R3()))
}

// Sub returns v - o.
func (v Vector) Sub(o Vector) Vector {
	return Vector(v.R3().Sub(o.R3()))
}

// AddScalar adds s to every component.
func (v Vector) AddScalar(s float64) Vector {
	return Vector{X: v.X + s, Y: v.Y + s, Z: v.Z + s}
}

// SubScalar subtracts s from every component.
func (v Vector) SubScalar(s float64) Vector {
	return Vector{X: v.X - s, Y: v.Y - s, Z: v.Z - s}
}

// MulScalar multiplies every component by s.
func (v Vector) MulScalar(s float64) Vector {
	return Vector(v.R3().Mul(s))
}

// DivScalar divides every component by s. Dividing by zero yields the zero vector rather than
// infinities.
func (v Vector) DivScalar(s float64) Vector {
	if s == 0 {
		return Vector{}
	}
	return Vector{X: v.X / s, Y: v.Y / s, Z: v.Z / s}
}

// Dot returns the dot product.
func (v Vector) Dot(o Vector) float64 {
	return v.R3().Dot(o.R3())
}

// Cross returns the right-handed cross product v × o.
func (v Vector) Cross(o Vector) Vector {
	return Vector(v.R3().Cross(o.R3()))
}

// Length returns the Euclidean norm.
func (v Vector) Length() float64 {
	return v.R3().Norm()
}

// Distance returns the Euclidean distance to o.
func (v Vector) Distance(o Vector) float64 {
	return math.Sqrt(v.DistanceSquared(o))
}

// DistanceSquared returns the squared Euclidean distance to o. Comparisons inside the tree use
// this to avoid the square root.
func (v Vector) DistanceSquared(o Vector) float64 {
	dx := v.X - o.X
	dy := v.Y - o.Y
	dz := v.Z - o.Z
	return dx*dx + dy*dy + dz*dz
}

// Normalize returns the unit vector in the direction of v. The zero vector is returned unchanged.
func (v Vector) Normalize() Vector {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.DivScalar(l)
}

// Equals reports exact componentwise equality.
func (v Vector) Equals(o Vector) bool {
	return v.X == o.X && v.Y == o.Y && v.Z == o.Z
}

// Negate returns -v.
func (v Vector) Negate() Vector {
	return Vector{X: -v.X, Y: -v.Y, Z: -v.Z}
}

// Lerp moves v toward o by alpha; alpha 0 returns v and 1 returns o.
func (v Vector) Lerp(o Vector, alpha float64) Vector {
	return Vector{
		X: v.X + (o.X-v.X)*alpha,
		Y: v.Y + (o.Y-v.Y)*alpha,
		Z: v.Z + (o.Z-v.Z)*alpha,
	}
}

// Min returns the componentwise minimum of v and o.
func (v Vector) Min(o Vector) Vector {
	return Vector{X: math.Min(v.X, o.X), Y: math.Min(v.Y, o.Y), Z: math.Min(v.Z, o.Z)}
}

// Max returns the componentwise maximum of v and o.
func (v Vector) Max(o Vector) Vector {
	return Vector{X: math.Max(v.X, o.X), Y: math.Max(v.Y, o.Y), Z: math.Max(v.Z, o.Z)}
}

// MaxComponent returns the largest of the three components.
func (v Vector) MaxComponent() float64 {
	return math.Max(v.X, math.Max(v.Y, v.Z))
}

func (v Vector) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}
