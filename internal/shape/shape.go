// Package shape defines the collision primitives a body can carry.
package shape

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/dynamo"
)

type Kind int

const (
	KindBox Kind = iota
	KindPlane
	KindSphere
)

func (k Kind) String() string {
	switch k {
	case KindBox:
		return "box"
	case KindPlane:
		return "plane"
	case KindSphere:
		return "sphere"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Shape is a tagged union over the supported primitives. Only the fields of
// its Kind are meaningful. Plane normals are expressed in the body frame and
// the plane passes through the body origin.
type Shape struct {
	Kind        Kind
	HalfExtents mgl64.Vec3
	Normal      mgl64.Vec3
	Radius      float64
}

func NewBox(halfExtents mgl64.Vec3) Shape {
	return Shape{Kind: KindBox, HalfExtents: halfExtents}
}

// NewCube returns a box with the given edge length.
func NewCube(size float64) Shape {
	h := size / 2
	return NewBox(mgl64.Vec3{h, h, h})
}

// NewPlane returns a plane facing +Y in the body frame.
func NewPlane() Shape {
	return Shape{Kind: KindPlane, Normal: mgl64.Vec3{0, 1, 0}}
}

func NewPlaneNormal(normal mgl64.Vec3) Shape {
	return Shape{Kind: KindPlane, Normal: normal}
}

func NewSphere(radius float64) Shape {
	return Shape{Kind: KindSphere, Radius: radius}
}

func (s Shape) Validate() error {
	switch s.Kind {
	case KindBox:
		for i := 0; i < 3; i++ {
			if !(s.HalfExtents[i] > 0) || math.IsInf(s.HalfExtents[i], 0) {
				return dynamo.NewConfigError("shape.half_extents", s.HalfExtents, dynamo.ErrInvalidShape)
			}
		}
	case KindPlane:
		if !dynamo.VecFinite(s.Normal) || s.Normal.Len() < 1e-9 {
			return dynamo.NewConfigError("shape.normal", s.Normal, dynamo.ErrInvalidShape)
		}
	case KindSphere:
		if !(s.Radius > 0) || math.IsInf(s.Radius, 0) {
			return dynamo.NewConfigError("shape.radius", s.Radius, dynamo.ErrInvalidShape)
		}
	default:
		return dynamo.NewConfigError("shape.kind", s.Kind, dynamo.ErrInvalidShape)
	}
	return nil
}

// Inertia returns the diagonal of the local inertia tensor for the given mass.
// Planes have no finite inertia and return the zero vector.
func (s Shape) Inertia(mass float64) mgl64.Vec3 {
	switch s.Kind {
	case KindBox:
		x, y, z := 2*s.HalfExtents[0], 2*s.HalfExtents[1], 2*s.HalfExtents[2]
		k := mass / 12
		return mgl64.Vec3{k * (y*y + z*z), k * (x*x + z*z), k * (x*x + y*y)}
	case KindSphere:
		i := 0.4 * mass * s.Radius * s.Radius
		return mgl64.Vec3{i, i, i}
	}
	return mgl64.Vec3{}
}

// BoundingRadius is the radius of a sphere around the body origin enclosing
// the shape. Planes are unbounded.
func (s Shape) BoundingRadius() float64 {
	switch s.Kind {
	case KindBox:
		return s.HalfExtents.Len()
	case KindSphere:
		return s.Radius
	}
	return math.Inf(1)
}

// Corners returns the eight box corners in the body frame.
func (s Shape) Corners() [8]mgl64.Vec3 {
	var out [8]mgl64.Vec3
	h := s.HalfExtents
	for i := 0; i < 8; i++ {
		c := mgl64.Vec3{-h[0], -h[1], -h[2]}
		if i&1 != 0 {
			c[0] = h[0]
		}
		if i&2 != 0 {
			c[1] = h[1]
		}
		if i&4 != 0 {
			c[2] = h[2]
		}
		out[i] = c
	}
	return out
}

func (s Shape) String() string {
	switch s.Kind {
	case KindBox:
		return fmt.Sprintf("box%v", s.HalfExtents)
	case KindPlane:
		return fmt.Sprintf("plane%v", s.Normal)
	case KindSphere:
		return fmt.Sprintf("sphere(%g)", s.Radius)
	}
	return s.Kind.String()
}
