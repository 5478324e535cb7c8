package constraint

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/solver"
)

// DefaultMaxForce leaves a joint effectively unbounded.
const DefaultMaxForce = 1e6

var axes = [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// PointToPoint pins a point on BodyA to a point on BodyB. Anchors are given
// in each body's local frame.
type PointToPoint struct {
	BodyA  *body.Body
	LocalA mgl64.Vec3
	BodyB  *body.Body
	LocalB mgl64.Vec3

	Softness Softness
	MaxForce float64

	rows [3]*solver.Equation
}

func NewPointToPoint(a *body.Body, localA mgl64.Vec3, b *body.Body, localB mgl64.Vec3, soft Softness, maxForce float64) *PointToPoint {
	if !(maxForce > 0) || math.IsInf(maxForce, 0) {
		maxForce = DefaultMaxForce
	}
	c := &PointToPoint{
		BodyA:    a,
		LocalA:   localA,
		BodyB:    b,
		LocalB:   localB,
		Softness: soft,
		MaxForce: maxForce,
	}
	for i := range c.rows {
		c.rows[i] = solver.NewEquation(a, b, -maxForce, maxForce, soft)
	}
	return c
}

func (c *PointToPoint) Bodies() []*body.Body {
	return []*body.Body{c.BodyA, c.BodyB}
}

// WorldAnchors returns both anchor points in world space.
func (c *PointToPoint) WorldAnchors() (mgl64.Vec3, mgl64.Vec3) {
	return c.BodyA.PointToWorld(c.LocalA), c.BodyB.PointToWorld(c.LocalB)
}

// Separation is the distance between the two anchors.
func (c *PointToPoint) Separation() float64 {
	pa, pb := c.WorldAnchors()
	return pb.Sub(pa).Len()
}

// Equations rebuilds the three axis rows from the current poses. The rows are
// reused between calls.
func (c *PointToPoint) Equations() []*solver.Equation {
	pa, pb := c.WorldAnchors()
	for i, axis := range axes {
		eq := c.rows[i]
		eq.Softness = c.Softness
		eq.MinForce, eq.MaxForce = -c.MaxForce, c.MaxForce
		eq.SetAxis(pa, pb, axis)
	}
	return c.rows[:]
}
