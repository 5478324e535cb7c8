package solver

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/body"
)

// MaxContactForce caps the non-penetration force of a single contact row.
const MaxContactForce = 1e6

// ContactPoint describes one point of contact between two bodies. PointA and
// PointB are the deepest surface points of each body in world space and
// Normal points from A to B.
type ContactPoint struct {
	PointA, PointB mgl64.Vec3
	Normal         mgl64.Vec3
}

// Contact builds the non-penetration row of a contact.
func Contact(a, b *body.Body, cp ContactPoint, restitution float64, soft Softness) *Equation {
	eq := NewEquation(a, b, 0, MaxContactForce, soft)
	ri := cp.PointA.Sub(a.Position)
	rj := cp.PointB.Sub(b.Position)
	n := cp.Normal

	eq.JA = Jacobian{Spatial: n.Mul(-1), Rotational: ri.Cross(n).Mul(-1)}
	eq.JB = Jacobian{Spatial: n, Rotational: rj.Cross(n)}
	eq.Offset = cp.PointB.Sub(cp.PointA).Dot(n)
	eq.Restitution = restitution
	return eq
}

// Friction builds the two tangential rows of a contact. slipForce bounds each
// row symmetrically.
func Friction(a, b *body.Body, cp ContactPoint, slipForce float64, soft Softness) [2]*Equation {
	t1, t2 := Tangents(cp.Normal)
	ri := cp.PointA.Sub(a.Position)
	rj := cp.PointB.Sub(b.Position)

	var rows [2]*Equation
	for i, t := range [2]mgl64.Vec3{t1, t2} {
		eq := NewEquation(a, b, -slipForce, slipForce, soft)
		eq.JA = Jacobian{Spatial: t.Mul(-1), Rotational: ri.Cross(t).Mul(-1)}
		eq.JB = Jacobian{Spatial: t, Rotational: rj.Cross(t)}
		rows[i] = eq
	}
	return rows
}

// Axis builds a bilateral row that drives the two world points together along
// axis. Joints use three of these.
func Axis(a *body.Body, worldA mgl64.Vec3, b *body.Body, worldB mgl64.Vec3, axis mgl64.Vec3, maxForce float64, soft Softness) *Equation {
	eq := NewEquation(a, b, -maxForce, maxForce, soft)
	eq.SetAxis(worldA, worldB, axis)
	return eq
}

// SetAxis recomputes an axis row in place for new anchor positions.
func (e *Equation) SetAxis(worldA, worldB, axis mgl64.Vec3) {
	ri := worldA.Sub(e.BodyA.Position)
	rj := worldB.Sub(e.BodyB.Position)
	e.JA = Jacobian{Spatial: axis.Mul(-1), Rotational: ri.Cross(axis).Mul(-1)}
	e.JB = Jacobian{Spatial: axis, Rotational: rj.Cross(axis)}
	e.Offset = worldB.Sub(worldA).Dot(axis)
}

// SlipForce returns the Coulomb bound mu*|g|*m for a pair, where m is the
// reduced mass of the dynamic bodies involved.
func SlipForce(a, b *body.Body, friction, gravity float64) float64 {
	inv := a.InvMass + b.InvMass
	if inv == 0 {
		return 0
	}
	return friction * math.Abs(gravity) / inv
}

// Tangents returns two unit vectors orthogonal to n and to each other.
func Tangents(n mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	helper := mgl64.Vec3{1, 0, 0}
	if math.Abs(n.X()) > 0.9 {
		helper = mgl64.Vec3{0, 1, 0}
	}
	t1 := n.Cross(helper).Normalize()
	t2 := n.Cross(t1)
	return t1, t2
}
