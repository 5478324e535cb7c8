// Package solver implements the sequential impulse solver shared by contacts
// and joints. Every constraint is expressed as one or more scalar Equations
// with SPOOK softness (Lacoursière 2007).
package solver

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/dynamo"
)

// Softness controls how compliant an equation is. Higher stiffness and lower
// relaxation give a harder constraint.
type Softness struct {
	Stiffness  float64 `yaml:"stiffness"`
	Relaxation float64 `yaml:"relaxation"`
}

func (s Softness) Validate() error {
	if !(s.Stiffness > 0) || !dynamo.IsFinite(s.Stiffness) {
		return dynamo.NewConfigError("softness.stiffness", s.Stiffness, dynamo.ErrInvalidConfig)
	}
	if !(s.Relaxation > 0) || !dynamo.IsFinite(s.Relaxation) {
		return dynamo.NewConfigError("softness.relaxation", s.Relaxation, dynamo.ErrInvalidConfig)
	}
	return nil
}

func (s Softness) String() string {
	return fmt.Sprintf("k=%g d=%g", s.Stiffness, s.Relaxation)
}

// Spook returns the a, b and epsilon coefficients for timestep h.
func (s Softness) Spook(h float64) (a, b, eps float64) {
	d := s.Relaxation
	k := s.Stiffness
	a = 4.0 / (h * (1 + 4*d))
	b = (4.0 * d) / (1 + 4*d)
	eps = 4.0 / (h * h * k * (1 + 4*d))
	return a, b, eps
}

// Jacobian is one side of an equation's Jacobian row.
type Jacobian struct {
	Spatial    mgl64.Vec3
	Rotational mgl64.Vec3
}

func (j Jacobian) multiply(v, w mgl64.Vec3) float64 {
	return j.Spatial.Dot(v) + j.Rotational.Dot(w)
}

// Equation is a single scalar constraint row between two bodies. Either body
// may be static. Bounds are forces; the solver scales them by the timestep.
type Equation struct {
	BodyA, BodyB *body.Body
	JA, JB       Jacobian

	MinForce, MaxForce float64

	// Offset is the position-level violation g. Negative means penetration
	// for contacts.
	Offset float64

	// Restitution scales the approach velocity of contact rows.
	Restitution float64

	Softness Softness
	Enabled  bool

	// Multiplier is the impulse accumulated during the last solve.
	Multiplier float64

	a, b, eps float64
	rhs, invC float64
	ea, eb    *entry
}

// NewEquation returns an enabled equation with the given force bounds.
func NewEquation(a, b *body.Body, minForce, maxForce float64, soft Softness) *Equation {
	return &Equation{
		BodyA:    a,
		BodyB:    b,
		MinForce: minForce,
		MaxForce: maxForce,
		Softness: soft,
		Enabled:  true,
	}
}

// RelativeVelocity returns G*W with the bodies' current velocities.
func (e *Equation) RelativeVelocity() float64 {
	return e.JA.multiply(e.BodyA.Velocity, e.BodyA.AngularVelocity) +
		e.JB.multiply(e.BodyB.Velocity, e.BodyB.AngularVelocity)
}

func (e *Equation) prepare(h float64) {
	e.a, e.b, e.eps = e.Softness.Spook(h)
	gw := e.RelativeVelocity() * (1 + e.Restitution)
	e.rhs = -e.a*e.Offset - e.b*gw

	c := e.eps
	c += e.ea.invMass*e.JA.Spatial.LenSqr() + e.JA.Rotational.Dot(e.ea.invInertia.Mul3x1(e.JA.Rotational))
	c += e.eb.invMass*e.JB.Spatial.LenSqr() + e.JB.Rotational.Dot(e.eb.invInertia.Mul3x1(e.JB.Rotational))
	e.invC = 1.0 / c
	e.Multiplier = 0
}

func (e *Equation) deltaVelocity() float64 {
	return e.JA.multiply(e.ea.dv, e.ea.dw) + e.JB.multiply(e.eb.dv, e.eb.dw)
}

func (e *Equation) applyDelta(dl float64) {
	e.ea.apply(e.JA, dl)
	e.eb.apply(e.JB, dl)
}

// culprit is the body a diverging row is blamed on: B unless B cannot move.
func (e *Equation) culprit() *body.Body {
	if e.BodyB.Static() && !e.BodyA.Static() {
		return e.BodyA
	}
	return e.BodyB
}
