// Package collision finds overlapping body pairs and turns each point of
// contact into solver equations. Contacts are regenerated every substep.
package collision

import (
	"math"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/material"
	"github.com/san-kum/rigidsim/internal/solver"
)

// Contact is one point of contact. Normal points from A to B.
type Contact struct {
	A, B  *body.Body
	Point solver.ContactPoint
	Depth float64
	Rule  material.ContactRule
}

// Resolver runs the narrow phase over every candidate pair.
type Resolver struct {
	Rules *material.Registry

	// Gravity is the magnitude used for the Coulomb slip bound.
	Gravity float64

	// WakeSpeed is the speed an awake body needs to wake a sleeping body
	// it touches.
	WakeSpeed float64

	contacts []Contact
	points   []solver.ContactPoint
	toWake   []*body.Body
}

func NewResolver(rules *material.Registry, gravity, wakeSpeed float64) *Resolver {
	return &Resolver{Rules: rules, Gravity: math.Abs(gravity), WakeSpeed: wakeSpeed}
}

// Detect tests every unordered pair in slice order and returns the contacts.
// The returned slice is reused by the next call.
func (r *Resolver) Detect(bodies []*body.Body) []Contact {
	r.contacts = r.contacts[:0]
	r.toWake = r.toWake[:0]

	for i := 0; i < len(bodies); i++ {
		a := bodies[i]
		for j := i + 1; j < len(bodies); j++ {
			b := bodies[j]
			if !candidates(a, b) {
				continue
			}
			r.points = pair(a, b, r.points[:0])
			if len(r.points) == 0 {
				continue
			}

			r.checkWake(a, b)
			r.checkWake(b, a)

			rule := r.Rules.Rule(a.Material, b.Material)
			for _, p := range r.points {
				depth := -p.PointB.Sub(p.PointA).Dot(p.Normal)
				r.contacts = append(r.contacts, Contact{A: a, B: b, Point: p, Depth: depth, Rule: rule})
			}
		}
	}

	for _, b := range r.toWake {
		b.Wake()
	}
	return r.contacts
}

// Woken returns the bodies woken by the last Detect.
func (r *Resolver) Woken() []*body.Body { return r.toWake }

func candidates(a, b *body.Body) bool {
	if a.Static() && b.Static() {
		return false
	}
	if !a.Active() && !b.Active() {
		return false
	}
	if !a.CanCollide(b) {
		return false
	}
	reach := a.Shape.BoundingRadius() + b.Shape.BoundingRadius()
	if math.IsInf(reach, 1) {
		return true
	}
	return b.Position.Sub(a.Position).LenSqr() <= reach*reach
}

// checkWake wakes sleeper when mover is awake and fast enough.
func (r *Resolver) checkWake(sleeper, mover *body.Body) {
	if !sleeper.IsSleeping() || !mover.Active() {
		return
	}
	speed2 := mover.Velocity.LenSqr() + mover.AngularVelocity.LenSqr()
	if speed2 >= 2*r.WakeSpeed*r.WakeSpeed {
		r.toWake = append(r.toWake, sleeper)
	}
}

// Equations builds one non-penetration row per contact followed by the two
// friction rows of every contact with non-zero friction.
func (r *Resolver) Equations(contacts []Contact) []*solver.Equation {
	eqs := make([]*solver.Equation, 0, 3*len(contacts))
	for _, c := range contacts {
		soft := solver.Softness{Stiffness: c.Rule.Stiffness, Relaxation: c.Rule.Relaxation}
		eqs = append(eqs, solver.Contact(c.A, c.B, c.Point, c.Rule.Restitution, soft))
	}
	for _, c := range contacts {
		if c.Rule.Friction <= 0 {
			continue
		}
		slip := solver.SlipForce(c.A, c.B, c.Rule.Friction, r.Gravity)
		if slip <= 0 {
			continue
		}
		soft := solver.Softness{Stiffness: c.Rule.Stiffness, Relaxation: c.Rule.Relaxation}
		rows := solver.Friction(c.A, c.B, c.Point, slip, soft)
		eqs = append(eqs, rows[0], rows[1])
	}
	return eqs
}
