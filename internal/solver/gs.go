package solver

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/dynamo"
)

const (
	DefaultIterations = 10
	DefaultTolerance  = 1e-7
)

// Stats summarizes one call to Solve.
type Stats struct {
	Equations  int
	Bodies     int
	Iterations int
	Residual   float64
}

// entry holds the solve-time mass data and velocity deltas of one body.
// Sleeping and static bodies get zero inverse mass.
type entry struct {
	invMass    float64
	invInertia mgl64.Mat3
	dv, dw     mgl64.Vec3
}

func (e *entry) apply(j Jacobian, dl float64) {
	if e.invMass == 0 {
		return
	}
	e.dv = e.dv.Add(j.Spatial.Mul(e.invMass * dl))
	e.dw = e.dw.Add(e.invInertia.Mul3x1(j.Rotational).Mul(dl))
}

// GaussSeidel is a projected Gauss-Seidel sequential impulse solver.
// Equations are visited in slice order on every iteration.
type GaussSeidel struct {
	Iterations int
	Tolerance  float64

	bodies  []*body.Body
	entries map[*body.Body]*entry
}

func NewGaussSeidel(iterations int, tolerance float64) *GaussSeidel {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	if tolerance < 0 {
		tolerance = DefaultTolerance
	}
	return &GaussSeidel{
		Iterations: iterations,
		Tolerance:  tolerance,
		entries:    make(map[*body.Body]*entry),
	}
}

// Solve computes the impulses for eqs over a timestep h and adds the
// resulting velocity changes to the bodies. Velocities are left untouched if
// any multiplier turns non-finite.
func (s *GaussSeidel) Solve(h float64, eqs []*Equation) (Stats, error) {
	s.reset()

	active := eqs[:0:0]
	for _, eq := range eqs {
		if !eq.Enabled {
			continue
		}
		eq.ea = s.entryFor(eq.BodyA)
		eq.eb = s.entryFor(eq.BodyB)
		eq.prepare(h)
		active = append(active, eq)
	}

	stats := Stats{Equations: len(active), Bodies: len(s.bodies)}
	if len(active) == 0 {
		return stats, nil
	}

	tol2 := s.Tolerance * s.Tolerance
	for iter := 0; iter < s.Iterations; iter++ {
		total := 0.0
		for _, eq := range active {
			dl := eq.invC * (eq.rhs - eq.deltaVelocity() - eq.eps*eq.Multiplier)

			lambda := eq.Multiplier + dl
			lo, hi := eq.MinForce*h, eq.MaxForce*h
			if lambda < lo {
				dl = lo - eq.Multiplier
			} else if lambda > hi {
				dl = hi - eq.Multiplier
			}
			eq.Multiplier += dl
			if !dynamo.IsFinite(eq.Multiplier) {
				stats.Iterations = iter + 1
				return stats, &dynamo.InstabilityError{Body: eq.culprit().ID, Wrapped: dynamo.ErrNumericalInstability}
			}
			total += math.Abs(dl)
			eq.applyDelta(dl)
		}
		stats.Iterations = iter + 1
		stats.Residual = total
		if total*total < tol2 {
			break
		}
	}

	for _, b := range s.bodies {
		e := s.entries[b]
		if e.invMass == 0 {
			continue
		}
		b.Velocity = b.Velocity.Add(e.dv)
		b.AngularVelocity = b.AngularVelocity.Add(e.dw)
	}
	return stats, nil
}

func (s *GaussSeidel) reset() {
	for k := range s.entries {
		delete(s.entries, k)
	}
	s.bodies = s.bodies[:0]
}

func (s *GaussSeidel) entryFor(b *body.Body) *entry {
	if e, ok := s.entries[b]; ok {
		return e
	}
	e := &entry{}
	if b.Active() {
		e.invMass = b.InvMass
		e.invInertia = b.InvInertiaWorld()
	}
	s.entries[b] = e
	s.bodies = append(s.bodies, b)
	return e
}
