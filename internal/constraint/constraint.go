// Package constraint defines joints between bodies. A joint does not own its
// bodies; it only turns their current state into solver equations.
package constraint

import (
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/solver"
)

// Softness is the SPOOK stiffness and relaxation of a joint.
type Softness = solver.Softness

// Constraint is anything the world can hand to the solver each substep.
type Constraint interface {
	Bodies() []*body.Body
	Equations() []*solver.Equation
}
