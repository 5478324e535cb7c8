// Package world owns bodies and constraints and advances them with a fixed
// timestep. A World is not safe for concurrent use.
package world

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/collision"
	"github.com/san-kum/rigidsim/internal/constraint"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/material"
	"github.com/san-kum/rigidsim/internal/solver"
)

// BodySpec describes a body to create.
type BodySpec = body.Spec

type state int

const (
	idle state = iota
	stepping
)

// Stats counts what happened across all frames.
type Stats struct {
	Frames        int
	Substeps      int
	Instabilities int
	Fallbacks     int
	Frozen        int

	// Last substep only.
	Contacts         int
	Equations        int
	SolverIterations int
}

type World struct {
	opts   Options
	logger dynamo.Logger

	rules    *material.Registry
	resolver *collision.Resolver
	solver   *solver.GaussSeidel

	bodies      []*body.Body
	byID        map[dynamo.Handle]*body.Body
	nextID      dynamo.Handle
	constraints []constraint.Constraint
	observers   []dynamo.Observer

	state       state
	accumulator float64
	time        float64
	steps       int
	stats       Stats

	snapshots []body.Snapshot
	states    []dynamo.BodyState
}

func New(opts Options, logger dynamo.Logger) (*World, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = dynamo.NopLogger()
	}
	rules, err := opts.registry()
	if err != nil {
		return nil, err
	}

	return &World{
		opts:     opts,
		logger:   logger,
		rules:    rules,
		resolver: collision.NewResolver(rules, opts.Gravity.Len(), opts.Sleep.Speed),
		solver:   solver.NewGaussSeidel(opts.Iterations, opts.Tolerance),
		byID:     make(map[dynamo.Handle]*body.Body),
		nextID:   1,
	}, nil
}

// CreateBody validates spec and adds the body. Bodies live as long as the world.
func (w *World) CreateBody(spec BodySpec) (dynamo.Handle, error) {
	if !w.rules.Has(spec.Material) {
		return 0, dynamo.NewConfigError("material", spec.Material, dynamo.ErrUnknownMaterial)
	}
	b, err := body.New(w.nextID, spec)
	if err != nil {
		return 0, err
	}
	w.nextID++
	w.bodies = append(w.bodies, b)
	w.byID[b.ID] = b

	w.logger.Debugf("created body %d: %s mass=%g at %v", b.ID, b.Shape, b.Mass, b.Position)
	return b.ID, nil
}

// ApplyImpulse applies an impulse at a world point and wakes the body.
// Static bodies ignore it.
func (w *World) ApplyImpulse(h dynamo.Handle, impulse, worldPoint mgl64.Vec3) error {
	b, ok := w.byID[h]
	if !ok {
		return dynamo.NewConfigError("handle", h, dynamo.ErrUnknownBody)
	}
	if !dynamo.VecFinite(impulse) || !dynamo.VecFinite(worldPoint) {
		return dynamo.NewConfigError("impulse", impulse, dynamo.ErrNonFinitePose)
	}
	b.ApplyImpulse(impulse, worldPoint)
	return nil
}

// ApplyForce accumulates a force for the next substep.
func (w *World) ApplyForce(h dynamo.Handle, force, worldPoint mgl64.Vec3) error {
	b, ok := w.byID[h]
	if !ok {
		return dynamo.NewConfigError("handle", h, dynamo.ErrUnknownBody)
	}
	if !dynamo.VecFinite(force) || !dynamo.VecFinite(worldPoint) {
		return dynamo.NewConfigError("force", force, dynamo.ErrNonFinitePose)
	}
	b.ApplyForce(force, worldPoint)
	return nil
}

// Pose returns the current pose of h.
func (w *World) Pose(h dynamo.Handle) (dynamo.Pose, bool) {
	b, ok := w.byID[h]
	if !ok {
		return dynamo.Pose{}, false
	}
	return b.Pose(), true
}

// Body exposes the body behind h for collaborators that build constraints.
func (w *World) Body(h dynamo.Handle) (*body.Body, bool) {
	b, ok := w.byID[h]
	return b, ok
}

// Handles lists body handles in creation order.
func (w *World) Handles() []dynamo.Handle {
	out := make([]dynamo.Handle, len(w.bodies))
	for i, b := range w.bodies {
		out[i] = b.ID
	}
	return out
}

// States returns a read-only view of every body.
func (w *World) States() []dynamo.BodyState {
	out := make([]dynamo.BodyState, len(w.bodies))
	for i, b := range w.bodies {
		out[i] = b.State()
	}
	return out
}

func (w *World) AddConstraint(c constraint.Constraint) {
	w.constraints = append(w.constraints, c)
}

// RemoveConstraint removes c. The bodies it referenced are kept.
func (w *World) RemoveConstraint(c constraint.Constraint) bool {
	for i, existing := range w.constraints {
		if existing == c {
			w.constraints = append(w.constraints[:i], w.constraints[i+1:]...)
			return true
		}
	}
	return false
}

func (w *World) Constraints() []constraint.Constraint {
	out := make([]constraint.Constraint, len(w.constraints))
	copy(out, w.constraints)
	return out
}

// AddObserver registers o to be called after every frame. The state slice
// handed to OnStep is reused between frames.
func (w *World) AddObserver(o dynamo.Observer) {
	w.observers = append(w.observers, o)
}

func (w *World) Rules() *material.Registry { return w.rules }
func (w *World) Options() Options          { return w.opts }
func (w *World) Time() float64             { return w.time }
func (w *World) Stats() Stats              { return w.stats }
func (w *World) Accumulator() float64      { return w.accumulator }
func (w *World) Len() int                  { return len(w.bodies) }
