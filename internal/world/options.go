package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/material"
	"github.com/san-kum/rigidsim/internal/solver"
)

// SleepOptions configures when a settled body is put to sleep.
type SleepOptions struct {
	Enabled      bool
	Speed        float64
	AngularSpeed float64
	Time         float64
}

// RuleSpec registers a contact rule for a pair of materials.
type RuleSpec struct {
	A, B string
	Rule material.ContactRule
}

// Options is fixed at world creation.
type Options struct {
	Gravity       mgl64.Vec3
	FixedTimestep float64
	MaxSubsteps   int
	Iterations    int
	Tolerance     float64
	Sleep         SleepOptions
	DefaultRule   material.ContactRule
	Materials     []material.Material
	Rules         []RuleSpec
}

func DefaultOptions() Options {
	return Options{
		Gravity:       mgl64.Vec3{0, -9.82, 0},
		FixedTimestep: 1.0 / 60.0,
		MaxSubsteps:   3,
		Iterations:    solver.DefaultIterations,
		Tolerance:     solver.DefaultTolerance,
		Sleep: SleepOptions{
			Enabled:      true,
			Speed:        0.1,
			AngularSpeed: 0.1,
			Time:         1.0,
		},
		DefaultRule: material.DefaultRule(),
	}
}

func (o Options) Validate() error {
	if !dynamo.VecFinite(o.Gravity) {
		return dynamo.NewConfigError("gravity", o.Gravity, dynamo.ErrInvalidConfig)
	}
	if !(o.FixedTimestep > 0) || math.IsInf(o.FixedTimestep, 0) {
		return dynamo.NewConfigError("timestep", o.FixedTimestep, dynamo.ErrInvalidConfig)
	}
	if o.MaxSubsteps < 1 {
		return dynamo.NewConfigError("max_substeps", o.MaxSubsteps, dynamo.ErrInvalidConfig)
	}
	if o.Iterations < 1 {
		return dynamo.NewConfigError("iterations", o.Iterations, dynamo.ErrInvalidConfig)
	}
	if o.Tolerance < 0 || !dynamo.IsFinite(o.Tolerance) {
		return dynamo.NewConfigError("tolerance", o.Tolerance, dynamo.ErrInvalidConfig)
	}
	if o.Sleep.Speed < 0 || o.Sleep.AngularSpeed < 0 || o.Sleep.Time < 0 {
		return dynamo.NewConfigError("sleep", o.Sleep, dynamo.ErrInvalidConfig)
	}
	_, err := o.registry()
	return err
}

func (o Options) registry() (*material.Registry, error) {
	reg, err := material.NewRegistry(o.DefaultRule)
	if err != nil {
		return nil, err
	}
	for _, m := range o.Materials {
		if err := reg.AddMaterial(m); err != nil {
			return nil, err
		}
	}
	for _, r := range o.Rules {
		if err := reg.SetRule(r.A, r.B, r.Rule); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
