package world

import (
	"errors"
	"math"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/constraint"
	"github.com/san-kum/rigidsim/internal/dynamo"
)

// accumulatorSlack absorbs rounding when frame deltas equal the fixed step.
const accumulatorSlack = 1e-9

// Step advances the world by frameDelta seconds of host time using whole
// fixed substeps. It never fails: numerical trouble is recovered by retrying
// the frame as one plain step, and bodies that still blow up are frozen.
// Calls made while a step is running, and non-positive or non-finite deltas,
// are ignored.
func (w *World) Step(frameDelta float64) {
	if w.state == stepping || !(frameDelta > 0) || math.IsInf(frameDelta, 1) {
		return
	}
	w.state = stepping
	defer func() { w.state = idle }()

	fixed := w.opts.FixedTimestep
	w.snapshot()
	startTime, startSteps := w.time, w.steps

	w.accumulator += frameDelta
	n := 0
	var err error
	for w.accumulator >= fixed-accumulatorSlack && n < w.opts.MaxSubsteps {
		if err = w.substep(fixed, nil); err != nil {
			break
		}
		w.accumulator -= fixed
		n++
	}

	if err != nil {
		w.stats.Instabilities++
		w.logger.Warnf("unstable step, retrying frame as a single step: %v", err)
		w.restore()
		w.time, w.steps = startTime, startSteps

		h := math.Min(frameDelta, fixed*float64(w.opts.MaxSubsteps))
		w.stats.Fallbacks++
		if err := w.substep(h, nil); err != nil {
			w.stats.Instabilities++
			w.salvage(h, err)
		}
		w.accumulator = 0
	} else if w.accumulator > fixed {
		w.accumulator = math.Mod(w.accumulator, fixed)
	}
	if w.accumulator < 0 {
		w.accumulator = 0
	}

	w.stats.Frames++
	w.notify()
}

// substep advances the world by h. Constraints holding a body in frozen are
// left out.
func (w *World) substep(h float64, frozen map[*body.Body]bool) error {
	constrained := w.wakeConstrained(frozen)

	for _, b := range w.bodies {
		b.IntegrateVelocity(h, w.opts.Gravity)
	}

	contacts := w.resolver.Detect(w.bodies)
	eqs := w.resolver.Equations(contacts)
	for _, c := range w.constraints {
		if !holds(c, frozen) {
			eqs = append(eqs, c.Equations()...)
		}
	}

	stats, err := w.solver.Solve(h, eqs)
	w.stats.Contacts = len(contacts)
	w.stats.Equations = stats.Equations
	w.stats.SolverIterations = stats.Iterations
	if err != nil {
		var inst *dynamo.InstabilityError
		if errors.As(err, &inst) {
			inst.Step, inst.Time = w.steps, w.time
		}
		return err
	}

	for _, b := range w.bodies {
		b.IntegratePosition(h)
	}
	for _, b := range w.bodies {
		if !b.Finite() {
			return &dynamo.InstabilityError{Step: w.steps, Time: w.time, Body: b.ID, Wrapped: dynamo.ErrNumericalInstability}
		}
	}

	w.time += h
	w.steps++
	w.stats.Substeps++
	w.applySleep(h, constrained)
	return nil
}

// wakeConstrained wakes every dynamic body held by a constraint and returns
// the set of constrained bodies.
func (w *World) wakeConstrained(frozen map[*body.Body]bool) map[*body.Body]bool {
	if len(w.constraints) == 0 {
		return nil
	}
	held := make(map[*body.Body]bool)
	for _, c := range w.constraints {
		if holds(c, frozen) {
			continue
		}
		for _, b := range c.Bodies() {
			held[b] = true
			if b.IsSleeping() && !b.Static() {
				b.Wake()
			}
		}
	}
	return held
}

func (w *World) applySleep(h float64, constrained map[*body.Body]bool) {
	if !w.opts.Sleep.Enabled {
		return
	}
	s := w.opts.Sleep
	for _, b := range w.bodies {
		if constrained[b] {
			b.SleepTimer = 0
			continue
		}
		if b.UpdateSleep(h, s.Speed, s.AngularSpeed, s.Time) {
			w.logger.Debugf("body %d fell asleep at t=%.3f", b.ID, w.time)
		}
	}
}

func (w *World) snapshot() {
	w.snapshots = w.snapshots[:0]
	for _, b := range w.bodies {
		w.snapshots = append(w.snapshots, b.Snapshot())
	}
}

func (w *World) restore() { w.restoreExcept(nil) }

func holds(c constraint.Constraint, set map[*body.Body]bool) bool {
	if len(set) == 0 {
		return false
	}
	for _, b := range c.Bodies() {
		if set[b] {
			return true
		}
	}
	return false
}

// salvage handles a failed fallback step. The bodies behind the failure are
// frozen, everything else goes back to its frame-start state and takes the
// step without them. If that fails as well the frame is dropped.
func (w *World) salvage(h float64, cause error) {
	startTime, startSteps := w.time, w.steps
	frozen := w.freeze(cause)
	w.restoreExcept(frozen)
	if len(frozen) > 0 {
		err := w.substep(h, frozen)
		if err == nil {
			return
		}
		w.stats.Instabilities++
		w.logger.Warnf("step without frozen bodies failed, dropping frame: %v", err)
		w.restoreExcept(frozen)
	}
	w.time, w.steps = startTime+h, startSteps+1
}

func (w *World) restoreExcept(skip map[*body.Body]bool) {
	for i, s := range w.snapshots {
		if !skip[w.bodies[i]] {
			w.bodies[i].Restore(s)
		}
	}
}

// freeze puts every dynamic body the failed fallback left non-finite, or that
// the solver blamed, back at its frame-start pose with no velocity and asleep.
func (w *World) freeze(cause error) map[*body.Body]bool {
	var blamed dynamo.Handle
	var inst *dynamo.InstabilityError
	if errors.As(cause, &inst) {
		blamed = inst.Body
	}

	frozen := make(map[*body.Body]bool)
	for i, s := range w.snapshots {
		b := w.bodies[i]
		if b.Static() || (b.Finite() && b.ID != blamed) {
			continue
		}
		b.Restore(s)
		b.PutToSleep()
		frozen[b] = true
		w.stats.Frozen++
		w.logger.Errorf("froze body %d after failed fallback: %v", b.ID, cause)
	}
	return frozen
}

func (w *World) notify() {
	if len(w.observers) == 0 {
		return
	}
	w.states = w.states[:0]
	for _, b := range w.bodies {
		w.states = append(w.states, b.State())
	}
	for _, o := range w.observers {
		o.OnStep(w.time, w.states)
	}
}
