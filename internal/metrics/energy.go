package metrics

import (
	"github.com/san-kum/rigidsim/internal/dynamo"
)

// KineticEnergy tracks the translational kinetic energy of all dynamic
// bodies, averaged over the observed frames.
type KineticEnergy struct {
	name    string
	last    float64
	total   float64
	samples int
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(t float64, bodies []dynamo.BodyState) {
	e.last = Kinetic(bodies)
	e.total += e.last
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

// Last returns the energy seen in the most recent frame.
func (e *KineticEnergy) Last() float64 { return e.last }

func (e *KineticEnergy) Reset() {
	e.last = 0
	e.total = 0
	e.samples = 0
}

// Kinetic sums 1/2 m v^2 over bodies.
func Kinetic(bodies []dynamo.BodyState) float64 {
	ke := 0.0
	for _, b := range bodies {
		ke += 0.5 * b.Mass * b.Velocity.LenSqr()
	}
	return ke
}

// EnergyDrift is the largest rise of total energy (kinetic plus potential)
// above its starting value, relative to the start. Contacts and damping only
// remove energy, so growth means the solver is injecting it.
type EnergyDrift struct {
	name     string
	gravity  float64
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift(gravity float64) *EnergyDrift {
	return &EnergyDrift{name: "energy_drift", gravity: gravity}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(t float64, bodies []dynamo.BodyState) {
	energy := Kinetic(bodies)
	for _, b := range bodies {
		energy += b.Mass * e.gravity * b.Pose.Position.Y()
	}
	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++

	if e.initial != 0 {
		drift := (energy - e.initial) / abs(e.initial)
		if drift > e.maxDrift {
			e.maxDrift = drift
		}
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
