// Package impulse provides injectable sources of impulses, used for throw
// releases and spawn jitter. Tests swap in Zero or Fixed for determinism.
package impulse

import (
	"math"
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/dynamo"
)

// Policy returns the impulse to apply to a body.
type Policy interface {
	Impulse(target dynamo.BodyState) mgl64.Vec3
}

// Func adapts a function to Policy.
type Func func(target dynamo.BodyState) mgl64.Vec3

func (f Func) Impulse(target dynamo.BodyState) mgl64.Vec3 { return f(target) }

func Zero() Policy {
	return Func(func(dynamo.BodyState) mgl64.Vec3 { return mgl64.Vec3{} })
}

// Fixed always returns v regardless of the body.
func Fixed(v mgl64.Vec3) Policy {
	return Func(func(dynamo.BodyState) mgl64.Vec3 { return v })
}

// Random picks a heading in the horizontal plane and a random speed up to
// Speed, with Lift of that speed added upward. The result is scaled by the
// body's mass so every body gets the same velocity distribution.
type Random struct {
	Speed float64
	Lift  float64
	rng   *rand.Rand
}

// NewRandom seeds the generator. A zero seed uses the clock.
func NewRandom(seed int64, speed float64) *Random {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Random{
		Speed: speed,
		Lift:  0.5,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

func (r *Random) Impulse(target dynamo.BodyState) mgl64.Vec3 {
	theta := r.rng.Float64() * 2 * math.Pi
	speed := r.rng.Float64() * r.Speed
	v := mgl64.Vec3{math.Cos(theta) * speed, r.Lift * speed, math.Sin(theta) * speed}
	return v.Mul(target.Mass)
}
