package body

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ApplyImpulse changes the momentum of the body instantly. The impulse acts at
// worldPoint, so off-centre impulses also spin the body.
func (b *Body) ApplyImpulse(impulse, worldPoint mgl64.Vec3) {
	if b.Static() {
		return
	}
	b.Wake()
	b.Velocity = b.Velocity.Add(impulse.Mul(b.InvMass))
	r := worldPoint.Sub(b.Position)
	b.AngularVelocity = b.AngularVelocity.Add(b.InvInertiaWorld().Mul3x1(r.Cross(impulse)))
}

// ApplyForce accumulates a force for the next integration.
func (b *Body) ApplyForce(force, worldPoint mgl64.Vec3) {
	if b.Static() {
		return
	}
	b.Wake()
	b.force = b.force.Add(force)
	b.torque = b.torque.Add(worldPoint.Sub(b.Position).Cross(force))
}

func (b *Body) ClearForces() {
	b.force = mgl64.Vec3{}
	b.torque = mgl64.Vec3{}
}

// IntegrateVelocity is the velocity half of semi-implicit Euler: gravity and
// accumulated forces, then damping.
func (b *Body) IntegrateVelocity(dt float64, gravity mgl64.Vec3) {
	if !b.Active() {
		return
	}
	accel := gravity.Add(b.force.Mul(b.InvMass))
	b.Velocity = b.Velocity.Add(accel.Mul(dt))
	b.AngularVelocity = b.AngularVelocity.Add(b.InvInertiaWorld().Mul3x1(b.torque).Mul(dt))

	if b.LinearDamping > 0 {
		b.Velocity = b.Velocity.Mul(math.Pow(1-b.LinearDamping, dt))
	}
	if b.AngularDamping > 0 {
		b.AngularVelocity = b.AngularVelocity.Mul(math.Pow(1-b.AngularDamping, dt))
	}
	b.ClearForces()
}

// IntegratePosition advances the pose with the current velocities and
// renormalizes the orientation.
func (b *Body) IntegratePosition(dt float64) {
	if !b.Active() {
		return
	}
	b.Position = b.Position.Add(b.Velocity.Mul(dt))

	w := b.AngularVelocity
	if w.LenSqr() > 0 {
		spin := mgl64.Quat{W: 0, V: w}.Mul(b.Orientation).Scale(0.5 * dt)
		b.Orientation = b.Orientation.Add(spin)
	}
	b.Orientation = b.Orientation.Normalize()
}

// Integrate runs a full semi-implicit Euler step.
func (b *Body) Integrate(dt float64, gravity mgl64.Vec3) {
	b.IntegrateVelocity(dt, gravity)
	b.IntegratePosition(dt)
}

// UpdateSleep accumulates idle time while both speeds stay under their
// thresholds and puts the body to sleep once it has been idle long enough.
// It reports whether the body fell asleep.
func (b *Body) UpdateSleep(dt, speedLimit, angularLimit, timeLimit float64) bool {
	if !b.Active() {
		return false
	}
	if b.Velocity.Len() < speedLimit && b.AngularVelocity.Len() < angularLimit {
		b.SleepTimer += dt
		if b.SleepTimer >= timeLimit {
			b.PutToSleep()
			return true
		}
		return false
	}
	b.SleepTimer = 0
	return false
}
