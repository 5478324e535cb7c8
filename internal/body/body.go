// Package body implements the rigid body: mass data, pose, velocities,
// damping, collision filtering and the sleep lifecycle.
package body

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/shape"
)

type SleepState int

const (
	Awake SleepState = iota
	Sleeping
)

func (s SleepState) String() string {
	if s == Sleeping {
		return "sleeping"
	}
	return "awake"
}

// Filter decides which bodies may collide: a pair collides when each body's
// group intersects the other's mask.
type Filter struct {
	Group uint32
	Mask  uint32
}

// DefaultFilter collides with everything.
var DefaultFilter = Filter{Group: 1, Mask: math.MaxUint32}

// NoCollision is used for bodies that only exist to anchor constraints.
var NoCollision = Filter{Group: 0, Mask: 0}

// Spec describes a body to create. Mass 0 makes the body static.
type Spec struct {
	Shape           shape.Shape
	Material        string
	Mass            float64
	Pose            dynamo.Pose
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
	LinearDamping   float64
	AngularDamping  float64
	Filter          *Filter
}

type Body struct {
	ID       dynamo.Handle
	Shape    shape.Shape
	Material string

	Mass       float64
	InvMass    float64
	InvInertia mgl64.Vec3 // local diagonal

	Position        mgl64.Vec3
	Orientation     mgl64.Quat
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3

	LinearDamping  float64
	AngularDamping float64

	Sleep      SleepState
	SleepTimer float64

	Group uint32
	Mask  uint32

	force  mgl64.Vec3
	torque mgl64.Vec3
}

// New validates spec and builds the body. Material names are checked by the world.
func New(id dynamo.Handle, spec Spec) (*Body, error) {
	if err := spec.Shape.Validate(); err != nil {
		return nil, err
	}
	if spec.Mass < 0 || !dynamo.IsFinite(spec.Mass) {
		return nil, dynamo.NewConfigError("mass", spec.Mass, dynamo.ErrInvalidMass)
	}
	if spec.Shape.Kind == shape.KindPlane && spec.Mass != 0 {
		return nil, dynamo.NewConfigError("mass", spec.Mass, dynamo.ErrInvalidMass)
	}
	if !dynamo.VecFinite(spec.Pose.Position) {
		return nil, dynamo.NewConfigError("pose.position", spec.Pose.Position, dynamo.ErrNonFinitePose)
	}
	q := spec.Pose.Orientation
	if !dynamo.QuatFinite(q) {
		return nil, dynamo.NewConfigError("pose.orientation", q, dynamo.ErrNonFinitePose)
	}
	if q.Len() < 1e-9 {
		q = mgl64.QuatIdent()
	}
	if !dynamo.VecFinite(spec.Velocity) || !dynamo.VecFinite(spec.AngularVelocity) {
		return nil, dynamo.NewConfigError("velocity", spec.Velocity, dynamo.ErrNonFinitePose)
	}
	if spec.LinearDamping < 0 || spec.LinearDamping >= 1 || math.IsNaN(spec.LinearDamping) {
		return nil, dynamo.NewConfigError("linear_damping", spec.LinearDamping, dynamo.ErrInvalidConfig)
	}
	if spec.AngularDamping < 0 || spec.AngularDamping >= 1 || math.IsNaN(spec.AngularDamping) {
		return nil, dynamo.NewConfigError("angular_damping", spec.AngularDamping, dynamo.ErrInvalidConfig)
	}

	filter := DefaultFilter
	if spec.Filter != nil {
		filter = *spec.Filter
	}

	b := &Body{
		ID:             id,
		Shape:          spec.Shape,
		Material:       spec.Material,
		Mass:           spec.Mass,
		Position:       spec.Pose.Position,
		Orientation:    q.Normalize(),
		LinearDamping:  spec.LinearDamping,
		AngularDamping: spec.AngularDamping,
		Group:          filter.Group,
		Mask:           filter.Mask,
	}

	if spec.Mass > 0 {
		b.InvMass = 1.0 / spec.Mass
		inertia := spec.Shape.Inertia(spec.Mass)
		for i := 0; i < 3; i++ {
			if inertia[i] > 0 {
				b.InvInertia[i] = 1.0 / inertia[i]
			}
		}
		b.Velocity = spec.Velocity
		b.AngularVelocity = spec.AngularVelocity
	}

	return b, nil
}

// Static reports whether the body has infinite mass.
func (b *Body) Static() bool { return b.InvMass == 0 }

func (b *Body) IsSleeping() bool { return b.Sleep == Sleeping }

// Active reports whether the body takes part in integration.
func (b *Body) Active() bool { return !b.Static() && b.Sleep == Awake }

func (b *Body) Wake() {
	b.Sleep = Awake
	b.SleepTimer = 0
}

// PutToSleep freezes the body until it is woken.
func (b *Body) PutToSleep() {
	b.Sleep = Sleeping
	b.SleepTimer = 0
	b.Velocity = mgl64.Vec3{}
	b.AngularVelocity = mgl64.Vec3{}
	b.ClearForces()
}

func (b *Body) Pose() dynamo.Pose {
	return dynamo.Pose{Position: b.Position, Orientation: b.Orientation}
}

// SetPosition teleports the body. Used for kinematic anchors.
func (b *Body) SetPosition(p mgl64.Vec3) {
	b.Position = p
}

func (b *Body) PointToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return b.Position.Add(b.Orientation.Rotate(local))
}

func (b *Body) PointToLocal(world mgl64.Vec3) mgl64.Vec3 {
	return b.Orientation.Conjugate().Rotate(world.Sub(b.Position))
}

// VelocityAt returns the velocity of a world point attached to the body.
func (b *Body) VelocityAt(world mgl64.Vec3) mgl64.Vec3 {
	return b.Velocity.Add(b.AngularVelocity.Cross(world.Sub(b.Position)))
}

// InvInertiaWorld returns R * diag(I^-1) * R^T.
func (b *Body) InvInertiaWorld() mgl64.Mat3 {
	if b.Static() {
		return mgl64.Mat3{}
	}
	r := b.Orientation.Mat4().Mat3()
	return r.Mul3(mgl64.Diag3(b.InvInertia)).Mul3(r.Transpose())
}

// CanCollide applies the group/mask filter in both directions.
func (b *Body) CanCollide(other *Body) bool {
	return b.Group&other.Mask != 0 && other.Group&b.Mask != 0
}

func (b *Body) Finite() bool {
	return dynamo.VecFinite(b.Position) && dynamo.QuatFinite(b.Orientation) &&
		dynamo.VecFinite(b.Velocity) && dynamo.VecFinite(b.AngularVelocity)
}

func (b *Body) State() dynamo.BodyState {
	return dynamo.BodyState{
		ID:              b.ID,
		Pose:            b.Pose(),
		Velocity:        b.Velocity,
		AngularVelocity: b.AngularVelocity,
		Mass:            b.Mass,
		Sleeping:        b.IsSleeping(),
	}
}

// Snapshot is a copy of the mutable state of a body.
type Snapshot struct {
	Position        mgl64.Vec3
	Orientation     mgl64.Quat
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
	Sleep           SleepState
	SleepTimer      float64
}

func (b *Body) Snapshot() Snapshot {
	return Snapshot{
		Position:        b.Position,
		Orientation:     b.Orientation,
		Velocity:        b.Velocity,
		AngularVelocity: b.AngularVelocity,
		Sleep:           b.Sleep,
		SleepTimer:      b.SleepTimer,
	}
}

func (b *Body) Restore(s Snapshot) {
	b.Position = s.Position
	b.Orientation = s.Orientation
	b.Velocity = s.Velocity
	b.AngularVelocity = s.AngularVelocity
	b.Sleep = s.Sleep
	b.SleepTimer = s.SleepTimer
	b.ClearForces()
}
