package dynamo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Handle identifies a body inside a world. Zero is never a valid handle.
type Handle uint32

// Pose is the position and orientation of a body in world space.
type Pose struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

// IdentityPose returns a pose at the origin with no rotation.
func IdentityPose() Pose {
	return Pose{Orientation: mgl64.QuatIdent()}
}

// At returns an unrotated pose at p.
func At(p mgl64.Vec3) Pose {
	return Pose{Position: p, Orientation: mgl64.QuatIdent()}
}

// BodyState is the read-only view of a body handed to observers after each frame.
type BodyState struct {
	ID              Handle
	Pose            Pose
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
	Mass            float64
	Sleeping        bool
}

// Speed returns the linear speed of the body.
func (s BodyState) Speed() float64 {
	return s.Velocity.Len()
}

type Observer interface {
	OnStep(t float64, bodies []BodyState)
}

type Metric interface {
	Name() string
	Observe(t float64, bodies []BodyState)
	Value() float64
	Reset()
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(t float64, bodies []BodyState)

func (f ObserverFunc) OnStep(t float64, bodies []BodyState) { f(t, bodies) }

func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func VecFinite(v mgl64.Vec3) bool {
	return IsFinite(v[0]) && IsFinite(v[1]) && IsFinite(v[2])
}

func QuatFinite(q mgl64.Quat) bool {
	return IsFinite(q.W) && VecFinite(q.V)
}
