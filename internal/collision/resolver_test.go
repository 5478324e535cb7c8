package collision

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/material"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scene struct {
	t      *testing.T
	bodies []*body.Body
}

func (s *scene) add(sh shape.Shape, mass float64, pose dynamo.Pose) *body.Body {
	s.t.Helper()
	b, err := body.New(dynamo.Handle(len(s.bodies)+1), body.Spec{Shape: sh, Mass: mass, Pose: pose})
	require.NoError(s.t, err)
	s.bodies = append(s.bodies, b)
	return b
}

func newResolver(t *testing.T, rule material.ContactRule) *Resolver {
	t.Helper()
	reg, err := material.NewRegistry(rule)
	require.NoError(t, err)
	return NewResolver(reg, -9.82, 0.1)
}

func assertNormalAtoB(t *testing.T, c Contact) {
	t.Helper()
	assert.InDelta(t, 1, c.Point.Normal.Len(), 1e-9)
	assert.Greater(t, c.Depth, 0.0)
	assert.InDelta(t, -c.Depth, c.Point.PointB.Sub(c.Point.PointA).Dot(c.Point.Normal), 1e-9)
}

func TestSpherePlane(t *testing.T) {
	s := &scene{t: t}
	ground := s.add(shape.NewPlane(), 0, dynamo.IdentityPose())
	ball := s.add(shape.NewSphere(0.5), 1, dynamo.At(mgl64.Vec3{0, 0.4, 0}))

	contacts := newResolver(t, material.DefaultRule()).Detect(s.bodies)
	require.Len(t, contacts, 1)
	c := contacts[0]
	assert.Same(t, ground, c.A)
	assert.Same(t, ball, c.B)
	assert.InDelta(t, 0.1, c.Depth, 1e-9)
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, c.Point.Normal)
	assertNormalAtoB(t, c)

	ball.Position = mgl64.Vec3{0, 0.6, 0}
	assert.Empty(t, newResolver(t, material.DefaultRule()).Detect(s.bodies))
}

func TestBoxPlaneCorners(t *testing.T) {
	s := &scene{t: t}
	s.add(shape.NewCube(1), 1, dynamo.At(mgl64.Vec3{0, 0.49, 0}))
	s.add(shape.NewPlane(), 0, dynamo.IdentityPose())

	contacts := newResolver(t, material.DefaultRule()).Detect(s.bodies)
	require.Len(t, contacts, 4)
	for _, c := range contacts {
		assert.InDelta(t, 0.01, c.Depth, 1e-9)
		// the box is A, so the normal points down into the plane
		assert.InDelta(t, -1, c.Point.Normal.Y(), 1e-12)
		assertNormalAtoB(t, c)
	}
}

func TestTiltedBoxPlane(t *testing.T) {
	s := &scene{t: t}
	s.add(shape.NewPlane(), 0, dynamo.IdentityPose())
	s.add(shape.NewCube(1), 1, dynamo.Pose{
		Position:    mgl64.Vec3{0, 0.7, 0},
		Orientation: mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1}),
	})

	contacts := newResolver(t, material.DefaultRule()).Detect(s.bodies)
	require.Len(t, contacts, 2)
	for _, c := range contacts {
		assert.InDelta(t, math.Sqrt2/2-0.7, c.Depth, 1e-9)
	}
}

func TestSphereSphere(t *testing.T) {
	s := &scene{t: t}
	s.add(shape.NewSphere(1), 1, dynamo.At(mgl64.Vec3{}))
	s.add(shape.NewSphere(1), 1, dynamo.At(mgl64.Vec3{1.5, 0, 0}))

	contacts := newResolver(t, material.DefaultRule()).Detect(s.bodies)
	require.Len(t, contacts, 1)
	assert.InDelta(t, 0.5, contacts[0].Depth, 1e-9)
	assert.Equal(t, mgl64.Vec3{1, 0, 0}, contacts[0].Point.Normal)
}

func TestSphereBoxBothOrders(t *testing.T) {
	for _, sphereFirst := range []bool{true, false} {
		s := &scene{t: t}
		var ball, box *body.Body
		if sphereFirst {
			ball = s.add(shape.NewSphere(0.5), 1, dynamo.At(mgl64.Vec3{0.9, 0, 0}))
			box = s.add(shape.NewCube(1), 1, dynamo.At(mgl64.Vec3{}))
		} else {
			box = s.add(shape.NewCube(1), 1, dynamo.At(mgl64.Vec3{}))
			ball = s.add(shape.NewSphere(0.5), 1, dynamo.At(mgl64.Vec3{0.9, 0, 0}))
		}

		contacts := newResolver(t, material.DefaultRule()).Detect(s.bodies)
		require.Len(t, contacts, 1)
		c := contacts[0]
		assert.InDelta(t, 0.1, c.Depth, 1e-9)
		assertNormalAtoB(t, c)

		fromBox := ball.Position.Sub(box.Position).Dot(c.Point.Normal)
		if c.A == box {
			assert.Greater(t, fromBox, 0.0)
		} else {
			assert.Less(t, fromBox, 0.0)
		}
	}
}

func TestSphereCentreInsideBox(t *testing.T) {
	s := &scene{t: t}
	s.add(shape.NewCube(2), 0, dynamo.At(mgl64.Vec3{}))
	s.add(shape.NewSphere(0.25), 1, dynamo.At(mgl64.Vec3{0, 0.8, 0}))

	contacts := newResolver(t, material.DefaultRule()).Detect(s.bodies)
	require.Len(t, contacts, 1)
	assert.InDelta(t, 0.45, contacts[0].Depth, 1e-9)
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, contacts[0].Point.Normal)
}

func TestBoxStack(t *testing.T) {
	s := &scene{t: t}
	s.add(shape.NewCube(1), 1, dynamo.At(mgl64.Vec3{0, 0.5, 0}))
	s.add(shape.NewCube(1), 1, dynamo.At(mgl64.Vec3{0.1, 1.49, 0}))

	contacts := newResolver(t, material.DefaultRule()).Detect(s.bodies)
	require.GreaterOrEqual(t, len(contacts), 4)
	for _, c := range contacts {
		assert.InDelta(t, 1, c.Point.Normal.Y(), 1e-9)
		assert.InDelta(t, 0.01, c.Depth, 1e-6)
		assertNormalAtoB(t, c)
	}
}

func TestBoxBoxSeparated(t *testing.T) {
	s := &scene{t: t}
	s.add(shape.NewCube(1), 1, dynamo.At(mgl64.Vec3{}))
	s.add(shape.NewCube(1), 1, dynamo.Pose{
		Position:    mgl64.Vec3{1.2, 0.3, 0},
		Orientation: mgl64.QuatRotate(0.3, mgl64.Vec3{0, 1, 0}),
	})
	assert.Empty(t, newResolver(t, material.DefaultRule()).Detect(s.bodies))
}

func TestBoxBoxEdgeOnEdge(t *testing.T) {
	s := &scene{t: t}
	s.add(shape.NewCube(1), 1, dynamo.Pose{
		Position:    mgl64.Vec3{},
		Orientation: mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1}),
	})
	s.add(shape.NewCube(1), 1, dynamo.Pose{
		Position:    mgl64.Vec3{0, 1.4, 0},
		Orientation: mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{1, 0, 0}),
	})

	contacts := newResolver(t, material.DefaultRule()).Detect(s.bodies)
	require.NotEmpty(t, contacts)
	for _, c := range contacts {
		assert.Greater(t, c.Point.Normal.Y(), 0.9)
		assertNormalAtoB(t, c)
	}
}

func TestPairFiltering(t *testing.T) {
	t.Run("mask zero", func(t *testing.T) {
		s := &scene{t: t}
		s.add(shape.NewPlane(), 0, dynamo.IdentityPose())
		ball := s.add(shape.NewSphere(0.5), 1, dynamo.At(mgl64.Vec3{0, 0.4, 0}))
		ball.Group, ball.Mask = body.NoCollision.Group, body.NoCollision.Mask
		assert.Empty(t, newResolver(t, material.DefaultRule()).Detect(s.bodies))
	})

	t.Run("static pair", func(t *testing.T) {
		s := &scene{t: t}
		s.add(shape.NewPlane(), 0, dynamo.IdentityPose())
		s.add(shape.NewSphere(0.5), 0, dynamo.At(mgl64.Vec3{0, 0.4, 0}))
		assert.Empty(t, newResolver(t, material.DefaultRule()).Detect(s.bodies))
	})

	t.Run("sleeping against static", func(t *testing.T) {
		s := &scene{t: t}
		s.add(shape.NewPlane(), 0, dynamo.IdentityPose())
		ball := s.add(shape.NewSphere(0.5), 1, dynamo.At(mgl64.Vec3{0, 0.4, 0}))
		ball.PutToSleep()
		assert.Empty(t, newResolver(t, material.DefaultRule()).Detect(s.bodies))
	})

	t.Run("planes never collide", func(t *testing.T) {
		s := &scene{t: t}
		s.add(shape.NewPlane(), 0, dynamo.IdentityPose())
		s.add(shape.NewPlane(), 0, dynamo.IdentityPose())
		assert.Empty(t, newResolver(t, material.DefaultRule()).Detect(s.bodies))
	})
}

func TestWakeOnTouch(t *testing.T) {
	cases := []struct {
		name  string
		speed float64
		woken bool
	}{
		{"fast mover wakes", 2, true},
		{"slow mover does not", 0.05, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &scene{t: t}
			sleeper := s.add(shape.NewCube(1), 1, dynamo.At(mgl64.Vec3{}))
			mover := s.add(shape.NewSphere(0.5), 1, dynamo.At(mgl64.Vec3{0.9, 0, 0}))
			sleeper.PutToSleep()
			mover.Velocity = mgl64.Vec3{-tc.speed, 0, 0}

			r := newResolver(t, material.DefaultRule())
			contacts := r.Detect(s.bodies)
			require.Len(t, contacts, 1)
			assert.Equal(t, tc.woken, !sleeper.IsSleeping())
			if tc.woken {
				assert.Equal(t, []*body.Body{sleeper}, r.Woken())
			}
		})
	}
}

func TestEquationsPerContact(t *testing.T) {
	s := &scene{t: t}
	s.add(shape.NewPlane(), 0, dynamo.IdentityPose())
	s.add(shape.NewCube(1), 1, dynamo.At(mgl64.Vec3{0, 0.49, 0}))

	r := newResolver(t, material.DefaultRule())
	contacts := r.Detect(s.bodies)
	require.Len(t, contacts, 4)
	eqs := r.Equations(contacts)
	assert.Len(t, eqs, 12)
	for _, eq := range eqs[:4] {
		assert.Zero(t, eq.MinForce)
	}
	for _, eq := range eqs[4:] {
		assert.InDelta(t, 0.3*9.82, eq.MaxForce, 1e-9)
		assert.Equal(t, -eq.MaxForce, eq.MinForce)
	}

	frictionless := material.DefaultRule()
	frictionless.Friction = 0
	r = newResolver(t, frictionless)
	assert.Len(t, r.Equations(r.Detect(s.bodies)), 4)
}

func TestRuleFromMaterials(t *testing.T) {
	reg, err := material.NewRegistry(material.DefaultRule())
	require.NoError(t, err)
	require.NoError(t, reg.AddMaterial(material.Material{Name: "ice", Friction: 0.01, Restitution: 0}))
	require.NoError(t, reg.SetRule("ice", material.Default, material.ContactRule{Friction: 0.02, Stiffness: 1e6, Relaxation: 4}))

	s := &scene{t: t}
	s.add(shape.NewPlane(), 0, dynamo.IdentityPose())
	ball := s.add(shape.NewSphere(0.5), 1, dynamo.At(mgl64.Vec3{0, 0.4, 0}))
	ball.Material = "ice"

	contacts := NewResolver(reg, 9.82, 0.1).Detect(s.bodies)
	require.Len(t, contacts, 1)
	assert.InDelta(t, 0.02, contacts[0].Rule.Friction, 1e-12)
	assert.Equal(t, 1e6, contacts[0].Rule.Stiffness)
}
