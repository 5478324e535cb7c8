package constraint

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/solver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBody(t *testing.T, id dynamo.Handle, mass float64, pos mgl64.Vec3) *body.Body {
	t.Helper()
	b, err := body.New(id, body.Spec{Shape: shape.NewCube(1), Mass: mass, Pose: dynamo.At(pos)})
	require.NoError(t, err)
	return b
}

func TestWorldAnchors(t *testing.T) {
	box := newBody(t, 1, 1, mgl64.Vec3{1, 0, 0})
	anchor := newBody(t, 2, 0, mgl64.Vec3{1, 0.5, 0})
	c := NewPointToPoint(box, mgl64.Vec3{0, 0.5, 0}, anchor, mgl64.Vec3{}, Softness{Stiffness: 1e6, Relaxation: 3}, 0)

	pa, pb := c.WorldAnchors()
	assert.Equal(t, mgl64.Vec3{1, 0.5, 0}, pa)
	assert.Equal(t, pa, pb)
	assert.Zero(t, c.Separation())
	assert.Equal(t, DefaultMaxForce, c.MaxForce)
}

func TestEquationsReuseRows(t *testing.T) {
	box := newBody(t, 1, 1, mgl64.Vec3{})
	anchor := newBody(t, 2, 0, mgl64.Vec3{0, 2, 0})
	c := NewPointToPoint(box, mgl64.Vec3{}, anchor, mgl64.Vec3{}, Softness{Stiffness: 1e6, Relaxation: 3}, 50)

	first := c.Equations()
	require.Len(t, first, 3)
	assert.InDelta(t, 2.0, first[1].Offset, 1e-12)
	assert.Equal(t, -50.0, first[0].MinForce)

	anchor.SetPosition(mgl64.Vec3{0, 3, 0})
	second := c.Equations()
	assert.Same(t, first[1], second[1])
	assert.InDelta(t, 3.0, second[1].Offset, 1e-12)
}

func TestHangingBodyConverges(t *testing.T) {
	const dt = 1.0 / 60.0
	gravity := mgl64.Vec3{0, -9.82, 0}

	box := newBody(t, 1, 1, mgl64.Vec3{0, -1, 0})
	anchor := newBody(t, 2, 0, mgl64.Vec3{0, 0, 0})
	box.AngularDamping = 0.5
	box.LinearDamping = 0.5
	c := NewPointToPoint(box, mgl64.Vec3{0, 0.5, 0}, anchor, mgl64.Vec3{}, Softness{Stiffness: 1e6, Relaxation: 3}, 0)

	gs := solver.NewGaussSeidel(10, solver.DefaultTolerance)
	for i := 0; i < 600; i++ {
		box.IntegrateVelocity(dt, gravity)
		_, err := gs.Solve(dt, c.Equations())
		require.NoError(t, err)
		box.IntegratePosition(dt)
	}

	assert.Less(t, c.Separation(), 0.01)
	assert.Equal(t, mgl64.Vec3{}, anchor.Position)
}
