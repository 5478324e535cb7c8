package scenario

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/world"
)

func addGround(env *Env) error {
	_, err := env.World.CreateBody(world.BodySpec{Shape: shape.NewPlane(), Pose: dynamo.IdentityPose()})
	return err
}

func addBody(env *Env, s shape.Shape, mass float64, pos mgl64.Vec3) (dynamo.Handle, error) {
	h, err := env.World.CreateBody(world.BodySpec{Shape: s, Mass: mass, Pose: dynamo.At(pos)})
	if err != nil {
		return 0, err
	}
	env.Track(h)
	return h, nil
}

// dropScene drops a unit box onto the ground and lets it settle.
type dropScene struct {
	height float64
}

func (s *dropScene) Name() string { return "drop" }
func (s *dropScene) Description() string {
	return fmt.Sprintf("unit box dropped from %.0f m onto the ground", s.height)
}

func (s *dropScene) Setup(env *Env) error {
	if err := addGround(env); err != nil {
		return err
	}
	_, err := addBody(env, shape.NewCube(1), 1, mgl64.Vec3{0, s.height, 0})
	return err
}

func (s *dropScene) Frame(*Env, float64) {}

// stackScene drops a short tower of boxes with a ball beside it.
type stackScene struct {
	boxes int
}

func (s *stackScene) Name() string        { return "stack" }
func (s *stackScene) Description() string { return "tower of boxes next to a ball" }

func (s *stackScene) Setup(env *Env) error {
	if err := addGround(env); err != nil {
		return err
	}
	for i := 0; i < s.boxes; i++ {
		if _, err := addBody(env, shape.NewCube(1), 1, mgl64.Vec3{0, 0.5 + 1.05*float64(i), 0}); err != nil {
			return err
		}
	}
	_, err := addBody(env, shape.NewSphere(0.5), 1, mgl64.Vec3{2, 3, 0})
	return err
}

func (s *stackScene) Frame(*Env, float64) {}

// scatterScene spawns bodies in a ring and kicks each one with the
// environment's impulse policy.
type scatterScene struct {
	count int
}

func (s *scatterScene) Name() string        { return "scatter" }
func (s *scatterScene) Description() string { return "ring of bodies spawned with random kicks" }

func (s *scatterScene) Setup(env *Env) error {
	if err := addGround(env); err != nil {
		return err
	}
	for i := 0; i < s.count; i++ {
		x := float64(i-s.count/2) * 1.5
		sh := shape.NewCube(1)
		if i%2 == 1 {
			sh = shape.NewSphere(0.5)
		}
		h, err := addBody(env, sh, 1, mgl64.Vec3{x, 2, 0})
		if err != nil {
			return err
		}
		if env.Policy == nil {
			continue
		}
		b, _ := env.World.Body(h)
		if err := env.World.ApplyImpulse(h, env.Policy.Impulse(b.State()), b.Position); err != nil {
			return err
		}
	}
	return nil
}

func (s *scatterScene) Frame(*Env, float64) {}

// dragScene grabs a box off-centre, carries it along path and lets go. A
// throw releases it with the environment's impulse policy.
type dragScene struct {
	throw     bool
	grabAt    float64
	moveFor   float64
	releaseAt float64
	grabLocal mgl64.Vec3
	path      mgl64.Vec3

	target   dynamo.Handle
	start    mgl64.Vec3
	released bool
}

func newDragScene(throw bool) *dragScene {
	return &dragScene{
		throw:     throw,
		grabAt:    1.0,
		moveFor:   1.0,
		releaseAt: 2.5,
		grabLocal: mgl64.Vec3{0.3, 0.3, 0},
		path:      mgl64.Vec3{1, 2, 0}.Normalize().Mul(2),
	}
}

func (s *dragScene) Name() string {
	if s.throw {
		return "throw"
	}
	return "drag"
}

func (s *dragScene) Description() string {
	if s.throw {
		return "box picked up and thrown"
	}
	return "box picked up off-centre, carried 2 m and set free"
}

func (s *dragScene) Setup(env *Env) error {
	if err := addGround(env); err != nil {
		return err
	}
	h, err := addBody(env, shape.NewCube(1), 1, mgl64.Vec3{0, 0.5, 0})
	s.target = h
	return err
}

func (s *dragScene) Frame(env *Env, t float64) {
	d := env.Drag
	switch {
	case s.released || t < s.grabAt:
		return
	case !d.Active():
		b, ok := env.World.Body(s.target)
		if !ok {
			return
		}
		s.start = b.PointToWorld(s.grabLocal)
		d.Begin(s.target, s.start)
	case t >= s.releaseAt:
		if s.throw {
			d.End(nil)
		} else {
			d.End(&mgl64.Vec3{})
		}
		s.released = true
	default:
		frac := (t - s.grabAt) / s.moveFor
		if frac > 1 {
			frac = 1
		}
		d.Update(s.start.Add(s.path.Mul(frac)))
	}
}
