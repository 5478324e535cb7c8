// Package drag lets an input layer grab a body with a soft point-to-point
// joint, move it around and release it. At most one drag is active at a time.
package drag

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/constraint"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/impulse"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/world"
)

const anchorRadius = 0.05

type Option func(*Controller)

// WithReleasePolicy sets the impulse applied by End(nil).
func WithReleasePolicy(p impulse.Policy) Option {
	return func(c *Controller) { c.policy = p }
}

func WithLogger(l dynamo.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

type Controller struct {
	world    *world.World
	softness constraint.Softness
	maxForce float64
	policy   impulse.Policy
	logger   dynamo.Logger

	// anchor is created on the first Begin and reused afterwards.
	anchor dynamo.Handle

	joint  *constraint.PointToPoint
	target dynamo.Handle
}

func New(w *world.World, softness constraint.Softness, maxForce float64, opts ...Option) *Controller {
	c := &Controller{
		world:    w,
		softness: softness,
		maxForce: maxForce,
		logger:   dynamo.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Begin attaches target at the world point hit. It does nothing and returns
// false while another drag is active or when the target cannot be dragged.
func (c *Controller) Begin(target dynamo.Handle, hit mgl64.Vec3) bool {
	if c.Active() || !dynamo.VecFinite(hit) {
		return false
	}
	b, ok := c.world.Body(target)
	if !ok || b.Static() {
		return false
	}
	anchor, err := c.anchorAt(hit)
	if err != nil {
		c.logger.Errorf("drag: creating anchor: %v", err)
		return false
	}

	local := b.PointToLocal(hit)
	c.joint = constraint.NewPointToPoint(b, local, anchor, mgl64.Vec3{}, c.softness, c.maxForce)
	c.world.AddConstraint(c.joint)
	c.target = target
	b.Wake()

	c.logger.Debugf("drag: grabbed body %d at %v", target, hit)
	return true
}

// Update moves the anchor to point. The joint pulls the body after it on the
// following steps.
func (c *Controller) Update(point mgl64.Vec3) {
	if !c.Active() || !dynamo.VecFinite(point) {
		return
	}
	c.joint.BodyB.SetPosition(point)
}

// End removes the joint and applies release at the grabbed point. A nil
// release falls back to the release policy, if any.
func (c *Controller) End(release *mgl64.Vec3) {
	if !c.Active() {
		return
	}
	c.world.RemoveConstraint(c.joint)
	b := c.joint.BodyA
	grabbed := b.PointToWorld(c.joint.LocalA)

	var imp mgl64.Vec3
	switch {
	case release != nil:
		imp = *release
	case c.policy != nil:
		imp = c.policy.Impulse(b.State())
	}
	if imp != (mgl64.Vec3{}) {
		if err := c.world.ApplyImpulse(c.target, imp, grabbed); err != nil {
			c.logger.Warnf("drag: release impulse: %v", err)
		}
	}

	c.logger.Debugf("drag: released body %d", c.target)
	c.joint = nil
	c.target = 0
}

func (c *Controller) Active() bool { return c.joint != nil }

// Target returns the dragged body, or 0 when idle.
func (c *Controller) Target() dynamo.Handle { return c.target }

// Joint returns the active joint, or nil.
func (c *Controller) Joint() *constraint.PointToPoint { return c.joint }

// Anchor returns the anchor body handle, or 0 before the first drag.
func (c *Controller) Anchor() dynamo.Handle { return c.anchor }

// AnchorPoint reports where the pointer currently holds the body.
func (c *Controller) AnchorPoint() (mgl64.Vec3, bool) {
	if !c.Active() {
		return mgl64.Vec3{}, false
	}
	return c.joint.BodyB.Position, true
}

func (c *Controller) anchorAt(p mgl64.Vec3) (*body.Body, error) {
	if c.anchor != 0 {
		b, _ := c.world.Body(c.anchor)
		b.SetPosition(p)
		return b, nil
	}
	h, err := c.world.CreateBody(world.BodySpec{
		Shape:  shape.NewSphere(anchorRadius),
		Pose:   dynamo.At(p),
		Filter: &body.NoCollision,
	})
	if err != nil {
		return nil, err
	}
	c.anchor = h
	b, _ := c.world.Body(h)
	return b, nil
}
