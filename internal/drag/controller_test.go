package drag_test

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/constraint"
	"github.com/san-kum/rigidsim/internal/drag"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/impulse"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/world"
)

var stiff = constraint.Softness{Stiffness: 1e6, Relaxation: 3}

func velocityOf(w *world.World, h dynamo.Handle) (mgl64.Vec3, mgl64.Vec3) {
	b, ok := w.Body(h)
	Expect(ok).To(BeTrue())
	return b.Velocity, b.AngularVelocity
}

var _ = Describe("Controller", func() {
	var (
		w      *world.World
		ground dynamo.Handle
		box    dynamo.Handle
		ctrl   *drag.Controller
	)

	BeforeEach(func() {
		var err error
		w, err = world.New(world.DefaultOptions(), nil)
		Expect(err).NotTo(HaveOccurred())

		ground, err = w.CreateBody(world.BodySpec{Shape: shape.NewPlane(), Pose: dynamo.IdentityPose()})
		Expect(err).NotTo(HaveOccurred())
		box, err = w.CreateBody(world.BodySpec{Shape: shape.NewCube(1), Mass: 1, Pose: dynamo.At(mgl64.Vec3{0, 0.5, 0})})
		Expect(err).NotTo(HaveOccurred())

		ctrl = drag.New(w, stiff, 0)
	})

	Describe("Begin", func() {
		It("attaches a joint and a non-colliding anchor at the hit point", func() {
			hit := mgl64.Vec3{0.3, 0.8, 0}
			Expect(ctrl.Begin(box, hit)).To(BeTrue())

			Expect(ctrl.Active()).To(BeTrue())
			Expect(ctrl.Target()).To(Equal(box))
			Expect(w.Constraints()).To(HaveLen(1))

			anchor, ok := w.Body(ctrl.Anchor())
			Expect(ok).To(BeTrue())
			Expect(anchor.Mass).To(BeZero())
			Expect(anchor.Mask).To(BeZero())
			Expect(anchor.Group).To(BeZero())
			Expect(anchor.Position).To(Equal(hit))

			p, ok := ctrl.AnchorPoint()
			Expect(ok).To(BeTrue())
			Expect(p).To(Equal(hit))
		})

		It("stores the hit point in the body's local frame", func() {
			b, _ := w.Body(box)
			b.Orientation = mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0})
			hit := mgl64.Vec3{0.5, 0.5, 0}

			Expect(ctrl.Begin(box, hit)).To(BeTrue())
			local := ctrl.Joint().LocalA
			Expect(local.ApproxEqualThreshold(mgl64.Vec3{0, 0, 0.5}, 1e-12)).To(BeTrue())
			Expect(ctrl.Joint().Separation()).To(BeNumerically("<", 1e-12))
		})

		It("is a no-op while a drag is active", func() {
			Expect(ctrl.Begin(box, mgl64.Vec3{0, 1, 0})).To(BeTrue())
			first := ctrl.Joint()

			Expect(ctrl.Begin(box, mgl64.Vec3{0.2, 1, 0})).To(BeFalse())
			Expect(w.Constraints()).To(HaveLen(1))
			Expect(ctrl.Joint()).To(BeIdenticalTo(first))
		})

		It("refuses static and unknown bodies", func() {
			Expect(ctrl.Begin(ground, mgl64.Vec3{})).To(BeFalse())
			Expect(ctrl.Begin(dynamo.Handle(404), mgl64.Vec3{})).To(BeFalse())
			Expect(ctrl.Begin(box, mgl64.Vec3{math.NaN(), 0, 0})).To(BeFalse())
			Expect(ctrl.Active()).To(BeFalse())
			Expect(w.Constraints()).To(BeEmpty())
		})

		It("wakes a sleeping target", func() {
			b, _ := w.Body(box)
			b.PutToSleep()
			Expect(ctrl.Begin(box, mgl64.Vec3{0, 1, 0})).To(BeTrue())
			Expect(b.IsSleeping()).To(BeFalse())
		})
	})

	Describe("End", func() {
		It("removes the joint and keeps both bodies", func() {
			Expect(ctrl.Begin(box, mgl64.Vec3{0, 1, 0})).To(BeTrue())
			bodies := w.Len()

			ctrl.End(nil)
			Expect(ctrl.Active()).To(BeFalse())
			Expect(ctrl.Target()).To(BeZero())
			Expect(w.Constraints()).To(BeEmpty())
			Expect(w.Len()).To(Equal(bodies))
			_, ok := ctrl.AnchorPoint()
			Expect(ok).To(BeFalse())
		})

		It("lets a new drag start with a fresh joint and the same anchor", func() {
			Expect(ctrl.Begin(box, mgl64.Vec3{0, 1, 0})).To(BeTrue())
			first := ctrl.Joint()
			anchor := ctrl.Anchor()
			bodies := w.Len()

			ctrl.End(nil)
			Expect(ctrl.Begin(box, mgl64.Vec3{0.1, 1, 0})).To(BeTrue())

			Expect(ctrl.Joint()).NotTo(BeIdenticalTo(first))
			Expect(w.Constraints()).To(HaveLen(1))
			Expect(ctrl.Anchor()).To(Equal(anchor))
			Expect(w.Len()).To(Equal(bodies))
		})

		It("applies the release impulse at the grabbed point", func() {
			Expect(ctrl.Begin(box, mgl64.Vec3{0, 0.5, 0.5})).To(BeTrue())
			release := mgl64.Vec3{2, 0, 0}
			ctrl.End(&release)

			v, omega := velocityOf(w, box)
			Expect(v.X()).To(BeNumerically("~", 2, 1e-12))
			// r x J = (0,0,0.5) x (2,0,0) = (0,1,0), I^-1 = 6
			Expect(omega.Y()).To(BeNumerically("~", 6, 1e-9))
		})

		It("falls back to the release policy", func() {
			ctrl = drag.New(w, stiff, 0, drag.WithReleasePolicy(impulse.Fixed(mgl64.Vec3{0, 3, 0})))
			Expect(ctrl.Begin(box, mgl64.Vec3{0, 0.5, 0})).To(BeTrue())
			ctrl.End(nil)

			v, _ := velocityOf(w, box)
			Expect(v.Y()).To(BeNumerically("~", 3, 1e-12))
		})

		It("prefers an explicit release over the policy", func() {
			ctrl = drag.New(w, stiff, 0, drag.WithReleasePolicy(impulse.Fixed(mgl64.Vec3{0, 3, 0})))
			Expect(ctrl.Begin(box, mgl64.Vec3{0, 0.5, 0})).To(BeTrue())
			none := mgl64.Vec3{}
			ctrl.End(&none)

			v, _ := velocityOf(w, box)
			Expect(v).To(Equal(mgl64.Vec3{}))
		})
	})

	It("ignores Update and End without an active drag", func() {
		ctrl.Update(mgl64.Vec3{1, 2, 3})
		ctrl.End(nil)
		Expect(ctrl.Active()).To(BeFalse())
		Expect(ctrl.Anchor()).To(BeZero())
		Expect(w.Constraints()).To(BeEmpty())
	})

	It("leaves velocity unchanged across begin, update and end", func() {
		Expect(w.ApplyImpulse(box, mgl64.Vec3{0.4, 1, -0.2}, mgl64.Vec3{0.1, 0.6, 0})).To(Succeed())
		v0, w0 := velocityOf(w, box)

		p := mgl64.Vec3{0.2, 0.9, 0.1}
		Expect(ctrl.Begin(box, p)).To(BeTrue())
		ctrl.Update(p)
		ctrl.End(nil)

		v1, w1 := velocityOf(w, box)
		Expect(v1).To(Equal(v0))
		Expect(w1).To(Equal(w0))
	})

	DescribeTable("drags the body smoothly towards the pointer",
		func(name string, frames int) {
			profile, ok := config.GetProfile(name)
			Expect(ok).To(BeTrue())
			cfg := config.DefaultConfig()
			Expect(cfg.ApplyProfile(name)).To(Succeed())
			opts, err := cfg.WorldOptions()
			Expect(err).NotTo(HaveOccurred())
			Expect(opts.FixedTimestep).To(Equal(profile.Timestep))

			w, err = world.New(opts, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = w.CreateBody(world.BodySpec{Shape: shape.NewPlane(), Pose: dynamo.IdentityPose()})
			Expect(err).NotTo(HaveOccurred())
			box, err = w.CreateBody(world.BodySpec{Shape: shape.NewCube(1), Mass: 1, Pose: dynamo.At(mgl64.Vec3{0, 0.5, 0})})
			Expect(err).NotTo(HaveOccurred())
			ctrl = drag.New(w, cfg.DragSoftness(), cfg.Drag.MaxForce)

			hit := mgl64.Vec3{0.3, 0.8, 0}
			Expect(ctrl.Begin(box, hit)).To(BeTrue())
			Expect(ctrl.Joint().MaxForce).To(Equal(profile.Drag.MaxForce))
			target := hit.Add(mgl64.Vec3{0, 2, 0})
			ctrl.Update(target)

			b, _ := w.Body(box)
			prev := b.Position
			for i := 0; i < frames; i++ {
				w.Step(opts.FixedTimestep)
				step := b.Position.Sub(prev).Len()
				Expect(step).To(BeNumerically("<", 1.0), "frame %d jumped %.3f", i, step)
				prev = b.Position
			}

			Expect(b.Position.Y()).To(BeNumerically(">", 1.5))
			Expect(ctrl.Joint().Separation()).To(BeNumerically("<", 0.1))
		},
		Entry("desktop profile", "desktop", 180),
		Entry("lowpower profile", "lowpower", 240),
	)

	It("never lets the anchor collide", func() {
		Expect(ctrl.Begin(box, mgl64.Vec3{0, 1, 0})).To(BeTrue())
		ctrl.Update(mgl64.Vec3{3, 1, 0})
		anchor, _ := w.Body(ctrl.Anchor())
		Expect(anchor.CanCollide(mustBody(w, ground))).To(BeFalse())
		Expect(anchor.CanCollide(mustBody(w, box))).To(BeFalse())

		for i := 0; i < 30; i++ {
			w.Step(1.0 / 60.0)
		}
		Expect(anchor.Position).To(Equal(mgl64.Vec3{3, 1, 0}))
	})
})

func mustBody(w *world.World, h dynamo.Handle) *body.Body {
	b, ok := w.Body(h)
	Expect(ok).To(BeTrue())
	return b
}
