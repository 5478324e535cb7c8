package collision

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/solver"
)

type pairFunc func(a, b *body.Body, out []solver.ContactPoint) []solver.ContactPoint

// tests is indexed by [kind of A][kind of B] with A's kind <= B's kind.
var tests = map[[2]shape.Kind]pairFunc{
	{shape.KindBox, shape.KindBox}:       boxBox,
	{shape.KindBox, shape.KindPlane}:     boxPlane,
	{shape.KindBox, shape.KindSphere}:    boxSphere,
	{shape.KindPlane, shape.KindSphere}:  planeSphere,
	{shape.KindSphere, shape.KindSphere}: sphereSphere,
}

// pair appends the contact points between a and b to out, with normals from
// a to b.
func pair(a, b *body.Body, out []solver.ContactPoint) []solver.ContactPoint {
	ka, kb := a.Shape.Kind, b.Shape.Kind
	if ka <= kb {
		if fn, ok := tests[[2]shape.Kind{ka, kb}]; ok {
			return fn(a, b, out)
		}
		return out
	}
	fn, ok := tests[[2]shape.Kind{kb, ka}]
	if !ok {
		return out
	}
	n := len(out)
	out = fn(b, a, out)
	for i := n; i < len(out); i++ {
		out[i] = flip(out[i])
	}
	return out
}

func flip(p solver.ContactPoint) solver.ContactPoint {
	return solver.ContactPoint{PointA: p.PointB, PointB: p.PointA, Normal: p.Normal.Mul(-1)}
}

func planeNormal(p *body.Body) mgl64.Vec3 {
	return p.Orientation.Rotate(p.Shape.Normal.Normalize())
}

func sphereSphere(a, b *body.Body, out []solver.ContactPoint) []solver.ContactPoint {
	ra, rb := a.Shape.Radius, b.Shape.Radius
	d := b.Position.Sub(a.Position)
	dist := d.Len()
	if dist >= ra+rb {
		return out
	}
	n := mgl64.Vec3{0, 1, 0}
	if dist > 1e-12 {
		n = d.Mul(1 / dist)
	}
	return append(out, solver.ContactPoint{
		PointA: a.Position.Add(n.Mul(ra)),
		PointB: b.Position.Sub(n.Mul(rb)),
		Normal: n,
	})
}

func planeSphere(p, s *body.Body, out []solver.ContactPoint) []solver.ContactPoint {
	n := planeNormal(p)
	r := s.Shape.Radius
	dist := s.Position.Sub(p.Position).Dot(n)
	if dist >= r {
		return out
	}
	return append(out, solver.ContactPoint{
		PointA: s.Position.Sub(n.Mul(dist)),
		PointB: s.Position.Sub(n.Mul(r)),
		Normal: n,
	})
}

// boxPlane reports every box corner below the plane.
func boxPlane(box, p *body.Body, out []solver.ContactPoint) []solver.ContactPoint {
	n := planeNormal(p)
	for _, local := range box.Shape.Corners() {
		c := box.PointToWorld(local)
		dist := c.Sub(p.Position).Dot(n)
		if dist >= 0 {
			continue
		}
		// normal from box to plane is -n
		out = append(out, solver.ContactPoint{
			PointA: c,
			PointB: c.Sub(n.Mul(dist)),
			Normal: n.Mul(-1),
		})
	}
	return out
}

// boxSphere finds the closest point on the box to the sphere centre. A centre
// inside the box is pushed out through the nearest face.
func boxSphere(box, s *body.Body, out []solver.ContactPoint) []solver.ContactPoint {
	h := box.Shape.HalfExtents
	r := s.Shape.Radius
	lc := box.PointToLocal(s.Position)

	var q mgl64.Vec3
	inside := true
	for i := 0; i < 3; i++ {
		q[i] = math.Max(-h[i], math.Min(h[i], lc[i]))
		if q[i] != lc[i] {
			inside = false
		}
	}

	var nLocal mgl64.Vec3
	if inside {
		axis, best := 0, math.Inf(1)
		for i := 0; i < 3; i++ {
			if d := h[i] - math.Abs(lc[i]); d < best {
				axis, best = i, d
			}
		}
		sign := 1.0
		if lc[axis] < 0 {
			sign = -1
		}
		nLocal[axis] = sign
		q = lc
		q[axis] = sign * h[axis]
	} else {
		d := lc.Sub(q)
		dist := d.Len()
		if dist >= r {
			return out
		}
		nLocal = d.Mul(1 / dist)
	}

	n := box.Orientation.Rotate(nLocal)
	return append(out, solver.ContactPoint{
		PointA: box.PointToWorld(q),
		PointB: s.Position.Sub(n.Mul(r)),
		Normal: n,
	})
}
