package collision

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/solver"
)

const (
	// insideSlop widens the point-in-box test so touching faces report
	// their corners.
	insideSlop = 1e-3

	// edgeBias favours face axes over edge axes of similar depth.
	edgeBias = 0.95

	mergeDist2 = 1e-6
)

type obb struct {
	center mgl64.Vec3
	axes   [3]mgl64.Vec3
	half   mgl64.Vec3
}

func obbOf(b *body.Body) obb {
	o := obb{center: b.Position, half: b.Shape.HalfExtents}
	for i := 0; i < 3; i++ {
		var e mgl64.Vec3
		e[i] = 1
		o.axes[i] = b.Orientation.Rotate(e)
	}
	return o
}

func (o obb) radius(axis mgl64.Vec3) float64 {
	r := 0.0
	for i := 0; i < 3; i++ {
		r += o.half[i] * math.Abs(o.axes[i].Dot(axis))
	}
	return r
}

// separation finds the axis of least overlap among the 15 SAT candidates. It
// reports false when a separating axis exists. The returned normal points
// from a to b.
func separation(a, b obb) (mgl64.Vec3, float64, bool) {
	d := b.center.Sub(a.center)
	best := math.Inf(1)
	var normal mgl64.Vec3

	try := func(axis mgl64.Vec3, bias float64) bool {
		l2 := axis.LenSqr()
		if l2 < 1e-12 {
			return true
		}
		axis = axis.Mul(1 / math.Sqrt(l2))
		dist := d.Dot(axis)
		overlap := a.radius(axis) + b.radius(axis) - math.Abs(dist)
		if overlap < 0 {
			return false
		}
		if overlap*bias < best {
			best = overlap * bias
			if dist < 0 {
				axis = axis.Mul(-1)
			}
			normal = axis
		}
		return true
	}

	for i := 0; i < 3; i++ {
		if !try(a.axes[i], 1) || !try(b.axes[i], 1) {
			return normal, 0, false
		}
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if !try(a.axes[i].Cross(b.axes[j]), 1/edgeBias) {
				return normal, 0, false
			}
		}
	}
	depth := a.radius(normal) + b.radius(normal) - math.Abs(d.Dot(normal))
	return normal, depth, true
}

func contains(box *body.Body, p mgl64.Vec3) bool {
	l := box.PointToLocal(p)
	h := box.Shape.HalfExtents
	for i := 0; i < 3; i++ {
		if math.Abs(l[i]) > h[i]+insideSlop {
			return false
		}
	}
	return true
}

// boxBox uses the separating axis test on face and edge axes. Contact points
// are the corners of each box inside the other, measured against the other
// box's support plane. Edge-on-edge hits fall back to the midpoint between
// the two support features.
func boxBox(a, b *body.Body, out []solver.ContactPoint) []solver.ContactPoint {
	oa, ob := obbOf(a), obbOf(b)
	n, depth, ok := separation(oa, ob)
	if !ok {
		return out
	}

	start := len(out)
	topA := a.Position.Dot(n) + oa.radius(n)
	bottomB := b.Position.Dot(n) - ob.radius(n)

	for _, local := range b.Shape.Corners() {
		c := b.PointToWorld(local)
		if !contains(a, c) {
			continue
		}
		pen := topA - c.Dot(n)
		if pen <= 0 {
			continue
		}
		out = append(out, solver.ContactPoint{PointA: c.Add(n.Mul(pen)), PointB: c, Normal: n})
	}
	for _, local := range a.Shape.Corners() {
		c := a.PointToWorld(local)
		if !contains(b, c) {
			continue
		}
		pen := c.Dot(n) - bottomB
		if pen <= 0 || near(out[start:], c) {
			continue
		}
		out = append(out, solver.ContactPoint{PointA: c, PointB: c.Sub(n.Mul(pen)), Normal: n})
	}
	if len(out) > start {
		return out
	}

	sa := support(a, n)
	sb := support(b, n.Mul(-1))
	mid := sa.Add(sb).Mul(0.5)
	return append(out, solver.ContactPoint{
		PointA: mid.Add(n.Mul(depth / 2)),
		PointB: mid.Sub(n.Mul(depth / 2)),
		Normal: n,
	})
}

// near reports whether p coincides with a point already reported.
func near(points []solver.ContactPoint, p mgl64.Vec3) bool {
	for _, q := range points {
		if q.PointA.Sub(p).LenSqr() < mergeDist2 || q.PointB.Sub(p).LenSqr() < mergeDist2 {
			return true
		}
	}
	return false
}

// support returns the centroid of the corners furthest along dir.
func support(b *body.Body, dir mgl64.Vec3) mgl64.Vec3 {
	const tol = 1e-6
	corners := b.Shape.Corners()
	var world [8]mgl64.Vec3
	best := math.Inf(-1)
	for i, local := range corners {
		world[i] = b.PointToWorld(local)
		if d := world[i].Dot(dir); d > best {
			best = d
		}
	}
	var sum mgl64.Vec3
	n := 0
	for _, c := range world {
		if c.Dot(dir) >= best-tol {
			sum = sum.Add(c)
			n++
		}
	}
	return sum.Mul(1 / float64(n))
}
