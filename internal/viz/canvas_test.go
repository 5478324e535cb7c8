package viz

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/shape"
)

func newBody(t *testing.T, s shape.Shape, mass float64, pos mgl64.Vec3) *body.Body {
	t.Helper()
	b, err := body.New(1, body.Spec{Shape: s, Mass: mass, Pose: dynamo.At(pos)})
	if err != nil {
		t.Fatalf("new body: %v", err)
	}
	return b
}

func TestCanvasSetAndClear(t *testing.T) {
	c := NewCanvas(4, 2)
	w, h := c.Dots()
	if w != 8 || h != 8 {
		t.Fatalf("expected 8x8 dots, got %dx%d", w, h)
	}

	c.Set(3, 5)
	c.Set(-1, 0)
	c.Set(100, 100)
	if !c.IsSet(3, 5) {
		t.Error("expected dot (3,5) to be set")
	}
	if c.IsSet(2, 5) {
		t.Error("neighbouring dot should stay clear")
	}

	c.Clear()
	if c.IsSet(3, 5) {
		t.Error("clear left a dot behind")
	}
	if got := strings.Count(c.String(), "\n"); got != 2 {
		t.Errorf("expected 2 rows, got %d", got)
	}
}

func TestDrawLineEndpoints(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawLine(1, 1, 15, 9)
	if !c.IsSet(1, 1) || !c.IsSet(15, 9) {
		t.Error("line endpoints not drawn")
	}
}

func TestProjectionRoundTrip(t *testing.T) {
	c := NewCanvas(40, 10)
	p := FitProjection(c, 8)

	x, y := p.Dot(c, mgl64.Vec3{0, 0, 0})
	if x != 40 {
		t.Errorf("origin should be centred, got x=%d", x)
	}
	back := p.World(c, x, y)
	if !back.ApproxEqualThreshold(mgl64.Vec3{}, 1/p.Scale) {
		t.Errorf("round trip drifted to %v", back)
	}

	_, high := p.Dot(c, mgl64.Vec3{0, 2, 0})
	if high >= y {
		t.Errorf("higher points should map to smaller rows: %d >= %d", high, y)
	}
}

func TestDrawBodies(t *testing.T) {
	tests := []struct {
		name string
		body *body.Body
		dot  mgl64.Vec3
	}{
		{"box", newBody(t, shape.NewCube(1), 1, mgl64.Vec3{0, 1, 0}), mgl64.Vec3{0.5, 0.5, 0}},
		{"sphere", newBody(t, shape.NewSphere(0.5), 1, mgl64.Vec3{0, 1, 0}), mgl64.Vec3{0, 1.5, 0}},
		{"plane", newBody(t, shape.NewPlane(), 0, mgl64.Vec3{}), mgl64.Vec3{-3, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCanvas(40, 10)
			p := FitProjection(c, 8)
			p.DrawBody(c, tt.body)
			x, y := p.Dot(c, tt.dot)
			if !c.IsSet(x, y) {
				t.Errorf("expected dot at %v (%d,%d)", tt.dot, x, y)
			}
		})
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 1, 2, 3}, 10); got != "▁▃▅█" {
		t.Errorf("unexpected sparkline %q", got)
	}
	if got := []rune(Sparkline([]float64{1, 2, 3, 4, 5}, 2)); len(got) != 2 {
		t.Errorf("expected 2 runes, got %d", len(got))
	}
	if got := Sparkline(nil, 3); got != "───" {
		t.Errorf("unexpected empty sparkline %q", got)
	}
}

func TestPlot(t *testing.T) {
	if Plot(nil, "empty", 20, 5) != "" {
		t.Error("expected empty plot for no data")
	}
	out := Plot([]float64{0, 1, 0, 1}, "height", 20, 5)
	if !strings.Contains(out, "height") {
		t.Errorf("caption missing from plot:\n%s", out)
	}
}
