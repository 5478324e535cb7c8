package viz

import (
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/shape"
)

// Braille cells hold 2x4 dots, offset from U+2800:
//
//	1 4
//	2 5
//	3 6
//	7 8
const brailleBlank = 0x2800

var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Dots returns the canvas size in sub-pixels.
func (c *Canvas) Dots() (int, int) {
	return c.Width * 2, c.Height * 4
}

// Set lights the sub-pixel (x, y); out of range dots are dropped.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// IsSet reports whether the sub-pixel (x, y) is lit.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws with Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Projection maps world x/y onto canvas dots, looking down -Z. Left and
// Bottom are the world coordinates of the lower left dot.
type Projection struct {
	Left, Bottom float64
	Scale        float64 // dots per metre
}

// FitProjection centres x=0 on the canvas with the ground line near the
// bottom, showing span metres across.
func FitProjection(c *Canvas, span float64) Projection {
	w, _ := c.Dots()
	scale := float64(w) / span
	return Projection{Left: -span / 2, Bottom: -0.5, Scale: scale}
}

func (p Projection) Dot(c *Canvas, v mgl64.Vec3) (int, int) {
	_, h := c.Dots()
	x := int(math.Round((v.X() - p.Left) * p.Scale))
	y := h - 1 - int(math.Round((v.Y()-p.Bottom)*p.Scale))
	return x, y
}

// World is the inverse of Dot at the centre of the dot.
func (p Projection) World(c *Canvas, x, y int) mgl64.Vec3 {
	_, h := c.Dots()
	return mgl64.Vec3{
		float64(x)/p.Scale + p.Left,
		float64(h-1-y)/p.Scale + p.Bottom,
		0,
	}
}

func (p Projection) line(c *Canvas, a, b mgl64.Vec3) {
	x0, y0 := p.Dot(c, a)
	x1, y1 := p.Dot(c, b)
	c.DrawLine(x0, y0, x1, y1)
}

// DrawBody outlines b: box edges, a sphere silhouette, or the visible trace
// of a plane.
func (p Projection) DrawBody(c *Canvas, b *body.Body) {
	switch b.Shape.Kind {
	case shape.KindBox:
		corners := b.Shape.Corners()
		for i := 0; i < 8; i++ {
			for bit := 1; bit < 8; bit <<= 1 {
				if i&bit == 0 {
					p.line(c, b.PointToWorld(corners[i]), b.PointToWorld(corners[i|bit]))
				}
			}
		}
	case shape.KindSphere:
		const segments = 24
		r := b.Shape.Radius
		prev := b.Position.Add(mgl64.Vec3{r, 0, 0})
		for i := 1; i <= segments; i++ {
			a := 2 * math.Pi * float64(i) / segments
			next := b.Position.Add(mgl64.Vec3{r * math.Cos(a), r * math.Sin(a), 0})
			p.line(c, prev, next)
			prev = next
		}
		p.line(c, b.Position, b.PointToWorld(mgl64.Vec3{r, 0, 0}))
	case shape.KindPlane:
		n := b.Orientation.Rotate(b.Shape.Normal)
		dir := mgl64.Vec3{-n.Y(), n.X(), 0}
		if dir.Len() < 1e-9 {
			return
		}
		w, _ := c.Dots()
		reach := float64(w) / p.Scale
		dir = dir.Normalize().Mul(2 * reach)
		p.line(c, b.Position.Sub(dir), b.Position.Add(dir))
	}
}

// Cursor draws a small cross at v.
func (p Projection) Cursor(c *Canvas, v mgl64.Vec3) {
	x, y := p.Dot(c, v)
	c.DrawLine(x-2, y, x+2, y)
	c.DrawLine(x, y-2, x, y+2)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
