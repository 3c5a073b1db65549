// Package wheel draws the steering wheel glyph and rotates it to the current
// steering angle.
package wheel

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/vector"
)

// DefaultRadius is the ring radius in pixels.
const DefaultRadius = 80

const (
	ringWidth  = 8
	spokeWidth = 5
	// canvasScale leaves room around the ring so rotation never clips it.
	canvasScale = 1.5
	// kappa places cubic control points for a quarter circle.
	kappa = 0.5522847498
)

var (
	ringColor  = color.RGBA{255, 255, 255, 255}
	hubColor   = color.RGBA{100, 100, 100, 255}
	spokeColor = color.RGBA{200, 200, 200, 255}
)

// CanvasSize returns the side of the square canvas for a wheel of the given
// radius.
func CanvasSize(radius int) int {
	return int(math.Round(2 * float64(radius) * canvasScale))
}

// Render returns a new transparent canvas holding the wheel rotated by
// angleDeg degrees about the canvas centre. Positive angles turn the wheel
// counter-clockwise on screen. It panics if radius is not positive.
func Render(radius int, angleDeg float64) *image.RGBA {
	tmpl := Template(radius)
	out := image.NewRGBA(tmpl.Bounds())
	rotate(out, tmpl, angleDeg)
	return out
}

// Template returns the unrotated wheel for radius. It panics if radius is
// not positive.
func Template(radius int) *image.RGBA {
	if radius <= 0 {
		panic("wheel: radius must be positive")
	}

	size := CanvasSize(radius)
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	// Shapes are centred on the middle pixel, not the middle of the canvas.
	c := float32(size/2) + 0.5
	r := float32(radius)
	hub := float32(radius / 4)

	z := vector.NewRasterizer(size, size)

	addCircle(z, c, c, r+ringWidth/2, true)
	if inner := r - ringWidth/2; inner > 0 {
		addCircle(z, c, c, inner, false)
	}
	fill(z, img, ringColor)

	if hub > 0 {
		addCircle(z, c, c, hub, true)
		fill(z, img, hubColor)
	}

	addLine(z, c-r, c, c-hub, c, spokeWidth)
	addLine(z, c+r, c, c+hub, c, spokeWidth)
	addLine(z, c, c-r, c, c-hub, spokeWidth)
	fill(z, img, spokeColor)

	return img
}

// Renderer renders a wheel of fixed radius, keeping the unrotated template
// and reusing one output canvas between calls.
type Renderer struct {
	radius   int
	template *image.RGBA
	out      *image.RGBA
}

// NewRenderer creates a Renderer for radius. It panics if radius is not
// positive.
func NewRenderer(radius int) *Renderer {
	tmpl := Template(radius)
	return &Renderer{
		radius:   radius,
		template: tmpl,
		out:      image.NewRGBA(tmpl.Bounds()),
	}
}

// Radius returns the wheel radius.
func (r *Renderer) Radius() int {
	return r.radius
}

// Size returns the canvas side in pixels.
func (r *Renderer) Size() int {
	return r.template.Bounds().Dx()
}

// Render rotates the template by angleDeg. The returned image is owned by
// the Renderer and is overwritten by the next call.
func (r *Renderer) Render(angleDeg float64) *image.RGBA {
	rotate(r.out, r.template, angleDeg)
	return r.out
}

// rotate clears dst and draws src rotated about its middle pixel, using the
// same affine as OpenCV's getRotationMatrix2D at unit scale.
func rotate(dst, src *image.RGBA, angleDeg float64) {
	clear(dst.Pix)

	a := math.Remainder(angleDeg, 360)
	if a == -180 {
		a = 180
	}
	if a == 0 {
		copy(dst.Pix, src.Pix)
		return
	}

	rad := a * math.Pi / 180
	alpha, beta := math.Cos(rad), math.Sin(rad)

	size := src.Bounds().Dx()
	c := float64(size/2) + 0.5

	m := f64.Aff3{
		alpha, beta, (1-alpha)*c - beta*c,
		-beta, alpha, beta*c + (1-alpha)*c,
	}
	draw.BiLinear.Transform(dst, m, src, src.Bounds(), draw.Src, nil)
}

func fill(z *vector.Rasterizer, dst *image.RGBA, c color.RGBA) {
	z.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
	z.Reset(dst.Bounds().Dx(), dst.Bounds().Dy())
}

// addCircle appends a closed circle. Paths of opposite winding cancel, which
// is how the ring's hole is cut.
func addCircle(z *vector.Rasterizer, cx, cy, r float32, clockwise bool) {
	k := r * kappa
	z.MoveTo(cx+r, cy)
	if clockwise {
		z.CubeTo(cx+r, cy+k, cx+k, cy+r, cx, cy+r)
		z.CubeTo(cx-k, cy+r, cx-r, cy+k, cx-r, cy)
		z.CubeTo(cx-r, cy-k, cx-k, cy-r, cx, cy-r)
		z.CubeTo(cx+k, cy-r, cx+r, cy-k, cx+r, cy)
	} else {
		z.CubeTo(cx+r, cy-k, cx+k, cy-r, cx, cy-r)
		z.CubeTo(cx-k, cy-r, cx-r, cy-k, cx-r, cy)
		z.CubeTo(cx-r, cy+k, cx-k, cy+r, cx, cy+r)
		z.CubeTo(cx+k, cy+r, cx+r, cy+k, cx+r, cy)
	}
	z.ClosePath()
}

// addLine appends a straight stroke of the given width with square ends.
func addLine(z *vector.Rasterizer, x0, y0, x1, y1, width float32) {
	dx, dy := x1-x0, y1-y0
	n := float32(math.Hypot(float64(dx), float64(dy)))
	if n == 0 {
		return
	}
	px, py := -dy/n*width/2, dx/n*width/2

	z.MoveTo(x0+px, y0+py)
	z.LineTo(x1+px, y1+py)
	z.LineTo(x1-px, y1-py)
	z.LineTo(x0-px, y0-py)
	z.ClosePath()
}
