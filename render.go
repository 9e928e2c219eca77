// seehuhn.de/go/contour - contour line extraction from gridded data
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package contour

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf/graphics"
)

// Renderer strokes contour polylines into images, mainly for visual
// inspection of generator output.  Create one instance and reuse it;
// the backing rasterizer is kept between calls.
//
// A Renderer is not safe for concurrent use.
type Renderer struct {
	// CTM transforms from world coordinates to pixel coordinates.
	CTM matrix.Matrix

	// Width is the stroke width in pixels.  Must be positive.
	Width float64

	// Cap sets the style for line endpoints (butt, round, or square).
	Cap graphics.LineCapStyle

	// Join sets the style for corners (miter, round, or bevel).
	Join graphics.LineJoinStyle

	// MiterLimit caps miter join length.  Must be at least 1.0.
	MiterLimit float64

	// Color is the stroke color.
	Color color.Color

	ras *vector.Rasterizer
}

// NewRenderer returns a Renderer with identity CTM and PDF default
// values for the stroke parameters.
func NewRenderer() *Renderer {
	return &Renderer{
		CTM:        matrix.Identity,
		Width:      1.0,
		Cap:        graphics.LineCapButt,
		Join:       graphics.LineJoinMiter,
		MiterLimit: defaultMiterLimit,
		Color:      color.Black,
	}
}

// FitCTM returns a matrix mapping the world rectangle onto a
// width x height pixel canvas, preserving aspect ratio and flipping y
// so that larger world y is further up in the image.  A degenerate
// world rectangle yields the identity matrix.
func FitCTM(world rect.Rect, width, height int) matrix.Matrix {
	dx := world.URx - world.LLx
	dy := world.URy - world.LLy
	if dx <= 0 || dy <= 0 {
		return matrix.Identity
	}
	scale := min(float64(width)/dx, float64(height)/dy)
	// center the scaled extent on the canvas
	tx := (float64(width) - scale*dx) / 2
	ty := (float64(height) - scale*dy) / 2
	return matrix.Matrix{
		scale, 0,
		0, -scale,
		tx - scale*world.LLx,
		ty + scale*world.URy,
	}
}

// Draw strokes all polylines of result into dst, compositing the
// stroke color over the existing contents.
func (r *Renderer) Draw(result *Result, dst draw.Image) {
	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()
	if r.ras == nil {
		r.ras = vector.NewRasterizer(w, h)
	} else {
		r.ras.Reset(w, h)
	}

	for i := range result.Lines {
		r.strokePolyline(&result.Lines[i])
	}

	r.ras.Draw(dst, b, image.NewUniform(r.Color), image.Point{})
}

// strokePolyline emits the stroke outline of one polyline into the
// rasterizer: one quad per segment, plus join and cap geometry.
// Overlapping pieces saturate rather than accumulate, so the seams
// between them are invisible.
func (r *Renderer) strokePolyline(l *Polyline) {
	pts := l.Points
	if len(pts) < 2 {
		return
	}
	d := r.Width / 2
	closed := l.Closed()

	for i := 0; i+1 < len(pts); i++ {
		a := r.transform(pts[i])
		b := r.transform(pts[i+1])
		t := b.Sub(a)
		length := t.Length()
		if length < zeroLengthThreshold {
			continue
		}
		t = t.Mul(1 / length)
		n := vec.Vec2{X: -t.Y, Y: t.X}

		// segment body
		r.moveTo(a.Add(n.Mul(d)))
		r.lineTo(b.Add(n.Mul(d)))
		r.lineTo(b.Sub(n.Mul(d)))
		r.lineTo(a.Sub(n.Mul(d)))
		r.ras.ClosePath()

		// join towards the next segment (for a loop the closing
		// vertex joins the last segment back to the first)
		if i+2 < len(pts) {
			r.join(b, pts[i+1], pts[i+2], t, n, d)
		} else if closed {
			r.join(b, pts[0], pts[1], t, n, d)
		}
	}

	if !closed {
		first := r.transform(pts[0])
		last := r.transform(pts[len(pts)-1])
		r.drawCap(first, direction(r.transform(pts[1]), first), d)
		r.drawCap(last, direction(r.transform(pts[len(pts)-2]), last), d)
	}
}

// join fills the outer gap at vertex b between the segment with
// tangent t1 and normal n1, and the following segment from wb to wc
// (world coordinates).
func (r *Renderer) join(b vec.Vec2, wb, wc vec.Vec2, t1, n1 vec.Vec2, d float64) {
	t2 := r.transform(wc).Sub(r.transform(wb))
	length := t2.Length()
	if length < zeroLengthThreshold {
		return
	}
	t2 = t2.Mul(1 / length)
	n2 := vec.Vec2{X: -t2.Y, Y: t2.X}

	sinTheta := t1.X*t2.Y - t1.Y*t2.X
	if math.Abs(sinTheta) < collinearityThreshold {
		return // nearly collinear, the quads already overlap
	}

	if r.Join == graphics.LineJoinRound {
		r.circle(b, d)
		return
	}

	// The outer side is -N for a left turn and +N for a right turn.
	s := 1.0
	if sinTheta > 0 {
		s = -1
	}
	p1 := b.Add(n1.Mul(s * d))
	p2 := b.Add(n2.Mul(s * d))

	useMiter := false
	var apex vec.Vec2
	if r.Join == graphics.LineJoinMiter {
		// The apex sits on the angle bisector, d/cos(theta/2) from
		// the vertex; past the miter limit we fall back to a bevel.
		m := n1.Add(n2)
		mLen := m.Length()
		cosHalf := math.Sqrt(max(0, (1+n1.X*n2.X+n1.Y*n2.Y)/2))
		if mLen > zeroLengthThreshold && cosHalf > 0 && 1/cosHalf <= r.MiterLimit {
			apex = b.Add(m.Mul(s * d / (mLen * cosHalf)))
			useMiter = true
		}
	}

	r.moveTo(b)
	r.lineTo(p1)
	if useMiter {
		r.lineTo(apex)
	}
	r.lineTo(p2)
	r.ras.ClosePath()
}

// drawCap draws the line cap at endpoint p, with t the outward unit
// tangent (pointing away from the line).
func (r *Renderer) drawCap(p, t vec.Vec2, d float64) {
	switch r.Cap {
	case graphics.LineCapRound:
		r.circle(p, d)
	case graphics.LineCapSquare:
		n := vec.Vec2{X: -t.Y, Y: t.X}
		e := p.Add(t.Mul(d))
		r.moveTo(p.Add(n.Mul(d)))
		r.lineTo(e.Add(n.Mul(d)))
		r.lineTo(e.Sub(n.Mul(d)))
		r.lineTo(p.Sub(n.Mul(d)))
		r.ras.ClosePath()
	}
	// LineCapButt: nothing to add
}

// circle fills a circle of radius d around p, approximated by four
// cubic Bézier arcs.
func (r *Renderer) circle(p vec.Vec2, d float64) {
	// Magic number for circular arc approximation with cubic Bézier
	const k = 0.5522847498
	kd := k * d

	cx, cy := float32(p.X), float32(p.Y)
	rad, krad := float32(d), float32(kd)

	r.ras.MoveTo(cx, cy-rad)
	r.ras.CubeTo(cx+krad, cy-rad, cx+rad, cy-krad, cx+rad, cy)
	r.ras.CubeTo(cx+rad, cy+krad, cx+krad, cy+rad, cx, cy+rad)
	r.ras.CubeTo(cx-krad, cy+rad, cx-rad, cy+krad, cx-rad, cy)
	r.ras.CubeTo(cx-rad, cy-krad, cx-krad, cy-rad, cx, cy-rad)
	r.ras.ClosePath()
}

// transform applies the CTM to a world point.
func (r *Renderer) transform(p vec.Vec2) vec.Vec2 {
	return vec.Vec2{
		X: r.CTM[0]*p.X + r.CTM[2]*p.Y + r.CTM[4],
		Y: r.CTM[1]*p.X + r.CTM[3]*p.Y + r.CTM[5],
	}
}

func (r *Renderer) moveTo(p vec.Vec2) {
	r.ras.MoveTo(float32(p.X), float32(p.Y))
}

func (r *Renderer) lineTo(p vec.Vec2) {
	r.ras.LineTo(float32(p.X), float32(p.Y))
}

// direction returns the unit vector from a towards b, or the x unit
// vector if the points coincide.
func direction(a, b vec.Vec2) vec.Vec2 {
	d := b.Sub(a)
	length := d.Length()
	if length < zeroLengthThreshold {
		return vec.Vec2{X: 1}
	}
	return d.Mul(1 / length)
}

// Default values and numerical tolerances for the renderer.
const (
	// defaultMiterLimit is the default miter limit, matching
	// PDF/PostScript.
	defaultMiterLimit = 10.0

	// zeroLengthThreshold is the minimum length for a stroke segment.
	// Segments shorter than this are skipped.
	zeroLengthThreshold = 1e-10

	// collinearityThreshold is used to detect nearly collinear
	// segments where no join is needed.
	collinearityThreshold = 1e-6
)
