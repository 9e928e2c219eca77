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
	"errors"
	"math"

	"seehuhn.de/go/geom/vec"
)

// errNonFinite is recorded in a LevelOutcome when interpolation for a
// level produced NaN or infinite coordinates (for example from
// infinite samples in the grid).  The level is skipped; other levels
// are unaffected.
var errNonFinite = errors.New("non-finite contour geometry")

// A tracer extracts the contour lines for one level at a time.
// Internal buffers grow as needed but never shrink, so reusing one
// tracer across levels avoids most allocations.
//
// A tracer is not safe for concurrent use; the generator creates one
// tracer per worker.
type tracer struct {
	grid  *Grid
	axes  Axes
	level float64

	// Crossing points are identified by the grid edge they sit on, so
	// two cells sharing an edge reference the same point by
	// construction and stitching needs no floating-point comparisons.
	points   []vec.Vec2       // one world point per crossed edge
	pointIdx map[uint64]int32 // edge key -> index into points
	segs     [][2]int32       // per-cell segments (point index pairs)

	// Stitching state (see stitch.go)
	adj     [][2]int32 // per point: up to two incident segments
	segUsed []bool
	chain   []int32 // forward part of the chain under construction
	back    []int32 // backward extension, in reverse order

	nonFinite bool // a crossing point came out NaN or infinite
}

func newTracer(grid *Grid, axes Axes) *tracer {
	return &tracer{
		grid:     grid,
		axes:     axes,
		pointIdx: make(map[uint64]int32),
	}
}

// Crossing points are keyed by where they sit on the grid: on the
// horizontal edge from (x, y) to (x+1, y), on the vertical edge from
// (x, y) to (x, y+1), or exactly on the grid node (x, y).  A crossing
// whose interpolated position lands on an edge endpoint is keyed by
// that node, so the four cells meeting there agree on its identity.
const (
	keyHorizontal = iota
	keyVertical
	keyNode
)

func (t *tracer) horizontalEdge(x, y int) uint64 {
	return uint64(y*t.grid.Width+x)<<2 | keyHorizontal
}

func (t *tracer) verticalEdge(x, y int) uint64 {
	return uint64(y*t.grid.Width+x)<<2 | keyVertical
}

func (t *tracer) node(x, y int) uint64 {
	return uint64(y*t.grid.Width+x)<<2 | keyNode
}

// trace extracts all contour lines for the given level.
// The returned polylines reference freshly allocated point slices;
// everything else in the tracer is reused between calls.
func (t *tracer) trace(level float64, levelIndex int) ([]Polyline, int, error) {
	t.level = level
	t.points = t.points[:0]
	t.segs = t.segs[:0]
	t.nonFinite = false
	clear(t.pointIdx)

	g := t.grid
	for iy := 0; iy < g.Height-1; iy++ {
		for ix := 0; ix < g.Width-1; ix++ {
			t.cell(ix, iy)
		}
	}

	if t.nonFinite {
		return nil, 0, errNonFinite
	}
	lines, dropped := t.stitch(level, levelIndex)
	return lines, dropped, nil
}

// cell applies marching squares to the cell whose top-left corner is
// (ix, iy), appending zero, one or two segments.
func (t *tracer) cell(ix, iy int) {
	g := t.grid
	if g.masked(ix, iy) || g.masked(ix+1, iy) ||
		g.masked(ix, iy+1) || g.masked(ix+1, iy+1) {
		// No contours through missing data.
		return
	}

	z := t.level
	v00 := g.At(ix, iy)     // top left
	v10 := g.At(ix+1, iy)   // top right
	v01 := g.At(ix, iy+1)   // bottom left
	v11 := g.At(ix+1, iy+1) // bottom right

	// A corner counts as inside when its value is >= z.  Using the
	// same closed side everywhere means a level exactly equal to a
	// corner value is counted once, and a plateau cell at the level
	// has no crossings at all.
	var idx int
	if v00 >= z {
		idx |= 1
	}
	if v10 >= z {
		idx |= 2
	}
	if v11 >= z {
		idx |= 4
	}
	if v01 >= z {
		idx |= 8
	}

	top := t.horizontalEdge(ix, iy)
	bottom := t.horizontalEdge(ix, iy+1)
	left := t.verticalEdge(ix, iy)
	right := t.verticalEdge(ix+1, iy)

	switch idx {
	case 0, 15:
		// all corners on the same side

	case 1, 14: // top left corner isolated
		t.segment(top, left)
	case 2, 13: // top right corner isolated
		t.segment(top, right)
	case 4, 11: // bottom right corner isolated
		t.segment(right, bottom)
	case 8, 7: // bottom left corner isolated
		t.segment(left, bottom)

	case 3, 12: // horizontal split
		t.segment(left, right)
	case 6, 9: // vertical split
		t.segment(top, bottom)

	case 5, 10:
		// Saddle: both diagonals are on the same side of the level
		// and all four edges cross.  The corner average decides which
		// diagonal the inside region connects along; the two chosen
		// segments never cross inside the cell.
		avg := (v00 + v10 + v01 + v11) / 4
		tlInside := idx == 5 // whether the top-left corner is inside
		if (avg >= z) == tlInside {
			t.segment(top, right)
			t.segment(left, bottom)
		} else {
			t.segment(top, left)
			t.segment(right, bottom)
		}
	}
}

// segment records one line segment between the crossing points on two
// cell edges.  A segment whose crossings collapse onto the same grid
// node has zero length and is not recorded.
func (t *tracer) segment(edgeA, edgeB uint64) {
	a := t.point(edgeA)
	b := t.point(edgeB)
	if a == b {
		return
	}
	t.segs = append(t.segs, [2]int32{a, b})
}

// point returns the index of the crossing point on the given edge,
// interpolating it on first use.  Crossings at an edge endpoint are
// rekeyed to the grid node there.
func (t *tracer) point(edge uint64) int32 {
	if i, ok := t.pointIdx[edge]; ok {
		return i
	}

	g := t.grid
	cell := int(edge >> 2)
	x := cell % g.Width
	y := cell / g.Width

	var p vec.Vec2
	key := edge
	switch edge & 3 {
	case keyVertical:
		v0 := g.At(x, y)
		v1 := g.At(x, y+1)
		switch u := crossingOffset(t.level, v0, v1); u {
		case 0:
			key = t.node(x, y)
		case 1:
			key = t.node(x, y+1)
		default:
			p = vec.Vec2{
				X: t.axes.X[x],
				Y: t.axes.Y[y] + u*(t.axes.Y[y+1]-t.axes.Y[y]),
			}
		}
	case keyHorizontal:
		v0 := g.At(x, y)
		v1 := g.At(x+1, y)
		switch u := crossingOffset(t.level, v0, v1); u {
		case 0:
			key = t.node(x, y)
		case 1:
			key = t.node(x+1, y)
		default:
			p = vec.Vec2{
				X: t.axes.X[x] + u*(t.axes.X[x+1]-t.axes.X[x]),
				Y: t.axes.Y[y],
			}
		}
	}

	if key != edge {
		i := t.nodePoint(key)
		t.pointIdx[edge] = i
		return i
	}

	if math.IsNaN(p.X) || math.IsInf(p.X, 0) ||
		math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
		t.nonFinite = true
	}

	i := int32(len(t.points))
	t.points = append(t.points, p)
	t.pointIdx[edge] = i
	return i
}

// nodePoint returns the index of the point sitting exactly on a grid
// node.
func (t *tracer) nodePoint(key uint64) int32 {
	if i, ok := t.pointIdx[key]; ok {
		return i
	}
	cell := int(key >> 2)
	x := cell % t.grid.Width
	y := cell / t.grid.Width
	p := vec.Vec2{X: t.axes.X[x], Y: t.axes.Y[y]}
	if math.IsNaN(p.X) || math.IsInf(p.X, 0) ||
		math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
		t.nonFinite = true
	}
	i := int32(len(t.points))
	t.points = append(t.points, p)
	t.pointIdx[key] = i
	return i
}

// crossingOffset returns the position of the level crossing between
// two corner values as a fraction in [0, 1] of the edge length.
// The corners are on opposite sides of z, so v0 != v1.
func crossingOffset(z, v0, v1 float64) float64 {
	u := (z - v0) / (v1 - v0)
	if u < 0 {
		u = 0
	} else if u > 1 {
		u = 1
	}
	return u
}
