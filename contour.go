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

// Package contour extracts iso-value lines from rectangular grids of
// scalar samples.  For each requested level the generator walks the
// grid cell by cell (marching squares), resolves saddle cells using the
// corner-average rule, and stitches the per-cell segments into
// polylines in world coordinates.
package contour

import (
	"errors"

	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// ErrInvalidInput indicates malformed or inconsistent input: grid and
// axis dimensions that do not match, a non-positive contour interval,
// an empty or unparsable level set, or a grid too small to contour.
// It is always reported before any tracing starts.
var ErrInvalidInput = errors.New("invalid input")

// ErrEmptyData indicates a well-formed grid that contains no usable
// samples (every sample masked or NaN), so that no interval levels can
// be derived from it.
var ErrEmptyData = errors.New("no unmasked data")

// Polyline is a single extracted contour line.  Points are in world
// coordinates, ordered along the line, with consecutive points
// distinct.  A polyline has at least two points.
type Polyline struct {
	// Points is the ordered vertex list.  For a closed line the first
	// and last point are equal.
	Points []vec.Vec2

	// Level is the iso-value this line belongs to.
	Level float64

	// LevelIndex is the position of Level in the resolved level set.
	LevelIndex int
}

// Closed reports whether the polyline is a closed loop.
func (l *Polyline) Closed() bool {
	n := len(l.Points)
	return n > 2 && l.Points[0] == l.Points[n-1]
}

// Path converts the polyline to a path for rendering.
// Closed loops become closed subpaths.
func (l *Polyline) Path() *path.Data {
	p := &path.Data{}
	n := len(l.Points)
	if n == 0 {
		return p
	}
	closed := l.Closed()
	if closed {
		n--
	}
	p.MoveTo(l.Points[0])
	for _, pt := range l.Points[1:n] {
		p.LineTo(pt)
	}
	if closed {
		p.Close()
	}
	return p
}

// LevelOutcome records the per-level result of a generator run.
// A level that could not be traced carries a non-nil Err; the
// remaining levels are unaffected.
type LevelOutcome struct {
	Level   float64 // the iso-value
	Index   int     // position in the resolved level set
	Lines   int     // number of polylines emitted for this level
	Dropped int     // degenerate polylines discarded during stitching
	Err     error   // nil unless tracing this level failed
}

// Result is the aggregate output of a generator run.
type Result struct {
	// Lines holds all extracted polylines, grouped by level in level
	// order.
	Lines []Polyline

	// Levels holds one outcome per resolved level, in level order.
	Levels []LevelOutcome
}

// LinesAt returns the polylines belonging to the level with the given
// index.  The returned slice shares storage with Result.Lines.
func (r *Result) LinesAt(levelIndex int) []Polyline {
	lo := 0
	for lo < len(r.Lines) && r.Lines[lo].LevelIndex < levelIndex {
		lo++
	}
	hi := lo
	for hi < len(r.Lines) && r.Lines[hi].LevelIndex == levelIndex {
		hi++
	}
	return r.Lines[lo:hi]
}

// Bounds returns the bounding box of all polylines in world
// coordinates.  For an empty result the zero rectangle is returned.
func (r *Result) Bounds() rect.Rect {
	var b rect.Rect
	first := true
	for i := range r.Lines {
		for _, p := range r.Lines[i].Points {
			if first {
				b = rect.Rect{LLx: p.X, LLy: p.Y, URx: p.X, URy: p.Y}
				first = false
				continue
			}
			b.LLx = min(b.LLx, p.X)
			b.LLy = min(b.LLy, p.Y)
			b.URx = max(b.URx, p.X)
			b.URy = max(b.URy, p.Y)
		}
	}
	return b
}
