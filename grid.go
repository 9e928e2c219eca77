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
	"fmt"
	"math"

	"seehuhn.de/go/geom/rect"
)

// Grid is a rectangular field of scalar samples in row-major order.
// Sample (ix, iy) is stored at Data[iy*Width+ix].
type Grid struct {
	Width  int
	Height int

	// Data holds Width*Height samples in row-major order.
	Data []float64

	// Mask marks no-data samples (true = missing).  Either nil, or the
	// same length as Data.
	Mask []bool
}

// NewGrid creates a grid without a no-data mask.
// The data slice is used directly, not copied.
func NewGrid(width, height int, data []float64) *Grid {
	return &Grid{Width: width, Height: height, Data: data}
}

// At returns the sample at column ix, row iy.
func (g *Grid) At(ix, iy int) float64 {
	return g.Data[iy*g.Width+ix]
}

// masked reports whether the sample at (ix, iy) is unusable, either
// because the mask marks it as no-data or because it is NaN.
func (g *Grid) masked(ix, iy int) bool {
	idx := iy*g.Width + ix
	if g.Mask != nil && g.Mask[idx] {
		return true
	}
	return math.IsNaN(g.Data[idx])
}

// MinMax returns the smallest and largest usable sample.
// ok is false if every sample is masked or NaN.
func (g *Grid) MinMax() (vmin, vmax float64, ok bool) {
	for i, v := range g.Data {
		if g.Mask != nil && g.Mask[i] {
			continue
		}
		if math.IsNaN(v) {
			continue
		}
		if !ok {
			vmin, vmax = v, v
			ok = true
			continue
		}
		vmin = min(vmin, v)
		vmax = max(vmax, v)
	}
	return vmin, vmax, ok
}

// validate checks the structural invariants of the grid.
func (g *Grid) validate() error {
	if g.Width < 2 || g.Height < 2 {
		return fmt.Errorf("%w: grid is %dx%d, need at least 2x2",
			ErrInvalidInput, g.Width, g.Height)
	}
	if len(g.Data) != g.Width*g.Height {
		return fmt.Errorf("%w: %d samples for a %dx%d grid",
			ErrInvalidInput, len(g.Data), g.Width, g.Height)
	}
	if g.Mask != nil && len(g.Mask) != len(g.Data) {
		return fmt.Errorf("%w: mask length %d does not match %d samples",
			ErrInvalidInput, len(g.Mask), len(g.Data))
	}
	return nil
}

// Axes maps grid indices to world coordinates.  X has one entry per
// grid column, Y one entry per grid row.  Each axis must be strictly
// monotonic (increasing or decreasing).
type Axes struct {
	X []float64
	Y []float64
}

// AxesFromExtent derives axes for a width x height grid covering the
// given world extent, using the pixel-center convention: the first
// x coordinate is LLx plus half the x resolution, and x increases with
// the column index.  Rows run top to bottom, so the first y coordinate
// is URy minus half the y resolution and y decreases with the row
// index.
func AxesFromExtent(extent rect.Rect, width, height int) Axes {
	xRes := (extent.URx - extent.LLx) / float64(width)
	yRes := (extent.URy - extent.LLy) / float64(height)

	x := make([]float64, width)
	for i := range x {
		x[i] = extent.LLx + (float64(i)+0.5)*xRes
	}
	y := make([]float64, height)
	for i := range y {
		y[i] = extent.URy - (float64(i)+0.5)*yRes
	}
	return Axes{X: x, Y: y}
}

// validate checks the axes against the grid dimensions.
func (a Axes) validate(g *Grid) error {
	if len(a.X) != g.Width {
		return fmt.Errorf("%w: %d x coordinates for %d columns",
			ErrInvalidInput, len(a.X), g.Width)
	}
	if len(a.Y) != g.Height {
		return fmt.Errorf("%w: %d y coordinates for %d rows",
			ErrInvalidInput, len(a.Y), g.Height)
	}
	if !strictlyMonotonic(a.X) {
		return fmt.Errorf("%w: x axis is not strictly monotonic", ErrInvalidInput)
	}
	if !strictlyMonotonic(a.Y) {
		return fmt.Errorf("%w: y axis is not strictly monotonic", ErrInvalidInput)
	}
	return nil
}

// strictlyMonotonic reports whether vs is strictly increasing or
// strictly decreasing.  Slices of length 0 or 1 count as monotonic.
func strictlyMonotonic(vs []float64) bool {
	if len(vs) < 2 {
		return true
	}
	increasing := vs[1] > vs[0]
	for i := 1; i < len(vs); i++ {
		d := vs[i] - vs[i-1]
		if d == 0 || (d > 0) != increasing || math.IsNaN(d) {
			return false
		}
	}
	return true
}
