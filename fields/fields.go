// Package fields provides synthetic scalar fields with known contour
// structure, shared by the tests, the benchmarks and the export tool.
package fields

import (
	"math"

	"seehuhn.de/go/contour"
	"seehuhn.de/go/geom/rect"
)

// Field is one synthetic input for the contour generator.
type Field struct {
	Name   string // lowercase a-z and _ only
	Grid   *contour.Grid
	Axes   contour.Axes
	Levels contour.LevelSet
}

// All contains the fields grouped by category.
var All = map[string][]Field{
	"analytic": {
		Plane(10, 10),
		Peak(33),
		Saddle(41),
		Ripple(65),
	},
	"masked": {
		HoledPeak(33),
		Checkerboard(16),
	},
}

// UnitAxes returns axes for a width x height grid where sample (i, j)
// sits at world coordinates (i, j): x increasing, y increasing.
func UnitAxes(width, height int) contour.Axes {
	x := make([]float64, width)
	for i := range x {
		x[i] = float64(i)
	}
	y := make([]float64, height)
	for i := range y {
		y[i] = float64(i)
	}
	return contour.Axes{X: x, Y: y}
}

// sample fills a width x height grid from f(ix, iy).
func sample(width, height int, f func(ix, iy int) float64) *contour.Grid {
	data := make([]float64, width*height)
	for iy := range height {
		for ix := range width {
			data[iy*width+ix] = f(ix, iy)
		}
	}
	return contour.NewGrid(width, height, data)
}

// Plane is the linear field f(x, y) = x + y on a unit grid.  Its
// contours are exact diagonal lines x + y = level.
func Plane(width, height int) Field {
	return Field{
		Name:   "plane",
		Grid:   sample(width, height, func(ix, iy int) float64 { return float64(ix + iy) }),
		Axes:   UnitAxes(width, height),
		Levels: contour.Levels(5, 10, 15),
	}
}

// Peak is a single radially symmetric bump of height 100 centred on an
// n x n grid, zero at the border.  Every level strictly between 0 and
// 100 is one closed loop.
func Peak(n int) Field {
	c := float64(n-1) / 2
	return Field{
		Name: "peak",
		Grid: sample(n, n, func(ix, iy int) float64 {
			dx := (float64(ix) - c) / c
			dy := (float64(iy) - c) / c
			r2 := dx*dx + dy*dy
			return 100 * math.Max(0, 1-r2)
		}),
		Axes:   UnitAxes(n, n),
		Levels: contour.Levels(25, 50, 75),
	}
}

// Saddle is the field f(x, y) = x*y centred on an n x n grid, the
// canonical source of ambiguous marching-squares cells.
func Saddle(n int) Field {
	c := float64(n-1) / 2
	return Field{
		Name: "saddle",
		Grid: sample(n, n, func(ix, iy int) float64 {
			return (float64(ix) - c) * (float64(iy) - c)
		}),
		Axes:   UnitAxes(n, n),
		Levels: contour.Intervals(25),
	}
}

// Ripple is a product of sines with many nested closed contours.
func Ripple(n int) Field {
	return Field{
		Name: "ripple",
		Grid: sample(n, n, func(ix, iy int) float64 {
			u := float64(ix) / float64(n-1) * 4 * math.Pi
			v := float64(iy) / float64(n-1) * 4 * math.Pi
			return math.Sin(u) * math.Sin(v)
		}),
		Axes:   UnitAxes(n, n),
		Levels: contour.Levels(-0.5, 0, 0.5),
	}
}

// HoledPeak is Peak with a no-data disc punched out right of the
// centre.  The disc cuts across the inner contour rings, so the mask
// turns them into open lines.
func HoledPeak(n int) Field {
	f := Peak(n)
	f.Name = "holed_peak"
	c := float64(n-1) / 2
	hole := c / 3
	mask := make([]bool, n*n)
	for iy := range n {
		for ix := range n {
			dx := float64(ix) - 1.5*c
			dy := float64(iy) - c
			if dx*dx+dy*dy < hole*hole {
				mask[iy*n+ix] = true
			}
		}
	}
	f.Grid.Mask = mask
	return f
}

// Checkerboard masks every second sample, leaving no cell with four
// usable corners.  Contouring it yields no lines at all.
func Checkerboard(n int) Field {
	f := Field{
		Name: "checkerboard",
		Grid: sample(n, n, func(ix, iy int) float64 {
			return float64(ix * iy)
		}),
		Axes:   UnitAxes(n, n),
		Levels: contour.Intervals(10),
	}
	mask := make([]bool, n*n)
	for i := range mask {
		if i%2 == 0 {
			mask[i] = true
		}
	}
	f.Grid.Mask = mask
	return f
}

// Terrain is a deterministic pseudo-random height field built from a
// small sum of sine waves, on axes derived from the given extent.  It
// is the benchmark workload.
func Terrain(width, height int, extent rect.Rect) Field {
	return Field{
		Name: "terrain",
		Grid: sample(width, height, func(ix, iy int) float64 {
			u := float64(ix) / float64(width-1)
			v := float64(iy) / float64(height-1)
			return 500 +
				200*math.Sin(3.1*u+0.7)*math.Cos(2.3*v) +
				120*math.Sin(7.9*u*v+1.3) +
				60*math.Cos(12.5*u-4.2*v)
		}),
		Axes:   contour.AxesFromExtent(extent, width, height),
		Levels: contour.Intervals(50),
	}
}
