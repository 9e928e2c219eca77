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
	"context"
	"errors"
	"math"
	"reflect"
	"slices"
	"testing"

	"seehuhn.de/go/geom/path"
)

// unitAxes places sample (i, j) at world coordinates (i, j).
func unitAxes(width, height int) Axes {
	x := make([]float64, width)
	for i := range x {
		x[i] = float64(i)
	}
	y := make([]float64, height)
	for i := range y {
		y[i] = float64(i)
	}
	return Axes{X: x, Y: y}
}

// sampleGrid fills a width x height grid from f(ix, iy).
func sampleGrid(width, height int, f func(ix, iy int) float64) *Grid {
	data := make([]float64, width*height)
	for iy := range height {
		for ix := range width {
			data[iy*width+ix] = f(ix, iy)
		}
	}
	return NewGrid(width, height, data)
}

func generate(t *testing.T, grid *Grid, axes Axes, levels LevelSet) *Result {
	t.Helper()
	res, err := Generate(grid, axes, levels)
	if err != nil {
		t.Fatal(err)
	}
	for _, lo := range res.Levels {
		if lo.Err != nil {
			t.Fatalf("level %g: %v", lo.Level, lo.Err)
		}
	}
	return res
}

// TestPlaneDiagonals contours the plane f(x, y) = x + y.  Each level
// must come out as a single straight diagonal whose endpoints lie on
// the grid boundary and whose points satisfy x + y == level.
func TestPlaneDiagonals(t *testing.T) {
	const n = 10
	grid := sampleGrid(n, n, func(ix, iy int) float64 { return float64(ix + iy) })
	res := generate(t, grid, unitAxes(n, n), Levels(5, 10, 15))

	for i, level := range []float64{5, 10, 15} {
		lines := res.LinesAt(i)
		if len(lines) != 1 {
			t.Fatalf("level %g: got %d lines, want 1", level, len(lines))
		}
		l := lines[0]
		if l.Level != level || l.LevelIndex != i {
			t.Errorf("level %g: line tagged %g/%d", level, l.Level, l.LevelIndex)
		}

		for _, p := range l.Points {
			if math.Abs(p.X+p.Y-level) > 1e-12 {
				t.Errorf("level %g: point (%g, %g) is off the iso-line", level, p.X, p.Y)
			}
		}

		for _, end := range []int{0, len(l.Points) - 1} {
			p := l.Points[end]
			onBoundary := p.X == 0 || p.X == n-1 || p.Y == 0 || p.Y == n-1
			if !onBoundary {
				t.Errorf("level %g: endpoint (%g, %g) not on the grid boundary", level, p.X, p.Y)
			}
		}
	}
}

// TestSinglePeak contours a lone central peak.  The result must be a
// single closed loop around the centre.
func TestSinglePeak(t *testing.T) {
	grid := sampleGrid(5, 5, func(ix, iy int) float64 {
		if ix == 2 && iy == 2 {
			return 100
		}
		return 0
	})
	res := generate(t, grid, unitAxes(5, 5), Levels(50))

	if len(res.Lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(res.Lines))
	}
	l := res.Lines[0]
	if !l.Closed() {
		t.Error("contour around the peak is not closed")
	}

	// the loop must enclose the centre
	b := res.Bounds()
	if !(b.LLx < 2 && b.URx > 2 && b.LLy < 2 && b.URy > 2) {
		t.Errorf("loop bounds %v do not enclose the peak", b)
	}
	for _, p := range l.Points {
		d := math.Hypot(p.X-2, p.Y-2)
		if d == 0 || d > 1.5 {
			t.Errorf("loop point (%g, %g) is not near the peak", p.X, p.Y)
		}
	}
}

func TestPlateauAtLevel(t *testing.T) {
	grid := sampleGrid(4, 4, func(ix, iy int) float64 { return 7 })
	res := generate(t, grid, unitAxes(4, 4), Levels(7))
	if len(res.Lines) != 0 {
		t.Errorf("plateau at its own level produced %d lines, want 0", len(res.Lines))
	}
}

func TestLevelAtExtremum(t *testing.T) {
	grid := sampleGrid(5, 5, func(ix, iy int) float64 {
		if ix == 2 && iy == 2 {
			return 100
		}
		return 0
	})
	// levels at and beyond the data extrema must not fail
	res := generate(t, grid, unitAxes(5, 5), Levels(100, 200))
	for _, lo := range res.Levels {
		if lo.Err != nil {
			t.Errorf("level %g: unexpected error %v", lo.Level, lo.Err)
		}
	}
	if n := len(res.LinesAt(1)); n != 0 {
		t.Errorf("level above the maximum produced %d lines", n)
	}
}

// TestMaskedCellsExcluded checks that no contour geometry enters cells
// with a masked corner.
func TestMaskedCellsExcluded(t *testing.T) {
	const n = 4
	grid := sampleGrid(n, n, func(ix, iy int) float64 { return float64(ix + iy) })
	grid.Mask = make([]bool, n*n)
	grid.Mask[1*n+1] = true // sample (1, 1)

	res := generate(t, grid, unitAxes(n, n), Levels(2.5))

	// all four cells touching (1, 1) are skipped, so no point may lie
	// inside the square [0,2]x[0,2]
	for _, l := range res.Lines {
		for _, p := range l.Points {
			if p.X < 2 && p.Y < 2 {
				t.Errorf("point (%g, %g) inside the masked region", p.X, p.Y)
			}
		}
	}
}

func TestAllMaskedGrid(t *testing.T) {
	grid := NewGrid(2, 2, make([]float64, 4))
	grid.Mask = []bool{true, true, true, true}

	// interval mode cannot derive levels from an empty grid
	_, err := Generate(grid, unitAxes(2, 2), Intervals(1))
	if !errors.Is(err, ErrEmptyData) {
		t.Errorf("interval mode: err = %v, want ErrEmptyData", err)
	}

	// explicit levels are fine, the result is just empty
	res, err := Generate(grid, unitAxes(2, 2), Levels(0.5))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Lines) != 0 {
		t.Errorf("all-masked grid produced %d lines", len(res.Lines))
	}
}

// TestSaddleResolution pins down the corner-average rule on a single
// ambiguous cell.
func TestSaddleResolution(t *testing.T) {
	axes := unitAxes(2, 2)

	// high diagonal, level below the corner average: the inside region
	// is connected and the two segments hug the low corners
	grid := NewGrid(2, 2, []float64{1, 0, 0, 1})
	res := generate(t, grid, axes, Levels(0.4))
	if len(res.Lines) != 2 {
		t.Fatalf("saddle: got %d lines, want 2", len(res.Lines))
	}
	for _, l := range res.Lines {
		if len(l.Points) != 2 {
			t.Fatalf("saddle line has %d points, want 2", len(l.Points))
		}
	}
	if segmentsCross(res.Lines[0], res.Lines[1]) {
		t.Error("saddle segments cross inside the cell")
	}

	// same cell, level above the corner average: the pairing flips,
	// and the segments hug the high corners instead
	res2 := generate(t, grid, axes, Levels(0.6))
	if len(res2.Lines) != 2 {
		t.Fatalf("saddle: got %d lines, want 2", len(res2.Lines))
	}
	if segmentsCross(res2.Lines[0], res2.Lines[1]) {
		t.Error("saddle segments cross inside the cell")
	}
	if reflect.DeepEqual(pairings(res.Lines), pairings(res2.Lines)) {
		t.Error("saddle pairing did not flip across the corner average")
	}
}

// pairings describes which cell edges each line connects, by the
// midpoint of its two endpoints.
func pairings(lines []Polyline) [][2]float64 {
	var out [][2]float64
	for _, l := range lines {
		a, b := l.Points[0], l.Points[len(l.Points)-1]
		out = append(out, [2]float64{(a.X + b.X) / 2, (a.Y + b.Y) / 2})
	}
	slices.SortFunc(out, func(p, q [2]float64) int {
		if p[0] != q[0] {
			if p[0] < q[0] {
				return -1
			}
			return 1
		}
		if p[1] < q[1] {
			return -1
		} else if p[1] > q[1] {
			return 1
		}
		return 0
	})
	return out
}

// segmentsCross reports whether two 2-point polylines properly
// intersect.
func segmentsCross(l1, l2 Polyline) bool {
	a, b := l1.Points[0], l1.Points[1]
	c, d := l2.Points[0], l2.Points[1]
	side := func(px, py, qx, qy, rx, ry float64) float64 {
		return (qx-px)*(ry-py) - (qy-py)*(rx-px)
	}
	s1 := side(a.X, a.Y, b.X, b.Y, c.X, c.Y)
	s2 := side(a.X, a.Y, b.X, b.Y, d.X, d.Y)
	s3 := side(c.X, c.Y, d.X, d.Y, a.X, a.Y)
	s4 := side(c.X, c.Y, d.X, d.Y, b.X, b.Y)
	return s1*s2 < 0 && s3*s4 < 0
}

func TestLevelOrderPreserved(t *testing.T) {
	const n = 8
	grid := sampleGrid(n, n, func(ix, iy int) float64 { return float64(ix + iy) })
	// deliberately unsorted levels
	levels := []float64{9.5, 3.5, 6.5}
	res := generate(t, grid, unitAxes(n, n), Levels(levels...))

	prev := -1
	for _, l := range res.Lines {
		if l.LevelIndex < prev {
			t.Fatal("polylines are not grouped in level order")
		}
		prev = l.LevelIndex
		if l.Level != levels[l.LevelIndex] {
			t.Errorf("line tagged level %g at index %d, want %g",
				l.Level, l.LevelIndex, levels[l.LevelIndex])
		}
	}
	for i, lo := range res.Levels {
		if lo.Index != i || lo.Level != levels[i] {
			t.Errorf("outcome %d = %g/%d, want %g/%d", i, lo.Level, lo.Index, levels[i], i)
		}
		if lo.Lines != len(res.LinesAt(i)) {
			t.Errorf("outcome %d reports %d lines, LinesAt has %d",
				i, lo.Lines, len(res.LinesAt(i)))
		}
	}
}

func TestCountBound(t *testing.T) {
	const n = 20
	grid := sampleGrid(n, n, func(ix, iy int) float64 {
		u := float64(ix) / (n - 1) * 4 * math.Pi
		v := float64(iy) / (n - 1) * 4 * math.Pi
		return math.Sin(u) * math.Sin(v)
	})
	res := generate(t, grid, unitAxes(n, n), Levels(-0.5, 0.5))

	bound := (n - 1) * (n - 1) * 2
	for i := range res.Levels {
		if got := len(res.LinesAt(i)); got > bound {
			t.Errorf("level %d: %d lines exceed the bound %d", i, got, bound)
		}
	}
}

// TestDeterminism runs the same input sequentially and with several
// parallel configurations; the output must be identical each time.
func TestDeterminism(t *testing.T) {
	const n = 30
	grid := sampleGrid(n, n, func(ix, iy int) float64 {
		u := float64(ix) / (n - 1)
		v := float64(iy) / (n - 1)
		return math.Sin(5*u)*math.Cos(7*v) + u*v
	})
	axes := unitAxes(n, n)
	levels := Intervals(0.25)

	ref := generate(t, grid, axes, levels)

	for _, workers := range []int{1, 2, 7} {
		g := &Generator{Workers: workers}
		res, err := g.Generate(context.Background(), grid, axes, levels)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(res.Lines, ref.Lines) {
			t.Errorf("workers=%d: output differs from sequential run", workers)
		}
		if !reflect.DeepEqual(res.Levels, ref.Levels) {
			t.Errorf("workers=%d: outcomes differ from sequential run", workers)
		}
	}

	// repeated invocation of a reused generator
	g := NewGenerator()
	for range 3 {
		res, err := g.Generate(context.Background(), grid, axes, levels)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(res.Lines, ref.Lines) {
			t.Error("reused generator: output differs between runs")
		}
	}
}

func TestProgress(t *testing.T) {
	const n = 6
	grid := sampleGrid(n, n, func(ix, iy int) float64 { return float64(ix + iy) })

	var got []int
	g := &Generator{
		Progress: func(percent int) { got = append(got, percent) },
	}
	_, err := g.Generate(context.Background(), grid, unitAxes(n, n), Levels(2, 4, 6, 8))
	if err != nil {
		t.Fatal(err)
	}
	want := []int{25, 50, 75, 100}
	if !slices.Equal(got, want) {
		t.Errorf("progress = %v, want %v", got, want)
	}
}

func TestProgressParallelMonotonic(t *testing.T) {
	const n = 16
	grid := sampleGrid(n, n, func(ix, iy int) float64 { return float64(ix * iy) })

	var got []int
	g := &Generator{
		Workers:  4,
		Progress: func(percent int) { got = append(got, percent) },
	}
	_, err := g.Generate(context.Background(), grid, unitAxes(n, n), Intervals(10))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) == 0 || got[len(got)-1] != 100 {
		t.Fatalf("progress = %v, want final value 100", got)
	}
	if !slices.IsSorted(got) {
		t.Errorf("progress = %v, not monotonic", got)
	}
}

func TestCancellation(t *testing.T) {
	const n = 6
	grid := sampleGrid(n, n, func(ix, iy int) float64 { return float64(ix + iy) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGenerator()
	res, err := g.Generate(ctx, grid, unitAxes(n, n), Levels(2, 4, 6))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if res == nil {
		t.Fatal("cancelled run returned no result")
	}
	if len(res.Lines) != 0 {
		t.Errorf("cancelled before the first level, but got %d lines", len(res.Lines))
	}
}

func TestValidationErrors(t *testing.T) {
	grid := sampleGrid(4, 4, func(ix, iy int) float64 { return float64(ix) })
	axes := unitAxes(4, 4)

	tests := []struct {
		name   string
		grid   *Grid
		axes   Axes
		levels LevelSet
	}{
		{"1x4 grid", NewGrid(1, 4, make([]float64, 4)), axes, Levels(1)},
		{"axis mismatch", grid, unitAxes(3, 4), Levels(1)},
		{"empty level set", grid, axes, Levels()},
		{"zero interval", grid, axes, Intervals(0)},
	}
	for _, test := range tests {
		_, err := Generate(test.grid, test.axes, test.levels)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: err = %v, want ErrInvalidInput", test.name, err)
		}
	}
}

// TestLevelFailureRecovered checks that a level whose interpolation
// blows up is recorded and skipped without failing the whole run.
func TestLevelFailureRecovered(t *testing.T) {
	grid := NewGrid(2, 2, []float64{math.Inf(1), 0, math.Inf(-1), 0})
	res, err := Generate(grid, unitAxes(2, 2), Levels(0.5, 1.5))
	if err != nil {
		t.Fatalf("per-level failure escalated to a global error: %v", err)
	}
	for _, lo := range res.Levels {
		if !errors.Is(lo.Err, errNonFinite) {
			t.Errorf("level %g: err = %v, want errNonFinite", lo.Level, lo.Err)
		}
	}
	if len(res.Lines) != 0 {
		t.Errorf("failed levels produced %d lines", len(res.Lines))
	}
}

func TestPolylinePath(t *testing.T) {
	grid := sampleGrid(5, 5, func(ix, iy int) float64 {
		if ix == 2 && iy == 2 {
			return 100
		}
		return 0
	})
	res := generate(t, grid, unitAxes(5, 5), Levels(50))
	if len(res.Lines) != 1 {
		t.Fatal("want a single loop")
	}

	p := res.Lines[0].Path()
	if len(p.Cmds) == 0 || p.Cmds[0] != path.CmdMoveTo {
		t.Fatal("path does not start with a moveto")
	}
	if p.Cmds[len(p.Cmds)-1] != path.CmdClose {
		t.Error("closed loop did not convert to a closed subpath")
	}

	// open line: no close command
	plane := sampleGrid(4, 4, func(ix, iy int) float64 { return float64(ix + iy) })
	res2 := generate(t, plane, unitAxes(4, 4), Levels(2.5))
	for _, l := range res2.Lines {
		p := l.Path()
		if slices.Contains(p.Cmds, path.CmdClose) {
			t.Error("open line converted to a closed subpath")
		}
	}
}

// TestGridNodeCrossing covers levels passing exactly through grid
// nodes: the chain must stay connected across the node instead of
// splitting into per-cell fragments.
func TestGridNodeCrossing(t *testing.T) {
	const n = 6
	grid := sampleGrid(n, n, func(ix, iy int) float64 { return float64(ix + iy) })
	res := generate(t, grid, unitAxes(n, n), Levels(4))

	if len(res.Lines) != 1 {
		t.Fatalf("got %d lines, want 1 connected diagonal", len(res.Lines))
	}
	l := res.Lines[0]
	if len(l.Points) != 5 {
		t.Errorf("diagonal has %d points, want 5 lattice points", len(l.Points))
	}
	for i := 1; i < len(l.Points); i++ {
		if l.Points[i] == l.Points[i-1] {
			t.Error("consecutive duplicate points in output")
		}
	}
}
