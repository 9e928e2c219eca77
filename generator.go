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
	"fmt"
	"sync"
)

// Generator extracts contour lines from grids.  Create one instance
// and reuse it for multiple grids; internal buffers grow as needed but
// never shrink.
//
// A Generator is not safe for concurrent use, but a single Generate
// call may itself use multiple goroutines (see Workers).
type Generator struct {
	// Workers is the number of goroutines tracing levels in parallel.
	// Values below 2 select sequential operation.  Levels are
	// independent of each other, so the output is identical in both
	// modes.
	Workers int

	// Progress, if non-nil, is called with the percentage of levels
	// completed after each level.  It must be cheap; in parallel
	// operation it is called under an internal lock.
	Progress func(percent int)

	seq *tracer // reused by sequential runs
}

// NewGenerator returns a new Generator with sequential operation.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate extracts the contour lines of grid at the levels described
// by levels.  Axis coordinates map grid indices to world coordinates.
//
// Structural problems (dimension mismatches, an invalid level set) are
// reported up front, before any tracing, wrapping ErrInvalidInput or
// ErrEmptyData.  A failure while tracing an individual level is
// recorded in that level's LevelOutcome and does not affect other
// levels.
//
// Cancellation via ctx is honoured between levels; the levels already
// traced are returned together with the context error.
func (g *Generator) Generate(ctx context.Context, grid *Grid, axes Axes, levels LevelSet) (*Result, error) {
	if err := grid.validate(); err != nil {
		return nil, err
	}
	if err := axes.validate(grid); err != nil {
		return nil, err
	}
	vals, err := levels.resolve(grid)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Levels: make([]LevelOutcome, len(vals)),
	}
	for i, z := range vals {
		res.Levels[i] = LevelOutcome{Level: z, Index: i}
	}

	perLevel := make([][]Polyline, len(vals))
	if g.Workers > 1 && len(vals) > 1 {
		err = g.generateParallel(ctx, grid, axes, vals, perLevel, res.Levels)
	} else {
		err = g.generateSequential(ctx, grid, axes, vals, perLevel, res.Levels)
	}

	n := 0
	for _, lines := range perLevel {
		n += len(lines)
	}
	res.Lines = make([]Polyline, 0, n)
	for _, lines := range perLevel {
		res.Lines = append(res.Lines, lines...)
	}
	if err != nil {
		return res, err
	}
	return res, nil
}

func (g *Generator) generateSequential(ctx context.Context, grid *Grid, axes Axes, vals []float64, perLevel [][]Polyline, outcomes []LevelOutcome) error {
	if g.seq == nil || g.seq.grid != grid || !sameAxes(g.seq.axes, axes) {
		g.seq = newTracer(grid, axes)
	}
	for i, z := range vals {
		if err := ctx.Err(); err != nil {
			return err
		}
		traceLevel(g.seq, z, i, perLevel, outcomes)
		g.progress(i+1, len(vals))
	}
	return nil
}

func (g *Generator) generateParallel(ctx context.Context, grid *Grid, axes Axes, vals []float64, perLevel [][]Polyline, outcomes []LevelOutcome) error {
	workers := min(g.Workers, len(vals))

	indices := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex // guards done counter and Progress callback
	done := 0

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr := newTracer(grid, axes)
			for i := range indices {
				traceLevel(tr, vals[i], i, perLevel, outcomes)
				mu.Lock()
				done++
				g.progress(done, len(vals))
				mu.Unlock()
			}
		}()
	}

	var ctxErr error
feed:
	for i := range vals {
		select {
		case indices <- i:
		case <-ctx.Done():
			ctxErr = ctx.Err()
			break feed
		}
	}
	close(indices)
	wg.Wait()
	return ctxErr
}

// traceLevel runs the tracer for one level and stores the outcome.
// A panic while tracing is converted into a per-level error, so one
// pathological level cannot take down the whole run.
func traceLevel(tr *tracer, z float64, i int, perLevel [][]Polyline, outcomes []LevelOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcomes[i].Err = fmt.Errorf("level %g: %v", z, r)
		}
	}()

	lines, dropped, err := tr.trace(z, i)
	if err != nil {
		outcomes[i].Err = fmt.Errorf("level %g: %w", z, err)
		return
	}
	perLevel[i] = lines
	outcomes[i].Lines = len(lines)
	outcomes[i].Dropped = dropped
}

func (g *Generator) progress(done, total int) {
	if g.Progress == nil {
		return
	}
	g.Progress(done * 100 / total)
}

// sameAxes reports whether two axis mappings share the same backing
// slices.  Used to decide whether the sequential tracer can be reused.
func sameAxes(a, b Axes) bool {
	return len(a.X) == len(b.X) && len(a.Y) == len(b.Y) &&
		(len(a.X) == 0 || &a.X[0] == &b.X[0]) &&
		(len(a.Y) == 0 || &a.Y[0] == &b.Y[0])
}

// Generate is a convenience wrapper: it runs a fresh sequential
// Generator without cancellation or progress reporting.
func Generate(grid *Grid, axes Axes, levels LevelSet) (*Result, error) {
	g := NewGenerator()
	return g.Generate(context.Background(), grid, axes, levels)
}
