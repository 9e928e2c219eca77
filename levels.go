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
	"strconv"
	"strings"
)

// LevelSet specifies which iso-values to contour.  Use Intervals for
// regularly spaced levels derived from the data range, or Levels /
// ParseLevels for an explicit list.  The zero value is invalid.
type LevelSet struct {
	mode   levelMode
	step   float64
	levels []float64
}

type levelMode int

const (
	modeNone levelMode = iota
	modeInterval
	modeExplicit
)

// Intervals returns a level set with regularly spaced levels.  The
// actual values depend on the grid: they run from the data minimum
// rounded down to a multiple of step, to the data maximum rounded up,
// inclusive.
func Intervals(step float64) LevelSet {
	return LevelSet{mode: modeInterval, step: step}
}

// Levels returns a level set with the given explicit iso-values, in
// the given order.  Duplicates are allowed but discouraged.
func Levels(values ...float64) LevelSet {
	return LevelSet{mode: modeExplicit, levels: values}
}

// ParseLevels parses a comma-separated list of iso-values, for example
// "100, 200, 300".  Whitespace around values is ignored.
func ParseLevels(s string) (LevelSet, error) {
	parts := strings.Split(s, ",")
	values := make([]float64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" && len(parts) == 1 {
			break
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return LevelSet{}, fmt.Errorf("%w: level %q is not a number",
				ErrInvalidInput, part)
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return LevelSet{}, fmt.Errorf("%w: no levels given", ErrInvalidInput)
	}
	return Levels(values...), nil
}

// resolve turns the level set into a concrete list of iso-values for
// the given grid.
func (ls LevelSet) resolve(g *Grid) ([]float64, error) {
	switch ls.mode {
	case modeInterval:
		if !(ls.step > 0) || math.IsInf(ls.step, 0) {
			return nil, fmt.Errorf("%w: interval must be positive, got %g",
				ErrInvalidInput, ls.step)
		}
		vmin, vmax, ok := g.MinMax()
		if !ok {
			return nil, fmt.Errorf("%w: cannot derive interval levels",
				ErrEmptyData)
		}
		lo := math.Floor(vmin/ls.step) * ls.step
		hi := math.Ceil(vmax/ls.step) * ls.step
		n := int(math.Round((hi-lo)/ls.step)) + 1
		levels := make([]float64, n)
		for i := range levels {
			levels[i] = lo + float64(i)*ls.step
		}
		return levels, nil

	case modeExplicit:
		if len(ls.levels) == 0 {
			return nil, fmt.Errorf("%w: empty level set", ErrInvalidInput)
		}
		for _, v := range ls.levels {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: level %g is not finite",
					ErrInvalidInput, v)
			}
		}
		levels := make([]float64, len(ls.levels))
		copy(levels, ls.levels)
		return levels, nil

	default:
		return nil, fmt.Errorf("%w: no contour mode selected", ErrInvalidInput)
	}
}
