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
	"slices"

	"seehuhn.de/go/geom/vec"
)

// stitch joins the per-cell segments into polylines.  Two segments
// connect exactly when they reference the same crossing point, so each
// point has at most two incident segments and every connected
// component is either an open chain or a closed loop.
//
// Chains are seeded from segments in cell-scan order and extended from
// both ends, which makes the output deterministic and independent of
// map iteration order.
func (t *tracer) stitch(level float64, levelIndex int) (lines []Polyline, dropped int) {
	t.buildAdjacency()

	t.segUsed = slices.Grow(t.segUsed[:0], len(t.segs))[:len(t.segs)]
	clear(t.segUsed)

	for si := range t.segs {
		if t.segUsed[si] {
			continue
		}
		t.segUsed[si] = true
		a, b := t.segs[si][0], t.segs[si][1]

		// Extend forward from b.  If the chain comes back to a, it is
		// a closed loop and the backward pass is not needed.
		t.chain = append(t.chain[:0], a, b)
		cur := b
		via := int32(si)
		for {
			next := t.follow(cur, via)
			if next < 0 {
				break
			}
			t.segUsed[next] = true
			cur = otherEnd(t.segs[next], cur)
			t.chain = append(t.chain, cur)
			via = next
			if cur == a {
				break
			}
		}

		t.back = t.back[:0]
		if cur != a {
			// Open chain: extend backward from a.
			cur, via = a, int32(si)
			for {
				next := t.follow(cur, via)
				if next < 0 {
					break
				}
				t.segUsed[next] = true
				cur = otherEnd(t.segs[next], cur)
				t.back = append(t.back, cur)
				via = next
			}
		}

		pts := make([]vec.Vec2, 0, len(t.back)+len(t.chain))
		for i := len(t.back) - 1; i >= 0; i-- {
			pts = appendPoint(pts, t.points[t.back[i]])
		}
		for _, pi := range t.chain {
			pts = appendPoint(pts, t.points[pi])
		}

		if len(pts) < 2 {
			// Degenerate after duplicate elision (all crossings
			// collapsed onto one corner).
			dropped++
			continue
		}
		lines = append(lines, Polyline{
			Points:     pts,
			Level:      level,
			LevelIndex: levelIndex,
		})
	}
	return lines, dropped
}

// buildAdjacency records, for every crossing point, the indices of the
// segments ending there (at most two, -1 for none).
func (t *tracer) buildAdjacency() {
	t.adj = slices.Grow(t.adj[:0], len(t.points))[:len(t.points)]
	for i := range t.adj {
		t.adj[i] = [2]int32{-1, -1}
	}
	for si, s := range t.segs {
		for _, p := range s {
			if t.adj[p][0] < 0 {
				t.adj[p][0] = int32(si)
			} else if t.adj[p][1] < 0 {
				t.adj[p][1] = int32(si)
			}
			// A node crossed by more than two segments keeps only the
			// first two; the others start their own chains.
		}
	}
}

// follow returns an unused segment incident to the point at, other
// than the segment via, or -1 if the chain ends there.
func (t *tracer) follow(at, via int32) int32 {
	for _, s := range t.adj[at] {
		if s >= 0 && s != via && !t.segUsed[s] {
			return s
		}
	}
	return -1
}

// otherEnd returns the endpoint of s that is not p.
func otherEnd(s [2]int32, p int32) int32 {
	if s[0] == p {
		return s[1]
	}
	return s[0]
}

// appendPoint appends p to pts unless it repeats the previous point.
func appendPoint(pts []vec.Vec2, p vec.Vec2) []vec.Vec2 {
	if n := len(pts); n > 0 && pts[n-1] == p {
		return pts
	}
	return append(pts, p)
}
