package geom

import (
	"errors"
	"sort"
)

// ErrTriangulationFailed signals that ear-clipping could not find a valid
// ear in a full pass over the remaining polygon — numerically degenerate
// or self-intersecting input. Callers fall back to fan
// triangulation rather than propagating this as a fatal error.
var ErrTriangulationFailed = errors.New("geom: ear-clipping failed, degenerate polygon")

type indexedPoint struct {
	p2  Vec2
	orig int // index into the caller-supplied combined point list
}

// TriangulateWithHoles triangulates a (possibly non-planar) polygon given
// by outer, with zero or more holes, all expressed as 3D points. It
// projects everything into the 2D basis derived from outer's own normal
// so holes share the outer loop's projection and returns triangle
// index triples into the combined point list outer++holes[0]++holes[1]...
//
// On any internal failure it falls back to a fan triangulation of just
// the outer ring (holes dropped) rather than returning an error — per
// callers must accept a possibly-incorrect but non-crashing
// result for pathological inputs".
func TriangulateWithHoles(outer []Vec3, holes [][]Vec3) (tris [][3]int, allPoints []Vec3) {
	allPoints = append(allPoints, outer...)
	for _, h := range holes {
		allPoints = append(allPoints, h...)
	}
	if len(outer) < 3 {
		return nil, allPoints
	}

	n := NewellNormal(outer)
	if n.LengthSq() < 1e-20 {
		return fanFallback(outer), allPoints
	}
	basis := ProjectionBasis(n)

	outerPoly := toIndexed(basis, outer, 0)
	if signedArea(outerPoly) < 0 {
		reverseIndexed(outerPoly)
	}

	type offsetHole struct {
		pts    []Vec3
		offset int
	}
	offsetHoles := make([]offsetHole, 0, len(holes))
	offset := len(outer)
	for _, h := range holes {
		offsetHoles = append(offsetHoles, offsetHole{pts: h, offset: offset})
		offset += len(h)
	}
	sort.Slice(offsetHoles, func(i, j int) bool {
		return maxX(offsetHoles[i].pts) > maxX(offsetHoles[j].pts)
	})

	merged := outerPoly
	ok := true
	for _, oh := range offsetHoles {
		if len(oh.pts) < 3 {
			continue
		}
		holePoly := toIndexed(basis, oh.pts, oh.offset)
		if signedArea(holePoly) > 0 {
			reverseIndexed(holePoly)
		}
		bridged, bridgeOK := bridgeHole(merged, holePoly)
		if !bridgeOK {
			ok = false
			break
		}
		merged = bridged
	}

	if ok {
		if t, clipOK := earClip(merged); clipOK {
			return t, allPoints
		}
	}
	return fanFallback(outer), allPoints
}

func toIndexed(basis Basis2D, pts []Vec3, origOffset int) []indexedPoint {
	out := make([]indexedPoint, len(pts))
	for i, p := range pts {
		out[i] = indexedPoint{p2: basis.Project(p), orig: origOffset + i}
	}
	return out
}

func signedArea(poly []indexedPoint) float64 {
	var sum float64
	n := len(poly)
	for i := 0; i < n; i++ {
		a := poly[i].p2
		b := poly[(i+1)%n].p2
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

func reverseIndexed(poly []indexedPoint) {
	for i, j := 0, len(poly)-1; i < j; i, j = i+1, j-1 {
		poly[i], poly[j] = poly[j], poly[i]
	}
}

// bridgeHole splices hole into poly by connecting the hole's rightmost
// point to a visible polygon vertex, producing a single simple polygon
// (the classic "zero-width corridor" hole-merging technique).
func bridgeHole(poly []indexedPoint, hole []indexedPoint) ([]indexedPoint, bool) {
	hi := rightmost(hole)
	p := hole[hi].p2

	edges := polygonEdges(poly)
	bestIdx := -1
	bestDistSq := 0.0
	for i, v := range poly {
		if !segmentVisible(p, v.p2, edges, i) {
			continue
		}
		d := (v.p2.X-p.X)*(v.p2.X-p.X) + (v.p2.Y-p.Y)*(v.p2.Y-p.Y)
		if bestIdx == -1 || d < bestDistSq {
			bestIdx, bestDistSq = i, d
		}
	}
	if bestIdx == -1 {
		return nil, false
	}

	rotatedHole := make([]indexedPoint, 0, len(hole)+1)
	rotatedHole = append(rotatedHole, hole[hi:]...)
	rotatedHole = append(rotatedHole, hole[:hi]...)
	rotatedHole = append(rotatedHole, hole[hi]) // close back to P

	merged := make([]indexedPoint, 0, len(poly)+len(rotatedHole)+1)
	merged = append(merged, poly[:bestIdx+1]...)
	merged = append(merged, rotatedHole...)
	merged = append(merged, poly[bestIdx:]...)
	return merged, true
}

func rightmost(poly []indexedPoint) int {
	best := 0
	for i := 1; i < len(poly); i++ {
		if poly[i].p2.X > poly[best].p2.X {
			best = i
		}
	}
	return best
}

func polygonEdges(poly []indexedPoint) [][2]Vec2 {
	n := len(poly)
	edges := make([][2]Vec2, n)
	for i := 0; i < n; i++ {
		edges[i] = [2]Vec2{poly[i].p2, poly[(i+1)%n].p2}
	}
	return edges
}

// segmentVisible reports whether segment (a,b) — b being poly vertex
// skipIdx — crosses no polygon edge other than the ones touching b.
func segmentVisible(a, b Vec2, edges [][2]Vec2, skipIdx int) bool {
	n := len(edges)
	for i, e := range edges {
		if i == skipIdx || i == (skipIdx-1+n)%n {
			continue
		}
		if segmentsProperlyIntersect(a, b, e[0], e[1]) {
			return false
		}
	}
	return true
}

func segmentsProperlyIntersect(p1, p2, p3, p4 Vec2) bool {
	d1 := Cross2(p4.Sub(p3), p1.Sub(p3))
	d2 := Cross2(p4.Sub(p3), p2.Sub(p3))
	d3 := Cross2(p2.Sub(p1), p3.Sub(p1))
	d4 := Cross2(p2.Sub(p1), p4.Sub(p1))
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

// earClip triangulates a simple CCW polygon (no holes) by repeatedly
// clipping convex ears whose interior contains no other polygon vertex.
func earClip(poly []indexedPoint) ([][3]int, bool) {
	n := len(poly)
	if n < 3 {
		return nil, false
	}
	ring := make([]indexedPoint, n)
	copy(ring, poly)

	var tris [][3]int
	guard := 0
	maxGuard := n * n + 8
	for len(ring) > 3 {
		guard++
		if guard > maxGuard {
			return nil, false
		}
		m := len(ring)
		found := false
		for i := 0; i < m; i++ {
			prev := ring[(i-1+m)%m]
			cur := ring[i]
			next := ring[(i+1)%m]
			if !isConvex(prev.p2, cur.p2, next.p2) {
				continue
			}
			if anyPointInside(ring, i, prev.p2, cur.p2, next.p2) {
				continue
			}
			tris = append(tris, [3]int{prev.orig, cur.orig, next.orig})
			ring = append(ring[:i], ring[i+1:]...)
			found = true
			break
		}
		if !found {
			return nil, false
		}
	}
	tris = append(tris, [3]int{ring[0].orig, ring[1].orig, ring[2].orig})
	return tris, true
}

func isConvex(a, b, c Vec2) bool {
	return Cross2(b.Sub(a), c.Sub(b)) > 1e-12
}

func anyPointInside(ring []indexedPoint, skip int, a, b, c Vec2) bool {
	for i, v := range ring {
		if i == skip || i == (skip-1+len(ring))%len(ring) || i == (skip+1)%len(ring) {
			continue
		}
		if v.p2 == a || v.p2 == b || v.p2 == c {
			// hole bridging duplicates vertices; a copy sitting on the
			// ear's own corner does not block the ear
			continue
		}
		if pointInTriangle(v.p2, a, b, c) {
			return true
		}
	}
	return false
}

func pointInTriangle(p, a, b, c Vec2) bool {
	d1 := Cross2(b.Sub(a), p.Sub(a))
	d2 := Cross2(c.Sub(b), p.Sub(b))
	d3 := Cross2(a.Sub(c), p.Sub(c))
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

func fanFallback(outer []Vec3) [][3]int {
	if len(outer) < 3 {
		return nil
	}
	tris := make([][3]int, 0, len(outer)-2)
	for i := 1; i < len(outer)-1; i++ {
		tris = append(tris, [3]int{0, i, i + 1})
	}
	return tris
}

// TriangulateFastPath handles the cheap shapes: a triangle or quad
// without holes is emitted directly (quad as two triangles along the
// 0-2 diagonal); an N-gon up to 8 sides without holes is fan
// triangulated after a convexity check by 3D cross-product sign
// agreement. ok is false when the fast path does not apply and the
// caller should fall back to TriangulateWithHoles.
func TriangulateFastPath(outer []Vec3, hasHoles bool) (tris [][3]int, ok bool) {
	if hasHoles {
		return nil, false
	}
	switch len(outer) {
	case 3:
		return [][3]int{{0, 1, 2}}, true
	case 4:
		return [][3]int{{0, 1, 2}, {0, 2, 3}}, true
	}
	if len(outer) < 3 || len(outer) > 8 {
		return nil, false
	}
	if !isConvex3D(outer) {
		return nil, false
	}
	tris = make([][3]int, 0, len(outer)-2)
	for i := 1; i < len(outer)-1; i++ {
		tris = append(tris, [3]int{0, i, i + 1})
	}
	return tris, true
}

// isConvex3D checks that consecutive edge cross products all agree in
// sign when projected onto the polygon's own normal, i.e. the polygon
// turns the same way at every vertex.
func isConvex3D(pts []Vec3) bool {
	n := NewellNormal(pts)
	if n.LengthSq() < 1e-20 {
		return false
	}
	count := len(pts)
	var sign float64
	for i := 0; i < count; i++ {
		a := pts[i]
		b := pts[(i+1)%count]
		c := pts[(i+2)%count]
		cr := b.Sub(a).Cross(c.Sub(b))
		s := cr.Dot(n)
		if abs(s) < 1e-12 {
			continue
		}
		if sign == 0 {
			sign = s
			continue
		}
		if (sign > 0) != (s > 0) {
			return false
		}
	}
	return true
}

func maxX(pts []Vec3) float64 {
	m := pts[0].X
	for _, p := range pts[1:] {
		if p.X > m {
			m = p.X
		}
	}
	return m
}
