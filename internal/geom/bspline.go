package geom

// ExpandKnots repeats each knot value by its multiplicity, turning IFC's
// compact (UMultiplicities, UKnots) pair into the full knot vector the
// de Boor algorithm expects.
func ExpandKnots(multiplicities []int, knots []float64) []float64 {
	out := make([]float64, 0, len(knots)*2)
	for i, k := range knots {
		m := 1
		if i < len(multiplicities) {
			m = multiplicities[i]
		}
		for j := 0; j < m; j++ {
			out = append(out, k)
		}
	}
	return out
}

// deBoorCurvePoint evaluates a (possibly rational) B-spline curve of
// degree p with control points ctrl, optional weights w (nil for a
// plain polynomial B-spline), and knot vector knots, at parameter t,
// via the standard de Boor recursion. Rational curves are evaluated in
// homogeneous coordinates and projected back at the end.
func deBoorCurvePoint(ctrl []Vec3, w []float64, knots []float64, p int, t float64) Vec3 {
	n := len(ctrl) - 1
	k := findKnotSpan(n, p, t, knots)

	// Homogeneous control points: (w*x, w*y, w*z, w).
	type hpoint struct {
		x, y, z, w float64
	}
	d := make([]hpoint, p+1)
	for j := 0; j <= p; j++ {
		idx := k - p + j
		if idx < 0 {
			idx = 0
		}
		if idx > n {
			idx = n
		}
		wt := 1.0
		if w != nil {
			wt = w[idx]
		}
		c := ctrl[idx]
		d[j] = hpoint{c.X * wt, c.Y * wt, c.Z * wt, wt}
	}

	for r := 1; r <= p; r++ {
		for j := p; j >= r; j-- {
			i := k - p + j
			alphaDenom := knots[i+p-r+1] - knots[i]
			var alpha float64
			if alphaDenom != 0 {
				alpha = (t - knots[i]) / alphaDenom
			}
			d[j] = hpoint{
				x: (1-alpha)*d[j-1].x + alpha*d[j].x,
				y: (1-alpha)*d[j-1].y + alpha*d[j].y,
				z: (1-alpha)*d[j-1].z + alpha*d[j].z,
				w: (1-alpha)*d[j-1].w + alpha*d[j].w,
			}
		}
	}
	res := d[p]
	if res.w == 0 {
		return Vec3{}
	}
	return Vec3{X: res.x / res.w, Y: res.y / res.w, Z: res.z / res.w}
}

func findKnotSpan(n, p int, t float64, knots []float64) int {
	if t >= knots[n+1] {
		return n
	}
	if t <= knots[p] {
		return p
	}
	lo, hi := p, n+1
	for lo < hi {
		mid := (lo + hi) / 2
		if t < knots[mid] {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo - 1
}

// EvaluateBSplineSurfaceGrid tessellates a tensor-product B-spline
// surface (control grid indexed [u][v]) over uSamples x vSamples steps
// spanning the knot vectors' valid parameter domain, evaluating each
// point by first collapsing each control-point row along V, then the
// resulting column of points along U (standard two-stage tensor
// evaluation). weights may be nil for a plain (non-rational) surface.
func EvaluateBSplineSurfaceGrid(ctrl [][]Vec3, weights [][]float64, uKnots, vKnots []float64, uDegree, vDegree, uSamples, vSamples int) [][]Vec3 {
	nu := len(ctrl)
	if nu == 0 {
		return nil
	}
	uMin, uMax := uKnots[uDegree], uKnots[len(uKnots)-uDegree-1]
	vMin, vMax := vKnots[vDegree], vKnots[len(vKnots)-vDegree-1]

	grid := make([][]Vec3, uSamples+1)
	for iu := 0; iu <= uSamples; iu++ {
		u := uMin + (uMax-uMin)*float64(iu)/float64(uSamples)
		row := make([]Vec3, vSamples+1)
		// Collapse each u-row's control points along V at this v for
		// every sample, producing an intermediate column of points
		// indexed by u-control-index, then collapse that column along U.
		collapsedByU := make([]Vec3, nu)
		for iv := 0; iv <= vSamples; iv++ {
			v := vMin + (vMax-vMin)*float64(iv)/float64(vSamples)
			for ui := 0; ui < nu; ui++ {
				var w []float64
				if weights != nil {
					w = weights[ui]
				}
				collapsedByU[ui] = deBoorCurvePoint(ctrl[ui], w, vKnots, vDegree, v)
			}
			row[iv] = deBoorCurvePoint(collapsedByU, nil, uKnots, uDegree, u)
		}
		grid[iu] = row
	}
	return grid
}

// MeshFromGrid triangulates a regular (uSamples+1) x (vSamples+1) point
// grid into two triangles per quad cell, with per-vertex normals
// estimated from neighboring grid points.
func MeshFromGrid(grid [][]Vec3) *Mesh {
	mesh := &Mesh{}
	nu := len(grid)
	if nu < 2 {
		return mesh
	}
	nv := len(grid[0])
	if nv < 2 {
		return mesh
	}
	idx := make([][]uint32, nu)
	for i := range grid {
		idx[i] = make([]uint32, nv)
		for j, p := range grid[i] {
			idx[i][j] = mesh.AddVertex(p, nil)
		}
	}
	for i := 0; i < nu-1; i++ {
		for j := 0; j < nv-1; j++ {
			a, b := idx[i][j], idx[i+1][j]
			c, d := idx[i+1][j+1], idx[i][j+1]
			mesh.AddTriangle(a, b, c)
			mesh.AddTriangle(a, c, d)
		}
	}
	ComputeSmoothNormals(mesh)
	return mesh
}
