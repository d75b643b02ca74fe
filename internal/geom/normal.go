package geom

// NewellNormal computes a polygon's (non-unit) normal using Newell's
// method, which tolerates mild non-planarity and degenerate points far
// better than a single three-point cross product.
func NewellNormal(pts []Vec3) Vec3 {
	var n Vec3
	count := len(pts)
	for i := 0; i < count; i++ {
		cur := pts[i]
		next := pts[(i+1)%count]
		n.X += (cur.Y - next.Y) * (cur.Z + next.Z)
		n.Y += (cur.Z - next.Z) * (cur.X + next.X)
		n.Z += (cur.X - next.X) * (cur.Y + next.Y)
	}
	return n
}

// UnitNormal returns NewellNormal(pts) normalized; the zero vector if the
// polygon is degenerate.
func UnitNormal(pts []Vec3) Vec3 {
	return NewellNormal(pts).Normalize()
}

// DominantAxis returns the index (0=X, 1=Y, 2=Z) of n's largest-magnitude
// component, used to pick which axis to drop when projecting to 2D.
func DominantAxis(n Vec3) int {
	ax, ay, az := abs(n.X), abs(n.Y), abs(n.Z)
	if ax >= ay && ax >= az {
		return 0
	}
	if ay >= az {
		return 1
	}
	return 2
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Basis2D describes the shared projection basis used to flatten a
// polygon (and its holes) into 2D: u and v are orthonormal axes
// spanning the plane perpendicular to the polygon's dominant normal
// component, dropping whichever of X/Y/Z contributes most —
// "keep the basis so holes project in the same space as the outer loop".
type Basis2D struct {
	U, V Vec3
}

// ProjectionBasis picks the two axes whose absolute normal component is
// smallest and returns a basis spanning them. The basis depends only on
// which axis dominates, not on the sign of n, so a loop that is CCW in
// 3D may wind either way in (u,v); callers check the signed area.
func ProjectionBasis(n Vec3) Basis2D {
	switch DominantAxis(n) {
	case 0: // drop X, keep Y/Z
		return Basis2D{U: Vec3{0, 1, 0}, V: Vec3{0, 0, 1}}
	case 1: // drop Y, keep X/Z
		return Basis2D{U: Vec3{1, 0, 0}, V: Vec3{0, 0, 1}}
	default: // drop Z, keep X/Y
		return Basis2D{U: Vec3{1, 0, 0}, V: Vec3{0, 1, 0}}
	}
}

// Project flattens p into the given basis.
func (b Basis2D) Project(p Vec3) Vec2 {
	return Vec2{X: p.Dot(b.U), Y: p.Dot(b.V)}
}

// ProjectAll flattens a whole polygon.
func (b Basis2D) ProjectAll(pts []Vec3) []Vec2 {
	out := make([]Vec2, len(pts))
	for i, p := range pts {
		out[i] = b.Project(p)
	}
	return out
}
