package geom

// RectangleProfile builds a centered rectangle in the local XY plane
// (z=0), CCW when viewed from +Z, matching IfcRectangleProfileDef's
// XDim/YDim semantics.
func RectangleProfile(xdim, ydim float64) Profile {
	hx, hy := xdim/2, ydim/2
	return Profile{Outer: []Vec3{
		{-hx, -hy, 0},
		{hx, -hy, 0},
		{hx, hy, 0},
		{-hx, hy, 0},
	}}
}

// CircleProfile builds a centered circle approximated by n segments in
// the local XY plane, CCW when viewed from +Z.
func CircleProfile(radius float64, n int) Profile {
	f := Frame{Origin: Vec3{}, Tangent: Vec3{0, 0, 1}, Normal: Vec3{1, 0, 0}, Binormal: Vec3{0, 1, 0}}
	return Profile{Outer: f.Ring(radius, n)}
}
