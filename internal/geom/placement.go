package geom

// Axis2Placement3DMatrix builds the column-major rigid transform for an
// IfcAxis2Placement3D given its Location, Axis (Z) and RefDirection (X),
// Y = Z × X, then X is re-orthogonalized as Y × Z so a
// RefDirection that isn't already perpendicular to Axis still yields an
// orthonormal frame.
func Axis2Placement3DMatrix(location, axis, refDirection Vec3, hasAxis, hasRef bool) Mat4 {
	z := Vec3{0, 0, 1}
	if hasAxis && axis.LengthSq() > 1e-20 {
		z = axis.Normalize()
	}
	x := Vec3{1, 0, 0}
	if hasRef && refDirection.LengthSq() > 1e-20 {
		x = refDirection.Normalize()
	}
	y := z.Cross(x)
	if y.LengthSq() < 1e-20 {
		// RefDirection parallel to Axis: fall back to any perpendicular.
		alt := Vec3{1, 0, 0}
		if abs(z.Dot(alt)) > 0.99 {
			alt = Vec3{0, 1, 0}
		}
		x = alt
		y = z.Cross(x)
	}
	y = y.Normalize()
	x = y.Cross(z).Normalize()
	return FromBasis(location, x, y, z)
}
