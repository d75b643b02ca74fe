package geom

import "math"

// RotateAroundAxis rotates point p by theta radians about the line
// through axisOrigin in direction axisDir (which need not be
// normalized), via Rodrigues' rotation formula. Used by
// RevolvedAreaSolid to sweep a profile boundary around an arbitrary
// Axis1Placement.
func RotateAroundAxis(p, axisOrigin, axisDir Vec3, theta float64) Vec3 {
	k := axisDir.Normalize()
	if k.LengthSq() < 1e-20 {
		k = Vec3{Z: 1}
	}
	v := p.Sub(axisOrigin)
	c, s := math.Cos(theta), math.Sin(theta)
	rotated := v.Scale(c).Add(k.Cross(v).Scale(s)).Add(k.Scale(k.Dot(v) * (1 - c)))
	return axisOrigin.Add(rotated)
}
