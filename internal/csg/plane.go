// Package csg implements the separating-axis intersection test and
// plane-clipping primitives that back both the generic clipping
// processor and the void-subtraction engine's box/polyhedron
// cuts. It does not attempt exact-arithmetic CSG:
// all predicates use a fixed epsilon and degrade to "keep the
// pre-clip geometry" on failure rather than producing exact boundary
// representations.
package csg

import "github.com/arx-os/ifcgeom/internal/geom"

// Epsilon is the classification tolerance used throughout this package,
// an epsilon of 1e-6.
const Epsilon = 1e-6

// Plane is (point, normalized normal); SignedDistance(p) = (p-point)·normal.
type Plane struct {
	Point  geom.Vec3
	Normal geom.Vec3
}

// NewPlane normalizes normal before storing it.
func NewPlane(point, normal geom.Vec3) Plane {
	return Plane{Point: point, Normal: normal.Normalize()}
}

// SignedDistance returns (p-Point)·Normal.
func (pl Plane) SignedDistance(p geom.Vec3) float64 {
	return p.Sub(pl.Point).Dot(pl.Normal)
}

// Flip returns the plane with its normal reversed. ConvexClipAndCollect
// does not use it: ClipTriangleByPlane already returns the back-side
// fragments directly.
func (pl Plane) Flip() Plane {
	return Plane{Point: pl.Point, Normal: pl.Normal.Neg()}
}

// AABB is an axis-aligned box.
type AABB struct {
	Min, Max geom.Vec3
}

// Corners returns the eight corners of the box.
func (b AABB) Corners() [8]geom.Vec3 {
	return [8]geom.Vec3{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z}, {X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z}, {X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Min.Y, Z: b.Max.Z}, {X: b.Max.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Max.Z}, {X: b.Max.X, Y: b.Max.Y, Z: b.Max.Z},
	}
}

// Center returns the box midpoint.
func (b AABB) Center() geom.Vec3 {
	return geom.Lerp(b.Min, b.Max, 0.5)
}

// Extents returns the box half-widths.
func (b AABB) Extents() geom.Vec3 {
	return b.Max.Sub(b.Min).Scale(0.5)
}

// Union returns the smallest AABB containing both a and b.
func Union(a, b AABB) AABB {
	return AABB{
		Min: geom.Vec3{X: min(a.Min.X, b.Min.X), Y: min(a.Min.Y, b.Min.Y), Z: min(a.Min.Z, b.Min.Z)},
		Max: geom.Vec3{X: max(a.Max.X, b.Max.X), Y: max(a.Max.Y, b.Max.Y), Z: max(a.Max.Z, b.Max.Z)},
	}
}

// FromPoints computes the AABB of a point set.
func FromPoints(pts []geom.Vec3) AABB {
	if len(pts) == 0 {
		return AABB{}
	}
	b := AABB{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		b.Min.X, b.Max.X = min(b.Min.X, p.X), max(b.Max.X, p.X)
		b.Min.Y, b.Max.Y = min(b.Min.Y, p.Y), max(b.Max.Y, p.Y)
		b.Min.Z, b.Max.Z = min(b.Min.Z, p.Z), max(b.Max.Z, p.Z)
	}
	return b
}

// Planes returns the six inward-pointing faces of the box, i.e. the
// interior of the box is the intersection of each plane's front
// half-space. The box-subtraction step classifies triangles against
// these six planes.
func (b AABB) Planes() [6]Plane {
	return [6]Plane{
		NewPlane(geom.Vec3{X: b.Min.X}, geom.Vec3{X: 1}),
		NewPlane(geom.Vec3{X: b.Max.X}, geom.Vec3{X: -1}),
		NewPlane(geom.Vec3{Y: b.Min.Y}, geom.Vec3{Y: 1}),
		NewPlane(geom.Vec3{Y: b.Max.Y}, geom.Vec3{Y: -1}),
		NewPlane(geom.Vec3{Z: b.Min.Z}, geom.Vec3{Z: 1}),
		NewPlane(geom.Vec3{Z: b.Max.Z}, geom.Vec3{Z: -1}),
	}
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
