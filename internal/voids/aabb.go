package voids

import (
	"github.com/arx-os/ifcgeom/internal/csg"
	"github.com/arx-os/ifcgeom/internal/geom"
)

// ExtendAlongDirection projects all 8 corners of
// the wall AABB and all 8 of the opening AABB onto the extrusion axis
// (relative to the opening centroid), extend the opening's min/max
// projections to match the wall's, and recompute the AABB from the
// original plus extended extremes. If dir is degenerate, opening is
// returned unchanged.
func ExtendAlongDirection(opening, host csg.AABB, dir geom.Vec3) csg.AABB {
	if dir.LengthSq() < 1e-20 {
		return opening
	}
	dir = dir.Normalize()
	centroid := opening.Center()

	openingMin, openingMax := projectExtent(opening.Corners(), centroid, dir)
	hostMin, hostMax := projectExtent(host.Corners(), centroid, dir)

	extMin := openingMin
	if hostMin < extMin {
		extMin = hostMin
	}
	extMax := openingMax
	if hostMax > extMax {
		extMax = hostMax
	}

	pts := make([]geom.Vec3, 0, 16)
	for _, c := range opening.Corners() {
		pts = append(pts, c)
	}
	pts = append(pts, centroid.Add(dir.Scale(extMin)), centroid.Add(dir.Scale(extMax)))
	return csg.FromPoints(pts)
}

func projectExtent(corners [8]geom.Vec3, centroid, dir geom.Vec3) (min, max float64) {
	min, max = 1e300, -1e300
	for _, c := range corners {
		p := c.Sub(centroid).Dot(dir)
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	return min, max
}
