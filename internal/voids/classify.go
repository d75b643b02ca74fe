package voids

import (
	"github.com/arx-os/ifcgeom/internal/csg"
	"github.com/arx-os/ifcgeom/internal/geom"
	"github.com/arx-os/ifcgeom/internal/ifcproc"
	"github.com/arx-os/ifcgeom/internal/step"
)

// OpeningKind is the classification result for one opening.
type OpeningKind int

const (
	// OpeningRectangular is cut via six-plane AABB clip-and-collect.
	OpeningRectangular OpeningKind = iota
	// OpeningNonRectangular is cut via the convex-polyhedron CSG path —
	// either the opening mesh itself exceeded the vertex threshold, or
	// its extrusion direction was dominantly vertical (floor opening,
	// upgraded to handle a rotated footprint).
	OpeningNonRectangular
	// OpeningDiagonal is a rectangular-profile opening whose extrusion
	// direction has no single dominant axis. It still routes through
	// the AABB path: the distilled spec upgrades only the z-dominant
	// (floor) case to CSG and is silent on diagonal wall openings, so
	// the cheap path stays the default for the common door/window case.
	OpeningDiagonal
)

// uniqueVertexThreshold is the ">100 unique vertices" cutoff.
const uniqueVertexThreshold = 100

// floorOpeningZThreshold is the "|z| > 0.95" floor-opening
// upgrade rule, also used for the diagonal-vs-axis-aligned distinction
// (no axis reaching 0.95 of the direction's magnitude).
const floorOpeningZThreshold = 0.95

// Opening holds everything the cutting step needs about one opening
// once classification has run.
type Opening struct {
	ID         uint32
	Kind       OpeningKind
	WorldAABB  csg.AABB
	Direction  geom.Vec3   // world-space, unit length; zero if undetermined
	WorldRing  []geom.Vec3 // world-space profile ring, for the CSG prism path
	Depth      float64
	VertexHint int // unique-vertex count used for the >100 classification
}

// Classify picks the cutting strategy for one opening given its already
// world-space (placement + unit-scale + RTC applied) mesh and its raw
// representation item ref (the item the void engine should chase for
// an extrusion direction).
func Classify(openingID uint32, worldMesh *geom.Mesh, itemRef uint32, dec *step.Decoder, placementMat geom.Mat4, unitScale float64, rtcOffset geom.Vec3, hasRTC bool) Opening {
	vcount := countUniqueVertices(worldMesh)
	aabb := csg.FromPoints(worldVertices(worldMesh))

	ring, dir, depth, ok := chaseExtrusion(itemRef, dec, geom.Identity())
	op := Opening{ID: openingID, WorldAABB: aabb, VertexHint: vcount}

	if vcount > uniqueVertexThreshold {
		op.Kind = OpeningNonRectangular
		return op
	}
	if !ok {
		op.Kind = OpeningRectangular
		return op
	}

	worldDir := placementMat.TransformNormal(dir).Normalize()
	op.Direction = worldDir
	op.Depth = depth * unitScale

	worldRing := make([]geom.Vec3, len(ring))
	for i, p := range ring {
		wp := placementMat.TransformPoint(p.Scale(unitScale))
		if hasRTC {
			wp = wp.Sub(rtcOffset)
		}
		worldRing[i] = wp
	}
	op.WorldRing = worldRing

	switch {
	case abs(worldDir.Z) > floorOpeningZThreshold:
		op.Kind = OpeningNonRectangular
	case abs(worldDir.X) > floorOpeningZThreshold || abs(worldDir.Y) > floorOpeningZThreshold:
		op.Kind = OpeningRectangular
	default:
		op.Kind = OpeningDiagonal
	}
	return op
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// maxChaseDepth bounds the BooleanClippingResult/MappedItem chases in
// case a malformed file contains a reference cycle.
const maxChaseDepth = 50

// chaseExtrusion follows ExtrudedAreaSolid, chasing through
// BooleanClippingResult.FirstOperand and MappedItem recursively,
// composing each item's own Position/MappingTarget transform
// into accum. Returns the profile ring and extrusion direction already
// transformed by the full local chain, still in the element's own
// (pre-placement) coordinate space.
func chaseExtrusion(itemRef uint32, dec *step.Decoder, accum geom.Mat4) (ring []geom.Vec3, dir geom.Vec3, depth float64, ok bool) {
	return chaseExtrusionDepth(itemRef, dec, accum, 0)
}

func chaseExtrusionDepth(itemRef uint32, dec *step.Decoder, accum geom.Mat4, hops int) (ring []geom.Vec3, dir geom.Vec3, depth float64, ok bool) {
	if hops >= maxChaseDepth {
		return nil, geom.Vec3{}, 0, false
	}
	e, err := dec.DecodeByID(itemRef)
	if err != nil {
		return nil, geom.Vec3{}, 0, false
	}
	switch e.Type {
	case "IFCEXTRUDEDAREASOLID":
		profileRef, pok := e.RefAt(0)
		dirRef, dok := e.RefAt(2)
		d, fok := e.FloatAt(3)
		if !pok || !dok || !fok {
			return nil, geom.Vec3{}, 0, false
		}
		profile, perr := ifcproc.ResolveProfile(profileRef, dec)
		if perr != nil {
			return nil, geom.Vec3{}, 0, false
		}
		localDir := ifcproc.ResolveDirection(dirRef, dec)

		posMat := geom.Identity()
		if posRef, ok := e.RefAt(1); ok {
			posMat = ifcproc.ResolveAxis2Placement3D(posRef, dec)
		}
		combined := accum.Mul(posMat)

		outRing := make([]geom.Vec3, len(profile.Outer))
		for i, p := range profile.Outer {
			outRing[i] = combined.TransformPoint(p)
		}
		outDir := combined.TransformNormal(localDir).Normalize()
		return outRing, outDir, d, true

	case "IFCBOOLEANCLIPPINGRESULT", "IFCBOOLEANRESULT":
		firstRef, fok := e.RefAt(1)
		if !fok {
			return nil, geom.Vec3{}, 0, false
		}
		return chaseExtrusionDepth(firstRef, dec, accum, hops+1)

	case "IFCMAPPEDITEM":
		mapRef, mok := e.RefAt(0)
		if !mok {
			return nil, geom.Vec3{}, 0, false
		}
		mapEntity, err := dec.DecodeByID(mapRef)
		if err != nil {
			return nil, geom.Vec3{}, 0, false
		}
		repRef, rok := mapEntity.RefAt(1)
		if !rok {
			return nil, geom.Vec3{}, 0, false
		}
		repEntity, err := dec.DecodeByID(repRef)
		if err != nil {
			return nil, geom.Vec3{}, 0, false
		}
		items, iok := repEntity.ListAt(3)
		if !iok || len(items) == 0 || items[0].Kind != step.AttrRef {
			return nil, geom.Vec3{}, 0, false
		}

		newAccum := accum
		if targetRef, tok := e.RefAt(1); tok {
			target := ifcproc.ResolveCartesianTransformOperator(targetRef, dec)
			newAccum = accum.Mul(target)
		}
		return chaseExtrusionDepth(items[0].Ref, dec, newAccum, hops+1)

	default:
		return nil, geom.Vec3{}, 0, false
	}
}

func worldVertices(m *geom.Mesh) []geom.Vec3 {
	pts := make([]geom.Vec3, m.VertexCount())
	for i := range pts {
		pts[i] = m.Vertex(i)
	}
	return pts
}

// countUniqueVertices dedups by rounding to micrometer precision, since
// the processors that emit opening meshes don't share vertex indices
// across triangles.
func countUniqueVertices(m *geom.Mesh) int {
	seen := make(map[[3]int64]struct{}, m.VertexCount())
	const scale = 1e6
	for i := 0; i < m.VertexCount(); i++ {
		v := m.Vertex(i)
		key := [3]int64{
			int64(v.X * scale),
			int64(v.Y * scale),
			int64(v.Z * scale),
		}
		seen[key] = struct{}{}
	}
	return len(seen)
}
