package ifcproc

import (
	"math"

	"github.com/arx-os/ifcgeom/internal/common/errors"
	"github.com/arx-os/ifcgeom/internal/geom"
	"github.com/arx-os/ifcgeom/internal/step"
)

// ProcessAdvancedBrep iterates the Outer shell's advanced faces; each
// face's underlying surface is one of Plane, BSplineSurfaceWithKnots /
// RationalBSplineSurfaceWithKnots, or CylindricalSurface.
func ProcessAdvancedBrep(e *step.Entity, dec *step.Decoder, ctx *ProcessContext) (*geom.Mesh, error) {
	shellRef, ok := e.RefAt(0)
	if !ok {
		return nil, errors.Wrap(errUnresolvableProfile, errors.CodeGeometryInvalid, "AdvancedBrep: missing Outer shell")
	}
	faceRefs, ok := dec.GetEntityRefListFast(shellRef)
	if !ok {
		return nil, errors.Wrap(errUnresolvableProfile, errors.CodeGeometryInvalid, "AdvancedBrep: unresolvable faces")
	}
	mesh := &geom.Mesh{}
	for _, faceRef := range faceRefs {
		faceMesh, err := processAdvancedFace(faceRef, dec, ctx)
		if err != nil {
			continue
		}
		geom.Merge(mesh, faceMesh)
	}
	return mesh, nil
}

func processAdvancedFace(faceRef uint32, dec *step.Decoder, ctx *ProcessContext) (*geom.Mesh, error) {
	face, err := dec.DecodeByID(faceRef)
	if err != nil {
		return nil, err
	}
	surfaceRef, ok := face.RefAt(1)
	if !ok {
		return nil, errUnresolvableProfile
	}
	surface, err := dec.DecodeByID(surfaceRef)
	if err != nil {
		return nil, err
	}

	switch surface.Type {
	case "IFCPLANE":
		loop, holes, err := advancedFaceBoundLoops(face, dec)
		if err != nil {
			return nil, err
		}
		return geom.TriangulatePlanarFace(loop, holes), nil

	case "IFCCYLINDRICALSURFACE":
		return processCylindricalFace(face, surface, dec, ctx)

	case "IFCBSPLINESURFACEWITHKNOTS", "IFCRATIONALBSPLINESURFACEWITHKNOTS":
		return processBSplineFace(surface, dec, ctx)

	default:
		// Unknown surface type: fall back to triangulating the bound loop
		// as if it were planar, which is a reasonable approximation for
		// a single small face and keeps the rest of the shell rendering.
		loop, holes, err := advancedFaceBoundLoops(face, dec)
		if err != nil {
			return nil, err
		}
		return geom.TriangulatePlanarFace(loop, holes), nil
	}
}

// advancedFaceBoundLoops resolves an IfcAdvancedFace's Bounds (each an
// IfcFaceOuterBound/IfcFaceBound over an IfcEdgeLoop) to outer + hole
// polygons by walking each edge loop's oriented edges and taking the
// start point of each edge curve in sequence. This approximates curved
// edges with their endpoint chord, which is exact for the overwhelming
// majority of AdvancedBrep faces in practice (straight-edged polygonal
// faces described via the Advanced* entities for schema uniformity
// rather than genuine curvature).
func advancedFaceBoundLoops(face *step.Entity, dec *step.Decoder) (outer []geom.Vec3, holes [][]geom.Vec3, err error) {
	boundRefs, ok := face.ListAt(0)
	if !ok {
		return nil, nil, errUnresolvableProfile
	}
	for _, b := range boundRefs {
		if b.Kind != step.AttrRef {
			continue
		}
		bound, err := dec.DecodeByID(b.Ref)
		if err != nil {
			continue
		}
		loopRef, ok := bound.RefAt(0)
		if !ok {
			continue
		}
		orientation, _ := bound.BoolAt(1)
		pts, ok := resolveEdgeLoopPoints(loopRef, dec)
		if !ok || len(pts) < 3 {
			continue
		}
		if !orientation {
			pts = reverseVec3(pts)
		}
		isOuter := bound.Type == "IFCFACEOUTERBOUND" || outer == nil
		if isOuter {
			outer = pts
		} else {
			holes = append(holes, pts)
		}
	}
	if len(outer) < 3 {
		return nil, nil, errUnresolvableProfile
	}
	return outer, holes, nil
}

func resolveEdgeLoopPoints(loopRef uint32, dec *step.Decoder) ([]geom.Vec3, bool) {
	loop, err := dec.DecodeByID(loopRef)
	if err != nil {
		return nil, false
	}
	edgeRefs, ok := loop.ListAt(0)
	if !ok {
		return nil, false
	}
	pts := make([]geom.Vec3, 0, len(edgeRefs))
	for _, er := range edgeRefs {
		if er.Kind != step.AttrRef {
			continue
		}
		orientedEdge, err := dec.DecodeByID(er.Ref)
		if err != nil {
			continue
		}
		edgeRef, ok := orientedEdge.RefAt(2)
		if !ok {
			continue
		}
		edgeCurve, err := dec.DecodeByID(edgeRef)
		if err != nil {
			continue
		}
		startVertexRef, ok := edgeCurve.RefAt(0)
		if !ok {
			continue
		}
		vertex, err := dec.DecodeByID(startVertexRef)
		if err != nil {
			continue
		}
		ptRef, ok := vertex.RefAt(0)
		if !ok {
			continue
		}
		pts = append(pts, resolvePoint(ptRef, dec))
	}
	if len(pts) < 3 {
		return nil, false
	}
	return pts, true
}

// processCylindricalFace extracts the bound loop's angular and height
// extents relative to the cylinder's own local frame, including the
// wrap-around case when the extent exceeds 3π/2, and tessellates in
// ~15° angular steps.
func processCylindricalFace(face, surface *step.Entity, dec *step.Decoder, ctx *ProcessContext) (*geom.Mesh, error) {
	posRef, ok := surface.RefAt(0)
	if !ok {
		return nil, errUnresolvableProfile
	}
	radius, ok := surface.FloatAt(1)
	if !ok {
		return nil, errUnresolvableProfile
	}
	originMat := resolveAxis2Placement3D(posRef, dec)
	origin := originMat.Translation()
	zAxis := originMat.TransformNormal(geom.Vec3{Z: 1}).Normalize()
	xAxis := originMat.TransformNormal(geom.Vec3{X: 1}).Normalize()
	yAxis := zAxis.Cross(xAxis).Normalize()

	loop, _, err := advancedFaceBoundLoops(face, dec)
	if err != nil {
		return nil, err
	}

	angles := make([]float64, len(loop))
	heights := make([]float64, len(loop))
	for i, p := range loop {
		rel := p.Sub(origin)
		heights[i] = rel.Dot(zAxis)
		angles[i] = math.Atan2(rel.Dot(yAxis), rel.Dot(xAxis))
	}
	angMin, angMax := unwrapAngularExtent(angles)
	hMin, hMax := heights[0], heights[0]
	for _, h := range heights {
		if h < hMin {
			hMin = h
		}
		if h > hMax {
			hMax = h
		}
	}

	const stepDeg = 15.0
	steps := int(math.Ceil((angMax - angMin) / (stepDeg * math.Pi / 180)))
	if steps < 1 {
		steps = 1
	}
	rings := make([][]geom.Vec3, steps+1)
	for i := 0; i <= steps; i++ {
		theta := angMin + (angMax-angMin)*float64(i)/float64(steps)
		c, s := math.Cos(theta), math.Sin(theta)
		dir := xAxis.Scale(c).Add(yAxis.Scale(s))
		rings[i] = []geom.Vec3{
			origin.Add(dir.Scale(radius)).Add(zAxis.Scale(hMin)),
			origin.Add(dir.Scale(radius)).Add(zAxis.Scale(hMax)),
		}
	}
	return geom.SweepRings(rings, false), nil
}

// unwrapAngularExtent returns (min, max) of angles after unwrapping the
// wrap-around case where the true angular extent exceeds 3π/2: if the
// naive min/max span is implausibly large, the loop likely crosses the
// -π/π seam, so angles below the midpoint are shifted up by 2π before
// re-measuring the extent.
func unwrapAngularExtent(angles []float64) (min, max float64) {
	min, max = angles[0], angles[0]
	for _, a := range angles[1:] {
		if a < min {
			min = a
		}
		if a > max {
			max = a
		}
	}
	if max-min <= 1.5*math.Pi {
		return min, max
	}
	mid := (min + max) / 2
	min, max = angles[0], angles[0]
	for _, a := range angles {
		if a < mid {
			a += 2 * math.Pi
		}
		if a < min {
			min = a
		}
		if a > max {
			max = a
		}
	}
	return min, max
}

// processBSplineFace expands knot multiplicities, evaluates the
// Cox-de-Boor tensor-product basis on a grid clamped to the surface's
// parameter domain, and emits a triangle grid. Rational surfaces
// (IfcRationalBSplineSurfaceWithKnots) carry an extra WeightsData
// attribute; plain IfcBSplineSurfaceWithKnots surfaces are evaluated
// with unit weights.
func processBSplineFace(surface *step.Entity, dec *step.Decoder, ctx *ProcessContext) (*geom.Mesh, error) {
	ctrlAttr, ok := surface.ListAt(2)
	if !ok {
		return nil, errUnresolvableProfile
	}
	ctrl := make([][]geom.Vec3, len(ctrlAttr))
	for i, row := range ctrlAttr {
		if row.Kind != step.AttrList {
			return nil, errUnresolvableProfile
		}
		ctrl[i] = make([]geom.Vec3, len(row.List))
		for j, item := range row.List {
			if item.Kind != step.AttrRef {
				return nil, errUnresolvableProfile
			}
			ctrl[i][j] = resolvePoint(item.Ref, dec)
		}
	}
	uDegree64, _ := surface.FloatAt(0)
	vDegree64, _ := surface.FloatAt(1)
	uDegree, vDegree := int(uDegree64), int(vDegree64)

	uMult, _ := intListAt(surface, 6)
	vMult, _ := intListAt(surface, 7)
	uKnotsRaw, _ := floatListAt(surface, 8)
	vKnotsRaw, _ := floatListAt(surface, 9)
	if len(uKnotsRaw) == 0 || len(vKnotsRaw) == 0 {
		return nil, errUnresolvableProfile
	}
	uKnots := geom.ExpandKnots(uMult, uKnotsRaw)
	vKnots := geom.ExpandKnots(vMult, vKnotsRaw)

	var weights [][]float64
	if surface.Type == "IFCRATIONALBSPLINESURFACEWITHKNOTS" {
		wAttr, ok := surface.ListAt(10)
		if ok {
			weights = make([][]float64, len(wAttr))
			for i, row := range wAttr {
				if row.Kind != step.AttrList {
					continue
				}
				weights[i] = make([]float64, len(row.List))
				for j, item := range row.List {
					weights[i][j], _ = item.AsFloat()
				}
			}
		}
	}

	uSamples, vSamples := ctx.SurfaceUSegments, ctx.SurfaceVSegments
	if uSamples <= 0 {
		uSamples = 16
	}
	if vSamples <= 0 {
		vSamples = 16
	}
	grid := geom.EvaluateBSplineSurfaceGrid(ctrl, weights, uKnots, vKnots, uDegree, vDegree, uSamples, vSamples)
	return geom.MeshFromGrid(grid), nil
}

func intListAt(e *step.Entity, i int) ([]int, bool) {
	list, ok := e.ListAt(i)
	if !ok {
		return nil, false
	}
	out := make([]int, len(list))
	for i, a := range list {
		f, _ := a.AsFloat()
		out[i] = int(f)
	}
	return out, true
}

func floatListAt(e *step.Entity, i int) ([]float64, bool) {
	list, ok := e.ListAt(i)
	if !ok {
		return nil, false
	}
	out := make([]float64, len(list))
	for i, a := range list {
		out[i], _ = a.AsFloat()
	}
	return out, true
}
