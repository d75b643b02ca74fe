package voids

import (
	"github.com/arx-os/ifcgeom/internal/csg"
	"github.com/arx-os/ifcgeom/internal/geom"
	"github.com/arx-os/ifcgeom/internal/ifcproc"
	"github.com/arx-os/ifcgeom/internal/metrics"
	"github.com/arx-os/ifcgeom/internal/router"
	"github.com/arx-os/ifcgeom/internal/step"
)

// defaultMaxOpeningsPerHost is the per-host clamp: hosts with more
// openings than this skip void subtraction entirely (complex curtain
// walls). defaultMaxCSGOpsPerHost bounds the expensive non-rectangular
// differences a single host may spend.
const (
	defaultMaxOpeningsPerHost = 15
	defaultMaxCSGOpsPerHost   = 10
)

// Engine carries everything the void-subtraction pass needs beyond a
// single host's base mesh: the void index, a router to process opening
// elements the same way any other product is processed, and the
// unit-scale/RTC settings already in effect for this file.
type Engine struct {
	Index     *Index
	Router    *router.Router
	UnitScale float64
	RTCOffset geom.Vec3
	HasRTC    bool

	// MaxOpenings and MaxCSGOps override the per-host budgets; zero
	// means the default.
	MaxOpenings int
	MaxCSGOps   int

	// Metrics, when set, receives void/CSG counters.
	Metrics *metrics.Pipeline
}

// NewEngine builds an Engine with the default budgets.
func NewEngine(index *Index, r *router.Router, unitScale float64, rtcOffset geom.Vec3, hasRTC bool) *Engine {
	return &Engine{Index: index, Router: r, UnitScale: unitScale, RTCOffset: rtcOffset, HasRTC: hasRTC}
}

func (eng *Engine) maxOpenings() int {
	if eng.MaxOpenings > 0 {
		return eng.MaxOpenings
	}
	return defaultMaxOpeningsPerHost
}

func (eng *Engine) maxCSGOps() int {
	if eng.MaxCSGOps > 0 {
		return eng.MaxCSGOps
	}
	return defaultMaxCSGOpsPerHost
}

func (eng *Engine) countCut() {
	if eng.Metrics != nil {
		eng.Metrics.VoidsCut.Inc()
	}
}

// Subtract carves the host's openings: given a host's already-processed,
// world-space base mesh, removes every registered opening and applies
// any additional clipping planes from the host's own BooleanClippingResult
// chain. hostPlacement is the host's full world placement matrix
// (already unit-scaled), the same one the router applied to baseMesh,
// needed again here to bring each opening's raw extrusion direction and
// profile ring into world space.
func (eng *Engine) Subtract(hostRef uint32, baseMesh *geom.Mesh, hostPlacement geom.Mat4, dec *step.Decoder) (*geom.Mesh, error) {
	openingRefs := eng.Index.OpeningsFor(hostRef)
	if len(openingRefs) == 0 {
		return baseMesh, nil
	}
	if len(openingRefs) > eng.maxOpenings() {
		if eng.Metrics != nil {
			eng.Metrics.VoidsSkipped.WithLabelValues("over_budget").Add(float64(len(openingRefs)))
		}
		return baseMesh, nil
	}

	hostAABB := csg.FromPoints(worldVertices(baseMesh))
	result := baseMesh
	csgOps := 0

	for _, openingRef := range openingRefs {
		openingMesh, err := eng.Router.ProcessElement(openingRef, dec)
		if err != nil || openingMesh.Empty() {
			continue
		}
		itemRef, ok := firstBodyItemRef(openingRef, dec)
		if !ok {
			continue
		}

		openingPlacement := eng.openingPlacementMatrix(openingRef, dec)
		op := Classify(openingRef, openingMesh, itemRef, dec, openingPlacement, eng.UnitScale, eng.RTCOffset, eng.HasRTC)
		extended := ExtendAlongDirection(op.WorldAABB, hostAABB, op.Direction)

		switch op.Kind {
		case OpeningRectangular, OpeningDiagonal:
			result = csg.SubtractBox(result, extended)
			eng.countCut()
		case OpeningNonRectangular:
			if len(op.WorldRing) >= 3 && op.Depth != 0 && csgOps < eng.maxCSGOps() {
				csgOps++
				if eng.Metrics != nil {
					eng.Metrics.CSGOperations.Inc()
				}
				planes := csg.PrismPlanes(op.WorldRing, op.Direction, op.Depth)
				cut, err := csg.SubtractConvex(result, planes)
				if err != nil {
					// CSGFailure recovery: keep the
					// pre-CSG mesh for this opening, move on to the next.
					if eng.Metrics != nil {
						eng.Metrics.CSGFailures.Inc()
					}
					continue
				}
				result = cut
				eng.countCut()
			} else {
				result = csg.SubtractBox(result, extended)
				eng.countCut()
			}
		}
	}

	if hostItemRef, ok := firstBodyItemRef(hostRef, dec); ok {
		for _, pl := range collectClipPlanes(hostItemRef, dec, geom.Identity()) {
			worldPl := worldPlane(pl, hostPlacement, eng.UnitScale, eng.RTCOffset, eng.HasRTC)
			result = csg.ClipMesh(result, worldPl, false)
		}
	}

	return result, nil
}

// openingPlacementMatrix resolves an opening element's own world
// placement (ObjectPlacement, attribute 5), the "element placement" that
// the classifier combines with the extrusion item's own Position axes.
func (eng *Engine) openingPlacementMatrix(openingRef uint32, dec *step.Decoder) geom.Mat4 {
	opening, err := dec.DecodeByID(openingRef)
	if err != nil {
		return geom.Identity()
	}
	placementRef, ok := opening.RefAt(5)
	if !ok {
		return geom.Identity()
	}
	return router.ScaledPlacement(placementRef, dec, eng.UnitScale)
}

// firstBodyItemRef resolves productRef's Representation to its first
// accepted-type shape representation's first item, the same resolution
// the router performs per element but stopping short of dispatching it,
// since the void engine needs the raw item id to chase extrusion data
// rather than a triangulated mesh.
func firstBodyItemRef(productRef uint32, dec *step.Decoder) (uint32, bool) {
	product, err := dec.DecodeByID(productRef)
	if err != nil {
		return 0, false
	}
	repRef, ok := product.RefAt(6)
	if !ok {
		return 0, false
	}
	shapeEntity, err := dec.DecodeByID(repRef)
	if err != nil {
		return 0, false
	}
	shapeRepRefs, ok := shapeEntity.ListAt(2)
	if !ok {
		return 0, false
	}
	for _, ref := range shapeRepRefs {
		if ref.Kind != step.AttrRef {
			continue
		}
		se, err := dec.DecodeByID(ref.Ref)
		if err != nil {
			continue
		}
		items, ok := se.ListAt(3)
		if !ok || len(items) == 0 || items[0].Kind != step.AttrRef {
			continue
		}
		return items[0].Ref, true
	}
	return 0, false
}

// collectClipPlanes walks a BooleanClippingResult/MappedItem chain the
// same way chaseExtrusion does, but collects every SecondOperand
// half-space as a local-space plane instead of following FirstOperand's
// solid. Bounded by the same maxChaseDepth cap.
func collectClipPlanes(itemRef uint32, dec *step.Decoder, accum geom.Mat4) []csg.Plane {
	return collectClipPlanesDepth(itemRef, dec, accum, 0)
}

func collectClipPlanesDepth(itemRef uint32, dec *step.Decoder, accum geom.Mat4, hops int) []csg.Plane {
	if hops >= maxChaseDepth {
		return nil
	}
	e, err := dec.DecodeByID(itemRef)
	if err != nil {
		return nil
	}
	switch e.Type {
	case "IFCBOOLEANCLIPPINGRESULT", "IFCBOOLEANRESULT":
		var planes []csg.Plane
		if firstRef, ok := e.RefAt(1); ok {
			planes = append(planes, collectClipPlanesDepth(firstRef, dec, accum, hops+1)...)
		}
		if secondRef, ok := e.RefAt(2); ok {
			if pl, ok := halfSpacePlane(secondRef, dec, accum); ok {
				planes = append(planes, pl)
			}
		}
		return planes
	case "IFCMAPPEDITEM":
		mapRef, ok := e.RefAt(0)
		if !ok {
			return nil
		}
		mapEntity, err := dec.DecodeByID(mapRef)
		if err != nil {
			return nil
		}
		repRef, ok := mapEntity.RefAt(1)
		if !ok {
			return nil
		}
		repEntity, err := dec.DecodeByID(repRef)
		if err != nil {
			return nil
		}
		items, ok := repEntity.ListAt(3)
		if !ok {
			return nil
		}
		newAccum := accum
		if targetRef, ok := e.RefAt(1); ok {
			newAccum = accum.Mul(ifcproc.ResolveCartesianTransformOperator(targetRef, dec))
		}
		var planes []csg.Plane
		for _, item := range items {
			if item.Kind != step.AttrRef {
				continue
			}
			planes = append(planes, collectClipPlanesDepth(item.Ref, dec, newAccum, hops+1)...)
		}
		return planes
	default:
		return nil
	}
}

// halfSpacePlane resolves an IfcPolygonalBoundedHalfSpace or
// IfcHalfSpaceSolid's defining plane (Position, or the BaseSurface's
// Position when unbounded), applying AgreementFlag.
func halfSpacePlane(ref uint32, dec *step.Decoder, accum geom.Mat4) (csg.Plane, bool) {
	e, err := dec.DecodeByID(ref)
	if err != nil {
		return csg.Plane{}, false
	}
	switch e.Type {
	case "IFCPOLYGONALBOUNDEDHALFSPACE", "IFCHALFSPACESOLID":
		agree := true
		if a, ok := e.BoolAt(1); ok {
			agree = a
		}
		posRef, ok := e.RefAt(2)
		if !ok {
			baseRef, bok := e.RefAt(0)
			if !bok {
				return csg.Plane{}, false
			}
			baseEntity, err := dec.DecodeByID(baseRef)
			if err != nil {
				return csg.Plane{}, false
			}
			posRef, ok = baseEntity.RefAt(0)
			if !ok {
				return csg.Plane{}, false
			}
		}
		frame := accum.Mul(ifcproc.ResolveAxis2Placement3D(posRef, dec))
		origin := frame.TransformPoint(geom.Vec3{})
		normal := frame.TransformNormal(geom.Vec3{Z: 1}).Normalize()
		if !agree {
			normal = normal.Neg()
		}
		return csg.NewPlane(origin, normal), true
	default:
		return csg.Plane{}, false
	}
}

// worldPlane brings a plane computed in an element's own local chain
// into world space: scale the origin's offset from the origin by unit
// scale, apply the full placement, then subtract the RTC offset.
func worldPlane(pl csg.Plane, placementMat geom.Mat4, unitScale float64, rtcOffset geom.Vec3, hasRTC bool) csg.Plane {
	origin := placementMat.TransformPoint(pl.Point.Scale(unitScale))
	if hasRTC {
		origin = origin.Sub(rtcOffset)
	}
	normal := placementMat.TransformNormal(pl.Normal).Normalize()
	return csg.NewPlane(origin, normal)
}
