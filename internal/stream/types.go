// Package stream implements the two-phase streaming driver: a
// fast first pass over "simple" element types for early visual
// feedback, followed by a second pass over everything else once BRep
// batch preprocessing has primed the router's caches.
package stream

import (
	"github.com/arx-os/ifcgeom/internal/geom"
)

// RTCOffset is the rebasing translation applied to every emitted mesh
// when the file's coordinates are far enough from the origin.
type RTCOffset = geom.Vec3

// ElementResult is one processed element's wire-shaped output.
type ElementResult struct {
	ExpressID   uint32
	IFCTypeName string
	Mesh        geom.Mesh
	ColorRGBA   [4]float32
}

// Preamble is the header payload a consumer receives before any
// element batches: the RTC offset in effect for this run, and the
// building's true-north rotation when known.
//
// BuildingRotation is always nil today; nothing in this pipeline derives
// a building's IfcSite/IfcBuilding rotation yet, so the field exists to
// let a future implementation report it without changing this struct's
// shape.
type Preamble struct {
	RTC              RTCOffset
	HasRTC           bool
	BuildingRotation *float64
}

// CompletionPayload is the aggregate counters emitted once a run
// finishes (nothing in the core is fatal,
// every failure is localized and counted instead).
type CompletionPayload struct {
	TotalCandidates     int
	EmptyRepresentation int
	DecodeFailed        int
	ProcessFailed       int
	EmptyMesh           int
	OutlierFiltered     int
}

// Phase identifies which of the two streaming passes a BatchProgress
// notification belongs to.
type Phase int

const (
	PhaseSimple Phase = iota
	PhaseComplex
)

func (p Phase) String() string {
	if p == PhaseComplex {
		return "complex"
	}
	return "simple"
}

// BatchProgress is delivered once per emitted batch.
type BatchProgress struct {
	Phase      Phase
	BatchIndex int
	Elements   []ElementResult
}

// ProgressFunc receives each batch as it is emitted. The default
// (installed when Options.Progress is nil) drives a *progress.Tracker
// instead of a bespoke callback, matching the progress-reporting
// idiom.
type ProgressFunc func(BatchProgress)
