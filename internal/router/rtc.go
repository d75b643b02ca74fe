package router

import (
	"sort"

	"github.com/arx-os/ifcgeom/internal/geom"
	"github.com/arx-os/ifcgeom/internal/step"
)

// rtcSampleSize caps how many building-element placements are sampled
// to estimate the RTC offset. Sampling in scanner order rather
// than randomly keeps void-subtraction and RTC output deterministic
// across runs on the same file.
const rtcSampleSize = 50

// defaultRTCThresholdMeters is the absolute per-component magnitude
// above which the model is considered far enough from the origin to
// need rebasing.
const defaultRTCThresholdMeters = 10000.0

// DetectRTCOffset samples up to rtcSampleSize element placement
// translations (already unit-scaled by the caller) in scanner order,
// takes their component-wise median, and returns it as the RTC offset
// if any component exceeds threshold in magnitude (non-positive
// threshold means the default). ok is false when no rebasing is
// needed.
func DetectRTCOffset(elementPlacementRefs []uint32, dec *step.Decoder, unitScale, threshold float64) (offset geom.Vec3, ok bool) {
	if threshold <= 0 {
		threshold = defaultRTCThresholdMeters
	}
	n := len(elementPlacementRefs)
	if n > rtcSampleSize {
		n = rtcSampleSize
	}
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	zs := make([]float64, 0, n)
	for _, ref := range elementPlacementRefs[:n] {
		mat := ResolvePlacement(ref, dec)
		t := mat.Translation().Scale(unitScale)
		xs = append(xs, t.X)
		ys = append(ys, t.Y)
		zs = append(zs, t.Z)
	}
	if len(xs) == 0 {
		return geom.Vec3{}, false
	}
	offset = geom.Vec3{X: median(xs), Y: median(ys), Z: median(zs)}
	if absMax(offset) <= threshold {
		return geom.Vec3{}, false
	}
	return offset, true
}

func median(vals []float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func absMax(v geom.Vec3) float64 {
	m := abs(v.X)
	if a := abs(v.Y); a > m {
		m = a
	}
	if a := abs(v.Z); a > m {
		m = a
	}
	return m
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// ApplyRTC subtracts offset from every position in m, leaving normals
// untouched; rebasing is a pure translation.
func ApplyRTC(m *geom.Mesh, offset geom.Vec3) {
	geom.SubtractOffset(m, offset.X, offset.Y, offset.Z)
}
