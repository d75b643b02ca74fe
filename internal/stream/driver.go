package stream

import (
	"runtime"

	"github.com/google/uuid"

	"github.com/arx-os/ifcgeom/internal/collab"
	"github.com/arx-os/ifcgeom/internal/common/logger"
	"github.com/arx-os/ifcgeom/internal/common/progress"
	"github.com/arx-os/ifcgeom/internal/geom"
	"github.com/arx-os/ifcgeom/internal/metrics"
	"github.com/arx-os/ifcgeom/internal/router"
	"github.com/arx-os/ifcgeom/internal/step"
	"github.com/arx-os/ifcgeom/internal/voids"
)

// defaultBatchSize is the configurable batch size's fallback when
// Options.BatchSize is unset.
const defaultBatchSize = 25

// Options configures a Driver run. Zero-value Options is valid: it
// resolves to one worker per CPU (runtime.NumCPU), the default batch size
// and no metadata collaborators. Sequential forces a single worker.
type Options struct {
	BatchSize  int
	Workers    int
	Sequential bool
	Progress   ProgressFunc
	Metrics    *metrics.Pipeline

	// MaxOpeningsPerHost and MaxCSGOpsPerHost override the void
	// engine's per-host budgets; zero keeps the defaults.
	MaxOpeningsPerHost int
	MaxCSGOpsPerHost   int

	// RTCThreshold overrides the rebasing engagement magnitude in
	// meters; zero keeps the default.
	RTCThreshold float64

	PropertyExtractor       collab.PropertyExtractor
	SpatialHierarchyBuilder collab.SpatialHierarchyBuilder
	StyleResolver           collab.StyleResolver
}

func (o Options) batchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return defaultBatchSize
}

func (o Options) metrics() *metrics.Pipeline {
	if o.Metrics != nil {
		return o.Metrics
	}
	return metrics.Nop()
}

func (o Options) workers() int {
	if o.Sequential {
		return 1
	}
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}

// Result is everything a completed Run produces.
type Result struct {
	RunID      string
	Preamble   Preamble
	Completion CompletionPayload

	DataModel        *collab.DataModel
	SpatialHierarchy *collab.SpatialHierarchy
}

// Driver orchestrates the two-phase streaming pass over a decoded file.
type Driver struct {
	Router  *router.Router
	Options Options
	Log     *logger.Logger
}

// NewDriver builds a Driver.
func NewDriver(r *router.Router, opts Options, log *logger.Logger) *Driver {
	return &Driver{Router: r, Options: opts, Log: log}
}

// Run executes the streaming pipeline: phase 1 over simple element
// types, BRep batch preprocessing, then phase 2 over everything else
// with full style/void resolution.
func (d *Driver) Run(idx *step.EntityIndex, dec *step.Decoder) (*Result, error) {
	runID := uuid.New().String()
	workers := d.Options.workers()

	emit := d.Options.Progress
	var tracker *progress.Tracker
	if emit == nil {
		tracker = progress.NewSilent(0, "ifcgeom stream "+runID)
		emit = func(b BatchProgress) { tracker.Step(b.Phase.String()) }
	}

	simpleIDs, complexIDs := classifyCandidates(idx)
	if tracker != nil {
		tracker.SetTotal(len(chunk(simpleIDs, d.Options.batchSize())) + len(chunk(complexIDs, d.Options.batchSize())))
	}

	rtcOffset, hasRTC := detectRTC(idx, dec, d.Router.UnitScale, d.Options.RTCThreshold)
	if hasRTC {
		d.Router.SetRTCOffset(rtcOffset)
	}

	styleResolver := d.Options.StyleResolver
	if styleResolver == nil {
		styleResolver = collab.NullStyleResolver{}
	}
	styleIdx, err := styleResolver.Resolve(idx, dec)
	if err != nil {
		styleIdx = collab.NewStyleIndex()
	}

	voidIdx := voids.BuildIndex(idx, dec)
	engine := voids.NewEngine(voidIdx, d.Router, d.Router.UnitScale, rtcOffset, hasRTC)
	engine.MaxOpenings = d.Options.MaxOpeningsPerHost
	engine.MaxCSGOps = d.Options.MaxCSGOpsPerHost
	engine.Metrics = d.Options.Metrics

	payload := CompletionPayload{TotalCandidates: len(simpleIDs) + len(complexIDs)}

	mtr := d.Options.metrics()

	batchIdx := 0
	for _, batch := range chunk(simpleIDs, d.Options.batchSize()) {
		results := d.processBatch(batch, dec, nil, styleIdx, &payload, workers, mtr)
		emit(BatchProgress{Phase: PhaseSimple, BatchIndex: batchIdx, Elements: results})
		mtr.BatchesEmitted.WithLabelValues(PhaseSimple.String()).Inc()
		batchIdx++
	}

	d.Router.RunBRepBatchPreprocess(idx, dec, workers)

	batchIdx = 0
	for _, batch := range chunk(complexIDs, d.Options.batchSize()) {
		results := d.processBatch(batch, dec, engine, styleIdx, &payload, workers, mtr)
		emit(BatchProgress{Phase: PhaseComplex, BatchIndex: batchIdx, Elements: results})
		mtr.BatchesEmitted.WithLabelValues(PhaseComplex.String()).Inc()
		batchIdx++
		runtime.Gosched()
	}

	if tracker != nil {
		tracker.Finish()
	}

	res := &Result{
		RunID:      runID,
		Preamble:   Preamble{RTC: rtcOffset, HasRTC: hasRTC},
		Completion: payload,
	}

	if d.Options.PropertyExtractor != nil {
		dm, err := d.Options.PropertyExtractor.Extract(idx, dec)
		if err == nil {
			res.DataModel = &dm
			if d.Options.SpatialHierarchyBuilder != nil {
				sh := d.Options.SpatialHierarchyBuilder.Build(dm, dec)
				res.SpatialHierarchy = &sh
			}
		} else if d.Log != nil {
			d.Log.Warn("stream: property extraction failed: %v", err)
		}
	}

	return res, nil
}

// processBatch processes one batch of candidate element ids, applying
// void subtraction (when eng is non-nil, i.e. phase 2) and style
// resolution, and folding failures into payload's counters instead of
// propagating them.
func (d *Driver) processBatch(ids []uint32, dec *step.Decoder, eng *voids.Engine, styleIdx *collab.StyleIndex, payload *CompletionPayload, workers int, mtr *metrics.Pipeline) []ElementResult {
	slots := make([]processSlot, len(ids))

	process := func(i int) {
		id := ids[i]
		slots[i] = d.processOne(id, dec, eng, styleIdx)
	}

	if workers <= 1 {
		for i := range ids {
			process(i)
		}
	} else {
		runBounded(len(ids), workers, process)
	}

	results := make([]ElementResult, 0, len(ids))
	for _, s := range slots {
		switch s.kind {
		case 0:
			results = append(results, s.result)
			mtr.ElementsProcessed.WithLabelValues("ok").Inc()
		case 1:
			payload.EmptyRepresentation++
			mtr.ElementsProcessed.WithLabelValues("empty_representation").Inc()
		case 2:
			payload.DecodeFailed++
			mtr.ElementsProcessed.WithLabelValues("decode_failed").Inc()
		case 3:
			payload.ProcessFailed++
			mtr.ElementsProcessed.WithLabelValues("process_failed").Inc()
		case 4:
			payload.EmptyMesh++
			mtr.ElementsProcessed.WithLabelValues("empty_mesh").Inc()
		case 5:
			payload.OutlierFiltered++
			mtr.ElementsProcessed.WithLabelValues("outlier_filtered").Inc()
		}
	}
	return results
}

type processSlot struct {
	result ElementResult
	kind   int // 0=ok, 1=emptyRepresentation, 2=decodeFailed, 3=processFailed, 4=emptyMesh, 5=outlier
}

func (d *Driver) processOne(id uint32, dec *step.Decoder, eng *voids.Engine, styleIdx *collab.StyleIndex) processSlot {
	product, err := dec.DecodeByID(id)
	if err != nil {
		return processSlot{kind: 2}
	}
	typeName := product.Type
	if _, ok := product.RefAt(6); !ok {
		return processSlot{kind: 1}
	}

	mesh, err := d.Router.ProcessElement(id, dec)
	if err != nil {
		if d.Log != nil {
			d.Log.Warn("stream: element #%d failed: %v", id, err)
		}
		return processSlot{kind: 3}
	}
	if mesh.Empty() {
		return processSlot{kind: 4}
	}

	if eng != nil && eng.Index.IsHost(id) {
		placement := geom.Identity()
		if placementRef, ok := product.RefAt(5); ok {
			placement = router.ScaledPlacement(placementRef, dec, d.Router.UnitScale)
		}
		subtracted, err := eng.Subtract(id, mesh, placement, dec)
		if err == nil {
			mesh = subtracted
		}
	}

	if isOutlierMesh(mesh) {
		if d.Log != nil {
			d.Log.Warn("stream: element #%d discarded as an outlier", id)
		}
		return processSlot{kind: 5}
	}

	color := [4]float32{1, 1, 1, 1}
	if itemRef, ok := firstBodyItemRef(id, dec); ok {
		if c, ok := styleIdx.ColorForItems([]uint32{itemRef}); ok {
			color = c
		}
	}

	return processSlot{
		kind: 0,
		result: ElementResult{
			ExpressID:   id,
			IFCTypeName: typeName,
			Mesh:        *mesh,
			ColorRGBA:   color,
		},
	}
}
