// Package ifc is the facade over the geometry pipeline: it wires the
// scanner, decoder, router, void engine and streaming driver together
// behind a single Process call.
package ifc

import (
	"context"
	"fmt"

	"github.com/arx-os/ifcgeom/internal/collab"
	"github.com/arx-os/ifcgeom/internal/common/logger"
	"github.com/arx-os/ifcgeom/internal/config"
	"github.com/arx-os/ifcgeom/internal/converter"
	"github.com/arx-os/ifcgeom/internal/ifcproc"
	"github.com/arx-os/ifcgeom/internal/importer"
	"github.com/arx-os/ifcgeom/internal/metrics"
	"github.com/arx-os/ifcgeom/internal/router"
	"github.com/arx-os/ifcgeom/internal/step"
	"github.com/arx-os/ifcgeom/internal/stream"
)

// dedupCacheCostBytes sizes the geometry cache's cost-bounded layer,
// the batch-triangulated FacetedBrep meshes. The content-hash dedup map
// itself has no bound.
const dedupCacheCostBytes = 256 << 20

// ProcessResult is everything one per-element run produces.
type ProcessResult struct {
	FileInfo  importer.FileInfo
	UnitScale float64
	Elements  []stream.ElementResult
	Run       *stream.Result
}

// InstancedResult is the alternative, geometry-shared output.
type InstancedResult struct {
	FileInfo  importer.FileInfo
	UnitScale float64
	Instanced *converter.InstancedSet
	Run       *stream.Result
}

// Service is the processing contract the use case layer consumes.
type Service interface {
	Process(ctx context.Context, data []byte) (*ProcessResult, error)
	ProcessInstanced(ctx context.Context, data []byte) (*InstancedResult, error)
}

// GeometryService implements Service with the native pipeline.
type GeometryService struct {
	cfg config.GeometryConfig
	log *logger.Logger
	mtr *metrics.Pipeline

	propertyExtractor collab.PropertyExtractor
	hierarchyBuilder  collab.SpatialHierarchyBuilder
	styleResolver     collab.StyleResolver
}

// NewGeometryService builds a GeometryService. log and mtr may be nil.
func NewGeometryService(cfg config.GeometryConfig, log *logger.Logger, mtr *metrics.Pipeline) *GeometryService {
	return &GeometryService{cfg: cfg, log: log, mtr: mtr}
}

// WithCollaborators attaches the metadata extractors the driver calls
// after geometry completes. Any of them may be nil.
func (s *GeometryService) WithCollaborators(pe collab.PropertyExtractor, hb collab.SpatialHierarchyBuilder, sr collab.StyleResolver) *GeometryService {
	s.propertyExtractor = pe
	s.hierarchyBuilder = hb
	s.styleResolver = sr
	return s
}

// prepare builds the per-run pipeline pieces shared by both output
// modes.
func (s *GeometryService) prepare(data []byte) (*step.EntityIndex, *step.Decoder, *stream.Driver, importer.FileInfo, float64, error) {
	if !importer.CanImport(data) {
		return nil, nil, nil, importer.FileInfo{}, 0, fmt.Errorf("ifc: input is not an ISO 10303-21 file")
	}
	info := importer.ReadFileInfo(data)

	idx, err := step.BuildEntityIndex(data)
	if err != nil {
		return nil, nil, nil, info, 0, fmt.Errorf("ifc: failed to index file: %w", err)
	}
	dec := step.NewDecoder(data, idx)

	unitScale := s.cfg.UnitScaleOverride
	if unitScale == 0 {
		unitScale = importer.UnitScale(idx, dec)
	}

	cache, err := router.NewGeometryCache(dedupCacheCostBytes)
	if err != nil {
		return nil, nil, nil, info, 0, fmt.Errorf("ifc: failed to build geometry cache: %w", err)
	}
	registry := ifcproc.NewRegistry()
	pctx := ifcproc.DefaultContext()
	pctx.Dispatch = registry.BindDispatch(dec, pctx)
	rt := router.NewRouter(registry, cache, pctx, unitScale, s.log)

	driver := stream.NewDriver(rt, stream.Options{
		BatchSize:  s.cfg.BatchSize,
		Workers:    s.cfg.WorkerPoolSize,
		Sequential: s.cfg.Sequential,
		Metrics:    s.mtr,

		MaxOpeningsPerHost: s.cfg.MaxOpeningsPerHost,
		MaxCSGOpsPerHost:   s.cfg.MaxCSGOperationsPerHost,
		RTCThreshold:       s.cfg.RTCThreshold,

		PropertyExtractor:       s.propertyExtractor,
		SpatialHierarchyBuilder: s.hierarchyBuilder,
		StyleResolver:           s.styleResolver,
	}, s.log)

	return idx, dec, driver, info, unitScale, nil
}

// Process runs the two-phase streaming pipeline and collects every
// emitted element.
func (s *GeometryService) Process(ctx context.Context, data []byte) (*ProcessResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx, dec, driver, info, unitScale, err := s.prepare(data)
	if err != nil {
		return nil, err
	}

	var elements []stream.ElementResult
	inner := driver.Options.Progress
	driver.Options.Progress = func(b stream.BatchProgress) {
		elements = append(elements, b.Elements...)
		if inner != nil {
			inner(b)
		}
	}

	run, err := driver.Run(idx, dec)
	if err != nil {
		return nil, fmt.Errorf("ifc: streaming run failed: %w", err)
	}

	return &ProcessResult{
		FileInfo:  info,
		UnitScale: unitScale,
		Elements:  elements,
		Run:       run,
	}, nil
}

// ProcessInstanced runs the geometry-shared output mode.
func (s *GeometryService) ProcessInstanced(ctx context.Context, data []byte) (*InstancedResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx, dec, driver, info, unitScale, err := s.prepare(data)
	if err != nil {
		return nil, err
	}

	run, set, err := driver.RunInstanced(idx, dec)
	if err != nil {
		return nil, fmt.Errorf("ifc: instanced run failed: %w", err)
	}

	return &InstancedResult{
		FileInfo:  info,
		UnitScale: unitScale,
		Instanced: set,
		Run:       run,
	}, nil
}
