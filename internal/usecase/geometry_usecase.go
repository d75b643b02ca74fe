// Package usecase implements the application-level flows: fetch a
// model from storage, run it through the geometry service, summarize
// the result, and optionally persist the exported document.
package usecase

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/arx-os/ifcgeom/internal/common/logger"
	"github.com/arx-os/ifcgeom/internal/converter"
	"github.com/arx-os/ifcgeom/internal/infrastructure/ifc"
	"github.com/arx-os/ifcgeom/internal/models/building"
	"github.com/arx-os/ifcgeom/internal/storage"
	"github.com/arx-os/ifcgeom/internal/stream"
)

// GeometryUseCase ties storage, the geometry service and reporting
// together for the CLI.
type GeometryUseCase struct {
	store   *storage.Manager
	service ifc.Service
	log     *logger.Logger
}

// NewGeometryUseCase creates a GeometryUseCase.
func NewGeometryUseCase(store *storage.Manager, service ifc.Service, log *logger.Logger) *GeometryUseCase {
	return &GeometryUseCase{store: store, service: service, log: log}
}

// ProcessOptions selects the output mode and destination.
type ProcessOptions struct {
	// Instanced emits the geometry-shared view instead of per-element
	// meshes.
	Instanced bool
	// OutputKey, when set, writes the exported JSON document to
	// storage under this key.
	OutputKey string
	// Pretty indents the exported document.
	Pretty bool
}

// ProcessResult is the use case's outcome: the summary model and, when
// exported, the output location.
type ProcessResult struct {
	Model     *building.Model
	OutputKey string
}

// ProcessFile fetches sourceKey from storage, runs the pipeline, and
// returns the summary.
func (uc *GeometryUseCase) ProcessFile(ctx context.Context, sourceKey string, opts ProcessOptions) (*ProcessResult, error) {
	data, err := uc.store.Get(ctx, sourceKey)
	if err != nil {
		return nil, fmt.Errorf("usecase: failed to fetch %s: %w", sourceKey, err)
	}

	model := &building.Model{
		Name:       strings.TrimSuffix(path.Base(sourceKey), path.Ext(sourceKey)),
		SourceKey:  sourceKey,
		ImportedAt: time.Now().UTC(),
	}

	doc := &converter.Document{}

	if opts.Instanced {
		result, err := uc.service.ProcessInstanced(ctx, data)
		if err != nil {
			return nil, err
		}
		model.Schema = result.FileInfo.Schema
		fillStats(&model.Stats, result.Run)
		model.Stats.SharedGeometries = len(result.Instanced.Geometries)
		model.Stats.Instances = result.Instanced.InstanceCount()
		for i := range result.Instanced.Geometries {
			g := &result.Instanced.Geometries[i]
			model.Stats.Vertices += len(g.Positions) / 3 * len(g.Instances)
			model.Stats.Triangles += len(g.Indices) / 3 * len(g.Instances)
		}

		doc.Instanced = result.Instanced
		doc.Preamble = preambleOf(result.Run)
		doc.Completion = completionOf(result.Run)
	} else {
		result, err := uc.service.Process(ctx, data)
		if err != nil {
			return nil, err
		}
		model.Schema = result.FileInfo.Schema
		fillStats(&model.Stats, result.Run)
		for i := range result.Elements {
			el := &result.Elements[i]
			model.AddElement(el.IFCTypeName, el.Mesh.VertexCount(), el.Mesh.TriangleCount())
			doc.Elements = append(doc.Elements, converter.ElementPayload{
				ExpressID:   el.ExpressID,
				IFCTypeName: el.IFCTypeName,
				Positions:   el.Mesh.Positions,
				Normals:     el.Mesh.Normals,
				Indices:     el.Mesh.Indices,
				ColorRGBA:   el.ColorRGBA,
			})
		}
		model.Storeys = storeysOf(result.Run)
		doc.Preamble = preambleOf(result.Run)
		doc.Completion = completionOf(result.Run)
	}

	out := &ProcessResult{Model: model}
	if opts.OutputKey != "" {
		var payload []byte
		if opts.Pretty {
			payload, err = doc.MarshalIndent()
		} else {
			payload, err = doc.Marshal()
		}
		if err != nil {
			return nil, err
		}
		if err := uc.store.Put(ctx, opts.OutputKey, payload); err != nil {
			return nil, fmt.Errorf("usecase: failed to write %s: %w", opts.OutputKey, err)
		}
		out.OutputKey = opts.OutputKey
		if uc.log != nil {
			uc.log.Info("usecase: wrote %d bytes to %s", len(payload), opts.OutputKey)
		}
	}

	return out, nil
}

func fillStats(stats *building.Stats, run *stream.Result) {
	c := run.Completion
	stats.DecodeFailed = c.DecodeFailed
	stats.ProcessFailed = c.ProcessFailed
	stats.EmptyMesh = c.EmptyMesh
	stats.OutlierFiltered = c.OutlierFiltered
	stats.ElementsEmitted = c.TotalCandidates - c.EmptyRepresentation - c.DecodeFailed - c.ProcessFailed - c.EmptyMesh - c.OutlierFiltered
	if run.Preamble.HasRTC {
		stats.HasRTC = true
		stats.RTCOffset = [3]float64{run.Preamble.RTC.X, run.Preamble.RTC.Y, run.Preamble.RTC.Z}
	}
}

func preambleOf(run *stream.Result) converter.PreamblePayload {
	rtc := run.Preamble.RTC
	return converter.PreamblePayload{
		RTCOffsetX:       rtc.X,
		RTCOffsetY:       rtc.Y,
		RTCOffsetZ:       rtc.Z,
		HasRTC:           run.Preamble.HasRTC,
		BuildingRotation: run.Preamble.BuildingRotation,
	}
}

func completionOf(run *stream.Result) converter.CompletionPayload {
	c := run.Completion
	return converter.CompletionPayload{
		TotalCandidates:     c.TotalCandidates,
		EmptyRepresentation: c.EmptyRepresentation,
		DecodeFailed:        c.DecodeFailed,
		ProcessFailed:       c.ProcessFailed,
		EmptyMesh:           c.EmptyMesh,
		OutlierFiltered:     c.OutlierFiltered,
	}
}

// storeysOf lifts the spatial hierarchy, when the run collected one,
// into the summary's storey list.
func storeysOf(run *stream.Result) []building.Storey {
	if run.SpatialHierarchy == nil {
		return nil
	}
	var storeys []building.Storey
	for _, n := range run.SpatialHierarchy.Nodes {
		if n.TypeName != "IFCBUILDINGSTOREY" {
			continue
		}
		storeys = append(storeys, building.Storey{
			EntityID:     n.EntityID,
			Name:         n.Name,
			Elevation:    n.Elevation,
			ElementCount: len(n.ElementIDs),
		})
	}
	return storeys
}
