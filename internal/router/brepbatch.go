package router

import (
	"sync"

	"github.com/arx-os/ifcgeom/internal/geom"
	"github.com/arx-os/ifcgeom/internal/ifcproc"
	"github.com/arx-os/ifcgeom/internal/step"
)

// faceLoop is one face's extracted (but not yet triangulated) polygon,
// tagged with the FacetedBrep id it belongs to so results can be
// regrouped after the parallel triangulation batch.
type faceLoop struct {
	brepID uint32
	outer  []geom.Vec3
	holes  [][]geom.Vec3
}

// RunBRepBatchPreprocess collects every FacetedBrep id,
// extract all face polygons sequentially via fast paths, triangulate
// every face across every BRep in one parallel batch bounded by
// workers, then regroup by BRep id and install the merged meshes into
// the router's batch cache. A workers value of 1 runs the
// triangulation step inline (the single-threaded/Sequential path — the
// phase split is preserved either way, only the dispatch of phase 3
// changes).
func (r *Router) RunBRepBatchPreprocess(idx *step.EntityIndex, dec *step.Decoder, workers int) {
	var brepIDs []uint32
	for _, id := range idx.IDsInOrder() {
		if t, ok := idx.TypeName(id); ok && t == "IFCFACETEDBREP" {
			brepIDs = append(brepIDs, id)
		}
	}
	if len(brepIDs) == 0 {
		return
	}

	// Phase 1 + 2: extract every face's loop data sequentially.
	var faces []faceLoop
	for _, brepID := range brepIDs {
		entity, err := dec.DecodeByID(brepID)
		if err != nil {
			continue
		}
		shellRef, ok := entity.RefAt(0)
		if !ok {
			continue
		}
		faceRefs, ok := dec.GetEntityRefListFast(shellRef)
		if !ok {
			continue
		}
		for _, faceRef := range faceRefs {
			outer, holes, err := ifcproc.ExtractFaceLoops(faceRef, dec)
			if err != nil {
				continue
			}
			faces = append(faces, faceLoop{brepID: brepID, outer: outer, holes: holes})
		}
	}
	if len(faces) == 0 {
		return
	}

	// Phase 3: triangulate every face in one parallel batch.
	meshes := make([]*geom.Mesh, len(faces))
	triangulate := func(i int) {
		meshes[i] = geom.TriangulatePlanarFace(faces[i].outer, faces[i].holes)
	}
	if workers <= 1 {
		for i := range faces {
			triangulate(i)
		}
	} else {
		runBounded(len(faces), workers, triangulate)
	}

	// Phase 4: regroup by BRep id and install into the cache.
	merged := make(map[uint32]*geom.Mesh, len(brepIDs))
	for i, f := range faces {
		m := merged[f.brepID]
		if m == nil {
			m = &geom.Mesh{}
			merged[f.brepID] = m
		}
		geom.Merge(m, meshes[i])
	}
	for id, m := range merged {
		r.Cache.PutBRepBatch(id, m)
	}
}

// runBounded runs fn(0..n-1) across at most workers concurrent
// goroutines, following the same sync.WaitGroup fan-out idiom used
// elsewhere in the pack for parallel sub-step execution, with a
// buffered channel as the bound on concurrency.
func runBounded(n, workers int, fn func(i int)) {
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(i)
		}(i)
	}
	wg.Wait()
}
