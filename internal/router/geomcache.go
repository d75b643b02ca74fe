package router

import (
	"sync"

	"github.com/dgraph-io/ristretto"

	"github.com/arx-os/ifcgeom/internal/geom"
)

// GeometryCache holds the router's three caching layers: MappedItem
// sources, batch-triangulated BReps, and content-hash deduplication.
// The BRep batch layer rides on ristretto for bounded memory; the
// MappedItem and dedup layers are plain mutex-guarded maps that live
// for a single run and have no size bound.
type GeometryCache struct {
	mappedItemMu sync.RWMutex
	mappedItem   map[uint32]*geom.Mesh // layer i: RepresentationMap id -> untransformed mesh

	dedupMu sync.RWMutex
	dedup   map[uint64]*geom.Mesh // layer ii: content hash -> mesh

	brepBatch *ristretto.Cache // layer iii: FacetedBrep id -> mesh, bounded by cost
}

// NewGeometryCache builds a GeometryCache with the BRep batch layer
// sized for maxCostBytes of approximate mesh memory (position+index
// byte counts serve as the ristretto cost).
func NewGeometryCache(maxCostBytes int64) (*GeometryCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxCostBytes / 10,
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &GeometryCache{
		mappedItem: make(map[uint32]*geom.Mesh),
		dedup:      make(map[uint64]*geom.Mesh),
		brepBatch:  c,
	}, nil
}

// GetMappedItem returns the cached untransformed mesh for a
// RepresentationMap id.
func (c *GeometryCache) GetMappedItem(mapID uint32) (*geom.Mesh, bool) {
	c.mappedItemMu.RLock()
	defer c.mappedItemMu.RUnlock()
	m, ok := c.mappedItem[mapID]
	return m, ok
}

// PutMappedItem installs a RepresentationMap's processed mesh.
func (c *GeometryCache) PutMappedItem(mapID uint32, mesh *geom.Mesh) {
	c.mappedItemMu.Lock()
	defer c.mappedItemMu.Unlock()
	c.mappedItem[mapID] = mesh
}

// Dedup returns the canonical mesh for a content hash, installing mesh
// as the canonical copy on first sight; later identical meshes get
// the cached copy back.
func (c *GeometryCache) Dedup(hash uint64, mesh *geom.Mesh) *geom.Mesh {
	c.dedupMu.Lock()
	defer c.dedupMu.Unlock()
	if existing, ok := c.dedup[hash]; ok {
		return existing
	}
	c.dedup[hash] = mesh
	return mesh
}

// GetBRepBatch returns the batch-triangulated mesh for a FacetedBrep
// id, installed by the batch preprocess pass before the router's main
// element loop runs.
func (c *GeometryCache) GetBRepBatch(id uint32) (*geom.Mesh, bool) {
	v, ok := c.brepBatch.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*geom.Mesh), true
}

// PutBRepBatch installs a batch-triangulated BRep mesh, costed by its
// approximate byte size.
func (c *GeometryCache) PutBRepBatch(id uint32, mesh *geom.Mesh) {
	cost := int64(len(mesh.Positions)+len(mesh.Normals))*4 + int64(len(mesh.Indices))*4
	c.brepBatch.SetWithTTL(id, mesh, cost, 0)
	c.brepBatch.Wait()
}
