// Package converter turns processed geometry into output formats: the
// instanced view that groups identical meshes under one geometry with
// many placed instances, and JSON serialization of either view.
package converter

import (
	"github.com/arx-os/ifcgeom/internal/geom"
	"github.com/arx-os/ifcgeom/internal/router"
)

// Instance is one placed occurrence of a shared geometry.
type Instance struct {
	ExpressID uint32      `json:"express_id"`
	Transform [16]float32 `json:"transform_matrix_column_major"`
	ColorRGBA [4]float32  `json:"color_rgba"`
}

// InstancedGeometry is one shared mesh plus every instance that
// references it.
type InstancedGeometry struct {
	GeometryID uint64     `json:"geometry_id"`
	Positions  []float32  `json:"positions"`
	Normals    []float32  `json:"normals"`
	Indices    []uint32   `json:"indices"`
	Instances  []Instance `json:"instances"`
}

// InstancedSet accumulates shared geometries in first-seen order.
type InstancedSet struct {
	Geometries []InstancedGeometry `json:"geometries"`

	byHash map[uint64]int
}

// NewInstancedSet creates an empty set.
func NewInstancedSet() *InstancedSet {
	return &InstancedSet{byHash: make(map[uint64]int)}
}

// Add records one element's geometry. Elements whose content hash has
// been seen before join the existing geometry as a new instance.
func (s *InstancedSet) Add(eg *router.ElementGeometry, expressID uint32, color [4]float32) {
	if eg == nil || eg.Mesh.Empty() {
		return
	}

	inst := Instance{
		ExpressID: expressID,
		Transform: eg.Transform.ColumnMajorF32(),
		ColorRGBA: color,
	}

	if i, ok := s.byHash[eg.Hash]; ok {
		s.Geometries[i].Instances = append(s.Geometries[i].Instances, inst)
		return
	}

	s.byHash[eg.Hash] = len(s.Geometries)
	s.Geometries = append(s.Geometries, InstancedGeometry{
		GeometryID: eg.Hash,
		Positions:  eg.Mesh.Positions,
		Normals:    eg.Mesh.Normals,
		Indices:    eg.Mesh.Indices,
		Instances:  []Instance{inst},
	})
}

// InstanceCount returns the total number of instances across all
// geometries.
func (s *InstancedSet) InstanceCount() int {
	n := 0
	for i := range s.Geometries {
		n += len(s.Geometries[i].Instances)
	}
	return n
}

// SharedMesh returns the mesh stored for hash, for callers that want to
// inspect a geometry without scanning the slice.
func (s *InstancedSet) SharedMesh(hash uint64) (*geom.Mesh, bool) {
	i, ok := s.byHash[hash]
	if !ok {
		return nil, false
	}
	g := &s.Geometries[i]
	return &geom.Mesh{Positions: g.Positions, Normals: g.Normals, Indices: g.Indices}, true
}
