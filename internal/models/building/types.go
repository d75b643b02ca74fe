// Package building holds the plain-data summary of a processed model:
// what the file contained, how it is organized spatially, and what the
// geometry pass produced. Assembled by the use case layer, consumed by
// reporting.
package building

import (
	"sort"
	"time"
)

// Model summarizes one processed IFC file.
type Model struct {
	Name       string    `json:"name"`
	SourceKey  string    `json:"source_key"`
	Schema     string    `json:"schema,omitempty"`
	ImportedAt time.Time `json:"imported_at"`

	Storeys []Storey `json:"storeys,omitempty"`

	// ElementCounts maps an IFC type name to how many elements of that
	// type produced geometry.
	ElementCounts map[string]int `json:"element_counts,omitempty"`

	Stats Stats `json:"stats"`
}

// Storey is one building level.
type Storey struct {
	EntityID     uint32   `json:"entity_id"`
	Name         string   `json:"name"`
	Elevation    *float64 `json:"elevation,omitempty"`
	ElementCount int      `json:"element_count"`
}

// Stats aggregates the geometry pass.
type Stats struct {
	ElementsEmitted int `json:"elements_emitted"`
	Triangles       int `json:"triangles"`
	Vertices        int `json:"vertices"`

	// Instanced-view numbers; zero when the run emitted per-element
	// meshes.
	SharedGeometries int `json:"shared_geometries,omitempty"`
	Instances        int `json:"instances,omitempty"`

	DecodeFailed    int `json:"decode_failed"`
	ProcessFailed   int `json:"process_failed"`
	EmptyMesh       int `json:"empty_mesh"`
	OutlierFiltered int `json:"outlier_filtered"`

	HasRTC    bool       `json:"has_rtc"`
	RTCOffset [3]float64 `json:"rtc_offset,omitempty"`
}

// AddElement folds one emitted element into the counts.
func (m *Model) AddElement(typeName string, vertices, triangles int) {
	if m.ElementCounts == nil {
		m.ElementCounts = make(map[string]int)
	}
	m.ElementCounts[typeName]++
	m.Stats.ElementsEmitted++
	m.Stats.Vertices += vertices
	m.Stats.Triangles += triangles
}

// SortedTypes returns the element type names in descending count
// order, ties broken alphabetically.
func (m *Model) SortedTypes() []string {
	types := make([]string, 0, len(m.ElementCounts))
	for t := range m.ElementCounts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		if m.ElementCounts[types[i]] != m.ElementCounts[types[j]] {
			return m.ElementCounts[types[i]] > m.ElementCounts[types[j]]
		}
		return types[i] < types[j]
	})
	return types
}
