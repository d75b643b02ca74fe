// Package voids removes opening geometry (doors,
// windows, floor penetrations) from a host element's mesh, via AABB
// clipping for rectangular openings and convex-polyhedron CSG for
// everything else.
package voids

import "github.com/arx-os/ifcgeom/internal/step"

// Index is the void index: a mapping from
// host entity id to the set of its opening entity ids, plus the
// inverse lookup, built once from every IfcRelVoidsElement in the file
// and read-only during processing.
type Index struct {
	hostToOpenings map[uint32][]uint32
	openingToHost  map[uint32]uint32
}

// BuildIndex scans idx for IfcRelVoidsElement and records, per
// relationship, RelatingBuildingElement (the host) and
// RelatedOpeningElement (attributes 4 and 5 of the IfcRelVoidsElement
// entity, following IfcRelDecomposes' GlobalId/OwnerHistory/Name/
// Description/Relating.../Related... attribute order).
func BuildIndex(idx *step.EntityIndex, dec *step.Decoder) *Index {
	vi := &Index{
		hostToOpenings: make(map[uint32][]uint32),
		openingToHost:  make(map[uint32]uint32),
	}
	for _, id := range idx.IDsInOrder() {
		t, ok := idx.TypeName(id)
		if !ok || t != "IFCRELVOIDSELEMENT" {
			continue
		}
		rel, err := dec.DecodeByID(id)
		if err != nil {
			continue
		}
		hostRef, ok := rel.RefAt(4)
		if !ok {
			continue
		}
		openingRef, ok := rel.RefAt(5)
		if !ok {
			continue
		}
		vi.hostToOpenings[hostRef] = append(vi.hostToOpenings[hostRef], openingRef)
		vi.openingToHost[openingRef] = hostRef
	}
	return vi
}

// OpeningsFor returns the opening ids voiding host, or nil if host has
// none.
func (vi *Index) OpeningsFor(host uint32) []uint32 {
	return vi.hostToOpenings[host]
}

// HostFor returns the host id that opening voids, and whether one was
// found.
func (vi *Index) HostFor(opening uint32) (uint32, bool) {
	h, ok := vi.openingToHost[opening]
	return h, ok
}

// IsHost reports whether id has any recorded openings.
func (vi *Index) IsHost(id uint32) bool {
	return len(vi.hostToOpenings[id]) > 0
}
