package router

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/arx-os/ifcgeom/internal/geom"
)

// ContentHash computes a non-cryptographic hash over a mesh's vertex
// count, index count, every position bit-pattern and every index.
// Collisions are assumed to be position-equivalent meshes —
// the dedup cache never compares full mesh contents on a hit. xxhash is
// already a transitive dependency of the pack (pulled in by ristretto);
// promoting it to direct use here gives content hashing the same
// non-cryptographic speed FxHasher gives the original tool without
// inventing a hash of our own.
func ContentHash(m *geom.Mesh) uint64 {
	if m == nil {
		return 0
	}
	vertexCount, indexCount, positions, indices := geom.ContentHashInput(m)

	h := xxhash.New()
	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(vertexCount))
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(indexCount))
	h.Write(hdr[:])

	buf := make([]byte, 4)
	for _, f := range positions {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(f))
		h.Write(buf)
	}
	for _, idx := range indices {
		binary.LittleEndian.PutUint32(buf, idx)
		h.Write(buf)
	}
	return h.Sum64()
}
