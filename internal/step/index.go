package step

// EntityIndex maps an entity id to its byte range in the source buffer.
// It is built once by a full scan and is read-only afterward, so a single
// *EntityIndex can be shared by every worker goroutine decoding entities
// in parallel without any synchronization.
type EntityIndex struct {
	ranges map[uint32]ByteRange
	types  map[uint32]string
	ids    []uint32 // in scan (byte-offset) order, for deterministic iteration
}

// BuildEntityIndex scans buf end to end and returns the resulting index.
// A *ScanError is returned if the scan aborted early; the index still
// contains every entity found before the error and is safe to use.
func BuildEntityIndex(buf []byte) (*EntityIndex, error) {
	capacityHint := len(buf)/50 + 16
	idx := &EntityIndex{
		ranges: make(map[uint32]ByteRange, capacityHint),
		types:  make(map[uint32]string, capacityHint),
		ids:    make([]uint32, 0, capacityHint),
	}
	err := Scan(buf, func(h Header) {
		idx.ranges[h.ID] = h.Range
		idx.types[h.ID] = h.TypeName
		idx.ids = append(idx.ids, h.ID)
	})
	return idx, err
}

// Len returns the number of indexed entities.
func (idx *EntityIndex) Len() int { return len(idx.ids) }

// Range returns the byte range for id, or (ByteRange{}, false) if unknown.
func (idx *EntityIndex) Range(id uint32) (ByteRange, bool) {
	r, ok := idx.ranges[id]
	return r, ok
}

// TypeName returns the scanned type name for id without decoding
// attributes, or ("", false) if id is not indexed.
func (idx *EntityIndex) TypeName(id uint32) (string, bool) {
	t, ok := idx.types[id]
	return t, ok
}

// IDsInOrder returns every indexed id in scanner (byte-offset) order.
// The returned slice is owned by the index; callers must not mutate it.
func (idx *EntityIndex) IDsInOrder() []uint32 { return idx.ids }
