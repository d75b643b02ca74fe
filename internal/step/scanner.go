package step

import (
	"bytes"
	"fmt"
)

// ByteRange is a half-open-on-neither-end span into the source buffer: it
// covers the leading '#' through and including the terminating ';'.
type ByteRange struct {
	Start int
	End   int // inclusive of the trailing ';'
}

// Header is the cheap, allocation-light result of scanning one entity: its
// id, its canonical (uppercase) type name, and the byte range of the
// whole statement.
type Header struct {
	ID       uint32
	TypeName string
	Range    ByteRange
}

// ScanError reports that the scanner could not make sense of the bytes
// starting at Offset; the scan is aborted from that point on but every
// Header already produced remains valid.
type ScanError struct {
	Offset int
	Reason string
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("step: scan error at offset %d: %s", e.Offset, e.Reason)
}

// Scan walks buf once, left to right, calling emit for every well-formed
// "#id=TYPE(...);" statement it finds in the DATA section. It returns
// early with a *ScanError if it finds a '#' that is not followed by a
// valid header; every Header already emitted before that point stands,
// matching the "abort the scan; partial results remain valid" contract.
//
// Scan does not interpret HEADER/ENDSEC/DATA section markers — callers
// only care about numbered instances, and unnumbered keywords never start
// with '#' so they are skipped for free by the '#'-search.
func Scan(buf []byte, emit func(Header)) error {
	pos := 0
	n := len(buf)
	for {
		idx := bytes.IndexByte(buf[pos:], '#')
		if idx < 0 {
			return nil
		}
		start := pos + idx
		cursor := start + 1

		id, idEnd, ok := scanUint(buf, cursor)
		if !ok {
			return &ScanError{Offset: start, Reason: "expected integer after '#'"}
		}
		cursor = idEnd

		cursor = skipSpace(buf, cursor)
		if cursor >= n || buf[cursor] != '=' {
			return &ScanError{Offset: start, Reason: "expected '=' after entity id"}
		}
		cursor++
		cursor = skipSpace(buf, cursor)

		typeStart := cursor
		for cursor < n && isTypeChar(buf[cursor]) {
			cursor++
		}
		if cursor == typeStart {
			return &ScanError{Offset: start, Reason: "expected type identifier"}
		}
		typeName := canonicalTypeName(buf[typeStart:cursor])

		semi := bytes.IndexByte(buf[cursor:], ';')
		if semi < 0 {
			return &ScanError{Offset: start, Reason: "unterminated entity (no ';')"}
		}
		end := cursor + semi // index of ';'

		emit(Header{
			ID:       id,
			TypeName: typeName,
			Range:    ByteRange{Start: start, End: end},
		})

		pos = end + 1
		if pos >= n {
			return nil
		}
	}
}

func isTypeChar(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_' ||
		(b >= 'a' && b <= 'z')
}

// canonicalTypeName upper-cases a type identifier so "#45=IfcWall(...)"
// and "#45=IFCWALL(...)" index identically. The common all-caps case
// allocates once, like string().
func canonicalTypeName(b []byte) string {
	lower := false
	for _, c := range b {
		if c >= 'a' && c <= 'z' {
			lower = true
			break
		}
	}
	if !lower {
		return string(b)
	}
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

func skipSpace(buf []byte, i int) int {
	for i < len(buf) {
		switch buf[i] {
		case ' ', '\t', '\r', '\n':
			i++
		default:
			return i
		}
	}
	return i
}

// scanUint parses a non-negative decimal integer starting at i without
// allocating a string, returning the value, the index just past the last
// digit, and whether any digit was consumed.
func scanUint(buf []byte, i int) (uint32, int, bool) {
	start := i
	var v uint64
	for i < len(buf) && buf[i] >= '0' && buf[i] <= '9' {
		v = v*10 + uint64(buf[i]-'0')
		i++
	}
	if i == start {
		return 0, start, false
	}
	return uint32(v), i, true
}
