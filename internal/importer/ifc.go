// Package importer handles bringing an IFC STEP file into the
// pipeline: format sniffing, header metadata, and resolution of the
// model's length-unit scale.
package importer

import (
	"bytes"
	"strings"

	"github.com/arx-os/ifcgeom/internal/step"
)

// FileInfo is the HEADER-section metadata of a STEP file.
type FileInfo struct {
	Schema      string
	Name        string
	Description string
}

// CanImport reports whether data looks like an ISO 10303-21 file.
func CanImport(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(head, []byte("ISO-10303-21"))
}

// ReadFileInfo extracts FILE_SCHEMA, FILE_NAME and FILE_DESCRIPTION
// from the HEADER section. Missing fields stay empty; the header ends
// at ENDSEC so the scan never touches the DATA section.
func ReadFileInfo(data []byte) FileInfo {
	var info FileInfo

	end := bytes.Index(data, []byte("ENDSEC"))
	if end < 0 {
		end = len(data)
	}
	header := data[:end]

	info.Schema = firstQuoted(header, "FILE_SCHEMA")
	info.Name = firstQuoted(header, "FILE_NAME")
	info.Description = firstQuoted(header, "FILE_DESCRIPTION")
	return info
}

// firstQuoted returns the first single-quoted string after the keyword.
func firstQuoted(data []byte, keyword string) string {
	i := bytes.Index(data, []byte(keyword))
	if i < 0 {
		return ""
	}
	rest := data[i+len(keyword):]
	open := bytes.IndexByte(rest, '\'')
	if open < 0 {
		return ""
	}
	rest = rest[open+1:]
	n := bytes.IndexByte(rest, '\'')
	if n < 0 {
		return ""
	}
	return string(rest[:n])
}

// siPrefixFactors maps an IfcSIPrefix enum to its power of ten.
var siPrefixFactors = map[string]float64{
	"EXA": 1e18, "PETA": 1e15, "TERA": 1e12, "GIGA": 1e9,
	"MEGA": 1e6, "KILO": 1e3, "HECTO": 1e2, "DECA": 1e1,
	"DECI": 1e-1, "CENTI": 1e-2, "MILLI": 1e-3, "MICRO": 1e-6,
	"NANO": 1e-9, "PICO": 1e-12, "FEMTO": 1e-15, "ATTO": 1e-18,
}

// UnitScale resolves the factor that converts the file's length unit
// to meters by finding the IfcSIUnit with UnitType LENGTHUNIT and
// reading its prefix. Files without one (or with a non-SI length unit)
// get 1.0.
func UnitScale(idx *step.EntityIndex, dec *step.Decoder) float64 {
	for _, id := range idx.IDsInOrder() {
		t, ok := idx.TypeName(id)
		if !ok || t != "IFCSIUNIT" {
			continue
		}
		e, err := dec.DecodeByID(id)
		if err != nil {
			continue
		}
		unitType, ok := e.EnumAt(1)
		if !ok || unitType != "LENGTHUNIT" {
			continue
		}
		prefix, ok := e.EnumAt(2)
		if !ok || prefix == "" {
			return 1.0 // plain METRE
		}
		if f, ok := siPrefixFactors[strings.ToUpper(prefix)]; ok {
			return f
		}
		return 1.0
	}
	return 1.0
}
