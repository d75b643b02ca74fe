// Package collab holds the metadata-side collaborators named but not
// implemented by the geometry core itself: property/quantity/relationship
// extraction and spatial-hierarchy construction run alongside geometry
// work when this package is hosted in a larger service, and style
// resolution feeds ElementResult.ColorRGBA back into the streaming driver.
package collab

import (
	"github.com/arx-os/ifcgeom/internal/step"
)

// RGBA is a straight [4]float32-shaped color, matching the wire
// encoding's color_rgba field.
type RGBA [4]float32

// StyleIndex maps both representation-item ids and element (product) ids
// to a resolved RGBA color, built by following
// IfcStyledItem -> IfcPresentationStyleAssignment -> IfcSurfaceStyle -> ...
// to an IfcColourRgb. GeometryItemColor is populated directly from the
// IfcStyledItem scan; ElementColor is created empty and no resolver or
// driver in this module fills it.
type StyleIndex struct {
	GeometryItemColor map[uint32]RGBA
	ElementColor       map[uint32]RGBA
}

// NewStyleIndex returns an empty, non-nil StyleIndex.
func NewStyleIndex() *StyleIndex {
	return &StyleIndex{
		GeometryItemColor: make(map[uint32]RGBA),
		ElementColor:      make(map[uint32]RGBA),
	}
}

// ColorForItems returns the first resolved color among itemRefs, the
// per-geometry-item lookup that MappedItem resolution chases
// through.
func (s *StyleIndex) ColorForItems(itemRefs []uint32) (RGBA, bool) {
	for _, ref := range itemRefs {
		if c, ok := s.GeometryItemColor[ref]; ok {
			return c, true
		}
	}
	return RGBA{}, false
}

// StyleResolver builds a StyleIndex for a decoded file. A nil-returning
// error and an empty index are both valid "no style data" outcomes.
type StyleResolver interface {
	Resolve(idx *step.EntityIndex, dec *step.Decoder) (*StyleIndex, error)
}

// NullStyleResolver always returns an empty StyleIndex, matching the
// "empty for now" placeholder idiom so
// geometry-only runs still work without style data.
type NullStyleResolver struct{}

func (NullStyleResolver) Resolve(*step.EntityIndex, *step.Decoder) (*StyleIndex, error) {
	return NewStyleIndex(), nil
}

// IfcStyledItemResolver is the real StyleResolver: it scans every
// IfcStyledItem in the file and chases its Styles to a concrete color.
type IfcStyledItemResolver struct{}

func (IfcStyledItemResolver) Resolve(idx *step.EntityIndex, dec *step.Decoder) (*StyleIndex, error) {
	out := NewStyleIndex()
	for _, id := range idx.IDsInOrder() {
		t, ok := idx.TypeName(id)
		if !ok || t != "IFCSTYLEDITEM" {
			continue
		}
		e, err := dec.DecodeByID(id)
		if err != nil {
			continue
		}
		itemRef, ok := e.RefAt(0)
		if !ok {
			continue
		}
		styleRefs, ok := e.ListAt(1)
		if !ok {
			continue
		}
		for _, sr := range styleRefs {
			if sr.Kind != step.AttrRef {
				continue
			}
			if c, ok := resolveStyleColor(sr.Ref, dec, 0); ok {
				out.GeometryItemColor[itemRef] = c
				break
			}
		}
	}
	return out, nil
}

// maxStyleChaseDepth bounds the Styles -> Styles -> ... recursion
// against a malformed or cyclic style graph.
const maxStyleChaseDepth = 8

// resolveStyleColor walks IfcPresentationStyleAssignment and
// IfcSurfaceStyle's Styles lists down to an IfcSurfaceStyleRendering or
// IfcSurfaceStyleShading's SurfaceColour, and from there to the
// IfcColourRgb components.
func resolveStyleColor(ref uint32, dec *step.Decoder, depth int) (RGBA, bool) {
	if depth >= maxStyleChaseDepth {
		return RGBA{}, false
	}
	e, err := dec.DecodeByID(ref)
	if err != nil {
		return RGBA{}, false
	}
	switch e.Type {
	case "IFCPRESENTATIONSTYLEASSIGNMENT":
		styles, ok := e.ListAt(0)
		if !ok {
			return RGBA{}, false
		}
		for _, s := range styles {
			if s.Kind != step.AttrRef {
				continue
			}
			if c, ok := resolveStyleColor(s.Ref, dec, depth+1); ok {
				return c, true
			}
		}
		return RGBA{}, false
	case "IFCSURFACESTYLE":
		styles, ok := e.ListAt(2)
		if !ok {
			return RGBA{}, false
		}
		for _, s := range styles {
			if s.Kind != step.AttrRef {
				continue
			}
			if c, ok := resolveStyleColor(s.Ref, dec, depth+1); ok {
				return c, true
			}
		}
		return RGBA{}, false
	case "IFCSURFACESTYLERENDERING", "IFCSURFACESTYLESHADING":
		colourRef, ok := e.RefAt(0)
		if !ok {
			return RGBA{}, false
		}
		alpha := float32(1.0)
		if transparency, ok := e.FloatAt(1); ok {
			alpha = float32(1.0 - transparency)
		}
		rgb, err := dec.DecodeByID(colourRef)
		if err != nil || rgb.Type != "IFCCOLOURRGB" {
			return RGBA{}, false
		}
		r, _ := rgb.FloatAt(1)
		g, _ := rgb.FloatAt(2)
		b, _ := rgb.FloatAt(3)
		return RGBA{float32(r), float32(g), float32(b), alpha}, true
	default:
		return RGBA{}, false
	}
}
