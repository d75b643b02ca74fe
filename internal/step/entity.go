// Package step implements a zero-copy scanner and lazy decoder for ISO
// 10303-21 (STEP) textual exchange files, the envelope format IFC uses.
//
// Decoding is permissive: an entity that fails to decode yields an error
// for that entity alone and leaves every other entity decodable. Scanning
// stops at the first malformed statement header or unterminated
// statement; BuildEntityIndex then returns the entities indexed before
// that point together with a *ScanError.
package step

// AttrKind tags the variant held by an Attribute.
type AttrKind uint8

const (
	AttrNull    AttrKind = iota // IFC '$' (unset) or '*' (derived)
	AttrString                  // 'quoted text'
	AttrInt                     // bare integer literal
	AttrFloat                   // bare real literal
	AttrBool                    // .T. / .F.
	AttrEnum                    // .SOMEENUM.
	AttrRef                     // #123
	AttrList                    // (a, b, c) — nested attributes
)

// Attribute is a tagged-sum value: exactly one of the typed fields below is
// meaningful, selected by Kind. Keeping all variants inline avoids an
// interface{} box per attribute, which matters at IFC scale (an element's
// attribute list is walked millions of times across a large file).
type Attribute struct {
	Kind  AttrKind
	Str   string
	Int   int64
	Float float64
	Bool  bool
	Ref   uint32
	List  []Attribute
}

// STEP writes '*' for a derived attribute ("computed by the
// implementation") and '$' for one that is simply unset. This package
// decodes both as AttrNull and does not record which glyph produced it;
// no accessor tells them apart, since no processor in this pipeline needs
// the distinction.

// Entity is an immutable decoded STEP instance: an id, an uppercase type
// name, and a positional attribute list. Entities are never mutated after
// Decode returns one; callers needing a modified view copy fields out.
type Entity struct {
	ID         uint32
	Type       string
	Attributes []Attribute
}

// Attr returns the attribute at position i, or the zero Attribute (Kind
// AttrNull) if i is out of range. Positional access matches the STEP
// convention that attribute order is the schema's order, not named fields.
func (e *Entity) Attr(i int) Attribute {
	if i < 0 || i >= len(e.Attributes) {
		return Attribute{Kind: AttrNull}
	}
	return e.Attributes[i]
}

// RefAt returns the entity-reference id at position i and true, or
// (0, false) if that attribute is not a reference.
func (e *Entity) RefAt(i int) (uint32, bool) {
	a := e.Attr(i)
	if a.Kind != AttrRef {
		return 0, false
	}
	return a.Ref, true
}

// FloatAt returns the numeric value at position i, accepting either an
// integer or real literal (STEP does not always round-trip "3.0" vs "3").
func (e *Entity) FloatAt(i int) (float64, bool) {
	a := e.Attr(i)
	switch a.Kind {
	case AttrFloat:
		return a.Float, true
	case AttrInt:
		return float64(a.Int), true
	default:
		return 0, false
	}
}

// StringAt returns the string value at position i.
func (e *Entity) StringAt(i int) (string, bool) {
	a := e.Attr(i)
	if a.Kind != AttrString {
		return "", false
	}
	return a.Str, true
}

// EnumAt returns the bare enum token (without the surrounding dots) at
// position i, e.g. ".AREA." decodes to "AREA".
func (e *Entity) EnumAt(i int) (string, bool) {
	a := e.Attr(i)
	if a.Kind != AttrEnum {
		return "", false
	}
	return a.Str, true
}

// BoolAt returns the logical value at position i (.T. / .F.).
func (e *Entity) BoolAt(i int) (bool, bool) {
	a := e.Attr(i)
	if a.Kind != AttrBool {
		return false, false
	}
	return a.Bool, true
}

// ListAt returns the nested attribute list at position i.
func (e *Entity) ListAt(i int) ([]Attribute, bool) {
	a := e.Attr(i)
	if a.Kind != AttrList {
		return nil, false
	}
	return a.List, true
}

// IsNull reports whether the attribute at position i is unset ($) or
// derived (*).
func (e *Entity) IsNull(i int) bool {
	return e.Attr(i).Kind == AttrNull
}
