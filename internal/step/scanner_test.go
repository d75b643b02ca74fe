package step

import "testing"

func TestScan_BasicEntities(t *testing.T) {
	src := []byte("#1=IFCDIRECTION((0.,0.,1.));\n#2=IFCRECTANGLEPROFILEDEF(.AREA.,$,$,1000.,200.);\n#3=IFCEXTRUDEDAREASOLID(#2,$,#1,3000.);")

	var headers []Header
	err := Scan(src, func(h Header) { headers = append(headers, h) })
	if err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	if len(headers) != 3 {
		t.Fatalf("expected 3 entities, got %d", len(headers))
	}
	if headers[0].ID != 1 || headers[0].TypeName != "IFCDIRECTION" {
		t.Errorf("unexpected header[0]: %+v", headers[0])
	}
	if headers[2].ID != 3 || headers[2].TypeName != "IFCEXTRUDEDAREASOLID" {
		t.Errorf("unexpected header[2]: %+v", headers[2])
	}
	// range must cover '#'..';' inclusive
	r := headers[0].Range
	if src[r.Start] != '#' || src[r.End] != ';' {
		t.Errorf("range does not bound the statement: %q", src[r.Start:r.End+1])
	}
}

func TestScan_WhitespaceAndCaseTolerant(t *testing.T) {
	src := []byte("#45 = IfcWall($,$,$,$,$,$,$,$,$);")
	var got []Header
	if err := Scan(src, func(h Header) { got = append(got, h) }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != 45 {
		t.Fatalf("expected one entity id 45, got %+v", got)
	}
	if got[0].TypeName != "IFCWALL" {
		t.Fatalf("expected canonical uppercase type name, got %q", got[0].TypeName)
	}
}

func TestScan_AbortsOnMalformedHeader(t *testing.T) {
	src := []byte("#1=IFCDIRECTION((0.,0.,1.));\n#BAD\n#3=IFCEXTRUDEDAREASOLID(#2,$,#1,3000.);")
	var got []Header
	err := Scan(src, func(h Header) { got = append(got, h) })
	if err == nil {
		t.Fatalf("expected scan error for malformed header")
	}
	if len(got) != 1 {
		t.Fatalf("expected partial results (1 entity) before abort, got %d", len(got))
	}
}

func TestScan_AbortsOnUnterminatedEntity(t *testing.T) {
	src := []byte("#1=IFCDIRECTION((0.,0.,1.))")
	var got []Header
	err := Scan(src, func(h Header) { got = append(got, h) })
	if err == nil {
		t.Fatalf("expected scan error for unterminated entity")
	}
	if len(got) != 0 {
		t.Fatalf("expected no results, got %d", len(got))
	}
}

func TestBuildEntityIndex(t *testing.T) {
	src := []byte("#1=IFCDIRECTION((0.,0.,1.));#2=IFCRECTANGLEPROFILEDEF(.AREA.,$,$,1000.,200.);")
	idx, err := BuildEntityIndex(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Len() != 2 {
		t.Fatalf("expected 2 entities, got %d", idx.Len())
	}
	typ, ok := idx.TypeName(2)
	if !ok || typ != "IFCRECTANGLEPROFILEDEF" {
		t.Errorf("expected IFCRECTANGLEPROFILEDEF for #2, got %q ok=%v", typ, ok)
	}
	order := idx.IDsInOrder()
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("expected scan order [1 2], got %v", order)
	}
}
