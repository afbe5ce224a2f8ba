package aml

import "testing"

func TestParsePkgLengthSingleByte(t *testing.T) {
	length, encSize := parsePkgLength([]byte{0x0e})
	if length != 14 || encSize != 1 {
		t.Errorf("parsePkgLength(0x0e) = (%d, %d), want (14, 1)", length, encSize)
	}
}

func TestParsePkgLengthMultiByte(t *testing.T) {
	// lead byte 0x40 means 1 extra byte, low nibble 0x00; extra byte 0x10.
	// length = 0x00 | (0x10 << 4) = 0x100 = 256.
	length, encSize := parsePkgLength([]byte{0x40, 0x10})
	if length != 256 || encSize != 2 {
		t.Errorf("parsePkgLength(0x40,0x10) = (%d, %d), want (256, 2)", length, encSize)
	}
}

func TestParseNumConstant(t *testing.T) {
	if v := parseNumConstant([]byte{0x2a}, 1); v != 0x2a {
		t.Errorf("parseNumConstant byte = 0x%x, want 0x2a", v)
	}
	if v := parseNumConstant([]byte{0x34, 0x12}, 2); v != 0x1234 {
		t.Errorf("parseNumConstant word = 0x%x, want 0x1234", v)
	}
	if v := parseNumConstant([]byte{0x78, 0x56, 0x34, 0x12}, 4); v != 0x12345678 {
		t.Errorf("parseNumConstant dword = 0x%x, want 0x12345678", v)
	}
}

func TestParseAMLString(t *testing.T) {
	s, n := parseAMLString([]byte("hello\x00trailing"))
	if s != "hello" || n != 6 {
		t.Errorf("parseAMLString() = (%q, %d), want (\"hello\", 6)", s, n)
	}
}

func TestParseNameStringAbsolute(t *testing.T) {
	data := append([]byte("\\"), []byte("_SB_")...)
	p, n := parseNameString(data)
	if !p.root || len(p.segments) != 1 || p.segments[0] != "_SB_" {
		t.Errorf("parseNameString(%q) = %+v", data, p)
	}
	if n != len(data) {
		t.Errorf("consumed %d bytes, want %d", n, len(data))
	}
}

func TestParseNameStringDualAndMulti(t *testing.T) {
	dual := append([]byte{0x2e}, []byte("_SB_PCI0")...)
	p, n := parseNameString(dual)
	if len(p.segments) != 2 || p.segments[0] != "_SB_" || p.segments[1] != "PCI0" {
		t.Errorf("dual name path = %+v", p)
	}
	if n != len(dual) {
		t.Errorf("consumed %d bytes, want %d", n, len(dual))
	}

	multi := append([]byte{0x2f, 0x03}, []byte("_SB_PCI0UAR1")...)
	p2, n2 := parseNameString(multi)
	if len(p2.segments) != 3 || p2.segments[2] != "UAR1" {
		t.Errorf("multi name path = %+v", p2)
	}
	if n2 != len(multi) {
		t.Errorf("consumed %d bytes, want %d", n2, len(multi))
	}
}

func TestParseNameStringCaretAndNull(t *testing.T) {
	data := []byte("^^\x00")
	p, n := parseNameString(data)
	if p.root || p.parents != 2 || len(p.segments) != 0 {
		t.Errorf("parseNameString(%q) = %+v", data, p)
	}
	if n != len(data) {
		t.Errorf("consumed %d bytes, want %d", n, len(data))
	}
}

func TestNamePathString(t *testing.T) {
	p := namePath{root: true, segments: []string{"_SB_", "PCI0"}}
	if got := p.string(); got != `\_SB_.PCI0` {
		t.Errorf("string() = %q, want %q", got, `\_SB_.PCI0`)
	}
}

func TestParseDottedPathMultiSegment(t *testing.T) {
	p := parseDottedPath(`\_SB.PCI0._STA`)
	if !p.root {
		t.Errorf("parseDottedPath: root = false, want true")
	}
	want := []string{"_SB_", "PCI0", "_STA"}
	if len(p.segments) != len(want) {
		t.Fatalf("segments = %+v, want %+v", p.segments, want)
	}
	for i := range want {
		if p.segments[i] != want[i] {
			t.Errorf("segments[%d] = %q, want %q", i, p.segments[i], want[i])
		}
	}
}

func TestParseDottedPathCaretAndSingleSegment(t *testing.T) {
	p := parseDottedPath(`^^_STA`)
	if p.root {
		t.Errorf("parseDottedPath: root = true, want false")
	}
	if p.parents != 2 {
		t.Errorf("parents = %d, want 2", p.parents)
	}
	if len(p.segments) != 1 || p.segments[0] != "_STA" {
		t.Errorf("segments = %+v, want [_STA]", p.segments)
	}
}

func TestParseDottedPathRootOnly(t *testing.T) {
	p := parseDottedPath(`\`)
	if !p.root || len(p.segments) != 0 {
		t.Errorf("parseDottedPath(root only) = %+v", p)
	}
}
