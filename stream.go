package aml

import "strings"

// This file holds the byte-level decoding primitives (parsePkgLength,
// parseNumConstant, parseNameString) operating directly on plain []byte
// slices — there is no kernel address space to overlay in a hosted build,
// so decoding works directly off the table's in-memory bytes.

const amlNameSegLen = 4

// parsePkgLength decodes an ACPI PkgLength field starting at data[0]. It
// returns the decoded length (which includes the PkgLength field's own
// encoded size, per the ACPI grammar) and the number of bytes the encoding
// itself occupied.
func parsePkgLength(data []byte) (length int, encodedSize int) {
	lead := data[0]
	extra := int(lead >> 6)
	if extra == 0 {
		return int(lead & 0x3f), 1
	}

	length = int(lead & 0x0f)
	for i := 0; i < extra; i++ {
		length |= int(data[1+i]) << (4 + 8*i)
	}
	return length, extra + 1
}

// parseNumConstant decodes a little-endian integer constant of numBytes
// bytes (1, 2, 4, or 8 for Byte/Word/DWord/QWord prefixes).
func parseNumConstant(data []byte, numBytes int) uint64 {
	var v uint64
	for i := 0; i < numBytes; i++ {
		v |= uint64(data[i]) << (8 * i)
	}
	return v
}

// parseAMLString reads an ASCIIZ string starting at data[0], returning the
// string (without the terminator) and the number of bytes consumed
// including the terminating NUL.
func parseAMLString(data []byte) (string, int) {
	for i, b := range data {
		if b == 0 {
			return string(data[:i]), i + 1
		}
	}
	return string(data), len(data)
}

// parseNameString decodes a NameString per ACPI §20.2.2: an optional
// RootChar, zero or more ParentPrefixChars, then NullName/DualNamePath/
// MultiNamePath/NameSeg. It returns the decoded path segments (without root
// or parent markers — those are reported via root/parents) and the number
// of bytes consumed.
type namePath struct {
	root     bool
	parents  int
	segments []string
}

func parseNameString(data []byte) (namePath, int) {
	var p namePath
	i := 0
	if i < len(data) && data[i] == '\\' {
		p.root = true
		i++
	}
	for i < len(data) && data[i] == '^' {
		p.parents++
		i++
	}

	if i >= len(data) {
		return p, i
	}

	switch data[i] {
	case 0x00: // NullName
		i++
	case 0x2e: // DualNamePath
		i++
		for s := 0; s < 2; s++ {
			p.segments = append(p.segments, string(data[i:i+amlNameSegLen]))
			i += amlNameSegLen
		}
	case 0x2f: // MultiNamePath
		i++
		count := int(data[i])
		i++
		for s := 0; s < count; s++ {
			p.segments = append(p.segments, string(data[i:i+amlNameSegLen]))
			i += amlNameSegLen
		}
	default:
		p.segments = append(p.segments, string(data[i:i+amlNameSegLen]))
		i += amlNameSegLen
	}
	return p, i
}

// parseDottedPath converts a human-typed dotted path such as
// \_SB.PCI0._STA into a namePath, the same struct parseNameString produces
// from AML wire bytes — it is the textual counterpart callers outside any
// AML context (Invoke, the CLI) use instead of running byte decoding over
// typed text. A leading \ sets root, each leading ^ counts a parent, and
// the remainder splits on '.'; segments shorter than four characters are
// right-padded with '_' to match the fixed-width NameSeg every declared
// name already carries.
func parseDottedPath(path string) namePath {
	var p namePath
	if strings.HasPrefix(path, `\`) {
		p.root = true
		path = path[1:]
	}
	for strings.HasPrefix(path, "^") {
		p.parents++
		path = path[1:]
	}
	if path == "" {
		return p
	}
	for _, seg := range strings.Split(path, ".") {
		for len(seg) < amlNameSegLen {
			seg += "_"
		}
		p.segments = append(p.segments, seg)
	}
	return p
}

// string renders the decoded path back to its textual ACPI form, e.g.
// "\\_SB_.PCI0".
func (p namePath) string() string {
	s := ""
	if p.root {
		s += "\\"
	}
	for i := 0; i < p.parents; i++ {
		s += "^"
	}
	for i, seg := range p.segments {
		if i > 0 {
			s += "."
		}
		s += seg
	}
	return s
}
