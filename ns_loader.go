package aml

// This file is the NS collaborator's static declaration loader: a trimmed
// recursive-descent parser. It does not build a tree for a Method's body —
// a Method's AML is kept as a raw byte range and walked directly by the
// dispatcher at call time, matching the reference interpreter's design
// (original_source/src/exec.c operates on
// method->handle->object_begin/object_end, not a pre-parsed tree).

// LoadTable parses a full table body (e.g. a DSDT's AML payload) as a
// TermList under scope, declaring every Name/Scope/Device/Method/OpRegion/
// Field/IndexField/Mutex/Event/Processor/PowerRes/ThermalZone it finds.
// Alias declarations are skipped without creating a node.
func LoadTable(ns *Namespace, scope *Node, data []byte) *Error {
	i := 0
	for i < len(data) {
		n, err := parseTermObj(ns, scope, data[i:])
		if err != nil {
			return err
		}
		if n == 0 {
			return newFatalError("ns", "parser made no progress at offset %d", i)
		}
		i += n
	}
	return nil
}

// parseTermObj parses one declaration (or, for opcodes this loader does not
// model as declarations, one literal/skippable TermArg) starting at
// data[0], returning the number of bytes consumed.
func parseTermObj(ns *Namespace, scope *Node, data []byte) (int, *Error) {
	b := data[0]

	if b == extOpPrefix {
		return parseExtTermObj(ns, scope, data)
	}

	switch opcode(b) {
	case opZero, opOne, opOnes, opNoop, opBreakPoint:
		return 1, nil
	case opBytePrefix:
		return 2, nil
	case opWordPrefix:
		return 3, nil
	case opDwordPrefix:
		return 5, nil
	case opQwordPrefix:
		return 9, nil
	case opStringPrefix:
		_, n := parseAMLString(data[1:])
		return 1 + n, nil
	case opAlias:
		_, n1 := parseNameString(data[1:])
		_, n2 := parseNameString(data[1+n1:])
		return 1 + n1 + n2, nil
	case opName:
		node, n := declareChild(scope, data[1:], NodeName)
		val, vn, err := parseDataRefObject(ns, scope, data[1+n:])
		if err != nil {
			return 0, err
		}
		node.Value = val
		return 1 + n + vn, nil
	case opScope, opDevice:
		return parseScopedDecl(ns, scope, data, NodeScope)
	case opMethod:
		return parseMethodDecl(ns, scope, data)
	case opBuffer, opPackage, opVarPackage:
		// A top-level literal buffer/package with no enclosing Name is
		// unusual but legal (evaluated and discarded); skip its encoded
		// extent using the PkgLength.
		pkgLen, _ := parsePkgLength(data[1:])
		return 1 + pkgLen, nil
	case opIf, opWhile:
		pkgLen, _ := parsePkgLength(data[1:])
		return 1 + pkgLen, nil
	default:
		// Any other opcode encountered at declaration level (e.g. a bare
		// NameString reference, or an opcode this loader doesn't model)
		// is skipped as an opaque single byte; the dispatcher is the
		// authority on executable bodies, this loader only needs to find
		// declarations reachable from the root.
		if isNameChar(b) {
			_, n := parseNameString(data)
			if n == 0 {
				return 1, nil
			}
			return n, nil
		}
		return 1, nil
	}
}

// parseScopedDecl handles Scope: NameString + PkgLength + a nested
// TermList, declared as a node of the given kind. Device is an extended
// opcode and goes through parseExtScopedDecl instead.
func parseScopedDecl(ns *Namespace, scope *Node, data []byte, kind NodeKind) (int, *Error) {
	pkgLen, encSize := parsePkgLength(data[1:])
	body := data[1+encSize:]
	node, nameLen := declareChild(scope, body, kind)

	bodyStart := 1 + encSize + nameLen
	bodyEnd := 1 + pkgLen
	if err := LoadTable(ns, node, data[bodyStart:bodyEnd]); err != nil {
		return 0, err
	}
	return bodyEnd, nil
}

// parseMethodDecl parses a Method declaration: NameString + PkgLength +
// MethodFlags, keeping the remaining bytes as the raw body the dispatcher
// will later walk.
func parseMethodDecl(ns *Namespace, scope *Node, data []byte) (int, *Error) {
	pkgLen, encSize := parsePkgLength(data[1:])
	afterLen := data[1+encSize:]
	node, nameLen := declareChild(scope, afterLen, NodeMethod)

	flagsOff := 1 + encSize + nameLen
	flags := data[flagsOff]
	node.ArgCount = int(flags & 0x7)
	node.Serialized = flags&0x8 != 0

	bodyStart := flagsOff + 1
	bodyEnd := 1 + pkgLen
	node.MethodBody = data[bodyStart:bodyEnd]
	return bodyEnd, nil
}

// parseExtTermObj handles declarations behind the extOpPrefix: OpRegion,
// Field, IndexField, Device, Processor, PowerRes, ThermalZone, Mutex, Event.
func parseExtTermObj(ns *Namespace, scope *Node, data []byte) (int, *Error) {
	sub := opcode(0x100) + opcode(data[1])
	switch sub {
	case opMutex:
		node, n := declareChild(scope, data[2:], NodeMutex)
		_ = node
		return 2 + n + 1, nil // NameString + SyncFlags byte
	case opEvent:
		_, n := declareChild(scope, data[2:], NodeEvent)
		return 2 + n, nil
	case opOpRegion:
		return parseOpRegionDecl(ns, scope, data)
	case opField:
		return parseFieldDecl(ns, scope, data)
	case opIndexField:
		return parseIndexFieldDecl(ns, scope, data)
	case opDevice:
		return parseExtScopedDecl(ns, scope, data, NodeDevice)
	case opProcessor:
		return parseProcessorDecl(ns, scope, data)
	case opPowerRes:
		return parseExtScopedDecl(ns, scope, data, NodePowerRes)
	case opThermalZone:
		return parseExtScopedDecl(ns, scope, data, NodeThermalZone)
	default:
		// CondRefOf, Load, Sleep, and the other extended executable
		// opcodes never appear at declaration level in a well-formed
		// table; treat as a two-byte opaque skip.
		return 2, nil
	}
}

func parseExtScopedDecl(ns *Namespace, scope *Node, data []byte, kind NodeKind) (int, *Error) {
	pkgLen, encSize := parsePkgLength(data[2:])
	body := data[2+encSize:]
	node, nameLen := declareChild(scope, body, kind)

	// Device/PowerResource/ThermalZone carry extra fixed fields ahead of
	// the TermList (Device has none beyond the name; PowerResource adds
	// SystemLevel+ResourceOrder; ThermalZone adds none) — this loader only
	// needs to find the nested TermList's start, which for all three is
	// immediately after those fixed fields. PowerResource's two extra
	// fields (three bytes: a ByteData and a WordData) are skipped here;
	// Device/ThermalZone have none.
	extra := 0
	if kind == NodePowerRes {
		extra = 3
	}
	bodyStart := 2 + encSize + nameLen + extra
	bodyEnd := 2 + pkgLen
	if err := LoadTable(ns, node, data[bodyStart:bodyEnd]); err != nil {
		return 0, err
	}
	return bodyEnd, nil
}

func parseProcessorDecl(ns *Namespace, scope *Node, data []byte) (int, *Error) {
	pkgLen, encSize := parsePkgLength(data[2:])
	body := data[2+encSize:]
	node, nameLen := declareChild(scope, body, NodeProcessor)
	// ProcID(1) + PblkAddress(4) + PblkLen(1) follow the name.
	bodyStart := 2 + encSize + nameLen + 6
	bodyEnd := 2 + pkgLen
	if err := LoadTable(ns, node, data[bodyStart:bodyEnd]); err != nil {
		return 0, err
	}
	return bodyEnd, nil
}

func parseOpRegionDecl(ns *Namespace, scope *Node, data []byte) (int, *Error) {
	node, n := declareChild(scope, data[2:], NodeOpRegion)
	i := 2 + n
	node.RegionSpace = RegionSpace(data[i])
	i++
	offVal, offN, err := parseDataRefObject(ns, scope, data[i:])
	if err != nil {
		return 0, err
	}
	i += offN
	off, _ := offVal.AsInteger()
	node.RegionOffset = off

	lenVal, lenN, err := parseDataRefObject(ns, scope, data[i:])
	if err != nil {
		return 0, err
	}
	i += lenN
	ln, _ := lenVal.AsInteger()
	node.RegionLength = ln
	return i, nil
}

// parseFieldDecl parses Field (NameString of the region + FieldFlags +
// FieldElements), declaring one NodeField child per named element.
func parseFieldDecl(ns *Namespace, scope *Node, data []byte) (int, *Error) {
	pkgLen, encSize := parsePkgLength(data[2:])
	body := data[2+encSize:]
	regionPath, nameLen := parseNameString(body)
	region, rerr := ns.Resolve(scope, regionPath)
	if rerr != nil {
		region = nil // region may be declared later; fields still parse
	}

	i := 2 + encSize + nameLen
	i++ // FieldFlags
	bodyEnd := 2 + pkgLen
	bitOffset := uint64(0)
	for i < bodyEnd {
		if data[i] == 0x00 {
			// ReservedField: skip name, consume PkgLength-encoded bit width.
			i++
			width, n := parsePkgLength(data[i:])
			i += n
			bitOffset += uint64(width)
			continue
		}
		name := string(data[i : i+amlNameSegLen])
		i += amlNameSegLen
		width, n := parsePkgLength(data[i:])
		i += n
		child := &Node{Kind: NodeField, Name: name, FieldRegion: region, FieldBitOffset: bitOffset, FieldBitWidth: uint64(width)}
		addChild(scope, child)
		bitOffset += uint64(width)
	}
	return bodyEnd, nil
}

func parseIndexFieldDecl(ns *Namespace, scope *Node, data []byte) (int, *Error) {
	pkgLen, encSize := parsePkgLength(data[2:])
	body := data[2+encSize:]
	indexPath, n1 := parseNameString(body)
	dataPath, n2 := parseNameString(body[n1:])
	indexNode, _ := ns.Resolve(scope, indexPath)
	dataNode, _ := ns.Resolve(scope, dataPath)

	i := 2 + encSize + n1 + n2
	i++ // FieldFlags
	bodyEnd := 2 + pkgLen
	bitOffset := uint64(0)
	for i < bodyEnd {
		if data[i] == 0x00 {
			i++
			width, n := parsePkgLength(data[i:])
			i += n
			bitOffset += uint64(width)
			continue
		}
		name := string(data[i : i+amlNameSegLen])
		i += amlNameSegLen
		width, n := parsePkgLength(data[i:])
		i += n
		child := &Node{Kind: NodeIndexField, Name: name, FieldIndex: indexNode, FieldData: dataNode, FieldBitOffset: bitOffset, FieldBitWidth: uint64(width)}
		addChild(scope, child)
		bitOffset += uint64(width)
	}
	return bodyEnd, nil
}

// parseDataRefObject parses one literal value suitable as a Name's initial
// value or an OpRegion's offset/length operand: integers, strings, buffers,
// and packages. A NameString yields a Reference to the named node when it
// already resolves, and Integer(0) otherwise. Anything else (an expression
// needing evaluation, such as a method call) is not evaluated: it yields
// Integer(0) after consuming one byte, and the stored value is what later
// references to the Name read.
func parseDataRefObject(ns *Namespace, scope *Node, data []byte) (Value, int, *Error) {
	b := data[0]
	switch opcode(b) {
	case opZero:
		return IntValue(0), 1, nil
	case opOne:
		return IntValue(1), 1, nil
	case opOnes:
		return IntValue(^uint64(0)), 1, nil
	case opBytePrefix:
		return IntValue(parseNumConstant(data[1:], 1)), 2, nil
	case opWordPrefix:
		return IntValue(parseNumConstant(data[1:], 2)), 3, nil
	case opDwordPrefix:
		return IntValue(parseNumConstant(data[1:], 4)), 5, nil
	case opQwordPrefix:
		return IntValue(parseNumConstant(data[1:], 8)), 9, nil
	case opStringPrefix:
		s, n := parseAMLString(data[1:])
		return StringValue(s), 1 + n, nil
	case opBuffer:
		return parseBufferLiteral(data)
	case opPackage, opVarPackage:
		return ns.ParsePackage(scope, data)
	default:
		if isNameChar(b) {
			path, n := parseNameString(data)
			if target, err := ns.Resolve(scope, path); err == nil {
				return Value{Kind: KindReference, Ref: target}, n, nil
			}
			return IntValue(0), n, nil
		}
		return IntValue(0), 1, nil
	}
}

func parseBufferLiteral(data []byte) (Value, int, *Error) {
	pkgLen, encSize := parsePkgLength(data[1:])
	body := data[1+encSize:]
	bodyEnd := pkgLen - encSize
	sizeVal, sn, err := parseDataRefObject(nil, nil, body)
	if err != nil {
		return Value{}, 0, err
	}
	size, _ := sizeVal.AsInteger()
	raw := body[sn:bodyEnd]
	buf := make([]byte, size)
	copy(buf, raw)
	return BufferValue(buf), 1 + pkgLen, nil
}

// ParsePackage parses a Package/VarPackage literal starting at data[0]
// (the Package opcode byte), returning its Value and total bytes consumed.
// This is the NS method the dispatcher's opcode table delegates Package
// construction to.
func (ns *Namespace) ParsePackage(scope *Node, data []byte) (Value, int, *Error) {
	pkgLen, encSize := parsePkgLength(data[1:])
	body := data[1+encSize:]
	bodyEnd := pkgLen - encSize
	numElements := int(body[0])
	i := 1

	elems := make([]Value, 0, numElements)
	for len(elems) < numElements && i < bodyEnd {
		v, n, err := parseDataRefObject(ns, scope, body[i:])
		if err != nil {
			return Value{}, 0, err
		}
		elems = append(elems, v)
		i += n
	}
	return Value{Kind: KindPackage, Package: elems}, 1 + pkgLen, nil
}
