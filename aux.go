package aml

// This file is the AUX collaborator: a catch-all for everything the
// core dispatcher does not open-code itself — Increment/Decrement/
// Divide, the comparison and logical opcodes, type conversions, buffer/
// field access, and the general expression evaluator used for If/While
// predicates, Return's operand, and any opcode the core's main switch
// does not recognize. Reworked to operate on raw AML bytes plus a
// CallState rather than a pre-parsed declaration tree (see DESIGN.md).

// Evaluator is the single recursive expression evaluator AUX's catch-all
// role is built around. The dispatcher uses it to evaluate Loop
// predicates, Cond predicates, and Return's operand; AUX's own opcode
// handling uses it to evaluate nested operands.
type Evaluator interface {
	EvalObject(state *CallState, data []byte) (Value, int, *Error)
}

// AUX is the full secondary-opcode-handler collaborator the dispatcher
// depends on for everything it does not open-code itself.
type AUX interface {
	Evaluator

	Increment(state *CallState, data []byte) (Value, int, *Error)
	Decrement(state *CallState, data []byte) (Value, int, *Error)
	Divide(state *CallState, data []byte) (Value, int, *Error)
	Sleep(state *CallState, data []byte) (int, *Error)
	CreateBufferField(state *CallState, op opcode, data []byte) (int, *Error)

	ReadField(node *Node) (Value, *Error)
	WriteField(node *Node, v Value) *Error

	// ResolveTarget parses a Target (NullName or SuperName) and returns a
	// handle that can store a reduced value into it, or nil for NullName.
	// Exported on the interface because the dispatcher's reducer-opcode
	// prologue needs it directly, not just AUX's own opcode handling.
	ResolveTarget(state *CallState, data []byte) (*targetHandle, int, *Error)
}

// targetHandle is a resolved Target or SuperName: something a value can be
// read from and/or stored into. It never outlives the dispatcher step that
// created it.
type targetHandle struct {
	get func() Value
	set func(Value)
}

// defaultAUX is the concrete AUX this module ships, working from raw bytes
// instead of a pre-parsed declaration tree. vm supplies method invocation for name
// dispatch inside expressions (a Method found during evaluation is called
// through the same call site logic as an explicit method-call statement).
type defaultAUX struct {
	ns   *Namespace
	host Host
	vm   *VM
}

func newDefaultAUX(ns *Namespace, host Host) *defaultAUX {
	return &defaultAUX{ns: ns, host: host}
}

// ResolveTarget implements AUX.ResolveTarget.
func (a *defaultAUX) ResolveTarget(state *CallState, data []byte) (*targetHandle, int, *Error) {
	b := data[0]
	if b == 0x00 {
		return nil, 1, nil
	}
	op := opcode(b)
	if isLocalArg(op) {
		idx := int(op - opLocal0)
		return &targetHandle{
			get: func() Value { return state.Local[idx] },
			set: func(v Value) { state.Local[idx] = v },
		}, 1, nil
	}
	if isMethodArg(op) {
		idx := int(op - opArg0)
		return &targetHandle{
			get: func() Value { return state.Arg[idx] },
			set: func(v Value) { state.Arg[idx] = v },
		}, 1, nil
	}
	if isNameChar(b) {
		path, n := parseNameString(data)
		node, err := a.ns.Resolve(state.scope, path)
		if err != nil {
			return nil, n, err
		}
		switch node.Kind {
		case NodeField, NodeIndexField:
			return &targetHandle{
				get: func() Value { v, _ := a.ReadField(node); return v },
				set: func(v Value) { a.WriteField(node, v) },
			}, n, nil
		default:
			return &targetHandle{
				get: func() Value { return node.Value },
				set: func(v Value) { node.Value = v.Copy() },
			}, n, nil
		}
	}
	return nil, 1, newError("aux", "unsupported target encoding 0x%02x", b)
}

// applyTarget stores v into target if target is non-nil (a NullName target
// means "discard"), the Store/reducer target-write-back convention this
// module settles on (see DESIGN.md).
func applyTarget(target *targetHandle, v Value) {
	if target != nil {
		target.set(v.Copy())
	}
}

// Increment implements the INCREMENT opcode: read a SuperName, add one,
// store back, and yield the new value for the caller to push if the
// enclosing scope wants a result.
func (a *defaultAUX) Increment(state *CallState, data []byte) (Value, int, *Error) {
	return a.incDec(state, data, 1)
}

// Decrement implements the DECREMENT opcode.
func (a *defaultAUX) Decrement(state *CallState, data []byte) (Value, int, *Error) {
	return a.incDec(state, data, ^uint64(0)) // -1 via wrapping add
}

func (a *defaultAUX) incDec(state *CallState, data []byte, delta uint64) (Value, int, *Error) {
	target, n, err := a.ResolveTarget(state, data)
	if err != nil {
		return Value{}, 0, err
	}
	if target == nil {
		return Value{}, 0, newError("aux", "Increment/Decrement requires a SuperName, not NullName")
	}
	cur, cerr := target.get().AsInteger()
	if cerr != nil {
		return Value{}, 0, cerr
	}
	result := IntValue(cur + delta)
	target.set(result)
	return result, n, nil
}

// Divide implements the DIVIDE opcode: Divide(Dividend, Divisor, Remainder,
// Quotient). It evaluates both operands, stores the remainder and quotient
// into their respective targets, and yields the quotient as the expression
// value.
func (a *defaultAUX) Divide(state *CallState, data []byte) (Value, int, *Error) {
	dividendV, n1, err := a.EvalObject(state, data)
	if err != nil {
		return Value{}, 0, err
	}
	divisorV, n2, err := a.EvalObject(state, data[n1:])
	if err != nil {
		return Value{}, 0, err
	}
	remTarget, n3, err := a.ResolveTarget(state, data[n1+n2:])
	if err != nil {
		return Value{}, 0, err
	}
	quotTarget, n4, err := a.ResolveTarget(state, data[n1+n2+n3:])
	if err != nil {
		return Value{}, 0, err
	}

	dividend, _ := dividendV.AsInteger()
	divisor, derr := divisorV.AsInteger()
	if derr != nil {
		return Value{}, 0, derr
	}
	if divisor == 0 {
		return Value{}, 0, newError("aux", "Divide by zero")
	}
	quotient, remainder := dividend/divisor, dividend%divisor
	applyTarget(remTarget, IntValue(remainder))
	applyTarget(quotTarget, IntValue(quotient))
	return IntValue(quotient), n1 + n2 + n3 + n4, nil
}

// Sleep implements the extended SLEEP opcode: evaluate the millisecond
// operand (clamping zero up to one, matching the reference interpreter's
// acpi_exec_sleep) and ask the Host to yield.
func (a *defaultAUX) Sleep(state *CallState, data []byte) (int, *Error) {
	v, n, err := a.EvalObject(state, data)
	if err != nil {
		return 0, err
	}
	ms, _ := v.AsInteger()
	if ms == 0 {
		ms = 1
	}
	a.host.Sleep(ms)
	return n, nil
}

// CreateBufferField implements CreateByteField/CreateWordField/
// CreateDWordField/CreateQWordField/CreateBitField/CreateField: all declare
// a new BufferField node over a byte range (or, for CreateField/
// CreateBitField, a bit range) of an existing Buffer.
func (a *defaultAUX) CreateBufferField(state *CallState, op opcode, data []byte) (int, *Error) {
	srcV, n1, err := a.EvalObject(state, data)
	if err != nil {
		return 0, err
	}
	offV, n2, err := a.EvalObject(state, data[n1:])
	if err != nil {
		return 0, err
	}
	off, _ := offV.AsInteger()

	i := n1 + n2
	var widthBits uint64
	if op == opCreateField {
		widthV, n3, err := a.EvalObject(state, data[i:])
		if err != nil {
			return 0, err
		}
		widthBits, _ = widthV.AsInteger()
		i += n3
		off *= 1 // CreateField's offset is already in bits
	} else {
		switch op {
		case opCreateByteField:
			widthBits = 8
		case opCreateWordField:
			widthBits = 16
		case opCreateDWordField:
			widthBits = 32
		case opCreateQWordField:
			widthBits = 64
		case opCreateBitField:
			widthBits = 1
		}
		if op != opCreateBitField {
			off *= 8
		}
	}

	node, n4 := declareChild(state.scope, data[i:], NodeBufferField)
	node.BufferSource = &Node{Kind: NodeName, Value: srcV}
	node.BufferOffsetBits = off
	node.BufferWidthBits = widthBits
	return i + n4, nil
}

// ReadField reads a Field/IndexField unit through the Host, honoring the
// region's address space. Only SystemMemory is backed by real IO in this
// hosted build; every other space returns zero, matching a driver running
// against a table whose hardware is not actually present.
func (a *defaultAUX) ReadField(node *Node) (Value, *Error) {
	if node.Kind == NodeIndexField {
		if node.FieldIndex == nil || node.FieldData == nil {
			return IntValue(0), nil
		}
		if err := a.WriteField(node.FieldIndex, IntValue(node.FieldBitOffset/8)); err != nil {
			return Value{}, err
		}
		return a.ReadField(node.FieldData)
	}
	if node.FieldRegion == nil || node.FieldRegion.RegionSpace != RegionSystemMemory {
		return IntValue(0), nil
	}
	width := widthBytes(node.FieldBitWidth)
	addr := node.FieldRegion.RegionOffset + node.FieldBitOffset/8
	v, err := a.host.ReadMemory(addr, width)
	if err != nil {
		return Value{}, newError("aux", "field read: %v", err)
	}
	return IntValue(v), nil
}

// WriteField writes a Field/IndexField unit through the Host.
func (a *defaultAUX) WriteField(node *Node, val Value) *Error {
	iv, ierr := val.AsInteger()
	if ierr != nil {
		return ierr
	}
	if node.Kind == NodeIndexField {
		if node.FieldIndex == nil || node.FieldData == nil {
			return nil
		}
		if err := a.WriteField(node.FieldIndex, IntValue(node.FieldBitOffset/8)); err != nil {
			return err
		}
		return a.WriteField(node.FieldData, IntValue(iv))
	}
	if node.FieldRegion == nil || node.FieldRegion.RegionSpace != RegionSystemMemory {
		return nil
	}
	width := widthBytes(node.FieldBitWidth)
	addr := node.FieldRegion.RegionOffset + node.FieldBitOffset/8
	if err := a.host.WriteMemory(addr, width, iv); err != nil {
		return newError("aux", "field write: %v", err)
	}
	return nil
}

func widthBytes(bits uint64) int {
	switch {
	case bits <= 8:
		return 1
	case bits <= 16:
		return 2
	case bits <= 32:
		return 4
	default:
		return 8
	}
}

// EvalObject is AUX's general expression evaluator: the dispatcher's
// Loop-predicate, Cond-predicate, and Return-operand steps all call it, and
// it is the fallback for any opcode the core's main switch does not
// recognize.
func (a *defaultAUX) EvalObject(state *CallState, data []byte) (Value, int, *Error) {
	b := data[0]

	if isNameChar(b) {
		return a.evalName(state, data)
	}

	op := opcode(b)
	idx := 1
	if b == extOpPrefix {
		op = opcode(0x100) + opcode(data[1])
		idx = 2
	}

	switch op {
	case opZero:
		return IntValue(0), 1, nil
	case opOne:
		return IntValue(1), 1, nil
	case opOnes:
		return IntValue(^uint64(0)), 1, nil
	case opRevision:
		return IntValue(2), idx, nil
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
		return a.evalBuffer(state, data)
	case opPackage, opVarPackage:
		return a.ns.ParsePackage(state.scope, data)
	case opLocal0, opLocal1, opLocal2, opLocal3, opLocal4, opLocal5, opLocal6, opLocal7:
		return state.Local[op-opLocal0].Copy(), 1, nil
	case opArg0, opArg1, opArg2, opArg3, opArg4, opArg5, opArg6:
		return state.Arg[op-opArg0].Copy(), 1, nil
	case opDebug:
		return Value{}, idx, nil
	case opStore:
		return a.evalUnaryWithTarget(state, data, 1, op)
	case opNot:
		return a.evalUnaryWithTarget(state, data, 1, op)
	case opAdd, opSubtract, opMultiply, opAnd, opOr, opXor, opShiftLeft, opShiftRight:
		return a.evalBinaryWithTarget(state, data, 1, op)
	case opIncrement:
		return a.Increment(state, data[1:])
	case opDecrement:
		return a.Decrement(state, data[1:])
	case opDivide:
		return a.Divide(state, data[1:])
	case opLand:
		return a.evalLogicalBinary(state, data, 1, func(a, b uint64) bool { return a != 0 && b != 0 })
	case opLor:
		return a.evalLogicalBinary(state, data, 1, func(a, b uint64) bool { return a != 0 || b != 0 })
	case opLEqual:
		return a.evalLogicalBinary(state, data, 1, func(a, b uint64) bool { return a == b })
	case opLGreater:
		return a.evalLogicalBinary(state, data, 1, func(a, b uint64) bool { return a > b })
	case opLLess:
		return a.evalLogicalBinary(state, data, 1, func(a, b uint64) bool { return a < b })
	case opLnot:
		v, n, err := a.EvalObject(state, data[1:])
		if err != nil {
			return Value{}, 0, err
		}
		iv, _ := v.AsInteger()
		return boolValue(iv == 0), 1 + n, nil
	case opSizeOf:
		v, n, err := a.EvalObject(state, data[1:])
		if err != nil {
			return Value{}, 0, err
		}
		return IntValue(sizeOfValue(v)), 1 + n, nil
	case opIndex:
		return a.evalIndex(state, data)
	case opToInteger:
		v, n, err := a.EvalObject(state, data[1:])
		if err != nil {
			return Value{}, 0, err
		}
		iv, ierr := v.AsInteger()
		if ierr != nil {
			return Value{}, 0, ierr
		}
		target, n2, terr := a.ResolveTarget(state, data[1+n:])
		if terr != nil {
			return Value{}, 0, terr
		}
		applyTarget(target, IntValue(iv))
		return IntValue(iv), 1 + n + n2, nil
	case opToBuffer:
		v, n, err := a.EvalObject(state, data[1:])
		if err != nil {
			return Value{}, 0, err
		}
		var buf []byte
		if v.Kind == KindBuffer {
			buf = v.Buffer
		} else {
			iv, _ := v.AsInteger()
			buf = []byte{byte(iv), byte(iv >> 8), byte(iv >> 16), byte(iv >> 24), byte(iv >> 32), byte(iv >> 40), byte(iv >> 48), byte(iv >> 56)}
		}
		target, n2, terr := a.ResolveTarget(state, data[1+n:])
		if terr != nil {
			return Value{}, 0, terr
		}
		applyTarget(target, BufferValue(buf))
		return BufferValue(buf), 1 + n + n2, nil
	case opToString:
		v, n, err := a.EvalObject(state, data[1:])
		if err != nil {
			return Value{}, 0, err
		}
		target, n2, terr := a.ResolveTarget(state, data[1+n:])
		if terr != nil {
			return Value{}, 0, terr
		}
		s := StringValue(string(v.Buffer))
		applyTarget(target, s)
		return s, 1 + n + n2, nil
	case opNoop:
		// Documented divergence from the reference source: lai's own NOP
		// handler falls through into ZERO's case by accident (a known lai
		// bug). This build treats NOP as a true no-op.
		return Value{}, 1, nil
	default:
		return Value{}, 0, newError("aux", "eval_object: unsupported opcode %s", op)
	}
}

func (a *defaultAUX) evalName(state *CallState, data []byte) (Value, int, *Error) {
	return evalNameRef(state, data)
}

func readBufferField(node *Node) Value {
	if node.BufferSource == nil || node.BufferSource.Value.Kind != KindBuffer {
		return IntValue(0)
	}
	buf := node.BufferSource.Value.Buffer
	byteOff := node.BufferOffsetBits / 8
	bitOff := node.BufferOffsetBits % 8
	width := widthBytes(node.BufferWidthBits + bitOff)
	if int(byteOff)+width > len(buf) {
		return IntValue(0)
	}
	v := parseNumConstant(buf[byteOff:], width) >> bitOff
	if node.BufferWidthBits < 64 {
		v &= (uint64(1) << node.BufferWidthBits) - 1
	}
	return IntValue(v)
}

func (a *defaultAUX) evalBuffer(state *CallState, data []byte) (Value, int, *Error) {
	pkgLen, encSize := parsePkgLength(data[1:])
	body := data[1+encSize:]
	bodyEnd := pkgLen - encSize
	sizeV, sn, err := a.EvalObject(state, body)
	if err != nil {
		return Value{}, 0, err
	}
	size, _ := sizeV.AsInteger()
	raw := body[sn:bodyEnd]
	buf := make([]byte, size)
	copy(buf, raw)
	return BufferValue(buf), 1 + pkgLen, nil
}

func (a *defaultAUX) evalUnaryWithTarget(state *CallState, data []byte, skip int, op opcode) (Value, int, *Error) {
	src, n1, err := a.EvalObject(state, data[skip:])
	if err != nil {
		return Value{}, 0, err
	}
	target, n2, terr := a.ResolveTarget(state, data[skip+n1:])
	if terr != nil {
		return Value{}, 0, terr
	}
	result, rerr := reduce(op, []Value{src})
	if rerr != nil {
		return Value{}, 0, rerr
	}
	applyTarget(target, result)
	return result, skip + n1 + n2, nil
}

func (a *defaultAUX) evalBinaryWithTarget(state *CallState, data []byte, skip int, op opcode) (Value, int, *Error) {
	op1, n1, err := a.EvalObject(state, data[skip:])
	if err != nil {
		return Value{}, 0, err
	}
	op2, n2, err := a.EvalObject(state, data[skip+n1:])
	if err != nil {
		return Value{}, 0, err
	}
	target, n3, terr := a.ResolveTarget(state, data[skip+n1+n2:])
	if terr != nil {
		return Value{}, 0, terr
	}
	result, rerr := reduce(op, []Value{op1, op2})
	if rerr != nil {
		return Value{}, 0, rerr
	}
	applyTarget(target, result)
	return result, skip + n1 + n2 + n3, nil
}

func (a *defaultAUX) evalLogicalBinary(state *CallState, data []byte, skip int, cmp func(uint64, uint64) bool) (Value, int, *Error) {
	op1, n1, err := a.EvalObject(state, data[skip:])
	if err != nil {
		return Value{}, 0, err
	}
	op2, n2, err := a.EvalObject(state, data[skip+n1:])
	if err != nil {
		return Value{}, 0, err
	}
	v1, e1 := op1.AsInteger()
	if e1 != nil {
		return Value{}, 0, e1
	}
	v2, e2 := op2.AsInteger()
	if e2 != nil {
		return Value{}, 0, e2
	}
	return boolValue(cmp(v1, v2)), skip + n1 + n2, nil
}

func (a *defaultAUX) evalIndex(state *CallState, data []byte) (Value, int, *Error) {
	obj, n1, err := a.EvalObject(state, data[1:])
	if err != nil {
		return Value{}, 0, err
	}
	idxV, n2, err := a.EvalObject(state, data[1+n1:])
	if err != nil {
		return Value{}, 0, err
	}
	idx, _ := idxV.AsInteger()

	var result Value
	switch obj.Kind {
	case KindPackage:
		if int(idx) < len(obj.Package) {
			result = obj.Package[idx]
		}
	case KindBuffer:
		if int(idx) < len(obj.Buffer) {
			result = IntValue(uint64(obj.Buffer[idx]))
		}
	}

	target, n3, terr := a.ResolveTarget(state, data[1+n1+n2:])
	if terr != nil {
		return Value{}, 0, terr
	}
	applyTarget(target, result)
	return result, 1 + n1 + n2 + n3, nil
}

func boolValue(b bool) Value {
	if b {
		return IntValue(1)
	}
	return IntValue(0)
}

func sizeOfValue(v Value) uint64 {
	switch v.Kind {
	case KindString:
		return uint64(len(v.Str))
	case KindBuffer:
		return uint64(len(v.Buffer))
	case KindPackage:
		return uint64(len(v.Package))
	default:
		return 0
	}
}
