package aml

// dispatch is the heart of the engine: an iterative loop
// over body's bytes driven by an instruction pointer i and the execution-
// scope stack already pushed onto state (a single MethodContext scope by
// the time method entry calls in). It returns when the stack empties
// (Return having unwound everything, or the MethodContext having fallen
// off the end of body and pushed an implicit zero).
//
// The driving loop walks the byte stream directly against an explicit
// operand stack and execution-scope stack, rather than recursing through a
// parsed syntax tree (see DESIGN.md for the grounding).
func dispatch(state *CallState, body []byte) *Error {
	i := 0

	for !state.execstack.empty() {
		top := state.execstack.peekTop()

		switch top.kind {
		case scopeMethodContext:
			if i >= len(body) {
				slot, err := state.opstack.push()
				if err != nil {
					return err
				}
				*slot = ZeroValue
				if err := state.execstack.pop(1); err != nil {
					return err
				}
				continue
			}

		case scopeOp:
			if state.opstack.len()-top.opstackBase == top.opNumOperands {
				if err := reduceOpScope(state, top, body, &i); err != nil {
					return err
				}
				continue
			}

		case scopeLoop:
			if i == top.loopPred {
				taken, n, err := evalPredicate(state, body, i)
				if err != nil {
					return err
				}
				if !taken {
					i = top.loopEnd
					if err := state.execstack.pop(1); err != nil {
						return err
					}
					continue
				}
				i += n
				continue
			}
			if i >= top.loopEnd {
				i = top.loopPred
				continue
			}

		case scopeCond:
			if i >= top.condEnd {
				if err := resolveCondTail(state, top, body, &i); err != nil {
					return err
				}
				continue
			}
		}

		if i > len(body) {
			return errIPEscaped
		}

		consumed, err := dispatchOpcode(state, body, &i)
		if err != nil {
			return err
		}
		i += consumed
	}
	return nil
}

// evalPredicate evaluates the boolean-valued expression at body[i:] (a
// Loop or Cond predicate), returning whether it is non-zero and how many
// bytes it consumed.
func evalPredicate(state *CallState, body []byte, i int) (bool, int, *Error) {
	v, n, err := state.aux.EvalObject(state, body[i:])
	if err != nil {
		return false, 0, err
	}
	iv, ierr := v.AsInteger()
	if ierr != nil {
		return false, 0, ierr
	}
	return iv != 0, n, nil
}

// reduceOpScope finishes a scopeOp once its operands are all on the
// opstack: it parses the trailing Target (every reducer opcode carries
// exactly one; the write-back always happens regardless of whether the
// enclosing scope wants the reduced value — see DESIGN.md), reduces,
// writes back through the target, and
// either pushes the result for an enclosing scopeOp to consume or discards
// it when nothing wants it.
func reduceOpScope(state *CallState, top *execScope, body []byte, i *int) *Error {
	target, tn, err := state.aux.ResolveTarget(state, body[*i:])
	if err != nil {
		return err
	}
	*i += tn

	operands := make([]Value, top.opNumOperands)
	for k := 0; k < top.opNumOperands; k++ {
		v, err := state.opstack.get(top.opstackBase + k)
		if err != nil {
			return err
		}
		operands[k] = *v
	}

	result, rerr := reduce(top.opOpcode, operands)
	if rerr != nil {
		return rerr
	}
	applyTarget(target, result)

	if err := state.opstack.pop(top.opNumOperands); err != nil {
		return err
	}
	if err := state.execstack.pop(1); err != nil {
		return err
	}

	if parent := state.execstack.peekTop(); parent != nil && parent.kind == scopeOp {
		slot, perr := state.opstack.push()
		if perr != nil {
			return perr
		}
		*slot = result
	}
	return nil
}

// resolveCondTail runs when a Cond scope's current block (the If-branch,
// or the Else-branch once resolveCondTail has already redirected into one)
// has been fully walked: it looks for an optional trailing Else immediately
// following the If block, and otherwise pops the scope.
func resolveCondTail(state *CallState, top *execScope, body []byte, i *int) *Error {
	if !top.elseChecked && *i < len(body) && opcode(body[*i]) == opElse {
		top.elseChecked = true
		pkgLen, encSize := parsePkgLength(body[*i+1:])
		elseEnd := *i + 1 + pkgLen
		if top.condTaken {
			*i = elseEnd
			return state.execstack.pop(1)
		}
		top.condEnd = elseEnd
		*i += 1 + encSize
		return nil
	}
	*i = top.condEnd
	return state.execstack.pop(1)
}

// dispatchOpcode performs one opcode-dispatch step at body[i:]: name
// resolution when the byte starts a NameString, the open-coded opcode
// table otherwise, falling back to AUX's
// catch-all evaluator for anything this switch does not recognize. It
// returns the number of bytes consumed; Break/Continue set *i directly
// (an absolute jump to the enclosing loop's boundaries) and return 0.
func dispatchOpcode(state *CallState, body []byte, ip *int) (int, *Error) {
	i := *ip
	b := body[i]

	if isNameChar(b) {
		v, n, err := evalNameRef(state, body[i:])
		if err != nil {
			return 0, err
		}
		pushIfWanted(state, v)
		return n, nil
	}

	op := opcode(b)
	extIdx := 1
	if b == extOpPrefix {
		op = opcode(0x100) + opcode(body[i+1])
		extIdx = 2
	}

	switch op {
	case opNoop:
		return 1, nil
	case opZero, opOne, opOnes:
		pushIfWanted(state, zeroOneOnes(op))
		return 1, nil
	case opBytePrefix:
		pushIfWanted(state, IntValue(parseNumConstant(body[i+1:], 1)))
		return 2, nil
	case opWordPrefix:
		pushIfWanted(state, IntValue(parseNumConstant(body[i+1:], 2)))
		return 3, nil
	case opDwordPrefix:
		pushIfWanted(state, IntValue(parseNumConstant(body[i+1:], 4)))
		return 5, nil
	case opQwordPrefix:
		pushIfWanted(state, IntValue(parseNumConstant(body[i+1:], 8)))
		return 9, nil
	case opPackage, opVarPackage:
		v, n, err := state.ns.ParsePackage(state.scope, body[i:])
		if err != nil {
			return 0, err
		}
		pushIfWanted(state, v)
		return n, nil
	case opSleep:
		n, err := state.aux.Sleep(state, body[i+extIdx:])
		if err != nil {
			return 0, err
		}
		return extIdx + n, nil
	case opReturn:
		return dispatchReturn(state, body, i)
	case opWhile:
		return dispatchWhile(state, body, i)
	case opContinue:
		return dispatchContinue(state, ip)
	case opBreak:
		return dispatchBreak(state, ip)
	case opIf:
		return dispatchIf(state, body, i)
	case opElse:
		return 0, errElseAtTopLevel
	case opName:
		node, n := declareChild(state.scope, body[i+1:], NodeName)
		val, vn, err := parseDataRefObject(state.ns, state.scope, body[i+1+n:])
		if err != nil {
			return 0, err
		}
		node.Value = val
		return 1 + n + vn, nil
	case opCreateByteField, opCreateWordField, opCreateDWordField, opCreateQWordField, opCreateBitField, opCreateField:
		n, err := state.aux.CreateBufferField(state, op, body[i+extIdx:])
		if err != nil {
			return 0, err
		}
		return extIdx + n, nil
	case opLocal0, opLocal1, opLocal2, opLocal3, opLocal4, opLocal5, opLocal6, opLocal7:
		pushIfWanted(state, state.Local[op-opLocal0].Copy())
		return 1, nil
	case opArg0, opArg1, opArg2, opArg3, opArg4, opArg5, opArg6:
		pushIfWanted(state, state.Arg[op-opArg0].Copy())
		return 1, nil
	case opStore, opNot:
		scope, err := state.execstack.push()
		if err != nil {
			return 0, err
		}
		scope.kind = scopeOp
		scope.opOpcode = op
		scope.opstackBase = state.opstack.len()
		scope.opNumOperands = 1
		return 1, nil
	case opAdd, opSubtract, opMultiply, opAnd, opOr, opXor, opShiftLeft, opShiftRight:
		scope, err := state.execstack.push()
		if err != nil {
			return 0, err
		}
		scope.kind = scopeOp
		scope.opOpcode = op
		scope.opstackBase = state.opstack.len()
		scope.opNumOperands = 2
		return 1, nil
	case opIncrement:
		v, n, err := state.aux.Increment(state, body[i+1:])
		if err != nil {
			return 0, err
		}
		pushIfWanted(state, v)
		return 1 + n, nil
	case opDecrement:
		v, n, err := state.aux.Decrement(state, body[i+1:])
		if err != nil {
			return 0, err
		}
		pushIfWanted(state, v)
		return 1 + n, nil
	case opDivide:
		v, n, err := state.aux.Divide(state, body[i+1:])
		if err != nil {
			return 0, err
		}
		pushIfWanted(state, v)
		return 1 + n, nil
	default:
		v, n, err := state.aux.EvalObject(state, body[i:])
		if err != nil {
			return 0, err
		}
		pushIfWanted(state, v)
		return n, nil
	}
}

// zeroOneOnes returns the literal value for the Zero/One/Ones opcodes.
func zeroOneOnes(op opcode) Value {
	switch op {
	case opOne:
		return IntValue(1)
	case opOnes:
		return IntValue(^uint64(0))
	default:
		return IntValue(0)
	}
}

// pushIfWanted pushes v onto the opstack only if the current top-of-stack
// scope is a scopeOp collecting operands; otherwise the value came from a
// standalone top-level expression statement and is discarded.
func pushIfWanted(state *CallState, v Value) {
	if top := state.execstack.peekTop(); top != nil && top.kind == scopeOp {
		slot, err := state.opstack.push()
		if err != nil {
			return
		}
		*slot = v
	}
}

// dispatchReturn unwinds every scope up to and including the nearest
// MethodContext, clears the opstack, and leaves exactly the return value on
// it. Return(x) always leaves the exec stack empty of the current call's
// scopes, realized here by emptying the whole stack since a MethodContext
// is never nested under another one within a single call.
func dispatchReturn(state *CallState, body []byte, i int) (int, *Error) {
	v, n, err := state.aux.EvalObject(state, body[i+1:])
	if err != nil {
		return 0, err
	}

	depth := -1
	for d := 0; ; d++ {
		s := state.execstack.peek(d)
		if s == nil {
			return 0, errReturnOutsideMethod
		}
		if s.kind == scopeMethodContext {
			depth = d
			break
		}
	}

	if err := state.opstack.pop(state.opstack.len()); err != nil {
		return 0, err
	}
	if err := state.execstack.pop(depth + 1); err != nil {
		return 0, err
	}
	slot, perr := state.opstack.push()
	if perr != nil {
		return 0, perr
	}
	*slot = v
	return 1 + n, nil
}

func dispatchWhile(state *CallState, body []byte, i int) (int, *Error) {
	pkgLen, encSize := parsePkgLength(body[i+1:])
	blockEnd := i + 1 + pkgLen
	predStart := i + 1 + encSize

	scope, err := state.execstack.push()
	if err != nil {
		return 0, err
	}
	scope.kind = scopeLoop
	scope.loopPred = predStart
	scope.loopEnd = blockEnd
	scope.opstackBase = state.opstack.len()
	return predStart - i, nil
}

func dispatchIf(state *CallState, body []byte, i int) (int, *Error) {
	pkgLen, encSize := parsePkgLength(body[i+1:])
	blockEnd := i + 1 + pkgLen
	predStart := i + 1 + encSize

	taken, n, err := evalPredicate(state, body, predStart)
	if err != nil {
		return 0, err
	}

	scope, perr := state.execstack.push()
	if perr != nil {
		return 0, perr
	}
	scope.kind = scopeCond
	scope.condTaken = taken
	scope.condEnd = blockEnd

	if taken {
		return (predStart + n) - i, nil
	}
	return blockEnd - i, nil
}

// dispatchContinue pops every scope above the nearest enclosing Loop
// (leaving the Loop scope itself as the new top) and jumps the instruction
// pointer straight to the loop's predicate, which the scopeLoop prologue
// re-evaluates on the next tick.
func dispatchContinue(state *CallState, ip *int) (int, *Error) {
	for d := 0; ; d++ {
		s := state.execstack.peek(d)
		if s == nil {
			return 0, errContinueOutsideLoop
		}
		if s.kind == scopeLoop {
			pred := s.loopPred
			if d > 0 {
				if err := state.execstack.pop(d); err != nil {
					return 0, err
				}
			}
			*ip = pred
			return 0, nil
		}
	}
}

// dispatchBreak pops every scope down to and including the nearest Loop,
// then positions the instruction pointer just past it so execution resumes
// with whatever statement follows the loop.
func dispatchBreak(state *CallState, ip *int) (int, *Error) {
	for d := 0; ; d++ {
		s := state.execstack.peek(d)
		if s == nil {
			return 0, errBreakOutsideLoop
		}
		if s.kind == scopeLoop {
			end := s.loopEnd
			if err := state.execstack.pop(d + 1); err != nil {
				return 0, err
			}
			*ip = end
			return 0, nil
		}
	}
}
