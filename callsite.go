package aml

// callSite is given a caller's CallState and a resolved
// Method node encountered at data, evaluate the method's argc argument
// expressions in the caller's own context, spawn a fresh callee CallState
// (via runMethod), and return the callee's retvalue plus the number
// of bytes the argument list consumed from data.
func callSite(caller *CallState, method *Node, data []byte) (Value, int, *Error) {
	args := make([]Value, method.ArgCount)
	consumed := 0
	for k := 0; k < method.ArgCount; k++ {
		v, n, err := caller.aux.EvalObject(caller, data[consumed:])
		if err != nil {
			return Value{}, 0, err
		}
		args[k] = v
		consumed += n
	}

	ret, err := runMethod(caller.vm, method, args)
	if err != nil {
		return Value{}, 0, err.withFrame(method.AbsolutePath(), consumed)
	}
	return ret, consumed, nil
}

// evalNameRef resolves a NameString at data against state's lexical scope
// and, depending on what it names, either reads a value directly (Name,
// Field, IndexField, BufferField) or invokes a method through callSite. It
// is shared by the dispatcher's own name-dispatch step and by AUX's
// EvalObject, which both need identical name-resolution behavior from two
// different call shapes.
func evalNameRef(state *CallState, data []byte) (Value, int, *Error) {
	path, n := parseNameString(data)
	node, err := state.ns.Resolve(state.scope, path)
	if err != nil {
		return Value{}, 0, err
	}

	switch node.Kind {
	case NodeMethod:
		v, argN, err := callSite(state, node, data[n:])
		if err != nil {
			return Value{}, 0, err
		}
		return v, n + argN, nil
	case NodeField, NodeIndexField:
		v, err := state.aux.ReadField(node)
		if err != nil {
			return Value{}, 0, err
		}
		return v, n, nil
	case NodeBufferField:
		return readBufferField(node), n, nil
	case NodeName:
		return node.Value.Copy(), n, nil
	default:
		return Value{}, 0, newFatalError("aml", "evalNameRef: %s resolved to non-value node kind %d", node.AbsolutePath(), node.Kind)
	}
}
