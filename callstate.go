package aml

// maxMethodArgs and maxLocals are the fixed slot counts ACPI defines for
// Arg0-Arg6 and Local0-Local7.
const (
	maxMethodArgs = 7
	maxLocals     = 8
)

// CallState is everything one control-method invocation needs, created
// fresh by method entry (runMethod) for each call and finalized by it once
// the method body has run.
type CallState struct {
	method *Node
	scope  *Node

	Arg      [maxMethodArgs]Value
	Local    [maxLocals]Value
	RetValue Value

	opstack   operandStack
	execstack execStack

	vm  *VM
	aux AUX
	ns  *Namespace
}

// newCallState zeroes a fresh CallState for invoking method, per method
// entry's "creates and zeroes state" responsibility. The execution-scope
// stack starts empty (ptr == -1).
func newCallState(vm *VM, method *Node) *CallState {
	return &CallState{
		method:    method,
		scope:     method.Parent,
		execstack: newExecStack(),
		vm:        vm,
		aux:       vm.aux,
		ns:        vm.ns,
	}
}

// finalize releases every Arg/Local/RetValue slot: the caller extracts
// retvalue, then finalize frees all arg/local/retvalue slots. Under the
// garbage collector this just drops references so they cannot be
// accidentally reused.
func (cs *CallState) finalize() {
	for i := range cs.Arg {
		cs.Arg[i] = Value{}
	}
	for i := range cs.Local {
		cs.Local[i] = Value{}
	}
	cs.RetValue = Value{}
}

// supportedOSIStrings is the exact, case-sensitive set of _OSI strings this
// engine reports as implemented, matching the reference interpreter's
// supported_osi_strings table in original_source/src/exec.c.
var supportedOSIStrings = []string{
	"Windows 2000",
	"Windows 2001",
	"Windows 2001 SP1",
	"Windows 2001.1",
	"Windows 2006",
	"Windows 2006.1",
	"Windows 2006 SP1",
	"Windows 2006 SP2",
	"Windows 2009",
	"Windows 2012",
	"Windows 2013",
	"Windows 2015",
}

// runMethod is method entry. It handles the three reserved
// paths (\_OSI, \_OS_, \_REV) directly, and otherwise runs the byte-stream
// dispatcher over method.MethodBody, then validates and extracts the
// single retvalue the dispatcher must leave behind.
func runMethod(vm *VM, method *Node, args []Value) (Value, *Error) {
	state := newCallState(vm, method)
	for i, v := range args {
		if i >= maxMethodArgs {
			break
		}
		state.Arg[i] = v
	}

	switch method.AbsolutePath() {
	case `\_OSI`:
		return evalOSI(vm, state)
	case `\_OS_`:
		return StringValue("Microsoft Windows NT"), nil
	case `\_REV`:
		return IntValue(2), nil
	}

	if _, err := state.execstack.push(); err != nil {
		return Value{}, err
	}
	state.execstack.peekTop().kind = scopeMethodContext

	if err := dispatch(state, method.MethodBody); err != nil {
		return Value{}, err
	}

	if state.opstack.len() != 1 {
		return Value{}, errRetvalueShape
	}
	ret, err := state.opstack.get(0)
	if err != nil {
		return Value{}, err
	}
	result := *ret
	state.finalize()
	return result, nil
}

// evalOSI implements \_OSI(String): a case-sensitive comparison against
// supportedOSIStrings, returning all-ones (0xFFFFFFFF) when supported and
// zero otherwise, with a warning for the well-known "Linux" compatibility
// string.
func evalOSI(vm *VM, state *CallState) (Value, *Error) {
	query := state.Arg[0].Str

	for _, s := range supportedOSIStrings {
		if s == query {
			return IntValue(0xFFFFFFFF), nil
		}
	}
	if query == "Linux" {
		vm.host.Warn("_OSI(\"Linux\") queried; Linux compatibility strings are not implemented")
	}
	return IntValue(0), nil
}

// reservedPath reports whether path is one of the three names \_OSI,
// \_OS_, \_REV that method entry special-cases, used by Invoke to accept
// them even when the node found at that path is not a Method.
func reservedPath(path string) bool {
	return path == `\_OSI` || path == `\_OS_` || path == `\_REV`
}
