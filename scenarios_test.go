package aml

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestVM returns a VM whose diagnostics are captured in buf instead of
// going to a real terminal.
func newTestVM(buf *bytes.Buffer) *VM {
	return NewVM(NewFileHost(buf, 4096))
}

// declareMethod installs a Method node directly under vm's root namespace,
// bypassing the NS declaration parser (that parser is exercised separately
// in ns_loader_test.go) so these tests focus purely on the dispatcher.
func declareMethod(vm *VM, name string, argc int, body []byte) *Node {
	node, _ := declareChild(vm.ns.Root, []byte(name), NodeMethod)
	node.ArgCount = argc
	node.MethodBody = body
	return node
}

func TestScenarioEmptyBodyReturnsZero(t *testing.T) {
	var buf bytes.Buffer
	vm := newTestVM(&buf)
	declareMethod(vm, "EMPT", 0, []byte{})

	ret, err := vm.Invoke(`\EMPT`)
	require.Nil(t, err)
	require.Equal(t, KindInteger, ret.Kind)
	require.Equal(t, uint64(0), ret.Integer)
}

func TestScenarioExplicitReturn(t *testing.T) {
	var buf bytes.Buffer
	vm := newTestVM(&buf)
	// Return(ByteConst 42)
	body := []byte{byte(opReturn), byte(opBytePrefix), 42}
	declareMethod(vm, "RET1", 0, body)

	ret, err := vm.Invoke(`\RET1`)
	require.Nil(t, err)
	require.Equal(t, uint64(42), ret.Integer)
}

func TestScenarioReturnOfNestedAdd(t *testing.T) {
	var buf bytes.Buffer
	vm := newTestVM(&buf)
	// Return(Add(5, 7, Zero))
	body := []byte{
		byte(opReturn),
		byte(opAdd), byte(opBytePrefix), 5, byte(opBytePrefix), 7, 0x00,
	}
	declareMethod(vm, "ADD1", 0, body)

	ret, err := vm.Invoke(`\ADD1`)
	require.Nil(t, err)
	require.Equal(t, uint64(12), ret.Integer)
}

func TestScenarioTopLevelAddStoresIntoLocal(t *testing.T) {
	var buf bytes.Buffer
	vm := newTestVM(&buf)
	// Add(5, 7, Local0)   -- a bare top-level statement, discarded by the
	// dispatcher's own opstack, but its target write-back still happens.
	// Return(Local0)
	body := []byte{
		byte(opAdd), byte(opBytePrefix), 5, byte(opBytePrefix), 7, byte(opLocal0),
		byte(opReturn), byte(opLocal0),
	}
	declareMethod(vm, "ADD2", 0, body)

	ret, err := vm.Invoke(`\ADD2`)
	require.Nil(t, err)
	require.Equal(t, uint64(12), ret.Integer)
}

func TestScenarioWhileBreak(t *testing.T) {
	var buf bytes.Buffer
	vm := newTestVM(&buf)

	// While (LLess(Local0, 3)) {
	//   Increment(Local0)
	//   If (LEqual(Local0, 3)) { Break }
	// }
	// Return(Local0)
	predicate := []byte{byte(opLLess), byte(opLocal0), byte(opBytePrefix), 3}
	increment := []byte{byte(opIncrement), byte(opLocal0)}
	ifPredicate := []byte{byte(opLEqual), byte(opLocal0), byte(opBytePrefix), 3}
	ifBody := []byte{byte(opBreak)}
	ifPkg := append([]byte{byte(len(ifPredicate) + len(ifBody) + 1)}, append(append([]byte{}, ifPredicate...), ifBody...)...)
	ifStmt := append([]byte{byte(opIf)}, ifPkg...)

	loopStmts := append(append([]byte{}, increment...), ifStmt...)
	whilePkg := byte(1 + len(predicate) + len(loopStmts))
	whileStmt := append([]byte{byte(opWhile), whilePkg}, append(append([]byte{}, predicate...), loopStmts...)...)

	body := append(whileStmt, byte(opReturn), byte(opLocal0))
	declareMethod(vm, "LOOP", 0, body)

	ret, err := vm.Invoke(`\LOOP`)
	require.Nil(t, err)
	require.Equal(t, uint64(3), ret.Integer)
}

func TestScenarioWhileContinueNestedInIf(t *testing.T) {
	var buf bytes.Buffer
	vm := newTestVM(&buf)

	// While (LLess(Local0, 5)) {
	//   Increment(Local0)
	//   If (LLess(Local0, 3)) { Continue }
	//   Increment(Local1)
	// }
	// Return(Local1)
	//
	// Continue fires from inside the If scope, so it must pop the Cond
	// scope on its way back to the Loop's predicate -- Local1 should only
	// be incremented on the iterations that fall through the If.
	predicate := []byte{byte(opLLess), byte(opLocal0), byte(opBytePrefix), 5}
	increment1 := []byte{byte(opIncrement), byte(opLocal0)}
	ifPredicate := []byte{byte(opLLess), byte(opLocal0), byte(opBytePrefix), 3}
	ifBody := []byte{byte(opContinue)}
	ifPkg := append([]byte{byte(len(ifPredicate) + len(ifBody) + 1)}, append(append([]byte{}, ifPredicate...), ifBody...)...)
	ifStmt := append([]byte{byte(opIf)}, ifPkg...)
	increment2 := []byte{byte(opIncrement), byte(opLocal1)}

	loopStmts := append(append(append([]byte{}, increment1...), ifStmt...), increment2...)
	whilePkg := byte(1 + len(predicate) + len(loopStmts))
	whileStmt := append([]byte{byte(opWhile), whilePkg}, append(append([]byte{}, predicate...), loopStmts...)...)

	body := append(whileStmt, byte(opReturn), byte(opLocal1))
	declareMethod(vm, "LOP2", 0, body)

	ret, err := vm.Invoke(`\LOP2`)
	require.Nil(t, err)
	require.Equal(t, uint64(3), ret.Integer)
}

func TestScenarioIfElseTakenBranch(t *testing.T) {
	var buf bytes.Buffer
	vm := newTestVM(&buf)

	// If (LEqual(Arg0, One)) { Return(111) } Else { Return(222) }
	ifPred := []byte{byte(opLEqual), byte(opArg0), byte(opOne)}
	ifBody := []byte{byte(opReturn), byte(opBytePrefix), 111}
	ifPkg := byte(1 + len(ifPred) + len(ifBody))
	ifStmt := append([]byte{byte(opIf), ifPkg}, append(append([]byte{}, ifPred...), ifBody...)...)

	elseBody := []byte{byte(opReturn), byte(opBytePrefix), 222}
	elsePkg := byte(1 + len(elseBody))
	elseStmt := append([]byte{byte(opElse), elsePkg}, elseBody...)

	body := append(append([]byte{}, ifStmt...), elseStmt...)
	declareMethod(vm, "COND", 1, body)

	ret, err := vm.Invoke(`\COND`, IntValue(1))
	require.Nil(t, err)
	require.Equal(t, uint64(111), ret.Integer)
}

func TestScenarioIfElseElseBranch(t *testing.T) {
	var buf bytes.Buffer
	vm := newTestVM(&buf)

	ifPred := []byte{byte(opLEqual), byte(opArg0), byte(opOne)}
	ifBody := []byte{byte(opReturn), byte(opBytePrefix), 111}
	ifPkg := byte(1 + len(ifPred) + len(ifBody))
	ifStmt := append([]byte{byte(opIf), ifPkg}, append(append([]byte{}, ifPred...), ifBody...)...)

	elseBody := []byte{byte(opReturn), byte(opBytePrefix), 222}
	elsePkg := byte(1 + len(elseBody))
	elseStmt := append([]byte{byte(opElse), elsePkg}, elseBody...)

	body := append(append([]byte{}, ifStmt...), elseStmt...)
	declareMethod(vm, "COND", 1, body)

	ret, err := vm.Invoke(`\COND`, IntValue(0))
	require.Nil(t, err)
	require.Equal(t, uint64(222), ret.Integer)
}

func TestScenarioOSISupportedString(t *testing.T) {
	var buf bytes.Buffer
	vm := newTestVM(&buf)

	ret, err := vm.Invoke(`\_OSI`, StringValue("Windows 2015"))
	require.Nil(t, err)
	require.Equal(t, uint64(0xFFFFFFFF), ret.Integer)
}

func TestScenarioOSILinuxWarnsOnce(t *testing.T) {
	var buf bytes.Buffer
	vm := newTestVM(&buf)

	ret, err := vm.Invoke(`\_OSI`, StringValue("Linux"))
	require.Nil(t, err)
	require.Equal(t, uint64(0), ret.Integer)
	require.Contains(t, buf.String(), "Linux")
}

func TestScenarioOSIUnsupportedString(t *testing.T) {
	var buf bytes.Buffer
	vm := newTestVM(&buf)

	ret, err := vm.Invoke(`\_OSI`, StringValue("Some Future OS"))
	require.Nil(t, err)
	require.Equal(t, uint64(0), ret.Integer)
}

func TestScenarioMethodCallThroughCallSite(t *testing.T) {
	var buf bytes.Buffer
	vm := newTestVM(&buf)

	// \ADDR(Arg0, Arg1) { Return(Add(Arg0, Arg1, Zero)) }
	addrBody := []byte{
		byte(opReturn),
		byte(opAdd), byte(opArg0), byte(opArg1), 0x00,
	}
	declareMethod(vm, "ADDR", 2, addrBody)

	// \CALR() { Return(ADDR(ByteConst 2, ByteConst 3)) }
	calrBody := []byte{
		byte(opReturn),
	}
	calrBody = append(calrBody, []byte("ADDR")...)
	calrBody = append(calrBody, byte(opBytePrefix), 2, byte(opBytePrefix), 3)
	declareMethod(vm, "CALR", 0, calrBody)

	ret, err := vm.Invoke(`\CALR`)
	require.Nil(t, err)
	require.Equal(t, uint64(5), ret.Integer)
}

func TestRetvalueShapeInvariant(t *testing.T) {
	var buf bytes.Buffer
	vm := newTestVM(&buf)
	// A bare top-level Add with no Return leaves the opstack empty at
	// method end (its result is discarded, per want_exec_result), and the
	// implicit-zero prologue then pushes exactly one value -- so this must
	// still succeed with Integer(0), not violate the one-value invariant.
	body := []byte{byte(opAdd), byte(opBytePrefix), 1, byte(opBytePrefix), 1, 0x00}
	declareMethod(vm, "BARE", 0, body)

	ret, err := vm.Invoke(`\BARE`)
	require.Nil(t, err)
	require.Equal(t, uint64(0), ret.Integer)
}
