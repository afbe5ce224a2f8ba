package aml

// VM ties the engine's collaborators together: the namespace a table has
// been loaded into, the Host a session is bound to, and the AUX catch-all
// evaluator. Constructed once per table set and reused across every
// method invocation.
type VM struct {
	ns   *Namespace
	host Host
	aux  AUX
}

// NewVM constructs a VM bound to host. Tables are loaded into it afterward
// via LoadDSDT.
func NewVM(host Host) *VM {
	vm := &VM{ns: NewNamespace(), host: host}
	vm.aux = newDefaultAUXWithVM(vm)
	return vm
}

func newDefaultAUXWithVM(vm *VM) *defaultAUX {
	a := newDefaultAUX(vm.ns, vm.host)
	a.vm = vm
	return a
}

// LoadDSDT parses a raw DSDT/SSDT AML payload into the VM's root namespace.
func (vm *VM) LoadDSDT(data []byte) *Error {
	return LoadTable(vm.ns, vm.ns.Root, data)
}

// Namespace exposes the loaded namespace tree, used by the disasm CLI
// command to print it without running any method.
func (vm *VM) Namespace() *Namespace { return vm.ns }

// Invoke resolves an absolute method path and calls it with args, the
// entry point a caller outside any AML context uses to run a method.
func (vm *VM) Invoke(path string, args ...Value) (Value, *Error) {
	p := parseDottedPath(path)
	node, err := vm.ns.Resolve(vm.ns.Root, p)
	if err != nil {
		return Value{}, errUndefinedMethod
	}
	if node.Kind != NodeMethod && !reservedPath(node.AbsolutePath()) {
		return Value{}, errNotAMethod
	}
	ret, rerr := runMethod(vm, node, args)
	if rerr != nil && !rerr.Fatal {
		vm.host.Panic(rerr)
	}
	return ret, rerr
}
