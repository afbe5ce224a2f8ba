package aml

import "testing"

func TestNewNamespaceHasRoot(t *testing.T) {
	ns := NewNamespace()
	if ns.Root == nil || ns.Root.Kind != NodeScope || ns.Root.Name != `\` {
		t.Fatalf("NewNamespace().Root = %+v", ns.Root)
	}
}

func TestDeclareChildAndFindChild(t *testing.T) {
	ns := NewNamespace()
	node, n := declareChild(ns.Root, []byte("TEST"), NodeName)
	if node == nil || node.Name != "TEST" || node.Kind != NodeName {
		t.Fatalf("declareChild() = %+v", node)
	}
	if n != 4 {
		t.Errorf("consumed %d bytes, want 4", n)
	}
	if findChild(ns.Root, "TEST") != node {
		t.Error("findChild should locate the declared node")
	}
}

func TestDeclareChildCreatesIntermediateScopes(t *testing.T) {
	ns := NewNamespace()
	data := append([]byte{0x2e}, []byte("_SB_PCI0")...)
	node, _ := declareChild(ns.Root, data, NodeDevice)

	sb := findChild(ns.Root, "_SB_")
	if sb == nil {
		t.Fatal("intermediate scope _SB_ was not created")
	}
	if findChild(sb, "PCI0") != node {
		t.Error("PCI0 should be a child of the intermediate _SB_ scope")
	}
	if node.AbsolutePath() != `\_SB_.PCI0` {
		t.Errorf("AbsolutePath() = %q, want %q", node.AbsolutePath(), `\_SB_.PCI0`)
	}
}

func TestResolveRelativeSearchesAncestors(t *testing.T) {
	ns := NewNamespace()
	sb, _ := declareChild(ns.Root, []byte("_SB_"), NodeDevice)
	pci, _ := declareChild(sb, []byte("PCI0"), NodeDevice)
	target, _ := declareChild(ns.Root, []byte("TGT1"), NodeName)

	path, _ := parseNameString([]byte("TGT1"))
	got, err := ns.Resolve(pci, path)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != target {
		t.Errorf("Resolve found %+v, want the root-level TGT1", got)
	}
}

func TestResolveAbsolutePath(t *testing.T) {
	ns := NewNamespace()
	sb, _ := declareChild(ns.Root, []byte("_SB_"), NodeDevice)
	pci, _ := declareChild(sb, []byte("PCI0"), NodeDevice)

	path, _ := parseNameString(append([]byte{'\\', 0x2e}, []byte("_SB_PCI0")...))
	got, err := ns.Resolve(ns.Root, path)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != pci {
		t.Errorf("Resolve(%q) = %+v, want PCI0", `\_SB_.PCI0`, got)
	}
}

func TestResolveUndefinedName(t *testing.T) {
	ns := NewNamespace()
	path, _ := parseNameString([]byte("NOPE"))
	if _, err := ns.Resolve(ns.Root, path); err != errUndefinedName {
		t.Errorf("Resolve(undefined) = %v, want errUndefinedName", err)
	}
}

func TestAbsolutePathOfRoot(t *testing.T) {
	ns := NewNamespace()
	if got := ns.Root.AbsolutePath(); got != `\` {
		t.Errorf("root AbsolutePath() = %q, want %q", got, `\`)
	}
}
