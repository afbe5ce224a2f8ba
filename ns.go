package aml

import "strings"

// NodeKind distinguishes the namespace object kinds the NS collaborator
// declares.
type NodeKind uint8

const (
	NodeScope NodeKind = iota
	NodeDevice
	NodeMethod
	NodeName
	NodeOpRegion
	NodeField
	NodeIndexField
	NodeBufferField
	NodeMutex
	NodeEvent
	NodeProcessor
	NodePowerRes
	NodeThermalZone
)

// Node is one entry in the ACPI namespace tree: the NS collaborator
// delegates name resolution, declaration parsing, and package parsing to
// it. A Node never owns another Node's AML bytes beyond the slice it was
// declared from — parsing never copies the table image.
type Node struct {
	Kind     NodeKind
	Name     string
	Parent   *Node
	Children []*Node

	// Value holds the evaluated contents of a Name declaration.
	Value Value

	// Method fields: the raw AML body the dispatcher walks directly,
	// argument count extracted from the MethodFlags byte, and whether the
	// original declared it Serialized (recorded but not enforced — this
	// core is single-threaded).
	MethodBody []byte
	ArgCount   int
	Serialized bool

	// OpRegion fields.
	RegionSpace  RegionSpace
	RegionOffset uint64
	RegionLength uint64

	// Field / IndexField fields: the region (or index/data register pair)
	// a field unit reads and writes through, plus its bit offset/width.
	FieldRegion    *Node
	FieldIndex     *Node
	FieldData      *Node
	FieldBitOffset uint64
	FieldBitWidth  uint64

	// BufferField fields: the buffer-valued Node this field aliases.
	BufferSource     *Node
	BufferOffsetBits uint64
	BufferWidthBits  uint64
}

// RegionSpace enumerates the operation-region address spaces ACPI defines.
type RegionSpace uint8

const (
	RegionSystemMemory RegionSpace = iota
	RegionSystemIO
	RegionPCIConfig
	RegionEmbeddedControl
	RegionSMBus
	RegionPCIBarTarget
	RegionIPMI
)

// Namespace is the root of the tree and the entry point for path
// resolution. It is process-wide mutable state, protected only by the
// single-threaded discipline this engine assumes throughout.
type Namespace struct {
	Root *Node
}

// NewNamespace returns a namespace holding the root scope "\" and the three
// reserved method nodes \_OSI (one argument), \_OS_ and \_REV, whose calls
// method entry answers without running any AML. The fixed \_GPE/\_PR_/
// \_SB_/\_SI_/\_TZ_ scopes are not created until a real DSDT declares them.
func NewNamespace() *Namespace {
	root := &Node{Kind: NodeScope, Name: `\`}
	addChild(root, &Node{Kind: NodeMethod, Name: "_OSI", ArgCount: 1})
	addChild(root, &Node{Kind: NodeMethod, Name: "_OS_"})
	addChild(root, &Node{Kind: NodeMethod, Name: "_REV"})
	return &Namespace{Root: root}
}

// addChild appends child under parent, setting its Parent pointer.
func addChild(parent, child *Node) {
	child.Parent = parent
	parent.Children = append(parent.Children, child)
}

// findChild returns the direct child of n named seg, or nil.
func findChild(n *Node, seg string) *Node {
	for _, c := range n.Children {
		if c.Name == seg {
			return c
		}
	}
	return nil
}

// Resolve looks up an absolute or relative NameString against the
// namespace, starting the relative search at scope: an absolute path, one
// with Caret prefixes, or a multi-segment relative path is resolved
// directly by descending from the indicated starting scope (the root, an
// ancestor, or scope itself); only a single-segment relative path walks
// upward through scope's ancestor chain looking for that segment.
func (ns *Namespace) Resolve(scope *Node, path namePath) (*Node, *Error) {
	if path.root || path.parents > 0 || len(path.segments) > 1 {
		start := ns.Root
		if !path.root {
			start = scope
			for i := 0; i < path.parents; i++ {
				if start.Parent == nil {
					return nil, errUndefinedName
				}
				start = start.Parent
			}
		}
		return ns.descend(start, path.segments)
	}

	if len(path.segments) == 0 {
		return scope, nil
	}

	// Single relative segment: search scope, then each ancestor in turn,
	// per ACPI's namespace search rule.
	seg := path.segments[0]
	for s := scope; s != nil; s = s.Parent {
		if c := findChild(s, seg); c != nil {
			return c, nil
		}
	}
	return nil, errUndefinedName
}

// descend walks segs from start, requiring every intermediate segment to
// already exist.
func (ns *Namespace) descend(start *Node, segs []string) (*Node, *Error) {
	cur := start
	for _, seg := range segs {
		next := findChild(cur, seg)
		if next == nil {
			return nil, errUndefinedName
		}
		cur = next
	}
	return cur, nil
}

// AbsolutePath renders n's full dotted path from the root, used for error
// messages and the \_OSI/\_OS_/\_REV reserved-path checks.
func (n *Node) AbsolutePath() string {
	if n.Parent == nil {
		return `\`
	}
	var segs []string
	for cur := n; cur.Parent != nil; cur = cur.Parent {
		segs = append([]string{cur.Name}, segs...)
	}
	return `\` + strings.Join(segs, ".")
}

// declareChild parses a NameString at data and creates (or returns an
// existing) child node of kind under scope, advancing past the name. It is
// the shared first step of every top-level declaration opcode (Name,
// Scope, Device, Method, OpRegion, ...).
func declareChild(scope *Node, data []byte, kind NodeKind) (*Node, int) {
	path, n := parseNameString(data)
	target := scope
	for i := 0; i < path.parents; i++ {
		if target.Parent != nil {
			target = target.Parent
		}
	}
	if path.root {
		// Absolute declarations inside a DSDT body are rare but legal;
		// resolve relative to nothing but the segments themselves,
		// creating intermediate scopes as needed is out of scope for
		// this loader, so treat it the same as a relative declaration
		// under the current scope.
	}
	cur := target
	for i, seg := range path.segments {
		if i == len(path.segments)-1 {
			if existing := findChild(cur, seg); existing != nil {
				existing.Kind = kind
				return existing, n
			}
			child := &Node{Kind: kind, Name: seg}
			addChild(cur, child)
			return child, n
		}
		next := findChild(cur, seg)
		if next == nil {
			next = &Node{Kind: NodeScope, Name: seg}
			addChild(cur, next)
		}
		cur = next
	}
	// Zero-segment NameString (NullName): declares into scope itself.
	return scope, n
}
