package zschema

import (
	"math"
	"slices"
	"sync"
)

// Kind tags the variant held by a Node.
type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindBoolean
	KindLiteral
	KindObject
	KindArray
	KindRecord
	KindUnion
	KindOptional
	KindNullable
	KindDefault
	KindRefinement
	KindTransform
	KindLazy
)

var kindNames = [...]string{
	KindNumber:     "number",
	KindString:     "string",
	KindBoolean:    "boolean",
	KindLiteral:    "literal",
	KindObject:     "object",
	KindArray:      "array",
	KindRecord:     "record",
	KindUnion:      "union",
	KindOptional:   "optional",
	KindNullable:   "nullable",
	KindDefault:    "default",
	KindRefinement: "refinement",
	KindTransform:  "transform",
	KindLazy:       "lazy",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// UnknownPolicy controls how object keys without a declared field are handled.
type UnknownPolicy int

const (
	UnknownStrip       UnknownPolicy = iota // Drop unknown keys (default).
	UnknownStrict                           // Reject unknown keys with an error.
	UnknownPassthrough                      // Copy unknown keys to the output unvalidated.
)

// Check is a named predicate applied to a primitive or array value after its
// type matched. Test receives the normalized value: float64 for numbers,
// string for strings and []any for arrays.
type Check struct {
	Name    string
	Code    string
	Message string // overrides the translated default when set
	Params  map[string]any
	Test    func(v any) bool
}

// Check names understood by the JSON Schema export. Bounds live in Params
// under "minimum"/"maximum" (with "inclusive" for numbers), formats under
// "format", patterns under "pattern" and affixes under "value".
const (
	CheckInt        = "int"
	CheckMin        = "min"
	CheckMax        = "max"
	CheckMultipleOf = "multipleOf"
	CheckFormat     = "format"
	CheckRegex      = "regex"
	CheckStartsWith = "startsWith"
	CheckEndsWith   = "endsWith"
	CheckIncludes   = "includes"
)

// Field is an ordered object member.
type Field struct {
	Name   string
	Schema *Node
}

// Node is an immutable schema description. Every constructor returns a new
// node; nodes are safe to share between goroutines.
type Node struct {
	kind        Kind
	checks      []Check
	literals    []any
	fields      []Field
	unknown     UnknownPolicy
	inner       *Node
	variants    []*Node
	key         string // discriminator of a union
	def         any
	pred        func(any) bool
	message     string
	at          Path
	fn          func(any) (any, error)
	lazy        *lazyRef
	integer     *IntKind
	description string
}

// IntKind names a Go integer type by width and signedness.
type IntKind struct {
	Bits     int
	Unsigned bool
}

func (k IntKind) max() uint64 {
	if k.Unsigned {
		return math.MaxUint64 >> (64 - k.Bits)
	}
	return math.MaxUint64 >> (65 - k.Bits)
}

// Min returns the smallest value of k.
func (k IntKind) Min() int64 {
	if k.Unsigned {
		return 0
	}
	return -int64(k.max()) - 1
}

// Max returns the largest value of k.
func (k IntKind) Max() uint64 { return k.max() }

type lazyRef struct {
	once    sync.Once
	resolve func() *Node
	node    *Node
}

func (l *lazyRef) get() *Node {
	l.once.Do(func() { l.node = l.resolve() })
	return l.node
}

// NumberNode describes a finite number.
func NumberNode(checks ...Check) *Node {
	return &Node{kind: KindNumber, checks: slices.Clone(checks)}
}

// IntegerNode describes an integer of kind k. Values are range checked and
// produced exactly, as int64 for signed kinds and uint64 for unsigned ones.
// checks still receive the value as float64.
func IntegerNode(k IntKind, checks ...Check) *Node {
	if k.Bits <= 0 || k.Bits > 64 {
		k.Bits = 64
	}
	return &Node{kind: KindNumber, checks: slices.Clone(checks), integer: &k}
}

// StringNode describes a string.
func StringNode(checks ...Check) *Node {
	return &Node{kind: KindString, checks: slices.Clone(checks)}
}

// BooleanNode describes a boolean.
func BooleanNode() *Node { return &Node{kind: KindBoolean} }

// LiteralNode accepts exactly one of values.
func LiteralNode(values ...any) *Node {
	return &Node{kind: KindLiteral, literals: slices.Clone(values)}
}

// ObjectNode describes a mapping with ordered fields.
func ObjectNode(fields []Field, unknown UnknownPolicy) *Node {
	return &Node{kind: KindObject, fields: slices.Clone(fields), unknown: unknown}
}

// ArrayNode describes a homogeneous sequence.
func ArrayNode(elem *Node, checks ...Check) *Node {
	return &Node{kind: KindArray, inner: elem, checks: slices.Clone(checks)}
}

// RecordNode describes a mapping from string keys to values of one schema.
func RecordNode(value *Node) *Node { return &Node{kind: KindRecord, inner: value} }

// UnionNode accepts the first variant that validates with no issues.
func UnionNode(variants ...*Node) *Node {
	return &Node{kind: KindUnion, variants: slices.Clone(variants)}
}

// DiscriminatedUnionNode selects the variant by the value of the object key
// key. Each variant is an object whose key field is a literal.
func DiscriminatedUnionNode(key string, variants ...*Node) *Node {
	return &Node{kind: KindUnion, key: key, variants: slices.Clone(variants)}
}

// OptionalNode lets a value be absent.
func OptionalNode(inner *Node) *Node { return &Node{kind: KindOptional, inner: inner} }

// NullableNode lets a value be null.
func NullableNode(inner *Node) *Node { return &Node{kind: KindNullable, inner: inner} }

// DefaultNode validates def through inner when the value is absent.
func DefaultNode(inner *Node, def any) *Node {
	return &Node{kind: KindDefault, inner: inner, def: def}
}

// RefineNode runs pred on the output of inner when inner succeeded. A false
// result yields one custom issue at the current path extended by at.
func RefineNode(inner *Node, pred func(any) bool, message string, at Path) *Node {
	return &Node{kind: KindRefinement, inner: inner, pred: pred, message: message, at: slices.Clone(at)}
}

// TransformNode maps the output of inner when inner succeeded. A returned
// Issues is reported with paths relative to the value; any other error
// becomes one custom issue.
func TransformNode(inner *Node, fn func(any) (any, error)) *Node {
	return &Node{kind: KindTransform, inner: inner, fn: fn}
}

// LazyNode defers construction of its child until first use, allowing
// recursive schemas. resolve runs at most once.
func LazyNode(resolve func() *Node) *Node {
	return &Node{kind: KindLazy, lazy: &lazyRef{resolve: resolve}}
}

// WithDescription returns a copy carrying a human description.
func (n *Node) WithDescription(d string) *Node {
	c := *n
	c.description = d
	return &c
}

// Partial returns a copy of an object node whose direct fields are optional.
// Fields that already accept absence are kept as is; other kinds are
// returned unchanged.
func (n *Node) Partial() *Node {
	if n.kind != KindObject {
		return n
	}
	fields := make([]Field, len(n.fields))
	for i, f := range n.fields {
		if f.Schema.AcceptsAbsent() {
			fields[i] = f
			continue
		}
		fields[i] = Field{Name: f.Name, Schema: OptionalNode(f.Schema)}
	}
	return ObjectNode(fields, n.unknown)
}

// AcceptsAbsent reports whether a missing value validates without issues.
func (n *Node) AcceptsAbsent() bool {
	return n.acceptsAbsent(0)
}

func (n *Node) acceptsAbsent(depth int) bool {
	if depth > 64 {
		return false
	}
	switch n.kind {
	case KindOptional, KindDefault:
		return true
	case KindNullable, KindRefinement, KindTransform:
		return n.inner.acceptsAbsent(depth + 1)
	case KindLazy:
		return n.lazy.get().acceptsAbsent(depth + 1)
	case KindUnion:
		for _, v := range n.variants {
			if v.acceptsAbsent(depth + 1) {
				return true
			}
		}
	}
	return false
}

// Kind returns the variant tag.
func (n *Node) Kind() Kind { return n.kind }

// Checks returns a copy of the checks of a primitive or array node.
func (n *Node) Checks() []Check { return slices.Clone(n.checks) }

// IntKind reports the integer kind of a number node built by IntegerNode.
func (n *Node) IntKind() (IntKind, bool) {
	if n.integer == nil {
		return IntKind{}, false
	}
	return *n.integer, true
}

// Literals returns a copy of the allowed values of a literal node.
func (n *Node) Literals() []any { return slices.Clone(n.literals) }

// Fields returns a copy of the ordered fields of an object node.
func (n *Node) Fields() []Field { return slices.Clone(n.fields) }

// Unknown returns the unknown-key policy of an object node.
func (n *Node) Unknown() UnknownPolicy { return n.unknown }

// Inner returns the wrapped child: array element, record value, or the
// inner schema of a wrapper node.
func (n *Node) Inner() *Node { return n.inner }

// Variants returns a copy of the union variants.
func (n *Node) Variants() []*Node { return slices.Clone(n.variants) }

// Discriminator returns the key of a discriminated union, or "".
func (n *Node) Discriminator() string { return n.key }

// DefaultValue returns the default of a default node.
func (n *Node) DefaultValue() any { return n.def }

// Message returns the refinement message.
func (n *Node) Message() string { return n.message }

// Description returns the description set with WithDescription.
func (n *Node) Description() string { return n.description }

// Resolve returns the child of a lazy node, or n itself for other kinds.
func (n *Node) Resolve() *Node {
	if n.kind == KindLazy {
		return n.lazy.get()
	}
	return n
}

// Unwrap descends through wrapper and lazy nodes to the first structural
// node. Transforms are not crossed since they change the output shape.
func (n *Node) Unwrap() *Node {
	cur := n
	for i := 0; i < 64; i++ {
		switch cur.kind {
		case KindOptional, KindNullable, KindDefault, KindRefinement:
			cur = cur.inner
		case KindLazy:
			cur = cur.lazy.get()
		default:
			return cur
		}
	}
	return cur
}
