package schemafile

import (
	"fmt"
	"maps"
	"regexp"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/reoring/zschema"
	g "github.com/reoring/zschema/dsl"
)

// builder turns definitions into schema nodes. Named definitions are built
// once and shared; refs resolve lazily so definitions may be recursive.
type builder struct {
	doc   *Document
	named map[string]*zschema.Node
	root  *zschema.Node
}

func newBuilder(doc *Document) (*builder, error) {
	b := &builder{doc: doc, named: make(map[string]*zschema.Node, len(doc.Definitions))}
	for _, name := range doc.names {
		if err := unguarded(doc, doc.Definitions[name], map[string]bool{name: true}); err != nil {
			return nil, err
		}
	}
	for _, name := range doc.names {
		n, err := b.build(doc.Definitions[name])
		if err != nil {
			return nil, err
		}
		b.named[name] = n
	}
	n, err := b.build(doc.Root)
	if err != nil {
		return nil, err
	}
	b.root = n
	return b, nil
}

// Node returns the root schema node.
func (d *Document) Node() *zschema.Node { return d.built.root }

// Schema returns the root schema with its canonical output.
func (d *Document) Schema() zschema.Schema[any] { return zschema.New[any](d.built.root, nil) }

// Object returns the root schema typed as an object, for use with dsl.Bind.
func (d *Document) Object() (zschema.Schema[map[string]any], error) {
	n := d.built.root
	if d.Root.Optional || d.Root.Nullable || n.Unwrap().Kind() != zschema.KindObject {
		return zschema.Schema[map[string]any]{}, &Error{Line: d.Root.Line, Msg: "root is not a required object"}
	}
	return zschema.New[map[string]any](n, nil), nil
}

// Lookup returns the node of a named definition.
func (d *Document) Lookup(name string) (*zschema.Node, bool) {
	n, ok := d.built.named[name]
	return n, ok
}

// unguarded rejects ref cycles that never pass through an object, array or
// record, since validating them would not consume any input.
func unguarded(doc *Document, d *Definition, visiting map[string]bool) error {
	switch d.Type {
	case TypeRef:
		if visiting[d.Ref] {
			return &Error{Line: d.Line, Msg: fmt.Sprintf("ref %q refers to itself without a container", d.Ref)}
		}
		next, ok := doc.Definitions[d.Ref]
		if !ok {
			return nil
		}
		visiting[d.Ref] = true
		defer delete(visiting, d.Ref)
		return unguarded(doc, next, visiting)
	case TypeUnion:
		for _, v := range d.Variants {
			if err := unguarded(doc, v, visiting); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *builder) build(d *Definition) (*zschema.Node, error) {
	n, err := b.base(d)
	if err != nil {
		return nil, err
	}
	for _, r := range d.Refine {
		if n, err = refine(n, r); err != nil {
			return nil, err
		}
	}
	if d.Description != "" {
		n = n.WithDescription(d.Description)
	}
	if d.Nullable {
		n = zschema.NullableNode(n)
	}
	if d.HasDefault {
		n = zschema.DefaultNode(n, d.Default)
	}
	if d.Optional {
		n = zschema.OptionalNode(n)
	}
	return n, nil
}

func (b *builder) base(d *Definition) (*zschema.Node, error) {
	switch d.Type {
	case TypeNumber, TypeInteger:
		s := g.Number()
		if d.Min != nil {
			s = s.Min(*d.Min)
		}
		if d.Gt != nil {
			s = s.Gt(*d.Gt)
		}
		if d.Max != nil {
			s = s.Max(*d.Max)
		}
		if d.Lt != nil {
			s = s.Lt(*d.Lt)
		}
		if d.MultipleOf != nil {
			s = s.MultipleOf(*d.MultipleOf)
		}
		if d.Type == TypeInteger {
			return g.NumberOf[int64](s).Node(), nil
		}
		return s.Node(), nil
	case TypeString:
		return b.str(d)
	case TypeBoolean:
		return g.Bool().Node(), nil
	case TypeEnum, TypeLiteral:
		return g.Enum(d.Enum...).Node(), nil
	case TypeObject:
		fields := make([]zschema.Field, 0, len(d.Fields))
		for _, f := range d.Fields {
			n, err := b.build(f.Def)
			if err != nil {
				return nil, err
			}
			fields = append(fields, zschema.Field{Name: f.Name, Schema: n})
		}
		unknown := zschema.UnknownStrip
		switch d.Unknown {
		case UnknownStrict:
			unknown = zschema.UnknownStrict
		case UnknownPassthrough:
			unknown = zschema.UnknownPassthrough
		}
		n := zschema.ObjectNode(fields, unknown)
		if d.Partial {
			n = n.Partial()
		}
		return n, nil
	case TypeArray:
		elem, err := b.build(d.Items)
		if err != nil {
			return nil, err
		}
		s := g.Array(g.FromNode(elem))
		if d.MinItems != nil {
			s = s.Min(*d.MinItems)
		}
		if d.MaxItems != nil {
			s = s.Max(*d.MaxItems)
		}
		return s.Node(), nil
	case TypeRecord:
		v, err := b.build(d.Values)
		if err != nil {
			return nil, err
		}
		return zschema.RecordNode(v), nil
	case TypeUnion:
		variants := make([]*zschema.Node, 0, len(d.Variants))
		for _, v := range d.Variants {
			n, err := b.build(v)
			if err != nil {
				return nil, err
			}
			variants = append(variants, n)
		}
		return zschema.UnionNode(variants...), nil
	case TypeRef:
		name := d.Ref
		if _, ok := b.doc.Definitions[name]; !ok {
			return nil, &Error{Line: d.Line, Msg: fmt.Sprintf("undefined ref %q", name)}
		}
		return zschema.LazyNode(func() *zschema.Node { return b.named[name] }), nil
	}
	return nil, &Error{Line: d.Line, Msg: fmt.Sprintf("unknown type %q", d.Type)}
}

func (b *builder) str(d *Definition) (*zschema.Node, error) {
	s := g.String()
	if d.Length != nil {
		s = s.Length(*d.Length)
	}
	if d.MinLength != nil {
		s = s.Min(*d.MinLength)
	}
	if d.MaxLength != nil {
		s = s.Max(*d.MaxLength)
	}
	switch d.Format {
	case "email":
		s = s.Email()
	case "url":
		s = s.URL()
	case "uuid":
		s = s.UUID()
	case "ip":
		s = s.IP()
	}
	if d.Pattern != "" {
		re, err := regexp.Compile(d.Pattern)
		if err != nil {
			return nil, &Error{Line: d.Line, Msg: fmt.Sprintf("pattern: %v", err)}
		}
		s = s.Regex(re)
	}
	if d.StartsWith != "" {
		s = s.StartsWith(d.StartsWith)
	}
	if d.EndsWith != "" {
		s = s.EndsWith(d.EndsWith)
	}
	return s.Node(), nil
}

// refine compiles r and wraps n. A run-time error or a non-boolean result
// counts as a failed refinement.
func refine(n *zschema.Node, r Refinement) (*zschema.Node, error) {
	prg, err := expr.Compile(r.Expr, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, &Error{Line: r.Line, Msg: fmt.Sprintf("refine %q: %v", r.Expr, err)}
	}
	msg := r.Message
	if msg == "" {
		msg = fmt.Sprintf("failed %s", r.Expr)
	}
	return zschema.RefineNode(n, func(v any) bool { return eval(prg, v) }, msg, zschema.ParsePointer(r.Path)), nil
}

func eval(prg *vm.Program, v any) bool {
	env := map[string]any{}
	if m, ok := v.(map[string]any); ok {
		maps.Copy(env, m)
	}
	env["value"] = v
	out, err := expr.Run(prg, env)
	if err != nil {
		return false
	}
	ok, _ := out.(bool)
	return ok
}
