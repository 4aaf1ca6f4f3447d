// Package schemafile loads schema definitions written in YAML.
//
// A file holds one root definition and, optionally, named definitions that
// may refer to each other (and to themselves) with ref:
//
//	definitions:
//	  Category:
//	    type: object
//	    fields:
//	      name: {type: string, minLength: 1}
//	      children: {type: array, items: {ref: Category}}
//	type: object
//	unknown: strict
//	fields:
//	  id:    {type: string, format: uuid}
//	  price: {type: number, min: 0}
//	  tags:  {type: array, items: {type: string}, maxItems: 10, optional: true}
//	  root:  {ref: Category}
//	refine:
//	  - expr: "price > 0 || len(tags ?? []) == 0"
//	    message: free items cannot be tagged
//	    path: /tags
//
// Field order in the file is the validation order. refine expressions are
// evaluated with expr-lang/expr; the validated value is bound to value and,
// for objects, each field is also bound by name.
package schemafile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"
)

// Types understood in the type key.
const (
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeString  = "string"
	TypeBoolean = "boolean"
	TypeEnum    = "enum"
	TypeLiteral = "literal"
	TypeObject  = "object"
	TypeArray   = "array"
	TypeRecord  = "record"
	TypeUnion   = "union"
	TypeRef     = "ref"
)

// Unknown-key policies of an object definition.
const (
	UnknownStrip       = "strip"
	UnknownStrict      = "strict"
	UnknownPassthrough = "passthrough"
)

// ErrSyntax is wrapped by every load error.
var ErrSyntax = errors.New("schemafile: invalid definition")

// Error locates a load error in the source.
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("schemafile: line %d: %s", e.Line, e.Msg) }

func (e *Error) Unwrap() error { return ErrSyntax }

// Definition is one parsed schema definition.
type Definition struct {
	Type        string
	Line        int
	Description string
	Optional    bool
	Nullable    bool
	HasDefault  bool
	Default     any

	// number and integer
	Min, Max, Gt, Lt, MultipleOf *float64

	// string
	MinLength, MaxLength, Length *int
	Pattern, Format              string
	StartsWith, EndsWith         string

	// object
	Fields  []Field
	Unknown string
	Partial bool

	// array
	Items              *Definition
	MinItems, MaxItems *int

	// record
	Values *Definition

	// enum and literal
	Enum []any

	Variants []*Definition
	Ref      string
	Refine   []Refinement
}

// Field is a named member of an object definition.
type Field struct {
	Name string
	Def  *Definition
}

// Refinement is an expression that must evaluate to true on a valid value.
type Refinement struct {
	Expr    string
	Message string
	Path    string
	Line    int
}

// Document is a loaded schema file.
type Document struct {
	Root        *Definition
	Definitions map[string]*Definition
	Source      []byte

	names []string // definition order
	built *builder
}

// Names lists the named definitions in file order.
func (d *Document) Names() []string { return slices.Clone(d.names) }

// Parse loads a YAML schema file. References are checked and refine
// expressions compiled, so a nil error means the document can be built.
func Parse(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &Error{Line: 1, Msg: "empty document"}
		}
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, &Error{Line: top.Line, Msg: "document must be a mapping"}
	}

	doc := &Document{Definitions: map[string]*Definition{}, Source: slices.Clone(data)}
	rest := &yaml.Node{Kind: yaml.MappingNode, Line: top.Line}
	for i := 0; i+1 < len(top.Content); i += 2 {
		k, v := top.Content[i], top.Content[i+1]
		if k.Value != "definitions" {
			rest.Content = append(rest.Content, k, v)
			continue
		}
		if v.Kind != yaml.MappingNode {
			return nil, &Error{Line: v.Line, Msg: "definitions must be a mapping"}
		}
		for j := 0; j+1 < len(v.Content); j += 2 {
			name := v.Content[j].Value
			if _, dup := doc.Definitions[name]; dup {
				return nil, &Error{Line: v.Content[j].Line, Msg: fmt.Sprintf("duplicate definition %q", name)}
			}
			def, err := parseDefinition(v.Content[j+1])
			if err != nil {
				return nil, err
			}
			doc.Definitions[name] = def
			doc.names = append(doc.names, name)
		}
	}
	def, err := parseDefinition(rest)
	if err != nil {
		return nil, err
	}
	doc.Root = def

	b, err := newBuilder(doc)
	if err != nil {
		return nil, err
	}
	doc.built = b
	return doc, nil
}

// MustParse is like Parse but panics on error.
func MustParse(data []byte) *Document {
	doc, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return doc
}

func parseDefinition(n *yaml.Node) (*Definition, error) {
	if n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	if n.Kind != yaml.MappingNode {
		return nil, &Error{Line: n.Line, Msg: "definition must be a mapping"}
	}
	d := &Definition{Line: n.Line}
	var typeSet bool
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if v.Kind == yaml.AliasNode {
			v = v.Alias
		}
		var err error
		switch k.Value {
		case "type":
			err = scalar(v, &d.Type)
			typeSet = true
		case "description":
			err = scalar(v, &d.Description)
		case "optional":
			err = scalar(v, &d.Optional)
		case "nullable":
			err = scalar(v, &d.Nullable)
		case "default":
			d.HasDefault = true
			err = v.Decode(&d.Default)
		case "min":
			d.Min, err = number(v)
		case "max":
			d.Max, err = number(v)
		case "gt":
			d.Gt, err = number(v)
		case "lt":
			d.Lt, err = number(v)
		case "multipleOf":
			d.MultipleOf, err = number(v)
		case "positive":
			err = flag(v, func() { d.Gt = ptr(0.0) })
		case "nonnegative":
			err = flag(v, func() { d.Min = ptr(0.0) })
		case "negative":
			err = flag(v, func() { d.Lt = ptr(0.0) })
		case "minLength":
			d.MinLength, err = integer(v)
		case "maxLength":
			d.MaxLength, err = integer(v)
		case "length":
			d.Length, err = integer(v)
		case "pattern":
			err = scalar(v, &d.Pattern)
		case "format":
			err = scalar(v, &d.Format)
		case "startsWith":
			err = scalar(v, &d.StartsWith)
		case "endsWith":
			err = scalar(v, &d.EndsWith)
		case "fields":
			d.Fields, err = parseFields(v)
		case "unknown":
			err = scalar(v, &d.Unknown)
		case "strict":
			err = flag(v, func() { d.Unknown = UnknownStrict })
		case "partial":
			err = scalar(v, &d.Partial)
		case "items":
			d.Items, err = parseDefinition(v)
		case "minItems":
			d.MinItems, err = integer(v)
		case "maxItems":
			d.MaxItems, err = integer(v)
		case "values":
			if v.Kind == yaml.SequenceNode {
				err = v.Decode(&d.Enum)
			} else {
				d.Values, err = parseDefinition(v)
			}
		case "value":
			var lit any
			err = v.Decode(&lit)
			d.Enum = []any{lit}
		case "variants":
			d.Variants, err = parseList(v)
		case "ref":
			err = scalar(v, &d.Ref)
		case "refine":
			d.Refine, err = parseRefinements(v)
		default:
			err = &Error{Line: k.Line, Msg: fmt.Sprintf("unknown key %q", k.Value)}
		}
		if err != nil {
			return nil, located(err, v.Line)
		}
	}
	if !typeSet && d.Ref != "" {
		d.Type = TypeRef
	}
	return d, d.check()
}

// Value returns the allowed value of a literal definition, or nil.
func (d *Definition) Value() any {
	if len(d.Enum) == 1 {
		return d.Enum[0]
	}
	return nil
}

func (d *Definition) check() error {
	bad := func(format string, a ...any) error {
		return &Error{Line: d.Line, Msg: fmt.Sprintf(format, a...)}
	}
	switch d.Type {
	case TypeNumber, TypeInteger, TypeBoolean:
	case TypeString:
		switch d.Format {
		case "", "email", "url", "uuid", "ip":
		default:
			return bad("unknown format %q", d.Format)
		}
	case TypeEnum:
		if len(d.Enum) == 0 {
			return bad("enum needs values")
		}
	case TypeLiteral:
		if len(d.Enum) != 1 {
			return bad("literal needs value")
		}
	case TypeObject:
		switch d.Unknown {
		case "", UnknownStrip, UnknownStrict, UnknownPassthrough:
		default:
			return bad("unknown policy %q", d.Unknown)
		}
	case TypeArray:
		if d.Items == nil {
			return bad("array needs items")
		}
	case TypeRecord:
		if d.Values == nil {
			return bad("record needs values")
		}
	case TypeUnion:
		if len(d.Variants) == 0 {
			return bad("union needs variants")
		}
	case TypeRef:
		if d.Ref == "" {
			return bad("ref needs a name")
		}
	case "":
		return bad("missing type")
	default:
		return bad("unknown type %q", d.Type)
	}
	return nil
}

func parseFields(n *yaml.Node) ([]Field, error) {
	if n.Kind != yaml.MappingNode {
		return nil, &Error{Line: n.Line, Msg: "fields must be a mapping"}
	}
	out := make([]Field, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		name := n.Content[i].Value
		if slices.ContainsFunc(out, func(f Field) bool { return f.Name == name }) {
			return nil, &Error{Line: n.Content[i].Line, Msg: fmt.Sprintf("duplicate field %q", name)}
		}
		def, err := parseDefinition(n.Content[i+1])
		if err != nil {
			return nil, err
		}
		out = append(out, Field{Name: name, Def: def})
	}
	return out, nil
}

func parseList(n *yaml.Node) ([]*Definition, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, &Error{Line: n.Line, Msg: "expected a list"}
	}
	out := make([]*Definition, 0, len(n.Content))
	for _, c := range n.Content {
		def, err := parseDefinition(c)
		if err != nil {
			return nil, err
		}
		out = append(out, def)
	}
	return out, nil
}

func parseRefinements(n *yaml.Node) ([]Refinement, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, &Error{Line: n.Line, Msg: "refine must be a list"}
	}
	out := make([]Refinement, 0, len(n.Content))
	for _, c := range n.Content {
		var r struct {
			Expr    string `yaml:"expr"`
			Message string `yaml:"message"`
			Path    string `yaml:"path"`
		}
		if err := c.Decode(&r); err != nil {
			return nil, located(err, c.Line)
		}
		if r.Expr == "" {
			return nil, &Error{Line: c.Line, Msg: "refine needs expr"}
		}
		out = append(out, Refinement{Expr: r.Expr, Message: r.Message, Path: r.Path, Line: c.Line})
	}
	return out, nil
}

func scalar(n *yaml.Node, dst any) error {
	if n.Kind != yaml.ScalarNode {
		return &Error{Line: n.Line, Msg: "expected a scalar"}
	}
	return n.Decode(dst)
}

func number(n *yaml.Node) (*float64, error) {
	var f float64
	if err := scalar(n, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func integer(n *yaml.Node) (*int, error) {
	var i int
	if err := scalar(n, &i); err != nil {
		return nil, err
	}
	if i < 0 {
		return nil, &Error{Line: n.Line, Msg: "length must not be negative"}
	}
	return &i, nil
}

func flag(n *yaml.Node, set func()) error {
	var b bool
	if err := scalar(n, &b); err != nil {
		return err
	}
	if b {
		set()
	}
	return nil
}

func located(err error, line int) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Line: line, Msg: err.Error()}
}

func ptr[T any](v T) *T { return &v }
