package zschema

import (
	"fmt"
	"regexp"

	js "github.com/reoring/zschema/jsonschema"
)

// JSONSchema projects the schema into a JSON Schema representation.
// Refinements and transforms have no JSON Schema counterpart; the export
// describes the input they accept.
func (s Schema[T]) JSONSchema() (*js.Schema, error) {
	if s.node == nil {
		return nil, ErrNilSchema
	}
	return ExportJSONSchema(s.node)
}

// ExportJSONSchema projects a node tree into a JSON Schema document. Lazy
// nodes become entries under $defs so recursive schemas terminate.
func ExportJSONSchema(n *Node) (*js.Schema, error) {
	x := &exporter{names: make(map[*lazyRef]string), defs: make(map[string]*js.Schema)}
	out, err := x.export(n)
	if err != nil {
		return nil, err
	}
	if len(x.defs) > 0 {
		out.Defs = x.defs
	}
	out.SchemaURI = js.Draft
	return out, nil
}

type exporter struct {
	names map[*lazyRef]string
	defs  map[string]*js.Schema
}

var formatNames = map[string]string{"email": "email", "url": "uri", "uuid": "uuid"}

func (x *exporter) export(n *Node) (*js.Schema, error) {
	out, err := x.exportKind(n)
	if err != nil {
		return nil, err
	}
	if n.description != "" {
		out.Description = n.description
	}
	return out, nil
}

func (x *exporter) exportKind(n *Node) (*js.Schema, error) {
	switch n.kind {
	case KindNumber:
		out := &js.Schema{Type: "number"}
		if k, ok := n.IntKind(); ok {
			out.Type = "integer"
			if k.Bits < 64 {
				out.Minimum = raise(nil, float64(k.Min()))
				out.Maximum = lower(nil, float64(k.Max()))
			}
		}
		for _, c := range n.checks {
			switch c.Name {
			case CheckInt:
				out.Type = "integer"
			case CheckMin:
				if f, ok := floatParam(c, "minimum"); ok {
					if inclusive(c) {
						out.Minimum = raise(out.Minimum, f)
					} else {
						out.ExclusiveMinimum = raise(out.ExclusiveMinimum, f)
					}
				}
			case CheckMax:
				if f, ok := floatParam(c, "maximum"); ok {
					if inclusive(c) {
						out.Maximum = lower(out.Maximum, f)
					} else {
						out.ExclusiveMaximum = lower(out.ExclusiveMaximum, f)
					}
				}
			case CheckMultipleOf:
				if f, ok := floatParam(c, "multipleOf"); ok {
					out.MultipleOf = &f
				}
			}
		}
		return out, nil
	case KindString:
		out := &js.Schema{Type: "string"}
		for _, c := range n.checks {
			switch c.Name {
			case CheckMin:
				if i, ok := intParam(c, "minimum"); ok {
					out.MinLength = raiseInt(out.MinLength, i)
				}
			case CheckMax:
				if i, ok := intParam(c, "maximum"); ok {
					out.MaxLength = lowerInt(out.MaxLength, i)
				}
			case CheckFormat:
				if f, ok := formatNames[fmt.Sprint(c.Params["format"])]; ok && out.Format == "" {
					out.Format = f
				}
			case CheckRegex:
				if out.Pattern == "" {
					out.Pattern = fmt.Sprint(c.Params["pattern"])
				}
			case CheckStartsWith:
				if out.Pattern == "" {
					out.Pattern = "^" + regexp.QuoteMeta(fmt.Sprint(c.Params["value"]))
				}
			case CheckEndsWith:
				if out.Pattern == "" {
					out.Pattern = regexp.QuoteMeta(fmt.Sprint(c.Params["value"])) + "$"
				}
			}
		}
		return out, nil
	case KindBoolean:
		return &js.Schema{Type: "boolean"}, nil
	case KindLiteral:
		if len(n.literals) == 1 {
			if n.literals[0] == nil {
				return &js.Schema{Type: "null"}, nil
			}
			return &js.Schema{Const: n.literals[0]}, nil
		}
		return &js.Schema{Enum: n.Literals()}, nil
	case KindObject:
		out := &js.Schema{Type: "object", Properties: make(map[string]*js.Schema, len(n.fields))}
		for _, f := range n.fields {
			fs, err := x.export(f.Schema)
			if err != nil {
				return nil, err
			}
			out.Properties[f.Name] = fs
			if !f.Schema.AcceptsAbsent() {
				out.Required = append(out.Required, f.Name)
			}
		}
		switch n.unknown {
		case UnknownStrict:
			out.AdditionalProperties = false
		case UnknownPassthrough:
			out.AdditionalProperties = true
		}
		return out, nil
	case KindArray:
		items, err := x.export(n.inner)
		if err != nil {
			return nil, err
		}
		out := &js.Schema{Type: "array", Items: items}
		for _, c := range n.checks {
			switch c.Name {
			case CheckMin:
				if i, ok := intParam(c, "minimum"); ok {
					out.MinItems = raiseInt(out.MinItems, i)
				}
			case CheckMax:
				if i, ok := intParam(c, "maximum"); ok {
					out.MaxItems = lowerInt(out.MaxItems, i)
				}
			}
		}
		return out, nil
	case KindRecord:
		values, err := x.export(n.inner)
		if err != nil {
			return nil, err
		}
		return &js.Schema{Type: "object", AdditionalProperties: values}, nil
	case KindUnion:
		out := &js.Schema{AnyOf: make([]*js.Schema, 0, len(n.variants))}
		for _, v := range n.variants {
			vs, err := x.export(v)
			if err != nil {
				return nil, err
			}
			out.AnyOf = append(out.AnyOf, vs)
		}
		return out, nil
	case KindNullable:
		inner, err := x.export(n.inner)
		if err != nil {
			return nil, err
		}
		return &js.Schema{AnyOf: []*js.Schema{inner, {Type: "null"}}}, nil
	case KindDefault:
		inner, err := x.export(n.inner)
		if err != nil {
			return nil, err
		}
		inner.Default = n.def
		return inner, nil
	case KindOptional, KindRefinement, KindTransform:
		return x.export(n.inner)
	case KindLazy:
		name, ok := x.names[n.lazy]
		if !ok {
			name = fmt.Sprintf("def%d", len(x.names)+1)
			x.names[n.lazy] = name
			def, err := x.export(n.lazy.get())
			if err != nil {
				return nil, err
			}
			x.defs[name] = def
		}
		return &js.Schema{Ref: "#/$defs/" + name}, nil
	}
	return nil, fmt.Errorf("zschema: cannot export node kind %s", n.kind)
}

// raise and lower keep the tightest of repeated bounds.
func raise(cur *float64, f float64) *float64 {
	if cur != nil && *cur >= f {
		return cur
	}
	return &f
}

func lower(cur *float64, f float64) *float64 {
	if cur != nil && *cur <= f {
		return cur
	}
	return &f
}

func raiseInt(cur *int, i int) *int {
	if cur != nil && *cur >= i {
		return cur
	}
	return &i
}

func lowerInt(cur *int, i int) *int {
	if cur != nil && *cur <= i {
		return cur
	}
	return &i
}

func floatParam(c Check, key string) (float64, bool) {
	return toFloat(c.Params[key])
}

func intParam(c Check, key string) (int, bool) {
	f, ok := toFloat(c.Params[key])
	return int(f), ok
}

func inclusive(c Check) bool {
	b, ok := c.Params["inclusive"].(bool)
	return !ok || b
}
