package dsl

import (
	"slices"

	"github.com/reoring/zschema"
)

// Field declares an object member.
func Field(name string, s zschema.Noder) zschema.Field {
	return zschema.Field{Name: name, Schema: s.Node()}
}

// ObjectSchema is an object schema whose fields keep declaration order. The
// output is a new map holding the declared fields that were present (plus
// unknown keys under Passthrough).
type ObjectSchema struct {
	zschema.Schema[map[string]any]
	fields  []zschema.Field
	unknown zschema.UnknownPolicy
}

// Object builds an object schema. Unknown keys are stripped by default. A
// repeated name replaces the earlier field in place.
func Object(fields ...zschema.Field) ObjectSchema {
	return newObject(merge(nil, fields), zschema.UnknownStrip)
}

func newObject(fields []zschema.Field, unknown zschema.UnknownPolicy) ObjectSchema {
	return ObjectSchema{
		Schema:  zschema.New[map[string]any](zschema.ObjectNode(fields, unknown), nil),
		fields:  fields,
		unknown: unknown,
	}
}

func merge(base, more []zschema.Field) []zschema.Field {
	out := slices.Clone(base)
	for _, f := range more {
		if i := slices.IndexFunc(out, func(o zschema.Field) bool { return o.Name == f.Name }); i >= 0 {
			out[i] = f
			continue
		}
		out = append(out, f)
	}
	return out
}

// Strict rejects unknown keys with one unrecognized_key issue each.
func (s ObjectSchema) Strict() ObjectSchema { return newObject(s.fields, zschema.UnknownStrict) }

// Strip drops unknown keys.
func (s ObjectSchema) Strip() ObjectSchema { return newObject(s.fields, zschema.UnknownStrip) }

// Passthrough keeps unknown keys in the output without validating them.
func (s ObjectSchema) Passthrough() ObjectSchema {
	return newObject(s.fields, zschema.UnknownPassthrough)
}

// Partial makes every direct field optional. Nested objects are untouched.
func (s ObjectSchema) Partial() ObjectSchema {
	n := zschema.ObjectNode(s.fields, s.unknown).Partial()
	return newObject(n.Fields(), s.unknown)
}

// Required is the inverse of Partial: direct optional fields become
// required again.
func (s ObjectSchema) Required() ObjectSchema {
	fields := make([]zschema.Field, len(s.fields))
	for i, f := range s.fields {
		if f.Schema.Kind() == zschema.KindOptional {
			f = zschema.Field{Name: f.Name, Schema: f.Schema.Inner()}
		}
		fields[i] = f
	}
	return newObject(fields, s.unknown)
}

// Extend adds fields; existing names are replaced in place.
func (s ObjectSchema) Extend(fields ...zschema.Field) ObjectSchema {
	return newObject(merge(s.fields, fields), s.unknown)
}

// Merge extends s with the fields of other; the policy of s is kept.
func (s ObjectSchema) Merge(other ObjectSchema) ObjectSchema { return s.Extend(other.fields...) }

// Pick keeps only the named fields, in declaration order.
func (s ObjectSchema) Pick(names ...string) ObjectSchema {
	out := make([]zschema.Field, 0, len(names))
	for _, f := range s.fields {
		if slices.Contains(names, f.Name) {
			out = append(out, f)
		}
	}
	return newObject(out, s.unknown)
}

// Omit drops the named fields.
func (s ObjectSchema) Omit(names ...string) ObjectSchema {
	out := make([]zschema.Field, 0, len(s.fields))
	for _, f := range s.fields {
		if !slices.Contains(names, f.Name) {
			out = append(out, f)
		}
	}
	return newObject(out, s.unknown)
}

// Keys lists the field names in declaration order.
func (s ObjectSchema) Keys() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// Shape returns a copy of the fields.
func (s ObjectSchema) Shape() []zschema.Field { return slices.Clone(s.fields) }
