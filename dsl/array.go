package dsl

import (
	"slices"

	"github.com/reoring/zschema"
)

// ArraySchema validates every element against one schema. Length checks run
// before the elements are visited; no element failure stops the walk.
type ArraySchema[E any] struct {
	zschema.Schema[[]E]
	elem   zschema.Schema[E]
	checks []zschema.Check
}

// Array builds an array schema whose output is []E.
func Array[E any](elem zschema.Typed[E]) ArraySchema[E] {
	return ArraySchema[E]{elem: elem.AsSchema()}.with()
}

func (s ArraySchema[E]) with(c ...zschema.Check) ArraySchema[E] {
	checks := append(slices.Clone(s.checks), c...)
	elem := s.elem
	cast := func(v any) []E {
		raw, _ := v.([]any)
		out := make([]E, len(raw))
		for i, x := range raw {
			out[i] = elem.Cast(x)
		}
		return out
	}
	return ArraySchema[E]{
		Schema: zschema.New(zschema.ArrayNode(elem.Node(), checks...), cast),
		elem:   elem,
		checks: checks,
	}
}

// Element returns the element schema.
func (s ArraySchema[E]) Element() zschema.Schema[E] { return s.elem }

// Min requires at least n elements.
func (s ArraySchema[E]) Min(n int, message ...string) ArraySchema[E] {
	return s.with(itemsCheck(zschema.CheckMin, n, message))
}

// Max allows at most n elements.
func (s ArraySchema[E]) Max(n int, message ...string) ArraySchema[E] {
	return s.with(itemsCheck(zschema.CheckMax, n, message))
}

// Length requires exactly n elements.
func (s ArraySchema[E]) Length(n int, message ...string) ArraySchema[E] {
	return s.with(itemsCheck(zschema.CheckMin, n, message), itemsCheck(zschema.CheckMax, n, message))
}

// NonEmpty requires at least one element.
func (s ArraySchema[E]) NonEmpty(message ...string) ArraySchema[E] { return s.Min(1, message...) }

func itemsCheck(name string, n int, message []string) zschema.Check {
	if name == zschema.CheckMin {
		return zschema.Check{
			Name:    name,
			Code:    zschema.CodeTooSmall,
			Message: first(message),
			Params:  map[string]any{"minimum": n, "inclusive": true},
			Test:    func(v any) bool { return len(v.([]any)) >= n },
		}
	}
	return zschema.Check{
		Name:    name,
		Code:    zschema.CodeTooBig,
		Message: first(message),
		Params:  map[string]any{"maximum": n, "inclusive": true},
		Test:    func(v any) bool { return len(v.([]any)) <= n },
	}
}

// Record validates a string-keyed map whose values all match value. The
// output is map[string]V.
func Record[V any](value zschema.Typed[V]) zschema.Schema[map[string]V] {
	vs := value.AsSchema()
	return zschema.New(zschema.RecordNode(vs.Node()), func(v any) map[string]V {
		raw, _ := v.(map[string]any)
		out := make(map[string]V, len(raw))
		for k, x := range raw {
			out[k] = vs.Cast(x)
		}
		return out
	})
}
