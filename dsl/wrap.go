package dsl

import (
	"sync"

	"github.com/reoring/zschema"
)

// Optional lets the value be absent; an absent value yields a nil pointer.
// Explicit null is not absence and is validated by s.
func Optional[T any](s zschema.Typed[T]) zschema.Schema[*T] {
	inner := s.AsSchema()
	return zschema.New(zschema.OptionalNode(inner.Node()), func(v any) *T {
		if zschema.IsUndefined(v) {
			return nil
		}
		out := inner.Cast(v)
		return &out
	})
}

// Nullable lets the value be null; null yields a nil pointer.
func Nullable[T any](s zschema.Typed[T]) zschema.Schema[*T] {
	inner := s.AsSchema()
	return zschema.New(zschema.NullableNode(inner.Node()), func(v any) *T {
		if v == nil || zschema.IsUndefined(v) {
			return nil
		}
		out := inner.Cast(v)
		return &out
	})
}

// Nullish lets the value be absent or null; both yield a nil pointer.
func Nullish[T any](s zschema.Typed[T]) zschema.Schema[*T] {
	inner := s.AsSchema()
	n := zschema.OptionalNode(zschema.NullableNode(inner.Node()))
	return zschema.New(n, func(v any) *T {
		if v == nil || zschema.IsUndefined(v) {
			return nil
		}
		out := inner.Cast(v)
		return &out
	})
}

// Transform maps the validated value of s with fn. fn never runs when s
// reported issues.
func Transform[In, Out any](s zschema.Typed[In], fn func(In) Out) zschema.Schema[Out] {
	inner := s.AsSchema()
	n := zschema.TransformNode(inner.Node(), func(v any) (any, error) {
		return fn(inner.Cast(v)), nil
	})
	return zschema.New[Out](n, nil)
}

// TransformErr is Transform for mappings that can fail; the error message
// becomes one custom issue. A zschema.Issues error is reported as is, with
// paths relative to the value.
func TransformErr[In, Out any](s zschema.Typed[In], fn func(In) (Out, error)) zschema.Schema[Out] {
	inner := s.AsSchema()
	n := zschema.TransformNode(inner.Node(), func(v any) (any, error) {
		out, err := fn(inner.Cast(v))
		if err != nil {
			return nil, err
		}
		return out, nil
	})
	return zschema.New[Out](n, nil)
}

// Lazy defers building the schema until first use, which allows a schema to
// refer to itself. fn is called at most once.
func Lazy[T any](fn func() zschema.Typed[T]) zschema.Schema[T] {
	var (
		once  sync.Once
		inner zschema.Schema[T]
	)
	get := func() zschema.Schema[T] {
		once.Do(func() { inner = fn().AsSchema() })
		return inner
	}
	n := zschema.LazyNode(func() *zschema.Node { return get().Node() })
	return zschema.New(n, func(v any) T { return get().Cast(v) })
}

// Default substitutes def when the value is absent. def is validated by s
// like any input.
func Default[T any](s zschema.Typed[T], def any) zschema.Schema[T] {
	return s.AsSchema().Default(def)
}

// FromNode wraps a schema node built elsewhere, such as one loaded from a
// schema file. The output is the canonical validated value.
func FromNode(n *zschema.Node) zschema.Schema[any] { return zschema.New[any](n, nil) }
