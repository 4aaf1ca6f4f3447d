package zschema

import (
	"context"
)

// Noder is implemented by every schema handle regardless of its output type.
type Noder interface {
	Node() *Node
}

// Typed is implemented by every schema handle whose validated output is T.
// Builders in the dsl package satisfy it by embedding Schema[T].
type Typed[T any] interface {
	Noder
	AsSchema() Schema[T]
}

// Schema pairs a Node with the projection of its validated output into T.
// T is the static type derived from the schema description. The zero value
// has no node and fails with ErrNilSchema.
type Schema[T any] struct {
	node *Node
	cast func(any) T
}

// New builds a typed handle for n. cast converts the value produced by
// validating n into T; nil uses a type assertion.
func New[T any](n *Node, cast func(any) T) Schema[T] {
	return Schema[T]{node: n, cast: cast}
}

// Node returns the underlying schema description.
func (s Schema[T]) Node() *Node { return s.node }

// AsSchema returns s.
func (s Schema[T]) AsSchema() Schema[T] { return s }

// Cast converts a value produced by validating s.Node() into T. Values of
// any other shape yield the zero T.
func (s Schema[T]) Cast(v any) T {
	if s.cast != nil {
		return s.cast(v)
	}
	out, _ := v.(T)
	return out
}

// Parse validates v and returns the typed output, or the full ordered
// Issues as the error.
func (s Schema[T]) Parse(ctx context.Context, v any, opts ...ParseOpt) (T, error) {
	var zero T
	if s.node == nil {
		return zero, ErrNilSchema
	}
	out, iss, err := run(ctx, s.node, v, resolveOpt(opts))
	if err != nil {
		return zero, err
	}
	if len(iss) > 0 {
		return zero, iss
	}
	return s.Cast(out), nil
}

// MustParse is like Parse but panics with the error.
func (s Schema[T]) MustParse(ctx context.Context, v any, opts ...ParseOpt) T {
	out, err := s.Parse(ctx, v, opts...)
	if err != nil {
		panic(err)
	}
	return out
}

// SafeParse validates v and never fails; the outcome is reported in Result.
func (s Schema[T]) SafeParse(ctx context.Context, v any, opts ...ParseOpt) Result[T] {
	out, err := s.Parse(ctx, v, opts...)
	if err == nil {
		return Result[T]{OK: true, Value: out}
	}
	if iss, ok := AsIssues(err); ok {
		return Result[T]{Issues: iss}
	}
	return Result[T]{err: err}
}

// Refine adds a predicate evaluated only on successfully validated values.
func (s Schema[T]) Refine(pred func(T) bool, message ...string) Schema[T] {
	return s.RefineAt(nil, pred, message...)
}

// RefineAt is like Refine but reports the failure at the given path relative
// to the refined value (e.g. a confirmation field of an object).
func (s Schema[T]) RefineAt(at Path, pred func(T) bool, message ...string) Schema[T] {
	msg := ""
	if len(message) > 0 {
		msg = message[0]
	}
	cast := s.Cast
	n := RefineNode(s.node, func(v any) bool { return pred(cast(v)) }, msg, at)
	return Schema[T]{node: n, cast: s.cast}
}

// Default substitutes v when the input is absent. v is validated like any
// input, so it must be in input shape.
func (s Schema[T]) Default(v any) Schema[T] {
	return Schema[T]{node: DefaultNode(s.node, v), cast: s.cast}
}

// Describe attaches a description used by the JSON Schema export.
func (s Schema[T]) Describe(d string) Schema[T] {
	return Schema[T]{node: s.node.WithDescription(d), cast: s.cast}
}

// Any erases the static type while keeping the typed output.
func (s Schema[T]) Any() Schema[any] {
	cast := s.Cast
	n := TransformNode(s.node, func(v any) (any, error) {
		if IsUndefined(v) {
			return Undefined, nil
		}
		return cast(v), nil
	})
	return Schema[any]{node: n}
}

// Result is the non-raising outcome of SafeParse.
type Result[T any] struct {
	OK     bool
	Value  T
	Issues Issues
	err    error
}

// Err returns nil on success, the Issues on validation failure, or the
// context error when the run was cancelled.
func (r Result[T]) Err() error {
	if r.err != nil {
		return r.err
	}
	if !r.OK {
		return r.Issues
	}
	return nil
}

// ---- Convenience wrappers (Zod-like entry points) ----

// Parse is a thin wrapper around Schema.Parse.
func Parse[T any](ctx context.Context, s Typed[T], v any, opts ...ParseOpt) (T, error) {
	return s.AsSchema().Parse(ctx, v, opts...)
}

// MustParse is a thin wrapper around Schema.MustParse.
func MustParse[T any](ctx context.Context, s Typed[T], v any, opts ...ParseOpt) T {
	return s.AsSchema().MustParse(ctx, v, opts...)
}

// SafeParse is a thin wrapper around Schema.SafeParse.
func SafeParse[T any](ctx context.Context, s Typed[T], v any, opts ...ParseOpt) Result[T] {
	return s.AsSchema().SafeParse(ctx, v, opts...)
}

// Is returns true if v conforms to the schema s.
func Is[T any](ctx context.Context, s Typed[T], v any) bool {
	return s.AsSchema().SafeParse(ctx, v).OK
}
