package zschema

import "context"

// ParseFrom decodes src with the options and validates the result against
// s. Decoding failures and validation failures are both returned as Issues.
func ParseFrom[T any](ctx context.Context, s Typed[T], src Source, opts ...ParseOpt) (T, error) {
	var zero T
	opt := resolveOpt(opts)
	v, err := src.Decode(opt)
	if err != nil {
		return zero, err
	}
	return s.AsSchema().Parse(ctx, v, opt)
}

// SafeParseFrom is the non-raising form of ParseFrom.
func SafeParseFrom[T any](ctx context.Context, s Typed[T], src Source, opts ...ParseOpt) Result[T] {
	out, err := ParseFrom(ctx, s, src, opts...)
	if err == nil {
		return Result[T]{OK: true, Value: out}
	}
	if iss, ok := AsIssues(err); ok {
		return Result[T]{Issues: iss}
	}
	return Result[T]{err: err}
}
