package dsl

import (
	"math"
	"reflect"
	"slices"

	"golang.org/x/exp/constraints"

	"github.com/reoring/zschema"
)

// NumberSchema is a number schema with chainable checks. Checks run in the
// order they were added and every failing check reports its own issue.
type NumberSchema struct {
	zschema.Schema[float64]
	checks []zschema.Check
}

// Number returns a schema accepting finite numbers of any Go numeric kind
// and json.Number. The output is float64.
func Number() NumberSchema { return NumberSchema{}.with() }

func (s NumberSchema) with(c ...zschema.Check) NumberSchema {
	checks := append(slices.Clone(s.checks), c...)
	return NumberSchema{Schema: zschema.New[float64](zschema.NumberNode(checks...), nil), checks: checks}
}

// Int requires an integral value.
func (s NumberSchema) Int(message ...string) NumberSchema {
	return s.with(zschema.Check{
		Name:    zschema.CheckInt,
		Code:    zschema.CodeInvalidType,
		Message: first(message),
		Params:  map[string]any{"expected": "integer", "received": "float"},
		Test:    func(v any) bool { f := v.(float64); return f == math.Trunc(f) },
	})
}

// Min requires v >= n. Gte is an alias.
func (s NumberSchema) Min(n float64, message ...string) NumberSchema {
	return s.with(lowerBound(n, true, message))
}

// Gte is an alias of Min.
func (s NumberSchema) Gte(n float64, message ...string) NumberSchema { return s.Min(n, message...) }

// Gt requires v > n.
func (s NumberSchema) Gt(n float64, message ...string) NumberSchema {
	return s.with(lowerBound(n, false, message))
}

// Max requires v <= n. Lte is an alias.
func (s NumberSchema) Max(n float64, message ...string) NumberSchema {
	return s.with(upperBound(n, true, message))
}

// Lte is an alias of Max.
func (s NumberSchema) Lte(n float64, message ...string) NumberSchema { return s.Max(n, message...) }

// Lt requires v < n.
func (s NumberSchema) Lt(n float64, message ...string) NumberSchema {
	return s.with(upperBound(n, false, message))
}

func (s NumberSchema) Positive(message ...string) NumberSchema    { return s.Gt(0, message...) }
func (s NumberSchema) Nonnegative(message ...string) NumberSchema { return s.Min(0, message...) }
func (s NumberSchema) Negative(message ...string) NumberSchema    { return s.Lt(0, message...) }
func (s NumberSchema) Nonpositive(message ...string) NumberSchema { return s.Max(0, message...) }

// MultipleOf requires v to be an integral multiple of step.
func (s NumberSchema) MultipleOf(step float64, message ...string) NumberSchema {
	return s.with(zschema.Check{
		Name:    zschema.CheckMultipleOf,
		Code:    zschema.CodeNotMultipleOf,
		Message: first(message),
		Params:  map[string]any{"multipleOf": step},
		Test: func(v any) bool {
			if step == 0 {
				return false
			}
			q := v.(float64) / step
			return math.Abs(q-math.Round(q)) < 1e-9
		},
	})
}

func lowerBound(n float64, inclusive bool, message []string) zschema.Check {
	cmp := "greater than or equal to"
	if !inclusive {
		cmp = "greater than"
	}
	return zschema.Check{
		Name:    zschema.CheckMin,
		Code:    zschema.CodeTooSmall,
		Message: first(message),
		Params:  map[string]any{"minimum": n, "inclusive": inclusive, "comparator": cmp},
		Test: func(v any) bool {
			if inclusive {
				return v.(float64) >= n
			}
			return v.(float64) > n
		},
	}
}

func upperBound(n float64, inclusive bool, message []string) zschema.Check {
	cmp := "less than or equal to"
	if !inclusive {
		cmp = "less than"
	}
	return zschema.Check{
		Name:    zschema.CheckMax,
		Code:    zschema.CodeTooBig,
		Message: first(message),
		Params:  map[string]any{"maximum": n, "inclusive": inclusive, "comparator": cmp},
		Test: func(v any) bool {
			if inclusive {
				return v.(float64) <= n
			}
			return v.(float64) < n
		},
	}
}

// Numeric is the set of Go number types NumberOf can project to.
type Numeric interface {
	constraints.Integer | constraints.Float
}

// NumberOf projects a number schema onto T. Integer types require an
// integral value within the range of T, checked and produced exactly, so
// int64 and uint64 values beyond 2^53 keep every digit.
func NumberOf[T Numeric](s NumberSchema) zschema.Schema[T] {
	rt := reflect.TypeFor[T]()
	n := s.Node()
	switch rt.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n = zschema.IntegerNode(zschema.IntKind{Bits: rt.Bits()}, s.checks...)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n = zschema.IntegerNode(zschema.IntKind{Bits: rt.Bits(), Unsigned: true}, s.checks...)
	case reflect.Float32:
		n = s.Min(-math.MaxFloat32).Max(math.MaxFloat32).Node()
	}
	return zschema.New(n, func(v any) T {
		switch x := v.(type) {
		case int64:
			return T(x)
		case uint64:
			return T(x)
		case float64:
			return T(x)
		}
		return *new(T)
	})
}

// Bool returns a schema accepting booleans.
func Bool() zschema.Schema[bool] { return zschema.New[bool](zschema.BooleanNode(), nil) }

// Enum accepts exactly one of values. Numbers compare by value, so
// Enum(1, 2) accepts json.Number("2"); the output is the matching member.
func Enum[T comparable](values ...T) zschema.Schema[T] {
	lits := make([]any, len(values))
	for i, v := range values {
		lits[i] = v
	}
	return zschema.New[T](zschema.LiteralNode(lits...), nil)
}

// Literal accepts exactly v.
func Literal[T comparable](v T) zschema.Schema[T] { return Enum(v) }

func first(message []string) string {
	if len(message) > 0 {
		return message[0]
	}
	return ""
}
