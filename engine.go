package zschema

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/reoring/zschema/i18n"
)

// state is the per-call accumulator of one validation run. Nodes never hold
// run state, so a tree can be validated from many goroutines at once.
type state struct {
	ctx    context.Context
	opt    ParseOpt
	issues Issues
	depth  int
	stack  []uintptr // containers on the current descent, for cycle detection
	err    error     // context cancellation
}

func run(ctx context.Context, n *Node, v any, opt ParseOpt) (any, Issues, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	s := &state{ctx: ctx, opt: opt}
	out := s.validate(n, v, Path{})
	if s.err != nil {
		return nil, nil, s.err
	}
	return out, s.issues, nil
}

func (s *state) fail(path Path, code, override string, params map[string]any) {
	s.issues = append(s.issues, Issue{Path: path, Code: code, Message: message(code, override, params), Params: params})
}

func (s *state) validate(n *Node, v any, path Path) any {
	if s.err != nil {
		return nil
	}
	switch n.kind {
	case KindOptional:
		if IsUndefined(v) {
			return Undefined
		}
		return s.validate(n.inner, v, path)
	case KindNullable:
		if !IsUndefined(v) && deref(v) == nil {
			return nil
		}
		return s.validate(n.inner, v, path)
	case KindDefault:
		if IsUndefined(v) {
			v = n.def
		}
		return s.validate(n.inner, v, path)
	case KindLazy:
		return s.validate(n.lazy.get(), v, path)
	case KindRefinement:
		mark := len(s.issues)
		out := s.validate(n.inner, v, path)
		if len(s.issues) > mark || s.err != nil {
			return nil
		}
		if !n.pred(out) {
			s.fail(path.Concat(n.at), CodeCustom, n.message, nil)
			return nil
		}
		return out
	case KindTransform:
		mark := len(s.issues)
		out := s.validate(n.inner, v, path)
		if len(s.issues) > mark || s.err != nil {
			return nil
		}
		res, err := n.fn(out)
		if err != nil {
			if iss, ok := AsIssues(err); ok && len(iss) > 0 {
				for _, it := range iss {
					s.fail(path.Concat(it.Path), it.Code, it.Message, it.Params)
				}
				return nil
			}
			s.fail(path, CodeCustom, err.Error(), nil)
			return nil
		}
		return res
	case KindUnion:
		if IsUndefined(v) && !n.AcceptsAbsent() {
			s.fail(path, CodeRequired, "", nil)
			return nil
		}
		return s.union(n, v, path)
	}

	if IsUndefined(v) {
		s.fail(path, CodeRequired, "", nil)
		return nil
	}
	v = deref(v)
	switch n.kind {
	case KindNumber:
		f, ok := toFloat(v)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			s.fail(path, CodeInvalidType, "", typeParams("number", v))
			return nil
		}
		mark := len(s.issues)
		s.runChecks(n.checks, f, path, "number")
		if n.integer == nil {
			return f
		}
		out := s.integer(*n.integer, v, f, path, hasCheck(n.checks, CheckInt) && f != math.Trunc(f))
		if len(s.issues) > mark {
			return nil
		}
		return out
	case KindString:
		str, ok := toString(v)
		if !ok {
			s.fail(path, CodeInvalidType, "", typeParams("string", v))
			return nil
		}
		s.runChecks(n.checks, str, path, "string")
		return str
	case KindBoolean:
		b, ok := toBool(v)
		if !ok {
			s.fail(path, CodeInvalidType, "", typeParams("boolean", v))
			return nil
		}
		return b
	case KindLiteral:
		for _, a := range n.literals {
			if literalEqual(a, v) {
				return a
			}
		}
		params := map[string]any{"options": slices.Clone(n.literals)}
		if isScalar(v) {
			params["received"] = v
		}
		s.fail(path, CodeInvalidEnumValue, "", params)
		return nil
	case KindObject:
		return s.object(n, v, path)
	case KindArray:
		return s.array(n, v, path)
	case KindRecord:
		return s.record(n, v, path)
	}
	return nil
}

func (s *state) runChecks(checks []Check, v any, path Path, typ string) {
	for _, c := range checks {
		if c.Test(v) {
			continue
		}
		params := maps.Clone(c.Params)
		if params == nil {
			params = make(map[string]any, 1)
		}
		if _, ok := params["type"]; !ok {
			params["type"] = typ
		}
		s.fail(path, c.Code, c.Message, params)
	}
}

// enter pushes a container onto the descent stack. It reports false when the
// depth limit, a cycle or cancellation stops the descent.
func (s *state) enter(v any, path Path) bool {
	if err := s.ctx.Err(); err != nil {
		s.err = err
		return false
	}
	if s.depth >= s.opt.maxDepth() {
		s.fail(path, CodeTooDeep, "", map[string]any{"maxDepth": s.opt.maxDepth()})
		return false
	}
	ptr := containerPtr(v)
	if ptr != 0 && slices.Contains(s.stack, ptr) {
		s.fail(path, CodeTooDeep, "", map[string]any{"type": "cycle"})
		return false
	}
	s.depth++
	s.stack = append(s.stack, ptr)
	return true
}

func (s *state) leave() {
	s.depth--
	s.stack = s.stack[:len(s.stack)-1]
}

func (s *state) object(n *Node, v any, path Path) any {
	m, ok := toMap(v)
	if !ok {
		s.fail(path, CodeInvalidType, "", typeParams("object", v))
		return nil
	}
	if !s.enter(v, path) {
		return nil
	}
	defer s.leave()

	out := make(map[string]any, len(n.fields))
	for _, f := range n.fields {
		if s.err != nil {
			return nil
		}
		raw, present := m[f.Name]
		if !present {
			raw = Undefined
		}
		fv := s.validate(f.Schema, raw, path.Key(f.Name))
		if !IsUndefined(fv) {
			out[f.Name] = fv
		}
	}
	if n.unknown == UnknownStrip {
		return out
	}
	extras := make([]string, 0)
	for k := range m {
		if !n.declares(k) {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	for _, k := range extras {
		if n.unknown == UnknownStrict {
			s.fail(path.Key(k), CodeUnrecognizedKey, "", map[string]any{"key": k})
			continue
		}
		out[k] = m[k]
	}
	return out
}

func (n *Node) declares(key string) bool {
	for _, f := range n.fields {
		if f.Name == key {
			return true
		}
	}
	return false
}

func (s *state) array(n *Node, v any, path Path) any {
	items, ok := toSlice(v)
	if !ok {
		s.fail(path, CodeInvalidType, "", typeParams("array", v))
		return nil
	}
	if !s.enter(v, path) {
		return nil
	}
	defer s.leave()

	s.runChecks(n.checks, items, path, "array")
	out := make([]any, len(items))
	for i, it := range items {
		if s.err != nil {
			return nil
		}
		out[i] = s.validate(n.inner, it, path.Index(i))
	}
	return out
}

func (s *state) record(n *Node, v any, path Path) any {
	m, ok := toMap(v)
	if !ok {
		s.fail(path, CodeInvalidType, "", typeParams("object", v))
		return nil
	}
	if !s.enter(v, path) {
		return nil
	}
	defer s.leave()

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(map[string]any, len(m))
	for _, k := range keys {
		if s.err != nil {
			return nil
		}
		fv := s.validate(n.inner, m[k], path.Key(k))
		if !IsUndefined(fv) {
			out[k] = fv
		}
	}
	return out
}

func (s *state) union(n *Node, v any, path Path) any {
	if n.key != "" {
		return s.discriminated(n, v, path)
	}
	attempts := make([]Issues, 0, len(n.variants))
	for _, variant := range n.variants {
		sub := &state{ctx: s.ctx, opt: s.opt, depth: s.depth, stack: s.stack}
		out := sub.validate(variant, v, path)
		if sub.err != nil {
			s.err = sub.err
			return nil
		}
		if len(sub.issues) == 0 {
			return out
		}
		attempts = append(attempts, sub.issues)
	}
	s.issues = append(s.issues, Issue{
		Path:     path,
		Code:     CodeNoUnionMatch,
		Message:  message(CodeNoUnionMatch, "", nil),
		Attempts: attempts,
	})
	return nil
}

func (s *state) discriminated(n *Node, v any, path Path) any {
	m, ok := toMap(deref(v))
	if !ok {
		s.fail(path, CodeInvalidType, "", typeParams("object", deref(v)))
		return nil
	}
	raw, present := m[n.key]
	if !present {
		s.fail(path.Key(n.key), CodeRequired, "", nil)
		return nil
	}
	raw = deref(raw)
	options := make([]any, 0, len(n.variants))
	for _, variant := range n.variants {
		for _, a := range discriminatorValues(variant, n.key) {
			if literalEqual(a, raw) {
				return s.validate(variant, v, path)
			}
			options = append(options, a)
		}
	}
	params := map[string]any{"options": options}
	if isScalar(raw) {
		params["received"] = raw
	}
	s.fail(path.Key(n.key), CodeInvalidEnumValue, "", params)
	return nil
}

func discriminatorValues(variant *Node, key string) []any {
	obj := variant.Unwrap()
	if obj.kind != KindObject {
		return nil
	}
	for _, f := range obj.fields {
		if f.Name == key {
			if lit := f.Schema.Unwrap(); lit.kind == KindLiteral {
				return lit.literals
			}
		}
	}
	return nil
}

// ---- value helpers ----

func message(code, override string, params map[string]any) string {
	if override != "" {
		return override
	}
	var data map[string]string
	if len(params) > 0 {
		data = make(map[string]string, len(params))
		for k, v := range params {
			data[k] = formatParam(v)
		}
	}
	return i18n.T(code, data)
}

func formatParam(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			if s, ok := e.(string); ok {
				parts[i] = fmt.Sprintf("%q", s)
				continue
			}
			parts[i] = fmt.Sprint(e)
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v)
}

func typeParams(expected string, v any) map[string]any {
	return map[string]any{"expected": expected, "received": typeName(v)}
}

// typeName names the runtime type in JSON vocabulary where one applies.
func typeName(v any) string {
	if IsUndefined(v) {
		return "undefined"
	}
	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case json.Number:
		return "number"
	case float64:
		return floatName(x)
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return "number"
	case reflect.Float32, reflect.Float64:
		return floatName(rv.Float())
	case reflect.String:
		return "string"
	case reflect.Map:
		return "object"
	case reflect.Slice, reflect.Array:
		return "array"
	}
	return fmt.Sprintf("%T", v)
}

func floatName(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 0):
		return "infinity"
	}
	return "number"
}

func deref(v any) any {
	switch v.(type) {
	case nil, string, float64, bool, int, json.Number, map[string]any, []any:
		return v
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer && rv.Kind() != reflect.Interface {
		return v
	}
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func toString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return "", false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

func toBool(v any) (bool, bool) {
	if b, ok := v.(bool); ok {
		return b, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Bool {
		return rv.Bool(), true
	}
	return false, false
}

func toMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	m := make(map[string]any, rv.Len())
	it := rv.MapRange()
	for it.Next() {
		m[it.Key().String()] = it.Value().Interface()
	}
	return m, true
}

func toSlice(v any) ([]any, bool) {
	if a, ok := v.([]any); ok {
		return a, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func containerPtr(v any) uintptr {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		return rv.Pointer()
	case reflect.Slice:
		if rv.Len() == 0 {
			return 0
		}
		return rv.Pointer()
	}
	return 0
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, float64, json.Number:
		return true
	}
	_, isNum := toFloat(v)
	_, isStr := toString(v)
	return isNum || isStr
}

func literalEqual(a, v any) bool {
	if af, ok := toFloat(a); ok {
		vf, ok := toFloat(v)
		return ok && af == vf
	}
	if as, ok := toString(a); ok {
		vs, ok := toString(v)
		return ok && as == vs
	}
	if ab, ok := toBool(a); ok {
		vb, ok := toBool(v)
		return ok && ab == vb
	}
	if a == nil || v == nil {
		return a == nil && v == nil
	}
	if !reflect.ValueOf(a).Comparable() || !reflect.ValueOf(v).Comparable() {
		return false
	}
	return a == v
}
