package dsl

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/reoring/zschema"
)

// ErrBind reports a struct type that disagrees with the object schema it is
// bound to.
var ErrBind = errors.New("dsl: bind")

// Bind binds an object schema to struct type T.
// Schema fields and exported struct fields must correspond one to one, keyed
// as structKey describes, and every field kind must be able to hold
// the field's output. Drift in either direction is reported here rather than
// at parse time.
func Bind[T any](obj zschema.Typed[map[string]any]) (zschema.Schema[T], error) {
	var zero zschema.Schema[T]
	rt := reflect.TypeFor[T]()
	if rt.Kind() != reflect.Struct {
		return zero, fmt.Errorf("%w: %s is not a struct", ErrBind, rt)
	}
	root := obj.AsSchema().Node()
	if root == nil || root.Unwrap().Kind() != zschema.KindObject {
		return zero, fmt.Errorf("%w: schema is not an object", ErrBind)
	}
	if err := checkStruct(root.Unwrap(), rt, map[bindKey]bool{}); err != nil {
		return zero, fmt.Errorf("%w: %s: %v", ErrBind, rt, err)
	}
	n := zschema.TransformNode(root, func(v any) (any, error) {
		out := reflect.New(rt).Elem()
		if err := assign(out, v, nil); err != nil {
			return nil, err
		}
		return out.Interface(), nil
	})
	return zschema.New[T](n, nil), nil
}

// MustBind is like Bind but panics on error.
func MustBind[T any](obj zschema.Typed[map[string]any]) zschema.Schema[T] {
	s, err := Bind[T](obj)
	if err != nil {
		panic(err)
	}
	return s
}

// structKey returns the external key of a struct field: the zschema tag's
// name= option, else the json tag name, else the field name. "-" in either
// tag skips the field.
func structKey(sf reflect.StructField) string {
	if tag, ok := sf.Tag.Lookup("zschema"); ok {
		if tag == "-" {
			return "-"
		}
		for opt := range strings.SplitSeq(tag, ",") {
			if name, ok := strings.CutPrefix(strings.TrimSpace(opt), "name="); ok && name != "" {
				return name
			}
		}
	}
	if tag, ok := sf.Tag.Lookup("json"); ok {
		name, _, _ := strings.Cut(tag, ",")
		if name != "" {
			return name
		}
	}
	return sf.Name
}

var structKeyCache sync.Map // reflect.Type -> map[string]int

// structKeys maps external keys to field indexes of exported struct fields.
func structKeys(rt reflect.Type) map[string]int {
	if v, ok := structKeyCache.Load(rt); ok {
		return v.(map[string]int)
	}
	idx := make(map[string]int, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := structKey(sf)
		if name == "-" {
			continue
		}
		idx[name] = i
	}
	structKeyCache.Store(rt, idx)
	return idx
}

// bindKey marks a schema node already being checked against a Go type, so
// recursive schemas terminate.
type bindKey struct {
	n *zschema.Node
	t reflect.Type
}

func checkStruct(obj *zschema.Node, rt reflect.Type, visiting map[bindKey]bool) error {
	keys := structKeys(rt)
	declared := make(map[string]bool)
	for _, f := range obj.Fields() {
		declared[f.Name] = true
		i, ok := keys[f.Name]
		if !ok {
			return fmt.Errorf("schema field %q has no struct field", f.Name)
		}
		if err := compatible(f.Schema, rt.Field(i).Type, visiting); err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
	}
	missing := make([]string, 0)
	for k := range keys {
		if !declared[k] {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("struct field %s (key %q) has no schema field", rt.Field(keys[missing[0]]).Name, missing[0])
	}
	return nil
}

func compatible(n *zschema.Node, t reflect.Type, visiting map[bindKey]bool) error {
	if t.Kind() == reflect.Interface && t.NumMethod() == 0 {
		return nil
	}
	switch n.Kind() {
	case zschema.KindOptional, zschema.KindNullable:
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		return compatible(n.Inner(), t, visiting)
	case zschema.KindDefault, zschema.KindRefinement:
		return compatible(n.Inner(), t, visiting)
	case zschema.KindLazy:
		k := bindKey{n, t}
		if visiting[k] {
			return nil
		}
		visiting[k] = true
		defer delete(visiting, k)
		return compatible(n.Resolve(), t, visiting)
	case zschema.KindTransform, zschema.KindUnion:
		// output type is only known at run time
		return nil
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	ok := false
	switch n.Kind() {
	case zschema.KindNumber:
		ok = category(t.Kind()) == catNumber
		if ok && isInteger(t.Kind()) && !integral(n) {
			return fmt.Errorf("number schema without Int cannot bind to %s", t)
		}
	case zschema.KindString:
		ok = t.Kind() == reflect.String
	case zschema.KindBoolean:
		ok = t.Kind() == reflect.Bool
	case zschema.KindLiteral:
		ok = true
		for _, l := range n.Literals() {
			if l != nil && category(reflect.TypeOf(l).Kind()) != category(t.Kind()) {
				ok = false
			}
		}
	case zschema.KindObject:
		switch t.Kind() {
		case reflect.Struct:
			k := bindKey{n, t}
			if visiting[k] {
				return nil
			}
			visiting[k] = true
			defer delete(visiting, k)
			return checkStruct(n, t, visiting)
		case reflect.Map:
			ok = t.Key().Kind() == reflect.String && t.Elem().Kind() == reflect.Interface
		}
	case zschema.KindArray:
		if t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
			return compatible(n.Inner(), t.Elem(), visiting)
		}
	case zschema.KindRecord:
		if t.Kind() == reflect.Map && t.Key().Kind() == reflect.String {
			return compatible(n.Inner(), t.Elem(), visiting)
		}
	}
	if !ok {
		return fmt.Errorf("%s schema cannot bind to %s", n.Kind(), t)
	}
	return nil
}

func integral(n *zschema.Node) bool {
	if _, ok := n.IntKind(); ok {
		return true
	}
	for _, c := range n.Checks() {
		if c.Name == zschema.CheckInt {
			return true
		}
	}
	return false
}

func isInteger(k reflect.Kind) bool {
	return category(k) == catNumber && k != reflect.Float32 && k != reflect.Float64
}

type kindCategory int

const (
	catOther kindCategory = iota
	catNumber
	catString
	catBool
)

func category(k reflect.Kind) kindCategory {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return catNumber
	case reflect.String:
		return catString
	case reflect.Bool:
		return catBool
	}
	return catOther
}

// assign stores a validated value into dst, converting maps to structs and
// numbers between kinds. Absent and null values leave dst at its zero value.
// A number the field cannot hold is reported as an issue at path.
func assign(dst reflect.Value, v any, path zschema.Path) error {
	if v == nil || zschema.IsUndefined(v) {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(dst.Type()) {
		dst.Set(rv)
		return nil
	}
	switch dst.Kind() {
	case reflect.Pointer:
		p := reflect.New(dst.Type().Elem())
		if err := assign(p.Elem(), v, path); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	case reflect.Struct:
		m, ok := v.(map[string]any)
		if !ok {
			break
		}
		for key, i := range structKeys(dst.Type()) {
			x, ok := m[key]
			if !ok {
				continue
			}
			if err := assign(dst.Field(i), x, path.Key(key)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Slice:
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			break
		}
		out := reflect.MakeSlice(dst.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if err := assign(out.Index(i), rv.Index(i).Interface(), path.Index(i)); err != nil {
				return err
			}
		}
		dst.Set(out)
		return nil
	case reflect.Map:
		if rv.Kind() != reflect.Map {
			break
		}
		out := reflect.MakeMapWithSize(dst.Type(), rv.Len())
		it := rv.MapRange()
		for it.Next() {
			ev := reflect.New(dst.Type().Elem()).Elem()
			if err := assign(ev, it.Value().Interface(), path.Key(it.Key().String())); err != nil {
				return err
			}
			out.SetMapIndex(it.Key().Convert(dst.Type().Key()), ev)
		}
		dst.Set(out)
		return nil
	}
	if category(rv.Kind()) == catNumber && category(dst.Kind()) == catNumber {
		return assignNumber(dst, rv, path)
	}
	if category(rv.Kind()) != catOther && category(rv.Kind()) == category(dst.Kind()) && rv.Type().ConvertibleTo(dst.Type()) {
		dst.Set(rv.Convert(dst.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %s to %s", rv.Type(), dst.Type())
}

// assignNumber converts between numeric kinds, refusing fractions for
// integer fields and values outside the range of dst.
func assignNumber(dst, rv reflect.Value, path zschema.Path) error {
	switch {
	case dst.CanInt():
		var i int64
		switch {
		case rv.CanInt():
			i = rv.Int()
		case rv.CanUint():
			if rv.Uint() > math.MaxInt64 {
				return outOfRange(path, dst.Type(), rv, zschema.CodeTooBig)
			}
			i = int64(rv.Uint())
		default:
			f := rv.Float()
			if f != math.Trunc(f) {
				return notInteger(path, dst.Type(), rv)
			}
			if f < -0x1p63 || f >= 0x1p63 {
				return outOfRange(path, dst.Type(), rv, bigOrSmall(f < 0))
			}
			i = int64(f)
		}
		if dst.OverflowInt(i) {
			return outOfRange(path, dst.Type(), rv, bigOrSmall(i < 0))
		}
		dst.SetInt(i)
	case dst.CanUint():
		var u uint64
		switch {
		case rv.CanUint():
			u = rv.Uint()
		case rv.CanInt():
			if rv.Int() < 0 {
				return outOfRange(path, dst.Type(), rv, zschema.CodeTooSmall)
			}
			u = uint64(rv.Int())
		default:
			f := rv.Float()
			if f != math.Trunc(f) {
				return notInteger(path, dst.Type(), rv)
			}
			if f < 0 || f >= 0x1p64 {
				return outOfRange(path, dst.Type(), rv, bigOrSmall(f < 0))
			}
			u = uint64(f)
		}
		if dst.OverflowUint(u) {
			return outOfRange(path, dst.Type(), rv, zschema.CodeTooBig)
		}
		dst.SetUint(u)
	default:
		var f float64
		switch {
		case rv.CanInt():
			f = float64(rv.Int())
		case rv.CanUint():
			f = float64(rv.Uint())
		default:
			f = rv.Float()
		}
		if dst.OverflowFloat(f) {
			return outOfRange(path, dst.Type(), rv, bigOrSmall(f < 0))
		}
		dst.SetFloat(f)
	}
	return nil
}

func bigOrSmall(negative bool) string {
	if negative {
		return zschema.CodeTooSmall
	}
	return zschema.CodeTooBig
}

func outOfRange(path zschema.Path, t reflect.Type, rv reflect.Value, code string) error {
	return zschema.Issues{{
		Path:    path,
		Code:    code,
		Message: fmt.Sprintf("%v is out of range for %s", rv.Interface(), t),
		Params:  map[string]any{"type": "number"},
	}}
}

func notInteger(path zschema.Path, t reflect.Type, rv reflect.Value) error {
	return zschema.Issues{{
		Path:    path,
		Code:    zschema.CodeInvalidType,
		Message: fmt.Sprintf("%v is not an integer, as %s requires", rv.Interface(), t),
		Params:  map[string]any{"expected": "integer", "received": "float"},
	}}
}
