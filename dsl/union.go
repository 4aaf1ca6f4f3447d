package dsl

import (
	"github.com/reoring/zschema"
)

type eraser interface {
	Any() zschema.Schema[any]
}

// Union accepts the first variant, in declaration order, that validates
// without issues. When none does, one no_union_match issue carries the
// issues of every attempt. The output is the typed output of the winning
// variant.
func Union(variants ...zschema.Noder) zschema.Schema[any] {
	return zschema.New[any](zschema.UnionNode(erase(variants)...), nil)
}

// UnionOf is Union for variants sharing one output type.
func UnionOf[T any](variants ...zschema.Typed[T]) zschema.Schema[T] {
	nodes := make([]*zschema.Node, len(variants))
	for i, v := range variants {
		nodes[i] = v.AsSchema().Any().Node()
	}
	return zschema.New[T](zschema.UnionNode(nodes...), nil)
}

// DiscriminatedUnion selects the variant by the literal value of key, so
// only one variant is validated and its issues are reported directly. A
// missing key yields required; an unmatched value yields
// invalid_enum_value, both at the key.
func DiscriminatedUnion(key string, variants ...ObjectSchema) zschema.Schema[map[string]any] {
	nodes := make([]*zschema.Node, len(variants))
	for i, v := range variants {
		nodes[i] = v.Node()
	}
	return zschema.New[map[string]any](zschema.DiscriminatedUnionNode(key, nodes...), nil)
}

func erase(variants []zschema.Noder) []*zschema.Node {
	nodes := make([]*zschema.Node, len(variants))
	for i, v := range variants {
		if e, ok := v.(eraser); ok {
			nodes[i] = e.Any().Node()
			continue
		}
		nodes[i] = v.Node()
	}
	return nodes
}
