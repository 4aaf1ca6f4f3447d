// Package zschema validates untrusted runtime values against a schema
// description that also determines the static type of the validated result.
//
// - Schemas are trees of immutable Nodes (number, string, boolean, literal,
//   object, array, record, union and wrapper variants) built with the dsl
//   package. Schema[T] pairs a node with its output type T.
// - One recursive engine walks node and input together, tracks the Path to
//   every value and accumulates Issues without stopping at the first one.
// - Parse returns (T, error) with the aggregate Issues as the error;
//   SafeParse returns a Result instead; MustParse panics.
// - Sources (JSONBytes, JSONReader, YAMLBytes) decode raw input with
//   duplicate-key, depth and size enforcement before validation.
//
// Design policy:
// - Keep only public APIs in the root package; put token-level decoding under internal/.
// - Place DSL under dsl/, schema files under schemafile/, and the CLI under cmd/zschema.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	user := g.Object(
//	    g.Field("id", g.Number()),
//	    g.Field("email", g.String().Email()),
//	).Strict()
//	v, err := user.Parse(ctx, input)
//	v, err = zschema.ParseFrom(ctx, user, zschema.JSONBytes(data))
package zschema
