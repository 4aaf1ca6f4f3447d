// Package dsl provides the zod-like schema combinators of zschema.
//
// Every constructor returns an immutable handle embedding zschema.Schema[T],
// where T is the static type of the validated output. Composites derive T
// from their parts:
//
//	g.Array(g.Number())               // zschema.Schema[[]float64]
//	g.Optional(g.String())            // zschema.Schema[*string]
//	g.Record(g.Bool())                // zschema.Schema[map[string]bool]
//	g.Transform(g.String(), utf8.RuneCountInString) // zschema.Schema[int]
//
// Objects output map[string]any. Bind turns an object schema into a
// Schema[T] for a struct T and checks, when called, that the struct and the
// schema declare the same fields with compatible kinds.
//
// Example
//
//	package main
//
//	import (
//	    "context"
//
//	    "github.com/reoring/zschema"
//	    g "github.com/reoring/zschema/dsl"
//	)
//
//	type User struct {
//	    ID    string   `json:"id"`
//	    Email string   `json:"email"`
//	    Age   *int     `json:"age"`
//	    Tags  []string `json:"tags"`
//	}
//
//	var userSchema = g.MustBind[User](g.Object(
//	    g.Field("id", g.String().NonEmpty()),
//	    g.Field("email", g.String().Email()),
//	    g.Field("age", g.Optional(g.NumberOf[int](g.Number().Nonnegative()))),
//	    g.Field("tags", g.Array(g.String()).Max(10)),
//	).Strict())
//
//	func main() {
//	    ctx := context.Background()
//	    data := []byte(`{"id":"u_1","email":"x@example.com","tags":[]}`)
//	    u, err := zschema.ParseFrom(ctx, userSchema, zschema.JSONBytes(data))
//	    if iss, ok := zschema.AsIssues(err); ok {
//	        for _, it := range iss {
//	            println(it.Path.Pointer(), it.Code, it.Message)
//	        }
//	        return
//	    }
//	    println(u.ID)
//	}
//
// Validation never stops at the first failure: siblings, elements and checks
// are all visited and every issue is reported with its path. Refinements and
// transforms run only when their inner schema succeeded.
//
// Unions pick the first variant, in declaration order, that validates
// without issues. DiscriminatedUnion selects by a literal key instead.
//
// Lazy allows recursive schemas:
//
//	var tree g.ObjectSchema
//	tree = g.Object(
//	    g.Field("name", g.String()),
//	    g.Field("children", g.Array(g.Lazy(func() zschema.Typed[map[string]any] { return tree }))),
//	)
package dsl
