package dsl_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/zschema"
	g "github.com/reoring/zschema/dsl"
)

func nested() g.ObjectSchema {
	return g.Object(
		g.Field("a", g.String()),
		g.Field("b", g.Object(g.Field("c", g.Number()))),
	)
}

func TestValidOutputRevalidates(t *testing.T) {
	ctx := context.Background()
	s := g.Object(
		g.Field("name", g.String()),
		g.Field("tags", g.Array(g.String())),
		g.Field("nick", g.Optional(g.String())),
		g.Field("n", g.Nullable(g.Number())),
	)
	in := map[string]any{"name": "x", "tags": []any{"a"}, "n": nil, "drop": 1}

	first, err := s.Parse(ctx, in)
	require.NoError(t, err)
	second, err := s.Parse(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNestedPath(t *testing.T) {
	_, err := nested().Parse(context.Background(), map[string]any{"a": "x", "b": map[string]any{"c": "oops"}})
	iss := issuesOf(t, err)
	require.Len(t, iss, 1)
	assert.Equal(t, zschema.CodeInvalidType, iss[0].Code)
	assert.True(t, iss[0].Path.Equal(zschema.PathOf("b", "c")))
	assert.Equal(t, "b.c", iss[0].Path.String())
}

func TestSiblingsAreAllReported(t *testing.T) {
	_, err := nested().Parse(context.Background(), map[string]any{"a": 1, "b": map[string]any{"c": "oops"}})
	iss := issuesOf(t, err)
	assert.Equal(t, []string{"/a", "/b/c"}, pointers(iss))
}

func TestPartialIsShallow(t *testing.T) {
	p := nested().Partial()
	ctx := context.Background()

	_, err := p.Parse(ctx, map[string]any{})
	require.NoError(t, err)

	_, err = p.Parse(ctx, map[string]any{"b": map[string]any{}})
	iss := issuesOf(t, err)
	require.Len(t, iss, 1)
	assert.Equal(t, zschema.CodeRequired, iss[0].Code)
	assert.Equal(t, "/b/c", iss[0].Path.Pointer())
}

func TestUnionDoesNotCoerce(t *testing.T) {
	v, err := g.Union(g.String(), g.Number()).Parse(context.Background(), "5")
	require.NoError(t, err)
	assert.IsType(t, "", v)
}

func TestStrictRejectsExtras(t *testing.T) {
	s := g.Object(g.Field("x", g.Number())).Strict()
	_, err := s.Parse(context.Background(), map[string]any{"x": 1, "z": 2})
	iss := issuesOf(t, err)
	require.Len(t, iss, 1)
	assert.Equal(t, zschema.CodeUnrecognizedKey, iss[0].Code)
	assert.True(t, iss[0].Path.Equal(zschema.PathOf("z")))
}

func TestSharedSchemaConcurrentUse(t *testing.T) {
	ctx := context.Background()
	s := nested().Strict()
	var wg sync.WaitGroup
	errs := make([]error, 64)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := map[string]any{"a": fmt.Sprint(i), "b": map[string]any{"c": i}}
			if i%2 == 1 {
				in["b"] = map[string]any{"c": "bad"}
			}
			_, errs[i] = s.Parse(ctx, in)
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if i%2 == 0 {
			assert.NoError(t, err)
			continue
		}
		iss := issuesOf(t, err)
		assert.Equal(t, []string{"/b/c"}, pointers(iss))
	}
}

func TestDepthLimit(t *testing.T) {
	var s g.ObjectSchema
	s = g.Object(g.Field("next", g.Optional(g.Lazy(func() zschema.Typed[map[string]any] { return s }))))

	in := map[string]any{}
	cur := in
	for i := 0; i < 10; i++ {
		next := map[string]any{}
		cur["next"] = next
		cur = next
	}

	_, err := s.Parse(context.Background(), in, zschema.ParseOpt{MaxDepth: 5})
	iss := issuesOf(t, err)
	require.Len(t, iss, 1)
	assert.Equal(t, zschema.CodeTooDeep, iss[0].Code)
	assert.Equal(t, "/next/next/next/next/next", iss[0].Path.Pointer())

	_, err = s.Parse(context.Background(), in)
	assert.NoError(t, err)
}

func TestCyclicInput(t *testing.T) {
	var s g.ObjectSchema
	s = g.Object(g.Field("self", g.Optional(g.Lazy(func() zschema.Typed[map[string]any] { return s }))))

	in := map[string]any{}
	in["self"] = in

	_, err := s.Parse(context.Background(), in)
	iss := issuesOf(t, err)
	require.Len(t, iss, 1)
	assert.Equal(t, zschema.CodeTooDeep, iss[0].Code)
	assert.Equal(t, "input contains a cycle", iss[0].Message)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := nested().Parse(ctx, map[string]any{"a": "x", "b": map[string]any{"c": 1}})
	require.ErrorIs(t, err, context.Canceled)
	_, ok := zschema.AsIssues(err)
	assert.False(t, ok)

	res := nested().SafeParse(ctx, map[string]any{})
	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err(), context.Canceled)
}
