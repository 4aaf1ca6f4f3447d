package zschema_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/zschema"
	g "github.com/reoring/zschema/dsl"
)

func TestSchema_ZeroValue(t *testing.T) {
	var s zschema.Schema[string]
	_, err := s.Parse(context.Background(), "x")
	assert.ErrorIs(t, err, zschema.ErrNilSchema)

	res := s.SafeParse(context.Background(), "x")
	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err(), zschema.ErrNilSchema)

	_, err = s.JSONSchema()
	assert.ErrorIs(t, err, zschema.ErrNilSchema)
}

func TestParseVariants(t *testing.T) {
	ctx := context.Background()
	s := g.String().Min(2)

	v, err := zschema.Parse(ctx, s, "ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", v)

	_, err = zschema.Parse(ctx, s, "x")
	iss, ok := zschema.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, []string{zschema.CodeTooSmall}, iss.Codes())

	assert.Equal(t, "ok", zschema.MustParse(ctx, s, "ok"))
	assert.Panics(t, func() { zschema.MustParse(ctx, s, 1) })

	assert.True(t, zschema.Is(ctx, s, "abc"))
	assert.False(t, zschema.Is(ctx, s, "a"))
}

func TestSafeParse_Result(t *testing.T) {
	ctx := context.Background()
	s := g.Bool()

	ok := zschema.SafeParse(ctx, s, true)
	assert.True(t, ok.OK)
	assert.True(t, ok.Value)
	assert.Nil(t, ok.Issues)
	assert.NoError(t, ok.Err())

	bad := zschema.SafeParse(ctx, s, "true")
	assert.False(t, bad.OK)
	require.Len(t, bad.Issues, 1)
	assert.Equal(t, zschema.CodeInvalidType, bad.Issues[0].Code)
	var iss zschema.Issues
	assert.True(t, errors.As(bad.Err(), &iss))

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	aborted := zschema.SafeParse(cctx, g.Object(g.Field("a", g.Bool())), map[string]any{"a": true})
	assert.False(t, aborted.OK)
	assert.Nil(t, aborted.Issues)
	assert.ErrorIs(t, aborted.Err(), context.Canceled)
}

func TestSchema_RefineAndDescribe(t *testing.T) {
	ctx := context.Background()
	even := g.NumberOf[int](g.Number().Int()).AsSchema().
		Refine(func(n int) bool { return n%2 == 0 }, "must be even").
		Describe("an even number")

	v, err := even.Parse(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, v)

	_, err = even.Parse(ctx, 3)
	iss, _ := zschema.AsIssues(err)
	require.Len(t, iss, 1)
	assert.Equal(t, zschema.CodeCustom, iss[0].Code)
	assert.Equal(t, "must be even", iss[0].Message)
	assert.Equal(t, "an even number", even.Node().Description())

	// the predicate is skipped when the base validation fails
	_, err = even.Parse(ctx, 3.5)
	iss, _ = zschema.AsIssues(err)
	assert.Equal(t, []string{zschema.CodeInvalidType}, iss.Codes())
}

func TestSchema_Any(t *testing.T) {
	ctx := context.Background()
	n := g.NumberOf[int](g.Number()).Any()
	v, err := n.Parse(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	obj := g.Object(g.Field("n", g.Optional(g.NumberOf[int](g.Number())).Any()))
	out, err := obj.Parse(ctx, map[string]any{})
	require.NoError(t, err)
	assert.NotContains(t, out, "n")
}

func TestUndefined(t *testing.T) {
	assert.True(t, zschema.IsUndefined(zschema.Undefined))
	assert.False(t, zschema.IsUndefined(nil))
	assert.Equal(t, "undefined", zschema.Undefined.(interface{ String() string }).String())

	ctx := context.Background()
	_, err := g.String().Parse(ctx, zschema.Undefined)
	iss, _ := zschema.AsIssues(err)
	assert.Equal(t, []string{zschema.CodeRequired}, iss.Codes())

	v, err := g.Optional(g.String()).Parse(ctx, zschema.Undefined)
	require.NoError(t, err)
	assert.Nil(t, v)
}
