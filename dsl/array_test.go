package dsl_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/zschema"
	g "github.com/reoring/zschema/dsl"
)

func TestArray_TypedOutput(t *testing.T) {
	ctx := context.Background()

	nums, err := g.Array(g.Number()).Parse(ctx, []any{1, 2.5, 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2.5, 3}, nums)

	// any slice kind is accepted
	strs, err := g.Array(g.String()).Parse(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, strs)

	nested, err := g.Array(g.Array(g.NumberOf[int](g.Number()))).Parse(ctx, []any{[]any{1}, []any{}})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1}, {}}, nested)
}

func TestArray_ElementIssuesCarryIndex(t *testing.T) {
	_, err := g.Array(g.Number()).Parse(context.Background(), []any{1, "x", 3, nil})
	iss := issuesOf(t, err)
	assert.Equal(t, []string{"/1", "/3"}, pointers(iss))
	assert.Equal(t, "[1]", iss[0].Path.String())
}

func TestArray_NotASequence(t *testing.T) {
	_, err := g.Array(g.Number()).Parse(context.Background(), map[string]any{})
	iss := issuesOf(t, err)
	require.Len(t, iss, 1)
	assert.Equal(t, "array", iss[0].Params["expected"])
	assert.Equal(t, "object", iss[0].Params["received"])
}

func TestArray_LengthChecksBeforeElements(t *testing.T) {
	ctx := context.Background()
	s := g.Array(g.String()).Min(3)

	_, err := s.Parse(ctx, []any{"a", 1})
	iss := issuesOf(t, err)
	assert.Equal(t, []string{zschema.CodeTooSmall, zschema.CodeInvalidType}, iss.Codes())
	assert.Equal(t, "array must contain at least 3 element(s)", iss[0].Message)

	_, err = g.Array(g.String()).Max(1).Parse(ctx, []any{"a", "b"})
	assert.Equal(t, []string{zschema.CodeTooBig}, issuesOf(t, err).Codes())

	_, err = g.Array(g.String()).Length(2).Parse(ctx, []any{"a", "b"})
	assert.NoError(t, err)

	_, err = g.Array(g.String()).NonEmpty().Parse(ctx, []any{})
	assert.Equal(t, []string{zschema.CodeTooSmall}, issuesOf(t, err).Codes())
}

func TestArray_Element(t *testing.T) {
	elem := g.Array(g.String().Email()).Element()
	_, err := elem.Parse(context.Background(), "nope")
	assert.Error(t, err)
}

func TestRecord(t *testing.T) {
	ctx := context.Background()
	s := g.Record(g.NumberOf[int](g.Number()))

	v, err := s.Parse(ctx, map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, v)

	_, err = s.Parse(ctx, map[string]any{"z": "x", "a": true})
	iss := issuesOf(t, err)
	// keys are visited in sorted order
	assert.Equal(t, []string{"/a", "/z"}, pointers(iss))

	_, err = s.Parse(ctx, []any{})
	assert.Equal(t, []string{zschema.CodeInvalidType}, issuesOf(t, err).Codes())
}
