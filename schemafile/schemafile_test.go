package schemafile_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/zschema"
	g "github.com/reoring/zschema/dsl"
	"github.com/reoring/zschema/schemafile"
)

const product = `
definitions:
  Category:
    type: object
    fields:
      name: {type: string, minLength: 1}
      children: {type: array, items: {ref: Category}}
type: object
unknown: strict
fields:
  id:    {type: string, format: uuid}
  price: {type: number, min: 0}
  qty:   {type: integer, default: 1}
  kind:  {type: enum, values: [book, game]}
  tags:  {type: array, items: {type: string}, maxItems: 2, optional: true}
  attrs: {type: record, values: {type: string}, optional: true}
  note:  {type: string, nullable: true}
  root:  {ref: Category}
refine:
  - expr: "price > 0 || len(tags ?? []) == 0"
    message: free items cannot be tagged
    path: /tags
`

func validProduct() map[string]any {
	return map[string]any{
		"id":    "123e4567-e89b-12d3-a456-426614174000",
		"price": 10,
		"kind":  "book",
		"note":  nil,
		"root":  map[string]any{"name": "top", "children": []any{}},
	}
}

func TestParse_Valid(t *testing.T) {
	doc, err := schemafile.Parse([]byte(product))
	require.NoError(t, err)
	assert.Equal(t, []string{"Category"}, doc.Names())

	v, err := doc.Schema().Parse(context.Background(), validProduct())
	require.NoError(t, err)
	m := v.(map[string]any)
	assert.Equal(t, int64(1), m["qty"])
	assert.Nil(t, m["note"])
	_, hasTags := m["tags"]
	assert.False(t, hasTags)
}

func TestParse_IntegerIsExactInt64(t *testing.T) {
	doc := schemafile.MustParse([]byte("type: integer\n"))
	ctx := context.Background()

	v, err := doc.Schema().Parse(ctx, json.Number("9007199254740993"))
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), v)

	_, err = doc.Schema().Parse(ctx, json.Number("9223372036854775808"))
	iss, ok := zschema.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, []string{zschema.CodeTooBig}, iss.Codes())

	_, err = doc.Schema().Parse(ctx, 2.5)
	iss, ok = zschema.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, []string{zschema.CodeInvalidType}, iss.Codes())
}

func TestParse_FieldOrderIsValidationOrder(t *testing.T) {
	doc := schemafile.MustParse([]byte(product))
	_, err := doc.Schema().Parse(context.Background(), map[string]any{"extra": 1})
	iss, ok := zschema.AsIssues(err)
	require.True(t, ok)

	ptrs := make([]string, len(iss))
	for i, it := range iss {
		ptrs[i] = it.Path.Pointer()
	}
	assert.Equal(t, []string{"/id", "/price", "/kind", "/note", "/root", "/extra"}, ptrs)
}

func TestParse_RecursiveRef(t *testing.T) {
	doc := schemafile.MustParse([]byte(product))
	in := validProduct()
	in["root"] = map[string]any{"name": "top", "children": []any{
		map[string]any{"name": "", "children": []any{}},
	}}
	_, err := doc.Schema().Parse(context.Background(), in)
	iss, ok := zschema.AsIssues(err)
	require.True(t, ok)
	require.Len(t, iss, 1)
	assert.Equal(t, "/root/children/0/name", iss[0].Path.Pointer())
	assert.Equal(t, zschema.CodeTooSmall, iss[0].Code)
}

func TestParse_Refine(t *testing.T) {
	doc := schemafile.MustParse([]byte(product))
	in := validProduct()
	in["price"] = 0
	in["tags"] = []any{"x"}

	_, err := doc.Schema().Parse(context.Background(), in)
	iss, ok := zschema.AsIssues(err)
	require.True(t, ok)
	require.Len(t, iss, 1)
	assert.Equal(t, zschema.CodeCustom, iss[0].Code)
	assert.Equal(t, "/tags", iss[0].Path.Pointer())
	assert.Equal(t, "free items cannot be tagged", iss[0].Message)

	delete(in, "tags")
	_, err = doc.Schema().Parse(context.Background(), in)
	assert.NoError(t, err)
}

func TestParse_RefineValueBinding(t *testing.T) {
	doc := schemafile.MustParse([]byte(`
type: string
refine:
  - expr: "value != 'root'"
`))
	_, err := doc.Schema().Parse(context.Background(), "root")
	iss, ok := zschema.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, "failed value != 'root'", iss[0].Message)

	_, err = doc.Schema().Parse(context.Background(), "user")
	assert.NoError(t, err)
}

func TestParse_UnionAndLiteral(t *testing.T) {
	doc := schemafile.MustParse([]byte(`
type: union
variants:
  - {type: literal, value: auto}
  - {type: integer, positive: true}
`))
	s := doc.Schema()
	ctx := context.Background()

	v, err := s.Parse(ctx, "auto")
	require.NoError(t, err)
	assert.Equal(t, "auto", v)

	_, err = s.Parse(ctx, 3)
	assert.NoError(t, err)

	_, err = s.Parse(ctx, -3)
	iss, ok := zschema.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, zschema.CodeNoUnionMatch, iss[0].Code)
}

func TestParse_PartialAndStrings(t *testing.T) {
	doc := schemafile.MustParse([]byte(`
type: object
partial: true
fields:
  code: {type: string, pattern: "^[A-Z]{3}$"}
  site: {type: string, format: url, startsWith: "https://"}
`))
	ctx := context.Background()
	_, err := doc.Schema().Parse(ctx, map[string]any{})
	require.NoError(t, err)

	_, err = doc.Schema().Parse(ctx, map[string]any{"code": "abc", "site": "http://x.io"})
	iss, ok := zschema.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, []string{zschema.CodeInvalidStringFormat, zschema.CodeInvalidStringFormat}, iss.Codes())
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]struct {
		src  string
		line int
	}{
		"unknown key":     {"type: string\nminLenght: 3\n", 2},
		"unknown type":    {"type: text\n", 1},
		"missing type":    {"description: x\n", 1},
		"undefined ref":   {"type: object\nfields:\n  a: {ref: Missing}\n", 3},
		"bad format":      {"type: string\nformat: phone\n", 1},
		"bad pattern":     {"type: string\npattern: \"(\"\n", 1},
		"bad expr":        {"type: number\nrefine:\n  - expr: \"value >\"\n", 3},
		"array no items":  {"type: array\n", 1},
		"duplicate field": {"type: object\nfields:\n  a: {type: string}\n  a: {type: number}\n", 4},
		"ref cycle":       {"definitions:\n  A: {ref: B}\n  B: {ref: A}\ntype: string\n", 3},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := schemafile.Parse([]byte(tc.src))
			require.ErrorIs(t, err, schemafile.ErrSyntax)
			var e *schemafile.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tc.line, e.Line, e.Msg)
		})
	}

	_, err := schemafile.Parse([]byte(""))
	assert.ErrorIs(t, err, schemafile.ErrSyntax)
	assert.Panics(t, func() { schemafile.MustParse([]byte("type: nope")) })
}

type item struct {
	ID    string   `json:"id"`
	Count int64    `json:"count"`
	Tags  []string `json:"tags"`
}

func TestDocument_ObjectBinds(t *testing.T) {
	doc := schemafile.MustParse([]byte(`
type: object
fields:
  id: {type: string}
  count: {type: integer, min: 0}
  tags: {type: array, items: {type: string}}
`))
	obj, err := doc.Object()
	require.NoError(t, err)
	s, err := g.Bind[item](obj)
	require.NoError(t, err)

	v, err := s.Parse(context.Background(), map[string]any{"id": "a", "count": 2, "tags": []any{"x"}})
	require.NoError(t, err)
	assert.Equal(t, item{ID: "a", Count: 2, Tags: []string{"x"}}, v)

	_, err = schemafile.MustParse([]byte("type: string")).Object()
	assert.Error(t, err)
}
