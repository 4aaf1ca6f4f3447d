package zschema_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/zschema"
	g "github.com/reoring/zschema/dsl"
)

func order() g.ObjectSchema {
	return g.Object(
		g.Field("id", g.String()),
		g.Field("qty", g.NumberOf[int](g.Number().Positive())),
		g.Field("lines", g.Array(g.Object(g.Field("sku", g.String())))),
		g.Field("note", g.Nullable(g.String())),
	)
}

func sourceIssues(t *testing.T, src zschema.Source, opts ...zschema.ParseOpt) zschema.Issues {
	t.Helper()
	_, err := zschema.ParseFrom(context.Background(), order(), src, opts...)
	iss, ok := zschema.AsIssues(err)
	require.True(t, ok, "expected issues, got %v", err)
	return iss
}

func TestParseFrom_JSON(t *testing.T) {
	ctx := context.Background()
	in := `{"id":"o1","qty":2,"lines":[{"sku":"A"}],"note":null}`

	for name, src := range map[string]zschema.Source{
		"bytes":  zschema.JSONBytes([]byte(in)),
		"reader": zschema.JSONReader(strings.NewReader(in)),
	} {
		t.Run(name, func(t *testing.T) {
			v, err := zschema.ParseFrom(ctx, order(), src)
			require.NoError(t, err)
			assert.Equal(t, map[string]any{
				"id":    "o1",
				"qty":   int64(2),
				"lines": []any{map[string]any{"sku": "A"}},
				"note":  nil,
			}, v)
		})
	}
}

func TestParseFrom_ValidationIssues(t *testing.T) {
	iss := sourceIssues(t, zschema.JSONBytes([]byte(`{"id":1,"qty":0,"lines":[{}]}`)))
	ptrs := make([]string, len(iss))
	for i, it := range iss {
		ptrs[i] = it.Path.Pointer()
	}
	assert.Equal(t, []string{"/id", "/qty", "/lines/0/sku", "/note"}, ptrs)
	assert.Equal(t, []string{
		zschema.CodeInvalidType, zschema.CodeTooSmall, zschema.CodeRequired, zschema.CodeRequired,
	}, iss.Codes())
}

func TestParseFrom_SourceIssues(t *testing.T) {
	cases := map[string]struct {
		src  string
		opt  zschema.ParseOpt
		code string
		ptr  string
	}{
		"duplicate key": {
			src:  `{"id":"a","id":"b"}`,
			opt:  zschema.ParseOpt{OnDuplicateKey: zschema.Error},
			code: zschema.CodeDuplicateKey, ptr: "/id",
		},
		"nested duplicate": {
			src:  `{"lines":[{"sku":"a","sku":"b"}]}`,
			opt:  zschema.ParseOpt{OnDuplicateKey: zschema.Error},
			code: zschema.CodeDuplicateKey, ptr: "/lines/0/sku",
		},
		"too deep": {
			src:  `{"lines":[{"sku":{"x":1}}]}`,
			opt:  zschema.ParseOpt{MaxDepth: 3},
			code: zschema.CodeTooDeep, ptr: "/lines/0/sku",
		},
		"truncated": {
			src:  `{"id":"abcdefghijkl"}`,
			opt:  zschema.ParseOpt{MaxBytes: 10},
			code: zschema.CodeTruncated, ptr: "/",
		},
		"malformed": {src: `{"id":`, code: zschema.CodeParseError, ptr: "/"},
		"trailing":  {src: `{} []`, code: zschema.CodeParseError, ptr: "/"},
		"empty":     {src: ``, code: zschema.CodeParseError, ptr: "/"},
	}
	for _, src := range []string{`tru`, `nul`, `fals`, `{"a":1,}`, `[1 2]`, `{"a" 1}`, `[1,]`, `{"id":"a" "qty":1}`} {
		cases["syntax "+src] = struct {
			src  string
			opt  zschema.ParseOpt
			code string
			ptr  string
		}{src: src, code: zschema.CodeParseError, ptr: "/"}
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			iss := sourceIssues(t, zschema.JSONBytes([]byte(tc.src)), tc.opt)
			require.Len(t, iss, 1)
			assert.Equal(t, tc.code, iss[0].Code)
			assert.Equal(t, tc.ptr, iss[0].Path.Pointer())
			assert.NotEmpty(t, iss[0].Message)
		})
	}
}

func TestParseFrom_JSONIntegersStayExact(t *testing.T) {
	s := g.Object(g.Field("id", g.NumberOf[int64](g.Number())))
	v, err := zschema.ParseFrom(context.Background(), s, zschema.JSONBytes([]byte(`{"id":9007199254740993}`)))
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), v["id"])
}

func TestParseFrom_DuplicateLastWins(t *testing.T) {
	v, err := zschema.ParseFrom(context.Background(), g.Object(g.Field("id", g.String())),
		zschema.JSONBytes([]byte(`{"id":"a","id":"b"}`)))
	require.NoError(t, err)
	assert.Equal(t, "b", v["id"])
}

func TestParseFrom_ReaderCap(t *testing.T) {
	opt := zschema.ParseOpt{MaxBytes: 64}
	ok := `{"id":"o1","qty":1,"lines":[],"note":null}`
	_, err := zschema.ParseFrom(context.Background(), order(), zschema.JSONReader(strings.NewReader(ok)), opt)
	require.NoError(t, err)

	big := `{"id":"` + strings.Repeat("x", 100) + `"}`
	iss := sourceIssues(t, zschema.JSONReader(strings.NewReader(big)), opt)
	assert.Equal(t, zschema.CodeTruncated, iss[0].Code)
	assert.Equal(t, int64(64), iss[0].Params["maxBytes"])
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestParseFrom_ReadError(t *testing.T) {
	iss := sourceIssues(t, zschema.JSONReader(failingReader{}))
	assert.Equal(t, zschema.CodeParseError, iss[0].Code)
	assert.Contains(t, iss[0].Message, "connection reset")
}

func TestParseFrom_YAML(t *testing.T) {
	ctx := context.Background()
	src := `
id: o1
qty: 3
lines:
  - &line {sku: A}
  - *line
note: ~
`
	v, err := zschema.ParseFrom(ctx, order(), zschema.YAMLBytes([]byte(src)))
	require.NoError(t, err)
	assert.Equal(t, int64(3), v["qty"])
	assert.Equal(t, []any{map[string]any{"sku": "A"}, map[string]any{"sku": "A"}}, v["lines"])
	assert.Nil(t, v["note"])

	iss := sourceIssues(t, zschema.YAMLBytes([]byte("id: a\nid: b\n")), zschema.ParseOpt{OnDuplicateKey: zschema.Error})
	assert.Equal(t, zschema.CodeDuplicateKey, iss[0].Code)
	assert.Equal(t, "/id", iss[0].Path.Pointer())

	iss = sourceIssues(t, zschema.YAMLBytes([]byte("lines: [[[1]]]\n")), zschema.ParseOpt{MaxDepth: 2})
	assert.Equal(t, zschema.CodeTooDeep, iss[0].Code)

	iss = sourceIssues(t, zschema.YAMLBytes([]byte("id: [unclosed\n")))
	assert.Equal(t, zschema.CodeParseError, iss[0].Code)
}

func TestParseFrom_YAMLAliasExpansionIsBounded(t *testing.T) {
	var b strings.Builder
	b.WriteString("a0: &a0 [x, x, x, x, x, x, x, x, x, x]\n")
	for i := 1; i <= 9; i++ {
		fmt.Fprintf(&b, "a%d: &a%d [", i, i)
		for j := 0; j < 10; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "*a%d", i-1)
		}
		b.WriteString("]\n")
	}

	iss := sourceIssues(t, zschema.YAMLBytes([]byte(b.String())))
	require.Len(t, iss, 1)
	assert.Equal(t, zschema.CodeTruncated, iss[0].Code)
	assert.Equal(t, "alias", iss[0].Params["type"])
	assert.Contains(t, iss[0].Message, "alias expansion")
}

func TestSafeParseFrom(t *testing.T) {
	res := zschema.SafeParseFrom(context.Background(), g.Bool(), zschema.JSONBytes([]byte(`true`)))
	assert.True(t, res.OK)
	assert.True(t, res.Value)

	res = zschema.SafeParseFrom(context.Background(), g.Bool(), zschema.JSONBytes([]byte(`tru`)))
	assert.False(t, res.OK)
	assert.Equal(t, []string{zschema.CodeParseError}, res.Issues.Codes())
}
