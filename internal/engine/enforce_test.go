package engine

import (
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(src string, opt EnforceOptions) (any, error) {
	return DecodeDocument(WrapWithEnforcement(NewJSONBytes([]byte(src)), opt))
}

func TestEnforce_DuplicateKeys(t *testing.T) {
	cases := []struct{ src, ptr string }{
		{`{"a":1,"a":2}`, "/a"},
		{`{"x":{"b":1,"b":2}}`, "/x/b"},
		{`[{"k":1},{"k":2,"k":3}]`, "/1/k"},
		{`{"a~b/c":1,"a~b/c":1}`, "/a~0b~1c"},
		{`{"l":[1,[2,{"z":0,"z":0}]]}`, "/l/1/1/z"},
		{`{"o":{"p":1},"q":{"p":1,"p":2}}`, "/q/p"},
	}
	for _, tc := range cases {
		_, err := decode(tc.src, EnforceOptions{OnDuplicate: DupError})
		var ie IssueError
		require.True(t, errors.As(err, &ie), tc.src)
		assert.Equal(t, "duplicate_key", ie.Code, tc.src)
		assert.Equal(t, tc.ptr, ie.Path, tc.src)
	}

	v, err := decode(`{"a":1,"a":2}`, EnforceOptions{})
	require.NoError(t, err)
	assert.Equal(t, json.Number("2"), v.(map[string]any)["a"])
}

func TestEnforce_SameKeyInSiblingsIsFine(t *testing.T) {
	_, err := decode(`[{"id":1},{"id":2}]`, EnforceOptions{OnDuplicate: DupError})
	assert.NoError(t, err)
}

func TestEnforce_MaxDepth(t *testing.T) {
	_, err := decode(`{"a":[[1]]}`, EnforceOptions{MaxDepth: 3})
	assert.NoError(t, err)

	_, err = decode(`{"a":[[[1]]]}`, EnforceOptions{MaxDepth: 3})
	var ie IssueError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "too_deep", ie.Code)
	assert.Equal(t, "/a/0/0", ie.Path)

	_, err = decode(`[]`, EnforceOptions{MaxDepth: -1})
	assert.NoError(t, err)
}

func TestDecodeDocument(t *testing.T) {
	_, err := decode(`{"a":1} {}`, EnforceOptions{})
	assert.ErrorIs(t, err, ErrTrailingData)

	_, err = decode(`{"a":`, EnforceOptions{})
	assert.Error(t, err)

	_, err = decode(``, EnforceOptions{})
	assert.Error(t, err)

	v, err := decode(`{"n":1.50,"s":"x","b":true,"z":null,"l":[]}`, EnforceOptions{})
	require.NoError(t, err)
	m := v.(map[string]any)
	assert.Equal(t, json.Number("1.50"), m["n"])
	assert.Equal(t, "x", m["s"])
	assert.Equal(t, true, m["b"])
	assert.Nil(t, m["z"])
	assert.Equal(t, []any{}, m["l"])
}

func TestCheckSyntax(t *testing.T) {
	for _, src := range []string{`true`, `null`, ` {"a":[1,2,{"b":false}]} `, `"x"`, `-1.5e3`} {
		assert.NoError(t, CheckSyntax([]byte(src)), src)
	}
	for _, src := range []string{`tru`, `nul`, `fals`, `{"a":1,}`, `[1 2]`, `{"a" 1}`, `[1,]`, `{"a":1`} {
		assert.Error(t, CheckSyntax([]byte(src)), src)
	}
	assert.ErrorIs(t, CheckSyntax([]byte(`{} []`)), ErrTrailingData)
	assert.ErrorIs(t, CheckSyntax(nil), io.ErrUnexpectedEOF)
}
