package zschema_test

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/zschema"
)

func TestPath_Pointer(t *testing.T) {
	cases := []struct {
		path zschema.Path
		ptr  string
		str  string
	}{
		{zschema.Path{}, "/", ""},
		{zschema.PathOf("items", 2, "price"), "/items/2/price", "items[2].price"},
		{zschema.PathOf(0, "a"), "/0/a", "[0].a"},
		{zschema.PathOf("a/b", "c~d"), "/a~1b/c~0d", "a/b.c~d"},
		{zschema.PathOf(""), "/", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ptr, tc.path.Pointer())
		assert.Equal(t, tc.str, tc.path.String())
	}
}

func TestParsePointer(t *testing.T) {
	assert.Equal(t, zschema.Path{}, zschema.ParsePointer(""))
	assert.Equal(t, zschema.Path{}, zschema.ParsePointer("/"))
	assert.True(t, zschema.PathOf("items", 2, "price").Equal(zschema.ParsePointer("/items/2/price")))
	assert.True(t, zschema.PathOf("a/b", "c~d").Equal(zschema.ParsePointer("/a~1b/c~0d")))
	// leading zeros and signs stay keys
	assert.True(t, zschema.PathOf("01", "-1").Equal(zschema.ParsePointer("/01/-1")))
}

func TestPath_Builders(t *testing.T) {
	base := zschema.PathOf("a")
	k := base.Key("b")
	i := base.Index(3)
	assert.Equal(t, "/a", base.Pointer())
	assert.Equal(t, "/a/b", k.Pointer())
	assert.Equal(t, "/a/3", i.Pointer())

	joined := k.Concat(zschema.PathOf(1, "c"))
	assert.Equal(t, "/a/b/1/c", joined.Pointer())
	assert.True(t, k.Equal(k.Concat(nil)))
	assert.False(t, k.Equal(i))
	assert.False(t, zschema.PathOf(1).Equal(zschema.PathOf("1")))
}

func TestPath_JSON(t *testing.T) {
	p := zschema.PathOf("lines", 0, "sku")
	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, `"/lines/0/sku"`, string(b))

	var back zschema.Path
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, p.Equal(back))
}
