package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Scalars(t *testing.T) {
	q := Parse("keyword=red+shirt&page=2&empty=")

	v, ok := q.Get("keyword")
	require.True(t, ok)
	assert.Equal(t, KindString, v.Kind)
	assert.Equal(t, "red shirt", v.Str)

	v, ok = q.Get("empty")
	require.True(t, ok)
	assert.Equal(t, "", v.Str)

	_, ok = q.Get("missing")
	assert.False(t, ok)
}

func TestParse_RepeatedKeyBecomesList(t *testing.T) {
	q := Parse("select=title&select=price&select=-slug")

	v, _ := q.Get("select")
	require.Equal(t, KindList, v.Kind)
	require.Len(t, v.List, 3)
	assert.Equal(t, "title", v.List[0].Str)
	assert.Equal(t, "-slug", v.List[2].Str)
}

func TestParse_BracketAppend(t *testing.T) {
	q := Parse("select[]=title&select[]=price")

	v, _ := q.Get("select")
	require.Equal(t, KindList, v.Kind)
	assert.Equal(t, []Value{String("title"), String("price")}, v.List)
}

func TestParse_NestedMapKeepsOrder(t *testing.T) {
	q := Parse("sort[price]=asc&sort[createdAt]=-1&sort[title]=1")

	v, _ := q.Get("sort")
	require.Equal(t, KindMap, v.Kind)
	assert.Equal(t, []string{"price", "createdAt", "title"}, v.Map.Keys())
}

func TestParse_NestedListInsideMap(t *testing.T) {
	q := Parse("populate[category][]=name&populate[category][]=slug&populate[brand]=*")

	v, _ := q.Get("populate")
	require.Equal(t, KindMap, v.Kind)

	cat, ok := v.Map.Get("category")
	require.True(t, ok)
	assert.Equal(t, KindList, cat.Kind)
	assert.Len(t, cat.List, 2)

	brand, _ := v.Map.Get("brand")
	assert.Equal(t, "*", brand.Str)
}

func TestParse_IndexedKeysBecomeList(t *testing.T) {
	q := Parse("select[1]=price&select[0]=title")

	v, _ := q.Get("select")
	require.Equal(t, KindList, v.Kind)
	assert.Equal(t, "title", v.List[0].Str)
	assert.Equal(t, "price", v.List[1].Str)
}

func TestParse_MixedKeysStayMap(t *testing.T) {
	q := Parse("sort[0]=1&sort[price]=asc")

	v, _ := q.Get("sort")
	require.Equal(t, KindMap, v.Kind)
	assert.Equal(t, []string{"0", "price"}, v.Map.Keys())
}

func TestParse_EncodedBrackets(t *testing.T) {
	q := Parse("sort%5Bprice%5D=asc")

	v, _ := q.Get("sort")
	require.Equal(t, KindMap, v.Kind)
	dir, _ := v.Map.Get("price")
	assert.Equal(t, "asc", dir.Str)
}

func TestParse_SkipsBadPairs(t *testing.T) {
	q := Parse("=x&%zz=1&ok=1&&")

	assert.Equal(t, []string{"ok"}, q.Keys())
}

func TestParse_DepthIsCapped(t *testing.T) {
	q := Parse("a[b][c][d][e][f][g]=1")

	v, _ := q.Get("a")
	depth := 0
	for v.Kind == KindMap {
		depth++
		next, ok := v.Map.Get(v.Map.Keys()[0])
		require.True(t, ok)
		v = next
	}
	assert.Equal(t, maxDepth, depth)
	assert.Equal(t, "1", v.Str)
}
