package query

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginate_Scenario(t *testing.T) {
	p := Paginate(25, 10, 3)

	assert.Equal(t, int64(20), p.Skip)
	assert.Equal(t, int64(10), p.Limit)
	assert.Equal(t, int64(3), p.PageCount)
	assert.Equal(t, int64(3), p.CurrentPage)
	assert.Nil(t, p.NextPage)
	require.NotNil(t, p.PrevPage)
	assert.Equal(t, int64(2), *p.PrevPage)
}

func TestPaginate_Defaults(t *testing.T) {
	for _, tc := range []struct{ limit, page int64 }{{0, 0}, {-5, -1}} {
		p := Paginate(42, tc.limit, tc.page)
		assert.Equal(t, int64(DefaultLimit), p.Limit)
		assert.Equal(t, int64(DefaultPage), p.CurrentPage)
		assert.Equal(t, int64(0), p.Skip)
		assert.Nil(t, p.PrevPage)
		require.NotNil(t, p.NextPage)
		assert.Equal(t, int64(2), *p.NextPage)
	}
}

func TestPaginate_Empty(t *testing.T) {
	p := Paginate(0, 10, 1)

	assert.Equal(t, int64(0), p.PageCount)
	assert.Equal(t, int64(0), p.AvailablePages)
	assert.Nil(t, p.NextPage)
	assert.Nil(t, p.PrevPage)
}

func TestPaginate_PastTheEnd(t *testing.T) {
	p := Paginate(5, 10, 4)

	assert.Equal(t, int64(30), p.Skip)
	assert.Equal(t, int64(0), p.AvailablePages)
	assert.Nil(t, p.NextPage)
}

func TestPaginate_Totality(t *testing.T) {
	for count := int64(0); count <= 60; count += 7 {
		for limit := int64(1); limit <= 12; limit++ {
			for page := int64(1); page <= 8; page++ {
				p := Paginate(count, limit, page)
				assert.Equal(t, (page-1)*limit, p.Skip)

				want := count / limit
				if count%limit != 0 {
					want++
				}
				assert.Equal(t, want, p.PageCount, "count=%d limit=%d", count, limit)
				if p.NextPage != nil {
					assert.Equal(t, page+1, *p.NextPage)
				}
			}
		}
	}
}

func TestPageRequest(t *testing.T) {
	limit, page := PageRequest(Parse("limit=25&page=3"))
	assert.Equal(t, int64(25), limit)
	assert.Equal(t, int64(3), page)

	limit, page = PageRequest(Parse("limit=abc&page[]=2"))
	assert.Equal(t, int64(0), limit)
	assert.Equal(t, int64(0), page)
}

func TestPaginate_MiddlePage(t *testing.T) {
	p := Paginate(25, 10, 2)

	assert.Equal(t, int64(2), p.AvailablePages)
	require.NotNil(t, p.NextPage)
	assert.Equal(t, int64(3), *p.NextPage)
	require.NotNil(t, p.PrevPage)
	assert.Equal(t, int64(1), *p.PrevPage)
}

func TestPageRequest_CapsLimit(t *testing.T) {
	limit, _ := PageRequest(Parse("limit=9000000000000000000"))
	assert.Equal(t, int64(MaxLimit), limit)
}

func TestPaginate_HugeInputsStayInRange(t *testing.T) {
	tests := []struct {
		limit, page int64
	}{
		{9e18, 2},
		{9e18, 3},
		{math.MaxInt64, math.MaxInt64},
		{1, math.MaxInt64},
		{10, math.MaxInt64},
	}

	for _, tt := range tests {
		p := Paginate(5, tt.limit, tt.page)
		assert.GreaterOrEqual(t, p.Skip, int64(0), "limit=%d page=%d", tt.limit, tt.page)
		assert.GreaterOrEqual(t, p.CurrentPage, int64(1))
		assert.GreaterOrEqual(t, p.AvailablePages, int64(0))
		if p.NextPage != nil {
			assert.Greater(t, *p.NextPage, p.CurrentPage)
		}
		if p.PrevPage != nil {
			assert.Less(t, *p.PrevPage, p.CurrentPage)
		}
	}
}
