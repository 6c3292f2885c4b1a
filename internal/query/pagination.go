package query

import (
	"math"
	"strconv"
)

// Pagination defaults.
const (
	DefaultLimit = 10
	DefaultPage  = 1
	// MaxLimit caps the page size a client may request.
	MaxLimit = 100

	PageKey  = "page"
	LimitKey = "limit"
)

// Pagination describes the page served out of DocumentsCount matching documents.
type Pagination struct {
	DocumentsCount int64  `json:"documentsCount"`
	Skip           int64  `json:"skip"`
	Limit          int64  `json:"limit"`
	PageCount      int64  `json:"pageCount"`
	AvailablePages int64  `json:"availablePages"`
	CurrentPage    int64  `json:"currentPage"`
	NextPage       *int64 `json:"nextPage"`
	PrevPage       *int64 `json:"prevPage"`
}

// Paginate computes page metadata. A limit or page of zero or less falls back
// to the defaults, so the function is total.
func Paginate(documentsCount, limit, page int64) Pagination {
	if documentsCount < 0 {
		documentsCount = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if page <= 0 {
		page = DefaultPage
	}
	// Keep (page-1)*limit and page+1 representable.
	if maxPage := math.MaxInt64 / limit; page >= maxPage {
		page = maxPage - 1
		if page < DefaultPage {
			page = DefaultPage
		}
	}

	skip := (page - 1) * limit
	p := Pagination{
		DocumentsCount: documentsCount,
		Skip:           skip,
		Limit:          limit,
		PageCount:      ceilDiv(documentsCount, limit),
		CurrentPage:    page,
	}
	if remaining := documentsCount - skip; remaining > 0 {
		p.AvailablePages = ceilDiv(remaining, limit)
	}

	if page < p.PageCount {
		next := page + 1
		p.NextPage = &next
	}
	if prev := page - 1; prev >= 1 {
		p.PrevPage = &prev
	}
	return p
}

// PageRequest reads limit and page from q. Missing or non-numeric values yield 0,
// which Paginate replaces with the defaults. limit is capped at MaxLimit.
func PageRequest(q *Map) (limit, page int64) {
	limit = intParam(q, LimitKey)
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return limit, intParam(q, PageKey)
}

func intParam(q *Map, key string) int64 {
	v, ok := q.Get(key)
	if !ok || v.Kind != KindString {
		return 0
	}
	n, err := strconv.ParseInt(v.Str, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func ceilDiv(a, b int64) int64 {
	if a <= 0 {
		return 0
	}
	n := a / b
	if a%b != 0 {
		n++
	}
	return n
}
