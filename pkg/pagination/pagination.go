package pagination

import (
	"net/http"
	"strconv"
)

const (
	defaultPerPage = 24
	maxPerPage     = 100
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

// DefaultParams returns the first page at the default page size.
func DefaultParams() Params {
	return Params{Page: 1, PerPage: defaultPerPage}
}

// FromRequest reads page and per_page from the query string, ignoring values
// that are not positive integers and capping per_page.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()
	q := r.URL.Query()

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil && v > 0 {
		p.PerPage = min(v, maxPerPage)
	}

	p.Offset = (p.Page - 1) * p.PerPage
	return p
}

// Result is one page of items plus the totals needed to render paging links.
type Result[T any] struct {
	Items      []T  `json:"items"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// Slice returns the page of items selected by params. A page past the end
// yields an empty, non-nil Items slice.
func Slice[T any](items []T, params Params) Result[T] {
	total := len(items)
	start := min(params.Offset, total)
	end := min(start+params.PerPage, total)

	page := make([]T, end-start)
	copy(page, items[start:end])

	totalPages := total / params.PerPage
	if total%params.PerPage > 0 {
		totalPages++
	}

	return Result[T]{
		Items:      page,
		TotalCount: total,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}
}
