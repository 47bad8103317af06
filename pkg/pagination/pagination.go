// Package pagination turns page/per_page inputs into bounded windows over
// ordered result lists.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Params is a validated page request. Page is 1-based.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

// DefaultParams is the first page at the default size.
func DefaultParams() Params {
	return New(1, defaultPerPage)
}

// New bounds page and perPage. A page below 1 becomes 1; a size outside
// [1, 100] becomes the default of 20.
func New(page, perPage int) Params {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > maxPerPage {
		perPage = defaultPerPage
	}
	return Params{Page: page, PerPage: perPage, Offset: (page - 1) * perPage}
}

// FromRequest reads the page and per_page query parameters. Values that are
// missing or not integers are treated like out-of-range ones.
func FromRequest(r *http.Request) Params {
	q := r.URL.Query()
	return New(queryInt(q.Get("page")), queryInt(q.Get("per_page")))
}

func queryInt(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

// Window is the [start, end) range of the page inside total items, empty once
// the page runs past the end.
func (p Params) Window(total int) (start, end int) {
	start = min(p.Offset, total)
	end = min(start+p.PerPage, total)
	return start, end
}

// Slice copies the selected page of items in order.
func Slice[T any](items []T, p Params) []T {
	start, end := p.Window(len(items))
	return append([]T(nil), items[start:end]...)
}

// TotalPages is the number of pages needed for total items.
func (p Params) TotalPages(total int) int {
	if p.PerPage <= 0 {
		return 0
	}
	return (total + p.PerPage - 1) / p.PerPage
}
