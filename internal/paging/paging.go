// Package paging normalizes page parameters and computes page counts.
package paging

// MaxPerPage caps page sizes requested by clients.
const MaxPerPage = 100

// Params is a normalized page request.
type Params struct {
	Page    int
	PerPage int
}

// Normalize applies defaults: page below 1 becomes 1, per_page outside
// [1, MaxPerPage] becomes defaultPerPage.
func Normalize(page, perPage, defaultPerPage int) Params {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > MaxPerPage {
		perPage = defaultPerPage
	}
	return Params{Page: page, PerPage: perPage}
}

// Offset returns the number of rows to skip.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Pages returns ceil(total/perPage), or 0 when total is 0.
func Pages(total int64, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// Meta is the pagination block of a listing response.
type Meta struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
}

// Meta describes the page p within total rows.
func (p Params) Meta(total int64) Meta {
	return Meta{Page: p.Page, PerPage: p.PerPage, Total: total, Pages: Pages(total, p.PerPage)}
}
