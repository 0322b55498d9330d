package common

import "net/http"

// maxPerPage caps page sizes so a single request cannot dump a whole table.
const maxPerPage = 100

// Pagination is the metadata block attached to paged list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
}

// Offset converts the page/per-page pair into a SQL offset.
func (p Pagination) Offset() int {
	if p.Page < 1 || p.PerPage < 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

// ParsePagination reads the "page" and "limit" query parameters, falling
// back to sane values and clamping oversized limits.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	query := r.URL.Query()
	page = AtoiDefault(query.Get("page"), 1)
	if page < 1 {
		page = 1
	}
	perPage = AtoiDefault(query.Get("limit"), defaultPerPage)
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}
