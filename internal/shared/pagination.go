package shared

import (
	"math"
	"net/http"
	"strconv"
)

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"pagina"`
	PerPage    int `json:"porPagina"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPaginas"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Offset returns the row offset for the current page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// PaginationFromRequest parses pagina/porPagina query parameters with
// sane bounds.
func PaginationFromRequest(r *http.Request, maxPerPage int) (page, perPage int) {
	page = 1
	perPage = 20
	if v := r.URL.Query().Get("pagina"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			page = parsed
		}
	}
	if v := r.URL.Query().Get("porPagina"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			perPage = parsed
		}
	}
	if maxPerPage > 0 && perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}
