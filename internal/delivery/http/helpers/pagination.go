package helpers

import (
	"fmt"
	"net/http"
	"strconv"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationParams selects a 1-based page of a list.
type PaginationParams struct {
	Page     int
	PageSize int
}

func (p PaginationParams) offset() int {
	return (p.Page - 1) * p.PageSize
}

// ParsePagination reads page and page_size from the query string. Missing values take the
// defaults and page_size above MaxPageSize is clamped; anything non-numeric or below 1 is an error.
func ParsePagination(r *http.Request) (PaginationParams, error) {
	q := r.URL.Query()
	page, err := positiveParam(q.Get("page"), "page", DefaultPage)
	if err != nil {
		return PaginationParams{}, err
	}
	size, err := positiveParam(q.Get("page_size"), "page_size", DefaultPageSize)
	if err != nil {
		return PaginationParams{}, err
	}
	return PaginationParams{Page: page, PageSize: min(size, MaxPageSize)}, nil
}

func positiveParam(raw, name string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return v, nil
}

// PaginationMeta describes the page returned alongside a list.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// Paginate slices items to the page p selects. Pages past the end are empty, never nil.
func Paginate[T any](items []T, p PaginationParams) ([]T, PaginationMeta) {
	total := len(items)
	meta := PaginationMeta{Page: p.Page, PageSize: p.PageSize, Total: total}
	if p.PageSize > 0 {
		meta.TotalPages = (total + p.PageSize - 1) / p.PageSize
	}
	meta.HasNext = p.Page < meta.TotalPages
	start := min(max(p.offset(), 0), total)
	end := min(start+p.PageSize, total)
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out, meta
}
