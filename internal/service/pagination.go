package service

import (
	"math"
	"strconv"
)

const (
	// DefaultPageLimit applies when no usable limit is supplied.
	DefaultPageLimit = 9
	// MaxPageLimit caps the page size.
	MaxPageLimit = 50
)

// PageQuery is a normalized page request.
type PageQuery struct {
	Page  int
	Limit int
}

// Offset returns the number of rows skipped before this page.
func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// ParsePageQuery reads raw query values. Missing or non-numeric values fall back to defaults,
// numeric values are clamped: page to >= 1 and limit to [1, MaxPageLimit].
func ParsePageQuery(rawPage, rawLimit string) PageQuery {
	q := PageQuery{Page: 1, Limit: DefaultPageLimit}
	if page, err := strconv.Atoi(rawPage); err == nil && page > 1 {
		q.Page = min(page, math.MaxInt32)
	}
	if limit, err := strconv.Atoi(rawLimit); err == nil {
		q.Limit = min(max(limit, 1), MaxPageLimit)
	}
	return q
}

// TotalPages is ceil(total/limit), never less than 1.
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 1
	}
	pages := int((total + int64(limit) - 1) / int64(limit))
	return max(pages, 1)
}
