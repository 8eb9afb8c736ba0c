// Package pagination holds the page/limit arithmetic shared by list queries.
package pagination

const (
	// DefaultLimit is used when a caller omits or zeroes the limit.
	DefaultLimit = 25
	// MaxLimit caps the page size a caller may request.
	MaxLimit = 1000
)

// Query is a 1-based page request.
type Query struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Normalize clamps page to >= 1 and limit to [1, MaxLimit], substituting
// DefaultLimit for a non-positive limit.
func (q Query) Normalize() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

// Offset returns the number of rows to skip.
func (q Query) Offset() int {
	q = q.Normalize()
	return (q.Page - 1) * q.Limit
}

// Range returns the inclusive row window [from, to] for the page.
func (q Query) Range() (from, to int) {
	q = q.Normalize()
	from = (q.Page - 1) * q.Limit
	return from, from + q.Limit - 1
}

// Page is one page of results plus the exact total across all pages.
type Page[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
}

// NewPage returns a page whose Items is never nil.
func NewPage[T any](items []T, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, TotalCount: total}
}
