// Package domain provides the list and pagination types shared by domain packages.
package domain

// --- Filter & Pagination ---

// MaxListLimit caps page size for every list endpoint.
const MaxListLimit = 500

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search matches names case-insensitively
	Search string

	// OrderBy specifies sorting (e.g., "name", "-created_at")
	OrderBy string

	// Pagination
	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "-created_at",
	}
}

// Normalize clamps the page into the allowed range.
func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// NewListResult wraps items, substituting an empty slice for nil.
func NewListResult[T any](items []T, total int64, f ListFilter) ListResult[T] {
	if items == nil {
		items = []T{}
	}
	return ListResult[T]{Items: items, TotalCount: total, Limit: f.Limit, Offset: f.Offset}
}
