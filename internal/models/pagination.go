package models

// Page limits.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageRequest is a 1-based page selector.
type PageRequest struct {
	Page int
	Size int
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Size
}

// Page is the list envelope shared by all catalog listings.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Pages int64 `json:"pages"`
}

// NewPage builds the envelope; a nil items slice is rendered as [].
func NewPage[T any](items []T, total int64, req PageRequest) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items: items,
		Total: total,
		Page:  req.Page,
		Size:  req.Size,
		Pages: TotalPages(total, req.Size),
	}
}

// TotalPages is ceil(total/size).
func TotalPages(total int64, size int) int64 {
	if size <= 0 {
		return 0
	}
	return (total + int64(size) - 1) / int64(size)
}
