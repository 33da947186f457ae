package pos

import (
	"gitlab.connectwisedev.com/pos-service/models"
)

const (
	// MaxPageSize caps every listing regardless of the requested limit.
	MaxPageSize = 100

	DefaultCustomerPageSize = 10
	DefaultProductPageSize  = 6
	DefaultOrderPageSize    = 10
)

// PageRequest is a 1-based page number and a page size. Zero or negative
// values fall back to defaults.
type PageRequest struct {
	Page  int
	Limit int
}

func (r PageRequest) normalize(defaultLimit int) PageRequest {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 {
		r.Limit = defaultLimit
	}
	if r.Limit > MaxPageSize {
		r.Limit = MaxPageSize
	}
	return r
}

func (r PageRequest) offset() int64 {
	return int64(r.Page-1) * int64(r.Limit)
}

// TotalPages is ceil(total / limit).
func TotalPages(total int64, limit int) int {
	if limit < 1 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

func newPage[T any](items []T, r PageRequest, total int64) models.Page[T] {
	if items == nil {
		items = []T{}
	}
	return models.Page[T]{
		Items:      items,
		Page:       r.Page,
		Limit:      r.Limit,
		TotalPages: TotalPages(total, r.Limit),
		Total:      total,
	}
}
