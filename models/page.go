package models

// Page is one page of a newest-first listing.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
	Total      int64 `json:"total"`
}
