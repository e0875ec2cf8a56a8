package repository

// Page represents a limit/offset window for listing operations.
type Page struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// PageResult carries a slice of items and the total count matching the query,
// so clients can paginate without an extra round trip.
type PageResult[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}
