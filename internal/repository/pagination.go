package repository

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// ListQuery holds the filter and pagination criteria for a document listing.
// Provided filters combine with AND semantics; zero values are no-ops.
type ListQuery struct {
	Status   string
	Type     string
	Category string
	// Search matches case-insensitively against title OR description.
	Search string
	// Page is 1-based.
	Page  int
	Limit int
}

// Normalize clamps pagination values into a usable range.
func (q *ListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
}

// Offset is the number of rows to skip for the requested page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type. Total is the count of rows matching the
// filters before pagination; TotalPages derives from Total and Limit.
type PageResult[T any] struct {
	Items      []T
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

// NewPageResult builds a PageResult with calculated total pages.
func NewPageResult[T any](items []T, total, page, limit int) *PageResult[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if limit > 0 {
		totalPages = total / limit
		if total%limit != 0 {
			totalPages++
		}
	}
	return &PageResult[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}
