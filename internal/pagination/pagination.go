package pagination

import (
	"math"

	"gorm.io/gorm"
)

const (
	// DefaultPageSize applies when page_size is omitted.
	DefaultPageSize = 20
	// MaxPageSize caps listings of accounts, cards, expenses and the like.
	MaxPageSize = 100
	// MaxLedgerPageSize caps ledger entry listings, which are read as
	// statements and may need a full month of entries in one page.
	MaxLedgerPageSize = 500
)

// PageRequest holds pagination parameters parsed from query strings.
// Binding only rejects sizes above the largest cap; each listing then
// clamps to its own limit.
type PageRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=500"`
}

// Defaults fills in missing values and caps page_size at MaxPageSize.
func (p *PageRequest) Defaults() {
	p.DefaultsUpTo(MaxPageSize)
}

// DefaultsUpTo fills in missing values and caps page_size at limit.
func (p *PageRequest) DefaultsUpTo(limit int) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > limit {
		p.PageSize = limit
	}
}

// Offset returns the SQL OFFSET for the current page.
func (p *PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// PageResponse wraps a paginated list of items with metadata.
type PageResponse[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewPageResponse creates a PageResponse from the given data and total count.
func NewPageResponse[T any](data []T, page, pageSize int, totalItems int64) PageResponse[T] {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(math.Ceil(float64(totalItems) / float64(pageSize)))
	}
	if data == nil {
		data = []T{}
	}
	return PageResponse[T]{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}

// Paginate returns a GORM scope that applies OFFSET and LIMIT for the given page request.
func Paginate(req PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(req.Offset()).Limit(req.PageSize)
	}
}
