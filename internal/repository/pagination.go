package repository

import "gorm.io/gorm"

// MaxPageSize caps every paginated query.
const MaxPageSize = 100

// Page selects one page of results. Page numbers start at 1.
type Page struct {
	Page  int
	Limit int
}

// Normalize fills zero or negative values with defaults.
func (p Page) Normalize(defaultLimit int) Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

func paginate(p Page) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.Limit)
	}
}
