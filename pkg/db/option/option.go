// Package option provides composable query modifiers for the generic store.
package option

import (
	"fmt"
	"strings"
	"time"

	"github.com/smallbiznis/faktura/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QueryOption func(*gorm.DB) *gorm.DB

func (o QueryOption) Apply(db *gorm.DB) *gorm.DB {
	return o(db)
}

type Operator string

const (
	EQ   Operator = "="
	NEQ  Operator = "<>"
	GT   Operator = ">"
	GTE  Operator = ">="
	LT   Operator = "<"
	LTE  Operator = "<="
	LIKE Operator = "LIKE"
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// ApplyOperator adds a single comparison predicate.
func ApplyOperator(cond Condition) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		field := strings.TrimSpace(cond.Field)
		if field == "" {
			return db
		}
		return db.Where(fmt.Sprintf("%s %s ?", field, cond.Operator), cond.Value)
	}
}

type QuerySortBy struct {
	Allow map[string]bool
	Field string
	Desc  bool
}

// WithSortBy orders by an allow-listed column; disallowed fields are ignored.
func WithSortBy(sort QuerySortBy) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		field := strings.TrimSpace(sort.Field)
		if field == "" {
			field = "created_at"
		}
		if len(sort.Allow) > 0 && !sort.Allow[field] {
			return db
		}
		direction := "ASC"
		if sort.Desc {
			direction = "DESC"
		}
		return db.Order(fmt.Sprintf("%s %s", field, direction))
	}
}

func WithLimit(limit int) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	}
}

func WithOffset(offset int) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		if offset <= 0 {
			return db
		}
		return db.Offset(offset)
	}
}

// ApplyPagination decodes the cursor token and over-fetches one row so the
// caller can detect another page. Results must be ordered created_at desc,
// id desc to match the cursor shape.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		if strings.TrimSpace(page.PageToken) != "" {
			cursor, err := pagination.DecodeCursor(page.PageToken)
			if err == nil && cursor.ID != "" {
				if cursor.CreatedAt != "" {
					if createdAt, perr := time.Parse(time.RFC3339, cursor.CreatedAt); perr == nil {
						db = db.Where("(created_at < ?) OR (created_at = ? AND id < ?)", createdAt, createdAt, cursor.ID)
					}
				} else {
					db = db.Where("id < ?", cursor.ID)
				}
			}
		}

		limit := page.PageSize
		if limit <= 0 {
			limit = 25
		}
		return db.Limit(limit + 1)
	}
}

// WithRowLock takes a FOR UPDATE lock on the selected rows. Read-modify-write
// sequences on invoice facts must run under this lock inside a transaction.
func WithRowLock() QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
}

// WithPreload eager-loads an association.
func WithPreload(association string) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		return db.Preload(association)
	}
}
