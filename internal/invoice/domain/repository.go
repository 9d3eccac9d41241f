package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/faktura/pkg/db/pagination"
	"gorm.io/gorm"
)

// ListInvoiceFilter narrows List results. State filters are translated into
// fact predicates by the repository; there is no status column to query.
type ListInvoiceFilter struct {
	State        *State
	ContactID    *snowflake.ID
	ProjectID    *snowflake.ID
	IncludeTrash bool
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
}

// Repository is the persistence boundary for invoice facts. Callers that
// read-modify-write must use FindByIDForUpdate inside a transaction so two
// concurrent payments cannot race on AmountPaidCents.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, inv *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Invoice, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListInvoiceFilter, page pagination.Pagination) ([]*Invoice, error)
	SaveFacts(ctx context.Context, db *gorm.DB, inv *Invoice) error
	AppendPayment(ctx context.Context, db *gorm.DB, payment *Payment) error
	ListPayments(ctx context.Context, db *gorm.DB, orgID, invoiceID snowflake.ID) ([]Payment, error)
	HardDelete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error
}
