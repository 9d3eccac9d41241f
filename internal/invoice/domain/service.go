package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/faktura/pkg/db/pagination"
)

type ListInvoiceRequest struct {
	pagination.Pagination
	State        *State
	ContactID    *snowflake.ID
	ProjectID    *snowflake.ID
	IncludeTrash bool
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
}

// InvoiceView pairs persisted facts with the values recomputed on every read.
type InvoiceView struct {
	Invoice
	Derived        Derived  `json:"derived"`
	AllowedActions []Action `json:"allowed_actions"`
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []InvoiceView `json:"invoices"`
}

type CreateInvoiceRequest struct {
	ContactID     *snowflake.ID
	ProjectID     *snowflake.ID
	InvoiceNumber string
	IssueDate     *time.Time
	DueDate       *time.Time
	TotalCents    int64
	Currency      string
}

// UpdateDraftRequest is a full edit, legal only while the invoice is still a
// draft or under review.
type UpdateDraftRequest struct {
	ID            string
	ContactID     *snowflake.ID
	ProjectID     *snowflake.ID
	InvoiceNumber *string
	IssueDate     *time.Time
	DueDate       *time.Time
	TotalCents    *int64
}

// ApplyActionRequest invokes one lifecycle action on an invoice.
type ApplyActionRequest struct {
	ID     string
	Action Action
	Params ActionParams
}

type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (InvoiceView, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	GetByID(ctx context.Context, id string) (InvoiceView, error)
	UpdateDraft(ctx context.Context, req UpdateDraftRequest) (InvoiceView, error)
	ApplyAction(ctx context.Context, req ApplyActionRequest) (InvoiceView, error)
	ListPayments(ctx context.Context, invoiceID string) ([]Payment, error)
	RenderPDF(ctx context.Context, id string) ([]byte, error)
}
