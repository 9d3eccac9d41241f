// Package domain contains the invoice facts model and the pure state
// derivation over it. The persisted record never carries a status column;
// state is always recomputed from these fields.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// InvoiceSource records how an invoice entered the system.
type InvoiceSource string

const (
	SourceCreated  InvoiceSource = "created"
	SourceUploaded InvoiceSource = "uploaded"
)

// InvoiceType distinguishes standard invoices from cancellation invoices that
// negate a previously sent one.
type InvoiceType string

const (
	TypeStandard     InvoiceType = "standard"
	TypeCancellation InvoiceType = "cancellation"
)

// Invoice is the persisted facts record. SentAt, PaidAt, CancelledAt,
// AmountPaidCents and NeedsReview are the only inputs to state derivation.
type Invoice struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID  `gorm:"not null;index" json:"organization_id"`
	ContactID *snowflake.ID `gorm:"index" json:"contact_id,omitempty"`
	ProjectID *snowflake.ID `gorm:"index" json:"project_id,omitempty"`

	InvoiceNumber string        `gorm:"type:text" json:"invoice_number"`
	Type          InvoiceType   `gorm:"type:text;not null;default:'standard'" json:"type"`
	Source        InvoiceSource `gorm:"type:text;not null;default:'created'" json:"source"`

	// CancelsInvoiceID references the invoice a cancellation invoice negates.
	// Back-reference only.
	CancelsInvoiceID *snowflake.ID `gorm:"index" json:"cancels_invoice_id,omitempty"`

	NeedsReview bool `gorm:"not null;default:false" json:"needs_review"`

	IssueDate   *time.Time `gorm:"" json:"issue_date,omitempty"`
	DueDate     *time.Time `gorm:"" json:"due_date,omitempty"`
	SentAt      *time.Time `gorm:"" json:"sent_at,omitempty"`
	PaidAt      *time.Time `gorm:"" json:"paid_at,omitempty"`
	CancelledAt *time.Time `gorm:"" json:"cancelled_at,omitempty"`
	TrashedAt   *time.Time `gorm:"index" json:"trashed_at,omitempty"`

	TotalCents      int64  `gorm:"not null;default:0" json:"total_cents"`
	AmountPaidCents int64  `gorm:"not null;default:0" json:"amount_paid_cents"`
	Currency        string `gorm:"type:text;not null;default:'EUR'" json:"currency"`

	// UploadID ties a REVIEW invoice to the stored source document.
	UploadID *snowflake.ID `gorm:"index" json:"upload_id,omitempty"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Payments []Payment `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// Payment is an append-only record of money received against one invoice.
// Payments are never deleted; "not paid" is modelled as a state transition.
type Payment struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID `gorm:"not null;index" json:"organization_id"`
	InvoiceID   snowflake.ID `gorm:"not null;index" json:"invoice_id"`
	AmountCents int64        `gorm:"not null" json:"amount_cents"`
	PaidAt      time.Time    `gorm:"not null" json:"paid_at"`
	Note        string       `gorm:"type:text" json:"note,omitempty"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }
