package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/faktura/internal/invoice/domain"
	"github.com/smallbiznis/faktura/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, inv *domain.Invoice) error {
	return db.WithContext(ctx).Create(inv).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Invoice, error) {
	return r.findByID(ctx, db, orgID, id, false)
}

// FindByIDForUpdate locks the invoice row for the duration of the enclosing
// transaction.
func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Invoice, error) {
	return r.findByID(ctx, db, orgID, id, true)
}

func (r *repo) findByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, lock bool) (*domain.Invoice, error) {
	stmt := db.WithContext(ctx).Where("org_id = ? AND id = ?", orgID, id)
	if lock {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var inv domain.Invoice
	if err := stmt.First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListInvoiceFilter, page pagination.Pagination) ([]*domain.Invoice, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("org_id = ?", orgID)

	if !filter.IncludeTrash {
		stmt = stmt.Where("trashed_at IS NULL")
	}
	if filter.ContactID != nil {
		stmt = stmt.Where("contact_id = ?", *filter.ContactID)
	}
	if filter.ProjectID != nil {
		stmt = stmt.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.State != nil {
		stmt = applyStatePredicate(stmt, *filter.State)
	}
	if filter.CreatedFrom != nil {
		stmt = stmt.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		stmt = stmt.Where("created_at <= ?", *filter.CreatedTo)
	}

	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, err
		}
		if cursor.ID != "" {
			stmt = stmt.Where("id < ?", cursor.ID)
		}
	}

	limit := page.PageSize
	if limit <= 0 {
		limit = 25
	}

	var invoices []*domain.Invoice
	err := stmt.Order("id DESC").Limit(limit + 1).Find(&invoices).Error
	return invoices, err
}

// applyStatePredicate translates a derived state into the fact predicates
// that produce it, mirroring StateOf's first-match order.
func applyStatePredicate(stmt *gorm.DB, state domain.State) *gorm.DB {
	switch state {
	case domain.StateReview:
		return stmt.Where("needs_review = ?", true)
	case domain.StateDraft:
		return stmt.Where("needs_review = ? AND sent_at IS NULL", false)
	case domain.StatePaid:
		return stmt.Where("needs_review = ? AND sent_at IS NOT NULL AND paid_at IS NOT NULL", false)
	case domain.StatePartial:
		return stmt.Where("needs_review = ? AND sent_at IS NOT NULL AND paid_at IS NULL AND amount_paid_cents > 0", false)
	case domain.StateSent:
		return stmt.Where("needs_review = ? AND sent_at IS NOT NULL AND paid_at IS NULL AND amount_paid_cents = 0", false)
	default:
		return stmt
	}
}

// SaveFacts persists the full facts record. Select("*") makes gorm write
// cleared pointers (sent_at = NULL on revert) instead of skipping zero values.
func (r *repo) SaveFacts(ctx context.Context, db *gorm.DB, inv *domain.Invoice) error {
	return db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("org_id = ? AND id = ?", inv.OrgID, inv.ID).
		Select("*").
		Omit("id", "org_id", "created_at", "Payments").
		Updates(inv).Error
}

func (r *repo) AppendPayment(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *repo) ListPayments(ctx context.Context, db *gorm.DB, orgID, invoiceID snowflake.ID) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := db.WithContext(ctx).
		Where("org_id = ? AND invoice_id = ?", orgID, invoiceID).
		Order("paid_at ASC, id ASC").
		Find(&payments).Error
	return payments, err
}

// HardDelete removes the invoice row and its payments. Only the delete-upload
// action reaches this; the guard has already checked the invoice never left
// REVIEW.
func (r *repo) HardDelete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error {
	if err := db.WithContext(ctx).
		Where("org_id = ? AND invoice_id = ?", orgID, id).
		Delete(&domain.Payment{}).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Delete(&domain.Invoice{}).Error
}
