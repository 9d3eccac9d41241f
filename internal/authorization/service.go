// Package authorization enforces role-based access per organization using
// casbin with a gorm-backed policy store.
package authorization

import (
	"context"
	"errors"
)

const (
	ObjectInvoice   = "invoice"
	ObjectContact   = "contact"
	ObjectProject   = "project"
	ObjectUpload    = "upload"
	ObjectAssistant = "assistant"
	ObjectAuditLog  = "audit_log"
)

const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"

	// ActionInvoiceLifecycle covers all state-changing invoice actions
	// (send, payments, cancel, revert, trash).
	ActionInvoiceLifecycle = "invoice.lifecycle"

	ActionAssistantChat = "assistant.chat"
	ActionAuditLogView  = "audit_log.view"
)

type Service interface {
	// Authorize checks whether the actor may perform action on object within
	// the organization. Actors are "system" or "user:<id>"; a user's role
	// comes from the request context.
	Authorize(ctx context.Context, actor string, orgID string, object string, action string) error
}

var (
	ErrInvalidActor        = errors.New("invalid_actor")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidObject       = errors.New("invalid_object")
	ErrInvalidAction       = errors.New("invalid_action")
	ErrForbidden           = errors.New("forbidden")
)
