package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Action identifies a lifecycle transition.
type Action string

const (
	ActionConfirmAndSave     Action = "confirm_and_save"
	ActionSend               Action = "send"
	ActionMarkAsSent         Action = "mark_as_sent"
	ActionMarkAsPaid         Action = "mark_as_paid"
	ActionMarkAsSentAndPaid  Action = "mark_as_sent_and_paid"
	ActionAddPayment         Action = "add_payment"
	ActionMarkAsNotPaid      Action = "mark_as_not_paid"
	ActionRevertToDraft      Action = "revert_to_draft"
	ActionRevertToSent       Action = "revert_to_sent"
	ActionCancel             Action = "cancel"
	ActionMarkAsNotCancelled Action = "mark_as_not_cancelled"
	ActionDeleteUpload       Action = "delete_upload"
	ActionMoveToTrash        Action = "move_to_trash"
)

// Guard reason strings, surfaced verbatim to callers.
const (
	ReasonHasPayments       = "invoice has received payments"
	ReasonAlreadyCancelled  = "invoice is already cancelled"
	ReasonAlreadySent       = "invoice has already been sent"
	ReasonCancelled         = "invoice is cancelled"
	ReasonDueDateRequired   = "due date is required"
	ReasonIssueDateRequired = "issue date is required"
	ReasonPayDateRequired   = "payment date is required"
	ReasonTotalNotPositive  = "total must be greater than zero"
	ReasonAmountNotPositive = "payment amount must be greater than zero"
	ReasonAmountExceeds     = "payment amount exceeds outstanding balance"
	ReasonNotCancelled      = "invoice is not cancelled"
	ReasonWrongState        = "not allowed in the current state"
)

// Effect tells the caller which side effect, beyond saving the mutated facts,
// the applied action requires.
type Effect int

const (
	EffectNone Effect = iota
	// EffectAppendPayment appends a payment row and is the only path that
	// increases AmountPaidCents.
	EffectAppendPayment
	// EffectCreateCancellationInvoice creates a new invoice whose total
	// negates this one.
	EffectCreateCancellationInvoice
	// EffectHardDelete removes the invoice and its source document.
	EffectHardDelete
	// EffectSoftDelete moves the invoice to the trash.
	EffectSoftDelete
)

// ActionParams carries the caller-supplied inputs for an action.
type ActionParams struct {
	Now time.Time

	// PaymentDate is required for mark-as-paid, mark-as-sent-and-paid and
	// add-payment.
	PaymentDate *time.Time

	// AmountCents is the payment amount for add-payment.
	AmountCents int64

	// RevertTo selects the target of mark-as-not-paid: StateSent (default,
	// preserves payment history) or StateDraft (blocked when payments exist).
	RevertTo State

	// Confirmed carries the reviewed fields for confirm-and-save.
	Confirmed *ConfirmedFields
}

// ConfirmedFields are the user-verified values applied when a REVIEW invoice
// is confirmed. Extraction output is untrusted; nothing is applied without
// this explicit confirmation.
type ConfirmedFields struct {
	ContactID     *snowflake.ID
	InvoiceNumber string
	IssueDate     *time.Time
	DueDate       *time.Time
	TotalCents    int64
}

// Result is the outcome of a successfully applied action: the mutated copy of
// the facts plus the side effect the caller must perform in the same
// transaction.
type Result struct {
	Invoice Invoice
	Effect  Effect
}

// Apply evaluates the guard for action against the current facts and, if it
// passes, returns a mutated copy. The input invoice is never modified; a
// guard violation aborts before any change.
func Apply(inv *Invoice, action Action, params ActionParams) (Result, error) {
	state := StateOf(inv)
	next := *inv

	switch action {
	case ActionConfirmAndSave:
		if state != StateReview {
			return Result{}, guardViolation(action, state, ReasonWrongState)
		}
		c := params.Confirmed
		if c == nil || c.TotalCents <= 0 {
			return Result{}, guardViolation(action, state, ReasonTotalNotPositive)
		}
		if c.IssueDate == nil {
			return Result{}, guardViolation(action, state, ReasonIssueDateRequired)
		}
		next.NeedsReview = false
		next.InvoiceNumber = c.InvoiceNumber
		next.IssueDate = c.IssueDate
		next.DueDate = c.DueDate
		next.TotalCents = c.TotalCents
		if c.ContactID != nil {
			next.ContactID = c.ContactID
		}
		return Result{Invoice: next}, nil

	case ActionSend:
		if state != StateDraft {
			return Result{}, guardViolation(action, state, ReasonWrongState)
		}
		if inv.CancelledAt != nil {
			return Result{}, guardViolation(action, state, ReasonCancelled)
		}
		if inv.DueDate == nil {
			return Result{}, guardViolation(action, state, ReasonDueDateRequired)
		}
		if inv.TotalCents <= 0 {
			return Result{}, guardViolation(action, state, ReasonTotalNotPositive)
		}
		now := params.Now
		next.SentAt = &now
		return Result{Invoice: next}, nil

	case ActionMarkAsSent:
		if state != StateDraft && state != StateReview {
			return Result{}, guardViolation(action, state, ReasonWrongState)
		}
		now := params.Now
		next.SentAt = &now
		return Result{Invoice: next}, nil

	case ActionMarkAsPaid:
		if state == StatePaid {
			return Result{}, guardViolation(action, state, ReasonWrongState)
		}
		if params.PaymentDate == nil {
			return Result{}, guardViolation(action, state, ReasonPayDateRequired)
		}
		next.PaidAt = params.PaymentDate
		if next.SentAt == nil {
			// Never-sent invoices are marked sent in the same step.
			now := params.Now
			next.SentAt = &now
		}
		return Result{Invoice: next}, nil

	case ActionMarkAsSentAndPaid:
		if state != StateDraft && state != StateReview {
			return Result{}, guardViolation(action, state, ReasonWrongState)
		}
		if inv.SentAt != nil {
			return Result{}, guardViolation(action, state, ReasonAlreadySent)
		}
		if params.PaymentDate == nil {
			return Result{}, guardViolation(action, state, ReasonPayDateRequired)
		}
		now := params.Now
		next.SentAt = &now
		next.PaidAt = params.PaymentDate
		return Result{Invoice: next}, nil

	case ActionAddPayment:
		if state != StateSent && state != StatePartial {
			return Result{}, guardViolation(action, state, ReasonWrongState)
		}
		if params.AmountCents <= 0 {
			return Result{}, guardViolation(action, state, ReasonAmountNotPositive)
		}
		outstanding := inv.TotalCents - inv.AmountPaidCents
		if params.AmountCents > outstanding {
			return Result{}, guardViolation(action, state, ReasonAmountExceeds)
		}
		if params.PaymentDate == nil {
			return Result{}, guardViolation(action, state, ReasonPayDateRequired)
		}
		next.AmountPaidCents += params.AmountCents
		return Result{Invoice: next, Effect: EffectAppendPayment}, nil

	case ActionMarkAsNotPaid:
		if state != StatePaid {
			return Result{}, guardViolation(action, state, ReasonWrongState)
		}
		if params.RevertTo == StateDraft {
			if inv.AmountPaidCents > 0 {
				return Result{}, guardViolation(action, state, ReasonHasPayments)
			}
			next.PaidAt = nil
			next.SentAt = nil
			return Result{Invoice: next}, nil
		}
		// Default target is SENT, which always preserves payment history.
		next.PaidAt = nil
		return Result{Invoice: next}, nil

	case ActionRevertToDraft:
		if state != StateSent && state != StatePartial {
			return Result{}, guardViolation(action, state, ReasonWrongState)
		}
		if inv.AmountPaidCents > 0 {
			return Result{}, guardViolation(action, state, ReasonHasPayments)
		}
		next.SentAt = nil
		return Result{Invoice: next}, nil

	case ActionRevertToSent:
		if state != StatePartial && state != StatePaid {
			return Result{}, guardViolation(action, state, ReasonWrongState)
		}
		next.PaidAt = nil
		return Result{Invoice: next}, nil

	case ActionCancel:
		if inv.CancelledAt != nil {
			return Result{}, guardViolation(action, state, ReasonAlreadyCancelled)
		}
		switch state {
		case StateDraft, StateReview, StateSent, StatePartial:
		default:
			return Result{}, guardViolation(action, state, ReasonWrongState)
		}
		now := params.Now
		next.CancelledAt = &now
		if inv.SentAt != nil {
			// Sent invoices are never voided in place; a cancellation invoice
			// negates them so the audit trail survives. This covers REVIEW
			// invoices that went through mark-as-sent too.
			return Result{Invoice: next, Effect: EffectCreateCancellationInvoice}, nil
		}
		return Result{Invoice: next}, nil

	case ActionMarkAsNotCancelled:
		if inv.CancelledAt == nil {
			return Result{}, guardViolation(action, state, ReasonNotCancelled)
		}
		next.CancelledAt = nil
		return Result{Invoice: next}, nil

	case ActionDeleteUpload:
		if state != StateReview || inv.SentAt != nil {
			return Result{}, guardViolation(action, state, ReasonWrongState)
		}
		return Result{Invoice: next, Effect: EffectHardDelete}, nil

	case ActionMoveToTrash:
		now := params.Now
		next.TrashedAt = &now
		return Result{Invoice: next, Effect: EffectSoftDelete}, nil

	default:
		return Result{}, guardViolation(action, state, "unknown action")
	}
}

// AllowedActions lists the actions whose guards would pass right now, in a
// stable order. Callers use it to decide which controls to offer.
func AllowedActions(inv *Invoice) []Action {
	state := StateOf(inv)
	allowed := make([]Action, 0, 8)

	switch state {
	case StateReview:
		allowed = append(allowed, ActionConfirmAndSave, ActionMarkAsSent, ActionMarkAsPaid, ActionMarkAsSentAndPaid, ActionDeleteUpload)
	case StateDraft:
		if inv.CancelledAt == nil {
			allowed = append(allowed, ActionSend)
		}
		allowed = append(allowed, ActionMarkAsSent, ActionMarkAsPaid, ActionMarkAsSentAndPaid)
	case StateSent:
		allowed = append(allowed, ActionMarkAsPaid, ActionAddPayment)
		if inv.AmountPaidCents == 0 {
			allowed = append(allowed, ActionRevertToDraft)
		}
	case StatePartial:
		allowed = append(allowed, ActionMarkAsPaid, ActionAddPayment, ActionRevertToSent)
	case StatePaid:
		allowed = append(allowed, ActionMarkAsNotPaid, ActionRevertToSent)
	}

	if inv.CancelledAt == nil && state != StatePaid {
		allowed = append(allowed, ActionCancel)
	}
	if inv.CancelledAt != nil {
		allowed = append(allowed, ActionMarkAsNotCancelled)
	}
	allowed = append(allowed, ActionMoveToTrash)

	return allowed
}
