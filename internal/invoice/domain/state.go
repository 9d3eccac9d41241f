package domain

import "time"

// State is the derived lifecycle state. It is never persisted; StateOf is the
// single place the derivation rule lives.
type State string

const (
	StateReview  State = "REVIEW"
	StateDraft   State = "DRAFT"
	StateSent    State = "SENT"
	StatePartial State = "PARTIAL"
	StatePaid    State = "PAID"
)

// StateOf derives the lifecycle state from the facts. First match wins:
// review flag, then unsent, then explicit paid, then partial payment.
func StateOf(inv *Invoice) State {
	switch {
	case inv.NeedsReview:
		return StateReview
	case inv.SentAt == nil:
		return StateDraft
	case inv.PaidAt != nil:
		return StatePaid
	case inv.AmountPaidCents > 0:
		return StatePartial
	default:
		return StateSent
	}
}

// Derived holds the recomputed-per-read values. Overdue and Cancelled are
// badges layered on top of State, never states themselves.
type Derived struct {
	State            State `json:"state"`
	OutstandingCents int64 `json:"outstanding_cents"`
	IsPaid           bool  `json:"is_paid"`
	IsPartial        bool  `json:"is_partial"`
	IsOverdue        bool  `json:"is_overdue"`
	IsCancelled      bool  `json:"is_cancelled"`
}

// DerivedOf computes the derived values for display. today must be a
// date-only value in UTC; the due date comparison ignores time of day.
func DerivedOf(inv *Invoice, today time.Time) Derived {
	outstanding := inv.TotalCents - inv.AmountPaidCents
	if outstanding < 0 {
		outstanding = 0
	}

	isPaid := outstanding <= 0
	isPartial := inv.AmountPaidCents > 0 && outstanding > 0

	isOverdue := false
	if inv.SentAt != nil && !isPaid && inv.DueDate != nil {
		due := dateOnly(*inv.DueDate)
		isOverdue = due.Before(dateOnly(today))
	}

	return Derived{
		State:            StateOf(inv),
		OutstandingCents: outstanding,
		IsPaid:           isPaid,
		IsPartial:        isPartial,
		IsOverdue:        isOverdue,
		IsCancelled:      inv.CancelledAt != nil,
	}
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
