package domain_test

import (
	"testing"
	"time"

	domain "github.com/smallbiznis/faktura/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
)

func ts(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func day(s string) time.Time { return *ts(s) }

func TestStateReviewWinsOverEverything(t *testing.T) {
	inv := &domain.Invoice{
		NeedsReview:     true,
		SentAt:          ts("2024-01-01"),
		PaidAt:          ts("2024-02-01"),
		AmountPaidCents: 10000,
		TotalCents:      10000,
	}
	assert.Equal(t, domain.StateReview, domain.StateOf(inv))
}

func TestStateUnsentIsDraft(t *testing.T) {
	inv := &domain.Invoice{TotalCents: 5000}
	assert.Equal(t, domain.StateDraft, domain.StateOf(inv))

	// Even with payments recorded, no sentAt means draft.
	inv.AmountPaidCents = 100
	assert.Equal(t, domain.StateDraft, domain.StateOf(inv))
}

func TestStatePaidBeatsPartial(t *testing.T) {
	inv := &domain.Invoice{
		SentAt:          ts("2024-01-01"),
		PaidAt:          ts("2024-02-01"),
		AmountPaidCents: 4000,
		TotalCents:      10000,
	}
	assert.Equal(t, domain.StatePaid, domain.StateOf(inv))
}

func TestStateSentAndPartial(t *testing.T) {
	inv := &domain.Invoice{SentAt: ts("2024-01-01"), TotalCents: 10000}
	assert.Equal(t, domain.StateSent, domain.StateOf(inv))

	inv.AmountPaidCents = 4000
	assert.Equal(t, domain.StatePartial, domain.StateOf(inv))
}

func TestDerivedOutstandingNeverNegative(t *testing.T) {
	inv := &domain.Invoice{
		SentAt:          ts("2024-01-01"),
		TotalCents:      10000,
		AmountPaidCents: 15000,
	}
	d := domain.DerivedOf(inv, day("2024-03-01"))
	assert.Equal(t, int64(0), d.OutstandingCents)
	assert.True(t, d.IsPaid)
	assert.False(t, d.IsPartial)
}

func TestDerivedScenarioSent(t *testing.T) {
	inv := &domain.Invoice{
		SentAt:     ts("2024-01-01"),
		TotalCents: 10000,
	}
	d := domain.DerivedOf(inv, day("2024-01-15"))
	assert.Equal(t, domain.StateSent, d.State)
	assert.Equal(t, int64(10000), d.OutstandingCents)
	assert.False(t, d.IsPaid)
}

func TestOverdueRequiresSent(t *testing.T) {
	inv := &domain.Invoice{
		TotalCents: 10000,
		DueDate:    ts("2020-01-01"),
	}
	d := domain.DerivedOf(inv, day("2024-01-01"))
	assert.False(t, d.IsOverdue, "unsent invoices are never overdue")

	inv.SentAt = ts("2019-12-01")
	d = domain.DerivedOf(inv, day("2024-01-01"))
	assert.True(t, d.IsOverdue)
}

func TestOverdueIsDateOnly(t *testing.T) {
	due := time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC)
	inv := &domain.Invoice{
		SentAt:     ts("2024-03-01"),
		TotalCents: 10000,
		DueDate:    &due,
	}

	// Same day: not overdue regardless of time of day.
	d := domain.DerivedOf(inv, day("2024-03-10"))
	assert.False(t, d.IsOverdue)

	d = domain.DerivedOf(inv, day("2024-03-11"))
	assert.True(t, d.IsOverdue)
}

func TestOverdueClearedWhenPaid(t *testing.T) {
	inv := &domain.Invoice{
		SentAt:          ts("2024-01-01"),
		DueDate:         ts("2024-01-10"),
		TotalCents:      10000,
		AmountPaidCents: 10000,
	}
	d := domain.DerivedOf(inv, day("2024-06-01"))
	assert.False(t, d.IsOverdue)
}

func TestCancelledIsABadgeNotAState(t *testing.T) {
	inv := &domain.Invoice{
		SentAt:      ts("2024-01-01"),
		TotalCents:  10000,
		CancelledAt: ts("2024-02-01"),
	}
	d := domain.DerivedOf(inv, day("2024-03-01"))
	assert.Equal(t, domain.StateSent, d.State)
	assert.True(t, d.IsCancelled)
}
