package domain_test

import (
	"testing"
	"time"

	domain "github.com/smallbiznis/faktura/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func sentInvoice(total, paid int64) *domain.Invoice {
	return &domain.Invoice{
		SentAt:          ts("2024-01-01"),
		DueDate:         ts("2024-02-01"),
		TotalCents:      total,
		AmountPaidCents: paid,
	}
}

func TestSendRequiresDueDateAndTotal(t *testing.T) {
	inv := &domain.Invoice{TotalCents: 10000}
	_, err := domain.Apply(inv, domain.ActionSend, domain.ActionParams{Now: now})
	gv := domain.AsGuardViolation(err)
	require.NotNil(t, gv)
	assert.Equal(t, domain.ReasonDueDateRequired, gv.Reason)

	inv.DueDate = ts("2024-07-01")
	inv.TotalCents = 0
	_, err = domain.Apply(inv, domain.ActionSend, domain.ActionParams{Now: now})
	gv = domain.AsGuardViolation(err)
	require.NotNil(t, gv)
	assert.Equal(t, domain.ReasonTotalNotPositive, gv.Reason)

	inv.TotalCents = 10000
	res, err := domain.Apply(inv, domain.ActionSend, domain.ActionParams{Now: now})
	require.NoError(t, err)
	require.NotNil(t, res.Invoice.SentAt)
	assert.Equal(t, domain.StateSent, domain.StateOf(&res.Invoice))

	// The input facts were not touched.
	assert.Nil(t, inv.SentAt)
}

func TestSendBlockedWhenCancelled(t *testing.T) {
	inv := &domain.Invoice{TotalCents: 10000, DueDate: ts("2024-07-01"), CancelledAt: ts("2024-05-01")}
	_, err := domain.Apply(inv, domain.ActionSend, domain.ActionParams{Now: now})
	gv := domain.AsGuardViolation(err)
	require.NotNil(t, gv)
	assert.Equal(t, domain.ReasonCancelled, gv.Reason)
}

func TestAddPaymentTransitionsToPartial(t *testing.T) {
	inv := sentInvoice(10000, 0)
	res, err := domain.Apply(inv, domain.ActionAddPayment, domain.ActionParams{
		Now: now, AmountCents: 4000, PaymentDate: ts("2024-06-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.EffectAppendPayment, res.Effect)
	assert.Equal(t, int64(4000), res.Invoice.AmountPaidCents)
	assert.Equal(t, domain.StatePartial, domain.StateOf(&res.Invoice))

	d := domain.DerivedOf(&res.Invoice, now)
	assert.Equal(t, int64(6000), d.OutstandingCents)
}

func TestAddPaymentCannotExceedOutstanding(t *testing.T) {
	inv := sentInvoice(10000, 4000)
	_, err := domain.Apply(inv, domain.ActionAddPayment, domain.ActionParams{
		Now: now, AmountCents: 6001, PaymentDate: ts("2024-06-01"),
	})
	gv := domain.AsGuardViolation(err)
	require.NotNil(t, gv)
	assert.Equal(t, domain.ReasonAmountExceeds, gv.Reason)
	assert.Equal(t, int64(4000), inv.AmountPaidCents, "facts unchanged after rejection")

	_, err = domain.Apply(inv, domain.ActionAddPayment, domain.ActionParams{
		Now: now, AmountCents: 0, PaymentDate: ts("2024-06-01"),
	})
	require.NotNil(t, domain.AsGuardViolation(err))
}

func TestRevertToDraftBlockedByPayments(t *testing.T) {
	inv := sentInvoice(10000, 4000)
	_, err := domain.Apply(inv, domain.ActionRevertToDraft, domain.ActionParams{Now: now})
	gv := domain.AsGuardViolation(err)
	require.NotNil(t, gv)
	assert.Equal(t, domain.ReasonHasPayments, gv.Reason)

	// Without payments the revert clears sentAt.
	clean := sentInvoice(10000, 0)
	res, err := domain.Apply(clean, domain.ActionRevertToDraft, domain.ActionParams{Now: now})
	require.NoError(t, err)
	assert.Nil(t, res.Invoice.SentAt)
	assert.Equal(t, domain.StateDraft, domain.StateOf(&res.Invoice))
}

func TestMarkAsNotPaidToDraftBlockedByPayments(t *testing.T) {
	inv := sentInvoice(10000, 10000)
	inv.PaidAt = ts("2024-03-01")

	_, err := domain.Apply(inv, domain.ActionMarkAsNotPaid, domain.ActionParams{
		Now: now, RevertTo: domain.StateDraft,
	})
	gv := domain.AsGuardViolation(err)
	require.NotNil(t, gv)
	assert.Equal(t, domain.ReasonHasPayments, gv.Reason)
}

func TestRevertFullyPaidToSentYieldsPartial(t *testing.T) {
	// Clearing paidAt keeps the payment history, and amountPaid > 0 derives
	// PARTIAL. The derivation function is the single source of truth.
	inv := sentInvoice(10000, 10000)
	inv.PaidAt = ts("2024-03-01")

	res, err := domain.Apply(inv, domain.ActionRevertToSent, domain.ActionParams{Now: now})
	require.NoError(t, err)
	assert.Nil(t, res.Invoice.PaidAt)
	assert.Equal(t, int64(10000), res.Invoice.AmountPaidCents, "payments preserved")
	assert.Equal(t, domain.StatePartial, domain.StateOf(&res.Invoice))
}

func TestMarkAsPaidSetsSentAtWhenNeverSent(t *testing.T) {
	inv := &domain.Invoice{TotalCents: 10000}
	res, err := domain.Apply(inv, domain.ActionMarkAsPaid, domain.ActionParams{
		Now: now, PaymentDate: ts("2024-06-01"),
	})
	require.NoError(t, err)
	require.NotNil(t, res.Invoice.SentAt)
	require.NotNil(t, res.Invoice.PaidAt)
	assert.Equal(t, domain.StatePaid, domain.StateOf(&res.Invoice))
}

func TestMarkAsPaidRequiresPaymentDate(t *testing.T) {
	inv := sentInvoice(10000, 0)
	_, err := domain.Apply(inv, domain.ActionMarkAsPaid, domain.ActionParams{Now: now})
	gv := domain.AsGuardViolation(err)
	require.NotNil(t, gv)
	assert.Equal(t, domain.ReasonPayDateRequired, gv.Reason)
}

func TestMarkAsSentAndPaidOnlyBeforeSending(t *testing.T) {
	inv := sentInvoice(10000, 0)
	_, err := domain.Apply(inv, domain.ActionMarkAsSentAndPaid, domain.ActionParams{
		Now: now, PaymentDate: ts("2024-06-01"),
	})
	require.NotNil(t, domain.AsGuardViolation(err))

	draft := &domain.Invoice{TotalCents: 10000}
	res, err := domain.Apply(draft, domain.ActionMarkAsSentAndPaid, domain.ActionParams{
		Now: now, PaymentDate: ts("2024-06-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatePaid, domain.StateOf(&res.Invoice))
}

func TestConfirmAndSaveGuards(t *testing.T) {
	inv := &domain.Invoice{NeedsReview: true, Source: domain.SourceUploaded}

	_, err := domain.Apply(inv, domain.ActionConfirmAndSave, domain.ActionParams{
		Now: now,
		Confirmed: &domain.ConfirmedFields{
			TotalCents: 0, IssueDate: ts("2024-06-01"),
		},
	})
	require.NotNil(t, domain.AsGuardViolation(err))

	_, err = domain.Apply(inv, domain.ActionConfirmAndSave, domain.ActionParams{
		Now: now,
		Confirmed: &domain.ConfirmedFields{
			TotalCents: 12500,
		},
	})
	gv := domain.AsGuardViolation(err)
	require.NotNil(t, gv)
	assert.Equal(t, domain.ReasonIssueDateRequired, gv.Reason)

	res, err := domain.Apply(inv, domain.ActionConfirmAndSave, domain.ActionParams{
		Now: now,
		Confirmed: &domain.ConfirmedFields{
			TotalCents: 12500, IssueDate: ts("2024-06-01"), InvoiceNumber: "INV-42",
		},
	})
	require.NoError(t, err)
	assert.False(t, res.Invoice.NeedsReview)
	assert.Equal(t, domain.StateDraft, domain.StateOf(&res.Invoice))
	assert.Equal(t, "INV-42", res.Invoice.InvoiceNumber)
}

func TestCancelPathsDependOnSentState(t *testing.T) {
	draft := &domain.Invoice{TotalCents: 10000}
	res, err := domain.Apply(draft, domain.ActionCancel, domain.ActionParams{Now: now})
	require.NoError(t, err)
	assert.Equal(t, domain.EffectNone, res.Effect)
	require.NotNil(t, res.Invoice.CancelledAt)

	sent := sentInvoice(10000, 0)
	res, err = domain.Apply(sent, domain.ActionCancel, domain.ActionParams{Now: now})
	require.NoError(t, err)
	assert.Equal(t, domain.EffectCreateCancellationInvoice, res.Effect)

	// Cancelling twice is blocked.
	_, err = domain.Apply(&res.Invoice, domain.ActionCancel, domain.ActionParams{Now: now})
	gv := domain.AsGuardViolation(err)
	require.NotNil(t, gv)
	assert.Equal(t, domain.ReasonAlreadyCancelled, gv.Reason)
}

func TestCancelSentReviewInvoiceCreatesCounterpart(t *testing.T) {
	// mark-as-sent leaves NeedsReview untouched, so a REVIEW invoice can
	// carry a sentAt. Once sent it must not be voided in place.
	review := &domain.Invoice{NeedsReview: true, Source: domain.SourceUploaded, TotalCents: 10000}
	res, err := domain.Apply(review, domain.ActionMarkAsSent, domain.ActionParams{Now: now})
	require.NoError(t, err)
	require.NotNil(t, res.Invoice.SentAt)
	assert.Equal(t, domain.StateReview, domain.StateOf(&res.Invoice))

	res, err = domain.Apply(&res.Invoice, domain.ActionCancel, domain.ActionParams{Now: now})
	require.NoError(t, err)
	assert.Equal(t, domain.EffectCreateCancellationInvoice, res.Effect)
	require.NotNil(t, res.Invoice.CancelledAt)

	// An unsent REVIEW invoice is still voided without a counterpart.
	unsent := &domain.Invoice{NeedsReview: true, Source: domain.SourceUploaded, TotalCents: 10000}
	res, err = domain.Apply(unsent, domain.ActionCancel, domain.ActionParams{Now: now})
	require.NoError(t, err)
	assert.Equal(t, domain.EffectNone, res.Effect)
}

func TestMarkAsNotCancelled(t *testing.T) {
	inv := &domain.Invoice{TotalCents: 10000, CancelledAt: ts("2024-05-01")}
	res, err := domain.Apply(inv, domain.ActionMarkAsNotCancelled, domain.ActionParams{Now: now})
	require.NoError(t, err)
	assert.Nil(t, res.Invoice.CancelledAt)

	_, err = domain.Apply(&res.Invoice, domain.ActionMarkAsNotCancelled, domain.ActionParams{Now: now})
	require.NotNil(t, domain.AsGuardViolation(err))
}

func TestDeleteUploadOnlyFromReview(t *testing.T) {
	review := &domain.Invoice{NeedsReview: true, Source: domain.SourceUploaded}
	res, err := domain.Apply(review, domain.ActionDeleteUpload, domain.ActionParams{Now: now})
	require.NoError(t, err)
	assert.Equal(t, domain.EffectHardDelete, res.Effect)

	_, err = domain.Apply(sentInvoice(10000, 0), domain.ActionDeleteUpload, domain.ActionParams{Now: now})
	require.NotNil(t, domain.AsGuardViolation(err))
}

func TestAllowedActionsMatchGuards(t *testing.T) {
	partial := sentInvoice(10000, 4000)
	actions := domain.AllowedActions(partial)
	assert.Contains(t, actions, domain.ActionAddPayment)
	assert.Contains(t, actions, domain.ActionRevertToSent)
	assert.NotContains(t, actions, domain.ActionRevertToDraft, "payments exist")

	sent := sentInvoice(10000, 0)
	assert.Contains(t, domain.AllowedActions(sent), domain.ActionRevertToDraft)

	paid := sentInvoice(10000, 10000)
	paid.PaidAt = ts("2024-03-01")
	actions = domain.AllowedActions(paid)
	assert.Contains(t, actions, domain.ActionMarkAsNotPaid)
	assert.NotContains(t, actions, domain.ActionCancel)
}
