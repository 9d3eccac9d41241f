package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/faktura/internal/audit/domain"
	"github.com/smallbiznis/faktura/internal/clock"
	invoicedomain "github.com/smallbiznis/faktura/internal/invoice/domain"
	"github.com/smallbiznis/faktura/internal/invoice/render"
	"github.com/smallbiznis/faktura/internal/invoice/repository"
	"github.com/smallbiznis/faktura/internal/orgcontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type auditStub struct{}

func (auditStub) AuditLog(ctx context.Context, orgID *snowflake.ID, actorType string, actorID *string, action, targetType string, targetID *string, metadata map[string]any) error {
	return nil
}

func (auditStub) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	return auditdomain.ListAuditLogResponse{}, nil
}

type stubRenderer struct{}

func (stubRenderer) RenderInvoice(ctx context.Context, data render.InvoiceData) ([]byte, error) {
	return []byte("%PDF-1.4 stub"), nil
}

type fixture struct {
	svc   invoicedomain.Service
	db    *gorm.DB
	clock *clock.FakeClock
	node  *snowflake.Node
	ctx   context.Context
	orgID snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&invoicedomain.Invoice{}, &invoicedomain.Payment{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	orgID := node.Generate()

	svc := NewService(ServiceParam{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fake,
		Repo:     repository.Provide(),
		Renderer: stubRenderer{},
		AuditSvc: auditStub{},
	})

	return &fixture{
		svc:   svc,
		db:    db,
		clock: fake,
		node:  node,
		ctx:   orgcontext.WithOrgID(context.Background(), orgID),
		orgID: orgID,
	}
}

func (f *fixture) createDraft(t *testing.T, totalCents int64, withDueDate bool) invoicedomain.InvoiceView {
	t.Helper()
	req := invoicedomain.CreateInvoiceRequest{
		InvoiceNumber: "2025-001",
		TotalCents:    totalCents,
	}
	issue := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	req.IssueDate = &issue
	if withDueDate {
		due := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
		req.DueDate = &due
	}
	view, err := f.svc.Create(f.ctx, req)
	require.NoError(t, err)
	return view
}

func (f *fixture) apply(t *testing.T, id snowflake.ID, action invoicedomain.Action, params invoicedomain.ActionParams) (invoicedomain.InvoiceView, error) {
	t.Helper()
	return f.svc.ApplyAction(f.ctx, invoicedomain.ApplyActionRequest{
		ID:     id.String(),
		Action: action,
		Params: params,
	})
}

func paymentDate(day int) *time.Time {
	d := time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestCreateInvoiceStartsAsDraft(t *testing.T) {
	f := newFixture(t)

	view := f.createDraft(t, 10000, true)

	assert.Equal(t, invoicedomain.StateDraft, view.Derived.State)
	assert.Equal(t, invoicedomain.TypeStandard, view.Type)
	assert.Equal(t, "EUR", view.Currency)
	assert.Contains(t, view.AllowedActions, invoicedomain.ActionSend)
	assert.NotContains(t, view.AllowedActions, invoicedomain.ActionAddPayment)
}

func TestSendRequiresDueDateAndPositiveTotal(t *testing.T) {
	f := newFixture(t)

	noDue := f.createDraft(t, 10000, false)
	_, err := f.apply(t, noDue.ID, invoicedomain.ActionSend, invoicedomain.ActionParams{})
	gv := invoicedomain.AsGuardViolation(err)
	require.NotNil(t, gv)
	assert.Equal(t, invoicedomain.ReasonDueDateRequired, gv.Reason)

	zeroTotal := f.createDraft(t, 0, true)
	_, err = f.apply(t, zeroTotal.ID, invoicedomain.ActionSend, invoicedomain.ActionParams{})
	gv = invoicedomain.AsGuardViolation(err)
	require.NotNil(t, gv)
	assert.Equal(t, invoicedomain.ReasonTotalNotPositive, gv.Reason)

	// Nothing was persisted by the rejected attempts.
	got, err := f.svc.GetByID(f.ctx, noDue.ID.String())
	require.NoError(t, err)
	assert.Nil(t, got.SentAt)
}

func TestPaymentLifecycle(t *testing.T) {
	f := newFixture(t)

	draft := f.createDraft(t, 10000, true)
	sent, err := f.apply(t, draft.ID, invoicedomain.ActionSend, invoicedomain.ActionParams{})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StateSent, sent.Derived.State)

	partial, err := f.apply(t, draft.ID, invoicedomain.ActionAddPayment, invoicedomain.ActionParams{
		AmountCents: 4000,
		PaymentDate: paymentDate(12),
	})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatePartial, partial.Derived.State)
	assert.Equal(t, int64(4000), partial.AmountPaidCents)
	assert.Equal(t, int64(6000), partial.Derived.OutstandingCents)

	// A payment covering the full remainder does not flip the state by
	// itself; the explicit mark-as-paid does.
	covered, err := f.apply(t, draft.ID, invoicedomain.ActionAddPayment, invoicedomain.ActionParams{
		AmountCents: 6000,
		PaymentDate: paymentDate(20),
	})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatePartial, covered.Derived.State)
	assert.Equal(t, int64(10000), covered.AmountPaidCents)

	paid, err := f.apply(t, draft.ID, invoicedomain.ActionMarkAsPaid, invoicedomain.ActionParams{
		PaymentDate: paymentDate(20),
	})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatePaid, paid.Derived.State)

	payments, err := f.svc.ListPayments(f.ctx, draft.ID.String())
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, int64(4000), payments[0].AmountCents)
	assert.Equal(t, int64(6000), payments[1].AmountCents)
}

func TestOverpaymentIsRejected(t *testing.T) {
	f := newFixture(t)

	draft := f.createDraft(t, 5000, true)
	_, err := f.apply(t, draft.ID, invoicedomain.ActionSend, invoicedomain.ActionParams{})
	require.NoError(t, err)

	_, err = f.apply(t, draft.ID, invoicedomain.ActionAddPayment, invoicedomain.ActionParams{
		AmountCents: 5001,
		PaymentDate: paymentDate(12),
	})
	gv := invoicedomain.AsGuardViolation(err)
	require.NotNil(t, gv)
	assert.Equal(t, invoicedomain.ReasonAmountExceeds, gv.Reason)

	got, err := f.svc.GetByID(f.ctx, draft.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.AmountPaidCents)

	payments, err := f.svc.ListPayments(f.ctx, draft.ID.String())
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestMarkAsNotPaidPreservesPaymentHistory(t *testing.T) {
	f := newFixture(t)

	draft := f.createDraft(t, 10000, true)
	_, err := f.apply(t, draft.ID, invoicedomain.ActionSend, invoicedomain.ActionParams{})
	require.NoError(t, err)
	_, err = f.apply(t, draft.ID, invoicedomain.ActionAddPayment, invoicedomain.ActionParams{
		AmountCents: 4000,
		PaymentDate: paymentDate(12),
	})
	require.NoError(t, err)
	_, err = f.apply(t, draft.ID, invoicedomain.ActionMarkAsPaid, invoicedomain.ActionParams{
		PaymentDate: paymentDate(15),
	})
	require.NoError(t, err)

	// Reverting to draft would orphan the recorded payment, so it is blocked.
	_, err = f.apply(t, draft.ID, invoicedomain.ActionMarkAsNotPaid, invoicedomain.ActionParams{
		RevertTo: invoicedomain.StateDraft,
	})
	gv := invoicedomain.AsGuardViolation(err)
	require.NotNil(t, gv)
	assert.Equal(t, invoicedomain.ReasonHasPayments, gv.Reason)

	reverted, err := f.apply(t, draft.ID, invoicedomain.ActionMarkAsNotPaid, invoicedomain.ActionParams{})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatePartial, reverted.Derived.State)
	assert.Equal(t, int64(4000), reverted.AmountPaidCents)

	payments, err := f.svc.ListPayments(f.ctx, draft.ID.String())
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestCancelSentInvoiceCreatesCancellationInvoice(t *testing.T) {
	f := newFixture(t)

	draft := f.createDraft(t, 10000, true)
	_, err := f.apply(t, draft.ID, invoicedomain.ActionSend, invoicedomain.ActionParams{})
	require.NoError(t, err)

	cancelled, err := f.apply(t, draft.ID, invoicedomain.ActionCancel, invoicedomain.ActionParams{})
	require.NoError(t, err)
	assert.NotNil(t, cancelled.CancelledAt)

	resp, err := f.svc.List(f.ctx, invoicedomain.ListInvoiceRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Invoices, 2)

	var counterpart *invoicedomain.InvoiceView
	for i := range resp.Invoices {
		if resp.Invoices[i].Type == invoicedomain.TypeCancellation {
			counterpart = &resp.Invoices[i]
		}
	}
	require.NotNil(t, counterpart)
	assert.Equal(t, int64(-10000), counterpart.TotalCents)
	require.NotNil(t, counterpart.CancelsInvoiceID)
	assert.Equal(t, draft.ID, *counterpart.CancelsInvoiceID)
	assert.Equal(t, "2025-001-C", counterpart.InvoiceNumber)
}

func TestCancelDraftDoesNotCreateCounterpart(t *testing.T) {
	f := newFixture(t)

	draft := f.createDraft(t, 10000, true)
	cancelled, err := f.apply(t, draft.ID, invoicedomain.ActionCancel, invoicedomain.ActionParams{})
	require.NoError(t, err)
	assert.NotNil(t, cancelled.CancelledAt)

	resp, err := f.svc.List(f.ctx, invoicedomain.ListInvoiceRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Invoices, 1)
}

func TestUpdateDraftBlockedAfterSend(t *testing.T) {
	f := newFixture(t)

	draft := f.createDraft(t, 10000, true)
	_, err := f.apply(t, draft.ID, invoicedomain.ActionSend, invoicedomain.ActionParams{})
	require.NoError(t, err)

	number := "2025-002"
	_, err = f.svc.UpdateDraft(f.ctx, invoicedomain.UpdateDraftRequest{
		ID:            draft.ID.String(),
		InvoiceNumber: &number,
	})
	gv := invoicedomain.AsGuardViolation(err)
	require.NotNil(t, gv)
	assert.Equal(t, invoicedomain.ReasonAlreadySent, gv.Reason)
}

func TestMoveToTrashHidesFromDefaultList(t *testing.T) {
	f := newFixture(t)

	draft := f.createDraft(t, 10000, true)
	trashed, err := f.apply(t, draft.ID, invoicedomain.ActionMoveToTrash, invoicedomain.ActionParams{})
	require.NoError(t, err)
	assert.NotNil(t, trashed.TrashedAt)

	resp, err := f.svc.List(f.ctx, invoicedomain.ListInvoiceRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Invoices)

	resp, err = f.svc.List(f.ctx, invoicedomain.ListInvoiceRequest{IncludeTrash: true})
	require.NoError(t, err)
	assert.Len(t, resp.Invoices, 1)
}

func TestConfirmAndSaveLeavesReview(t *testing.T) {
	f := newFixture(t)

	review := invoicedomain.Invoice{
		ID:          f.node.Generate(),
		OrgID:       f.orgID,
		Type:        invoicedomain.TypeStandard,
		Source:      invoicedomain.SourceUploaded,
		NeedsReview: true,
		TotalCents:  12345,
		Currency:    "EUR",
		CreatedAt:   f.clock.Now(),
		UpdatedAt:   f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&review).Error)

	// Confirmation without an issue date is rejected; extraction output
	// alone never becomes a draft.
	_, err := f.apply(t, review.ID, invoicedomain.ActionConfirmAndSave, invoicedomain.ActionParams{
		Confirmed: &invoicedomain.ConfirmedFields{
			InvoiceNumber: "UP-77",
			TotalCents:    9900,
		},
	})
	gv := invoicedomain.AsGuardViolation(err)
	require.NotNil(t, gv)
	assert.Equal(t, invoicedomain.ReasonIssueDateRequired, gv.Reason)

	issue := time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC)
	confirmed, err := f.apply(t, review.ID, invoicedomain.ActionConfirmAndSave, invoicedomain.ActionParams{
		Confirmed: &invoicedomain.ConfirmedFields{
			InvoiceNumber: "UP-77",
			IssueDate:     &issue,
			TotalCents:    9900,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StateDraft, confirmed.Derived.State)
	assert.Equal(t, "UP-77", confirmed.InvoiceNumber)
	assert.Equal(t, int64(9900), confirmed.TotalCents)

	// delete_upload is a review-only action.
	_, err = f.apply(t, review.ID, invoicedomain.ActionDeleteUpload, invoicedomain.ActionParams{})
	gv = invoicedomain.AsGuardViolation(err)
	require.NotNil(t, gv)
}

func TestDeleteUploadRemovesReviewInvoice(t *testing.T) {
	f := newFixture(t)

	review := invoicedomain.Invoice{
		ID:          f.node.Generate(),
		OrgID:       f.orgID,
		Type:        invoicedomain.TypeStandard,
		Source:      invoicedomain.SourceUploaded,
		NeedsReview: true,
		Currency:    "EUR",
		CreatedAt:   f.clock.Now(),
		UpdatedAt:   f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&review).Error)

	_, err := f.apply(t, review.ID, invoicedomain.ActionDeleteUpload, invoicedomain.ActionParams{})
	require.NoError(t, err)

	_, err = f.svc.GetByID(f.ctx, review.ID.String())
	assert.ErrorIs(t, err, invoicedomain.ErrNotFound)
}

func TestListFiltersByDerivedState(t *testing.T) {
	f := newFixture(t)

	draft := f.createDraft(t, 10000, true)
	sentInv := f.createDraft(t, 5000, true)
	_, err := f.apply(t, sentInv.ID, invoicedomain.ActionSend, invoicedomain.ActionParams{})
	require.NoError(t, err)

	state := invoicedomain.StateDraft
	resp, err := f.svc.List(f.ctx, invoicedomain.ListInvoiceRequest{State: &state})
	require.NoError(t, err)
	require.Len(t, resp.Invoices, 1)
	assert.Equal(t, draft.ID, resp.Invoices[0].ID)

	state = invoicedomain.StateSent
	resp, err = f.svc.List(f.ctx, invoicedomain.ListInvoiceRequest{State: &state})
	require.NoError(t, err)
	require.Len(t, resp.Invoices, 1)
	assert.Equal(t, sentInv.ID, resp.Invoices[0].ID)
}

func TestListFiltersByCreatedRange(t *testing.T) {
	f := newFixture(t)

	recent := f.createDraft(t, 10000, true)

	old := invoicedomain.Invoice{
		ID:         f.node.Generate(),
		OrgID:      f.orgID,
		Type:       invoicedomain.TypeStandard,
		Source:     invoicedomain.SourceCreated,
		TotalCents: 5000,
		Currency:   "EUR",
		CreatedAt:  time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.db.Create(&old).Error)

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	resp, err := f.svc.List(f.ctx, invoicedomain.ListInvoiceRequest{CreatedFrom: &from})
	require.NoError(t, err)
	require.Len(t, resp.Invoices, 1)
	assert.Equal(t, recent.ID, resp.Invoices[0].ID)

	to := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	resp, err = f.svc.List(f.ctx, invoicedomain.ListInvoiceRequest{CreatedTo: &to})
	require.NoError(t, err)
	require.Len(t, resp.Invoices, 1)
	assert.Equal(t, old.ID, resp.Invoices[0].ID)
}

func TestOrgScopeIsEnforced(t *testing.T) {
	f := newFixture(t)

	draft := f.createDraft(t, 10000, true)

	otherOrg := orgcontext.WithOrgID(context.Background(), f.node.Generate())
	_, err := f.svc.GetByID(otherOrg, draft.ID.String())
	assert.ErrorIs(t, err, invoicedomain.ErrNotFound)
}
