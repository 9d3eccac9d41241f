package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/faktura/internal/audit/domain"
	"github.com/smallbiznis/faktura/internal/clock"
	invoicedomain "github.com/smallbiznis/faktura/internal/invoice/domain"
	"github.com/smallbiznis/faktura/internal/invoice/render"
	"github.com/smallbiznis/faktura/internal/orgcontext"
	"github.com/smallbiznis/faktura/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     invoicedomain.Repository
	Renderer render.Renderer
	AuditSvc auditdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     invoicedomain.Repository
	renderer render.Renderer
	auditSvc auditdomain.Service
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("invoice.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		renderer: p.Renderer,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.InvoiceView, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return invoicedomain.InvoiceView{}, err
	}

	now := s.clock.Now()
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "EUR"
	}

	inv := invoicedomain.Invoice{
		ID:            s.genID.Generate(),
		OrgID:         orgID,
		ContactID:     req.ContactID,
		ProjectID:     req.ProjectID,
		InvoiceNumber: strings.TrimSpace(req.InvoiceNumber),
		Type:          invoicedomain.TypeStandard,
		Source:        invoicedomain.SourceCreated,
		IssueDate:     req.IssueDate,
		DueDate:       req.DueDate,
		TotalCents:    req.TotalCents,
		Currency:      currency,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Insert(ctx, s.db, &inv); err != nil {
		return invoicedomain.InvoiceView{}, err
	}

	s.audit(ctx, orgID, "invoice.create", inv.ID, nil)
	return s.view(&inv), nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	filter := invoicedomain.ListInvoiceFilter{
		State:        req.State,
		ContactID:    req.ContactID,
		ProjectID:    req.ProjectID,
		IncludeTrash: req.IncludeTrash,
		CreatedFrom:  req.CreatedFrom,
		CreatedTo:    req.CreatedTo,
	}

	items, err := s.repo.List(ctx, s.db, orgID, filter, req.Pagination)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	limit := req.PageSize
	if limit <= 0 {
		limit = 25
	}
	items, pageInfo := paginateInvoices(items, limit)

	views := make([]invoicedomain.InvoiceView, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		views = append(views, s.view(item))
	}

	return invoicedomain.ListInvoiceResponse{PageInfo: pageInfo, Invoices: views}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (invoicedomain.InvoiceView, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return invoicedomain.InvoiceView{}, err
	}

	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.InvoiceView{}, err
	}

	inv, err := s.repo.FindByID(ctx, s.db, orgID, invoiceID)
	if err != nil {
		return invoicedomain.InvoiceView{}, err
	}
	if inv == nil {
		return invoicedomain.InvoiceView{}, invoicedomain.ErrNotFound
	}

	return s.view(inv), nil
}

// UpdateDraft applies a full edit. The total is immutable once sent, so any
// state past DRAFT/REVIEW rejects the edit.
func (s *Service) UpdateDraft(ctx context.Context, req invoicedomain.UpdateDraftRequest) (invoicedomain.InvoiceView, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return invoicedomain.InvoiceView{}, err
	}

	invoiceID, err := parseID(req.ID)
	if err != nil {
		return invoicedomain.InvoiceView{}, err
	}

	var updated *invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.repo.FindByIDForUpdate(ctx, tx, orgID, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return invoicedomain.ErrNotFound
		}

		state := invoicedomain.StateOf(inv)
		if state != invoicedomain.StateDraft && state != invoicedomain.StateReview {
			return &invoicedomain.GuardViolation{
				Action: "edit",
				State:  state,
				Reason: invoicedomain.ReasonAlreadySent,
			}
		}

		if req.ContactID != nil {
			inv.ContactID = req.ContactID
		}
		if req.ProjectID != nil {
			inv.ProjectID = req.ProjectID
		}
		if req.InvoiceNumber != nil {
			inv.InvoiceNumber = strings.TrimSpace(*req.InvoiceNumber)
		}
		if req.IssueDate != nil {
			inv.IssueDate = req.IssueDate
		}
		if req.DueDate != nil {
			inv.DueDate = req.DueDate
		}
		if req.TotalCents != nil {
			if *req.TotalCents < 0 {
				return invoicedomain.ErrInvalidAmount
			}
			inv.TotalCents = *req.TotalCents
		}
		inv.UpdatedAt = s.clock.Now()

		if err := s.repo.SaveFacts(ctx, tx, inv); err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		return invoicedomain.InvoiceView{}, err
	}

	s.audit(ctx, orgID, "invoice.update_draft", updated.ID, nil)
	return s.view(updated), nil
}

// ApplyAction runs one lifecycle action under a row lock. The guard is
// evaluated against freshly loaded facts inside the transaction, so a blocked
// transition aborts before any write.
func (s *Service) ApplyAction(ctx context.Context, req invoicedomain.ApplyActionRequest) (invoicedomain.InvoiceView, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return invoicedomain.InvoiceView{}, err
	}

	invoiceID, err := parseID(req.ID)
	if err != nil {
		return invoicedomain.InvoiceView{}, err
	}

	params := req.Params
	if params.Now.IsZero() {
		params.Now = s.clock.Now()
	}

	var applied *invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.repo.FindByIDForUpdate(ctx, tx, orgID, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return invoicedomain.ErrNotFound
		}

		result, err := invoicedomain.Apply(inv, req.Action, params)
		if err != nil {
			return err
		}
		next := result.Invoice
		next.UpdatedAt = params.Now

		switch result.Effect {
		case invoicedomain.EffectAppendPayment:
			payment := invoicedomain.Payment{
				ID:          s.genID.Generate(),
				OrgID:       orgID,
				InvoiceID:   inv.ID,
				AmountCents: params.AmountCents,
				PaidAt:      *params.PaymentDate,
				CreatedAt:   params.Now,
			}
			if err := s.repo.AppendPayment(ctx, tx, &payment); err != nil {
				return err
			}

		case invoicedomain.EffectCreateCancellationInvoice:
			cancellation := s.buildCancellationInvoice(&next, params.Now)
			if err := s.repo.Insert(ctx, tx, cancellation); err != nil {
				return err
			}

		case invoicedomain.EffectHardDelete:
			if err := s.repo.HardDelete(ctx, tx, orgID, inv.ID); err != nil {
				return err
			}
			applied = &next
			return nil
		}

		if err := s.repo.SaveFacts(ctx, tx, &next); err != nil {
			return err
		}
		applied = &next
		return nil
	})
	if err != nil {
		return invoicedomain.InvoiceView{}, err
	}

	s.audit(ctx, orgID, "invoice."+string(req.Action), applied.ID, map[string]any{
		"state": string(invoicedomain.StateOf(applied)),
	})
	return s.view(applied), nil
}

func (s *Service) ListPayments(ctx context.Context, invoiceID string) ([]invoicedomain.Payment, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	id, err := parseID(invoiceID)
	if err != nil {
		return nil, err
	}

	return s.repo.ListPayments(ctx, s.db, orgID, id)
}

func (s *Service) RenderPDF(ctx context.Context, id string) ([]byte, error) {
	view, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	payments, err := s.ListPayments(ctx, id)
	if err != nil {
		return nil, err
	}

	data := render.InvoiceData{
		InvoiceNumber: view.InvoiceNumber,
		State:         string(view.Derived.State),
		Total:         money.FormatCents(view.TotalCents, view.Currency, "de-DE"),
		AmountPaid:    money.FormatCents(view.AmountPaidCents, view.Currency, "de-DE"),
		Outstanding:   money.FormatCents(view.Derived.OutstandingCents, view.Currency, "de-DE"),
	}
	if view.IssueDate != nil {
		data.IssueDate = view.IssueDate.Format("2006-01-02")
	}
	if view.DueDate != nil {
		data.DueDate = view.DueDate.Format("2006-01-02")
	}
	for _, p := range payments {
		data.Payments = append(data.Payments, render.PaymentLine{
			Date:   p.PaidAt.Format("2006-01-02"),
			Amount: money.FormatCents(p.AmountCents, view.Currency, "de-DE"),
		})
	}

	return s.renderer.RenderInvoice(ctx, data)
}

// buildCancellationInvoice negates the original's total. The new invoice
// starts as a draft and back-references the invoice it cancels.
func (s *Service) buildCancellationInvoice(orig *invoicedomain.Invoice, now time.Time) *invoicedomain.Invoice {
	origID := orig.ID
	issue := now
	return &invoicedomain.Invoice{
		ID:               s.genID.Generate(),
		OrgID:            orig.OrgID,
		ContactID:        orig.ContactID,
		ProjectID:        orig.ProjectID,
		InvoiceNumber:    cancellationNumber(orig.InvoiceNumber),
		Type:             invoicedomain.TypeCancellation,
		Source:           invoicedomain.SourceCreated,
		CancelsInvoiceID: &origID,
		IssueDate:        &issue,
		TotalCents:       money.Negate(orig.TotalCents),
		Currency:         orig.Currency,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func cancellationNumber(original string) string {
	original = strings.TrimSpace(original)
	if original == "" {
		return "CANCELLATION"
	}
	return original + "-C"
}

func (s *Service) view(inv *invoicedomain.Invoice) invoicedomain.InvoiceView {
	return invoicedomain.InvoiceView{
		Invoice:        *inv,
		Derived:        invoicedomain.DerivedOf(inv, clock.Today(s.clock)),
		AllowedActions: invoicedomain.AllowedActions(inv),
	}
}

func (s *Service) audit(ctx context.Context, orgID snowflake.ID, action string, targetID snowflake.ID, metadata map[string]any) {
	target := targetID.String()
	if err := s.auditSvc.AuditLog(ctx, &orgID, "user", nil, action, "invoice", &target, metadata); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func (s *Service) orgIDFromContext(ctx context.Context) (snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, invoicedomain.ErrInvalidOrganization
	}
	return orgID, nil
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, invoicedomain.ErrInvalidID
	}
	return id, nil
}
