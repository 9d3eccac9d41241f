package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	auditdomain "github.com/smallbiznis/faktura/internal/audit/domain"
	"github.com/smallbiznis/faktura/internal/clock"
	"github.com/smallbiznis/faktura/internal/config"
	"github.com/smallbiznis/faktura/internal/extraction"
	invoicedomain "github.com/smallbiznis/faktura/internal/invoice/domain"
	"github.com/smallbiznis/faktura/internal/orgcontext"
	"github.com/smallbiznis/faktura/internal/ratelimit"
	"github.com/smallbiznis/faktura/internal/upload/domain"
	"github.com/smallbiznis/faktura/pkg/db/pagination"
	"github.com/smallbiznis/faktura/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Cfg         config.Config
	Runtime     *config.RuntimeHolder
	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	InvoiceRepo invoicedomain.Repository
	InvoiceSvc  invoicedomain.Service
	Extractor   extraction.Extractor
	Locker      *ratelimit.Locker
	AuditSvc    auditdomain.Service
}

type Service struct {
	cfg         config.Config
	runtime     *config.RuntimeHolder
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	invoiceRepo invoicedomain.Repository
	invoiceSvc  invoicedomain.Service
	extractor   extraction.Extractor
	locker      *ratelimit.Locker
	auditSvc    auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		cfg:         p.Cfg,
		runtime:     p.Runtime,
		db:          p.DB,
		log:         p.Log.Named("upload.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		invoiceRepo: p.InvoiceRepo,
		invoiceSvc:  p.InvoiceSvc,
		extractor:   p.Extractor,
		locker:      p.Locker,
		auditSvc:    p.AuditSvc,
	}
}

// Create stores the document, runs extraction, and opens a review invoice
// with the extracted facts. The invoice always enters review regardless of
// extraction confidence; confirm_and_save is the only way out.
func (s *Service) Create(ctx context.Context, req domain.CreateUploadRequest) (domain.CreateUploadResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.CreateUploadResponse{}, domain.ErrInvalidOrganization
	}

	if len(req.Content) == 0 {
		return domain.CreateUploadResponse{}, domain.ErrEmptyFile
	}

	limits := s.runtime.Get()
	if int64(len(req.Content)) > limits.UploadMaxBytes {
		return domain.CreateUploadResponse{}, domain.ErrFileTooLarge
	}

	contentType := strings.TrimSpace(req.ContentType)
	if !allowedType(contentType, limits.UploadAllowedTypes) {
		return domain.CreateUploadResponse{}, domain.ErrUnsupportedType
	}

	objectKey := ulid.Make().String()
	path, err := s.writeFile(objectKey, req.Content)
	if err != nil {
		return domain.CreateUploadResponse{}, err
	}

	uploadID := s.genID.Generate()
	if s.locker != nil {
		lockKey := fmt.Sprintf("upload:process:%s", uploadID)
		token, acquired, err := s.locker.TryLock(ctx, lockKey, 2*time.Minute)
		if err == nil && !acquired {
			return domain.CreateUploadResponse{}, domain.ErrProcessing
		}
		if err == nil {
			defer func() {
				_ = s.locker.Release(context.WithoutCancel(ctx), lockKey, token)
			}()
		}
	}

	extracted, err := s.extractor.Extract(ctx, req.FileName, contentType, req.Content)
	if err != nil {
		// Extraction failure still yields a review invoice; all fields stay
		// empty and the reviewer fills them in.
		s.log.Warn("extraction failed, opening empty review invoice",
			zap.String("file", req.FileName),
			zap.Error(err),
		)
		extracted = extraction.Result{}
	}

	now := s.clock.Now()
	upload := domain.Upload{
		ID:          uploadID,
		OrgID:       orgID,
		ObjectKey:   objectKey,
		FileName:    strings.TrimSpace(req.FileName),
		ContentType: contentType,
		SizeBytes:   int64(len(req.Content)),
		Metadata:    datatypes.JSONMap{},
		CreatedAt:   now,
	}

	inv := s.buildReviewInvoice(orgID, &upload, extracted, now)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.invoiceRepo.Insert(ctx, tx, inv); err != nil {
			return err
		}
		upload.InvoiceID = &inv.ID
		return s.repo.Insert(ctx, tx, &upload)
	})
	if err != nil {
		if removeErr := os.Remove(path); removeErr != nil {
			s.log.Warn("failed to remove orphaned upload file", zap.String("path", path), zap.Error(removeErr))
		}
		return domain.CreateUploadResponse{}, err
	}

	s.audit(ctx, orgID, "upload.create", upload.ID, map[string]any{
		"invoice_id": inv.ID.String(),
		"file_name":  upload.FileName,
	})

	view, err := s.invoiceSvc.GetByID(ctx, inv.ID.String())
	if err != nil {
		return domain.CreateUploadResponse{}, err
	}

	return domain.CreateUploadResponse{
		Upload:  upload,
		Invoice: view,
	}, nil
}

// buildReviewInvoice maps extracted fields onto invoice facts. Values that do
// not parse are left empty; the raw extraction output is preserved in the
// invoice metadata for the review screen.
func (s *Service) buildReviewInvoice(orgID snowflake.ID, upload *domain.Upload, extracted extraction.Result, now time.Time) *invoicedomain.Invoice {
	uploadID := upload.ID
	inv := &invoicedomain.Invoice{
		ID:            s.genID.Generate(),
		OrgID:         orgID,
		Type:          invoicedomain.TypeStandard,
		Source:        invoicedomain.SourceUploaded,
		NeedsReview:   true,
		InvoiceNumber: strings.TrimSpace(extracted.InvoiceNumber.Value),
		Currency:      "EUR",
		UploadID:      &uploadID,
		Metadata: datatypes.JSONMap{
			"extraction": map[string]any{
				"client_name":    fieldMap(extracted.ClientName),
				"invoice_number": fieldMap(extracted.InvoiceNumber),
				"invoice_date":   fieldMap(extracted.InvoiceDate),
				"total_amount":   fieldMap(extracted.TotalAmount),
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if raw := strings.TrimSpace(extracted.TotalAmount.Value); raw != "" {
		if cents, err := money.ParseCents(raw); err == nil {
			inv.TotalCents = cents
		}
	}
	if raw := strings.TrimSpace(extracted.InvoiceDate.Value); raw != "" {
		if parsed, err := parseDate(raw); err == nil {
			inv.IssueDate = &parsed
		}
	}

	return inv
}

func fieldMap(field extraction.Field) map[string]any {
	return map[string]any{
		"value":      field.Value,
		"confidence": field.Confidence,
	}
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "02.01.2006"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Upload, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Upload{}, domain.ErrInvalidOrganization
	}

	uploadID, err := parseID(id)
	if err != nil {
		return domain.Upload{}, err
	}

	upload, err := s.repo.FindByID(ctx, s.db, orgID, uploadID)
	if err != nil {
		return domain.Upload{}, err
	}
	if upload == nil {
		return domain.Upload{}, domain.ErrNotFound
	}
	return *upload, nil
}

func (s *Service) OpenFile(ctx context.Context, id string) (domain.Upload, []byte, error) {
	upload, err := s.GetByID(ctx, id)
	if err != nil {
		return domain.Upload{}, nil, err
	}

	content, err := os.ReadFile(s.filePath(upload.ObjectKey))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Upload{}, nil, domain.ErrNotFound
		}
		return domain.Upload{}, nil, err
	}
	return upload, content, nil
}

func (s *Service) List(ctx context.Context, req domain.ListUploadRequest) (domain.ListUploadResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.ListUploadResponse{}, domain.ErrInvalidOrganization
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, orgID, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListUploadResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(upload *domain.Upload) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        upload.ID.String(),
			CreatedAt: upload.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})

	uploads := make([]domain.Upload, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		uploads = append(uploads, *item)
	}

	return domain.ListUploadResponse{
		PageInfo: pageInfo,
		Uploads:  uploads,
	}, nil
}

// Delete removes the review invoice first. The lifecycle guard rejects the
// action once the invoice has been confirmed or has payments, which protects
// the file of any invoice that made it past review.
func (s *Service) Delete(ctx context.Context, id string) error {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.ErrInvalidOrganization
	}

	uploadID, err := parseID(id)
	if err != nil {
		return err
	}

	upload, err := s.repo.FindByID(ctx, s.db, orgID, uploadID)
	if err != nil {
		return err
	}
	if upload == nil {
		return domain.ErrNotFound
	}

	if upload.InvoiceID != nil {
		_, err = s.invoiceSvc.ApplyAction(ctx, invoicedomain.ApplyActionRequest{
			ID:     upload.InvoiceID.String(),
			Action: invoicedomain.ActionDeleteUpload,
		})
		if err != nil && !errors.Is(err, invoicedomain.ErrNotFound) {
			return err
		}
	}

	if err := s.repo.Delete(ctx, s.db, orgID, uploadID); err != nil {
		return err
	}

	path := s.filePath(upload.ObjectKey)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.log.Warn("failed to remove upload file", zap.String("path", path), zap.Error(err))
	}

	s.audit(ctx, orgID, "upload.delete", uploadID, nil)
	return nil
}

func (s *Service) writeFile(objectKey string, content []byte) (string, error) {
	dir := s.cfg.UploadDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := s.filePath(objectKey)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Service) filePath(objectKey string) string {
	return filepath.Join(s.cfg.UploadDir, objectKey)
}

func allowedType(contentType string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, candidate := range allowed {
		if strings.EqualFold(strings.TrimSpace(candidate), contentType) {
			return true
		}
	}
	return false
}

func (s *Service) audit(ctx context.Context, orgID snowflake.ID, action string, targetID snowflake.ID, metadata map[string]any) {
	target := targetID.String()
	if err := s.auditSvc.AuditLog(ctx, &orgID, "user", nil, action, "upload", &target, metadata); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
