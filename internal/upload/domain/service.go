package domain

import (
	"context"
	"errors"

	invoicedomain "github.com/smallbiznis/faktura/internal/invoice/domain"
	"github.com/smallbiznis/faktura/pkg/db/pagination"
)

type CreateUploadRequest struct {
	FileName    string
	ContentType string
	Content     []byte
}

// CreateUploadResponse returns the stored document and the review invoice
// created from its extracted fields.
type CreateUploadResponse struct {
	Upload  Upload                    `json:"upload"`
	Invoice invoicedomain.InvoiceView `json:"invoice"`
}

type ListUploadRequest struct {
	PageToken string
	PageSize  int
}

type ListUploadResponse struct {
	pagination.PageInfo
	Uploads []Upload `json:"uploads"`
}

type Service interface {
	Create(ctx context.Context, req CreateUploadRequest) (CreateUploadResponse, error)
	GetByID(ctx context.Context, id string) (Upload, error)
	// OpenFile returns the stored document content.
	OpenFile(ctx context.Context, id string) (Upload, []byte, error)
	List(ctx context.Context, req ListUploadRequest) (ListUploadResponse, error)
	// Delete removes the review invoice made from this upload, then the
	// stored file. It refuses once the invoice has left review.
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
	ErrEmptyFile           = errors.New("empty_file")
	ErrFileTooLarge        = errors.New("file_too_large")
	ErrUnsupportedType     = errors.New("unsupported_file_type")
	ErrProcessing          = errors.New("upload_processing")
)
