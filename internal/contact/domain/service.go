package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/faktura/pkg/db/pagination"
)

type ListContactRequest struct {
	PageToken   string
	PageSize    int
	Name        string
	Email       string
	Search      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListContactFilter struct {
	Name        string
	Email       string
	Search      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListContactResponse struct {
	pagination.PageInfo
	Contacts []Contact `json:"contacts"`
}

type CreateContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

type UpdateContactRequest struct {
	ID      string  `json:"-"`
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	Notes   *string `json:"notes"`
}

type GetContactRequest struct {
	ID string
}

type DeleteContactRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateContactRequest) (Contact, error)
	List(context.Context, ListContactRequest) (ListContactResponse, error)
	GetByID(context.Context, GetContactRequest) (Contact, error)
	Update(context.Context, UpdateContactRequest) (Contact, error)
	Delete(context.Context, DeleteContactRequest) error
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidEmail        = errors.New("invalid_email")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
)
