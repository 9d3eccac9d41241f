package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/faktura/pkg/db/pagination"
)

type ListProjectRequest struct {
	PageToken       string
	PageSize        int
	ContactID       string
	IncludeArchived bool
}

type ListProjectFilter struct {
	ContactID       string
	IncludeArchived bool
}

type ListProjectResponse struct {
	pagination.PageInfo
	Projects []Project `json:"projects"`
}

type CreateProjectRequest struct {
	Name        string `json:"name"`
	ContactID   string `json:"contact_id"`
	Description string `json:"description"`
}

type UpdateProjectRequest struct {
	ID          string  `json:"-"`
	Name        *string `json:"name"`
	ContactID   *string `json:"contact_id"`
	Description *string `json:"description"`
	Archived    *bool   `json:"archived"`
}

type GetProjectRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateProjectRequest) (Project, error)
	List(context.Context, ListProjectRequest) (ListProjectResponse, error)
	GetByID(context.Context, GetProjectRequest) (Project, error)
	Update(context.Context, UpdateProjectRequest) (Project, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidContact      = errors.New("invalid_contact")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
	ErrSlugTaken           = errors.New("slug_taken")
)
