package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	contactdomain "github.com/smallbiznis/faktura/internal/contact/domain"
	"github.com/smallbiznis/faktura/internal/orgcontext"
	"github.com/smallbiznis/faktura/internal/project/domain"
	"github.com/smallbiznis/faktura/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        domain.Repository
	ContactRepo contactdomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        domain.Repository
	contactRepo contactdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("project.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		contactRepo: p.ContactRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateProjectRequest) (domain.Project, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Project{}, domain.ErrInvalidOrganization
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Project{}, domain.ErrInvalidName
	}

	var contactID *snowflake.ID
	if strings.TrimSpace(req.ContactID) != "" {
		parsed, err := snowflake.ParseString(strings.TrimSpace(req.ContactID))
		if err != nil || parsed == 0 {
			return domain.Project{}, domain.ErrInvalidContact
		}
		contact, err := s.contactRepo.FindByID(ctx, s.db, orgID, parsed)
		if err != nil {
			return domain.Project{}, err
		}
		if contact == nil {
			return domain.Project{}, domain.ErrInvalidContact
		}
		contactID = &parsed
	}

	projectSlug, err := s.uniqueSlug(ctx, orgID, name)
	if err != nil {
		return domain.Project{}, err
	}

	now := time.Now().UTC()
	project := domain.Project{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		ContactID:   contactID,
		Name:        name,
		Slug:        projectSlug,
		Description: strings.TrimSpace(req.Description),
		Metadata:    datatypes.JSONMap{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, s.db, &project); err != nil {
		return domain.Project{}, err
	}

	return project, nil
}

// uniqueSlug derives a URL slug from the name, appending a numeric suffix on
// collision within the org.
func (s *Service) uniqueSlug(ctx context.Context, orgID snowflake.ID, name string) (string, error) {
	base := slug.Make(name)
	candidate := base
	for i := 2; i <= 20; i++ {
		existing, err := s.repo.FindBySlug(ctx, s.db, orgID, candidate)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", domain.ErrSlugTaken
}

func (s *Service) List(ctx context.Context, req domain.ListProjectRequest) (domain.ListProjectResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.ListProjectResponse{}, domain.ErrInvalidOrganization
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, orgID, domain.ListProjectFilter{
		ContactID:       strings.TrimSpace(req.ContactID),
		IncludeArchived: req.IncludeArchived,
	}, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListProjectResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(project *domain.Project) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        project.ID.String(),
			CreatedAt: project.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})

	projects := make([]domain.Project, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		projects = append(projects, *item)
	}

	return domain.ListProjectResponse{
		PageInfo: pageInfo,
		Projects: projects,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetProjectRequest) (domain.Project, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Project{}, domain.ErrInvalidOrganization
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Project{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Project{}, err
	}
	if item == nil {
		return domain.Project{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateProjectRequest) (domain.Project, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Project{}, domain.ErrInvalidOrganization
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Project{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Project{}, err
	}
	if item == nil {
		return domain.Project{}, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Project{}, domain.ErrInvalidName
		}
		if name != item.Name {
			newSlug, err := s.uniqueSlug(ctx, orgID, name)
			if err != nil {
				return domain.Project{}, err
			}
			item.Slug = newSlug
		}
		item.Name = name
	}
	if req.ContactID != nil {
		trimmed := strings.TrimSpace(*req.ContactID)
		if trimmed == "" {
			item.ContactID = nil
		} else {
			parsed, err := snowflake.ParseString(trimmed)
			if err != nil || parsed == 0 {
				return domain.Project{}, domain.ErrInvalidContact
			}
			contact, err := s.contactRepo.FindByID(ctx, s.db, orgID, parsed)
			if err != nil {
				return domain.Project{}, err
			}
			if contact == nil {
				return domain.Project{}, domain.ErrInvalidContact
			}
			item.ContactID = &parsed
		}
	}
	if req.Description != nil {
		item.Description = strings.TrimSpace(*req.Description)
	}
	if req.Archived != nil {
		if *req.Archived && item.ArchivedAt == nil {
			now := time.Now().UTC()
			item.ArchivedAt = &now
		}
		if !*req.Archived {
			item.ArchivedAt = nil
		}
	}
	item.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return domain.Project{}, err
	}

	return *item, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
