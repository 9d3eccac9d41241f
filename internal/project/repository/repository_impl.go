package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/faktura/internal/project/domain"
	"github.com/smallbiznis/faktura/pkg/db/option"
	"github.com/smallbiznis/faktura/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, project *domain.Project) error {
	return db.WithContext(ctx).Create(project).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Project, error) {
	var project domain.Project
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &project, nil
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, orgID snowflake.ID, slug string) (*domain.Project, error) {
	var project domain.Project
	err := db.WithContext(ctx).
		Where("org_id = ? AND slug = ?", orgID, slug).
		First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &project, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListProjectFilter, page pagination.Pagination) ([]*domain.Project, error) {
	var projects []*domain.Project
	stmt := db.WithContext(ctx).
		Model(&domain.Project{}).
		Where("org_id = ?", orgID)
	if filter.ContactID != "" {
		stmt = stmt.Where("contact_id = ?", filter.ContactID)
	}
	if !filter.IncludeArchived {
		stmt = stmt.Where("archived_at IS NULL")
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, project *domain.Project) error {
	return db.WithContext(ctx).
		Model(&domain.Project{}).
		Where("org_id = ? AND id = ?", project.OrgID, project.ID).
		Select("name", "slug", "contact_id", "description", "archived_at", "updated_at").
		Updates(project).Error
}
