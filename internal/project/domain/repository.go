package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/faktura/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, project *Project) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Project, error)
	FindBySlug(ctx context.Context, db *gorm.DB, orgID snowflake.ID, slug string) (*Project, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListProjectFilter, page pagination.Pagination) ([]*Project, error)
	Update(ctx context.Context, db *gorm.DB, project *Project) error
}
