package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/faktura/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, upload *Upload) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Upload, error)
	FindByInvoiceID(ctx context.Context, db *gorm.DB, orgID, invoiceID snowflake.ID) (*Upload, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, page pagination.Pagination) ([]*Upload, error)
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error
}
