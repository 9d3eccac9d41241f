package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Upload is a stored source document. ObjectKey is the ULID name of the file
// on disk; the original filename is kept for display only.
type Upload struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID      `gorm:"not null;index" json:"organization_id"`
	ObjectKey   string            `gorm:"not null;uniqueIndex" json:"object_key"`
	FileName    string            `gorm:"not null" json:"file_name"`
	ContentType string            `gorm:"not null" json:"content_type"`
	SizeBytes   int64             `gorm:"not null" json:"size_bytes"`
	InvoiceID   *snowflake.ID     `gorm:"index" json:"invoice_id,omitempty"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Upload) TableName() string {
	return "uploads"
}
