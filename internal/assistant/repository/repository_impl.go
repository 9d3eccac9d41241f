package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/faktura/internal/assistant/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertConversation(ctx context.Context, db *gorm.DB, conversation *domain.Conversation) error {
	return db.WithContext(ctx).Create(conversation).Error
}

func (r *repo) FindConversationByPublicID(ctx context.Context, db *gorm.DB, orgID snowflake.ID, publicID string) (*domain.Conversation, error) {
	var conversation domain.Conversation
	err := db.WithContext(ctx).
		Where("org_id = ? AND public_id = ?", orgID, publicID).
		First(&conversation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conversation, nil
}

func (r *repo) TouchConversation(ctx context.Context, db *gorm.DB, conversation *domain.Conversation) error {
	return db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("org_id = ? AND id = ?", conversation.OrgID, conversation.ID).
		Select("title", "updated_at").
		Updates(conversation).Error
}

func (r *repo) InsertMessage(ctx context.Context, db *gorm.DB, message *domain.Message) error {
	return db.WithContext(ctx).Create(message).Error
}

func (r *repo) ListMessages(ctx context.Context, db *gorm.DB, orgID, conversationID snowflake.ID, limit int) ([]domain.Message, error) {
	var messages []domain.Message
	stmt := db.WithContext(ctx).
		Where("org_id = ? AND conversation_id = ?", orgID, conversationID).
		Order("created_at asc, id asc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	err := stmt.Find(&messages).Error
	return messages, err
}
