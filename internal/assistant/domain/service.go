package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ChatRequest struct {
	// ConversationID is the public UUID; empty starts a new conversation.
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

type ChatResponse struct {
	ConversationID string `json:"conversation_id"`
	Reply          string `json:"reply"`
}

type HistoryRequest struct {
	ConversationID string
}

type HistoryResponse struct {
	Conversation Conversation `json:"conversation"`
	Messages     []Message    `json:"messages"`
}

type Service interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
	History(ctx context.Context, req HistoryRequest) (HistoryResponse, error)
}

type Repository interface {
	InsertConversation(ctx context.Context, db *gorm.DB, conversation *Conversation) error
	FindConversationByPublicID(ctx context.Context, db *gorm.DB, orgID snowflake.ID, publicID string) (*Conversation, error)
	TouchConversation(ctx context.Context, db *gorm.DB, conversation *Conversation) error
	InsertMessage(ctx context.Context, db *gorm.DB, message *Message) error
	ListMessages(ctx context.Context, db *gorm.DB, orgID, conversationID snowflake.ID, limit int) ([]Message, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrEmptyMessage        = errors.New("empty_message")
	ErrNotFound            = errors.New("not_found")
	ErrRateLimited         = errors.New("rate_limited")
	ErrUnavailable         = errors.New("assistant_unavailable")
)
