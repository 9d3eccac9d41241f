package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Conversation groups chat messages. The public identifier is a UUID so
// conversation URLs are not guessable.
type Conversation struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;index" json:"organization_id"`
	PublicID  string       `gorm:"not null;uniqueIndex" json:"public_id"`
	Title     string       `json:"title,omitempty"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Conversation) TableName() string {
	return "assistant_conversations"
}

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

type Message struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID          snowflake.ID `gorm:"not null;index" json:"organization_id"`
	ConversationID snowflake.ID `gorm:"not null;index" json:"conversation_id"`
	Role           MessageRole  `gorm:"not null" json:"role"`
	Content        string       `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Message) TableName() string {
	return "assistant_messages"
}
