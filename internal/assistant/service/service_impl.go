package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/faktura/internal/assistant/domain"
	"github.com/smallbiznis/faktura/internal/assistant/llm"
	auditdomain "github.com/smallbiznis/faktura/internal/audit/domain"
	"github.com/smallbiznis/faktura/internal/clock"
	"github.com/smallbiznis/faktura/internal/orgcontext"
	"github.com/smallbiznis/faktura/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// historyWindow bounds how many prior messages are sent with each request.
const historyWindow = 20

const systemPrompt = "You are a bookkeeping assistant for a small business. " +
	"Answer questions about invoices, payments and contacts. Be concise."

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Completer llm.Completer
	Limiter   *ratelimit.AssistantLimiter
	AuditSvc  auditdomain.Service
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	completer llm.Completer
	limiter   *ratelimit.AssistantLimiter
	auditSvc  auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("assistant.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		completer: p.Completer,
		limiter:   p.Limiter,
		auditSvc:  p.AuditSvc,
	}
}

func (s *Service) Chat(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.ChatResponse{}, domain.ErrInvalidOrganization
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return domain.ChatResponse{}, domain.ErrEmptyMessage
	}

	allowed, err := s.limiter.Allow(ctx, orgID.String())
	if err != nil {
		s.log.Warn("rate limit check failed, allowing request", zap.Error(err))
	} else if !allowed {
		return domain.ChatResponse{}, domain.ErrRateLimited
	}

	conversation, err := s.resolveConversation(ctx, orgID, req.ConversationID, message)
	if err != nil {
		return domain.ChatResponse{}, err
	}

	history, err := s.repo.ListMessages(ctx, s.db, orgID, conversation.ID, historyWindow)
	if err != nil {
		return domain.ChatResponse{}, err
	}

	messages := make([]llm.ChatMessage, 0, len(history)+2)
	messages = append(messages, llm.ChatMessage{Role: "system", Content: systemPrompt})
	for _, item := range history {
		messages = append(messages, llm.ChatMessage{
			Role:    string(item.Role),
			Content: item.Content,
		})
	}
	messages = append(messages, llm.ChatMessage{Role: "user", Content: message})

	reply, err := s.completer.Complete(ctx, messages)
	if err != nil {
		s.log.Warn("assistant completion failed", zap.Error(err))
		return domain.ChatResponse{}, domain.ErrUnavailable
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userMsg := domain.Message{
			ID:             s.genID.Generate(),
			OrgID:          orgID,
			ConversationID: conversation.ID,
			Role:           domain.RoleUser,
			Content:        message,
			CreatedAt:      now,
		}
		if err := s.repo.InsertMessage(ctx, tx, &userMsg); err != nil {
			return err
		}

		assistantMsg := domain.Message{
			ID:             s.genID.Generate(),
			OrgID:          orgID,
			ConversationID: conversation.ID,
			Role:           domain.RoleAssistant,
			Content:        reply,
			CreatedAt:      now,
		}
		if err := s.repo.InsertMessage(ctx, tx, &assistantMsg); err != nil {
			return err
		}

		conversation.UpdatedAt = now
		return s.repo.TouchConversation(ctx, tx, conversation)
	})
	if err != nil {
		return domain.ChatResponse{}, err
	}

	s.audit(ctx, orgID, "assistant.chat", conversation.PublicID)

	return domain.ChatResponse{
		ConversationID: conversation.PublicID,
		Reply:          reply,
	}, nil
}

func (s *Service) resolveConversation(ctx context.Context, orgID snowflake.ID, publicID, firstMessage string) (*domain.Conversation, error) {
	publicID = strings.TrimSpace(publicID)
	if publicID != "" {
		conversation, err := s.repo.FindConversationByPublicID(ctx, s.db, orgID, publicID)
		if err != nil {
			return nil, err
		}
		if conversation == nil {
			return nil, domain.ErrNotFound
		}
		return conversation, nil
	}

	now := s.clock.Now()
	conversation := &domain.Conversation{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		PublicID:  uuid.NewString(),
		Title:     conversationTitle(firstMessage),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertConversation(ctx, s.db, conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

func conversationTitle(message string) string {
	const maxTitle = 80
	runes := []rune(message)
	if len(runes) <= maxTitle {
		return message
	}
	return string(runes[:maxTitle])
}

func (s *Service) History(ctx context.Context, req domain.HistoryRequest) (domain.HistoryResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.HistoryResponse{}, domain.ErrInvalidOrganization
	}

	conversation, err := s.repo.FindConversationByPublicID(ctx, s.db, orgID, strings.TrimSpace(req.ConversationID))
	if err != nil {
		return domain.HistoryResponse{}, err
	}
	if conversation == nil {
		return domain.HistoryResponse{}, domain.ErrNotFound
	}

	messages, err := s.repo.ListMessages(ctx, s.db, orgID, conversation.ID, 0)
	if err != nil {
		return domain.HistoryResponse{}, err
	}

	return domain.HistoryResponse{
		Conversation: *conversation,
		Messages:     messages,
	}, nil
}

func (s *Service) audit(ctx context.Context, orgID snowflake.ID, action, target string) {
	if err := s.auditSvc.AuditLog(ctx, &orgID, "user", nil, action, "conversation", &target, nil); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}
