package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	assistantdomain "github.com/smallbiznis/faktura/internal/assistant/domain"
	"github.com/smallbiznis/faktura/internal/orgcontext"
)

func (s *Server) AssistantChat(c *gin.Context) {
	var body assistantdomain.ChatRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.assistantSvc.Chat(c.Request.Context(), body)
	if err != nil {
		if s.obsMetrics != nil && errors.Is(err, assistantdomain.ErrRateLimited) {
			if orgID, ok := orgcontext.OrgIDFromContext(c.Request.Context()); ok {
				s.obsMetrics.RecordRateLimitDenied(c.Request.Context(), orgID.String(), "/api/assistant/chat")
			}
		}
		AbortWithError(c, err)
		return
	}

	if s.obsMetrics != nil {
		if orgID, ok := orgcontext.OrgIDFromContext(c.Request.Context()); ok {
			s.obsMetrics.RecordAssistantChat(c.Request.Context(), orgID.String())
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AssistantHistory(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	resp, err := s.assistantSvc.History(c.Request.Context(), assistantdomain.HistoryRequest{
		ConversationID: id,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
