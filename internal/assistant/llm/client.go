package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/smallbiznis/faktura/internal/audit/masking"
	"github.com/smallbiznis/faktura/internal/config"
	"go.uber.org/zap"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer is the boundary to the language model service.
type Completer interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

type httpCompleter struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
	log      *zap.Logger
}

type completionRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
}

func NewCompleter(cfg config.Config, log *zap.Logger) Completer {
	if strings.TrimSpace(cfg.AssistantEndpoint) == "" {
		log.Named("assistant").Info("no assistant endpoint configured")
		return unavailableCompleter{}
	}
	log.Named("assistant").Info("assistant client configured",
		zap.String("endpoint", cfg.AssistantEndpoint),
		zap.String("model", cfg.AssistantModel),
		zap.String("api_key", masking.MaskSecret(cfg.AssistantAPIKey)),
	)
	return &httpCompleter{
		endpoint: strings.TrimRight(strings.TrimSpace(cfg.AssistantEndpoint), "/"),
		apiKey:   strings.TrimSpace(cfg.AssistantAPIKey),
		model:    strings.TrimSpace(cfg.AssistantModel),
		client:   &http.Client{Timeout: 90 * time.Second},
		log:      log.Named("assistant.client"),
	}
}

func (c *httpCompleter) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	payload, err := json.Marshal(completionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.log.Warn("assistant request failed", zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("assistant service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var completion completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("decode assistant response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("assistant returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

type unavailableCompleter struct{}

func (unavailableCompleter) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	return "", fmt.Errorf("assistant endpoint not configured")
}
