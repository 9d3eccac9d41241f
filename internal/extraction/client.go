package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

type httpExtractor struct {
	endpoint string
	apiKey   string
	client   *http.Client
	log      *zap.Logger
}

func newHTTPExtractor(endpoint, apiKey string, log *zap.Logger) Extractor {
	return &httpExtractor{
		endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		apiKey:   strings.TrimSpace(apiKey),
		client:   &http.Client{Timeout: 60 * time.Second},
		log:      log.Named("extraction.client"),
	}
}

func (c *httpExtractor) Extract(ctx context.Context, fileName, contentType string, content []byte) (Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("document", fileName)
	if err != nil {
		return Result{}, err
	}
	if _, err := part.Write(content); err != nil {
		return Result{}, err
	}
	if err := writer.WriteField("content_type", contentType); err != nil {
		return Result{}, err
	}
	if err := writer.Close(); err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/extract", &body)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.log.Warn("extraction request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("file", fileName),
		)
		return Result{}, fmt.Errorf("extraction service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("decode extraction response: %w", err)
	}
	return result, nil
}
