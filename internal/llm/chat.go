package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/freightdocs/invoice-matcher/internal/common"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest describes one structured chat-completion call against an
// OpenAI-compatible endpoint.
type ChatRequest struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	Messages    []Message
}

// ChatCompletion posts the request and returns the first choice's message
// content, trimmed. It assumes an OpenAI-compatible /chat/completions shape;
// callers own the prompt, the schema, and response validation.
func ChatCompletion(ctx context.Context, client *http.Client, req ChatRequest, logger *slog.Logger) (string, []byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: 45 * time.Second}
	}

	reqID := common.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.New().String()
	}
	start := time.Now()

	body := map[string]any{
		"model":           req.Model,
		"temperature":     req.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages":        req.Messages,
	}
	bs, err := json.Marshal(body)
	if err != nil {
		return "", nil, fmt.Errorf("encode chat request: %w", err)
	}

	url := strings.TrimRight(req.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return "", nil, fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	logger.Info("llm.chat.request", "req_id", reqID, "model", req.Model, "content_length", len(bs))

	resp, err := client.Do(httpReq)
	if err != nil {
		logger.Error("llm.chat.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", nil, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Warn("llm.chat.body_close_error", "req_id", reqID, "error", cerr)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)

	logger.Info("llm.chat.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return "", raw, fmt.Errorf("chat completion status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", raw, fmt.Errorf("decode chat response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", raw, fmt.Errorf("no choices in chat response")
	}
	return strings.TrimSpace(cc.Choices[0].Message.Content), raw, nil
}
