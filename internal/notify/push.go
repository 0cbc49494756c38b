package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// PushResult reports what the provider actually delivered. InvalidTokens
// lists tokens the provider marked permanently invalid; callers prune
// exactly those.
type PushResult struct {
	SuccessCount  int      `json:"success"`
	FailureCount  int      `json:"failure"`
	InvalidTokens []string `json:"invalid_tokens"`
}

// PushSender is the push-provider surface the notifier depends on.
type PushSender interface {
	Send(ctx context.Context, tokens []string, title, body string, data map[string]string) (PushResult, error)
}

type PushConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// HTTPPushClient talks to the external push provider.
type HTTPPushClient struct {
	cfg  PushConfig
	http *http.Client
	log  *slog.Logger
}

func NewHTTPPushClient(cfg PushConfig, logger *slog.Logger) *HTTPPushClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPPushClient{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger,
	}
}

func (c *HTTPPushClient) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) (PushResult, error) {
	rid := uuid.New().String()
	start := time.Now()

	payload := map[string]any{
		"tokens": tokens,
		"title":  title,
		"body":   body,
	}
	if len(data) > 0 {
		payload["data"] = data
	}
	bs, err := json.Marshal(payload)
	if err != nil {
		return PushResult{}, fmt.Errorf("encode push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/send", bytes.NewReader(bs))
	if err != nil {
		return PushResult{}, fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("push.send_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return PushResult{}, err
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.log.Warn("push.body_close_error", "req_id", rid, "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return PushResult{}, fmt.Errorf("push provider status %d: %s", resp.StatusCode, string(raw))
	}

	var result PushResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return PushResult{}, fmt.Errorf("decode push response: %w", err)
	}

	c.log.Info("push.sent",
		"req_id", rid,
		"tokens", len(tokens),
		"success", result.SuccessCount,
		"failure", result.FailureCount,
		"invalid", len(result.InvalidTokens),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}
