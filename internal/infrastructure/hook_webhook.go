package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/yourusername/media-relay-go/internal/domain"
	"go.uber.org/zap"
)

// hookClientTimeout bounds each outbound delivery attempt.
const hookClientTimeout = 30 * time.Second

// WebhookHook POSTs the raw outcome record to caller-specified URLs, or to
// the process-wide default URLs when the request carries none.
type WebhookHook struct {
	defaults []string
	client   *http.Client
	logger   *zap.Logger
}

// NewWebhookHook creates the generic-webhook hook from default configuration.
func NewWebhookHook(config *domain.WebhookConfig, logger *zap.Logger) *WebhookHook {
	return &WebhookHook{
		defaults: config.URLs,
		client:   &http.Client{Timeout: hookClientTimeout},
		logger:   logger,
	}
}

// Name identifies the hook in logs.
func (h *WebhookHook) Name() string { return "webhook" }

// Execute posts the outcome to every resolved target concurrently. Per-target
// failures are logged and never escalated.
func (h *WebhookHook) Execute(ctx context.Context, outcome *domain.DownloadOutcome, overrides *domain.HookConfig) error {
	targets := h.defaults
	if overrides != nil && len(overrides.Webhooks) > 0 {
		targets = overrides.Webhooks
	}
	if len(targets) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	for _, target := range targets {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			if err := postJSON(ctx, h.client, url, outcome); err != nil {
				h.logger.Warn("Webhook delivery failed",
					zap.String("hook", h.Name()),
					zap.String("target", url),
					zap.Error(err))
				return
			}
			h.logger.Debug("Webhook delivered",
				zap.String("hook", h.Name()),
				zap.String("target", url))
		}(target)
	}
	wg.Wait()

	return nil
}

// postJSON POSTs a JSON payload and treats any non-2xx response as an error.
func postJSON(ctx context.Context, client *http.Client, url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return nil
}
