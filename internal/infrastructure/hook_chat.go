package infrastructure

import (
	"context"
	"net/http"
	"sync"

	"github.com/yourusername/media-relay-go/internal/domain"
	"go.uber.org/zap"
)

// chatMessage is the fixed structured payload posted to chat webhooks.
type chatMessage struct {
	Title    string `json:"title"`
	Source   string `json:"source"`
	FileName string `json:"file_name"`
	Status   string `json:"status"`
}

// ChatHook posts a short completion message to one or more chat webhook
// URLs. Per-request URLs entirely replace the configured defaults.
type ChatHook struct {
	defaults []string
	client   *http.Client
	logger   *zap.Logger
}

// NewChatHook creates the chat-notify hook from default configuration.
func NewChatHook(config *domain.ChatConfig, logger *zap.Logger) *ChatHook {
	return &ChatHook{
		defaults: config.WebhookURLs,
		client:   &http.Client{Timeout: hookClientTimeout},
		logger:   logger,
	}
}

// Name identifies the hook in logs.
func (h *ChatHook) Name() string { return "chat" }

// Execute posts the completion message to every resolved target
// concurrently; one target's failure never cancels or fails the others.
func (h *ChatHook) Execute(ctx context.Context, outcome *domain.DownloadOutcome, overrides *domain.HookConfig) error {
	targets := h.defaults
	if overrides != nil && len(overrides.ChatWebhooks) > 0 {
		targets = overrides.ChatWebhooks
	}
	if len(targets) == 0 {
		return nil
	}

	msg := chatMessage{
		Title:    outcome.Title,
		Source:   outcome.SourceURL,
		FileName: outcome.FileName,
		Status:   "completed",
	}

	var wg sync.WaitGroup
	for _, target := range targets {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			if err := postJSON(ctx, h.client, url, msg); err != nil {
				h.logger.Warn("Chat notification failed",
					zap.String("hook", h.Name()),
					zap.String("target", url),
					zap.Error(err))
				return
			}
			h.logger.Debug("Chat notification sent",
				zap.String("hook", h.Name()),
				zap.String("target", url))
		}(target)
	}
	wg.Wait()

	return nil
}
