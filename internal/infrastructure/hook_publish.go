package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/yourusername/media-relay-go/internal/domain"
	"go.uber.org/zap"
)

// PublishHook uploads the downloaded file to a social-publishing API using
// its three-step contract: initialize the upload with metadata and the
// declared file size, receive an upload URL, then stream the file to that
// URL with a content-range header.
//
// The access token is resolved per invocation: an explicit per-request
// credential wins over the process-wide default; with neither the hook is a
// silent no-op. Unlike the other hooks, a delivery failure is returned to
// the fan-out, which logs and swallows it.
type PublishHook struct {
	apiBase      string
	defaultToken string
	client       *http.Client
	logger       *zap.Logger
}

// NewPublishHook creates the social-publish hook from default configuration.
func NewPublishHook(config *domain.PublishConfig, logger *zap.Logger) *PublishHook {
	return &PublishHook{
		apiBase:      config.APIBase,
		defaultToken: config.AccessToken,
		client:       &http.Client{Timeout: hookClientTimeout},
		logger:       logger,
	}
}

// Name identifies the hook in logs.
func (h *PublishHook) Name() string { return "publish" }

type publishInitRequest struct {
	Title    string `json:"title"`
	FileSize int64  `json:"file_size"`
}

type publishInitResponse struct {
	UploadURL string `json:"upload_url"`
}

// Execute runs the three-step upload for the outcome's file.
func (h *PublishHook) Execute(ctx context.Context, outcome *domain.DownloadOutcome, overrides *domain.HookConfig) error {
	token := h.defaultToken
	if overrides != nil && overrides.Publish != nil && overrides.Publish.AccessToken != "" {
		token = overrides.Publish.AccessToken
	}
	if token == "" || h.apiBase == "" {
		return nil
	}

	info, err := os.Stat(outcome.FilePath)
	if err != nil {
		return fmt.Errorf("publish: cannot stat %s: %w", outcome.FilePath, err)
	}
	size := info.Size()

	uploadURL, err := h.initUpload(ctx, token, outcome.Title, size)
	if err != nil {
		return fmt.Errorf("publish: init failed: %w", err)
	}

	if err := h.uploadFile(ctx, uploadURL, outcome.FilePath, size); err != nil {
		return fmt.Errorf("publish: upload failed: %w", err)
	}

	h.logger.Info("Published download",
		zap.String("title", outcome.Title),
		zap.Int64("size", size))
	return nil
}

// initUpload declares the upload and returns the URL to stream the file to.
func (h *PublishHook) initUpload(ctx context.Context, token, title string, size int64) (string, error) {
	body, err := json.Marshal(publishInitRequest{Title: title, FileSize: size})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		h.apiBase+"/upload/init", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var initResp publishInitResponse
	if err := json.NewDecoder(resp.Body).Decode(&initResp); err != nil {
		return "", fmt.Errorf("failed to decode init response: %w", err)
	}
	if initResp.UploadURL == "" {
		return "", fmt.Errorf("init response carried no upload url")
	}
	return initResp.UploadURL, nil
}

// uploadFile streams the file to the upload URL with a content-range header.
func (h *PublishHook) uploadFile(ctx context.Context, uploadURL, filePath string, size int64) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, file)
	if err != nil {
		return err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Content-Range", fmt.Sprintf("bytes 0-%d/%d", size-1, size))

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
