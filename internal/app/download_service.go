package app

import (
	"context"

	"github.com/yourusername/media-relay-go/internal/domain"
	"go.uber.org/zap"
)

// Supervisor runs one extraction process to completion.
type Supervisor interface {
	Run(ctx context.Context, req *domain.DownloadRequest) *domain.DownloadOutcome
}

// DownloadService orchestrates one download request: supervised extraction,
// best-effort history recording, and notification dispatch on success.
//
// Nothing here serializes concurrent requests: each run owns its own child
// process and parser state, and admission control is a caller concern.
type DownloadService struct {
	supervisor Supervisor
	fanout     *FanOut
	history    domain.HistoryRepository
	logger     *zap.Logger
}

// NewDownloadService creates a new download service. history may be nil.
func NewDownloadService(
	supervisor Supervisor,
	fanout *FanOut,
	history domain.HistoryRepository,
	logger *zap.Logger,
) *DownloadService {
	return &DownloadService{
		supervisor: supervisor,
		fanout:     fanout,
		history:    history,
		logger:     logger,
	}
}

// Process runs one request to completion and returns its outcome. On
// success the notification fan-out is dispatched in the background; the
// returned outcome is not held back by it.
func (s *DownloadService) Process(ctx context.Context, req *domain.DownloadRequest) *domain.DownloadOutcome {
	outcome := s.supervisor.Run(ctx, req)

	if s.history != nil {
		if err := s.history.Create(domain.NewDownloadRecord(req, outcome)); err != nil {
			// History is reporting only; a write failure never affects
			// the outcome.
			s.logger.Error("Failed to record download history",
				zap.String("url", req.URL),
				zap.Error(err))
		}
	}

	if outcome.Succeeded() {
		s.fanout.Dispatch(outcome, req.Hooks)
	}

	return outcome
}
