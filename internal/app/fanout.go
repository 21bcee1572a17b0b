package app

import (
	"context"
	"sync"
	"time"

	"github.com/yourusername/media-relay-go/internal/domain"
	"go.uber.org/zap"
)

// FanOut dispatches a completed download's outcome to every registered hook.
// Hooks run concurrently and fail independently: no hook's failure blocks,
// cancels or fails another, and no failure ever escapes the fan-out.
//
// Hook results are surfaced through structured logging only; the request
// that triggered the fan-out is never told which hooks succeeded.
type FanOut struct {
	hooks  []domain.Hook
	logger *zap.Logger

	// wg tracks detached dispatches so tests and shutdown can drain them.
	wg sync.WaitGroup
}

// NewFanOut creates a fan-out over the given hooks
func NewFanOut(hooks []domain.Hook, logger *zap.Logger) *FanOut {
	return &FanOut{
		hooks:  hooks,
		logger: logger,
	}
}

// Dispatch starts the fan-out in the background and returns immediately.
// The caller never joins its completion; this is the fire-and-forget entry
// used by the request path. A fresh context detaches delivery from the
// request/response cycle.
func (f *FanOut) Dispatch(outcome *domain.DownloadOutcome, overrides *domain.HookConfig) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.Notify(context.Background(), outcome, overrides)
	}()
}

// Notify invokes every hook exactly once and blocks until all have settled,
// regardless of individual success or failure. It never returns an error.
func (f *FanOut) Notify(ctx context.Context, outcome *domain.DownloadOutcome, overrides *domain.HookConfig) {
	start := time.Now()

	var wg sync.WaitGroup
	for _, hook := range f.hooks {
		wg.Add(1)
		go func(h domain.Hook) {
			defer wg.Done()
			f.runHook(ctx, h, outcome, overrides)
		}(hook)
	}
	wg.Wait()

	f.logger.Info("Notification fan-out settled",
		zap.String("url", outcome.SourceURL),
		zap.Int("hooks", len(f.hooks)),
		zap.Duration("elapsed", time.Since(start)))
}

// Drain waits for all detached dispatches to settle.
func (f *FanOut) Drain() {
	f.wg.Wait()
}

// runHook executes one hook, observing its result at the fan-out boundary.
// Panics are recovered here so a misbehaving hook cannot take down the
// process or its sibling hooks.
func (f *FanOut) runHook(ctx context.Context, h domain.Hook, outcome *domain.DownloadOutcome, overrides *domain.HookConfig) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("Hook panicked",
				zap.String("hook", h.Name()),
				zap.Any("panic", r))
		}
	}()

	if err := h.Execute(ctx, outcome, overrides); err != nil {
		f.logger.Warn("Hook failed",
			zap.String("hook", h.Name()),
			zap.String("url", outcome.SourceURL),
			zap.Error(err))
		return
	}

	f.logger.Info("Hook completed",
		zap.String("hook", h.Name()),
		zap.String("url", outcome.SourceURL))
}
