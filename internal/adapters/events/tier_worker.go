package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Samuel871933/buylav2-sub001/internal/application"
)

// TierWorker is the daily batch that refreshes every ambassador's
// cached commission tier from the trailing validated-sale window.
type TierWorker struct {
	logger   *slog.Logger
	service  *application.Service
	interval time.Duration
}

func NewTierWorker(logger *slog.Logger, service *application.Service, interval time.Duration) *TierWorker {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &TierWorker{logger: logger, service: service, interval: interval}
}

func (w *TierWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		updated, err := w.service.RecomputeTiers(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "tier recompute failed",
				"module", "events.tier_worker",
				"layer", "adapter",
				"operation", "recompute",
				"outcome", "failure",
				"error", err,
			)
		} else {
			w.logger.InfoContext(ctx, "tier recompute finished",
				"module", "events.tier_worker",
				"layer", "adapter",
				"operation", "recompute",
				"outcome", "success",
				"updated", updated,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
