package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sheetsightai/sheetsight/internal/metrics"
)

// TurnPurger deletes chat turns past the retention horizon.
type TurnPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// RetentionWorker periodically purges expired chat turns. Reads already
// filter by age, so the sweep only reclaims storage; running it twice is
// harmless.
type RetentionWorker struct {
	turns    TurnPurger
	log      *logrus.Logger
	interval time.Duration
}

// NewRetentionWorker creates a worker sweeping at the given interval.
func NewRetentionWorker(turns TurnPurger, log *logrus.Logger, interval time.Duration) *RetentionWorker {
	if interval <= 0 {
		interval = time.Hour
	}

	return &RetentionWorker{turns: turns, log: log, interval: interval}
}

// Run sweeps once immediately, then on every tick until the context is
// cancelled. Call in a goroutine.
func (w *RetentionWorker) Run(ctx context.Context) {
	w.log.WithField("interval", w.interval).Info("starting retention sweeper")

	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("retention sweeper stopped")

			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *RetentionWorker) sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	purged, err := w.turns.PurgeExpired(ctx)
	if err != nil {
		w.log.WithError(err).Warn("retention sweep failed")

		return
	}

	if purged > 0 {
		metrics.TurnsPurged.Add(float64(purged))
		w.log.WithField("purged", purged).Info("expired chat turns purged")
	}
}
