package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// snapshotRefresher re-warms the chat report snapshot.
type snapshotRefresher interface {
	RefreshSnapshot(ctx context.Context) error
}

// SnapshotWorker periodically refreshes the cached report snapshot so chat
// requests rarely pay the database round trip.
type SnapshotWorker struct {
	refresher snapshotRefresher
	interval  time.Duration
}

// NewSnapshotWorker creates a new SnapshotWorker.
func NewSnapshotWorker(refresher snapshotRefresher, interval time.Duration) *SnapshotWorker {
	return &SnapshotWorker{refresher: refresher, interval: interval}
}

// Start runs the worker until ctx is cancelled. One refresh happens
// immediately so the cache is warm before the first chat request.
func (w *SnapshotWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Snapshot worker started")

	w.refresh(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Snapshot worker stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *SnapshotWorker) refresh(ctx context.Context) {
	if err := w.refresher.RefreshSnapshot(ctx); err != nil {
		log.Warn().Err(err).Msg("Snapshot refresh failed")
	}
}
