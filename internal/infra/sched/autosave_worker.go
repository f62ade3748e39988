package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Flusher is the part of the checkout use case the worker drives.
type Flusher interface {
	Flush(ctx context.Context) error
}

// AutosaveWorker periodically flushes the verification store so changes are
// persisted even if the operator never types "flush".
type AutosaveWorker struct {
	interval time.Duration
	store    Flusher
	log      *zerolog.Logger
}

func NewAutosaveWorker(interval time.Duration, store Flusher, logger *zerolog.Logger) *AutosaveWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	l := logger.With().Str("component", "AutosaveWorker").Logger()
	return &AutosaveWorker{
		interval: interval,
		store:    store,
		log:      &l,
	}
}

// Run blocks until ctx is cancelled, then makes one last flush attempt.
func (w *AutosaveWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting autosave worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.Background(), w.interval)
			if err := w.store.Flush(final); err != nil {
				w.log.Error().Err(err).Msg("final autosave failed")
			}
			cancel()
			w.log.Info().Msg("Stopping autosave worker")
			return ctx.Err()
		case <-ticker.C:
			if err := w.store.Flush(ctx); err != nil {
				w.log.Error().Err(err).Msg("autosave failed; will retry")
			}
		}
	}
}
