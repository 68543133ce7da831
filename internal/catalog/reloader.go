package catalog

import (
	"context"
	"log/slog"
	"time"
)

// ReloadRecorder receives the outcome of every reload attempt.
type ReloadRecorder interface {
	RecordCatalogReload(ctx context.Context, source string, success bool)
}

// Reloader periodically rebuilds the catalog from a Source and publishes it
// to a Store. A failed load leaves the previous snapshot in service.
type Reloader struct {
	source   Source
	store    *Store
	interval time.Duration
	recorder ReloadRecorder
	logger   *slog.Logger
}

// NewReloader creates a Reloader. recorder may be nil.
func NewReloader(source Source, store *Store, interval time.Duration, recorder ReloadRecorder, logger *slog.Logger) *Reloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reloader{
		source:   source,
		store:    store,
		interval: interval,
		recorder: recorder,
		logger:   logger,
	}
}

// ReloadOnce loads from the source and swaps the result in.
func (r *Reloader) ReloadOnce(ctx context.Context) error {
	next, err := r.source.Load(ctx)
	if r.recorder != nil {
		r.recorder.RecordCatalogReload(ctx, r.source.Name(), err == nil)
	}
	if err != nil {
		r.logger.Error("catalog reload failed, keeping current snapshot",
			"source", r.source.Name(),
			"version", r.store.Current().Version(),
			"error", err,
		)
		return err
	}

	prev := r.store.Swap(next)
	LogLoaded(r.logger, r.source.Name(), next)
	if prev != nil && prev.Version() != next.Version() {
		r.logger.Info("catalog version changed", "from", prev.Version(), "to", next.Version())
	}
	return nil
}

// Run reloads every interval until ctx is cancelled. A non-positive interval
// disables reloading and Run returns immediately.
func (r *Reloader) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.ReloadOnce(ctx)
		}
	}
}

// LogLoaded reports a freshly built catalog and each of its deviations.
func LogLoaded(logger *slog.Logger, source string, c *Catalog) {
	logger.Info("catalog loaded",
		"source", source,
		"version", c.Version(),
		"plans", len(c.planOrder),
		"add_ons", len(c.addOnOrder),
		"campaigns", len(c.campaignOrder),
	)
	for _, d := range c.deviations {
		logger.Warn("catalog price deviates from convention",
			"kind", d.Kind,
			"id", d.ID,
			"annual_price", d.Actual.String(),
			"implied_annual_price", d.Expected.String(),
		)
	}
}
