package worker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"gembala/internal/amqp"
	"gembala/internal/export"
	applog "gembala/internal/log"
	"gembala/internal/stats"
)

// Consumer delivers congregation change events until the context is done.
type Consumer interface {
	ConsumePerubahan(ctx context.Context, handler func(context.Context, *amqp.PerubahanMessage) error) error
}

// ExportWorker periodically appends the dashboard snapshot to a Google
// Sheet and keeps its local statistics caches coherent with changes made
// by the API process. It runs in its own binary against the same SQLite
// database.
type ExportWorker struct {
	stats    *stats.Service
	writer   export.SnapshotWriter
	logger   *applog.Logger
	interval time.Duration
}

func NewExportWorker(statsSvc *stats.Service, writer export.SnapshotWriter, interval time.Duration, logger *applog.Logger) *ExportWorker {
	if logger == nil {
		logger = applog.New(applog.Config{Component: applog.ComponentWorker})
	}
	return &ExportWorker{
		stats:    statsSvc,
		writer:   writer,
		logger:   logger,
		interval: interval,
	}
}

// Run blocks until the context is cancelled. The change-feed consumer and
// the export ticker run concurrently; either failing stops the worker.
func (w *ExportWorker) Run(ctx context.Context, consumer Consumer) error {
	g, ctx := errgroup.WithContext(ctx)

	if consumer != nil {
		g.Go(func() error {
			return consumer.ConsumePerubahan(ctx, w.HandlePerubahan)
		})
	}

	if w.writer != nil {
		g.Go(func() error {
			return w.runExportLoop(ctx)
		})
	}

	return g.Wait()
}

// HandlePerubahan drops the local caches so the next export recomputes
// against the data written by the other process.
func (w *ExportWorker) HandlePerubahan(ctx context.Context, msg *amqp.PerubahanMessage) error {
	w.logger.InfoContext(ctx, "Invalidating caches for change event",
		applog.FieldEntity, msg.Entity,
		applog.FieldOperation, msg.Op)
	w.stats.Invalidate()
	return nil
}

func (w *ExportWorker) runExportLoop(ctx context.Context) error {
	// One export up front so a freshly started worker writes a row
	// without waiting a full interval.
	if err := w.ExportOnce(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Initial export failed", applog.FieldError, err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ExportOnce(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Export failed", applog.FieldError, err)
			}
		}
	}
}

// ExportOnce computes the current snapshot and appends it as one row.
func (w *ExportWorker) ExportOnce(ctx context.Context) error {
	snap, err := w.stats.GetSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	if err := w.writer.AppendSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}

	w.logger.InfoContext(ctx, "Exported snapshot",
		applog.FieldOperation, applog.OpExport,
		"total_jemaat", snap.TotalJemaat)
	return nil
}
