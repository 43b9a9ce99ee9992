// Package worker mirrors ledger events into an export sheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

// ExportWorker applies ledger events to an exporter: added transactions are
// appended, deleted ones are removed.
type ExportWorker struct {
	writer  sheets.TransactionWriter
	deleter sheets.TransactionDeleter

	exported atomic.Int64
	deleted  atomic.Int64
}

// NewExportWorker creates a worker. deleter may be nil, in which case delete
// events are acknowledged without touching the sheet.
func NewExportWorker(writer sheets.TransactionWriter, deleter sheets.TransactionDeleter) *ExportWorker {
	return &ExportWorker{writer: writer, deleter: deleter}
}

// HandleEvent processes a single ledger event. A returned error means the
// event should be retried.
func (w *ExportWorker) HandleEvent(ctx context.Context, event core.TransactionEvent) error {
	tx := event.Transaction
	slog.InfoContext(ctx, "Processing ledger event",
		"kind", event.Kind,
		"id", tx.ID,
		"timestamp", event.Timestamp)

	switch event.Kind {
	case core.EventAdded:
		ref, err := w.writer.Append(ctx, tx)
		if err != nil {
			return fmt.Errorf("export transaction %s: %w", tx.ID, err)
		}
		w.exported.Add(1)
		slog.InfoContext(ctx, "Successfully exported transaction", "id", tx.ID, "ref", ref)

	case core.EventDeleted:
		if w.deleter == nil {
			slog.WarnContext(ctx, "No deleter configured, skipping export deletion", "id", tx.ID)
			return nil
		}
		if err := w.deleter.Delete(ctx, tx.ID); err != nil {
			return fmt.Errorf("delete exported transaction %s: %w", tx.ID, err)
		}
		w.deleted.Add(1)
		slog.InfoContext(ctx, "Successfully deleted exported transaction", "id", tx.ID)

	default:
		slog.WarnContext(ctx, "Ignoring unknown ledger event", "kind", event.Kind, "id", tx.ID)
	}
	return nil
}

// Backfill exports every transaction in txs, e.g. the persisted ledger on
// first run. It stops at the first failure.
func (w *ExportWorker) Backfill(ctx context.Context, txs []core.Transaction) error {
	for _, tx := range txs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := w.writer.Append(ctx, tx); err != nil {
			return fmt.Errorf("backfill transaction %s: %w", tx.ID, err)
		}
		w.exported.Add(1)
	}
	slog.InfoContext(ctx, "Backfill completed", "count", len(txs))
	return nil
}

// Stats returns the number of exported and deleted rows so far.
func (w *ExportWorker) Stats() (exported, deleted int64) {
	return w.exported.Load(), w.deleted.Load()
}
