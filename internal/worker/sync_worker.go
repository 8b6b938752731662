// Package worker mirrors saved records from SQLite to the spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"takings/internal/amqp"
	"takings/internal/core"
	"takings/internal/sheets"
	"takings/internal/storage"
)

type SyncWorker struct {
	store     *storage.SQLiteRepository
	sheet     sheets.RecordAppender
	batchSize int
}

func NewSyncWorker(store *storage.SQLiteRepository, sheet sheets.RecordAppender, batchSize int) *SyncWorker {
	return &SyncWorker{
		store:     store,
		sheet:     sheet,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single record sync message from AMQP. A
// record deleted before its message arrives is not an error.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.RecordSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "id", msg.ID)

	rec, err := w.store.GetByID(ctx, msg.ID)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Record gone before sync, skipping", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get record from storage: %w", err)
	}

	return w.syncRecord(ctx, rec.ID, rec)
}

// SyncPending mirrors up to batchSize records whose sync message was lost
// or whose previous attempt failed. Used at startup and on a timer.
func (w *SyncWorker) SyncPending(ctx context.Context) error {
	pending, err := w.store.PendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending sync records: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Syncing pending records", "count", len(pending))

	for _, p := range pending {
		rec, err := w.store.GetByID(ctx, p.ID)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("get pending record %d: %w", p.ID, err)
		}
		if err := w.syncRecord(ctx, p.ID, rec); err != nil {
			// Leave the rest for the next pass; the row is already marked.
			slog.ErrorContext(ctx, "Pending sync failed", "id", p.ID, "error", err)
		}
	}
	return nil
}

func (w *SyncWorker) syncRecord(ctx context.Context, id int64, rec core.Record) error {
	if err := w.sheet.AppendRecord(ctx, rec); err != nil {
		if markErr := w.store.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append record to sheet: %w", err)
	}
	return w.store.MarkSynced(ctx, id)
}
