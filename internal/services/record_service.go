// Package services orchestrates writes across the local store and the
// best-effort spreadsheet mirror.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"takings/internal/amqp"
	"takings/internal/core"
	"takings/internal/sheets"
	"takings/internal/storage"
)

// RecordService saves records locally first and then mirrors them. With a
// queue configured the mirror is handed to the sync worker; without one a
// single bounded direct append is attempted. Mirror failures are logged and
// never returned: the local save's outcome is independent of the mirror.
type RecordService struct {
	store  *storage.SQLiteRepository
	queue  *amqp.Client          // nil = no queue configured
	mirror sheets.RecordAppender // nil = mirror disabled
}

func NewRecordService(store *storage.SQLiteRepository, queue *amqp.Client, mirror sheets.RecordAppender) *RecordService {
	return &RecordService{
		store:  store,
		queue:  queue,
		mirror: mirror,
	}
}

// Save validates, recomputes the total and writes the record according to
// the store's policy: upsert-by-date keeps one row per day, per-visit always
// inserts. The returned record carries the assigned id and timestamps.
func (s *RecordService) Save(ctx context.Context, rec core.Record) (core.Record, error) {
	rec.RecomputeTotal()
	if err := rec.Validate(); err != nil {
		return core.Record{}, err
	}

	var (
		saved core.Record
		err   error
	)
	if s.store.Policy() == core.PolicyDaily {
		saved, err = s.store.UpsertByDate(ctx, rec)
	} else {
		saved, err = s.store.Create(ctx, rec)
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("save record: %w", err)
	}

	s.mirrorSaved(ctx, saved)
	return saved, nil
}

// Delete removes a record. storage.ErrNotFound passes through so callers
// can treat a repeated delete as "already gone".
func (s *RecordService) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteRecord(ctx, id)
}

// mirrorSaved hands the saved record to the spreadsheet mirror. Never fails
// the caller.
func (s *RecordService) mirrorSaved(ctx context.Context, rec core.Record) {
	if s.queue != nil {
		if err := s.queue.PublishRecordSync(ctx, rec.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish sync message",
				"id", rec.ID, "error", err)
		}
		return
	}

	if s.mirror == nil {
		return
	}

	// No queue: one direct best-effort attempt, bounded so a slow mirror
	// cannot delay the already-committed save for long.
	mirrorCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.mirror.AppendRecord(mirrorCtx, rec); err != nil {
		slog.ErrorContext(ctx, "Spreadsheet mirror failed",
			"id", rec.ID, "date", rec.Date.ISO(), "error", err)
		if markErr := s.store.MarkSyncError(ctx, rec.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", rec.ID, "error", markErr)
		}
		return
	}
	if err := s.store.MarkSynced(ctx, rec.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark record synced", "id", rec.ID, "error", err)
	}
}

// Close closes the store and queue connections.
func (s *RecordService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.queue != nil {
		if err := s.queue.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close record service: %v", errs)
	}

	return nil
}
