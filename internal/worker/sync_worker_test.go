package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"takings/internal/amqp"
	"takings/internal/core"
	"takings/internal/sheets/memory"
	"takings/internal/storage"
)

func newTestStore(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	store, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"), core.PolicyVisit)
	if err != nil {
		t.Fatalf("create test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func saveRecord(t *testing.T, store *storage.SQLiteRepository, date core.Date) core.Record {
	t.Helper()
	rec := core.Record{
		Date:        date,
		CardAmount:  core.Money{Cents: 10000},
		ServiceType: core.FullBody,
		Duration:    core.Duration20,
	}
	rec.RecomputeTotal()
	saved, err := store.Create(context.Background(), rec)
	if err != nil {
		t.Fatalf("create record: %v", err)
	}
	return saved
}

type failingAppender struct{}

func (failingAppender) AppendRecord(context.Context, core.Record) error {
	return errors.New("spreadsheet unreachable")
}

func TestHandleSyncMessage(t *testing.T) {
	store := newTestStore(t)
	sheet := memory.New()
	w := NewSyncWorker(store, sheet, 10)
	ctx := context.Background()

	saved := saveRecord(t, store, core.NewDate(2024, 3, 1))

	if err := w.HandleSyncMessage(ctx, amqp.NewRecordSyncMessage(saved.ID)); err != nil {
		t.Fatalf("handle: %v", err)
	}

	rows := sheet.Rows()
	if len(rows) != 1 || rows[0].ID != saved.ID {
		t.Errorf("sheet rows = %+v", rows)
	}

	pending, err := store.PendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("record still pending: %+v", pending)
	}
}

func TestHandleSyncMessageMissingRecord(t *testing.T) {
	store := newTestStore(t)
	w := NewSyncWorker(store, memory.New(), 10)

	// A record deleted before its message arrives is skipped, not retried.
	if err := w.HandleSyncMessage(context.Background(), amqp.NewRecordSyncMessage(999)); err != nil {
		t.Errorf("missing record error = %v, want nil", err)
	}
}

func TestHandleSyncMessageAppendFailure(t *testing.T) {
	store := newTestStore(t)
	w := NewSyncWorker(store, failingAppender{}, 10)
	ctx := context.Background()

	saved := saveRecord(t, store, core.NewDate(2024, 3, 1))

	if err := w.HandleSyncMessage(ctx, amqp.NewRecordSyncMessage(saved.ID)); err == nil {
		t.Fatal("append failure not reported")
	}

	// The row is marked errored and stays eligible for the catch-up pass.
	pending, err := store.PendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != saved.ID {
		t.Errorf("pending = %+v", pending)
	}
}

func TestSyncPending(t *testing.T) {
	store := newTestStore(t)
	sheet := memory.New()
	w := NewSyncWorker(store, sheet, 10)
	ctx := context.Background()

	a := saveRecord(t, store, core.NewDate(2024, 3, 1))
	b := saveRecord(t, store, core.NewDate(2024, 3, 2))

	if err := w.SyncPending(ctx); err != nil {
		t.Fatalf("sync pending: %v", err)
	}

	rows := sheet.Rows()
	if len(rows) != 2 || rows[0].ID != a.ID || rows[1].ID != b.ID {
		t.Errorf("sheet rows = %+v", rows)
	}

	pending, err := store.PendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("still pending: %+v", pending)
	}

	// A second pass with nothing pending is a no-op.
	if err := w.SyncPending(ctx); err != nil {
		t.Fatalf("empty pass: %v", err)
	}
	if got := len(sheet.Rows()); got != 2 {
		t.Errorf("rows after empty pass = %d, want 2", got)
	}
}

func TestSyncPendingRespectsBatchSize(t *testing.T) {
	store := newTestStore(t)
	sheet := memory.New()
	w := NewSyncWorker(store, sheet, 1)
	ctx := context.Background()

	saveRecord(t, store, core.NewDate(2024, 3, 1))
	saveRecord(t, store, core.NewDate(2024, 3, 2))

	if err := w.SyncPending(ctx); err != nil {
		t.Fatalf("sync pending: %v", err)
	}
	if got := len(sheet.Rows()); got != 1 {
		t.Errorf("mirrored %d records in one batch, want 1", got)
	}

	pending, err := store.PendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("pending after batch = %d, want 1", len(pending))
	}
}

func TestSyncPendingContinuesPastFailures(t *testing.T) {
	store := newTestStore(t)
	w := NewSyncWorker(store, failingAppender{}, 10)
	ctx := context.Background()

	saveRecord(t, store, core.NewDate(2024, 3, 1))
	saveRecord(t, store, core.NewDate(2024, 3, 2))

	// Individual append failures are logged, marked and skipped.
	if err := w.SyncPending(ctx); err != nil {
		t.Fatalf("sync pending: %v", err)
	}

	pending, err := store.PendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("pending = %d, want both records retryable", len(pending))
	}
}
