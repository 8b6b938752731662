package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"takings/internal/core"
)

func newTestRepo(t *testing.T, policy core.RecordPolicy) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"), policy)
	if err != nil {
		t.Fatalf("create test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testRecord(date core.Date) core.Record {
	rec := core.Record{
		Date:          date,
		CardAmount:    core.Money{Cents: 10000},
		CashAmount:    core.Money{Cents: 5000},
		CustomerCount: 12,
		ServiceType:   core.FullBody,
		Duration:      core.Duration20,
		Note:          "busy day",
	}
	rec.RecomputeTotal()
	return rec
}

func TestUpsertByDateReplacesInPlace(t *testing.T) {
	repo := newTestRepo(t, core.PolicyDaily)
	ctx := context.Background()
	date := core.NewDate(2024, 3, 1)

	first, err := repo.UpsertByDate(ctx, testRecord(date))
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	updated := testRecord(date)
	updated.CardAmount = core.Money{Cents: 20000}
	updated.CashAmount = core.Money{Cents: 0}
	updated.CustomerCount = 8
	updated.Note = "corrected"
	updated.RecomputeTotal()

	second, err := repo.UpsertByDate(ctx, updated)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("upsert created a new row: id %d then %d", first.ID, second.ID)
	}
	if second.TotalAmount.Cents != 20000 || second.CustomerCount != 8 || second.Note != "corrected" {
		t.Errorf("fields not replaced: %+v", second)
	}

	records, err := repo.ListInRange(ctx, RecordFilter{Start: &date, End: &date})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("got %d rows for the date, want 1", len(records))
	}
}

func TestUpsertByDateRequiresDailyPolicy(t *testing.T) {
	repo := newTestRepo(t, core.PolicyVisit)
	if _, err := repo.UpsertByDate(context.Background(), testRecord(core.NewDate(2024, 3, 1))); err == nil {
		t.Fatal("upsert succeeded under the visit policy")
	}
}

func TestCreateKeepsSameDateRows(t *testing.T) {
	repo := newTestRepo(t, core.PolicyVisit)
	ctx := context.Background()
	date := core.NewDate(2024, 3, 1)

	a, err := repo.Create(ctx, testRecord(date))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := repo.Create(ctx, testRecord(date))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.ID == b.ID {
		t.Fatalf("two inserts shared id %d", a.ID)
	}

	records, err := repo.ListInRange(ctx, RecordFilter{Start: &date, End: &date})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d rows for the date, want 2", len(records))
	}
}

func TestGetByDate(t *testing.T) {
	repo := newTestRepo(t, core.PolicyVisit)
	ctx := context.Background()
	date := core.NewDate(2024, 3, 1)

	got, err := repo.GetByDate(ctx, date)
	if err != nil {
		t.Fatalf("get empty date: %v", err)
	}
	if got != nil {
		t.Fatalf("empty date returned a record: %+v", got)
	}

	if _, err := repo.Create(ctx, testRecord(date)); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err = repo.GetByDate(ctx, date)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Date.ISO() != "2024-03-01" {
		t.Errorf("got %+v", got)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo := newTestRepo(t, core.PolicyVisit)
	if _, err := repo.GetByID(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestDeleteRecord(t *testing.T) {
	repo := newTestRepo(t, core.PolicyVisit)
	ctx := context.Background()

	saved, err := repo.Create(ctx, testRecord(core.NewDate(2024, 3, 1)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.DeleteRecord(ctx, saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteRecord(ctx, saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetByID(ctx, saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete error = %v, want ErrNotFound", err)
	}
}

func TestListInRangeFilters(t *testing.T) {
	repo := newTestRepo(t, core.PolicyVisit)
	ctx := context.Background()

	mira, err := repo.CreateTherapist(ctx, core.Therapist{Name: "Mira", Status: core.StatusActive})
	if err != nil {
		t.Fatalf("create therapist: %v", err)
	}

	dates := []core.Date{
		core.NewDate(2024, 3, 1),
		core.NewDate(2024, 3, 2),
		core.NewDate(2024, 3, 3),
	}
	for i, d := range dates {
		rec := testRecord(d)
		if i == 1 {
			rec.ServiceType = core.Foot
			rec.TherapistID = &mira.ID
		}
		if _, err := repo.Create(ctx, rec); err != nil {
			t.Fatalf("create record %d: %v", i, err)
		}
	}

	t.Run("default order is newest first", func(t *testing.T) {
		records, err := repo.ListInRange(ctx, RecordFilter{})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("got %d records, want 3", len(records))
		}
		if records[0].Date.ISO() != "2024-03-03" {
			t.Errorf("first = %s, want 2024-03-03", records[0].Date.ISO())
		}
	})

	t.Run("ascending order", func(t *testing.T) {
		records, err := repo.ListInRange(ctx, RecordFilter{Order: "asc"})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(records) == 0 {
			t.Fatal("no records")
		}
		if records[0].Date.ISO() != "2024-03-01" {
			t.Errorf("first = %s, want 2024-03-01", records[0].Date.ISO())
		}
	})

	t.Run("inclusive bounds", func(t *testing.T) {
		start, end := dates[0], dates[1]
		records, err := repo.ListInRange(ctx, RecordFilter{Start: &start, End: &end})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(records) != 2 {
			t.Errorf("got %d records, want 2", len(records))
		}
	})

	t.Run("service type filter", func(t *testing.T) {
		records, err := repo.ListInRange(ctx, RecordFilter{ServiceType: core.Foot})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(records) != 1 || records[0].ServiceType != core.Foot {
			t.Errorf("got %+v", records)
		}
	})

	t.Run("therapist substring match resolves name", func(t *testing.T) {
		records, err := repo.ListInRange(ctx, RecordFilter{TherapistName: "mir"})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(records) != 1 || records[0].TherapistName != "Mira" {
			t.Errorf("got %+v", records)
		}
		if records[0].TherapistID == nil || *records[0].TherapistID != mira.ID {
			t.Errorf("therapist id not carried: %+v", records[0].TherapistID)
		}
	})

	t.Run("limit and offset paginate", func(t *testing.T) {
		page1, err := repo.ListInRange(ctx, RecordFilter{Order: "asc", Limit: 2})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		page2, err := repo.ListInRange(ctx, RecordFilter{Order: "asc", Limit: 2, Offset: 2})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(page1) != 2 || len(page2) != 1 {
			t.Errorf("pages = %d, %d, want 2, 1", len(page1), len(page2))
		}
		if page2[0].Date.ISO() != "2024-03-03" {
			t.Errorf("page2 starts at %s", page2[0].Date.ISO())
		}
	})
}

func TestPendingSyncLifecycle(t *testing.T) {
	repo := newTestRepo(t, core.PolicyVisit)
	ctx := context.Background()

	a, err := repo.Create(ctx, testRecord(core.NewDate(2024, 3, 1)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := repo.Create(ctx, testRecord(core.NewDate(2024, 3, 2)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	pending, err := repo.PendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("got %d pending, want 2", len(pending))
	}

	if err := repo.MarkSynced(ctx, a.ID); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	pending, err = repo.PendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != b.ID {
		t.Errorf("pending = %+v, want just record %d", pending, b.ID)
	}

	// Failed mirrors stay eligible for retry.
	if err := repo.MarkSyncError(ctx, b.ID); err != nil {
		t.Fatalf("mark error: %v", err)
	}
	pending, err = repo.PendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != b.ID {
		t.Errorf("errored record dropped from pending: %+v", pending)
	}

	pending, err = repo.PendingSync(ctx, 0)
	if err != nil {
		t.Fatalf("pending with zero limit: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("zero limit returned %d rows", len(pending))
	}
}

func TestTherapistLifecycle(t *testing.T) {
	repo := newTestRepo(t, core.PolicyVisit)
	ctx := context.Background()

	mira, err := repo.CreateTherapist(ctx, core.Therapist{Name: "Mira", Status: core.StatusActive, CommissionRate: 0.4})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if mira.ID == 0 || mira.Name != "Mira" || mira.CommissionRate != 0.4 {
		t.Errorf("created = %+v", mira)
	}

	if _, err := repo.CreateTherapist(ctx, core.Therapist{Name: "Kai", Status: core.StatusActive}); err != nil {
		t.Fatalf("create: %v", err)
	}

	mira.Name = "Mira L."
	updated, err := repo.UpdateTherapist(ctx, mira)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Mira L." {
		t.Errorf("updated name = %q", updated.Name)
	}

	if _, err := repo.UpdateTherapist(ctx, core.Therapist{ID: 999, Name: "Ghost", Status: core.StatusActive}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing error = %v, want ErrNotFound", err)
	}

	all, err := repo.ListTherapists(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].Name != "Kai" {
		t.Errorf("list ordering: %+v", all)
	}

	if err := repo.DeactivateTherapist(ctx, mira.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if err := repo.DeactivateTherapist(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("deactivate missing error = %v, want ErrNotFound", err)
	}

	active, err := repo.ListTherapists(ctx, core.StatusActive)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].Name != "Kai" {
		t.Errorf("active roster: %+v", active)
	}

	// The row survives deactivation.
	got, err := repo.GetTherapist(ctx, mira.ID)
	if err != nil {
		t.Fatalf("get deactivated: %v", err)
	}
	if got.Status != core.StatusInactive {
		t.Errorf("status = %q, want inactive", got.Status)
	}
}

func TestRecordsKeepReferenceToDeactivatedTherapist(t *testing.T) {
	repo := newTestRepo(t, core.PolicyVisit)
	ctx := context.Background()

	mira, err := repo.CreateTherapist(ctx, core.Therapist{Name: "Mira", Status: core.StatusActive})
	if err != nil {
		t.Fatalf("create therapist: %v", err)
	}

	rec := testRecord(core.NewDate(2024, 3, 1))
	rec.TherapistID = &mira.ID
	saved, err := repo.Create(ctx, rec)
	if err != nil {
		t.Fatalf("create record: %v", err)
	}

	if err := repo.DeactivateTherapist(ctx, mira.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	got, err := repo.GetByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TherapistName != "Mira" {
		t.Errorf("therapist name lost after deactivation: %q", got.TherapistName)
	}
}
