// Package storage is the system of record: a SQLite-backed store for daily
// revenue records and the therapist roster.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"takings/internal/core"

	_ "modernc.org/sqlite"
)

// Sync states for the spreadsheet mirror.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

var ErrNotFound = errors.New("not found")

// SQLiteRepository wraps the records and therapists tables. Under
// core.PolicyDaily a unique index on records.date backs the upsert; under
// core.PolicyVisit many records may share a date.
type SQLiteRepository struct {
	db     *sql.DB
	policy core.RecordPolicy
}

func NewSQLiteRepository(dbPath string, policy core.RecordPolicy) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if policy == core.PolicyDaily {
		// The uniqueness constraint is what makes UpsertByDate atomic; it
		// must live in the storage engine, not in a read-then-write check.
		if _, err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_records_date_unique ON records(date)`); err != nil {
			db.Close()
			return nil, fmt.Errorf("create unique date index: %w", err)
		}
	}

	return &SQLiteRepository{db: db, policy: policy}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Policy returns the record policy the store was opened with.
func (r *SQLiteRepository) Policy() core.RecordPolicy {
	return r.policy
}

const recordColumns = `r.id, r.date, r.card_cents, r.cash_cents, r.total_cents,
	r.customer_count, r.note, r.service_type, r.duration, r.therapist_id,
	COALESCE(t.name, ''), r.created_at, r.updated_at`

const recordFrom = ` FROM records r LEFT JOIN therapists t ON t.id = r.therapist_id`

func scanRecord(row interface{ Scan(...any) error }) (core.Record, error) {
	var (
		rec         core.Record
		dateStr     string
		therapistID sql.NullInt64
		createdAt   sql.NullTime
		updatedAt   sql.NullTime
	)
	err := row.Scan(&rec.ID, &dateStr, &rec.CardAmount.Cents, &rec.CashAmount.Cents,
		&rec.TotalAmount.Cents, &rec.CustomerCount, &rec.Note, &rec.ServiceType,
		&rec.Duration, &therapistID, &rec.TherapistName, &createdAt, &updatedAt)
	if err != nil {
		return core.Record{}, err
	}
	rec.Date, err = core.ParseDate(dateStr)
	if err != nil {
		return core.Record{}, fmt.Errorf("parse stored date %q: %w", dateStr, err)
	}
	if therapistID.Valid {
		id := therapistID.Int64
		rec.TherapistID = &id
	}
	rec.CreatedAt = createdAt.Time
	rec.UpdatedAt = updatedAt.Time
	return rec, nil
}

// UpsertByDate inserts a record or, when one already exists for the same
// date, replaces its fields in place. The conflict resolution happens inside
// SQLite, so two concurrent saves for one date can never create duplicates.
// Only valid under the daily policy.
func (r *SQLiteRepository) UpsertByDate(ctx context.Context, rec core.Record) (core.Record, error) {
	if r.policy != core.PolicyDaily {
		return core.Record{}, fmt.Errorf("upsert by date requires the %q record policy", core.PolicyDaily)
	}

	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO records (date, card_cents, cash_cents, total_cents, customer_count,
			note, service_type, duration, therapist_id, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			card_cents = excluded.card_cents,
			cash_cents = excluded.cash_cents,
			total_cents = excluded.total_cents,
			customer_count = excluded.customer_count,
			note = excluded.note,
			service_type = excluded.service_type,
			duration = excluded.duration,
			therapist_id = excluded.therapist_id,
			sync_status = excluded.sync_status,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id`,
		rec.Date.ISO(), rec.CardAmount.Cents, rec.CashAmount.Cents, rec.TotalAmount.Cents,
		rec.CustomerCount, rec.Note, string(rec.ServiceType), string(rec.Duration),
		nullableID(rec.TherapistID), SyncPending).Scan(&id)
	if err != nil {
		return core.Record{}, fmt.Errorf("upsert record: %w", err)
	}

	saved, err := r.GetByID(ctx, id)
	if err != nil {
		return core.Record{}, err
	}

	slog.InfoContext(ctx, "Record upserted",
		"id", saved.ID,
		"date", saved.Date.ISO(),
		"total_cents", saved.TotalAmount.Cents,
		"customer_count", saved.CustomerCount)

	return saved, nil
}

// Create always inserts a new record row regardless of existing same-date
// rows (per-visit policy).
func (r *SQLiteRepository) Create(ctx context.Context, rec core.Record) (core.Record, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO records (date, card_cents, cash_cents, total_cents, customer_count,
			note, service_type, duration, therapist_id, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		rec.Date.ISO(), rec.CardAmount.Cents, rec.CashAmount.Cents, rec.TotalAmount.Cents,
		rec.CustomerCount, rec.Note, string(rec.ServiceType), string(rec.Duration),
		nullableID(rec.TherapistID), SyncPending).Scan(&id)
	if err != nil {
		return core.Record{}, fmt.Errorf("create record: %w", err)
	}

	saved, err := r.GetByID(ctx, id)
	if err != nil {
		return core.Record{}, err
	}

	slog.InfoContext(ctx, "Record created",
		"id", saved.ID,
		"date", saved.Date.ISO(),
		"total_cents", saved.TotalAmount.Cents,
		"service_type", saved.ServiceType)

	return saved, nil
}

// GetByDate returns the first record for an exact date, or nil when the
// date has none (not an error).
func (r *SQLiteRepository) GetByDate(ctx context.Context, d core.Date) (*core.Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+recordFrom+` WHERE r.date = ? ORDER BY r.id LIMIT 1`, d.ISO())
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record by date: %w", err)
	}
	return &rec, nil
}

// GetByID returns a record or ErrNotFound.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (core.Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+recordFrom+` WHERE r.id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, fmt.Errorf("record %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("get record by id: %w", err)
	}
	return rec, nil
}

// DeleteRecord removes a record. Deleting an id that is already gone
// reports ErrNotFound; callers treat that as "already deleted".
func (r *SQLiteRepository) DeleteRecord(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("record %d: %w", id, ErrNotFound)
	}

	slog.InfoContext(ctx, "Record deleted", "id", id)
	return nil
}

// RecordFilter selects records for listings and exports. Nil bounds mean
// unbounded on that side; both bounds are inclusive. TherapistName is a
// case-insensitive substring match on the resolved roster name.
type RecordFilter struct {
	Start         *core.Date
	End           *core.Date
	ServiceType   core.ServiceType
	TherapistName string
	Order         string // "asc" or "desc"; default desc
	Limit         int    // 0 = no limit
	Offset        int
}

// ListInRange returns records matching the filter ordered by date.
func (r *SQLiteRepository) ListInRange(ctx context.Context, f RecordFilter) ([]core.Record, error) {
	query := `SELECT ` + recordColumns + recordFrom + ` WHERE 1=1`
	var args []any
	if f.Start != nil {
		query += ` AND r.date >= ?`
		args = append(args, f.Start.ISO())
	}
	if f.End != nil {
		query += ` AND r.date <= ?`
		args = append(args, f.End.ISO())
	}
	if f.ServiceType != "" {
		query += ` AND r.service_type = ?`
		args = append(args, string(f.ServiceType))
	}
	if f.TherapistName != "" {
		query += ` AND LOWER(t.name) LIKE '%' || LOWER(?) || '%'`
		args = append(args, f.TherapistName)
	}
	if f.Order == "asc" {
		query += ` ORDER BY r.date ASC, r.id ASC`
	} else {
		query += ` ORDER BY r.date DESC, r.id DESC`
	}
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []core.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

// PendingSyncRecord is the minimal row shape queued for the sheet mirror.
type PendingSyncRecord struct {
	ID        int64
	CreatedAt time.Time
}

// PendingSync returns records still waiting for their spreadsheet mirror
// (never attempted, or failed and due for retry), oldest first.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]PendingSyncRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at FROM records WHERE sync_status IN (?, ?) ORDER BY id LIMIT ?`,
		SyncPending, SyncError, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync records: %w", err)
	}
	defer rows.Close()

	var pending []PendingSyncRecord
	for rows.Next() {
		var p PendingSyncRecord
		var createdAt sql.NullTime
		if err := rows.Scan(&p.ID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan pending sync record: %w", err)
		}
		p.CreatedAt = createdAt.Time
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending sync records: %w", err)
	}
	return pending, nil
}

// MarkSynced marks a record as successfully mirrored.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE records SET sync_status = ? WHERE id = ?`, SyncSynced, id); err != nil {
		return fmt.Errorf("mark record synced: %w", err)
	}
	slog.InfoContext(ctx, "Record marked as synced", "id", id)
	return nil
}

// MarkSyncError marks a record whose mirror attempt failed.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE records SET sync_status = ? WHERE id = ?`, SyncError, id); err != nil {
		return fmt.Errorf("mark record sync error: %w", err)
	}
	slog.WarnContext(ctx, "Record marked with sync error", "id", id)
	return nil
}
