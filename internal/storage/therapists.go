package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"takings/internal/core"
)

func scanTherapist(row interface{ Scan(...any) error }) (core.Therapist, error) {
	var (
		t         core.Therapist
		createdAt sql.NullTime
		updatedAt sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.Name, &t.Status, &t.CommissionRate, &createdAt, &updatedAt); err != nil {
		return core.Therapist{}, err
	}
	t.CreatedAt = createdAt.Time
	t.UpdatedAt = updatedAt.Time
	return t, nil
}

func (r *SQLiteRepository) CreateTherapist(ctx context.Context, t core.Therapist) (core.Therapist, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO therapists (name, status, commission_rate)
		VALUES (?, ?, ?)
		RETURNING id`,
		t.Name, string(t.Status), t.CommissionRate).Scan(&id)
	if err != nil {
		return core.Therapist{}, fmt.Errorf("create therapist: %w", err)
	}

	saved, err := r.GetTherapist(ctx, id)
	if err != nil {
		return core.Therapist{}, err
	}

	slog.InfoContext(ctx, "Therapist created", "id", saved.ID, "name", saved.Name, "status", saved.Status)
	return saved, nil
}

func (r *SQLiteRepository) UpdateTherapist(ctx context.Context, t core.Therapist) (core.Therapist, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE therapists
		SET name = ?, status = ?, commission_rate = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		t.Name, string(t.Status), t.CommissionRate, t.ID)
	if err != nil {
		return core.Therapist{}, fmt.Errorf("update therapist: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Therapist{}, fmt.Errorf("update therapist rows affected: %w", err)
	}
	if n == 0 {
		return core.Therapist{}, fmt.Errorf("therapist %d: %w", t.ID, ErrNotFound)
	}

	return r.GetTherapist(ctx, t.ID)
}

func (r *SQLiteRepository) GetTherapist(ctx context.Context, id int64) (core.Therapist, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, status, commission_rate, created_at, updated_at
		FROM therapists WHERE id = ?`, id)
	t, err := scanTherapist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Therapist{}, fmt.Errorf("therapist %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Therapist{}, fmt.Errorf("get therapist: %w", err)
	}
	return t, nil
}

// ListTherapists returns the roster ordered by name. An empty status lists
// everyone.
func (r *SQLiteRepository) ListTherapists(ctx context.Context, status core.TherapistStatus) ([]core.Therapist, error) {
	query := `SELECT id, name, status, commission_rate, created_at, updated_at FROM therapists`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list therapists: %w", err)
	}
	defer rows.Close()

	var therapists []core.Therapist
	for rows.Next() {
		t, err := scanTherapist(rows)
		if err != nil {
			return nil, fmt.Errorf("scan therapist: %w", err)
		}
		therapists = append(therapists, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate therapists: %w", err)
	}
	return therapists, nil
}

// DeactivateTherapist toggles a therapist to inactive. Rows are never
// deleted, so existing records keep a resolvable reference.
func (r *SQLiteRepository) DeactivateTherapist(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE therapists SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(core.StatusInactive), id)
	if err != nil {
		return fmt.Errorf("deactivate therapist: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate therapist rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("therapist %d: %w", id, ErrNotFound)
	}

	slog.InfoContext(ctx, "Therapist deactivated", "id", id)
	return nil
}
