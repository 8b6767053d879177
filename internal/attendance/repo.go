package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"hostelms/internal/geo"
)

// Repository is the Postgres-backed Ledger. The uniqueness invariant lives in
// the unique constraint on (subject_id, attendance_date): Commit is a single
// conditional insert, so concurrent requests that both passed the duplicate
// check still cannot double-write.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a ledger over an open database handle.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the attendance table and its uniqueness constraint.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS attendance_records (
			id              TEXT PRIMARY KEY,
			subject_id      TEXT NOT NULL,
			attendance_date DATE NOT NULL,
			is_present      BOOLEAN NOT NULL,
			lat             DOUBLE PRECISION,
			lon             DOUBLE PRECISION,
			marked_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (subject_id, attendance_date)
		)
	`); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_attendance_subject ON attendance_records(subject_id)
	`)
	return err
}

// HasMarked reports whether a present record exists for the subject on the
// calendar date. Dates are stored as bare SQL dates, so the comparison is an
// exact day match with no slack window.
func (r *Repository) HasMarked(ctx context.Context, subjectID, date string) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM attendance_records
			WHERE subject_id = $1 AND attendance_date = $2 AND is_present
		)
	`, subjectID, date)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Commit conditionally inserts the record. ON CONFLICT DO NOTHING plus
// RETURNING makes the duplicate case observable as zero returned rows.
func (r *Repository) Commit(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.MarkedAt.IsZero() {
		rec.MarkedAt = time.Now().UTC()
	}
	var lat, lon *float64
	if rec.Point != nil {
		lat, lon = &rec.Point.Lat, &rec.Point.Lon
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, subject_id, attendance_date, is_present, lat, lon, marked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (subject_id, attendance_date) DO NOTHING
		RETURNING id
	`, rec.ID, rec.SubjectID, rec.Date, rec.IsPresent, lat, lon, rec.MarkedAt)
	var id string
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrDuplicate
		}
		return Record{}, err
	}
	return rec, nil
}

// DeleteForDate erases the record for a subject and date.
func (r *Repository) DeleteForDate(ctx context.Context, subjectID, date string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM attendance_records
		WHERE subject_id = $1 AND attendance_date = $2
	`, subjectID, date)
	return err
}

// ListForSubject returns the most recent records for a subject.
func (r *Repository) ListForSubject(ctx context.Context, subjectID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, subject_id, to_char(attendance_date, 'YYYY-MM-DD'), is_present, lat, lon, marked_at
		FROM attendance_records
		WHERE subject_id = $1
		ORDER BY attendance_date DESC
		LIMIT $2
	`, subjectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var lat, lon *float64
		if err := rows.Scan(&rec.ID, &rec.SubjectID, &rec.Date, &rec.IsPresent, &lat, &lon, &rec.MarkedAt); err != nil {
			return nil, err
		}
		if lat != nil && lon != nil {
			rec.Point = &geo.Point{Lat: *lat, Lon: *lon}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
