package hostel

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Subject is a registered student.
type Subject struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Hostel    string    `json:"hostel"`
	CreatedAt time.Time `json:"createdAt"`
}

// Subjects is the Postgres-backed subject directory.
type Subjects struct {
	db *sql.DB
}

// NewSubjects creates the directory.
func NewSubjects(db *sql.DB) *Subjects {
	return &Subjects{db: db}
}

// EnsureSchema creates the subjects table when missing.
func (s *Subjects) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS subjects (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL DEFAULT '',
			hostel     TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

// Exists reports whether a subject is registered.
func (s *Subjects) Exists(ctx context.Context, subjectID string) (bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM subjects WHERE id = $1)`, subjectID)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Get returns a subject, or (nil, nil) when unknown.
func (s *Subjects) Get(ctx context.Context, subjectID string) (*Subject, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, hostel, created_at FROM subjects WHERE id = $1
	`, subjectID)
	var sub Subject
	if err := row.Scan(&sub.ID, &sub.Name, &sub.Hostel, &sub.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// Upsert creates or updates a subject.
func (s *Subjects) Upsert(ctx context.Context, sub Subject) error {
	if sub.ID == "" {
		return errors.New("subject id required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subjects (id, name, hostel)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			hostel = EXCLUDED.hostel
	`, sub.ID, sub.Name, sub.Hostel)
	return err
}
