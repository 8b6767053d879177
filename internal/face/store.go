package face

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Store persists enrollment profiles in Postgres. Embeddings are kept as
// jsonb; they are only ever read back whole for comparison.
type Store struct {
	db *sql.DB
}

// NewStore creates an enrollment store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the enrollment table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS face_enrollments (
			subject_id TEXT PRIMARY KEY,
			embedding  JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

// Save upserts a subject's enrollment profile. Re-enrolling replaces the
// previous embedding.
func (s *Store) Save(ctx context.Context, profile EnrollmentProfile) error {
	if profile.SubjectID == "" {
		return errors.New("subject id required")
	}
	if len(profile.Embedding) == 0 {
		return errors.New("embedding required")
	}
	raw, err := json.Marshal(profile.Embedding)
	if err != nil {
		return fmt.Errorf("encode embedding: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO face_enrollments (subject_id, embedding)
		VALUES ($1, $2)
		ON CONFLICT (subject_id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			updated_at = NOW()
	`, profile.SubjectID, raw)
	return err
}

// Enrollment returns the stored profile, or (nil, nil) when the subject has
// not enrolled.
func (s *Store) Enrollment(ctx context.Context, subjectID string) (*EnrollmentProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT embedding FROM face_enrollments WHERE subject_id = $1
	`, subjectID)
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	var vec []float64
	if err := json.Unmarshal(raw, &vec); err != nil {
		return nil, fmt.Errorf("decode embedding: %w", err)
	}
	return &EnrollmentProfile{SubjectID: subjectID, Embedding: vec}, nil
}

// Delete removes a subject's enrollment.
func (s *Store) Delete(ctx context.Context, subjectID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM face_enrollments WHERE subject_id = $1`, subjectID)
	return err
}
