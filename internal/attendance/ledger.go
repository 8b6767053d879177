package attendance

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"hostelms/internal/geo"
)

// ErrDuplicate means a record already exists for the subject and date.
var ErrDuplicate = errors.New("attendance: already marked for this date")

// Record is one accepted attendance decision. Immutable after commit;
// corrections happen through the administrative delete, not in place.
type Record struct {
	ID        string     `json:"id"`
	SubjectID string     `json:"subjectId"`
	Date      string     `json:"date"` // calendar day, yyyy-mm-dd
	IsPresent bool       `json:"isPresent"`
	Point     *geo.Point `json:"capturedPoint,omitempty"`
	MarkedAt  time.Time  `json:"markedAt"`
}

// Ledger is the durable store of accepted attendance records. Commit must be
// an atomic conditional insert on (subjectID, date): of any number of
// concurrent commits for the same key, exactly one succeeds and the rest get
// ErrDuplicate.
type Ledger interface {
	// HasMarked reports whether an isPresent record exists for the subject
	// on the given calendar date.
	HasMarked(ctx context.Context, subjectID, date string) (bool, error)
	// Commit inserts the record, enforcing the per-day uniqueness invariant.
	Commit(ctx context.Context, rec Record) (Record, error)
	// DeleteForDate erases the record for a subject and date. Administrative
	// and test surface, not part of the verification path.
	DeleteForDate(ctx context.Context, subjectID, date string) error
	// ListForSubject returns the most recent records for a subject.
	ListForSubject(ctx context.Context, subjectID string, limit int) ([]Record, error)
}

// MemoryLedger is a mutex-guarded in-memory Ledger for tests and the dev
// profile. The single lock around Commit gives the same check-and-insert
// atomicity the Postgres unique constraint provides.
type MemoryLedger struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryLedger creates an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{records: make(map[string]Record)}
}

func ledgerKey(subjectID, date string) string {
	return subjectID + "|" + date
}

// HasMarked reports whether a present record exists for the key.
func (m *MemoryLedger) HasMarked(_ context.Context, subjectID, date string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[ledgerKey(subjectID, date)]
	return ok && rec.IsPresent, nil
}

// Commit inserts the record unless one already exists for the key.
func (m *MemoryLedger) Commit(_ context.Context, rec Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := ledgerKey(rec.SubjectID, rec.Date)
	if _, ok := m.records[key]; ok {
		return Record{}, ErrDuplicate
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.MarkedAt.IsZero() {
		rec.MarkedAt = time.Now().UTC()
	}
	m.records[key] = rec
	return rec, nil
}

// DeleteForDate removes the record for the key, if any.
func (m *MemoryLedger) DeleteForDate(_ context.Context, subjectID, date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, ledgerKey(subjectID, date))
	return nil
}

// ListForSubject returns the subject's records, newest date first.
func (m *MemoryLedger) ListForSubject(_ context.Context, subjectID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, rec := range m.records {
		if rec.SubjectID == subjectID {
			out = append(out, rec)
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Date > out[i].Date {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
