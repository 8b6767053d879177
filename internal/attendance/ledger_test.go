package attendance

import (
	"context"
	"errors"
	"testing"

	"hostelms/internal/geo"
)

func TestMemoryLedger_CommitOncePerDay(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()

	rec := Record{SubjectID: "stu-1", Date: "2026-09-01", IsPresent: true}
	committed, err := ledger.Commit(ctx, rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if committed.ID == "" || committed.MarkedAt.IsZero() {
		t.Fatalf("commit must fill id and timestamp: %+v", committed)
	}

	if _, err := ledger.Commit(ctx, rec); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// a different date for the same subject is independent
	other := Record{SubjectID: "stu-1", Date: "2026-09-02", IsPresent: true}
	if _, err := ledger.Commit(ctx, other); err != nil {
		t.Fatalf("different date must commit: %v", err)
	}
}

func TestMemoryLedger_HasMarkedOnlyCountsPresence(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()

	absent := Record{SubjectID: "stu-1", Date: "2026-09-01", IsPresent: false}
	if _, err := ledger.Commit(ctx, absent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	has, err := ledger.HasMarked(ctx, "stu-1", "2026-09-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if has {
		t.Fatal("an absence record must not count as marked present")
	}

	// the day is still occupied: a present commit for the same key loses
	present := Record{SubjectID: "stu-1", Date: "2026-09-01", IsPresent: true}
	if _, err := ledger.Commit(ctx, present); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestMemoryLedger_DeleteReopensDay(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()

	rec := Record{SubjectID: "stu-1", Date: "2026-09-01", IsPresent: true}
	if _, err := ledger.Commit(ctx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ledger.DeleteForDate(ctx, "stu-1", "2026-09-01"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	has, _ := ledger.HasMarked(ctx, "stu-1", "2026-09-01")
	if has {
		t.Fatal("deleted record still reported as marked")
	}
	if _, err := ledger.Commit(ctx, rec); err != nil {
		t.Fatalf("commit after delete must succeed: %v", err)
	}
}

func TestMemoryLedger_ListForSubject(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()
	p := geo.Point{Lat: 11.14407, Lon: 77.32565}

	for _, date := range []string{"2026-08-30", "2026-09-01", "2026-08-31"} {
		if _, err := ledger.Commit(ctx, Record{SubjectID: "stu-1", Date: date, IsPresent: true, Point: &p}); err != nil {
			t.Fatalf("commit %s: %v", date, err)
		}
	}
	if _, err := ledger.Commit(ctx, Record{SubjectID: "stu-2", Date: "2026-09-01", IsPresent: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := ledger.ListForSubject(ctx, "stu-1", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Date != "2026-09-01" || records[1].Date != "2026-08-31" {
		t.Fatalf("expected newest-first order, got %s then %s", records[0].Date, records[1].Date)
	}
}
