package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"hostelms/internal/face"
	"hostelms/internal/geo"
	"hostelms/internal/metrics"
	"hostelms/internal/queue"
)

// SubjectDirectory resolves whether a subject exists.
type SubjectDirectory interface {
	Exists(ctx context.Context, subjectID string) (bool, error)
}

// EnrollmentSource loads a subject's stored biometric profile; (nil, nil)
// means not enrolled.
type EnrollmentSource interface {
	Enrollment(ctx context.Context, subjectID string) (*face.EnrollmentProfile, error)
}

// BoundaryResolver maps a hostel name to its geofence boundary.
type BoundaryResolver interface {
	Boundary(name string) (geo.Boundary, bool)
}

// CheckInRequest carries one verification attempt. Point is nil when the
// client has no GPS (the "web" sentinel), which bypasses the geofence check.
type CheckInRequest struct {
	SubjectID     string
	Date          string
	IsPresent     bool
	Photo         []byte
	Point         *geo.Point
	ClaimedHostel string
}

// AcceptedEvent is the queue payload published after a successful commit.
type AcceptedEvent struct {
	RecordID  string `json:"recordId"`
	SubjectID string `json:"subjectId"`
	Hostel    string `json:"hostel"`
	Date      string `json:"date"`
	IsPresent bool   `json:"isPresent"`
}

// Service is the verification orchestrator: duplicate check, geofence check,
// biometric check, then commit, short-circuiting on the first failure. It
// never recovers a gate failure; each surfaces as a *Rejection.
type Service struct {
	ledger      Ledger
	subjects    SubjectDirectory
	enrollments EnrollmentSource
	boundaries  BoundaryResolver
	generator   face.Generator
	events      queue.Queue // optional post-commit fan-out
	timeout     time.Duration
}

// NewService wires the orchestrator. events may be nil.
func NewService(ledger Ledger, subjects SubjectDirectory, enrollments EnrollmentSource,
	boundaries BoundaryResolver, generator face.Generator, events queue.Queue, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Service{
		ledger:      ledger,
		subjects:    subjects,
		enrollments: enrollments,
		boundaries:  boundaries,
		generator:   generator,
		events:      events,
		timeout:     timeout,
	}
}

// CheckIn runs the verification pipeline for a single request. On success it
// returns the committed record; otherwise the error is a *Rejection for any
// gate failure, or a plain error for storage faults.
func (s *Service) CheckIn(ctx context.Context, req CheckInRequest) (Record, error) {
	date, rej := validate(req)
	if rej != nil {
		return s.reject(rej)
	}
	req.Date = date

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ok, err := s.subjects.Exists(ctx, req.SubjectID)
	if err != nil {
		return Record{}, fmt.Errorf("subject lookup: %w", err)
	}
	if !ok {
		return s.reject(rejectf(KindSubjectNotFound, "subject %s not found", req.SubjectID))
	}

	// DuplicateCheck: cheap existence probe before any expensive work.
	marked, err := s.ledger.HasMarked(ctx, req.SubjectID, req.Date)
	if err != nil {
		return Record{}, fmt.Errorf("duplicate check: %w", err)
	}
	if marked {
		return s.reject(rejectf(KindDuplicateRecord, "attendance already marked for %s", req.Date))
	}

	if rej := s.checkGeofence(req); rej != nil {
		return s.reject(rej)
	}

	// BiometricCheck only applies when the request asserts presence; there
	// is nothing to verify for an absence marking.
	if req.IsPresent {
		if rej, err := s.checkBiometric(ctx, req); err != nil {
			return Record{}, err
		} else if rej != nil {
			return s.reject(rej)
		}
	}

	rec := Record{
		ID:        uuid.NewString(),
		SubjectID: req.SubjectID,
		Date:      req.Date,
		IsPresent: req.IsPresent,
		Point:     req.Point,
		MarkedAt:  time.Now().UTC(),
	}
	committed, err := s.ledger.Commit(ctx, rec)
	if errors.Is(err, ErrDuplicate) {
		// lost the race against a concurrent request for the same key
		return s.reject(rejectf(KindDuplicateRecord, "attendance already marked for %s", req.Date))
	}
	if err != nil {
		return Record{}, fmt.Errorf("commit: %w", err)
	}

	s.publish(ctx, committed, req.ClaimedHostel)
	metrics.CheckIn("accepted")
	return committed, nil
}

func (s *Service) reject(rej *Rejection) (Record, error) {
	metrics.CheckIn(string(rej.Kind))
	return Record{}, rej
}

// validate normalizes the request and returns the canonical calendar date.
func validate(req CheckInRequest) (string, *Rejection) {
	if req.SubjectID == "" {
		return "", rejectf(KindValidation, "subject id required")
	}
	if req.ClaimedHostel == "" {
		return "", rejectf(KindValidation, "hostel required")
	}
	d, err := parseDate(req.Date)
	if err != nil {
		return "", rejectf(KindValidation, "invalid date %q", req.Date)
	}
	return d, nil
}

// parseDate accepts a bare calendar date or a full ISO-8601 timestamp and
// reduces either to yyyy-mm-dd.
func parseDate(s string) (string, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Format("2006-01-02"), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return "", err
	}
	return t.Format("2006-01-02"), nil
}

// checkGeofence evaluates the claimed hostel's boundary. A nil point is the
// documented no-GPS escape hatch; trust for it is decided at the system
// boundary, so the check is skipped outright.
func (s *Service) checkGeofence(req CheckInRequest) *Rejection {
	if req.Point == nil {
		return nil
	}
	b, ok := s.boundaries.Boundary(req.ClaimedHostel)
	if !ok {
		return rejectf(KindValidation, "unknown hostel %q", req.ClaimedHostel)
	}
	res := geo.Evaluate(*req.Point, b)
	if res.Inside {
		return nil
	}
	rej := rejectf(KindOutsideGeofence, "outside %s boundary", req.ClaimedHostel)
	if res.HasDistance {
		d := res.DistanceMeters
		rej.DistanceMeters = &d
		rej.Message = fmt.Sprintf("outside %s boundary (%.0fm from center)", req.ClaimedHostel, d)
	}
	return rej
}

// checkBiometric loads the enrollment before requesting the probe embedding,
// so an unenrolled subject never triggers the expensive generator call.
func (s *Service) checkBiometric(ctx context.Context, req CheckInRequest) (*Rejection, error) {
	profile, err := s.enrollments.Enrollment(ctx, req.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("enrollment lookup: %w", err)
	}
	if profile == nil {
		return rejectf(KindMissingEnrollment, "no face enrolled for subject"), nil
	}
	if len(req.Photo) == 0 {
		return rejectf(KindValidation, "photo required to mark present"), nil
	}

	start := time.Now()
	probe, err := s.generator.Embed(ctx, req.Photo)
	metrics.ObserveEmbed(time.Since(start))
	if err != nil {
		// never default to accept on generator failure
		return rejectf(KindEmbeddingService, "embedding service failed: %v", err), nil
	}

	if _, err := face.Verify(profile, probe); err != nil {
		var mm *face.MismatchError
		if errors.As(err, &mm) {
			rej := rejectf(KindFaceMismatch, "face does not match (score %.1f, need %.0f)", mm.Score, face.AcceptThreshold)
			sc := mm.Score
			rej.Score = &sc
			return rej, nil
		}
		if errors.Is(err, face.ErrNotEnrolled) {
			return rejectf(KindMissingEnrollment, "no face enrolled for subject"), nil
		}
		return nil, fmt.Errorf("verify: %w", err)
	}
	return nil, nil
}

// publish fans the accepted record out to the queue. Best effort: the commit
// already happened and the response must not depend on the queue.
func (s *Service) publish(ctx context.Context, rec Record, hostel string) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(AcceptedEvent{
		RecordID:  rec.ID,
		SubjectID: rec.SubjectID,
		Hostel:    hostel,
		Date:      rec.Date,
		IsPresent: rec.IsPresent,
	})
	if err != nil {
		return
	}
	if err := s.events.Publish(ctx, queue.Message{Type: queue.TypeAccepted, Body: body}); err != nil {
		log.Printf("accepted event publish failed: %v", err)
	}
}
