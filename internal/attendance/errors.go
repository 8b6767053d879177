package attendance

import "fmt"

// Kind discriminates terminal check-in rejections. Clients branch on the
// kind, never on message text.
type Kind string

const (
	KindDuplicateRecord   Kind = "duplicate_record"
	KindOutsideGeofence   Kind = "outside_geofence"
	KindMissingEnrollment Kind = "missing_enrollment"
	KindFaceMismatch      Kind = "face_mismatch"
	KindEmbeddingService  Kind = "embedding_service_error"
	KindSubjectNotFound   Kind = "subject_not_found"
	KindValidation        Kind = "validation_error"
)

// Rejection is a typed refusal of a check-in request. DistanceMeters is set
// for geofence failures in radius mode; Score for biometric mismatches.
type Rejection struct {
	Kind           Kind
	Message        string
	DistanceMeters *float64
	Score          *float64
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Kind, r.Message)
}

func rejectf(kind Kind, format string, args ...any) *Rejection {
	return &Rejection{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
