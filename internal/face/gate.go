package face

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// EmbeddingDim is the vector length produced by the embedding model
// (MobileFaceNet-class models emit 192 floats).
const EmbeddingDim = 192

// AcceptThreshold is the minimum 0-100 similarity score that counts as a
// match. Fixed configuration constant, not user-tunable.
const AcceptThreshold = 50.0

// ErrNotEnrolled means the subject has no stored enrollment profile.
// Absence of a profile is a first-class state, not a storage failure.
var ErrNotEnrolled = errors.New("face: subject not enrolled")

// EnrollmentProfile is a subject's stored face embedding, captured once
// at registration.
type EnrollmentProfile struct {
	SubjectID string    `json:"subjectId"`
	Embedding []float64 `json:"embedding"`
}

// MismatchError is a below-threshold comparison; Score is kept for the
// caller's diagnostic message.
type MismatchError struct {
	Score float64
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("face: similarity %.2f below threshold %.0f", e.Score, AcceptThreshold)
}

// Score returns cosine similarity between the two vectors scaled to 0-100.
// Mismatched lengths and zero-magnitude vectors score 0 rather than erroring;
// neither can ever clear the threshold.
func Score(enrolled, probe []float64) float64 {
	if len(enrolled) == 0 || len(enrolled) != len(probe) {
		return 0
	}
	na := floats.Norm(enrolled, 2)
	nb := floats.Norm(probe, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(enrolled, probe) / (na * nb) * 100
}

// Verify compares a stored enrollment against a probe embedding. It returns
// the 0-100 score alongside nil on acceptance, ErrNotEnrolled when no profile
// exists, or a MismatchError when the score falls below the threshold.
func Verify(enrollment *EnrollmentProfile, probe []float64) (float64, error) {
	if enrollment == nil || len(enrollment.Embedding) == 0 {
		return 0, ErrNotEnrolled
	}
	score := Score(enrollment.Embedding, probe)
	if score < AcceptThreshold {
		return score, &MismatchError{Score: score}
	}
	return score, nil
}
