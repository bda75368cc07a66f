// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/admitly/internal/domain/scoring"
)

// Assessment is one submitted set of credentials for a student.
// Exactly one of SAT and ACT is expected; the estimator enforces it.
type Assessment struct {
	ID          string    `json:"assessment_id"`       // unique id for idempotency
	StudentID   string    `json:"student_id"`          // applicant identifier
	GPA         float64   `json:"gpa"`                 // unweighted GPA as reported
	SAT         *float64  `json:"sat_score,omitempty"` // SAT total, nil when not taken
	ACT         *float64  `json:"act_score,omitempty"` // ACT composite, nil when not taken
	SubmittedAt time.Time `json:"submitted_at"`        // time the service accepted it
}

// Input maps the assessment onto the estimator input with default weights.
func (a Assessment) Input() scoring.Input {
	return scoring.Input{GPA: a.GPA, SAT: a.SAT, ACT: a.ACT}
}

// ScoredAssessment is an assessment after the composite was computed.
type ScoredAssessment struct {
	Assessment
	Result   scoring.Result `json:"result"`
	ScoredAt time.Time      `json:"scored_at"`
}
