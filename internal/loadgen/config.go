// Package loadgen submits synthetic applicants to a running estimator and
// verifies the cohort it builds.
package loadgen

import (
	"time"

	"github.com/okian/admitly/internal/domain/reference"
	"github.com/okian/admitly/internal/domain/types"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL       string        // Base URL of the service
	NumApplicants int           // Number of applicants to generate
	TopN          int           // Number of top entries to fetch
	Workers       int           // Number of concurrent workers
	Timeout       time.Duration // HTTP request timeout
	SettleTimeout time.Duration // How long to wait for the cohort to absorb submissions
	SATShare      float64       // Fraction of applicants reporting SAT rather than ACT
	Seed          uint64        // Seed for the applicant generator
	OutputFile    string        // Optional JSON dump of generated applicants
	Verbose       bool          // Log every failure
}

// Applicant is one generated submission together with the composite the
// client expects the server to compute for it.
type Applicant struct {
	AssessmentID string   `json:"assessment_id"`
	StudentID    string   `json:"student_id"`
	GPA          float64  `json:"gpa"`
	SAT          *float64 `json:"sat_score,omitempty"`
	ACT          *float64 `json:"act_score,omitempty"`
	Expected     float64  `json:"-"`
}

// Entry is a cohort entry as served by the API.
type Entry = types.Entry

// referenceView is the subset of GET /v1/reference the generator needs.
type referenceView struct {
	reference.Statistics
	WeightTest float64 `json:"weight_test"`
	WeightGPA  float64 `json:"weight_gpa"`
}

type submitResponse struct {
	ID     string `json:"assessment_id"`
	Status string `json:"status"`
}

type statsResponse struct {
	CohortSize int   `json:"cohort_size"`
	Processed  int64 `json:"processed"`
	Failed     int64 `json:"failed"`
}

// Stats holds run statistics.
type Stats struct {
	Generated         int
	Submitted         int
	Accepted          int
	Duplicate         int
	Failed            int
	RankingsRetrieved int
	TopEntries        int
	Mismatches        int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
