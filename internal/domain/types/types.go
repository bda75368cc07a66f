// Package types contains common types used across the application
package types

// Entry represents a cohort ranking entry
type Entry struct {
	Rank         int     `json:"rank"`
	StudentID    string  `json:"student_id"`
	Composite    float64 `json:"composite"`
	AssessmentID string  `json:"assessment_id"`
	TestLabel    string  `json:"test_label"`
}

// Summary describes the distribution of composites across the cohort.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Q25    float64 `json:"q25"`
	Q50    float64 `json:"q50"`
	Q75    float64 `json:"q75"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}
