// Package repository holds the applicant cohort: the best composite per
// student, ranked.
package repository

import (
	"context"

	"github.com/okian/admitly/internal/domain/types"
)

// Entry represents a cohort row.
type Entry = types.Entry

// Store provides read/write access to the ranking state.
type Store interface {
	// UpdateBest keeps e if its composite beats the student's current best.
	// Returns true if the store changed.
	UpdateBest(ctx context.Context, e Entry) (bool, error)

	// Rank returns the dense rank and best entry for a student.
	// Returns ErrNotFound if the student is unknown.
	Rank(ctx context.Context, studentID string) (Entry, error)

	// TopN returns the top-N entries ordered by composite desc, student id asc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of students in the cohort.
	Count(ctx context.Context) int

	// Composites returns every student's best composite, in rank order.
	Composites(ctx context.Context) []float64
}
