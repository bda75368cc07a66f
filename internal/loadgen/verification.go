package loadgen

import (
	"fmt"
	"math"
	"sort"
)

// compositeTolerance bounds the difference between the server's composite
// and the local estimator's.
const compositeTolerance = 1e-9

// Mismatch describes one disagreement found by verification.
type Mismatch struct {
	StudentID string
	Reason    string
}

// verifyComposites compares each retrieved entry with the applicant's
// expected composite. Zero entries (failed lookups) count as missing.
func verifyComposites(applicants []Applicant, entries []Entry) []Mismatch {
	var out []Mismatch
	for i, a := range applicants {
		e := entries[i]
		switch {
		case e.StudentID == "":
			out = append(out, Mismatch{a.StudentID, "missing from cohort"})
		case e.AssessmentID != a.AssessmentID:
			out = append(out, Mismatch{a.StudentID,
				fmt.Sprintf("best assessment %s, want %s", e.AssessmentID, a.AssessmentID)})
		case math.Abs(e.Composite-a.Expected) > compositeTolerance:
			out = append(out, Mismatch{a.StudentID,
				fmt.Sprintf("composite %.12f, want %.12f", e.Composite, a.Expected)})
		}
	}
	return out
}

// verifyTop checks that top is ordered by composite and densely ranked.
func verifyTop(top []Entry) []Mismatch {
	var out []Mismatch
	for i, e := range top {
		if i == 0 {
			if e.Rank != 1 {
				out = append(out, Mismatch{e.StudentID, fmt.Sprintf("first entry has rank %d", e.Rank)})
			}
			continue
		}
		prev := top[i-1]
		switch {
		case e.Composite > prev.Composite:
			out = append(out, Mismatch{e.StudentID,
				fmt.Sprintf("entry %d composite %.6f above entry %d", i, e.Composite, i-1)})
		case e.Composite == prev.Composite && e.Rank != prev.Rank:
			out = append(out, Mismatch{e.StudentID, fmt.Sprintf("tied entry %d has rank %d, want %d", i, e.Rank, prev.Rank)})
		case e.Composite < prev.Composite && e.Rank != prev.Rank+1:
			out = append(out, Mismatch{e.StudentID, fmt.Sprintf("entry %d has rank %d, want %d", i, e.Rank, prev.Rank+1)})
		}
	}
	return out
}

// verifyRanks checks the individually fetched ranks against the expected
// dense ranking of all applicants. It only applies when the cohort holds
// exactly these applicants.
func verifyRanks(applicants []Applicant, entries []Entry) []Mismatch {
	composites := make([]float64, 0, len(applicants))
	for _, a := range applicants {
		composites = append(composites, a.Expected)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(composites)))
	dense := make(map[float64]int, len(composites))
	rank := 0
	for i, c := range composites {
		if i == 0 || c != composites[i-1] {
			rank++
			dense[c] = rank
		}
	}

	var out []Mismatch
	for i, a := range applicants {
		e := entries[i]
		if e.StudentID == "" {
			continue
		}
		if want := dense[a.Expected]; e.Rank != want {
			out = append(out, Mismatch{a.StudentID, fmt.Sprintf("rank %d, want %d", e.Rank, want)})
		}
	}
	return out
}
