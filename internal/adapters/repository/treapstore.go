package repository

import (
	"context"
	"fmt"
	"hash/maphash"
	"math"
	"sync"
	"time"

	"github.com/okian/admitly/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: composite DESC, then studentID ASC. "less" means ranks
// earlier, so in-order traversal yields the cohort from best to worst.
// Priorities come from a hash of the student id, which keeps the tree
// balanced in expectation regardless of insertion order.

type node struct {
	id    string
	score float64
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) should appear before (bScore, bID).
func less(aScore float64, aID string, bScore float64, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score float64, prio uint64) *node {
	if n == nil {
		return &node{id: id, score: score, prio: prio, size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score float64) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// walk visits nodes in rank order until visit returns false.
func walk(n *node, visit func(*node) bool) bool {
	if n == nil {
		return true
	}
	if !walk(n.left, visit) {
		return false
	}
	if !visit(n) {
		return false
	}
	return walk(n.right, visit)
}

// record is the metadata kept for a student's best assessment.
type record struct {
	score        float64
	assessmentID string
	testLabel    string
}

// TreapStore implements Store.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]record
	seed maphash.Seed
}

// NewTreapStore constructs an empty cohort.
func NewTreapStore() *TreapStore {
	metrics.UpdateCohortSize(0)
	return &TreapStore{
		byID: make(map[string]record),
		seed: maphash.MakeSeed(),
	}
}

// UpdateBest implements Store.UpdateBest in O(log n) expected time.
// Equal composites keep the earlier assessment.
func (s *TreapStore) UpdateBest(_ context.Context, e Entry) (bool, error) {
	start := time.Now()
	defer observe("update", start)

	if e.StudentID == "" || math.IsNaN(e.Composite) {
		return false, fmt.Errorf("%w: student %q composite %v", ErrInvalidEntry, e.StudentID, e.Composite)
	}

	s.mu.Lock()
	if old, ok := s.byID[e.StudentID]; ok {
		if e.Composite <= old.score {
			s.mu.Unlock()
			return false, nil
		}
		s.root = deleteNode(s.root, e.StudentID, old.score)
	}
	s.byID[e.StudentID] = record{score: e.Composite, assessmentID: e.AssessmentID, testLabel: e.TestLabel}
	s.root = insert(s.root, e.StudentID, e.Composite, maphash.String(s.seed, e.StudentID))
	size := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateCohortSize(size)
	return true, nil
}

// Rank returns the dense rank of a student: one more than the number of
// distinct composites above theirs.
func (s *TreapStore) Rank(_ context.Context, studentID string) (Entry, error) {
	start := time.Now()
	defer observe("rank", start)

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[studentID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, studentID)
	}

	// Composites above rec.score all precede it in rank order.
	var r ranker
	walk(s.root, func(n *node) bool {
		if n.score <= rec.score {
			return false
		}
		r.next(n.score)
		return true
	})
	rank := r.rank + 1
	return s.entry(rank, studentID, rec), nil
}

// TopN returns the top N entries with dense ranks.
func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer observe("top", start)

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, min(n, len(s.byID)))
	var r ranker
	walk(s.root, func(nd *node) bool {
		out = append(out, s.entry(r.next(nd.score), nd.id, s.byID[nd.id]))
		return len(out) < n
	})
	return out, nil
}

// Count returns the number of students.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Composites returns the best composite of every student in rank order.
func (s *TreapStore) Composites(_ context.Context) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]float64, 0, len(s.byID))
	walk(s.root, func(n *node) bool {
		out = append(out, n.score)
		return true
	})
	return out
}

func (s *TreapStore) entry(rank int, id string, rec record) Entry {
	return Entry{
		Rank:         rank,
		StudentID:    id,
		Composite:    rec.score,
		AssessmentID: rec.assessmentID,
		TestLabel:    rec.testLabel,
	}
}

// ranker assigns dense ranks to composites visited in rank order.
type ranker struct {
	rank int
	prev float64
}

func (r *ranker) next(score float64) int {
	if r.rank == 0 || score != r.prev {
		r.rank++
		r.prev = score
	}
	return r.rank
}

func observe(op string, start time.Time) {
	metrics.RecordRepositoryLatency(op, float64(time.Since(start).Microseconds())/1000)
}
