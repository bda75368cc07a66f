package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/admitly/internal/domain/model"
)

// AssessmentLog persists scored assessments.
type AssessmentLog interface {
	Save(ctx context.Context, a model.ScoredAssessment) error
	Get(ctx context.Context, id string) (model.ScoredAssessment, error)
	ListBest(ctx context.Context) ([]model.ScoredAssessment, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.ScoredAssessment, error)
	Count(ctx context.Context) (int, error)
}

// memLog is the AssessmentLog used when no database is configured.
type memLog struct {
	mu   sync.RWMutex
	byID map[string]model.ScoredAssessment
}

func newMemLog() *memLog {
	return &memLog{byID: make(map[string]model.ScoredAssessment)}
}

func (m *memLog) Save(_ context.Context, a model.ScoredAssessment) error { //nolint:gocritic // hugeParam: value semantics
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[a.ID]; !ok {
		m.byID[a.ID] = a
	}
	return nil
}

func (m *memLog) Get(_ context.Context, id string) (model.ScoredAssessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.byID[id]
	if !ok {
		return model.ScoredAssessment{}, fmt.Errorf("%w: assessment %s", ErrNotFound, id)
	}
	return a, nil
}

func (m *memLog) ListBest(_ context.Context) ([]model.ScoredAssessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	best := make(map[string]model.ScoredAssessment)
	for _, a := range m.byID {
		cur, ok := best[a.StudentID]
		if !ok || a.Result.Composite > cur.Result.Composite ||
			(a.Result.Composite == cur.Result.Composite && a.ScoredAt.Before(cur.ScoredAt)) {
			best[a.StudentID] = a
		}
	}
	out := make([]model.ScoredAssessment, 0, len(best))
	for _, a := range best {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Result.Composite != out[j].Result.Composite {
			return out[i].Result.Composite > out[j].Result.Composite
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out, nil
}

// ListByStudent returns a student's assessments, newest first.
func (m *memLog) ListByStudent(_ context.Context, studentID string) ([]model.ScoredAssessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.ScoredAssessment
	for _, a := range m.byID {
		if a.StudentID == studentID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScoredAt.Equal(out[j].ScoredAt) {
			return out[i].ScoredAt.After(out[j].ScoredAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memLog) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID), nil
}
