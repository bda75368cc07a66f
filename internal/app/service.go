// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aclements/go-moremath/stats"
	"github.com/google/uuid"
	gstat "gonum.org/v1/gonum/stat"

	assessmentqueue "github.com/okian/admitly/internal/adapters/mq/queue"
	workerpool "github.com/okian/admitly/internal/adapters/mq/worker"
	"github.com/okian/admitly/internal/adapters/repository"
	"github.com/okian/admitly/internal/adapters/sqlstore"
	"github.com/okian/admitly/internal/domain/dedupe"
	"github.com/okian/admitly/internal/domain/describe"
	"github.com/okian/admitly/internal/domain/model"
	"github.com/okian/admitly/internal/domain/percentile"
	"github.com/okian/admitly/internal/domain/reference"
	"github.com/okian/admitly/internal/domain/scoring"
	"github.com/okian/admitly/internal/domain/types"
	"github.com/okian/admitly/pkg/logger"
	"github.com/okian/admitly/pkg/metrics"
)

const shutdownTimeout = 30 * time.Second

// SubmitStatus reports what happened to a submitted assessment.
type SubmitStatus string

const (
	StatusAccepted  SubmitStatus = "accepted"
	StatusDuplicate SubmitStatus = "duplicate"
)

// EstimateRequest is one synchronous estimate.
type EstimateRequest struct {
	GPA         float64
	SAT         *float64
	ACT         *float64
	WeightTest  *float64
	WeightGPA   *float64
	NApplicants int
	Locale      describe.Locale
}

// Estimate is the composite plus its description.
type Estimate struct {
	scoring.Result
	Description describe.Description `json:"description"`
}

// ReferenceView is the active calibration as served to clients.
type ReferenceView struct {
	reference.Statistics
	GPAQuartiles percentile.Quartiles `json:"gpa_quartiles"`
	WeightTest   float64              `json:"weight_test"`
	WeightGPA    float64              `json:"weight_gpa"`
}

// Service implements the API dependencies for the estimator and the cohort.
type Service struct {
	mu sync.RWMutex

	// Core components
	estimator *scoring.Estimator
	cohort    repository.Store
	deduper   dedupe.Deduper
	queue     *assessmentqueue.InMemoryQueue
	pool      *workerpool.Pool
	log       AssessmentLog

	// Configuration
	workerCount       int
	queueSize         int
	dedupeSize        int
	ref               reference.Statistics
	weightTest        float64
	weightGPA         float64
	defaultApplicants int

	// State
	started bool
	runCtx  context.Context
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a new Service with default configuration. The estimator
// is usable immediately; the submission pipeline needs Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:       runtime.NumCPU() * 2,
		queueSize:         10000,
		dedupeSize:        dedupe.DefaultMaxSize,
		ref:               reference.Default(),
		weightTest:        0.5,
		weightGPA:         0.5,
		defaultApplicants: describe.DefaultApplicants,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.log == nil {
		s.log = newMemLog()
	}
	s.estimator = scoring.NewEstimator(
		scoring.WithReference(s.ref),
		scoring.WithWeights(s.weightTest, s.weightGPA),
	)
	s.cohort = repository.NewTreapStore()
	return s
}

// Start builds the submission pipeline and warms the cohort from the
// assessment log.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting estimator service...")

	deduper, err := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	if err != nil {
		return fmt.Errorf("create deduper: %w", err)
	}
	s.deduper = deduper

	warmed, err := s.warm(ctx)
	if err != nil {
		return err
	}

	s.queue = assessmentqueue.NewInMemoryQueue(assessmentqueue.WithCapacity(s.queueSize))
	s.runCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.estimator, s.cohort,
		workerpool.WithRecorder(s.log),
		workerpool.WithLogger(s.logger.Named("worker")),
	)
	s.pool.Start(s.runCtx)

	s.started = true
	s.logger.Info(ctx, "estimator service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("warmed", warmed),
		logger.String("reference", s.ref.Version),
	)
	return nil
}

// warm loads each student's best logged assessment into the cohort.
func (s *Service) warm(ctx context.Context) (int, error) {
	best, err := s.log.ListBest(ctx)
	if err != nil {
		return 0, fmt.Errorf("warm cohort: %w", err)
	}
	for _, a := range best {
		if _, err := s.cohort.UpdateBest(ctx, types.Entry{
			StudentID:    a.StudentID,
			Composite:    a.Result.Composite,
			AssessmentID: a.ID,
			TestLabel:    string(a.Result.TestLabel),
		}); err != nil {
			return 0, fmt.Errorf("warm cohort: %w", err)
		}
		s.deduper.SeenAndRecord(ctx, a.ID)
	}
	return len(best), nil
}

// Stop drains pending assessments and shuts the pipeline down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping estimator service...")
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	s.cancel()
	s.started = false
	s.logger.Info(ctx, "estimator service stopped",
		logger.Int("processed", int(s.pool.Processed())),
		logger.Int("failed", int(s.pool.Failed())),
	)
}

// Estimate computes a composite and describes it.
func (s *Service) Estimate(ctx context.Context, req EstimateRequest) (Estimate, error) { //nolint:gocritic // hugeParam: value semantics
	start := time.Now()
	res, err := s.estimator.Composite(scoring.Input{
		GPA:        req.GPA,
		SAT:        req.SAT,
		ACT:        req.ACT,
		WeightTest: req.WeightTest,
		WeightGPA:  req.WeightGPA,
	})
	if err != nil {
		if reason := scoring.Reason(err); reason != "" {
			metrics.RecordInvalidInput(reason)
		}
		s.logger.Debug(ctx, "estimate rejected", logger.Error(err))
		return Estimate{}, err
	}
	metrics.RecordEstimate(string(res.TestLabel), res.Composite, float64(time.Since(start).Microseconds())/1000)

	return Estimate{
		Result:      res,
		Description: s.Describe(ctx, res.Composite, req.NApplicants, req.Locale),
	}, nil
}

// Describe renders a percentile for the given locale and applicant pool.
func (s *Service) Describe(_ context.Context, p float64, nApplicants int, locale describe.Locale) describe.Description {
	if nApplicants <= 0 {
		nApplicants = s.defaultApplicants
	}
	d := describe.In(locale, p, nApplicants)
	metrics.RecordDescription(string(d.Locale))
	return d
}

// Reference returns the active calibration.
func (s *Service) Reference(_ context.Context) ReferenceView {
	wt, wg := s.estimator.Weights()
	ref := s.estimator.Reference()
	return ReferenceView{
		Statistics:   ref,
		GPAQuartiles: ref.GPAQuartiles(),
		WeightTest:   wt,
		WeightGPA:    wg,
	}
}

// SubmitResult identifies a submitted assessment.
type SubmitResult struct {
	ID     string       `json:"assessment_id"`
	Status SubmitStatus `json:"status"`
}

// Submit validates an assessment and queues it for scoring. Invalid
// combinations fail synchronously; a full queue returns ErrBackpressure
// and forgets the id so the client can retry.
func (s *Service) Submit(ctx context.Context, a model.Assessment) (SubmitResult, error) { //nolint:gocritic // hugeParam: value semantics
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return SubmitResult{}, ErrNotStarted
	}
	if a.StudentID == "" {
		return SubmitResult{}, fmt.Errorf("%w: student id is required", ErrInvalid)
	}
	if _, err := s.estimator.Composite(a.Input()); err != nil {
		if reason := scoring.Reason(err); reason != "" {
			metrics.RecordInvalidInput(reason)
		}
		return SubmitResult{}, err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.SubmittedAt.IsZero() {
		a.SubmittedAt = time.Now().UTC()
	}

	if s.deduper.SeenAndRecord(ctx, a.ID) {
		metrics.RecordAssessmentDuplicate()
		s.logger.Debug(ctx, "duplicate assessment", logger.String("assessment_id", a.ID))
		return SubmitResult{ID: a.ID, Status: StatusDuplicate}, nil
	}
	if !s.queue.Enqueue(ctx, a) {
		s.deduper.Unrecord(ctx, a.ID)
		return SubmitResult{}, ErrBackpressure
	}
	metrics.RecordAssessmentAccepted()
	return SubmitResult{ID: a.ID, Status: StatusAccepted}, nil
}

// Assessment returns a scored assessment from the log.
func (s *Service) Assessment(ctx context.Context, id string) (model.ScoredAssessment, error) {
	a, err := s.log.Get(ctx, id)
	if errors.Is(err, sqlstore.ErrNotFound) && !errors.Is(err, ErrNotFound) {
		return model.ScoredAssessment{}, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return a, err
}

// History returns every logged assessment for a student, newest first.
func (s *Service) History(ctx context.Context, studentID string) ([]model.ScoredAssessment, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, fmt.Errorf("%w: student id is required", ErrInvalid)
	}
	out, err := s.log.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no assessments for student %s", ErrNotFound, studentID)
	}
	return out, nil
}

// Ping checks the assessment log when it is backed by a database.
func (s *Service) Ping(ctx context.Context) error {
	p, ok := s.log.(interface{ Ping(ctx context.Context) error })
	if !ok {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// TopN returns the top N cohort entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	entries, err := s.cohort.TopN(ctx, n)
	if errors.Is(err, repository.ErrInvalidLimit) {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return entries, err
}

// Rank returns the cohort entry for a student.
func (s *Service) Rank(ctx context.Context, studentID string) (types.Entry, error) {
	e, err := s.cohort.Rank(ctx, studentID)
	if errors.Is(err, repository.ErrNotFound) {
		return types.Entry{}, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return e, err
}

// Summary describes the distribution of best composites in the cohort.
func (s *Service) Summary(ctx context.Context) types.Summary {
	xs := s.cohort.Composites(ctx)
	if len(xs) == 0 {
		return types.Summary{}
	}
	sort.Float64s(xs)

	sample := stats.Sample{Xs: xs, Sorted: true}
	lo, hi := sample.Bounds()
	sum := types.Summary{
		Count: len(xs),
		Mean:  sample.Mean(),
		Q25:   gstat.Quantile(0.25, gstat.LinInterp, xs, nil),
		Q50:   gstat.Quantile(0.5, gstat.LinInterp, xs, nil),
		Q75:   gstat.Quantile(0.75, gstat.LinInterp, xs, nil),
		Min:   lo,
		Max:   hi,
	}
	if len(xs) > 1 {
		sum.StdDev = sample.StdDev()
	}
	return sum
}

// Stats is a point-in-time view of the service for monitoring.
type Stats struct {
	Started          bool   `json:"started"`
	WorkerCount      int    `json:"worker_count"`
	QueueCapacity    int    `json:"queue_capacity"`
	QueueLength      int    `json:"queue_length"`
	DedupeSize       int64  `json:"dedupe_size"`
	CohortSize       int    `json:"cohort_size"`
	Processed        int64  `json:"processed"`
	Failed           int64  `json:"failed"`
	Stored           int    `json:"stored_assessments"`
	ReferenceVersion string `json:"reference_version"`
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Started:          s.started,
		WorkerCount:      s.workerCount,
		QueueCapacity:    s.queueSize,
		CohortSize:       s.cohort.Count(ctx),
		ReferenceVersion: s.ref.Version,
	}
	if s.started {
		st.QueueLength = s.queue.Len(ctx)
		st.DedupeSize = s.deduper.Size()
		st.Processed = s.pool.Processed()
		st.Failed = s.pool.Failed()
	}
	if n, err := s.log.Count(ctx); err != nil {
		s.logger.Warn(ctx, "count assessment log", logger.Error(err))
	} else {
		st.Stored = n
	}
	metrics.UpdateCohortSize(st.CohortSize)
	return st
}
