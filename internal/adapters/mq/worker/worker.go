// Package worker drains the assessment queue: score, record, rank.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/admitly/internal/domain/model"
	"github.com/okian/admitly/internal/domain/scoring"
	"github.com/okian/admitly/internal/domain/types"
	"github.com/okian/admitly/pkg/logger"
	"github.com/okian/admitly/pkg/metrics"
)

const defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()

// Assessment abstracts what workers read off the queue.
type Assessment = model.Assessment

// Queue defines how workers receive assessments.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Assessment
}

// Recorder persists scored assessments.
type Recorder interface {
	Save(ctx context.Context, s model.ScoredAssessment) error
}

// Updater keeps the best composite per student.
type Updater interface {
	UpdateBest(ctx context.Context, e types.Entry) (bool, error)
}

// Worker processes assessments until the queue closes or ctx is done.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	scorer   scoring.Scorer
	recorder Recorder
	updater  Updater
	name     string

	processed atomic.Int64
	failed    atomic.Int64

	once     sync.Once
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, scorer scoring.Scorer, updater Updater, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		scorer:   scorer,
		updater:  updater,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(logger.String("worker", w.name))
	return w
}

// Run starts the worker loop. Pending assessments are drained after the
// queue closes; Shutdown or ctx stop it immediately.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	items := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case a, ok := <-items:
			if !ok {
				return
			}
			if err := w.process(ctx, a); err != nil {
				w.failed.Add(1)
				w.logger.Error(ctx, "error processing assessment",
					logger.String("assessment_id", a.ID),
					logger.Error(err),
				)
				continue
			}
			w.processed.Add(1)
		}
	}
}

// Shutdown stops the worker without waiting for the queue to drain.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	w.once.Do(func() { close(w.shutdown) })
}

func (w *InMemoryWorker) process(ctx context.Context, a Assessment) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	res, err := w.scorer.Score(ctx, a.Input())
	if err != nil {
		metrics.RecordWorkerError("score")
		metrics.RecordErrorByComponent("worker", "scoring_error")
		if reason := scoring.Reason(err); reason != "" {
			metrics.RecordInvalidInput(reason)
			metrics.RecordErrorByType("invalid_input", "low")
		} else {
			metrics.RecordErrorByType("scoring_error", "high")
		}
		return fmt.Errorf("score assessment %s: %w", a.ID, err)
	}
	metrics.RecordAssessmentScored()
	metrics.RecordEstimate(string(res.TestLabel), res.Composite, float64(time.Since(start).Microseconds())/1000)

	scored := model.ScoredAssessment{Assessment: a, Result: res, ScoredAt: time.Now().UTC()}
	if w.recorder != nil {
		// The cohort is still updated when the log write fails; the
		// assessment stays rankable until restart.
		if err := w.recorder.Save(ctx, scored); err != nil {
			metrics.RecordAssessmentLogWrite("error")
			metrics.RecordWorkerError("record")
			metrics.RecordErrorByComponent("worker", "record_error")
			w.logger.Error(ctx, "assessment log write failed",
				logger.String("assessment_id", a.ID),
				logger.Error(err),
			)
		} else {
			metrics.RecordAssessmentLogWrite("ok")
		}
	}

	updated, err := w.updater.UpdateBest(ctx, types.Entry{
		StudentID:    a.StudentID,
		Composite:    res.Composite,
		AssessmentID: a.ID,
		TestLabel:    string(res.TestLabel),
	})
	if err != nil {
		metrics.RecordWorkerError("rank")
		metrics.RecordErrorByComponent("worker", "cohort_error")
		metrics.RecordErrorByType("cohort_error", "high")
		return fmt.Errorf("cohort update for %s: %w", a.ID, err)
	}
	if updated {
		metrics.RecordCohortUpdate()
	}
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers; non-positive counts use
// a multiple of the CPU count.
func NewPool(workerCount int, q Queue, scorer scoring.Scorer, updater Updater, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, scorer, updater, wopts...)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of assessments scored and ranked.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.processed.Load()
	}
	return n
}

// Failed returns the number of assessments that could not be processed.
func (p *Pool) Failed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.failed.Load()
	}
	return n
}

// Shutdown closes the queue and waits for the workers to drain it. Workers
// still busy when ctx is done are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	var err error
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			w.stop()
			err = fmt.Errorf("drain workers: %w", ctx.Err())
		}
	}
	metrics.UpdateWorkerCount(0)
	return err
}
