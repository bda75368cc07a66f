package worker_test

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/admitly/internal/adapters/mq/queue"
	"github.com/okian/admitly/internal/adapters/mq/worker"
	"github.com/okian/admitly/internal/domain/model"
	"github.com/okian/admitly/internal/domain/scoring"
	"github.com/okian/admitly/internal/domain/types"
	"github.com/okian/admitly/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeCohort struct {
	mu      sync.Mutex
	best    map[string]types.Entry
	failFor string
}

func newFakeCohort() *fakeCohort { return &fakeCohort{best: map[string]types.Entry{}} }

func (c *fakeCohort) UpdateBest(_ context.Context, e types.Entry) (bool, error) {
	if e.StudentID == c.failFor {
		return false, errors.New("cohort unavailable")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.best[e.StudentID]; ok && cur.Composite >= e.Composite {
		return false, nil
	}
	c.best[e.StudentID] = e
	return true, nil
}

func (c *fakeCohort) get(id string) (types.Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.best[id]
	return e, ok
}

type fakeRecorder struct {
	mu    sync.Mutex
	saved []model.ScoredAssessment
	err   error
}

func (r *fakeRecorder) Save(_ context.Context, s model.ScoredAssessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, s)
	return nil
}

func (r *fakeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

func sat(id, student string, gpa, score float64) model.Assessment {
	return model.Assessment{ID: id, StudentID: student, GPA: gpa, SAT: scoring.Float(score)}
}

func TestPool(t *testing.T) {
	Convey("Given a pool over a queue, estimator, recorder and cohort", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		est := scoring.NewEstimator()
		cohort := newFakeCohort()
		rec := &fakeRecorder{}
		pool := worker.NewPool(3, q, est, cohort, worker.WithRecorder(rec))
		pool.Start(ctx)

		Convey("When assessments are submitted and the pool is drained", func() {
			So(q.Enqueue(ctx, sat("a1", "s1", 3.0, 1100)), ShouldBeTrue)
			So(q.Enqueue(ctx, sat("a2", "s1", 3.2, 1400)), ShouldBeTrue)
			So(q.Enqueue(ctx, sat("a3", "s2", 2.9, 1200)), ShouldBeTrue)
			So(pool.Shutdown(ctx), ShouldBeNil)

			Convey("Then every assessment should be recorded", func() {
				So(rec.count(), ShouldEqual, 3)
				So(pool.Processed(), ShouldEqual, 3)
				So(pool.Failed(), ShouldEqual, 0)
				So(pool.Size(), ShouldEqual, 3)
			})

			Convey("And the cohort should keep each student's best composite", func() {
				want, _ := est.Composite(scoring.Input{GPA: 3.2, SAT: scoring.Float(1400)})
				best, ok := cohort.get("s1")
				So(ok, ShouldBeTrue)
				So(best.AssessmentID, ShouldEqual, "a2")
				So(best.Composite, ShouldEqual, want.Composite)
				So(best.TestLabel, ShouldEqual, "SAT")
			})
		})

		Convey("When an assessment carries both tests", func() {
			bad := sat("bad", "s3", 3.0, 1200)
			bad.ACT = scoring.Float(25)
			q.Enqueue(ctx, bad)
			q.Enqueue(ctx, sat("good", "s4", 3.0, 1200))
			So(pool.Shutdown(ctx), ShouldBeNil)

			Convey("Then it should be counted as failed and skipped", func() {
				So(pool.Failed(), ShouldEqual, 1)
				So(pool.Processed(), ShouldEqual, 1)
				_, ok := cohort.get("s3")
				So(ok, ShouldBeFalse)
				So(rec.count(), ShouldEqual, 1)
			})
		})

		Convey("When the cohort update fails", func() {
			cohort.failFor = "s5"
			q.Enqueue(ctx, sat("a5", "s5", 3.0, 1200))
			So(pool.Shutdown(ctx), ShouldBeNil)

			Convey("Then the assessment should still be recorded but counted as failed", func() {
				So(rec.count(), ShouldEqual, 1)
				So(pool.Failed(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a recorder that fails", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		cohort := newFakeCohort()
		pool := worker.NewPool(1, q, scoring.NewEstimator(), cohort, worker.WithRecorder(&fakeRecorder{err: errors.New("disk full")}))
		pool.Start(ctx)

		Convey("When an assessment is processed", func() {
			q.Enqueue(ctx, sat("a1", "s1", 3.0, 1200))
			So(pool.Shutdown(ctx), ShouldBeNil)

			Convey("Then the cohort should still be updated", func() {
				_, ok := cohort.get("s1")
				So(ok, ShouldBeTrue)
				So(pool.Processed(), ShouldEqual, 1)
			})
		})
	})
}

type blockingScorer struct{ release chan struct{} }

func (b blockingScorer) Score(ctx context.Context, in scoring.Input) (scoring.Result, error) {
	select {
	case <-b.release:
	case <-ctx.Done():
		return scoring.Result{}, ctx.Err()
	}
	return scoring.NewEstimator().Score(ctx, in)
}

func TestWorkerShutdown(t *testing.T) {
	Convey("Given a single worker", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		w := worker.NewInMemoryWorker(q, scoring.NewEstimator(), newFakeCohort(), worker.WithName("solo"))
		go w.Run(ctx)

		Convey("When shut down", func() {
			sctx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()

			Convey("Then it should stop promptly and tolerate a second call", func() {
				So(w.Shutdown(sctx), ShouldBeNil)
				So(w.Shutdown(sctx), ShouldBeNil)
			})
		})
	})

	Convey("Given a pool stuck on a slow scorer", t, func() {
		runCtx, cancelRun := context.WithCancel(context.Background())
		defer cancelRun()
		release := make(chan struct{})
		defer close(release)

		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		pool := worker.NewPool(1, q, blockingScorer{release: release}, newFakeCohort())
		pool.Start(runCtx)
		q.Enqueue(runCtx, sat("a1", "s1", 3.0, 1200))

		Convey("When the drain deadline passes", func() {
			sctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			err := pool.Shutdown(sctx)

			Convey("Then Shutdown should report the deadline", func() {
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})
	})
}
