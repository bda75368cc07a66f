// Package sqlstore is the assessment log: every scored assessment, kept in
// SQLite or Postgres.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // driver: sqlite

	"github.com/okian/admitly/internal/domain/model"
	"github.com/okian/admitly/internal/domain/scoring"
)

// Driver selects the database backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

const (
	defaultSQLiteDSN   = "file:admitly.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
	defaultPostgresDSN = "postgres://localhost:5432/admitly?sslmode=disable"
)

func init() { //nolint:gochecknoinits // modernc registers as "sqlite", which sqlx does not know
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Store implements the assessment log over sqlx.
type Store struct {
	db     *sqlx.DB
	driver Driver
}

// row mirrors the assessments table.
type row struct {
	ID               string          `db:"id"`
	StudentID        string          `db:"student_id"`
	GPA              float64         `db:"gpa"`
	SAT              sql.NullFloat64 `db:"sat"`
	ACT              sql.NullFloat64 `db:"act"`
	Composite        float64         `db:"composite"`
	GPAPercentile    float64         `db:"gpa_percentile"`
	TestPercentile   float64         `db:"test_percentile"`
	TestLabel        string          `db:"test_label"`
	ReferenceVersion string          `db:"reference_version"`
	SubmittedAt      int64           `db:"submitted_at"`
	ScoredAt         int64           `db:"scored_at"`
}

const columns = `id, student_id, gpa, sat, act, composite, gpa_percentile, test_percentile,
  test_label, reference_version, submitted_at, scored_at`

// Open opens a DB and ensures the schema exists. An empty dsn selects the
// driver's local default.
func Open(ctx context.Context, driver Driver, dsn string) (*Store, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite"
		if dsn == "" {
			dsn = defaultSQLiteDSN
		}
	case DriverPostgres:
		drvName = "pgx"
		if dsn == "" {
			dsn = defaultPostgresDSN
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := sqlx.ConnectContext(ctx, drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// one writer; also keeps ":memory:" databases on a single connection
		db.SetMaxOpenConns(1)
	}
	if err := ensureSchema(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, driver: driver}, nil
}

// Driver reports the backend in use.
func (s *Store) Driver() Driver { return s.driver }

// Save inserts a scored assessment. Saving an id twice keeps the first row.
func (s *Store) Save(ctx context.Context, a model.ScoredAssessment) error { //nolint:gocritic // hugeParam: value semantics
	r := toRow(a)
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO assessments (`+columns+`)
VALUES (:id, :student_id, :gpa, :sat, :act, :composite, :gpa_percentile, :test_percentile,
  :test_label, :reference_version, :submitted_at, :scored_at)
ON CONFLICT (id) DO NOTHING`, r)
	if err != nil {
		return fmt.Errorf("save assessment %s: %w", a.ID, err)
	}
	return nil
}

// Get returns one scored assessment by id.
func (s *Store) Get(ctx context.Context, id string) (model.ScoredAssessment, error) {
	var r row
	err := s.db.GetContext(ctx, &r, s.db.Rebind(`SELECT `+columns+` FROM assessments WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ScoredAssessment{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return model.ScoredAssessment{}, fmt.Errorf("get assessment %s: %w", id, err)
	}
	return r.model(), nil
}

// ListBest returns each student's highest-composite assessment; ties keep
// the earliest scored one.
func (s *Store) ListBest(ctx context.Context) ([]model.ScoredAssessment, error) {
	var rows []row
	err := s.db.SelectContext(ctx, &rows, `SELECT `+columns+` FROM (
  SELECT `+columns+`,
    ROW_NUMBER() OVER (PARTITION BY student_id ORDER BY composite DESC, scored_at ASC, id ASC) AS rn
  FROM assessments
) best WHERE rn = 1 ORDER BY composite DESC, student_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list best assessments: %w", err)
	}
	out := make([]model.ScoredAssessment, len(rows))
	for i := range rows {
		out[i] = rows[i].model()
	}
	return out, nil
}

// ListByStudent returns a student's assessments, newest first.
func (s *Store) ListByStudent(ctx context.Context, studentID string) ([]model.ScoredAssessment, error) {
	var rows []row
	err := s.db.SelectContext(ctx, &rows,
		s.db.Rebind(`SELECT `+columns+` FROM assessments WHERE student_id = ? ORDER BY scored_at DESC, id ASC`), studentID)
	if err != nil {
		return nil, fmt.Errorf("list assessments for %s: %w", studentID, err)
	}
	out := make([]model.ScoredAssessment, len(rows))
	for i := range rows {
		out[i] = rows[i].model()
	}
	return out, nil
}

// Count returns the number of logged assessments.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM assessments`); err != nil {
		return 0, fmt.Errorf("count assessments: %w", err)
	}
	return n, nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func toRow(a model.ScoredAssessment) row { //nolint:gocritic // hugeParam: value semantics
	r := row{
		ID:               a.ID,
		StudentID:        a.StudentID,
		GPA:              a.GPA,
		Composite:        a.Result.Composite,
		GPAPercentile:    a.Result.GPAPercentile,
		TestPercentile:   a.Result.TestPercentile,
		TestLabel:        string(a.Result.TestLabel),
		ReferenceVersion: a.Result.ReferenceVersion,
		SubmittedAt:      a.SubmittedAt.UnixNano(),
		ScoredAt:         a.ScoredAt.UnixNano(),
	}
	if a.SAT != nil {
		r.SAT = sql.NullFloat64{Float64: *a.SAT, Valid: true}
	}
	if a.ACT != nil {
		r.ACT = sql.NullFloat64{Float64: *a.ACT, Valid: true}
	}
	return r
}

func (r *row) model() model.ScoredAssessment {
	a := model.ScoredAssessment{
		Assessment: model.Assessment{
			ID:          r.ID,
			StudentID:   r.StudentID,
			GPA:         r.GPA,
			SubmittedAt: time.Unix(0, r.SubmittedAt).UTC(),
		},
		Result: scoring.Result{
			Composite:        r.Composite,
			GPAPercentile:    r.GPAPercentile,
			TestPercentile:   r.TestPercentile,
			TestLabel:        scoring.TestLabel(r.TestLabel),
			ReferenceVersion: r.ReferenceVersion,
		},
		ScoredAt: time.Unix(0, r.ScoredAt).UTC(),
	}
	if r.SAT.Valid {
		a.SAT = scoring.Float(r.SAT.Float64)
	}
	if r.ACT.Valid {
		a.ACT = scoring.Float(r.ACT.Float64)
	}
	return a
}
