package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

func ensureSchema(ctx context.Context, db *sqlx.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS assessments (
  id TEXT PRIMARY KEY,
  student_id TEXT NOT NULL,
  gpa REAL NOT NULL,
  sat REAL,
  act REAL,
  composite REAL NOT NULL,
  gpa_percentile REAL NOT NULL,
  test_percentile REAL NOT NULL,
  test_label TEXT NOT NULL,
  reference_version TEXT NOT NULL,
  submitted_at INTEGER NOT NULL,
  scored_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS assessments_student_idx ON assessments (student_id, composite DESC);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS assessments (
  id TEXT PRIMARY KEY,
  student_id TEXT NOT NULL,
  gpa DOUBLE PRECISION NOT NULL,
  sat DOUBLE PRECISION,
  act DOUBLE PRECISION,
  composite DOUBLE PRECISION NOT NULL,
  gpa_percentile DOUBLE PRECISION NOT NULL,
  test_percentile DOUBLE PRECISION NOT NULL,
  test_label TEXT NOT NULL,
  reference_version TEXT NOT NULL,
  submitted_at BIGINT NOT NULL,
  scored_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS assessments_student_idx ON assessments (student_id, composite DESC);
`
