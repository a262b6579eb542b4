package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/kilianp07/podplan/core/model"
	_ "modernc.org/sqlite"
)

// SQLiteResults mirrors the results log of each run into a SQLite
// database so batches can be compared across runs.
type SQLiteResults struct {
	db    *sql.DB
	runID string
	now   func() time.Time
}

// NewSQLiteResults opens or creates the database and ensures schema. Rows
// appended afterwards are tagged with runID.
func NewSQLiteResults(path, runID string) (*SQLiteResults, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrIO, err)
	}
	schema := `CREATE TABLE IF NOT EXISTS solve_results (
        run_id TEXT,
        subset TEXT,
        objective REAL,
        gap REAL,
        status TEXT,
        duration_ms INTEGER,
        solved_at INTEGER,
        PRIMARY KEY(run_id, subset)
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", model.ErrIO, err)
	}
	return &SQLiteResults{db: db, runID: runID, now: time.Now}, nil
}

// RunID returns the tag applied to appended rows.
func (s *SQLiteResults) RunID() string { return s.runID }

// Append inserts or replaces the row of a subset in the current run.
func (s *SQLiteResults) Append(row model.ResultRow) error {
	var obj sql.NullFloat64
	if row.Objective != nil {
		obj = sql.NullFloat64{Float64: *row.Objective, Valid: true}
	}
	_, err := s.db.Exec(`INSERT INTO solve_results (run_id, subset, objective, gap, status, duration_ms, solved_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(run_id, subset) DO UPDATE SET
            objective = excluded.objective,
            gap = excluded.gap,
            status = excluded.status,
            duration_ms = excluded.duration_ms,
            solved_at = excluded.solved_at`,
		s.runID, row.Subset.Key(), obj, row.Gap, row.Status, row.Duration.Milliseconds(), s.now().Unix())
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrIO, err)
	}
	return nil
}

// Query returns the rows of a run ordered by insertion.
func (s *SQLiteResults) Query(runID string) ([]model.ResultRow, error) {
	rows, err := s.db.Query(`SELECT subset, objective, gap, status, duration_ms
        FROM solve_results WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrIO, err)
	}
	defer func() { _ = rows.Close() }()
	var res []model.ResultRow
	for rows.Next() {
		var key, status string
		var obj sql.NullFloat64
		var gap float64
		var ms int64
		if err := rows.Scan(&key, &obj, &gap, &status, &ms); err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrIO, err)
		}
		subset, err := model.ParseSubset(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrData, err)
		}
		r := model.ResultRow{Subset: subset, Gap: gap, Status: status, Duration: time.Duration(ms) * time.Millisecond}
		if obj.Valid {
			v := obj.Float64
			r.Objective = &v
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrIO, err)
	}
	return res, nil
}

// Runs lists the run ids stored in the database, most recent first.
func (s *SQLiteResults) Runs() ([]string, error) {
	rows, err := s.db.Query(`SELECT run_id FROM solve_results GROUP BY run_id ORDER BY MAX(solved_at) DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrIO, err)
	}
	defer func() { _ = rows.Close() }()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrIO, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteResults) Close() error { return s.db.Close() }
