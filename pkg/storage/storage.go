package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/benfordscope/benfordscope/pkg/entity"
)

var ErrNoRuns = errors.New("no runs archived")

// Fixed width so that started_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  id            TEXT PRIMARY KEY,
  year          INTEGER NOT NULL,
  source        TEXT NOT NULL,
  started_at    TEXT NOT NULL,
  entities      INTEGER NOT NULL,
  findings      INTEGER NOT NULL,
  fraud         REAL NOT NULL,
  fraud_percent REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_year ON runs(year, source, started_at);
CREATE TABLE IF NOT EXISTS results (
  run_id        TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  entity_id     TEXT NOT NULL,
  name          TEXT,
  votes_total   INTEGER NOT NULL,
  fraud         REAL NOT NULL,
  fraud_percent REAL NOT NULL,
  winner        INTEGER NOT NULL,
  electoral     INTEGER NOT NULL,
  PRIMARY KEY (run_id, entity_id)
);
CREATE TABLE IF NOT EXISTS findings (
  id           INTEGER PRIMARY KEY,
  run_id       TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  entity_id    TEXT NOT NULL,
  kind         TEXT NOT NULL CHECK (kind IN ('cross-section','time-series','window')),
  digit        INTEGER NOT NULL CHECK (digit IN (1,2)),
  fields       TEXT NOT NULL,
  total        INTEGER NOT NULL,
  chi          REAL NOT NULL,
  score        REAL NOT NULL,
  window_start INTEGER NOT NULL DEFAULT -1,
  window_end   INTEGER NOT NULL DEFAULT -1
);
CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id, score);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// SaveRun archives a run with its per-entity results and findings. The run
// gets a fresh id when it has none. The returned changes compare each
// entity's fraud percentage with the previous run of the same year and
// source; the first run of a year reports none.
func (d *DB) SaveRun(ctx context.Context, run *Run, results []*entity.Result) (changes []Change, err error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	run.Entities = len(results)
	run.Findings = 0
	for _, r := range results {
		run.Findings += len(r.Findings)
	}

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	previous, hasPrevious, err := previousResults(ctx, tx, run.Year, run.Source)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO runs(id, year, source, started_at, entities, findings, fraud, fraud_percent) VALUES(?,?,?,?,?,?,?,?)`,
		run.ID, run.Year, run.Source, run.StartedAt.UTC().Format(timeLayout), run.Entities, run.Findings, run.Fraud, run.FraudPercent)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(results))
	for _, r := range results {
		_, err = tx.ExecContext(ctx, `INSERT INTO results(run_id, entity_id, name, votes_total, fraud, fraud_percent, winner, electoral) VALUES(?,?,?,?,?,?,?,?)`,
			run.ID, r.ID, nullIfEmpty(r.Name), r.Votes.Total, r.Fraud, r.FraudPercent, r.Winner, r.Electoral)
		if err != nil {
			return nil, err
		}
		for _, f := range r.Findings {
			start, end := -1, -1
			if f.Window != nil {
				start, end = f.Window.Start, f.Window.End
			}
			_, err = tx.ExecContext(ctx, `INSERT INTO findings(run_id, entity_id, kind, digit, fields, total, chi, score, window_start, window_end) VALUES(?,?,?,?,?,?,?,?,?,?)`,
				run.ID, r.ID, f.Kind.String(), f.Digit, fieldsKey(f.Fields), f.Total, f.Chi, f.Score, start, end)
			if err != nil {
				return nil, err
			}
		}

		if !hasPrevious {
			continue
		}
		seen[r.ID] = true
		before, existed := previous[r.ID]
		switch {
		case !existed:
			changes = append(changes, Change{EntityID: r.ID, Name: r.Name, After: r.FraudPercent, ChangeType: "added"})
		case before.percent != r.FraudPercent:
			changes = append(changes, Change{EntityID: r.ID, Name: r.Name, Before: before.percent, After: r.FraudPercent, ChangeType: "updated"})
		}
	}
	for _, id := range sortedIDs(previous) {
		if !seen[id] {
			changes = append(changes, Change{EntityID: id, Name: previous[id].name, Before: previous[id].percent, ChangeType: "removed"})
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return changes, nil
}

type storedResult struct {
	name    string
	percent float64
}

func previousResults(ctx context.Context, tx *sql.Tx, year int, source string) (map[string]storedResult, bool, error) {
	var runID string
	err := tx.QueryRowContext(ctx, "SELECT id FROM runs WHERE year = ? AND source = ? ORDER BY started_at DESC LIMIT 1", year, source).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	rows, err := tx.QueryContext(ctx, "SELECT entity_id, name, fraud_percent FROM results WHERE run_id = ?", runID)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	out := make(map[string]storedResult)
	for rows.Next() {
		var (
			id   string
			name sql.NullString
			pct  float64
		)
		if err := rows.Scan(&id, &name, &pct); err != nil {
			return nil, false, err
		}
		out[id] = storedResult{name: name.String, percent: pct}
	}
	return out, true, rows.Err()
}

// LatestRun returns the most recent run, optionally restricted to a year.
func (d *DB) LatestRun(ctx context.Context, year int) (*Run, error) {
	q := "SELECT id, year, source, started_at, entities, findings, fraud, fraud_percent FROM runs"
	args := []interface{}{}
	if year != 0 {
		q += " WHERE year = ?"
		args = append(args, year)
	}
	q += " ORDER BY started_at DESC LIMIT 1"

	runs, err := d.queryRuns(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}
	return &runs[0], nil
}

// ListRuns returns the most recent runs first.
func (d *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	return d.queryRuns(ctx, "SELECT id, year, source, started_at, entities, findings, fraud, fraud_percent FROM runs ORDER BY started_at DESC LIMIT ?", limit)
}

func (d *DB) queryRuns(ctx context.Context, q string, args ...interface{}) ([]Run, error) {
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedAt string
		if err := rows.Scan(&r.ID, &r.Year, &r.Source, &startedAt, &r.Entities, &r.Findings, &r.Fraud, &r.FraudPercent); err != nil {
			return nil, err
		}
		r.StartedAt = parseTime(startedAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListFindings returns the findings of one run, highest score first.
func (d *DB) ListFindings(ctx context.Context, opts FindingFilter) ([]FindingRow, error) {
	runID := opts.RunID
	if runID == "" {
		latest, err := d.LatestRun(ctx, opts.Year)
		if err != nil {
			return nil, err
		}
		runID = latest.ID
	}

	where := "WHERE f.run_id = ?"
	args := []interface{}{runID}
	if opts.Kind != "" && opts.Kind != "all" {
		where += " AND f.kind = ?"
		args = append(args, opts.Kind)
	}
	if opts.MinScore > 0 {
		where += " AND f.score >= ?"
		args = append(args, opts.MinScore)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit)

	q := `SELECT f.run_id, r.year, r.source, f.entity_id, COALESCE(res.name, ''), f.kind, f.digit, f.fields, f.total, f.chi, f.score, f.window_start, f.window_end
FROM findings f
JOIN runs r ON r.id = f.run_id
LEFT JOIN results res ON res.run_id = f.run_id AND res.entity_id = f.entity_id
` + where + ` ORDER BY f.score DESC, f.entity_id, f.id LIMIT ?`
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FindingRow
	for rows.Next() {
		var f FindingRow
		if err := rows.Scan(&f.RunID, &f.Year, &f.Source, &f.EntityID, &f.Name, &f.Kind, &f.Digit, &f.Fields, &f.Total, &f.Chi, &f.Score, &f.WindowStart, &f.WindowEnd); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *DB) GetStats(ctx context.Context) ([]YearStats, error) {
	query := `
		SELECT
			year,
			source,
			COUNT(*),
			SUM(findings),
			MAX(fraud_percent),
			MAX(started_at)
		FROM
			runs
		GROUP BY
			year, source
		ORDER BY
			year, source;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []YearStats
	for rows.Next() {
		var s YearStats
		var lastRun string
		if err := rows.Scan(&s.Year, &s.Source, &s.RunCount, &s.FindingCount, &s.MaxPercent, &lastRun); err != nil {
			return nil, err
		}
		s.LastRun = parseTime(lastRun)
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	return time.Time{}
}

func sortedIDs(m map[string]storedResult) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// String renders the change the way `analyse --db` prints it.
func (c Change) String() string {
	switch c.ChangeType {
	case "added":
		return fmt.Sprintf("[+] %s %s %.2f", c.EntityID, c.Name, c.After)
	case "removed":
		return fmt.Sprintf("[-] %s %s %.2f", c.EntityID, c.Name, c.Before)
	default:
		return fmt.Sprintf("[~] %s %s %.2f -> %.2f", c.EntityID, c.Name, c.Before, c.After)
	}
}
