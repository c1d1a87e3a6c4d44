package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	Pool *sql.DB
}

func Open(path string) (*DB, error) {
	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)

	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	pool.SetMaxOpenConns(1) // sqlite typically wants 1 writer
	pool.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}

	return &DB{Pool: pool}, nil
}

func (d *DB) Close() error {
	if d == nil || d.Pool == nil {
		return nil
	}
	return d.Pool.Close()
}

func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}

	if v >= 1 {
		return tx.Commit()
	}

	// ---- Schema v1: tables ----

	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS resumes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL,
  name TEXT NOT NULL,
  contact TEXT NOT NULL DEFAULT '',
  summary TEXT NOT NULL DEFAULT '',
  experience TEXT NOT NULL DEFAULT '[]',
  education TEXT NOT NULL DEFAULT '[]'
);`,
		`
CREATE TABLE IF NOT EXISTS automations (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL,
  name TEXT NOT NULL,
  job_board TEXT NOT NULL,
  keywords TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL DEFAULT '',
  connector_params TEXT NOT NULL DEFAULT '{}',
  resume_id INTEGER NOT NULL REFERENCES resumes(id),
  match_threshold INTEGER NOT NULL DEFAULT 70,
  schedule_hour INTEGER NOT NULL DEFAULT 8,
  status TEXT NOT NULL DEFAULT 'active',
  next_run_at TEXT,
  last_run_at TEXT
);`,
		`
CREATE TABLE IF NOT EXISTS automation_runs (
  id TEXT PRIMARY KEY,
  automation_id INTEGER NOT NULL REFERENCES automations(id) ON DELETE CASCADE,
  status TEXT NOT NULL,
  counts TEXT NOT NULL DEFAULT '{}',
  error_message TEXT NOT NULL DEFAULT '',
  blocked_reason TEXT NOT NULL DEFAULT '',
  started_at TEXT NOT NULL,
  completed_at TEXT
);`,
		refTableDDL("companies"),
		refTableDDL("job_titles"),
		refTableDDL("locations"),
		refTableDDL("job_sources"),
		refTableDDL("job_statuses"),
		`
CREATE TABLE IF NOT EXISTS jobs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL,
  company_id INTEGER NOT NULL REFERENCES companies(id),
  title_id INTEGER NOT NULL REFERENCES job_titles(id),
  location_id INTEGER NOT NULL REFERENCES locations(id),
  source_id INTEGER NOT NULL REFERENCES job_sources(id),
  status_id INTEGER NOT NULL REFERENCES job_statuses(id),
  automation_id INTEGER REFERENCES automations(id) ON DELETE SET NULL,
  url TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  salary TEXT NOT NULL DEFAULT '',
  match_score INTEGER NOT NULL DEFAULT 0,
  match_data TEXT NOT NULL DEFAULT '{}',
  discovery_status TEXT NOT NULL DEFAULT 'new',
  discovered_at TEXT NOT NULL,
  posted_at TEXT
);`,

		// ---- Schema v1: indexes ----

		`CREATE INDEX IF NOT EXISTS idx_jobs_user ON jobs(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_automation ON jobs(automation_id);`,
		`CREATE INDEX IF NOT EXISTS idx_automations_next_run ON automations(status, next_run_at);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_automation ON automation_runs(automation_id, started_at);`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	// Mark schema v1
	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}

	return tx.Commit()
}

// refTableDDL: all five reference kinds share one shape. Global kinds
// (job_sources, job_statuses) keep user_id at 0.
func refTableDDL(table string) string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL DEFAULT 0,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  UNIQUE(user_id, slug)
);`, table)
}

// time columns are stored as RFC3339 TEXT.

func timeStr(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func nullTimeStr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return timeStr(*t)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}
