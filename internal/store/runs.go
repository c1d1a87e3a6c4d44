package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"jobscout-engine/internal/domain"
)

func (d *DB) CreateRun(ctx context.Context, run *domain.AutomationRun) error {
	counts, err := json.Marshal(run.Counts)
	if err != nil {
		return fmt.Errorf("encode counts: %w", err)
	}
	_, err = d.Pool.ExecContext(ctx, `
INSERT INTO automation_runs (id, automation_id, status, counts, error_message, blocked_reason, started_at, completed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
		run.ID, run.AutomationID, string(run.Status), string(counts),
		run.ErrorMessage, run.BlockedReason, timeStr(run.StartedAt), nullTimeStr(run.CompletedAt))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinalizeRun writes the terminal state. Counts, status and errors are
// rewritten wholesale so a crashed-then-recovered run still lands consistent.
func (d *DB) FinalizeRun(ctx context.Context, run *domain.AutomationRun) error {
	counts, err := json.Marshal(run.Counts)
	if err != nil {
		return fmt.Errorf("encode counts: %w", err)
	}
	res, err := d.Pool.ExecContext(ctx, `
UPDATE automation_runs
SET status = ?, counts = ?, error_message = ?, blocked_reason = ?, completed_at = ?
WHERE id = ?;`,
		string(run.Status), string(counts), run.ErrorMessage, run.BlockedReason,
		nullTimeStr(run.CompletedAt), run.ID)
	if err != nil {
		return fmt.Errorf("finalize run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", run.ID, ErrNotFound)
	}
	return nil
}

func (d *DB) GetRun(ctx context.Context, id string) (*domain.AutomationRun, error) {
	row := d.Pool.QueryRowContext(ctx, `
SELECT id, automation_id, status, counts, error_message, blocked_reason, started_at, completed_at
FROM automation_runs WHERE id = ?;`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return run, err
}

func (d *DB) ListRuns(ctx context.Context, automationID int64, limit int) ([]domain.AutomationRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.Pool.QueryContext(ctx, `
SELECT id, automation_id, status, counts, error_message, blocked_reason, started_at, completed_at
FROM automation_runs
WHERE automation_id = ?
ORDER BY started_at DESC
LIMIT ?;`, automationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AutomationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

func scanRun(row rowScanner) (*domain.AutomationRun, error) {
	var (
		run         domain.AutomationRun
		status      string
		counts      string
		startedAt   string
		completedAt sql.NullString
	)
	if err := row.Scan(&run.ID, &run.AutomationID, &status, &counts,
		&run.ErrorMessage, &run.BlockedReason, &startedAt, &completedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(counts), &run.Counts); err != nil {
		return nil, fmt.Errorf("decode counts: %w", err)
	}
	run.Status = domain.RunStatus(status)
	run.StartedAt = parseTime(startedAt)
	run.CompletedAt = parseNullTime(completedAt)
	return &run, nil
}
