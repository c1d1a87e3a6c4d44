package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jobscout-engine/internal/domain"
)

var ErrNotFound = errors.New("not found")

const automationCols = `id, user_id, name, job_board, keywords, location, connector_params,
resume_id, match_threshold, schedule_hour, status, next_run_at, last_run_at`

func (d *DB) CreateAutomation(ctx context.Context, a *domain.Automation) error {
	params, err := json.Marshal(a.ConnectorParams)
	if err != nil {
		return fmt.Errorf("encode connector params: %w", err)
	}
	res, err := d.Pool.ExecContext(ctx, `
INSERT INTO automations (user_id, name, job_board, keywords, location, connector_params,
  resume_id, match_threshold, schedule_hour, status, next_run_at, last_run_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		a.UserID, a.Name, a.JobBoard, a.Keywords, a.Location, string(params),
		a.ResumeID, a.MatchThreshold, a.ScheduleHour, string(a.Status),
		nullTimeStr(a.NextRunAt), nullTimeStr(a.LastRunAt))
	if err != nil {
		return fmt.Errorf("insert automation: %w", err)
	}
	a.ID, _ = res.LastInsertId()
	return nil
}

func (d *DB) GetAutomation(ctx context.Context, id int64) (*domain.Automation, error) {
	row := d.Pool.QueryRowContext(ctx,
		`SELECT `+automationCols+` FROM automations WHERE id = ?;`, id)
	a, err := scanAutomation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("automation %d: %w", id, ErrNotFound)
	}
	return a, err
}

func (d *DB) ListAutomations(ctx context.Context, userID int64) ([]domain.Automation, error) {
	rows, err := d.Pool.QueryContext(ctx,
		`SELECT `+automationCols+` FROM automations WHERE user_id = ? ORDER BY id;`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Automation
	for rows.Next() {
		a, err := scanAutomation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// ListDueAutomations returns active automations whose next_run_at has passed.
func (d *DB) ListDueAutomations(ctx context.Context, now time.Time) ([]domain.Automation, error) {
	rows, err := d.Pool.QueryContext(ctx, `
SELECT `+automationCols+`
FROM automations
WHERE status = 'active' AND next_run_at IS NOT NULL AND next_run_at <= ?
ORDER BY next_run_at;`, timeStr(now))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Automation
	for rows.Next() {
		a, err := scanAutomation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// PauseAutomation clears the schedule; a paused automation never becomes due.
func (d *DB) PauseAutomation(ctx context.Context, id int64) error {
	return d.updateStatus(ctx, id, domain.AutomationPaused, nil)
}

// ResumeAutomation reactivates with a fresh next_run_at computed by the caller.
func (d *DB) ResumeAutomation(ctx context.Context, id int64, nextRunAt time.Time) error {
	return d.updateStatus(ctx, id, domain.AutomationActive, &nextRunAt)
}

func (d *DB) updateStatus(ctx context.Context, id int64, status domain.AutomationStatus, nextRunAt *time.Time) error {
	res, err := d.Pool.ExecContext(ctx,
		`UPDATE automations SET status = ?, next_run_at = ? WHERE id = ?;`,
		string(status), nullTimeStr(nextRunAt), id)
	if err != nil {
		return fmt.Errorf("update automation status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("automation %d: %w", id, ErrNotFound)
	}
	return nil
}

// RescheduleAutomation records a finished run and plants the next one.
func (d *DB) RescheduleAutomation(ctx context.Context, id int64, lastRunAt time.Time, nextRunAt *time.Time) error {
	_, err := d.Pool.ExecContext(ctx,
		`UPDATE automations SET last_run_at = ?, next_run_at = ? WHERE id = ? AND status = 'active';`,
		timeStr(lastRunAt), nullTimeStr(nextRunAt), id)
	if err != nil {
		return fmt.Errorf("reschedule automation: %w", err)
	}
	return nil
}

func (d *DB) DeleteAutomation(ctx context.Context, id int64) error {
	res, err := d.Pool.ExecContext(ctx, `DELETE FROM automations WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete automation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("automation %d: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAutomation(row rowScanner) (*domain.Automation, error) {
	var (
		a         domain.Automation
		params    string
		status    string
		nextRunAt sql.NullString
		lastRunAt sql.NullString
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.JobBoard, &a.Keywords, &a.Location, &params,
		&a.ResumeID, &a.MatchThreshold, &a.ScheduleHour, &status, &nextRunAt, &lastRunAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(params), &a.ConnectorParams); err != nil {
		return nil, fmt.Errorf("decode connector params: %w", err)
	}
	a.Status = domain.AutomationStatus(status)
	a.NextRunAt = parseNullTime(nextRunAt)
	a.LastRunAt = parseNullTime(lastRunAt)
	return &a, nil
}
