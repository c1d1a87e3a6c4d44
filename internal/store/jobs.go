package store

import (
	"context"
	"database/sql"
	"fmt"

	"jobscout-engine/internal/domain"
)

func (d *DB) InsertJob(ctx context.Context, job *domain.Job) error {
	res, err := d.Pool.ExecContext(ctx, `
INSERT INTO jobs (user_id, company_id, title_id, location_id, source_id, status_id, automation_id,
  url, description, salary, match_score, match_data, discovery_status, discovered_at, posted_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		job.UserID, job.CompanyID, job.TitleID, job.LocationID, job.SourceID, job.StatusID,
		nullInt64(job.AutomationID), job.URL, job.Description, job.Salary,
		job.MatchScore, job.MatchData, string(job.DiscoveryStatus),
		timeStr(job.DiscoveredAt), nullTimeStr(job.PostedAt))
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	job.ID, _ = res.LastInsertId()
	return nil
}

// JobURLs returns every stored job URL for the user. URLs are persisted in
// normalized form, so callers can compare them directly.
func (d *DB) JobURLs(ctx context.Context, userID int64) ([]string, error) {
	rows, err := d.Pool.QueryContext(ctx,
		`SELECT url FROM jobs WHERE user_id = ? AND url != '';`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// JobView joins a job row with its reference names for the API surface.
type JobView struct {
	ID              int64   `json:"id"`
	Company         string  `json:"company"`
	Title           string  `json:"title"`
	Location        string  `json:"location"`
	Source          string  `json:"source"`
	Status          string  `json:"status"`
	AutomationID    *int64  `json:"automationId,omitempty"`
	URL             string  `json:"url"`
	Salary          string  `json:"salary,omitempty"`
	MatchScore      int     `json:"matchScore"`
	MatchData       string  `json:"matchData,omitempty"`
	DiscoveryStatus string  `json:"discoveryStatus"`
	DiscoveredAt    string  `json:"discoveredAt"`
	PostedAt        *string `json:"postedAt,omitempty"`
}

func (d *DB) ListJobs(ctx context.Context, userID int64, limit int) ([]JobView, error) {
	if limit <= 0 || limit > 2000 {
		limit = 500
	}
	rows, err := d.Pool.QueryContext(ctx, `
SELECT j.id, c.name, t.name, l.name, src.name, st.name, j.automation_id,
       j.url, j.salary, j.match_score, j.match_data, j.discovery_status, j.discovered_at, j.posted_at
FROM jobs j
JOIN companies c ON c.id = j.company_id
JOIN job_titles t ON t.id = j.title_id
JOIN locations l ON l.id = j.location_id
JOIN job_sources src ON src.id = j.source_id
JOIN job_statuses st ON st.id = j.status_id
WHERE j.user_id = ?
ORDER BY j.match_score DESC, j.discovered_at DESC
LIMIT ?;`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []JobView
	for rows.Next() {
		var (
			v            JobView
			automationID sql.NullInt64
			postedAt     sql.NullString
		)
		if err := rows.Scan(&v.ID, &v.Company, &v.Title, &v.Location, &v.Source, &v.Status,
			&automationID, &v.URL, &v.Salary, &v.MatchScore, &v.MatchData,
			&v.DiscoveryStatus, &v.DiscoveredAt, &postedAt); err != nil {
			return nil, err
		}
		if automationID.Valid {
			v.AutomationID = &automationID.Int64
		}
		if postedAt.Valid {
			v.PostedAt = &postedAt.String
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// SetJobDiscoveryStatus moves a job through the review flow (new, dismissed,
// accepted).
func (d *DB) SetJobDiscoveryStatus(ctx context.Context, userID, jobID int64, status domain.DiscoveryStatus) error {
	res, err := d.Pool.ExecContext(ctx,
		`UPDATE jobs SET discovery_status = ? WHERE id = ? AND user_id = ?;`,
		string(status), jobID, userID)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("job %d: %w", jobID, ErrNotFound)
	}
	return nil
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
