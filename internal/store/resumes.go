package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"jobscout-engine/internal/domain"
)

func (d *DB) CreateResume(ctx context.Context, r *domain.Resume) error {
	exp, err := json.Marshal(r.Experience)
	if err != nil {
		return fmt.Errorf("encode experience: %w", err)
	}
	edu, err := json.Marshal(r.Education)
	if err != nil {
		return fmt.Errorf("encode education: %w", err)
	}
	res, err := d.Pool.ExecContext(ctx, `
INSERT INTO resumes (user_id, name, contact, summary, experience, education)
VALUES (?, ?, ?, ?, ?, ?);`,
		r.UserID, r.Name, r.Contact, r.Summary, string(exp), string(edu))
	if err != nil {
		return fmt.Errorf("insert resume: %w", err)
	}
	r.ID, _ = res.LastInsertId()
	return nil
}

func (d *DB) GetResume(ctx context.Context, id int64) (*domain.Resume, error) {
	var (
		r        domain.Resume
		exp, edu string
	)
	err := d.Pool.QueryRowContext(ctx, `
SELECT id, user_id, name, contact, summary, experience, education
FROM resumes WHERE id = ?;`, id).
		Scan(&r.ID, &r.UserID, &r.Name, &r.Contact, &r.Summary, &exp, &edu)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("resume %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(exp), &r.Experience); err != nil {
		return nil, fmt.Errorf("decode experience: %w", err)
	}
	if err := json.Unmarshal([]byte(edu), &r.Education); err != nil {
		return nil, fmt.Errorf("decode education: %w", err)
	}
	return &r, nil
}
