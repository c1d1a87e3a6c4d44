package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"jobscout-engine/internal/entity"
)

// refTables whitelists the table per entity kind; anything else is a bug.
var refTables = map[entity.Kind]string{
	entity.KindCompany:   "companies",
	entity.KindJobTitle:  "job_titles",
	entity.KindLocation:  "locations",
	entity.KindJobSource: "job_sources",
	entity.KindJobStatus: "job_statuses",
}

func refTable(kind entity.Kind) (string, error) {
	table, ok := refTables[kind]
	if !ok {
		return "", fmt.Errorf("unknown entity kind %q", kind)
	}
	return table, nil
}

func (d *DB) FindBySlug(ctx context.Context, kind entity.Kind, userID int64, slug string) (*entity.Ref, error) {
	table, err := refTable(kind)
	if err != nil {
		return nil, err
	}
	var ref entity.Ref
	err = d.Pool.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, name, slug FROM %s WHERE user_id = ? AND slug = ?;`, table),
		userID, slug).Scan(&ref.ID, &ref.Name, &ref.Slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", kind, err)
	}
	return &ref, nil
}

func (d *DB) ListRefs(ctx context.Context, kind entity.Kind, userID int64) ([]entity.Ref, error) {
	table, err := refTable(kind)
	if err != nil {
		return nil, err
	}
	rows, err := d.Pool.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, name, slug FROM %s WHERE user_id = ? ORDER BY id;`, table), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Ref
	for rows.Next() {
		var ref entity.Ref
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.Slug); err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

// CreateRef is idempotent on (user_id, slug): a concurrent insert loses the
// race to INSERT OR IGNORE and falls back to the lookup.
func (d *DB) CreateRef(ctx context.Context, kind entity.Kind, userID int64, name, slug string) (entity.Ref, error) {
	table, err := refTable(kind)
	if err != nil {
		return entity.Ref{}, err
	}
	if _, err := d.Pool.ExecContext(ctx,
		fmt.Sprintf(`INSERT OR IGNORE INTO %s (user_id, name, slug) VALUES (?, ?, ?);`, table),
		userID, name, slug); err != nil {
		return entity.Ref{}, fmt.Errorf("create %s: %w", kind, err)
	}
	ref, err := d.FindBySlug(ctx, kind, userID, slug)
	if err != nil {
		return entity.Ref{}, err
	}
	if ref == nil {
		return entity.Ref{}, fmt.Errorf("create %s: row vanished after insert", kind)
	}
	return *ref, nil
}
