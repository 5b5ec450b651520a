package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/creamcroissant/boxbuild/internal/repository"
)

type groupRepo struct {
	db *sql.DB
}

func newGroupRepo(db *sql.DB) *groupRepo {
	return &groupRepo{db: db}
}

func (r *groupRepo) Create(ctx context.Context, group *repository.Group) error {
	now := time.Now().Unix()
	group.CreatedAt = now
	group.UpdatedAt = now

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO proxy_groups (
			name, front_proxy_id, landing_proxy_id, is_selector, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`,
		group.Name, nullableInt(group.FrontProxyID), nullableInt(group.LandingProxyID),
		boolToInt(group.IsSelector), group.CreatedAt, group.UpdatedAt,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	group.ID = id
	return nil
}

func (r *groupRepo) Update(ctx context.Context, group *repository.Group) error {
	group.UpdatedAt = time.Now().Unix()
	_, err := r.db.ExecContext(ctx, `
		UPDATE proxy_groups SET
			name = ?, front_proxy_id = ?, landing_proxy_id = ?, is_selector = ?, updated_at = ?
		WHERE id = ?
	`,
		group.Name, nullableInt(group.FrontProxyID), nullableInt(group.LandingProxyID),
		boolToInt(group.IsSelector), group.UpdatedAt, group.ID,
	)
	return err
}

func (r *groupRepo) FindByID(ctx context.Context, id int64) (*repository.Group, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, front_proxy_id, landing_proxy_id, is_selector, created_at, updated_at
		FROM proxy_groups WHERE id = ?
	`, id)
	group, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return group, err
}

func (r *groupRepo) List(ctx context.Context) ([]*repository.Group, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, front_proxy_id, landing_proxy_id, is_selector, created_at, updated_at
		FROM proxy_groups ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*repository.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func scanGroup(row rowScanner) (*repository.Group, error) {
	var (
		group    repository.Group
		front    sql.NullInt64
		landing  sql.NullInt64
		selector int
	)
	if err := row.Scan(&group.ID, &group.Name, &front, &landing, &selector, &group.CreatedAt, &group.UpdatedAt); err != nil {
		return nil, err
	}
	group.FrontProxyID = nullableIntPtr(front)
	group.LandingProxyID = nullableIntPtr(landing)
	group.IsSelector = selector == 1
	return &group, nil
}
