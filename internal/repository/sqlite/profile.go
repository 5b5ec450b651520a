package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/creamcroissant/boxbuild/internal/repository"
)

const profileColumns = `id, group_id, name, type, bean, custom_outbound_json, custom_config_json,
	sort_order, created_at, updated_at`

type profileRepo struct {
	db *sql.DB
}

func newProfileRepo(db *sql.DB) *profileRepo {
	return &profileRepo{db: db}
}

func (r *profileRepo) Create(ctx context.Context, profile *repository.ProxyEntity) error {
	kind, data, err := repository.EncodeBean(profile.Bean)
	if err != nil {
		return err
	}
	now := time.Now().Unix()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO proxy_entities (
			group_id, name, type, bean, custom_outbound_json, custom_config_json,
			sort_order, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		profile.GroupID, profile.Name, string(kind), string(data),
		profile.CustomOutboundJSON, profile.CustomConfigJSON,
		profile.SortOrder, profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	profile.ID = id
	return nil
}

func (r *profileRepo) FindByID(ctx context.Context, id int64) (*repository.ProxyEntity, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM proxy_entities WHERE id = ?`, id)
	profile, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return profile, err
}

func (r *profileRepo) FindByIDs(ctx context.Context, ids []int64) ([]*repository.ProxyEntity, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM proxy_entities WHERE id IN (`+placeholders(len(ids))+`) ORDER BY id ASC`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	profiles, err := scanProfiles(rows)
	if err != nil {
		return nil, err
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })
	return profiles, nil
}

func (r *profileRepo) ListByGroup(ctx context.Context, groupID int64) ([]*repository.ProxyEntity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+profileColumns+`
		FROM proxy_entities
		WHERE group_id = ?
		ORDER BY sort_order ASC, id ASC
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProfiles(rows)
}

func (r *profileRepo) List(ctx context.Context) ([]*repository.ProxyEntity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+profileColumns+`
		FROM proxy_entities
		ORDER BY group_id ASC, sort_order ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProfiles(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*repository.ProxyEntity, error) {
	var (
		profile repository.ProxyEntity
		kind    string
		bean    string
	)
	if err := row.Scan(
		&profile.ID, &profile.GroupID, &profile.Name, &kind, &bean,
		&profile.CustomOutboundJSON, &profile.CustomConfigJSON,
		&profile.SortOrder, &profile.CreatedAt, &profile.UpdatedAt,
	); err != nil {
		return nil, err
	}
	decoded, err := repository.DecodeBean(repository.BeanKind(kind), []byte(bean))
	if err != nil {
		return nil, fmt.Errorf("profile %d: %w", profile.ID, err)
	}
	profile.Bean = decoded
	return &profile, nil
}

func scanProfiles(rows *sql.Rows) ([]*repository.ProxyEntity, error) {
	var profiles []*repository.ProxyEntity
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}
