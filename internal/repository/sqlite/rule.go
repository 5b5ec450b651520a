package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/creamcroissant/boxbuild/internal/repository"
)

type ruleRepo struct {
	db *sql.DB
}

func newRuleRepo(db *sql.DB) *ruleRepo {
	return &ruleRepo{db: db}
}

func (r *ruleRepo) Create(ctx context.Context, rule *repository.Rule) error {
	packages, err := encodeStringSlice(rule.Packages)
	if err != nil {
		return fmt.Errorf("encode rule packages: %w", err)
	}
	now := time.Now().Unix()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO routing_rules (
			name, enabled, domains, ip, port, source_port, network, source,
			protocol, packages, outbound, sort_order, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rule.Name, boolToInt(rule.Enabled), rule.Domains, rule.IP, rule.Port, rule.SourcePort,
		rule.Network, rule.Source, rule.Protocol, packages, rule.Outbound.Sentinel(),
		rule.SortOrder, rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rule.ID = id
	return nil
}

func (r *ruleRepo) ListEnabled(ctx context.Context) ([]*repository.Rule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, enabled, domains, ip, port, source_port, network, source,
			protocol, packages, outbound, sort_order, created_at, updated_at
		FROM routing_rules
		WHERE enabled = 1
		ORDER BY sort_order ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*repository.Rule
	for rows.Next() {
		var (
			rule     repository.Rule
			enabled  int
			packages sql.NullString
			outbound int64
		)
		if err := rows.Scan(
			&rule.ID, &rule.Name, &enabled, &rule.Domains, &rule.IP, &rule.Port, &rule.SourcePort,
			&rule.Network, &rule.Source, &rule.Protocol, &packages, &outbound,
			&rule.SortOrder, &rule.CreatedAt, &rule.UpdatedAt,
		); err != nil {
			return nil, err
		}
		rule.Enabled = enabled == 1
		rule.Outbound = repository.OutboundFromSentinel(outbound)
		if rule.Packages, err = decodeJSONSlice(packages.String); err != nil {
			return nil, fmt.Errorf("rule %d packages: %w", rule.ID, err)
		}
		rules = append(rules, &rule)
	}
	return rules, rows.Err()
}
