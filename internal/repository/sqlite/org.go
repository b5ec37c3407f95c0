package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/sysmgr/internal/domain"
)

type orgRepo struct {
	db *sql.DB
}

// Create inserts the org together with its user groups.
func (r *orgRepo) Create(ctx context.Context, org *domain.Org) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, "INSERT INTO orgs (name, created_at) VALUES (?, ?)", org.Name, now)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: org %q already exists", domain.ErrInvalidInput, org.Name)
		}
		return fmt.Errorf("insert org: %w", err)
	}
	orgID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get org id: %w", err)
	}

	groups := make([]domain.UserGroup, len(org.UserGroups))
	for i, g := range org.UserGroups {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO user_groups (org_id, name, role) VALUES (?, ?, ?)",
			orgID, g.Name, string(g.Role),
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return fmt.Errorf("%w: duplicate group for role %s", domain.ErrInvalidInput, g.Role)
			}
			return fmt.Errorf("insert user group: %w", err)
		}
		gid, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("get user group id: %w", err)
		}
		g.ID = gid
		g.OrgID = orgID
		groups[i] = g
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit org: %w", err)
	}

	org.ID = orgID
	org.UserGroups = groups
	org.CreatedAt = now
	return nil
}

func (r *orgRepo) GetByID(ctx context.Context, id int64) (*domain.Org, error) {
	org := &domain.Org{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM orgs WHERE id = ?", id,
	).Scan(&org.ID, &org.Name, &org.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query org: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, org_id, name, role FROM user_groups WHERE org_id = ? ORDER BY id", id)
	if err != nil {
		return nil, fmt.Errorf("query user groups: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var g domain.UserGroup
		if err := rows.Scan(&g.ID, &g.OrgID, &g.Name, &g.Role); err != nil {
			return nil, fmt.Errorf("scan user group: %w", err)
		}
		org.UserGroups = append(org.UserGroups, g)
	}
	return org, rows.Err()
}
