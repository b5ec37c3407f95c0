package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/msomdec/sysmgr/internal/domain"
)

type actionRepo struct {
	db *sql.DB
}

// CreateBatch inserts all actions in one transaction.
func (r *actionRepo) CreateBatch(ctx context.Context, actions []domain.ScheduledAction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for i := range actions {
		a := &actions[i]
		pkgs, err := json.Marshal(a.Packages)
		if err != nil {
			return fmt.Errorf("encode packages: %w", err)
		}
		if a.Status == "" {
			a.Status = domain.ActionStatusQueued
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scheduled_actions (id, org_id, user_id, server_id, packages, earliest_at, status, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.OrgID, a.UserID, a.ServerID, string(pkgs), a.EarliestAt.UTC(), a.Status, now,
		); err != nil {
			return fmt.Errorf("insert scheduled action: %w", err)
		}
		a.CreatedAt = now
	}
	return tx.Commit()
}

func (r *actionRepo) ListByUser(ctx context.Context, userID int64) ([]domain.ScheduledAction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, org_id, user_id, server_id, packages, earliest_at, status, created_at
		 FROM scheduled_actions WHERE user_id = ? ORDER BY earliest_at, server_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list scheduled actions: %w", err)
	}
	defer rows.Close()

	var actions []domain.ScheduledAction
	for rows.Next() {
		var a domain.ScheduledAction
		var pkgs string
		if err := rows.Scan(&a.ID, &a.OrgID, &a.UserID, &a.ServerID, &pkgs, &a.EarliestAt, &a.Status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan scheduled action: %w", err)
		}
		if err := json.Unmarshal([]byte(pkgs), &a.Packages); err != nil {
			return nil, fmt.Errorf("decode packages: %w", err)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}
