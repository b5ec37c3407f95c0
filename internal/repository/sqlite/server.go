package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/sysmgr/internal/domain"
)

type serverRepo struct {
	db *sql.DB
}

func (r *serverRepo) Create(ctx context.Context, s *domain.Server) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO servers (org_id, name, base_channel_label, created_at) VALUES (?, ?, ?, ?)",
		s.OrgID, s.Name, s.BaseChannelLabel, now,
	)
	if err != nil {
		return fmt.Errorf("insert server: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get server id: %w", err)
	}
	s.ID = id
	s.CreatedAt = now
	return nil
}

func (r *serverRepo) GetByID(ctx context.Context, id int64) (*domain.Server, error) {
	s := &domain.Server{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, org_id, name, base_channel_label, created_at FROM servers WHERE id = ?", id,
	).Scan(&s.ID, &s.OrgID, &s.Name, &s.BaseChannelLabel, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query server: %w", err)
	}
	return s, nil
}
