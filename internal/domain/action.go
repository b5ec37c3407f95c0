package domain

import (
	"context"
	"time"
)

const (
	ActionStatusQueued    = "queued"
	ActionStatusCompleted = "completed"
	ActionStatusFailed    = "failed"
)

// ScheduledAction is a package installation queued for one server.
type ScheduledAction struct {
	ID         string
	OrgID      int64
	UserID     int64
	ServerID   int64
	Packages   []string
	EarliestAt time.Time
	Status     string
	CreatedAt  time.Time
}

// ActionRepository defines persistence operations for scheduled actions.
type ActionRepository interface {
	CreateBatch(ctx context.Context, actions []ScheduledAction) error
	ListByUser(ctx context.Context, userID int64) ([]ScheduledAction, error)
}
