package domain

import (
	"context"
	"time"
)

// Server is a managed system registered to an org.
type Server struct {
	ID               int64
	OrgID            int64
	Name             string
	BaseChannelLabel string
	CreatedAt        time.Time
}

// EssentialServer carries the server data needed to schedule work on it.
type EssentialServer struct {
	ID               int64
	Name             string
	BaseChannelLabel string
}

// Essential returns the scheduling view of s.
func (s Server) Essential() EssentialServer {
	return EssentialServer{ID: s.ID, Name: s.Name, BaseChannelLabel: s.BaseChannelLabel}
}

// ServerRepository defines persistence operations for servers.
type ServerRepository interface {
	Create(ctx context.Context, server *Server) error
	GetByID(ctx context.Context, id int64) (*Server, error)
}
