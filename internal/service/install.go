package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/msomdec/sysmgr/internal/domain"
	"github.com/msomdec/sysmgr/internal/event"
)

// PackageInstallService schedules package installations across a user's
// selected systems. Requests are published as domain.PackageInstallEvent and
// turned into one scheduled action per server by the service's own handler.
type PackageInstallService struct {
	actions    domain.ActionRepository
	dispatcher *event.Dispatcher
	now        func() time.Time
}

// NewPackageInstallService creates the service and registers its event handler on dispatcher.
func NewPackageInstallService(actions domain.ActionRepository, dispatcher *event.Dispatcher) *PackageInstallService {
	s := &PackageInstallService{
		actions:    actions,
		dispatcher: dispatcher,
		now:        time.Now,
	}
	dispatcher.Register(domain.EventPackageInstall, s.handleInstall)
	return s
}

// ScheduleInstall requests installation of packages on the user's servers with
// the given IDs. Every ID must belong to a server the user is associated with.
func (s *PackageInstallService) ScheduleInstall(ctx context.Context, user *domain.User, earliest *time.Time, packages []string, serverIDs []int64) (*domain.PackageInstallEvent, error) {
	if len(serverIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one server is required", domain.ErrInvalidInput)
	}

	owned := make(map[int64]domain.Server)
	for _, srv := range user.Servers() {
		owned[srv.ID] = srv
	}

	servers := make([]domain.EssentialServer, 0, len(serverIDs))
	seen := make(map[int64]bool, len(serverIDs))
	for _, id := range serverIDs {
		srv, ok := owned[id]
		if !ok {
			return nil, fmt.Errorf("%w: server %d is not available to %s", domain.ErrInvalidInput, id, user.Login())
		}
		if !seen[id] {
			seen[id] = true
			servers = append(servers, srv.Essential())
		}
	}

	evt, err := domain.NewPackageInstallEvent(user, earliest, packages, servers)
	if err != nil {
		return nil, err
	}
	if err := s.dispatcher.Publish(ctx, evt); err != nil {
		return nil, fmt.Errorf("publish %s: %w", evt.EventName(), err)
	}
	return evt, nil
}

// ListScheduled returns the actions scheduled by the user.
func (s *PackageInstallService) ListScheduled(ctx context.Context, user *domain.User) ([]domain.ScheduledAction, error) {
	return s.actions.ListByUser(ctx, user.ID)
}

func (s *PackageInstallService) handleInstall(ctx context.Context, msg event.Message) error {
	evt, ok := msg.(*domain.PackageInstallEvent)
	if !ok {
		return errors.New("unexpected message type for package install")
	}

	earliest, ok := evt.Earliest()
	if !ok {
		earliest = s.now()
	}

	user := evt.User()
	packages := evt.Packages()
	servers := evt.Servers()
	actions := make([]domain.ScheduledAction, 0, len(servers))
	for _, srv := range servers {
		actions = append(actions, domain.ScheduledAction{
			ID:         uuid.NewString(),
			OrgID:      user.OrgID(),
			UserID:     user.ID,
			ServerID:   srv.ID,
			Packages:   packages,
			EarliestAt: earliest,
			Status:     domain.ActionStatusQueued,
		})
	}
	if err := s.actions.CreateBatch(ctx, actions); err != nil {
		return fmt.Errorf("store scheduled actions: %w", err)
	}
	slog.Info("package install scheduled", "event", evt.String(), "earliest", earliest)
	return nil
}
