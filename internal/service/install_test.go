package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/msomdec/sysmgr/internal/domain"
	"github.com/msomdec/sysmgr/internal/event"
	"github.com/msomdec/sysmgr/internal/service"
)

type installFixture struct {
	svc        *service.PackageInstallService
	dispatcher *event.Dispatcher
	user       *domain.User
	servers    []domain.Server
}

func newInstallFixture(t *testing.T) *installFixture {
	t.Helper()
	auth, db, org := newTestAuthService(t, service.AuthConfig{EncryptedPasswords: true})
	ctx := context.Background()
	user := register(t, auth, org, "installer", false)

	var servers []domain.Server
	for _, name := range []string{"web-01", "db-01"} {
		srv := &domain.Server{OrgID: org.ID, Name: name, BaseChannelLabel: "rhel-x86_64-server-9"}
		if err := db.Servers().Create(ctx, srv); err != nil {
			t.Fatalf("create server: %v", err)
		}
		user.AddServer(*srv)
		servers = append(servers, *srv)
	}
	if err := db.Users().Update(ctx, user); err != nil {
		t.Fatalf("Update: %v", err)
	}

	dispatcher := event.NewDispatcher()
	svc := service.NewPackageInstallService(db.Actions(), dispatcher)
	return &installFixture{svc: svc, dispatcher: dispatcher, user: user, servers: servers}
}

func TestPackageInstallService_ScheduleInstall(t *testing.T) {
	f := newInstallFixture(t)
	ctx := context.Background()
	earliest := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	evt, err := f.svc.ScheduleInstall(ctx, f.user, &earliest,
		[]string{"vim", "curl", "vim"},
		[]int64{f.servers[0].ID, f.servers[1].ID, f.servers[0].ID})
	if err != nil {
		t.Fatalf("ScheduleInstall: %v", err)
	}
	if got := evt.String(); got != "PackageInstallEvent[User: installer, Package Count: 2, Server Count: 2]" {
		t.Fatalf("unexpected event string %q", got)
	}

	actions, err := f.svc.ListScheduled(ctx, f.user)
	if err != nil {
		t.Fatalf("ListScheduled: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(actions))
	}
	for _, a := range actions {
		if a.ID == "" {
			t.Error("expected action ID to be set")
		}
		if a.Status != domain.ActionStatusQueued {
			t.Errorf("expected queued status, got %s", a.Status)
		}
		if !a.EarliestAt.Equal(earliest) {
			t.Errorf("expected earliest %v, got %v", earliest, a.EarliestAt)
		}
		if len(a.Packages) != 2 || a.Packages[0] != "curl" || a.Packages[1] != "vim" {
			t.Errorf("unexpected packages %v", a.Packages)
		}
		if a.UserID != f.user.ID || a.OrgID != f.user.OrgID() {
			t.Errorf("action not attributed to user: %+v", a)
		}
	}
}

func TestPackageInstallService_ScheduleInstall_DefaultsEarliestToNow(t *testing.T) {
	f := newInstallFixture(t)
	ctx := context.Background()
	before := time.Now().Add(-time.Second)

	if _, err := f.svc.ScheduleInstall(ctx, f.user, nil, []string{"vim"}, []int64{f.servers[0].ID}); err != nil {
		t.Fatalf("ScheduleInstall: %v", err)
	}

	actions, err := f.svc.ListScheduled(ctx, f.user)
	if err != nil {
		t.Fatalf("ListScheduled: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(actions))
	}
	if actions[0].EarliestAt.Before(before) {
		t.Fatalf("expected earliest to default to now, got %v", actions[0].EarliestAt)
	}
}

func TestPackageInstallService_ScheduleInstall_EmptyPackageSet(t *testing.T) {
	f := newInstallFixture(t)

	evt, err := f.svc.ScheduleInstall(context.Background(), f.user, nil, []string{}, []int64{f.servers[1].ID})
	if err != nil {
		t.Fatalf("ScheduleInstall: %v", err)
	}
	if len(evt.Packages()) != 0 {
		t.Fatalf("expected no packages, got %v", evt.Packages())
	}
}

func TestPackageInstallService_ScheduleInstall_Invalid(t *testing.T) {
	f := newInstallFixture(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		packages  []string
		serverIDs []int64
	}{
		{"nil packages", nil, []int64{f.servers[0].ID}},
		{"no servers", []string{"vim"}, nil},
		{"foreign server", []string{"vim"}, []int64{f.servers[0].ID + 1000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.ScheduleInstall(ctx, f.user, nil, tt.packages, tt.serverIDs)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	actions, err := f.svc.ListScheduled(ctx, f.user)
	if err != nil {
		t.Fatalf("ListScheduled: %v", err)
	}
	if len(actions) != 0 {
		t.Fatalf("expected no actions for rejected requests, got %d", len(actions))
	}
}

func TestPackageInstallService_EventWithoutServersSchedulesNothing(t *testing.T) {
	f := newInstallFixture(t)
	ctx := context.Background()

	evt, err := domain.NewPackageInstallEvent(f.user, nil, []string{"vim"}, []domain.EssentialServer{})
	if err != nil {
		t.Fatalf("NewPackageInstallEvent: %v", err)
	}
	if err := f.dispatcher.Publish(ctx, evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	actions, err := f.svc.ListScheduled(ctx, f.user)
	if err != nil {
		t.Fatalf("ListScheduled: %v", err)
	}
	if len(actions) != 0 {
		t.Fatalf("expected no actions, got %d", len(actions))
	}
}
