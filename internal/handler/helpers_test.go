package handler_test

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/msomdec/sysmgr/internal/domain"
	"github.com/msomdec/sysmgr/internal/event"
	"github.com/msomdec/sysmgr/internal/handler"
	"github.com/msomdec/sysmgr/internal/repository/sqlite"
	"github.com/msomdec/sysmgr/internal/service"
)

const testJWTSecret = "test-secret-for-handler-tests-0123456789"

type testEnv struct {
	db       *sqlite.DB
	auth     *service.AuthService
	roles    *service.RoleService
	installs *service.PackageInstallService
	limiter  *service.TokenBucket
	org      *domain.Org
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	org, err := service.NewOrgService(db.Orgs()).CreateOrg(context.Background(), "Acme")
	if err != nil {
		t.Fatalf("CreateOrg: %v", err)
	}

	limiter := service.NewTokenBucket(1, 100)
	t.Cleanup(limiter.Stop)

	return &testEnv{
		db: db,
		auth: service.NewAuthService(db.Users(), db.Orgs(), service.AuthConfig{
			JWTSecret:          testJWTSecret,
			BcryptCost:         4,
			EncryptedPasswords: true,
		}),
		roles:    service.NewRoleService(db.Users()),
		installs: service.NewPackageInstallService(db.Actions(), event.NewDispatcher()),
		limiter:  limiter,
		org:      org,
	}
}

func (e *testEnv) routes() http.Handler {
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Deps{
		DB:           e.db.SqlDB,
		Auth:         e.auth,
		Roles:        e.roles,
		Installs:     e.installs,
		Users:        e.db.Users(),
		LoginLimiter: e.limiter,
	})
	return handler.SecurityHeaders(mux)
}

// register creates a user in the env's org with password "password123".
func (e *testEnv) register(t *testing.T, login string, roles ...domain.Role) *domain.User {
	t.Helper()
	user, err := e.auth.Register(context.Background(), service.RegisterInput{
		OrgID:           e.org.ID,
		Login:           login,
		Email:           login + "@example.com",
		FirstNames:      "Test",
		LastName:        login,
		Password:        "password123",
		ConfirmPassword: "password123",
		Roles:           roles,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return user
}

func (e *testEnv) token(t *testing.T, login string) string {
	t.Helper()
	token, _, err := e.auth.Login(context.Background(), login, "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return token
}
