package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/msomdec/sysmgr/internal/config"
	"github.com/msomdec/sysmgr/internal/domain"
	"github.com/msomdec/sysmgr/internal/repository/sqlite"
	"github.com/msomdec/sysmgr/internal/service"
)

func TestBootstrapIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	orgs := service.NewOrgService(db.Orgs())
	auth := service.NewAuthService(db.Users(), db.Orgs(), service.AuthConfig{
		JWTSecret:          "bootstrap-test-secret-0123456789abcdef",
		BcryptCost:         4,
		EncryptedPasswords: true,
	})
	b := config.BootstrapConfig{OrgName: "Default", AdminLogin: "admin", AdminPassword: "changeme123"}

	for i := 0; i < 2; i++ {
		if err := bootstrap(ctx, b, db.Users(), orgs, auth); err != nil {
			t.Fatalf("bootstrap run %d: %v", i+1, err)
		}
	}

	admin, err := db.Users().GetByLogin(ctx, "admin")
	if err != nil {
		t.Fatalf("GetByLogin: %v", err)
	}
	if !admin.HasRole(domain.RoleOrgAdmin) {
		t.Fatal("expected bootstrap admin to hold org_admin")
	}
	if _, _, err := auth.Login(ctx, "admin", "changeme123"); err != nil {
		t.Fatalf("Login: %v", err)
	}
}
