package service_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/msomdec/sysmgr/internal/domain"
	"github.com/msomdec/sysmgr/internal/repository/sqlite"
	"github.com/msomdec/sysmgr/internal/service"
)

const testJWTSecret = "test-secret-key-for-unit-tests-0123456789"

func newTestDB(t *testing.T) *sqlite.DB {
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
	return db
}

func newTestOrg(t *testing.T, db *sqlite.DB, name string) *domain.Org {
	t.Helper()
	org, err := service.NewOrgService(db.Orgs()).CreateOrg(context.Background(), name)
	if err != nil {
		t.Fatalf("CreateOrg: %v", err)
	}
	return org
}

// fakeExternal records calls and answers with a fixed code.
type fakeExternal struct {
	code  domain.AuthReturnCode
	err   error
	calls int
}

func (f *fakeExternal) Authenticate(ctx context.Context, login, password string) (domain.AuthReturnCode, error) {
	f.calls++
	return f.code, f.err
}
