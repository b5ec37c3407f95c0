package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/msomdec/sysmgr/internal/domain"
	"github.com/msomdec/sysmgr/internal/repository/sqlite"
	"github.com/msomdec/sysmgr/internal/service"
)

func newTestAuthService(t *testing.T, cfg service.AuthConfig) (*service.AuthService, *sqlite.DB, *domain.Org) {
	t.Helper()
	db := newTestDB(t)
	org := newTestOrg(t, db, "Acme")

	cfg.JWTSecret = testJWTSecret
	// Use cost 4 for fast tests.
	cfg.BcryptCost = 4
	auth := service.NewAuthService(db.Users(), db.Orgs(), cfg)
	return auth, db, org
}

func register(t *testing.T, auth *service.AuthService, org *domain.Org, login string, usePAM bool) *domain.User {
	t.Helper()
	user, err := auth.Register(context.Background(), service.RegisterInput{
		OrgID:           org.ID,
		Login:           login,
		Email:           login + "@example.com",
		Password:        "password123",
		ConfirmPassword: "password123",
		UsePAM:          usePAM,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return user
}

func TestAuthService_Register_Success(t *testing.T) {
	auth, _, org := newTestAuthService(t, service.AuthConfig{EncryptedPasswords: true})

	user := register(t, auth, org, "newuser", false)

	if user.ID == 0 {
		t.Fatal("expected user ID to be set")
	}
	if user.OrgID() != org.ID {
		t.Fatalf("expected org %d, got %d", org.ID, user.OrgID())
	}
	if !strings.HasPrefix(user.Personal.Password, "$2a$") {
		t.Fatalf("expected bcrypt hash to be stored, got %q", user.Personal.Password)
	}
}

func TestAuthService_Register_PlainTextMode(t *testing.T) {
	auth, _, org := newTestAuthService(t, service.AuthConfig{EncryptedPasswords: false})

	user := register(t, auth, org, "plain", false)

	if user.Personal.Password != "password123" {
		t.Fatalf("expected plain password to be stored, got %q", user.Personal.Password)
	}
}

func TestAuthService_Register_DuplicateLogin(t *testing.T) {
	auth, _, org := newTestAuthService(t, service.AuthConfig{EncryptedPasswords: true})
	register(t, auth, org, "dup", false)

	_, err := auth.Register(context.Background(), service.RegisterInput{
		OrgID: org.ID, Login: "DUP", Email: "other@example.com",
		Password: "password456", ConfirmPassword: "password456",
	})
	if !errors.Is(err, domain.ErrDuplicateLogin) {
		t.Fatalf("expected ErrDuplicateLogin, got %v", err)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	auth, _, org := newTestAuthService(t, service.AuthConfig{EncryptedPasswords: true})

	tests := []struct {
		name string
		in   service.RegisterInput
	}{
		{"missing login", service.RegisterInput{OrgID: org.ID, Email: "a@example.com", Password: "password123", ConfirmPassword: "password123"}},
		{"weak password", service.RegisterInput{OrgID: org.ID, Login: "weak", Email: "a@example.com", Password: "short", ConfirmPassword: "short"}},
		{"mismatch", service.RegisterInput{OrgID: org.ID, Login: "mm", Email: "a@example.com", Password: "password123", ConfirmPassword: "different456"}},
		{"unknown org", service.RegisterInput{OrgID: 9999, Login: "noorg", Email: "a@example.com", Password: "password123", ConfirmPassword: "password123"}},
		{"undefined role", service.RegisterInput{OrgID: org.ID, Login: "sat", Email: "a@example.com", Password: "password123", ConfirmPassword: "password123", Roles: []domain.Role{domain.RoleSatelliteAdmin}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Register(context.Background(), tt.in)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestAuthService_Register_WithRoles(t *testing.T) {
	auth, db, org := newTestAuthService(t, service.AuthConfig{EncryptedPasswords: true})

	user, err := auth.Register(context.Background(), service.RegisterInput{
		OrgID: org.ID, Login: "boss", Email: "boss@example.com",
		Password: "password123", ConfirmPassword: "password123",
		Roles: []domain.Role{domain.RoleOrgAdmin},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.WasOrgAdmin() != nil {
		t.Fatal("expected org admin snapshot to be reset after registration")
	}

	stored, err := db.Users().GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !stored.HasRole(domain.RoleConfigAdmin) {
		t.Fatal("expected org admin to imply config_admin")
	}
}

func TestAuthService_Authenticate_Encrypted(t *testing.T) {
	auth, _, org := newTestAuthService(t, service.AuthConfig{EncryptedPasswords: true})
	user := register(t, auth, org, "enc", false)
	ctx := context.Background()

	if !auth.Authenticate(ctx, user, "password123") {
		t.Fatal("expected matching password to authenticate")
	}
	if auth.Authenticate(ctx, user, "wrongpassword") {
		t.Fatal("expected wrong password to fail")
	}
}

func TestAuthService_Authenticate_PlainText(t *testing.T) {
	auth, _, org := newTestAuthService(t, service.AuthConfig{EncryptedPasswords: false})
	user := register(t, auth, org, "plain", false)
	ctx := context.Background()

	if !auth.Authenticate(ctx, user, "password123") {
		t.Fatal("expected matching password to authenticate")
	}
	if auth.Authenticate(ctx, user, "password12") {
		t.Fatal("expected prefix of password to fail")
	}
}

func TestAuthService_Authenticate_EmptyStoredPassword(t *testing.T) {
	auth, _, _ := newTestAuthService(t, service.AuthConfig{EncryptedPasswords: false})
	user := &domain.User{Personal: domain.PersonalInfo{Login: "nopw"}}

	if auth.Authenticate(context.Background(), user, "") {
		t.Fatal("expected a user without a stored password to fail")
	}
}

func TestAuthService_Authenticate_External(t *testing.T) {
	tests := []struct {
		name      string
		usePAM    bool
		code      domain.AuthReturnCode
		err       error
		password  string
		want      bool
		wantCalls int
	}{
		{"flagged success", true, domain.AuthSuccess, nil, "anything", true, 1},
		{"flagged failure", true, domain.AuthFailure, nil, "password123", false, 1},
		{"flagged unknown user", true, domain.AuthUserUnknown, nil, "password123", false, 1},
		{"flagged adapter error", true, domain.AuthServiceError, errors.New("pam down"), "password123", false, 1},
		{"not flagged uses local", false, domain.AuthFailure, nil, "password123", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := &fakeExternal{code: tt.code, err: tt.err}
			auth, _, org := newTestAuthService(t, service.AuthConfig{EncryptedPasswords: true, External: ext})
			user := register(t, auth, org, "ext", tt.usePAM)

			if got := auth.Authenticate(context.Background(), user, tt.password); got != tt.want {
				t.Fatalf("Authenticate = %v, want %v", got, tt.want)
			}
			if ext.calls != tt.wantCalls {
				t.Fatalf("expected %d external calls, got %d", tt.wantCalls, ext.calls)
			}
		})
	}
}

func TestAuthService_Authenticate_FlaggedWithoutExternalService(t *testing.T) {
	auth, _, org := newTestAuthService(t, service.AuthConfig{EncryptedPasswords: true})
	user := register(t, auth, org, "flagged", true)

	if !auth.Authenticate(context.Background(), user, "password123") {
		t.Fatal("expected local password check when no external service is configured")
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	auth, db, org := newTestAuthService(t, service.AuthConfig{EncryptedPasswords: true})
	user := register(t, auth, org, "login", false)
	ctx := context.Background()

	token, loggedIn, err := auth.Login(ctx, "LOGIN", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if loggedIn.ID != user.ID || loggedIn.Info.LastLoggedIn == nil {
		t.Fatalf("expected logged-in user %d with login time, got %+v", user.ID, loggedIn)
	}

	stored, err := db.Users().GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Info.LastLoggedIn == nil {
		t.Fatal("expected last login time to be recorded")
	}
}

func TestAuthService_Login_Failures(t *testing.T) {
	auth, db, org := newTestAuthService(t, service.AuthConfig{EncryptedPasswords: true})
	user := register(t, auth, org, "failing", false)
	ctx := context.Background()

	if _, _, err := auth.Login(ctx, "failing", "wrongpassword"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("wrong password: expected ErrUnauthorized, got %v", err)
	}
	if _, _, err := auth.Login(ctx, "nobody", "password123"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("unknown login: expected ErrUnauthorized, got %v", err)
	}

	user.Disabled = true
	if err := db.Users().Update(ctx, user); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, _, err := auth.Login(ctx, "failing", "password123"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("disabled user: expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthService_ValidateToken(t *testing.T) {
	auth, _, org := newTestAuthService(t, service.AuthConfig{EncryptedPasswords: true})
	user := register(t, auth, org, "tokenuser", false)

	token, _, err := auth.Login(context.Background(), "tokenuser", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	userID, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if userID != user.ID {
		t.Fatalf("expected user ID %d, got %d", user.ID, userID)
	}
}

func TestAuthService_ValidateToken_Invalid(t *testing.T) {
	auth, _, _ := newTestAuthService(t, service.AuthConfig{})

	_, err := auth.ValidateToken("invalid.token.string")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthService_ValidateToken_WrongSecret(t *testing.T) {
	auth1, _, org := newTestAuthService(t, service.AuthConfig{EncryptedPasswords: true})
	register(t, auth1, org, "secret", false)

	token, _, err := auth1.Login(context.Background(), "secret", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	db := newTestDB(t)
	auth2 := service.NewAuthService(db.Users(), db.Orgs(), service.AuthConfig{
		JWTSecret:  "a-completely-different-secret-of-enough-length",
		BcryptCost: 4,
	})
	if _, err := auth2.ValidateToken(token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized with wrong secret, got %v", err)
	}
}
