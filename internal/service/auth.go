package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/msomdec/sysmgr/internal/domain"
)

// AuthConfig controls how AuthService stores and verifies passwords.
type AuthConfig struct {
	JWTSecret  string
	BcryptCost int
	// EncryptedPasswords stores bcrypt hashes instead of plain text.
	EncryptedPasswords bool
	// External verifies passwords of users flagged for external authentication.
	// Nil when no external service is configured.
	External domain.ExternalAuthenticator
}

// AuthService handles user registration, login, and JWT token operations.
type AuthService struct {
	users     domain.UserRepository
	orgs      domain.OrgRepository
	jwtSecret []byte
	cfg       AuthConfig
	now       func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, orgs domain.OrgRepository, cfg AuthConfig) *AuthService {
	return &AuthService{
		users:     users,
		orgs:      orgs,
		jwtSecret: []byte(cfg.JWTSecret),
		cfg:       cfg,
		now:       time.Now,
	}
}

// Authenticate reports whether password is valid for user.
//
// Users flagged for external authentication are checked by the configured
// external service; everyone else against the stored password. A mismatch or
// an external service failure yields false.
func (s *AuthService) Authenticate(ctx context.Context, user *domain.User, password string) bool {
	if s.cfg.External != nil && user.Info.UsePAMAuthentication {
		code, err := s.cfg.External.Authenticate(ctx, user.Login(), password)
		if err != nil {
			slog.Warn("external login failed", "user", user.String(), "code", code.String(), "error", err)
			return false
		}
		if code != domain.AuthSuccess {
			slog.Warn("external login failed", "user", user.String(), "code", code.String())
			return false
		}
		slog.Debug("external login succeeded", "user", user.String())
		return true
	}

	stored := user.Personal.Password
	if stored == "" {
		return false
	}
	var ok bool
	if s.cfg.EncryptedPasswords {
		// The stored hash carries its own salt.
		ok = bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	} else {
		ok = subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
	}
	if !ok {
		slog.Debug("db login failed", "user", user.String(), "encrypted", s.cfg.EncryptedPasswords)
	}
	return ok
}

// HashPassword returns the value to store for password under the configured mode.
func (s *AuthService) HashPassword(password string) (string, error) {
	if !s.cfg.EncryptedPasswords {
		return password, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// RegisterInput holds the fields for a new account.
type RegisterInput struct {
	OrgID           int64
	Login           string
	Email           string
	FirstNames      string
	LastName        string
	Password        string
	ConfirmPassword string
	UsePAM          bool
	Roles           []domain.Role
}

// Register creates a new user account after validating inputs.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	login := strings.TrimSpace(in.Login)
	if login == "" || in.Email == "" {
		return nil, fmt.Errorf("%w: login and email are required", domain.ErrInvalidInput)
	}
	if !in.UsePAM {
		if in.Password == "" {
			return nil, fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
		}
		if in.Password != in.ConfirmPassword {
			return nil, fmt.Errorf("%w: passwords do not match", domain.ErrInvalidInput)
		}
		if len(in.Password) < 8 {
			return nil, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrInvalidInput)
		}
	}

	org, err := s.orgs.GetByID(ctx, in.OrgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: org %d does not exist", domain.ErrInvalidInput, in.OrgID)
		}
		return nil, fmt.Errorf("get org: %w", err)
	}

	stored := ""
	if in.Password != "" {
		if stored, err = s.HashPassword(in.Password); err != nil {
			return nil, err
		}
	}

	user := &domain.User{
		Org: org,
		Personal: domain.PersonalInfo{
			Login:      login,
			Password:   stored,
			FirstNames: in.FirstNames,
			LastName:   in.LastName,
			Email:      in.Email,
		},
		Info: domain.UserInfo{
			UsePAMAuthentication: in.UsePAM,
			PageSize:             20,
			ShowSystemGroupList:  "N",
			EmailNotify:          1,
		},
	}
	for _, r := range in.Roles {
		if err := user.AddRole(r); err != nil {
			return nil, err
		}
	}
	user.ResetWasOrgAdmin()

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and returns a signed JWT token string together
// with the authenticated user.
func (s *AuthService) Login(ctx context.Context, login, password string) (string, *domain.User, error) {
	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, domain.ErrUnauthorized
		}
		return "", nil, fmt.Errorf("get user: %w", err)
	}

	if user.Disabled {
		slog.Warn("login attempt for disabled user", "user", user.String())
		return "", nil, domain.ErrUnauthorized
	}
	if !s.Authenticate(ctx, user, password) {
		return "", nil, domain.ErrUnauthorized
	}

	// Only the login time is written so concurrent role or address changes survive.
	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return "", nil, fmt.Errorf("record login: %w", err)
	}
	user.Info.LastLoggedIn = &now

	token, err := s.generateJWT(user)
	if err != nil {
		return "", nil, fmt.Errorf("generate jwt: %w", err)
	}
	return token, user, nil
}

// ValidateToken parses and validates a JWT token string.
// Returns the user ID from the sub claim.
func (s *AuthService) ValidateToken(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return 0, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, domain.ErrUnauthorized
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return 0, domain.ErrUnauthorized
	}

	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, domain.ErrUnauthorized
	}
	return userID, nil
}

// GetUserByID retrieves a user by their ID.
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *AuthService) generateJWT(user *domain.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":    strconv.FormatInt(user.ID, 10),
		"login":  user.Login(),
		"org_id": user.OrgID(),
		"iat":    now.Unix(),
		"exp":    now.Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
