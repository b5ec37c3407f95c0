package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msomdec/sysmgr/internal/config"
	"github.com/msomdec/sysmgr/internal/domain"
	"github.com/msomdec/sysmgr/internal/event"
	"github.com/msomdec/sysmgr/internal/handler"
	"github.com/msomdec/sysmgr/internal/pam"
	"github.com/msomdec/sysmgr/internal/repository/sqlite"
	"github.com/msomdec/sysmgr/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logOpts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied")

	authCfg := service.AuthConfig{
		JWTSecret:          cfg.Auth.JWTSecret,
		BcryptCost:         cfg.Auth.BcryptCost,
		EncryptedPasswords: cfg.Auth.EncryptedPasswords,
	}
	if cfg.Auth.PAMService != "" {
		ext, err := pam.New(cfg.Auth.PAMService)
		if err != nil {
			slog.Error("failed to set up PAM authentication", "service", cfg.Auth.PAMService, "error", err)
			os.Exit(1)
		}
		authCfg.External = ext
		slog.Info("PAM authentication enabled", "service", cfg.Auth.PAMService)
	}

	dispatcher := event.NewDispatcher()
	orgService := service.NewOrgService(db.Orgs())
	authService := service.NewAuthService(db.Users(), db.Orgs(), authCfg)
	roleService := service.NewRoleService(db.Users())
	installService := service.NewPackageInstallService(db.Actions(), dispatcher)

	if cfg.Bootstrap.Enabled() {
		if err := bootstrap(context.Background(), cfg.Bootstrap, db.Users(), orgService, authService); err != nil {
			slog.Error("failed to bootstrap admin", "error", err)
			os.Exit(1)
		}
	}

	loginLimiter := service.NewTokenBucket(cfg.Auth.LoginRatePerSecond, cfg.Auth.LoginBurst)
	defer loginLimiter.Stop()

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Deps{
		DB:           db.SqlDB,
		Auth:         authService,
		Roles:        roleService,
		Installs:     installService,
		Users:        db.Users(),
		LoginLimiter: loginLimiter,
		CookieSecure: cfg.CookieSecure,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler.SecurityHeaders(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// bootstrap creates the configured org and its first admin unless the admin
// login already exists.
func bootstrap(ctx context.Context, b config.BootstrapConfig, users domain.UserRepository, orgs *service.OrgService, auth *service.AuthService) error {
	_, err := users.GetByLogin(ctx, b.AdminLogin)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	org, err := orgs.CreateOrg(ctx, b.OrgName)
	if err != nil {
		return err
	}
	admin, err := auth.Register(ctx, service.RegisterInput{
		OrgID:           org.ID,
		Login:           b.AdminLogin,
		Email:           b.AdminLogin + "@localhost",
		Password:        b.AdminPassword,
		ConfirmPassword: b.AdminPassword,
		Roles:           []domain.Role{domain.RoleOrgAdmin},
	})
	if err != nil {
		return err
	}
	slog.Info("bootstrap admin created", "user", admin.String(), "org", org.Name)
	return nil
}
