package handler

import (
	"net/http"

	"github.com/msomdec/sysmgr/internal/domain"
	"github.com/msomdec/sysmgr/internal/service"
)

// Deps bundles what RegisterRoutes needs to build the handlers.
type Deps struct {
	DB           Pinger
	Auth         *service.AuthService
	Roles        *service.RoleService
	Installs     *service.PackageInstallService
	Users        domain.UserRepository
	LoginLimiter *service.TokenBucket
	CookieSecure bool
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, d Deps) {
	authHandler := NewAuthHandler(d.Auth, d.CookieSecure)
	userHandler := NewUserHandler(d.Auth, d.Roles)
	addressHandler := NewAddressHandler(d.Users)
	installHandler := NewInstallHandler(d.Installs)

	requireAuth := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(d.Auth, h)
	}
	requireOrgAdmin := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(d.Auth, RequireRole(domain.RoleOrgAdmin, h))
	}

	mux.HandleFunc("GET /healthz", HandleHealthz(d.DB))

	// Auth
	mux.Handle("POST /api/auth/login", RateLimit(d.LoginLimiter, http.HandlerFunc(authHandler.HandleLogin)))
	mux.HandleFunc("POST /api/auth/logout", authHandler.HandleLogout)
	mux.Handle("GET /api/auth/me", requireAuth(authHandler.HandleMe))

	// Users and roles
	mux.Handle("POST /api/users", requireOrgAdmin(userHandler.HandleCreate))
	mux.Handle("GET /api/users/{id}/roles", requireAuth(userHandler.HandleListRoles))
	mux.Handle("POST /api/users/{id}/roles", requireOrgAdmin(userHandler.HandleGrantRole))
	mux.Handle("DELETE /api/users/{id}/roles/{role}", requireOrgAdmin(userHandler.HandleRevokeRole))

	// Address
	mux.Handle("GET /api/me/address", requireAuth(addressHandler.HandleGet))
	mux.Handle("PUT /api/me/address", requireAuth(addressHandler.HandlePut))

	// SSM
	mux.Handle("POST /api/ssm/packages/install", requireAuth(installHandler.HandleInstall))
	mux.Handle("GET /api/ssm/actions", requireAuth(installHandler.HandleListActions))
}
