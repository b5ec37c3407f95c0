package handler

import (
	"net/http"
	"strconv"

	"github.com/msomdec/sysmgr/internal/domain"
	"github.com/msomdec/sysmgr/internal/service"
)

// UserHandler manages accounts and role assignments within the caller's org.
type UserHandler struct {
	auth  *service.AuthService
	roles *service.RoleService
}

func NewUserHandler(auth *service.AuthService, roles *service.RoleService) *UserHandler {
	return &UserHandler{auth: auth, roles: roles}
}

// HandleCreate adds a user to the caller's org.
// POST /api/users
// Request:  {"login":"...","email":"...","password":"...","confirmPassword":"...","roles":["..."]}
// Response: 201 {"user": {...}}
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor := UserFromContext(r.Context())

	var req struct {
		Login           string   `json:"login"`
		Email           string   `json:"email"`
		FirstNames      string   `json:"firstNames"`
		LastName        string   `json:"lastName"`
		Password        string   `json:"password"`
		ConfirmPassword string   `json:"confirmPassword"`
		UsePAM          bool     `json:"usePam"`
		Roles           []string `json:"roles"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	roles := make([]domain.Role, 0, len(req.Roles))
	for _, label := range req.Roles {
		role, ok := domain.ParseRole(label)
		if !ok {
			writeError(w, http.StatusUnprocessableEntity, "Unknown role: "+label)
			return
		}
		roles = append(roles, role)
	}

	user, err := h.auth.Register(r.Context(), service.RegisterInput{
		OrgID:           actor.OrgID(),
		Login:           req.Login,
		Email:           req.Email,
		FirstNames:      req.FirstNames,
		LastName:        req.LastName,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		UsePAM:          req.UsePAM,
		Roles:           roles,
	})
	if err != nil {
		writeServiceError(w, "create user", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user": toUserDTO(user),
	})
}

// HandleListRoles returns a user's effective roles.
// GET /api/users/{id}/roles
// Response: {"roles": ["..."]}
func (h *UserHandler) HandleListRoles(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(w, r)
	if !ok {
		return
	}

	roles, err := h.roles.EffectiveRoles(r.Context(), UserFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, "list roles", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"roles": roleLabels(roles)})
}

// HandleGrantRole gives a user a role.
// POST /api/users/{id}/roles
// Request:  {"role":"config_admin"}
// Response: {"roles": ["..."]}
func (h *UserHandler) HandleGrantRole(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	role, ok := domain.ParseRole(req.Role)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "Unknown role: "+req.Role)
		return
	}

	user, err := h.roles.Grant(r.Context(), UserFromContext(r.Context()), id, role)
	if err != nil {
		writeServiceError(w, "grant role", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"roles": roleLabels(user.Roles())})
}

// HandleRevokeRole takes a role away from a user.
// DELETE /api/users/{id}/roles/{role}
// Response: {"roles": ["..."]}
func (h *UserHandler) HandleRevokeRole(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(w, r)
	if !ok {
		return
	}
	label := r.PathValue("role")
	role, ok := domain.ParseRole(label)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "Unknown role: "+label)
		return
	}

	user, err := h.roles.Revoke(r.Context(), UserFromContext(r.Context()), id, role)
	if err != nil {
		writeServiceError(w, "revoke role", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"roles": roleLabels(user.Roles())})
}

func parseUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid user ID.")
		return 0, false
	}
	return id, true
}
