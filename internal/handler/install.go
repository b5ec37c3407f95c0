package handler

import (
	"net/http"
	"time"

	"github.com/msomdec/sysmgr/internal/service"
)

// InstallHandler schedules package installations on the caller's systems.
type InstallHandler struct {
	installs *service.PackageInstallService
}

func NewInstallHandler(installs *service.PackageInstallService) *InstallHandler {
	return &InstallHandler{installs: installs}
}

// HandleInstall schedules packages for installation.
// POST /api/ssm/packages/install
// Request:  {"packages":["..."],"serverIds":[1,2],"earliest":"2026-01-02T15:04:05Z"}
// Response: 202 {"install": {...}}
func (h *InstallHandler) HandleInstall(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Packages  []string   `json:"packages"`
		ServerIDs []int64    `json:"serverIds"`
		Earliest  *time.Time `json:"earliest"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	evt, err := h.installs.ScheduleInstall(r.Context(), UserFromContext(r.Context()), req.Earliest, req.Packages, req.ServerIDs)
	if err != nil {
		writeServiceError(w, "schedule install", err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"install": toInstallDTO(evt),
	})
}

// HandleListActions returns the caller's scheduled actions.
// GET /api/ssm/actions
// Response: {"actions": [...]}
func (h *InstallHandler) HandleListActions(w http.ResponseWriter, r *http.Request) {
	actions, err := h.installs.ListScheduled(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, "list actions", err)
		return
	}

	dtos := make([]ActionDTO, 0, len(actions))
	for _, a := range actions {
		dtos = append(dtos, toActionDTO(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"actions": dtos})
}
