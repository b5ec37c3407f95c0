package handler

import (
	"net/http"

	"github.com/msomdec/sysmgr/internal/domain"
)

// AddressHandler reads and edits the caller's contact address.
type AddressHandler struct {
	users domain.UserRepository
}

func NewAddressHandler(users domain.UserRepository) *AddressHandler {
	return &AddressHandler{users: users}
}

// HandleGet returns the caller's marketing address, falling back to a copy of
// the billing address when none is stored.
// GET /api/me/address
// Response: {"address": {...}, "stored": bool}
func (h *AddressHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	addr, stored := domain.EffectiveAddress(user.Addresses())
	writeJSON(w, http.StatusOK, map[string]any{
		"address": toAddressDTO(addr),
		"stored":  stored,
	})
}

// HandlePut replaces the caller's marketing address fields and saves it.
// PUT /api/me/address
// Request:  {"address1":"...","city":"...",...}
// Response: {"address": {...}, "stored": true}
func (h *AddressHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req AddressDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	addr := user.Address()
	req.apply(addr)
	if err := h.users.UpdateAddresses(r.Context(), user.ID, user.Addresses()); err != nil {
		writeServiceError(w, "update address", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"address": toAddressDTO(*user.Address()),
		"stored":  true,
	})
}
