package rest

import (
	"net/http"

	"github.com/anshc022/imf-gadget-api/internal/server/services"
	"github.com/go-chi/chi/v5"
)

type decommissionRequest struct {
	Reason string `json:"reason"`
}

type selfDestructResponse struct {
	ConfirmationCode string `json:"confirmationCode"`
	Message          string `json:"message"`
}

// ListGadgets handles GET /gadgets?status=.
func (h *Handler) ListGadgets(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	list, err := h.gadgets.List(r.Context(), id, r.URL.Query().Get("status"))
	if err != nil {
		h.fail(w, r, err, "Failed to retrieve gadgets")
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// CreateGadget handles POST /gadgets.
func (h *Handler) CreateGadget(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	var cmd services.CreateGadgetCommand
	if err := decodeJSON(w, r, &cmd); err != nil {
		h.fail(w, r, err, "Failed to add gadget")
		return
	}

	g, err := h.gadgets.Create(r.Context(), id, cmd)
	if err != nil {
		h.fail(w, r, err, "Failed to add gadget")
		return
	}

	writeJSON(w, http.StatusCreated, g)
}

// UpdateGadget handles PATCH /gadgets/{id}.
func (h *Handler) UpdateGadget(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	var cmd services.UpdateGadgetCommand
	if err := decodeJSON(w, r, &cmd); err != nil {
		h.fail(w, r, err, "Failed to update gadget")
		return
	}

	g, err := h.gadgets.Update(r.Context(), id, chi.URLParam(r, "id"), cmd)
	if err != nil {
		h.fail(w, r, err, "Failed to update gadget")
		return
	}

	writeJSON(w, http.StatusOK, g)
}

// DecommissionGadget handles DELETE /gadgets/{id}. The body is optional.
func (h *Handler) DecommissionGadget(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	var req decommissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err, "Failed to decommission gadget")
		return
	}

	g, err := h.gadgets.Decommission(r.Context(), id, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		h.fail(w, r, err, "Failed to decommission gadget")
		return
	}

	writeJSON(w, http.StatusOK, g)
}

// SelfDestructGadget handles POST /gadgets/{id}/self-destruct.
func (h *Handler) SelfDestructGadget(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	code, err := h.gadgets.SelfDestruct(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "Self-destruct sequence failed")
		return
	}

	writeJSON(w, http.StatusOK, selfDestructResponse{
		ConfirmationCode: code,
		Message:          "Self-destruct sequence initiated",
	})
}

// MaintainGadget handles POST /gadgets/{id}/maintenance.
func (h *Handler) MaintainGadget(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	g, err := h.gadgets.PerformMaintenance(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "Maintenance failed")
		return
	}

	writeJSON(w, http.StatusOK, g)
}
