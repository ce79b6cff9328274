package rest

import (
	"errors"
	"net/http"

	"github.com/anshc022/imf-gadget-api/internal/common"
)

// Client-facing messages.
const (
	msgUnauthenticated    = "Please authenticate"
	msgForbidden          = "Access denied"
	msgInvalidCredentials = "Invalid credentials"
	msgGadgetNotFound     = "Gadget not found"
	msgTerminalStatus     = "Gadget is destroyed or decommissioned and its status can no longer change"
	msgConflict           = "Resource already exists"
	msgTooManyRequests    = "Too many requests"
	msgNotFound           = "Not found"
)

// fail maps err onto a response. Anything unrecognised is logged and
// answered with 500 and fallback as the message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var verrs common.ValidationErrors

	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusBadRequest, errorResponse{Errors: verrs})
	case errors.Is(err, common.ErrMissingToken),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrUnknownSubject):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: msgUnauthenticated})
	case errors.Is(err, common.ErrorInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: msgInvalidCredentials})
	case errors.Is(err, common.ErrorForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: msgForbidden})
	case errors.Is(err, common.ErrorNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: msgGadgetNotFound})
	case errors.Is(err, common.ErrTerminalStatus):
		writeJSON(w, http.StatusConflict, errorResponse{Error: msgTerminalStatus})
	case errors.Is(err, common.ErrorDuplicateIdentity):
		writeJSON(w, http.StatusConflict, errorResponse{Error: msgConflict})
	default:
		h.logger.Error(r.Context(), fallback, "error", err, "method", r.Method, "path", r.URL.Path)
		resp := errorResponse{Error: fallback}
		if h.development {
			resp.Details = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, resp)
	}
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: msgNotFound})
}
