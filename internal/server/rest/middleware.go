package rest

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/anshc022/imf-gadget-api/internal/common"
	"github.com/anshc022/imf-gadget-api/internal/logging"
	"github.com/anshc022/imf-gadget-api/internal/server/auth"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// Authenticate resolves the bearer token into an identity and stores it in
// the request context. Requests without a usable token get 401.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := h.users.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			if errors.Is(err, common.ErrMissingToken) || errors.Is(err, common.ErrInvalidToken) ||
				errors.Is(err, common.ErrUnknownSubject) {
				h.logger.Warn(r.Context(), "authentication failed", "error", err, "path", r.URL.Path)
			}
			h.fail(w, r, err, "Authentication failed")
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}

// RequireOp lets the request through only when the authenticated caller may
// perform op.
func (h *Handler) RequireOp(op auth.Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: msgUnauthenticated})
				return
			}
			if !auth.Authorize(id, op) {
				h.logger.Warn(r.Context(), "access denied", "user_id", id.UserID, "role", string(id.Role), "op", string(op))
				writeJSON(w, http.StatusForbidden, errorResponse{Error: msgForbidden})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithRequestLogging logs one line per request.
func WithRequestLogging(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).String(),
				"request_id", chiMiddleware.GetReqID(r.Context()),
				"remote", r.RemoteAddr,
			)
		})
	}
}

func tooManyRequests(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: msgTooManyRequests})
}
