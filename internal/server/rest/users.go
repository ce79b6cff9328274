package rest

import (
	"errors"
	"net/http"

	"github.com/anshc022/imf-gadget-api/internal/common"
	"github.com/anshc022/imf-gadget-api/internal/server/models"
	"github.com/anshc022/imf-gadget-api/internal/server/services"
)

type registerResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

type loginResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type createAdminResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

// Register handles POST /users/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var cmd services.RegisterCommand
	if err := decodeJSON(w, r, &cmd); err != nil {
		h.fail(w, r, err, "Registration failed")
		return
	}

	user, err := h.users.Register(r.Context(), cmd)
	if err != nil {
		if errors.Is(err, common.ErrorDuplicateIdentity) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Username already exists", Field: "username"})
			return
		}
		h.fail(w, r, err, "Registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{Message: "User registered successfully", User: user})
}

// Login handles POST /users/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var cmd services.LoginCommand
	if err := decodeJSON(w, r, &cmd); err != nil {
		h.fail(w, r, err, "Login failed")
		return
	}
	if err := cmd.Validate(); err != nil {
		h.fail(w, r, err, "Login failed")
		return
	}

	user, token, err := h.users.Login(r.Context(), cmd.Username, cmd.Password)
	if err != nil {
		h.fail(w, r, err, "Login failed")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{User: user, Token: token})
}

// Me handles GET /users/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	user, err := h.users.GetProfile(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "Failed to load profile")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UpdateMe handles PATCH /users/me.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	var cmd services.UpdateProfileCommand
	if err := decodeJSON(w, r, &cmd); err != nil {
		h.fail(w, r, err, "Failed to update profile")
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), id, cmd)
	if err != nil {
		if errors.Is(err, common.ErrorDuplicateIdentity) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Username already taken"})
			return
		}
		h.fail(w, r, err, "Failed to update profile")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// ChangePassword handles POST /users/me/change-password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	var cmd services.ChangePasswordCommand
	if err := decodeJSON(w, r, &cmd); err != nil {
		h.fail(w, r, err, "Failed to change password")
		return
	}

	if err := h.users.ChangePassword(r.Context(), id, cmd); err != nil {
		if errors.Is(err, common.ErrorInvalidCredentials) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Current password is incorrect"})
			return
		}
		h.fail(w, r, err, "Failed to change password")
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Password updated successfully"})
}

// CreateAdmin handles POST /admin/create.
func (h *Handler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())

	var cmd services.CreateAdminCommand
	if err := decodeJSON(w, r, &cmd); err != nil {
		h.fail(w, r, err, "Failed to create admin user")
		return
	}

	user, err := h.users.CreateAdmin(r.Context(), id, cmd)
	if err != nil {
		if errors.Is(err, common.ErrorDuplicateIdentity) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Username already exists", Field: "username"})
			return
		}
		h.fail(w, r, err, "Failed to create admin user")
		return
	}

	writeJSON(w, http.StatusCreated, createAdminResponse{Message: "Admin user created successfully", Username: user.Username})
}
