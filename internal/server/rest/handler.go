// Package rest exposes the gadget API over HTTP/JSON.
package rest

import (
	"context"
	"time"

	"github.com/anshc022/imf-gadget-api/internal/logging"
	"github.com/anshc022/imf-gadget-api/internal/server/auth"
	"github.com/anshc022/imf-gadget-api/internal/server/models"
	"github.com/anshc022/imf-gadget-api/internal/server/services"
)

// UserService is the subset of services.UserService the handlers need.
type UserService interface {
	Register(ctx context.Context, cmd services.RegisterCommand) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.User, string, error)
	Authenticate(ctx context.Context, token string) (auth.Identity, error)
	GetProfile(ctx context.Context, id auth.Identity) (*models.User, error)
	UpdateProfile(ctx context.Context, id auth.Identity, cmd services.UpdateProfileCommand) (*models.User, error)
	ChangePassword(ctx context.Context, id auth.Identity, cmd services.ChangePasswordCommand) error
	CreateAdmin(ctx context.Context, caller auth.Identity, cmd services.CreateAdminCommand) (*models.User, error)
}

// GadgetService is the subset of services.GadgetService the handlers need.
type GadgetService interface {
	List(ctx context.Context, id auth.Identity, status string) ([]models.GadgetView, error)
	Create(ctx context.Context, id auth.Identity, cmd services.CreateGadgetCommand) (*models.Gadget, error)
	Update(ctx context.Context, id auth.Identity, gadgetID string, cmd services.UpdateGadgetCommand) (*models.Gadget, error)
	Decommission(ctx context.Context, id auth.Identity, gadgetID, reason string) (*models.Gadget, error)
	SelfDestruct(ctx context.Context, id auth.Identity, gadgetID string) (string, error)
	PerformMaintenance(ctx context.Context, id auth.Identity, gadgetID string) (*models.Gadget, error)
}

// Handler holds the HTTP handlers of the API.
type Handler struct {
	users       UserService
	gadgets     GadgetService
	logger      logging.Logger
	development bool
	now         func() time.Time
}

// NewHandler builds a Handler. In development mode internal error details
// are echoed to clients.
func NewHandler(us UserService, gs GadgetService, logger logging.Logger, development bool) *Handler {
	return &Handler{
		users:       us,
		gadgets:     gs,
		logger:      logger.With("module", "rest"),
		development: development,
		now:         time.Now,
	}
}
