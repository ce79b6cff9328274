package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anshc022/imf-gadget-api/internal/common"
	"github.com/anshc022/imf-gadget-api/internal/logging"
	"github.com/anshc022/imf-gadget-api/internal/server/auth"
	"github.com/anshc022/imf-gadget-api/internal/server/models"
	"github.com/anshc022/imf-gadget-api/internal/server/services"
)

var errBoom = errors.New("boom")

var (
	adminID = auth.Identity{UserID: "u-1", Username: "m", Role: models.RoleAdmin}
	techID  = auth.Identity{UserID: "u-2", Username: "q", Role: models.RoleTechnician}
	agentID = auth.Identity{UserID: "u-3", Username: "bond", Role: models.RoleAgent}
)

// tokens understood by fakeUsers.Authenticate
const (
	adminToken = "admin-token"
	techToken  = "tech-token"
	agentToken = "agent-token"
)

type fakeUsers struct {
	register       func(services.RegisterCommand) (*models.User, error)
	login          func(username, password string) (*models.User, string, error)
	authErr        error
	profile        func(auth.Identity) (*models.User, error)
	updateProfile  func(auth.Identity, services.UpdateProfileCommand) (*models.User, error)
	changePassword func(auth.Identity, services.ChangePasswordCommand) error
	createAdmin    func(auth.Identity, services.CreateAdminCommand) (*models.User, error)
}

func (f *fakeUsers) Register(_ context.Context, cmd services.RegisterCommand) (*models.User, error) {
	return f.register(cmd)
}

func (f *fakeUsers) Login(_ context.Context, username, password string) (*models.User, string, error) {
	return f.login(username, password)
}

func (f *fakeUsers) Authenticate(_ context.Context, token string) (auth.Identity, error) {
	if f.authErr != nil {
		return auth.Identity{}, f.authErr
	}
	switch token {
	case "":
		return auth.Identity{}, common.ErrMissingToken
	case adminToken:
		return adminID, nil
	case techToken:
		return techID, nil
	case agentToken:
		return agentID, nil
	}
	return auth.Identity{}, common.ErrInvalidToken
}

func (f *fakeUsers) GetProfile(_ context.Context, id auth.Identity) (*models.User, error) {
	return f.profile(id)
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id auth.Identity, cmd services.UpdateProfileCommand) (*models.User, error) {
	return f.updateProfile(id, cmd)
}

func (f *fakeUsers) ChangePassword(_ context.Context, id auth.Identity, cmd services.ChangePasswordCommand) error {
	return f.changePassword(id, cmd)
}

func (f *fakeUsers) CreateAdmin(_ context.Context, caller auth.Identity, cmd services.CreateAdminCommand) (*models.User, error) {
	return f.createAdmin(caller, cmd)
}

type fakeGadgets struct {
	list         func(auth.Identity, string) ([]models.GadgetView, error)
	create       func(auth.Identity, services.CreateGadgetCommand) (*models.Gadget, error)
	update       func(auth.Identity, string, services.UpdateGadgetCommand) (*models.Gadget, error)
	decommission func(auth.Identity, string, string) (*models.Gadget, error)
	selfDestruct func(auth.Identity, string) (string, error)
	maintain     func(auth.Identity, string) (*models.Gadget, error)
}

func (f *fakeGadgets) List(_ context.Context, id auth.Identity, status string) ([]models.GadgetView, error) {
	return f.list(id, status)
}

func (f *fakeGadgets) Create(_ context.Context, id auth.Identity, cmd services.CreateGadgetCommand) (*models.Gadget, error) {
	return f.create(id, cmd)
}

func (f *fakeGadgets) Update(_ context.Context, id auth.Identity, gadgetID string, cmd services.UpdateGadgetCommand) (*models.Gadget, error) {
	return f.update(id, gadgetID, cmd)
}

func (f *fakeGadgets) Decommission(_ context.Context, id auth.Identity, gadgetID, reason string) (*models.Gadget, error) {
	return f.decommission(id, gadgetID, reason)
}

func (f *fakeGadgets) SelfDestruct(_ context.Context, id auth.Identity, gadgetID string) (string, error) {
	return f.selfDestruct(id, gadgetID)
}

func (f *fakeGadgets) PerformMaintenance(_ context.Context, id auth.Identity, gadgetID string) (*models.Gadget, error) {
	return f.maintain(id, gadgetID)
}

type testAPI struct {
	users   *fakeUsers
	gadgets *fakeGadgets
	handler *Handler
	router  http.Handler
}

func newTestAPI(t *testing.T, opts ...func(*RouterOptions)) *testAPI {
	t.Helper()
	api := &testAPI{users: &fakeUsers{}, gadgets: &fakeGadgets{}}
	api.handler = NewHandler(api.users, api.gadgets, logging.Nop(), false)
	api.handler.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	ro := RouterOptions{}
	for _, o := range opts {
		o(&ro)
	}
	api.router = NewRouter(api.handler, logging.Nop(), ro)
	return api
}

func (a *testAPI) do(method, target, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}
