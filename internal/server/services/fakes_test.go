package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/anshc022/imf-gadget-api/internal/common"
	"github.com/anshc022/imf-gadget-api/internal/dbx"
	"github.com/anshc022/imf-gadget-api/internal/server/config"
	"github.com/anshc022/imf-gadget-api/internal/server/models"
	"github.com/anshc022/imf-gadget-api/internal/server/repositories/gadgets"
	"github.com/anshc022/imf-gadget-api/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

var errBoom = errors.New("boom")

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:             "k",
		TokenValidityDuration: time.Hour,
		BcryptCost:            bcrypt.MinCost,
		StorageTimeout:        time.Second,
	}
}

// --- fake users repo ---

type fakeUsersRepo struct {
	mu     sync.Mutex
	byID   map[string]*models.User
	nextID int

	getErr    error
	createErr error
	updateErr error
	countErr  error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[string]*models.User{}}
}

func (f *fakeUsersRepo) add(u models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := u
	f.byID[u.ID] = &cp
	return &cp
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.byID {
		if existing.Username == u.Username {
			return nil, common.ErrorDuplicateIdentity
		}
	}
	f.nextID++
	u.ID = "u-" + strconv.Itoa(f.nextID)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.byID[u.ID] = &cp
	return u, nil
}

func (f *fakeUsersRepo) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Username == login {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) UpdateUsername(ctx context.Context, id, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.Username = username
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUsersRepo) CountByRole(ctx context.Context, role models.Role) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	n := 0
	for _, u := range f.byID {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// --- fake gadgets repo ---

type fakeGadgetsRepo struct {
	mu   sync.Mutex
	byID map[string]*models.Gadget

	// createErrs are returned by successive Create calls before falling
	// through to the store.
	createErrs []error
	findErr    error
	saveErr    error
	listErr    error

	lockedIDs  []string
	saved      []models.Gadget
	listFilter []models.Status
}

func newFakeGadgetsRepo() *fakeGadgetsRepo {
	return &fakeGadgetsRepo{byID: map[string]*models.Gadget{}}
}

func (f *fakeGadgetsRepo) add(g models.Gadget) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := g
	f.byID[g.ID] = &cp
}

func (f *fakeGadgetsRepo) get(id string) models.Gadget {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.byID[id]
}

func (f *fakeGadgetsRepo) Create(ctx context.Context, g *models.Gadget) (*models.Gadget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	for _, existing := range f.byID {
		if existing.Name == g.Name {
			return nil, common.ErrorDuplicateIdentity
		}
	}
	g.CreatedAt = time.Now()
	g.UpdatedAt = g.CreatedAt
	cp := *g
	f.byID[g.ID] = &cp
	return g, nil
}

func (f *fakeGadgetsRepo) FindByID(ctx context.Context, id string) (*models.Gadget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	g, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *g
	return &cp, nil
}

func (f *fakeGadgetsRepo) FindByIDForUpdate(ctx context.Context, id string) (*models.Gadget, error) {
	f.mu.Lock()
	f.lockedIDs = append(f.lockedIDs, id)
	f.mu.Unlock()
	return f.FindByID(ctx, id)
}

func (f *fakeGadgetsRepo) Save(ctx context.Context, g *models.Gadget) (*models.Gadget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	if _, ok := f.byID[g.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	g.UpdatedAt = time.Now()
	cp := *g
	f.byID[g.ID] = &cp
	f.saved = append(f.saved, cp)
	return g, nil
}

func (f *fakeGadgetsRepo) ListByStatus(ctx context.Context, status models.Status) ([]models.Gadget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listFilter = append(f.listFilter, status)
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Gadget, 0)
	for _, g := range f.byID {
		if status == "" && g.Status == models.StatusDestroyed {
			continue
		}
		if status != "" && g.Status != status {
			continue
		}
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- fake repo manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	g *fakeGadgetsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newFakeUsersRepo(), g: newFakeGadgetsRepo()}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository          { return m.u }
func (m *fakeRepoManager) Gadgets(db dbx.DBTX) gadgets.Repository      { return m.g }
