package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anshc022/imf-gadget-api/internal/common"
	"github.com/anshc022/imf-gadget-api/internal/dbx"
	"github.com/anshc022/imf-gadget-api/internal/logging"
	"github.com/anshc022/imf-gadget-api/internal/server/auth"
	"github.com/anshc022/imf-gadget-api/internal/server/config"
	"github.com/anshc022/imf-gadget-api/internal/server/models"
	"github.com/anshc022/imf-gadget-api/internal/server/repositories/repomanager"
	"github.com/anshc022/imf-gadget-api/internal/server/scoring"
	"github.com/google/uuid"
)

const (
	codenameSuffixLen   = 6
	confirmationCodeLen = 6
	codenameAttempts    = 3
)

// GadgetService drives the gadget lifecycle. Every mutation is a single
// transaction that locks the row, applies the change, clamps the metrics
// and writes the row back.
type GadgetService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	timeout     time.Duration
	now         func() time.Time
	randomCode  func(n int) (string, error)
}

// GadgetOption customises a GadgetService.
type GadgetOption func(*GadgetService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) GadgetOption {
	return func(s *GadgetService) { s.now = now }
}

// WithCodeGenerator replaces the random base36 generator used for codename
// suffixes and confirmation codes.
func WithCodeGenerator(gen func(n int) (string, error)) GadgetOption {
	return func(s *GadgetService) { s.randomCode = gen }
}

// NewGadgetService constructs a GadgetService.
func NewGadgetService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger, opts ...GadgetOption) *GadgetService {
	s := &GadgetService{
		db:          db,
		repomanager: m,
		logger:      logger,
		timeout:     cfg.StorageTimeout,
		now:         func() time.Time { return time.Now().UTC() },
		randomCode:  common.MakeRandBase36String,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns gadgets annotated with a success probability computed now.
// An empty status lists everything except Destroyed gadgets.
func (s *GadgetService) List(ctx context.Context, id auth.Identity, status string) ([]models.GadgetView, error) {
	if !auth.Authorize(id, auth.OpListGadgets) {
		return nil, common.ErrorForbidden
	}

	filter := models.Status(status)
	if status != "" && !filter.Valid() {
		return nil, common.Invalid("status", "status must be one of: Available, Deployed, Destroyed, Decommissioned")
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	list, err := s.repomanager.Gadgets(s.db).ListByStatus(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing gadgets: %w", err)
	}

	now := s.now()
	views := make([]models.GadgetView, 0, len(list))
	for _, g := range list {
		views = append(views, scoring.Annotate(g, now))
	}

	s.logger.Debug(ctx, "gadgets listed", "count", len(views), "status", status)
	return views, nil
}

// Create registers a new gadget under a generated codename
// "The <name> <suffix>". A clashing codename is regenerated a few times.
func (s *GadgetService) Create(ctx context.Context, id auth.Identity, cmd CreateGadgetCommand) (*models.Gadget, error) {
	if !auth.Authorize(id, auth.OpCreateGadget) {
		return nil, common.ErrorForbidden
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		out *models.Gadget
		err error
	)
	for attempt := 0; attempt < codenameAttempts; attempt++ {
		var g *models.Gadget
		if g, err = s.newGadget(cmd); err != nil {
			return nil, err
		}

		err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			var err error
			out, err = s.repomanager.Gadgets(tx).Create(ctx, g)
			return err
		})
		if !errors.Is(err, common.ErrorDuplicateIdentity) {
			break
		}
		s.logger.Warn(ctx, "codename collision, regenerating", "codename", g.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("error creating gadget: %w", err)
	}

	s.logger.Info(ctx, "gadget created", "id", out.ID, "codename", out.Name, "by", id.UserID)
	return out, nil
}

// Update applies a partial update.
func (s *GadgetService) Update(ctx context.Context, id auth.Identity, gadgetID string, cmd UpdateGadgetCommand) (*models.Gadget, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	g, err := s.mutate(ctx, id, auth.OpUpdateGadget, gadgetID, cmd.Apply)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "gadget updated", "id", g.ID, "status", string(g.Status), "by", id.UserID)
	return g, nil
}

// Decommission retires a gadget. An empty reason means
// DefaultDecommissionReason.
func (s *GadgetService) Decommission(ctx context.Context, id auth.Identity, gadgetID, reason string) (*models.Gadget, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultDecommissionReason
	}

	g, err := s.mutate(ctx, id, auth.OpDecommissionGadget, gadgetID, func(g *models.Gadget, now time.Time) error {
		if g.Status.IsTerminal() {
			return common.ErrTerminalStatus
		}
		g.Retire(models.StatusDecommissioned, reason, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "gadget decommissioned", "id", g.ID, "reason", reason, "by", id.UserID)
	return g, nil
}

// SelfDestruct destroys a gadget and returns an informational confirmation
// code. The code is not stored.
func (s *GadgetService) SelfDestruct(ctx context.Context, id auth.Identity, gadgetID string) (string, error) {
	var code string

	g, err := s.mutate(ctx, id, auth.OpSelfDestructGadget, gadgetID, func(g *models.Gadget, now time.Time) error {
		if g.Status.IsTerminal() {
			return common.ErrTerminalStatus
		}
		var err error
		if code, err = s.randomCode(confirmationCodeLen); err != nil {
			return fmt.Errorf("error generating confirmation code: %w", err)
		}
		g.Retire(models.StatusDestroyed, SelfDestructReason, now)
		return nil
	})
	if err != nil {
		return "", err
	}

	s.logger.Warn(ctx, "self-destruct initiated", "id", g.ID, "by", id.UserID)
	return code, nil
}

// PerformMaintenance recharges the gadget, restarts the maintenance interval
// and raises reliability by 0.1 up to 1.
func (s *GadgetService) PerformMaintenance(ctx context.Context, id auth.Identity, gadgetID string) (*models.Gadget, error) {
	g, err := s.mutate(ctx, id, auth.OpMaintainGadget, gadgetID, func(g *models.Gadget, now time.Time) error {
		due := scoring.NextRoutineMaintenance(now)
		g.PowerLevel = models.MaxPowerLevel
		g.LastMaintenanceDate = &now
		g.NextMaintenanceDue = &due
		g.Reliability = min(1, g.Reliability+0.1)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "maintenance performed", "id", g.ID, "by", id.UserID)
	return g, nil
}

// Import inserts fully specified gadgets in one transaction. Missing ids are
// generated; terminal gadgets without a decommission pair get one stamped.
func (s *GadgetService) Import(ctx context.Context, id auth.Identity, list []models.Gadget) (int, error) {
	if !auth.Authorize(id, auth.OpImportGadgets) {
		return 0, common.ErrorForbidden
	}

	now := s.now()
	prepared := make([]models.Gadget, 0, len(list))
	for i, g := range list {
		if err := prepareImport(&g, now); err != nil {
			return 0, fmt.Errorf("gadget %d (%q): %w", i, g.Name, err)
		}
		prepared = append(prepared, g)
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Gadgets(tx)
		for i := range prepared {
			if _, err := repo.Create(ctx, &prepared[i]); err != nil {
				return fmt.Errorf("gadget %q: %w", prepared[i].Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info(ctx, "gadgets imported", "count", len(prepared), "by", id.UserID)
	return len(prepared), nil
}

// mutate runs one locked read-modify-write of a gadget.
func (s *GadgetService) mutate(ctx context.Context, id auth.Identity, op auth.Operation, gadgetID string,
	apply func(g *models.Gadget, now time.Time) error) (*models.Gadget, error) {

	if !auth.Authorize(id, op) {
		return nil, common.ErrorForbidden
	}
	if _, err := uuid.Parse(gadgetID); err != nil {
		return nil, common.ErrorNotFound
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	var out *models.Gadget
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Gadgets(tx)

		g, err := repo.FindByIDForUpdate(ctx, gadgetID)
		if err != nil {
			return err
		}

		if err := apply(g, s.now()); err != nil {
			return err
		}
		g.Clamp()

		out, err = repo.Save(ctx, g)
		return err
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (s *GadgetService) newGadget(cmd CreateGadgetCommand) (*models.Gadget, error) {
	suffix, err := s.randomCode(codenameSuffixLen)
	if err != nil {
		return nil, fmt.Errorf("error generating codename: %w", err)
	}

	name := strings.TrimSpace(cmd.Name)

	category := strings.TrimSpace(cmd.Category)
	if category == "" {
		category = models.DefaultCategory
	}

	specs := cmd.TechnicalSpecs
	if specs == nil {
		specs = map[string]any{}
	}

	now := s.now()
	due := scoring.NextRoutineMaintenance(now)

	return &models.Gadget{
		ID:                  uuid.NewString(),
		Name:                fmt.Sprintf("The %s %s", name, suffix),
		Status:              models.StatusAvailable,
		Category:            category,
		Description:         cmd.Description,
		Reliability:         models.DefaultReliability,
		PowerLevel:          models.MaxPowerLevel,
		MissionCount:        0,
		LastMaintenanceDate: &now,
		NextMaintenanceDue:  &due,
		TechnicalSpecs:      specs,
	}, nil
}

func prepareImport(g *models.Gadget, now time.Time) error {
	if strings.TrimSpace(g.Name) == "" {
		return common.Invalid("name", "name is required")
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	} else if _, err := uuid.Parse(g.ID); err != nil {
		return common.Invalid("id", "id must be a UUID")
	}
	if g.Status == "" {
		g.Status = models.StatusAvailable
	}
	if !g.Status.Valid() {
		return common.Invalid("status", "status must be one of: Available, Deployed, Destroyed, Decommissioned")
	}
	if g.Category == "" {
		g.Category = models.DefaultCategory
	}
	if g.TechnicalSpecs == nil {
		g.TechnicalSpecs = map[string]any{}
	}

	if g.Status.IsTerminal() {
		if g.DecommissionedAt == nil || g.DecommissionReason == nil {
			at := now
			if g.DecommissionedAt != nil {
				at = *g.DecommissionedAt
			}
			g.Retire(g.Status, retireReason(g.Status, g.DecommissionReason), at)
		}
	} else if g.DecommissionedAt != nil || g.DecommissionReason != nil {
		return common.Invalid("decommissionReason", "decommission fields are only allowed for Destroyed or Decommissioned gadgets")
	}

	g.Clamp()
	return nil
}
