package services

import (
	"strings"
	"time"

	"github.com/anshc022/imf-gadget-api/internal/common"
	"github.com/anshc022/imf-gadget-api/internal/server/models"
	"github.com/anshc022/imf-gadget-api/internal/server/scoring"
	"github.com/anshc022/imf-gadget-api/internal/server/validation"
	"github.com/anshc022/imf-gadget-api/internal/timex"
)

// Default decommission reasons.
const (
	DefaultDecommissionReason = "Standard decommission procedure"
	SelfDestructReason        = "Self-destructed"
	DestroyedReason           = "Reported destroyed"
)

// RegisterCommand is the input of UserService.Register.
type RegisterCommand struct {
	Username string `json:"username" validate:"notblank,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=admin agent technician"`
}

func (c RegisterCommand) Validate() error {
	c.Username = strings.TrimSpace(c.Username)
	return validation.Struct(c)
}

// LoginCommand is the input of UserService.Login.
type LoginCommand struct {
	Username string `json:"username" validate:"notblank"`
	Password string `json:"password" validate:"required"`
}

func (c LoginCommand) Validate() error {
	return validation.Struct(c)
}

// UpdateProfileCommand carries optional profile changes.
type UpdateProfileCommand struct {
	Username *string `json:"username" validate:"omitnil,notblank,min=3,max=64"`
}

func (c UpdateProfileCommand) Validate() error {
	if c.Username != nil {
		trimmed := strings.TrimSpace(*c.Username)
		c.Username = &trimmed
	}
	return validation.Struct(c)
}

// ChangePasswordCommand is the input of UserService.ChangePassword.
type ChangePasswordCommand struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
}

func (c ChangePasswordCommand) Validate() error {
	return validation.Struct(c)
}

// CreateAdminCommand is the input of UserService.CreateAdmin.
type CreateAdminCommand struct {
	Username string `json:"username" validate:"notblank,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

func (c CreateAdminCommand) Validate() error {
	c.Username = strings.TrimSpace(c.Username)
	return validation.Struct(c)
}

// CreateGadgetCommand is the input of GadgetService.Create. Name is the base
// of the generated codename.
type CreateGadgetCommand struct {
	Name           string         `json:"name" validate:"notblank,max=100"`
	Category       string         `json:"category" validate:"max=64"`
	Description    *string        `json:"description" validate:"omitnil,max=2000"`
	TechnicalSpecs map[string]any `json:"technicalSpecs"`
}

func (c CreateGadgetCommand) Validate() error {
	return validation.Struct(c)
}

// UpdateGadgetCommand carries a partial gadget update. Nil fields are left
// untouched.
type UpdateGadgetCommand struct {
	Name               *string        `json:"name" validate:"omitnil,notblank,max=150"`
	Status             *models.Status `json:"status" validate:"omitnil,oneof=Available Deployed Destroyed Decommissioned"`
	MissionCount       *int           `json:"missionCount" validate:"omitnil,min=0"`
	LastMissionDate    *timex.Time    `json:"lastMissionDate"`
	DecommissionReason *string        `json:"decommissionReason" validate:"omitnil,notblank,max=255"`
}

func (c UpdateGadgetCommand) Validate() error {
	return validation.Struct(c)
}

// Apply mutates g in place. Deploying stamps the mission date, counts the
// mission and reschedules maintenance; moving into a terminal status stamps
// the decommission pair. Status changes out of a terminal status fail with
// common.ErrTerminalStatus.
func (c UpdateGadgetCommand) Apply(g *models.Gadget, now time.Time) error {
	target := g.Status
	if c.Status != nil {
		target = *c.Status
	}
	if g.Status.IsTerminal() && target != g.Status {
		return common.ErrTerminalStatus
	}
	if c.DecommissionReason != nil && !target.IsTerminal() {
		return common.Invalid("decommissionReason", "decommissionReason is only allowed for Destroyed or Decommissioned gadgets")
	}

	if c.Name != nil {
		g.Name = strings.TrimSpace(*c.Name)
	}

	if c.Status != nil {
		switch {
		case target == models.StatusDeployed:
			// every deployment counts as a mission, even a repeated one
			g.Status = target
			g.LastMissionDate = &now
			g.MissionCount++
			scoring.ScheduleNextMaintenance(g, now)
		case target == g.Status:
		case target.IsTerminal():
			g.Retire(target, retireReason(target, c.DecommissionReason), now)
		default:
			g.Status = target
		}
	}

	if c.MissionCount != nil {
		g.MissionCount = *c.MissionCount
	}
	if c.LastMissionDate != nil {
		d := c.LastMissionDate.UTC()
		g.LastMissionDate = &d
	}
	if c.DecommissionReason != nil && g.Status.IsTerminal() {
		reason := strings.TrimSpace(*c.DecommissionReason)
		g.DecommissionReason = &reason
	}

	return nil
}

func retireReason(status models.Status, requested *string) string {
	if requested != nil {
		return strings.TrimSpace(*requested)
	}
	if status == models.StatusDestroyed {
		return DestroyedReason
	}
	return DefaultDecommissionReason
}
