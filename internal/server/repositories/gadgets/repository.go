package gadgets

import (
	"context"

	"github.com/anshc022/imf-gadget-api/internal/server/models"
)

// Repository is the equipment registry.
type Repository interface {
	Create(ctx context.Context, g *models.Gadget) (*models.Gadget, error)
	FindByID(ctx context.Context, id string) (*models.Gadget, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id string) (*models.Gadget, error)
	Save(ctx context.Context, g *models.Gadget) (*models.Gadget, error)
	// ListByStatus returns gadgets with the given status. An empty status
	// returns every gadget that is not Destroyed.
	ListByStatus(ctx context.Context, status models.Status) ([]models.Gadget, error)
}
