package users

import (
	"context"

	"github.com/anshc022/imf-gadget-api/internal/server/models"
)

// Repository is the credential store.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUsername(ctx context.Context, id, username string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	CountByRole(ctx context.Context, role models.Role) (int, error)
}
