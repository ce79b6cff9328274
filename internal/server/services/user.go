// Package services contains server-side business logic. This file implements
// UserService: registration, login, token verification, profile and
// password management.
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
)

// UserService provides authentication-related operations.
type UserService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	logger        logging.Logger
	jwtSecret     []byte
	tokenValidity time.Duration
	bcryptCost    int
	timeout       time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:            db,
		repomanager:   m,
		logger:        logger,
		jwtSecret:     []byte(cfg.SecretKey),
		tokenValidity: cfg.TokenValidityDuration,
		bcryptCost:    cfg.BcryptCost,
		timeout:       cfg.StorageTimeout,
	}
}

// Register creates a user. An empty role means models.DefaultRole; a taken
// username yields common.ErrorDuplicateIdentity.
func (s *UserService) Register(ctx context.Context, cmd RegisterCommand) (*models.User, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	role, err := auth.ParseRole(cmd.Role)
	if err != nil {
		return nil, err
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.createUser(ctx, strings.TrimSpace(cmd.Username), cmd.Password, role)
}

// Login verifies credentials and issues a signed token. Unknown usernames and
// wrong passwords both yield common.ErrorInvalidCredentials.
func (s *UserService) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByLogin(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.DummyCompare(password)
			s.logger.Warn(ctx, "login failed", "username", username)
			return nil, "", common.ErrorInvalidCredentials
		}
		return nil, "", fmt.Errorf("error searching user: %w", err)
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, common.ErrorInvalidCredentials) {
			s.logger.Warn(ctx, "login failed", "username", username)
			return nil, "", common.ErrorInvalidCredentials
		}
		return nil, "", fmt.Errorf("error checking password: %w", err)
	}

	token, err := auth.GenerateToken(user.ID, user.Role, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, "", fmt.Errorf("error signing token: %w", err)
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return user, token, nil
}

// Authenticate resolves a bearer token into the identity of a stored user.
// The role in the identity is the one currently stored, not the one in the
// token.
func (s *UserService) Authenticate(ctx context.Context, token string) (auth.Identity, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return auth.Identity{}, err
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.repomanager.Users(s.db).GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return auth.Identity{}, common.ErrUnknownSubject
		}
		return auth.Identity{}, fmt.Errorf("error searching user: %w", err)
	}

	return identityOf(user), nil
}

// GetProfile returns the caller's stored record.
func (s *UserService) GetProfile(ctx context.Context, id auth.Identity) (*models.User, error) {
	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.repomanager.Users(s.db).GetUserByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnknownSubject
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	return user, nil
}

// UpdateProfile renames the caller. A username held by someone else yields
// common.ErrorDuplicateIdentity.
func (s *UserService) UpdateProfile(ctx context.Context, id auth.Identity, cmd UpdateProfileCommand) (*models.User, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if cmd.Username == nil {
		return s.GetProfile(ctx, id)
	}
	username := strings.TrimSpace(*cmd.Username)

	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	var out *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		existing, err := repo.GetUserByLogin(ctx, username)
		switch {
		case err == nil && existing.ID != id.UserID:
			return common.ErrorDuplicateIdentity
		case err != nil && !errors.Is(err, common.ErrorNotFound):
			return err
		}

		out, err = repo.UpdateUsername(ctx, id.UserID, username)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnknownSubject
		}
		return nil, err
	}

	s.logger.Info(ctx, "profile updated", "user_id", id.UserID)
	return out, nil
}

// ChangePassword re-verifies the current password before storing a digest
// of the new one. A wrong current password yields
// common.ErrorInvalidCredentials.
func (s *UserService) ChangePassword(ctx context.Context, id auth.Identity, cmd ChangePasswordCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetUserByID(ctx, id.UserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrUnknownSubject
			}
			return err
		}

		if err := auth.CheckPassword(user.PasswordHash, cmd.CurrentPassword); err != nil {
			return err
		}

		hash, err := auth.HashPassword(cmd.NewPassword, s.bcryptCost)
		if err != nil {
			return err
		}

		return repo.UpdatePasswordHash(ctx, user.ID, hash)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "password changed", "user_id", id.UserID)
	return nil
}

// CreateAdmin creates a user with the admin role on behalf of an admin caller.
func (s *UserService) CreateAdmin(ctx context.Context, caller auth.Identity, cmd CreateAdminCommand) (*models.User, error) {
	if !auth.Authorize(caller, auth.OpCreateAdmin) {
		return nil, common.ErrorForbidden
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.createUser(ctx, strings.TrimSpace(cmd.Username), cmd.Password, models.RoleAdmin)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "admin created", "user_id", user.ID, "by", caller.UserID)
	return user, nil
}

// EnsureDefaultAdmin creates an admin account when none exists yet. It
// reports whether an account was created. Empty credentials disable it.
func (s *UserService) EnsureDefaultAdmin(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.repomanager.Users(s.db).CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	if _, err := s.createUser(ctx, username, password, models.RoleAdmin); err != nil {
		if errors.Is(err, common.ErrorDuplicateIdentity) {
			return false, nil
		}
		return false, err
	}

	s.logger.Warn(ctx, "default admin account created, change its password", "username", username)
	return true, nil
}

func (s *UserService) createUser(ctx context.Context, username, password string, role models.Role) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	if _, err := repo.GetUserByLogin(ctx, username); err == nil {
		s.logger.Warn(ctx, "registration failed, username taken", "username", username)
		return nil, common.ErrorDuplicateIdentity
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user, err := repo.Create(ctx, &models.User{Username: username, PasswordHash: hash, Role: role})
	if err != nil {
		if errors.Is(err, common.ErrorDuplicateIdentity) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID, "role", string(user.Role))
	return user, nil
}

func identityOf(u *models.User) auth.Identity {
	return auth.Identity{UserID: u.ID, Username: u.Username, Role: u.Role}
}
