package ledger

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mohitbudhwar0786/earning-website/models"
	"github.com/mohitbudhwar0786/earning-website/store"
	"github.com/mohitbudhwar0786/earning-website/utils"
)

type AdminInput struct {
	Username string `json:"username" validate:"required,username"`
	Name     string `json:"name" validate:"required,nameok"`
	Password string `json:"password" validate:"required,pwdmin"`
}

// CreateAdmin adds an operator account.
func (s *Service) CreateAdmin(ctx context.Context, in AdminInput) (models.Admin, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := utils.ValidateStruct(in); err != nil {
		return models.Admin{}, invalid(err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return models.Admin{}, err
	}
	a := models.Admin{Username: in.Username, Name: strings.TrimSpace(in.Name), Password: string(hash), IsActive: true}
	err = store.WithTx(ctx, s.store, func(tx store.Tx) error {
		if err := tx.CreateAdmin(ctx, &a); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return ErrUserExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return models.Admin{}, err
	}
	s.log.Info("admin created", zap.Uint("admin_id", a.ID), zap.String("username", a.Username))
	return a, nil
}

// AuthenticateAdmin returns the active admin matching the credentials.
func (s *Service) AuthenticateAdmin(ctx context.Context, username, password string) (models.Admin, error) {
	a, err := s.store.FindAdminByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, store.ErrNotFound) {
		return models.Admin{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.Admin{}, err
	}
	if !a.IsActive || !a.ValidatePassword(password) {
		return models.Admin{}, ErrInvalidCredentials
	}
	return a, nil
}

// ActiveAdmin loads an admin by id and fails unless it is active.
func (s *Service) ActiveAdmin(ctx context.Context, id uint) (models.Admin, error) {
	a, err := s.store.FindAdmin(ctx, id)
	if err != nil {
		return models.Admin{}, err
	}
	if !a.IsActive {
		return models.Admin{}, ErrInvalidCredentials
	}
	return a, nil
}
