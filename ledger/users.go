package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mohitbudhwar0786/earning-website/models"
	"github.com/mohitbudhwar0786/earning-website/store"
	"github.com/mohitbudhwar0786/earning-website/utils"
)

const referralCodeAttempts = 10

type RegisterInput struct {
	Username     string `json:"username" validate:"required,username"`
	MobileNumber string `json:"mobile_number" validate:"mobile"`
	Email        string `json:"email" validate:"email"`
	Password     string `json:"password" validate:"required,pwdmin"`
	ReferralCode string `json:"referral_code"`
}

// RegisterUser creates the user and, when a referral code is given, the
// referral edge to its owner in the same transaction.
func (s *Service) RegisterUser(ctx context.Context, in RegisterInput) (models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.ReferralCode = strings.TrimSpace(in.ReferralCode)
	if err := utils.ValidateStruct(in); err != nil {
		return models.User{}, invalid(err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	var user models.User
	err = store.WithTx(ctx, s.store, func(tx store.Tx) error {
		var referrer *models.User
		if in.ReferralCode != "" {
			r, err := tx.FindUserByReferralCode(ctx, in.ReferralCode)
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidReferralCode
			}
			if err != nil {
				return err
			}
			referrer = &r
		}

		code, err := uniqueReferralCode(ctx, tx)
		if err != nil {
			return err
		}
		user = models.User{
			Username:     in.Username,
			MobileNumber: optional(in.MobileNumber),
			Email:        optional(strings.ToLower(in.Email)),
			PasswordHash: string(hash),
			ReferralCode: code,
		}
		if referrer != nil {
			user.ReferredBy = &referrer.ReferralCode
		}
		if err := tx.CreateUser(ctx, &user); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return ErrUserExists
			}
			return err
		}
		if referrer == nil {
			return nil
		}
		return tx.CreateReferral(ctx, &models.Referral{
			ReferrerID:     referrer.ID,
			ReferredUserID: user.ID,
			ReferralCode:   referrer.ReferralCode,
		})
	})
	if err != nil {
		return models.User{}, err
	}
	s.log.Info("user registered", zap.Uint("user_id", user.ID), zap.Bool("referred", user.ReferredBy != nil))
	return user, nil
}

func uniqueReferralCode(ctx context.Context, tx store.Tx) (string, error) {
	for i := 0; i < referralCodeAttempts; i++ {
		code := utils.GenerateReferralCode()
		_, err := tx.FindUserByReferralCode(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", errors.New("ledger: could not allocate a referral code")
}

// Authenticate checks a user's password.
func (s *Service) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	u, err := s.store.FindUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// DeleteUser removes the user with everything it owns.
func (s *Service) DeleteUser(ctx context.Context, userID uint) error {
	err := store.WithTx(ctx, s.store, func(tx store.Tx) error {
		return tx.DeleteUser(ctx, userID)
	})
	if err != nil {
		return err
	}
	s.log.Info("user deleted", zap.Uint("user_id", userID))
	return nil
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
