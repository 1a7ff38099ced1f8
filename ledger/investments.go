package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mohitbudhwar0786/earning-website/models"
	"github.com/mohitbudhwar0786/earning-website/store"
	"github.com/mohitbudhwar0786/earning-website/utils"
)

// RequestInvestment opens a pending investment awaiting the user's payment.
func (s *Service) RequestInvestment(ctx context.Context, userID uint, amount decimal.Decimal) (models.PendingInvestment, error) {
	if amount.LessThan(s.cfg.MinInvestment) {
		return models.PendingInvestment{}, fmt.Errorf("%w: minimum investment is %s", ErrBelowMinimum, s.cfg.MinInvestment)
	}
	u, err := s.store.FindUser(ctx, userID)
	if err != nil {
		return models.PendingInvestment{}, err
	}
	if remaining, capped := s.remainingCapacity(u); capped && amount.GreaterThan(remaining) {
		return models.PendingInvestment{}, fmt.Errorf("%w: %s remaining", ErrLimitExceeded, remaining)
	}
	daily, err := s.policy.DailyReturn(amount)
	if err != nil {
		return models.PendingInvestment{}, invalid(err)
	}

	now := s.now()
	expires := now.Add(s.cfg.PendingTTL)
	p := models.PendingInvestment{
		UserID:      userID,
		Amount:      amount,
		DailyReturn: daily,
		Status:      models.PendingPayment,
		CreatedAt:   now,
		ExpiresAt:   &expires,
	}
	err = store.WithTx(ctx, s.store, func(tx store.Tx) error {
		return tx.CreatePendingInvestment(ctx, &p)
	})
	if err != nil {
		return models.PendingInvestment{}, err
	}
	s.log.Info("investment requested", zap.Uint("user_id", userID), zap.Uint("pending_id", p.ID), zap.String("amount", amount.StringFixed(2)))
	return p, nil
}

// remainingCapacity reports how much more the user may invest and whether a
// cap applies at all.
func (s *Service) remainingCapacity(u models.User) (decimal.Decimal, bool) {
	if !s.cfg.MaxTotalInvestment.IsPositive() {
		return decimal.Zero, false
	}
	remaining := s.cfg.MaxTotalInvestment.Sub(u.TotalInvestment)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return remaining, true
}

// SubmitInvestmentPayment records the user's payment proof. A request past
// its expiry is marked expired instead and ErrExpired is returned.
func (s *Service) SubmitInvestmentPayment(ctx context.Context, userID, pendingID uint, proof PaymentProof) (models.PendingInvestment, error) {
	if err := utils.ValidateStruct(proof); err != nil {
		return models.PendingInvestment{}, invalid(err)
	}
	if err := proof.check(); err != nil {
		return models.PendingInvestment{}, err
	}

	var p models.PendingInvestment
	expired := false
	err := store.WithTx(ctx, s.store, func(tx store.Tx) error {
		var err error
		p, err = tx.LockPendingInvestment(ctx, pendingID)
		if err != nil {
			return err
		}
		if p.UserID != userID {
			return ErrNotFound
		}
		if p.Status != models.PendingPayment {
			return fmt.Errorf("%w: investment is %s", ErrInvalidTransition, p.Status)
		}
		now := s.now()
		if p.ExpiresAt != nil && now.After(*p.ExpiresAt) {
			p.Status = models.PendingExpired
			expired = true
			return tx.SavePendingInvestment(ctx, &p)
		}
		p.PaymentMethod = &proof.Method
		p.PaymentReference = &proof.Reference
		p.PaymentTimeHours = &proof.Hours
		p.PaymentTimeMinutes = &proof.Minutes
		p.Status = models.PendingAwaitingConfirmation
		p.ConfirmedAt = &now
		return tx.SavePendingInvestment(ctx, &p)
	})
	if err != nil {
		return models.PendingInvestment{}, err
	}
	if expired {
		return p, ErrExpired
	}
	return p, nil
}

// ApproveInvestment activates a paid request: the Investment is created with
// the request's daily return snapshot and the user's total_investment grows.
func (s *Service) ApproveInvestment(ctx context.Context, pendingID uint) (models.Investment, error) {
	var inv models.Investment
	err := store.WithTx(ctx, s.store, func(tx store.Tx) error {
		p, err := tx.LockPendingInvestment(ctx, pendingID)
		if err != nil {
			return err
		}
		if p.Status != models.PendingAwaitingConfirmation {
			return fmt.Errorf("%w: investment is %s", ErrInvalidTransition, p.Status)
		}
		if _, err := tx.LockUser(ctx, p.UserID); err != nil {
			return err
		}
		inv = models.Investment{
			UserID:      p.UserID,
			Amount:      p.Amount,
			DailyReturn: p.DailyReturn,
			IsActive:    true,
		}
		if err := tx.CreateInvestment(ctx, &inv); err != nil {
			return err
		}
		if err := tx.AdjustUserTotals(ctx, p.UserID, store.TotalsDelta{Investment: p.Amount}); err != nil {
			return err
		}
		p.Status = models.PendingConfirmed
		return tx.SavePendingInvestment(ctx, &p)
	})
	if err != nil {
		return models.Investment{}, err
	}
	s.log.Info("investment approved", zap.Uint("pending_id", pendingID), zap.Uint("investment_id", inv.ID), zap.Uint("user_id", inv.UserID))
	return inv, nil
}

func (s *Service) RejectInvestment(ctx context.Context, pendingID uint) (models.PendingInvestment, error) {
	var p models.PendingInvestment
	err := store.WithTx(ctx, s.store, func(tx store.Tx) error {
		var err error
		p, err = tx.LockPendingInvestment(ctx, pendingID)
		if err != nil {
			return err
		}
		if p.Status != models.PendingAwaitingConfirmation {
			return fmt.Errorf("%w: investment is %s", ErrInvalidTransition, p.Status)
		}
		p.Status = models.PendingRejected
		return tx.SavePendingInvestment(ctx, &p)
	})
	if err != nil {
		return models.PendingInvestment{}, err
	}
	s.log.Info("investment rejected", zap.Uint("pending_id", pendingID))
	return p, nil
}

// ExpirePendingInvestments marks unpaid requests past their expiry.
func (s *Service) ExpirePendingInvestments(ctx context.Context, now time.Time) (int, error) {
	var n int
	err := store.WithTx(ctx, s.store, func(tx store.Tx) error {
		due, err := tx.FindExpiredPendingInvestments(ctx, now)
		if err != nil {
			return err
		}
		for _, d := range due {
			p, err := tx.LockPendingInvestment(ctx, d.ID)
			if err != nil {
				return err
			}
			// Paid or expired by a concurrent request since the scan.
			if p.Status != models.PendingPayment || p.ExpiresAt == nil || p.ExpiresAt.After(now) {
				continue
			}
			p.Status = models.PendingExpired
			if err := tx.SavePendingInvestment(ctx, &p); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// DeactivateInvestment closes a running investment. It stops earning from
// the next settlement; total_investment keeps counting it.
func (s *Service) DeactivateInvestment(ctx context.Context, investmentID uint) error {
	err := store.WithTx(ctx, s.store, func(tx store.Tx) error {
		inv, err := tx.FindInvestment(ctx, investmentID)
		if err != nil {
			return err
		}
		if !inv.IsActive {
			return fmt.Errorf("%w: investment already closed", ErrInvalidTransition)
		}
		return tx.DeactivateInvestment(ctx, investmentID)
	})
	if err != nil {
		return err
	}
	s.log.Info("investment deactivated", zap.Uint("investment_id", investmentID))
	return nil
}
