package ledger

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mohitbudhwar0786/earning-website/models"
	"github.com/mohitbudhwar0786/earning-website/store"
	"github.com/mohitbudhwar0786/earning-website/utils"
)

type WithdrawalInput struct {
	Amount  decimal.Decimal `json:"amount"`
	UPIID   string          `json:"upi_id" validate:"required,upi"`
	UPIName string          `json:"upi_name" validate:"required,nameok"`
}

// RequestWithdrawal debits the wallet and opens a pending withdrawal.
func (s *Service) RequestWithdrawal(ctx context.Context, userID uint, in WithdrawalInput) (models.Withdrawal, error) {
	in.UPIID = strings.TrimSpace(in.UPIID)
	in.UPIName = strings.TrimSpace(in.UPIName)
	if err := utils.ValidateStruct(in); err != nil {
		return models.Withdrawal{}, invalid(err)
	}
	if in.Amount.LessThan(s.cfg.MinWithdrawal) {
		return models.Withdrawal{}, fmt.Errorf("%w: minimum withdrawal is %s", ErrBelowMinimum, s.cfg.MinWithdrawal)
	}

	var wd models.Withdrawal
	err := store.WithTx(ctx, s.store, func(tx store.Tx) error {
		if _, err := tx.LockUser(ctx, userID); err != nil {
			return err
		}
		w, err := tx.GetOrCreateWallet(ctx, userID)
		if err != nil {
			return err
		}
		if in.Amount.GreaterThan(w.Balance) {
			return ErrInsufficientBalance
		}
		now := s.now()
		w.Balance = w.Balance.Sub(in.Amount)
		w.LastUpdated = now
		if err := tx.SaveWallet(ctx, &w); err != nil {
			return err
		}
		wd = models.Withdrawal{
			UserID:      userID,
			Amount:      in.Amount,
			Status:      models.WithdrawalPending,
			UPIID:       in.UPIID,
			UPIName:     in.UPIName,
			RequestedAt: now,
		}
		return tx.CreateWithdrawal(ctx, &wd)
	})
	if err != nil {
		return models.Withdrawal{}, err
	}
	s.log.Info("withdrawal requested", zap.Uint("user_id", userID), zap.Uint("withdrawal_id", wd.ID), zap.String("amount", wd.Amount.StringFixed(2)))
	return wd, nil
}

// SubmitWithdrawalPayment records the user's confirmation details and hands
// the withdrawal to an admin.
func (s *Service) SubmitWithdrawalPayment(ctx context.Context, userID, withdrawalID uint, proof PaymentProof) (models.Withdrawal, error) {
	if err := utils.ValidateStruct(proof); err != nil {
		return models.Withdrawal{}, invalid(err)
	}
	if err := proof.check(); err != nil {
		return models.Withdrawal{}, err
	}
	var wd models.Withdrawal
	err := store.WithTx(ctx, s.store, func(tx store.Tx) error {
		var err error
		wd, err = tx.LockWithdrawal(ctx, withdrawalID)
		if err != nil {
			return err
		}
		if wd.UserID != userID {
			return ErrNotFound
		}
		if wd.Status != models.WithdrawalPending {
			return fmt.Errorf("%w: withdrawal is %s", ErrInvalidTransition, wd.Status)
		}
		wd.PaymentMethod = &proof.Method
		wd.PaymentReference = &proof.Reference
		wd.PaymentTimeHours = &proof.Hours
		wd.PaymentTimeMinutes = &proof.Minutes
		wd.Status = models.WithdrawalAwaitingConfirmation
		return tx.SaveWithdrawal(ctx, &wd)
	})
	if err != nil {
		return models.Withdrawal{}, err
	}
	return wd, nil
}

// withdrawalMoves lists the statuses an admin may move a withdrawal to from
// each current status. Completed and cancelled are final. A withdrawal the
// user has not confirmed yet can only be cancelled.
var withdrawalMoves = map[string][]string{
	models.WithdrawalPending:              {models.WithdrawalCancelled},
	models.WithdrawalAwaitingConfirmation: {models.WithdrawalProcessing, models.WithdrawalCompleted, models.WithdrawalCancelled},
	models.WithdrawalProcessing:           {models.WithdrawalCompleted, models.WithdrawalCancelled},
}

func canMoveWithdrawal(from, to string) bool {
	return slices.Contains(withdrawalMoves[from], to)
}

// UpdateWithdrawalStatus is the admin's move of a withdrawal to processing,
// completed or cancelled, following withdrawalMoves. proof may be nil; its
// empty fields, and a 00:00 payment time, leave the stored values alone.
func (s *Service) UpdateWithdrawalStatus(ctx context.Context, withdrawalID uint, status string, proof *PaymentProof) (models.Withdrawal, error) {
	switch status {
	case models.WithdrawalProcessing, models.WithdrawalCompleted, models.WithdrawalCancelled:
	default:
		return models.Withdrawal{}, invalid(fmt.Errorf("unknown status %q", status))
	}
	if proof != nil {
		if err := proof.check(); err != nil {
			return models.Withdrawal{}, err
		}
	}

	var wd models.Withdrawal
	err := store.WithTx(ctx, s.store, func(tx store.Tx) error {
		var err error
		wd, err = tx.LockWithdrawal(ctx, withdrawalID)
		if err != nil {
			return err
		}
		if !canMoveWithdrawal(wd.Status, status) {
			return fmt.Errorf("%w: withdrawal is %s", ErrInvalidTransition, wd.Status)
		}
		if proof != nil {
			applyProof(&wd, proof)
		}
		now := s.now()
		wd.Status = status

		switch status {
		case models.WithdrawalProcessing:
			wd.ProcessedAt = &now
		case models.WithdrawalCompleted, models.WithdrawalCancelled:
			if status == models.WithdrawalCompleted {
				wd.ProcessedAt = &now
			}
			w, err := tx.GetOrCreateWallet(ctx, wd.UserID)
			if err != nil {
				return err
			}
			if status == models.WithdrawalCompleted {
				w.TotalWithdrawn = w.TotalWithdrawn.Add(wd.Amount)
			} else {
				w.Balance = w.Balance.Add(wd.Amount)
			}
			w.LastUpdated = now
			if err := tx.SaveWallet(ctx, &w); err != nil {
				return err
			}
		}
		return tx.SaveWithdrawal(ctx, &wd)
	})
	if err != nil {
		return models.Withdrawal{}, err
	}
	s.log.Info("withdrawal updated", zap.Uint("withdrawal_id", withdrawalID), zap.String("status", status))
	return wd, nil
}

func applyProof(wd *models.Withdrawal, p *PaymentProof) {
	if p.Method != "" {
		m := p.Method
		wd.PaymentMethod = &m
	}
	if p.Reference != "" {
		r := p.Reference
		wd.PaymentReference = &r
	}
	if p.Hours != 0 || p.Minutes != 0 {
		h, m := p.Hours, p.Minutes
		wd.PaymentTimeHours = &h
		wd.PaymentTimeMinutes = &m
	}
}
