// Package settlement posts each user's daily investment and referral
// earnings exactly once per calendar day.
//
// A pass walks every user. Each user is settled in its own transaction
// whose first statement locks the user row. A user that already has
// postings for the date is left alone unless the pass is forced, in which
// case the old postings and the aggregates they fed are reversed before
// reposting, so a forced re-run never double counts.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mohitbudhwar0786/earning-website/lock"
	"github.com/mohitbudhwar0786/earning-website/models"
	"github.com/mohitbudhwar0786/earning-website/policy"
	"github.com/mohitbudhwar0786/earning-website/store"
)

// ErrRunAborted wraps the connectivity error that stopped a pass early.
var ErrRunAborted = errors.New("settlement: run aborted")

const defaultLockTTL = 2 * time.Minute

type Engine struct {
	store     store.Store
	policy    policy.Policy
	locker    lock.Locker
	lockTTL   time.Duration
	clock     func() time.Time
	log       *zap.Logger
	metrics   Metrics
	observers []Observer
}

func New(s store.Store, p policy.Policy, opts ...Option) *Engine {
	if p == nil {
		p = policy.Default
	}
	e := &Engine{
		store:   s,
		policy:  p,
		lockTTL: defaultLockTTL,
		clock:   time.Now,
		log:     zap.NewNop(),
		metrics: nopMetrics{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run settles the current UTC date.
func (e *Engine) Run(ctx context.Context, force bool) (Result, error) {
	return e.SettleDay(ctx, e.clock(), force)
}

// SettleDay settles the UTC calendar date containing day. The returned
// Result is populated even when err is non-nil.
func (e *Engine) SettleDay(ctx context.Context, day time.Time, force bool) (Result, error) {
	res := Result{
		RunID:           uuid.NewString(),
		Date:            models.DateKey(day),
		Force:           force,
		InvestmentTotal: decimal.Zero,
		ReferralTotal:   decimal.Zero,
		StartedAt:       e.clock().UTC(),
	}
	log := e.log.With(zap.String("run_id", res.RunID), zap.String("date", res.Date), zap.Bool("force", force))
	log.Info("settlement started")

	users, err := e.store.FindUsers(ctx)
	if err != nil {
		return e.finish(ctx, log, res, fmt.Errorf("%w: list users: %w", ErrRunAborted, err))
	}

	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return e.finish(ctx, log, res, fmt.Errorf("%w: %w", ErrRunAborted, err))
		}
		st, err := e.settleUser(ctx, u.ID, res)
		if err != nil {
			if store.IsConnectivityError(err) {
				return e.finish(ctx, log, res, fmt.Errorf("%w: user %d: %w", ErrRunAborted, u.ID, err))
			}
			log.Error("user settlement failed", zap.Uint("user_id", u.ID), zap.Error(err))
			st.outcome = OutcomeFailed
		}
		res.record(st.outcome)
		e.metrics.UserSettled(st.outcome)
		if st.outcome == OutcomeProcessed {
			res.InvestmentTotal = res.InvestmentTotal.Add(st.investment)
			res.ReferralTotal = res.ReferralTotal.Add(st.referral)
			log.Debug("user settled", zap.Uint("user_id", u.ID),
				zap.String("investment", st.investment.StringFixed(2)),
				zap.String("referral", st.referral.StringFixed(2)))
		}
	}
	return e.finish(ctx, log, res, nil)
}

func (e *Engine) finish(ctx context.Context, log *zap.Logger, res Result, err error) (Result, error) {
	res.FinishedAt = e.clock().UTC()
	fields := []zap.Field{
		zap.Int("processed", res.Processed),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
		zap.Duration("took", res.Duration()),
	}
	if err != nil {
		log.Error("settlement aborted", append(fields, zap.Error(err))...)
	} else {
		log.Info("settlement finished", fields...)
	}
	e.metrics.RunFinished(res, err)
	for _, o := range e.observers {
		o.RunFinished(ctx, res, err)
	}
	return res, err
}

// userStep is what one user's transaction posted, net of any reversal.
type userStep struct {
	outcome    Outcome
	investment decimal.Decimal
	referral   decimal.Decimal
}

func lockKey(userID uint, date string) string {
	return fmt.Sprintf("settle:%d:%s", userID, date)
}

func (e *Engine) settleUser(ctx context.Context, userID uint, run Result) (userStep, error) {
	st := userStep{outcome: OutcomeIdle, investment: decimal.Zero, referral: decimal.Zero}

	if e.locker != nil {
		release, err := e.locker.TryLock(ctx, lockKey(userID, run.Date), e.lockTTL)
		switch {
		case errors.Is(err, lock.ErrNotAcquired):
			st.outcome = OutcomeLocked
			return st, nil
		case err != nil:
			// the guard index still rejects a concurrent duplicate
			e.log.Warn("settlement lock unavailable", zap.Uint("user_id", userID), zap.Error(err))
		default:
			defer release()
		}
	}

	err := store.WithTx(ctx, e.store, func(tx store.Tx) error {
		now := e.clock().UTC()

		if _, err := tx.LockUser(ctx, userID); err != nil {
			return fmt.Errorf("lock user: %w", err)
		}

		existing, err := tx.FindEarning(ctx, userID, run.Date)
		if err != nil {
			return fmt.Errorf("find earning: %w", err)
		}
		var oldInv, oldRef decimal.Decimal
		if existing != nil {
			if !run.Force {
				st.outcome = OutcomeSettled
				return nil
			}
			if oldInv, oldRef, err = e.removePostings(ctx, tx, userID, run.Date); err != nil {
				return err
			}
			st.outcome = OutcomeProcessed
		}

		inv, ref, posted, err := e.post(ctx, tx, userID, run, now)
		if err != nil {
			return err
		}
		if posted {
			st.outcome = OutcomeProcessed
		}
		st.investment, st.referral = inv, ref

		dInv, dRef := inv.Sub(oldInv), ref.Sub(oldRef)
		if oldInv.IsZero() && oldRef.IsZero() && inv.IsZero() && ref.IsZero() {
			return nil
		}
		if err := tx.AdjustUserTotals(ctx, userID, store.TotalsDelta{Earnings: dInv, Referral: dRef}); err != nil {
			return fmt.Errorf("adjust totals: %w", err)
		}
		w, err := tx.GetOrCreateWallet(ctx, userID)
		if err != nil {
			return fmt.Errorf("wallet: %w", err)
		}
		w.Credit(dInv.Add(dRef), now)
		if err := tx.SaveWallet(ctx, &w); err != nil {
			return fmt.Errorf("save wallet: %w", err)
		}
		return nil
	})
	return st, err
}

// removePostings deletes the user's postings for date and returns what they
// had contributed, split by earning type.
func (e *Engine) removePostings(ctx context.Context, tx store.Tx, userID uint, date string) (inv, ref decimal.Decimal, err error) {
	prior, err := tx.FindEarnings(ctx, userID, date)
	if err != nil {
		return inv, ref, fmt.Errorf("find earnings: %w", err)
	}
	for _, p := range prior {
		if p.EarningType == models.EarningReferral {
			ref = ref.Add(p.Amount)
		} else {
			inv = inv.Add(p.Amount)
		}
	}
	if err := tx.DeleteEarnings(ctx, userID, date); err != nil {
		return inv, ref, fmt.Errorf("delete earnings: %w", err)
	}
	return inv, ref, nil
}

// post writes one posting per paying active investment and one referral
// posting when the user's referees pay anything.
func (e *Engine) post(ctx context.Context, tx store.Tx, userID uint, run Result, now time.Time) (inv, ref decimal.Decimal, posted bool, err error) {
	invs, err := tx.FindActiveInvestments(ctx, userID)
	if err != nil {
		return inv, ref, false, fmt.Errorf("find investments: %w", err)
	}
	for _, i := range invs {
		amount, err := e.policy.DailyReturn(i.Amount)
		if err != nil {
			return inv, ref, false, fmt.Errorf("investment %d: %w", i.ID, err)
		}
		if !amount.IsPositive() {
			continue
		}
		if err := tx.InsertEarning(ctx, &models.DailyEarning{
			UserID:       userID,
			Date:         run.Date,
			EarningType:  models.EarningInvestment,
			InvestmentID: i.ID,
			Amount:       amount,
			RunID:        run.RunID,
			CreatedAt:    now,
		}); err != nil {
			return inv, ref, false, fmt.Errorf("post investment %d: %w", i.ID, err)
		}
		inv = inv.Add(amount)
		posted = true
	}

	refs, err := tx.FindReferralsBy(ctx, userID)
	if err != nil {
		return inv, ref, posted, fmt.Errorf("find referrals: %w", err)
	}
	for _, r := range refs {
		referred, err := tx.FindActiveInvestments(ctx, r.ReferredUserID)
		if err != nil {
			return inv, ref, posted, fmt.Errorf("find referee %d investments: %w", r.ReferredUserID, err)
		}
		for _, i := range referred {
			bonus, err := e.policy.ReferralBonus(i.Amount)
			if err != nil {
				return inv, ref, posted, fmt.Errorf("referee investment %d: %w", i.ID, err)
			}
			ref = ref.Add(bonus)
		}
	}
	if ref.IsPositive() {
		if err := tx.InsertEarning(ctx, &models.DailyEarning{
			UserID:      userID,
			Date:        run.Date,
			EarningType: models.EarningReferral,
			Amount:      ref,
			RunID:       run.RunID,
			CreatedAt:   now,
		}); err != nil {
			return inv, ref, posted, fmt.Errorf("post referral: %w", err)
		}
		posted = true
	} else {
		ref = decimal.Zero
	}
	return inv, ref, posted, nil
}
