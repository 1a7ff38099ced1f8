package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mohitbudhwar0786/earning-website/models"
	"github.com/mohitbudhwar0786/earning-website/policy"
)

// Dashboard is the per-user summary shown after login. The Projected
// fields are what the active investments pay per day. RemainingCapacity is
// nil when no investment cap applies.
type Dashboard struct {
	User              models.User         `json:"user"`
	Wallet            models.Wallet       `json:"wallet"`
	TodayEarnings     decimal.Decimal     `json:"today_earnings"`
	ActiveInvestments []models.Investment `json:"active_investments"`
	ProjectedDaily    decimal.Decimal     `json:"projected_daily"`
	ReferralCount     int                 `json:"referral_count"`
	ProjectedReferral decimal.Decimal     `json:"projected_referral"`
	RemainingCapacity *decimal.Decimal    `json:"remaining_capacity,omitempty"`
	Tiers             []policy.Tier       `json:"tiers"`
}

func (s *Service) Dashboard(ctx context.Context, userID uint) (Dashboard, error) {
	u, err := s.store.FindUser(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}
	d := Dashboard{
		User:              u,
		Wallet:            models.Wallet{UserID: userID},
		TodayEarnings:     decimal.Zero,
		ProjectedDaily:    decimal.Zero,
		ProjectedReferral: decimal.Zero,
		Tiers:             policy.Tiers(),
	}
	w, err := s.store.FindWallet(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}
	if w != nil {
		d.Wallet = *w
	}

	today, err := s.store.FindEarnings(ctx, userID, models.DateKey(s.now()))
	if err != nil {
		return Dashboard{}, err
	}
	for _, e := range today {
		d.TodayEarnings = d.TodayEarnings.Add(e.Amount)
	}

	d.ActiveInvestments, err = s.store.FindActiveInvestments(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}
	if d.ProjectedDaily, err = s.projectedDaily(d.ActiveInvestments); err != nil {
		return Dashboard{}, err
	}

	refs, err := s.store.FindReferralsBy(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}
	d.ReferralCount = len(refs)
	for _, ref := range refs {
		invs, err := s.store.FindActiveInvestments(ctx, ref.ReferredUserID)
		if err != nil {
			return Dashboard{}, err
		}
		for _, inv := range invs {
			b, err := s.policy.ReferralBonus(inv.Amount)
			if err != nil {
				return Dashboard{}, err
			}
			d.ProjectedReferral = d.ProjectedReferral.Add(b)
		}
	}

	if remaining, capped := s.remainingCapacity(u); capped {
		d.RemainingCapacity = &remaining
	}
	return d, nil
}

// projectedDaily is what invs pay per day at the current tier rates.
func (s *Service) projectedDaily(invs []models.Investment) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, inv := range invs {
		r, err := s.policy.DailyReturn(inv.Amount)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(r)
	}
	return total, nil
}
