package ledger

import (
	"context"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/mohitbudhwar0786/earning-website/models"
	"github.com/mohitbudhwar0786/earning-website/store"
)

// UserSummary is a user row in the admin user list.
type UserSummary struct {
	models.User
	Wallet            models.Wallet   `json:"wallet"`
	ActiveInvestments int             `json:"active_investments"`
	ProjectedDaily    decimal.Decimal `json:"projected_daily"`
	ReferralCount     int             `json:"referral_count"`
}

// Overview is the admin dashboard. Posted is what settlement credited on
// Date; ProjectedDaily is what every active investment pays per day.
type Overview struct {
	Date string `json:"date"`
	store.Stats
	ProjectedDaily decimal.Decimal `json:"projected_daily"`
	RecentUsers    []models.User   `json:"recent_users"`
	TopInvestors   []UserSummary   `json:"top_investors"`
	TopReferrers   []UserSummary   `json:"top_referrers"`
}

const (
	recentUsers = 10
	topUsers    = 5
)

var (
	pendingStatuses = []string{
		models.PendingPayment, models.PendingAwaitingConfirmation,
		models.PendingConfirmed, models.PendingRejected, models.PendingExpired,
	}
	withdrawalStatuses = []string{
		models.WithdrawalPending, models.WithdrawalAwaitingConfirmation,
		models.WithdrawalProcessing, models.WithdrawalCompleted, models.WithdrawalCancelled,
	}
)

func (s *Service) ListUsers(ctx context.Context, f store.UserFilter) ([]UserSummary, int64, error) {
	if !slices.Contains(store.UserOrders, f.OrderBy) {
		return nil, 0, invalid(fmt.Errorf("unknown order %q", f.OrderBy))
	}
	users, total, err := s.store.ListUsers(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		sum, err := s.summarize(ctx, u)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, sum)
	}
	return out, total, nil
}

func (s *Service) summarize(ctx context.Context, u models.User) (UserSummary, error) {
	sum := UserSummary{User: u, Wallet: models.Wallet{UserID: u.ID}}
	w, err := s.store.FindWallet(ctx, u.ID)
	if err != nil {
		return UserSummary{}, err
	}
	if w != nil {
		sum.Wallet = *w
	}
	invs, err := s.store.FindActiveInvestments(ctx, u.ID)
	if err != nil {
		return UserSummary{}, err
	}
	sum.ActiveInvestments = len(invs)
	if sum.ProjectedDaily, err = s.projectedDaily(invs); err != nil {
		return UserSummary{}, err
	}
	refs, err := s.store.FindReferralsBy(ctx, u.ID)
	if err != nil {
		return UserSummary{}, err
	}
	sum.ReferralCount = len(refs)
	return sum, nil
}

func (s *Service) ListInvestments(ctx context.Context, f store.InvestmentFilter) ([]models.Investment, int64, error) {
	return s.store.ListInvestments(ctx, f)
}

func (s *Service) ListPendingInvestments(ctx context.Context, f store.StatusFilter) ([]models.PendingInvestment, int64, error) {
	if f.Status != "" && !slices.Contains(pendingStatuses, f.Status) {
		return nil, 0, invalid(fmt.Errorf("unknown status %q", f.Status))
	}
	return s.store.ListPendingInvestments(ctx, f)
}

func (s *Service) ListWithdrawals(ctx context.Context, f store.StatusFilter) ([]models.Withdrawal, int64, error) {
	if f.Status != "" && !slices.Contains(withdrawalStatuses, f.Status) {
		return nil, 0, invalid(fmt.Errorf("unknown status %q", f.Status))
	}
	return s.store.ListWithdrawals(ctx, f)
}

// Overview gathers the admin dashboard for today. Top lists skip users with
// nothing to rank them by.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	o := Overview{Date: models.DateKey(s.now())}
	var err error
	if o.Stats, err = s.store.Stats(ctx, o.Date); err != nil {
		return Overview{}, err
	}

	active, _, err := s.store.ListInvestments(ctx, store.InvestmentFilter{Active: ptr(true)})
	if err != nil {
		return Overview{}, err
	}
	if o.ProjectedDaily, err = s.projectedDaily(active); err != nil {
		return Overview{}, err
	}

	if o.RecentUsers, _, err = s.store.ListUsers(ctx, store.UserFilter{Page: store.Page{Limit: recentUsers}}); err != nil {
		return Overview{}, err
	}
	if o.TopInvestors, err = s.topUsers(ctx, store.OrderTotalInvestment, func(u models.User) decimal.Decimal { return u.TotalInvestment }); err != nil {
		return Overview{}, err
	}
	if o.TopReferrers, err = s.topUsers(ctx, store.OrderReferralEarnings, func(u models.User) decimal.Decimal { return u.ReferralEarnings }); err != nil {
		return Overview{}, err
	}
	return o, nil
}

func (s *Service) topUsers(ctx context.Context, order string, key func(models.User) decimal.Decimal) ([]UserSummary, error) {
	users, _, err := s.store.ListUsers(ctx, store.UserFilter{OrderBy: order, Page: store.Page{Limit: topUsers}})
	if err != nil {
		return nil, err
	}
	out := []UserSummary{}
	for _, u := range users {
		if !key(u).IsPositive() {
			break
		}
		sum, err := s.summarize(ctx, u)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, nil
}

func ptr[T any](v T) *T { return &v }
