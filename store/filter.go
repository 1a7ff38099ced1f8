package store

import (
	"github.com/shopspring/decimal"
)

// Page bounds a list query. A zero Limit returns every row.
type Page struct {
	Limit  int
	Offset int
}

// Orderings accepted by ListUsers. The empty value lists newest first.
const (
	OrderNewest           = ""
	OrderTotalInvestment  = "total_investment"
	OrderReferralEarnings = "referral_earnings"
)

var UserOrders = []string{OrderNewest, OrderTotalInvestment, OrderReferralEarnings}

type UserFilter struct {
	// Search matches part of the username, mobile number or referral code.
	Search  string
	OrderBy string
	Page
}

type InvestmentFilter struct {
	UserID uint
	Active *bool
	Page
}

// StatusFilter narrows pending investments and withdrawals. Zero fields
// match everything.
type StatusFilter struct {
	UserID uint
	Status string
	Page
}

// Stats are ledger-wide totals. PendingWithdrawals counts requests still
// waiting on the user or an admin; Posted is what settlement credited on
// the requested date.
type Stats struct {
	Users               int64           `json:"total_users"`
	Referrals           int64           `json:"total_referrals"`
	TotalInvested       decimal.Decimal `json:"total_invested"`
	ActiveInvestments   int64           `json:"active_investments"`
	AwaitingInvestments int64           `json:"awaiting_investments"`
	TotalWithdrawn      decimal.Decimal `json:"total_withdrawn"`
	PendingWithdrawals  int64           `json:"pending_withdrawals"`
	Posted              decimal.Decimal `json:"posted"`
}
