package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EarningInvestment = "investment"
	EarningReferral   = "referral"
)

// DateLayout is the calendar-date format used for DailyEarning.Date.
const DateLayout = "2006-01-02"

// DailyEarning is an append-only posting. InvestmentID is 0 for the
// referral posting; together with (UserID, Date, EarningType) it forms the
// guard index that keeps a second pass from posting the same row twice.
type DailyEarning struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	UserID       uint            `gorm:"not null;uniqueIndex:idx_daily_earning_guard,priority:1;index:idx_daily_earning_user_date,priority:1" json:"user_id"`
	Date         string          `gorm:"type:varchar(10);not null;uniqueIndex:idx_daily_earning_guard,priority:2;index:idx_daily_earning_user_date,priority:2" json:"date"`
	EarningType  string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_daily_earning_guard,priority:3" json:"earning_type"`
	InvestmentID uint            `gorm:"not null;default:0;uniqueIndex:idx_daily_earning_guard,priority:4" json:"investment_id,omitempty"`
	Amount       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	RunID        string          `gorm:"type:varchar(36);not null;index" json:"run_id"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (DailyEarning) TableName() string {
	return "daily_earnings"
}

// DateKey formats t as the UTC calendar date used to key postings.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
