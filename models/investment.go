package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Investment is an approved, running plan. DailyReturn is the payout snapshot
// taken at approval time; settlement recomputes from Amount.
type Investment struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	DailyReturn decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"daily_return"`
	IsActive    bool            `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"-"`
}

func (Investment) TableName() string {
	return "investments"
}
