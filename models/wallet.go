package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds a user's spendable balance. The zero value (all amounts zero)
// is a valid empty wallet.
type Wallet struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	UserID         uint            `gorm:"not null;uniqueIndex" json:"user_id"`
	Balance        decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"balance"`
	TotalEarned    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"total_earned"`
	TotalWithdrawn decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"total_withdrawn"`
	LastUpdated    time.Time       `json:"last_updated"`
}

func (Wallet) TableName() string {
	return "wallets"
}

// Credit adds an earning to the balance and the lifetime total.
func (w *Wallet) Credit(amount decimal.Decimal, at time.Time) {
	w.Balance = w.Balance.Add(amount)
	w.TotalEarned = w.TotalEarned.Add(amount)
	w.LastUpdated = at
}
