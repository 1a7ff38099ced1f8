package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PendingPayment              = "pending_payment"
	PendingAwaitingConfirmation = "awaiting_confirmation"
	PendingConfirmed            = "confirmed"
	PendingRejected             = "rejected"
	PendingExpired              = "expired"
)

type PendingInvestment struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	UserID             uint            `gorm:"not null;index" json:"user_id"`
	Amount             decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	DailyReturn        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"daily_return"`
	Status             string          `gorm:"type:varchar(32);not null;default:'pending_payment';index" json:"status"`
	PaymentMethod      *string         `gorm:"size:20" json:"payment_method,omitempty"`
	PaymentReference   *string         `gorm:"size:100" json:"payment_reference,omitempty"`
	PaymentTimeHours   *int            `json:"payment_time_hours,omitempty"`
	PaymentTimeMinutes *int            `json:"payment_time_minutes,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	ExpiresAt          *time.Time      `json:"expires_at,omitempty"`
	ConfirmedAt        *time.Time      `json:"confirmed_at,omitempty"`
}

func (PendingInvestment) TableName() string {
	return "pending_investments"
}
