package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	WithdrawalPending              = "pending"
	WithdrawalAwaitingConfirmation = "awaiting_confirmation"
	WithdrawalProcessing           = "processing"
	WithdrawalCompleted            = "completed"
	WithdrawalCancelled            = "cancelled"
)

type Withdrawal struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	UserID             uint            `gorm:"not null;index" json:"user_id"`
	Amount             decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Status             string          `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	UPIID              string          `gorm:"column:upi_id;size:100" json:"upi_id"`
	UPIName            string          `gorm:"column:upi_name;size:100" json:"upi_name"`
	PaymentMethod      *string         `gorm:"size:20" json:"payment_method,omitempty"`
	PaymentReference   *string         `gorm:"size:100" json:"payment_reference,omitempty"`
	PaymentTimeHours   *int            `json:"payment_time_hours,omitempty"`
	PaymentTimeMinutes *int            `json:"payment_time_minutes,omitempty"`
	RequestedAt        time.Time       `gorm:"not null" json:"requested_at"`
	ProcessedAt        *time.Time      `json:"processed_at,omitempty"`
	UpdatedAt          time.Time       `json:"-"`
}

func (Withdrawal) TableName() string {
	return "withdrawals"
}
