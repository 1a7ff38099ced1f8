package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	Username         string          `gorm:"size:80;uniqueIndex;not null" json:"username"`
	MobileNumber     *string         `gorm:"size:15;uniqueIndex" json:"mobile_number,omitempty"`
	Email            *string         `gorm:"size:120;uniqueIndex" json:"email,omitempty"`
	PasswordHash     string          `gorm:"size:255;not null" json:"-"`
	ReferralCode     string          `gorm:"size:7;uniqueIndex;not null" json:"referral_code"`
	ReferredBy       *string         `gorm:"size:7" json:"referred_by,omitempty"`
	TotalInvestment  decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"total_investment"`
	TotalEarnings    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"total_earnings"`
	ReferralEarnings decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"referral_earnings"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"-"`
}

func (User) TableName() string {
	return "users"
}
