package models

import "time"

type Referral struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ReferrerID     uint      `gorm:"not null;index" json:"referrer_id"`
	ReferredUserID uint      `gorm:"not null;uniqueIndex" json:"referred_user_id"`
	ReferralCode   string    `gorm:"size:7;not null" json:"referral_code"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Referral) TableName() string {
	return "referrals"
}
