// Package ledger holds the account operations around settlement:
// registration, the manual investment and withdrawal payment workflows,
// admin accounts and user deletion.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mohitbudhwar0786/earning-website/policy"
	"github.com/mohitbudhwar0786/earning-website/store"
)

var (
	ErrInvalidInput        = errors.New("ledger: invalid input")
	ErrNotFound            = store.ErrNotFound
	ErrUserExists          = errors.New("ledger: username, mobile number or email already registered")
	ErrInvalidReferralCode = errors.New("ledger: invalid referral code")
	ErrBelowMinimum        = errors.New("ledger: amount below minimum")
	ErrLimitExceeded       = errors.New("ledger: investment limit exceeded")
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	ErrInvalidTransition   = errors.New("ledger: invalid status transition")
	ErrExpired             = errors.New("ledger: investment request expired")
	ErrInvalidCredentials  = errors.New("ledger: invalid username or password")
)

// Config holds the business limits. MaxTotalInvestment caps a user's
// lifetime total_investment; zero disables the cap. PendingTTL is how long
// a pending investment waits for payment.
type Config struct {
	MinInvestment      decimal.Decimal
	MaxTotalInvestment decimal.Decimal
	MinWithdrawal      decimal.Decimal
	PendingTTL         time.Duration
}

func DefaultConfig() Config {
	return Config{
		MinInvestment:      policy.MinInvestment,
		MaxTotalInvestment: decimal.NewFromInt(2000),
		MinWithdrawal:      decimal.NewFromInt(100),
		PendingTTL:         24 * time.Hour,
	}
}

type Service struct {
	store      store.Store
	policy     policy.Policy
	cfg        Config
	clock      func() time.Time
	log        *zap.Logger
	bcryptCost int
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.clock = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithBcryptCost lowers the hashing cost, for tests.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

func New(s store.Store, p policy.Policy, cfg Config, opts ...Option) *Service {
	if p == nil {
		p = policy.Default
	}
	svc := &Service{
		store:      s,
		policy:     p,
		cfg:        cfg,
		clock:      time.Now,
		log:        zap.NewNop(),
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

// PaymentProof is what a user (or admin) reports about a manual transfer.
type PaymentProof struct {
	Method    string `json:"payment_method" validate:"required"`
	Reference string `json:"payment_reference" validate:"required"`
	Hours     int    `json:"payment_hours"`
	Minutes   int    `json:"payment_minutes"`
}

func (p PaymentProof) check() error {
	if p.Hours < 0 || p.Hours > 23 || p.Minutes < 0 || p.Minutes > 59 {
		return invalid(errors.New("payment time out of range"))
	}
	return nil
}
