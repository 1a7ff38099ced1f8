// Package store is the ledger's persistence boundary. Settlement and the
// ledger service depend only on these interfaces; GormStore backs them with
// MySQL or Postgres and MemoryStore keeps everything in process.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mohitbudhwar0786/earning-website/models"
)

// Reader holds every query the ledger needs. Reads through a Tx see that
// transaction's uncommitted writes.
type Reader interface {
	FindUsers(ctx context.Context) ([]models.User, error)
	FindUser(ctx context.Context, id uint) (models.User, error)
	FindUserByUsername(ctx context.Context, username string) (models.User, error)
	FindUserByReferralCode(ctx context.Context, code string) (models.User, error)

	FindActiveInvestments(ctx context.Context, userID uint) ([]models.Investment, error)
	FindInvestment(ctx context.Context, id uint) (models.Investment, error)

	FindReferralsBy(ctx context.Context, referrerID uint) ([]models.Referral, error)

	// FindEarning returns any posting for (userID, date), or nil when the
	// user has not been settled for that date.
	FindEarning(ctx context.Context, userID uint, date string) (*models.DailyEarning, error)
	FindEarnings(ctx context.Context, userID uint, date string) ([]models.DailyEarning, error)

	// FindWallet returns nil when the user has no wallet yet.
	FindWallet(ctx context.Context, userID uint) (*models.Wallet, error)

	FindPendingInvestment(ctx context.Context, id uint) (models.PendingInvestment, error)
	FindExpiredPendingInvestments(ctx context.Context, now time.Time) ([]models.PendingInvestment, error)
	FindWithdrawal(ctx context.Context, id uint) (models.Withdrawal, error)

	FindAdmin(ctx context.Context, id uint) (models.Admin, error)
	FindAdminByUsername(ctx context.Context, username string) (models.Admin, error)

	// List queries return one page and the number of rows matching the
	// filter.
	ListUsers(ctx context.Context, f UserFilter) ([]models.User, int64, error)
	ListInvestments(ctx context.Context, f InvestmentFilter) ([]models.Investment, int64, error)
	ListPendingInvestments(ctx context.Context, f StatusFilter) ([]models.PendingInvestment, int64, error)
	ListWithdrawals(ctx context.Context, f StatusFilter) ([]models.Withdrawal, int64, error)
	Stats(ctx context.Context, date string) (Stats, error)
}

// TotalsDelta is added to a user's running totals. Negative components
// reverse earlier credits.
type TotalsDelta struct {
	Investment decimal.Decimal
	Earnings   decimal.Decimal
	Referral   decimal.Decimal
}

// Writer mutates the ledger. Only available inside a Tx.
type Writer interface {
	// LockUser reloads the user row and holds it for the rest of the
	// transaction.
	LockUser(ctx context.Context, id uint) (models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	AdjustUserTotals(ctx context.Context, userID uint, d TotalsDelta) error
	DeleteUser(ctx context.Context, id uint) error

	CreateInvestment(ctx context.Context, inv *models.Investment) error
	DeactivateInvestment(ctx context.Context, id uint) error

	CreateReferral(ctx context.Context, r *models.Referral) error

	DeleteEarnings(ctx context.Context, userID uint, date string) error
	InsertEarning(ctx context.Context, e *models.DailyEarning) error

	// GetOrCreateWallet returns the user's wallet, creating an empty one
	// when none exists.
	GetOrCreateWallet(ctx context.Context, userID uint) (models.Wallet, error)
	SaveWallet(ctx context.Context, w *models.Wallet) error

	// LockPendingInvestment and LockWithdrawal reload the row and hold it
	// until the transaction ends. Status checks must read through them.
	LockPendingInvestment(ctx context.Context, id uint) (models.PendingInvestment, error)
	LockWithdrawal(ctx context.Context, id uint) (models.Withdrawal, error)

	CreatePendingInvestment(ctx context.Context, p *models.PendingInvestment) error
	SavePendingInvestment(ctx context.Context, p *models.PendingInvestment) error

	CreateWithdrawal(ctx context.Context, w *models.Withdrawal) error
	SaveWithdrawal(ctx context.Context, w *models.Withdrawal) error

	CreateAdmin(ctx context.Context, a *models.Admin) error
}

type Tx interface {
	Reader
	Writer
	Commit() error
	Rollback() error
}

type Store interface {
	Reader
	Begin(ctx context.Context) (Tx, error)
}

// WithTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise.
func WithTx(ctx context.Context, s Store, fn func(tx Tx) error) (err error) {
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
