//go:build integration

package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/mohitbudhwar0786/earning-website/models"
)

// Run with: TEST_DB_DSN="user:pass@tcp(127.0.0.1:3306)/earnd_test?parseTime=true" go test -tags integration ./store
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrator().DropTable(models.All()...))
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func TestGormEarningGuardIndex(t *testing.T) {
	ctx := context.Background()
	s := NewGormStore(openTestDB(t))
	u := seedUser(t, s, "alice", "2000001")

	posting := func() *models.DailyEarning {
		return &models.DailyEarning{UserID: u.ID, Date: "2026-01-02", EarningType: models.EarningReferral, Amount: decimal.NewFromInt(10), RunID: "r"}
	}
	require.NoError(t, WithTx(ctx, s, func(tx Tx) error { return tx.InsertEarning(ctx, posting()) }))
	err := WithTx(ctx, s, func(tx Tx) error { return tx.InsertEarning(ctx, posting()) })
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestGormWalletAndTotals(t *testing.T) {
	ctx := context.Background()
	s := NewGormStore(openTestDB(t))
	u := seedUser(t, s, "bob", "2000002")

	require.NoError(t, WithTx(ctx, s, func(tx Tx) error {
		w, err := tx.GetOrCreateWallet(ctx, u.ID)
		if err != nil {
			return err
		}
		w.Balance = w.Balance.Add(decimal.NewFromInt(70))
		if err := tx.SaveWallet(ctx, &w); err != nil {
			return err
		}
		return tx.AdjustUserTotals(ctx, u.ID, TotalsDelta{Earnings: decimal.NewFromInt(70)})
	}))

	w, err := s.FindWallet(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, w)
	require.Equal(t, "70", w.Balance.String())

	got, err := s.FindUser(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "70", got.TotalEarnings.String())
}

// holdLock takes a row lock in one transaction, starts a second locker, and
// checks the second waits until the first commits its change.
func holdLock(t *testing.T, s *GormStore, lock func(tx Tx) (string, error), change func(tx Tx) error, want string) {
	t.Helper()
	ctx := context.Background()

	first, err := s.Begin(ctx)
	require.NoError(t, err)
	_, err = lock(first)
	require.NoError(t, err)

	seen := make(chan string, 1)
	go func() {
		var status string
		_ = WithTx(ctx, s, func(tx Tx) error {
			var err error
			status, err = lock(tx)
			return err
		})
		seen <- status
	}()

	select {
	case status := <-seen:
		t.Fatalf("second locker returned %q while the row was held", status)
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, change(first))
	require.NoError(t, first.Commit())

	select {
	case status := <-seen:
		assert.Equal(t, want, status)
	case <-time.After(5 * time.Second):
		t.Fatal("second locker never returned")
	}
}

func TestGormLockWithdrawalBlocks(t *testing.T) {
	ctx := context.Background()
	s := NewGormStore(openTestDB(t))
	u := seedUser(t, s, "carol", "2000003")
	wd := models.Withdrawal{UserID: u.ID, Amount: decimal.NewFromInt(100), Status: models.WithdrawalPending, RequestedAt: time.Now().UTC()}
	require.NoError(t, WithTx(ctx, s, func(tx Tx) error { return tx.CreateWithdrawal(ctx, &wd) }))

	holdLock(t, s,
		func(tx Tx) (string, error) {
			w, err := tx.LockWithdrawal(ctx, wd.ID)
			return w.Status, err
		},
		func(tx Tx) error {
			w := wd
			w.Status = models.WithdrawalCancelled
			return tx.SaveWithdrawal(ctx, &w)
		},
		models.WithdrawalCancelled)
}

func TestGormLockPendingInvestmentBlocks(t *testing.T) {
	ctx := context.Background()
	s := NewGormStore(openTestDB(t))
	u := seedUser(t, s, "dave", "2000004")
	p := models.PendingInvestment{UserID: u.ID, Amount: decimal.NewFromInt(200), DailyReturn: decimal.NewFromInt(6), Status: models.PendingAwaitingConfirmation}
	require.NoError(t, WithTx(ctx, s, func(tx Tx) error { return tx.CreatePendingInvestment(ctx, &p) }))

	holdLock(t, s,
		func(tx Tx) (string, error) {
			got, err := tx.LockPendingInvestment(ctx, p.ID)
			return got.Status, err
		},
		func(tx Tx) error {
			got := p
			got.Status = models.PendingConfirmed
			return tx.SavePendingInvestment(ctx, &got)
		},
		models.PendingConfirmed)

	err := WithTx(ctx, s, func(tx Tx) error {
		_, err := tx.LockPendingInvestment(ctx, p.ID+100)
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)
}
