package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohitbudhwar0786/earning-website/models"
)

func seedUser(t *testing.T, s Store, name, code string) models.User {
	t.Helper()
	u := models.User{Username: name, PasswordHash: "x", ReferralCode: code}
	require.NoError(t, WithTx(context.Background(), s, func(tx Tx) error {
		return tx.CreateUser(context.Background(), &u)
	}))
	return u
}

func TestMemoryRollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u := seedUser(t, s, "alice", "1000001")

	boom := errors.New("boom")
	err := WithTx(ctx, s, func(tx Tx) error {
		if _, err := tx.GetOrCreateWallet(ctx, u.ID); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	w, err := s.FindWallet(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, w, "rolled back wallet must not be visible")
}

func TestMemoryGetOrCreateWalletIsLazyAndSingle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u := seedUser(t, s, "bob", "1000002")

	var first, second models.Wallet
	require.NoError(t, WithTx(ctx, s, func(tx Tx) error {
		var err error
		first, err = tx.GetOrCreateWallet(ctx, u.ID)
		if err != nil {
			return err
		}
		second, err = tx.GetOrCreateWallet(ctx, u.ID)
		return err
	}))
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.Balance.IsZero())
}

func TestMemoryEarningGuardRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u := seedUser(t, s, "carol", "1000003")

	posting := func() *models.DailyEarning {
		return &models.DailyEarning{UserID: u.ID, Date: "2026-01-02", EarningType: models.EarningReferral, Amount: decimal.NewFromInt(10)}
	}
	require.NoError(t, WithTx(ctx, s, func(tx Tx) error { return tx.InsertEarning(ctx, posting()) }))
	err := WithTx(ctx, s, func(tx Tx) error { return tx.InsertEarning(ctx, posting()) })
	require.ErrorIs(t, err, ErrDuplicate)

	es, err := s.FindEarnings(ctx, u.ID, "2026-01-02")
	require.NoError(t, err)
	assert.Len(t, es, 1)
}

func TestMemoryDeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := seedUser(t, s, "dave", "1000004")
	b := seedUser(t, s, "erin", "1000005")

	require.NoError(t, WithTx(ctx, s, func(tx Tx) error {
		if err := tx.CreateReferral(ctx, &models.Referral{ReferrerID: a.ID, ReferredUserID: b.ID, ReferralCode: a.ReferralCode}); err != nil {
			return err
		}
		if err := tx.CreateInvestment(ctx, &models.Investment{UserID: b.ID, Amount: decimal.NewFromInt(500), IsActive: true}); err != nil {
			return err
		}
		_, err := tx.GetOrCreateWallet(ctx, b.ID)
		return err
	}))

	require.NoError(t, WithTx(ctx, s, func(tx Tx) error { return tx.DeleteUser(ctx, b.ID) }))

	_, err := s.FindUser(ctx, b.ID)
	require.ErrorIs(t, err, ErrNotFound)
	refs, err := s.FindReferralsBy(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, refs)
	invs, err := s.FindActiveInvestments(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, invs)
	w, err := s.FindWallet(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestMemoryUniqueUsername(t *testing.T) {
	s := NewMemoryStore()
	seedUser(t, s, "frank", "1000006")
	u := models.User{Username: "frank", ReferralCode: "1000007"}
	err := WithTx(context.Background(), s, func(tx Tx) error { return tx.CreateUser(context.Background(), &u) })
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestIsConnectivityError(t *testing.T) {
	assert.True(t, IsConnectivityError(ErrUnavailable))
	assert.True(t, IsConnectivityError(context.DeadlineExceeded))
	assert.False(t, IsConnectivityError(ErrDuplicate))
	assert.False(t, IsConnectivityError(nil))
}

func seedLedger(t *testing.T, s Store) (alice, bob models.User) {
	t.Helper()
	ctx := context.Background()
	alice = seedUser(t, s, "alice", "ALC0001")
	bob = seedUser(t, s, "Bobby", "BOB0002")
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, WithTx(ctx, s, func(tx Tx) error {
		for _, inv := range []models.Investment{
			{UserID: alice.ID, Amount: decimal.NewFromInt(500), DailyReturn: decimal.NewFromInt(15), IsActive: true},
			{UserID: alice.ID, Amount: decimal.NewFromInt(300), DailyReturn: decimal.NewFromInt(9), IsActive: false},
			{UserID: bob.ID, Amount: decimal.NewFromInt(1000), DailyReturn: decimal.NewFromInt(35), IsActive: true},
		} {
			inv := inv
			if err := tx.CreateInvestment(ctx, &inv); err != nil {
				return err
			}
		}
		if err := tx.AdjustUserTotals(ctx, alice.ID, TotalsDelta{Investment: decimal.NewFromInt(800), Referral: decimal.NewFromInt(40)}); err != nil {
			return err
		}
		if err := tx.AdjustUserTotals(ctx, bob.ID, TotalsDelta{Investment: decimal.NewFromInt(1000)}); err != nil {
			return err
		}
		if err := tx.CreateReferral(ctx, &models.Referral{ReferrerID: alice.ID, ReferredUserID: bob.ID, ReferralCode: alice.ReferralCode}); err != nil {
			return err
		}
		for _, w := range []models.Withdrawal{
			{UserID: alice.ID, Amount: decimal.NewFromInt(100), Status: models.WithdrawalPending, RequestedAt: at},
			{UserID: alice.ID, Amount: decimal.NewFromInt(150), Status: models.WithdrawalCompleted, RequestedAt: at},
			{UserID: bob.ID, Amount: decimal.NewFromInt(200), Status: models.WithdrawalAwaitingConfirmation, RequestedAt: at},
		} {
			w := w
			if err := tx.CreateWithdrawal(ctx, &w); err != nil {
				return err
			}
		}
		for _, p := range []models.PendingInvestment{
			{UserID: alice.ID, Amount: decimal.NewFromInt(200), DailyReturn: decimal.NewFromInt(6), Status: models.PendingAwaitingConfirmation, CreatedAt: at},
			{UserID: bob.ID, Amount: decimal.NewFromInt(200), DailyReturn: decimal.NewFromInt(6), Status: models.PendingPayment, CreatedAt: at},
		} {
			p := p
			if err := tx.CreatePendingInvestment(ctx, &p); err != nil {
				return err
			}
		}
		return tx.InsertEarning(ctx, &models.DailyEarning{UserID: alice.ID, Date: "2026-03-02", EarningType: models.EarningReferral, Amount: decimal.NewFromInt(12), RunID: "r"})
	}))
	return alice, bob
}

func TestMemoryListUsers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	alice, bob := seedLedger(t, s)

	users, total, err := s.ListUsers(ctx, UserFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, users, 2)
	assert.Equal(t, bob.ID, users[0].ID, "newest first")

	users, total, err = s.ListUsers(ctx, UserFilter{Search: "bobby"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, bob.ID, users[0].ID)

	users, _, err = s.ListUsers(ctx, UserFilter{Search: "alc"})
	require.NoError(t, err)
	require.Len(t, users, 1, "referral codes match case-insensitively")
	assert.Equal(t, alice.ID, users[0].ID)

	users, _, err = s.ListUsers(ctx, UserFilter{OrderBy: OrderTotalInvestment})
	require.NoError(t, err)
	assert.Equal(t, bob.ID, users[0].ID)

	users, total, err = s.ListUsers(ctx, UserFilter{OrderBy: OrderReferralEarnings, Page: Page{Limit: 1}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total, "total ignores paging")
	require.Len(t, users, 1)
	assert.Equal(t, alice.ID, users[0].ID)

	_, _, err = s.ListUsers(ctx, UserFilter{OrderBy: "password"})
	assert.Error(t, err)
}

func TestMemoryListFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	alice, _ := seedLedger(t, s)

	active := true
	invs, total, err := s.ListInvestments(ctx, InvestmentFilter{Active: &active})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Greater(t, invs[0].ID, invs[1].ID, "newest first")

	invs, total, err = s.ListInvestments(ctx, InvestmentFilter{UserID: alice.ID, Page: Page{Limit: 1, Offset: 1}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, invs, 1)
	assert.False(t, invs[0].IsActive)

	ws, total, err := s.ListWithdrawals(ctx, StatusFilter{UserID: alice.ID, Status: models.WithdrawalPending})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	money := func(want int64, got decimal.Decimal) { assert.True(t, decimal.NewFromInt(want).Equal(got), got.String()) }
	money(100, ws[0].Amount)

	ws, total, err = s.ListWithdrawals(ctx, StatusFilter{Page: Page{Offset: 10}})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Empty(t, ws)

	ps, total, err := s.ListPendingInvestments(ctx, StatusFilter{Status: models.PendingAwaitingConfirmation})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, alice.ID, ps[0].UserID)
}

func TestMemoryStats(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedLedger(t, s)

	st, err := s.Stats(ctx, "2026-03-02")
	require.NoError(t, err)
	assert.EqualValues(t, 2, st.Users)
	assert.EqualValues(t, 1, st.Referrals)
	assert.EqualValues(t, 2, st.ActiveInvestments)
	assert.EqualValues(t, 1, st.AwaitingInvestments)
	assert.EqualValues(t, 2, st.PendingWithdrawals)
	assert.True(t, decimal.NewFromInt(1800).Equal(st.TotalInvested), st.TotalInvested.String())
	assert.True(t, decimal.NewFromInt(150).Equal(st.TotalWithdrawn), st.TotalWithdrawn.String())
	assert.True(t, decimal.NewFromInt(12).Equal(st.Posted), st.Posted.String())

	st, err = s.Stats(ctx, "2026-03-03")
	require.NoError(t, err)
	assert.True(t, st.Posted.IsZero())
}

func TestMemoryLockReloadsRow(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedLedger(t, s)
	ws, _, err := s.ListWithdrawals(ctx, StatusFilter{Status: models.WithdrawalPending})
	require.NoError(t, err)
	ps, _, err := s.ListPendingInvestments(ctx, StatusFilter{Status: models.PendingPayment})
	require.NoError(t, err)

	require.NoError(t, WithTx(ctx, s, func(tx Tx) error {
		w, err := tx.LockWithdrawal(ctx, ws[0].ID)
		require.NoError(t, err)
		w.Status = models.WithdrawalCancelled
		require.NoError(t, tx.SaveWithdrawal(ctx, &w))
		again, err := tx.LockWithdrawal(ctx, ws[0].ID)
		require.NoError(t, err)
		assert.Equal(t, models.WithdrawalCancelled, again.Status, "lock sees the transaction's own writes")

		p, err := tx.LockPendingInvestment(ctx, ps[0].ID)
		require.NoError(t, err)
		assert.Equal(t, models.PendingPayment, p.Status)

		_, err = tx.LockWithdrawal(ctx, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = tx.LockPendingInvestment(ctx, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
		return nil
	}))
}
