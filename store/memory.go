package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mohitbudhwar0786/earning-website/models"
)

// MemoryStore keeps the ledger in process. Transactions are serialized: Begin
// takes a snapshot and Commit publishes it, so a rolled back Tx leaves no
// trace. Uniqueness rules mirror the SQL schema.
type MemoryStore struct {
	txMu sync.Mutex

	mu    sync.RWMutex
	state *memState
}

type memState struct {
	nextID      uint
	users       map[uint]models.User
	investments map[uint]models.Investment
	referrals   map[uint]models.Referral
	earnings    map[uint]models.DailyEarning
	wallets     map[uint]models.Wallet
	withdrawals map[uint]models.Withdrawal
	pending     map[uint]models.PendingInvestment
	admins      map[uint]models.Admin
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: &memState{
		users:       map[uint]models.User{},
		investments: map[uint]models.Investment{},
		referrals:   map[uint]models.Referral{},
		earnings:    map[uint]models.DailyEarning{},
		wallets:     map[uint]models.Wallet{},
		withdrawals: map[uint]models.Withdrawal{},
		pending:     map[uint]models.PendingInvestment{},
		admins:      map[uint]models.Admin{},
	}}
}

func (s *memState) clone() *memState {
	c := &memState{
		nextID:      s.nextID,
		users:       make(map[uint]models.User, len(s.users)),
		investments: make(map[uint]models.Investment, len(s.investments)),
		referrals:   make(map[uint]models.Referral, len(s.referrals)),
		earnings:    make(map[uint]models.DailyEarning, len(s.earnings)),
		wallets:     make(map[uint]models.Wallet, len(s.wallets)),
		withdrawals: make(map[uint]models.Withdrawal, len(s.withdrawals)),
		pending:     make(map[uint]models.PendingInvestment, len(s.pending)),
		admins:      make(map[uint]models.Admin, len(s.admins)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.investments {
		c.investments[k] = v
	}
	for k, v := range s.referrals {
		c.referrals[k] = v
	}
	for k, v := range s.earnings {
		c.earnings[k] = v
	}
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	for k, v := range s.withdrawals {
		c.withdrawals[k] = v
	}
	for k, v := range s.pending {
		c.pending[k] = v
	}
	for k, v := range s.admins {
		c.admins[k] = v
	}
	return c
}

func (s *memState) id() uint {
	s.nextID++
	return s.nextID
}

func (s *MemoryStore) Begin(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify(err)
	}
	s.txMu.Lock()
	s.mu.RLock()
	snap := s.state.clone()
	s.mu.RUnlock()
	return &memTx{memReader: memReader{state: snap}, store: s}, nil
}

// committed returns a reader over the last committed state. Published
// states are never written again, so the reader needs no lock of its own.
func (s *MemoryStore) committed() memReader {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return memReader{state: s.state}
}

func (s *MemoryStore) FindUsers(ctx context.Context) ([]models.User, error) {
	return s.committed().FindUsers(ctx)
}

func (s *MemoryStore) FindUser(ctx context.Context, id uint) (models.User, error) {
	return s.committed().FindUser(ctx, id)
}

func (s *MemoryStore) FindUserByUsername(ctx context.Context, username string) (models.User, error) {
	return s.committed().FindUserByUsername(ctx, username)
}

func (s *MemoryStore) FindUserByReferralCode(ctx context.Context, code string) (models.User, error) {
	return s.committed().FindUserByReferralCode(ctx, code)
}

func (s *MemoryStore) FindActiveInvestments(ctx context.Context, userID uint) ([]models.Investment, error) {
	return s.committed().FindActiveInvestments(ctx, userID)
}

func (s *MemoryStore) FindInvestment(ctx context.Context, id uint) (models.Investment, error) {
	return s.committed().FindInvestment(ctx, id)
}

func (s *MemoryStore) FindReferralsBy(ctx context.Context, referrerID uint) ([]models.Referral, error) {
	return s.committed().FindReferralsBy(ctx, referrerID)
}

func (s *MemoryStore) FindEarning(ctx context.Context, userID uint, date string) (*models.DailyEarning, error) {
	return s.committed().FindEarning(ctx, userID, date)
}

func (s *MemoryStore) FindEarnings(ctx context.Context, userID uint, date string) ([]models.DailyEarning, error) {
	return s.committed().FindEarnings(ctx, userID, date)
}

func (s *MemoryStore) FindWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	return s.committed().FindWallet(ctx, userID)
}

func (s *MemoryStore) FindPendingInvestment(ctx context.Context, id uint) (models.PendingInvestment, error) {
	return s.committed().FindPendingInvestment(ctx, id)
}

func (s *MemoryStore) FindExpiredPendingInvestments(ctx context.Context, now time.Time) ([]models.PendingInvestment, error) {
	return s.committed().FindExpiredPendingInvestments(ctx, now)
}

func (s *MemoryStore) FindWithdrawal(ctx context.Context, id uint) (models.Withdrawal, error) {
	return s.committed().FindWithdrawal(ctx, id)
}

func (s *MemoryStore) FindAdmin(ctx context.Context, id uint) (models.Admin, error) {
	return s.committed().FindAdmin(ctx, id)
}

func (s *MemoryStore) FindAdminByUsername(ctx context.Context, username string) (models.Admin, error) {
	return s.committed().FindAdminByUsername(ctx, username)
}

func (s *MemoryStore) ListUsers(ctx context.Context, f UserFilter) ([]models.User, int64, error) {
	return s.committed().ListUsers(ctx, f)
}

func (s *MemoryStore) ListInvestments(ctx context.Context, f InvestmentFilter) ([]models.Investment, int64, error) {
	return s.committed().ListInvestments(ctx, f)
}

func (s *MemoryStore) ListPendingInvestments(ctx context.Context, f StatusFilter) ([]models.PendingInvestment, int64, error) {
	return s.committed().ListPendingInvestments(ctx, f)
}

func (s *MemoryStore) ListWithdrawals(ctx context.Context, f StatusFilter) ([]models.Withdrawal, int64, error) {
	return s.committed().ListWithdrawals(ctx, f)
}

func (s *MemoryStore) Stats(ctx context.Context, date string) (Stats, error) {
	return s.committed().Stats(ctx, date)
}

type memReader struct {
	state *memState
}

func sortedKeys[V any](m map[uint]V) []uint {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (r memReader) FindUsers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	for _, id := range sortedKeys(r.state.users) {
		out = append(out, r.state.users[id])
	}
	return out, nil
}

func (r memReader) FindUser(ctx context.Context, id uint) (models.User, error) {
	u, ok := r.state.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (r memReader) FindUserByUsername(ctx context.Context, username string) (models.User, error) {
	for _, u := range r.state.users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (r memReader) FindUserByReferralCode(ctx context.Context, code string) (models.User, error) {
	for _, u := range r.state.users {
		if u.ReferralCode == code {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (r memReader) FindActiveInvestments(ctx context.Context, userID uint) ([]models.Investment, error) {
	var out []models.Investment
	for _, id := range sortedKeys(r.state.investments) {
		inv := r.state.investments[id]
		if inv.UserID == userID && inv.IsActive {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r memReader) FindInvestment(ctx context.Context, id uint) (models.Investment, error) {
	inv, ok := r.state.investments[id]
	if !ok {
		return models.Investment{}, ErrNotFound
	}
	return inv, nil
}

func (r memReader) FindReferralsBy(ctx context.Context, referrerID uint) ([]models.Referral, error) {
	var out []models.Referral
	for _, id := range sortedKeys(r.state.referrals) {
		ref := r.state.referrals[id]
		if ref.ReferrerID == referrerID {
			out = append(out, ref)
		}
	}
	return out, nil
}

func (r memReader) FindEarning(ctx context.Context, userID uint, date string) (*models.DailyEarning, error) {
	es, _ := r.FindEarnings(ctx, userID, date)
	if len(es) == 0 {
		return nil, nil
	}
	return &es[0], nil
}

func (r memReader) FindEarnings(ctx context.Context, userID uint, date string) ([]models.DailyEarning, error) {
	var out []models.DailyEarning
	for _, id := range sortedKeys(r.state.earnings) {
		e := r.state.earnings[id]
		if e.UserID == userID && e.Date == date {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r memReader) FindWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	for _, w := range r.state.wallets {
		if w.UserID == userID {
			w := w
			return &w, nil
		}
	}
	return nil, nil
}

func (r memReader) FindPendingInvestment(ctx context.Context, id uint) (models.PendingInvestment, error) {
	p, ok := r.state.pending[id]
	if !ok {
		return models.PendingInvestment{}, ErrNotFound
	}
	return p, nil
}

func (r memReader) FindExpiredPendingInvestments(ctx context.Context, now time.Time) ([]models.PendingInvestment, error) {
	var out []models.PendingInvestment
	for _, id := range sortedKeys(r.state.pending) {
		p := r.state.pending[id]
		if p.Status == models.PendingPayment && p.ExpiresAt != nil && !p.ExpiresAt.After(now) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memReader) FindWithdrawal(ctx context.Context, id uint) (models.Withdrawal, error) {
	w, ok := r.state.withdrawals[id]
	if !ok {
		return models.Withdrawal{}, ErrNotFound
	}
	return w, nil
}

func (r memReader) FindAdmin(ctx context.Context, id uint) (models.Admin, error) {
	a, ok := r.state.admins[id]
	if !ok {
		return models.Admin{}, ErrNotFound
	}
	return a, nil
}

func (r memReader) FindAdminByUsername(ctx context.Context, username string) (models.Admin, error) {
	for _, a := range r.state.admins {
		if a.Username == username {
			return a, nil
		}
	}
	return models.Admin{}, ErrNotFound
}

// paginate cuts one page out of rows already in list order.
func paginate[T any](rows []T, p Page) ([]T, int64) {
	total := int64(len(rows))
	if p.Offset >= len(rows) {
		return nil, total
	}
	rows = rows[p.Offset:]
	if p.Limit > 0 && p.Limit < len(rows) {
		rows = rows[:p.Limit]
	}
	return rows, total
}

// newestFirst returns the keys of m in descending id order.
func newestFirst[V any](m map[uint]V) []uint {
	keys := sortedKeys(m)
	for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
		keys[i], keys[j] = keys[j], keys[i]
	}
	return keys
}

func (r memReader) ListUsers(ctx context.Context, f UserFilter) ([]models.User, int64, error) {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var out []models.User
	for _, id := range sortedKeys(r.state.users) {
		u := r.state.users[id]
		if search != "" && !strings.Contains(strings.ToLower(u.Username), search) &&
			!strings.Contains(strings.ToLower(u.ReferralCode), search) &&
			(u.MobileNumber == nil || !strings.Contains(*u.MobileNumber, search)) {
			continue
		}
		out = append(out, u)
	}

	var key func(u models.User) decimal.Decimal
	switch f.OrderBy {
	case OrderNewest:
		sort.SliceStable(out, func(i, j int) bool {
			if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return out[i].ID > out[j].ID
		})
	case OrderTotalInvestment:
		key = func(u models.User) decimal.Decimal { return u.TotalInvestment }
	case OrderReferralEarnings:
		key = func(u models.User) decimal.Decimal { return u.ReferralEarnings }
	default:
		return nil, 0, fmt.Errorf("store: unknown user order %q", f.OrderBy)
	}
	if key != nil {
		sort.SliceStable(out, func(i, j int) bool { return key(out[i]).GreaterThan(key(out[j])) })
	}
	page, total := paginate(out, f.Page)
	return page, total, nil
}

func (r memReader) ListInvestments(ctx context.Context, f InvestmentFilter) ([]models.Investment, int64, error) {
	var out []models.Investment
	for _, id := range newestFirst(r.state.investments) {
		inv := r.state.investments[id]
		if (f.UserID != 0 && inv.UserID != f.UserID) || (f.Active != nil && inv.IsActive != *f.Active) {
			continue
		}
		out = append(out, inv)
	}
	page, total := paginate(out, f.Page)
	return page, total, nil
}

func (r memReader) ListPendingInvestments(ctx context.Context, f StatusFilter) ([]models.PendingInvestment, int64, error) {
	var out []models.PendingInvestment
	for _, id := range newestFirst(r.state.pending) {
		p := r.state.pending[id]
		if (f.UserID != 0 && p.UserID != f.UserID) || (f.Status != "" && p.Status != f.Status) {
			continue
		}
		out = append(out, p)
	}
	page, total := paginate(out, f.Page)
	return page, total, nil
}

func (r memReader) ListWithdrawals(ctx context.Context, f StatusFilter) ([]models.Withdrawal, int64, error) {
	var out []models.Withdrawal
	for _, id := range newestFirst(r.state.withdrawals) {
		w := r.state.withdrawals[id]
		if (f.UserID != 0 && w.UserID != f.UserID) || (f.Status != "" && w.Status != f.Status) {
			continue
		}
		out = append(out, w)
	}
	page, total := paginate(out, f.Page)
	return page, total, nil
}

func (r memReader) Stats(ctx context.Context, date string) (Stats, error) {
	st := Stats{
		Users:          int64(len(r.state.users)),
		Referrals:      int64(len(r.state.referrals)),
		TotalInvested:  decimal.Zero,
		TotalWithdrawn: decimal.Zero,
		Posted:         decimal.Zero,
	}
	for _, inv := range r.state.investments {
		st.TotalInvested = st.TotalInvested.Add(inv.Amount)
		if inv.IsActive {
			st.ActiveInvestments++
		}
	}
	for _, p := range r.state.pending {
		if p.Status == models.PendingAwaitingConfirmation {
			st.AwaitingInvestments++
		}
	}
	for _, w := range r.state.withdrawals {
		switch w.Status {
		case models.WithdrawalPending, models.WithdrawalAwaitingConfirmation:
			st.PendingWithdrawals++
		case models.WithdrawalCompleted:
			st.TotalWithdrawn = st.TotalWithdrawn.Add(w.Amount)
		}
	}
	for _, e := range r.state.earnings {
		if e.Date == date {
			st.Posted = st.Posted.Add(e.Amount)
		}
	}
	return st, nil
}

type memTx struct {
	memReader
	store *MemoryStore
	done  bool
}

func (t *memTx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Lock()
	t.store.state = t.state
	t.store.mu.Unlock()
	t.store.txMu.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.txMu.Unlock()
	return nil
}

func (t *memTx) LockUser(ctx context.Context, id uint) (models.User, error) {
	return t.FindUser(ctx, id)
}

func (t *memTx) CreateUser(ctx context.Context, u *models.User) error {
	for _, other := range t.state.users {
		if other.Username == u.Username || other.ReferralCode == u.ReferralCode {
			return ErrDuplicate
		}
		if u.MobileNumber != nil && other.MobileNumber != nil && *u.MobileNumber == *other.MobileNumber {
			return ErrDuplicate
		}
		if u.Email != nil && other.Email != nil && *u.Email == *other.Email {
			return ErrDuplicate
		}
	}
	now := time.Now().UTC()
	u.ID = t.state.id()
	u.CreatedAt = now
	u.UpdatedAt = now
	t.state.users[u.ID] = *u
	return nil
}

func (t *memTx) AdjustUserTotals(ctx context.Context, userID uint, d TotalsDelta) error {
	u, ok := t.state.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.TotalInvestment = u.TotalInvestment.Add(d.Investment)
	u.TotalEarnings = u.TotalEarnings.Add(d.Earnings)
	u.ReferralEarnings = u.ReferralEarnings.Add(d.Referral)
	u.UpdatedAt = time.Now().UTC()
	t.state.users[userID] = u
	return nil
}

func (t *memTx) DeleteUser(ctx context.Context, id uint) error {
	if _, ok := t.state.users[id]; !ok {
		return ErrNotFound
	}
	for k, v := range t.state.earnings {
		if v.UserID == id {
			delete(t.state.earnings, k)
		}
	}
	for k, v := range t.state.investments {
		if v.UserID == id {
			delete(t.state.investments, k)
		}
	}
	for k, v := range t.state.pending {
		if v.UserID == id {
			delete(t.state.pending, k)
		}
	}
	for k, v := range t.state.withdrawals {
		if v.UserID == id {
			delete(t.state.withdrawals, k)
		}
	}
	for k, v := range t.state.wallets {
		if v.UserID == id {
			delete(t.state.wallets, k)
		}
	}
	for k, v := range t.state.referrals {
		if v.ReferrerID == id || v.ReferredUserID == id {
			delete(t.state.referrals, k)
		}
	}
	delete(t.state.users, id)
	return nil
}

func (t *memTx) CreateInvestment(ctx context.Context, inv *models.Investment) error {
	if _, ok := t.state.users[inv.UserID]; !ok {
		return ErrNotFound
	}
	inv.ID = t.state.id()
	inv.CreatedAt = time.Now().UTC()
	inv.UpdatedAt = inv.CreatedAt
	t.state.investments[inv.ID] = *inv
	return nil
}

func (t *memTx) DeactivateInvestment(ctx context.Context, id uint) error {
	inv, ok := t.state.investments[id]
	if !ok {
		return ErrNotFound
	}
	inv.IsActive = false
	inv.UpdatedAt = time.Now().UTC()
	t.state.investments[id] = inv
	return nil
}

func (t *memTx) CreateReferral(ctx context.Context, r *models.Referral) error {
	for _, other := range t.state.referrals {
		if other.ReferredUserID == r.ReferredUserID {
			return ErrDuplicate
		}
	}
	r.ID = t.state.id()
	r.CreatedAt = time.Now().UTC()
	t.state.referrals[r.ID] = *r
	return nil
}

func (t *memTx) DeleteEarnings(ctx context.Context, userID uint, date string) error {
	for k, e := range t.state.earnings {
		if e.UserID == userID && e.Date == date {
			delete(t.state.earnings, k)
		}
	}
	return nil
}

func (t *memTx) InsertEarning(ctx context.Context, e *models.DailyEarning) error {
	for _, other := range t.state.earnings {
		if other.UserID == e.UserID && other.Date == e.Date &&
			other.EarningType == e.EarningType && other.InvestmentID == e.InvestmentID {
			return ErrDuplicate
		}
	}
	e.ID = t.state.id()
	e.CreatedAt = time.Now().UTC()
	t.state.earnings[e.ID] = *e
	return nil
}

func (t *memTx) GetOrCreateWallet(ctx context.Context, userID uint) (models.Wallet, error) {
	if w, _ := t.FindWallet(ctx, userID); w != nil {
		return *w, nil
	}
	w := models.Wallet{ID: t.state.id(), UserID: userID, LastUpdated: time.Now().UTC()}
	t.state.wallets[w.ID] = w
	return w, nil
}

func (t *memTx) SaveWallet(ctx context.Context, w *models.Wallet) error {
	if w.ID == 0 {
		return ErrNotFound
	}
	t.state.wallets[w.ID] = *w
	return nil
}

// Transactions are already serialized, so the row locks only reload.
func (t *memTx) LockPendingInvestment(ctx context.Context, id uint) (models.PendingInvestment, error) {
	return t.FindPendingInvestment(ctx, id)
}

func (t *memTx) LockWithdrawal(ctx context.Context, id uint) (models.Withdrawal, error) {
	return t.FindWithdrawal(ctx, id)
}

func (t *memTx) CreatePendingInvestment(ctx context.Context, p *models.PendingInvestment) error {
	p.ID = t.state.id()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	t.state.pending[p.ID] = *p
	return nil
}

func (t *memTx) SavePendingInvestment(ctx context.Context, p *models.PendingInvestment) error {
	if _, ok := t.state.pending[p.ID]; !ok {
		return ErrNotFound
	}
	t.state.pending[p.ID] = *p
	return nil
}

func (t *memTx) CreateWithdrawal(ctx context.Context, w *models.Withdrawal) error {
	w.ID = t.state.id()
	if w.RequestedAt.IsZero() {
		w.RequestedAt = time.Now().UTC()
	}
	t.state.withdrawals[w.ID] = *w
	return nil
}

func (t *memTx) SaveWithdrawal(ctx context.Context, w *models.Withdrawal) error {
	if _, ok := t.state.withdrawals[w.ID]; !ok {
		return ErrNotFound
	}
	t.state.withdrawals[w.ID] = *w
	return nil
}

func (t *memTx) CreateAdmin(ctx context.Context, a *models.Admin) error {
	for _, other := range t.state.admins {
		if other.Username == a.Username {
			return ErrDuplicate
		}
	}
	a.ID = t.state.id()
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt
	t.state.admins[a.ID] = *a
	return nil
}
