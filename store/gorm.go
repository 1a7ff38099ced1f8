package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mohitbudhwar0786/earning-website/models"
)

// GormStore is the SQL-backed Store.
type GormStore struct {
	gormReader
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{gormReader: gormReader{db: db}}
}

func (s *GormStore) Begin(ctx context.Context) (Tx, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, classify(tx.Error)
	}
	return &gormTx{gormReader: gormReader{db: tx}}, nil
}

type gormReader struct {
	db *gorm.DB
}

func (r gormReader) FindUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error
	return users, classify(err)
}

func (r gormReader) FindUser(ctx context.Context, id uint) (models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).First(&u, id).Error
	return u, classify(err)
}

func (r gormReader) FindUserByUsername(ctx context.Context, username string) (models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	return u, classify(err)
}

func (r gormReader) FindUserByReferralCode(ctx context.Context, code string) (models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where("referral_code = ?", code).First(&u).Error
	return u, classify(err)
}

func (r gormReader) FindActiveInvestments(ctx context.Context, userID uint) ([]models.Investment, error) {
	var invs []models.Investment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("id ASC").
		Find(&invs).Error
	return invs, classify(err)
}

func (r gormReader) FindInvestment(ctx context.Context, id uint) (models.Investment, error) {
	var inv models.Investment
	err := r.db.WithContext(ctx).First(&inv, id).Error
	return inv, classify(err)
}

func (r gormReader) FindReferralsBy(ctx context.Context, referrerID uint) ([]models.Referral, error) {
	var refs []models.Referral
	err := r.db.WithContext(ctx).Where("referrer_id = ?", referrerID).Order("id ASC").Find(&refs).Error
	return refs, classify(err)
}

func (r gormReader) FindEarning(ctx context.Context, userID uint, date string) (*models.DailyEarning, error) {
	var e models.DailyEarning
	err := r.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date).Limit(1).Find(&e).Error
	if err != nil {
		return nil, classify(err)
	}
	if e.ID == 0 {
		return nil, nil
	}
	return &e, nil
}

func (r gormReader) FindEarnings(ctx context.Context, userID uint, date string) ([]models.DailyEarning, error) {
	var es []models.DailyEarning
	err := r.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date).Order("id ASC").Find(&es).Error
	return es, classify(err)
}

func (r gormReader) FindWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	var w models.Wallet
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&w).Error
	if err != nil {
		return nil, classify(err)
	}
	if w.ID == 0 {
		return nil, nil
	}
	return &w, nil
}

func (r gormReader) FindPendingInvestment(ctx context.Context, id uint) (models.PendingInvestment, error) {
	var p models.PendingInvestment
	err := r.db.WithContext(ctx).First(&p, id).Error
	return p, classify(err)
}

func (r gormReader) FindExpiredPendingInvestments(ctx context.Context, now time.Time) ([]models.PendingInvestment, error) {
	var ps []models.PendingInvestment
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", models.PendingPayment, now).
		Find(&ps).Error
	return ps, classify(err)
}

func (r gormReader) FindWithdrawal(ctx context.Context, id uint) (models.Withdrawal, error) {
	var w models.Withdrawal
	err := r.db.WithContext(ctx).First(&w, id).Error
	return w, classify(err)
}

func (r gormReader) FindAdmin(ctx context.Context, id uint) (models.Admin, error) {
	var a models.Admin
	err := r.db.WithContext(ctx).First(&a, id).Error
	return a, classify(err)
}

func (r gormReader) FindAdminByUsername(ctx context.Context, username string) (models.Admin, error) {
	var a models.Admin
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&a).Error
	return a, classify(err)
}

var userOrders = map[string]string{
	OrderNewest:           "created_at DESC, id DESC",
	OrderTotalInvestment:  "total_investment DESC, id ASC",
	OrderReferralEarnings: "referral_earnings DESC, id ASC",
}

// list counts every row q matches, then loads one page of them into dst.
func list(q *gorm.DB, p Page, order string, dst interface{}) (int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, classify(err)
	}
	q = q.Session(&gorm.Session{}).Order(order)
	if p.Limit > 0 {
		q = q.Limit(p.Limit)
	}
	if p.Offset > 0 {
		q = q.Offset(p.Offset)
	}
	return total, classify(q.Find(dst).Error)
}

func (r gormReader) ListUsers(ctx context.Context, f UserFilter) ([]models.User, int64, error) {
	order, ok := userOrders[f.OrderBy]
	if !ok {
		return nil, 0, fmt.Errorf("store: unknown user order %q", f.OrderBy)
	}
	q := r.db.WithContext(ctx).Model(&models.User{})
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(username) LIKE ? OR mobile_number LIKE ? OR LOWER(referral_code) LIKE ?", like, like, like)
	}
	var users []models.User
	total, err := list(q, f.Page, order, &users)
	return users, total, err
}

func (r gormReader) ListInvestments(ctx context.Context, f InvestmentFilter) ([]models.Investment, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Investment{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Active != nil {
		q = q.Where("is_active = ?", *f.Active)
	}
	var invs []models.Investment
	total, err := list(q, f.Page, "id DESC", &invs)
	return invs, total, err
}

func (r gormReader) ListPendingInvestments(ctx context.Context, f StatusFilter) ([]models.PendingInvestment, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.PendingInvestment{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var ps []models.PendingInvestment
	total, err := list(q, f.Page, "id DESC", &ps)
	return ps, total, err
}

func (r gormReader) ListWithdrawals(ctx context.Context, f StatusFilter) ([]models.Withdrawal, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Withdrawal{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var ws []models.Withdrawal
	total, err := list(q, f.Page, "id DESC", &ws)
	return ws, total, err
}

func (r gormReader) Stats(ctx context.Context, date string) (Stats, error) {
	db := r.db.WithContext(ctx)
	var st Stats

	counts := []struct {
		dst *int64
		q   *gorm.DB
	}{
		{&st.Users, db.Model(&models.User{})},
		{&st.Referrals, db.Model(&models.Referral{})},
		{&st.ActiveInvestments, db.Model(&models.Investment{}).Where("is_active = ?", true)},
		{&st.AwaitingInvestments, db.Model(&models.PendingInvestment{}).Where("status = ?", models.PendingAwaitingConfirmation)},
		{&st.PendingWithdrawals, db.Model(&models.Withdrawal{}).
			Where("status IN ?", []string{models.WithdrawalPending, models.WithdrawalAwaitingConfirmation})},
	}
	for _, c := range counts {
		if err := c.q.Count(c.dst).Error; err != nil {
			return Stats{}, classify(err)
		}
	}

	sums := []struct {
		dst *decimal.Decimal
		q   *gorm.DB
	}{
		{&st.TotalInvested, db.Model(&models.Investment{})},
		{&st.TotalWithdrawn, db.Model(&models.Withdrawal{}).Where("status = ?", models.WithdrawalCompleted)},
		{&st.Posted, db.Model(&models.DailyEarning{}).Where("date = ?", date)},
	}
	for _, s := range sums {
		if err := s.q.Select("COALESCE(SUM(amount), 0)").Row().Scan(s.dst); err != nil {
			return Stats{}, classify(err)
		}
	}
	return st, nil
}

type gormTx struct {
	gormReader
}

func (t *gormTx) Commit() error {
	return classify(t.db.Commit().Error)
}

func (t *gormTx) Rollback() error {
	return classify(t.db.Rollback().Error)
}

func (t *gormTx) LockUser(ctx context.Context, id uint) (models.User, error) {
	var u models.User
	err := t.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&u, id).Error
	return u, classify(err)
}

func (t *gormTx) CreateUser(ctx context.Context, u *models.User) error {
	return classify(t.db.WithContext(ctx).Create(u).Error)
}

func (t *gormTx) AdjustUserTotals(ctx context.Context, userID uint, d TotalsDelta) error {
	updates := map[string]interface{}{}
	if !d.Investment.IsZero() {
		updates["total_investment"] = gorm.Expr("total_investment + ?", d.Investment)
	}
	if !d.Earnings.IsZero() {
		updates["total_earnings"] = gorm.Expr("total_earnings + ?", d.Earnings)
	}
	if !d.Referral.IsZero() {
		updates["referral_earnings"] = gorm.Expr("referral_earnings + ?", d.Referral)
	}
	if len(updates) == 0 {
		return nil
	}
	res := t.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes the user and everything it owns.
func (t *gormTx) DeleteUser(ctx context.Context, id uint) error {
	db := t.db.WithContext(ctx)
	owned := []struct {
		model interface{}
		where string
	}{
		{&models.DailyEarning{}, "user_id = ?"},
		{&models.Investment{}, "user_id = ?"},
		{&models.PendingInvestment{}, "user_id = ?"},
		{&models.Withdrawal{}, "user_id = ?"},
		{&models.Wallet{}, "user_id = ?"},
		{&models.Referral{}, "referrer_id = ?"},
		{&models.Referral{}, "referred_user_id = ?"},
	}
	for _, o := range owned {
		if err := db.Where(o.where, id).Delete(o.model).Error; err != nil {
			return classify(err)
		}
	}
	res := db.Delete(&models.User{}, id)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *gormTx) CreateInvestment(ctx context.Context, inv *models.Investment) error {
	return classify(t.db.WithContext(ctx).Create(inv).Error)
}

func (t *gormTx) DeactivateInvestment(ctx context.Context, id uint) error {
	res := t.db.WithContext(ctx).Model(&models.Investment{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *gormTx) CreateReferral(ctx context.Context, r *models.Referral) error {
	return classify(t.db.WithContext(ctx).Create(r).Error)
}

func (t *gormTx) DeleteEarnings(ctx context.Context, userID uint, date string) error {
	err := t.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date).Delete(&models.DailyEarning{}).Error
	return classify(err)
}

func (t *gormTx) InsertEarning(ctx context.Context, e *models.DailyEarning) error {
	return classify(t.db.WithContext(ctx).Create(e).Error)
}

func (t *gormTx) GetOrCreateWallet(ctx context.Context, userID uint) (models.Wallet, error) {
	var w models.Wallet
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Limit(1).
		Find(&w).Error
	if err != nil {
		return models.Wallet{}, classify(err)
	}
	if w.ID != 0 {
		return w, nil
	}
	w = models.Wallet{UserID: userID, LastUpdated: time.Now().UTC()}
	if err := t.db.WithContext(ctx).Create(&w).Error; err != nil {
		return models.Wallet{}, classify(err)
	}
	return w, nil
}

func (t *gormTx) SaveWallet(ctx context.Context, w *models.Wallet) error {
	return classify(t.db.WithContext(ctx).Save(w).Error)
}

func (t *gormTx) LockPendingInvestment(ctx context.Context, id uint) (models.PendingInvestment, error) {
	var p models.PendingInvestment
	err := t.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, id).Error
	return p, classify(err)
}

func (t *gormTx) LockWithdrawal(ctx context.Context, id uint) (models.Withdrawal, error) {
	var w models.Withdrawal
	err := t.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&w, id).Error
	return w, classify(err)
}

func (t *gormTx) CreatePendingInvestment(ctx context.Context, p *models.PendingInvestment) error {
	return classify(t.db.WithContext(ctx).Create(p).Error)
}

func (t *gormTx) SavePendingInvestment(ctx context.Context, p *models.PendingInvestment) error {
	return classify(t.db.WithContext(ctx).Save(p).Error)
}

func (t *gormTx) CreateWithdrawal(ctx context.Context, w *models.Withdrawal) error {
	return classify(t.db.WithContext(ctx).Create(w).Error)
}

func (t *gormTx) SaveWithdrawal(ctx context.Context, w *models.Withdrawal) error {
	return classify(t.db.WithContext(ctx).Save(w).Error)
}

func (t *gormTx) CreateAdmin(ctx context.Context, a *models.Admin) error {
	return classify(t.db.WithContext(ctx).Create(a).Error)
}
