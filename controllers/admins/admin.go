// Package admins holds the operator endpoints. Every handler except Login
// runs behind middleware.AdminAuth.
package admins

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mohitbudhwar0786/earning-website/controllers"
	"github.com/mohitbudhwar0786/earning-website/ledger"
	"github.com/mohitbudhwar0786/earning-website/models"
	"github.com/mohitbudhwar0786/earning-website/store"
	"github.com/mohitbudhwar0786/earning-website/utils"
)

// Ledger is the part of ledger.Service the admin endpoints drive.
type Ledger interface {
	AuthenticateAdmin(ctx context.Context, username, password string) (models.Admin, error)
	ApproveInvestment(ctx context.Context, pendingID uint) (models.Investment, error)
	RejectInvestment(ctx context.Context, pendingID uint) (models.PendingInvestment, error)
	DeactivateInvestment(ctx context.Context, investmentID uint) error
	UpdateWithdrawalStatus(ctx context.Context, withdrawalID uint, status string, proof *ledger.PaymentProof) (models.Withdrawal, error)
	DeleteUser(ctx context.Context, userID uint) error
	Dashboard(ctx context.Context, userID uint) (ledger.Dashboard, error)
	ListUsers(ctx context.Context, f store.UserFilter) ([]ledger.UserSummary, int64, error)
	ListInvestments(ctx context.Context, f store.InvestmentFilter) ([]models.Investment, int64, error)
	ListPendingInvestments(ctx context.Context, f store.StatusFilter) ([]models.PendingInvestment, int64, error)
	ListWithdrawals(ctx context.Context, f store.StatusFilter) ([]models.Withdrawal, int64, error)
	Overview(ctx context.Context) (ledger.Overview, error)
}

type Handler struct {
	Ledger Ledger
	Runner controllers.SettlementRunner
	Tokens utils.TokenConfig
	Log    *zap.Logger
}

func NewHandler(l Ledger, runner controllers.SettlementRunner, tokens utils.TokenConfig, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Ledger: l, Runner: runner, Tokens: tokens, Log: log}
}

// pathID reads the numeric {id} route variable.
func pathID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func badID(w http.ResponseWriter) {
	utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid id"})
}

const maxPageLimit = 100

// ListResponse wraps one page of an admin list.
type ListResponse struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

// pageParams reads ?page and ?limit, defaulting to the first 20 rows.
func pageParams(r *http.Request) (store.Page, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return store.Page{Limit: limit, Offset: (page - 1) * limit}, page
}

// userIDParam reads the optional ?user_id filter; zero means all users.
func userIDParam(r *http.Request) (uint, bool) {
	v := r.URL.Query().Get("user_id")
	if v == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func writeList(w http.ResponseWriter, items interface{}, total int64, p store.Page, page int) {
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data:    ListResponse{Items: items, Total: total, Page: page, Limit: p.Limit},
	})
}

// writeError maps ledger errors onto HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := http.StatusInternalServerError, "Internal server error"
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		status, msg = http.StatusNotFound, "Not found"
	case errors.Is(err, ledger.ErrInvalidInput):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, ledger.ErrInvalidTransition):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, ledger.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, "Invalid username or password"
	default:
		h.Log.Error("admin request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", utils.GetRequestID(r.Context())),
			zap.Error(err))
	}
	utils.WriteJSON(w, status, utils.APIResponse{Success: false, Message: msg})
}

// RunSettlement triggers a pass for today; ?force=true replaces postings
// already made for the day.
func (h *Handler) RunSettlement(w http.ResponseWriter, r *http.Request) {
	force := false
	if v := r.URL.Query().Get("force"); v != "" {
		var err error
		if force, err = strconv.ParseBool(v); err != nil {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "force must be true or false"})
			return
		}
	}
	adminID, _ := utils.GetAdminID(r)
	h.Log.Info("manual settlement requested", zap.Uint("admin_id", adminID), zap.Bool("force", force))

	// a pass must not die with the client connection
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), controllers.RunTimeout)
	defer cancel()
	res, err := h.Runner.RunNow(ctx, force)
	controllers.WriteSettlementResult(w, h.Log, res, err)
}
