package admins

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mohitbudhwar0786/earning-website/store"
	"github.com/mohitbudhwar0786/earning-website/utils"
)

// GetUsers lists users with their wallet and investment summary. ?search
// matches username, mobile number or referral code; ?order is
// total_investment, referral_earnings or empty for newest first.
func (h *Handler) GetUsers(w http.ResponseWriter, r *http.Request) {
	p, page := pageParams(r)
	f := store.UserFilter{
		Search:  r.URL.Query().Get("search"),
		OrderBy: r.URL.Query().Get("order"),
		Page:    p,
	}
	users, total, err := h.Ledger.ListUsers(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeList(w, users, total, p, page)
}

func (h *Handler) GetUserDashboard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badID(w)
		return
	}
	d, err := h.Ledger.Dashboard(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: d})
}

// DeleteUser removes the user and everything hanging off it.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badID(w)
		return
	}
	if err := h.Ledger.DeleteUser(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	adminID, _ := utils.GetAdminID(r)
	h.Log.Warn("user deleted by admin", zap.Uint("user_id", id), zap.Uint("admin_id", adminID))
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "User deleted"})
}
