package admins

import (
	"net/http"

	"github.com/mohitbudhwar0786/earning-website/ledger"
	"github.com/mohitbudhwar0786/earning-website/middleware"
	"github.com/mohitbudhwar0786/earning-website/store"
	"github.com/mohitbudhwar0786/earning-website/utils"
)

type WithdrawalStatusRequest struct {
	Status           string `json:"status" validate:"required"`
	PaymentMethod    string `json:"payment_method"`
	PaymentReference string `json:"payment_reference"`
	PaymentHours     int    `json:"payment_hours"`
	PaymentMinutes   int    `json:"payment_minutes"`
}

func (req WithdrawalStatusRequest) proof() *ledger.PaymentProof {
	if req.PaymentMethod == "" && req.PaymentReference == "" && req.PaymentHours == 0 && req.PaymentMinutes == 0 {
		return nil
	}
	return &ledger.PaymentProof{
		Method:    req.PaymentMethod,
		Reference: req.PaymentReference,
		Hours:     req.PaymentHours,
		Minutes:   req.PaymentMinutes,
	}
}

func (h *Handler) UpdateWithdrawalStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badID(w)
		return
	}
	var req WithdrawalStatusRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	wd, err := h.Ledger.UpdateWithdrawalStatus(r.Context(), id, req.Status, req.proof())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Withdrawal updated", Data: wd})
}

// GetWithdrawals lists withdrawals, newest first, filtered by ?status and
// ?user_id.
func (h *Handler) GetWithdrawals(w http.ResponseWriter, r *http.Request) {
	p, page := pageParams(r)
	userID, ok := userIDParam(r)
	if !ok {
		badID(w)
		return
	}
	f := store.StatusFilter{UserID: userID, Status: r.URL.Query().Get("status"), Page: p}
	ws, total, err := h.Ledger.ListWithdrawals(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeList(w, ws, total, p, page)
}
