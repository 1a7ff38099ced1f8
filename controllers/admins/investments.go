package admins

import (
	"net/http"
	"strconv"

	"github.com/mohitbudhwar0786/earning-website/store"
	"github.com/mohitbudhwar0786/earning-website/utils"
)

// GetInvestments lists investments, newest first, filtered by ?user_id and
// ?active.
func (h *Handler) GetInvestments(w http.ResponseWriter, r *http.Request) {
	p, page := pageParams(r)
	userID, ok := userIDParam(r)
	if !ok {
		badID(w)
		return
	}
	f := store.InvestmentFilter{UserID: userID, Page: p}
	if v := r.URL.Query().Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "active must be true or false"})
			return
		}
		f.Active = &active
	}
	invs, total, err := h.Ledger.ListInvestments(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeList(w, invs, total, p, page)
}

// GetPendingInvestments lists investment requests, newest first. Pass
// ?status=awaiting_confirmation for the ones waiting on an admin.
func (h *Handler) GetPendingInvestments(w http.ResponseWriter, r *http.Request) {
	p, page := pageParams(r)
	userID, ok := userIDParam(r)
	if !ok {
		badID(w)
		return
	}
	f := store.StatusFilter{UserID: userID, Status: r.URL.Query().Get("status"), Page: p}
	ps, total, err := h.Ledger.ListPendingInvestments(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeList(w, ps, total, p, page)
}

func (h *Handler) ApproveInvestment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badID(w)
		return
	}
	inv, err := h.Ledger.ApproveInvestment(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Investment approved", Data: inv})
}

func (h *Handler) RejectInvestment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badID(w)
		return
	}
	p, err := h.Ledger.RejectInvestment(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Investment rejected", Data: p})
}

func (h *Handler) DeactivateInvestment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badID(w)
		return
	}
	if err := h.Ledger.DeactivateInvestment(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Investment deactivated"})
}
