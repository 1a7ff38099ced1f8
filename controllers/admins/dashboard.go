package admins

import (
	"net/http"

	"github.com/mohitbudhwar0786/earning-website/utils"
)

func (h *Handler) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	o, err := h.Ledger.Overview(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: o})
}
