package admins

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mohitbudhwar0786/earning-website/middleware"
	"github.com/mohitbudhwar0786/earning-website/utils"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	admin, err := h.Ledger.AuthenticateAdmin(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	token, err := h.Tokens.GenerateAccessToken(admin.ID, admin.Username, "admin")
	if err != nil {
		h.Log.Error("sign admin token", zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Could not create token",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Logged in",
		Data: map[string]interface{}{
			"token": token,
			"admin": admin,
		},
	})
}
