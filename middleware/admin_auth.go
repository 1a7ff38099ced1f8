package middleware

import (
	"context"
	"net/http"

	"github.com/mohitbudhwar0786/earning-website/models"
	"github.com/mohitbudhwar0786/earning-website/utils"
)

// AdminLookup resolves the admin behind a token. It must fail for inactive
// accounts.
type AdminLookup interface {
	ActiveAdmin(ctx context.Context, id uint) (models.Admin, error)
}

// AdminAuth verifies that the request is from an authenticated, active admin
// and stores the admin id on the request context.
func AdminAuth(tokens utils.TokenConfig, admins AdminLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := utils.BearerToken(r)
			if !ok {
				utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{
					Success: false,
					Message: "Unauthorized: No token provided",
				})
				return
			}

			claims, err := tokens.ValidateAccessToken(tokenString)
			if err != nil {
				utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{
					Success: false,
					Message: "Unauthorized: Invalid token",
				})
				return
			}

			if role, _ := claims["role"].(string); role != "admin" {
				utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{
					Success: false,
					Message: "Forbidden: Admin access required",
				})
				return
			}

			adminID, err := utils.ClaimID(claims)
			if err != nil {
				utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{
					Success: false,
					Message: "Unauthorized: Invalid token",
				})
				return
			}

			if _, err := admins.ActiveAdmin(r.Context(), adminID); err != nil {
				utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{
					Success: false,
					Message: "Unauthorized: Admin not found",
				})
				return
			}

			next.ServeHTTP(w, r.WithContext(utils.WithAdminID(r.Context(), adminID)))
		})
	}
}
