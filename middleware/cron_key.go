package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/mohitbudhwar0786/earning-website/utils"
)

// CronKey admits only requests whose X-CRON-KEY header matches key.
func CronKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-CRON-KEY")
			if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
