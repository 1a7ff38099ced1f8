package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/mohitbudhwar0786/earning-website/utils"
)

// HealthHandler reports healthy while ping succeeds. A nil ping only checks
// that the process is serving.
func HealthHandler(service string, ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := map[string]interface{}{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
			"service":   service,
		}
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				data["status"] = "unhealthy"
				utils.WriteJSON(w, http.StatusServiceUnavailable, utils.APIResponse{Success: false, Message: "Database unreachable", Data: data})
				return
			}
		}
		utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "OK", Data: data})
	}
}
