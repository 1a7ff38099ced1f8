package middleware

import (
	"mime"
	"net/http"

	"github.com/mohitbudhwar0786/earning-website/utils"
)

// ValidateJSON decodes the body into dst and runs utils.ValidateStruct. On
// failure it has already written the error response.
func ValidateJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); ct != "application/json" {
		utils.WriteJSON(w, http.StatusUnsupportedMediaType, utils.APIResponse{Success: false, Message: "Content-Type must be application/json"})
		return http.ErrNotSupported
	}
	if err := utils.DecodeJSON(r, dst); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid JSON body"})
		return err
	}
	if err := utils.ValidateStruct(dst); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Validation failed", Data: err.Error()})
		return err
	}
	return nil
}
