package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mohitbudhwar0786/earning-website/controllers/admins"
	"github.com/mohitbudhwar0786/earning-website/middleware"
)

func SetAdminRoutes(api *mux.Router, h *admins.Handler, d Deps, loginLimiter *middleware.IPRateLimiter) {
	// Public admin routes
	api.Handle("/admin/login", loginLimiter.Middleware(http.HandlerFunc(h.Login))).Methods(http.MethodPost)

	// Protected admin routes
	adminRouter := api.PathPrefix("/admin").Subrouter()
	adminRouter.Use(middleware.AdminAuth(d.Tokens, d.Admins))

	// Dashboard
	adminRouter.Handle("/dashboard", http.HandlerFunc(h.GetDashboardStats)).Methods(http.MethodGet)

	// Settlement
	adminRouter.Handle("/settlement/run", http.HandlerFunc(h.RunSettlement)).Methods(http.MethodPost)

	// Investment requests and investments
	adminRouter.Handle("/pending-investments", http.HandlerFunc(h.GetPendingInvestments)).Methods(http.MethodGet)
	adminRouter.Handle("/investments", http.HandlerFunc(h.GetInvestments)).Methods(http.MethodGet)
	adminRouter.Handle("/pending-investments/{id:[0-9]+}/approve", http.HandlerFunc(h.ApproveInvestment)).Methods(http.MethodPost)
	adminRouter.Handle("/pending-investments/{id:[0-9]+}/reject", http.HandlerFunc(h.RejectInvestment)).Methods(http.MethodPost)
	adminRouter.Handle("/investments/{id:[0-9]+}/deactivate", http.HandlerFunc(h.DeactivateInvestment)).Methods(http.MethodPost)

	// Withdrawals
	adminRouter.Handle("/withdrawals", http.HandlerFunc(h.GetWithdrawals)).Methods(http.MethodGet)
	adminRouter.Handle("/withdrawals/{id:[0-9]+}/status", http.HandlerFunc(h.UpdateWithdrawalStatus)).Methods(http.MethodPut)

	// Users
	adminRouter.Handle("/users", http.HandlerFunc(h.GetUsers)).Methods(http.MethodGet)
	adminRouter.Handle("/users/{id:[0-9]+}/dashboard", http.HandlerFunc(h.GetUserDashboard)).Methods(http.MethodGet)
	adminRouter.Handle("/users/{id:[0-9]+}", http.HandlerFunc(h.DeleteUser)).Methods(http.MethodDelete)
}
