package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mohitbudhwar0786/earning-website/controllers"
	"github.com/mohitbudhwar0786/earning-website/controllers/admins"
	"github.com/mohitbudhwar0786/earning-website/middleware"
	"github.com/mohitbudhwar0786/earning-website/utils"
)

// Deps is everything the router wires into handlers.
type Deps struct {
	Ledger  admins.Ledger
	Admins  middleware.AdminLookup
	Expirer controllers.Expirer
	Runner  controllers.SettlementRunner
	Tokens  utils.TokenConfig
	CronKey string

	CORSOrigins    []string
	TrustedProxies []string
	CronRateLimit  int

	Metrics        middleware.HTTPMetrics
	MetricsHandler http.Handler
	Ping           func(ctx context.Context) error
	Log            *zap.Logger
}

// Router is the mux plus the limiters it owns, which must be closed on
// shutdown.
type Router struct {
	*mux.Router
	limiters []*middleware.IPRateLimiter
}

// Close stops the rate limiters' cleanup goroutines.
func (r *Router) Close() {
	for _, l := range r.limiters {
		l.Close()
	}
}

func optionsHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func InitRouter(d Deps) *Router {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	r := mux.NewRouter()
	if d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
	}

	// Health check endpoint for Docker health checks (root level)
	r.Handle("/health", controllers.HealthHandler("earnd", d.Ping)).Methods(http.MethodGet)
	if d.MetricsHandler != nil {
		r.Handle("/metrics", d.MetricsHandler).Methods(http.MethodGet)
	}

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}
	r.Use(handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-CRON-KEY", "X-Requested-With", "X-Request-ID"}),
		handlers.AllowCredentials(),
	))

	api := r.PathPrefix("/v1").Subrouter()

	// Add catch-all OPTIONS handler for CORS preflight
	api.PathPrefix("/").HandlerFunc(optionsHandler).Methods(http.MethodOptions)

	limit := d.CronRateLimit
	if limit <= 0 {
		limit = 10
	}
	cronLimiter := middleware.NewIPRateLimiter(limit, time.Minute, d.TrustedProxies)
	// 5 attempts per IP per minute
	loginLimiter := middleware.NewIPRateLimiter(5, time.Minute, d.TrustedProxies)

	cron := controllers.NewCronController(d.Runner, d.Expirer, d.Log)
	cronAuth := middleware.CronKey(d.CronKey)
	api.Handle("/cron/daily-earnings", cronLimiter.Middleware(cronAuth(http.HandlerFunc(cron.DailyEarnings)))).Methods(http.MethodPost)
	api.Handle("/cron/expired-handlers", cronLimiter.Middleware(cronAuth(http.HandlerFunc(cron.ExpiredHandlers)))).Methods(http.MethodPost)

	SetAdminRoutes(api, admins.NewHandler(d.Ledger, d.Runner, d.Tokens, d.Log), d, loginLimiter)

	return &Router{Router: r, limiters: []*middleware.IPRateLimiter{cronLimiter, loginLimiter}}
}
