package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-form-dispatch/internal/application/dispatch"
	"github.com/go-form-dispatch/internal/application/reminder"
	"github.com/go-form-dispatch/internal/application/settings"
	"github.com/go-form-dispatch/internal/application/verification"
	"github.com/go-form-dispatch/internal/config"
	"github.com/go-form-dispatch/internal/domain"
	jwtinfra "github.com/go-form-dispatch/internal/infrastructure/jwt"
	"github.com/go-form-dispatch/internal/transport/http/handler"
	appmiddleware "github.com/go-form-dispatch/internal/transport/http/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Deps holds the application services the router exposes.
type Deps struct {
	Verification verification.Service
	Dispatch     dispatch.Service
	Reminders    reminder.Service
	Settings     settings.Service
	JWTProvider  *jwtinfra.Provider
	// Done stops background goroutines owned by the router.
	Done <-chan struct{}
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Without a key every admin request fails RequireRole with 401.
	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10, per client IP.
	verifyRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10, cfg.TrustProxyHeaders, deps.Done)

	limit := domain.RateLimit{MaxPerWindow: cfg.Dispatch.MaxPerWindow, Window: cfg.Dispatch.Window}

	healthH := handler.NewHealthHandler()
	verifyH := handler.NewVerificationHandler(deps.Verification, deps.Settings)
	dispatchH := handler.NewDispatchHandler(deps.Dispatch, deps.Settings, limit)
	reminderH := handler.NewReminderHandler(deps.Reminders, deps.Settings, limit)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)

		r.Group(func(r chi.Router) {
			r.Use(verifyRL.Limit)
			r.Post("/verifications", verifyH.Issue)
			r.Post("/verifications/{id}/validate", verifyH.Validate)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMw)
			r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

			r.Post("/dispatch", dispatchH.Send)
			r.Post("/reminders/sweep", reminderH.Sweep)
		})
	})

	return r
}
