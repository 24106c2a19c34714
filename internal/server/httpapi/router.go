package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/helpdesk/internal/logging"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterConfig wires the router. Metrics, MetricsHandler and Logger are optional.
type RouterConfig struct {
	Handler        *Handler
	SecretKey      []byte
	Metrics        Recorder
	MetricsHandler http.Handler
	Logger         logging.Logger
}

// NewRouter mounts the account routes at the root and under /api/auth.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(clientAddress)
	r.Use(instrument(cfg.Logger, cfg.Metrics))
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", cfg.Handler.Health)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	accountRoutes := func(r chi.Router) {
		r.Post("/register", cfg.Handler.Register)
		r.Get("/verify-email/{token}", cfg.Handler.VerifyEmail)
		r.Post("/verify-otp", cfg.Handler.VerifyOTP)
		r.Post("/resend-otp", cfg.Handler.ResendOTP)
		r.Post("/login", cfg.Handler.Login)
		r.With(RequireSession(cfg.SecretKey)).Get("/me", cfg.Handler.Me)
	}

	r.Group(accountRoutes)
	r.Route("/api/auth", accountRoutes)

	return r
}
