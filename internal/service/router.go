package service

import (
	"net/http"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/clubreg/portal/internal/auth"
	"github.com/clubreg/portal/internal/metrics"
	"github.com/clubreg/portal/internal/middleware"
	"github.com/clubreg/portal/internal/rpc"
)

// RouterConfig wires the HTTP surface.
type RouterConfig struct {
	Registration *RegistrationService
	Webhook      http.Handler
	Admin        *AdminHandler
	// StubPay is set only when the stub payment provider is active.
	StubPay     *StubPayHandler
	JWT         *auth.JWTManager
	CORSOrigins []string
}

// NewRouter mounts the Connect service and the REST routes.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept", "Authorization", "Content-Type",
			"Connect-Protocol-Version", "Connect-Timeout-Ms",
		},
		ExposedHeaders:   []string{"Connect-Protocol-Version", "Connect-Timeout-Ms"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	path, handler := rpc.NewRegistrationServiceHandler(cfg.Registration,
		connect.WithInterceptors(
			middleware.OptionalAuth(cfg.JWT),
			middleware.LoggingInterceptor(),
		),
	)
	r.Handle(path+"*", handler)

	r.Method(http.MethodPost, "/webhooks/payments", cfg.Webhook)
	if cfg.StubPay != nil {
		r.Get("/pay/stub", cfg.StubPay.Page)
		r.Post("/pay/stub", cfg.StubPay.Pay)
	}
	r.Mount("/admin", cfg.Admin.Routes(cfg.JWT))

	r.Handle("/metrics", metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		sendData(w, map[string]string{"status": "ok"})
	})
	return r
}
