package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/clubreg/portal/internal/auth"
	"github.com/clubreg/portal/internal/checkout"
	"github.com/clubreg/portal/internal/config"
	"github.com/clubreg/portal/internal/notify"
	"github.com/clubreg/portal/internal/payments"
	"github.com/clubreg/portal/internal/payments/stripe"
	"github.com/clubreg/portal/internal/payments/stub"
	"github.com/clubreg/portal/internal/reconcile"
	"github.com/clubreg/portal/internal/service"
	"github.com/clubreg/portal/internal/storage/sqlite"
	"github.com/clubreg/portal/pkg/logging"
)

const (
	sweepInterval   = time.Minute
	shutdownTimeout = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Configuration loaded", "config", cfg)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		slog.Error("Failed to create data directory", "error", err)
		os.Exit(1)
	}
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ClubsFile != "" {
		if err := seedClubs(ctx, store, cfg.ClubsFile); err != nil {
			slog.Error("Failed to seed clubs", "file", cfg.ClubsFile, "error", err)
			os.Exit(1)
		}
	}

	baseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	var provider payments.Provider
	var stubProvider *stub.Provider
	switch cfg.PaymentProvider {
	case "stripe":
		provider = stripe.New(cfg.StripeSecretKey, cfg.PaymentWebhookSecret)
	default:
		stubProvider = stub.New(cfg.PaymentWebhookSecret, baseURL+"/pay/stub")
		provider = stubProvider
	}
	slog.Info("Payment provider ready", "provider", provider.Name())

	mailer, alerter := notifiers(cfg)
	throttled := notify.NewThrottled(mailer, alerter, cfg.NotifyInterval, cfg.NotifyBurst)

	checkoutSvc := checkout.NewService(store, provider, checkout.Options{
		SuccessURL: baseURL + "/registration/success",
		CancelURL:  baseURL + "/registration/review",
		Currency:   cfg.Currency,
	})
	reconciler := reconcile.New(store, throttled, throttled, reconcile.Options{BaseURL: baseURL})

	sessions := service.NewSessions(cfg.SessionTTL)
	go sessions.Run(ctx, sweepInterval)

	routes := service.RouterConfig{
		Registration: service.NewRegistrationService(store, checkoutSvc, sessions, service.RegistrationOptions{
			AutosaveDelay: cfg.AutosaveDelay,
		}),
		Webhook:     service.NewWebhookHandler(provider, reconciler),
		Admin:       service.NewAdminHandler(store),
		JWT:         auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTokenTTL),
		CORSOrigins: cfg.CORSOrigins,
	}
	if stubProvider != nil {
		routes.StubPay = service.NewStubPayHandler(stubProvider, baseURL+"/webhooks/payments")
	}

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h2c.NewHandler(service.NewRouter(routes), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server starting", "address", cfg.HTTPAddr, "url", baseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
	// Save drafts still waiting on the debounce before the store closes.
	sessions.CloseAll()
}

// notifiers picks real senders when credentials are configured and logging
// stand-ins otherwise.
func notifiers(cfg *config.Config) (notify.Mailer, notify.Alerter) {
	var mailer notify.Mailer = notify.LogMailer{}
	if cfg.ResendAPIKey != "" {
		mailer = notify.NewResendMailer(cfg.ResendAPIKey, cfg.EmailFrom)
	}

	var alerter notify.Alerter = notify.LogAlerter{}
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegramAlerter(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			slog.Warn("Telegram alerts disabled", "error", err)
		} else {
			alerter = tg
		}
	}
	return mailer, alerter
}

func seedClubs(ctx context.Context, store *sqlite.SQLiteStore, path string) error {
	seed, err := config.LoadSeed(path)
	if err != nil {
		return err
	}
	bySlug := make(map[string]string, len(seed.Clubs))
	for i := range seed.Clubs {
		club := &seed.Clubs[i]
		if err := store.UpsertClub(ctx, club); err != nil {
			return err
		}
		bySlug[club.Slug] = club.ID
	}
	for _, a := range seed.Admins {
		clubID, ok := bySlug[a.ClubSlug]
		if !ok {
			club, err := store.GetClubBySlug(ctx, a.ClubSlug)
			if err != nil {
				return err
			}
			clubID = club.ID
		}
		if err := store.UpsertClubAdmin(ctx, a.Admin(clubID)); err != nil {
			return err
		}
	}
	slog.Info("Clubs seeded", "clubs", len(seed.Clubs), "admins", len(seed.Admins))
	return nil
}
