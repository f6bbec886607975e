package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/coinly/coinly-api/internal/config"
	"github.com/coinly/coinly-api/internal/domain/feature"
	"github.com/coinly/coinly-api/internal/domain/payment"
	"github.com/coinly/coinly-api/internal/domain/wallet"
	"github.com/coinly/coinly-api/internal/middleware"
	"github.com/coinly/coinly-api/internal/pkg/database"
	"github.com/coinly/coinly-api/internal/pkg/jwt"
	"github.com/coinly/coinly-api/internal/pkg/logger"
	"github.com/coinly/coinly-api/internal/pkg/razorpay"
	"github.com/coinly/coinly-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Coinly API")

	db, err := database.NewPostgres(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	redisClient, err := database.NewRedis(cfg.RedisURL, cfg.RedisPoolSize, cfg.RedisMinIdleConns)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redisClient)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	gateway := razorpay.NewClient(razorpay.Config{
		KeyID:         cfg.RazorpayKeyID,
		KeySecret:     cfg.RazorpayKeySecret,
		WebhookSecret: cfg.RazorpayWebhookSecret,
		BaseURL:       cfg.RazorpayBaseURL,
		Timeout:       cfg.RazorpayTimeout,
	})

	// ---------- Repositories ----------
	walletRepo := wallet.NewRepository(db)
	paymentRepo := payment.NewRepository(db)
	featureRepo := feature.NewRepository(db)

	// ---------- Services ----------
	walletService := wallet.NewService(walletRepo)
	rateStore := payment.NewRateStore(db, redisClient, cfg.CoinsPerUnitCenti)
	activityLogger := payment.NewActivityLogger(db)
	paymentService := payment.NewService(paymentRepo, walletService, gateway, rateStore, activityLogger, payment.Config{
		Currency:           cfg.Currency,
		MinAmountMinor:     cfg.MinOrderMinor,
		MaxAmountMinor:     cfg.MaxOrderMinor,
		OrderExpiry:        cfg.OrderExpiry,
		KeySecret:          cfg.RazorpayKeySecret,
		WebhookSecret:      cfg.RazorpayWebhookSecret,
		MinRedemptionCoins: cfg.MinRedemptionCoins,
	})
	featureService := feature.NewService(featureRepo, walletService, redisClient)

	// ---------- Handlers ----------
	walletHandler := wallet.NewHandler(walletService)
	paymentHandler := payment.NewHandler(paymentService)
	featureHandler := feature.NewHandler(featureService)

	authMiddleware := middleware.Auth(jwtService)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	r.Use(chimw.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			response.OK(w, map[string]string{"message": "pong"})
		})

		r.Mount("/payments", paymentHandler.Routes(authMiddleware))
		r.Mount("/payments/wallet", walletHandler.Routes(authMiddleware))
		r.Mount("/features", featureHandler.Routes(authMiddleware))
		r.Mount("/admin/payments", paymentHandler.AdminRoutes(authMiddleware))
	})

	// The gateway posts here; signature over the raw body is the only
	// credential, so no auth middleware.
	r.Mount("/webhooks/razorpay", paymentHandler.WebhookRoutes())

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
