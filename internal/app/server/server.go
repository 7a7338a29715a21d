package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"gestor/internal/domain/audit"
	"gestor/internal/domain/auth"
	"gestor/internal/domain/contract"
	"gestor/internal/domain/core"
	"gestor/internal/domain/finance"
	"gestor/internal/domain/payroll"
	"gestor/internal/platform/config"
	audithandler "gestor/internal/transport/http/handlers/audit"
	authhandler "gestor/internal/transport/http/handlers/auth"
	contracthandler "gestor/internal/transport/http/handlers/contract"
	corehandler "gestor/internal/transport/http/handlers/core"
	financehandler "gestor/internal/transport/http/handlers/finance"
	payrollhandler "gestor/internal/transport/http/handlers/payroll"
	"gestor/internal/transport/http/middleware"
)

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler
}

// New wires the full application against an already-connected pool.
// Migrations and seeding are the caller's concern.
func New(cfg config.Config, pool *pgxpool.Pool) *App {
	coreStore := core.NewStore(pool)
	coreService := core.NewService(coreStore)
	authStore := auth.NewStore(pool)
	authService := auth.NewService(authStore)
	contractStore := contract.NewStore(pool)
	financeStore := finance.NewStore(pool)
	auditService := audit.New(pool)
	idempotencyStore := middleware.NewIdempotencyStore(pool)

	payrollStore := payroll.NewStore(pool)
	payrollService := payroll.NewService(payrollStore, financeStore, payroll.Rates{
		INSS: cfg.INSSPercent,
		IRRF: cfg.IRRFPercent,
		FGTS: cfg.FGTSPercent,
	})

	isProd := cfg.Environment == "production"

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(isProd))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(authService, cfg.JWTSecret)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)
		r.Post("/auth/refresh", authHandler.HandleRefresh)
		r.Post("/auth/request-reset", authHandler.HandleRequestReset)
		r.Post("/auth/reset", authHandler.HandleResetPassword)

		corehandler.NewHandler(coreService, authService, auditService).RegisterRoutes(r)
		contracthandler.NewHandler(contractStore, authService, auditService).RegisterRoutes(r)
		payrollhandler.NewHandler(payrollService, authService, auditService, idempotencyStore).RegisterRoutes(r)
		financehandler.NewHandler(financeStore, authService, auditService).RegisterRoutes(r)
		audithandler.NewHandler(auditService, authService).RegisterRoutes(r)
	})

	return &App{Config: cfg, DB: pool, Router: router}
}
