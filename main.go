package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"classboard/internal/config"
	"classboard/internal/container"
	"classboard/internal/handler"
	"classboard/internal/middleware"
	"classboard/internal/repository"
	"classboard/pkg/database"
	"classboard/pkg/logger"
	"classboard/pkg/metrics"
	"classboard/pkg/redis"
)

// Resources holds all resources that need cleanup
type Resources struct {
	db          *database.PostgresDB
	redisClient *redis.Client
	server      *http.Server
	log         *logger.Logger
	mu          sync.Mutex
	closed      bool
}

// Cleanup gracefully closes all resources
func (r *Resources) Cleanup(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errors []error

	r.log.Info("Starting graceful shutdown...")

	// Stop accepting requests before the store goes away
	if r.server != nil {
		r.log.Info("Shutting down HTTP server...")
		if err := r.server.Shutdown(ctx); err != nil {
			r.log.WithError(err).Error("Failed to shutdown HTTP server")
			errors = append(errors, fmt.Errorf("HTTP server shutdown: %w", err))
		} else {
			r.log.Info("HTTP server shutdown complete")
		}
	}

	if r.redisClient != nil {
		r.log.Info("Closing Redis connection...")
		if err := r.redisClient.Close(); err != nil {
			r.log.WithError(err).Error("Failed to close Redis connection")
			errors = append(errors, fmt.Errorf("Redis close: %w", err))
		} else {
			r.log.Info("Redis connection closed successfully")
		}
	}

	if r.db != nil {
		r.log.Info("Closing database connection pool...")
		r.db.Close()
		r.log.Info("Database connection pool closed successfully")
	}

	if len(errors) > 0 {
		r.log.WithField("error_count", len(errors)).Error("Cleanup completed with errors")
		return fmt.Errorf("cleanup completed with %d errors: %v", len(errors), errors)
	}

	r.log.Info("Graceful shutdown completed successfully")
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.WithFields(map[string]interface{}{
		"port":          cfg.Port,
		"log_level":     cfg.LogLevel,
		"environment":   cfg.Environment,
		"store_backend": cfg.StoreBackend,
	}).Info("Starting classboard server")

	resources := &Resources{log: log}

	ctx := context.Background()
	repos, err := openStore(ctx, cfg, log, resources)
	if err != nil {
		log.WithError(err).Fatal("Failed to open store")
	}

	m := metrics.New()
	c, err := container.New(cfg, log, repos, m)
	if err != nil {
		log.WithError(err).Fatal("Failed to create container")
	}

	router := setupRouter(c)

	resources.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := resources.Cleanup(cleanupCtx); err != nil {
			log.WithError(err).Error("Cleanup completed with errors")
		}
	}()

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("Server starting on port " + cfg.Port)
		if err := resources.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Server error occurred")
			serverErrChan <- err
		}
	}()

	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErrChan:
		log.WithError(err).Error("Server failed, initiating shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := resources.Cleanup(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown completed with errors")
		os.Exit(1)
	}

	log.Info("Application shutdown complete")
}

// openStore connects the configured backend and registers it for cleanup.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger, res *Resources) (*repository.Repositories, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		res.db = db
		log.Info("Connected to PostgreSQL")
		return repository.NewPostgresRepositories(db), nil
	case config.StoreRedis:
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
		if err != nil {
			return nil, err
		}
		res.redisClient = client
		log.WithField("key_prefix", client.KeyBuilder.GetPrefix()).Info("Connected to Redis")
		return repository.NewRedisRepositories(client), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// setupRouter configures and returns the HTTP router
func setupRouter(c *container.Container) *chi.Mux {
	cfg := c.GetConfig()
	log := c.GetLogger()
	authService := c.GetAuthService()
	svc := c.Services

	r := chi.NewRouter()

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.AllowedOrigins

	r.Use(middleware.CORS(corsConfig, log))
	r.Use(middleware.RequestID(log))
	r.Use(middleware.Metrics(c.GetMetrics()))
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Compress(5))
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	healthHandler := handler.NewHealthHandler(c.GetHealthChecker(), log)
	authHandler := handler.NewAuthHandler(authService, cfg.SessionTokenTTL, log)
	classHandler := handler.NewClassHandler(svc.Sessions, log)
	voteHandler := handler.NewVoteHandler(svc.Votes, log)
	leaderboardHandler := handler.NewLeaderboardHandler(svc.Leaderboards, svc.Exports, log)

	requireAuth := middleware.Auth(authService, log)
	requireAdmin := middleware.RequireAdmin(log)
	voteLimiter := middleware.RateLimit(middleware.NewRateLimiter(cfg.VoteRateLimit, cfg.VoteRateBurst), log)

	r.Get("/health", healthHandler.Check)
	r.Method(http.MethodGet, "/metrics", c.GetMetrics().Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", classHandler.ListCategories)

		r.Route("/auth", func(r chi.Router) {
			r.With(requireAuth).Get("/me", authHandler.Me)
			r.Post("/token", authHandler.IssueToken)
		})

		r.Route("/classes", func(r chi.Router) {
			r.With(middleware.OptionalAuth(authService, log)).Get("/", classHandler.ListClasses)
			r.With(requireAuth, requireAdmin).Post("/", classHandler.CreateClass)

			r.Route("/{classID}", func(r chi.Router) {
				r.Get("/leaderboard", leaderboardHandler.CurrentLeaderboard)
				r.Get("/teams", classHandler.ListTeams)
				r.With(requireAuth, requireAdmin).Post("/teams", classHandler.CreateTeam)

				r.With(middleware.OptionalAuth(authService, log)).Get("/sessions", classHandler.ListSessions)
				r.With(requireAuth, requireAdmin).Post("/sessions", classHandler.CreateSession)

				r.Route("/sessions/{sessionID}", func(r chi.Router) {
					r.Get("/", classHandler.GetSession)
					r.Get("/leaderboard", leaderboardHandler.SessionLeaderboard)

					// Authenticated voters
					r.Group(func(r chi.Router) {
						r.Use(requireAuth)
						r.Get("/votes/me", voteHandler.MyVote)
						r.With(voteLimiter).Post("/votes", voteHandler.SubmitPeerVote)
					})

					// Evaluators and class admins
					r.Group(func(r chi.Router) {
						r.Use(requireAuth, requireAdmin)
						r.Post("/status", classHandler.SetStatus)
						r.With(voteLimiter).Post("/teacher-votes", voteHandler.SubmitTeacherVote)
						r.Get("/export.csv", leaderboardHandler.ExportCSV)
						r.Get("/export.xlsx", leaderboardHandler.ExportXLSX)
					})
				})
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":{"type":"not_found","message":"Endpoint not found"}}`))
	})

	log.Info("Router configured successfully")
	return r
}
