package container

import (
	"fmt"

	"classboard/internal/config"
	"classboard/internal/repository"
	"classboard/internal/service"
	"classboard/internal/service/auth"
	"classboard/pkg/logger"
	"classboard/pkg/metrics"
)

// Services groups the application services
type Services struct {
	Auth         *auth.Service
	Sessions     *service.SessionService
	Votes        *service.VoteService
	Scores       *service.ScoreService
	Leaderboards *service.LeaderboardService
	Exports      *service.ExportService
}

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *logger.Logger
	Metrics      *metrics.Metrics
	Repositories *repository.Repositories
	Services     *Services
}

// New wires the services on top of an already opened store. The caller owns
// the store connection and closes it.
func New(cfg *config.Config, logger *logger.Logger, repos *repository.Repositories, m *metrics.Metrics) (*Container, error) {
	if repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}

	pool, err := config.LoadCategoryPool(cfg.CategoriesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load category pool: %w", err)
	}
	logger.WithField("categories", len(pool.Categories)).Info("Category pool loaded")

	zl := logger.Logger
	sessions := service.NewSessionService(repos, pool, zl)
	scores := service.NewScoreService(repos.Votes, m, zl)

	services := &Services{
		Auth: auth.NewService(
			cfg.JWTSecret,
			cfg.GoogleClientID,
			auth.NewAccessPolicy(cfg.AllowedEmailDomain, cfg.AdminEmails),
			logger,
		),
		Sessions:     sessions,
		Votes:        service.NewVoteService(repos.Sessions, repos.Votes, m, zl),
		Scores:       scores,
		Leaderboards: service.NewLeaderboardService(sessions, scores, repos.Teams, cfg.LeaderboardRefresh, m, zl),
		Exports:      service.NewExportService(sessions, scores, repos.Teams, zl),
	}

	if cfg.GoogleClientID == "" {
		logger.Warn("GOOGLE_CLIENT_ID not configured, Google sign-in disabled")
	}
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not configured, session tokens disabled")
	}

	return &Container{
		Config:       cfg,
		Logger:       logger,
		Metrics:      m,
		Repositories: repos,
		Services:     services,
	}, nil
}

// GetAuthService returns the auth service
func (c *Container) GetAuthService() *auth.Service {
	return c.Services.Auth
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetMetrics returns the metrics registry wrapper
func (c *Container) GetMetrics() *metrics.Metrics {
	return c.Metrics
}

// GetHealthChecker returns the store health checker
func (c *Container) GetHealthChecker() repository.HealthChecker {
	return c.Repositories.Health
}
