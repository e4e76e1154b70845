package app

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	appconfig "tankwatch/backend/services/dashboard-service/internal/config"
	"tankwatch/backend/services/dashboard-service/internal/db"
	"tankwatch/backend/services/dashboard-service/internal/http"
	"tankwatch/backend/services/dashboard-service/internal/http/handlers"
	"tankwatch/backend/services/dashboard-service/internal/http/middleware"
	"tankwatch/backend/services/dashboard-service/internal/password"
	"tankwatch/backend/services/dashboard-service/internal/repository"
	"tankwatch/backend/services/dashboard-service/internal/service"
)

// App wires dependencies for the dashboard service.
type App struct {
	server *httpserver.Server
	db     *sql.DB
	logger *zap.Logger
}

// New builds application graph.
func New(cfg *appconfig.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	repo := repository.NewWeldingRepository(sqlDB)
	tokenSvc := service.NewTokenService(cfg.JWT.Secret, cfg.JWTExpiration())
	authSvc := service.NewAuthService(cfg.Admin.Email, cfg.Admin.PasswordHash, password.NewBcryptHasher(0), tokenSvc, logger)
	dashboard := handlers.NewDashboardHandler(service.NewDashboardService(repo), logger)

	routes := httpserver.Routes{
		Login:        handlers.NewLoginHandler(authSvc, cfg.HTTP.SecureCookie, logger),
		Devices:      dashboard.Devices,
		Widgets:      dashboard.Widgets,
		Records:      dashboard.Records,
		AdminPanel:   dashboard.AdminPanel,
		UpdateDevice: dashboard.UpdateDevice,
		Health:       handlers.NewHealthHandler(sqlDB, logger),
	}

	router := httpserver.NewRouter(routes, httpserver.Options{
		Auth:           middleware.AuthMiddleware(tokenSvc),
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Logger:         logger,
	})
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server: server,
		db:     sqlDB,
		logger: logger,
	}, nil
}

// Run starts serving HTTP traffic until context cancellation.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases acquired resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}
