package app

import (
	"context"
	"database/sql"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	libredis "tankwatch/backend/libs/redis"
	appconfig "tankwatch/backend/services/ingest-service/internal/config"
	"tankwatch/backend/services/ingest-service/internal/db"
	"tankwatch/backend/services/ingest-service/internal/fuel"
	"tankwatch/backend/services/ingest-service/internal/http"
	"tankwatch/backend/services/ingest-service/internal/http/handlers"
	"tankwatch/backend/services/ingest-service/internal/mqtt"
	"tankwatch/backend/services/ingest-service/internal/notify"
	redisstore "tankwatch/backend/services/ingest-service/internal/redis"
	"tankwatch/backend/services/ingest-service/internal/repository"
	"tankwatch/backend/services/ingest-service/internal/service"
	"tankwatch/backend/services/ingest-service/internal/ws"
)

// App wires dependencies for the ingest service.
type App struct {
	server     *httpserver.Server
	hub        *ws.Hub
	engine     *fuel.Engine
	subscriber *mqtt.Subscriber
	db         *sql.DB
	redis      *goredis.Client
	logger     *zap.Logger
}

// New builds application graph.
func New(cfg *appconfig.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewPostgres(cfg.Database.DSN, cfg.Database.MaxOpenConns)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := db.EnsureSchema(ctx, sqlDB)
		cancel()
		if err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		logger.Info("database schema ensured")
	}

	redisClient, err := libredis.NewRedisClient(libredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	transport, err := newTransport(cfg.Email, logger)
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, err
	}

	tankerRepo := repository.NewTankerRepository(sqlDB)
	weldingRepo := repository.NewWeldingRepository(sqlDB)
	store := service.NewTankerStateStore(tankerRepo, redisstore.NewCounterStore(redisClient, cfg.Redis.CounterTTL), logger)

	hub := ws.NewHub(cfg.WebSocket.PingInterval, logger)
	engine := fuel.NewEngine(fuel.EngineConfig{
		Zone:            cfg.Zone(),
		StableThreshold: cfg.Fuel.StableThreshold,
		EmailRecipient:  cfg.Email.Recipient,
		EmailRetries:    cfg.Email.Retries,
	},
		store,
		notify.NewMailer(transport, cfg.Email.RetryDelay, logger),
		notify.NewGeocoder(cfg.Geocoder.URL, cfg.Geocoder.UserAgent, logger),
		logger,
	)

	tankerSvc := service.NewTankerService(store, engine, cfg.Fuel.WindowSize, logger, hub, redisstore.NewAlertPublisher(redisClient))
	weldingSvc := service.NewWeldingService(weldingRepo, hub, logger)

	routes := httpserver.Routes{
		TankerData:  handlers.NewTankerDataHandler(tankerSvc, logger),
		WeldingData: handlers.NewWeldingDataHandler(weldingSvc, logger),
		Live:        ws.NewServer(hub, cfg.WebSocket.WriteTimeout, cfg.WebSocket.AllowedOrigins, logger).HandleWS,
		Health:      handlers.NewHealthHandler(),
	}

	router := httpserver.NewRouter(routes)
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	var subscriber *mqtt.Subscriber
	if cfg.MQTT.Broker != "" {
		subscriber = mqtt.NewSubscriber(mqtt.Config{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			Topic:    cfg.MQTT.Topic,
		}, tankerSvc, logger)
	}

	return &App{
		server:     server,
		hub:        hub,
		engine:     engine,
		subscriber: subscriber,
		db:         sqlDB,
		redis:      redisClient,
		logger:     logger,
	}, nil
}

func newTransport(cfg appconfig.EmailConfig, logger *zap.Logger) (notify.Transport, error) {
	if cfg.Host == "" {
		logger.Warn("smtp host not configured, alert emails will only be logged")
		return notify.NewLogTransport(logger), nil
	}
	return notify.NewSMTPTransport(notify.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		SSL:      cfg.SSL,
	})
}

// Run serves HTTP, the live hub and the optional MQTT subscriber until context cancellation.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.hub.Start(ctx)
		return nil
	})
	g.Go(func() error {
		return a.server.Run(ctx)
	})
	if a.subscriber != nil {
		g.Go(func() error {
			return a.subscriber.Run(ctx)
		})
	}

	return g.Wait()
}

// Close waits for pending alert notifications and releases acquired resources.
func (a *App) Close() {
	a.engine.Wait()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}
