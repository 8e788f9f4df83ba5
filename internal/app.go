package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	logger_adapter "storefront-service/internal/adapters/logger"
	postgres_adapter "storefront-service/internal/adapters/postgres"
	rabbitmq_adapter "storefront-service/internal/adapters/rabbitmq"
	redis_adapter "storefront-service/internal/adapters/redis"
	"storefront-service/internal/adapters/rest"
	"storefront-service/internal/adapters/storefront_api"
	"storefront-service/internal/configs"
	"storefront-service/internal/constants"
	"storefront-service/internal/contextkeys"
	"storefront-service/internal/core/port"
	"storefront-service/internal/core/port/usecases_port"
	"storefront-service/internal/core/usecase"
	fluentlogger "storefront-service/pkg/fluent_logger"
	"storefront-service/pkg/postgres"
	"storefront-service/pkg/rabbitmq/rabbitmq_common"
	"storefront-service/pkg/rabbitmq/rabbitmq_producer"
	redisclient "storefront-service/pkg/redis"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	config    *configs.AppConfig
	apiServer *rest.Server

	sessions  *usecase.SessionRegistry
	bootstrap usecases_port.CatalogBootstrapUseCasePort
	visits    *usecase.RecordVisitUseCase

	dbPool       *pgxpool.Pool
	redisClient  *goredis.Client
	rabbitConn   *rabbitmq_common.ConnectionManager
	publisher    *rabbitmq_producer.Publisher
	fluentClient *fluent.Fluent
	logger       port.LoggerPort
}

func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	// --- 1. ИНИЦИАЛИЗАЦИЯ ЛОГГЕРОВ ---
	var activeLoggers []port.LoggerPort

	stdoutLogger := logger_adapter.NewSlogAdapter(logger_adapter.SlogConfig{
		Level:    logger_adapter.ParseLevel(appConfig.StdoutLogger.Level),
		IsJSON:   appConfig.StdoutLogger.IsJSON,
		UseColor: true,
	})
	activeLoggers = append(activeLoggers, stdoutLogger)

	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName,
			Async:     true,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, appConfig.AppName, logger_adapter.ParseLevel(appConfig.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			fluentClient.Close()
			return nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiLoggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	// --- 2. БАЗОВЫЙ ЛОГГЕР ПРИЛОЖЕНИЯ ---
	baseLogger := multiLogger.WithFields(port.Fields{"service_name": appConfig.AppName})
	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	app := &App{
		config:       appConfig,
		fluentClient: fluentClient,
		logger:       appLogger,
	}
	initCtx := contextkeys.ContextWithLogger(context.Background(), baseLogger)

	// --- 3. ВНЕШНИЕ АДАПТЕРЫ ---
	apiClient := storefront_api.NewClient(appConfig.StorefrontAPI.URL, appConfig.StorefrontAPI.Timeout)

	var facets port.FacetCatalogPort = apiClient
	if appConfig.Redis.Enabled {
		app.redisClient, err = redisclient.NewClient(initCtx, redisclient.Config{URL: appConfig.Redis.URL})
		if err != nil {
			// справочники без кэша работают, просто медленнее
			appLogger.Warn("Redis is unavailable, reference cache disabled", port.Fields{"error": err.Error()})
		} else {
			facets = redis_adapter.NewCachedFacetCatalog(apiClient, redis_adapter.NewRedisStore(app.redisClient), appConfig.Redis.TTL)
			appLogger.Info("Reference cache enabled", port.Fields{"ttl": appConfig.Redis.TTL.String()})
		}
	}

	var visitRecorder port.VisitRecorderPort = apiClient
	if appConfig.VisitsTransport == configs.VisitsTransportRabbitMQ {
		visitRecorder, err = app.initVisitPublisher(baseLogger)
		if err != nil {
			app.closeResources()
			return nil, err
		}
	}

	var wishlistRepo port.WishlistRepositoryPort
	if appConfig.Database.URL != "" {
		app.dbPool, err = postgres.NewClient(initCtx, postgres.Config{DatabaseURL: appConfig.Database.URL})
		if err != nil {
			appLogger.Error("Failed to connect to PostgreSQL", err, nil)
			app.closeResources()
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		repo, err := postgres_adapter.NewWishlistRepository(app.dbPool)
		if err != nil {
			app.closeResources()
			return nil, fmt.Errorf("failed to create wishlist repository: %w", err)
		}
		if err := repo.EnsureSchema(initCtx); err != nil {
			appLogger.Error("Failed to prepare wishlist schema", err, nil)
			app.closeResources()
			return nil, fmt.Errorf("failed to prepare wishlist schema: %w", err)
		}
		wishlistRepo = repo
		appLogger.Info("Wishlist storage connected", nil)
	} else {
		appLogger.Warn("DATABASE_URL is empty, wishlist endpoints are disabled", nil)
	}
	appLogger.Info("All persistence and service adapters initialized.", nil)

	// --- 4. USE CASES ---
	app.sessions = usecase.NewSessionRegistry(apiClient, facets, apiClient, usecase.SessionConfig{
		Products: usecase.ProductQueryConfig{
			PageSize:     appConfig.Catalog.ProductsPageSize,
			DefaultOrder: appConfig.Catalog.ProductsDefaultOrder,
			QuietWindow:  appConfig.Catalog.SearchDebounce,
		},
		ReviewsPageSize: appConfig.Catalog.ReviewsPageSize,
	})
	app.bootstrap = usecase.NewCatalogBootstrapUseCase(facets, app.sessions)
	app.visits = usecase.NewRecordVisitUseCase(visitRecorder)
	wishlistUseCase := usecase.NewWishlistUseCase(wishlistRepo)

	// --- 5. REST API ---
	handlers := rest.NewStorefrontHandler(app.sessions, app.visits, wishlistUseCase)
	app.apiServer = rest.NewServer(appConfig.Rest.PORT, handlers, baseLogger, appConfig.Rest.AllowedOrigins)
	appLogger.Info("REST API server configured.", nil)

	return app, nil
}

func (a *App) initVisitPublisher(baseLogger port.LoggerPort) (port.VisitRecorderPort, error) {
	bridge := rabbitmq_adapter.NewPkgLoggerBridge(baseLogger.WithFields(port.Fields{"component": "rabbitmq"}))

	conn, err := rabbitmq_common.NewConnectionManager(rabbitmq_common.Config{URL: a.config.RabbitMQ.URL}, bridge)
	if err != nil {
		a.logger.Error("Failed to connect to RabbitMQ", err, nil)
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	a.rabbitConn = conn

	a.publisher, err = rabbitmq_producer.NewPublisher(rabbitmq_producer.PublisherConfig{
		ExchangeName:    constants.ExchangeStorefrontEvents,
		ExchangeType:    constants.ExchangeTypeTopic,
		Durable:         true,
		DeclareExchange: true,
		Logger:          bridge,
	}, conn)
	if err != nil {
		a.logger.Error("Failed to create visit publisher", err, nil)
		return nil, fmt.Errorf("failed to create visit publisher: %w", err)
	}

	recorder, err := rabbitmq_adapter.NewVisitPublisher(a.publisher)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Visits are published to RabbitMQ", port.Fields{"exchange": constants.ExchangeStorefrontEvents})
	return recorder, nil
}

// Run запускает все компоненты приложения и управляет их жизненным циклом.
func (a *App) Run() error {
	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	defer func() {
		a.logger.Info("Shutdown sequence initiated...", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if a.apiServer != nil {
			if err := a.apiServer.Stop(shutdownCtx); err != nil {
				a.logger.Error("Error during API server shutdown", err, nil)
			}
		}

		a.sessions.CloseAll()
		a.visits.Wait()
		a.logger.Info("Sessions closed and pending visits flushed.", nil)

		a.closeResources()
		a.logger.Info("Application shut down gracefully.", nil)

		if a.fluentClient != nil {
			if err := a.fluentClient.Close(); err != nil {
				// fluent может быть уже недоступен
				fmt.Printf("ERROR: Error closing fluent client: %v\n", err)
			}
		}
	}()

	a.logger.Info("Application is starting...", nil)

	// справочники грузятся в фоне: без них витрина работает на именах-заглушках
	go func() {
		ctx := contextkeys.ContextWithLogger(appCtx, a.logger.WithFields(port.Fields{"task": "catalog_bootstrap"}))
		if err := a.bootstrap.Execute(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn("Catalog bootstrap failed, filter names fall back to ids", port.Fields{"error": err.Error()})
		}
	}()

	serverErrors := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server...", port.Fields{"port": a.config.Rest.PORT})
		if err := a.apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	a.logger.Info("Application running. Waiting for signals or server error...", nil)
	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received OS signal, shutting down...", port.Fields{"signal": receivedSignal.String()})
		return nil
	case err := <-serverErrors:
		a.logger.Error("Server failed to start, shutting down", err, nil)
		return err
	}
}

// closeResources закрывает внешние соединения. Безопасен при частично собранном App.
func (a *App) closeResources() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error("Error closing RabbitMQ publisher", err, nil)
		}
	}
	if a.rabbitConn != nil {
		if err := a.rabbitConn.Close(); err != nil {
			a.logger.Error("Error closing RabbitMQ connection", err, nil)
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("Error closing Redis client", err, nil)
		}
	}
	if a.dbPool != nil {
		a.dbPool.Close()
		a.logger.Info("PostgreSQL pool closed.", nil)
	}
}
