package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"TradePilot/internal/domain/repository"
	"TradePilot/internal/handler/api"
	"TradePilot/internal/usecase"
	pkgch "TradePilot/pkg/clickhouse"
	"TradePilot/pkg/config"
	xhttp "TradePilot/pkg/http"
	pkgkafka "TradePilot/pkg/kafka"
	applogger "TradePilot/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	engine     *usecase.Engine
	handler    *api.EngineEchoHandler
	publisher  repository.EventPublisher
	producer   *pkgkafka.Producer
	chClient   *pkgch.Client
	rdb        *redis.Client
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	engine *usecase.Engine,
	handler *api.EngineEchoHandler,
	publisher repository.EventPublisher,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	rdb *redis.Client,
) *App {
	return &App{
		cfg:       cfg,
		logger:    logger,
		engine:    engine,
		handler:   handler,
		publisher: publisher,
		producer:  producer,
		chClient:  chClient,
		rdb:       rdb,
	}
}

// logPublisher adapts the Kafka producer to the log collector's
// publisher interface.
type logPublisher struct {
	producer *pkgkafka.Producer
}

func (p *logPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ship aggregated error logs to Kafka when a log topic is set.
	if a.cfg.Kafka.LogTopic != "" && a.producer != nil {
		a.logger.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          a.cfg.Kafka.LogTopic,
			Publisher:      &logPublisher{producer: a.producer},
		})
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithRequestMetrics(a.logger, time.Second),
	)

	// Start loops for accounts configured to trade at boot.
	for _, accountID := range a.cfg.Trading.Accounts {
		started, err := a.engine.Start(ctx, accountID)
		if err != nil {
			a.logger.Warn("bootstrap account start",
				applogger.String("account", accountID),
				applogger.Error(err),
			)
			continue
		}
		if started {
			a.logger.Info("bootstrap account running", applogger.String("account", accountID))
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("engine up",
		applogger.String("environment", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.Int("accounts", len(a.cfg.Trading.Accounts)),
	)

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	stopCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop account loops first so no new orders go out mid-shutdown.
	a.engine.StopAll(stopCtx)

	if a.httpServer != nil {
		if err := a.httpServer.Stop(stopCtx); err != nil {
			a.logger.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("publisher close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Warn("redis close error", applogger.Error(err))
		}
	}

	a.logger.RemoveCollector()
	a.logger.Info("shutdown complete")
	return nil
}
