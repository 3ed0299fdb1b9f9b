package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"TradePilot/internal/domain/repository"
	"TradePilot/internal/handler/api"
	internalrepo "TradePilot/internal/repository"
	"TradePilot/internal/services/exchange"
	"TradePilot/internal/usecase"
	pkgch "TradePilot/pkg/clickhouse"
	"TradePilot/pkg/config"
	pkgkafka "TradePilot/pkg/kafka"
	applogger "TradePilot/pkg/logger"
	"TradePilot/pkg/metrics"
	"TradePilot/pkg/server"
)

// ProvideLogger creates the application logger. Production gets JSON,
// everything else console output.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "console"
	if cfg.Environment == "production" {
		format = "json"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the
// schema exists.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		"CREATE TABLE IF NOT EXISTS " + db + ".trades (" +
			"id String, account_id String, symbol String, side String, " +
			"size Float64, price Float64, strategy String, confidence Float64, " +
			"order_id String, status String, created_at DateTime" +
			") ENGINE=MergeTree ORDER BY (account_id, created_at)",
		"CREATE TABLE IF NOT EXISTS " + db + ".balance_snapshots (" +
			"account_id String, available Float64, total Float64, frozen Float64, ts DateTime" +
			") ENGINE=MergeTree ORDER BY (account_id, ts)",
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideRedisClient creates the Redis client for account settings.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideTradeStore creates the ClickHouse trade repository.
func ProvideTradeStore(chClient *pkgch.Client, cfg *config.Config) repository.TradeStore {
	db := cfg.ClickHouse.Database
	return internalrepo.NewClickHouseTradeStore(chClient.DB(), db+".trades", db+".balance_snapshots")
}

// ProvideSettingsStore creates the Redis settings repository.
func ProvideSettingsStore(client *redis.Client) repository.SettingsStore {
	return internalrepo.NewRedisSettingsStore(client)
}

// ProvideEventPublisher creates the Kafka trade-event publisher.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.EventPublisher {
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
}

// ProvideExchangeGateway creates the Binance futures gateway.
func ProvideExchangeGateway(cfg *config.Config) repository.ExchangeGateway {
	return exchange.NewBinanceGateway(exchange.Config{
		APIKey:         cfg.Binance.APIKey,
		APISecret:      cfg.Binance.APISecret,
		Testnet:        cfg.Binance.Testnet,
		CandleTTL:      cfg.Binance.CandleCacheTTL,
		ReadsPerSecond: cfg.Binance.ReadsPerSecond,
	})
}

// ProvidePerformanceTracker creates the process-wide pair tracker.
func ProvidePerformanceTracker() *usecase.PerformanceTracker {
	return usecase.NewPerformanceTracker()
}

// ProvidePairSelector creates the pair selector from configured pairs.
func ProvidePairSelector(cfg *config.Config, tracker *usecase.PerformanceTracker) *usecase.PairSelector {
	pairs := make([]usecase.WeightedPair, 0, len(cfg.Trading.Pairs))
	for _, p := range cfg.Trading.Pairs {
		pairs = append(pairs, usecase.WeightedPair{Symbol: p.Symbol, Weight: p.Weight})
	}
	return usecase.NewPairSelector(pairs, tracker)
}

// ProvideEngine creates the trading engine.
func ProvideEngine(
	settings repository.SettingsStore,
	trades repository.TradeStore,
	gateway repository.ExchangeGateway,
	publisher repository.EventPublisher,
	tracker *usecase.PerformanceTracker,
	selector *usecase.PairSelector,
	m repository.Metrics,
	logger *applogger.Logger,
	cfg *config.Config,
) *usecase.Engine {
	return usecase.NewEngine(settings, trades, gateway, publisher, tracker, selector, m, logger, usecase.EngineConfig{
		ConfidenceThreshold: cfg.Engine.ConfidenceThreshold,
		MaxConcurrentTrades: cfg.Engine.MaxConcurrentTrades,
		TickTimeout:         cfg.Engine.TickTimeout,
		CandleLimit:         cfg.Engine.CandleLimit,
		EnsemblePairs:       cfg.Engine.EnsemblePairs,
		EnsembleStrategy:    cfg.Engine.EnsembleStrategy,
		NeutralSuccess:      cfg.Engine.NeutralSuccess,
	})
}

// ProvideEngineHandler creates the admin API handler.
func ProvideEngineHandler(
	logger *applogger.Logger,
	engine *usecase.Engine,
	settings repository.SettingsStore,
	trades repository.TradeStore,
) *api.EngineEchoHandler {
	return api.NewEngineEchoHandler(logger, engine, settings, trades)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	engine *usecase.Engine,
	handler *api.EngineEchoHandler,
	publisher repository.EventPublisher,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	rdb *redis.Client,
) *server.App {
	return server.New(cfg, logger, engine, handler, publisher, producer, chClient, rdb)
}
