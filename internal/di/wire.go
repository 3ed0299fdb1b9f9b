//go:build wireinject
// +build wireinject

package di

import (
	"TradePilot/pkg/config"
	"TradePilot/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideRedisClient,
		ProvideKafkaProducer,

		// Repositories
		ProvideTradeStore,
		ProvideSettingsStore,
		ProvideEventPublisher,
		ProvideExchangeGateway,

		// Use cases
		ProvidePerformanceTracker,
		ProvidePairSelector,
		ProvideEngine,

		// HTTP
		ProvideEngineHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
