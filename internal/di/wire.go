//go:build wireinject
// +build wireinject

package di

import (
	"tradevision/pkg/config"
	"tradevision/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvidePostgresPool,
		ProvideCache,
		ProvidePublisher,

		// Stores
		ProvideSymbolStore,
		ProvideSignalStore,
		ProvideVerdictStore,
		ProvideStatsStore,

		// Services
		ProvideValidator,
		ProvideGate,
		ProvideSignalCache,

		// Use cases
		ProvideStatsAggregator,
		ProvideIngestor,
		ProvideGenerator,

		// HTTP
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil, nil
}
