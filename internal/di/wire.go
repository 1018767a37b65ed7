//go:build wireinject
// +build wireinject

package di

import (
	"DemandCast/pkg/config"
	"DemandCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideCache,
		ProvideRunPublisher,

		// Repositories
		ProvideHistoryReader,
		ProvideForecastStore,

		// Use cases
		ProvideSeriesProvider,
		ProvideEntityRunner,
		ProvideForecastRunUseCase,

		// HTTP
		ProvideHTTPHandler,

		// Application
		ProvideApp,
	)
	return &server.App{}, nil
}
