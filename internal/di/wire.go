//go:build wireinject
// +build wireinject

package di

import (
	"GrowthSim/pkg/config"
	"GrowthSim/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideCacheService,

		// Repositories
		ProvideSnapshotStore,
		ProvidePublisher,
		ProvideReportCache,
		ProvideObservationSource,

		// Streaming
		ProvideHub,
		ProvideBroadcaster,

		// Simulation services
		ProvideRegistry,
		ProvideTracker,
		ProvideEngine,
		ProvideConstructor,

		// Use cases
		ProvideSimulator,

		// HTTP surface
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
