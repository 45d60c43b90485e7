//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"ARMTS/pkg/config"
	"ARMTS/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(ctx context.Context, cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideRedisCache,
		ProvideSQLiteClient,

		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Data
		ProvideTransactionSource,
		ProvideDataset,
		ProvideStore,

		// Sinks
		ProvideStorages,
		ProvideSnapshot,
		ProvidePublisher,

		// Use cases
		ProvideMinerConfig,
		ProvideMiner,

		// Application server
		ProvideHTTPServer,
		ProvideApp,
	)
	return &server.App{}, nil
}
