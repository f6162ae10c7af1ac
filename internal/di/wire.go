//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"FxBias/internal/usecase"
	"FxBias/pkg/config"
	"FxBias/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideCatalog,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideCache,
		ProvideKafkaProducer,

		// Repositories
		ProvideSnapshotRepository,
		ProvideOverrideRepository,
		ProvideEventPublisher,
		ProvideRunLock,

		// Upstream services
		ProvideContentFetcher,
		ProvideReasoner,
		ProvideSeriesFetcher,

		// Use cases
		usecase.NewRiskSentimentAggregator,
		ProvideIndicatorScorer,
		usecase.NewCurrencyAggregator,
		ProvideJobController,
		usecase.NewAnalysisQuery,
		usecase.NewOverrideLedger,

		// Delivery
		ProvideHTTPHandler,
		ProvideHTTPServer,
		ProvideScheduler,
		ProvideTriggerConsumer,
		ProvideApp,
	)
	return nil, nil, nil
}
