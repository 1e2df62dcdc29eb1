//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"ponydocs/infrastructure/config"

	"github.com/google/wire"
)

// StorageSet opens the configured backend
var StorageSet = wire.NewSet(
	ProvideAWSConfig,
	ProvideStores,
	ProvideCache,
)

// EngineSet builds the documentation engine and its services
var EngineSet = wire.NewSet(
	ProvideDomainConfig,
	ProvideCodec,
	ProvideEventPublisher,
	ProvideEventBus,
	ProvideCatalogService,
	ProvideTOCService,
	ProvideNavigationService,
	ProvideLinkGraphService,
	ProvideDuplicateDetector,
	ProvideRequestResolver,
	ProvideTopicAutoCreator,
	ProvideInvalidationHandler,
	ProvideDocEngine,
)

// ObservabilitySet provides metrics sinks and tracing
var ObservabilitySet = wire.NewSet(
	ProvideMetrics,
	ProvideCloudWatchSink,
	ProvideRecorder,
	ProvideTracer,
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	StorageSet,
	EngineSet,
	ObservabilitySet,
	ProvideCommandBus,
	ProvideQueryBus,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. cleanup closes the
// storage backend and the cache.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
