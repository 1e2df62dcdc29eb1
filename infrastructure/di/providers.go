package di

import (
	"context"
	"fmt"

	"ponydocs/application/commands"
	"ponydocs/application/commands/bus"
	cmdhandlers "ponydocs/application/commands/handlers"
	"ponydocs/application/ports"
	"ponydocs/application/queries"
	querybus "ponydocs/application/queries/bus"
	queryhandlers "ponydocs/application/queries/handlers"
	"ponydocs/application/services"
	domainconfig "ponydocs/domain/config"
	"ponydocs/domain/core/valueobjects"
	"ponydocs/infrastructure/config"
	"ponydocs/infrastructure/messaging/eventbridge"
	"ponydocs/infrastructure/persistence/badger"
	"ponydocs/infrastructure/persistence/dynamodb"
	"ponydocs/infrastructure/persistence/memory"
	"ponydocs/infrastructure/persistence/resilient"
	"ponydocs/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
		}
		zcfg.Level = level
	}

	return zcfg.Build(zap.Fields(zap.String("environment", cfg.Environment)))
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDomainConfig derives the engine's naming conventions
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return cfg.Domain()
}

// ProvideCodec creates the identifier codec
func ProvideCodec(dc *domainconfig.DomainConfig) *valueobjects.Codec {
	return valueobjects.NewCodec(dc)
}

// Stores groups the persistence ports of the configured backend
type Stores struct {
	Backend string
	Pages   ports.PageStore
	Tags    ports.TagIndex
	Edges   ports.EdgeStore
	Locker  ports.Locker
	Guard   *resilient.Guard
}

// ProvideStores opens the backend named by STORAGE_BACKEND. Every store
// call goes through one circuit breaker bounded by STORE_TIMEOUT.
func ProvideStores(cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) (*Stores, func(), error) {
	guard := resilient.NewGuard(resilient.DefaultSettings("store-"+cfg.StorageBackend, cfg.StoreTimeout), logger)

	var (
		pages   ports.PageStore
		tags    ports.TagIndex
		edges   ports.EdgeStore
		locker  ports.Locker
		cleanup = func() {}
	)

	switch cfg.StorageBackend {
	case config.StorageDynamoDB:
		client := awsdynamodb.NewFromConfig(awsCfg)
		pages = dynamodb.NewPageStore(client, cfg.DynamoDBTable, logger)
		tags = dynamodb.NewTagIndex(client, cfg.DynamoDBTable, logger)
		edges = dynamodb.NewEdgeStore(client, cfg.DynamoDBTable, cfg.EdgeIndexName, logger)
		locker = dynamodb.NewDistributedLock(client, cfg.DynamoDBTable, logger)

	case config.StorageBadger:
		db, err := badger.Open(badger.Config{Path: cfg.BadgerPath, SyncWrites: cfg.IsProduction()}, logger)
		if err != nil {
			return nil, nil, err
		}
		pages = badger.NewPageStore(db)
		tags = badger.NewTagIndex(db)
		edges = badger.NewEdgeStore(db)
		locker = memory.NewKeyedLocker()
		cleanup = func() {
			if err := db.Close(); err != nil {
				logger.Error("Failed to close badger database", zap.Error(err))
			}
		}

	case config.StorageMemory:
		pages = memory.NewPageStore()
		tags = memory.NewTagIndex()
		edges = memory.NewEdgeStore()
		locker = memory.NewKeyedLocker()

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	logger.Info("Storage backend ready",
		zap.String("backend", cfg.StorageBackend),
		zap.Duration("timeout", cfg.StoreTimeout),
	)

	return &Stores{
		Backend: cfg.StorageBackend,
		Pages:   resilient.NewPageStore(pages, guard),
		Tags:    resilient.NewTagIndex(tags, guard),
		Edges:   resilient.NewEdgeStore(edges, guard),
		Locker:  locker,
		Guard:   guard,
	}, cleanup, nil
}

// ProvideEventPublisher returns the EventBridge forwarder, or nil when no
// bus is configured
func ProvideEventPublisher(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" {
		return nil
	}
	return eventbridge.NewPublisher(awseventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger)
}

// ProvideEventBus creates the in-process event bus
func ProvideEventBus(forward ports.EventPublisher, logger *zap.Logger) *memory.EventBus {
	return memory.NewEventBus(forward, logger)
}

// ProvideCache creates the navigation and TOC cache
func ProvideCache() (*memory.Cache, func()) {
	cache := memory.NewCache()
	return cache, cache.Close
}

// ProvideMetrics creates the Prometheus collectors
func ProvideMetrics() *observability.Metrics {
	return observability.NewMetrics("ponydocs")
}

// ProvideCloudWatchSink creates the CloudWatch sink outside development,
// nil otherwise
func ProvideCloudWatchSink(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) *observability.CloudWatchSink {
	if !cfg.EnableMetrics || cfg.IsDevelopment() {
		return nil
	}
	return observability.NewCloudWatchSink(awscloudwatch.NewFromConfig(awsCfg), "PonyDocs/"+cfg.Environment, logger)
}

// ProvideRecorder fans engine counters out to every active sink
func ProvideRecorder(metrics *observability.Metrics, sink *observability.CloudWatchSink) ports.MetricsRecorder {
	recorders := observability.Fanout{metrics}
	if sink != nil {
		recorders = append(recorders, sink)
	}
	return recorders
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer("ponydocs", cfg.EnableTracing)
}

// ProvideCatalogService creates the version and manual catalog
func ProvideCatalogService(stores *Stores, codec *valueobjects.Codec, logger *zap.Logger) *services.CatalogService {
	return services.NewCatalogService(stores.Pages, codec, logger)
}

// ProvideTOCService creates the TOC service
func ProvideTOCService(stores *Stores, cache *memory.Cache, codec *valueobjects.Codec, cfg *config.Config, metrics ports.MetricsRecorder, logger *zap.Logger) *services.TOCService {
	return services.NewTOCService(stores.Pages, stores.Tags, cache, codec, cfg.TOCCacheTTL, metrics, logger)
}

// ProvideNavigationService creates the navigation service
func ProvideNavigationService(catalog *services.CatalogService, tocs *services.TOCService, cache *memory.Cache, codec *valueobjects.Codec, cfg *config.Config, metrics ports.MetricsRecorder, logger *zap.Logger) *services.NavigationService {
	return services.NewNavigationService(catalog, tocs, cache, codec, cfg.NavCacheTTL, metrics, logger)
}

// ProvideLinkGraphService creates the link graph service
func ProvideLinkGraphService(stores *Stores, codec *valueobjects.Codec, cfg *config.Config, metrics ports.MetricsRecorder, logger *zap.Logger) *services.LinkGraphService {
	return services.NewLinkGraphService(stores.Edges, stores.Locker, codec, cfg.LockTTL, metrics, logger)
}

// ProvideDuplicateDetector creates the version conflict detector
func ProvideDuplicateDetector(catalog *services.CatalogService, stores *Stores, codec *valueobjects.Codec, cfg *config.Config, logger *zap.Logger) *services.DuplicateDetector {
	return services.NewDuplicateDetector(catalog, stores.Tags, stores.Locker, codec, cfg.LockTTL, logger)
}

// ProvideRequestResolver creates the request resolver
func ProvideRequestResolver(catalog *services.CatalogService, tocs *services.TOCService, stores *Stores, codec *valueobjects.Codec, dc *domainconfig.DomainConfig, metrics ports.MetricsRecorder, logger *zap.Logger) *services.RequestResolver {
	return services.NewRequestResolver(catalog, tocs, stores.Tags, codec, dc, metrics, logger)
}

// ProvideTopicAutoCreator creates the topic auto-creator
func ProvideTopicAutoCreator(catalog *services.CatalogService, stores *Stores, codec *valueobjects.Codec, logger *zap.Logger) *services.TopicAutoCreator {
	return services.NewTopicAutoCreator(catalog, stores.Pages, stores.Tags, codec, logger)
}

// ProvideInvalidationHandler subscribes cache invalidation to the event bus
func ProvideInvalidationHandler(catalog *services.CatalogService, navs *services.NavigationService, tocs *services.TOCService, eventBus *memory.EventBus, logger *zap.Logger) (*services.InvalidationHandler, error) {
	h := services.NewInvalidationHandler(catalog, navs, tocs, logger)
	if err := h.Register(eventBus); err != nil {
		return nil, err
	}
	return h, nil
}

// ProvideDocEngine assembles the engine facade. The invalidation handler
// is taken so subscriptions exist before the first write.
func ProvideDocEngine(
	stores *Stores,
	eventBus *memory.EventBus,
	catalog *services.CatalogService,
	links *services.LinkGraphService,
	tocs *services.TOCService,
	navs *services.NavigationService,
	detector *services.DuplicateDetector,
	resolver *services.RequestResolver,
	creator *services.TopicAutoCreator,
	_ *services.InvalidationHandler,
	codec *valueobjects.Codec,
	dc *domainconfig.DomainConfig,
	metrics ports.MetricsRecorder,
	logger *zap.Logger,
) *services.DocEngine {
	return services.NewDocEngine(
		stores.Pages,
		stores.Tags,
		eventBus,
		catalog,
		links,
		tocs,
		navs,
		detector,
		resolver,
		creator,
		codec,
		dc,
		metrics,
		logger,
	)
}

// ProvideCommandBus creates and configures the command bus
func ProvideCommandBus(engine *services.DocEngine, tracer *observability.Tracer, logger *zap.Logger) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(
		bus.LoggingMiddleware(logger),
		bus.TracingMiddleware(tracer),
	)

	h := cmdhandlers.NewPageCommandHandler(engine, logger)

	if err := commandBus.Register(commands.SavePageCommand{}, bus.Handle(h.HandleSave)); err != nil {
		return nil, fmt.Errorf("failed to register SavePageCommand handler: %w", err)
	}
	if err := commandBus.Register(commands.DeletePageCommand{}, bus.Handle(h.HandleDelete)); err != nil {
		return nil, fmt.Errorf("failed to register DeletePageCommand handler: %w", err)
	}
	if err := commandBus.Register(commands.RemoveVersionTagsCommand{}, bus.Handle(h.HandleRemoveTags)); err != nil {
		return nil, fmt.Errorf("failed to register RemoveVersionTagsCommand handler: %w", err)
	}

	return commandBus, nil
}

// ProvideQueryBus creates and configures the query bus
func ProvideQueryBus(engine *services.DocEngine, metrics *observability.Metrics, logger *zap.Logger) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(metrics)

	h := queryhandlers.NewDocQueryHandler(engine, logger)

	registrations := []struct {
		query   querybus.Query
		handler querybus.QueryHandler
	}{
		{queries.ResolveRequestQuery{}, querybus.Handle(h.HandleResolve)},
		{queries.GetNavigationQuery{}, querybus.Handle(h.HandleNavigation)},
		{queries.GetTOCQuery{}, querybus.Handle(h.HandleTOC)},
		{queries.TranslateLinkQuery{}, querybus.Handle(h.HandleTranslate)},
		{queries.BacklinksQuery{}, querybus.Handle(h.HandleBacklinks)},
		{queries.ListProductsQuery{}, querybus.Handle(h.HandleProducts)},
		{queries.ListVersionsQuery{}, querybus.Handle(h.HandleVersions)},
	}
	for _, r := range registrations {
		if err := queryBus.Register(r.query, r.handler); err != nil {
			return nil, fmt.Errorf("failed to register %T handler: %w", r.query, err)
		}
	}

	return queryBus, nil
}

// WatchConfig hot-reloads the cache TTLs from the overlay file. It returns
// nil when no overlay is configured.
func WatchConfig(c *Container) (*config.ConfigWatcher, error) {
	if c.Config.ConfigFile == "" {
		return nil, nil
	}

	watcher, err := config.NewConfigWatcher(c.Config.ConfigFile, c.Logger)
	if err != nil {
		return nil, err
	}
	watcher.OnChange(func(o *config.Overlay) {
		if o.NavCacheTTL > 0 {
			c.Navigation.SetTTL(o.NavCacheTTL)
		}
		if o.TOCCacheTTL > 0 {
			c.TOCs.SetTTL(o.TOCCacheTTL)
		}
	})
	watcher.Start()
	return watcher, nil
}
