package di

import (
	"ponydocs/application/commands/bus"
	querybus "ponydocs/application/queries/bus"
	"ponydocs/application/services"
	"ponydocs/infrastructure/config"
	"ponydocs/infrastructure/persistence/memory"
	"ponydocs/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Stores     *Stores
	EventBus   *memory.EventBus
	Cache      *memory.Cache
	Engine     *services.DocEngine
	Navigation *services.NavigationService
	TOCs       *services.TOCService
	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
	Metrics    *observability.Metrics
	CloudWatch *observability.CloudWatchSink
	Tracer     *observability.Tracer
}
