package di

import (
	"net/http"

	"tripgraph/application/commands/bus"
	"tripgraph/application/ports"
	querybus "tripgraph/application/queries/bus"
	"tripgraph/infrastructure/config"
	"tripgraph/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Repository ports.EventRepository
	Publisher  ports.EventPublisher
	Cache      ports.Cache
	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
	Metrics    *observability.Metrics
	Collector  *observability.Collector
	Tracer     *observability.Tracer
	Handler    http.Handler
}
