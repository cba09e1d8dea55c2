//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"vnmcp/internal/infra/dispatch"
	"vnmcp/internal/infra/query"
)

var CoreInfraSet = wire.NewSet(
	NewLogging,
	NewLogger,
	NewConfig,
	NewMetricsRegistry,
	NewMetrics,
	NewHealthTracker,
)

var CatalogSet = wire.NewSet(
	NewCatalogStore,
	NewQueryEngine,
	wire.Bind(new(dispatch.Querier), new(*query.Engine)),
)

var DispatchSet = wire.NewSet(
	NewDispatcher,
	NewToolDispatcher,
	NewGateway,
)

var AppSet = wire.NewSet(
	CoreInfraSet,
	CatalogSet,
	DispatchSet,
	wire.Struct(new(ApplicationOptions), "*"),
	NewApplication,
)
