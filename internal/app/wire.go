//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"github.com/tair/tenant-commerce/internal/config"
	"github.com/tair/tenant-commerce/internal/stock/delivery/ws"
)

// Wire sets
var InfraSet = wire.NewSet(
	ProvideStores,
	ProvideTransactor,
	ProvideEvents,
	ProvideCache,
	ProvideLimiter,
	ProvideViewLimiter,
	ProvideMailer,
)

var AuthSet = wire.NewSet(
	ProvideSessions,
	ProvideHasher,
	ProvideGuests,
	ProvideUserCreator,
	ProvideSessionResolver,
)

var ServiceSet = wire.NewSet(
	ws.NewHub,
	ProvideTenantResolver,
	ProvideStockServices,
	ProvideOrderServices,
)

var HTTPSet = wire.NewSet(
	ProvideOrigins,
	ProvideHandlers,
	ProvideSeeders,
	NewApplication,
)

// InitializeApplication builds the service over the given connections.
func InitializeApplication(cfg *config.Config, infra *Infra) (*Application, func(), error) {
	wire.Build(
		InfraSet,
		AuthSet,
		ServiceSet,
		HTTPSet,
	)
	return nil, nil, nil
}
