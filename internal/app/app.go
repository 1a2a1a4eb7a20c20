// Package app assembles the ecommerce service from its bounded contexts.
package app

import (
	"context"
	"fmt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	authdomain "github.com/tair/tenant-commerce/internal/auth/domain"
	authquery "github.com/tair/tenant-commerce/internal/auth/usecase/query"
	"github.com/tair/tenant-commerce/internal/config"
	"github.com/tair/tenant-commerce/internal/gateway"
	"github.com/tair/tenant-commerce/internal/stock/delivery/ws"
	tenantquery "github.com/tair/tenant-commerce/internal/tenant/usecase/query"
	"github.com/tair/tenant-commerce/pkg/cache"
	"github.com/tair/tenant-commerce/pkg/logger"
	"github.com/tair/tenant-commerce/pkg/ratelimit"
)

// Seeder installs one piece of reference data. Seeders are idempotent.
type Seeder struct {
	Name string
	Run  func(ctx context.Context) error
}

// Application is the wired service: the API listener, the live stock hub
// and the shared cache.
type Application struct {
	Config *config.Config
	API    *fiber.App
	Hub    *ws.Hub
	Cache  *cache.Service
	Health *gateway.HealthChecker

	seeders []Seeder
}

func NewApplication(cfg *config.Config, origins *gateway.OriginPolicy, tenants *tenantquery.FindByDomainHandler,
	sessions *authquery.ResolveSessionHandler, limiter *ratelimit.Limiter, c *cache.Service, events EventBus,
	hub *ws.Hub, handlers Handlers, seeders []Seeder) *Application {
	api := gateway.NewApp(gateway.AppConfig{
		Name:    cfg.Service.Name,
		Tenants: tenants,
		Origins: origins,
	})

	opts := gateway.Options{
		Sessions:   sessions,
		Limiter:    limiter,
		Cache:      c,
		Events:     events,
		CookieName: cfg.Auth.CookieName,
	}
	router := gateway.NewRouter(api.Group(gateway.BasePath), opts)
	for _, h := range handlers {
		h.RegisterRoutes(router)
	}

	feed := gateway.NewRouter(api.Group("/ws"), opts)
	feed.Socket("/stock", gateway.Endpoint{
		Groups: []authdomain.GroupCode{authdomain.GroupStockUser, authdomain.GroupStockManager},
	}, func(conn *websocket.Conn, tenantID uint) {
		hub.Serve(conn, tenantID)
	})

	return &Application{
		Config:  cfg,
		API:     api,
		Hub:     hub,
		Cache:   c,
		Health:  gateway.NewHealthChecker(cfg.Service.Name),
		seeders: seeders,
	}
}

// Seed runs every seeder in order and stops at the first failure.
func (a *Application) Seed(ctx context.Context) error {
	for _, s := range a.seeders {
		if err := s.Run(ctx); err != nil {
			return fmt.Errorf("seed %s: %w", s.Name, err)
		}
		logger.Debug(ctx).Str("seeder", s.Name).Msg("Seeded")
	}
	return nil
}
