package app

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	authhttp "github.com/tair/tenant-commerce/internal/auth/delivery/http"
	authdomain "github.com/tair/tenant-commerce/internal/auth/domain"
	authrepo "github.com/tair/tenant-commerce/internal/auth/repository"
	authcommand "github.com/tair/tenant-commerce/internal/auth/usecase/command"
	authquery "github.com/tair/tenant-commerce/internal/auth/usecase/query"
	cataloghttp "github.com/tair/tenant-commerce/internal/catalog/delivery/http"
	catalogdomain "github.com/tair/tenant-commerce/internal/catalog/domain"
	catalogrepo "github.com/tair/tenant-commerce/internal/catalog/repository"
	catalogcommand "github.com/tair/tenant-commerce/internal/catalog/usecase/command"
	catalogquery "github.com/tair/tenant-commerce/internal/catalog/usecase/query"
	"github.com/tair/tenant-commerce/internal/config"
	customerhttp "github.com/tair/tenant-commerce/internal/customer/delivery/http"
	customerdomain "github.com/tair/tenant-commerce/internal/customer/domain"
	customerrepo "github.com/tair/tenant-commerce/internal/customer/repository"
	customercommand "github.com/tair/tenant-commerce/internal/customer/usecase/command"
	"github.com/tair/tenant-commerce/internal/gateway"
	orderhttp "github.com/tair/tenant-commerce/internal/order/delivery/http"
	orderdomain "github.com/tair/tenant-commerce/internal/order/domain"
	orderrepo "github.com/tair/tenant-commerce/internal/order/repository"
	ordercommand "github.com/tair/tenant-commerce/internal/order/usecase/command"
	orderquery "github.com/tair/tenant-commerce/internal/order/usecase/query"
	sitehttp "github.com/tair/tenant-commerce/internal/siteconfig/delivery/http"
	sitedomain "github.com/tair/tenant-commerce/internal/siteconfig/domain"
	siterepo "github.com/tair/tenant-commerce/internal/siteconfig/repository"
	stockhttp "github.com/tair/tenant-commerce/internal/stock/delivery/http"
	"github.com/tair/tenant-commerce/internal/stock/delivery/ws"
	stockdomain "github.com/tair/tenant-commerce/internal/stock/domain"
	stockrepo "github.com/tair/tenant-commerce/internal/stock/repository"
	stockcommand "github.com/tair/tenant-commerce/internal/stock/usecase/command"
	stockquery "github.com/tair/tenant-commerce/internal/stock/usecase/query"
	tenanthttp "github.com/tair/tenant-commerce/internal/tenant/delivery/http"
	tenantdomain "github.com/tair/tenant-commerce/internal/tenant/domain"
	tenantrepo "github.com/tair/tenant-commerce/internal/tenant/repository"
	tenantquery "github.com/tair/tenant-commerce/internal/tenant/usecase/query"
	"github.com/tair/tenant-commerce/kafka"
	"github.com/tair/tenant-commerce/pkg/cache"
	"github.com/tair/tenant-commerce/pkg/database"
	"github.com/tair/tenant-commerce/pkg/mailer"
	"github.com/tair/tenant-commerce/pkg/ratelimit"
	"github.com/tair/tenant-commerce/pkg/session"
	"github.com/tair/tenant-commerce/pkg/viewcount"
)

// EventBus is every domain event the service publishes. Both
// *kafka.Publisher and kafka.NopPublisher satisfy it.
type EventBus interface {
	PublishOrderConfirmed(ctx context.Context, event kafka.OrderConfirmedEvent) error
	PublishCacheInvalidated(ctx context.Context, prefixes []string) error
	PublishStockChanged(ctx context.Context, event kafka.StockChangedEvent) error
}

// Infra holds the connections opened by main. DB is nil in memory mode and
// Redis is nil when disabled or unreachable.
type Infra struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Events EventBus
}

// Stores is one repository per bounded context.
type Stores struct {
	Tenants    tenantdomain.TenantRepository
	Users      authdomain.UserRepository
	Partners   customerdomain.PartnerRepository
	Catalog    catalogdomain.Repository
	Stock      stockdomain.Repository
	Orders     orderdomain.Repository
	SiteConfig sitedomain.Repository
}

// Models lists every gorm model for AutoMigrate.
func Models() []interface{} {
	var out []interface{}
	for _, m := range [][]interface{}{
		tenantrepo.Models(),
		authrepo.Models(),
		customerrepo.Models(),
		catalogrepo.Models(),
		stockrepo.Models(),
		orderrepo.Models(),
		siterepo.Models(),
	} {
		out = append(out, m...)
	}
	return out
}

func ProvideStores(infra *Infra) *Stores {
	if infra.DB == nil {
		return &Stores{
			Tenants:    tenantrepo.NewMemoryTenantRepository(),
			Users:      authrepo.NewMemoryUserRepository(),
			Partners:   customerrepo.NewMemoryPartnerRepository(),
			Catalog:    catalogrepo.NewMemoryCatalogRepository(),
			Stock:      stockrepo.NewMemoryStockRepository(),
			Orders:     orderrepo.NewMemoryOrderRepository(),
			SiteConfig: siterepo.NewMemoryParamRepository(),
		}
	}
	db := infra.DB
	return &Stores{
		Tenants:    tenantrepo.NewGormTenantRepository(db),
		Users:      authrepo.NewGormUserRepository(db),
		Partners:   customerrepo.NewGormPartnerRepository(db),
		Catalog:    catalogrepo.NewTracedCatalogRepository(catalogrepo.NewGormCatalogRepository(db)),
		Stock:      stockrepo.NewTracedStockRepository(stockrepo.NewGormStockRepository(db)),
		Orders:     orderrepo.NewGormOrderRepository(db),
		SiteConfig: siterepo.NewGormParamRepository(db),
	}
}

// ProvideTransactor rolls back the memory stores on failure when running
// without a database.
func ProvideTransactor(infra *Infra, stores *Stores) database.Transactor {
	if infra.DB != nil {
		return database.NewGormTransactor(infra.DB)
	}
	var snap []database.Snapshotter
	for _, s := range []interface{}{
		stores.Tenants, stores.Users, stores.Partners, stores.Catalog,
		stores.Stock, stores.Orders, stores.SiteConfig,
	} {
		if ss, ok := s.(database.Snapshotter); ok {
			snap = append(snap, ss)
		}
	}
	return database.NewMemoryTransactor(snap...)
}

func ProvideEvents(infra *Infra) EventBus {
	if infra.Events == nil {
		return kafka.NopPublisher{}
	}
	return infra.Events
}

func ProvideCache(cfg *config.Config, infra *Infra) (*cache.Service, func(), error) {
	svc, err := cache.New(infra.Redis, cfg.Redis.OpTimeout, cfg.Cache.MemoryMaxCost)
	if err != nil {
		return nil, nil, err
	}
	return svc, svc.Close, nil
}

func ProvideSessions(cfg *config.Config) *session.Manager {
	return session.NewManager(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL)
}

func ProvideHasher(cfg *config.Config) *session.Hasher {
	return session.NewHasher(cfg.Auth.BcryptCost)
}

// ProvideMailer sends through SMTP behind a circuit breaker, or only logs
// when mail is disabled.
func ProvideMailer(cfg *config.Config) mailer.Mailer {
	if !cfg.Mail.Enabled {
		return mailer.LogMailer{}
	}
	smtp := mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	})
	return mailer.NewBreaker(smtp, 5, 30*time.Second)
}

func ProvideLimiter(cfg *config.Config, infra *Infra) *ratelimit.Limiter {
	return ratelimit.NewLimiter(infra.Redis, cfg.Redis.OpTimeout)
}

func ProvideViewLimiter(cfg *config.Config, infra *Infra) *viewcount.Limiter {
	return viewcount.New(infra.Redis, cfg.Redis.OpTimeout)
}

func ProvideOrigins(cfg *config.Config) (*gateway.OriginPolicy, error) {
	return gateway.NewOriginPolicy(cfg.CORS.AllowedOrigins, cfg.CORS.AllowTenantDomains)
}

func ProvideTenantResolver(stores *Stores, c *cache.Service, cfg *config.Config) *tenantquery.FindByDomainHandler {
	return tenantquery.NewFindByDomainHandler(stores.Tenants).WithCache(c, cfg.Cache.ProductListTTL)
}

func ProvideSessionResolver(stores *Stores, sessions *session.Manager) *authquery.ResolveSessionHandler {
	return authquery.NewResolveSessionHandler(stores.Users, sessions)
}

func ProvideGuests(stores *Stores) *customercommand.GuestDirectory {
	return customercommand.NewGuestDirectory(stores.Partners)
}

func ProvideUserCreator(stores *Stores, tx database.Transactor, hasher *session.Hasher,
	guests *customercommand.GuestDirectory) *authcommand.CreateUserHandler {
	return authcommand.NewCreateUserHandler(stores.Users, tx, hasher, guests)
}

// StockServices are the stock use cases other contexts call into.
type StockServices struct {
	Catalog  stockdomain.ProductCatalog
	Mover    *stockcommand.Mover
	Levels   *stockquery.LevelsHandler
	Quants   *stockcommand.QuantHandler
	Delivery *stockcommand.DeliveryHandler
	Reads    *stockquery.ReadHandler
}

func ProvideStockServices(stores *Stores, tx database.Transactor, hub *ws.Hub, events EventBus) *StockServices {
	catalog := newStockCatalog(stores.Catalog)
	locator := stockcommand.NewLocator(stores.Stock)
	mover := stockcommand.NewMover(stores.Stock, hub, events)
	return &StockServices{
		Catalog:  catalog,
		Mover:    mover,
		Levels:   stockquery.NewLevelsHandler(stores.Stock, catalog),
		Quants:   stockcommand.NewQuantHandler(stores.Stock, tx, catalog, locator, mover),
		Delivery: stockcommand.NewDeliveryHandler(stores.Stock, tx, locator, mover),
		Reads:    stockquery.NewReadHandler(stores.Stock),
	}
}

// OrderServices are the order use cases.
type OrderServices struct {
	Carts    *ordercommand.CartHandler
	Checkout *ordercommand.CheckoutHandler
	Orders   *ordercommand.OrderHandler
	Coupons  *ordercommand.CouponHandler
	Reads    *orderquery.OrderQueryHandler
}

func ProvideOrderServices(cfg *config.Config, stores *Stores, tx database.Transactor, stock *StockServices,
	guests *customercommand.GuestDirectory, mail mailer.Mailer, events EventBus) *OrderServices {
	fulfillment := &orderFulfillment{levels: stock.Levels, delivery: stock.Delivery, reads: stock.Reads}
	partners := &orderPartners{guests: guests}
	return &OrderServices{
		Carts:    ordercommand.NewCartHandler(stores.Orders, tx, newOrderPricer(stores.Catalog), partners, mail, cfg.Mail.StorefrontBaseURL),
		Checkout: ordercommand.NewCheckoutHandler(stores.Orders, tx, fulfillment, partners, events),
		Orders:   ordercommand.NewOrderHandler(stores.Orders, tx, fulfillment),
		Coupons:  ordercommand.NewCouponHandler(stores.Orders),
		Reads:    orderquery.NewOrderQueryHandler(stores.Orders, fulfillment),
	}
}

func budget(name string, perMinute int) ratelimit.Budget {
	return ratelimit.Budget{Name: name, Limit: perMinute, Window: time.Minute}
}

// Handlers is every route group served under the API base path.
type Handlers []RouteRegistrar

// RouteRegistrar registers one context's endpoints.
type RouteRegistrar interface {
	RegisterRoutes(r *gateway.Router)
}

func ProvideHandlers(cfg *config.Config, stores *Stores, tx database.Transactor, c *cache.Service,
	views *viewcount.Limiter, hasher *session.Hasher, sessions *session.Manager,
	guests *customercommand.GuestDirectory, creator *authcommand.CreateUserHandler,
	resolver *tenantquery.FindByDomainHandler, stock *StockServices, orders *OrderServices) Handlers {
	products := catalogquery.CachePrefix
	return Handlers{
		authhttp.NewAuthHandler(stores.Users, tx, hasher, sessions, guests),
		tenanthttp.NewTenantHandler(stores.Tenants, tx, authcommand.NewTenantAdminProvisioner(creator),
			resolver, tenantdomain.NewPhoneFormatter("")),
		customerhttp.NewCustomerHandler(stores.Partners),
		cataloghttp.NewCatalogHandler(stores.Catalog, tx, &catalogStock{levels: stock.Levels, quants: stock.Quants},
			c, views, cataloghttp.Options{
				ListTTL:         cfg.Cache.ProductListTTL,
				ReferenceMaxAge: cfg.Cache.ReferenceMaxAge,
				CardImages:      cfg.Catalog.CardImages,
				PTAVImageCap:    cfg.Catalog.PTAVImageCap,
				ListBudget:      budget(ratelimit.ProductList.Name, cfg.RateLimit.ProductListPerMinute),
			}),
		stockhttp.NewStockHandler(stores.Stock, tx, stock.Catalog, stock.Mover, stockhttp.Options{
			LotAlertDays:    cfg.Stock.LotAlertDays,
			ForecastDays:    cfg.Stock.ForecastDays,
			ReferenceMaxAge: cfg.Cache.ReferenceMaxAge,
			Invalidates:     []string{products},
		}),
		orderhttp.NewOrderHandler(stores.Orders, orders.Carts, orders.Checkout, orders.Orders, orders.Coupons, orders.Reads,
			orderhttp.Options{
				CheckoutBudget:  budget(ratelimit.Checkout.Name, cfg.RateLimit.CheckoutPerMinute),
				ShipInvalidates: []string{products},
			}),
		sitehttp.NewSiteConfigHandler(stores.SiteConfig, cfg.Cache.ReferenceMaxAge),
	}
}

// ProvideSeeders installs the reference data every deployment needs.
func ProvideSeeders(cfg *config.Config, stores *Stores, creator *authcommand.CreateUserHandler) []Seeder {
	users := authcommand.NewSeedHandler(stores.Users, creator)
	refs := catalogcommand.NewReferenceHandler(stores.Catalog)
	return []Seeder{
		{Name: "currencies", Run: refs.SeedCurrencies},
		{Name: "admin", Run: func(ctx context.Context) error {
			return users.Handle(ctx, cfg.Auth.AdminLogin, cfg.Auth.AdminPassword)
		}},
	}
}
