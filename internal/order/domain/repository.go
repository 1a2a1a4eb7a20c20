package domain

import (
	"context"
	"time"

	"github.com/tair/tenant-commerce/kafka"
)

// OrderFilter narrows ListOrders. Carts are never listed.
type OrderFilter struct {
	TenantID  uint
	PartnerID *uint
	States    []State
	Limit     int
	Offset    int
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, o *Order) error
	// SaveOrder writes the header and replaces the lines.
	SaveOrder(ctx context.Context, o *Order) error
	FindOrder(ctx context.Context, tenantID, id uint) (*Order, error)
	FindCartByPartner(ctx context.Context, tenantID, partnerID uint) (*Order, error)
	FindCartByToken(ctx context.Context, tenantID uint, token string) (*Order, error)
	FindByRecoveryToken(ctx context.Context, tenantID uint, token string) (*Order, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]Order, int64, error)
}

type ProgramRepository interface {
	CreateProgram(ctx context.Context, p *Program) error
	FindProgram(ctx context.Context, tenantID, id uint) (*Program, error)
	FindProgramByCode(ctx context.Context, tenantID uint, code string) (*Program, error)
	ListPrograms(ctx context.Context, tenantID uint) ([]Program, error)
}

type Repository interface {
	OrderRepository
	ProgramRepository
}

// CatalogVariant is what an order line copies from the catalog.
type CatalogVariant struct {
	VariantID uint
	ProductID uint
	Name      string
	UnitPrice float64
	Stockable bool
}

// VariantPricer prices variants and materializes dynamic ones.
type VariantPricer interface {
	Variant(ctx context.Context, tenantID, variantID uint) (*CatalogVariant, error)
	// EnsureVariant returns the variant of a product for a PTAV combination,
	// creating it when the combination is dynamic.
	EnsureVariant(ctx context.Context, tenantID, productID uint, ptavIDs []uint) (uint, error)
}

// Shipment is a delivery of an order as the stock side reports it.
type Shipment struct {
	ID            uint       `json:"id"`
	Name          string     `json:"name"`
	State         string     `json:"state"`
	ScheduledDate time.Time  `json:"scheduled_date"`
	DateDone      *time.Time `json:"date_done"`
}

// Fulfillment is the stock side of an order.
type Fulfillment interface {
	// Available is on-hand minus quantities promised to open deliveries.
	Available(ctx context.Context, tenantID uint, variantIDs []uint) (map[uint]float64, error)
	Deliver(ctx context.Context, o *Order) (*Shipment, error)
	Ship(ctx context.Context, tenantID, orderID uint) error
	Release(ctx context.Context, tenantID, orderID uint) error
	Shipments(ctx context.Context, tenantID, orderID uint) ([]Shipment, error)
}

// Partners resolves the customer behind an anonymous cart.
type Partners interface {
	// GuestPartner returns the guest partner for email, creating one when
	// needed. It never returns a registered customer.
	GuestPartner(ctx context.Context, tenantID uint, email, name string) (uint, error)
}

type EventPublisher interface {
	PublishOrderConfirmed(ctx context.Context, event kafka.OrderConfirmedEvent) error
}
