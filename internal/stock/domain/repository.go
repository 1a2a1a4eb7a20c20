package domain

import "context"

type LocationRepository interface {
	CreateLocation(ctx context.Context, l *Location) error
	UpdateLocation(ctx context.Context, l *Location) error
	FindLocation(ctx context.Context, tenantID, id uint) (*Location, error)
	ListLocations(ctx context.Context, tenantID uint, includeArchived bool) ([]Location, error)

	CreateWarehouse(ctx context.Context, w *Warehouse) error
	UpdateWarehouse(ctx context.Context, w *Warehouse) error
	FindWarehouse(ctx context.Context, tenantID, id uint) (*Warehouse, error)
	ListWarehouses(ctx context.Context, tenantID uint) ([]Warehouse, error)

	CreatePickingType(ctx context.Context, pt *PickingType) error
	ListPickingTypes(ctx context.Context, tenantID uint) ([]PickingType, error)
	// NextPickingNumber increments and returns the type's sequence.
	NextPickingNumber(ctx context.Context, pickingTypeID uint) (int, error)
}

type QuantRepository interface {
	ListQuants(ctx context.Context, f QuantFilter) ([]Quant, error)
	// LockQuant returns the quant row locked for update, creating an
	// empty one when absent.
	LockQuant(ctx context.Context, tenantID, variantID, locationID uint, lotID *uint) (*Quant, error)
	SaveQuant(ctx context.Context, q *Quant) error

	CreateMove(ctx context.Context, m *Move) error
	UpdateMove(ctx context.Context, m *Move) error
	ListMoves(ctx context.Context, f MoveFilter) ([]Move, error)

	CreatePicking(ctx context.Context, p *Picking) error
	UpdatePicking(ctx context.Context, p *Picking) error
	ListPickings(ctx context.Context, tenantID uint, orderID uint) ([]Picking, error)
	// CountActivePickings counts unfinished pickings touching a location.
	CountActivePickings(ctx context.Context, locationID uint) (int64, error)
}

type PlanningRepository interface {
	CreateLot(ctx context.Context, l *Lot) error
	ListLots(ctx context.Context, tenantID uint, variantIDs []uint) ([]Lot, error)

	CreateRule(ctx context.Context, r *ReorderingRule) error
	UpdateRule(ctx context.Context, r *ReorderingRule) error
	FindRule(ctx context.Context, tenantID, id uint) (*ReorderingRule, error)
	ListRules(ctx context.Context, tenantID uint, activeOnly bool) ([]ReorderingRule, error)

	CreateCount(ctx context.Context, c *CycleCount) error
	// SaveCount writes the header and location set; lines are untouched.
	SaveCount(ctx context.Context, c *CycleCount) error
	ReplaceCountLines(ctx context.Context, countID uint, lines []CycleCountLine) error
	FindCount(ctx context.Context, tenantID, id uint) (*CycleCount, error)
	ListCounts(ctx context.Context, tenantID uint) ([]CycleCount, error)
	FindCountLine(ctx context.Context, id uint) (*CycleCountLine, error)
	SaveCountLine(ctx context.Context, l *CycleCountLine) error
}

type Repository interface {
	LocationRepository
	QuantRepository
	PlanningRepository
}

// VariantInfo is what stock needs to know about a sellable variant.
type VariantInfo struct {
	VariantID     uint    `json:"variant_id"`
	ProductID     uint    `json:"product_id"`
	Name          string  `json:"name"`
	DefaultCode   string  `json:"default_code"`
	StandardPrice float64 `json:"standard_price"`
	CategoryID    *uint   `json:"category_id"`
	Stockable     bool    `json:"stockable"`
}

// ProductCatalog is the catalog as seen from stock.
type ProductCatalog interface {
	// ProductVariants returns the active variants of a product.
	ProductVariants(ctx context.Context, tenantID, productID uint) ([]VariantInfo, error)
	// Variants returns the listed variants keyed by id.
	Variants(ctx context.Context, tenantID uint, ids []uint) (map[uint]VariantInfo, error)
	// StockableVariants returns active stockable variants, restricted to a
	// category subtree when categoryID is set.
	StockableVariants(ctx context.Context, tenantID uint, categoryID *uint) ([]VariantInfo, error)
}

// QuantChange describes a committed quant write.
type QuantChange struct {
	TenantID   uint        `json:"-"`
	VariantID  uint        `json:"variant_id"`
	LocationID uint        `json:"location_id"`
	Quantity   float64     `json:"quantity"`
	OnHand     float64     `json:"on_hand"`
	Status     StockStatus `json:"status"`
}

// ChangeNotifier receives quant changes after commit.
type ChangeNotifier interface {
	QuantChanged(ctx context.Context, c QuantChange)
}
