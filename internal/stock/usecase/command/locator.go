package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/tair/tenant-commerce/internal/stock/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
)

// virtualPaths places the per-tenant virtual locations under a view parent.
var virtualPaths = map[domain.Usage][2]string{
	domain.UsageSupplier:  {"Partners", "Vendors"},
	domain.UsageCustomer:  {"Partners", "Customers"},
	domain.UsageInventory: {"Virtual Locations", "Inventory adjustment"},
}

const (
	defaultWarehouseName = "Main Warehouse"
	defaultWarehouseCode = "WH"
)

// Locator finds or lazily creates the locations every tenant needs: the
// virtual partner and adjustment locations and a default warehouse.
type Locator struct {
	repo domain.LocationRepository
}

func NewLocator(repo domain.LocationRepository) *Locator {
	return &Locator{repo: repo}
}

// Virtual returns the tenant's location of the given virtual usage.
func (l *Locator) Virtual(ctx context.Context, tenantID uint, usage domain.Usage) (*domain.Location, error) {
	path, ok := virtualPaths[usage]
	if !ok {
		return nil, fmt.Errorf("no virtual location for usage %q", usage)
	}
	locations, err := l.repo.ListLocations(ctx, tenantID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	var parent *domain.Location
	for i := range locations {
		loc := locations[i]
		if loc.Usage == usage && loc.WarehouseID == nil {
			return &loc, nil
		}
		if loc.Usage == domain.UsageView && loc.ParentID == nil && loc.Name == path[0] {
			parent = &loc
		}
	}
	if parent == nil {
		parent = &domain.Location{TenantID: tenantID, Name: path[0], CompleteName: path[0], Usage: domain.UsageView, Active: true}
		if err := l.repo.CreateLocation(ctx, parent); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", path[0], err)
		}
	}
	loc := &domain.Location{
		TenantID:     tenantID,
		Name:         path[1],
		CompleteName: path[0] + "/" + path[1],
		ParentID:     &parent.ID,
		Usage:        usage,
		Active:       true,
	}
	if err := l.repo.CreateLocation(ctx, loc); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", loc.CompleteName, err)
	}
	return loc, nil
}

// DefaultStock returns the stock location of the tenant's first warehouse,
// creating the warehouse when the tenant has none.
func (l *Locator) DefaultStock(ctx context.Context, tenantID uint) (*domain.Location, error) {
	w, err := l.DefaultWarehouse(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return l.repo.FindLocation(ctx, tenantID, w.LotStockID)
}

func (l *Locator) DefaultWarehouse(ctx context.Context, tenantID uint) (*domain.Warehouse, error) {
	warehouses, err := l.repo.ListWarehouses(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list warehouses: %w", err)
	}
	if len(warehouses) > 0 {
		return &warehouses[0], nil
	}
	return l.CreateWarehouse(ctx, tenantID, defaultWarehouseName, defaultWarehouseCode)
}

// CreateWarehouse creates a warehouse with its view, stock, input and
// output locations and the receipt, delivery and internal picking types.
func (l *Locator) CreateWarehouse(ctx context.Context, tenantID uint, name, code string) (*domain.Warehouse, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	w := &domain.Warehouse{TenantID: tenantID, Name: name, Code: code, Active: true}
	if err := l.repo.CreateWarehouse(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to create warehouse: %w", err)
	}

	view := &domain.Location{TenantID: tenantID, Name: code, CompleteName: code, Usage: domain.UsageView, WarehouseID: &w.ID, Active: true}
	if err := l.repo.CreateLocation(ctx, view); err != nil {
		return nil, fmt.Errorf("failed to create warehouse view: %w", err)
	}
	child := func(name string) (*domain.Location, error) {
		loc := &domain.Location{
			TenantID:     tenantID,
			Name:         name,
			CompleteName: code + "/" + name,
			ParentID:     &view.ID,
			Usage:        domain.UsageInternal,
			WarehouseID:  &w.ID,
			Active:       true,
		}
		if err := l.repo.CreateLocation(ctx, loc); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", loc.CompleteName, err)
		}
		return loc, nil
	}
	stock, err := child("Stock")
	if err != nil {
		return nil, err
	}
	input, err := child("Input")
	if err != nil {
		return nil, err
	}
	output, err := child("Output")
	if err != nil {
		return nil, err
	}
	w.ViewLocationID, w.LotStockID, w.InputID, w.OutputID = view.ID, stock.ID, input.ID, output.ID
	if err := l.repo.UpdateWarehouse(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to update warehouse: %w", err)
	}

	supplier, err := l.Virtual(ctx, tenantID, domain.UsageSupplier)
	if err != nil {
		return nil, err
	}
	customer, err := l.Virtual(ctx, tenantID, domain.UsageCustomer)
	if err != nil {
		return nil, err
	}
	types := []domain.PickingType{
		{Name: "Receipts", Code: domain.PickingIncoming, Prefix: code + "/IN/", DefaultSrcID: supplier.ID, DefaultDestID: stock.ID},
		{Name: "Delivery Orders", Code: domain.PickingOutgoing, Prefix: code + "/OUT/", DefaultSrcID: stock.ID, DefaultDestID: customer.ID},
		{Name: "Internal Transfers", Code: domain.PickingInternal, Prefix: code + "/INT/", DefaultSrcID: stock.ID, DefaultDestID: stock.ID},
	}
	for i := range types {
		pt := types[i]
		pt.TenantID, pt.WarehouseID, pt.NextNumber = tenantID, w.ID, 1
		if err := l.repo.CreatePickingType(ctx, &pt); err != nil {
			return nil, fmt.Errorf("failed to create picking type %s: %w", pt.Name, err)
		}
	}
	return w, nil
}

// PickingType returns the warehouse's picking type for code.
func (l *Locator) PickingType(ctx context.Context, tenantID, warehouseID uint, code domain.PickingCode) (*domain.PickingType, error) {
	types, err := l.repo.ListPickingTypes(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list picking types: %w", err)
	}
	for i := range types {
		if types[i].WarehouseID == warehouseID && types[i].Code == code {
			return &types[i], nil
		}
	}
	return nil, apperr.NotFoundf("%s picking type", code)
}
