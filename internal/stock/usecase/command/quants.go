package command

import (
	"context"
	"fmt"

	"github.com/tair/tenant-commerce/internal/stock/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/database"
)

// SetQuantityCommand sets the quant of a variant at an internal location.
// A nil location means the default warehouse stock.
type SetQuantityCommand struct {
	TenantID   uint
	VariantID  uint
	LocationID *uint
	LotID      *uint
	Quantity   float64
}

// MoveCommand transfers stock between two locations immediately.
type MoveCommand struct {
	TenantID       uint
	VariantID      uint
	LocationID     uint
	LocationDestID uint
	LotID          *uint
	Quantity       float64
	Reference      string
}

type QuantHandler struct {
	repo    domain.Repository
	tx      database.Transactor
	catalog domain.ProductCatalog
	locator *Locator
	mover   *Mover
}

func NewQuantHandler(repo domain.Repository, tx database.Transactor, catalog domain.ProductCatalog, locator *Locator, mover *Mover) *QuantHandler {
	return &QuantHandler{repo: repo, tx: tx, catalog: catalog, locator: locator, mover: mover}
}

func stockableVariant(ctx context.Context, catalog domain.ProductCatalog, tenantID, variantID uint) (*domain.VariantInfo, error) {
	variants, err := catalog.Variants(ctx, tenantID, []uint{variantID})
	if err != nil {
		return nil, fmt.Errorf("failed to load variant: %w", err)
	}
	v, ok := variants[variantID]
	if !ok {
		return nil, apperr.NotFoundf("variant")
	}
	if !v.Stockable {
		return nil, apperr.New(apperr.InvalidValue, "only stockable products track quantities")
	}
	return &v, nil
}

func (h *QuantHandler) SetQuantity(ctx context.Context, cmd SetQuantityCommand) (*domain.Quant, error) {
	if cmd.Quantity < 0 {
		return nil, apperr.Validationf("quantity", "quantity must not be negative")
	}
	if _, err := stockableVariant(ctx, h.catalog, cmd.TenantID, cmd.VariantID); err != nil {
		return nil, err
	}
	var loc *domain.Location
	var err error
	if cmd.LocationID == nil {
		loc, err = h.locator.DefaultStock(ctx, cmd.TenantID)
	} else {
		loc, err = h.repo.FindLocation(ctx, cmd.TenantID, *cmd.LocationID)
	}
	if err != nil {
		return nil, err
	}
	if !loc.IsInternal() {
		return nil, apperr.Newf(apperr.InvalidValue, "location %s is not an internal location", loc.CompleteName)
	}
	if loc.IsLocked {
		return nil, apperr.Newf(apperr.LocationLocked, "location %s is locked: %s", loc.CompleteName, loc.LockReason)
	}
	inventory, err := h.locator.Virtual(ctx, cmd.TenantID, domain.UsageInventory)
	if err != nil {
		return nil, err
	}

	var written []domain.Quant
	var result domain.Quant
	err = h.tx.WithinTx(ctx, func(ctx context.Context) error {
		q, err := h.repo.LockQuant(ctx, cmd.TenantID, cmd.VariantID, loc.ID, cmd.LotID)
		if err != nil {
			return fmt.Errorf("failed to lock quant: %w", err)
		}
		result = *q
		written, err = adjust(ctx, h.mover, q, inventory.ID, cmd.Quantity, "Quantity updated")
		if err != nil {
			return err
		}
		for _, w := range written {
			if w.LocationID == loc.ID {
				result = w
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	h.mover.Broadcast(ctx, cmd.TenantID, written)
	return &result, nil
}

// adjust moves the difference between target and q through the inventory
// adjustment location. Returns nothing when q already holds target.
func adjust(ctx context.Context, mover *Mover, q *domain.Quant, inventoryID uint, target float64, reference string) ([]domain.Quant, error) {
	delta := target - q.Quantity
	if delta == 0 {
		return nil, nil
	}
	mv := &domain.Move{
		TenantID:  q.TenantID,
		VariantID: q.VariantID,
		LotID:     q.LotID,
		Reference: reference,
	}
	if delta > 0 {
		mv.LocationID, mv.LocationDestID, mv.Quantity = inventoryID, q.LocationID, delta
	} else {
		mv.LocationID, mv.LocationDestID, mv.Quantity = q.LocationID, inventoryID, -delta
	}
	return mover.Apply(ctx, mv, false)
}

// CreateMove books a done move between two locations. Moves leaving an
// internal location need the stock to be there.
func (h *QuantHandler) CreateMove(ctx context.Context, cmd MoveCommand) (*domain.Move, error) {
	if _, err := stockableVariant(ctx, h.catalog, cmd.TenantID, cmd.VariantID); err != nil {
		return nil, err
	}
	mv := &domain.Move{
		TenantID:       cmd.TenantID,
		VariantID:      cmd.VariantID,
		LocationID:     cmd.LocationID,
		LocationDestID: cmd.LocationDestID,
		LotID:          cmd.LotID,
		Quantity:       cmd.Quantity,
		Reference:      cmd.Reference,
	}
	if mv.Reference == "" {
		mv.Reference = "Manual transfer"
	}
	var written []domain.Quant
	err := h.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		written, err = h.mover.Apply(ctx, mv, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	h.mover.Broadcast(ctx, cmd.TenantID, written)
	return mv, nil
}
