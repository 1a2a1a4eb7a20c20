package query

import (
	"context"

	"github.com/tair/tenant-commerce/internal/stock/domain"
)

// ReadHandler serves the plain listings of the stock back office.
type ReadHandler struct {
	repo domain.Repository
}

func NewReadHandler(repo domain.Repository) *ReadHandler {
	return &ReadHandler{repo: repo}
}

func (h *ReadHandler) Locations(ctx context.Context, tenantID uint, includeArchived bool) ([]domain.Location, error) {
	out, err := h.repo.ListLocations(ctx, tenantID, includeArchived)
	if out == nil && err == nil {
		out = []domain.Location{}
	}
	return out, err
}

func (h *ReadHandler) Warehouses(ctx context.Context, tenantID uint) ([]domain.Warehouse, error) {
	out, err := h.repo.ListWarehouses(ctx, tenantID)
	if out == nil && err == nil {
		out = []domain.Warehouse{}
	}
	return out, err
}

func (h *ReadHandler) CycleCounts(ctx context.Context, tenantID uint) ([]domain.CycleCount, error) {
	out, err := h.repo.ListCounts(ctx, tenantID)
	if out == nil && err == nil {
		out = []domain.CycleCount{}
	}
	return out, err
}

func (h *ReadHandler) CycleCount(ctx context.Context, tenantID, id uint) (*domain.CycleCount, error) {
	return h.repo.FindCount(ctx, tenantID, id)
}

// Pickings returns the deliveries of an order with their moves.
func (h *ReadHandler) Pickings(ctx context.Context, tenantID, orderID uint) ([]domain.Picking, error) {
	out, err := h.repo.ListPickings(ctx, tenantID, orderID)
	if out == nil && err == nil {
		out = []domain.Picking{}
	}
	return out, err
}

func (h *ReadHandler) Lots(ctx context.Context, tenantID uint, variantIDs []uint) ([]domain.Lot, error) {
	out, err := h.repo.ListLots(ctx, tenantID, variantIDs)
	if out == nil && err == nil {
		out = []domain.Lot{}
	}
	return out, err
}
