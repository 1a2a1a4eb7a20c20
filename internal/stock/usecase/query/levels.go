package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/tair/tenant-commerce/internal/stock/domain"
)

type LocationQty struct {
	LocationID   uint    `json:"location_id"`
	CompleteName string  `json:"location"`
	Quantity     float64 `json:"quantity"`
	Reserved     float64 `json:"reserved_quantity"`
}

type VariantStock struct {
	Variant domain.VariantInfo `json:"variant"`
	domain.Levels
	Locations []LocationQty `json:"locations"`
}

type ProductStock struct {
	ProductID uint           `json:"product_id"`
	Totals    domain.Levels  `json:"totals"`
	Variants  []VariantStock `json:"variants"`
}

// LevelsHandler computes on-hand, free and forecast quantities.
type LevelsHandler struct {
	repo    domain.Repository
	catalog domain.ProductCatalog
}

func NewLevelsHandler(repo domain.Repository, catalog domain.ProductCatalog) *LevelsHandler {
	return &LevelsHandler{repo: repo, catalog: catalog}
}

func (h *LevelsHandler) locations(ctx context.Context, tenantID uint) (domain.LocationTree, error) {
	locations, err := h.repo.ListLocations(ctx, tenantID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return domain.NewLocationTree(locations), nil
}

func internalIn(tree domain.LocationTree) func(uint) bool {
	return func(id uint) bool {
		l, ok := tree[id]
		return ok && l.Usage == domain.UsageInternal
	}
}

func (h *LevelsHandler) levels(ctx context.Context, tenantID uint, ids []uint, tree domain.LocationTree) (map[uint]domain.Levels, []domain.Quant, error) {
	if len(ids) == 0 {
		return map[uint]domain.Levels{}, nil, nil
	}
	quants, err := h.repo.ListQuants(ctx, domain.QuantFilter{TenantID: tenantID, VariantIDs: ids})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list quants: %w", err)
	}
	pending, err := h.repo.ListMoves(ctx, domain.MoveFilter{
		TenantID:   tenantID,
		VariantIDs: ids,
		States:     []domain.MoveState{domain.MoveWaiting, domain.MoveAssigned},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list pending moves: %w", err)
	}
	return domain.SumLevels(ids, quants, pending, internalIn(tree)), quants, nil
}

// Levels returns the quantities of each variant.
func (h *LevelsHandler) Levels(ctx context.Context, tenantID uint, ids []uint) (map[uint]domain.Levels, error) {
	tree, err := h.locations(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	levels, _, err := h.levels(ctx, tenantID, ids, tree)
	return levels, err
}

func (h *LevelsHandler) OnHand(ctx context.Context, tenantID uint, ids []uint) (map[uint]float64, error) {
	levels, err := h.Levels(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]float64, len(levels))
	for id, l := range levels {
		out[id] = l.OnHand
	}
	return out, nil
}

// Available is on-hand minus quantities already promised to pending
// outgoing moves.
func (h *LevelsHandler) Available(ctx context.Context, tenantID uint, ids []uint) (map[uint]float64, error) {
	levels, err := h.Levels(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]float64, len(levels))
	for id, l := range levels {
		out[id] = l.OnHand - l.Outgoing
	}
	return out, nil
}

// Product reports stock of every variant of a product with its
// per-location breakdown.
func (h *LevelsHandler) Product(ctx context.Context, tenantID, productID uint) (*ProductStock, error) {
	variants, err := h.catalog.ProductVariants(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(variants))
	for _, v := range variants {
		ids = append(ids, v.VariantID)
	}
	tree, err := h.locations(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	levels, quants, err := h.levels(ctx, tenantID, ids, tree)
	if err != nil {
		return nil, err
	}

	byVariant := make(map[uint][]LocationQty)
	for _, q := range quants {
		loc, ok := tree[q.LocationID]
		if !ok || loc.Usage != domain.UsageInternal {
			continue
		}
		byVariant[q.VariantID] = append(byVariant[q.VariantID], LocationQty{
			LocationID:   q.LocationID,
			CompleteName: loc.CompleteName,
			Quantity:     q.Quantity,
			Reserved:     q.ReservedQuantity,
		})
	}

	out := &ProductStock{ProductID: productID, Variants: make([]VariantStock, 0, len(variants))}
	for _, v := range variants {
		l := levels[v.VariantID]
		locs := byVariant[v.VariantID]
		sort.Slice(locs, func(i, j int) bool { return locs[i].LocationID < locs[j].LocationID })
		out.Variants = append(out.Variants, VariantStock{Variant: v, Levels: l, Locations: locs})
		out.Totals.OnHand += l.OnHand
		out.Totals.Free += l.Free
		out.Totals.Incoming += l.Incoming
		out.Totals.Outgoing += l.Outgoing
		out.Totals.Virtual += l.Virtual
	}
	out.Totals.Status = domain.Classify(out.Totals.OnHand)
	return out, nil
}
