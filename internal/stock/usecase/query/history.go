package query

import (
	"context"
	"fmt"
	"time"

	"github.com/tair/tenant-commerce/internal/stock/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/database"
)

type HistoryQuery struct {
	TenantID  uint
	ProductID *uint
	VariantID *uint
	From      *time.Time
	To        *time.Time
	MoveType  domain.MoveType
	Limit     int
	Offset    int
}

type HistoryItem struct {
	domain.Move
	Type        domain.MoveType `json:"move_type"`
	Source      string          `json:"location"`
	Destination string          `json:"location_dest"`
}

type HistoryResult struct {
	Items []HistoryItem `json:"items"`
	Total int           `json:"total"`
}

type HistoryHandler struct {
	repo    domain.Repository
	catalog domain.ProductCatalog
}

func NewHistoryHandler(repo domain.Repository, catalog domain.ProductCatalog) *HistoryHandler {
	return &HistoryHandler{repo: repo, catalog: catalog}
}

// variantScope resolves a product or a single variant to variant ids.
func variantScope(ctx context.Context, catalog domain.ProductCatalog, tenantID uint, productID, variantID *uint) ([]uint, error) {
	switch {
	case variantID != nil:
		return []uint{*variantID}, nil
	case productID != nil:
		variants, err := catalog.ProductVariants(ctx, tenantID, *productID)
		if err != nil {
			return nil, err
		}
		ids := make([]uint, 0, len(variants))
		for _, v := range variants {
			ids = append(ids, v.VariantID)
		}
		return ids, nil
	}
	return nil, apperr.Validationf("product_id", "product_id or variant_id is required")
}

// Handle lists done moves, newest first.
func (h *HistoryHandler) Handle(ctx context.Context, q HistoryQuery) (*HistoryResult, error) {
	if q.MoveType != "" && !domain.ValidMoveType(q.MoveType) {
		return nil, apperr.Validationf("move_type", "unknown move type %q", q.MoveType)
	}
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return nil, apperr.Validationf("date_from", "date_from must not be after date_to")
	}
	if q.Limit <= 0 || q.Limit > 200 {
		q.Limit = 50
	}
	ids, err := variantScope(ctx, h.catalog, q.TenantID, q.ProductID, q.VariantID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return &HistoryResult{Items: []HistoryItem{}}, nil
	}
	moves, err := h.repo.ListMoves(ctx, domain.MoveFilter{
		TenantID:   q.TenantID,
		VariantIDs: ids,
		From:       q.From,
		To:         q.To,
		States:     []domain.MoveState{domain.MoveDone},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list moves: %w", err)
	}
	locations, err := h.repo.ListLocations(ctx, q.TenantID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	tree := domain.NewLocationTree(locations)

	items := make([]HistoryItem, 0, len(moves))
	for _, m := range moves {
		src, dst := tree[m.LocationID], tree[m.LocationDestID]
		t := domain.TypeOf(src.Usage, dst.Usage)
		if q.MoveType != "" && t != q.MoveType {
			continue
		}
		items = append(items, HistoryItem{Move: m, Type: t, Source: src.CompleteName, Destination: dst.CompleteName})
	}
	return &HistoryResult{Items: database.Page(items, q.Limit, q.Offset), Total: len(items)}, nil
}
