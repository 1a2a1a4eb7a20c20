package query

import (
	"context"
	"fmt"
	"time"

	"github.com/tair/tenant-commerce/internal/stock/domain"
)

type LotAlert struct {
	domain.Lot
	Status      domain.LotStatus `json:"status"`
	VariantName string           `json:"variant_name"`
	Quantity    float64          `json:"quantity"`
}

type LotAlerts struct {
	WithinDays int        `json:"within_days"`
	Expired    []LotAlert `json:"expired"`
	Removal    []LotAlert `json:"removal"`
	Alert      []LotAlert `json:"alert"`
	OKButSoon  []LotAlert `json:"ok_but_soon"`
}

type PlanningHandler struct {
	repo      domain.Repository
	catalog   domain.ProductCatalog
	alertDays int
	now       func() time.Time
}

func NewPlanningHandler(repo domain.Repository, catalog domain.ProductCatalog, alertDays int) *PlanningHandler {
	if alertDays <= 0 {
		alertDays = 30
	}
	return &PlanningHandler{repo: repo, catalog: catalog, alertDays: alertDays, now: time.Now}
}

// LotAlerts groups lots needing attention by status. Lots that are ok
// beyond the window are omitted.
func (h *PlanningHandler) LotAlerts(ctx context.Context, tenantID uint, withinDays int) (*LotAlerts, error) {
	if withinDays <= 0 {
		withinDays = h.alertDays
	}
	lots, err := h.repo.ListLots(ctx, tenantID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list lots: %w", err)
	}
	out := &LotAlerts{
		WithinDays: withinDays,
		Expired:    []LotAlert{},
		Removal:    []LotAlert{},
		Alert:      []LotAlert{},
		OKButSoon:  []LotAlert{},
	}
	if len(lots) == 0 {
		return out, nil
	}
	ids := make([]uint, 0, len(lots))
	for _, l := range lots {
		ids = append(ids, l.VariantID)
	}
	variants, err := h.catalog.Variants(ctx, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load variants: %w", err)
	}
	quants, err := h.repo.ListQuants(ctx, domain.QuantFilter{TenantID: tenantID, VariantIDs: ids, InternalOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list quants: %w", err)
	}
	byLot := make(map[uint]float64)
	for _, q := range quants {
		if q.LotID != nil {
			byLot[*q.LotID] += q.Quantity
		}
	}

	now := h.now()
	for _, l := range lots {
		a := LotAlert{Lot: l, Status: l.AlertStatus(now, withinDays), VariantName: variants[l.VariantID].Name, Quantity: byLot[l.ID]}
		switch a.Status {
		case domain.LotExpired:
			out.Expired = append(out.Expired, a)
		case domain.LotRemoval:
			out.Removal = append(out.Removal, a)
		case domain.LotAlert:
			out.Alert = append(out.Alert, a)
		case domain.LotOKButSoon:
			out.OKButSoon = append(out.OKButSoon, a)
		}
	}
	return out, nil
}

// Suggestions evaluates every active reordering rule against the on-hand
// of its warehouse. Rules that need no order are omitted.
func (h *PlanningHandler) Suggestions(ctx context.Context, tenantID uint, warehouseID *uint) ([]domain.Suggestion, error) {
	rules, err := h.repo.ListRules(ctx, tenantID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	locations, err := h.repo.ListLocations(ctx, tenantID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	tree := domain.NewLocationTree(locations)

	scopes := make(map[uint][]uint)
	out := []domain.Suggestion{}
	for _, r := range rules {
		if warehouseID != nil && r.WarehouseID != *warehouseID {
			continue
		}
		scope, ok := scopes[r.WarehouseID]
		if !ok {
			w, err := h.repo.FindWarehouse(ctx, tenantID, r.WarehouseID)
			if err != nil {
				return nil, err
			}
			for _, id := range tree.Subtree(w.ViewLocationID) {
				if tree[id].Usage == domain.UsageInternal {
					scope = append(scope, id)
				}
			}
			scopes[r.WarehouseID] = scope
		}
		var onHand float64
		if len(scope) > 0 {
			quants, err := h.repo.ListQuants(ctx, domain.QuantFilter{TenantID: tenantID, VariantIDs: []uint{r.VariantID}, LocationIDs: scope})
			if err != nil {
				return nil, fmt.Errorf("failed to list quants: %w", err)
			}
			for _, q := range quants {
				onHand += q.Quantity
			}
		}
		qty := r.Suggest(onHand)
		if qty <= 0 {
			continue
		}
		out = append(out, domain.Suggestion{
			RuleID:      r.ID,
			VariantID:   r.VariantID,
			WarehouseID: r.WarehouseID,
			OnHand:      onHand,
			MinQty:      r.MinQty,
			MaxQty:      r.MaxQty,
			Multiple:    r.Multiple,
			QtyToOrder:  qty,
		})
	}
	return out, nil
}
