package query

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tair/tenant-commerce/internal/stock/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
)

var tracer = otel.Tracer("stock-query")

type ABCQuery struct {
	TenantID   uint
	CategoryID *uint
	Thresholds *domain.ABCThresholds
}

type ABCResult struct {
	Thresholds domain.ABCThresholds    `json:"thresholds"`
	TotalValue float64                 `json:"total_value"`
	Counts     map[domain.ABCClass]int `json:"counts"`
	Items      []domain.ABCItem        `json:"items"`
}

type ForecastQuery struct {
	TenantID    uint
	ProductID   *uint
	VariantID   *uint
	HistoryDays int
	HorizonDays int
}

type AnalysisHandler struct {
	repo         domain.Repository
	catalog      domain.ProductCatalog
	levels       *LevelsHandler
	forecastDays int
	now          func() time.Time
}

func NewAnalysisHandler(repo domain.Repository, catalog domain.ProductCatalog, levels *LevelsHandler, forecastDays int) *AnalysisHandler {
	if forecastDays <= 0 {
		forecastDays = 90
	}
	return &AnalysisHandler{repo: repo, catalog: catalog, levels: levels, forecastDays: forecastDays, now: time.Now}
}

func (h *AnalysisHandler) ABC(ctx context.Context, q ABCQuery) (*ABCResult, error) {
	th := domain.DefaultABCThresholds
	if q.Thresholds != nil {
		th = *q.Thresholds
	}
	if th.A <= 0 || th.A >= th.B || th.B > 100 {
		return nil, apperr.Validationf("thresholds", "thresholds must satisfy 0 < a < b <= 100")
	}
	variants, err := h.catalog.StockableVariants(ctx, q.TenantID, q.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list variants: %w", err)
	}
	ids := make([]uint, 0, len(variants))
	for _, v := range variants {
		ids = append(ids, v.VariantID)
	}
	onHand, err := h.levels.OnHand(ctx, q.TenantID, ids)
	if err != nil {
		return nil, err
	}
	items := make([]domain.ABCItem, 0, len(variants))
	for _, v := range variants {
		items = append(items, domain.ABCItem{
			VariantID:     v.VariantID,
			Name:          v.Name,
			OnHand:        onHand[v.VariantID],
			StandardPrice: v.StandardPrice,
		})
	}
	res := &ABCResult{
		Thresholds: th,
		Counts:     map[domain.ABCClass]int{domain.ClassA: 0, domain.ClassB: 0, domain.ClassC: 0},
		Items:      domain.ClassifyABC(items, th),
	}
	for _, it := range res.Items {
		res.Counts[it.Class]++
		if it.Value > 0 {
			res.TotalValue += it.Value
		}
	}
	return res, nil
}

// Forecast projects outbound demand for the variants of a product.
func (h *AnalysisHandler) Forecast(ctx context.Context, q ForecastQuery) ([]domain.Forecast, error) {
	ctx, span := tracer.Start(ctx, "stock.Forecast")
	defer span.End()

	if q.HistoryDays <= 0 {
		q.HistoryDays = h.forecastDays
	}
	if q.HistoryDays > 730 {
		return nil, apperr.Validationf("history_days", "history is limited to 730 days")
	}
	if q.HorizonDays <= 0 {
		q.HorizonDays = 30
	}
	if q.HorizonDays > 365 {
		return nil, apperr.Validationf("horizon_days", "horizon is limited to 365 days")
	}
	ids, err := variantScope(ctx, h.catalog, q.TenantID, q.ProductID, q.VariantID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("variants", len(ids)),
		attribute.Int("history_days", q.HistoryDays),
		attribute.Int("horizon_days", q.HorizonDays),
	)
	if len(ids) == 0 {
		return []domain.Forecast{}, nil
	}

	end := h.now()
	from := end.AddDate(0, 0, -q.HistoryDays)
	moves, err := h.repo.ListMoves(ctx, domain.MoveFilter{
		TenantID:   q.TenantID,
		VariantIDs: ids,
		From:       &from,
		To:         &end,
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
	outbound := make(map[uint][]domain.Move)
	for _, m := range moves {
		if domain.TypeOf(tree[m.LocationID].Usage, tree[m.LocationDestID].Usage) == domain.MoveOut {
			outbound[m.VariantID] = append(outbound[m.VariantID], m)
		}
	}
	onHand, err := h.levels.OnHand(ctx, q.TenantID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Forecast, 0, len(ids))
	for _, id := range ids {
		series := domain.DailySeries(outbound[id], end, q.HistoryDays)
		out = append(out, domain.BuildForecast(id, series, q.HorizonDays, onHand[id]))
	}
	return out, nil
}
