package http

import (
	"time"

	authdomain "github.com/tair/tenant-commerce/internal/auth/domain"
	"github.com/tair/tenant-commerce/internal/gateway"
	"github.com/tair/tenant-commerce/internal/stock/domain"
	"github.com/tair/tenant-commerce/internal/stock/usecase/command"
	"github.com/tair/tenant-commerce/internal/stock/usecase/query"
	"github.com/tair/tenant-commerce/pkg/database"
)

// Options tunes the stock endpoints.
type Options struct {
	LotAlertDays    int
	ForecastDays    int
	ReferenceMaxAge time.Duration
	// Invalidates lists the cache prefixes every stock write purges.
	Invalidates []string
}

var (
	readers  = []authdomain.GroupCode{authdomain.GroupStockUser, authdomain.GroupStockManager}
	managers = []authdomain.GroupCode{authdomain.GroupStockManager}
)

// StockHandler serves the stock back office.
type StockHandler struct {
	opts Options

	levels      *query.LevelsHandler
	history     *query.HistoryHandler
	analysis    *query.AnalysisHandler
	planning    *query.PlanningHandler
	reads       *query.ReadHandler
	quants      *command.QuantHandler
	locations   *command.LocationHandler
	warehouses  *command.WarehouseHandler
	lots        *command.LotHandler
	reordering  *command.ReorderingHandler
	cycleCounts *command.CycleCountHandler
}

func NewStockHandler(repo domain.Repository, tx database.Transactor, catalog domain.ProductCatalog,
	mover *command.Mover, opts Options) *StockHandler {
	if opts.ReferenceMaxAge <= 0 {
		opts.ReferenceMaxAge = 6 * time.Hour
	}
	locator := command.NewLocator(repo)
	levels := query.NewLevelsHandler(repo, catalog)
	return &StockHandler{
		opts:        opts,
		levels:      levels,
		history:     query.NewHistoryHandler(repo, catalog),
		analysis:    query.NewAnalysisHandler(repo, catalog, levels, opts.ForecastDays),
		planning:    query.NewPlanningHandler(repo, catalog, opts.LotAlertDays),
		reads:       query.NewReadHandler(repo),
		quants:      command.NewQuantHandler(repo, tx, catalog, locator, mover),
		locations:   command.NewLocationHandler(repo, tx),
		warehouses:  command.NewWarehouseHandler(tx, locator),
		lots:        command.NewLotHandler(repo, catalog),
		reordering:  command.NewReorderingHandler(repo, tx, catalog),
		cycleCounts: command.NewCycleCountHandler(repo, tx, catalog, locator, mover),
	}
}

func read(h gateway.HandlerFunc) gateway.Endpoint {
	return gateway.Endpoint{Groups: readers, Handle: h}
}

func (h *StockHandler) write(action string, fn gateway.HandlerFunc) gateway.Endpoint {
	return gateway.Endpoint{Groups: managers, Action: action, Invalidates: h.opts.Invalidates, Handle: fn}
}

func (h *StockHandler) RegisterRoutes(r *gateway.Router) {
	r.Post("/stock/products/:id", read(h.productStock))
	r.Post("/stock/history", read(h.stockHistory))
	r.Post("/stock/abc", read(h.abc))
	r.Post("/stock/forecast", read(h.forecast))
	r.Post("/stock/lots", read(h.listLots))
	r.Post("/stock/lots/alerts", read(h.lotAlerts))
	r.Post("/stock/reordering/suggestions", read(h.suggestions))

	r.Post("/stock/quants/set", h.write("stock.quant.set", h.setQuant))
	r.Post("/stock/moves/create", h.write("stock.move.create", h.createMove))
	r.Post("/stock/lots/create", h.write("stock.lot.create", h.createLot))
	r.Post("/stock/reordering/create", h.write("stock.reordering.create", h.createRule))
	r.Post("/stock/reordering/:id/update", h.write("stock.reordering.update", h.updateRule))
	r.Post("/stock/reordering/:id/archive", h.write("stock.reordering.archive", h.archiveRule))

	r.Get("/warehouses", gateway.Endpoint{CacheMaxAge: h.opts.ReferenceMaxAge, Handle: h.listWarehouses})
	r.Post("/warehouses/create", h.write("stock.warehouse.create", h.createWarehouse))
	r.Post("/locations/list", read(h.listLocations))
	r.Post("/locations/create", h.write("stock.location.create", h.createLocation))
	r.Post("/locations/:id/update", h.write("stock.location.update", h.updateLocation))
	r.Post("/locations/:id/move", h.write("stock.location.move", h.moveLocation))
	r.Post("/locations/:id/archive", h.write("stock.location.archive", h.archiveLocation))
	r.Post("/locations/:id/lock", h.write("stock.location.lock", h.lockLocation))
	r.Post("/locations/:id/unlock", h.write("stock.location.unlock", h.unlockLocation))

	r.Post("/cycle_counts", read(h.listCounts))
	r.Post("/cycle_counts/create", h.write("stock.cycle_count.create", h.createCount))
	r.Post("/cycle_counts/lines/:id/update", h.write("stock.cycle_count.update_line", h.updateCountLine))
	r.Post("/cycle_counts/:id", read(h.getCount))
	r.Post("/cycle_counts/:id/schedule", h.write("stock.cycle_count.schedule", h.scheduleCount))
	r.Post("/cycle_counts/:id/start", h.write("stock.cycle_count.start", h.countAction(h.cycleCounts.Start)))
	r.Post("/cycle_counts/:id/generate_lines", h.write("stock.cycle_count.generate_lines", h.countAction(h.cycleCounts.GenerateLines)))
	r.Post("/cycle_counts/:id/validate", h.write("stock.cycle_count.validate", h.countAction(h.cycleCounts.Validate)))
	r.Post("/cycle_counts/:id/cancel", h.write("stock.cycle_count.cancel", h.countAction(h.cycleCounts.Cancel)))
}

func (h *StockHandler) productStock(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	return h.levels.Product(c.Ctx, c.TenantID(), id)
}

type historyRequest struct {
	ProductID *uint           `json:"product_id"`
	VariantID *uint           `json:"variant_id"`
	DateFrom  *time.Time      `json:"date_from"`
	DateTo    *time.Time      `json:"date_to"`
	MoveType  domain.MoveType `json:"move_type" validate:"omitempty,oneof=in out internal adjustment other"`
	Limit     int             `json:"limit" validate:"gte=0,lte=200"`
	Offset    int             `json:"offset" validate:"gte=0"`
}

func (h *StockHandler) stockHistory(c *gateway.Call) (interface{}, error) {
	var req historyRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	return h.history.Handle(c.Ctx, query.HistoryQuery{
		TenantID:  c.TenantID(),
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		From:      req.DateFrom,
		To:        req.DateTo,
		MoveType:  req.MoveType,
		Limit:     req.Limit,
		Offset:    req.Offset,
	})
}

type abcRequest struct {
	CategoryID *uint    `json:"category_id"`
	ThresholdA *float64 `json:"threshold_a" validate:"omitempty,gt=0,lt=100"`
	ThresholdB *float64 `json:"threshold_b" validate:"omitempty,gt=0,lte=100"`
}

func (h *StockHandler) abc(c *gateway.Call) (interface{}, error) {
	var req abcRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	q := query.ABCQuery{TenantID: c.TenantID(), CategoryID: req.CategoryID}
	if req.ThresholdA != nil || req.ThresholdB != nil {
		th := domain.DefaultABCThresholds
		if req.ThresholdA != nil {
			th.A = *req.ThresholdA
		}
		if req.ThresholdB != nil {
			th.B = *req.ThresholdB
		}
		q.Thresholds = &th
	}
	return h.analysis.ABC(c.Ctx, q)
}

type forecastRequest struct {
	ProductID   *uint `json:"product_id"`
	VariantID   *uint `json:"variant_id"`
	HistoryDays int   `json:"history_days" validate:"gte=0"`
	HorizonDays int   `json:"horizon_days" validate:"gte=0"`
}

func (h *StockHandler) forecast(c *gateway.Call) (interface{}, error) {
	var req forecastRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	return h.analysis.Forecast(c.Ctx, query.ForecastQuery{
		TenantID:    c.TenantID(),
		ProductID:   req.ProductID,
		VariantID:   req.VariantID,
		HistoryDays: req.HistoryDays,
		HorizonDays: req.HorizonDays,
	})
}

type lotsRequest struct {
	VariantIDs []uint `json:"variant_ids"`
}

func (h *StockHandler) listLots(c *gateway.Call) (interface{}, error) {
	var req lotsRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	return h.reads.Lots(c.Ctx, c.TenantID(), req.VariantIDs)
}

type alertsRequest struct {
	WithinDays int `json:"within_days" validate:"gte=0,lte=365"`
}

func (h *StockHandler) lotAlerts(c *gateway.Call) (interface{}, error) {
	var req alertsRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	return h.planning.LotAlerts(c.Ctx, c.TenantID(), req.WithinDays)
}

type suggestionsRequest struct {
	WarehouseID *uint `json:"warehouse_id"`
}

func (h *StockHandler) suggestions(c *gateway.Call) (interface{}, error) {
	var req suggestionsRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	return h.planning.Suggestions(c.Ctx, c.TenantID(), req.WarehouseID)
}

func (h *StockHandler) listWarehouses(c *gateway.Call) (interface{}, error) {
	return h.reads.Warehouses(c.Ctx, c.TenantID())
}

type listLocationsRequest struct {
	IncludeArchived bool `json:"include_archived"`
}

func (h *StockHandler) listLocations(c *gateway.Call) (interface{}, error) {
	var req listLocationsRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	return h.reads.Locations(c.Ctx, c.TenantID(), req.IncludeArchived)
}

func (h *StockHandler) listCounts(c *gateway.Call) (interface{}, error) {
	return h.reads.CycleCounts(c.Ctx, c.TenantID())
}

func (h *StockHandler) getCount(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	return h.reads.CycleCount(c.Ctx, c.TenantID(), id)
}
