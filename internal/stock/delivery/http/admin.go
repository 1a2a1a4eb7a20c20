package http

import (
	"context"
	"time"

	"github.com/tair/tenant-commerce/internal/gateway"
	"github.com/tair/tenant-commerce/internal/stock/domain"
	"github.com/tair/tenant-commerce/internal/stock/usecase/command"
)

type setQuantRequest struct {
	VariantID  uint     `json:"variant_id" validate:"required"`
	LocationID *uint    `json:"location_id"`
	LotID      *uint    `json:"lot_id"`
	Quantity   *float64 `json:"quantity" validate:"required,gte=0"`
}

func (h *StockHandler) setQuant(c *gateway.Call) (interface{}, error) {
	var req setQuantRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	q, err := h.quants.SetQuantity(c.Ctx, command.SetQuantityCommand{
		TenantID:   c.TenantID(),
		VariantID:  req.VariantID,
		LocationID: req.LocationID,
		LotID:      req.LotID,
		Quantity:   *req.Quantity,
	})
	if err != nil {
		return nil, err
	}
	c.Target(q.VariantID, q.LocationID)
	return q, nil
}

type moveRequest struct {
	VariantID      uint    `json:"variant_id" validate:"required"`
	LocationID     uint    `json:"location_id" validate:"required"`
	LocationDestID uint    `json:"location_dest_id" validate:"required"`
	LotID          *uint   `json:"lot_id"`
	Quantity       float64 `json:"quantity" validate:"gt=0"`
	Reference      string  `json:"reference"`
}

func (h *StockHandler) createMove(c *gateway.Call) (interface{}, error) {
	var req moveRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	m, err := h.quants.CreateMove(c.Ctx, command.MoveCommand{
		TenantID:       c.TenantID(),
		VariantID:      req.VariantID,
		LocationID:     req.LocationID,
		LocationDestID: req.LocationDestID,
		LotID:          req.LotID,
		Quantity:       req.Quantity,
		Reference:      req.Reference,
	})
	if err != nil {
		return nil, err
	}
	c.Target(m.ID)
	return m, nil
}

type lotRequest struct {
	VariantID      uint       `json:"variant_id" validate:"required"`
	Name           string     `json:"name" validate:"required"`
	ExpirationDate *time.Time `json:"expiration_date"`
	UseDate        *time.Time `json:"use_date"`
	RemovalDate    *time.Time `json:"removal_date"`
	AlertDate      *time.Time `json:"alert_date"`
}

func (h *StockHandler) createLot(c *gateway.Call) (interface{}, error) {
	var req lotRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	lot, err := h.lots.Create(c.Ctx, command.CreateLotCommand{
		TenantID:       c.TenantID(),
		VariantID:      req.VariantID,
		Name:           req.Name,
		ExpirationDate: req.ExpirationDate,
		UseDate:        req.UseDate,
		RemovalDate:    req.RemovalDate,
		AlertDate:      req.AlertDate,
	})
	if err != nil {
		return nil, err
	}
	c.Target(lot.ID)
	return lot, nil
}

type ruleRequest struct {
	VariantID   uint    `json:"variant_id" validate:"required"`
	WarehouseID uint    `json:"warehouse_id" validate:"required"`
	MinQty      float64 `json:"product_min_qty" validate:"gte=0"`
	MaxQty      float64 `json:"product_max_qty" validate:"gt=0"`
	Multiple    float64 `json:"qty_multiple" validate:"gte=0"`
}

func (h *StockHandler) createRule(c *gateway.Call) (interface{}, error) {
	var req ruleRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	rule, err := h.reordering.Create(c.Ctx, command.CreateRuleCommand{
		TenantID:    c.TenantID(),
		VariantID:   req.VariantID,
		WarehouseID: req.WarehouseID,
		MinQty:      req.MinQty,
		MaxQty:      req.MaxQty,
		Multiple:    req.Multiple,
	})
	if err != nil {
		return nil, err
	}
	c.Target(rule.ID)
	return rule, nil
}

type updateRuleRequest struct {
	MinQty   *float64 `json:"product_min_qty" validate:"omitempty,gte=0"`
	MaxQty   *float64 `json:"product_max_qty" validate:"omitempty,gt=0"`
	Multiple *float64 `json:"qty_multiple" validate:"omitempty,gt=0"`
}

func (h *StockHandler) updateRule(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	var req updateRuleRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	c.Target(id)
	return h.reordering.Update(c.Ctx, command.UpdateRuleCommand{
		TenantID: c.TenantID(), ID: id, MinQty: req.MinQty, MaxQty: req.MaxQty, Multiple: req.Multiple,
	})
}

func (h *StockHandler) archiveRule(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	c.Target(id)
	return h.reordering.Archive(c.Ctx, c.TenantID(), id)
}

type warehouseRequest struct {
	Name string `json:"name" validate:"required"`
	Code string `json:"code" validate:"required,alphanum,max=8"`
}

func (h *StockHandler) createWarehouse(c *gateway.Call) (interface{}, error) {
	var req warehouseRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	w, err := h.warehouses.Create(c.Ctx, command.CreateWarehouseCommand{TenantID: c.TenantID(), Name: req.Name, Code: req.Code})
	if err != nil {
		return nil, err
	}
	c.Target(w.ID)
	return w, nil
}

type locationRequest struct {
	Name     string       `json:"name" validate:"required"`
	ParentID *uint        `json:"location_id"`
	Usage    domain.Usage `json:"usage" validate:"omitempty,oneof=view internal supplier customer inventory transit"`
	Barcode  string       `json:"barcode"`
}

func (h *StockHandler) createLocation(c *gateway.Call) (interface{}, error) {
	var req locationRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	loc, err := h.locations.Create(c.Ctx, command.CreateLocationCommand{
		TenantID: c.TenantID(), Name: req.Name, ParentID: req.ParentID, Usage: req.Usage, Barcode: req.Barcode,
	})
	if err != nil {
		return nil, err
	}
	c.Target(loc.ID)
	return loc, nil
}

type updateLocationRequest struct {
	Name    *string       `json:"name"`
	Barcode *string       `json:"barcode"`
	Usage   *domain.Usage `json:"usage" validate:"omitempty,oneof=view internal supplier customer inventory transit"`
}

func (h *StockHandler) updateLocation(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	var req updateLocationRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	c.Target(id)
	return h.locations.Update(c.Ctx, command.UpdateLocationCommand{
		TenantID: c.TenantID(), ID: id, Name: req.Name, Barcode: req.Barcode, Usage: req.Usage,
	})
}

type moveLocationRequest struct {
	ParentID *uint `json:"location_id"`
}

func (h *StockHandler) moveLocation(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	var req moveLocationRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	c.Target(id)
	return h.locations.Move(c.Ctx, c.TenantID(), id, req.ParentID)
}

func (h *StockHandler) archiveLocation(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	c.Target(id)
	return h.locations.Archive(c.Ctx, c.TenantID(), id)
}

type lockRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *StockHandler) lockLocation(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	var req lockRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	c.Target(id)
	return h.locations.Lock(c.Ctx, command.LockLocationCommand{
		TenantID: c.TenantID(), ID: id, Reason: req.Reason, By: c.Actor(),
	})
}

func (h *StockHandler) unlockLocation(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	c.Target(id)
	return h.locations.Unlock(c.Ctx, c.TenantID(), id)
}

type countRequest struct {
	Name          string     `json:"name"`
	ScheduledDate *time.Time `json:"scheduled_date"`
	LocationIDs   []uint     `json:"location_ids" validate:"required,min=1"`
	CategoryID    *uint      `json:"category_id"`
}

func (h *StockHandler) createCount(c *gateway.Call) (interface{}, error) {
	var req countRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	cc, err := h.cycleCounts.Create(c.Ctx, command.CreateCycleCountCommand{
		TenantID:      c.TenantID(),
		Name:          req.Name,
		ScheduledDate: req.ScheduledDate,
		LocationIDs:   req.LocationIDs,
		CategoryID:    req.CategoryID,
	})
	if err != nil {
		return nil, err
	}
	c.Target(cc.ID)
	return cc, nil
}

type scheduleRequest struct {
	ScheduledDate *time.Time `json:"scheduled_date"`
}

func (h *StockHandler) scheduleCount(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	var req scheduleRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	c.Target(id)
	return h.cycleCounts.Schedule(c.Ctx, c.TenantID(), id, req.ScheduledDate)
}

// countAction adapts a cycle-count transition that needs only the id.
func (h *StockHandler) countAction(fn func(ctx context.Context, tenantID, id uint) (*domain.CycleCount, error)) gateway.HandlerFunc {
	return func(c *gateway.Call) (interface{}, error) {
		id, err := c.PathID("id")
		if err != nil {
			return nil, err
		}
		c.Target(id)
		return fn(c.Ctx, c.TenantID(), id)
	}
}

type countLineRequest struct {
	CountedQty *float64 `json:"counted_qty" validate:"required,gte=0"`
}

func (h *StockHandler) updateCountLine(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	var req countLineRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	c.Target(id)
	return h.cycleCounts.UpdateLine(c.Ctx, c.TenantID(), id, *req.CountedQty)
}
