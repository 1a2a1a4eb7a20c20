package query

import (
	"context"
	"time"

	"github.com/tair/tenant-commerce/internal/order/domain"
)

type ListOrdersResult struct {
	Orders []domain.Order `json:"orders"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type OrderQueryHandler struct {
	repo        domain.Repository
	fulfillment domain.Fulfillment
}

func NewOrderQueryHandler(repo domain.Repository, fulfillment domain.Fulfillment) *OrderQueryHandler {
	return &OrderQueryHandler{repo: repo, fulfillment: fulfillment}
}

func (h *OrderQueryHandler) List(ctx context.Context, f domain.OrderFilter) (*ListOrdersResult, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	orders, total, err := h.repo.ListOrders(ctx, f)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return &ListOrdersResult{Orders: orders, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

func (h *OrderQueryHandler) Get(ctx context.Context, tenantID, id uint) (*domain.Order, error) {
	return h.repo.FindOrder(ctx, tenantID, id)
}

func (h *OrderQueryHandler) Coupons(ctx context.Context, tenantID uint) ([]domain.Program, error) {
	return h.repo.ListPrograms(ctx, tenantID)
}

// TimelineStep is one milestone of an order's life.
type TimelineStep struct {
	Step string     `json:"step"`
	Done bool       `json:"done"`
	Date *time.Time `json:"date"`
}

type Tracking struct {
	OrderID   uint              `json:"order_id"`
	Name      string            `json:"name"`
	State     domain.State      `json:"state"`
	DateOrder *time.Time        `json:"date_order"`
	Shipments []domain.Shipment `json:"shipments"`
	Timeline  []TimelineStep    `json:"timeline"`
}

// Tracking reports the order state with its deliveries. The timeline runs
// ordered → confirmed → shipped → delivered, or ends at cancelled.
func (h *OrderQueryHandler) Tracking(ctx context.Context, o *domain.Order) (*Tracking, error) {
	shipments, err := h.fulfillment.Shipments(ctx, o.TenantID, o.ID)
	if err != nil {
		return nil, err
	}
	if shipments == nil {
		shipments = []domain.Shipment{}
	}

	confirmed := o.State == domain.StateSale || o.State == domain.StateDone
	var shippedAt *time.Time
	allShipped := len(shipments) > 0
	for _, s := range shipments {
		if s.DateDone == nil {
			allShipped = false
			continue
		}
		if shippedAt == nil || s.DateDone.After(*shippedAt) {
			shippedAt = s.DateDone
		}
	}
	if !allShipped {
		shippedAt = nil
	}

	timeline := []TimelineStep{{Step: "ordered", Done: o.DateOrder != nil, Date: o.DateOrder}}
	if o.State == domain.StateCancel {
		timeline = append(timeline, TimelineStep{Step: "cancelled", Done: true, Date: &o.UpdatedAt})
	} else {
		var confirmedAt *time.Time
		if confirmed {
			confirmedAt = o.DateOrder
		}
		timeline = append(timeline,
			TimelineStep{Step: "confirmed", Done: confirmed, Date: confirmedAt},
			TimelineStep{Step: "shipped", Done: allShipped, Date: shippedAt},
			TimelineStep{Step: "delivered", Done: o.State == domain.StateDone, Date: doneDate(o, shippedAt)},
		)
	}
	return &Tracking{
		OrderID:   o.ID,
		Name:      o.Name,
		State:     o.State,
		DateOrder: o.DateOrder,
		Shipments: shipments,
		Timeline:  timeline,
	}, nil
}

func doneDate(o *domain.Order, shippedAt *time.Time) *time.Time {
	if o.State != domain.StateDone {
		return nil
	}
	if shippedAt != nil {
		return shippedAt
	}
	return &o.UpdatedAt
}
