package command

import (
	"context"
	"fmt"
	"time"

	"github.com/tair/tenant-commerce/internal/order/domain"
	"github.com/tair/tenant-commerce/pkg/database"
)

// OrderHandler drives orders through the back-office transitions.
type OrderHandler struct {
	repo        domain.Repository
	tx          database.Transactor
	fulfillment domain.Fulfillment
	now         func() time.Time
}

func NewOrderHandler(repo domain.Repository, tx database.Transactor, fulfillment domain.Fulfillment) *OrderHandler {
	return &OrderHandler{repo: repo, tx: tx, fulfillment: fulfillment, now: time.Now}
}

// Send marks a quotation as sent. A cart sent this way stops being a cart.
func (h *OrderHandler) Send(ctx context.Context, tenantID, id uint) (*domain.Order, error) {
	return h.transition(ctx, tenantID, id, func(ctx context.Context, o *domain.Order) error {
		if err := o.Send(h.now()); err != nil {
			return err
		}
		if o.Name == "" {
			o.Name = Name(o)
		}
		return nil
	})
}

// Done ships the order's waiting deliveries.
func (h *OrderHandler) Done(ctx context.Context, tenantID, id uint) (*domain.Order, error) {
	return h.transition(ctx, tenantID, id, func(ctx context.Context, o *domain.Order) error {
		if err := o.Done(); err != nil {
			return err
		}
		return h.fulfillment.Ship(ctx, o.TenantID, o.ID)
	})
}

// Cancel releases the stock promised to the order.
func (h *OrderHandler) Cancel(ctx context.Context, tenantID, id uint) (*domain.Order, error) {
	return h.transition(ctx, tenantID, id, func(ctx context.Context, o *domain.Order) error {
		wasSale := o.State == domain.StateSale
		if err := o.Cancel(); err != nil {
			return err
		}
		if !wasSale {
			return nil
		}
		return h.fulfillment.Release(ctx, o.TenantID, o.ID)
	})
}

func (h *OrderHandler) transition(ctx context.Context, tenantID, id uint,
	fn func(ctx context.Context, o *domain.Order) error) (*domain.Order, error) {
	var out *domain.Order
	err := h.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := h.repo.FindOrder(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, o); err != nil {
			return err
		}
		if err := h.repo.SaveOrder(ctx, o); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		out = o
		return nil
	})
	return out, err
}
