package command

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tair/tenant-commerce/internal/order/domain"
	"github.com/tair/tenant-commerce/kafka"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/database"
	"github.com/tair/tenant-commerce/pkg/logger"
)

type ConfirmCommand struct {
	TenantID uint
	OrderID  uint
	// GuestEmail and GuestName create the customer of an anonymous cart.
	GuestEmail string
	GuestName  string
}

type ConfirmResult struct {
	Order    *domain.Order    `json:"order"`
	Shipment *domain.Shipment `json:"shipment,omitempty"`
}

type CheckoutHandler struct {
	repo        domain.Repository
	tx          database.Transactor
	fulfillment domain.Fulfillment
	partners    domain.Partners
	events      domain.EventPublisher
	now         func() time.Time
}

func NewCheckoutHandler(repo domain.Repository, tx database.Transactor, fulfillment domain.Fulfillment,
	partners domain.Partners, events domain.EventPublisher) *CheckoutHandler {
	return &CheckoutHandler{
		repo:        repo,
		tx:          tx,
		fulfillment: fulfillment,
		partners:    partners,
		events:      events,
		now:         time.Now,
	}
}

// Name is the customer-facing reference of an order.
func Name(o *domain.Order) string { return fmt.Sprintf("S%05d", o.ID) }

// Confirm turns a cart or quotation into a sale and books its delivery.
func (h *CheckoutHandler) Confirm(ctx context.Context, cmd ConfirmCommand) (*ConfirmResult, error) {
	o, err := h.repo.FindOrder(ctx, cmd.TenantID, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if len(o.Lines) == 0 {
		return nil, apperr.Validationf("lines", "the cart is empty")
	}
	if err := h.checkStock(ctx, o); err != nil {
		return nil, err
	}

	var shipment *domain.Shipment
	err = h.tx.WithinTx(ctx, func(ctx context.Context) error {
		if o.PartnerID == nil {
			email := strings.TrimSpace(cmd.GuestEmail)
			if email == "" {
				return apperr.Validationf("guest_email", "guest_email is required to check out without an account")
			}
			partnerID, err := h.partners.GuestPartner(ctx, o.TenantID, email, cmd.GuestName)
			if err != nil {
				return err
			}
			o.PartnerID = &partnerID
			o.Email = email
		}
		if err := o.Confirm(h.now()); err != nil {
			return err
		}
		if o.Name == "" {
			o.Name = Name(o)
		}
		if err := Reprice(ctx, h.repo, o); err != nil {
			return err
		}
		if err := h.repo.SaveOrder(ctx, o); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		if len(o.StockableLines()) == 0 {
			return nil
		}
		s, err := h.fulfillment.Deliver(ctx, o)
		if err != nil {
			return fmt.Errorf("failed to book delivery: %w", err)
		}
		shipment = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.publish(ctx, o, shipment)
	logger.Info(ctx).Uint("order_id", o.ID).Str("order", o.Name).
		Str("amount_total", o.AmountTotal.StringFixed(2)).Msg("order confirmed")
	return &ConfirmResult{Order: o, Shipment: shipment}, nil
}

// checkStock rejects the order when a stockable variant is short.
func (h *CheckoutHandler) checkStock(ctx context.Context, o *domain.Order) error {
	wanted := make(map[uint]float64)
	names := make(map[uint]string)
	for _, l := range o.StockableLines() {
		wanted[l.VariantID] += l.Quantity
		names[l.VariantID] = l.Name
	}
	if len(wanted) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(wanted))
	for id := range wanted {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	available, err := h.fulfillment.Available(ctx, o.TenantID, ids)
	if err != nil {
		return fmt.Errorf("failed to read availability: %w", err)
	}
	for _, id := range ids {
		if wanted[id] > available[id] {
			return apperr.Newf(apperr.InsufficientStock, "only %g of %s available", available[id], names[id])
		}
	}
	return nil
}

func (h *CheckoutHandler) publish(ctx context.Context, o *domain.Order, s *domain.Shipment) {
	event := kafka.OrderConfirmedEvent{
		TenantID:    o.TenantID,
		OrderID:     o.ID,
		OrderName:   o.Name,
		PartnerID:   *o.PartnerID,
		AmountTotal: o.AmountTotal.StringFixed(2),
	}
	if s != nil {
		event.PickingID = s.ID
	}
	for _, l := range o.Lines {
		event.Lines = append(event.Lines, kafka.OrderLineSummary{VariantID: l.VariantID, Quantity: l.Quantity})
	}
	if err := h.events.PublishOrderConfirmed(ctx, event); err != nil {
		logger.Warn(ctx).Err(err).Uint("order_id", o.ID).Msg("order.confirmed not published")
	}
}
