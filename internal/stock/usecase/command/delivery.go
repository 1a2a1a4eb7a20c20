package command

import (
	"context"
	"fmt"

	"github.com/tair/tenant-commerce/internal/stock/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/database"
)

type DeliveryLine struct {
	VariantID uint
	Quantity  float64
}

// DeliveryCommand asks for an outgoing picking for a confirmed order.
type DeliveryCommand struct {
	TenantID  uint
	OrderID   uint
	OrderName string
	PartnerID *uint
	Lines     []DeliveryLine
}

type DeliveryHandler struct {
	repo    domain.Repository
	tx      database.Transactor
	locator *Locator
	mover   *Mover
}

func NewDeliveryHandler(repo domain.Repository, tx database.Transactor, locator *Locator, mover *Mover) *DeliveryHandler {
	return &DeliveryHandler{repo: repo, tx: tx, locator: locator, mover: mover}
}

// Create books an outgoing picking from the default warehouse to the
// customer location. Its moves wait until the order is shipped.
func (h *DeliveryHandler) Create(ctx context.Context, cmd DeliveryCommand) (*domain.Picking, error) {
	if len(cmd.Lines) == 0 {
		return nil, apperr.Validationf("lines", "a delivery needs at least one line")
	}
	w, err := h.locator.DefaultWarehouse(ctx, cmd.TenantID)
	if err != nil {
		return nil, err
	}
	customer, err := h.locator.Virtual(ctx, cmd.TenantID, domain.UsageCustomer)
	if err != nil {
		return nil, err
	}
	pt, err := h.locator.PickingType(ctx, cmd.TenantID, w.ID, domain.PickingOutgoing)
	if err != nil {
		return nil, err
	}

	now := h.mover.now()
	p := &domain.Picking{
		TenantID:       cmd.TenantID,
		PickingTypeID:  pt.ID,
		LocationID:     w.LotStockID,
		LocationDestID: customer.ID,
		State:          domain.PickingWaiting,
		Origin:         cmd.OrderName,
		OrderID:        &cmd.OrderID,
		PartnerID:      cmd.PartnerID,
		ScheduledDate:  now,
	}
	for _, l := range cmd.Lines {
		if l.Quantity <= 0 {
			continue
		}
		p.Moves = append(p.Moves, domain.Move{
			TenantID:       cmd.TenantID,
			VariantID:      l.VariantID,
			LocationID:     w.LotStockID,
			LocationDestID: customer.ID,
			Quantity:       l.Quantity,
			State:          domain.MoveWaiting,
			Reference:      cmd.OrderName,
			Date:           now,
		})
	}
	err = h.tx.WithinTx(ctx, func(ctx context.Context) error {
		n, err := h.repo.NextPickingNumber(ctx, pt.ID)
		if err != nil {
			return err
		}
		p.Name = fmt.Sprintf("%s%05d", pt.Prefix, n)
		return h.repo.CreatePicking(ctx, p)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create delivery: %w", err)
	}
	return p, nil
}

// Ship applies the waiting moves of every open picking of an order.
func (h *DeliveryHandler) Ship(ctx context.Context, tenantID, orderID uint) ([]domain.Picking, error) {
	pickings, err := h.repo.ListPickings(ctx, tenantID, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pickings: %w", err)
	}
	var written []domain.Quant
	err = h.tx.WithinTx(ctx, func(ctx context.Context) error {
		for i := range pickings {
			p := &pickings[i]
			if !p.State.Active() {
				continue
			}
			for j := range p.Moves {
				mv := &p.Moves[j]
				if !mv.State.Pending() && mv.State != domain.MoveDraft {
					continue
				}
				out, err := h.mover.Apply(ctx, mv, false)
				if err != nil {
					return err
				}
				written = append(written, out...)
			}
			done := h.mover.now()
			p.State, p.DateDone = domain.PickingDone, &done
			if err := h.repo.UpdatePicking(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	h.mover.Broadcast(ctx, tenantID, written)
	return pickings, nil
}

// Cancel cancels the open pickings of an order and their pending moves.
func (h *DeliveryHandler) Cancel(ctx context.Context, tenantID, orderID uint) error {
	pickings, err := h.repo.ListPickings(ctx, tenantID, orderID)
	if err != nil {
		return fmt.Errorf("failed to list pickings: %w", err)
	}
	return h.tx.WithinTx(ctx, func(ctx context.Context) error {
		for i := range pickings {
			p := &pickings[i]
			if !p.State.Active() {
				continue
			}
			for j := range p.Moves {
				if p.Moves[j].State == domain.MoveDone {
					continue
				}
				p.Moves[j].State = domain.MoveCancel
				if err := h.repo.UpdateMove(ctx, &p.Moves[j]); err != nil {
					return err
				}
			}
			p.State = domain.PickingCancel
			if err := h.repo.UpdatePicking(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
}
