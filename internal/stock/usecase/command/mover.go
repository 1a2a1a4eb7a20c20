package command

import (
	"context"
	"fmt"
	"time"

	"github.com/tair/tenant-commerce/internal/stock/domain"
	"github.com/tair/tenant-commerce/kafka"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/logger"
)

// EventPublisher announces quant writes to other services.
type EventPublisher interface {
	PublishStockChanged(ctx context.Context, event kafka.StockChangedEvent) error
}

type NopNotifier struct{}

func (NopNotifier) QuantChanged(context.Context, domain.QuantChange) {}

// Mover applies stock moves to quants. Apply runs inside the caller's
// transaction; Broadcast runs after it commits.
type Mover struct {
	repo     domain.Repository
	notifier domain.ChangeNotifier
	events   EventPublisher
	now      func() time.Time
}

func NewMover(repo domain.Repository, notifier domain.ChangeNotifier, events EventPublisher) *Mover {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if events == nil {
		events = kafka.NopPublisher{}
	}
	return &Mover{repo: repo, notifier: notifier, events: events, now: time.Now}
}

// tracksQuants reports whether stock held at l is recorded as quants.
func tracksQuants(l *domain.Location) bool {
	return l.Usage == domain.UsageInternal || l.Usage == domain.UsageTransit
}

// Apply books mv as done. Both ends must be unlocked. With requireStock
// the source quant must cover the quantity. It returns the written quants.
func (m *Mover) Apply(ctx context.Context, mv *domain.Move, requireStock bool) ([]domain.Quant, error) {
	if mv.Quantity <= 0 {
		return nil, apperr.Validationf("quantity", "quantity must be positive")
	}
	if mv.LocationID == mv.LocationDestID {
		return nil, apperr.Validationf("location_dest_id", "source and destination must differ")
	}
	src, err := m.repo.FindLocation(ctx, mv.TenantID, mv.LocationID)
	if err != nil {
		return nil, err
	}
	dst, err := m.repo.FindLocation(ctx, mv.TenantID, mv.LocationDestID)
	if err != nil {
		return nil, err
	}
	for _, l := range []*domain.Location{src, dst} {
		if l.IsLocked {
			return nil, apperr.Newf(apperr.LocationLocked, "location %s is locked: %s", l.CompleteName, l.LockReason)
		}
		if l.Usage == domain.UsageView {
			return nil, apperr.Newf(apperr.InvalidValue, "view location %s cannot hold stock", l.CompleteName)
		}
	}

	// Lock in location id order so concurrent opposite transfers cannot deadlock.
	ends := []struct {
		loc  *domain.Location
		sign float64
	}{{src, -1}, {dst, 1}}
	if dst.ID < src.ID {
		ends[0], ends[1] = ends[1], ends[0]
	}
	var written []domain.Quant
	for _, end := range ends {
		if !tracksQuants(end.loc) {
			continue
		}
		q, err := m.repo.LockQuant(ctx, mv.TenantID, mv.VariantID, end.loc.ID, mv.LotID)
		if err != nil {
			return nil, fmt.Errorf("failed to lock quant: %w", err)
		}
		if end.sign < 0 && requireStock && q.Quantity+1e-9 < mv.Quantity {
			return nil, apperr.Newf(apperr.InsufficientStock, "only %g available at %s", q.Quantity, end.loc.CompleteName)
		}
		q.Quantity += end.sign * mv.Quantity
		if err := m.repo.SaveQuant(ctx, q); err != nil {
			return nil, fmt.Errorf("failed to save quant: %w", err)
		}
		written = append(written, *q)
	}

	mv.State = domain.MoveDone
	mv.Date = m.now()
	if mv.ID == 0 {
		err = m.repo.CreateMove(ctx, mv)
	} else {
		err = m.repo.UpdateMove(ctx, mv)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record move: %w", err)
	}
	return written, nil
}

// Broadcast tells the live feed and the event bus about written quants.
// Failures are logged, never returned.
func (m *Mover) Broadcast(ctx context.Context, tenantID uint, quants []domain.Quant) {
	if len(quants) == 0 {
		return
	}
	ids := make([]uint, 0, len(quants))
	for _, q := range quants {
		ids = append(ids, q.VariantID)
	}
	onHand := make(map[uint]float64, len(ids))
	internal, err := m.repo.ListQuants(ctx, domain.QuantFilter{TenantID: tenantID, VariantIDs: ids, InternalOnly: true})
	if err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to read on-hand for stock broadcast")
	}
	for _, q := range internal {
		onHand[q.VariantID] += q.Quantity
	}
	for _, q := range quants {
		change := domain.QuantChange{
			TenantID:   tenantID,
			VariantID:  q.VariantID,
			LocationID: q.LocationID,
			Quantity:   q.Quantity,
			OnHand:     onHand[q.VariantID],
			Status:     domain.Classify(onHand[q.VariantID]),
		}
		m.notifier.QuantChanged(ctx, change)
		err := m.events.PublishStockChanged(ctx, kafka.StockChangedEvent{
			TenantID:   tenantID,
			VariantID:  q.VariantID,
			LocationID: q.LocationID,
			Quantity:   q.Quantity,
			OnHand:     change.OnHand,
		})
		if err != nil {
			logger.Warn(ctx).Err(err).Uint("variant_id", q.VariantID).Msg("Failed to publish stock change")
		}
	}
}
