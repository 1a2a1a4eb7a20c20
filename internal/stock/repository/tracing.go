package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/tenant-commerce/internal/stock/domain"
)

var tracer = otel.Tracer("stock-repository")

// TracedStockRepository spans the quant reads and the row lock.
type TracedStockRepository struct {
	domain.Repository
}

func NewTracedStockRepository(next domain.Repository) *TracedStockRepository {
	return &TracedStockRepository{Repository: next}
}

func (r *TracedStockRepository) ListQuants(ctx context.Context, f domain.QuantFilter) ([]domain.Quant, error) {
	ctx, span := tracer.Start(ctx, "repository.ListQuants",
		trace.WithAttributes(
			attribute.Int("tenant.id", int(f.TenantID)),
			attribute.Int("variants", len(f.VariantIDs)),
			attribute.Bool("internal_only", f.InternalOnly),
		),
	)
	defer span.End()

	quants, err := r.Repository.ListQuants(ctx, f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return quants, err
}

func (r *TracedStockRepository) LockQuant(ctx context.Context, tenantID, variantID, locationID uint, lotID *uint) (*domain.Quant, error) {
	ctx, span := tracer.Start(ctx, "repository.LockQuant",
		trace.WithAttributes(
			attribute.Int("variant.id", int(variantID)),
			attribute.Int("location.id", int(locationID)),
		),
	)
	defer span.End()

	q, err := r.Repository.LockQuant(ctx, tenantID, variantID, locationID, lotID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return q, err
}

func (r *TracedStockRepository) ListMoves(ctx context.Context, f domain.MoveFilter) ([]domain.Move, error) {
	ctx, span := tracer.Start(ctx, "repository.ListMoves",
		trace.WithAttributes(attribute.Int("variants", len(f.VariantIDs))),
	)
	defer span.End()

	moves, err := r.Repository.ListMoves(ctx, f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return moves, err
}
