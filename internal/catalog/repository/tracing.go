package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/tenant-commerce/internal/catalog/domain"
)

var tracer = otel.Tracer("catalog-repository")

// TracedCatalogRepository adds spans around the catalog's hot reads.
type TracedCatalogRepository struct {
	domain.Repository
}

func NewTracedCatalogRepository(next domain.Repository) *TracedCatalogRepository {
	return &TracedCatalogRepository{Repository: next}
}

func record(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func (r *TracedCatalogRepository) ListProducts(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	ctx, span := tracer.Start(ctx, "repository.ListProducts",
		trace.WithAttributes(
			attribute.Int("tenant.id", int(f.TenantID)),
			attribute.String("sort", string(f.Sort)),
			attribute.Int("limit", f.Limit),
		),
	)
	defer span.End()

	products, total, err := r.Repository.ListProducts(ctx, f)
	record(span, err)
	span.SetAttributes(attribute.Int64("products.total", total))
	return products, total, err
}

func (r *TracedCatalogRepository) FindProduct(ctx context.Context, tenantID, id uint) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "repository.FindProduct",
		trace.WithAttributes(attribute.Int("product.id", int(id))),
	)
	defer span.End()

	p, err := r.Repository.FindProduct(ctx, tenantID, id)
	record(span, err)
	return p, err
}

func (r *TracedCatalogRepository) ListVariants(ctx context.Context, productIDs []uint, includeArchived bool) ([]domain.Variant, error) {
	ctx, span := tracer.Start(ctx, "repository.ListVariants",
		trace.WithAttributes(attribute.Int("products.count", len(productIDs))),
	)
	defer span.End()

	variants, err := r.Repository.ListVariants(ctx, productIDs, includeArchived)
	record(span, err)
	return variants, err
}

func (r *TracedCatalogRepository) ListImages(ctx context.Context, productIDs []uint) ([]domain.Image, error) {
	ctx, span := tracer.Start(ctx, "repository.ListImages",
		trace.WithAttributes(attribute.Int("products.count", len(productIDs))),
	)
	defer span.End()

	images, err := r.Repository.ListImages(ctx, productIDs)
	record(span, err)
	return images, err
}

func (r *TracedCatalogRepository) IncrementViewCount(ctx context.Context, id uint) error {
	ctx, span := tracer.Start(ctx, "repository.IncrementViewCount",
		trace.WithAttributes(attribute.Int("product.id", int(id))),
	)
	defer span.End()

	err := r.Repository.IncrementViewCount(ctx, id)
	record(span, err)
	return err
}
