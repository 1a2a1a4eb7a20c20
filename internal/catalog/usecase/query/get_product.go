package query

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/tenant-commerce/internal/catalog/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/logger"
)

var productViews = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "ecommerce_product_views_total",
	Help: "Product views counted after per-IP deduplication",
})

func init() {
	prometheus.MustRegister(productViews)
}

// ViewLimiter decides whether a view from ip is counted.
type ViewLimiter interface {
	Allow(ctx context.Context, ip string, productID uint) bool
}

type GetProductQuery struct {
	TenantID uint
	ID       uint
	Slug     string
	// IP enables view counting when set.
	IP string
	// IncludeArchived lets administrators open archived or unlisted products.
	IncludeArchived bool
}

type GetProductHandler struct {
	repo      domain.Repository
	assembler *Assembler
	views     ViewLimiter
}

func NewGetProductHandler(repo domain.Repository, assembler *Assembler, views ViewLimiter) *GetProductHandler {
	return &GetProductHandler{repo: repo, assembler: assembler, views: views}
}

func (h *GetProductHandler) Handle(ctx context.Context, q GetProductQuery) (*ProductDetail, error) {
	id := q.ID
	if q.Slug != "" {
		var err error
		if id, err = h.resolveSlug(ctx, q.TenantID, q.Slug); err != nil {
			return nil, err
		}
	}
	p, err := h.repo.FindProduct(ctx, q.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !q.IncludeArchived && (!p.Active || !p.SaleOK) {
		return nil, apperr.NotFoundf("product")
	}

	if q.IP != "" && h.views != nil && h.views.Allow(ctx, q.IP, p.ID) {
		if err := h.repo.IncrementViewCount(ctx, p.ID); err != nil {
			logger.Warn(ctx).Err(err).Uint("product_id", p.ID).Msg("Failed to increment view count")
		} else {
			p.ViewCount++
			productViews.Inc()
		}
	}
	return h.assembler.Detail(ctx, p)
}

// resolveSlug matches the normalized slug exactly; the lowest id wins.
func (h *GetProductHandler) resolveSlug(ctx context.Context, tenantID uint, slug string) (uint, error) {
	want := domain.Slug(slug)
	slugs, err := h.repo.ListProductSlugs(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	for _, s := range slugs {
		if domain.Slug(s.Name) == want {
			return s.ID, nil
		}
	}
	return 0, apperr.NotFoundf("product")
}
