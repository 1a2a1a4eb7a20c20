package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/tair/tenant-commerce/internal/catalog/domain"
	stockdomain "github.com/tair/tenant-commerce/internal/stock/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/cache"
	"github.com/tair/tenant-commerce/pkg/database"
)

var tracer = otel.Tracer("catalog-query")

// ResultCache is the subset of the cache service used by catalog reads.
type ResultCache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) bool
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration)
}

// CachePrefix namespaces every cached catalog read; catalog and stock
// mutations invalidate it.
const CachePrefix = "products"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ListProductsQuery struct {
	TenantID          uint
	CategoryID        *uint
	Search            string
	PriceMin          *float64
	PriceMax          *float64
	AttributeValueIDs []uint
	IncludeArchived   bool
	StockStatus       stockdomain.StockStatus
	Sort              domain.SortKey
	Desc              bool
	Limit             int
	Offset            int
}

func (q *ListProductsQuery) normalize() error {
	if q.Limit <= 0 {
		q.Limit = defaultPageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Sort == "" {
		q.Sort = domain.SortName
	}
	if !domain.ValidSortKey(q.Sort) {
		return apperr.Validationf("sort", "unknown sort key %q", q.Sort)
	}
	if q.StockStatus != "" && !stockdomain.ValidStockStatus(q.StockStatus) {
		return apperr.Validationf("stock_status", "unknown stock status %q", q.StockStatus)
	}
	return nil
}

func (q ListProductsQuery) cacheKey() string {
	return cache.GenerateKey(CachePrefix+":list", map[string]interface{}{
		"tenant":              q.TenantID,
		"category_id":         q.CategoryID,
		"search":              q.Search,
		"price_min":           q.PriceMin,
		"price_max":           q.PriceMax,
		"attribute_value_ids": q.AttributeValueIDs,
		"include_archived":    q.IncludeArchived,
		"stock_status":        string(q.StockStatus),
		"sort":                string(q.Sort),
		"desc":                q.Desc,
		"limit":               q.Limit,
		"offset":              q.Offset,
	})
}

type ListProductsResult struct {
	Products []ProductCard `json:"products"`
	Total    int64         `json:"total"`
	Limit    int           `json:"limit"`
	Offset   int           `json:"offset"`
}

// ListProductsHandler serves the storefront listing. Results are cached
// per parameter set, and concurrent misses on one key share a single load.
type ListProductsHandler struct {
	repo      domain.Repository
	assembler *Assembler
	cache     ResultCache
	ttl       time.Duration
	inflight  singleflight.Group
}

func NewListProductsHandler(repo domain.Repository, assembler *Assembler) *ListProductsHandler {
	return &ListProductsHandler{repo: repo, assembler: assembler}
}

func (h *ListProductsHandler) WithCache(c ResultCache, ttl time.Duration) *ListProductsHandler {
	h.cache = c
	h.ttl = ttl
	return h
}

func (h *ListProductsHandler) Handle(ctx context.Context, q ListProductsQuery) (*ListProductsResult, error) {
	if err := q.normalize(); err != nil {
		return nil, err
	}
	if h.cache == nil {
		return h.load(ctx, q)
	}

	key := q.cacheKey()
	var cached ListProductsResult
	if h.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}
	// The shared load serves every waiter, so it must not die with the
	// caller that happened to start it.
	loadCtx := context.WithoutCancel(ctx)
	ch := h.inflight.DoChan(key, func() (interface{}, error) {
		res, err := h.load(loadCtx, q)
		if err != nil {
			return nil, err
		}
		h.cache.SetJSON(loadCtx, key, res, h.ttl)
		return res, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*ListProductsResult), nil
	}
}

func (h *ListProductsHandler) load(ctx context.Context, q ListProductsQuery) (*ListProductsResult, error) {
	ctx, span := tracer.Start(ctx, "catalog.list_products")
	defer span.End()
	span.SetAttributes(
		attribute.Int("tenant.id", int(q.TenantID)),
		attribute.String("sort", string(q.Sort)),
	)

	f := domain.ProductFilter{
		TenantID:          q.TenantID,
		Search:            q.Search,
		PriceMin:          q.PriceMin,
		PriceMax:          q.PriceMax,
		AttributeValueIDs: q.AttributeValueIDs,
		IncludeArchived:   q.IncludeArchived,
		SaleOnly:          !q.IncludeArchived,
		Sort:              q.Sort,
		Desc:              q.Desc,
	}
	if q.CategoryID != nil {
		categories, err := h.repo.ListCategories(ctx, q.TenantID, true)
		if err != nil {
			return nil, fmt.Errorf("failed to load categories: %w", err)
		}
		f.CategoryIDs = domain.NewCategoryTree(categories).Descendants(*q.CategoryID)
		if len(f.CategoryIDs) == 0 {
			f.CategoryIDs = []uint{*q.CategoryID}
		}
	}

	res := &ListProductsResult{Limit: q.Limit, Offset: q.Offset}

	// Stock status and quantity are computed, so filtering or sorting on
	// them needs the whole match set before paging.
	if q.StockStatus == "" && q.Sort != domain.SortQtyAvailable {
		f.Limit, f.Offset = q.Limit, q.Offset
		products, total, err := h.repo.ListProducts(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("failed to list products: %w", err)
		}
		cards, err := h.assembler.Cards(ctx, q.TenantID, products)
		if err != nil {
			return nil, err
		}
		res.Products, res.Total = cards, total
		return res, nil
	}

	products, _, err := h.repo.ListProducts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	onHand, err := h.assembler.StockOnly(ctx, q.TenantID, products)
	if err != nil {
		return nil, err
	}
	kept := products[:0]
	for _, p := range products {
		if q.StockStatus == "" || stockdomain.Classify(onHand[p.ID]) == q.StockStatus {
			kept = append(kept, p)
		}
	}
	if q.Sort == domain.SortQtyAvailable {
		sort.SliceStable(kept, func(i, j int) bool {
			a, b := onHand[kept[i].ID], onHand[kept[j].ID]
			if q.Desc {
				return a > b
			}
			return a < b
		})
	}
	res.Total = int64(len(kept))
	page := database.Page(kept, q.Limit, q.Offset)
	res.Products, err = h.assembler.Cards(ctx, q.TenantID, page)
	if err != nil {
		return nil, err
	}
	return res, nil
}
