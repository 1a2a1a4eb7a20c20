package query

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tair/tenant-commerce/internal/catalog/domain"
	"github.com/tair/tenant-commerce/internal/catalog/repository"
	stockdomain "github.com/tair/tenant-commerce/internal/stock/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
)

const tenant = 1

type fakeStock map[uint]float64

func (f fakeStock) OnHand(_ context.Context, _ uint, ids []uint) (map[uint]float64, error) {
	out := make(map[uint]float64, len(ids))
	for _, id := range ids {
		out[id] = f[id]
	}
	return out, nil
}

// gatedStock blocks OnHand until release is closed and then fails if the
// context it was given is done.
type gatedStock struct {
	fakeStock
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedStock) OnHand(ctx context.Context, tenantID uint, ids []uint) (map[uint]float64, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.fakeStock.OnHand(ctx, tenantID, ids)
}

type onceLimiter struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (l *onceLimiter) Allow(_ context.Context, ip string, productID uint) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := fmt.Sprintf("%s/%d", ip, productID)
	if l.seen[key] {
		return false
	}
	l.seen[key] = true
	return true
}

type mapCache struct {
	mu   sync.Mutex
	data map[string]interface{}
	sets int
}

func (c *mapCache) GetJSON(_ context.Context, key string, dst interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return false
	}
	*(dst.(*ListProductsResult)) = *(v.(*ListProductsResult))
	return true
}

func (c *mapCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
}

type seeded struct {
	repo  *repository.MemoryCatalogRepository
	stock fakeStock
	// variant ids by product name
	variants map[string]uint
	products map[string]*domain.Product
}

// seed stores one single-variant product per entry with the given on-hand.
func seed(t *testing.T, stock map[string]float64, names ...string) *seeded {
	t.Helper()
	ctx := context.Background()
	s := &seeded{
		repo:     repository.NewMemoryCatalogRepository(),
		stock:    fakeStock{},
		variants: make(map[string]uint),
		products: make(map[string]*domain.Product),
	}
	for i, name := range names {
		p := &domain.Product{TenantID: tenant, Name: name, ListPrice: float64(10 * (i + 1)),
			Type: domain.TypeStockable, SaleOK: true, Active: true}
		if err := s.repo.CreateProduct(ctx, p); err != nil {
			t.Fatalf("create product: %v", err)
		}
		v := &domain.Variant{TenantID: tenant, ProductID: p.ID, Active: true}
		if err := s.repo.CreateVariant(ctx, v); err != nil {
			t.Fatalf("create variant: %v", err)
		}
		s.stock[v.ID] = stock[name]
		s.variants[name] = v.ID
		s.products[name] = p
	}
	return s
}

func names(cards []ProductCard) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.Name)
	}
	return out
}

func TestListProductsStockStatusFilter(t *testing.T) {
	s := seed(t, map[string]float64{"Apple": 0, "Banana": 3, "Cherry": 40, "Date": 5},
		"Apple", "Banana", "Cherry", "Date")
	h := NewListProductsHandler(s.repo, NewAssembler(s.repo, s.stock, 0))
	ctx := context.Background()

	res, err := h.Handle(ctx, ListProductsQuery{TenantID: tenant, StockStatus: stockdomain.LowStock})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := names(res.Products); len(got) != 2 || got[0] != "Banana" || got[1] != "Date" {
		t.Errorf("low stock = %v, want [Banana Date]", got)
	}
	if res.Total != 2 {
		t.Errorf("total = %d, want 2", res.Total)
	}

	res, err = h.Handle(ctx, ListProductsQuery{TenantID: tenant, Sort: domain.SortQtyAvailable, Desc: true, Limit: 2})
	if err != nil {
		t.Fatalf("list by qty: %v", err)
	}
	if got := names(res.Products); len(got) != 2 || got[0] != "Cherry" || got[1] != "Date" {
		t.Errorf("by qty desc = %v, want [Cherry Date]", got)
	}
	if res.Total != 4 {
		t.Errorf("total = %d, want 4", res.Total)
	}
	if res.Products[0].StockStatus != stockdomain.InStock || !res.Products[0].InStock {
		t.Errorf("cherry status = %s", res.Products[0].StockStatus)
	}

	if _, err := h.Handle(ctx, ListProductsQuery{TenantID: tenant, Sort: "popularity"}); !apperr.HasCode(err, apperr.Validation) {
		t.Errorf("bad sort err = %v, want VALIDATION", err)
	}
}

func TestListProductsHidesArchivedAndUsesCache(t *testing.T) {
	s := seed(t, nil, "Apple", "Banana")
	ctx := context.Background()
	banana := s.products["Banana"]
	banana.Active = false
	if err := s.repo.UpdateProduct(ctx, banana); err != nil {
		t.Fatalf("archive: %v", err)
	}

	cache := &mapCache{data: map[string]interface{}{}}
	h := NewListProductsHandler(s.repo, NewAssembler(s.repo, s.stock, 0)).WithCache(cache, time.Minute)
	for i := 0; i < 2; i++ {
		res, err := h.Handle(ctx, ListProductsQuery{TenantID: tenant})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if got := names(res.Products); len(got) != 1 || got[0] != "Apple" {
			t.Errorf("products = %v, want [Apple]", got)
		}
	}
	if cache.sets != 1 {
		t.Errorf("cache sets = %d, want 1", cache.sets)
	}

	res, err := h.Handle(ctx, ListProductsQuery{TenantID: tenant, IncludeArchived: true})
	if err != nil {
		t.Fatalf("list archived: %v", err)
	}
	if res.Total != 2 {
		t.Errorf("total with archived = %d, want 2", res.Total)
	}
}

func TestListProductsSharedLoadOutlivesCaller(t *testing.T) {
	s := seed(t, nil, "Apple")
	stock := &gatedStock{fakeStock: s.stock, entered: make(chan struct{}), release: make(chan struct{})}
	cache := &mapCache{data: map[string]interface{}{}}
	h := NewListProductsHandler(s.repo, NewAssembler(s.repo, stock, 0)).WithCache(cache, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := h.Handle(ctx, ListProductsQuery{TenantID: tenant})
		done <- err
	}()
	<-stock.entered
	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("cancelled caller err = %v, want context.Canceled", err)
	}
	close(stock.release)

	deadline := time.Now().Add(2 * time.Second)
	for {
		cache.mu.Lock()
		sets := cache.sets
		cache.mu.Unlock()
		if sets == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("shared load never reached the cache")
		}
		time.Sleep(5 * time.Millisecond)
	}

	res, err := h.Handle(context.Background(), ListProductsQuery{TenantID: tenant})
	if err != nil {
		t.Fatalf("list after load: %v", err)
	}
	if got := names(res.Products); len(got) != 1 || got[0] != "Apple" {
		t.Errorf("products = %v, want [Apple]", got)
	}
}

func TestListProductsCategoryIncludesDescendants(t *testing.T) {
	s := seed(t, nil, "Polo", "Jeans", "Mug")
	ctx := context.Background()
	clothes := &domain.Category{TenantID: tenant, Name: "Clothes", Active: true}
	if err := s.repo.CreateCategory(ctx, clothes); err != nil {
		t.Fatalf("category: %v", err)
	}
	shirts := &domain.Category{TenantID: tenant, Name: "Shirts", ParentID: &clothes.ID, Active: true}
	if err := s.repo.CreateCategory(ctx, shirts); err != nil {
		t.Fatalf("category: %v", err)
	}
	polo, jeans := s.products["Polo"], s.products["Jeans"]
	polo.CategoryID, jeans.CategoryID = &shirts.ID, &clothes.ID
	for _, p := range []*domain.Product{polo, jeans} {
		if err := s.repo.UpdateProduct(ctx, p); err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	h := NewListProductsHandler(s.repo, NewAssembler(s.repo, s.stock, 0))
	res, err := h.Handle(ctx, ListProductsQuery{TenantID: tenant, CategoryID: &clothes.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := names(res.Products); len(got) != 2 || got[0] != "Jeans" || got[1] != "Polo" {
		t.Errorf("clothes = %v, want [Jeans Polo]", got)
	}
}

func TestGetProductBySlugAndViews(t *testing.T) {
	s := seed(t, map[string]float64{"Blue Shirt": 2}, "Blue Shirt", "Blue Shirts")
	ctx := context.Background()
	limiter := &onceLimiter{seen: map[string]bool{}}
	h := NewGetProductHandler(s.repo, NewAssembler(s.repo, s.stock, 0), limiter)

	d, err := h.Handle(ctx, GetProductQuery{TenantID: tenant, Slug: "blue-shirt", IP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if d.Name != "Blue Shirt" {
		t.Errorf("slug resolved to %q, want Blue Shirt", d.Name)
	}
	if d.ViewCount != 1 || d.StockStatus != stockdomain.LowStock || len(d.Variants) != 1 {
		t.Errorf("detail = views %d status %s variants %d", d.ViewCount, d.StockStatus, len(d.Variants))
	}

	if _, err := h.Handle(ctx, GetProductQuery{TenantID: tenant, ID: d.ID, IP: "10.0.0.1"}); err != nil {
		t.Fatalf("second view: %v", err)
	}
	stored, _ := s.repo.FindProduct(ctx, tenant, d.ID)
	if stored.ViewCount != 1 {
		t.Errorf("view count after repeat = %d, want 1", stored.ViewCount)
	}

	if _, err := h.Handle(ctx, GetProductQuery{TenantID: tenant, Slug: "blue"}); !apperr.HasCode(err, apperr.NotFound) {
		t.Errorf("partial slug err = %v, want NOT_FOUND", err)
	}

	p := s.products["Blue Shirts"]
	p.SaleOK = false
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := h.Handle(ctx, GetProductQuery{TenantID: tenant, ID: p.ID}); !apperr.HasCode(err, apperr.NotFound) {
		t.Errorf("unlisted err = %v, want NOT_FOUND", err)
	}
	if _, err := h.Handle(ctx, GetProductQuery{TenantID: tenant, ID: p.ID, IncludeArchived: true}); err != nil {
		t.Errorf("admin get unlisted: %v", err)
	}
}

func TestPriceUnderPricelist(t *testing.T) {
	s := seed(t, nil, "Mug")
	ctx := context.Background()
	mug := s.products["Mug"]
	pl := &domain.Pricelist{TenantID: tenant, Name: "Promo", Active: true, Items: []domain.PricelistItem{
		{AppliedOn: domain.AppliedGlobal, Compute: domain.ComputePercentage, PercentDiscount: 10},
		{AppliedOn: domain.AppliedProduct, ProductID: &mug.ID, MinQuantity: 5, Compute: domain.ComputeFixed, FixedPrice: 7.5},
	}}
	if err := s.repo.CreatePricelist(ctx, pl); err != nil {
		t.Fatalf("create pricelist: %v", err)
	}
	h := NewReferenceHandler(s.repo)

	res, err := h.Price(ctx, PriceQuery{TenantID: tenant, PricelistID: pl.ID, ProductID: mug.ID})
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if res.Price != 9 || res.BasePrice != 10 {
		t.Errorf("price = %v from %v, want 9 from 10", res.Price, res.BasePrice)
	}
	res, err = h.Price(ctx, PriceQuery{TenantID: tenant, PricelistID: pl.ID, ProductID: mug.ID, Quantity: 6})
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if res.Price != 7.5 {
		t.Errorf("bulk price = %v, want 7.5", res.Price)
	}
}
