package repository

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tair/tenant-commerce/internal/catalog/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/database"
)

// MemoryCatalogRepository keeps the catalog in process memory.
type MemoryCatalogRepository struct {
	mu         sync.RWMutex
	nextID     uint
	products   map[uint]domain.Product
	attributes map[uint]domain.Attribute
	values     map[uint]domain.AttributeValue
	lines      map[uint]domain.AttributeLine
	ptavs      map[uint]domain.PTAV
	variants   map[uint]domain.Variant
	images     map[uint]domain.Image
	categories map[uint]domain.Category
	ribbons    map[uint]domain.Ribbon
	tags       map[uint]domain.Tag
	taxes      map[uint]domain.Tax
	currencies map[uint]domain.Currency
	pricelists map[uint]domain.Pricelist
}

func NewMemoryCatalogRepository() *MemoryCatalogRepository {
	return &MemoryCatalogRepository{
		products:   make(map[uint]domain.Product),
		attributes: make(map[uint]domain.Attribute),
		values:     make(map[uint]domain.AttributeValue),
		lines:      make(map[uint]domain.AttributeLine),
		ptavs:      make(map[uint]domain.PTAV),
		variants:   make(map[uint]domain.Variant),
		images:     make(map[uint]domain.Image),
		categories: make(map[uint]domain.Category),
		ribbons:    make(map[uint]domain.Ribbon),
		tags:       make(map[uint]domain.Tag),
		taxes:      make(map[uint]domain.Tax),
		currencies: make(map[uint]domain.Currency),
		pricelists: make(map[uint]domain.Pricelist),
	}
}

// Snapshot captures the repository contents for a rollback. IDs keep
// increasing across a rollback.
func (r *MemoryCatalogRepository) Snapshot() func() {
	r.mu.RLock()
	products := maps.Clone(r.products)
	attributes := maps.Clone(r.attributes)
	values := maps.Clone(r.values)
	lines := maps.Clone(r.lines)
	ptavs := maps.Clone(r.ptavs)
	variants := maps.Clone(r.variants)
	images := maps.Clone(r.images)
	categories := maps.Clone(r.categories)
	ribbons := maps.Clone(r.ribbons)
	tags := maps.Clone(r.tags)
	taxes := maps.Clone(r.taxes)
	currencies := maps.Clone(r.currencies)
	pricelists := maps.Clone(r.pricelists)
	r.mu.RUnlock()
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.products = products
		r.attributes = attributes
		r.values = values
		r.lines = lines
		r.ptavs = ptavs
		r.variants = variants
		r.images = images
		r.categories = categories
		r.ribbons = ribbons
		r.tags = tags
		r.taxes = taxes
		r.currencies = currencies
		r.pricelists = pricelists
	}
}

func (r *MemoryCatalogRepository) id() uint {
	r.nextID++
	return r.nextID
}

// sortedValues returns map values ordered by key.
func sortedValues[T any](m map[uint]T) []T {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func idSet(ids []uint) map[uint]bool {
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func (r *MemoryCatalogRepository) CreateProduct(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = r.id()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.products[p.ID] = *p
	return nil
}

func (r *MemoryCatalogRepository) UpdateProduct(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return apperr.NotFoundf("product")
	}
	p.UpdatedAt = time.Now()
	r.products[p.ID] = *p
	return nil
}

func (r *MemoryCatalogRepository) FindProduct(_ context.Context, tenantID, id uint) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok || p.TenantID != tenantID {
		return nil, apperr.NotFoundf("product")
	}
	return &p, nil
}

func (r *MemoryCatalogRepository) FindProducts(_ context.Context, tenantID uint, ids []uint) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	want := idSet(ids)
	var out []domain.Product
	for _, p := range sortedValues(r.products) {
		if p.TenantID == tenantID && want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *MemoryCatalogRepository) ListProducts(_ context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	categories := idSet(f.CategoryIDs)
	search := strings.ToLower(f.Search)

	withValues := make(map[uint]bool)
	if len(f.AttributeValueIDs) > 0 {
		values := idSet(f.AttributeValueIDs)
		for _, ptav := range r.ptavs {
			if ptav.Active && values[ptav.ValueID] {
				withValues[ptav.ProductID] = true
			}
		}
	}

	var out []domain.Product
	for _, p := range sortedValues(r.products) {
		switch {
		case p.TenantID != f.TenantID:
			continue
		case !f.IncludeArchived && !p.Active:
			continue
		case f.SaleOnly && !p.SaleOK:
			continue
		case len(categories) > 0 && (p.CategoryID == nil || !categories[*p.CategoryID]):
			continue
		case f.PriceMin != nil && p.ListPrice < *f.PriceMin:
			continue
		case f.PriceMax != nil && p.ListPrice > *f.PriceMax:
			continue
		case len(f.AttributeValueIDs) > 0 && !withValues[p.ID]:
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.DefaultCode), search) &&
			!strings.Contains(strings.ToLower(p.DescriptionSale), search) {
			continue
		}
		out = append(out, p)
	}
	sortProducts(out, f.Sort, f.Desc)
	total := int64(len(out))
	if f.Limit > 0 {
		out = database.Page(out, f.Limit, f.Offset)
	}
	return out, total, nil
}

func sortProducts(products []domain.Product, key domain.SortKey, desc bool) {
	less := func(a, b domain.Product) int {
		switch key {
		case domain.SortPrice:
			return compare(a.ListPrice < b.ListPrice, a.ListPrice > b.ListPrice)
		case domain.SortCreateDate:
			return compare(a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.After(b.CreatedAt))
		case domain.SortDefaultCode:
			return strings.Compare(a.DefaultCode, b.DefaultCode)
		default:
			return strings.Compare(a.Name, b.Name)
		}
	}
	sort.SliceStable(products, func(i, j int) bool {
		c := less(products[i], products[j])
		if c == 0 {
			return products[i].ID < products[j].ID
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compare(lt, gt bool) int {
	switch {
	case lt:
		return -1
	case gt:
		return 1
	}
	return 0
}

func (r *MemoryCatalogRepository) ListProductSlugs(_ context.Context, tenantID uint) ([]domain.ProductSlug, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.ProductSlug
	for _, p := range sortedValues(r.products) {
		if p.TenantID == tenantID && p.Active && p.SaleOK {
			out = append(out, domain.ProductSlug{ID: p.ID, Name: p.Name})
		}
	}
	return out, nil
}

func (r *MemoryCatalogRepository) IncrementViewCount(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return apperr.NotFoundf("product")
	}
	p.ViewCount++
	r.products[id] = p
	return nil
}

func (r *MemoryCatalogRepository) CreateAttribute(_ context.Context, a *domain.Attribute) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = r.id()
	for i := range a.Values {
		a.Values[i].ID = r.id()
		a.Values[i].AttributeID = a.ID
		r.values[a.Values[i].ID] = a.Values[i]
	}
	stored := *a
	stored.Values = nil
	r.attributes[a.ID] = stored
	return nil
}

func (r *MemoryCatalogRepository) withValues(a domain.Attribute) domain.Attribute {
	a.Values = nil
	for _, v := range sortedValues(r.values) {
		if v.AttributeID == a.ID {
			a.Values = append(a.Values, v)
		}
	}
	sort.SliceStable(a.Values, func(i, j int) bool { return a.Values[i].Sequence < a.Values[j].Sequence })
	return a
}

func (r *MemoryCatalogRepository) FindAttribute(_ context.Context, tenantID, id uint) (*domain.Attribute, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.attributes[id]
	if !ok || a.TenantID != tenantID {
		return nil, apperr.NotFoundf("attribute")
	}
	a = r.withValues(a)
	return &a, nil
}

func (r *MemoryCatalogRepository) ListAttributes(_ context.Context, tenantID uint) ([]domain.Attribute, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Attribute
	for _, a := range sortedValues(r.attributes) {
		if a.TenantID == tenantID {
			out = append(out, r.withValues(a))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (r *MemoryCatalogRepository) CreateValue(_ context.Context, v *domain.AttributeValue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.attributes[v.AttributeID]; !ok {
		return apperr.NotFoundf("attribute")
	}
	v.ID = r.id()
	r.values[v.ID] = *v
	return nil
}

func (r *MemoryCatalogRepository) ListLines(_ context.Context, productID uint) ([]domain.AttributeLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.AttributeLine
	for _, l := range sortedValues(r.lines) {
		if l.ProductID == productID {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (r *MemoryCatalogRepository) FindLine(_ context.Context, id uint) (*domain.AttributeLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.lines[id]
	if !ok {
		return nil, apperr.NotFoundf("attribute line")
	}
	return &l, nil
}

func (r *MemoryCatalogRepository) SaveLine(_ context.Context, l *domain.AttributeLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.lines {
		if other.ID != l.ID && other.ProductID == l.ProductID && other.AttributeID == l.AttributeID {
			return apperr.Conflictf("attribute line already exists")
		}
	}
	if l.ID == 0 {
		l.ID = r.id()
	}
	r.lines[l.ID] = *l
	return nil
}

func (r *MemoryCatalogRepository) DeleteLine(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lines, id)
	return nil
}

func (r *MemoryCatalogRepository) ListPTAVs(_ context.Context, productID uint) ([]domain.PTAV, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.PTAV
	for _, p := range sortedValues(r.ptavs) {
		if p.ProductID == productID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *MemoryCatalogRepository) SavePTAV(_ context.Context, p *domain.PTAV) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.ptavs {
		if other.ID != p.ID && other.ProductID == p.ProductID && other.ValueID == p.ValueID {
			return apperr.Conflictf("attribute value already exists")
		}
	}
	if p.ID == 0 {
		p.ID = r.id()
	}
	r.ptavs[p.ID] = *p
	return nil
}

func (r *MemoryCatalogRepository) ListVariants(_ context.Context, productIDs []uint, includeArchived bool) ([]domain.Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	want := idSet(productIDs)
	var out []domain.Variant
	for _, v := range sortedValues(r.variants) {
		if want[v.ProductID] && (includeArchived || v.Active) {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (r *MemoryCatalogRepository) FindVariant(_ context.Context, tenantID, id uint) (*domain.Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variants[id]
	if !ok || v.TenantID != tenantID {
		return nil, apperr.NotFoundf("variant")
	}
	return &v, nil
}

func (r *MemoryCatalogRepository) FindVariants(_ context.Context, tenantID uint, ids []uint) ([]domain.Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	want := idSet(ids)
	var out []domain.Variant
	for _, v := range sortedValues(r.variants) {
		if v.TenantID == tenantID && want[v.ID] {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *MemoryCatalogRepository) CreateVariant(_ context.Context, v *domain.Variant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.variants {
		if other.ProductID == v.ProductID && other.Combination == v.Combination {
			return apperr.Conflictf("variant already exists")
		}
	}
	v.ID = r.id()
	v.CreatedAt = time.Now()
	v.UpdatedAt = v.CreatedAt
	r.variants[v.ID] = *v
	return nil
}

func (r *MemoryCatalogRepository) UpdateVariant(_ context.Context, v *domain.Variant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.variants[v.ID]; !ok {
		return apperr.NotFoundf("variant")
	}
	v.UpdatedAt = time.Now()
	r.variants[v.ID] = *v
	return nil
}

func (r *MemoryCatalogRepository) CreateImage(_ context.Context, img *domain.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	img.ID = r.id()
	img.CreatedAt = time.Now()
	r.images[img.ID] = *img
	return nil
}

func (r *MemoryCatalogRepository) FindImage(_ context.Context, tenantID, id uint) (*domain.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	img, ok := r.images[id]
	if !ok || img.TenantID != tenantID {
		return nil, apperr.NotFoundf("image")
	}
	return &img, nil
}

func (r *MemoryCatalogRepository) ListImages(_ context.Context, productIDs []uint) ([]domain.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	want := idSet(productIDs)
	var out []domain.Image
	for _, img := range sortedValues(r.images) {
		if want[img.ProductID] {
			img.Data = nil
			out = append(out, img)
		}
	}
	domain.SortImages(out)
	return out, nil
}

func (r *MemoryCatalogRepository) CountPTAVImages(_ context.Context, ptavID uint) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, img := range r.images {
		if img.PTAVID != nil && *img.PTAVID == ptavID && img.VariantID == nil {
			n++
		}
	}
	return n, nil
}

func (r *MemoryCatalogRepository) DeleteImage(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.images, id)
	return nil
}

func (r *MemoryCatalogRepository) UpdateImageSequence(_ context.Context, id uint, sequence int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.images[id]
	if !ok {
		return apperr.NotFoundf("image")
	}
	img.Sequence = sequence
	r.images[id] = img
	return nil
}
