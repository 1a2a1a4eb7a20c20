package repository

import (
	"context"
	"sort"
	"time"

	"github.com/tair/tenant-commerce/internal/catalog/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
)

func (r *MemoryCatalogRepository) CreateCategory(_ context.Context, c *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.id()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.categories[c.ID] = *c
	return nil
}

func (r *MemoryCatalogRepository) UpdateCategory(_ context.Context, c *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[c.ID]; !ok {
		return apperr.NotFoundf("category")
	}
	c.UpdatedAt = time.Now()
	r.categories[c.ID] = *c
	return nil
}

func (r *MemoryCatalogRepository) FindCategory(_ context.Context, tenantID, id uint) (*domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.categories[id]
	if !ok || c.TenantID != tenantID {
		return nil, apperr.NotFoundf("category")
	}
	return &c, nil
}

func (r *MemoryCatalogRepository) ListCategories(_ context.Context, tenantID uint, includeArchived bool) ([]domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Category
	for _, c := range sortedValues(r.categories) {
		if c.TenantID == tenantID && (includeArchived || c.Active) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CompleteName < out[j].CompleteName })
	return out, nil
}

func (r *MemoryCatalogRepository) CreateRibbon(_ context.Context, rb *domain.Ribbon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rb.ID = r.id()
	r.ribbons[rb.ID] = *rb
	return nil
}

func (r *MemoryCatalogRepository) UpdateRibbon(_ context.Context, rb *domain.Ribbon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ribbons[rb.ID]; !ok {
		return apperr.NotFoundf("ribbon")
	}
	r.ribbons[rb.ID] = *rb
	return nil
}

func (r *MemoryCatalogRepository) FindRibbon(_ context.Context, tenantID, id uint) (*domain.Ribbon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rb, ok := r.ribbons[id]
	if !ok || rb.TenantID != tenantID {
		return nil, apperr.NotFoundf("ribbon")
	}
	return &rb, nil
}

func (r *MemoryCatalogRepository) ListRibbons(_ context.Context, tenantID uint) ([]domain.Ribbon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Ribbon
	for _, rb := range sortedValues(r.ribbons) {
		if rb.TenantID == tenantID {
			out = append(out, rb)
		}
	}
	return out, nil
}

func (r *MemoryCatalogRepository) CreateTag(_ context.Context, t *domain.Tag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.id()
	r.tags[t.ID] = *t
	return nil
}

func (r *MemoryCatalogRepository) ListTags(_ context.Context, tenantID uint) ([]domain.Tag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Tag
	for _, t := range sortedValues(r.tags) {
		if t.TenantID == tenantID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryCatalogRepository) CreateTax(_ context.Context, t *domain.Tax) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.id()
	r.taxes[t.ID] = *t
	return nil
}

func (r *MemoryCatalogRepository) ListTaxes(_ context.Context, tenantID uint) ([]domain.Tax, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Tax
	for _, t := range sortedValues(r.taxes) {
		if t.TenantID == tenantID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryCatalogRepository) ListCurrencies(_ context.Context) ([]domain.Currency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Currency
	for _, c := range sortedValues(r.currencies) {
		if c.Active {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *MemoryCatalogRepository) EnsureCurrencies(_ context.Context, currencies []domain.Currency) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	known := make(map[string]bool)
	for _, c := range r.currencies {
		known[c.Code] = true
	}
	for _, c := range currencies {
		if known[c.Code] {
			continue
		}
		c.ID = r.id()
		r.currencies[c.ID] = c
		known[c.Code] = true
	}
	return nil
}

func (r *MemoryCatalogRepository) storePricelist(p *domain.Pricelist) {
	for i := range p.Items {
		p.Items[i].ID = r.id()
		p.Items[i].PricelistID = p.ID
	}
	stored := *p
	stored.Items = append([]domain.PricelistItem(nil), p.Items...)
	r.pricelists[p.ID] = stored
}

func (r *MemoryCatalogRepository) CreatePricelist(_ context.Context, p *domain.Pricelist) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = r.id()
	r.storePricelist(p)
	return nil
}

func (r *MemoryCatalogRepository) UpdatePricelist(_ context.Context, p *domain.Pricelist) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pricelists[p.ID]; !ok {
		return apperr.NotFoundf("pricelist")
	}
	r.storePricelist(p)
	return nil
}

func (r *MemoryCatalogRepository) FindPricelist(_ context.Context, tenantID, id uint) (*domain.Pricelist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pricelists[id]
	if !ok || p.TenantID != tenantID {
		return nil, apperr.NotFoundf("pricelist")
	}
	p.Items = append([]domain.PricelistItem(nil), p.Items...)
	return &p, nil
}

func (r *MemoryCatalogRepository) ListPricelists(_ context.Context, tenantID uint) ([]domain.Pricelist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Pricelist
	for _, p := range sortedValues(r.pricelists) {
		if p.TenantID == tenantID && p.Active {
			p.Items = append([]domain.PricelistItem(nil), p.Items...)
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}
