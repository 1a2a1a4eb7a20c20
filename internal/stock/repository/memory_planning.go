package repository

import (
	"context"
	"time"

	"github.com/tair/tenant-commerce/internal/stock/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
)

func (r *MemoryStockRepository) CreateLot(_ context.Context, l *domain.Lot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.lots {
		if other.TenantID == l.TenantID && other.VariantID == l.VariantID && other.Name == l.Name {
			return apperr.Conflictf("lot %q already exists", l.Name)
		}
	}
	l.ID = r.id()
	l.CreatedAt = time.Now()
	r.lots[l.ID] = *l
	return nil
}

func (r *MemoryStockRepository) ListLots(_ context.Context, tenantID uint, variantIDs []uint) ([]domain.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	variants := idSet(variantIDs)
	var out []domain.Lot
	for _, l := range sortedValues(r.lots) {
		if l.TenantID == tenantID && (len(variants) == 0 || variants[l.VariantID]) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *MemoryStockRepository) CreateRule(_ context.Context, rule *domain.ReorderingRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule.ID = r.id()
	rule.CreatedAt = time.Now()
	r.rules[rule.ID] = *rule
	return nil
}

func (r *MemoryStockRepository) UpdateRule(_ context.Context, rule *domain.ReorderingRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[rule.ID]; !ok {
		return apperr.NotFoundf("reordering rule")
	}
	r.rules[rule.ID] = *rule
	return nil
}

func (r *MemoryStockRepository) FindRule(_ context.Context, tenantID, id uint) (*domain.ReorderingRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[id]
	if !ok || rule.TenantID != tenantID {
		return nil, apperr.NotFoundf("reordering rule")
	}
	return &rule, nil
}

func (r *MemoryStockRepository) ListRules(_ context.Context, tenantID uint, activeOnly bool) ([]domain.ReorderingRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.ReorderingRule
	for _, rule := range sortedValues(r.rules) {
		if rule.TenantID == tenantID && (!activeOnly || rule.Active) {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (r *MemoryStockRepository) CreateCount(_ context.Context, c *domain.CycleCount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.id()
	c.CreatedAt = time.Now()
	r.storeCount(c)
	return nil
}

func (r *MemoryStockRepository) SaveCount(_ context.Context, c *domain.CycleCount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.counts[c.ID]; !ok {
		return apperr.NotFoundf("cycle count")
	}
	r.storeCount(c)
	return nil
}

// storeCount writes the header of c. Callers hold the write lock.
func (r *MemoryStockRepository) storeCount(c *domain.CycleCount) {
	stored := *c
	stored.Lines = nil
	stored.Locations = append([]domain.Location(nil), c.Locations...)
	r.counts[c.ID] = stored
}

func (r *MemoryStockRepository) ReplaceCountLines(_ context.Context, countID uint, lines []domain.CycleCountLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.counts[countID]; !ok {
		return apperr.NotFoundf("cycle count")
	}
	for id, l := range r.countLines {
		if l.CycleCountID == countID {
			delete(r.countLines, id)
		}
	}
	for i := range lines {
		lines[i].ID = r.id()
		lines[i].CycleCountID = countID
		r.countLines[lines[i].ID] = lines[i]
	}
	return nil
}

func (r *MemoryStockRepository) FindCount(_ context.Context, tenantID, id uint) (*domain.CycleCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.counts[id]
	if !ok || c.TenantID != tenantID {
		return nil, apperr.NotFoundf("cycle count")
	}
	for _, l := range sortedValues(r.countLines) {
		if l.CycleCountID == id {
			c.Lines = append(c.Lines, l)
		}
	}
	return &c, nil
}

func (r *MemoryStockRepository) ListCounts(_ context.Context, tenantID uint) ([]domain.CycleCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := sortedValues(r.counts)
	out := make([]domain.CycleCount, 0, len(counts))
	for i := len(counts) - 1; i >= 0; i-- {
		if counts[i].TenantID == tenantID {
			out = append(out, counts[i])
		}
	}
	return out, nil
}

func (r *MemoryStockRepository) FindCountLine(_ context.Context, id uint) (*domain.CycleCountLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.countLines[id]
	if !ok {
		return nil, apperr.NotFoundf("cycle count line")
	}
	return &l, nil
}

func (r *MemoryStockRepository) SaveCountLine(_ context.Context, l *domain.CycleCountLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.countLines[l.ID]; !ok {
		return apperr.NotFoundf("cycle count line")
	}
	r.countLines[l.ID] = *l
	return nil
}
