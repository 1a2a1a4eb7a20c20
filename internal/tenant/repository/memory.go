package repository

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tair/tenant-commerce/internal/tenant/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/database"
)

// MemoryTenantRepository keeps tenants in process memory.
type MemoryTenantRepository struct {
	mu            sync.RWMutex
	tenants       map[uint]domain.Tenant
	companies     map[uint]domain.Company
	subscriptions map[uint]domain.Subscription
	nextID        uint
}

func NewMemoryTenantRepository() *MemoryTenantRepository {
	return &MemoryTenantRepository{
		tenants:       make(map[uint]domain.Tenant),
		companies:     make(map[uint]domain.Company),
		subscriptions: make(map[uint]domain.Subscription),
	}
}

// Snapshot captures the repository contents for a rollback. IDs keep
// increasing across a rollback.
func (r *MemoryTenantRepository) Snapshot() func() {
	r.mu.RLock()
	tenants := maps.Clone(r.tenants)
	companies := maps.Clone(r.companies)
	subscriptions := maps.Clone(r.subscriptions)
	r.mu.RUnlock()
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.tenants, r.companies, r.subscriptions = tenants, companies, subscriptions
	}
}

func (r *MemoryTenantRepository) id() uint {
	r.nextID++
	return r.nextID
}

func (r *MemoryTenantRepository) Create(_ context.Context, t *domain.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkUnique(t); err != nil {
		return err
	}
	t.ID = r.id()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	r.tenants[t.ID] = *t
	return nil
}

func (r *MemoryTenantRepository) Update(_ context.Context, t *domain.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tenants[t.ID]; !ok {
		return apperr.NotFoundf("tenant")
	}
	if err := r.checkUnique(t); err != nil {
		return err
	}
	t.UpdatedAt = time.Now()
	r.tenants[t.ID] = *t
	return nil
}

// checkUnique mirrors the partial unique indexes on active tenants.
func (r *MemoryTenantRepository) checkUnique(t *domain.Tenant) error {
	if !t.Active {
		return nil
	}
	for _, other := range r.tenants {
		if other.ID == t.ID || !other.Active {
			continue
		}
		if strings.EqualFold(other.Code, t.Code) || strings.EqualFold(other.Domain, t.Domain) {
			return apperr.Conflictf("tenant already exists")
		}
	}
	return nil
}

func (r *MemoryTenantRepository) FindByID(_ context.Context, id uint) (*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tenants[id]
	if !ok {
		return nil, apperr.NotFoundf("tenant")
	}
	return &t, nil
}

func (r *MemoryTenantRepository) FindByCode(_ context.Context, code string) (*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.sorted() {
		if strings.EqualFold(t.Code, code) {
			return &t, nil
		}
	}
	return nil, apperr.NotFoundf("tenant")
}

func (r *MemoryTenantRepository) FindActiveByPrimaryDomain(_ context.Context, d string) (*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.sorted() {
		if t.Active && strings.EqualFold(t.Domain, d) {
			return &t, nil
		}
	}
	return nil, apperr.NotFoundf("tenant")
}

func (r *MemoryTenantRepository) ListActive(_ context.Context) ([]domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Tenant
	for _, t := range r.sorted() {
		if t.Active {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *MemoryTenantRepository) List(_ context.Context, limit, offset int) ([]domain.Tenant, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := r.sorted()
	return database.Page(all, limit, offset), int64(len(all)), nil
}

func (r *MemoryTenantRepository) CreateCompany(_ context.Context, c *domain.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.id()
	c.CreatedAt = time.Now()
	r.companies[c.ID] = *c
	return nil
}

func (r *MemoryTenantRepository) CreateSubscription(_ context.Context, s *domain.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = r.id()
	s.CreatedAt = time.Now()
	r.subscriptions[s.ID] = *s
	return nil
}

func (r *MemoryTenantRepository) FindSubscription(_ context.Context, id uint) (*domain.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.subscriptions[id]
	if !ok {
		return nil, apperr.NotFoundf("subscription")
	}
	return &s, nil
}

func (r *MemoryTenantRepository) sorted() []domain.Tenant {
	out := make([]domain.Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
