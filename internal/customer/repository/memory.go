package repository

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tair/tenant-commerce/internal/customer/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/database"
)

type MemoryPartnerRepository struct {
	mu       sync.RWMutex
	partners map[uint]domain.Partner
	nextID   uint
}

func NewMemoryPartnerRepository() *MemoryPartnerRepository {
	return &MemoryPartnerRepository{partners: make(map[uint]domain.Partner)}
}

// Snapshot captures the repository contents for a rollback. IDs keep
// increasing across a rollback.
func (r *MemoryPartnerRepository) Snapshot() func() {
	r.mu.RLock()
	partners := maps.Clone(r.partners)
	r.mu.RUnlock()
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.partners = partners
	}
}

func (r *MemoryPartnerRepository) Create(_ context.Context, p *domain.Partner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.partners[p.ID] = *p
	return nil
}

func (r *MemoryPartnerRepository) Update(_ context.Context, p *domain.Partner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.partners[p.ID]; !ok {
		return apperr.NotFoundf("customer")
	}
	p.UpdatedAt = time.Now()
	r.partners[p.ID] = *p
	return nil
}

func (r *MemoryPartnerRepository) FindByID(_ context.Context, tenantID, id uint) (*domain.Partner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.partners[id]
	if !ok || p.TenantID != tenantID {
		return nil, apperr.NotFoundf("customer")
	}
	return &p, nil
}

func (r *MemoryPartnerRepository) FindByEmail(_ context.Context, tenantID uint, email string) (*domain.Partner, error) {
	return r.findByEmail(tenantID, email, false)
}

func (r *MemoryPartnerRepository) FindGuestByEmail(_ context.Context, tenantID uint, email string) (*domain.Partner, error) {
	return r.findByEmail(tenantID, email, true)
}

func (r *MemoryPartnerRepository) findByEmail(tenantID uint, email string, guestOnly bool) (*domain.Partner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	email = domain.NormalizeEmail(email)
	for _, p := range r.sorted() {
		if guestOnly && !p.IsGuest {
			continue
		}
		if p.TenantID == tenantID && p.Active && domain.NormalizeEmail(p.Email) == email {
			return &p, nil
		}
	}
	return nil, apperr.NotFoundf("customer")
}

func (r *MemoryPartnerRepository) List(_ context.Context, tenantID uint, f domain.PartnerFilter) ([]domain.Partner, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	search := strings.ToLower(f.Search)
	var out []domain.Partner
	for _, p := range r.sorted() {
		if p.TenantID != tenantID || !p.Active || (p.IsGuest && !f.IncludeGuest) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Email), search) {
			continue
		}
		out = append(out, p)
	}
	return database.Page(out, f.Limit, f.Offset), int64(len(out)), nil
}

func (r *MemoryPartnerRepository) sorted() []domain.Partner {
	out := make([]domain.Partner, 0, len(r.partners))
	for _, p := range r.partners {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
