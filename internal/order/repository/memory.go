package repository

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/tair/tenant-commerce/internal/order/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/database"
)

// MemoryOrderRepository keeps orders and programs in process memory.
type MemoryOrderRepository struct {
	mu       sync.RWMutex
	nextID   uint
	orders   map[uint]domain.Order
	programs map[uint]domain.Program
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders:   make(map[uint]domain.Order),
		programs: make(map[uint]domain.Program),
	}
}

// Snapshot captures the repository contents for a rollback. IDs keep
// increasing across a rollback.
func (r *MemoryOrderRepository) Snapshot() func() {
	r.mu.RLock()
	orders := maps.Clone(r.orders)
	programs := maps.Clone(r.programs)
	r.mu.RUnlock()
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.orders, r.programs = orders, programs
	}
}

func (r *MemoryOrderRepository) id() uint {
	r.nextID++
	return r.nextID
}

func cloneOrder(o domain.Order) *domain.Order {
	o.Lines = append([]domain.OrderLine(nil), o.Lines...)
	return &o
}

func (r *MemoryOrderRepository) store(o *domain.Order) {
	for i := range o.Lines {
		if o.Lines[i].ID == 0 {
			o.Lines[i].ID = r.id()
		}
		o.Lines[i].OrderID = o.ID
	}
	o.UpdatedAt = time.Now()
	r.orders[o.ID] = *cloneOrder(*o)
}

func (r *MemoryOrderRepository) openCart(tenantID uint, partnerID *uint, exclude uint) bool {
	if partnerID == nil {
		return false
	}
	for _, o := range r.orders {
		if o.ID != exclude && o.TenantID == tenantID && o.IsCart() && o.PartnerID != nil && *o.PartnerID == *partnerID {
			return true
		}
	}
	return false
}

func (r *MemoryOrderRepository) CreateOrder(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.IsCart() && r.openCart(o.TenantID, o.PartnerID, 0) {
		return apperr.Conflictf("cart already exists")
	}
	o.ID = r.id()
	o.CreatedAt = time.Now()
	r.store(o)
	return nil
}

func (r *MemoryOrderRepository) SaveOrder(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; !ok {
		return apperr.NotFoundf("order")
	}
	if o.IsCart() && r.openCart(o.TenantID, o.PartnerID, o.ID) {
		return apperr.Conflictf("cart already exists")
	}
	r.store(o)
	return nil
}

func (r *MemoryOrderRepository) FindOrder(_ context.Context, tenantID, id uint) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok || o.TenantID != tenantID {
		return nil, apperr.NotFoundf("order")
	}
	return cloneOrder(o), nil
}

func (r *MemoryOrderRepository) find(match func(o domain.Order) bool) (*domain.Order, bool) {
	var found *domain.Order
	for _, o := range r.orders {
		if match(o) && (found == nil || o.ID < found.ID) {
			found = cloneOrder(o)
		}
	}
	return found, found != nil
}

func (r *MemoryOrderRepository) FindCartByPartner(_ context.Context, tenantID, partnerID uint) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.find(func(o domain.Order) bool {
		return o.TenantID == tenantID && o.IsCart() && o.PartnerID != nil && *o.PartnerID == partnerID
	})
	if !ok {
		return nil, apperr.NotFoundf("cart")
	}
	return o, nil
}

func (r *MemoryOrderRepository) FindCartByToken(_ context.Context, tenantID uint, token string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.find(func(o domain.Order) bool {
		return o.TenantID == tenantID && o.IsCart() && token != "" && o.CartToken == token
	})
	if !ok {
		return nil, apperr.NotFoundf("cart")
	}
	return o, nil
}

func (r *MemoryOrderRepository) FindByRecoveryToken(_ context.Context, tenantID uint, token string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.find(func(o domain.Order) bool {
		return o.TenantID == tenantID && token != "" && o.RecoveryToken == token
	})
	if !ok {
		return nil, apperr.NotFoundf("cart")
	}
	return o, nil
}

func (r *MemoryOrderRepository) ListOrders(_ context.Context, f domain.OrderFilter) ([]domain.Order, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	states := make(map[domain.State]bool, len(f.States))
	for _, s := range f.States {
		states[s] = true
	}
	var out []domain.Order
	for _, o := range r.orders {
		switch {
		case o.TenantID != f.TenantID, o.DateOrder == nil:
		case f.PartnerID != nil && (o.PartnerID == nil || *o.PartnerID != *f.PartnerID):
		case len(states) > 0 && !states[o.State]:
		default:
			out = append(out, *cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DateOrder.Equal(*out[j].DateOrder) {
			return out[i].DateOrder.After(*out[j].DateOrder)
		}
		return out[i].ID > out[j].ID
	})
	limit := f.Limit
	if limit <= 0 {
		limit = len(out)
	}
	return database.Page(out, limit, f.Offset), int64(len(out)), nil
}

func (r *MemoryOrderRepository) CreateProgram(_ context.Context, p *domain.Program) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.programs {
		if other.TenantID == p.TenantID && other.Code == p.Code {
			return apperr.Conflictf("coupon %s already exists", p.Code)
		}
	}
	p.ID = r.id()
	p.CreatedAt = time.Now()
	r.programs[p.ID] = *p
	return nil
}

func (r *MemoryOrderRepository) FindProgram(_ context.Context, tenantID, id uint) (*domain.Program, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.programs[id]
	if !ok || p.TenantID != tenantID {
		return nil, apperr.NotFoundf("coupon")
	}
	return &p, nil
}

func (r *MemoryOrderRepository) FindProgramByCode(_ context.Context, tenantID uint, code string) (*domain.Program, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	code = domain.NormalizeCode(code)
	for _, p := range r.programs {
		if p.TenantID == tenantID && p.Code == code {
			return &p, nil
		}
	}
	return nil, apperr.NotFoundf("coupon")
}

func (r *MemoryOrderRepository) ListPrograms(_ context.Context, tenantID uint) ([]domain.Program, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.Program{}
	for _, p := range r.programs {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
