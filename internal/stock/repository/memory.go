package repository

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/tair/tenant-commerce/internal/stock/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
)

// MemoryStockRepository keeps stock state in process memory. LockQuant
// does not block; callers serialize through the use case layer.
type MemoryStockRepository struct {
	mu           sync.RWMutex
	nextID       uint
	locations    map[uint]domain.Location
	warehouses   map[uint]domain.Warehouse
	pickingTypes map[uint]domain.PickingType
	quants       map[uint]domain.Quant
	moves        map[uint]domain.Move
	pickings     map[uint]domain.Picking
	lots         map[uint]domain.Lot
	rules        map[uint]domain.ReorderingRule
	counts       map[uint]domain.CycleCount
	countLines   map[uint]domain.CycleCountLine
}

func NewMemoryStockRepository() *MemoryStockRepository {
	return &MemoryStockRepository{
		locations:    make(map[uint]domain.Location),
		warehouses:   make(map[uint]domain.Warehouse),
		pickingTypes: make(map[uint]domain.PickingType),
		quants:       make(map[uint]domain.Quant),
		moves:        make(map[uint]domain.Move),
		pickings:     make(map[uint]domain.Picking),
		lots:         make(map[uint]domain.Lot),
		rules:        make(map[uint]domain.ReorderingRule),
		counts:       make(map[uint]domain.CycleCount),
		countLines:   make(map[uint]domain.CycleCountLine),
	}
}

// Snapshot captures the repository contents for a rollback. IDs keep
// increasing across a rollback.
func (r *MemoryStockRepository) Snapshot() func() {
	r.mu.RLock()
	locations := maps.Clone(r.locations)
	warehouses := maps.Clone(r.warehouses)
	pickingTypes := maps.Clone(r.pickingTypes)
	quants := maps.Clone(r.quants)
	moves := maps.Clone(r.moves)
	pickings := maps.Clone(r.pickings)
	lots := maps.Clone(r.lots)
	rules := maps.Clone(r.rules)
	counts := maps.Clone(r.counts)
	countLines := maps.Clone(r.countLines)
	r.mu.RUnlock()
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.locations = locations
		r.warehouses = warehouses
		r.pickingTypes = pickingTypes
		r.quants = quants
		r.moves = moves
		r.pickings = pickings
		r.lots = lots
		r.rules = rules
		r.counts = counts
		r.countLines = countLines
	}
}

func (r *MemoryStockRepository) id() uint {
	r.nextID++
	return r.nextID
}

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

func sameLot(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *MemoryStockRepository) CreateLocation(_ context.Context, l *domain.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.ID = r.id()
	now := time.Now()
	l.CreatedAt, l.UpdatedAt = now, now
	r.locations[l.ID] = *l
	return nil
}

func (r *MemoryStockRepository) UpdateLocation(_ context.Context, l *domain.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.locations[l.ID]; !ok {
		return apperr.NotFoundf("location")
	}
	l.UpdatedAt = time.Now()
	r.locations[l.ID] = *l
	return nil
}

func (r *MemoryStockRepository) FindLocation(_ context.Context, tenantID, id uint) (*domain.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.locations[id]
	if !ok || l.TenantID != tenantID {
		return nil, apperr.NotFoundf("location")
	}
	return &l, nil
}

func (r *MemoryStockRepository) ListLocations(_ context.Context, tenantID uint, includeArchived bool) ([]domain.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Location
	for _, l := range sortedValues(r.locations) {
		if l.TenantID == tenantID && (includeArchived || l.Active) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CompleteName < out[j].CompleteName })
	return out, nil
}

func (r *MemoryStockRepository) CreateWarehouse(_ context.Context, w *domain.Warehouse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.warehouses {
		if other.TenantID == w.TenantID && other.Code == w.Code {
			return apperr.Conflictf("warehouse code %q already exists", w.Code)
		}
	}
	w.ID = r.id()
	w.CreatedAt = time.Now()
	r.warehouses[w.ID] = *w
	return nil
}

func (r *MemoryStockRepository) UpdateWarehouse(_ context.Context, w *domain.Warehouse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.warehouses[w.ID]; !ok {
		return apperr.NotFoundf("warehouse")
	}
	r.warehouses[w.ID] = *w
	return nil
}

func (r *MemoryStockRepository) FindWarehouse(_ context.Context, tenantID, id uint) (*domain.Warehouse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.warehouses[id]
	if !ok || w.TenantID != tenantID {
		return nil, apperr.NotFoundf("warehouse")
	}
	return &w, nil
}

func (r *MemoryStockRepository) ListWarehouses(_ context.Context, tenantID uint) ([]domain.Warehouse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Warehouse
	for _, w := range sortedValues(r.warehouses) {
		if w.TenantID == tenantID && w.Active {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *MemoryStockRepository) CreatePickingType(_ context.Context, pt *domain.PickingType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pt.ID = r.id()
	r.pickingTypes[pt.ID] = *pt
	return nil
}

func (r *MemoryStockRepository) ListPickingTypes(_ context.Context, tenantID uint) ([]domain.PickingType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.PickingType
	for _, pt := range sortedValues(r.pickingTypes) {
		if pt.TenantID == tenantID {
			out = append(out, pt)
		}
	}
	return out, nil
}

func (r *MemoryStockRepository) NextPickingNumber(_ context.Context, pickingTypeID uint) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pt, ok := r.pickingTypes[pickingTypeID]
	if !ok {
		return 0, apperr.NotFoundf("picking type")
	}
	n := pt.NextNumber
	if n < 1 {
		n = 1
	}
	pt.NextNumber = n + 1
	r.pickingTypes[pt.ID] = pt
	return n, nil
}

func (r *MemoryStockRepository) ListQuants(_ context.Context, f domain.QuantFilter) ([]domain.Quant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	variants, locations := idSet(f.VariantIDs), idSet(f.LocationIDs)
	var out []domain.Quant
	for _, q := range sortedValues(r.quants) {
		if q.TenantID != f.TenantID {
			continue
		}
		if len(variants) > 0 && !variants[q.VariantID] {
			continue
		}
		if len(locations) > 0 && !locations[q.LocationID] {
			continue
		}
		if f.InternalOnly && r.locations[q.LocationID].Usage != domain.UsageInternal {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

func (r *MemoryStockRepository) LockQuant(_ context.Context, tenantID, variantID, locationID uint, lotID *uint) (*domain.Quant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.quants {
		if q.TenantID == tenantID && q.VariantID == variantID && q.LocationID == locationID && sameLot(q.LotID, lotID) {
			return &q, nil
		}
	}
	q := domain.Quant{ID: r.id(), TenantID: tenantID, VariantID: variantID, LocationID: locationID, LotID: lotID}
	r.quants[q.ID] = q
	return &q, nil
}

func (r *MemoryStockRepository) SaveQuant(_ context.Context, q *domain.Quant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if q.ID == 0 {
		q.ID = r.id()
	}
	q.UpdatedAt = time.Now()
	r.quants[q.ID] = *q
	return nil
}

func (r *MemoryStockRepository) CreateMove(_ context.Context, m *domain.Move) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = r.id()
	r.moves[m.ID] = *m
	return nil
}

func (r *MemoryStockRepository) UpdateMove(_ context.Context, m *domain.Move) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.moves[m.ID]; !ok {
		return apperr.NotFoundf("move")
	}
	r.moves[m.ID] = *m
	return nil
}

func (r *MemoryStockRepository) ListMoves(_ context.Context, f domain.MoveFilter) ([]domain.Move, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	variants, locations := idSet(f.VariantIDs), idSet(f.LocationIDs)
	states := make(map[domain.MoveState]bool, len(f.States))
	for _, s := range f.States {
		states[s] = true
	}
	var out []domain.Move
	for _, m := range r.moves {
		switch {
		case m.TenantID != f.TenantID:
		case len(variants) > 0 && !variants[m.VariantID]:
		case len(states) > 0 && !states[m.State]:
		case f.From != nil && m.Date.Before(*f.From):
		case f.To != nil && m.Date.After(*f.To):
		case f.PickingID != nil && (m.PickingID == nil || *m.PickingID != *f.PickingID):
		case len(locations) > 0 && !locations[m.LocationID] && !locations[m.LocationDestID]:
		default:
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *MemoryStockRepository) CreatePicking(_ context.Context, p *domain.Picking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = r.id()
	p.CreatedAt = time.Now()
	for i := range p.Moves {
		p.Moves[i].ID = r.id()
		p.Moves[i].PickingID = &p.ID
		if p.Moves[i].TenantID == 0 {
			p.Moves[i].TenantID = p.TenantID
		}
		r.moves[p.Moves[i].ID] = p.Moves[i]
	}
	stored := *p
	stored.Moves = nil
	r.pickings[p.ID] = stored
	return nil
}

func (r *MemoryStockRepository) UpdatePicking(_ context.Context, p *domain.Picking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pickings[p.ID]; !ok {
		return apperr.NotFoundf("picking")
	}
	stored := *p
	stored.Moves = nil
	r.pickings[p.ID] = stored
	return nil
}

func (r *MemoryStockRepository) ListPickings(_ context.Context, tenantID, orderID uint) ([]domain.Picking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Picking
	for _, p := range sortedValues(r.pickings) {
		if p.TenantID != tenantID || p.OrderID == nil || *p.OrderID != orderID {
			continue
		}
		for _, m := range sortedValues(r.moves) {
			if m.PickingID != nil && *m.PickingID == p.ID {
				p.Moves = append(p.Moves, m)
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *MemoryStockRepository) CountActivePickings(_ context.Context, locationID uint) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, p := range r.pickings {
		if p.State.Active() && (p.LocationID == locationID || p.LocationDestID == locationID) {
			n++
		}
	}
	return n, nil
}
