package repository

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/tenant-commerce/internal/siteconfig/domain"
	"github.com/tair/tenant-commerce/pkg/database"
)

func Models() []interface{} { return []interface{}{&domain.Param{}} }

type GormParamRepository struct {
	db *gorm.DB
}

func NewGormParamRepository(db *gorm.DB) *GormParamRepository {
	return &GormParamRepository{db: db}
}

func (r *GormParamRepository) List(ctx context.Context, tenantID uint) ([]domain.Param, error) {
	var params []domain.Param
	err := database.Conn(ctx, r.db).Where("tenant_id = ?", tenantID).Order("key").Find(&params).Error
	return params, err
}

func (r *GormParamRepository) Upsert(ctx context.Context, params []domain.Param) error {
	if len(params) == 0 {
		return nil
	}
	return database.Conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&params).Error
}

// MemoryParamRepository keeps params in process memory.
type MemoryParamRepository struct {
	mu     sync.RWMutex
	params map[uint]map[string]domain.Param
}

func NewMemoryParamRepository() *MemoryParamRepository {
	return &MemoryParamRepository{params: make(map[uint]map[string]domain.Param)}
}

// Snapshot captures the stored parameters for a rollback.
func (r *MemoryParamRepository) Snapshot() func() {
	r.mu.RLock()
	params := make(map[uint]map[string]domain.Param, len(r.params))
	for tenantID, byKey := range r.params {
		params[tenantID] = maps.Clone(byKey)
	}
	r.mu.RUnlock()
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.params = params
	}
}

func (r *MemoryParamRepository) List(_ context.Context, tenantID uint) ([]domain.Param, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Param, 0, len(r.params[tenantID]))
	for _, p := range r.params[tenantID] {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r *MemoryParamRepository) Upsert(_ context.Context, params []domain.Param) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range params {
		if r.params[p.TenantID] == nil {
			r.params[p.TenantID] = make(map[string]domain.Param)
		}
		p.UpdatedAt = time.Now()
		r.params[p.TenantID][p.Key] = p
	}
	return nil
}
