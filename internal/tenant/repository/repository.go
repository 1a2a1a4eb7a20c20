package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tair/tenant-commerce/internal/tenant/domain"
	"github.com/tair/tenant-commerce/pkg/database"
)

type GormTenantRepository struct {
	db *gorm.DB
}

func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

func (r *GormTenantRepository) Create(ctx context.Context, t *domain.Tenant) error {
	return database.Translate(database.Conn(ctx, r.db).Create(t).Error, "tenant")
}

func (r *GormTenantRepository) Update(ctx context.Context, t *domain.Tenant) error {
	return database.Translate(database.Conn(ctx, r.db).Save(t).Error, "tenant")
}

func (r *GormTenantRepository) FindByID(ctx context.Context, id uint) (*domain.Tenant, error) {
	var t domain.Tenant
	if err := database.Conn(ctx, r.db).First(&t, id).Error; err != nil {
		return nil, database.Translate(err, "tenant")
	}
	return &t, nil
}

func (r *GormTenantRepository) FindByCode(ctx context.Context, code string) (*domain.Tenant, error) {
	var t domain.Tenant
	err := database.Conn(ctx, r.db).Where("lower(code) = lower(?)", code).First(&t).Error
	if err != nil {
		return nil, database.Translate(err, "tenant")
	}
	return &t, nil
}

func (r *GormTenantRepository) FindActiveByPrimaryDomain(ctx context.Context, d string) (*domain.Tenant, error) {
	var t domain.Tenant
	err := database.Conn(ctx, r.db).
		Where("active = ? AND lower(domain) = lower(?)", true, d).
		First(&t).Error
	if err != nil {
		return nil, database.Translate(err, "tenant")
	}
	return &t, nil
}

func (r *GormTenantRepository) ListActive(ctx context.Context) ([]domain.Tenant, error) {
	var tenants []domain.Tenant
	err := database.Conn(ctx, r.db).Where("active = ?", true).Order("id").Find(&tenants).Error
	return tenants, err
}

func (r *GormTenantRepository) List(ctx context.Context, limit, offset int) ([]domain.Tenant, int64, error) {
	var (
		tenants []domain.Tenant
		total   int64
	)
	q := database.Conn(ctx, r.db).Model(&domain.Tenant{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("id").Limit(limit).Offset(offset).Find(&tenants).Error
	return tenants, total, err
}

func (r *GormTenantRepository) CreateCompany(ctx context.Context, c *domain.Company) error {
	return database.Conn(ctx, r.db).Create(c).Error
}

func (r *GormTenantRepository) CreateSubscription(ctx context.Context, s *domain.Subscription) error {
	return database.Conn(ctx, r.db).Create(s).Error
}

func (r *GormTenantRepository) FindSubscription(ctx context.Context, id uint) (*domain.Subscription, error) {
	var s domain.Subscription
	if err := database.Conn(ctx, r.db).First(&s, id).Error; err != nil {
		return nil, database.Translate(err, "subscription")
	}
	return &s, nil
}

// Models lists the tables owned by this package.
func Models() []interface{} {
	return []interface{}{&domain.Tenant{}, &domain.Company{}, &domain.Subscription{}}
}
