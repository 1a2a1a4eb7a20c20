package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tair/tenant-commerce/internal/customer/domain"
	"github.com/tair/tenant-commerce/pkg/database"
)

func Models() []interface{} {
	return []interface{}{&domain.Partner{}}
}

type GormPartnerRepository struct {
	db *gorm.DB
}

func NewGormPartnerRepository(db *gorm.DB) *GormPartnerRepository {
	return &GormPartnerRepository{db: db}
}

func (r *GormPartnerRepository) Create(ctx context.Context, p *domain.Partner) error {
	return database.Translate(database.Conn(ctx, r.db).Create(p).Error, "customer")
}

func (r *GormPartnerRepository) Update(ctx context.Context, p *domain.Partner) error {
	return database.Translate(database.Conn(ctx, r.db).Save(p).Error, "customer")
}

func (r *GormPartnerRepository) FindByID(ctx context.Context, tenantID, id uint) (*domain.Partner, error) {
	var p domain.Partner
	err := database.Conn(ctx, r.db).Where("tenant_id = ?", tenantID).First(&p, id).Error
	if err != nil {
		return nil, database.Translate(err, "customer")
	}
	return &p, nil
}

func (r *GormPartnerRepository) FindByEmail(ctx context.Context, tenantID uint, email string) (*domain.Partner, error) {
	var p domain.Partner
	err := database.Conn(ctx, r.db).
		Where("tenant_id = ? AND active = ? AND lower(email) = ?", tenantID, true, domain.NormalizeEmail(email)).
		Order("id").First(&p).Error
	if err != nil {
		return nil, database.Translate(err, "customer")
	}
	return &p, nil
}

func (r *GormPartnerRepository) FindGuestByEmail(ctx context.Context, tenantID uint, email string) (*domain.Partner, error) {
	var p domain.Partner
	err := database.Conn(ctx, r.db).
		Where("tenant_id = ? AND active = ? AND is_guest = ? AND lower(email) = ?", tenantID, true, true, domain.NormalizeEmail(email)).
		Order("id").First(&p).Error
	if err != nil {
		return nil, database.Translate(err, "customer")
	}
	return &p, nil
}

func (r *GormPartnerRepository) List(ctx context.Context, tenantID uint, f domain.PartnerFilter) ([]domain.Partner, int64, error) {
	var (
		partners []domain.Partner
		total    int64
	)
	q := database.Conn(ctx, r.db).Model(&domain.Partner{}).Where("tenant_id = ? AND active = ?", tenantID, true)
	if !f.IncludeGuest {
		q = q.Where("is_guest = ?", false)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("name ILIKE ? OR email ILIKE ?", like, like)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("id").Limit(f.Limit).Offset(f.Offset).Find(&partners).Error
	return partners, total, err
}
