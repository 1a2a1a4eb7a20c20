package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tair/tenant-commerce/internal/catalog/domain"
	"github.com/tair/tenant-commerce/pkg/database"
)

func (r *GormCatalogRepository) CreateAttribute(ctx context.Context, a *domain.Attribute) error {
	return database.Translate(database.Conn(ctx, r.db).Create(a).Error, "attribute")
}

func (r *GormCatalogRepository) FindAttribute(ctx context.Context, tenantID, id uint) (*domain.Attribute, error) {
	var a domain.Attribute
	err := database.Conn(ctx, r.db).Preload("Values", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence, id")
	}).Where("tenant_id = ?", tenantID).First(&a, id).Error
	if err != nil {
		return nil, database.Translate(err, "attribute")
	}
	return &a, nil
}

func (r *GormCatalogRepository) ListAttributes(ctx context.Context, tenantID uint) ([]domain.Attribute, error) {
	var attrs []domain.Attribute
	err := database.Conn(ctx, r.db).Preload("Values", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence, id")
	}).Where("tenant_id = ?", tenantID).Order("sequence, id").Find(&attrs).Error
	return attrs, err
}

func (r *GormCatalogRepository) CreateValue(ctx context.Context, v *domain.AttributeValue) error {
	return database.Translate(database.Conn(ctx, r.db).Create(v).Error, "attribute value")
}

func (r *GormCatalogRepository) ListLines(ctx context.Context, productID uint) ([]domain.AttributeLine, error) {
	var lines []domain.AttributeLine
	err := database.Conn(ctx, r.db).Where("product_id = ?", productID).Order("sequence, id").Find(&lines).Error
	return lines, err
}

func (r *GormCatalogRepository) FindLine(ctx context.Context, id uint) (*domain.AttributeLine, error) {
	var l domain.AttributeLine
	if err := database.Conn(ctx, r.db).First(&l, id).Error; err != nil {
		return nil, database.Translate(err, "attribute line")
	}
	return &l, nil
}

func (r *GormCatalogRepository) SaveLine(ctx context.Context, l *domain.AttributeLine) error {
	return database.Translate(database.Conn(ctx, r.db).Save(l).Error, "attribute line")
}

func (r *GormCatalogRepository) DeleteLine(ctx context.Context, id uint) error {
	return database.Conn(ctx, r.db).Delete(&domain.AttributeLine{}, id).Error
}

func (r *GormCatalogRepository) ListPTAVs(ctx context.Context, productID uint) ([]domain.PTAV, error) {
	var ptavs []domain.PTAV
	err := database.Conn(ctx, r.db).Where("product_id = ?", productID).Order("id").Find(&ptavs).Error
	return ptavs, err
}

func (r *GormCatalogRepository) SavePTAV(ctx context.Context, p *domain.PTAV) error {
	return database.Translate(database.Conn(ctx, r.db).Save(p).Error, "attribute value")
}
