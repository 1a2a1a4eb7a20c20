package repository

import (
	"context"

	"github.com/tair/tenant-commerce/internal/catalog/domain"
	"github.com/tair/tenant-commerce/pkg/database"
)

func (r *GormCatalogRepository) ListVariants(ctx context.Context, productIDs []uint, includeArchived bool) ([]domain.Variant, error) {
	var variants []domain.Variant
	if len(productIDs) == 0 {
		return variants, nil
	}
	q := database.Conn(ctx, r.db).Where("product_id IN ?", productIDs)
	if !includeArchived {
		q = q.Where("active = ?", true)
	}
	err := q.Order("product_id, id").Find(&variants).Error
	return variants, err
}

func (r *GormCatalogRepository) FindVariant(ctx context.Context, tenantID, id uint) (*domain.Variant, error) {
	var v domain.Variant
	if err := database.Conn(ctx, r.db).Where("tenant_id = ?", tenantID).First(&v, id).Error; err != nil {
		return nil, database.Translate(err, "variant")
	}
	return &v, nil
}

func (r *GormCatalogRepository) FindVariants(ctx context.Context, tenantID uint, ids []uint) ([]domain.Variant, error) {
	var variants []domain.Variant
	if len(ids) == 0 {
		return variants, nil
	}
	err := database.Conn(ctx, r.db).Where("tenant_id = ? AND id IN ?", tenantID, ids).Order("id").Find(&variants).Error
	return variants, err
}

func (r *GormCatalogRepository) CreateVariant(ctx context.Context, v *domain.Variant) error {
	return database.Translate(database.Conn(ctx, r.db).Create(v).Error, "variant")
}

func (r *GormCatalogRepository) UpdateVariant(ctx context.Context, v *domain.Variant) error {
	return database.Translate(database.Conn(ctx, r.db).Save(v).Error, "variant")
}

func (r *GormCatalogRepository) CreateImage(ctx context.Context, img *domain.Image) error {
	return database.Translate(database.Conn(ctx, r.db).Create(img).Error, "image")
}

func (r *GormCatalogRepository) FindImage(ctx context.Context, tenantID, id uint) (*domain.Image, error) {
	var img domain.Image
	if err := database.Conn(ctx, r.db).Where("tenant_id = ?", tenantID).First(&img, id).Error; err != nil {
		return nil, database.Translate(err, "image")
	}
	return &img, nil
}

func (r *GormCatalogRepository) ListImages(ctx context.Context, productIDs []uint) ([]domain.Image, error) {
	var images []domain.Image
	if len(productIDs) == 0 {
		return images, nil
	}
	err := database.Conn(ctx, r.db).Omit("data").Where("product_id IN ?", productIDs).
		Order("sequence, id").Find(&images).Error
	return images, err
}

func (r *GormCatalogRepository) CountPTAVImages(ctx context.Context, ptavID uint) (int64, error) {
	var n int64
	err := database.Conn(ctx, r.db).Model(&domain.Image{}).
		Where("ptav_id = ? AND variant_id IS NULL", ptavID).Count(&n).Error
	return n, err
}

func (r *GormCatalogRepository) DeleteImage(ctx context.Context, id uint) error {
	return database.Conn(ctx, r.db).Delete(&domain.Image{}, id).Error
}

func (r *GormCatalogRepository) UpdateImageSequence(ctx context.Context, id uint, sequence int) error {
	return database.Conn(ctx, r.db).Model(&domain.Image{}).Where("id = ?", id).
		UpdateColumn("sequence", sequence).Error
}
