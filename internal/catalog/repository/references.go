package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/tenant-commerce/internal/catalog/domain"
	"github.com/tair/tenant-commerce/pkg/database"
)

func (r *GormCatalogRepository) CreateCategory(ctx context.Context, c *domain.Category) error {
	return database.Translate(database.Conn(ctx, r.db).Create(c).Error, "category")
}

func (r *GormCatalogRepository) UpdateCategory(ctx context.Context, c *domain.Category) error {
	return database.Translate(database.Conn(ctx, r.db).Save(c).Error, "category")
}

func (r *GormCatalogRepository) FindCategory(ctx context.Context, tenantID, id uint) (*domain.Category, error) {
	var c domain.Category
	if err := database.Conn(ctx, r.db).Where("tenant_id = ?", tenantID).First(&c, id).Error; err != nil {
		return nil, database.Translate(err, "category")
	}
	return &c, nil
}

func (r *GormCatalogRepository) ListCategories(ctx context.Context, tenantID uint, includeArchived bool) ([]domain.Category, error) {
	var categories []domain.Category
	q := database.Conn(ctx, r.db).Where("tenant_id = ?", tenantID)
	if !includeArchived {
		q = q.Where("active = ?", true)
	}
	err := q.Order("complete_name, id").Find(&categories).Error
	return categories, err
}

func (r *GormCatalogRepository) CreateRibbon(ctx context.Context, rb *domain.Ribbon) error {
	return database.Translate(database.Conn(ctx, r.db).Create(rb).Error, "ribbon")
}

func (r *GormCatalogRepository) UpdateRibbon(ctx context.Context, rb *domain.Ribbon) error {
	return database.Translate(database.Conn(ctx, r.db).Save(rb).Error, "ribbon")
}

func (r *GormCatalogRepository) FindRibbon(ctx context.Context, tenantID, id uint) (*domain.Ribbon, error) {
	var rb domain.Ribbon
	if err := database.Conn(ctx, r.db).Where("tenant_id = ?", tenantID).First(&rb, id).Error; err != nil {
		return nil, database.Translate(err, "ribbon")
	}
	return &rb, nil
}

func (r *GormCatalogRepository) ListRibbons(ctx context.Context, tenantID uint) ([]domain.Ribbon, error) {
	var ribbons []domain.Ribbon
	err := database.Conn(ctx, r.db).Where("tenant_id = ?", tenantID).Order("id").Find(&ribbons).Error
	return ribbons, err
}

func (r *GormCatalogRepository) CreateTag(ctx context.Context, t *domain.Tag) error {
	return database.Translate(database.Conn(ctx, r.db).Create(t).Error, "tag")
}

func (r *GormCatalogRepository) ListTags(ctx context.Context, tenantID uint) ([]domain.Tag, error) {
	var tags []domain.Tag
	err := database.Conn(ctx, r.db).Where("tenant_id = ?", tenantID).Order("name").Find(&tags).Error
	return tags, err
}

func (r *GormCatalogRepository) CreateTax(ctx context.Context, t *domain.Tax) error {
	return database.Translate(database.Conn(ctx, r.db).Create(t).Error, "tax")
}

func (r *GormCatalogRepository) ListTaxes(ctx context.Context, tenantID uint) ([]domain.Tax, error) {
	var taxes []domain.Tax
	err := database.Conn(ctx, r.db).Where("tenant_id = ?", tenantID).Order("name").Find(&taxes).Error
	return taxes, err
}

func (r *GormCatalogRepository) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	var currencies []domain.Currency
	err := database.Conn(ctx, r.db).Where("active = ?", true).Order("code").Find(&currencies).Error
	return currencies, err
}

func (r *GormCatalogRepository) EnsureCurrencies(ctx context.Context, currencies []domain.Currency) error {
	if len(currencies) == 0 {
		return nil
	}
	return database.Conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(&currencies).Error
}

func (r *GormCatalogRepository) CreatePricelist(ctx context.Context, p *domain.Pricelist) error {
	return database.Translate(database.Conn(ctx, r.db).Create(p).Error, "pricelist")
}

func (r *GormCatalogRepository) UpdatePricelist(ctx context.Context, p *domain.Pricelist) error {
	conn := database.Conn(ctx, r.db)
	if err := conn.Omit("Items").Save(p).Error; err != nil {
		return database.Translate(err, "pricelist")
	}
	if err := conn.Where("pricelist_id = ?", p.ID).Delete(&domain.PricelistItem{}).Error; err != nil {
		return err
	}
	for i := range p.Items {
		p.Items[i].ID = 0
		p.Items[i].PricelistID = p.ID
	}
	if len(p.Items) == 0 {
		return nil
	}
	return conn.Create(&p.Items).Error
}

func (r *GormCatalogRepository) FindPricelist(ctx context.Context, tenantID, id uint) (*domain.Pricelist, error) {
	var p domain.Pricelist
	err := database.Conn(ctx, r.db).Preload("Items", itemOrder).Where("tenant_id = ?", tenantID).First(&p, id).Error
	if err != nil {
		return nil, database.Translate(err, "pricelist")
	}
	return &p, nil
}

func (r *GormCatalogRepository) ListPricelists(ctx context.Context, tenantID uint) ([]domain.Pricelist, error) {
	var lists []domain.Pricelist
	err := database.Conn(ctx, r.db).Preload("Items", itemOrder).
		Where("tenant_id = ? AND active = ?", tenantID, true).Order("sequence, id").Find(&lists).Error
	return lists, err
}

func itemOrder(db *gorm.DB) *gorm.DB { return db.Order("id") }
