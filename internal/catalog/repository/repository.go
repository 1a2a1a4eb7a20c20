package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/tenant-commerce/internal/catalog/domain"
	"github.com/tair/tenant-commerce/pkg/database"
)

func Models() []interface{} {
	return []interface{}{
		&domain.Category{},
		&domain.Ribbon{},
		&domain.Tag{},
		&domain.Tax{},
		&domain.Currency{},
		&domain.Product{},
		&domain.Attribute{},
		&domain.AttributeValue{},
		&domain.AttributeLine{},
		&domain.PTAV{},
		&domain.Variant{},
		&domain.Image{},
		&domain.Pricelist{},
		&domain.PricelistItem{},
	}
}

// GormCatalogRepository stores the catalog in PostgreSQL.
type GormCatalogRepository struct {
	db *gorm.DB
}

func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

func (r *GormCatalogRepository) CreateProduct(ctx context.Context, p *domain.Product) error {
	return database.Translate(database.Conn(ctx, r.db).Create(p).Error, "product")
}

func (r *GormCatalogRepository) UpdateProduct(ctx context.Context, p *domain.Product) error {
	conn := database.Conn(ctx, r.db)
	if err := conn.Omit("Tags", "Taxes").Save(p).Error; err != nil {
		return database.Translate(err, "product")
	}
	if err := conn.Model(p).Association("Tags").Replace(p.Tags); err != nil {
		return err
	}
	return conn.Model(p).Association("Taxes").Replace(p.Taxes)
}

func (r *GormCatalogRepository) FindProduct(ctx context.Context, tenantID, id uint) (*domain.Product, error) {
	var p domain.Product
	err := database.Conn(ctx, r.db).Preload("Tags").Preload("Taxes").
		Where("tenant_id = ?", tenantID).First(&p, id).Error
	if err != nil {
		return nil, database.Translate(err, "product")
	}
	return &p, nil
}

func (r *GormCatalogRepository) FindProducts(ctx context.Context, tenantID uint, ids []uint) ([]domain.Product, error) {
	var products []domain.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := database.Conn(ctx, r.db).Preload("Tags").Preload("Taxes").
		Where("tenant_id = ? AND id IN ?", tenantID, ids).Order("id").Find(&products).Error
	return products, err
}

func (r *GormCatalogRepository) ListProducts(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	var (
		products []domain.Product
		total    int64
	)
	q := database.Conn(ctx, r.db).Model(&domain.Product{}).Where("tenant_id = ?", f.TenantID)
	if !f.IncludeArchived {
		q = q.Where("active = ?", true)
	}
	if f.SaleOnly {
		q = q.Where("sale_ok = ?", true)
	}
	if len(f.CategoryIDs) > 0 {
		q = q.Where("category_id IN ?", f.CategoryIDs)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("(name ILIKE ? OR default_code ILIKE ? OR description_sale ILIKE ?)", like, like, like)
	}
	if f.PriceMin != nil {
		q = q.Where("list_price >= ?", *f.PriceMin)
	}
	if f.PriceMax != nil {
		q = q.Where("list_price <= ?", *f.PriceMax)
	}
	if len(f.AttributeValueIDs) > 0 {
		q = q.Where("id IN (?)", database.Conn(ctx, r.db).Model(&domain.PTAV{}).
			Select("product_id").Where("active = ? AND value_id IN ?", true, f.AttributeValueIDs))
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column := f.Sort.Column()
	if column == "" {
		column = "name"
	}
	q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: f.Desc}).Order("id")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	err := q.Preload("Tags").Preload("Taxes").Find(&products).Error
	return products, total, err
}

func (r *GormCatalogRepository) ListProductSlugs(ctx context.Context, tenantID uint) ([]domain.ProductSlug, error) {
	var slugs []domain.ProductSlug
	err := database.Conn(ctx, r.db).Model(&domain.Product{}).Select("id", "name").
		Where("tenant_id = ? AND active = ? AND sale_ok = ?", tenantID, true, true).
		Order("id").Scan(&slugs).Error
	return slugs, err
}

// IncrementViewCount is a single atomic update so concurrent views never
// lose increments.
func (r *GormCatalogRepository) IncrementViewCount(ctx context.Context, id uint) error {
	return database.Conn(ctx, r.db).Model(&domain.Product{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("COALESCE(view_count, 0) + 1")).Error
}
