package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tair/tenant-commerce/internal/order/domain"
	"github.com/tair/tenant-commerce/pkg/database"
)

func Models() []interface{} {
	return []interface{}{&domain.Order{}, &domain.OrderLine{}, &domain.Program{}}
}

// GormOrderRepository implements domain.Repository on PostgreSQL.
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func withLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
}

func (r *GormOrderRepository) CreateOrder(ctx context.Context, o *domain.Order) error {
	return database.Translate(database.Conn(ctx, r.db).Create(o).Error, "order")
}

// SaveOrder writes the header, then deletes and re-inserts the lines.
// Existing lines keep their ids.
func (r *GormOrderRepository) SaveOrder(ctx context.Context, o *domain.Order) error {
	db := database.Conn(ctx, r.db)
	if err := db.Omit("Lines").Save(o).Error; err != nil {
		return database.Translate(err, "order")
	}
	if err := db.Where("order_id = ?", o.ID).Delete(&domain.OrderLine{}).Error; err != nil {
		return fmt.Errorf("failed to clear order lines: %w", err)
	}
	for i := range o.Lines {
		o.Lines[i].OrderID = o.ID
	}
	if len(o.Lines) == 0 {
		return nil
	}
	return db.Create(&o.Lines).Error
}

func (r *GormOrderRepository) FindOrder(ctx context.Context, tenantID, id uint) (*domain.Order, error) {
	var o domain.Order
	err := withLines(database.Conn(ctx, r.db)).Where("tenant_id = ?", tenantID).First(&o, id).Error
	if err != nil {
		return nil, database.Translate(err, "order")
	}
	return &o, nil
}

func (r *GormOrderRepository) findCart(ctx context.Context, tenantID uint, where string, arg interface{}) (*domain.Order, error) {
	var o domain.Order
	err := withLines(database.Conn(ctx, r.db)).
		Where("tenant_id = ? AND state = ? AND date_order IS NULL", tenantID, domain.StateDraft).
		Where(where, arg).
		Order("id").First(&o).Error
	if err != nil {
		return nil, database.Translate(err, "cart")
	}
	return &o, nil
}

func (r *GormOrderRepository) FindCartByPartner(ctx context.Context, tenantID, partnerID uint) (*domain.Order, error) {
	return r.findCart(ctx, tenantID, "partner_id = ?", partnerID)
}

func (r *GormOrderRepository) FindCartByToken(ctx context.Context, tenantID uint, token string) (*domain.Order, error) {
	return r.findCart(ctx, tenantID, "cart_token = ?", token)
}

func (r *GormOrderRepository) FindByRecoveryToken(ctx context.Context, tenantID uint, token string) (*domain.Order, error) {
	var o domain.Order
	err := withLines(database.Conn(ctx, r.db)).
		Where("tenant_id = ? AND recovery_token = ?", tenantID, token).
		First(&o).Error
	if err != nil {
		return nil, database.Translate(err, "cart")
	}
	return &o, nil
}

func (r *GormOrderRepository) ListOrders(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int64, error) {
	var (
		orders []domain.Order
		total  int64
	)
	q := database.Conn(ctx, r.db).Model(&domain.Order{}).
		Where("tenant_id = ? AND date_order IS NOT NULL", f.TenantID)
	if f.PartnerID != nil {
		q = q.Where("partner_id = ?", *f.PartnerID)
	}
	if len(f.States) > 0 {
		q = q.Where("state IN ?", f.States)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := withLines(q).Order("date_order DESC, id DESC").Limit(f.Limit).Offset(f.Offset).Find(&orders).Error
	return orders, total, err
}

func (r *GormOrderRepository) CreateProgram(ctx context.Context, p *domain.Program) error {
	return database.Translate(database.Conn(ctx, r.db).Create(p).Error, "coupon")
}

func (r *GormOrderRepository) FindProgram(ctx context.Context, tenantID, id uint) (*domain.Program, error) {
	var p domain.Program
	if err := database.Conn(ctx, r.db).Where("tenant_id = ?", tenantID).First(&p, id).Error; err != nil {
		return nil, database.Translate(err, "coupon")
	}
	return &p, nil
}

func (r *GormOrderRepository) FindProgramByCode(ctx context.Context, tenantID uint, code string) (*domain.Program, error) {
	var p domain.Program
	err := database.Conn(ctx, r.db).Where("tenant_id = ? AND code = ?", tenantID, domain.NormalizeCode(code)).First(&p).Error
	if err != nil {
		return nil, database.Translate(err, "coupon")
	}
	return &p, nil
}

func (r *GormOrderRepository) ListPrograms(ctx context.Context, tenantID uint) ([]domain.Program, error) {
	var programs []domain.Program
	err := database.Conn(ctx, r.db).Where("tenant_id = ?", tenantID).Order("id").Find(&programs).Error
	return programs, err
}
