package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/tenant-commerce/internal/stock/domain"
	"github.com/tair/tenant-commerce/pkg/database"
)

func Models() []interface{} {
	return []interface{}{
		&domain.Location{},
		&domain.Warehouse{},
		&domain.PickingType{},
		&domain.Lot{},
		&domain.Quant{},
		&domain.Picking{},
		&domain.Move{},
		&domain.ReorderingRule{},
		&domain.CycleCount{},
		&domain.CycleCountLine{},
	}
}

// GormStockRepository stores locations, quants and planning data in PostgreSQL.
type GormStockRepository struct {
	db *gorm.DB
}

func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

func (r *GormStockRepository) CreateLocation(ctx context.Context, l *domain.Location) error {
	return database.Translate(database.Conn(ctx, r.db).Create(l).Error, "location")
}

func (r *GormStockRepository) UpdateLocation(ctx context.Context, l *domain.Location) error {
	return database.Translate(database.Conn(ctx, r.db).Save(l).Error, "location")
}

func (r *GormStockRepository) FindLocation(ctx context.Context, tenantID, id uint) (*domain.Location, error) {
	var l domain.Location
	if err := database.Conn(ctx, r.db).Where("tenant_id = ?", tenantID).First(&l, id).Error; err != nil {
		return nil, database.Translate(err, "location")
	}
	return &l, nil
}

func (r *GormStockRepository) ListLocations(ctx context.Context, tenantID uint, includeArchived bool) ([]domain.Location, error) {
	var out []domain.Location
	q := database.Conn(ctx, r.db).Where("tenant_id = ?", tenantID)
	if !includeArchived {
		q = q.Where("active = ?", true)
	}
	err := q.Order("complete_name, id").Find(&out).Error
	return out, err
}

func (r *GormStockRepository) CreateWarehouse(ctx context.Context, w *domain.Warehouse) error {
	return database.Translate(database.Conn(ctx, r.db).Create(w).Error, "warehouse")
}

func (r *GormStockRepository) UpdateWarehouse(ctx context.Context, w *domain.Warehouse) error {
	return database.Translate(database.Conn(ctx, r.db).Save(w).Error, "warehouse")
}

func (r *GormStockRepository) FindWarehouse(ctx context.Context, tenantID, id uint) (*domain.Warehouse, error) {
	var w domain.Warehouse
	if err := database.Conn(ctx, r.db).Where("tenant_id = ?", tenantID).First(&w, id).Error; err != nil {
		return nil, database.Translate(err, "warehouse")
	}
	return &w, nil
}

func (r *GormStockRepository) ListWarehouses(ctx context.Context, tenantID uint) ([]domain.Warehouse, error) {
	var out []domain.Warehouse
	err := database.Conn(ctx, r.db).Where("tenant_id = ? AND active = ?", tenantID, true).Order("id").Find(&out).Error
	return out, err
}

func (r *GormStockRepository) CreatePickingType(ctx context.Context, pt *domain.PickingType) error {
	return database.Translate(database.Conn(ctx, r.db).Create(pt).Error, "picking type")
}

func (r *GormStockRepository) ListPickingTypes(ctx context.Context, tenantID uint) ([]domain.PickingType, error) {
	var out []domain.PickingType
	err := database.Conn(ctx, r.db).Where("tenant_id = ?", tenantID).Order("id").Find(&out).Error
	return out, err
}

// NextPickingNumber reserves the next sequence number of a picking type.
// It must run inside a transaction to hold the row lock.
func (r *GormStockRepository) NextPickingNumber(ctx context.Context, pickingTypeID uint) (int, error) {
	var pt domain.PickingType
	conn := database.Conn(ctx, r.db)
	if err := conn.Clauses(clause.Locking{Strength: "UPDATE"}).First(&pt, pickingTypeID).Error; err != nil {
		return 0, database.Translate(err, "picking type")
	}
	n := pt.NextNumber
	if n < 1 {
		n = 1
	}
	if err := conn.Model(&pt).UpdateColumn("next_number", n+1).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *GormStockRepository) ListQuants(ctx context.Context, f domain.QuantFilter) ([]domain.Quant, error) {
	var out []domain.Quant
	q := database.Conn(ctx, r.db).Model(&domain.Quant{}).Where("quants.tenant_id = ?", f.TenantID)
	if len(f.VariantIDs) > 0 {
		q = q.Where("quants.variant_id IN ?", f.VariantIDs)
	}
	if len(f.LocationIDs) > 0 {
		q = q.Where("quants.location_id IN ?", f.LocationIDs)
	}
	if f.InternalOnly {
		q = q.Joins("JOIN stock_locations l ON l.id = quants.location_id").
			Where("l.usage = ?", domain.UsageInternal)
	}
	err := q.Order("quants.variant_id, quants.location_id").Find(&out).Error
	return out, err
}

func (r *GormStockRepository) LockQuant(ctx context.Context, tenantID, variantID, locationID uint, lotID *uint) (*domain.Quant, error) {
	conn := database.Conn(ctx, r.db)
	find := func() (*domain.Quant, error) {
		var q domain.Quant
		tx := conn.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND variant_id = ? AND location_id = ?", tenantID, variantID, locationID)
		if lotID == nil {
			tx = tx.Where("lot_id IS NULL")
		} else {
			tx = tx.Where("lot_id = ?", *lotID)
		}
		if err := tx.First(&q).Error; err != nil {
			return nil, err
		}
		return &q, nil
	}

	q, err := find()
	if err == nil {
		return q, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	fresh := &domain.Quant{TenantID: tenantID, VariantID: variantID, LocationID: locationID, LotID: lotID}
	if err := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(fresh).Error; err != nil {
		return nil, database.Translate(err, "quant")
	}
	return find()
}

func (r *GormStockRepository) SaveQuant(ctx context.Context, q *domain.Quant) error {
	return database.Translate(database.Conn(ctx, r.db).Save(q).Error, "quant")
}

func (r *GormStockRepository) CreateMove(ctx context.Context, m *domain.Move) error {
	return database.Translate(database.Conn(ctx, r.db).Create(m).Error, "move")
}

func (r *GormStockRepository) UpdateMove(ctx context.Context, m *domain.Move) error {
	return database.Translate(database.Conn(ctx, r.db).Save(m).Error, "move")
}

func (r *GormStockRepository) ListMoves(ctx context.Context, f domain.MoveFilter) ([]domain.Move, error) {
	var out []domain.Move
	q := database.Conn(ctx, r.db).Where("tenant_id = ?", f.TenantID)
	if len(f.VariantIDs) > 0 {
		q = q.Where("variant_id IN ?", f.VariantIDs)
	}
	if len(f.States) > 0 {
		q = q.Where("state IN ?", f.States)
	}
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date <= ?", *f.To)
	}
	if f.PickingID != nil {
		q = q.Where("picking_id = ?", *f.PickingID)
	}
	if len(f.LocationIDs) > 0 {
		q = q.Where("location_id IN ? OR location_dest_id IN ?", f.LocationIDs, f.LocationIDs)
	}
	err := q.Order("date DESC, id DESC").Find(&out).Error
	return out, err
}

func (r *GormStockRepository) CreatePicking(ctx context.Context, p *domain.Picking) error {
	return database.Translate(database.Conn(ctx, r.db).Create(p).Error, "picking")
}

func (r *GormStockRepository) UpdatePicking(ctx context.Context, p *domain.Picking) error {
	return database.Translate(database.Conn(ctx, r.db).Omit("Moves").Save(p).Error, "picking")
}

func (r *GormStockRepository) ListPickings(ctx context.Context, tenantID, orderID uint) ([]domain.Picking, error) {
	var out []domain.Picking
	err := database.Conn(ctx, r.db).Preload("Moves").
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).Order("id").Find(&out).Error
	return out, err
}

func (r *GormStockRepository) CountActivePickings(ctx context.Context, locationID uint) (int64, error) {
	var n int64
	err := database.Conn(ctx, r.db).Model(&domain.Picking{}).
		Where("(location_id = ? OR location_dest_id = ?) AND state NOT IN ?",
			locationID, locationID, []domain.PickingState{domain.PickingDone, domain.PickingCancel}).
		Count(&n).Error
	return n, err
}
