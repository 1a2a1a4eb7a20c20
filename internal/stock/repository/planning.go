package repository

import (
	"context"

	"github.com/tair/tenant-commerce/internal/stock/domain"
	"github.com/tair/tenant-commerce/pkg/database"
)

func (r *GormStockRepository) CreateLot(ctx context.Context, l *domain.Lot) error {
	return database.Translate(database.Conn(ctx, r.db).Create(l).Error, "lot")
}

func (r *GormStockRepository) ListLots(ctx context.Context, tenantID uint, variantIDs []uint) ([]domain.Lot, error) {
	var out []domain.Lot
	q := database.Conn(ctx, r.db).Where("tenant_id = ?", tenantID)
	if len(variantIDs) > 0 {
		q = q.Where("variant_id IN ?", variantIDs)
	}
	err := q.Order("expiration_date NULLS LAST, id").Find(&out).Error
	return out, err
}

func (r *GormStockRepository) CreateRule(ctx context.Context, rule *domain.ReorderingRule) error {
	return database.Translate(database.Conn(ctx, r.db).Create(rule).Error, "reordering rule")
}

func (r *GormStockRepository) UpdateRule(ctx context.Context, rule *domain.ReorderingRule) error {
	return database.Translate(database.Conn(ctx, r.db).Save(rule).Error, "reordering rule")
}

func (r *GormStockRepository) FindRule(ctx context.Context, tenantID, id uint) (*domain.ReorderingRule, error) {
	var rule domain.ReorderingRule
	if err := database.Conn(ctx, r.db).Where("tenant_id = ?", tenantID).First(&rule, id).Error; err != nil {
		return nil, database.Translate(err, "reordering rule")
	}
	return &rule, nil
}

func (r *GormStockRepository) ListRules(ctx context.Context, tenantID uint, activeOnly bool) ([]domain.ReorderingRule, error) {
	var out []domain.ReorderingRule
	q := database.Conn(ctx, r.db).Where("tenant_id = ?", tenantID)
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	err := q.Order("id").Find(&out).Error
	return out, err
}

func (r *GormStockRepository) CreateCount(ctx context.Context, c *domain.CycleCount) error {
	return database.Translate(database.Conn(ctx, r.db).Omit("Lines").Create(c).Error, "cycle count")
}

func (r *GormStockRepository) SaveCount(ctx context.Context, c *domain.CycleCount) error {
	conn := database.Conn(ctx, r.db)
	if err := conn.Omit("Lines", "Locations").Save(c).Error; err != nil {
		return database.Translate(err, "cycle count")
	}
	return conn.Model(c).Association("Locations").Replace(c.Locations)
}

func (r *GormStockRepository) ReplaceCountLines(ctx context.Context, countID uint, lines []domain.CycleCountLine) error {
	conn := database.Conn(ctx, r.db)
	if err := conn.Where("cycle_count_id = ?", countID).Delete(&domain.CycleCountLine{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		lines[i].ID = 0
		lines[i].CycleCountID = countID
	}
	return conn.Create(&lines).Error
}

func (r *GormStockRepository) FindCount(ctx context.Context, tenantID, id uint) (*domain.CycleCount, error) {
	var c domain.CycleCount
	err := database.Conn(ctx, r.db).Preload("Locations").Preload("Lines").
		Where("tenant_id = ?", tenantID).First(&c, id).Error
	if err != nil {
		return nil, database.Translate(err, "cycle count")
	}
	return &c, nil
}

func (r *GormStockRepository) ListCounts(ctx context.Context, tenantID uint) ([]domain.CycleCount, error) {
	var out []domain.CycleCount
	err := database.Conn(ctx, r.db).Preload("Locations").
		Where("tenant_id = ?", tenantID).Order("id DESC").Find(&out).Error
	return out, err
}

func (r *GormStockRepository) FindCountLine(ctx context.Context, id uint) (*domain.CycleCountLine, error) {
	var l domain.CycleCountLine
	if err := database.Conn(ctx, r.db).First(&l, id).Error; err != nil {
		return nil, database.Translate(err, "cycle count line")
	}
	return &l, nil
}

func (r *GormStockRepository) SaveCountLine(ctx context.Context, l *domain.CycleCountLine) error {
	return database.Translate(database.Conn(ctx, r.db).Save(l).Error, "cycle count line")
}
