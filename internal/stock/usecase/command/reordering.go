package command

import (
	"context"
	"fmt"

	"github.com/tair/tenant-commerce/internal/stock/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/database"
)

type CreateRuleCommand struct {
	TenantID    uint
	VariantID   uint
	WarehouseID uint
	MinQty      float64
	MaxQty      float64
	Multiple    float64
}

type UpdateRuleCommand struct {
	TenantID uint
	ID       uint
	MinQty   *float64
	MaxQty   *float64
	Multiple *float64
}

type ReorderingHandler struct {
	repo    domain.Repository
	tx      database.Transactor
	catalog domain.ProductCatalog
}

func NewReorderingHandler(repo domain.Repository, tx database.Transactor, catalog domain.ProductCatalog) *ReorderingHandler {
	return &ReorderingHandler{repo: repo, tx: tx, catalog: catalog}
}

func validateRule(r *domain.ReorderingRule) error {
	if r.MinQty < 0 {
		return apperr.Validationf("product_min_qty", "minimum must not be negative")
	}
	if r.MinQty >= r.MaxQty {
		return apperr.Validationf("product_max_qty", "maximum must be greater than minimum")
	}
	if r.Multiple <= 0 {
		return apperr.Validationf("qty_multiple", "multiple must be positive")
	}
	return nil
}

// ensureUnique rejects a second active rule for the same variant and warehouse.
func (h *ReorderingHandler) ensureUnique(ctx context.Context, r *domain.ReorderingRule) error {
	rules, err := h.repo.ListRules(ctx, r.TenantID, true)
	if err != nil {
		return fmt.Errorf("failed to list rules: %w", err)
	}
	for _, other := range rules {
		if other.ID != r.ID && other.VariantID == r.VariantID && other.WarehouseID == r.WarehouseID {
			return apperr.Conflictf("variant %d already has an active rule in warehouse %d", r.VariantID, r.WarehouseID)
		}
	}
	return nil
}

func (h *ReorderingHandler) Create(ctx context.Context, cmd CreateRuleCommand) (*domain.ReorderingRule, error) {
	rule := &domain.ReorderingRule{
		TenantID:    cmd.TenantID,
		VariantID:   cmd.VariantID,
		WarehouseID: cmd.WarehouseID,
		MinQty:      cmd.MinQty,
		MaxQty:      cmd.MaxQty,
		Multiple:    cmd.Multiple,
		Active:      true,
	}
	if rule.Multiple == 0 {
		rule.Multiple = 1
	}
	if err := validateRule(rule); err != nil {
		return nil, err
	}
	if _, err := stockableVariant(ctx, h.catalog, cmd.TenantID, cmd.VariantID); err != nil {
		return nil, err
	}
	if _, err := h.repo.FindWarehouse(ctx, cmd.TenantID, cmd.WarehouseID); err != nil {
		return nil, err
	}
	err := h.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := h.ensureUnique(ctx, rule); err != nil {
			return err
		}
		return h.repo.CreateRule(ctx, rule)
	})
	if err != nil {
		return nil, err
	}
	return rule, nil
}

func (h *ReorderingHandler) Update(ctx context.Context, cmd UpdateRuleCommand) (*domain.ReorderingRule, error) {
	rule, err := h.repo.FindRule(ctx, cmd.TenantID, cmd.ID)
	if err != nil {
		return nil, err
	}
	if cmd.MinQty != nil {
		rule.MinQty = *cmd.MinQty
	}
	if cmd.MaxQty != nil {
		rule.MaxQty = *cmd.MaxQty
	}
	if cmd.Multiple != nil {
		rule.Multiple = *cmd.Multiple
	}
	if err := validateRule(rule); err != nil {
		return nil, err
	}
	if err := h.repo.UpdateRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to update rule: %w", err)
	}
	return rule, nil
}

func (h *ReorderingHandler) Archive(ctx context.Context, tenantID, id uint) (*domain.ReorderingRule, error) {
	rule, err := h.repo.FindRule(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	rule.Active = false
	if err := h.repo.UpdateRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to archive rule: %w", err)
	}
	return rule, nil
}
