package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tair/tenant-commerce/internal/stock/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
)

type CreateLotCommand struct {
	TenantID       uint
	VariantID      uint
	Name           string
	ExpirationDate *time.Time
	UseDate        *time.Time
	RemovalDate    *time.Time
	AlertDate      *time.Time
}

type LotHandler struct {
	repo    domain.PlanningRepository
	catalog domain.ProductCatalog
}

func NewLotHandler(repo domain.PlanningRepository, catalog domain.ProductCatalog) *LotHandler {
	return &LotHandler{repo: repo, catalog: catalog}
}

func (h *LotHandler) Create(ctx context.Context, cmd CreateLotCommand) (*domain.Lot, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, apperr.Validationf("name", "lot name is required")
	}
	if _, err := stockableVariant(ctx, h.catalog, cmd.TenantID, cmd.VariantID); err != nil {
		return nil, err
	}
	lot := &domain.Lot{
		TenantID:       cmd.TenantID,
		VariantID:      cmd.VariantID,
		Name:           name,
		ExpirationDate: cmd.ExpirationDate,
		UseDate:        cmd.UseDate,
		RemovalDate:    cmd.RemovalDate,
		AlertDate:      cmd.AlertDate,
	}
	if err := h.repo.CreateLot(ctx, lot); err != nil {
		return nil, fmt.Errorf("failed to create lot: %w", err)
	}
	return lot, nil
}
