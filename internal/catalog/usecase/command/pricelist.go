package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/tair/tenant-commerce/internal/catalog/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
)

type PricelistCommand struct {
	TenantID   uint
	Name       string
	CurrencyID *uint
	Sequence   int
	Active     *bool
	Items      []domain.PricelistItem
}

type PricelistHandler struct {
	repo domain.Repository
}

func NewPricelistHandler(repo domain.Repository) *PricelistHandler {
	return &PricelistHandler{repo: repo}
}

func (h *PricelistHandler) Create(ctx context.Context, cmd PricelistCommand) (*domain.Pricelist, error) {
	pl := &domain.Pricelist{TenantID: cmd.TenantID, Active: true}
	if err := h.apply(ctx, pl, cmd); err != nil {
		return nil, err
	}
	if err := h.repo.CreatePricelist(ctx, pl); err != nil {
		return nil, fmt.Errorf("failed to create pricelist: %w", err)
	}
	return pl, nil
}

// Update replaces the pricelist header and its whole item set.
func (h *PricelistHandler) Update(ctx context.Context, id uint, cmd PricelistCommand) (*domain.Pricelist, error) {
	pl, err := h.repo.FindPricelist(ctx, cmd.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := h.apply(ctx, pl, cmd); err != nil {
		return nil, err
	}
	if err := h.repo.UpdatePricelist(ctx, pl); err != nil {
		return nil, fmt.Errorf("failed to update pricelist: %w", err)
	}
	return pl, nil
}

func (h *PricelistHandler) apply(ctx context.Context, pl *domain.Pricelist, cmd PricelistCommand) error {
	if strings.TrimSpace(cmd.Name) == "" {
		return apperr.Validationf("name", "name is required")
	}
	if cmd.CurrencyID != nil {
		currencies, err := h.repo.ListCurrencies(ctx)
		if err != nil {
			return err
		}
		found := false
		for _, c := range currencies {
			found = found || c.ID == *cmd.CurrencyID
		}
		if !found {
			return apperr.Validationf("currency_id", "currency %d does not exist", *cmd.CurrencyID)
		}
	}
	for i, it := range cmd.Items {
		field := fmt.Sprintf("items[%d]", i)
		switch it.AppliedOn {
		case domain.AppliedProduct:
			if it.ProductID == nil {
				return apperr.Validationf(field+".product_id", "product rules need a product")
			}
			if _, err := h.repo.FindProduct(ctx, cmd.TenantID, *it.ProductID); err != nil {
				return apperr.Validationf(field+".product_id", "product %d does not exist", *it.ProductID)
			}
		case domain.AppliedCategory:
			if it.CategoryID == nil {
				return apperr.Validationf(field+".category_id", "category rules need a category")
			}
			if _, err := h.repo.FindCategory(ctx, cmd.TenantID, *it.CategoryID); err != nil {
				return apperr.Validationf(field+".category_id", "category %d does not exist", *it.CategoryID)
			}
		case domain.AppliedGlobal:
		default:
			return apperr.Validationf(field+".applied_on", "unknown scope %q", it.AppliedOn)
		}
		switch it.Compute {
		case domain.ComputeFixed:
			if it.FixedPrice < 0 {
				return apperr.Validationf(field+".fixed_price", "fixed_price must not be negative")
			}
		case domain.ComputePercentage:
			if it.PercentDiscount < 0 || it.PercentDiscount > 100 {
				return apperr.Validationf(field+".percent_price", "percent_price must be between 0 and 100")
			}
		default:
			return apperr.Validationf(field+".compute_price", "unknown compute mode %q", it.Compute)
		}
		if it.DateStart != nil && it.DateEnd != nil && it.DateEnd.Before(*it.DateStart) {
			return apperr.Validationf(field+".date_end", "date_end is before date_start")
		}
	}

	pl.Name = strings.TrimSpace(cmd.Name)
	pl.CurrencyID = cmd.CurrencyID
	pl.Sequence = cmd.Sequence
	setBool(&pl.Active, cmd.Active)
	pl.Items = append([]domain.PricelistItem(nil), cmd.Items...)
	return nil
}
