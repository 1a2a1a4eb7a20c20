package query

import (
	"context"
	"time"

	"github.com/tair/tenant-commerce/internal/catalog/domain"
)

// ReferenceHandler serves the static catalog vocabularies.
type ReferenceHandler struct {
	repo domain.Repository
}

func NewReferenceHandler(repo domain.Repository) *ReferenceHandler {
	return &ReferenceHandler{repo: repo}
}

func (h *ReferenceHandler) Categories(ctx context.Context, tenantID uint, includeArchived bool) ([]domain.Category, error) {
	out, err := h.repo.ListCategories(ctx, tenantID, includeArchived)
	return nonNil(out), err
}

func (h *ReferenceHandler) Attributes(ctx context.Context, tenantID uint) ([]domain.Attribute, error) {
	out, err := h.repo.ListAttributes(ctx, tenantID)
	return nonNil(out), err
}

// Ribbons lists the tenant's active ribbons.
func (h *ReferenceHandler) Ribbons(ctx context.Context, tenantID uint) ([]domain.Ribbon, error) {
	all, err := h.repo.ListRibbons(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := []domain.Ribbon{}
	for _, rb := range all {
		if rb.Active {
			out = append(out, rb)
		}
	}
	return out, nil
}

func (h *ReferenceHandler) Tags(ctx context.Context, tenantID uint) ([]domain.Tag, error) {
	out, err := h.repo.ListTags(ctx, tenantID)
	return nonNil(out), err
}

func (h *ReferenceHandler) Taxes(ctx context.Context, tenantID uint) ([]domain.Tax, error) {
	out, err := h.repo.ListTaxes(ctx, tenantID)
	return nonNil(out), err
}

func (h *ReferenceHandler) Currencies(ctx context.Context) ([]domain.Currency, error) {
	out, err := h.repo.ListCurrencies(ctx)
	return nonNil(out), err
}

func (h *ReferenceHandler) Pricelists(ctx context.Context, tenantID uint) ([]domain.Pricelist, error) {
	out, err := h.repo.ListPricelists(ctx, tenantID)
	return nonNil(out), err
}

type PriceQuery struct {
	TenantID    uint
	PricelistID uint
	ProductID   uint
	VariantID   *uint
	Quantity    float64
}

type PriceResult struct {
	ProductID uint    `json:"product_id"`
	VariantID *uint   `json:"variant_id,omitempty"`
	BasePrice float64 `json:"base_price"`
	Price     float64 `json:"price"`
	// RuleID is the pricelist item that applied, if any.
	RuleID *uint `json:"rule_id"`
}

// Price computes a product's price under a pricelist.
func (h *ReferenceHandler) Price(ctx context.Context, q PriceQuery) (*PriceResult, error) {
	pl, err := h.repo.FindPricelist(ctx, q.TenantID, q.PricelistID)
	if err != nil {
		return nil, err
	}
	p, err := h.repo.FindProduct(ctx, q.TenantID, q.ProductID)
	if err != nil {
		return nil, err
	}
	base := p.ListPrice
	if q.VariantID != nil {
		v, err := h.repo.FindVariant(ctx, q.TenantID, *q.VariantID)
		if err != nil {
			return nil, err
		}
		if v.ProductID != p.ID {
			return nil, errVariantMismatch
		}
		base = v.EffectiveListPrice(p)
	}
	qty := q.Quantity
	if qty <= 0 {
		qty = 1
	}
	price, item := pl.Price(p, base, qty, time.Now())
	res := &PriceResult{ProductID: p.ID, VariantID: q.VariantID, BasePrice: base, Price: price}
	if item != nil {
		res.RuleID = &item.ID
	}
	return res, nil
}
