package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tair/tenant-commerce/internal/catalog/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/database"
)

// ProductFields are the writable product columns. On update nil leaves
// a column unchanged.
type ProductFields struct {
	Name            *string
	ListPrice       *float64
	StandardPrice   *float64
	DescriptionSale *string
	DefaultCode     *string
	Barcode         *string
	Weight          *float64
	Volume          *float64
	Length          *float64
	Width           *float64
	Height          *float64
	Type            *domain.ProductType
	UOM             *string
	CategoryID      *uint
	RibbonID        *uint
	TagIDs          *[]uint
	TaxIDs          *[]uint
	Featured        *bool
	New             *bool
	Bestseller      *bool
	CompareAtPrice  *float64
	OfferEndDate    *time.Time
	WebsiteSequence *int
	SaleOK          *bool
}

type CreateProductCommand struct {
	TenantID uint
	ProductFields
}

type UpdateProductCommand struct {
	TenantID uint
	ID       uint
	ProductFields
}

type ProductHandler struct {
	repo   domain.Repository
	tx     database.Transactor
	engine *VariantEngine
}

func NewProductHandler(repo domain.Repository, tx database.Transactor, engine *VariantEngine) *ProductHandler {
	return &ProductHandler{repo: repo, tx: tx, engine: engine}
}

func (h *ProductHandler) Create(ctx context.Context, cmd CreateProductCommand) (*domain.Product, error) {
	if cmd.Name == nil || strings.TrimSpace(*cmd.Name) == "" {
		return nil, apperr.Validationf("name", "name is required")
	}
	p := &domain.Product{
		TenantID: cmd.TenantID,
		Type:     domain.TypeStockable,
		UOM:      "Units",
		SaleOK:   true,
		Active:   true,
	}
	if err := h.apply(ctx, p, cmd.ProductFields); err != nil {
		return nil, err
	}
	err := h.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := h.repo.CreateProduct(ctx, p); err != nil {
			return err
		}
		_, err := h.engine.Regenerate(ctx, p)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return p, nil
}

func (h *ProductHandler) Update(ctx context.Context, cmd UpdateProductCommand) (*domain.Product, error) {
	p, err := h.repo.FindProduct(ctx, cmd.TenantID, cmd.ID)
	if err != nil {
		return nil, err
	}
	if cmd.Name != nil && strings.TrimSpace(*cmd.Name) == "" {
		return nil, apperr.Validationf("name", "name must not be empty")
	}
	if err := h.apply(ctx, p, cmd.ProductFields); err != nil {
		return nil, err
	}
	if err := h.repo.UpdateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return p, nil
}

// SetActive archives or restores a product.
func (h *ProductHandler) SetActive(ctx context.Context, tenantID, id uint, active bool) (*domain.Product, error) {
	p, err := h.repo.FindProduct(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if p.Active == active {
		return p, nil
	}
	p.Active = active
	if err := h.repo.UpdateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return p, nil
}

// apply validates f and copies it onto p.
func (h *ProductHandler) apply(ctx context.Context, p *domain.Product, f ProductFields) error {
	for field, v := range map[string]*float64{
		"list_price": f.ListPrice, "standard_price": f.StandardPrice, "weight": f.Weight,
		"volume": f.Volume, "length": f.Length, "width": f.Width, "height": f.Height,
		"compare_at_price": f.CompareAtPrice,
	} {
		if v != nil && *v < 0 {
			return apperr.Validationf(field, "%s must not be negative", field)
		}
	}
	if f.Type != nil && !domain.ValidProductType(*f.Type) {
		return apperr.Validationf("type", "unknown product type %q", *f.Type)
	}
	if f.CategoryID != nil {
		if _, err := h.repo.FindCategory(ctx, p.TenantID, *f.CategoryID); err != nil {
			return apperr.Validationf("category_id", "category %d does not exist", *f.CategoryID)
		}
	}
	if f.RibbonID != nil {
		if _, err := h.repo.FindRibbon(ctx, p.TenantID, *f.RibbonID); err != nil {
			return apperr.Validationf("ribbon_id", "ribbon %d does not exist", *f.RibbonID)
		}
	}
	if f.TagIDs != nil {
		tags, err := h.pickTags(ctx, p.TenantID, *f.TagIDs)
		if err != nil {
			return err
		}
		p.Tags = tags
	}
	if f.TaxIDs != nil {
		taxes, err := h.pickTaxes(ctx, p.TenantID, *f.TaxIDs)
		if err != nil {
			return err
		}
		p.Taxes = taxes
	}

	setString(&p.Name, f.Name)
	setFloat(&p.ListPrice, f.ListPrice)
	setFloat(&p.StandardPrice, f.StandardPrice)
	setString(&p.DescriptionSale, f.DescriptionSale)
	setString(&p.DefaultCode, f.DefaultCode)
	setString(&p.Barcode, f.Barcode)
	setFloat(&p.Weight, f.Weight)
	setFloat(&p.Volume, f.Volume)
	setFloat(&p.Length, f.Length)
	setFloat(&p.Width, f.Width)
	setFloat(&p.Height, f.Height)
	setString(&p.UOM, f.UOM)
	if f.Type != nil {
		p.Type = *f.Type
	}
	if f.CategoryID != nil {
		p.CategoryID = f.CategoryID
	}
	if f.RibbonID != nil {
		p.RibbonID = f.RibbonID
	}
	setBool(&p.Featured, f.Featured)
	setBool(&p.IsNew, f.New)
	setBool(&p.Bestseller, f.Bestseller)
	setBool(&p.SaleOK, f.SaleOK)
	if f.CompareAtPrice != nil {
		p.CompareAtPrice = f.CompareAtPrice
	}
	if f.OfferEndDate != nil {
		p.OfferEndDate = f.OfferEndDate
	}
	if f.WebsiteSequence != nil {
		p.WebsiteSequence = *f.WebsiteSequence
	}
	return nil
}

func (h *ProductHandler) pickTags(ctx context.Context, tenantID uint, ids []uint) ([]domain.Tag, error) {
	all, err := h.repo.ListTags(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]domain.Tag, len(all))
	for _, t := range all {
		byID[t.ID] = t
	}
	out := make([]domain.Tag, 0, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			return nil, apperr.Validationf("tag_ids", "tag %d does not exist", id)
		}
		out = append(out, t)
	}
	return out, nil
}

func (h *ProductHandler) pickTaxes(ctx context.Context, tenantID uint, ids []uint) ([]domain.Tax, error) {
	all, err := h.repo.ListTaxes(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]domain.Tax, len(all))
	for _, t := range all {
		byID[t.ID] = t
	}
	out := make([]domain.Tax, 0, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			return nil, apperr.Validationf("tax_ids", "tax %d does not exist", id)
		}
		out = append(out, t)
	}
	return out, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
