package http

import (
	"time"

	"github.com/tair/tenant-commerce/internal/catalog/domain"
	"github.com/tair/tenant-commerce/internal/catalog/usecase/command"
	"github.com/tair/tenant-commerce/internal/gateway"
)

type productRequest struct {
	Name            *string             `json:"name"`
	ListPrice       *float64            `json:"list_price"`
	StandardPrice   *float64            `json:"standard_price"`
	DescriptionSale *string             `json:"description_sale"`
	DefaultCode     *string             `json:"default_code"`
	Barcode         *string             `json:"barcode"`
	Weight          *float64            `json:"weight"`
	Volume          *float64            `json:"volume"`
	Length          *float64            `json:"length"`
	Width           *float64            `json:"width"`
	Height          *float64            `json:"height"`
	Type            *domain.ProductType `json:"type" validate:"omitempty,oneof=product consu service"`
	UOM             *string             `json:"uom"`
	CategoryID      *uint               `json:"category_id"`
	RibbonID        *uint               `json:"ribbon_id"`
	TagIDs          *[]uint             `json:"tag_ids"`
	TaxIDs          *[]uint             `json:"tax_ids"`
	Featured        *bool               `json:"featured"`
	New             *bool               `json:"new"`
	Bestseller      *bool               `json:"bestseller"`
	CompareAtPrice  *float64            `json:"compare_at_price"`
	OfferEndDate    *time.Time          `json:"offer_end_date"`
	WebsiteSequence *int                `json:"website_sequence" validate:"omitempty,gte=0"`
	SaleOK          *bool               `json:"sale_ok"`
}

func (r productRequest) fields() command.ProductFields {
	return command.ProductFields{
		Name:            r.Name,
		ListPrice:       r.ListPrice,
		StandardPrice:   r.StandardPrice,
		DescriptionSale: r.DescriptionSale,
		DefaultCode:     r.DefaultCode,
		Barcode:         r.Barcode,
		Weight:          r.Weight,
		Volume:          r.Volume,
		Length:          r.Length,
		Width:           r.Width,
		Height:          r.Height,
		Type:            r.Type,
		UOM:             r.UOM,
		CategoryID:      r.CategoryID,
		RibbonID:        r.RibbonID,
		TagIDs:          r.TagIDs,
		TaxIDs:          r.TaxIDs,
		Featured:        r.Featured,
		New:             r.New,
		Bestseller:      r.Bestseller,
		CompareAtPrice:  r.CompareAtPrice,
		OfferEndDate:    r.OfferEndDate,
		WebsiteSequence: r.WebsiteSequence,
		SaleOK:          r.SaleOK,
	}
}

func (h *CatalogHandler) createProduct(c *gateway.Call) (interface{}, error) {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	p, err := h.productHandler.Create(c.Ctx, command.CreateProductCommand{TenantID: c.TenantID(), ProductFields: req.fields()})
	if err != nil {
		return nil, err
	}
	c.Target(p.ID)
	return p, nil
}

func (h *CatalogHandler) updateProduct(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	p, err := h.productHandler.Update(c.Ctx, command.UpdateProductCommand{
		TenantID: c.TenantID(), ID: id, ProductFields: req.fields(),
	})
	if err != nil {
		return nil, err
	}
	c.Target(p.ID)
	return p, nil
}

func (h *CatalogHandler) archiveProduct(c *gateway.Call) (interface{}, error) {
	return h.setProductActive(c, false)
}

func (h *CatalogHandler) unarchiveProduct(c *gateway.Call) (interface{}, error) {
	return h.setProductActive(c, true)
}

func (h *CatalogHandler) setProductActive(c *gateway.Call, active bool) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	p, err := h.productHandler.SetActive(c.Ctx, c.TenantID(), id, active)
	if err != nil {
		return nil, err
	}
	c.Target(p.ID)
	return p, nil
}

func (h *CatalogHandler) regenerate(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	c.Target(id)
	return h.regenerateHandler.Handle(c.Ctx, c.TenantID(), id)
}

type setLineRequest struct {
	AttributeID uint   `json:"attribute_id" validate:"required"`
	ValueIDs    []uint `json:"value_ids" validate:"required,min=1"`
	Sequence    *int   `json:"sequence"`
}

func (h *CatalogHandler) setLine(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	var req setLineRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	res, err := h.lineHandler.Set(c.Ctx, command.SetAttributeLineCommand{
		TenantID: c.TenantID(), ProductID: id, AttributeID: req.AttributeID,
		ValueIDs: req.ValueIDs, Sequence: req.Sequence,
	})
	if err != nil {
		return nil, err
	}
	c.Target(id, res.Line.ID)
	return res, nil
}

func (h *CatalogHandler) removeLine(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	c.Target(id)
	return h.lineHandler.Remove(c.Ctx, c.TenantID(), id)
}

type updateVariantRequest struct {
	ListPrice     *float64 `json:"list_price"`
	StandardPrice *float64 `json:"standard_price"`
	DefaultCode   *string  `json:"default_code"`
	Barcode       *string  `json:"barcode"`
}

func (h *CatalogHandler) updateVariant(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	var req updateVariantRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	c.Target(id)
	return h.variantHandler.Handle(c.Ctx, command.UpdateVariantCommand{
		TenantID: c.TenantID(), ID: id, ListPrice: req.ListPrice, StandardPrice: req.StandardPrice,
		DefaultCode: req.DefaultCode, Barcode: req.Barcode,
	})
}

type variantStockRequest struct {
	Quantity   *float64 `json:"quantity" validate:"required,gte=0"`
	LocationID *uint    `json:"location_id"`
}

func (h *CatalogHandler) updateVariantStock(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	var req variantStockRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	c.Target(id)
	return h.stockHandler.Handle(c.Ctx, command.UpdateVariantStockCommand{
		TenantID: c.TenantID(), VariantID: id, Quantity: *req.Quantity, LocationID: req.LocationID,
	})
}

type scopeRequest struct {
	ProductID uint  `json:"product_id" validate:"required"`
	PTAVID    *uint `json:"ptav_id"`
	VariantID *uint `json:"variant_id"`
}

func (r scopeRequest) scope() domain.ImageScope {
	return domain.ImageScope{ProductID: r.ProductID, PTAVID: r.PTAVID, VariantID: r.VariantID}
}

type uploadRequest struct {
	scopeRequest
	Name     string `json:"name"`
	Sequence *int   `json:"sequence"`
	Data     string `json:"data" validate:"required"`
}

func (h *CatalogHandler) uploadImage(c *gateway.Call) (interface{}, error) {
	var req uploadRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	img, err := h.imageHandler.Upload(c.Ctx, command.UploadImageCommand{
		TenantID:  c.TenantID(),
		ProductID: req.ProductID,
		PTAVID:    req.PTAVID,
		VariantID: req.VariantID,
		Name:      req.Name,
		Sequence:  req.Sequence,
		Data:      req.Data,
	})
	if err != nil {
		return nil, err
	}
	c.Target(img.ID)
	return img, nil
}

func (h *CatalogHandler) deleteImage(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	var req scopeRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	if err := h.imageHandler.Delete(c.Ctx, c.TenantID(), id, req.scope()); err != nil {
		return nil, err
	}
	c.Target(id)
	return map[string]uint{"deleted": id}, nil
}

type reorderRequest struct {
	scopeRequest
	ImageIDs []uint `json:"image_ids" validate:"required"`
}

func (h *CatalogHandler) reorderImages(c *gateway.Call) (interface{}, error) {
	var req reorderRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	images, err := h.imageHandler.Reorder(c.Ctx, command.ReorderImagesCommand{
		TenantID: c.TenantID(), Scope: req.scope(), ImageIDs: req.ImageIDs,
	})
	if err != nil {
		return nil, err
	}
	c.Target(req.ImageIDs...)
	return images, nil
}

type valueRequest struct {
	Name      string `json:"name" validate:"required"`
	HTMLColor string `json:"html_color" validate:"omitempty,hexcolor"`
	Sequence  int    `json:"sequence"`
}

type attributeRequest struct {
	Name          string                     `json:"name" validate:"required"`
	DisplayType   domain.DisplayType         `json:"display_type" validate:"omitempty,oneof=swatch pill radio select color"`
	CreateVariant domain.CreateVariantPolicy `json:"create_variant" validate:"omitempty,oneof=always dynamic no_variant"`
	Sequence      int                        `json:"sequence"`
	Values        []valueRequest             `json:"values" validate:"dive"`
}

func (h *CatalogHandler) createAttribute(c *gateway.Call) (interface{}, error) {
	var req attributeRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	cmd := command.CreateAttributeCommand{
		TenantID: c.TenantID(), Name: req.Name, DisplayType: req.DisplayType,
		CreateVariant: req.CreateVariant, Sequence: req.Sequence,
	}
	for _, v := range req.Values {
		cmd.Values = append(cmd.Values, command.CreateValueCommand{Name: v.Name, HTMLColor: v.HTMLColor, Sequence: v.Sequence})
	}
	a, err := h.referenceHandler.CreateAttribute(c.Ctx, cmd)
	if err != nil {
		return nil, err
	}
	c.Target(a.ID)
	return a, nil
}

func (h *CatalogHandler) createValue(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	var req valueRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	v, err := h.referenceHandler.CreateValue(c.Ctx, command.CreateValueCommand{
		TenantID: c.TenantID(), AttributeID: id, Name: req.Name, HTMLColor: req.HTMLColor, Sequence: req.Sequence,
	})
	if err != nil {
		return nil, err
	}
	c.Target(id, v.ID)
	return v, nil
}

type categoryRequest struct {
	Name     string `json:"name" validate:"required"`
	ParentID *uint  `json:"parent_id"`
	Sequence int    `json:"sequence"`
}

func (h *CatalogHandler) createCategory(c *gateway.Call) (interface{}, error) {
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	cat, err := h.categoryHandler.Create(c.Ctx, command.CreateCategoryCommand{
		TenantID: c.TenantID(), Name: req.Name, ParentID: req.ParentID, Sequence: req.Sequence,
	})
	if err != nil {
		return nil, err
	}
	c.Target(cat.ID)
	return cat, nil
}

type updateCategoryRequest struct {
	Name     *string `json:"name"`
	Sequence *int    `json:"sequence"`
}

func (h *CatalogHandler) updateCategory(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	var req updateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	c.Target(id)
	return h.categoryHandler.Update(c.Ctx, command.UpdateCategoryCommand{
		TenantID: c.TenantID(), ID: id, Name: req.Name, Sequence: req.Sequence,
	})
}

type moveRequest struct {
	ParentID *uint `json:"parent_id"`
}

func (h *CatalogHandler) moveCategory(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	var req moveRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	c.Target(id)
	return h.categoryHandler.Move(c.Ctx, c.TenantID(), id, req.ParentID)
}

func (h *CatalogHandler) archiveCategory(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	c.Target(id)
	return h.categoryHandler.Archive(c.Ctx, c.TenantID(), id)
}

type ribbonRequest struct {
	Name      *string                `json:"name"`
	BgColor   *string                `json:"bg_color" validate:"omitempty,hexcolor"`
	TextColor *string                `json:"text_color" validate:"omitempty,hexcolor"`
	Position  *domain.RibbonPosition `json:"position"`
	Style     *domain.RibbonStyle    `json:"style"`
	Active    *bool                  `json:"active"`
}

func (r ribbonRequest) fields() command.RibbonFields {
	return command.RibbonFields{
		Name: r.Name, BgColor: r.BgColor, TextColor: r.TextColor,
		Position: r.Position, Style: r.Style, Active: r.Active,
	}
}

func (h *CatalogHandler) createRibbon(c *gateway.Call) (interface{}, error) {
	var req ribbonRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	rb, err := h.referenceHandler.CreateRibbon(c.Ctx, c.TenantID(), req.fields())
	if err != nil {
		return nil, err
	}
	c.Target(rb.ID)
	return rb, nil
}

func (h *CatalogHandler) updateRibbon(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	var req ribbonRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	c.Target(id)
	return h.referenceHandler.UpdateRibbon(c.Ctx, c.TenantID(), id, req.fields())
}

type tagRequest struct {
	Name string `json:"name" validate:"required"`
}

func (h *CatalogHandler) createTag(c *gateway.Call) (interface{}, error) {
	var req tagRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	t, err := h.referenceHandler.CreateTag(c.Ctx, c.TenantID(), req.Name)
	if err != nil {
		return nil, err
	}
	c.Target(t.ID)
	return t, nil
}

type taxRequest struct {
	Name         string  `json:"name" validate:"required"`
	Amount       float64 `json:"amount" validate:"gte=0,lte=100"`
	PriceInclude bool    `json:"price_include"`
}

func (h *CatalogHandler) createTax(c *gateway.Call) (interface{}, error) {
	var req taxRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	t, err := h.referenceHandler.CreateTax(c.Ctx, c.TenantID(), req.Name, req.Amount, req.PriceInclude)
	if err != nil {
		return nil, err
	}
	c.Target(t.ID)
	return t, nil
}

type pricelistRequest struct {
	Name       string                 `json:"name" validate:"required"`
	CurrencyID *uint                  `json:"currency_id"`
	Sequence   int                    `json:"sequence"`
	Active     *bool                  `json:"active"`
	Items      []domain.PricelistItem `json:"items"`
}

func (r pricelistRequest) command(tenantID uint) command.PricelistCommand {
	return command.PricelistCommand{
		TenantID: tenantID, Name: r.Name, CurrencyID: r.CurrencyID,
		Sequence: r.Sequence, Active: r.Active, Items: r.Items,
	}
}

func (h *CatalogHandler) createPricelist(c *gateway.Call) (interface{}, error) {
	var req pricelistRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	pl, err := h.pricelistHandler.Create(c.Ctx, req.command(c.TenantID()))
	if err != nil {
		return nil, err
	}
	c.Target(pl.ID)
	return pl, nil
}

func (h *CatalogHandler) updatePricelist(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	var req pricelistRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	c.Target(id)
	return h.pricelistHandler.Update(c.Ctx, id, req.command(c.TenantID()))
}
