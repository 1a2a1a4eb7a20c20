package http

import (
	"time"

	"github.com/tair/tenant-commerce/internal/catalog/domain"
	"github.com/tair/tenant-commerce/internal/catalog/usecase/command"
	"github.com/tair/tenant-commerce/internal/catalog/usecase/query"
	"github.com/tair/tenant-commerce/internal/gateway"
	stockdomain "github.com/tair/tenant-commerce/internal/stock/domain"
	"github.com/tair/tenant-commerce/pkg/database"
	"github.com/tair/tenant-commerce/pkg/ratelimit"
)

// Options tunes the catalog endpoints.
type Options struct {
	ListTTL         time.Duration
	ReferenceMaxAge time.Duration
	CardImages      int
	PTAVImageCap    int
	ListBudget      ratelimit.Budget
}

// CatalogHandler serves the storefront catalog and its administration.
type CatalogHandler struct {
	opts Options

	listHandler       *query.ListProductsHandler
	getHandler        *query.GetProductHandler
	variantsHandler   *query.ListVariantsHandler
	referenceQueries  *query.ReferenceHandler
	imageQuery        *query.GetImageHandler
	productHandler    *command.ProductHandler
	regenerateHandler *command.RegenerateHandler
	lineHandler       *command.AttributeLineHandler
	variantHandler    *command.UpdateVariantHandler
	stockHandler      *command.UpdateVariantStockHandler
	imageHandler      *command.ImageHandler
	categoryHandler   *command.CategoryHandler
	referenceHandler  *command.ReferenceHandler
	pricelistHandler  *command.PricelistHandler
}

func NewCatalogHandler(repo domain.Repository, tx database.Transactor, stock domain.Stock,
	cache query.ResultCache, views query.ViewLimiter, opts Options) *CatalogHandler {
	if opts.ListBudget.Limit == 0 {
		opts.ListBudget = ratelimit.ProductList
	}
	if opts.ReferenceMaxAge <= 0 {
		opts.ReferenceMaxAge = 6 * time.Hour
	}
	assembler := query.NewAssembler(repo, stock, opts.CardImages)
	engine := command.NewVariantEngine(repo)
	list := query.NewListProductsHandler(repo, assembler)
	if cache != nil {
		list.WithCache(cache, opts.ListTTL)
	}
	return &CatalogHandler{
		opts:              opts,
		listHandler:       list,
		getHandler:        query.NewGetProductHandler(repo, assembler, views),
		variantsHandler:   query.NewListVariantsHandler(repo, assembler),
		referenceQueries:  query.NewReferenceHandler(repo),
		imageQuery:        query.NewGetImageHandler(repo),
		productHandler:    command.NewProductHandler(repo, tx, engine),
		regenerateHandler: command.NewRegenerateHandler(repo, tx, engine),
		lineHandler:       command.NewAttributeLineHandler(repo, tx, engine),
		variantHandler:    command.NewUpdateVariantHandler(repo),
		stockHandler:      command.NewUpdateVariantStockHandler(repo, stock),
		imageHandler:      command.NewImageHandler(repo, opts.PTAVImageCap),
		categoryHandler:   command.NewCategoryHandler(repo, tx),
		referenceHandler:  command.NewReferenceHandler(repo),
		pricelistHandler:  command.NewPricelistHandler(repo),
	}
}

// mutation declares an admin catalog write; every one purges cached listings.
func mutation(action string, h gateway.HandlerFunc) gateway.Endpoint {
	return gateway.Endpoint{
		Access:      gateway.Admin,
		Action:      action,
		Invalidates: []string{query.CachePrefix},
		Handle:      h,
	}
}

func (h *CatalogHandler) RegisterRoutes(r *gateway.Router) {
	budget := h.opts.ListBudget
	static := h.opts.ReferenceMaxAge

	r.Post("/products", gateway.Endpoint{Budget: &budget, Handle: h.listProducts})
	r.Post("/products/slug", gateway.Endpoint{Handle: h.getBySlug})
	r.Post("/products/create", mutation("product.create", h.createProduct))
	r.Post("/products/:id", gateway.Endpoint{Handle: h.getProduct})
	r.Post("/products/:id/variants", gateway.Endpoint{Handle: h.listVariants})
	r.Post("/products/:id/update", mutation("product.update", h.updateProduct))
	r.Post("/products/:id/archive", mutation("product.archive", h.archiveProduct))
	r.Post("/products/:id/unarchive", mutation("product.unarchive", h.unarchiveProduct))
	r.Post("/products/:id/regenerate_variants", mutation("product.regenerate_variants", h.regenerate))
	r.Post("/products/:id/attribute_lines/set", mutation("attribute_line.set", h.setLine))
	r.Post("/products/:id/price", gateway.Endpoint{Handle: h.price})
	r.Post("/attribute_lines/:id/remove", mutation("attribute_line.remove", h.removeLine))

	r.Post("/variants/:id/update", mutation("variant.update", h.updateVariant))
	r.Post("/variants/:id/stock", mutation("variant.stock", h.updateVariantStock))

	r.Post("/images/upload", mutation("image.upload", h.uploadImage))
	r.Post("/images/reorder", mutation("image.reorder", h.reorderImages))
	r.Post("/images/:id/delete", mutation("image.delete", h.deleteImage))
	r.Get("/images/:id/raw", gateway.Endpoint{CacheMaxAge: 24 * time.Hour, Handle: h.rawImage})

	r.Post("/attributes", gateway.Endpoint{Handle: h.listAttributes})
	r.Post("/attributes/create", mutation("attribute.create", h.createAttribute))
	r.Post("/attributes/:id/values/create", mutation("attribute_value.create", h.createValue))

	r.Get("/categories", gateway.Endpoint{CacheMaxAge: static, Handle: h.listCategories})
	r.Post("/categories/create", mutation("category.create", h.createCategory))
	r.Post("/categories/:id/update", mutation("category.update", h.updateCategory))
	r.Post("/categories/:id/move", mutation("category.move", h.moveCategory))
	r.Post("/categories/:id/archive", mutation("category.archive", h.archiveCategory))

	r.Get("/ribbons", gateway.Endpoint{CacheMaxAge: static, Handle: h.listRibbons})
	r.Get("/currencies", gateway.Endpoint{CacheMaxAge: 2 * static, Handle: h.listCurrencies})
	r.Get("/pricelists", gateway.Endpoint{CacheMaxAge: static, Handle: h.listPricelists})
	r.Get("/tags", gateway.Endpoint{CacheMaxAge: static, Handle: h.listTags})
	r.Get("/taxes", gateway.Endpoint{CacheMaxAge: static, Handle: h.listTaxes})
	r.Post("/ribbons/create", mutation("ribbon.create", h.createRibbon))
	r.Post("/ribbons/:id/update", mutation("ribbon.update", h.updateRibbon))
	r.Post("/pricelists/create", mutation("pricelist.create", h.createPricelist))
	r.Post("/pricelists/:id/update", mutation("pricelist.update", h.updatePricelist))
	r.Post("/tags/create", mutation("tag.create", h.createTag))
	r.Post("/taxes/create", mutation("tax.create", h.createTax))
}

type listRequest struct {
	CategoryID        *uint                   `json:"category_id"`
	Search            string                  `json:"search"`
	PriceMin          *float64                `json:"price_min" validate:"omitempty,gte=0"`
	PriceMax          *float64                `json:"price_max" validate:"omitempty,gte=0"`
	AttributeValueIDs []uint                  `json:"attribute_value_ids"`
	IncludeArchived   bool                    `json:"include_archived"`
	StockStatus       stockdomain.StockStatus `json:"stock_status" validate:"omitempty,oneof=out_of_stock low_stock in_stock"`
	Sort              domain.SortKey          `json:"sort" validate:"omitempty,oneof=name price qty_available create_date default_code"`
	Order             string                  `json:"order" validate:"omitempty,oneof=asc desc"`
	Limit             int                     `json:"limit" validate:"gte=0,lte=100"`
	Offset            int                     `json:"offset" validate:"gte=0"`
}

func (h *CatalogHandler) listProducts(c *gateway.Call) (interface{}, error) {
	var req listRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	return h.listHandler.Handle(c.Ctx, query.ListProductsQuery{
		TenantID:          c.TenantID(),
		CategoryID:        req.CategoryID,
		Search:            req.Search,
		PriceMin:          req.PriceMin,
		PriceMax:          req.PriceMax,
		AttributeValueIDs: req.AttributeValueIDs,
		IncludeArchived:   req.IncludeArchived && c.IsAdmin(),
		StockStatus:       req.StockStatus,
		Sort:              req.Sort,
		Desc:              req.Order == "desc",
		Limit:             req.Limit,
		Offset:            req.Offset,
	})
}

func (h *CatalogHandler) getProduct(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	return h.getHandler.Handle(c.Ctx, query.GetProductQuery{
		TenantID: c.TenantID(), ID: id, IP: c.IP, IncludeArchived: c.IsAdmin(),
	})
}

type slugRequest struct {
	Slug string `json:"slug" validate:"required"`
}

func (h *CatalogHandler) getBySlug(c *gateway.Call) (interface{}, error) {
	var req slugRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	return h.getHandler.Handle(c.Ctx, query.GetProductQuery{
		TenantID: c.TenantID(), Slug: req.Slug, IP: c.IP,
	})
}

func (h *CatalogHandler) listVariants(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	return h.variantsHandler.Handle(c.Ctx, c.TenantID(), id)
}

type priceRequest struct {
	PricelistID uint    `json:"pricelist_id" validate:"required"`
	VariantID   *uint   `json:"variant_id"`
	Quantity    float64 `json:"quantity" validate:"gte=0"`
}

func (h *CatalogHandler) price(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	var req priceRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	return h.referenceQueries.Price(c.Ctx, query.PriceQuery{
		TenantID: c.TenantID(), PricelistID: req.PricelistID, ProductID: id,
		VariantID: req.VariantID, Quantity: req.Quantity,
	})
}

func (h *CatalogHandler) rawImage(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	img, err := h.imageQuery.Handle(c.Ctx, c.TenantID(), id)
	if err != nil {
		return nil, err
	}
	return gateway.RawBody{ContentType: img.MimeType, Data: img.Data}, nil
}

func (h *CatalogHandler) listAttributes(c *gateway.Call) (interface{}, error) {
	return h.referenceQueries.Attributes(c.Ctx, c.TenantID())
}

func (h *CatalogHandler) listCategories(c *gateway.Call) (interface{}, error) {
	return h.referenceQueries.Categories(c.Ctx, c.TenantID(), false)
}

func (h *CatalogHandler) listRibbons(c *gateway.Call) (interface{}, error) {
	return h.referenceQueries.Ribbons(c.Ctx, c.TenantID())
}

func (h *CatalogHandler) listCurrencies(c *gateway.Call) (interface{}, error) {
	return h.referenceQueries.Currencies(c.Ctx)
}

func (h *CatalogHandler) listPricelists(c *gateway.Call) (interface{}, error) {
	return h.referenceQueries.Pricelists(c.Ctx, c.TenantID())
}

func (h *CatalogHandler) listTags(c *gateway.Call) (interface{}, error) {
	return h.referenceQueries.Tags(c.Ctx, c.TenantID())
}

func (h *CatalogHandler) listTaxes(c *gateway.Call) (interface{}, error) {
	return h.referenceQueries.Taxes(c.Ctx, c.TenantID())
}
