package domain

import "context"

type ProductRepository interface {
	CreateProduct(ctx context.Context, p *Product) error
	// UpdateProduct saves every column and replaces tags and taxes.
	UpdateProduct(ctx context.Context, p *Product) error
	FindProduct(ctx context.Context, tenantID, id uint) (*Product, error)
	FindProducts(ctx context.Context, tenantID uint, ids []uint) ([]Product, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]Product, int64, error)
	ListProductSlugs(ctx context.Context, tenantID uint) ([]ProductSlug, error)
	IncrementViewCount(ctx context.Context, id uint) error
}

type AttributeRepository interface {
	CreateAttribute(ctx context.Context, a *Attribute) error
	FindAttribute(ctx context.Context, tenantID, id uint) (*Attribute, error)
	ListAttributes(ctx context.Context, tenantID uint) ([]Attribute, error)
	CreateValue(ctx context.Context, v *AttributeValue) error

	ListLines(ctx context.Context, productID uint) ([]AttributeLine, error)
	FindLine(ctx context.Context, id uint) (*AttributeLine, error)
	SaveLine(ctx context.Context, l *AttributeLine) error
	DeleteLine(ctx context.Context, id uint) error

	// ListPTAVs returns a product's PTAVs, archived ones included.
	ListPTAVs(ctx context.Context, productID uint) ([]PTAV, error)
	SavePTAV(ctx context.Context, p *PTAV) error
}

type VariantRepository interface {
	// ListVariants returns variants of the given products; archived ones
	// only when includeArchived is set.
	ListVariants(ctx context.Context, productIDs []uint, includeArchived bool) ([]Variant, error)
	FindVariant(ctx context.Context, tenantID, id uint) (*Variant, error)
	FindVariants(ctx context.Context, tenantID uint, ids []uint) ([]Variant, error)
	CreateVariant(ctx context.Context, v *Variant) error
	UpdateVariant(ctx context.Context, v *Variant) error
}

type ImageRepository interface {
	CreateImage(ctx context.Context, img *Image) error
	// FindImage includes the image bytes.
	FindImage(ctx context.Context, tenantID, id uint) (*Image, error)
	// ListImages omits the image bytes.
	ListImages(ctx context.Context, productIDs []uint) ([]Image, error)
	CountPTAVImages(ctx context.Context, ptavID uint) (int64, error)
	DeleteImage(ctx context.Context, id uint) error
	UpdateImageSequence(ctx context.Context, id uint, sequence int) error
}

type CategoryRepository interface {
	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	FindCategory(ctx context.Context, tenantID, id uint) (*Category, error)
	ListCategories(ctx context.Context, tenantID uint, includeArchived bool) ([]Category, error)
}

type ReferenceRepository interface {
	CreateRibbon(ctx context.Context, r *Ribbon) error
	UpdateRibbon(ctx context.Context, r *Ribbon) error
	FindRibbon(ctx context.Context, tenantID, id uint) (*Ribbon, error)
	ListRibbons(ctx context.Context, tenantID uint) ([]Ribbon, error)

	CreateTag(ctx context.Context, t *Tag) error
	ListTags(ctx context.Context, tenantID uint) ([]Tag, error)
	CreateTax(ctx context.Context, t *Tax) error
	ListTaxes(ctx context.Context, tenantID uint) ([]Tax, error)

	ListCurrencies(ctx context.Context) ([]Currency, error)
	EnsureCurrencies(ctx context.Context, currencies []Currency) error
}

type PricelistRepository interface {
	CreatePricelist(ctx context.Context, p *Pricelist) error
	// UpdatePricelist replaces the item set.
	UpdatePricelist(ctx context.Context, p *Pricelist) error
	FindPricelist(ctx context.Context, tenantID, id uint) (*Pricelist, error)
	ListPricelists(ctx context.Context, tenantID uint) ([]Pricelist, error)
}

// Repository is the whole catalog store.
type Repository interface {
	ProductRepository
	AttributeRepository
	VariantRepository
	ImageRepository
	CategoryRepository
	ReferenceRepository
	PricelistRepository
}

// StockReader reports on-hand quantities over internal locations.
type StockReader interface {
	OnHand(ctx context.Context, tenantID uint, variantIDs []uint) (map[uint]float64, error)
}

// StockWriter sets a variant's quantity at an internal location; a nil
// location means the tenant's default stock location.
type StockWriter interface {
	SetVariantQuantity(ctx context.Context, tenantID, variantID uint, locationID *uint, qty float64) error
}

type Stock interface {
	StockReader
	StockWriter
}
