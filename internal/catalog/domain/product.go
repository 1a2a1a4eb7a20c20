package domain

import (
	"strings"
	"time"
)

// ProductType drives stock accounting: only stockable products have quants.
type ProductType string

const (
	TypeStockable  ProductType = "product"
	TypeConsumable ProductType = "consu"
	TypeService    ProductType = "service"
)

func ValidProductType(t ProductType) bool {
	switch t {
	case TypeStockable, TypeConsumable, TypeService:
		return true
	}
	return false
}

// Product is a sellable template scoped to one tenant.
type Product struct {
	ID              uint        `json:"id" gorm:"primaryKey"`
	TenantID        uint        `json:"tenant_id" gorm:"not null;index"`
	Name            string      `json:"name" gorm:"not null"`
	ListPrice       float64     `json:"list_price"`
	StandardPrice   float64     `json:"standard_price"`
	DescriptionSale string      `json:"description_sale" gorm:"type:text"`
	DefaultCode     string      `json:"default_code" gorm:"size:128;index"`
	Barcode         string      `json:"barcode" gorm:"size:128"`
	Weight          float64     `json:"weight"`
	Volume          float64     `json:"volume"`
	Length          float64     `json:"length"`
	Width           float64     `json:"width"`
	Height          float64     `json:"height"`
	Type            ProductType `json:"type" gorm:"size:16;not null"`
	UOM             string      `json:"uom" gorm:"size:32"`
	CategoryID      *uint       `json:"category_id" gorm:"index"`
	Tags            []Tag       `json:"tags" gorm:"many2many:product_tag_rel"`
	Taxes           []Tax       `json:"taxes" gorm:"many2many:product_tax_rel"`
	RibbonID        *uint       `json:"ribbon_id"`

	Featured       bool       `json:"featured"`
	IsNew          bool       `json:"new" gorm:"column:is_new"`
	Bestseller     bool       `json:"bestseller"`
	CompareAtPrice *float64   `json:"compare_at_price"`
	OfferEndDate   *time.Time `json:"offer_end_date"`
	// WebsiteSequence > 0 marks a featured product and orders the featured list.
	WebsiteSequence int   `json:"website_sequence"`
	ViewCount       int64 `json:"view_count"`

	SaleOK    bool      `json:"sale_ok"`
	Active    bool      `json:"active" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Product) TableName() string { return "products" }

// IsStockable reports whether the product's quantity is tracked.
func (p *Product) IsStockable() bool { return p.Type == TypeStockable }

// IsFeatured combines the explicit flag with a positive website sequence.
func (p *Product) IsFeatured() bool { return p.Featured || p.WebsiteSequence > 0 }

// Slug lowercases s and replaces spaces with '-'.
func Slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}

// Slug is the product's URL name.
func (p *Product) Slug() string { return Slug(p.Name) }

// ProductSlug is the light projection used for slug lookups.
type ProductSlug struct {
	ID   uint
	Name string
}

// SortKey orders product listings.
type SortKey string

const (
	SortName         SortKey = "name"
	SortPrice        SortKey = "price"
	SortQtyAvailable SortKey = "qty_available"
	SortCreateDate   SortKey = "create_date"
	SortDefaultCode  SortKey = "default_code"
)

func ValidSortKey(k SortKey) bool {
	switch k {
	case SortName, SortPrice, SortQtyAvailable, SortCreateDate, SortDefaultCode:
		return true
	}
	return false
}

// Column maps a storable sort key to its column; qty_available has none.
func (k SortKey) Column() string {
	switch k {
	case SortPrice:
		return "list_price"
	case SortCreateDate:
		return "created_at"
	case SortDefaultCode:
		return "default_code"
	case SortQtyAvailable:
		return ""
	default:
		return "name"
	}
}

// ProductFilter is the storage-level listing filter. Every field but
// TenantID is optional.
type ProductFilter struct {
	TenantID          uint
	CategoryIDs       []uint
	Search            string
	PriceMin          *float64
	PriceMax          *float64
	AttributeValueIDs []uint
	IncludeArchived   bool
	// SaleOnly restricts to sale_ok products.
	SaleOnly bool
	Sort     SortKey
	Desc     bool
	// Limit <= 0 returns every match.
	Limit  int
	Offset int
}
