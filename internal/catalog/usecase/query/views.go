package query

import (
	"time"

	"github.com/tair/tenant-commerce/internal/catalog/domain"
	stockdomain "github.com/tair/tenant-commerce/internal/stock/domain"
)

type RibbonView struct {
	Name      string                `json:"name"`
	BgColor   string                `json:"bg_color"`
	TextColor string                `json:"text_color"`
	Position  domain.RibbonPosition `json:"position"`
	Style     domain.RibbonStyle    `json:"style"`
}

type CategorySummary struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	CompleteName string `json:"complete_name"`
}

type ImageView struct {
	ID        uint   `json:"id"`
	URL       string `json:"url"`
	Name      string `json:"name"`
	Sequence  int    `json:"sequence"`
	PTAVID    *uint  `json:"ptav_id,omitempty"`
	VariantID *uint  `json:"variant_id,omitempty"`
}

func imageViews(images []domain.Image) []ImageView {
	out := make([]ImageView, 0, len(images))
	for _, img := range images {
		out = append(out, ImageView{
			ID:        img.ID,
			URL:       domain.ImageURL(img.ID),
			Name:      img.Name,
			Sequence:  img.Sequence,
			PTAVID:    img.PTAVID,
			VariantID: img.VariantID,
		})
	}
	return out
}

// ProductCard is the listing projection of a product.
type ProductCard struct {
	ID              uint                    `json:"id"`
	Name            string                  `json:"name"`
	Slug            string                  `json:"slug"`
	ListPrice       float64                 `json:"list_price"`
	CompareAtPrice  *float64                `json:"compare_at_price"`
	OfferEndDate    *time.Time              `json:"offer_end_date"`
	DefaultCode     string                  `json:"default_code"`
	Type            domain.ProductType      `json:"type"`
	QtyAvailable    float64                 `json:"qty_available"`
	StockStatus     stockdomain.StockStatus `json:"stock_status"`
	InStock         bool                    `json:"in_stock"`
	Images          []ImageView             `json:"images"`
	CardImage       *ImageView              `json:"card_image"`
	Ribbon          *RibbonView             `json:"ribbon"`
	Featured        bool                    `json:"featured"`
	New             bool                    `json:"new"`
	Bestseller      bool                    `json:"bestseller"`
	WebsiteSequence int                     `json:"website_sequence"`
	Category        *CategorySummary        `json:"category"`
	VariantCount    int                     `json:"variant_count"`
	ViewCount       int64                   `json:"view_count"`
	Active          bool                    `json:"active"`
}

type ValueView struct {
	PTAVID    uint   `json:"ptav_id"`
	ValueID   uint   `json:"value_id"`
	Name      string `json:"name"`
	HTMLColor string `json:"html_color,omitempty"`
}

type LineView struct {
	ID            uint                       `json:"id"`
	AttributeID   uint                       `json:"attribute_id"`
	AttributeName string                     `json:"attribute_name"`
	DisplayType   domain.DisplayType         `json:"display_type"`
	CreateVariant domain.CreateVariantPolicy `json:"create_variant"`
	Values        []ValueView                `json:"values"`
}

// ProductDetail is the single-product projection.
type ProductDetail struct {
	ProductCard
	DescriptionSale string        `json:"description_sale"`
	Barcode         string        `json:"barcode"`
	StandardPrice   float64       `json:"standard_price"`
	Weight          float64       `json:"weight"`
	Volume          float64       `json:"volume"`
	Length          float64       `json:"length"`
	Width           float64       `json:"width"`
	Height          float64       `json:"height"`
	UOM             string        `json:"uom"`
	SaleOK          bool          `json:"sale_ok"`
	Tags            []domain.Tag  `json:"tags"`
	Taxes           []domain.Tax  `json:"taxes"`
	AttributeLines  []LineView    `json:"attribute_lines"`
	Variants        []VariantView `json:"variants"`
}

type VariantView struct {
	ID            uint                    `json:"id"`
	PTAVIDs       []uint                  `json:"ptav_ids"`
	Values        []string                `json:"values"`
	ListPrice     float64                 `json:"list_price"`
	StandardPrice float64                 `json:"standard_price"`
	DefaultCode   string                  `json:"default_code"`
	Barcode       string                  `json:"barcode"`
	QtyAvailable  float64                 `json:"qty_available"`
	StockStatus   stockdomain.StockStatus `json:"stock_status"`
	InStock       bool                    `json:"in_stock"`
	Images        []ImageView             `json:"images"`
	Active        bool                    `json:"active"`
}
