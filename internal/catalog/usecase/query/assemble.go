package query

import (
	"context"
	"fmt"

	"github.com/tair/tenant-commerce/internal/catalog/domain"
	stockdomain "github.com/tair/tenant-commerce/internal/stock/domain"
)

const defaultCardImages = 5

// Assembler turns stored products into their public projections.
type Assembler struct {
	repo       domain.Repository
	stock      domain.StockReader
	cardImages int
}

func NewAssembler(repo domain.Repository, stock domain.StockReader, cardImages int) *Assembler {
	if cardImages <= 0 {
		cardImages = defaultCardImages
	}
	return &Assembler{repo: repo, stock: stock, cardImages: cardImages}
}

// related is everything a batch of products needs for assembly.
type related struct {
	variants   map[uint][]domain.Variant
	images     map[uint][]domain.Image
	onHand     map[uint]float64
	ribbons    map[uint]domain.Ribbon
	categories domain.CategoryTree
}

func (a *Assembler) load(ctx context.Context, tenantID uint, products []domain.Product, withImages bool) (*related, error) {
	ids := make([]uint, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	rel := &related{
		variants: make(map[uint][]domain.Variant),
		images:   make(map[uint][]domain.Image),
		ribbons:  make(map[uint]domain.Ribbon),
	}

	variants, err := a.repo.ListVariants(ctx, ids, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load variants: %w", err)
	}
	variantIDs := make([]uint, 0, len(variants))
	for _, v := range variants {
		rel.variants[v.ProductID] = append(rel.variants[v.ProductID], v)
		variantIDs = append(variantIDs, v.ID)
	}
	rel.onHand, err = a.stock.OnHand(ctx, tenantID, variantIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stock: %w", err)
	}

	if withImages {
		images, err := a.repo.ListImages(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load images: %w", err)
		}
		for _, img := range images {
			rel.images[img.ProductID] = append(rel.images[img.ProductID], img)
		}
	}

	ribbons, err := a.repo.ListRibbons(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ribbons: %w", err)
	}
	for _, rb := range ribbons {
		rel.ribbons[rb.ID] = rb
	}
	categories, err := a.repo.ListCategories(ctx, tenantID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	rel.categories = domain.NewCategoryTree(categories)
	return rel, nil
}

// Cards assembles listing cards in the order of products.
func (a *Assembler) Cards(ctx context.Context, tenantID uint, products []domain.Product) ([]ProductCard, error) {
	cards := make([]ProductCard, 0, len(products))
	if len(products) == 0 {
		return cards, nil
	}
	rel, err := a.load(ctx, tenantID, products, true)
	if err != nil {
		return nil, err
	}
	for i := range products {
		cards = append(cards, a.card(&products[i], rel))
	}
	return cards, nil
}

// StockOnly computes card stock fields without images, for post-filtering.
func (a *Assembler) StockOnly(ctx context.Context, tenantID uint, products []domain.Product) (map[uint]float64, error) {
	out := make(map[uint]float64, len(products))
	if len(products) == 0 {
		return out, nil
	}
	rel, err := a.load(ctx, tenantID, products, false)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = productOnHand(p.ID, rel)
	}
	return out, nil
}

func productOnHand(productID uint, rel *related) float64 {
	var qty float64
	for _, v := range rel.variants[productID] {
		qty += rel.onHand[v.ID]
	}
	return qty
}

func (a *Assembler) card(p *domain.Product, rel *related) ProductCard {
	qty := productOnHand(p.ID, rel)
	status := stockdomain.Classify(qty)
	images := domain.TemplateImages(rel.images[p.ID])
	if len(images) > a.cardImages {
		images = images[:a.cardImages]
	}
	card := ProductCard{
		ID:              p.ID,
		Name:            p.Name,
		Slug:            p.Slug(),
		ListPrice:       p.ListPrice,
		CompareAtPrice:  p.CompareAtPrice,
		OfferEndDate:    p.OfferEndDate,
		DefaultCode:     p.DefaultCode,
		Type:            p.Type,
		QtyAvailable:    qty,
		StockStatus:     status,
		InStock:         status != stockdomain.OutOfStock,
		Images:          imageViews(images),
		Featured:        p.IsFeatured(),
		New:             p.IsNew,
		Bestseller:      p.Bestseller,
		WebsiteSequence: p.WebsiteSequence,
		VariantCount:    len(rel.variants[p.ID]),
		ViewCount:       p.ViewCount,
		Active:          p.Active,
	}
	if len(card.Images) > 0 {
		card.CardImage = &card.Images[0]
	}
	if p.RibbonID != nil {
		if rb, ok := rel.ribbons[*p.RibbonID]; ok && rb.Active {
			card.Ribbon = &RibbonView{
				Name: rb.Name, BgColor: rb.BgColor, TextColor: rb.TextColor,
				Position: rb.Position, Style: rb.Style,
			}
		}
	}
	if p.CategoryID != nil {
		if c, ok := rel.categories[*p.CategoryID]; ok {
			card.Category = &CategorySummary{ID: c.ID, Name: c.Name, CompleteName: c.CompleteName}
		}
	}
	return card
}

// Detail assembles the full projection of one product, variants included.
func (a *Assembler) Detail(ctx context.Context, p *domain.Product) (*ProductDetail, error) {
	rel, err := a.load(ctx, p.TenantID, []domain.Product{*p}, true)
	if err != nil {
		return nil, err
	}
	lines, values, err := a.lineViews(ctx, p)
	if err != nil {
		return nil, err
	}
	d := &ProductDetail{
		ProductCard:     a.card(p, rel),
		DescriptionSale: p.DescriptionSale,
		Barcode:         p.Barcode,
		StandardPrice:   p.StandardPrice,
		Weight:          p.Weight,
		Volume:          p.Volume,
		Length:          p.Length,
		Width:           p.Width,
		Height:          p.Height,
		UOM:             p.UOM,
		SaleOK:          p.SaleOK,
		Tags:            nonNil(p.Tags),
		Taxes:           nonNil(p.Taxes),
		AttributeLines:  lines,
	}
	d.Variants = a.variantViews(p, rel, values)
	return d, nil
}

func (a *Assembler) variantViews(p *domain.Product, rel *related, values map[uint]string) []VariantView {
	out := make([]VariantView, 0, len(rel.variants[p.ID]))
	for _, v := range rel.variants[p.ID] {
		qty := rel.onHand[v.ID]
		status := stockdomain.Classify(qty)
		ptavs := v.PTAVIDs()
		names := make([]string, 0, len(ptavs))
		for _, id := range ptavs {
			names = append(names, values[id])
		}
		out = append(out, VariantView{
			ID:            v.ID,
			PTAVIDs:       nonNil(ptavs),
			Values:        names,
			ListPrice:     v.EffectiveListPrice(p),
			StandardPrice: v.EffectiveStandardPrice(p),
			DefaultCode:   v.EffectiveDefaultCode(p),
			Barcode:       v.EffectiveBarcode(p),
			QtyAvailable:  qty,
			StockStatus:   status,
			InStock:       status != stockdomain.OutOfStock,
			Images:        imageViews(domain.ResolveVariantImages(v, rel.images[p.ID])),
			Active:        v.Active,
		})
	}
	return out
}

// lineViews returns the product's attribute lines with their active
// values, plus value names keyed by PTAV id.
func (a *Assembler) lineViews(ctx context.Context, p *domain.Product) ([]LineView, map[uint]string, error) {
	set, err := domain.LoadLineSet(ctx, a.repo, p)
	if err != nil {
		return nil, nil, err
	}
	names := make(map[uint]string)
	out := make([]LineView, 0, len(set.Lines))
	for _, l := range set.Lines {
		attr := set.Attributes[l.AttributeID]
		valueByID := make(map[uint]domain.AttributeValue, len(attr.Values))
		for _, v := range attr.Values {
			valueByID[v.ID] = v
		}
		view := LineView{
			ID:            l.ID,
			AttributeID:   attr.ID,
			AttributeName: attr.Name,
			DisplayType:   attr.DisplayType,
			CreateVariant: attr.CreateVariant,
			Values:        []ValueView{},
		}
		for _, ptav := range set.PTAVs[l.ID] {
			v := valueByID[ptav.ValueID]
			names[ptav.ID] = v.Name
			view.Values = append(view.Values, ValueView{
				PTAVID: ptav.ID, ValueID: v.ID, Name: v.Name, HTMLColor: v.HTMLColor,
			})
		}
		out = append(out, view)
	}
	return out, names, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
