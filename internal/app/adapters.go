package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	catalogdomain "github.com/tair/tenant-commerce/internal/catalog/domain"
	catalogcommand "github.com/tair/tenant-commerce/internal/catalog/usecase/command"
	customercommand "github.com/tair/tenant-commerce/internal/customer/usecase/command"
	orderdomain "github.com/tair/tenant-commerce/internal/order/domain"
	stockdomain "github.com/tair/tenant-commerce/internal/stock/domain"
	stockcommand "github.com/tair/tenant-commerce/internal/stock/usecase/command"
	stockquery "github.com/tair/tenant-commerce/internal/stock/usecase/query"
	"github.com/tair/tenant-commerce/pkg/apperr"
)

// catalogStock is the stock context as the catalog sees it.
type catalogStock struct {
	levels *stockquery.LevelsHandler
	quants *stockcommand.QuantHandler
}

func (s *catalogStock) OnHand(ctx context.Context, tenantID uint, variantIDs []uint) (map[uint]float64, error) {
	return s.levels.OnHand(ctx, tenantID, variantIDs)
}

func (s *catalogStock) SetVariantQuantity(ctx context.Context, tenantID, variantID uint, locationID *uint, qty float64) error {
	_, err := s.quants.SetQuantity(ctx, stockcommand.SetQuantityCommand{
		TenantID:   tenantID,
		VariantID:  variantID,
		LocationID: locationID,
		Quantity:   qty,
	})
	return err
}

// variantLabels names variants "Product (Value, Value)".
type variantLabels struct {
	repo catalogdomain.Repository
}

func (l variantLabels) valueNames(ctx context.Context, tenantID uint, products []uint) (map[uint]string, error) {
	attrs, err := l.repo.ListAttributes(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	values := make(map[uint]string)
	for _, a := range attrs {
		for _, v := range a.Values {
			values[v.ID] = v.Name
		}
	}
	out := make(map[uint]string)
	for _, pid := range products {
		ptavs, err := l.repo.ListPTAVs(ctx, pid)
		if err != nil {
			return nil, err
		}
		for _, p := range ptavs {
			out[p.ID] = values[p.ValueID]
		}
	}
	return out, nil
}

func label(p *catalogdomain.Product, v *catalogdomain.Variant, names map[uint]string) string {
	var parts []string
	for _, id := range v.PTAVIDs() {
		if n := names[id]; n != "" {
			parts = append(parts, n)
		}
	}
	if len(parts) == 0 {
		return p.Name
	}
	return fmt.Sprintf("%s (%s)", p.Name, strings.Join(parts, ", "))
}

// stockCatalog is the catalog as the stock context sees it.
type stockCatalog struct {
	repo   catalogdomain.Repository
	labels variantLabels
}

func newStockCatalog(repo catalogdomain.Repository) *stockCatalog {
	return &stockCatalog{repo: repo, labels: variantLabels{repo: repo}}
}

func (c *stockCatalog) info(p *catalogdomain.Product, v *catalogdomain.Variant, names map[uint]string) stockdomain.VariantInfo {
	return stockdomain.VariantInfo{
		VariantID:     v.ID,
		ProductID:     p.ID,
		Name:          label(p, v, names),
		DefaultCode:   v.EffectiveDefaultCode(p),
		StandardPrice: v.EffectiveStandardPrice(p),
		CategoryID:    p.CategoryID,
		Stockable:     p.IsStockable(),
	}
}

func (c *stockCatalog) describe(ctx context.Context, tenantID uint, products []catalogdomain.Product, variants []catalogdomain.Variant) ([]stockdomain.VariantInfo, error) {
	byID := make(map[uint]*catalogdomain.Product, len(products))
	ids := make([]uint, 0, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
		ids = append(ids, products[i].ID)
	}
	names, err := c.labels.valueNames(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	out := make([]stockdomain.VariantInfo, 0, len(variants))
	for i := range variants {
		p, ok := byID[variants[i].ProductID]
		if !ok {
			continue
		}
		out = append(out, c.info(p, &variants[i], names))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VariantID < out[j].VariantID })
	return out, nil
}

func (c *stockCatalog) ProductVariants(ctx context.Context, tenantID, productID uint) ([]stockdomain.VariantInfo, error) {
	p, err := c.repo.FindProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	variants, err := c.repo.ListVariants(ctx, []uint{p.ID}, false)
	if err != nil {
		return nil, err
	}
	return c.describe(ctx, tenantID, []catalogdomain.Product{*p}, variants)
}

func (c *stockCatalog) Variants(ctx context.Context, tenantID uint, ids []uint) (map[uint]stockdomain.VariantInfo, error) {
	variants, err := c.repo.FindVariants(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	seen := make(map[uint]bool)
	var productIDs []uint
	for _, v := range variants {
		if !seen[v.ProductID] {
			seen[v.ProductID] = true
			productIDs = append(productIDs, v.ProductID)
		}
	}
	products, err := c.repo.FindProducts(ctx, tenantID, productIDs)
	if err != nil {
		return nil, err
	}
	infos, err := c.describe(ctx, tenantID, products, variants)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]stockdomain.VariantInfo, len(infos))
	for _, info := range infos {
		out[info.VariantID] = info
	}
	return out, nil
}

func (c *stockCatalog) StockableVariants(ctx context.Context, tenantID uint, categoryID *uint) ([]stockdomain.VariantInfo, error) {
	f := catalogdomain.ProductFilter{TenantID: tenantID}
	if categoryID != nil {
		categories, err := c.repo.ListCategories(ctx, tenantID, true)
		if err != nil {
			return nil, err
		}
		f.CategoryIDs = catalogdomain.NewCategoryTree(categories).Descendants(*categoryID)
		if len(f.CategoryIDs) == 0 {
			return []stockdomain.VariantInfo{}, nil
		}
	}
	products, _, err := c.repo.ListProducts(ctx, f)
	if err != nil {
		return nil, err
	}
	var stockable []catalogdomain.Product
	var ids []uint
	for _, p := range products {
		if p.IsStockable() {
			stockable = append(stockable, p)
			ids = append(ids, p.ID)
		}
	}
	if len(ids) == 0 {
		return []stockdomain.VariantInfo{}, nil
	}
	variants, err := c.repo.ListVariants(ctx, ids, false)
	if err != nil {
		return nil, err
	}
	return c.describe(ctx, tenantID, stockable, variants)
}

// orderPricer prices cart lines at the catalog list price.
type orderPricer struct {
	repo   catalogdomain.Repository
	engine *catalogcommand.VariantEngine
	labels variantLabels
}

func newOrderPricer(repo catalogdomain.Repository) *orderPricer {
	return &orderPricer{repo: repo, engine: catalogcommand.NewVariantEngine(repo), labels: variantLabels{repo: repo}}
}

func (o *orderPricer) sellable(ctx context.Context, tenantID, productID uint) (*catalogdomain.Product, error) {
	p, err := o.repo.FindProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if !p.Active || !p.SaleOK {
		return nil, apperr.NotFoundf("product %d is not for sale", productID)
	}
	return p, nil
}

func (o *orderPricer) Variant(ctx context.Context, tenantID, variantID uint) (*orderdomain.CatalogVariant, error) {
	v, err := o.repo.FindVariant(ctx, tenantID, variantID)
	if err != nil {
		return nil, err
	}
	if !v.Active {
		return nil, apperr.NotFoundf("variant %d is archived", variantID)
	}
	p, err := o.sellable(ctx, tenantID, v.ProductID)
	if err != nil {
		return nil, err
	}
	names, err := o.labels.valueNames(ctx, tenantID, []uint{p.ID})
	if err != nil {
		return nil, err
	}
	return &orderdomain.CatalogVariant{
		VariantID: v.ID,
		ProductID: p.ID,
		Name:      label(p, v, names),
		UnitPrice: v.EffectiveListPrice(p),
		Stockable: p.IsStockable(),
	}, nil
}

func (o *orderPricer) EnsureVariant(ctx context.Context, tenantID, productID uint, ptavIDs []uint) (uint, error) {
	p, err := o.sellable(ctx, tenantID, productID)
	if err != nil {
		return 0, err
	}
	v, err := o.engine.Ensure(ctx, p, ptavIDs)
	if err != nil {
		return 0, err
	}
	return v.ID, nil
}

// orderFulfillment books order deliveries in the stock context.
type orderFulfillment struct {
	levels   *stockquery.LevelsHandler
	delivery *stockcommand.DeliveryHandler
	reads    *stockquery.ReadHandler
}

func (f *orderFulfillment) Available(ctx context.Context, tenantID uint, variantIDs []uint) (map[uint]float64, error) {
	return f.levels.Available(ctx, tenantID, variantIDs)
}

func (f *orderFulfillment) Deliver(ctx context.Context, o *orderdomain.Order) (*orderdomain.Shipment, error) {
	cmd := stockcommand.DeliveryCommand{
		TenantID:  o.TenantID,
		OrderID:   o.ID,
		OrderName: o.Name,
		PartnerID: o.PartnerID,
	}
	for _, l := range o.StockableLines() {
		cmd.Lines = append(cmd.Lines, stockcommand.DeliveryLine{VariantID: l.VariantID, Quantity: l.Quantity})
	}
	p, err := f.delivery.Create(ctx, cmd)
	if err != nil {
		return nil, err
	}
	s := shipment(*p)
	return &s, nil
}

func (f *orderFulfillment) Ship(ctx context.Context, tenantID, orderID uint) error {
	_, err := f.delivery.Ship(ctx, tenantID, orderID)
	return err
}

func (f *orderFulfillment) Release(ctx context.Context, tenantID, orderID uint) error {
	return f.delivery.Cancel(ctx, tenantID, orderID)
}

func (f *orderFulfillment) Shipments(ctx context.Context, tenantID, orderID uint) ([]orderdomain.Shipment, error) {
	pickings, err := f.reads.Pickings(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	out := make([]orderdomain.Shipment, 0, len(pickings))
	for _, p := range pickings {
		out = append(out, shipment(p))
	}
	return out, nil
}

func shipment(p stockdomain.Picking) orderdomain.Shipment {
	return orderdomain.Shipment{
		ID:            p.ID,
		Name:          p.Name,
		State:         string(p.State),
		ScheduledDate: p.ScheduledDate,
		DateDone:      p.DateDone,
	}
}

// orderPartners creates guest customers for anonymous carts.
type orderPartners struct {
	guests *customercommand.GuestDirectory
}

func (p *orderPartners) GuestPartner(ctx context.Context, tenantID uint, email, name string) (uint, error) {
	partner, err := p.guests.Guest(ctx, tenantID, email, name)
	if err != nil {
		return 0, err
	}
	return partner.ID, nil
}
