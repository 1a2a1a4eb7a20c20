package command

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/tair/tenant-commerce/internal/catalog/domain"
	"github.com/tair/tenant-commerce/internal/catalog/repository"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/database"
)

const tenant = 1

type fakeStock struct {
	qty map[uint]float64
}

func (f *fakeStock) OnHand(_ context.Context, _ uint, ids []uint) (map[uint]float64, error) {
	out := make(map[uint]float64, len(ids))
	for _, id := range ids {
		out[id] = f.qty[id]
	}
	return out, nil
}

func (f *fakeStock) SetVariantQuantity(_ context.Context, _ uint, variantID uint, _ *uint, qty float64) error {
	f.qty[variantID] = qty
	return nil
}

type fixture struct {
	repo     *repository.MemoryCatalogRepository
	engine   *VariantEngine
	products *ProductHandler
	lines    *AttributeLineHandler
	refs     *ReferenceHandler
}

func newFixture() *fixture {
	repo := repository.NewMemoryCatalogRepository()
	engine := NewVariantEngine(repo)
	tx := database.NoopTransactor{}
	return &fixture{
		repo:     repo,
		engine:   engine,
		products: NewProductHandler(repo, tx, engine),
		lines:    NewAttributeLineHandler(repo, tx, engine),
		refs:     NewReferenceHandler(repo),
	}
}

func str(s string) *string { return &s }

func (f *fixture) product(t *testing.T, name string) *domain.Product {
	t.Helper()
	p, err := f.products.Create(context.Background(), CreateProductCommand{
		TenantID: tenant, ProductFields: ProductFields{Name: str(name)},
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func (f *fixture) attribute(t *testing.T, name string, policy domain.CreateVariantPolicy, values ...string) *domain.Attribute {
	t.Helper()
	cmd := CreateAttributeCommand{TenantID: tenant, Name: name, CreateVariant: policy}
	for i, v := range values {
		cmd.Values = append(cmd.Values, CreateValueCommand{Name: v, Sequence: i})
	}
	a, err := f.refs.CreateAttribute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("create attribute: %v", err)
	}
	return a
}

func (f *fixture) setLine(t *testing.T, p *domain.Product, a *domain.Attribute) *AttributeLineResult {
	t.Helper()
	ids := make([]uint, 0, len(a.Values))
	for _, v := range a.Values {
		ids = append(ids, v.ID)
	}
	res, err := f.lines.Set(context.Background(), SetAttributeLineCommand{
		TenantID: tenant, ProductID: p.ID, AttributeID: a.ID, ValueIDs: ids,
	})
	if err != nil {
		t.Fatalf("set line: %v", err)
	}
	return res
}

func (f *fixture) activeVariants(t *testing.T, productID uint) []domain.Variant {
	t.Helper()
	vs, err := f.repo.ListVariants(context.Background(), []uint{productID}, false)
	if err != nil {
		t.Fatalf("list variants: %v", err)
	}
	return vs
}

func TestCreateProductHasDefaultVariant(t *testing.T) {
	f := newFixture()
	p := f.product(t, "Mug")
	vs := f.activeVariants(t, p.ID)
	if len(vs) != 1 || vs[0].Combination != "" {
		t.Fatalf("variants = %+v, want one default variant", vs)
	}
	if p.Type != domain.TypeStockable || !p.SaleOK || !p.Active {
		t.Errorf("defaults = %s/%v/%v", p.Type, p.SaleOK, p.Active)
	}
}

func TestVariantMatrixIsCrossProduct(t *testing.T) {
	f := newFixture()
	p := f.product(t, "Shirt")
	size := f.attribute(t, "Size", domain.CreateAlways, "S", "M", "L")
	color := f.attribute(t, "Color", domain.CreateAlways, "Red", "Blue")

	res := f.setLine(t, p, size)
	if res.Regenerate.Created != 3 || res.Regenerate.Archived != 1 {
		t.Errorf("size line = %+v, want 3 created and the default archived", res.Regenerate)
	}
	res = f.setLine(t, p, color)
	if res.Regenerate.Created != 6 || res.Regenerate.Archived != 3 {
		t.Errorf("color line = %+v, want 6 created and 3 archived", res.Regenerate)
	}
	if got := len(f.activeVariants(t, p.ID)); got != 6 {
		t.Fatalf("active variants = %d, want 6", got)
	}

	again, err := f.engine.Regenerate(context.Background(), p)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if again.Created != 0 || again.Reactivated != 0 || again.Archived != 0 || again.Active != 6 {
		t.Errorf("second regenerate = %+v, want no changes", again)
	}
}

func TestVariantsAreCreatedInSequenceOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.product(t, "Shirt")
	size, err := f.refs.CreateAttribute(ctx, CreateAttributeCommand{
		TenantID: tenant, Name: "Size", CreateVariant: domain.CreateAlways,
		Values: []CreateValueCommand{{Name: "L", Sequence: 2}, {Name: "S", Sequence: 0}, {Name: "M", Sequence: 1}},
	})
	if err != nil {
		t.Fatalf("create attribute: %v", err)
	}
	f.setLine(t, p, size)

	ptavs, err := f.repo.ListPTAVs(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListPTAVs: %v", err)
	}
	names := make(map[uint]string)
	for _, v := range size.Values {
		names[v.ID] = v.Name
	}
	valueOf := make(map[uint]string)
	for _, ptav := range ptavs {
		valueOf[ptav.ID] = names[ptav.ValueID]
	}

	var got []string
	for _, v := range f.activeVariants(t, p.ID) {
		ids := domain.ParseCombination(v.Combination)
		if len(ids) != 1 {
			t.Fatalf("combination %q, want one value", v.Combination)
		}
		got = append(got, valueOf[ids[0]])
	}
	if len(got) != 3 || got[0] != "S" || got[1] != "M" || got[2] != "L" {
		t.Errorf("variants by id = %v, want [S M L]", got)
	}
}

func TestRemoveLineReactivatesPreviousVariants(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.product(t, "Shirt")
	size := f.attribute(t, "Size", domain.CreateAlways, "S", "M")
	color := f.attribute(t, "Color", domain.CreateAlways, "Red", "Blue")
	f.setLine(t, p, size)
	first := f.activeVariants(t, p.ID)
	colorLine := f.setLine(t, p, color).Line

	res, err := f.lines.Remove(ctx, tenant, colorLine.ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if res.Regenerate.Reactivated != 2 || res.Regenerate.Archived != 4 {
		t.Errorf("remove = %+v, want 2 reactivated and 4 archived", res.Regenerate)
	}
	after := f.activeVariants(t, p.ID)
	if len(after) != 2 || after[0].ID != first[0].ID || after[1].ID != first[1].ID {
		t.Errorf("variants after remove = %+v, want the size-only variants back", after)
	}

	ptavs, _ := f.repo.ListPTAVs(ctx, p.ID)
	archived := 0
	for _, ptav := range ptavs {
		if !ptav.Active {
			archived++
		}
	}
	if archived != 2 {
		t.Errorf("archived ptavs = %d, want 2", archived)
	}
}

func TestSetLineRejectsForeignValue(t *testing.T) {
	f := newFixture()
	p := f.product(t, "Shirt")
	size := f.attribute(t, "Size", domain.CreateAlways, "S")
	color := f.attribute(t, "Color", domain.CreateAlways, "Red")
	_, err := f.lines.Set(context.Background(), SetAttributeLineCommand{
		TenantID: tenant, ProductID: p.ID, AttributeID: size.ID, ValueIDs: []uint{color.Values[0].ID},
	})
	if !apperr.HasCode(err, apperr.Validation) {
		t.Fatalf("err = %v, want VALIDATION", err)
	}
}

func TestDynamicVariantsAreCreatedOnDemand(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.product(t, "Poster")
	frame := f.attribute(t, "Frame", domain.CreateDynamic, "Oak", "Steel")
	note := f.attribute(t, "Gift note", domain.CreateNoVariant, "Yes")

	res := f.setLine(t, p, frame)
	if res.Regenerate.Created != 0 {
		t.Errorf("dynamic line created %d variants, want 0", res.Regenerate.Created)
	}
	f.setLine(t, p, note)

	ptavs, _ := f.repo.ListPTAVs(ctx, p.ID)
	var oak, gift uint
	for _, ptav := range ptavs {
		switch ptav.ValueID {
		case frame.Values[0].ID:
			oak = ptav.ID
		case note.Values[0].ID:
			gift = ptav.ID
		}
	}

	v, err := f.engine.Ensure(ctx, p, []uint{oak})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	again, err := f.engine.Ensure(ctx, p, []uint{oak})
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if again.ID != v.ID {
		t.Errorf("second ensure id = %d, want %d", again.ID, v.ID)
	}
	if _, err := f.engine.Ensure(ctx, p, []uint{oak, gift}); !apperr.HasCode(err, apperr.InvalidValue) {
		t.Errorf("no_variant value err = %v, want INVALID_VALUE", err)
	}
	if _, err := f.engine.Ensure(ctx, p, nil); !apperr.HasCode(err, apperr.InvalidValue) {
		t.Errorf("empty combination err = %v, want INVALID_VALUE", err)
	}

	res2, err := f.engine.Regenerate(ctx, p)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if res2.Active != 1 || res2.Archived != 0 {
		t.Errorf("regenerate = %+v, want the dynamic variant kept", res2)
	}
}

func TestUpdateVariantStock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	stock := &fakeStock{qty: map[uint]float64{}}
	h := NewUpdateVariantStockHandler(f.repo, stock)

	p := f.product(t, "Mug")
	v := f.activeVariants(t, p.ID)[0]
	res, err := h.Handle(ctx, UpdateVariantStockCommand{TenantID: tenant, VariantID: v.ID, Quantity: 12})
	if err != nil {
		t.Fatalf("update stock: %v", err)
	}
	if res.OnHand != 12 {
		t.Errorf("on hand = %v, want 12", res.OnHand)
	}

	if _, err := h.Handle(ctx, UpdateVariantStockCommand{TenantID: tenant, VariantID: v.ID, Quantity: -1}); !apperr.HasCode(err, apperr.Validation) {
		t.Errorf("negative err = %v, want VALIDATION", err)
	}

	service := domain.TypeService
	svc, err := f.products.Create(ctx, CreateProductCommand{TenantID: tenant, ProductFields: ProductFields{Name: str("Gift wrap"), Type: &service}})
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	sv := f.activeVariants(t, svc.ID)[0]
	if _, err := h.Handle(ctx, UpdateVariantStockCommand{TenantID: tenant, VariantID: sv.ID, Quantity: 1}); !apperr.HasCode(err, apperr.InvalidValue) {
		t.Errorf("service err = %v, want INVALID_VALUE", err)
	}
}

func TestUpdateProductValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.product(t, "Mug")
	neg := -3.0
	if _, err := f.products.Update(ctx, UpdateProductCommand{TenantID: tenant, ID: p.ID, ProductFields: ProductFields{ListPrice: &neg}}); !apperr.HasCode(err, apperr.Validation) {
		t.Errorf("negative price err = %v, want VALIDATION", err)
	}
	missing := uint(999)
	if _, err := f.products.Update(ctx, UpdateProductCommand{TenantID: tenant, ID: p.ID, ProductFields: ProductFields{CategoryID: &missing}}); !apperr.HasCode(err, apperr.Validation) {
		t.Errorf("unknown category err = %v, want VALIDATION", err)
	}
	if _, err := f.products.Update(ctx, UpdateProductCommand{TenantID: 2, ID: p.ID, ProductFields: ProductFields{Name: str("x")}}); !apperr.HasCode(err, apperr.NotFound) {
		t.Errorf("other tenant err = %v, want NOT_FOUND", err)
	}

	archived, err := f.products.SetActive(ctx, tenant, p.ID, false)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if archived.Active {
		t.Error("product still active after archive")
	}
}

func TestCategoryMoveRejectsCycles(t *testing.T) {
	repo := repository.NewMemoryCatalogRepository()
	h := NewCategoryHandler(repo, database.NoopTransactor{})
	ctx := context.Background()

	root, err := h.Create(ctx, CreateCategoryCommand{TenantID: tenant, Name: "Clothes"})
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	child, err := h.Create(ctx, CreateCategoryCommand{TenantID: tenant, Name: "Shirts", ParentID: &root.ID})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	leaf, err := h.Create(ctx, CreateCategoryCommand{TenantID: tenant, Name: "Polo", ParentID: &child.ID})
	if err != nil {
		t.Fatalf("create leaf: %v", err)
	}
	if leaf.CompleteName != "Clothes / Shirts / Polo" {
		t.Errorf("complete name = %q", leaf.CompleteName)
	}

	if _, err := h.Move(ctx, tenant, root.ID, &leaf.ID); !apperr.HasCode(err, apperr.CircularLoop) {
		t.Fatalf("move under descendant err = %v, want CIRCULAR_LOOP", err)
	}
	if _, err := h.Move(ctx, tenant, root.ID, &root.ID); !apperr.HasCode(err, apperr.CircularLoop) {
		t.Fatalf("move under itself err = %v, want CIRCULAR_LOOP", err)
	}

	if _, err := h.Update(ctx, UpdateCategoryCommand{TenantID: tenant, ID: root.ID, Name: str("Apparel")}); err != nil {
		t.Fatalf("rename: %v", err)
	}
	got, err := repo.FindCategory(ctx, tenant, leaf.ID)
	if err != nil {
		t.Fatalf("find leaf: %v", err)
	}
	if got.CompleteName != "Apparel / Shirts / Polo" {
		t.Errorf("leaf after rename = %q", got.CompleteName)
	}

	if _, err := h.Move(ctx, tenant, child.ID, nil); err != nil {
		t.Fatalf("move to root: %v", err)
	}
	got, _ = repo.FindCategory(ctx, tenant, leaf.ID)
	if got.CompleteName != "Shirts / Polo" {
		t.Errorf("leaf after move = %q", got.CompleteName)
	}
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

func TestImageUploadCapAndScope(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	h := NewImageHandler(f.repo, 2)
	p := f.product(t, "Shirt")
	color := f.attribute(t, "Color", domain.CreateAlways, "Red")
	f.setLine(t, p, color)
	ptavs, _ := f.repo.ListPTAVs(ctx, p.ID)
	red := ptavs[0].ID
	data := base64.StdEncoding.EncodeToString(pngBytes)

	var uploaded []*domain.Image
	for i := 0; i < 2; i++ {
		img, err := h.Upload(ctx, UploadImageCommand{TenantID: tenant, ProductID: p.ID, PTAVID: &red, Data: data})
		if err != nil {
			t.Fatalf("upload %d: %v", i, err)
		}
		uploaded = append(uploaded, img)
	}
	if uploaded[0].MimeType != "image/png" {
		t.Errorf("mime = %q, want image/png", uploaded[0].MimeType)
	}
	if uploaded[1].Sequence <= uploaded[0].Sequence {
		t.Errorf("sequences = %d, %d, want increasing", uploaded[0].Sequence, uploaded[1].Sequence)
	}
	if _, err := h.Upload(ctx, UploadImageCommand{TenantID: tenant, ProductID: p.ID, PTAVID: &red, Data: data}); !apperr.HasCode(err, apperr.LimitExceeded) {
		t.Fatalf("third upload err = %v, want LIMIT_EXCEEDED", err)
	}

	text := base64.StdEncoding.EncodeToString([]byte("plain text, not a picture"))
	if _, err := h.Upload(ctx, UploadImageCommand{TenantID: tenant, ProductID: p.ID, Data: text}); !apperr.HasCode(err, apperr.Validation) {
		t.Errorf("text upload err = %v, want VALIDATION", err)
	}

	tmplScope := domain.ImageScope{ProductID: p.ID}
	if err := h.Delete(ctx, tenant, uploaded[0].ID, tmplScope); !apperr.HasCode(err, apperr.NotFound) {
		t.Errorf("delete outside scope err = %v, want NOT_FOUND", err)
	}

	ptavScope := domain.ImageScope{ProductID: p.ID, PTAVID: &red}
	reordered, err := h.Reorder(ctx, ReorderImagesCommand{TenantID: tenant, Scope: ptavScope, ImageIDs: []uint{uploaded[1].ID, uploaded[0].ID}})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if len(reordered) != 2 || reordered[0].ID != uploaded[1].ID {
		t.Errorf("reordered = %+v, want second image first", reordered)
	}

	if err := h.Delete(ctx, tenant, uploaded[0].ID, ptavScope); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := h.Upload(ctx, UploadImageCommand{TenantID: tenant, ProductID: p.ID, PTAVID: &red, Data: "data:image/png;base64," + data}); err != nil {
		t.Errorf("upload after delete: %v", err)
	}
}

func TestPricelistValidation(t *testing.T) {
	repo := repository.NewMemoryCatalogRepository()
	h := NewPricelistHandler(repo)
	ctx := context.Background()

	_, err := h.Create(ctx, PricelistCommand{TenantID: tenant, Name: "Promo", Items: []domain.PricelistItem{
		{AppliedOn: domain.AppliedGlobal, Compute: domain.ComputePercentage, PercentDiscount: 120},
	}})
	if !apperr.HasCode(err, apperr.Validation) {
		t.Errorf("discount over 100 err = %v, want VALIDATION", err)
	}
	pl, err := h.Create(ctx, PricelistCommand{TenantID: tenant, Name: "Promo", Items: []domain.PricelistItem{
		{AppliedOn: domain.AppliedGlobal, Compute: domain.ComputePercentage, PercentDiscount: 10},
	}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !pl.Active || len(pl.Items) != 1 {
		t.Errorf("pricelist = %+v", pl)
	}
}
