package query

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/tair/tenant-commerce/internal/stock/domain"
	"github.com/tair/tenant-commerce/internal/stock/repository"
	"github.com/tair/tenant-commerce/internal/stock/usecase/command"
	"github.com/tair/tenant-commerce/pkg/apperr"
)

const tenant = 1

type fakeCatalog struct {
	variants map[uint]domain.VariantInfo
}

func (f *fakeCatalog) ProductVariants(_ context.Context, _ uint, productID uint) ([]domain.VariantInfo, error) {
	var out []domain.VariantInfo
	for _, v := range f.variants {
		if v.ProductID == productID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VariantID < out[j].VariantID })
	return out, nil
}

func (f *fakeCatalog) Variants(_ context.Context, _ uint, ids []uint) (map[uint]domain.VariantInfo, error) {
	out := make(map[uint]domain.VariantInfo)
	for _, id := range ids {
		if v, ok := f.variants[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (f *fakeCatalog) StockableVariants(_ context.Context, _ uint, _ *uint) ([]domain.VariantInfo, error) {
	var out []domain.VariantInfo
	for _, v := range f.variants {
		if v.Stockable {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VariantID < out[j].VariantID })
	return out, nil
}

func location(t *testing.T, repo *repository.MemoryStockRepository, name string, usage domain.Usage) *domain.Location {
	t.Helper()
	l := &domain.Location{TenantID: tenant, Name: name, CompleteName: name, Usage: usage, Active: true}
	if err := repo.CreateLocation(context.Background(), l); err != nil {
		t.Fatalf("CreateLocation: %v", err)
	}
	return l
}

func quant(t *testing.T, repo *repository.MemoryStockRepository, variantID, locationID uint, qty float64) {
	t.Helper()
	q := &domain.Quant{TenantID: tenant, VariantID: variantID, LocationID: locationID, Quantity: qty}
	if err := repo.SaveQuant(context.Background(), q); err != nil {
		t.Fatalf("SaveQuant: %v", err)
	}
}

func move(t *testing.T, repo *repository.MemoryStockRepository, variantID, src, dst uint, qty float64, state domain.MoveState, at time.Time) {
	t.Helper()
	m := &domain.Move{TenantID: tenant, VariantID: variantID, LocationID: src, LocationDestID: dst, Quantity: qty, State: state, Date: at}
	if err := repo.CreateMove(context.Background(), m); err != nil {
		t.Fatalf("CreateMove: %v", err)
	}
}

func TestProductLevelsCountInternalLocationsOnly(t *testing.T) {
	repo := repository.NewMemoryStockRepository()
	catalog := &fakeCatalog{variants: map[uint]domain.VariantInfo{
		11: {VariantID: 11, ProductID: 1, Name: "red-S", Stockable: true},
		12: {VariantID: 12, ProductID: 1, Name: "red-M", Stockable: true},
		13: {VariantID: 13, ProductID: 1, Name: "blue-S", Stockable: true},
	}}
	a := location(t, repo, "A", domain.UsageInternal)
	b := location(t, repo, "B", domain.UsageInternal)
	supplier := location(t, repo, "Vendors", domain.UsageSupplier)
	quant(t, repo, 11, a.ID, 3)
	quant(t, repo, 11, b.ID, 2)
	quant(t, repo, 13, supplier.ID, 4)
	move(t, repo, 12, supplier.ID, a.ID, 4, domain.MoveWaiting, time.Now())

	got, err := NewLevelsHandler(repo, catalog).Product(context.Background(), tenant, 1)
	if err != nil {
		t.Fatalf("Product: %v", err)
	}
	if len(got.Variants) != 3 {
		t.Fatalf("variants = %d, want 3", len(got.Variants))
	}
	want := map[uint]struct {
		onHand   float64
		incoming float64
		status   domain.StockStatus
	}{
		11: {5, 0, domain.LowStock},
		12: {0, 4, domain.OutOfStock},
		13: {0, 0, domain.OutOfStock},
	}
	for _, v := range got.Variants {
		w := want[v.Variant.VariantID]
		if v.OnHand != w.onHand || v.Incoming != w.incoming || v.Status != w.status {
			t.Errorf("%s = on-hand %g incoming %g %s, want %g %g %s",
				v.Variant.Name, v.OnHand, v.Incoming, v.Status, w.onHand, w.incoming, w.status)
		}
	}
	if got.Variants[0].Locations == nil || len(got.Variants[0].Locations) != 2 {
		t.Errorf("red-S locations = %+v, want A and B", got.Variants[0].Locations)
	}
	if got.Totals.OnHand != 5 || got.Totals.Virtual != 9 {
		t.Errorf("totals = %+v, want on-hand 5 virtual 9", got.Totals)
	}
}

func TestAvailableSubtractsPendingOutgoing(t *testing.T) {
	repo := repository.NewMemoryStockRepository()
	catalog := &fakeCatalog{variants: map[uint]domain.VariantInfo{1: {VariantID: 1, ProductID: 1, Stockable: true}}}
	stock := location(t, repo, "Stock", domain.UsageInternal)
	customer := location(t, repo, "Customers", domain.UsageCustomer)
	quant(t, repo, 1, stock.ID, 10)
	move(t, repo, 1, stock.ID, customer.ID, 3, domain.MoveWaiting, time.Now())
	move(t, repo, 1, stock.ID, customer.ID, 2, domain.MoveCancel, time.Now())

	got, err := NewLevelsHandler(repo, catalog).Available(context.Background(), tenant, []uint{1})
	if err != nil {
		t.Fatalf("Available: %v", err)
	}
	if got[1] != 7 {
		t.Errorf("available = %g, want 7", got[1])
	}
}

func TestReorderingSuggestionRoundsToMultiple(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryStockRepository()
	catalog := &fakeCatalog{variants: map[uint]domain.VariantInfo{
		1: {VariantID: 1, ProductID: 1, Stockable: true},
		2: {VariantID: 2, ProductID: 2, Stockable: true},
	}}
	w, err := command.NewLocator(repo).CreateWarehouse(ctx, tenant, "Main", "WH")
	if err != nil {
		t.Fatalf("CreateWarehouse: %v", err)
	}
	quant(t, repo, 1, w.LotStockID, 4)
	quant(t, repo, 2, w.LotStockID, 20)
	for _, r := range []domain.ReorderingRule{
		{TenantID: tenant, VariantID: 1, WarehouseID: w.ID, MinQty: 10, MaxQty: 50, Multiple: 6, Active: true},
		{TenantID: tenant, VariantID: 2, WarehouseID: w.ID, MinQty: 10, MaxQty: 50, Multiple: 1, Active: true},
	} {
		rule := r
		if err := repo.CreateRule(ctx, &rule); err != nil {
			t.Fatalf("CreateRule: %v", err)
		}
	}

	h := NewPlanningHandler(repo, catalog, 0)
	got, err := h.Suggestions(ctx, tenant, nil)
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("suggestions = %+v, want one", got)
	}
	if got[0].VariantID != 1 || got[0].OnHand != 4 || got[0].QtyToOrder != 48 {
		t.Errorf("suggestion = %+v, want variant 1 on-hand 4 order 48", got[0])
	}

	other := w.ID + 100
	got, err = h.Suggestions(ctx, tenant, &other)
	if err != nil {
		t.Fatalf("Suggestions filtered: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("filtered suggestions = %+v, want none", got)
	}
}

func TestHistoryFiltersByMoveType(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryStockRepository()
	catalog := &fakeCatalog{variants: map[uint]domain.VariantInfo{1: {VariantID: 1, ProductID: 1, Stockable: true}}}
	stock := location(t, repo, "Stock", domain.UsageInternal)
	supplier := location(t, repo, "Vendors", domain.UsageSupplier)
	customer := location(t, repo, "Customers", domain.UsageCustomer)
	inventory := location(t, repo, "Inventory adjustment", domain.UsageInventory)
	now := time.Now()
	move(t, repo, 1, supplier.ID, stock.ID, 10, domain.MoveDone, now.Add(-3*time.Hour))
	move(t, repo, 1, stock.ID, customer.ID, 4, domain.MoveDone, now.Add(-2*time.Hour))
	move(t, repo, 1, inventory.ID, stock.ID, 1, domain.MoveDone, now.Add(-time.Hour))
	move(t, repo, 1, stock.ID, customer.ID, 2, domain.MoveWaiting, now)

	h := NewHistoryHandler(repo, catalog)
	productID := uint(1)

	all, err := h.Handle(ctx, HistoryQuery{TenantID: tenant, ProductID: &productID})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if all.Total != 3 {
		t.Fatalf("total = %d, want 3 done moves", all.Total)
	}
	if all.Items[0].Type != domain.MoveAdjustment {
		t.Errorf("newest type = %s, want adjustment", all.Items[0].Type)
	}

	out, err := h.Handle(ctx, HistoryQuery{TenantID: tenant, ProductID: &productID, MoveType: domain.MoveOut})
	if err != nil {
		t.Fatalf("Handle out: %v", err)
	}
	if out.Total != 1 || out.Items[0].Quantity != 4 || out.Items[0].Destination != "Customers" {
		t.Errorf("out = %+v, want the single delivered move", out.Items)
	}

	_, err = h.Handle(ctx, HistoryQuery{TenantID: tenant, ProductID: &productID, MoveType: "sideways"})
	if !apperr.HasCode(err, apperr.Validation) {
		t.Errorf("bad type err = %v, want VALIDATION", err)
	}
	_, err = h.Handle(ctx, HistoryQuery{TenantID: tenant})
	if !apperr.HasCode(err, apperr.Validation) {
		t.Errorf("missing scope err = %v, want VALIDATION", err)
	}
}

func TestABCClassification(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryStockRepository()
	catalog := &fakeCatalog{variants: map[uint]domain.VariantInfo{
		1: {VariantID: 1, Name: "big", StandardPrice: 1, Stockable: true},
		2: {VariantID: 2, Name: "mid", StandardPrice: 1, Stockable: true},
		3: {VariantID: 3, Name: "small", StandardPrice: 1, Stockable: true},
		4: {VariantID: 4, Name: "none", StandardPrice: 1, Stockable: true},
	}}
	stock := location(t, repo, "Stock", domain.UsageInternal)
	quant(t, repo, 1, stock.ID, 80)
	quant(t, repo, 2, stock.ID, 15)
	quant(t, repo, 3, stock.ID, 5)

	h := NewAnalysisHandler(repo, catalog, NewLevelsHandler(repo, catalog), 0)
	got, err := h.ABC(ctx, ABCQuery{TenantID: tenant})
	if err != nil {
		t.Fatalf("ABC: %v", err)
	}
	if got.TotalValue != 100 {
		t.Errorf("total = %g, want 100", got.TotalValue)
	}
	want := map[uint]domain.ABCClass{1: domain.ClassA, 2: domain.ClassB, 3: domain.ClassC, 4: domain.ClassC}
	for _, it := range got.Items {
		if it.Class != want[it.VariantID] {
			t.Errorf("%s class = %s, want %s", it.Name, it.Class, want[it.VariantID])
		}
	}
	if got.Counts[domain.ClassA] != 1 || got.Counts[domain.ClassB] != 1 || got.Counts[domain.ClassC] != 2 {
		t.Errorf("counts = %v", got.Counts)
	}

	_, err = h.ABC(ctx, ABCQuery{TenantID: tenant, Thresholds: &domain.ABCThresholds{A: 90, B: 80}})
	if !apperr.HasCode(err, apperr.Validation) {
		t.Errorf("bad thresholds err = %v, want VALIDATION", err)
	}
}

func TestForecastFlagsShortage(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryStockRepository()
	catalog := &fakeCatalog{variants: map[uint]domain.VariantInfo{
		1: {VariantID: 1, ProductID: 1, Stockable: true},
		2: {VariantID: 2, ProductID: 1, Stockable: true},
	}}
	stock := location(t, repo, "Stock", domain.UsageInternal)
	customer := location(t, repo, "Customers", domain.UsageCustomer)
	end := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		at := end.Add(-time.Duration(i) * 24 * time.Hour)
		move(t, repo, 1, stock.ID, customer.ID, 2, domain.MoveDone, at)
		move(t, repo, 2, stock.ID, customer.ID, 2, domain.MoveDone, at)
	}
	quant(t, repo, 1, stock.ID, 10)
	quant(t, repo, 2, stock.ID, 30)

	h := NewAnalysisHandler(repo, catalog, NewLevelsHandler(repo, catalog), 0)
	h.now = func() time.Time { return end }
	productID := uint(1)
	got, err := h.Forecast(ctx, ForecastQuery{TenantID: tenant, ProductID: &productID, HistoryDays: 10, HorizonDays: 10})
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("forecasts = %d, want 2", len(got))
	}
	for _, f := range got {
		if f.ProjectedDemand != 20 || f.Slope != 0 {
			t.Errorf("variant %d demand = %g slope %g, want 20 and 0", f.VariantID, f.ProjectedDemand, f.Slope)
		}
		wantShortage := f.VariantID == 1
		if f.Shortage != wantShortage {
			t.Errorf("variant %d shortage = %v, want %v", f.VariantID, f.Shortage, wantShortage)
		}
	}

	_, err = h.Forecast(ctx, ForecastQuery{TenantID: tenant, ProductID: &productID, HistoryDays: 1000})
	if !apperr.HasCode(err, apperr.Validation) {
		t.Errorf("long history err = %v, want VALIDATION", err)
	}
}

func TestLotAlertsGroupByStatus(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryStockRepository()
	catalog := &fakeCatalog{variants: map[uint]domain.VariantInfo{1: {VariantID: 1, Name: "Milk", Stockable: true}}}
	stock := location(t, repo, "Stock", domain.UsageInternal)
	date := func(m time.Month, d int) *time.Time {
		t := time.Date(2026, m, d, 0, 0, 0, 0, time.UTC)
		return &t
	}
	far := date(12, 31)
	lots := []domain.Lot{
		{Name: "expired", ExpirationDate: date(3, 1)},
		{Name: "removal", RemovalDate: date(3, 5), ExpirationDate: date(4, 30)},
		{Name: "alert", AlertDate: date(3, 9), ExpirationDate: far},
		{Name: "soon", ExpirationDate: date(3, 25)},
		{Name: "fine", ExpirationDate: far},
	}
	for i := range lots {
		lots[i].TenantID, lots[i].VariantID = tenant, 1
		if err := repo.CreateLot(ctx, &lots[i]); err != nil {
			t.Fatalf("CreateLot: %v", err)
		}
	}
	q := &domain.Quant{TenantID: tenant, VariantID: 1, LocationID: stock.ID, LotID: &lots[0].ID, Quantity: 3}
	if err := repo.SaveQuant(ctx, q); err != nil {
		t.Fatalf("SaveQuant: %v", err)
	}

	h := NewPlanningHandler(repo, catalog, 30)
	h.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	got, err := h.LotAlerts(ctx, tenant, 0)
	if err != nil {
		t.Fatalf("LotAlerts: %v", err)
	}
	groups := map[string][]LotAlert{"expired": got.Expired, "removal": got.Removal, "alert": got.Alert, "soon": got.OKButSoon}
	for name, group := range groups {
		if len(group) != 1 || group[0].Name != name {
			t.Errorf("group %s = %+v, want lot %s only", name, group, name)
		}
	}
	if len(got.Expired) == 1 && (got.Expired[0].Quantity != 3 || got.Expired[0].VariantName != "Milk") {
		t.Errorf("expired = %+v, want 3 units of Milk", got.Expired[0])
	}
	if got.WithinDays != 30 {
		t.Errorf("within = %d, want 30", got.WithinDays)
	}
}
