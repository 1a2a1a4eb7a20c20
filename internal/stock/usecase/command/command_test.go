package command

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/tair/tenant-commerce/internal/stock/domain"
	"github.com/tair/tenant-commerce/internal/stock/repository"
	"github.com/tair/tenant-commerce/kafka"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/database"
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

func (f *fakeCatalog) StockableVariants(_ context.Context, _ uint, categoryID *uint) ([]domain.VariantInfo, error) {
	var out []domain.VariantInfo
	for _, v := range f.variants {
		if !v.Stockable {
			continue
		}
		if categoryID != nil && (v.CategoryID == nil || *v.CategoryID != *categoryID) {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VariantID < out[j].VariantID })
	return out, nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	changes []domain.QuantChange
}

func (n *recordingNotifier) QuantChanged(_ context.Context, c domain.QuantChange) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, c)
}

type recordingEvents struct {
	events []kafka.StockChangedEvent
}

func (e *recordingEvents) PublishStockChanged(_ context.Context, ev kafka.StockChangedEvent) error {
	e.events = append(e.events, ev)
	return nil
}

type fixture struct {
	repo      *repository.MemoryStockRepository
	locator   *Locator
	mover     *Mover
	notifier  *recordingNotifier
	events    *recordingEvents
	quants    *QuantHandler
	locations *LocationHandler
	delivery  *DeliveryHandler
	counts    *CycleCountHandler
	rules     *ReorderingHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := repository.NewMemoryStockRepository()
	catalog := &fakeCatalog{variants: map[uint]domain.VariantInfo{
		1: {VariantID: 1, ProductID: 10, Name: "P1", StandardPrice: 2, Stockable: true},
		2: {VariantID: 2, ProductID: 20, Name: "P2", StandardPrice: 3, Stockable: true},
		3: {VariantID: 3, ProductID: 30, Name: "Service", Stockable: false},
	}}
	tx := database.NewMemoryTransactor(repo)
	f := &fixture{repo: repo, notifier: &recordingNotifier{}, events: &recordingEvents{}}
	f.locator = NewLocator(repo)
	f.mover = NewMover(repo, f.notifier, f.events)
	f.quants = NewQuantHandler(repo, tx, catalog, f.locator, f.mover)
	f.locations = NewLocationHandler(repo, tx)
	f.delivery = NewDeliveryHandler(repo, tx, f.locator, f.mover)
	f.counts = NewCycleCountHandler(repo, tx, catalog, f.locator, f.mover)
	f.rules = NewReorderingHandler(repo, tx, catalog)
	return f
}

func (f *fixture) stock(t *testing.T) *domain.Location {
	t.Helper()
	loc, err := f.locator.DefaultStock(context.Background(), tenant)
	if err != nil {
		t.Fatalf("DefaultStock: %v", err)
	}
	return loc
}

func (f *fixture) set(t *testing.T, variantID uint, locationID *uint, qty float64) {
	t.Helper()
	_, err := f.quants.SetQuantity(context.Background(), SetQuantityCommand{
		TenantID: tenant, VariantID: variantID, LocationID: locationID, Quantity: qty,
	})
	if err != nil {
		t.Fatalf("SetQuantity(%d, %g): %v", variantID, qty, err)
	}
}

func (f *fixture) qty(t *testing.T, variantID, locationID uint) float64 {
	t.Helper()
	quants, err := f.repo.ListQuants(context.Background(), domain.QuantFilter{
		TenantID: tenant, VariantIDs: []uint{variantID}, LocationIDs: []uint{locationID},
	})
	if err != nil {
		t.Fatalf("ListQuants: %v", err)
	}
	var sum float64
	for _, q := range quants {
		sum += q.Quantity
	}
	return sum
}

func wantCode(t *testing.T, err error, code apperr.Code) {
	t.Helper()
	if !apperr.HasCode(err, code) {
		t.Fatalf("err = %v, want %s", err, code)
	}
}

func TestDefaultWarehouseMaterializesLocations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, err := f.locator.DefaultWarehouse(ctx, tenant)
	if err != nil {
		t.Fatalf("DefaultWarehouse: %v", err)
	}
	again, err := f.locator.DefaultWarehouse(ctx, tenant)
	if err != nil {
		t.Fatalf("DefaultWarehouse again: %v", err)
	}
	if again.ID != w.ID {
		t.Errorf("second call created warehouse %d, want %d", again.ID, w.ID)
	}

	names := map[uint]string{}
	locations, _ := f.repo.ListLocations(ctx, tenant, false)
	for _, l := range locations {
		names[l.ID] = l.CompleteName
	}
	for id, want := range map[uint]string{w.LotStockID: "WH/Stock", w.InputID: "WH/Input", w.OutputID: "WH/Output", w.ViewLocationID: "WH"} {
		if names[id] != want {
			t.Errorf("location %d = %q, want %q", id, names[id], want)
		}
	}

	types, _ := f.repo.ListPickingTypes(ctx, tenant)
	prefixes := map[domain.PickingCode]string{}
	for _, pt := range types {
		prefixes[pt.Code] = pt.Prefix
	}
	want := map[domain.PickingCode]string{
		domain.PickingIncoming: "WH/IN/",
		domain.PickingOutgoing: "WH/OUT/",
		domain.PickingInternal: "WH/INT/",
	}
	for code, prefix := range want {
		if prefixes[code] != prefix {
			t.Errorf("picking type %s prefix = %q, want %q", code, prefixes[code], prefix)
		}
	}

	supplier, err := f.locator.Virtual(ctx, tenant, domain.UsageSupplier)
	if err != nil {
		t.Fatalf("Virtual: %v", err)
	}
	if supplier.CompleteName != "Partners/Vendors" {
		t.Errorf("supplier = %q, want Partners/Vendors", supplier.CompleteName)
	}
}

func TestSetQuantityBooksAdjustments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stock := f.stock(t)

	f.set(t, 1, nil, 7)
	f.set(t, 1, nil, 4)
	f.set(t, 1, nil, 4)

	if got := f.qty(t, 1, stock.ID); got != 4 {
		t.Errorf("quant = %g, want 4", got)
	}
	moves, _ := f.repo.ListMoves(ctx, domain.MoveFilter{TenantID: tenant, VariantIDs: []uint{1}})
	if len(moves) != 2 {
		t.Fatalf("moves = %d, want 2", len(moves))
	}
	inventory, _ := f.locator.Virtual(ctx, tenant, domain.UsageInventory)
	var in, out float64
	for _, m := range moves {
		if m.State != domain.MoveDone {
			t.Errorf("move state = %s, want done", m.State)
		}
		switch {
		case m.LocationID == inventory.ID && m.LocationDestID == stock.ID:
			in += m.Quantity
		case m.LocationID == stock.ID && m.LocationDestID == inventory.ID:
			out += m.Quantity
		}
	}
	if in != 7 || out != 3 {
		t.Errorf("in/out = %g/%g, want 7/3", in, out)
	}

	if len(f.notifier.changes) != 2 {
		t.Fatalf("changes = %d, want 2", len(f.notifier.changes))
	}
	last := f.notifier.changes[1]
	if last.OnHand != 4 || last.Status != domain.LowStock {
		t.Errorf("last change = %+v, want on-hand 4 low_stock", last)
	}
	if len(f.events.events) != 2 || f.events.events[0].OnHand != 7 {
		t.Errorf("events = %+v", f.events.events)
	}
}

func TestSetQuantityRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	supplier, _ := f.locator.Virtual(ctx, tenant, domain.UsageSupplier)

	tests := []struct {
		name string
		cmd  SetQuantityCommand
		code apperr.Code
	}{
		{"negative", SetQuantityCommand{TenantID: tenant, VariantID: 1, Quantity: -1}, apperr.Validation},
		{"service", SetQuantityCommand{TenantID: tenant, VariantID: 3, Quantity: 1}, apperr.InvalidValue},
		{"unknown variant", SetQuantityCommand{TenantID: tenant, VariantID: 99, Quantity: 1}, apperr.NotFound},
		{"supplier location", SetQuantityCommand{TenantID: tenant, VariantID: 1, LocationID: &supplier.ID, Quantity: 1}, apperr.InvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.quants.SetQuantity(ctx, tt.cmd)
			wantCode(t, err, tt.code)
		})
	}
}

func TestLockedLocationRejectsMoves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stock := f.stock(t)
	f.set(t, 1, nil, 5)
	shelf, err := f.locations.Create(ctx, CreateLocationCommand{TenantID: tenant, Name: "Shelf", ParentID: &stock.ID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = f.locations.Lock(ctx, LockLocationCommand{TenantID: tenant, ID: shelf.ID})
	wantCode(t, err, apperr.Validation)

	locked, err := f.locations.Lock(ctx, LockLocationCommand{TenantID: tenant, ID: shelf.ID, Reason: "counting", By: "alice"})
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if !locked.IsLocked || locked.LockedBy != "alice" || locked.LockedDate == nil {
		t.Errorf("locked = %+v", locked)
	}
	_, err = f.locations.Lock(ctx, LockLocationCommand{TenantID: tenant, ID: shelf.ID, Reason: "again"})
	wantCode(t, err, apperr.InvalidState)

	_, err = f.quants.SetQuantity(ctx, SetQuantityCommand{TenantID: tenant, VariantID: 1, LocationID: &shelf.ID, Quantity: 1})
	wantCode(t, err, apperr.LocationLocked)
	_, err = f.quants.CreateMove(ctx, MoveCommand{TenantID: tenant, VariantID: 1, LocationID: stock.ID, LocationDestID: shelf.ID, Quantity: 1})
	wantCode(t, err, apperr.LocationLocked)

	if _, err := f.locations.Unlock(ctx, tenant, shelf.ID); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if _, err := f.quants.CreateMove(ctx, MoveCommand{TenantID: tenant, VariantID: 1, LocationID: stock.ID, LocationDestID: shelf.ID, Quantity: 1}); err != nil {
		t.Fatalf("CreateMove after unlock: %v", err)
	}
}

func TestInternalTransferNeedsStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stock := f.stock(t)
	f.set(t, 1, nil, 5)
	shelf, err := f.locations.Create(ctx, CreateLocationCommand{TenantID: tenant, Name: "Shelf", ParentID: &stock.ID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if shelf.CompleteName != "WH/Stock/Shelf" {
		t.Errorf("CompleteName = %q, want WH/Stock/Shelf", shelf.CompleteName)
	}

	_, err = f.quants.CreateMove(ctx, MoveCommand{TenantID: tenant, VariantID: 1, LocationID: stock.ID, LocationDestID: shelf.ID, Quantity: 8})
	wantCode(t, err, apperr.InsufficientStock)
	_, err = f.quants.CreateMove(ctx, MoveCommand{TenantID: tenant, VariantID: 1, LocationID: stock.ID, LocationDestID: stock.ID, Quantity: 1})
	wantCode(t, err, apperr.Validation)

	if _, err := f.quants.CreateMove(ctx, MoveCommand{TenantID: tenant, VariantID: 1, LocationID: stock.ID, LocationDestID: shelf.ID, Quantity: 3}); err != nil {
		t.Fatalf("CreateMove: %v", err)
	}
	if got := f.qty(t, 1, stock.ID); got != 2 {
		t.Errorf("stock = %g, want 2", got)
	}
	if got := f.qty(t, 1, shelf.ID); got != 3 {
		t.Errorf("shelf = %g, want 3", got)
	}
}

func TestMoveLocationRejectsCycles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, _ := f.locations.Create(ctx, CreateLocationCommand{TenantID: tenant, Name: "A"})
	b, _ := f.locations.Create(ctx, CreateLocationCommand{TenantID: tenant, Name: "B", ParentID: &a.ID})
	c, err := f.locations.Create(ctx, CreateLocationCommand{TenantID: tenant, Name: "C", ParentID: &b.ID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.CompleteName != "A/B/C" {
		t.Errorf("CompleteName = %q, want A/B/C", c.CompleteName)
	}

	_, err = f.locations.Move(ctx, tenant, a.ID, &c.ID)
	wantCode(t, err, apperr.CircularLoop)
	_, err = f.locations.Move(ctx, tenant, a.ID, &a.ID)
	wantCode(t, err, apperr.CircularLoop)

	name := "Z"
	if _, err := f.locations.Update(ctx, UpdateLocationCommand{TenantID: tenant, ID: a.ID, Name: &name}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := f.repo.FindLocation(ctx, tenant, c.ID)
	if got.CompleteName != "Z/B/C" {
		t.Errorf("after rename = %q, want Z/B/C", got.CompleteName)
	}

	moved, err := f.locations.Move(ctx, tenant, c.ID, nil)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if moved.CompleteName != "C" || moved.ParentID != nil {
		t.Errorf("moved = %+v, want root C", moved)
	}
}

func TestArchiveLocationGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stock := f.stock(t)
	f.set(t, 1, nil, 3)

	_, err := f.locations.Archive(ctx, tenant, stock.ID)
	wantCode(t, err, apperr.HasStock)

	f.set(t, 1, nil, 0)
	if _, err := f.delivery.Create(ctx, DeliveryCommand{TenantID: tenant, OrderID: 5, OrderName: "S00005", Lines: []DeliveryLine{{VariantID: 1, Quantity: 1}}}); err != nil {
		t.Fatalf("Create delivery: %v", err)
	}
	_, err = f.locations.Archive(ctx, tenant, stock.ID)
	wantCode(t, err, apperr.HasActivePickings)

	if err := f.delivery.Cancel(ctx, tenant, 5); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	archived, err := f.locations.Archive(ctx, tenant, stock.ID)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if archived.Active {
		t.Error("location still active")
	}
}

func TestReorderingRuleValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w, err := f.locator.DefaultWarehouse(ctx, tenant)
	if err != nil {
		t.Fatalf("DefaultWarehouse: %v", err)
	}

	tests := []struct {
		name string
		cmd  CreateRuleCommand
		code apperr.Code
	}{
		{"min not below max", CreateRuleCommand{VariantID: 1, WarehouseID: w.ID, MinQty: 10, MaxQty: 10}, apperr.Validation},
		{"negative multiple", CreateRuleCommand{VariantID: 1, WarehouseID: w.ID, MinQty: 1, MaxQty: 10, Multiple: -2}, apperr.Validation},
		{"unknown warehouse", CreateRuleCommand{VariantID: 1, WarehouseID: 999, MinQty: 1, MaxQty: 10}, apperr.NotFound},
		{"service", CreateRuleCommand{VariantID: 3, WarehouseID: w.ID, MinQty: 1, MaxQty: 10}, apperr.InvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cmd.TenantID = tenant
			_, err := f.rules.Create(ctx, tt.cmd)
			wantCode(t, err, tt.code)
		})
	}

	cmd := CreateRuleCommand{TenantID: tenant, VariantID: 1, WarehouseID: w.ID, MinQty: 10, MaxQty: 50, Multiple: 6}
	first, err := f.rules.Create(ctx, cmd)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err = f.rules.Create(ctx, cmd)
	wantCode(t, err, apperr.Conflict)

	if _, err := f.rules.Archive(ctx, tenant, first.ID); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if _, err := f.rules.Create(ctx, cmd); err != nil {
		t.Fatalf("Create after archive: %v", err)
	}

	bad := 60.0
	_, err = f.rules.Update(ctx, UpdateRuleCommand{TenantID: tenant, ID: first.ID, MinQty: &bad})
	wantCode(t, err, apperr.Validation)
}

func TestCycleCountAppliesCountedQuantities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stock := f.stock(t)
	f.set(t, 1, nil, 10)
	f.set(t, 2, nil, 5)

	c, err := f.counts.Create(ctx, CreateCycleCountCommand{TenantID: tenant, LocationIDs: []uint{stock.ID}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.State != domain.CountDraft {
		t.Fatalf("state = %s, want draft", c.State)
	}
	c, err = f.counts.GenerateLines(ctx, tenant, c.ID)
	if err != nil {
		t.Fatalf("GenerateLines: %v", err)
	}
	if c.State != domain.CountInProgress {
		t.Errorf("state = %s, want in_progress", c.State)
	}
	if len(c.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(c.Lines))
	}
	counted := map[uint]float64{1: 8, 2: 5}
	for _, l := range c.Lines {
		want := map[uint]float64{1: 10, 2: 5}[l.VariantID]
		if l.TheoreticalQty != want {
			t.Errorf("variant %d theoretical = %g, want %g", l.VariantID, l.TheoreticalQty, want)
		}
		line, err := f.counts.UpdateLine(ctx, tenant, l.ID, counted[l.VariantID])
		if err != nil {
			t.Fatalf("UpdateLine: %v", err)
		}
		if l.VariantID == 1 && (line.Difference != -2 || line.ValueDiff != -4) {
			t.Errorf("P1 line = %+v, want difference -2 value -4", line)
		}
	}

	done, err := f.counts.Validate(ctx, tenant, c.ID)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if done.State != domain.CountDone || done.CompletionDate == nil {
		t.Errorf("count = %s completion %v, want done with date", done.State, done.CompletionDate)
	}
	if got := f.qty(t, 1, stock.ID); got != 8 {
		t.Errorf("P1 on-hand = %g, want 8", got)
	}
	if got := f.qty(t, 2, stock.ID); got != 5 {
		t.Errorf("P2 on-hand = %g, want 5", got)
	}

	_, err = f.counts.UpdateLine(ctx, tenant, c.Lines[0].ID, 1)
	wantCode(t, err, apperr.InvalidState)
	_, err = f.counts.Cancel(ctx, tenant, c.ID)
	wantCode(t, err, apperr.InvalidState)
}

func TestCycleCountAdjustsLotQuants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stock := f.stock(t)
	lot := uint(77)
	if _, err := f.quants.SetQuantity(ctx, SetQuantityCommand{TenantID: tenant, VariantID: 1, LotID: &lot, Quantity: 10}); err != nil {
		t.Fatalf("SetQuantity lot: %v", err)
	}
	f.set(t, 1, nil, 3)

	c, err := f.counts.Create(ctx, CreateCycleCountCommand{TenantID: tenant, LocationIDs: []uint{stock.ID}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	c, err = f.counts.GenerateLines(ctx, tenant, c.ID)
	if err != nil {
		t.Fatalf("GenerateLines: %v", err)
	}
	if len(c.Lines) != 2 {
		t.Fatalf("lines = %d, want one per lot", len(c.Lines))
	}
	if c.Lines[0].LotID != nil || c.Lines[1].LotID == nil || *c.Lines[1].LotID != lot {
		t.Fatalf("line lots = %v, %v; want none then %d", c.Lines[0].LotID, c.Lines[1].LotID, lot)
	}
	if c.Lines[1].TheoreticalQty != 10 {
		t.Errorf("lot line theoretical = %g, want 10", c.Lines[1].TheoreticalQty)
	}
	if _, err := f.counts.UpdateLine(ctx, tenant, c.Lines[1].ID, 8); err != nil {
		t.Fatalf("UpdateLine: %v", err)
	}

	if _, err := f.counts.Validate(ctx, tenant, c.ID); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	quants, err := f.repo.ListQuants(ctx, domain.QuantFilter{TenantID: tenant, VariantIDs: []uint{1}, LocationIDs: []uint{stock.ID}})
	if err != nil {
		t.Fatalf("ListQuants: %v", err)
	}
	for _, q := range quants {
		want := 3.0
		if q.LotID != nil {
			want = 8
		}
		if q.Quantity != want {
			t.Errorf("quant lot %v = %g, want %g", q.LotID, q.Quantity, want)
		}
	}
	if got := f.qty(t, 1, stock.ID); got != 11 {
		t.Errorf("P1 on-hand = %g, want 11", got)
	}
}

func TestCycleCountValidateRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stock := f.stock(t)
	shelf, err := f.locations.Create(ctx, CreateLocationCommand{TenantID: tenant, Name: "Shelf", ParentID: &stock.ID})
	if err != nil {
		t.Fatalf("Create location: %v", err)
	}
	f.set(t, 1, nil, 10)
	f.set(t, 2, &shelf.ID, 4)

	c, err := f.counts.Create(ctx, CreateCycleCountCommand{TenantID: tenant, LocationIDs: []uint{stock.ID}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	c, err = f.counts.GenerateLines(ctx, tenant, c.ID)
	if err != nil {
		t.Fatalf("GenerateLines: %v", err)
	}
	if len(c.Lines) != 2 || c.Lines[0].LocationID != stock.ID {
		t.Fatalf("lines = %+v, want stock line first", c.Lines)
	}
	for _, l := range c.Lines {
		if _, err := f.counts.UpdateLine(ctx, tenant, l.ID, 1); err != nil {
			t.Fatalf("UpdateLine: %v", err)
		}
	}
	if _, err := f.locations.Lock(ctx, LockLocationCommand{TenantID: tenant, ID: shelf.ID, Reason: "audit"}); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	_, err = f.counts.Validate(ctx, tenant, c.ID)
	wantCode(t, err, apperr.LocationLocked)
	if got := f.qty(t, 1, stock.ID); got != 10 {
		t.Errorf("P1 on-hand after failed validate = %g, want 10", got)
	}
	after, err := f.repo.FindCount(ctx, tenant, c.ID)
	if err != nil {
		t.Fatalf("FindCount: %v", err)
	}
	if after.State != domain.CountInProgress {
		t.Errorf("count state = %s, want in_progress", after.State)
	}
}

func TestCycleCountTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stock := f.stock(t)
	f.set(t, 1, nil, 2)

	c, err := f.counts.Create(ctx, CreateCycleCountCommand{TenantID: tenant, Name: "Weekly", LocationIDs: []uint{stock.ID}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err = f.counts.Validate(ctx, tenant, c.ID)
	wantCode(t, err, apperr.InvalidState)

	if _, err := f.counts.Schedule(ctx, tenant, c.ID, nil); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	_, err = f.counts.Schedule(ctx, tenant, c.ID, nil)
	wantCode(t, err, apperr.InvalidState)

	started, err := f.counts.Start(ctx, tenant, c.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if started.State != domain.CountInProgress || len(started.Lines) != 1 {
		t.Errorf("started = %s with %d lines, want in_progress with 1", started.State, len(started.Lines))
	}

	cancelled, err := f.counts.Cancel(ctx, tenant, c.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.State != domain.CountCancel {
		t.Errorf("state = %s, want cancel", cancelled.State)
	}
	_, err = f.counts.GenerateLines(ctx, tenant, c.ID)
	wantCode(t, err, apperr.InvalidState)

	_, err = f.counts.Create(ctx, CreateCycleCountCommand{TenantID: tenant})
	wantCode(t, err, apperr.Validation)
}

func TestDeliveryShipsWaitingMoves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stock := f.stock(t)
	f.set(t, 1, nil, 10)

	p, err := f.delivery.Create(ctx, DeliveryCommand{TenantID: tenant, OrderID: 7, OrderName: "S00007", Lines: []DeliveryLine{{VariantID: 1, Quantity: 4}}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Name != "WH/OUT/00001" || p.State != domain.PickingWaiting {
		t.Errorf("picking = %s %s, want WH/OUT/00001 waiting", p.Name, p.State)
	}
	second, err := f.delivery.Create(ctx, DeliveryCommand{TenantID: tenant, OrderID: 8, OrderName: "S00008", Lines: []DeliveryLine{{VariantID: 1, Quantity: 1}}})
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}
	if second.Name != "WH/OUT/00002" {
		t.Errorf("second = %s, want WH/OUT/00002", second.Name)
	}
	if got := f.qty(t, 1, stock.ID); got != 10 {
		t.Errorf("stock before shipping = %g, want 10", got)
	}

	shipped, err := f.delivery.Ship(ctx, tenant, 7)
	if err != nil {
		t.Fatalf("Ship: %v", err)
	}
	if len(shipped) != 1 || shipped[0].State != domain.PickingDone {
		t.Fatalf("shipped = %+v", shipped)
	}
	if got := f.qty(t, 1, stock.ID); got != 6 {
		t.Errorf("stock after shipping = %g, want 6", got)
	}
	pickings, _ := f.repo.ListPickings(ctx, tenant, 7)
	if pickings[0].Moves[0].State != domain.MoveDone {
		t.Errorf("move state = %s, want done", pickings[0].Moves[0].State)
	}
}
