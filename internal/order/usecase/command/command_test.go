package command

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/tenant-commerce/internal/order/domain"
	"github.com/tair/tenant-commerce/internal/order/repository"
	"github.com/tair/tenant-commerce/kafka"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/database"
)

const tenant = uint(1)

type fakePricer struct {
	variants map[uint]domain.CatalogVariant
	ensured  []uint
}

func newPricer() *fakePricer {
	return &fakePricer{variants: map[uint]domain.CatalogVariant{
		1: {VariantID: 1, ProductID: 10, Name: "Shirt (Red)", UnitPrice: 20, Stockable: true},
		2: {VariantID: 2, ProductID: 11, Name: "Mug", UnitPrice: 7.5, Stockable: true},
		3: {VariantID: 3, ProductID: 12, Name: "Gift wrap", UnitPrice: 2},
	}}
}

func (p *fakePricer) Variant(_ context.Context, _, id uint) (*domain.CatalogVariant, error) {
	v, ok := p.variants[id]
	if !ok {
		return nil, apperr.NotFoundf("variant")
	}
	return &v, nil
}

func (p *fakePricer) EnsureVariant(_ context.Context, _, productID uint, ptavIDs []uint) (uint, error) {
	p.ensured = append(p.ensured, productID)
	for _, v := range p.variants {
		if v.ProductID == productID {
			return v.VariantID, nil
		}
	}
	return 0, apperr.NotFoundf("product")
}

// fakePartners hands out guest ids from 100. Registered customers in the
// tests use ids below that and are never returned.
type fakePartners struct {
	byEmail map[string]uint
}

func (p *fakePartners) GuestPartner(_ context.Context, _ uint, email, _ string) (uint, error) {
	if id, ok := p.byEmail[email]; ok {
		return id, nil
	}
	id := uint(100 + len(p.byEmail))
	p.byEmail[email] = id
	return id, nil
}

type fakeFulfillment struct {
	available map[uint]float64
	delivered []uint
	shipped   []uint
	released  []uint
}

func (f *fakeFulfillment) Available(_ context.Context, _ uint, ids []uint) (map[uint]float64, error) {
	out := make(map[uint]float64)
	for _, id := range ids {
		out[id] = f.available[id]
	}
	return out, nil
}

func (f *fakeFulfillment) Deliver(_ context.Context, o *domain.Order) (*domain.Shipment, error) {
	f.delivered = append(f.delivered, o.ID)
	return &domain.Shipment{ID: 7, Name: "WH/OUT/00001", State: "waiting"}, nil
}

func (f *fakeFulfillment) Ship(_ context.Context, _, orderID uint) error {
	f.shipped = append(f.shipped, orderID)
	return nil
}

func (f *fakeFulfillment) Release(_ context.Context, _, orderID uint) error {
	f.released = append(f.released, orderID)
	return nil
}

func (f *fakeFulfillment) Shipments(context.Context, uint, uint) ([]domain.Shipment, error) {
	return nil, nil
}

type recordingEvents struct {
	confirmed []kafka.OrderConfirmedEvent
}

func (e *recordingEvents) PublishOrderConfirmed(_ context.Context, ev kafka.OrderConfirmedEvent) error {
	e.confirmed = append(e.confirmed, ev)
	return nil
}

type sentMail struct{ to, subject, body string }

type recordingMailer struct {
	sent []sentMail
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

type fixture struct {
	repo        *repository.MemoryOrderRepository
	pricer      *fakePricer
	partners    *fakePartners
	fulfillment *fakeFulfillment
	events      *recordingEvents
	mail        *recordingMailer
	clock       time.Time

	carts    *CartHandler
	checkout *CheckoutHandler
	orders   *OrderHandler
	coupons  *CouponHandler
}

func newFixture() *fixture {
	f := &fixture{
		repo:        repository.NewMemoryOrderRepository(),
		pricer:      newPricer(),
		partners:    &fakePartners{byEmail: map[string]uint{}},
		fulfillment: &fakeFulfillment{available: map[uint]float64{1: 10, 2: 1}},
		events:      &recordingEvents{},
		mail:        &recordingMailer{},
		clock:       time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	tx := database.NewMemoryTransactor(f.repo)
	now := func() time.Time { return f.clock }
	f.carts = NewCartHandler(f.repo, tx, f.pricer, f.partners, f.mail, "https://shop.example.com/")
	f.carts.now = now
	f.checkout = NewCheckoutHandler(f.repo, tx, f.fulfillment, f.partners, f.events)
	f.checkout.now = now
	f.orders = NewOrderHandler(f.repo, tx, f.fulfillment)
	f.orders.now = now
	f.coupons = NewCouponHandler(f.repo)
	return f
}

func wantCode(t *testing.T, err error, code apperr.Code) {
	t.Helper()
	if got := apperr.CodeOf(err); got != code {
		t.Fatalf("error code = %q (%v), want %q", got, err, code)
	}
}

func (f *fixture) guestCart(t *testing.T) (CartOwner, *domain.Order) {
	t.Helper()
	ctx := context.Background()
	cart, err := f.carts.Current(ctx, CartOwner{TenantID: tenant})
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	owner := CartOwner{TenantID: tenant, Token: cart.CartToken}
	for _, cmd := range []AddLineCommand{{VariantID: 1, Quantity: 2}, {VariantID: 2, Quantity: 1}} {
		if cart, err = f.carts.AddLine(ctx, owner, cmd); err != nil {
			t.Fatalf("AddLine: %v", err)
		}
	}
	return owner, cart
}

func TestCurrentCartIsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	partner := uint(5)
	owner := CartOwner{TenantID: tenant, PartnerID: &partner}

	first, err := f.carts.Current(ctx, owner)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	second, err := f.carts.Current(ctx, owner)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("second cart id = %d, want %d", second.ID, first.ID)
	}
	if first.CartToken != "" {
		t.Errorf("partner cart token = %q, want empty", first.CartToken)
	}
}

func TestAddLineMergesAndRemoves(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, cart := f.guestCart(t)

	if len(cart.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(cart.Lines))
	}
	if !cart.AmountTotal.Equal(decimal.RequireFromString("47.5")) {
		t.Errorf("total = %s, want 47.50", cart.AmountTotal)
	}

	cart, err := f.carts.AddLine(ctx, owner, AddLineCommand{VariantID: 1, Quantity: 3})
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if got := cart.Lines[0].Quantity; got != 5 {
		t.Errorf("merged quantity = %v, want 5", got)
	}

	cart, err = f.carts.AddLine(ctx, owner, AddLineCommand{VariantID: 2, Quantity: -1})
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if len(cart.Lines) != 1 {
		t.Fatalf("lines after removal = %d, want 1", len(cart.Lines))
	}

	cart, err = f.carts.UpdateLine(ctx, owner, cart.Lines[0].ID, 0)
	if err != nil {
		t.Fatalf("UpdateLine: %v", err)
	}
	if len(cart.Lines) != 0 || !cart.AmountTotal.IsZero() {
		t.Errorf("cart = %d lines, total %s; want empty", len(cart.Lines), cart.AmountTotal)
	}

	_, err = f.carts.UpdateLine(ctx, owner, 999, 1)
	wantCode(t, err, apperr.NotFound)
}

func TestAddLineByCombination(t *testing.T) {
	f := newFixture()
	cart, err := f.carts.AddLine(context.Background(), CartOwner{TenantID: tenant},
		AddLineCommand{ProductID: 11, PTAVIDs: []uint{4}, Quantity: 1})
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if len(f.pricer.ensured) != 1 || cart.Lines[0].VariantID != 2 {
		t.Errorf("ensured = %v, line variant = %d; want product 11 resolved to variant 2", f.pricer.ensured, cart.Lines[0].VariantID)
	}

	_, err = f.carts.AddLine(context.Background(), CartOwner{TenantID: tenant}, AddLineCommand{Quantity: 1})
	wantCode(t, err, apperr.Validation)
}

func TestCouponLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, _ := f.guestCart(t)

	past := f.clock.Add(-48 * time.Hour)
	yesterday := f.clock.Add(-24 * time.Hour)
	for _, cmd := range []CreateCouponCommand{
		{TenantID: tenant, Code: " save10 ", DiscountType: domain.DiscountPercent, DiscountValue: decimal.NewFromInt(10)},
		{TenantID: tenant, Code: "OLD", DiscountType: domain.DiscountFixed, DiscountValue: decimal.NewFromInt(5), DateFrom: &past, DateTo: &yesterday},
		{TenantID: tenant, Code: "BIG", DiscountType: domain.DiscountFixed, DiscountValue: decimal.NewFromInt(5), MinimumAmount: decimal.NewFromInt(100)},
	} {
		if _, err := f.coupons.Create(ctx, cmd); err != nil {
			t.Fatalf("Create %s: %v", cmd.Code, err)
		}
	}

	_, err := f.coupons.Create(ctx, CreateCouponCommand{TenantID: tenant, Code: "SAVE10", DiscountType: domain.DiscountFixed, DiscountValue: decimal.NewFromInt(1)})
	wantCode(t, err, apperr.Conflict)

	for _, code := range []string{"OLD", "BIG", "NOPE"} {
		_, err := f.carts.ApplyCoupon(ctx, owner, code)
		wantCode(t, err, apperr.InvalidValue)
	}

	cart, err := f.carts.ApplyCoupon(ctx, owner, "save10")
	if err != nil {
		t.Fatalf("ApplyCoupon: %v", err)
	}
	if cart.CouponCode != "SAVE10" || !cart.AmountDiscount.Equal(decimal.RequireFromString("4.75")) {
		t.Errorf("coupon = %q, discount = %s; want SAVE10, 4.75", cart.CouponCode, cart.AmountDiscount)
	}
	if !cart.AmountTotal.Equal(decimal.RequireFromString("42.75")) {
		t.Errorf("total = %s, want 42.75", cart.AmountTotal)
	}

	cart, err = f.carts.RemoveCoupon(ctx, owner)
	if err != nil {
		t.Fatalf("RemoveCoupon: %v", err)
	}
	if cart.CouponID != nil || !cart.AmountDiscount.IsZero() {
		t.Errorf("after remove: coupon %v, discount %s", cart.CouponID, cart.AmountDiscount)
	}
}

func TestAbandonedCartRecovery(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, cart := f.guestCart(t)

	res, err := f.carts.Save(ctx, owner, "x@y.z", "")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if res.Token == "" || res.Cart.PartnerID == nil {
		t.Fatalf("save result = %+v, want token and partner", res)
	}
	if len(f.mail.sent) != 1 || f.mail.sent[0].to != "x@y.z" {
		t.Fatalf("mails = %+v, want one to x@y.z", f.mail.sent)
	}
	if !strings.Contains(f.mail.sent[0].body, "https://shop.example.com/shop/cart/recover?token=") {
		t.Errorf("mail body %q lacks the recovery link", f.mail.sent[0].body)
	}

	f.clock = f.clock.Add(6 * 24 * time.Hour)
	got, err := f.carts.Recover(ctx, tenant, res.Token)
	if err != nil {
		t.Fatalf("Recover after 6 days: %v", err)
	}
	if got.ID != cart.ID || len(got.Lines) != 2 {
		t.Errorf("recovered cart %d with %d lines, want %d with 2", got.ID, len(got.Lines), cart.ID)
	}

	f.clock = f.clock.Add(2 * 24 * time.Hour)
	_, err = f.carts.Recover(ctx, tenant, res.Token)
	wantCode(t, err, apperr.Expired)

	_, err = f.carts.Recover(ctx, tenant, "unknown")
	wantCode(t, err, apperr.NotFound)
}

func TestSaveKeepsRegisteredCustomerCart(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	victim := uint(5)
	victimOwner := CartOwner{TenantID: tenant, PartnerID: &victim}
	victimCart, err := f.carts.AddLine(ctx, victimOwner, AddLineCommand{VariantID: 3, Quantity: 1})
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	owner, guest := f.guestCart(t)

	res, err := f.carts.Save(ctx, owner, "victim@shop.z", "")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if res.Cart.ID != guest.ID || len(res.Cart.Lines) != 2 || res.Cart.CartToken != guest.CartToken {
		t.Errorf("saved cart %d with %d lines, token %q; want own cart %d with 2 lines, token %q",
			res.Cart.ID, len(res.Cart.Lines), res.Cart.CartToken, guest.ID, guest.CartToken)
	}
	if res.Cart.PartnerID == nil || *res.Cart.PartnerID == victim {
		t.Errorf("saved cart partner = %v, want a guest partner", res.Cart.PartnerID)
	}

	after, err := f.carts.Current(ctx, victimOwner)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if after.ID != victimCart.ID || len(after.Lines) != 1 || after.CartToken != "" || after.State != domain.StateDraft {
		t.Errorf("victim cart = id %d, %d lines, token %q, state %s; want untouched", after.ID, len(after.Lines), after.CartToken, after.State)
	}

	got, err := f.carts.Recover(ctx, tenant, res.Token)
	if err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if got.ID != guest.ID {
		t.Errorf("recovered cart %d, want the saver's own cart %d", got.ID, guest.ID)
	}
}

func TestSaveNeverMergesGuestCarts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	firstOwner, first := f.guestCart(t)
	if _, err := f.carts.Save(ctx, firstOwner, "x@y.z", ""); err != nil {
		t.Fatalf("Save first: %v", err)
	}
	secondOwner, second := f.guestCart(t)

	res, err := f.carts.Save(ctx, secondOwner, "x@y.z", "")
	if err != nil {
		t.Fatalf("Save second: %v", err)
	}
	if res.Cart.ID != second.ID || res.Cart.PartnerID != nil || res.Cart.Email != "x@y.z" {
		t.Errorf("second cart = id %d, partner %v, email %q; want own partner-less cart", res.Cart.ID, res.Cart.PartnerID, res.Cart.Email)
	}
	if res.Cart.CartToken != second.CartToken {
		t.Errorf("second cart token = %q, want %q", res.Cart.CartToken, second.CartToken)
	}

	old, err := f.repo.FindOrder(ctx, tenant, first.ID)
	if err != nil {
		t.Fatalf("FindOrder: %v", err)
	}
	if old.State != domain.StateDraft || len(old.Lines) != 2 || old.CartToken != first.CartToken {
		t.Errorf("first cart = state %s, %d lines, token %q; want untouched", old.State, len(old.Lines), old.CartToken)
	}
}

func TestCheckoutConfirmsAndPublishes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, cart := f.guestCart(t)

	_, err := f.checkout.Confirm(ctx, ConfirmCommand{TenantID: tenant, OrderID: cart.ID})
	wantCode(t, err, apperr.Validation)

	res, err := f.checkout.Confirm(ctx, ConfirmCommand{TenantID: tenant, OrderID: cart.ID, GuestEmail: "guest@example.com"})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	o := res.Order
	if o.State != domain.StateSale || o.DateOrder == nil || o.CartToken != "" {
		t.Errorf("order = state %s, date %v, token %q", o.State, o.DateOrder, o.CartToken)
	}
	if o.Name != "S00001" {
		t.Errorf("name = %q, want S00001", o.Name)
	}
	if len(f.fulfillment.delivered) != 1 || res.Shipment == nil {
		t.Errorf("deliveries = %v, want one", f.fulfillment.delivered)
	}
	if len(f.events.confirmed) != 1 {
		t.Fatalf("events = %d, want 1", len(f.events.confirmed))
	}
	ev := f.events.confirmed[0]
	if ev.AmountTotal != "47.50" || ev.PickingID != 7 || ev.PartnerID != 100 {
		t.Errorf("event = %+v", ev)
	}

	_, err = f.checkout.Confirm(ctx, ConfirmCommand{TenantID: tenant, OrderID: cart.ID})
	wantCode(t, err, apperr.InvalidState)
}

func TestCheckoutRejectsShortStock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, cart := f.guestCart(t)
	if _, err := f.carts.AddLine(ctx, owner, AddLineCommand{VariantID: 2, Quantity: 1}); err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	_, err := f.checkout.Confirm(ctx, ConfirmCommand{TenantID: tenant, OrderID: cart.ID, GuestEmail: "g@example.com"})
	wantCode(t, err, apperr.InsufficientStock)
	if len(f.fulfillment.delivered) != 0 {
		t.Errorf("deliveries = %v, want none", f.fulfillment.delivered)
	}
}

func TestOrderTransitions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, cart := f.guestCart(t)
	res, err := f.checkout.Confirm(ctx, ConfirmCommand{TenantID: tenant, OrderID: cart.ID, GuestEmail: "g@example.com"})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	_, err = f.orders.Send(ctx, tenant, res.Order.ID)
	wantCode(t, err, apperr.InvalidState)

	done, err := f.orders.Done(ctx, tenant, res.Order.ID)
	if err != nil {
		t.Fatalf("Done: %v", err)
	}
	if done.State != domain.StateDone || len(f.fulfillment.shipped) != 1 {
		t.Errorf("state = %s, shipped = %v", done.State, f.fulfillment.shipped)
	}
	_, err = f.orders.Cancel(ctx, tenant, res.Order.ID)
	wantCode(t, err, apperr.InvalidState)

	_, second := f.guestCart(t)
	sent, err := f.orders.Send(ctx, tenant, second.ID)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sent.State != domain.StateSent || sent.IsCart() {
		t.Errorf("sent order state = %s, cart = %v", sent.State, sent.IsCart())
	}
	cancelled, err := f.orders.Cancel(ctx, tenant, second.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.State != domain.StateCancel || len(f.fulfillment.released) != 0 {
		t.Errorf("state = %s, released = %v; a quotation holds no stock", cancelled.State, f.fulfillment.released)
	}
}
