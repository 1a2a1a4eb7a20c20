package http

import (
	"time"

	"github.com/shopspring/decimal"

	authdomain "github.com/tair/tenant-commerce/internal/auth/domain"
	"github.com/tair/tenant-commerce/internal/gateway"
	"github.com/tair/tenant-commerce/internal/order/domain"
	"github.com/tair/tenant-commerce/internal/order/usecase/command"
	"github.com/tair/tenant-commerce/internal/order/usecase/query"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/ratelimit"
)

var (
	storeManagers   = []authdomain.GroupCode{authdomain.GroupStoreManager}
	marketingReader = []authdomain.GroupCode{authdomain.GroupMarketingUser, authdomain.GroupMarketingManager}
	marketingWriter = []authdomain.GroupCode{authdomain.GroupMarketingManager}
)

// Options tunes the order endpoints.
type Options struct {
	CheckoutBudget ratelimit.Budget
	// ShipInvalidates lists the cache prefixes purged when an order ships.
	ShipInvalidates []string
}

// OrderHandler serves carts, checkout, orders and coupons.
type OrderHandler struct {
	opts     Options
	repo     domain.Repository
	carts    *command.CartHandler
	checkout *command.CheckoutHandler
	orders   *command.OrderHandler
	coupons  *command.CouponHandler
	reads    *query.OrderQueryHandler
}

func NewOrderHandler(repo domain.Repository, carts *command.CartHandler, checkout *command.CheckoutHandler,
	orders *command.OrderHandler, coupons *command.CouponHandler, reads *query.OrderQueryHandler,
	opts Options) *OrderHandler {
	if opts.CheckoutBudget.Limit == 0 {
		opts.CheckoutBudget = ratelimit.Checkout
	}
	return &OrderHandler{
		opts:     opts,
		repo:     repo,
		carts:    carts,
		checkout: checkout,
		orders:   orders,
		coupons:  coupons,
		reads:    reads,
	}
}

func (h *OrderHandler) RegisterRoutes(r *gateway.Router) {
	r.Post("/cart", gateway.Endpoint{Handle: h.cart})
	r.Post("/cart/add_line", gateway.Endpoint{Handle: h.addLine})
	r.Post("/cart/update_line", gateway.Endpoint{Handle: h.updateLine})
	r.Post("/cart/apply_coupon", gateway.Endpoint{Handle: h.applyCoupon})
	r.Post("/cart/remove_coupon", gateway.Endpoint{Handle: h.removeCoupon})
	r.Post("/cart/save", gateway.Endpoint{Action: "cart.save", Handle: h.saveCart})
	r.Post("/cart/recover", gateway.Endpoint{Handle: h.recoverCart})

	budget := h.opts.CheckoutBudget
	r.Post("/checkout/confirm", gateway.Endpoint{Budget: &budget, Action: "order.confirm", Handle: h.confirm})

	r.Post("/orders", gateway.Endpoint{Access: gateway.Authenticated, Handle: h.list})
	r.Post("/orders/:id", gateway.Endpoint{Handle: h.get})
	r.Post("/orders/:id/tracking", gateway.Endpoint{Handle: h.tracking})
	r.Post("/orders/:id/cancel", gateway.Endpoint{Action: "order.cancel", Handle: h.cancel})
	r.Post("/orders/:id/send", gateway.Endpoint{Groups: storeManagers, Action: "order.send", Handle: h.send})
	r.Post("/orders/:id/done", gateway.Endpoint{
		Groups: storeManagers, Action: "order.done", Invalidates: h.opts.ShipInvalidates, Handle: h.done,
	})

	r.Post("/coupons", gateway.Endpoint{Groups: marketingReader, Handle: h.listCoupons})
	r.Post("/coupons/create", gateway.Endpoint{Groups: marketingWriter, Action: "coupon.create", Handle: h.createCoupon})
}

type cartRequest struct {
	CartToken string `json:"cart_token"`
}

func owner(c *gateway.Call, token string) command.CartOwner {
	o := command.CartOwner{TenantID: c.TenantID(), Token: token}
	if c.User != nil && c.User.PartnerID != nil {
		o.PartnerID = c.User.PartnerID
	}
	return o
}

func (h *OrderHandler) cart(c *gateway.Call) (interface{}, error) {
	var req cartRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	return h.carts.Current(c.Ctx, owner(c, req.CartToken))
}

type addLineRequest struct {
	CartToken string  `json:"cart_token"`
	VariantID uint    `json:"variant_id"`
	ProductID uint    `json:"product_id"`
	PTAVIDs   []uint  `json:"ptav_ids"`
	Quantity  float64 `json:"quantity" validate:"required"`
}

func (h *OrderHandler) addLine(c *gateway.Call) (interface{}, error) {
	var req addLineRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	return h.carts.AddLine(c.Ctx, owner(c, req.CartToken), command.AddLineCommand{
		VariantID: req.VariantID,
		ProductID: req.ProductID,
		PTAVIDs:   req.PTAVIDs,
		Quantity:  req.Quantity,
	})
}

type updateLineRequest struct {
	CartToken string  `json:"cart_token"`
	LineID    uint    `json:"line_id" validate:"required"`
	Quantity  float64 `json:"quantity"`
}

func (h *OrderHandler) updateLine(c *gateway.Call) (interface{}, error) {
	var req updateLineRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	return h.carts.UpdateLine(c.Ctx, owner(c, req.CartToken), req.LineID, req.Quantity)
}

type couponRequest struct {
	CartToken string `json:"cart_token"`
	Code      string `json:"code" validate:"required"`
}

func (h *OrderHandler) applyCoupon(c *gateway.Call) (interface{}, error) {
	var req couponRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	return h.carts.ApplyCoupon(c.Ctx, owner(c, req.CartToken), req.Code)
}

func (h *OrderHandler) removeCoupon(c *gateway.Call) (interface{}, error) {
	var req cartRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	return h.carts.RemoveCoupon(c.Ctx, owner(c, req.CartToken))
}

type saveCartRequest struct {
	CartToken string `json:"cart_token"`
	Email     string `json:"email" validate:"required,email"`
	Name      string `json:"name"`
}

func (h *OrderHandler) saveCart(c *gateway.Call) (interface{}, error) {
	var req saveCartRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	res, err := h.carts.Save(c.Ctx, owner(c, req.CartToken), req.Email, req.Name)
	if err != nil {
		return nil, err
	}
	c.Target(res.Cart.ID)
	return res, nil
}

type recoverRequest struct {
	Token string `json:"token" validate:"required"`
}

func (h *OrderHandler) recoverCart(c *gateway.Call) (interface{}, error) {
	var req recoverRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	return h.carts.Recover(c.Ctx, c.TenantID(), req.Token)
}

type confirmRequest struct {
	CartToken  string `json:"cart_token"`
	GuestEmail string `json:"guest_email" validate:"omitempty,email"`
	GuestName  string `json:"guest_name"`
}

func (h *OrderHandler) confirm(c *gateway.Call) (interface{}, error) {
	var req confirmRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	cart, err := command.FindCart(c.Ctx, h.repo, owner(c, req.CartToken))
	if err != nil {
		return nil, err
	}
	// A saved guest cart already belongs to a partner; the token alone
	// does not prove the caller is that customer.
	if cart.PartnerID != nil {
		err := gateway.CheckOwnership(c.User, gateway.Owner{PartnerID: *cart.PartnerID, Email: cart.Email}, req.GuestEmail)
		if err != nil {
			return nil, err
		}
	}
	res, err := h.checkout.Confirm(c.Ctx, command.ConfirmCommand{
		TenantID:   c.TenantID(),
		OrderID:    cart.ID,
		GuestEmail: req.GuestEmail,
		GuestName:  req.GuestName,
	})
	if err != nil {
		return nil, err
	}
	c.Target(res.Order.ID)
	return res, nil
}

type listRequest struct {
	States []domain.State `json:"states"`
	Limit  int            `json:"limit" validate:"gte=0,lte=100"`
	Offset int            `json:"offset" validate:"gte=0"`
}

// list returns the caller's orders; admins see every order of the tenant.
func (h *OrderHandler) list(c *gateway.Call) (interface{}, error) {
	var req listRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	f := domain.OrderFilter{TenantID: c.TenantID(), States: req.States, Limit: req.Limit, Offset: req.Offset}
	if !c.IsAdmin() {
		if c.User.PartnerID == nil {
			return &query.ListOrdersResult{Orders: []domain.Order{}, Limit: req.Limit, Offset: req.Offset}, nil
		}
		f.PartnerID = c.User.PartnerID
	}
	return h.reads.List(c.Ctx, f)
}

type ownedRequest struct {
	GuestEmail string `json:"guest_email"`
}

// owned loads the order of the path and applies the ownership gate.
func (h *OrderHandler) owned(c *gateway.Call) (*domain.Order, error) {
	var req ownedRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	o, err := h.reads.Get(c.Ctx, c.TenantID(), id)
	if err != nil {
		return nil, err
	}
	var partnerID uint
	if o.PartnerID != nil {
		partnerID = *o.PartnerID
	}
	if err := gateway.CheckOwnership(c.User, gateway.Owner{PartnerID: partnerID, Email: o.Email}, req.GuestEmail); err != nil {
		return nil, err
	}
	return o, nil
}

func (h *OrderHandler) get(c *gateway.Call) (interface{}, error) {
	return h.owned(c)
}

func (h *OrderHandler) tracking(c *gateway.Call) (interface{}, error) {
	o, err := h.owned(c)
	if err != nil {
		return nil, err
	}
	return h.reads.Tracking(c.Ctx, o)
}

func (h *OrderHandler) cancel(c *gateway.Call) (interface{}, error) {
	o, err := h.owned(c)
	if err != nil {
		return nil, err
	}
	c.Target(o.ID)
	return h.orders.Cancel(c.Ctx, c.TenantID(), o.ID)
}

func (h *OrderHandler) send(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	c.Target(id)
	return h.orders.Send(c.Ctx, c.TenantID(), id)
}

func (h *OrderHandler) done(c *gateway.Call) (interface{}, error) {
	id, err := c.PathID("id")
	if err != nil {
		return nil, err
	}
	c.Target(id)
	return h.orders.Done(c.Ctx, c.TenantID(), id)
}

func (h *OrderHandler) listCoupons(c *gateway.Call) (interface{}, error) {
	return h.reads.Coupons(c.Ctx, c.TenantID())
}

type createCouponRequest struct {
	Code          string              `json:"code" validate:"required,max=64"`
	Name          string              `json:"name"`
	Active        *bool               `json:"active"`
	DateFrom      *time.Time          `json:"date_from"`
	DateTo        *time.Time          `json:"date_to"`
	DiscountType  domain.DiscountType `json:"discount_type" validate:"required,oneof=percent fixed"`
	DiscountValue decimal.Decimal     `json:"discount_value"`
	MinimumAmount decimal.Decimal     `json:"minimum_amount"`
}

func (h *OrderHandler) createCoupon(c *gateway.Call) (interface{}, error) {
	var req createCouponRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	if req.DiscountValue.IsZero() {
		return nil, apperr.Validationf("discount_value", "discount_value is required")
	}
	p, err := h.coupons.Create(c.Ctx, command.CreateCouponCommand{
		TenantID:      c.TenantID(),
		Code:          req.Code,
		Name:          req.Name,
		Active:        req.Active,
		DateFrom:      req.DateFrom,
		DateTo:        req.DateTo,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		MinimumAmount: req.MinimumAmount,
	})
	if err != nil {
		return nil, err
	}
	c.Target(p.ID)
	return p, nil
}
