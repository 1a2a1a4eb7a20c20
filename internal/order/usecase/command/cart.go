package command

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/tenant-commerce/internal/order/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/database"
	"github.com/tair/tenant-commerce/pkg/logger"
	"github.com/tair/tenant-commerce/pkg/mailer"
)

// CartOwner identifies whose cart a request addresses. Signed-in customers
// are found by partner, guests by the cart token they were handed.
type CartOwner struct {
	TenantID  uint
	PartnerID *uint
	Token     string
}

type AddLineCommand struct {
	VariantID uint
	// ProductID and PTAVIDs select a variant by combination, creating
	// it when the combination is dynamic.
	ProductID uint
	PTAVIDs   []uint
	Quantity  float64
}

type CartHandler struct {
	repo     domain.Repository
	tx       database.Transactor
	pricer   domain.VariantPricer
	partners domain.Partners
	mail     mailer.Mailer
	baseURL  string
	now      func() time.Time
}

func NewCartHandler(repo domain.Repository, tx database.Transactor, pricer domain.VariantPricer,
	partners domain.Partners, mail mailer.Mailer, storefrontURL string) *CartHandler {
	return &CartHandler{
		repo:     repo,
		tx:       tx,
		pricer:   pricer,
		partners: partners,
		mail:     mail,
		baseURL:  strings.TrimRight(storefrontURL, "/"),
		now:      time.Now,
	}
}

// FindCart returns the open cart of owner without creating one.
func FindCart(ctx context.Context, repo domain.OrderRepository, owner CartOwner) (*domain.Order, error) {
	if owner.PartnerID != nil {
		return repo.FindCartByPartner(ctx, owner.TenantID, *owner.PartnerID)
	}
	if owner.Token == "" {
		return nil, apperr.NotFoundf("cart")
	}
	return repo.FindCartByToken(ctx, owner.TenantID, owner.Token)
}

// Current returns the open cart of owner, creating it on first use.
func (h *CartHandler) Current(ctx context.Context, owner CartOwner) (*domain.Order, error) {
	cart, err := FindCart(ctx, h.repo, owner)
	if err == nil {
		return cart, nil
	}
	if !apperr.HasCode(err, apperr.NotFound) {
		return nil, err
	}

	cart = &domain.Order{TenantID: owner.TenantID, PartnerID: owner.PartnerID, State: domain.StateDraft}
	if owner.PartnerID == nil {
		cart.CartToken = domain.NewCartToken()
	}
	cart.Recompute(nil)
	if err := h.repo.CreateOrder(ctx, cart); err != nil {
		// Lost a race against a concurrent request for the same partner.
		if apperr.HasCode(err, apperr.Conflict) && owner.PartnerID != nil {
			return FindCart(ctx, h.repo, owner)
		}
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return cart, nil
}

func (h *CartHandler) AddLine(ctx context.Context, owner CartOwner, cmd AddLineCommand) (*domain.Order, error) {
	if cmd.Quantity == 0 {
		return nil, apperr.Validationf("quantity", "quantity must not be zero")
	}
	variantID := cmd.VariantID
	if variantID == 0 {
		if cmd.ProductID == 0 {
			return nil, apperr.Validationf("variant_id", "variant_id or product_id is required")
		}
		id, err := h.pricer.EnsureVariant(ctx, owner.TenantID, cmd.ProductID, cmd.PTAVIDs)
		if err != nil {
			return nil, err
		}
		variantID = id
	}
	v, err := h.pricer.Variant(ctx, owner.TenantID, variantID)
	if err != nil {
		return nil, err
	}

	return h.mutate(ctx, owner, func(cart *domain.Order) error {
		cart.AddLine(domain.OrderLine{
			VariantID: v.VariantID,
			ProductID: v.ProductID,
			Name:      v.Name,
			Quantity:  cmd.Quantity,
			UnitPrice: decimal.NewFromFloat(v.UnitPrice).Round(2),
			Stockable: v.Stockable,
		})
		return nil
	})
}

func (h *CartHandler) UpdateLine(ctx context.Context, owner CartOwner, lineID uint, qty float64) (*domain.Order, error) {
	return h.mutate(ctx, owner, func(cart *domain.Order) error {
		return cart.SetLineQuantity(lineID, qty)
	})
}

// ApplyCoupon attaches the program behind code, replacing any coupon the
// cart already carries.
func (h *CartHandler) ApplyCoupon(ctx context.Context, owner CartOwner, code string) (*domain.Order, error) {
	code = domain.NormalizeCode(code)
	if code == "" {
		return nil, apperr.Validationf("code", "code is required")
	}
	program, err := h.repo.FindProgramByCode(ctx, owner.TenantID, code)
	if err != nil {
		if apperr.HasCode(err, apperr.NotFound) {
			return nil, apperr.Newf(apperr.InvalidValue, "coupon %s does not exist", code)
		}
		return nil, err
	}
	return h.mutate(ctx, owner, func(cart *domain.Order) error {
		cart.Recompute(nil)
		if err := program.Check(h.now(), cart.AmountSubtotal); err != nil {
			return err
		}
		cart.CouponID = &program.ID
		cart.CouponCode = program.Code
		return nil
	})
}

func (h *CartHandler) RemoveCoupon(ctx context.Context, owner CartOwner) (*domain.Order, error) {
	return h.mutate(ctx, owner, func(cart *domain.Order) error {
		cart.CouponID = nil
		cart.CouponCode = ""
		return nil
	})
}

// mutate applies fn to the current cart, reprices it and saves it.
func (h *CartHandler) mutate(ctx context.Context, owner CartOwner, fn func(cart *domain.Order) error) (*domain.Order, error) {
	cart, err := h.Current(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := fn(cart); err != nil {
		return nil, err
	}
	if err := Reprice(ctx, h.repo, cart); err != nil {
		return nil, err
	}
	if err := h.repo.SaveOrder(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return cart, nil
}

// Reprice recomputes amounts with the attached coupon, if any.
func Reprice(ctx context.Context, repo domain.ProgramRepository, o *domain.Order) error {
	var program *domain.Program
	if o.CouponID != nil {
		p, err := repo.FindProgram(ctx, o.TenantID, *o.CouponID)
		switch {
		case err == nil:
			program = p
		case apperr.HasCode(err, apperr.NotFound):
			o.CouponID = nil
			o.CouponCode = ""
		default:
			return err
		}
	}
	o.Recompute(program)
	return nil
}

type SaveCartResult struct {
	Token string        `json:"token"`
	Cart  *domain.Order `json:"cart"`
}

// Save attaches email to the cart, mints a recovery token and mails the
// recovery link. An anonymous cart is bound to the guest partner of email
// unless that guest already has an open cart; it is never merged into
// another cart and keeps its own cart token. A mail failure does not fail
// the call.
func (h *CartHandler) Save(ctx context.Context, owner CartOwner, email, name string) (*SaveCartResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperr.Validationf("email", "email is required")
	}
	cart, err := FindCart(ctx, h.repo, owner)
	if err != nil {
		return nil, err
	}
	if len(cart.Lines) == 0 {
		return nil, apperr.Validationf("lines", "the cart is empty")
	}
	token, err := domain.NewRecoveryToken()
	if err != nil {
		return nil, fmt.Errorf("failed to mint recovery token: %w", err)
	}

	err = h.tx.WithinTx(ctx, func(ctx context.Context) error {
		if cart.PartnerID == nil {
			partnerID, err := h.partners.GuestPartner(ctx, cart.TenantID, email, name)
			if err != nil {
				return err
			}
			_, err = h.repo.FindCartByPartner(ctx, cart.TenantID, partnerID)
			switch {
			case apperr.HasCode(err, apperr.NotFound):
				cart.PartnerID = &partnerID
			case err != nil:
				return err
			}
		}
		cart.Email = email
		cart.MarkRecoverySent(token, h.now())
		if err := Reprice(ctx, h.repo, cart); err != nil {
			return err
		}
		return h.repo.SaveOrder(ctx, cart)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	link := h.baseURL + "/shop/cart/recover?token=" + url.QueryEscape(token)
	body := fmt.Sprintf(`<p>You left %d item(s) in your cart.</p><p><a href="%s">Resume your order</a></p>`,
		len(cart.Lines), html.EscapeString(link))
	if err := h.mail.Send(ctx, email, "Your cart is waiting", body); err != nil {
		logger.Warn(ctx).Err(err).Uint("order_id", cart.ID).Msg("recovery mail not sent")
	}
	return &SaveCartResult{Token: token, Cart: cart}, nil
}

// Recover rehydrates an abandoned cart from its recovery token. The
// returned cart carries a cart token the guest can keep using.
func (h *CartHandler) Recover(ctx context.Context, tenantID uint, token string) (*domain.Order, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperr.Validationf("token", "token is required")
	}
	cart, err := h.repo.FindByRecoveryToken(ctx, tenantID, token)
	if err != nil {
		return nil, err
	}
	if !cart.IsCart() {
		return nil, apperr.NotFoundf("cart")
	}
	if cart.RecoveryExpired(h.now()) {
		return nil, apperr.New(apperr.Expired, "the recovery link has expired")
	}
	if cart.CartToken == "" {
		cart.CartToken = domain.NewCartToken()
		if err := h.repo.SaveOrder(ctx, cart); err != nil {
			return nil, fmt.Errorf("failed to save cart: %w", err)
		}
	}
	return cart, nil
}
