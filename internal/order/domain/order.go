package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/tenant-commerce/pkg/apperr"
)

type State string

const (
	StateDraft  State = "draft"
	StateSent   State = "sent"
	StateSale   State = "sale"
	StateDone   State = "done"
	StateCancel State = "cancel"
)

// Order is a quotation or sale. A cart is a draft without a date_order.
type Order struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	TenantID  uint   `json:"tenant_id" gorm:"not null;index"`
	Name      string `json:"name" gorm:"size:32"`
	PartnerID *uint  `json:"partner_id" gorm:"index"`
	Email     string `json:"email" gorm:"size:255"`
	// CartToken identifies a guest's cart between requests.
	CartToken string     `json:"cart_token,omitempty" gorm:"size:64;index"`
	State     State      `json:"state" gorm:"size:16;not null;index"`
	DateOrder *time.Time `json:"date_order"`

	CouponID       *uint           `json:"coupon_id"`
	CouponCode     string          `json:"coupon_code" gorm:"size:64"`
	AmountSubtotal decimal.Decimal `json:"amount_subtotal" gorm:"type:numeric(16,2)"`
	AmountDiscount decimal.Decimal `json:"amount_discount" gorm:"type:numeric(16,2)"`
	AmountTotal    decimal.Decimal `json:"amount_total" gorm:"type:numeric(16,2)"`

	RecoveryToken         string     `json:"-" gorm:"size:64;index"`
	RecoveryEmailSentDate *time.Time `json:"recovery_email_sent_date"`

	Lines     []OrderLine `json:"lines" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

type OrderLine struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	OrderID   uint            `json:"order_id" gorm:"not null;index"`
	VariantID uint            `json:"variant_id" gorm:"not null"`
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  float64         `json:"product_uom_qty"`
	UnitPrice decimal.Decimal `json:"price_unit" gorm:"type:numeric(16,2)"`
	Subtotal  decimal.Decimal `json:"price_subtotal" gorm:"type:numeric(16,2)"`
	Stockable bool            `json:"stockable"`
}

func (OrderLine) TableName() string { return "order_lines" }

func (o *Order) IsCart() bool { return o.State == StateDraft && o.DateOrder == nil }

// AddLine merges l into the line of the same variant. A line whose
// quantity drops to zero or below is removed.
func (o *Order) AddLine(l OrderLine) {
	for i := range o.Lines {
		if o.Lines[i].VariantID != l.VariantID {
			continue
		}
		o.Lines[i].Quantity += l.Quantity
		o.Lines[i].UnitPrice = l.UnitPrice
		if o.Lines[i].Quantity <= 0 {
			o.Lines = append(o.Lines[:i], o.Lines[i+1:]...)
		}
		return
	}
	if l.Quantity > 0 {
		o.Lines = append(o.Lines, l)
	}
}

// SetLineQuantity replaces a line's quantity, removing it when qty <= 0.
func (o *Order) SetLineQuantity(lineID uint, qty float64) error {
	for i := range o.Lines {
		if o.Lines[i].ID != lineID {
			continue
		}
		if qty <= 0 {
			o.Lines = append(o.Lines[:i], o.Lines[i+1:]...)
		} else {
			o.Lines[i].Quantity = qty
		}
		return nil
	}
	return apperr.NotFoundf("order line")
}

// Recompute refreshes line subtotals and order amounts; program is the
// attached coupon, if any.
func (o *Order) Recompute(program *Program) {
	subtotal := decimal.Zero
	for i := range o.Lines {
		l := &o.Lines[i]
		l.Subtotal = l.UnitPrice.Mul(decimal.NewFromFloat(l.Quantity)).Round(2)
		subtotal = subtotal.Add(l.Subtotal)
	}
	o.AmountSubtotal = subtotal
	o.AmountDiscount = decimal.Zero
	if program != nil {
		o.AmountDiscount = program.Discount(subtotal)
	}
	o.AmountTotal = subtotal.Sub(o.AmountDiscount)
}

// StockableLines are the lines that need a delivery.
func (o *Order) StockableLines() []OrderLine {
	var out []OrderLine
	for _, l := range o.Lines {
		if l.Stockable {
			out = append(out, l)
		}
	}
	return out
}

func (o *Order) transition(to State, from ...State) error {
	for _, s := range from {
		if o.State == s {
			o.State = to
			return nil
		}
	}
	return apperr.Newf(apperr.InvalidState, "order is %s; cannot move to %s", o.State, to)
}

func (o *Order) requireLines() error {
	if len(o.Lines) == 0 {
		return apperr.Validationf("lines", "the order has no lines")
	}
	return nil
}

// Send marks a quotation as sent to the customer.
func (o *Order) Send(now time.Time) error {
	if err := o.requireLines(); err != nil {
		return err
	}
	if err := o.transition(StateSent, StateDraft); err != nil {
		return err
	}
	if o.DateOrder == nil {
		o.DateOrder = &now
	}
	return nil
}

// Confirm turns a cart or quotation into a sale.
func (o *Order) Confirm(now time.Time) error {
	if err := o.requireLines(); err != nil {
		return err
	}
	if err := o.transition(StateSale, StateDraft, StateSent); err != nil {
		return err
	}
	o.DateOrder = &now
	o.CartToken = ""
	return nil
}

func (o *Order) Done() error { return o.transition(StateDone, StateSale) }

func (o *Order) Cancel() error {
	return o.transition(StateCancel, StateDraft, StateSent, StateSale)
}
