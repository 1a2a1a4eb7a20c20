package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/tenant-commerce/pkg/apperr"
)

type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

// Program is a loyalty program redeemed with a coupon code.
type Program struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	TenantID      uint            `json:"tenant_id" gorm:"not null;uniqueIndex:ux_program_code"`
	Code          string          `json:"code" gorm:"size:64;not null;uniqueIndex:ux_program_code"`
	Name          string          `json:"name"`
	Active        bool            `json:"active"`
	DateFrom      *time.Time      `json:"date_from"`
	DateTo        *time.Time      `json:"date_to"`
	DiscountType  DiscountType    `json:"discount_type" gorm:"size:16;not null"`
	DiscountValue decimal.Decimal `json:"discount_value" gorm:"type:numeric(16,2)"`
	MinimumAmount decimal.Decimal `json:"minimum_amount" gorm:"type:numeric(16,2)"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (Program) TableName() string { return "loyalty_programs" }

func NormalizeCode(code string) string { return strings.ToUpper(strings.TrimSpace(code)) }

// Check reports whether the program can be applied at now to an order
// worth subtotal.
func (p *Program) Check(now time.Time, subtotal decimal.Decimal) error {
	switch {
	case !p.Active:
		return apperr.Newf(apperr.InvalidValue, "coupon %s is not active", p.Code)
	case p.DateFrom != nil && now.Before(*p.DateFrom):
		return apperr.Newf(apperr.InvalidValue, "coupon %s is not valid yet", p.Code)
	case p.DateTo != nil && now.After(*p.DateTo):
		return apperr.Newf(apperr.InvalidValue, "coupon %s has expired", p.Code)
	case subtotal.LessThan(p.MinimumAmount):
		return apperr.Newf(apperr.InvalidValue, "coupon %s needs a minimum order of %s", p.Code, p.MinimumAmount.StringFixed(2))
	}
	return nil
}

// Discount is the amount taken off subtotal, never more than subtotal.
// Below the minimum amount it is zero.
func (p *Program) Discount(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.LessThan(p.MinimumAmount) || !subtotal.IsPositive() {
		return decimal.Zero
	}
	var d decimal.Decimal
	switch p.DiscountType {
	case DiscountPercent:
		d = subtotal.Mul(p.DiscountValue).Div(decimal.NewFromInt(100)).Round(2)
	case DiscountFixed:
		d = p.DiscountValue
	}
	if d.GreaterThan(subtotal) {
		return subtotal
	}
	return d
}

// Validate checks the program definition itself.
func (p *Program) Validate() error {
	if p.Code == "" {
		return apperr.Validationf("code", "code is required")
	}
	switch p.DiscountType {
	case DiscountPercent:
		if !p.DiscountValue.IsPositive() || p.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
			return apperr.Validationf("discount_value", "a percentage must be in (0, 100]")
		}
	case DiscountFixed:
		if !p.DiscountValue.IsPositive() {
			return apperr.Validationf("discount_value", "a fixed discount must be positive")
		}
	default:
		return apperr.Validationf("discount_type", "unknown discount type %q", p.DiscountType)
	}
	if p.MinimumAmount.IsNegative() {
		return apperr.Validationf("minimum_amount", "minimum amount must not be negative")
	}
	if p.DateFrom != nil && p.DateTo != nil && p.DateFrom.After(*p.DateTo) {
		return apperr.Validationf("date_to", "date_to must not be before date_from")
	}
	return nil
}
