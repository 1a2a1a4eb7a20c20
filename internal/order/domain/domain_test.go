package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/tenant-commerce/pkg/apperr"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestProgramDiscount(t *testing.T) {
	tests := []struct {
		name     string
		program  Program
		subtotal string
		want     string
	}{
		{"percent", Program{DiscountType: DiscountPercent, DiscountValue: dec("15")}, "33.33", "5"},
		{"fixed", Program{DiscountType: DiscountFixed, DiscountValue: dec("10")}, "50", "10"},
		{"fixed capped at subtotal", Program{DiscountType: DiscountFixed, DiscountValue: dec("10")}, "6", "6"},
		{"below minimum", Program{DiscountType: DiscountFixed, DiscountValue: dec("10"), MinimumAmount: dec("100")}, "99.99", "0"},
		{"empty order", Program{DiscountType: DiscountPercent, DiscountValue: dec("10")}, "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.program.Discount(dec(tt.subtotal))
			if !got.Equal(dec(tt.want)) {
				t.Errorf("Discount(%s) = %s, want %s", tt.subtotal, got, tt.want)
			}
		})
	}
}

func TestProgramCheckWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	from, to := now.AddDate(0, 0, -1), now.AddDate(0, 0, 1)
	p := Program{Code: "X", Active: true, DateFrom: &from, DateTo: &to}

	if err := p.Check(now, dec("1")); err != nil {
		t.Fatalf("Check inside window: %v", err)
	}
	if err := p.Check(now.AddDate(0, 0, 2), dec("1")); !apperr.HasCode(err, apperr.InvalidValue) {
		t.Errorf("Check after window = %v, want INVALID_VALUE", err)
	}
	p.Active = false
	if err := p.Check(now, dec("1")); !apperr.HasCode(err, apperr.InvalidValue) {
		t.Errorf("Check inactive = %v, want INVALID_VALUE", err)
	}
}

func TestOrderStateMachine(t *testing.T) {
	now := time.Now()
	o := &Order{State: StateDraft}
	if !o.IsCart() {
		t.Fatal("new draft should be a cart")
	}
	if err := o.Confirm(now); !apperr.HasCode(err, apperr.Validation) {
		t.Fatalf("Confirm empty = %v, want VALIDATION", err)
	}
	o.AddLine(OrderLine{VariantID: 1, Quantity: 1, UnitPrice: dec("3")})
	o.CartToken = "t"
	if err := o.Confirm(now); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if o.IsCart() || o.CartToken != "" {
		t.Errorf("confirmed order still a cart (token %q)", o.CartToken)
	}
	if err := o.Send(now); !apperr.HasCode(err, apperr.InvalidState) {
		t.Errorf("Send from sale = %v, want INVALID_STATE", err)
	}
	if err := o.Done(); err != nil {
		t.Fatalf("Done: %v", err)
	}
	if err := o.Cancel(); !apperr.HasCode(err, apperr.InvalidState) {
		t.Errorf("Cancel from done = %v, want INVALID_STATE", err)
	}
}

func TestRecoveryExpiry(t *testing.T) {
	sent := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	o := &Order{}
	if !o.RecoveryExpired(sent) {
		t.Error("an order without a recovery mail should count as expired")
	}
	o.MarkRecoverySent("tok", sent)
	if o.RecoveryExpired(sent.Add(RecoveryTTL)) {
		t.Error("exactly seven days should still be valid")
	}
	if !o.RecoveryExpired(sent.Add(RecoveryTTL + time.Second)) {
		t.Error("past seven days should be expired")
	}
}

func TestRecoveryTokenShape(t *testing.T) {
	tok, err := NewRecoveryToken()
	if err != nil {
		t.Fatalf("NewRecoveryToken: %v", err)
	}
	if len(tok) != 43 {
		t.Errorf("token length = %d, want 43", len(tok))
	}
}
