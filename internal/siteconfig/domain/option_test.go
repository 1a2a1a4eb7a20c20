package domain

import (
	"reflect"
	"testing"

	"github.com/tair/tenant-commerce/pkg/apperr"
)

func TestResolveAppliesDefaults(t *testing.T) {
	got := Resolve([]Param{
		{Key: "wishlist_enabled", Value: "false"},
		{Key: "shipping_standard_days", Value: "garbage"},
		{Key: "payment_methods", Value: "card, paypal"},
	})
	if len(got) != len(options) {
		t.Fatalf("resolved %d options, want %d", len(got), len(options))
	}
	if got["wishlist_enabled"] != false || got["compare_enabled"] != true {
		t.Errorf("flags = wishlist %v, compare %v", got["wishlist_enabled"], got["compare_enabled"])
	}
	if got["shipping_standard_days"] != 5 {
		t.Errorf("shipping_standard_days = %v, want default 5", got["shipping_standard_days"])
	}
	if got["free_shipping_threshold"] != 100.0 {
		t.Errorf("free_shipping_threshold = %v, want 100", got["free_shipping_threshold"])
	}
	if want := []string{"card", "paypal"}; !reflect.DeepEqual(got["payment_methods"], want) {
		t.Errorf("payment_methods = %v, want %v", got["payment_methods"], want)
	}
}

func TestEncodeValidatesKind(t *testing.T) {
	tests := []struct {
		key     string
		value   interface{}
		want    string
		wantErr bool
	}{
		{"compare_enabled", false, "false", false},
		{"compare_enabled", "yes", "", true},
		{"warranty_years", 2.0, "2", false},
		{"warranty_years", 1.5, "", true},
		{"return_delay_days", -1.0, "", true},
		{"free_shipping_threshold", "49.90", "49.9", false},
		{"free_shipping_threshold", -5.0, "", true},
		{"payment_methods", []interface{}{"card", " cod "}, "card,cod", false},
		{"payment_methods", []interface{}{"a,b"}, "", true},
		{"contact_email", " shop@example.com ", "shop@example.com", false},
	}
	for _, tt := range tests {
		o, ok := Lookup(tt.key)
		if !ok {
			t.Fatalf("Lookup(%s) failed", tt.key)
		}
		got, err := o.Encode(tt.value)
		if tt.wantErr {
			if !apperr.HasCode(err, apperr.Validation) {
				t.Errorf("Encode(%s, %v) error = %v, want VALIDATION", tt.key, tt.value, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("Encode(%s, %v) = %q, %v; want %q", tt.key, tt.value, got, err, tt.want)
		}
	}
}
