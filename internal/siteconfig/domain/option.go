package domain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/tenant-commerce/pkg/apperr"
)

type Kind string

const (
	KindBool    Kind = "bool"
	KindString  Kind = "string"
	KindInt     Kind = "int"
	KindDecimal Kind = "decimal"
	// KindList is stored comma-separated.
	KindList Kind = "list"
)

// Option is one recognized site-config key.
type Option struct {
	Key     string
	Kind    Kind
	Default string
}

var options = []Option{
	{Key: "compare_enabled", Kind: KindBool, Default: "true"},
	{Key: "wishlist_enabled", Kind: KindBool, Default: "true"},
	{Key: "reviews_enabled", Kind: KindBool, Default: "true"},
	{Key: "newsletter_enabled", Kind: KindBool, Default: "true"},
	{Key: "whatsapp_number", Kind: KindString},
	{Key: "contact_email", Kind: KindString},
	{Key: "contact_phone", Kind: KindString},
	{Key: "shipping_standard_days", Kind: KindInt, Default: "5"},
	{Key: "shipping_express_days", Kind: KindInt, Default: "2"},
	{Key: "free_shipping_threshold", Kind: KindDecimal, Default: "100"},
	{Key: "return_delay_days", Kind: KindInt, Default: "30"},
	{Key: "refund_delay_days", Kind: KindInt, Default: "14"},
	{Key: "warranty_years", Kind: KindInt, Default: "1"},
	{Key: "payment_methods", Kind: KindList, Default: "card,bank_transfer,cash_on_delivery"},
}

var byKey = func() map[string]Option {
	m := make(map[string]Option, len(options))
	for _, o := range options {
		m[o.Key] = o
	}
	return m
}()

func Options() []Option { return append([]Option(nil), options...) }

func Lookup(key string) (Option, bool) {
	o, ok := byKey[key]
	return o, ok
}

// Param is a stored override of an option, kept as a string.
type Param struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	TenantID  uint      `json:"tenant_id" gorm:"not null;uniqueIndex:ux_site_param"`
	Key       string    `json:"key" gorm:"size:64;not null;uniqueIndex:ux_site_param"`
	Value     string    `json:"value" gorm:"type:text"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Param) TableName() string { return "site_config_params" }

// Encode validates a JSON-decoded value for the option and returns its
// stored form.
func (o Option) Encode(v interface{}) (string, error) {
	switch o.Kind {
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return "", apperr.Validationf(o.Key, "%s must be a boolean", o.Key)
		}
		return strconv.FormatBool(b), nil
	case KindString:
		s, ok := v.(string)
		if !ok {
			return "", apperr.Validationf(o.Key, "%s must be a string", o.Key)
		}
		return strings.TrimSpace(s), nil
	case KindInt:
		f, ok := v.(float64)
		if !ok || f != float64(int64(f)) || f < 0 {
			return "", apperr.Validationf(o.Key, "%s must be a non-negative integer", o.Key)
		}
		return strconv.FormatInt(int64(f), 10), nil
	case KindDecimal:
		var d decimal.Decimal
		switch x := v.(type) {
		case float64:
			d = decimal.NewFromFloat(x)
		case string:
			parsed, err := decimal.NewFromString(x)
			if err != nil {
				return "", apperr.Validationf(o.Key, "%s must be a number", o.Key)
			}
			d = parsed
		default:
			return "", apperr.Validationf(o.Key, "%s must be a number", o.Key)
		}
		if d.IsNegative() {
			return "", apperr.Validationf(o.Key, "%s must not be negative", o.Key)
		}
		return d.String(), nil
	case KindList:
		items, ok := v.([]interface{})
		if !ok {
			return "", apperr.Validationf(o.Key, "%s must be a list of strings", o.Key)
		}
		out := make([]string, 0, len(items))
		for _, it := range items {
			s, ok := it.(string)
			if !ok || strings.ContainsRune(s, ',') {
				return "", apperr.Validationf(o.Key, "%s items must be strings without commas", o.Key)
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return strings.Join(out, ","), nil
	}
	return "", fmt.Errorf("unknown option kind %q", o.Kind)
}

// Decode turns a stored string into its typed value. A value that no
// longer parses falls back to the default.
func (o Option) Decode(raw string) interface{} {
	switch o.Kind {
	case KindBool:
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
		b, _ := strconv.ParseBool(o.Default)
		return b
	case KindInt:
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
		n, _ := strconv.Atoi(o.Default)
		return n
	case KindDecimal:
		if d, err := decimal.NewFromString(raw); err == nil {
			f, _ := d.Float64()
			return f
		}
		f, _ := decimal.RequireFromString(o.Default).Float64()
		return f
	case KindList:
		out := []string{}
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return raw
}

// Resolve merges stored params over the defaults.
func Resolve(params []Param) map[string]interface{} {
	stored := make(map[string]string, len(params))
	for _, p := range params {
		stored[p.Key] = p.Value
	}
	out := make(map[string]interface{}, len(options))
	for _, o := range options {
		raw, ok := stored[o.Key]
		if !ok {
			raw = o.Default
		}
		out[o.Key] = o.Decode(raw)
	}
	return out
}

type Repository interface {
	List(ctx context.Context, tenantID uint) ([]Param, error)
	// Upsert writes every param, replacing the stored value of its key.
	Upsert(ctx context.Context, params []Param) error
}
