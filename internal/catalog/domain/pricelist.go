package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AppliedOn string

const (
	AppliedProduct  AppliedOn = "product"
	AppliedCategory AppliedOn = "category"
	AppliedGlobal   AppliedOn = "global"
)

type ComputeMode string

const (
	ComputeFixed      ComputeMode = "fixed"
	ComputePercentage ComputeMode = "percentage"
)

// Pricelist is an ordered set of price rules.
type Pricelist struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	TenantID   uint            `json:"tenant_id" gorm:"not null;index"`
	Name       string          `json:"name" gorm:"not null"`
	CurrencyID *uint           `json:"currency_id"`
	Sequence   int             `json:"sequence"`
	Active     bool            `json:"active"`
	Items      []PricelistItem `json:"items" gorm:"foreignKey:PricelistID;constraint:OnDelete:CASCADE"`
}

func (Pricelist) TableName() string { return "pricelists" }

type PricelistItem struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	PricelistID uint        `json:"pricelist_id" gorm:"not null;index"`
	AppliedOn   AppliedOn   `json:"applied_on" gorm:"size:16;not null"`
	ProductID   *uint       `json:"product_id"`
	CategoryID  *uint       `json:"category_id"`
	MinQuantity float64     `json:"min_quantity"`
	Compute     ComputeMode `json:"compute_price" gorm:"size:16;not null"`
	FixedPrice  float64     `json:"fixed_price"`
	// PercentDiscount is subtracted from the list price.
	PercentDiscount float64    `json:"percent_price"`
	DateStart       *time.Time `json:"date_start"`
	DateEnd         *time.Time `json:"date_end"`
}

func (PricelistItem) TableName() string { return "pricelist_items" }

func (it PricelistItem) matches(p *Product, qty float64, at time.Time) bool {
	if qty < it.MinQuantity {
		return false
	}
	if it.DateStart != nil && at.Before(*it.DateStart) {
		return false
	}
	if it.DateEnd != nil && at.After(*it.DateEnd) {
		return false
	}
	switch it.AppliedOn {
	case AppliedProduct:
		return it.ProductID != nil && *it.ProductID == p.ID
	case AppliedCategory:
		return it.CategoryID != nil && p.CategoryID != nil && *it.CategoryID == *p.CategoryID
	case AppliedGlobal:
		return true
	}
	return false
}

// Price applies the first matching item, trying product rules, then
// category rules, then global rules. Without a match it is basePrice.
func (pl *Pricelist) Price(p *Product, basePrice, qty float64, at time.Time) (float64, *PricelistItem) {
	for _, scope := range []AppliedOn{AppliedProduct, AppliedCategory, AppliedGlobal} {
		for i := range pl.Items {
			it := pl.Items[i]
			if it.AppliedOn != scope || !it.matches(p, qty, at) {
				continue
			}
			return it.apply(basePrice), &pl.Items[i]
		}
	}
	return basePrice, nil
}

func (it PricelistItem) apply(base float64) float64 {
	if it.Compute == ComputeFixed {
		return decimal.NewFromFloat(it.FixedPrice).Round(2).InexactFloat64()
	}
	b := decimal.NewFromFloat(base)
	off := b.Mul(decimal.NewFromFloat(it.PercentDiscount)).Div(decimal.NewFromInt(100))
	return b.Sub(off).Round(2).InexactFloat64()
}
