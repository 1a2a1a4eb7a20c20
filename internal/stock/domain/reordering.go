package domain

import (
	"math"
	"time"
)

// ReorderingRule is the replenishment orderpoint of a variant in a
// warehouse. One active rule per (variant, warehouse).
type ReorderingRule struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	TenantID    uint      `json:"tenant_id" gorm:"not null;index"`
	VariantID   uint      `json:"variant_id" gorm:"not null;index"`
	WarehouseID uint      `json:"warehouse_id" gorm:"not null;index"`
	MinQty      float64   `json:"product_min_qty"`
	MaxQty      float64   `json:"product_max_qty"`
	Multiple    float64   `json:"qty_multiple"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ReorderingRule) TableName() string { return "reordering_rules" }

// Suggest returns the quantity to order for onHand, or 0 when onHand is
// not below the minimum. The result is the smallest multiple covering
// max - onHand.
func (r *ReorderingRule) Suggest(onHand float64) float64 {
	if onHand >= r.MinQty {
		return 0
	}
	multiple := r.Multiple
	if multiple <= 0 {
		multiple = 1
	}
	need := r.MaxQty - onHand
	// Guard against float noise turning an exact multiple into one more step.
	steps := math.Ceil(need/multiple - 1e-9)
	return steps * multiple
}

type Suggestion struct {
	RuleID      uint    `json:"rule_id"`
	VariantID   uint    `json:"variant_id"`
	WarehouseID uint    `json:"warehouse_id"`
	OnHand      float64 `json:"qty_on_hand"`
	MinQty      float64 `json:"product_min_qty"`
	MaxQty      float64 `json:"product_max_qty"`
	Multiple    float64 `json:"qty_multiple"`
	QtyToOrder  float64 `json:"qty_to_order"`
}
