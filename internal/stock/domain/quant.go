package domain

import "time"

// Quant is the authoritative quantity of a variant at a location.
type Quant struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	TenantID         uint      `json:"tenant_id" gorm:"not null;index"`
	VariantID        uint      `json:"variant_id" gorm:"not null;index"`
	LocationID       uint      `json:"location_id" gorm:"not null;index"`
	LotID            *uint     `json:"lot_id"`
	Quantity         float64   `json:"quantity"`
	ReservedQuantity float64   `json:"reserved_quantity"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Quant) TableName() string { return "quants" }

// QuantFilter selects quants. Empty id lists match everything;
// InternalOnly keeps quants in internal locations.
type QuantFilter struct {
	TenantID     uint
	VariantIDs   []uint
	LocationIDs  []uint
	InternalOnly bool
}

// Levels are the stock figures of one variant.
type Levels struct {
	VariantID uint        `json:"variant_id"`
	OnHand    float64     `json:"qty_available"`
	Free      float64     `json:"free_qty"`
	Incoming  float64     `json:"incoming_qty"`
	Outgoing  float64     `json:"outgoing_qty"`
	Virtual   float64     `json:"virtual_available"`
	Status    StockStatus `json:"stock_status"`
}

// SumLevels aggregates internal quants and pending moves into Levels per
// variant. internal reports whether a location counts toward on-hand.
func SumLevels(variantIDs []uint, quants []Quant, pending []Move, internal func(uint) bool) map[uint]Levels {
	out := make(map[uint]Levels, len(variantIDs))
	for _, id := range variantIDs {
		out[id] = Levels{VariantID: id}
	}
	for _, q := range quants {
		l, ok := out[q.VariantID]
		if !ok || !internal(q.LocationID) {
			continue
		}
		l.OnHand += q.Quantity
		l.Free += q.Quantity - q.ReservedQuantity
		out[q.VariantID] = l
	}
	for _, m := range pending {
		l, ok := out[m.VariantID]
		if !ok {
			continue
		}
		src, dst := internal(m.LocationID), internal(m.LocationDestID)
		switch {
		case dst && !src:
			l.Incoming += m.Quantity
		case src && !dst:
			l.Outgoing += m.Quantity
		}
		out[m.VariantID] = l
	}
	for id, l := range out {
		l.Virtual = l.OnHand + l.Incoming - l.Outgoing
		l.Status = Classify(l.OnHand)
		out[id] = l
	}
	return out
}
